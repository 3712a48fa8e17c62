// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	App      AppConfig
	Logger   LoggerConfig
	Server   ServerConfig
	Storage  StorageConfig
	Analysis AnalysisConfig
	Export   ExportConfig
	Discogs  DiscogsConfig
	Inbox    InboxConfig
	Cleanup  CleanupConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Name          string
	Port          string        // Server port (default: 8080)
	ReadTimeout   time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout  time.Duration // HTTP write timeout (default: 15s)
	IdleTimeout   time.Duration // HTTP idle timeout (default: 60s)
	AdvertiseMDNS bool          // Advertise via mDNS/Zeroconf (default: true)
}

// StorageConfig holds on-disk layout configuration.
type StorageConfig struct {
	// DataPath is the base directory for server state (default: ~/VinylFlow/data).
	DataPath string
	// UploadPath is the directory for uploaded side captures (default: {data}/uploads).
	UploadPath string
	// CachePath is the directory for peaks and preview caches (default: {data}/cache).
	CachePath string
	// HistoryDBPath is the SQLite digitization ledger (default: {data}/history.db).
	HistoryDBPath string
	// SearchIndexPath is the bleve index over the history (default: {data}/history.bleve).
	SearchIndexPath string
}

// AnalysisConfig holds default silence detection parameters.
// Individual analyze requests may override them.
type AnalysisConfig struct {
	// SilenceThresholdDB is the noise floor in dBFS (default: -40).
	SilenceThresholdDB float64
	// MinSilence is the minimum gap treated as a track break (default: 1.5s).
	MinSilence time.Duration
	// MinTrackLength is the shortest span kept as its own track (default: 30s).
	MinTrackLength time.Duration
}

// ExportConfig holds track extraction configuration.
type ExportConfig struct {
	// OutputPath is where finished albums are filed (default: ~/VinylFlow/output).
	OutputPath string
	// FlacCompression is the FLAC compression level 0-12 (default: 8).
	FlacCompression int
	// MaxConcurrent is the maximum simultaneous track extractions (default: 2).
	MaxConcurrent int
	// FFmpegPath overrides auto-detection of ffmpeg location (default: auto-detect).
	FFmpegPath string
}

// DiscogsConfig holds Discogs API configuration.
type DiscogsConfig struct {
	// Token is a Discogs personal access token. Required for search.
	Token string
	// UserAgent identifies this client to Discogs (they require a descriptive one).
	UserAgent string
	// RequestsPerSecond caps the request rate (Discogs allows 1/s for token auth).
	RequestsPerSecond float64
	// CacheTTL is how long fetched releases stay cached (default: 24h).
	CacheTTL time.Duration
}

// InboxConfig holds the drop-folder import configuration.
type InboxConfig struct {
	// Enabled turns the inbox watcher on (default: false).
	Enabled bool
	// Path is the watched directory for incoming WAV captures.
	Path string
}

// CleanupConfig holds upload retention configuration.
type CleanupConfig struct {
	// UploadTTL is how long unexported uploads are kept (default: 24h).
	UploadTTL time.Duration
	// Interval is how often the sweep runs (default: 6h).
	Interval time.Duration
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	// Define command-line flags.
	env := flag.String("env", "", "Environment (development, staging, production)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := flag.String("data-path", "", "Base path for server state")
	uploadPath := flag.String("upload-path", "", "Path for uploaded captures")
	outputPath := flag.String("output-path", "", "Path for finished albums")
	serverName := flag.String("server-name", "", "Name for the server")

	// Server flags
	serverPort := flag.String("port", "", "Server port (default: 8080)")
	readTimeout := flag.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := flag.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := flag.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	advertiseMDNS := flag.String("advertise-mdns", "", "Advertise via mDNS/Zeroconf (default: true)")

	envFile := flag.String("env-file", ".env", "Path to .env file")

	// Export flags
	flacCompression := flag.String("flac-compression", "", "FLAC compression level 0-12 (default: 8)")
	exportMaxConcurrent := flag.String("export-max-concurrent", "", "Max concurrent track extractions (default: 2)")
	ffmpegPath := flag.String("ffmpeg-path", "", "Path to ffmpeg binary (default: auto-detect)")

	// Discogs flags
	discogsToken := flag.String("discogs-token", "", "Discogs personal access token")

	// Inbox flags
	inboxEnabled := flag.String("inbox-enabled", "", "Watch a drop folder for incoming captures (default: false)")
	inboxPath := flag.String("inbox-path", "", "Drop folder path")

	// Parse flags but don't exit on error - we want to handle it gracefully.
	flag.Parse()

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	// Build config with proper precedence.
	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Server: ServerConfig{
			Name:          getConfigValue(*serverName, "SERVER_NAME", "VinylFlow Server"),
			Port:          getConfigValue(*serverPort, "SERVER_PORT", "8080"),
			AdvertiseMDNS: getBoolConfigValue(*advertiseMDNS, "ADVERTISE_MDNS", true),
		},
		Storage: StorageConfig{
			DataPath:   getConfigValue(*dataPath, "DATA_PATH", ""),
			UploadPath: getConfigValue(*uploadPath, "UPLOAD_PATH", ""),
		},
		Analysis: AnalysisConfig{
			SilenceThresholdDB: getFloatConfigValue("", "SILENCE_THRESHOLD_DB", -40),
			MinSilence:         getDurationConfigValue("", "MIN_SILENCE_DURATION", 1500*time.Millisecond),
			MinTrackLength:     getDurationConfigValue("", "MIN_TRACK_LENGTH", 30*time.Second),
		},
		Export: ExportConfig{
			OutputPath:      getConfigValue(*outputPath, "DEFAULT_OUTPUT_DIR", ""),
			FlacCompression: getIntConfigValue(*flacCompression, "FLAC_COMPRESSION_LEVEL", 8),
			MaxConcurrent:   getIntConfigValue(*exportMaxConcurrent, "EXPORT_MAX_CONCURRENT", 2),
			FFmpegPath:      getConfigValue(*ffmpegPath, "FFMPEG_PATH", ""),
		},
		Discogs: DiscogsConfig{
			Token:             getConfigValue(*discogsToken, "DISCOGS_USER_TOKEN", ""),
			UserAgent:         getConfigValue("", "DISCOGS_USER_AGENT", "VinylFlowServer/1.0"),
			RequestsPerSecond: getFloatConfigValue("", "DISCOGS_REQUESTS_PER_SECOND", 1),
			CacheTTL:          getDurationConfigValue("", "DISCOGS_CACHE_TTL", 24*time.Hour),
		},
		Inbox: InboxConfig{
			Enabled: getBoolConfigValue(*inboxEnabled, "INBOX_ENABLED", false),
			Path:    getConfigValue(*inboxPath, "INBOX_PATH", ""),
		},
		Cleanup: CleanupConfig{
			UploadTTL: getDurationConfigValue("", "UPLOAD_TTL", 24*time.Hour),
			Interval:  getDurationConfigValue("", "CLEANUP_INTERVAL", 6*time.Hour),
		},
	}

	// Parse server timeouts.
	readTimeoutStr := getConfigValue(*readTimeout, "SERVER_READ_TIMEOUT", "15s")
	readTimeoutDuration, err := time.ParseDuration(readTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid read timeout %q: %w", readTimeoutStr, err)
	}
	cfg.Server.ReadTimeout = readTimeoutDuration

	writeTimeoutStr := getConfigValue(*writeTimeout, "SERVER_WRITE_TIMEOUT", "15s")
	writeTimeoutDuration, err := time.ParseDuration(writeTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid write timeout %q: %w", writeTimeoutStr, err)
	}
	cfg.Server.WriteTimeout = writeTimeoutDuration

	idleTimeoutStr := getConfigValue(*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s")
	idleTimeoutDuration, err := time.ParseDuration(idleTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid idle timeout %q: %w", idleTimeoutStr, err)
	}
	cfg.Server.IdleTimeout = idleTimeoutDuration

	// Expand storage paths.
	if err := cfg.expandStoragePaths(); err != nil {
		return nil, fmt.Errorf("invalid storage path: %w", err)
	}

	// Expand output and inbox paths.
	if err := cfg.expandExportPaths(); err != nil {
		return nil, fmt.Errorf("invalid export path: %w", err)
	}

	// Validate configuration.
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Storage.DataPath == "" {
		return errors.New("data path cannot be empty after expansion")
	}

	if c.Analysis.SilenceThresholdDB >= 0 {
		return fmt.Errorf("silence threshold must be negative dBFS, got %g", c.Analysis.SilenceThresholdDB)
	}
	if c.Analysis.MinSilence <= 0 {
		return errors.New("min silence duration must be positive")
	}
	if c.Analysis.MinTrackLength <= 0 {
		return errors.New("min track length must be positive")
	}

	if c.Export.FlacCompression < 0 || c.Export.FlacCompression > 12 {
		return fmt.Errorf("flac compression level must be 0-12, got %d", c.Export.FlacCompression)
	}
	if c.Export.MaxConcurrent < 1 {
		return fmt.Errorf("export max concurrent must be at least 1, got %d", c.Export.MaxConcurrent)
	}

	if c.Discogs.RequestsPerSecond <= 0 {
		return errors.New("discogs requests per second must be positive")
	}

	if c.Inbox.Enabled && c.Inbox.Path == "" {
		return errors.New("inbox path is required when the inbox watcher is enabled")
	}

	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	// Expand tilde.
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	// Make absolute if needed.
	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandStoragePaths expands ~ and fills the derived defaults under the data path.
func (c *Config) expandStoragePaths() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultData := filepath.Join(homeDir, "VinylFlow", "data")

	expanded, err := expandPath(c.Storage.DataPath, defaultData)
	if err != nil {
		return err
	}
	c.Storage.DataPath = expanded

	uploads, err := expandPath(c.Storage.UploadPath, filepath.Join(c.Storage.DataPath, "uploads"))
	if err != nil {
		return err
	}
	c.Storage.UploadPath = uploads

	c.Storage.CachePath = filepath.Join(c.Storage.DataPath, "cache")
	c.Storage.HistoryDBPath = filepath.Join(c.Storage.DataPath, "history.db")
	c.Storage.SearchIndexPath = filepath.Join(c.Storage.DataPath, "history.bleve")
	return nil
}

// expandExportPaths expands ~ for the output directory and inbox.
// Output defaults to ~/VinylFlow/output.
func (c *Config) expandExportPaths() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultOutput := filepath.Join(homeDir, "VinylFlow", "output")

	expanded, err := expandPath(c.Export.OutputPath, defaultOutput)
	if err != nil {
		return err
	}
	c.Export.OutputPath = expanded

	if c.Inbox.Path != "" {
		inbox, err := expandPath(c.Inbox.Path, "")
		if err != nil {
			return err
		}
		c.Inbox.Path = inbox
	}
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	// Priority 1: Command-line flag.
	if flagValue != "" {
		return flagValue
	}

	// Priority 2: Environment variable.
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}

	// Priority 3: Default value.
	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result int
	if _, err := fmt.Sscanf(strValue, "%d", &result); err != nil {
		return defaultValue
	}
	return result
}

// getFloatConfigValue returns a float64 from flag, env var, or default.
func getFloatConfigValue(flagValue, envKey string, defaultValue float64) float64 {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result float64
	if _, err := fmt.Sscanf(strValue, "%g", &result); err != nil {
		return defaultValue
	}
	return result
}

// getDurationConfigValue returns a time.Duration from flag, env var, or default.
func getDurationConfigValue(flagValue, envKey string, defaultValue time.Duration) time.Duration {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	result, err := time.ParseDuration(strValue)
	if err != nil {
		return defaultValue
	}
	return result
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments.
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=value.
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Remove quotes if present.
		value = strings.Trim(value, `"'`)

		// Only set if not already set (env vars take precedence over .env file).
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
