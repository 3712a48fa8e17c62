package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		App: AppConfig{
			Environment: "development",
		},
		Logger: LoggerConfig{
			Level: "info",
		},
		Storage: StorageConfig{
			DataPath: "/some/path",
		},
		Analysis: AnalysisConfig{
			SilenceThresholdDB: -40,
			MinSilence:         1500 * time.Millisecond,
			MinTrackLength:     30 * time.Second,
		},
		Export: ExportConfig{
			OutputPath:      "/some/output",
			FlacCompression: 8,
			MaxConcurrent:   2,
		},
		Discogs: DiscogsConfig{
			RequestsPerSecond: 1,
		},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	err := validConfig().Validate()
	assert.NoError(t, err)
}

func TestValidate_AllEnvironments(t *testing.T) {
	tests := []struct {
		env   string
		valid bool
	}{
		{"development", true},
		{"staging", true},
		{"production", true},
		{"test", false},
		{"", false},
		{"DEVELOPMENT", false}, // case sensitive
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			cfg := validConfig()
			cfg.App.Environment = tt.env

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_AllLogLevels(t *testing.T) {
	tests := []struct {
		level string
		valid bool
	}{
		{"debug", true},
		{"info", true},
		{"warn", true},
		{"error", true},
		{"DEBUG", true},  // case insensitive
		{"INFO", true},   // case insensitive
		{"trace", false}, // not supported
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			cfg := validConfig()
			cfg.Logger.Level = tt.level

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_EmptyDataPath(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.DataPath = ""

	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "data path cannot be empty")
}

func TestValidate_AnalysisBounds(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"positive threshold", func(c *Config) { c.Analysis.SilenceThresholdDB = 10 }},
		{"zero threshold", func(c *Config) { c.Analysis.SilenceThresholdDB = 0 }},
		{"zero min silence", func(c *Config) { c.Analysis.MinSilence = 0 }},
		{"zero min track length", func(c *Config) { c.Analysis.MinTrackLength = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidate_ExportBounds(t *testing.T) {
	tests := []struct {
		name        string
		compression int
		concurrent  int
		valid       bool
	}{
		{"defaults", 8, 2, true},
		{"min compression", 0, 1, true},
		{"max compression", 12, 1, true},
		{"compression too high", 13, 2, false},
		{"negative compression", -1, 2, false},
		{"zero concurrency", 8, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Export.FlacCompression = tt.compression
			cfg.Export.MaxConcurrent = tt.concurrent

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_InboxRequiresPath(t *testing.T) {
	cfg := validConfig()
	cfg.Inbox.Enabled = true
	cfg.Inbox.Path = ""

	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "inbox path")
}

func TestExpandStoragePaths_EmptyUsesDefault(t *testing.T) {
	cfg := &Config{}

	err := cfg.expandStoragePaths()
	require.NoError(t, err)

	homeDir, _ := os.UserHomeDir() //nolint:errcheck // Test setup
	expected := filepath.Join(homeDir, "VinylFlow", "data")
	assert.Equal(t, expected, cfg.Storage.DataPath)
	assert.Equal(t, filepath.Join(expected, "uploads"), cfg.Storage.UploadPath)
	assert.Equal(t, filepath.Join(expected, "history.db"), cfg.Storage.HistoryDBPath)
	assert.Equal(t, filepath.Join(expected, "history.bleve"), cfg.Storage.SearchIndexPath)
}

func TestExpandStoragePaths_TildeExpansion(t *testing.T) {
	cfg := &Config{
		Storage: StorageConfig{
			DataPath: "~/my-data",
		},
	}

	err := cfg.expandStoragePaths()
	require.NoError(t, err)

	homeDir, _ := os.UserHomeDir() //nolint:errcheck // Test setup
	expected := filepath.Join(homeDir, "my-data")
	assert.Equal(t, expected, cfg.Storage.DataPath)
}

func TestExpandStoragePaths_AbsolutePath(t *testing.T) {
	cfg := &Config{
		Storage: StorageConfig{
			DataPath: "/absolute/path/to/data",
		},
	}

	err := cfg.expandStoragePaths()
	require.NoError(t, err)

	assert.Equal(t, "/absolute/path/to/data", cfg.Storage.DataPath)
}

func TestExpandExportPaths_EmptyUsesDefault(t *testing.T) {
	cfg := &Config{}

	err := cfg.expandExportPaths()
	require.NoError(t, err)

	homeDir, _ := os.UserHomeDir() //nolint:errcheck // Test setup
	expected := filepath.Join(homeDir, "VinylFlow", "output")
	assert.Equal(t, expected, cfg.Export.OutputPath)
}

func TestGetConfigValue_Precedence(t *testing.T) {
	// Test flag value takes priority.
	result := getConfigValue("flag-value", "ENV_KEY", "default-value")
	assert.Equal(t, "flag-value", result)

	// Test env var when flag is empty.
	os.Setenv("TEST_ENV_KEY", "env-value") //nolint:errcheck // Test setup
	defer os.Unsetenv("TEST_ENV_KEY")      //nolint:errcheck // Test cleanup

	result = getConfigValue("", "TEST_ENV_KEY", "default-value")
	assert.Equal(t, "env-value", result)

	// Test default when both are empty.
	result = getConfigValue("", "NONEXISTENT_KEY", "default-value")
	assert.Equal(t, "default-value", result)
}

func TestGetFloatConfigValue(t *testing.T) {
	os.Setenv("TEST_FLOAT_KEY", "-35.5") //nolint:errcheck // Test setup
	defer os.Unsetenv("TEST_FLOAT_KEY")  //nolint:errcheck // Test cleanup

	assert.Equal(t, -35.5, getFloatConfigValue("", "TEST_FLOAT_KEY", -40))
	assert.Equal(t, float64(-40), getFloatConfigValue("", "NONEXISTENT_KEY", -40))
}

func TestGetDurationConfigValue(t *testing.T) {
	os.Setenv("TEST_DURATION_KEY", "2.5s") //nolint:errcheck // Test setup
	defer os.Unsetenv("TEST_DURATION_KEY") //nolint:errcheck // Test cleanup

	assert.Equal(t, 2500*time.Millisecond, getDurationConfigValue("", "TEST_DURATION_KEY", time.Second))
	assert.Equal(t, time.Second, getDurationConfigValue("", "NONEXISTENT_KEY", time.Second))

	os.Setenv("TEST_DURATION_KEY", "not-a-duration") //nolint:errcheck // Test setup
	assert.Equal(t, time.Second, getDurationConfigValue("", "TEST_DURATION_KEY", time.Second))
}

func TestLoadEnvFile_ValidFile(t *testing.T) {
	// Create temp .env file.
	tmpDir := t.TempDir()
	envFile := filepath.Join(tmpDir, ".env")

	content := `# Test env file
ENV=staging
LOG_LEVEL=debug
DATA_PATH=/test/path
# Comment line
QUOTED_VALUE="some value"
SINGLE_QUOTED='another value'
`
	err := os.WriteFile(envFile, []byte(content), 0o644)
	require.NoError(t, err)

	// Clear any existing env vars.
	os.Unsetenv("ENV")           //nolint:errcheck // Test cleanup
	os.Unsetenv("LOG_LEVEL")     //nolint:errcheck // Test cleanup
	os.Unsetenv("DATA_PATH")     //nolint:errcheck // Test cleanup
	os.Unsetenv("QUOTED_VALUE")  //nolint:errcheck // Test cleanup
	os.Unsetenv("SINGLE_QUOTED") //nolint:errcheck // Test cleanup
	defer func() {
		os.Unsetenv("ENV")           //nolint:errcheck // Test cleanup
		os.Unsetenv("LOG_LEVEL")     //nolint:errcheck // Test cleanup
		os.Unsetenv("DATA_PATH")     //nolint:errcheck // Test cleanup
		os.Unsetenv("QUOTED_VALUE")  //nolint:errcheck // Test cleanup
		os.Unsetenv("SINGLE_QUOTED") //nolint:errcheck // Test cleanup
	}()

	// Load the file.
	err = loadEnvFile(envFile)
	require.NoError(t, err)

	// Verify values were loaded.
	assert.Equal(t, "staging", os.Getenv("ENV"))
	assert.Equal(t, "debug", os.Getenv("LOG_LEVEL"))
	assert.Equal(t, "/test/path", os.Getenv("DATA_PATH"))
	assert.Equal(t, "some value", os.Getenv("QUOTED_VALUE"))
	assert.Equal(t, "another value", os.Getenv("SINGLE_QUOTED"))
}

func TestLoadEnvFile_InvalidFormat(t *testing.T) {
	// Create temp .env file with invalid format.
	tmpDir := t.TempDir()
	envFile := filepath.Join(tmpDir, ".env")

	content := `VALID_KEY=valid_value
INVALID LINE WITHOUT EQUALS
ANOTHER_VALID=value
`
	err := os.WriteFile(envFile, []byte(content), 0o644)
	require.NoError(t, err)

	// Should return error.
	err = loadEnvFile(envFile)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestLoadEnvFile_NonExistentFile(t *testing.T) {
	err := loadEnvFile("/nonexistent/file/.env")
	assert.Error(t, err)
}

func TestLoadEnvFile_ExistingEnvVarsNotOverwritten(t *testing.T) {
	// Set env var first.
	os.Setenv("TEST_VAR", "original-value") //nolint:errcheck // Test setup
	defer os.Unsetenv("TEST_VAR")           //nolint:errcheck // Test cleanup

	// Create temp .env file that tries to override it.
	tmpDir := t.TempDir()
	envFile := filepath.Join(tmpDir, ".env")

	content := `TEST_VAR=new-value`
	err := os.WriteFile(envFile, []byte(content), 0o644)
	require.NoError(t, err)

	// Load the file.
	err = loadEnvFile(envFile)
	require.NoError(t, err)

	// Original value should be preserved.
	assert.Equal(t, "original-value", os.Getenv("TEST_VAR"))
}

func TestLoadEnvFile_Whitespace(t *testing.T) {
	tmpDir := t.TempDir()
	envFile := filepath.Join(tmpDir, ".env")

	content := `  KEY_WITH_SPACES  =  value with spaces  `
	err := os.WriteFile(envFile, []byte(content), 0o644)
	require.NoError(t, err)

	os.Unsetenv("KEY_WITH_SPACES")       //nolint:errcheck // Test cleanup
	defer os.Unsetenv("KEY_WITH_SPACES") //nolint:errcheck // Test cleanup

	err = loadEnvFile(envFile)
	require.NoError(t, err)

	// Whitespace should be trimmed.
	assert.Equal(t, "value with spaces", os.Getenv("KEY_WITH_SPACES"))
}
