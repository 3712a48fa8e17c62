package media

import (
	"log/slog"
	"strings"
)

// Toolchain locates the ffmpeg and ffprobe binaries used by all media
// operations.
type Toolchain struct {
	ffmpegPath  string
	ffprobePath string
	logger      *slog.Logger
}

// NewToolchain creates a toolchain. An empty ffmpegPath means both
// binaries are found on PATH; otherwise ffprobe is expected beside the
// given ffmpeg.
func NewToolchain(ffmpegPath string, logger *slog.Logger) *Toolchain {
	ffprobePath := "ffprobe"
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	} else if idx := strings.LastIndexByte(ffmpegPath, '/'); idx >= 0 {
		ffprobePath = ffmpegPath[:idx+1] + "ffprobe"
	}
	return &Toolchain{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		logger:      logger.With("component", "media"),
	}
}
