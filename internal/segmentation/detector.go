package segmentation

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"regexp"
	"sort"
	"strconv"

	"github.com/vinylflow/vinylflow-server/internal/errors"
)

var (
	silenceStartRegex = regexp.MustCompile(`silence_start:\s*(-?\d+(?:\.\d+)?)`)
	silenceEndRegex   = regexp.MustCompile(`silence_end:\s*(-?\d+(?:\.\d+)?)`)
)

// Detector runs ffmpeg's silencedetect filter over a recording and
// collects the silence intervals it reports.
type Detector struct {
	ffmpegPath string
	logger     *slog.Logger
}

// NewDetector creates a silence detector using the given ffmpeg binary.
func NewDetector(ffmpegPath string, logger *slog.Logger) *Detector {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &Detector{
		ffmpegPath: ffmpegPath,
		logger:     logger.With("component", "silence-detector"),
	}
}

// Detect decodes the file once and returns the silence intervals longer
// than params.MinSilenceSec, sorted by start time. Running it twice on
// the same file with the same params yields the same intervals.
func (d *Detector) Detect(ctx context.Context, path string, totalDuration float64, params Params) ([]SilenceInterval, error) {
	params = params.WithDefaults()

	filter := fmt.Sprintf("silencedetect=noise=%gdB:d=%g", params.ThresholdDB, params.MinSilenceSec)
	cmd := exec.CommandContext(ctx, d.ffmpegPath,
		"-hide_banner",
		"-nostats",
		"-i", path,
		"-af", filter,
		"-f", "null",
		"-",
	)

	// silencedetect writes its findings to stderr alongside the usual
	// ffmpeg chatter.
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to create stderr pipe")
	}

	if err := cmd.Start(); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to start ffmpeg")
	}

	intervals := ParseSilences(stderr, totalDuration)

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.Wrap(err, errors.CodeInternal, "silence detection failed")
	}

	d.logger.Debug("silence detection complete",
		"path", path,
		"threshold_db", params.ThresholdDB,
		"min_silence_sec", params.MinSilenceSec,
		"intervals", len(intervals))

	return intervals, nil
}

// ParseSilences reads ffmpeg silencedetect output and pairs up
// silence_start and silence_end lines. An unclosed start, which happens
// when the recording trails off into silence, is closed at the total
// duration. Starts reported slightly negative are clamped to zero.
func ParseSilences(r io.Reader, totalDuration float64) []SilenceInterval {
	var intervals []SilenceInterval
	var open *float64

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()

		if m := silenceStartRegex.FindStringSubmatch(line); m != nil {
			start, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				continue
			}
			if start < 0 {
				start = 0
			}
			open = &start
			continue
		}

		if m := silenceEndRegex.FindStringSubmatch(line); m != nil && open != nil {
			end, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				continue
			}
			if end > *open {
				intervals = append(intervals, SilenceInterval{Start: *open, End: end})
			}
			open = nil
		}
	}

	if open != nil && totalDuration > *open {
		intervals = append(intervals, SilenceInterval{Start: *open, End: totalDuration})
	}

	sort.Slice(intervals, func(i, j int) bool {
		return intervals[i].Start < intervals[j].Start
	})
	return intervals
}
