// Package media shells out to ffmpeg and ffprobe for everything that
// touches audio samples: probing uploads, rendering waveform peaks,
// extracting tracks, and cutting previews.
package media

import (
	"bytes"
	"context"
	"encoding/json/v2"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// ProbeResult describes an audio file as reported by ffprobe.
type ProbeResult struct {
	Duration   float64
	SampleRate int
	Channels   int
	Codec      string
	SizeBytes  int64
}

// Probe inspects an audio file. It fails if the file has no audio
// stream or no parseable duration, which filters out stray uploads
// before they reach analysis.
func (t *Toolchain) Probe(ctx context.Context, path string) (*ProbeResult, error) {
	cmd := exec.CommandContext(ctx, t.ffprobePath,
		"-v", "error",
		"-select_streams", "a:0",
		"-show_entries", "stream=codec_name,sample_rate,channels",
		"-show_entries", "format=duration,size",
		"-of", "json",
		path,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffprobe %s: %w: %s", path, err, strings.TrimSpace(stderr.String()))
	}

	var out struct {
		Streams []struct {
			CodecName  string `json:"codec_name"`
			SampleRate string `json:"sample_rate"`
			Channels   int    `json:"channels"`
		} `json:"streams"`
		Format struct {
			Duration string `json:"duration"`
			Size     string `json:"size"`
		} `json:"format"`
	}
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		return nil, fmt.Errorf("parse ffprobe output: %w", err)
	}

	if len(out.Streams) == 0 {
		return nil, fmt.Errorf("no audio stream in %s", path)
	}

	duration, err := strconv.ParseFloat(out.Format.Duration, 64)
	if err != nil || duration <= 0 {
		return nil, fmt.Errorf("no usable duration in %s", path)
	}

	result := &ProbeResult{
		Duration: duration,
		Codec:    out.Streams[0].CodecName,
		Channels: out.Streams[0].Channels,
	}
	if sr, err := strconv.Atoi(out.Streams[0].SampleRate); err == nil {
		result.SampleRate = sr
	}
	if size, err := strconv.ParseInt(out.Format.Size, 10, 64); err == nil {
		result.SizeBytes = size
	}

	return result, nil
}

// Duration returns just the duration of an audio file in seconds.
func (t *Toolchain) Duration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, t.ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)

	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe duration %s: %w", path, err)
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration: %w", err)
	}
	return duration, nil
}
