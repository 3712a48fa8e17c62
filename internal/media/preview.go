package media

import (
	"context"
	"crypto/md5"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

const (
	// previewLength is how much of a track a preview plays.
	previewLength = 30.0

	previewBitrate = "128k"
)

// Preview renders a short MP3 clip from the start of a track span and
// caches it under cacheDir. The cache key covers the source and the
// span, so an edited boundary produces a fresh clip. Returns the path
// of the cached file.
func (t *Toolchain) Preview(ctx context.Context, src, cacheDir string, start, end float64) (string, error) {
	if end <= start {
		return "", fmt.Errorf("invalid span %.3f-%.3f", start, end)
	}

	length := end - start
	if length > previewLength {
		length = previewLength
	}

	key := md5.Sum(fmt.Appendf(nil, "%s:%.3f:%.3f", src, start, end))
	path := filepath.Join(cacheDir, fmt.Sprintf("%x.mp3", key))

	if info, err := os.Stat(path); err == nil && info.Size() > 0 {
		return path, nil
	}

	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return "", fmt.Errorf("create preview cache dir: %w", err)
	}

	// Write to a temp name first so a canceled encode never leaves a
	// truncated file under the cache key.
	tmp := path + ".part"
	cmd := exec.CommandContext(ctx, t.ffmpegPath,
		"-hide_banner",
		"-loglevel", "error",
		"-y",
		"-ss", formatSeconds(start),
		"-t", formatSeconds(length),
		"-i", src,
		"-c:a", "libmp3lame",
		"-b:a", previewBitrate,
		"-f", "mp3",
		tmp,
	)
	var stderr strings.Builder
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		os.Remove(tmp)
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("render preview: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("publish preview: %w", err)
	}
	return path, nil
}
