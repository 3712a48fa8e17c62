package media

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/exec"
	"strings"
)

const (
	// minTrackFileBytes is the floor below which an extracted file is
	// treated as a failed encode rather than a very quiet song.
	minTrackFileBytes = 1000

	// durationTolerance is how far the extracted file's length may
	// deviate from the requested span, in seconds.
	durationTolerance = 2.0
)

// Tags is the vorbis comment set written to each extracted track.
type Tags struct {
	Artist      string
	Album       string
	Title       string
	TrackNumber int
	Date        string
	Label       string
	ReleaseID   int
	Comment     string
}

// args renders the tags as ffmpeg -metadata arguments in a stable
// order.
func (t Tags) args() []string {
	var out []string
	add := func(key, value string) {
		if value != "" {
			out = append(out, "-metadata", key+"="+value)
		}
	}
	add("ARTIST", t.Artist)
	add("ALBUM", t.Album)
	add("TITLE", t.Title)
	if t.TrackNumber > 0 {
		add("TRACKNUMBER", fmt.Sprintf("%d", t.TrackNumber))
	}
	add("DATE", t.Date)
	add("LABEL", t.Label)
	if t.ReleaseID > 0 {
		add("DISCOGS_RELEASE_ID", fmt.Sprintf("%d", t.ReleaseID))
	}
	add("COMMENT", t.Comment)
	return out
}

// ExtractRequest describes one track cut out of a side capture.
type ExtractRequest struct {
	Source      string
	Dest        string
	Start       float64
	End         float64
	Compression int

	// CoverPath, when set, is an image embedded in the output as the
	// front cover picture.
	CoverPath string

	Tags Tags
}

// extractArgs builds the full ffmpeg argument list for a cut. The
// cover, when present, rides along as a second input mapped to an
// attached picture stream.
func extractArgs(req ExtractRequest) []string {
	compression := req.Compression
	if compression < 0 || compression > 12 {
		compression = 8
	}

	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-y",
		"-ss", formatSeconds(req.Start),
		"-to", formatSeconds(req.End),
		"-i", req.Source,
	}
	if req.CoverPath != "" {
		args = append(args,
			"-i", req.CoverPath,
			"-map", "0:a",
			"-map", "1:v",
		)
	}
	args = append(args, "-map_metadata", "-1")
	args = append(args, req.Tags.args()...)
	args = append(args,
		"-c:a", "flac",
		"-compression_level", fmt.Sprintf("%d", compression),
	)
	if req.CoverPath != "" {
		args = append(args,
			"-c:v", "mjpeg",
			"-disposition:v", "attached_pic",
			"-metadata:s:v", "comment=Cover (front)",
		)
	}
	return append(args, req.Dest)
}

// ExtractTrack cuts [Start, End) out of the source recording and
// encodes it as tagged FLAC at Dest, embedding the front cover when
// one is supplied. The result is verified: a file under
// minTrackFileBytes or with a duration off by more than
// durationTolerance seconds is removed and reported as an error.
func (t *Toolchain) ExtractTrack(ctx context.Context, req ExtractRequest) error {
	if req.End <= req.Start {
		return fmt.Errorf("invalid span %.3f-%.3f", req.Start, req.End)
	}

	cmd := exec.CommandContext(ctx, t.ffmpegPath, extractArgs(req)...)
	var stderr strings.Builder
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		os.Remove(req.Dest)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("extract %s: %w: %s", req.Dest, err, strings.TrimSpace(stderr.String()))
	}

	if err := t.verifyTrack(ctx, req.Dest, req.End-req.Start); err != nil {
		os.Remove(req.Dest)
		return err
	}
	return nil
}

// verifyTrack sanity-checks an extracted file.
func (t *Toolchain) verifyTrack(ctx context.Context, path string, wantDuration float64) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat extracted track: %w", err)
	}
	if info.Size() < minTrackFileBytes {
		return fmt.Errorf("extracted track %s is only %d bytes", path, info.Size())
	}

	got, err := t.Duration(ctx, path)
	if err != nil {
		return fmt.Errorf("verify extracted track: %w", err)
	}
	if math.Abs(got-wantDuration) > durationTolerance {
		return fmt.Errorf("extracted track %s runs %.2fs, expected %.2fs", path, got, wantDuration)
	}
	return nil
}

// formatSeconds renders a position for ffmpeg with millisecond
// precision.
func formatSeconds(s float64) string {
	return fmt.Sprintf("%.3f", s)
}
