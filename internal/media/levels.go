package media

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os/exec"
)

const (
	// peaksSampleRate is plenty for a visual waveform; decoding at the
	// source rate would be 5x the work for identical pixels.
	peaksSampleRate = 8000

	// maxPeaks caps the number of buckets returned for one recording.
	maxPeaks = 3000
)

// Peaks decodes the recording to mono 16-bit PCM at a reduced sample
// rate and returns up to maxPeaks normalized peak values in 0..1, one
// per equal-length bucket. The UI draws these as the waveform.
func (t *Toolchain) Peaks(ctx context.Context, path string, duration float64) ([]float64, error) {
	if duration <= 0 {
		return nil, fmt.Errorf("non-positive duration for %s", path)
	}

	cmd := exec.CommandContext(ctx, t.ffmpegPath,
		"-hide_banner",
		"-loglevel", "error",
		"-i", path,
		"-ac", "1",
		"-ar", fmt.Sprintf("%d", peaksSampleRate),
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-",
	)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("create stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start ffmpeg: %w", err)
	}

	totalSamples := int(duration * peaksSampleRate)
	buckets := maxPeaks
	if totalSamples < buckets {
		buckets = totalSamples
	}
	if buckets < 1 {
		buckets = 1
	}
	samplesPerBucket := totalSamples / buckets
	if samplesPerBucket < 1 {
		samplesPerBucket = 1
	}

	peaks := make([]float64, 0, buckets)
	buf := make([]byte, 8192)
	var (
		carry      byte
		haveCarry  bool
		inBucket   int
		bucketPeak int
	)

	flush := func() {
		peaks = append(peaks, float64(bucketPeak)/32768.0)
		bucketPeak = 0
		inBucket = 0
	}

	for {
		n, readErr := stdout.Read(buf)
		chunk := buf[:n]

		// Samples are two bytes; a read can split one.
		if haveCarry && n > 0 {
			sample := int(int16(binary.LittleEndian.Uint16([]byte{carry, chunk[0]})))
			if sample < 0 {
				sample = -sample
			}
			if sample > bucketPeak {
				bucketPeak = sample
			}
			inBucket++
			if inBucket >= samplesPerBucket && len(peaks) < buckets-1 {
				flush()
			}
			chunk = chunk[1:]
			haveCarry = false
		}
		if len(chunk)%2 == 1 {
			carry = chunk[len(chunk)-1]
			haveCarry = true
			chunk = chunk[:len(chunk)-1]
		}

		for i := 0; i+1 < len(chunk); i += 2 {
			sample := int(int16(binary.LittleEndian.Uint16(chunk[i : i+2])))
			if sample < 0 {
				sample = -sample
			}
			if sample > bucketPeak {
				bucketPeak = sample
			}
			inBucket++
			if inBucket >= samplesPerBucket && len(peaks) < buckets-1 {
				flush()
			}
		}

		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			cmd.Wait()
			return nil, fmt.Errorf("read pcm stream: %w", readErr)
		}
	}

	if inBucket > 0 || len(peaks) == 0 {
		flush()
	}

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("decode %s for peaks: %w", path, err)
	}

	return peaks, nil
}
