package images

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
)

const (
	// maxCoverDim caps the longest edge of stored covers. Discogs
	// primary images can be several thousand pixels; anything past
	// this size only wastes disk and tag space.
	maxCoverDim = 1400

	// jpegQuality for re-encoded covers.
	jpegQuality = 90
)

// Downscale decodes image data and, if either dimension exceeds
// maxCoverDim, scales it down preserving aspect ratio and re-encodes
// it as JPEG. Data already within bounds is returned unchanged.
// Returns the (possibly new) data, the stored dimensions, and whether
// a resize happened.
func Downscale(data []byte) ([]byte, int, int, bool, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, 0, 0, false, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	if width <= maxCoverDim && height <= maxCoverDim {
		return data, width, height, false, nil
	}

	scaled := scaleToFit(img, maxCoverDim)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, scaled, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, 0, 0, false, fmt.Errorf("encode jpeg: %w", err)
	}

	sb := scaled.Bounds()
	return buf.Bytes(), sb.Dx(), sb.Dy(), true, nil
}

// scaleToFit resizes img so its longest edge is maxDim, preserving
// aspect ratio. Images already within bounds are returned as-is.
// Uses nearest-neighbor sampling, which is fast and good enough for
// cover thumbnails and placeholders.
func scaleToFit(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	srcWidth := bounds.Dx()
	srcHeight := bounds.Dy()

	if srcWidth <= maxDim && srcHeight <= maxDim {
		return img
	}

	var dstWidth, dstHeight int
	if srcWidth > srcHeight {
		dstWidth = maxDim
		dstHeight = (srcHeight * maxDim) / srcWidth
		if dstHeight < 1 {
			dstHeight = 1
		}
	} else {
		dstHeight = maxDim
		dstWidth = (srcWidth * maxDim) / srcHeight
		if dstWidth < 1 {
			dstWidth = 1
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, dstWidth, dstHeight))

	xRatio := float64(srcWidth) / float64(dstWidth)
	yRatio := float64(srcHeight) / float64(dstHeight)

	for y := 0; y < dstHeight; y++ {
		for x := 0; x < dstWidth; x++ {
			srcX := int(float64(x) * xRatio)
			srcY := int(float64(y) * yRatio)
			dst.Set(x, y, img.At(bounds.Min.X+srcX, bounds.Min.Y+srcY))
		}
	}

	return dst
}
