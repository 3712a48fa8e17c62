package images

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStorage(t *testing.T) {
	t.Run("creates covers directory", func(t *testing.T) {
		tmpDir := t.TempDir()

		storage, err := NewStorage(tmpDir)
		require.NoError(t, err)
		require.NotNil(t, storage)

		info, err := os.Stat(filepath.Join(tmpDir, "covers"))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("returns error for empty path", func(t *testing.T) {
		storage, err := NewStorage("")
		assert.Error(t, err)
		assert.Nil(t, storage)
	})

	t.Run("creates nested directories if needed", func(t *testing.T) {
		nestedPath := filepath.Join(t.TempDir(), "nested", "metadata")

		storage, err := NewStorage(nestedPath)
		require.NoError(t, err)
		require.NotNil(t, storage)
		assert.DirExists(t, filepath.Join(nestedPath, "covers"))
	})
}

func TestStorageRoundTrip(t *testing.T) {
	storage := setupTestStorage(t)
	testData := []byte("cover bytes")

	require.NoError(t, storage.Save("249504", testData))
	assert.True(t, storage.Exists("249504"))

	data, err := storage.Get("249504")
	require.NoError(t, err)
	assert.Equal(t, testData, data)

	assert.Equal(t, filepath.Join(storage.basePath, "249504.jpg"), storage.Path("249504"))
}

func TestStorageValidation(t *testing.T) {
	storage := setupTestStorage(t)

	assert.Error(t, storage.Save("", []byte("data")))
	assert.Error(t, storage.Save("249504", nil))

	_, err := storage.Get("")
	assert.Error(t, err)

	_, err = storage.Get("missing")
	assert.ErrorContains(t, err, "cover not found")

	assert.False(t, storage.Exists(""))
	assert.False(t, storage.Exists("missing"))
}

func TestStorageOverwrite(t *testing.T) {
	storage := setupTestStorage(t)

	require.NoError(t, storage.Save("249504", []byte("first")))
	require.NoError(t, storage.Save("249504", []byte("second")))

	data, err := storage.Get("249504")
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), data)
}

func TestStorageDelete(t *testing.T) {
	storage := setupTestStorage(t)

	require.NoError(t, storage.Save("249504", []byte("data")))
	require.NoError(t, storage.Delete("249504"))
	assert.False(t, storage.Exists("249504"))

	// Deleting again is not an error.
	assert.NoError(t, storage.Delete("249504"))
	assert.Error(t, storage.Delete(""))
}

func TestStorageHash(t *testing.T) {
	storage := setupTestStorage(t)

	require.NoError(t, storage.Save("a", []byte("data1")))
	require.NoError(t, storage.Save("b", []byte("data2")))

	hashA, err := storage.Hash("a")
	require.NoError(t, err)
	assert.Len(t, hashA, 64)

	hashA2, err := storage.Hash("a")
	require.NoError(t, err)
	assert.Equal(t, hashA, hashA2)

	hashB, err := storage.Hash("b")
	require.NoError(t, err)
	assert.NotEqual(t, hashA, hashB)

	_, err = storage.Hash("missing")
	assert.Error(t, err)
}

func TestStorageConcurrent(t *testing.T) {
	storage := setupTestStorage(t)

	const goroutines = 10
	done := make(chan bool, goroutines)

	for i := 0; i < goroutines; i++ {
		go func(n int) {
			err := storage.Save("249504", []byte{byte(n + 1)})
			assert.NoError(t, err)
			done <- true
		}(i)
	}
	for i := 0; i < goroutines; i++ {
		<-done
	}

	data, err := storage.Get("249504")
	require.NoError(t, err)
	assert.Len(t, data, 1)
}

func TestDownscale(t *testing.T) {
	t.Run("leaves small images alone", func(t *testing.T) {
		data := encodeJPEG(t, 600, 600)

		out, width, height, resized, err := Downscale(data)
		require.NoError(t, err)
		assert.False(t, resized)
		assert.Equal(t, data, out)
		assert.Equal(t, 600, width)
		assert.Equal(t, 600, height)
	})

	t.Run("shrinks oversized covers", func(t *testing.T) {
		data := encodeJPEG(t, 2800, 1400)

		out, width, height, resized, err := Downscale(data)
		require.NoError(t, err)
		assert.True(t, resized)
		assert.Equal(t, 1400, width)
		assert.Equal(t, 700, height)

		img, _, err := image.Decode(bytes.NewReader(out))
		require.NoError(t, err)
		assert.Equal(t, 1400, img.Bounds().Dx())
	})

	t.Run("re-encodes oversized PNG as JPEG", func(t *testing.T) {
		src := image.NewRGBA(image.Rect(0, 0, 1500, 1600))
		var buf bytes.Buffer
		require.NoError(t, png.Encode(&buf, src))

		out, width, height, resized, err := Downscale(buf.Bytes())
		require.NoError(t, err)
		assert.True(t, resized)
		assert.Equal(t, 1400, height)
		assert.Equal(t, 1500*1400/1600, width)

		_, format, err := image.Decode(bytes.NewReader(out))
		require.NoError(t, err)
		assert.Equal(t, "jpeg", format)
	})

	t.Run("rejects garbage data", func(t *testing.T) {
		_, _, _, _, err := Downscale([]byte("not an image"))
		assert.Error(t, err)
	})
}

func encodeJPEG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y += 100 {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 40, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func setupTestStorage(t *testing.T) *Storage {
	t.Helper()
	storage, err := NewStorage(t.TempDir())
	require.NoError(t, err)
	return storage
}
