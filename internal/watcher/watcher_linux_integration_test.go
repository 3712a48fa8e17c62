//go:build linux

package watcher

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startedLinuxBackend(t *testing.T, opts Options) (*linuxBackend, string) {
	t.Helper()
	opts.setDefaults()

	backend, err := newLinuxBackend(slog.New(slog.DiscardHandler), opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Stop() })

	tmpDir := t.TempDir()
	require.NoError(t, backend.Watch(tmpDir))

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go backend.Start(ctx) //nolint:errcheck // Test goroutine

	return backend, tmpDir
}

func TestLinuxBackend_FileCreation(t *testing.T) {
	backend, tmpDir := startedLinuxBackend(t, Options{IgnoreHidden: true})

	testFile := filepath.Join(tmpDir, "side-a.wav")
	content := []byte("test capture content")
	require.NoError(t, os.WriteFile(testFile, content, 0o644))

	// IN_CLOSE_WRITE fires as soon as WriteFile closes the file.
	select {
	case event := <-backend.Events():
		assert.Equal(t, EventAdded, event.Type)
		assert.Equal(t, testFile, event.Path)
		assert.Equal(t, int64(len(content)), event.Size)
	case err := <-backend.Errors():
		t.Fatalf("unexpected error: %v", err)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("timeout waiting for event")
	}
}

func TestLinuxBackend_FileDeletion(t *testing.T) {
	backend, tmpDir := startedLinuxBackend(t, Options{})

	testFile := filepath.Join(tmpDir, "side-a.wav")
	require.NoError(t, os.WriteFile(testFile, []byte("content"), 0o644))

	// Drain the add event for the write above.
	select {
	case <-backend.Events():
	case <-time.After(500 * time.Millisecond):
		t.Fatal("timeout waiting for add event")
	}

	require.NoError(t, os.Remove(testFile))

	select {
	case event := <-backend.Events():
		assert.Equal(t, EventRemoved, event.Type)
		assert.Equal(t, testFile, event.Path)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("timeout waiting for deletion event")
	}
}

func TestLinuxBackend_MoveInAndOut(t *testing.T) {
	backend, tmpDir := startedLinuxBackend(t, Options{})

	// A finished capture renamed into the folder counts as added.
	outside := filepath.Join(t.TempDir(), "capture.flac")
	require.NoError(t, os.WriteFile(outside, []byte("flac bytes"), 0o644))
	inside := filepath.Join(tmpDir, "capture.flac")
	require.NoError(t, os.Rename(outside, inside))

	select {
	case event := <-backend.Events():
		assert.Equal(t, EventAdded, event.Type)
		assert.Equal(t, inside, event.Path)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("timeout waiting for move-in event")
	}

	// Moving it back out counts as removed.
	require.NoError(t, os.Rename(inside, outside))

	select {
	case event := <-backend.Events():
		assert.Equal(t, EventRemoved, event.Type)
		assert.Equal(t, inside, event.Path)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("timeout waiting for move-out event")
	}
}

func TestLinuxBackend_IgnoreHidden(t *testing.T) {
	backend, tmpDir := startedLinuxBackend(t, Options{IgnoreHidden: true})

	hiddenFile := filepath.Join(tmpDir, ".hidden.wav")
	require.NoError(t, os.WriteFile(hiddenFile, []byte("secret"), 0o644))

	normalFile := filepath.Join(tmpDir, "normal.wav")
	require.NoError(t, os.WriteFile(normalFile, []byte("content"), 0o644))

	select {
	case event := <-backend.Events():
		assert.Equal(t, normalFile, event.Path)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("timeout waiting for event")
	}

	select {
	case event := <-backend.Events():
		t.Fatalf("unexpected event for hidden file: %+v", event)
	case <-time.After(200 * time.Millisecond):
		// No event for the hidden file.
	}
}
