package service

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vinylflow/vinylflow-server/internal/config"
)

func TestCaptureKey(t *testing.T) {
	assert.Equal(t, captureKey("side-a.wav", 1024), captureKey("SIDE-A.WAV", 1024))
	assert.NotEqual(t, captureKey("side-a.wav", 1024), captureKey("side-a.wav", 2048))
	assert.NotEqual(t, captureKey("side-a.wav", 1024), captureKey("side-b.wav", 1024))
}

func TestInboxSkipsAlreadyImportedCapture(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "side-a.wav")
	content := []byte("capture bytes")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	svc := NewInboxService(nil, config.InboxConfig{Path: dir}, slog.New(slog.DiscardHandler))
	svc.imported[captureKey("side-a.wav", int64(len(content)))] = struct{}{}

	// A nil recording service would panic if the import went ahead, so
	// returning cleanly means the duplicate was skipped before upload.
	svc.importFile(context.Background(), path)

	_, err := os.Stat(path)
	assert.NoError(t, err, "skipped duplicate should be left in place")
}

func TestInboxSameNameDifferentSizeIsNotADuplicate(t *testing.T) {
	svc := NewInboxService(nil, config.InboxConfig{}, slog.New(slog.DiscardHandler))
	svc.imported[captureKey("side-a.wav", 100)] = struct{}{}

	_, dup := svc.imported[captureKey("side-a.wav", 200)]
	assert.False(t, dup)
}

func TestInboxIgnoresUnknownExtensions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("not audio"), 0o644))

	svc := NewInboxService(nil, config.InboxConfig{Path: dir}, slog.New(slog.DiscardHandler))
	svc.importFile(context.Background(), path)

	_, err := os.Stat(path)
	assert.NoError(t, err, "non-capture files stay untouched")
	assert.Empty(t, svc.imported)
}
