// Package watcher reports finished audio files landing in a drop
// folder. The folder is watched flat: recorders write one capture per
// file and never nest directories, so there is no recursion and no
// rename tracking.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
)

// backend is the platform watch implementation.
type backend interface {
	Watch(dir string) error
	Start(ctx context.Context) error
	Stop() error
	Events() <-chan Event
	Errors() <-chan error
}

// Watcher reports files appearing in and disappearing from a single
// directory.
type Watcher struct {
	backend backend
	logger  *slog.Logger
}

// New creates a watcher with the best backend for the platform:
// inotify with IN_CLOSE_WRITE on Linux, so a capture is only reported
// once the recorder closes it, and fsnotify with settle detection
// elsewhere.
func New(logger *slog.Logger, opts Options) (*Watcher, error) {
	opts.setDefaults()

	var b backend
	var err error
	if runtime.GOOS == "linux" {
		b, err = newLinuxBackend(logger, opts)
	} else {
		b, err = newFallbackBackend(logger, opts)
	}
	if err != nil {
		return nil, fmt.Errorf("create watch backend: %w", err)
	}

	return &Watcher{backend: b, logger: logger}, nil
}

// Watch sets the directory to monitor. Only files directly inside it
// are reported; subdirectories are not descended into.
func (w *Watcher) Watch(dir string) error {
	return w.backend.Watch(dir)
}

// Start delivers events until the context is canceled.
func (w *Watcher) Start(ctx context.Context) error {
	return w.backend.Start(ctx)
}

// Stop releases the backend and closes the event channels.
func (w *Watcher) Stop() error {
	return w.backend.Stop()
}

// Events returns the channel of observed changes.
func (w *Watcher) Events() <-chan Event {
	return w.backend.Events()
}

// Errors returns the channel of backend errors.
func (w *Watcher) Errors() <-chan error {
	return w.backend.Errors()
}
