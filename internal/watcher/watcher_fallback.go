//go:build !linux

package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// fallbackBackend watches the drop folder with fsnotify. These
// platforms have no close-write notification, so a file counts as
// finished once its size and mtime hold still for the settle delay.
type fallbackBackend struct {
	logger  *slog.Logger
	opts    Options
	watcher *fsnotify.Watcher
	dir     string

	mu      sync.Mutex
	pending map[string]*pendingFile

	events chan Event
	errors chan error
	done   chan struct{}
	wg     sync.WaitGroup

	stopOnce sync.Once
	stopErr  error
}

// pendingFile is a file still being written.
type pendingFile struct {
	size    int64
	modTime time.Time
	timer   *time.Timer
}

func newFallbackBackend(logger *slog.Logger, opts Options) (*fallbackBackend, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	return &fallbackBackend{
		logger:  logger,
		opts:    opts,
		watcher: fsw,
		pending: make(map[string]*pendingFile),
		events:  make(chan Event, 100),
		errors:  make(chan error, 10),
		done:    make(chan struct{}),
	}, nil
}

// Watch points the backend at the drop folder.
func (b *fallbackBackend) Watch(dir string) error {
	dir = filepath.Clean(dir)

	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("stat watch dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watch path %s is not a directory", dir)
	}

	if err := b.watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	b.dir = dir
	b.logger.Debug("watching drop folder", "dir", dir)
	return nil
}

// Start begins processing fsnotify events. Blocks until the context
// is canceled.
func (b *fallbackBackend) Start(ctx context.Context) error {
	b.wg.Add(1)
	go b.processEvents(ctx)

	<-ctx.Done()
	return nil
}

func (b *fallbackBackend) processEvents(ctx context.Context) {
	defer b.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-b.done:
			return
		case ev, ok := <-b.watcher.Events:
			if !ok {
				return
			}
			b.handle(ev)
		case err, ok := <-b.watcher.Errors:
			if !ok {
				return
			}
			select {
			case b.errors <- err:
			case <-b.done:
			}
		}
	}
}

func (b *fallbackBackend) handle(ev fsnotify.Event) {
	path := ev.Name
	if b.opts.shouldIgnore(path) {
		return
	}

	if ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
		b.cancelPending(path)
		b.emit(Event{Type: EventRemoved, Path: path})
		return
	}

	if ev.Op&(fsnotify.Create|fsnotify.Write) != 0 {
		b.startSettling(path)
	}
}

// startSettling arms the settle timer for a file, restarting it on
// every new write.
func (b *fallbackBackend) startSettling(path string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if p, ok := b.pending[path]; ok {
		p.timer.Stop()
	}

	info, err := os.Stat(path)
	if err != nil {
		delete(b.pending, path)
		return
	}
	if info.IsDir() {
		return
	}

	p := &pendingFile{size: info.Size(), modTime: info.ModTime()}
	p.timer = time.AfterFunc(b.opts.SettleDelay, func() { b.checkSettled(path) })
	b.pending[path] = p
}

// checkSettled emits the file if it stopped growing, or re-arms the
// timer while it is still being written.
func (b *fallbackBackend) checkSettled(path string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	p, ok := b.pending[path]
	if !ok {
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		// Deleted mid-settle.
		delete(b.pending, path)
		b.emit(Event{Type: EventRemoved, Path: path})
		return
	}

	if info.Size() != p.size || !info.ModTime().Equal(p.modTime) {
		p.size = info.Size()
		p.modTime = info.ModTime()
		p.timer = time.AfterFunc(b.opts.SettleDelay, func() { b.checkSettled(path) })
		return
	}

	delete(b.pending, path)
	b.emit(Event{
		Type:    EventAdded,
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	})
}

func (b *fallbackBackend) cancelPending(path string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if p, ok := b.pending[path]; ok {
		p.timer.Stop()
		delete(b.pending, path)
	}
}

func (b *fallbackBackend) emit(ev Event) {
	select {
	case b.events <- ev:
	case <-b.done:
	}
}

// Events returns the events channel.
func (b *fallbackBackend) Events() <-chan Event {
	return b.events
}

// Errors returns the errors channel.
func (b *fallbackBackend) Errors() <-chan error {
	return b.errors
}

// Stop cancels pending timers and closes the event channels. Safe to
// call more than once.
func (b *fallbackBackend) Stop() error {
	b.stopOnce.Do(func() {
		close(b.done)

		b.mu.Lock()
		for _, p := range b.pending {
			p.timer.Stop()
		}
		clear(b.pending)
		b.mu.Unlock()

		b.stopErr = b.watcher.Close()
		b.wg.Wait()
		close(b.events)
		close(b.errors)
	})
	return b.stopErr
}

// newLinuxBackend exists to satisfy the compiler; non-Linux builds
// never select it.
func newLinuxBackend(*slog.Logger, Options) (backend, error) {
	return nil, fmt.Errorf("inotify backend requires linux")
}
