package mdns

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstants(t *testing.T) {
	t.Run("service type is correct", func(t *testing.T) {
		assert.Equal(t, "_vinylflow._tcp", ServiceType)
	})

	t.Run("API version is v1", func(t *testing.T) {
		assert.Equal(t, "v1", APIVersion)
	})
}

func TestNewService(t *testing.T) {
	t.Run("creates service with logger", func(t *testing.T) {
		logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

		service := NewService(logger)

		require.NotNil(t, service)
		assert.Nil(t, service.server, "server should be nil before Start")
	})
}

func TestServiceStop(t *testing.T) {
	t.Run("stop when not started is safe", func(t *testing.T) {
		logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
		service := NewService(logger)

		// Should not panic
		service.Stop()
		assert.Nil(t, service.server)
	})

	t.Run("stop can be called multiple times", func(t *testing.T) {
		logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
		service := NewService(logger)

		// Should not panic
		service.Stop()
		service.Stop()
		service.Stop()
	})
}

func TestServiceStart(t *testing.T) {
	// Note: These tests may fail in environments without multicast support
	// (e.g., Docker containers, CI without network access)

	t.Run("start succeeds when multicast is available", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		service := NewService(logger)

		err := service.Start("Test Server", "1.0.0", 8080)

		if err == nil {
			assert.NotNil(t, service.server)
			assert.Contains(t, buf.String(), "mDNS advertisement started")

			service.Stop()
		} else {
			t.Logf("mDNS start failed (expected in some environments): %v", err)
		}
	})

	t.Run("start can restart existing server", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		service := NewService(logger)

		err1 := service.Start("Restart Test Server", "1.0.0", 8080)
		if err1 != nil {
			t.Skipf("mDNS not available in this environment: %v", err1)
		}

		// Second start (should restart)
		err2 := service.Start("Restart Test Server", "1.0.0", 8081)
		require.NoError(t, err2)
		assert.NotNil(t, service.server)

		service.Stop()
	})
}

func TestServiceLifecycle(t *testing.T) {
	t.Run("full lifecycle: create, start, stop", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))

		service := NewService(logger)
		require.NotNil(t, service)

		err := service.Start("Lifecycle Test", "1.0.0", 8080)
		if err != nil {
			t.Skipf("mDNS not available: %v", err)
		}
		assert.NotNil(t, service.server)

		service.Stop()
		assert.Nil(t, service.server)
		assert.Contains(t, buf.String(), "mDNS advertisement stopped")
	})
}

func TestServiceConcurrency(t *testing.T) {
	t.Run("concurrent stop calls are safe", func(t *testing.T) {
		logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
		service := NewService(logger)

		err := service.Start("Concurrent Test", "1.0.0", 8080)
		if err != nil {
			t.Skipf("mDNS not available: %v", err)
		}

		// Concurrent stops should be safe
		done := make(chan struct{})
		for range 10 {
			go func() {
				service.Stop()
				done <- struct{}{}
			}()
		}

		// Wait for all goroutines
		for range 10 {
			<-done
		}

		assert.Nil(t, service.server)
	})
}
