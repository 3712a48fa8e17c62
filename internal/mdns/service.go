// Package mdns provides mDNS/Zeroconf advertisement so clients on the
// local network can discover the VinylFlow server without configuration.
package mdns

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/hashicorp/mdns"
)

const (
	// ServiceType is the mDNS service type advertised by VinylFlow servers.
	ServiceType = "_vinylflow._tcp"

	// APIVersion is the API version advertised in TXT records.
	APIVersion = "v1"
)

// Service manages mDNS advertisement for the VinylFlow server.
type Service struct {
	server *mdns.Server
	logger *slog.Logger
	mu     sync.Mutex
}

// NewService creates a new mDNS service.
func NewService(logger *slog.Logger) *Service {
	return &Service{
		logger: logger,
	}
}

// Start begins advertising the server. It should be called after the
// HTTP server is listening. Errors are typically non-fatal, multicast
// is often unavailable inside containers.
func (s *Service) Start(name, version string, port int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Stop existing server if running (for restart scenarios)
	if s.server != nil {
		_ = s.server.Shutdown()
		s.server = nil
	}

	host, err := os.Hostname()
	if err != nil {
		host = "vinylflow-server"
	}

	txtRecords := []string{
		fmt.Sprintf("name=%s", name),
		fmt.Sprintf("version=%s", version),
		fmt.Sprintf("api=%s", APIVersion),
	}

	service, err := mdns.NewMDNSService(
		host,        // Instance name (hostname)
		ServiceType, // Service type (_vinylflow._tcp)
		"",          // Domain (empty = .local)
		"",          // Host (empty = use system hostname)
		port,        // Port
		nil,         // IPs (nil = all interfaces)
		txtRecords,  // TXT records
	)
	if err != nil {
		return fmt.Errorf("create mDNS service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{
		Zone: service,
	})
	if err != nil {
		return fmt.Errorf("start mDNS server: %w", err)
	}

	s.server = server

	s.logger.Info("mDNS advertisement started",
		"service", ServiceType,
		"port", port,
		"name", name,
	)

	return nil
}

// Stop stops mDNS advertising.
// Safe to call multiple times or if not started.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		_ = s.server.Shutdown()
		s.server = nil
		s.logger.Info("mDNS advertisement stopped")
	}
}
