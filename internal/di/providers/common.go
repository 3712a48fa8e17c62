package providers

import "time"

const (
	// shutdownTimeout is the maximum time to wait for graceful shutdown of services.
	shutdownTimeout = 30 * time.Second

	// serverVersion is advertised over mDNS and reported by the health endpoint.
	serverVersion = "1.0.0"
)
