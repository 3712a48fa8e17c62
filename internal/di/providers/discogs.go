package providers

import (
	"github.com/samber/do/v2"

	"github.com/vinylflow/vinylflow-server/internal/config"
	"github.com/vinylflow/vinylflow-server/internal/logger"
	"github.com/vinylflow/vinylflow-server/internal/metadata/discogs"
)

// DiscogsClientHandle wraps the Discogs client. Client is nil when no
// token is configured; the catalog service degrades to cache-only.
type DiscogsClientHandle struct {
	Client *discogs.Client
}

// ProvideDiscogsClient provides the Discogs API client.
func ProvideDiscogsClient(i do.Injector) (*DiscogsClientHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Discogs.Token == "" {
		log.Warn("No Discogs token configured - catalog search disabled, cached releases still served")
		return &DiscogsClientHandle{Client: nil}, nil
	}

	client := discogs.New(
		cfg.Discogs.Token,
		cfg.Discogs.UserAgent,
		cfg.Discogs.RequestsPerSecond,
		log.Logger,
	)

	log.Info("Discogs client ready",
		"user_agent", cfg.Discogs.UserAgent,
		"requests_per_second", cfg.Discogs.RequestsPerSecond,
	)

	return &DiscogsClientHandle{Client: client}, nil
}
