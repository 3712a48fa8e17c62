package discogs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vinylflow/vinylflow-server/internal/ratelimit"
)

const (
	// Discogs allows 60 requests per minute for authenticated clients;
	// one per second with a small burst stays comfortably under that.
	defaultRPS   = 1.0
	defaultBurst = 3

	// HTTP client settings
	defaultTimeout = 30 * time.Second

	// API settings
	defaultHost       = "api.discogs.com"
	defaultNumResults = 25
	maxNumResults     = 50
)

// Client is a rate-limited Discogs API client.
type Client struct {
	http      *http.Client
	limiter   *ratelimit.Limiter
	logger    *slog.Logger
	baseURL   string
	token     string
	userAgent string
}

// New creates a new Discogs client. The token is a personal access
// token; without one, searches are refused by Discogs but release
// lookups still work at a lower rate limit.
func New(token, userAgent string, rps float64, logger *slog.Logger) *Client {
	if rps <= 0 {
		rps = defaultRPS
	}
	if userAgent == "" {
		userAgent = "VinylFlowServer/1.0"
	}
	return &Client{
		http: &http.Client{
			Timeout: defaultTimeout,
		},
		limiter:   ratelimit.New(rps, defaultBurst),
		logger:    logger,
		baseURL:   "https://" + defaultHost,
		token:     token,
		userAgent: userAgent,
	}
}

// doRequest executes an HTTP request with rate limiting.
func (c *Client) doRequest(ctx context.Context, path string, query url.Values) ([]byte, error) {
	// Wait for rate limit
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Discogs token="+c.token)
	}

	c.logger.Debug("discogs request", "path", path)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return body, nil
	case http.StatusNotFound:
		return nil, ErrNotFound
	case http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, ErrUnauthorized
	case http.StatusBadRequest:
		return nil, ErrBadRequest
	default:
		if resp.StatusCode >= 500 {
			return nil, ErrServer
		}
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}
}

// joinArtists renders the artist credit the way Discogs displays it,
// honoring each entry's join string.
func joinArtists(artists []rawArtist) string {
	var b strings.Builder
	for i, a := range artists {
		b.WriteString(a.Name)
		if i == len(artists)-1 {
			break
		}
		join := strings.TrimSpace(a.Join)
		if join == "" {
			join = ","
		}
		if join == "," {
			b.WriteString(", ")
		} else {
			b.WriteString(" " + join + " ")
		}
	}
	return b.String()
}

// selectCoverURL picks the primary image, falling back to the first.
func selectCoverURL(images []rawImage) string {
	for _, img := range images {
		if img.Type == "primary" && img.URI != "" {
			return img.URI
		}
	}
	if len(images) > 0 {
		return images[0].URI
	}
	return ""
}
