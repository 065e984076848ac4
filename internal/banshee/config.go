package banshee

import (
	"fmt"

	"github.com/nicolastakashi/banshee-console/internal/cache"
	"github.com/nicolastakashi/banshee-console/internal/config"
	"github.com/prometheus/client_golang/prometheus"
)

// NewClientFromConfig builds the client every subcommand talks to banshee
// through. The returned store must be closed by the caller.
func NewClientFromConfig(cfg *config.Config, reg prometheus.Registerer) (*Client, cache.Store, error) {
	store, err := cache.New(cfg.Cache)
	if err != nil {
		return nil, nil, fmt.Errorf("create cache: %w", err)
	}

	client, err := NewClient(
		cfg.Upstream.URL,
		reg,
		WithTimeout(cfg.Upstream.Timeout),
		WithRateLimit(cfg.Upstream.RequestsPerSecond, cfg.Upstream.Burst),
		WithCache(store, cfg.Cache.TTL),
	)
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	return client, store, nil
}
