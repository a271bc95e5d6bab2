package di

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"soundgraph-backend/internal/application/services"
	"soundgraph-backend/internal/config"
	"soundgraph-backend/internal/infrastructure/cache"
	"soundgraph-backend/internal/infrastructure/observability"
	"soundgraph-backend/internal/interfaces/http/rest"
)

const (
	sweepInterval        = time.Minute
	cacheCleanupInterval = 5 * time.Minute
)

// Container holds the wired application graph.
type Container struct {
	Config   *config.Config
	Logger   *zap.Logger
	Metrics  *observability.Collector
	Tracing  *observability.TracerProvider
	Sessions *services.SessionStore
	Cache    *cache.MemoryCache
	Explorer *services.ExplorerService
	Router   *rest.Router
}

// Start launches the background sweepers. They stop when ctx is cancelled.
func (c *Container) Start(ctx context.Context) {
	c.Sessions.StartSweeper(ctx, sweepInterval)
	c.Cache.StartCleanup(ctx, cacheCleanupInterval)
}

// WatchConfig hot-reloads the tag denylist and taxonomy table when the
// configuration files change. Outside development the returned watcher is
// inert. Callers must Stop it.
func (c *Container) WatchConfig(ctx context.Context, loader *config.Loader) (*config.ConfigWatcher, error) {
	watcher, err := config.NewConfigWatcher(loader, c.Config, c.Logger.Named("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to watch configuration: %w", err)
	}

	for _, r := range c.reloaders(ctx) {
		watcher.OnChange(r.Reload)
	}
	return watcher, nil
}

func (c *Container) reloaders(ctx context.Context) []*config.ComponentReloader {
	logger := c.Logger.Named("reload")
	return []*config.ComponentReloader{
		config.NewComponentReloader("denylist", func(cfg *config.Config) error {
			c.Explorer.ReloadDenylist(Denylist(cfg))
			return nil
		}, logger),
		config.NewComponentReloader("taxonomy", func(cfg *config.Config) error {
			c.Explorer.ReloadTaxonomy(ctx, TaxonomyTable(cfg))
			return nil
		}, logger),
	}
}
