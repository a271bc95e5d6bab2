//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"soundgraph-backend/internal/application/ports"
	"soundgraph-backend/internal/application/services"
	"soundgraph-backend/internal/config"
	"soundgraph-backend/internal/infrastructure/cache"
	"soundgraph-backend/internal/infrastructure/providers"
	"soundgraph-backend/internal/interfaces/http/rest/handlers"
)

// ProviderSet binds the provider adapters to the ports.
var ProviderSet = wire.NewSet(
	ProvideHTTPClient,
	ProvideITunes,
	ProvideLastFM,
	ProvideWikipedia,
	wire.Bind(new(ports.TrackSearcher), new(*providers.ITunes)),
	wire.Bind(new(ports.TagProvider), new(*providers.LastFM)),
	wire.Bind(new(ports.CategoryIndex), new(*providers.Wikipedia)),
	wire.Bind(new(ports.SummaryProvider), new(*providers.Wikipedia)),
)

// EngineSet builds the navigation engine and its caches.
var EngineSet = wire.NewSet(
	ProvideNormalizer,
	ProvideResolver,
	ProvideController,
	ProvideSummaryCache,
	ProvideMemoryCache,
	wire.Bind(new(ports.Cache), new(*cache.MemoryCache)),
	ProvideSessionStore,
	ProvideExplorerConfig,
	services.NewExplorerService,
)

// HTTPSet builds the API surface.
var HTTPSet = wire.NewSet(
	ProvideErrorHandler,
	ProvideHealthHandler,
	ProvideExplorerHandler,
	wire.Bind(new(handlers.Explorer), new(*services.ExplorerService)),
	ProvideRouter,
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideCollector,
	ProvideTracing,
	ProviderSet,
	EngineSet,
	HTTPSet,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(cfg *config.Config) (*Container, func(), error) {
	wire.Build(SuperSet)
	return nil, nil, nil
}
