package di

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"soundgraph-backend/internal/application/services"
	"soundgraph-backend/internal/config"
	"soundgraph-backend/internal/domain/graph"
	"soundgraph-backend/internal/domain/navigation"
	"soundgraph-backend/internal/domain/tags"
	"soundgraph-backend/internal/domain/taxonomy"
	"soundgraph-backend/internal/infrastructure/cache"
	"soundgraph-backend/internal/infrastructure/observability"
	"soundgraph-backend/internal/infrastructure/providers"
	"soundgraph-backend/internal/infrastructure/resilience"
	"soundgraph-backend/internal/interfaces/http/rest"
	"soundgraph-backend/internal/interfaces/http/rest/handlers"
	apperrors "soundgraph-backend/pkg/errors"
)

// Version is reported by the health endpoints.
var Version = "dev"

// ProvideLogger creates the root logger: production encoding in production,
// development encoding elsewhere, at the configured level.
func ProvideLogger(cfg *config.Config) (*zap.Logger, func(), error) {
	zcfg := zap.NewDevelopmentConfig()
	if cfg.IsProduction() {
		zcfg = zap.NewProductionConfig()
	}
	zcfg.Encoding = cfg.Logging.Format
	if cfg.Logging.Format == "console" {
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	level, err := zap.ParseAtomicLevel(cfg.Logging.Level)
	if err != nil {
		return nil, nil, err
	}
	zcfg.Level = level

	logger, err := zcfg.Build()
	if err != nil {
		return nil, nil, err
	}
	return logger, func() { _ = logger.Sync() }, nil
}

// ProvideCollector creates the metrics collector.
func ProvideCollector(cfg *config.Config) *observability.Collector {
	return observability.NewCollector(cfg.Metrics.Namespace)
}

// ProvideTracing installs the tracer provider.
func ProvideTracing(cfg *config.Config, logger *zap.Logger) (*observability.TracerProvider, func(), error) {
	tp, err := observability.InitTracing(observability.TracingConfig{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
		Environment: string(cfg.Environment),
		Exporter:    cfg.Tracing.Exporter,
		Endpoint:    cfg.Tracing.Endpoint,
		Insecure:    cfg.Tracing.Insecure,
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Warn("tracer shutdown failed", zap.Error(err))
		}
	}
	return tp, cleanup, nil
}

// ProvideHTTPClient creates the client shared by every provider transport.
// Per-call deadlines come from the transport.
func ProvideHTTPClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = 16
	return &http.Client{Transport: transport}
}

func transportConfig(cfg *config.Config, provider string, endpoint config.Endpoint) providers.TransportConfig {
	cb := cfg.CircuitBreaker
	return providers.TransportConfig{
		Provider:  provider,
		Timeout:   cfg.Providers.Timeout.Std(),
		RPS:       endpoint.RPS,
		Burst:     endpoint.Burst,
		UserAgent: cfg.Providers.UserAgent,
		Breaker: resilience.BreakerConfig{
			Name:             provider,
			MaxRequests:      cb.MaxRequests,
			Interval:         cb.Interval.Std(),
			Timeout:          cb.Timeout.Std(),
			FailureThreshold: cb.FailureThreshold,
			MinRequests:      cb.MinRequests,
		},
	}
}

// ProvideITunes creates the track metadata adapter.
func ProvideITunes(cfg *config.Config, client *http.Client, metrics *observability.Collector, logger *zap.Logger) *providers.ITunes {
	p := cfg.Providers.ITunes
	t := providers.NewTransport(transportConfig(cfg, "itunes", p.Endpoint), client, metrics, logger)
	return providers.NewITunes(t, p.BaseURL, p.Country, p.SearchLimit)
}

// ProvideLastFM creates the tag adapter.
func ProvideLastFM(cfg *config.Config, client *http.Client, metrics *observability.Collector, logger *zap.Logger) *providers.LastFM {
	p := cfg.Providers.LastFM
	t := providers.NewTransport(transportConfig(cfg, "lastfm", p.Endpoint), client, metrics, logger)
	return providers.NewLastFM(t, p.BaseURL, p.APIKey)
}

// ProvideWikipedia creates the category index and summary adapter.
func ProvideWikipedia(cfg *config.Config, client *http.Client, metrics *observability.Collector, logger *zap.Logger) *providers.Wikipedia {
	p := cfg.Providers.Wikipedia
	t := providers.NewTransport(transportConfig(cfg, "wikipedia", p.Endpoint), client, metrics, logger)
	return providers.NewWikipedia(t, p.BaseURL, p.RESTURL, p.MemberLimit)
}

// Denylist is the configured tag denylist: the built-in list unless one is
// configured, plus the extra entries.
func Denylist(cfg *config.Config) []string {
	base := cfg.Filter.Denylist
	if base == nil {
		base = tags.DefaultDenylist()
	}
	out := make([]string, 0, len(base)+len(cfg.Filter.ExtraDenylist))
	out = append(out, base...)
	return append(out, cfg.Filter.ExtraDenylist...)
}

// TaxonomyTable is the built-in table with configured aliases merged over
// it. Configured suffixes replace the built-in ones.
func TaxonomyTable(cfg *config.Config) taxonomy.Table {
	table := taxonomy.DefaultTable()
	for k, v := range cfg.Taxonomy.CategoryAliases {
		table.CategoryAliases[k] = v
	}
	for k, v := range cfg.Taxonomy.ArticleAliases {
		table.ArticleAliases[k] = v
	}
	if len(cfg.Taxonomy.Suffixes) > 0 {
		table.Suffixes = append([]string(nil), cfg.Taxonomy.Suffixes...)
	}
	return table
}

// ProvideNormalizer creates the tag normalizer.
func ProvideNormalizer(cfg *config.Config) *tags.Normalizer {
	return tags.NewNormalizer(Denylist(cfg))
}

// ProvideResolver creates the taxonomy resolver.
func ProvideResolver(cfg *config.Config, index taxonomy.CategoryIndex, summaries taxonomy.SummarySource) *taxonomy.Resolver {
	return taxonomy.NewResolver(index, summaries, TaxonomyTable(cfg))
}

// ProvideController creates the navigation state machine.
func ProvideController(cfg *config.Config) *navigation.Controller {
	builder := graph.NewBuilder(cfg.Graph.MaxTags, cfg.Graph.MaxSubgenres)
	return navigation.NewController(builder, cfg.Navigation.TrackViewTTL.Std())
}

// ProvideSummaryCache creates the summary memo.
func ProvideSummaryCache(metrics *observability.Collector) *cache.SummaryCache {
	return cache.NewSummaryCache(metrics)
}

// ProvideMemoryCache creates the TTL cache for search and taxonomy results.
func ProvideMemoryCache(cfg *config.Config, logger *zap.Logger) *cache.MemoryCache {
	return cache.NewMemoryCache(cfg.Cache.MaxItems, cfg.Cache.MaxMemory, logger)
}

// ProvideSessionStore creates the session store.
func ProvideSessionStore(cfg *config.Config, metrics *observability.Collector, logger *zap.Logger) *services.SessionStore {
	return services.NewSessionStore(cfg.Navigation.MaxSessions, cfg.Navigation.SessionIdleTTL.Std(), metrics, logger.Named("sessions"))
}

// ProvideExplorerConfig derives the service tuning from the configuration.
func ProvideExplorerConfig(cfg *config.Config) services.ExplorerConfig {
	return services.ExplorerConfig{
		SearchLimit: cfg.Providers.ITunes.SearchLimit,
		TagLimit:    cfg.Filter.TagLimit,
		SearchTTL:   cfg.Cache.SearchTTL.Std(),
		TaxonomyTTL: cfg.Cache.TaxonomyTTL.Std(),
	}
}

// ProvideErrorHandler creates the HTTP error handler. Stack traces are
// included in development responses.
func ProvideErrorHandler(cfg *config.Config, logger *zap.Logger) *apperrors.ErrorHandler {
	return apperrors.NewErrorHandler(logger.Named("http"), cfg.IsDevelopment())
}

// ProvideHealthHandler creates the probe handler.
func ProvideHealthHandler(sessions *services.SessionStore) *handlers.HealthHandler {
	return handlers.NewHealthHandler(Version, sessions)
}

// ProvideExplorerHandler creates the API handler.
func ProvideExplorerHandler(explorer handlers.Explorer, logger *zap.Logger, errorHandler *apperrors.ErrorHandler) *handlers.ExplorerHandler {
	return handlers.NewExplorerHandler(explorer, logger.Named("api"), errorHandler)
}

// ProvideRouter creates the HTTP router.
func ProvideRouter(
	explorer *handlers.ExplorerHandler,
	health *handlers.HealthHandler,
	metrics *observability.Collector,
	logger *zap.Logger,
	errorHandler *apperrors.ErrorHandler,
	cfg *config.Config,
) *rest.Router {
	return rest.NewRouter(explorer, health, metrics, logger.Named("http"), errorHandler, cfg)
}
