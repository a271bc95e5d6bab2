// Package services orchestrates the navigation use cases: it fetches from the
// provider ports between the request and apply steps of the navigation
// controller and keeps the memo caches.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"soundgraph-backend/internal/application/ports"
	"soundgraph-backend/internal/domain/graph"
	"soundgraph-backend/internal/domain/navigation"
	"soundgraph-backend/internal/domain/tags"
	"soundgraph-backend/internal/domain/taxonomy"
	"soundgraph-backend/internal/domain/track"
	"soundgraph-backend/internal/infrastructure/cache"
	"soundgraph-backend/internal/infrastructure/observability"
)

const (
	searchKeyPrefix   = "search:"
	taxonomyKeyPrefix = "taxonomy:"
)

// ExplorerConfig tunes the service.
type ExplorerConfig struct {
	SearchLimit int
	TagLimit    int
	SearchTTL   time.Duration
	TaxonomyTTL time.Duration
}

// DefaultExplorerConfig matches the configuration defaults.
func DefaultExplorerConfig() ExplorerConfig {
	return ExplorerConfig{
		SearchLimit: 25,
		TagLimit:    tags.DefaultLimit,
		SearchTTL:   5 * time.Minute,
		TaxonomyTTL: time.Hour,
	}
}

// ExplorerService runs navigation sessions against the providers.
type ExplorerService struct {
	tracks     ports.TrackSearcher
	tagSource  ports.TagProvider
	resolver   *taxonomy.Resolver
	normalizer *tags.Normalizer
	controller *navigation.Controller
	summaries  *cache.SummaryCache
	memo       ports.Cache
	sessions   *SessionStore
	metrics    *observability.Collector
	logger     *zap.Logger
	tracer     trace.Tracer
	config     ExplorerConfig
}

// NewExplorerService wires the service. metrics may be nil.
func NewExplorerService(
	tracks ports.TrackSearcher,
	tagSource ports.TagProvider,
	resolver *taxonomy.Resolver,
	normalizer *tags.Normalizer,
	controller *navigation.Controller,
	summaries *cache.SummaryCache,
	memo ports.Cache,
	sessions *SessionStore,
	metrics *observability.Collector,
	logger *zap.Logger,
	config ExplorerConfig,
) *ExplorerService {
	return &ExplorerService{
		tracks:     tracks,
		tagSource:  tagSource,
		resolver:   resolver,
		normalizer: normalizer,
		controller: controller,
		summaries:  summaries,
		memo:       memo,
		sessions:   sessions,
		metrics:    metrics,
		logger:     logger.Named("explorer"),
		tracer:     otel.Tracer("soundgraph-backend.application.explorer_service"),
		config:     config,
	}
}

// Sessions exposes the session store.
func (s *ExplorerService) Sessions() *SessionStore {
	return s.sessions
}

// Search returns track cards for query. Non-empty results are cached per
// normalized query.
func (s *ExplorerService) Search(ctx context.Context, query string) []track.Track {
	ctx, span := s.tracer.Start(ctx, "ExplorerService.Search",
		trace.WithAttributes(attribute.String("query", query)),
	)
	defer span.End()

	key := track.Normalize(query)
	if key == "" {
		return []track.Track{}
	}

	var cached []track.Track
	hit := s.memo.GetJSON(ctx, searchKeyPrefix+key, &cached)
	s.metrics.RecordCacheLookup("search", hit)
	if hit {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return cached
	}

	results := s.tracks.SearchTracks(ctx, strings.TrimSpace(query), s.config.SearchLimit)
	if len(results) > 0 {
		s.memo.SetJSON(ctx, searchKeyPrefix+key, results, s.config.SearchTTL)
	}
	span.SetAttributes(attribute.Int("results", len(results)))
	return results
}

// CreateSession starts an idle session.
func (s *ExplorerService) CreateSession(ctx context.Context) (*navigation.Session, error) {
	session, err := s.sessions.Create()
	if err != nil {
		return nil, err
	}
	s.logger.Debug("session created", zap.String("session_id", session.ID()))
	return session, nil
}

// DeleteSession ends a session.
func (s *ExplorerService) DeleteSession(ctx context.Context, sessionID string) error {
	return s.sessions.Delete(sessionID)
}

// View returns the installed view of a session.
func (s *ExplorerService) View(ctx context.Context, sessionID string) (navigation.View, error) {
	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return navigation.View{}, err
	}
	return session.View(), nil
}

// SelectTrack shows the track view for t: its filtered artist and track tags
// around the track node.
func (s *ExplorerService) SelectTrack(ctx context.Context, sessionID string, t track.Track) (navigation.View, error) {
	ctx, span := s.startSpan(ctx, "ExplorerService.SelectTrack", sessionID,
		attribute.String("track.key", t.Key()),
	)
	defer span.End()

	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return s.fail(span, navigation.View{}, err)
	}

	req, err := s.controller.SelectTrack(session, t)
	if err != nil {
		return s.fail(span, navigation.View{}, err)
	}
	span.SetAttributes(attribute.Int64("generation", int64(req.Generation)))

	trackTags := s.fetchTags(ctx, req.Track)

	view, err := s.controller.ApplyTrack(session, req, trackTags)
	return s.applied(span, "select_track", sessionID, req.Generation, view, err)
}

// ClickTag focuses a tag of the displayed track.
func (s *ExplorerService) ClickTag(ctx context.Context, sessionID, tag string) (navigation.View, error) {
	ctx, span := s.startSpan(ctx, "ExplorerService.ClickTag", sessionID, attribute.String("tag", tag))
	defer span.End()

	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return s.fail(span, navigation.View{}, err)
	}
	req, err := s.controller.ClickTag(session, tag)
	if err != nil {
		return s.fail(span, navigation.View{}, err)
	}
	return s.focus(ctx, span, session, req, "click_tag")
}

// FocusGenre focuses a genre by name from any state.
func (s *ExplorerService) FocusGenre(ctx context.Context, sessionID, name string) (navigation.View, error) {
	ctx, span := s.startSpan(ctx, "ExplorerService.FocusGenre", sessionID, attribute.String("genre", name))
	defer span.End()

	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return s.fail(span, navigation.View{}, err)
	}
	req, err := s.controller.ClickGenre(session, name)
	if err != nil {
		return s.fail(span, navigation.View{}, err)
	}
	return s.focus(ctx, span, session, req, "click_genre")
}

// Back returns from a genre focus to the selected track with the panel
// exactly as it was shown.
func (s *ExplorerService) Back(ctx context.Context, sessionID string) (navigation.View, error) {
	ctx, span := s.startSpan(ctx, "ExplorerService.Back", sessionID)
	defer span.End()

	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return s.fail(span, navigation.View{}, err)
	}
	req, err := s.controller.Back(session)
	if err != nil {
		return s.fail(span, navigation.View{}, err)
	}
	span.SetAttributes(
		attribute.Int64("generation", int64(req.Generation)),
		attribute.Bool("back.refetch", req.NeedsTags),
	)

	var trackTags []string
	if req.NeedsTags {
		trackTags = s.fetchTags(ctx, req.Track)
	}

	view, err := s.controller.ApplyBack(session, req, trackTags)
	return s.applied(span, "back", sessionID, req.Generation, view, err)
}

// ClickNode dispatches a click on a node of the displayed graph.
func (s *ExplorerService) ClickNode(ctx context.Context, sessionID, nodeID string) (navigation.View, error) {
	ctx, span := s.startSpan(ctx, "ExplorerService.ClickNode", sessionID, attribute.String("node.id", nodeID))
	defer span.End()

	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return s.fail(span, navigation.View{}, err)
	}
	d, err := s.controller.Dispatch(session, nodeID)
	if err != nil {
		return s.fail(span, navigation.View{}, err)
	}
	span.SetAttributes(attribute.String("click.action", d.Action.String()))

	s.logger.Debug("node clicked",
		zap.String("session_id", sessionID),
		zap.String("node_id", nodeID),
		zap.Stringer("action", d.Action),
	)

	switch d.Action {
	case navigation.ActionTag:
		return s.ClickTag(ctx, sessionID, d.Node.Label)
	case navigation.ActionGenre:
		return s.FocusGenre(ctx, sessionID, d.Node.Label)
	case navigation.ActionBack:
		return s.Back(ctx, sessionID)
	default:
		return session.View(), nil
	}
}

// HoverNode describes a node without changing the view: a track card for
// track nodes, a cached summary for tag and genre nodes.
func (s *ExplorerService) HoverNode(ctx context.Context, sessionID, nodeID string) (navigation.HoverCard, error) {
	ctx, span := s.startSpan(ctx, "ExplorerService.HoverNode", sessionID, attribute.String("node.id", nodeID))
	defer span.End()

	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return s.failHover(span, err)
	}
	node, ok := session.Node(nodeID)
	if !ok {
		return s.failHover(span, navigation.ErrNodeNotFound)
	}

	card := navigation.HoverCard{NodeID: node.ID, Label: node.Label}
	if node.Kind == graph.KindTrack {
		card.Track = node.Payload
		return card, nil
	}

	card.Summary = s.summaries.Resolve(ctx, node.Label, s.resolver.Summary)
	if card.Summary == nil {
		card.Message = navigation.NoSummaryMessage
	}
	return card, nil
}

// ReloadTaxonomy installs a new alias table and drops memoized subgenres.
func (s *ExplorerService) ReloadTaxonomy(ctx context.Context, table taxonomy.Table) {
	s.resolver.SetTable(table)
	dropped := s.memo.Clear(ctx, taxonomyKeyPrefix+"*")
	s.logger.Info("taxonomy table reloaded", zap.Int("memo_dropped", dropped))
}

// ReloadDenylist installs a new tag denylist. Views already built keep their
// tags.
func (s *ExplorerService) ReloadDenylist(denylist []string) {
	s.normalizer.SetDenylist(denylist)
	s.logger.Info("tag denylist reloaded", zap.Int("entries", len(denylist)))
}

func (s *ExplorerService) focus(ctx context.Context, span trace.Span, session *navigation.Session, req navigation.GenreRequest, operation string) (navigation.View, error) {
	span.SetAttributes(
		attribute.Int64("generation", int64(req.Generation)),
		attribute.Bool("preserve_role", req.PreserveRole),
	)

	var (
		subgenres []string
		summary   *taxonomy.Summary
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		subgenres = s.subgenres(gctx, req.Name)
		return nil
	})
	g.Go(func() error {
		summary = s.summaries.Resolve(gctx, req.Name, s.resolver.Summary)
		return nil
	})
	_ = g.Wait()

	view, err := s.controller.ApplyGenre(session, req, subgenres, summary)
	return s.applied(span, operation, session.ID(), req.Generation, view, err)
}

// fetchTags gets artist and track tags in parallel, filters each list
// against the artist and merges them in first-seen order.
func (s *ExplorerService) fetchTags(ctx context.Context, t track.Track) []string {
	var artistTags, trackTags []string

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		raw := s.tagSource.ArtistTopTags(gctx, t.Artist)
		artistTags = s.normalizer.Filter(raw, s.config.TagLimit, t.Artist)
		return nil
	})
	g.Go(func() error {
		raw := s.tagSource.TrackTopTags(gctx, t.Artist, t.Name)
		trackTags = s.normalizer.Filter(raw, s.config.TagLimit, t.Artist)
		return nil
	})
	_ = g.Wait()

	return tags.Merge(artistTags, trackTags)
}

// subgenres resolves a genre's members through the taxonomy memo, keyed by
// the trimmed name as given since candidate keys keep its case. Empty results
// are not memoized.
func (s *ExplorerService) subgenres(ctx context.Context, name string) []string {
	key := taxonomyKeyPrefix + strings.TrimSpace(name)

	var cached []string
	hit := s.memo.GetJSON(ctx, key, &cached)
	s.metrics.RecordCacheLookup("taxonomy", hit)
	if hit {
		return cached
	}

	members, categoryKey := s.resolver.Subgenres(ctx, name)
	if len(members) == 0 {
		s.logger.Debug("no subgenres resolved", zap.String("genre", name))
		return nil
	}
	s.logger.Debug("subgenres resolved",
		zap.String("genre", name),
		zap.String("category", categoryKey),
		zap.Int("members", len(members)),
	)
	s.memo.SetJSON(ctx, key, members, s.config.TaxonomyTTL)
	return members
}

func (s *ExplorerService) startSpan(ctx context.Context, name, sessionID string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attribute.String("session.id", sessionID))
	return s.tracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

// applied finishes an apply step. A superseded view is counted and logged
// before the error is returned to the caller that issued it.
func (s *ExplorerService) applied(span trace.Span, operation, sessionID string, generation uint64, view navigation.View, err error) (navigation.View, error) {
	if errors.Is(err, navigation.ErrStaleGeneration) {
		s.metrics.RecordStaleDrop(operation)
		s.logger.Debug("dropped superseded view",
			zap.String("operation", operation),
			zap.String("session_id", sessionID),
			zap.Uint64("generation", generation),
		)
		span.AddEvent("stale_view_dropped")
		return navigation.View{}, err
	}
	if err != nil {
		return s.fail(span, navigation.View{}, err)
	}

	s.metrics.RecordGraphBuild(string(view.State), len(view.Graph.Nodes))
	span.SetAttributes(attribute.Int("graph.nodes", len(view.Graph.Nodes)))
	return view, nil
}

func (s *ExplorerService) fail(span trace.Span, view navigation.View, err error) (navigation.View, error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return view, err
}

func (s *ExplorerService) failHover(span trace.Span, err error) (navigation.HoverCard, error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return navigation.HoverCard{}, err
}
