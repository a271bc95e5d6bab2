// Package providers holds the HTTP adapters for the track metadata, tag,
// category index and summary providers. Adapters never return errors to
// their callers: every failure degrades to the documented empty output and
// is logged.
package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"soundgraph-backend/internal/infrastructure/observability"
	"soundgraph-backend/internal/infrastructure/resilience"
	apperrors "soundgraph-backend/pkg/errors"
)

// DefaultTimeout bounds every provider call.
const DefaultTimeout = 8 * time.Second

// maxBody caps how much of a response is read.
const maxBody = 4 << 20

// TransportConfig configures the shared transport of one provider.
type TransportConfig struct {
	Provider  string
	Timeout   time.Duration
	RPS       float64
	Burst     int
	UserAgent string
	Breaker   resilience.BreakerConfig
}

// Transport performs guarded GET requests for one provider: timeout, rate
// limit, circuit breaker, client span, metrics.
type Transport struct {
	provider  string
	client    *http.Client
	limiter   *rate.Limiter
	breaker   *gobreaker.CircuitBreaker
	timeout   time.Duration
	userAgent string
	metrics   *observability.Collector
	tracer    trace.Tracer
	logger    *zap.Logger
}

// NewTransport creates a transport. A nil client selects a default client.
func NewTransport(config TransportConfig, client *http.Client, metrics *observability.Collector, logger *zap.Logger) *Transport {
	if client == nil {
		client = &http.Client{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if config.Breaker.Name == "" {
		config.Breaker = resilience.DefaultBreakerConfig(config.Provider)
	}
	logger = logger.Named(config.Provider)

	return &Transport{
		provider: config.Provider,
		client:   client,
		limiter:  resilience.NewLimiter(config.RPS, config.Burst),
		breaker: resilience.NewBreaker(config.Breaker, logger, func(_ string, _, to gobreaker.State) {
			metrics.SetBreakerState(config.Provider, resilience.StateValue(to))
		}),
		timeout:   config.Timeout,
		userAgent: config.UserAgent,
		metrics:   metrics,
		tracer:    otel.Tracer("soundgraph.providers"),
		logger:    logger,
	}
}

// Provider returns the provider label.
func (t *Transport) Provider() string {
	return t.provider
}

// Logger returns the provider-scoped logger.
func (t *Transport) Logger() *zap.Logger {
	return t.logger
}

type response struct {
	status int
	body   []byte
}

// GetJSON fetches rawURL and decodes the body into out. 5xx responses and
// transport errors count against the breaker; other non-2xx responses are
// returned as EXTERNAL errors carrying the status in Details.
func (t *Transport) GetJSON(ctx context.Context, operation, rawURL string, out interface{}) (err error) {
	start := time.Now()
	ctx, span := t.tracer.Start(ctx, t.provider+"."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("provider", t.provider),
			attribute.String("provider.operation", operation),
		),
	)
	defer func() {
		outcome := classify(err)
		t.metrics.RecordProviderCall(t.provider, operation, outcome, time.Since(start))
		span.SetAttributes(attribute.String("provider.outcome", outcome))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome)
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}()

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	if err := t.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return apperrors.NewTimeoutError(t.provider + "." + operation).WithCause(err)
		}
		return apperrors.NewRateLimitError(t.provider).WithCause(err)
	}

	result, err := t.breaker.Execute(func() (interface{}, error) {
		return t.do(ctx, rawURL)
	})
	if err != nil {
		switch {
		case resilience.IsRejection(err):
			return apperrors.NewUnavailableError(t.provider).WithCause(err)
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			return apperrors.NewTimeoutError(t.provider + "." + operation).WithCause(err)
		default:
			return apperrors.NewNetworkError(fmt.Sprintf("%s request failed", t.provider), err)
		}
	}

	resp := result.(response)
	span.SetAttributes(attribute.Int("http.status_code", resp.status))
	if resp.status < 200 || resp.status > 299 {
		return apperrors.NewExternalError(t.provider, fmt.Errorf("status %d", resp.status)).
			WithDetails(map[string]interface{}{"status": resp.status})
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return apperrors.NewMalformedError(t.provider, err)
	}
	return nil
}

func (t *Transport) do(ctx context.Context, rawURL string) (response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return response{}, err
	}
	req.Header.Set("Accept", "application/json")
	if t.userAgent != "" {
		req.Header.Set("User-Agent", t.userAgent)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := t.client.Do(req)
	if err != nil {
		return response{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return response{}, err
	}
	if resp.StatusCode >= 500 {
		return response{}, fmt.Errorf("%s returned status %d", t.provider, resp.StatusCode)
	}
	return response{status: resp.StatusCode, body: body}, nil
}

// StatusOf returns the HTTP status carried by an EXTERNAL error, or 0.
func StatusOf(err error) int {
	appErr := apperrors.GetAppError(err)
	if appErr == nil || appErr.Details == nil {
		return 0
	}
	status, _ := appErr.Details["status"].(int)
	return status
}

func classify(err error) string {
	if err == nil {
		return observability.OutcomeSuccess
	}
	appErr := apperrors.GetAppError(err)
	if appErr == nil {
		return observability.OutcomeError
	}
	switch appErr.Type {
	case apperrors.ErrorTypeTimeout:
		return observability.OutcomeTimeout
	case apperrors.ErrorTypeUnavailable:
		return observability.OutcomeRejected
	case apperrors.ErrorTypeRateLimit:
		return observability.OutcomeRateLimited
	case apperrors.ErrorTypeMalformed:
		return observability.OutcomeMalformed
	default:
		return observability.OutcomeError
	}
}

// degrade logs a provider failure at the level it deserves.
func degrade(logger *zap.Logger, operation, subject string, err error) {
	if StatusOf(err) == http.StatusNotFound {
		logger.Debug("provider has no entry", zap.String("operation", operation), zap.String("subject", subject))
		return
	}
	logger.Warn("provider call degraded to empty result",
		zap.String("operation", operation),
		zap.String("subject", subject),
		zap.Error(err),
	)
}
