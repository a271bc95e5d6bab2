// Package config loads, validates and hot-reloads the explorer configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Environment is the deployment environment.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
	Test        Environment = "test"
)

// Config is the root configuration.
type Config struct {
	Environment    Environment    `yaml:"environment" json:"environment" toml:"environment" validate:"required,oneof=development staging production test"`
	Server         Server         `yaml:"server" json:"server" toml:"server"`
	Providers      Providers      `yaml:"providers" json:"providers" toml:"providers"`
	CircuitBreaker CircuitBreaker `yaml:"circuit_breaker" json:"circuit_breaker" toml:"circuit_breaker"`
	RateLimit      RateLimit      `yaml:"rate_limit" json:"rate_limit" toml:"rate_limit"`
	Graph          Graph          `yaml:"graph" json:"graph" toml:"graph"`
	Filter         Filter         `yaml:"filter" json:"filter" toml:"filter"`
	Taxonomy       Taxonomy       `yaml:"taxonomy" json:"taxonomy" toml:"taxonomy"`
	Cache          Cache          `yaml:"cache" json:"cache" toml:"cache"`
	Navigation     Navigation     `yaml:"navigation" json:"navigation" toml:"navigation"`
	Logging        Logging        `yaml:"logging" json:"logging" toml:"logging"`
	Metrics        Metrics        `yaml:"metrics" json:"metrics" toml:"metrics"`
	Tracing        Tracing        `yaml:"tracing" json:"tracing" toml:"tracing"`
	CORS           CORS           `yaml:"cors" json:"cors" toml:"cors"`

	// LoadedFrom lists the sources applied, lowest priority first.
	LoadedFrom []string `yaml:"-" json:"-" toml:"-"`
}

// Server configures the HTTP host.
type Server struct {
	Host            string   `yaml:"host" json:"host" toml:"host"`
	Port            int      `yaml:"port" json:"port" toml:"port" validate:"min=1,max=65535"`
	ReadTimeout     Duration `yaml:"read_timeout" json:"read_timeout" toml:"read_timeout"`
	WriteTimeout    Duration `yaml:"write_timeout" json:"write_timeout" toml:"write_timeout"`
	IdleTimeout     Duration `yaml:"idle_timeout" json:"idle_timeout" toml:"idle_timeout"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout" json:"shutdown_timeout" toml:"shutdown_timeout"`
	MaxRequestSize  int64    `yaml:"max_request_size" json:"max_request_size" toml:"max_request_size" validate:"min=1024"`
}

// Endpoint holds the settings shared by every provider.
type Endpoint struct {
	BaseURL string  `yaml:"base_url" json:"base_url" toml:"base_url" validate:"omitempty,url"`
	RPS     float64 `yaml:"rps" json:"rps" toml:"rps" validate:"gte=0"`
	Burst   int     `yaml:"burst" json:"burst" toml:"burst" validate:"gte=0"`
}

// Providers configures the external data sources.
type Providers struct {
	Timeout   Duration  `yaml:"timeout" json:"timeout" toml:"timeout"`
	UserAgent string    `yaml:"user_agent" json:"user_agent" toml:"user_agent" validate:"required"`
	ITunes    ITunes    `yaml:"itunes" json:"itunes" toml:"itunes"`
	LastFM    LastFM    `yaml:"lastfm" json:"lastfm" toml:"lastfm"`
	Wikipedia Wikipedia `yaml:"wikipedia" json:"wikipedia" toml:"wikipedia"`
}

// ITunes configures the track metadata provider.
type ITunes struct {
	Endpoint    `yaml:",inline"`
	Country     string `yaml:"country" json:"country" toml:"country" validate:"omitempty,len=2"`
	SearchLimit int    `yaml:"search_limit" json:"search_limit" toml:"search_limit" validate:"min=1,max=200"`
}

// LastFM configures the tag provider.
type LastFM struct {
	Endpoint `yaml:",inline"`
	APIKey   string `yaml:"api_key" json:"api_key" toml:"api_key"`
}

// Wikipedia configures the category index and summary provider.
type Wikipedia struct {
	Endpoint    `yaml:",inline"`
	RESTURL     string `yaml:"rest_url" json:"rest_url" toml:"rest_url" validate:"omitempty,url"`
	MemberLimit int    `yaml:"member_limit" json:"member_limit" toml:"member_limit" validate:"min=1,max=500"`
}

// CircuitBreaker configures the per-provider breakers.
type CircuitBreaker struct {
	MaxRequests      uint32   `yaml:"max_requests" json:"max_requests" toml:"max_requests" validate:"min=1"`
	Interval         Duration `yaml:"interval" json:"interval" toml:"interval"`
	Timeout          Duration `yaml:"timeout" json:"timeout" toml:"timeout"`
	FailureThreshold float64  `yaml:"failure_threshold" json:"failure_threshold" toml:"failure_threshold" validate:"gt=0,lte=1"`
	MinRequests      uint32   `yaml:"min_requests" json:"min_requests" toml:"min_requests" validate:"min=1"`
}

// RateLimit throttles inbound API requests.
type RateLimit struct {
	Enabled bool    `yaml:"enabled" json:"enabled" toml:"enabled"`
	RPS     float64 `yaml:"rps" json:"rps" toml:"rps" validate:"gte=0"`
	Burst   int     `yaml:"burst" json:"burst" toml:"burst" validate:"gte=0"`
}

// Graph bounds visual density.
type Graph struct {
	MaxTags      int `yaml:"max_tags" json:"max_tags" toml:"max_tags" validate:"min=1,max=100"`
	MaxSubgenres int `yaml:"max_subgenres" json:"max_subgenres" toml:"max_subgenres" validate:"min=1,max=200"`
}

// Filter configures the tag normalizer. A nil Denylist selects the built-in
// one; ExtraDenylist is appended either way.
type Filter struct {
	TagLimit      int      `yaml:"tag_limit" json:"tag_limit" toml:"tag_limit" validate:"min=1,max=100"`
	Denylist      []string `yaml:"denylist" json:"denylist" toml:"denylist"`
	ExtraDenylist []string `yaml:"extra_denylist" json:"extra_denylist" toml:"extra_denylist"`
}

// Taxonomy holds alias entries merged over the built-in table.
type Taxonomy struct {
	CategoryAliases map[string]string `yaml:"category_aliases" json:"category_aliases" toml:"category_aliases"`
	ArticleAliases  map[string]string `yaml:"article_aliases" json:"article_aliases" toml:"article_aliases"`
	Suffixes        []string          `yaml:"suffixes" json:"suffixes" toml:"suffixes"`
}

// Cache configures the TTL caches.
type Cache struct {
	SearchTTL   Duration `yaml:"search_ttl" json:"search_ttl" toml:"search_ttl"`
	TaxonomyTTL Duration `yaml:"taxonomy_ttl" json:"taxonomy_ttl" toml:"taxonomy_ttl"`
	MaxItems    int      `yaml:"max_items" json:"max_items" toml:"max_items" validate:"min=1"`
	MaxMemory   int64    `yaml:"max_memory" json:"max_memory" toml:"max_memory" validate:"min=1024"`
}

// Navigation configures sessions.
type Navigation struct {
	TrackViewTTL   Duration `yaml:"track_view_ttl" json:"track_view_ttl" toml:"track_view_ttl"`
	SessionIdleTTL Duration `yaml:"session_idle_ttl" json:"session_idle_ttl" toml:"session_idle_ttl"`
	MaxSessions    int      `yaml:"max_sessions" json:"max_sessions" toml:"max_sessions" validate:"min=1"`
}

// Logging configures zap.
type Logging struct {
	Level  string `yaml:"level" json:"level" toml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" json:"format" toml:"format" validate:"oneof=json console"`
}

// Metrics configures the Prometheus endpoint.
type Metrics struct {
	Enabled   bool   `yaml:"enabled" json:"enabled" toml:"enabled"`
	Namespace string `yaml:"namespace" json:"namespace" toml:"namespace" validate:"required"`
	Path      string `yaml:"path" json:"path" toml:"path" validate:"startswith=/"`
}

// Tracing configures OpenTelemetry.
type Tracing struct {
	Enabled     bool    `yaml:"enabled" json:"enabled" toml:"enabled"`
	Exporter    string  `yaml:"exporter" json:"exporter" toml:"exporter" validate:"oneof=otlp stdout none"`
	Endpoint    string  `yaml:"endpoint" json:"endpoint" toml:"endpoint"`
	Insecure    bool    `yaml:"insecure" json:"insecure" toml:"insecure"`
	SampleRate  float64 `yaml:"sample_rate" json:"sample_rate" toml:"sample_rate" validate:"gte=0,lte=1"`
	ServiceName string  `yaml:"service_name" json:"service_name" toml:"service_name" validate:"required"`
}

// CORS configures cross-origin access for browser renderers.
type CORS struct {
	Enabled        bool     `yaml:"enabled" json:"enabled" toml:"enabled"`
	AllowedOrigins []string `yaml:"allowed_origins" json:"allowed_origins" toml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods" json:"allowed_methods" toml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers" json:"allowed_headers" toml:"allowed_headers"`
	MaxAge         int      `yaml:"max_age" json:"max_age" toml:"max_age" validate:"gte=0"`
}

var validate = validator.New()

// Validate checks field constraints and cross-field rules.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Environment == Production && strings.TrimSpace(c.Providers.LastFM.APIKey) == "" {
		return fmt.Errorf("providers.lastfm.api_key is required in production")
	}
	if c.Providers.Timeout.Std() <= 0 {
		return fmt.Errorf("providers.timeout must be positive")
	}
	if c.Tracing.Enabled && c.Tracing.Exporter == "otlp" && c.Tracing.Endpoint == "" {
		return fmt.Errorf("tracing.endpoint is required for the otlp exporter")
	}
	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == Development
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == Production
}

// Addr is the listen address of the HTTP host.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// GetEnvironment reads ENVIRONMENT, defaulting to development.
func GetEnvironment() Environment {
	switch env := Environment(strings.ToLower(os.Getenv("ENVIRONMENT"))); env {
	case Development, Staging, Production, Test:
		return env
	default:
		return Development
	}
}

// Duration is a time.Duration written as "8s" or "10m" in every file format.
type Duration time.Duration

// Std returns the standard library value.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// UnmarshalJSON accepts a duration string or a number of nanoseconds.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return d.UnmarshalText([]byte(s))
	}
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid duration %s", data)
	}
	*d = Duration(n)
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	return d.UnmarshalText([]byte(value.Value))
}
