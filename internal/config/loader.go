package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Loader layers configuration sources, lowest priority first:
//  1. defaults in code
//  2. base.{yaml,yml,json,toml}
//  3. <environment>.{yaml,yml,json,toml}
//  4. local.* (development only)
//  5. environment variables
type Loader struct {
	basePath    string
	environment Environment
	sources     []string

	// fileLoaders is tried in registration order for each layer.
	fileLoaders []FileLoader
}

// FileLoader decodes one configuration file format.
type FileLoader interface {
	Load(reader io.Reader, target interface{}) error
	Extension() string
}

// NewLoader creates a loader reading from basePath.
func NewLoader(basePath string, env Environment) *Loader {
	if basePath == "" {
		basePath = "config"
	}

	loader := &Loader{
		basePath:    basePath,
		environment: env,
	}

	loader.RegisterLoader(&YAMLLoader{})
	loader.RegisterLoader(&YAMLLoader{ext: "yml"})
	loader.RegisterLoader(&JSONLoader{})
	loader.RegisterLoader(&TOMLLoader{})

	return loader
}

// RegisterLoader adds a format. A later loader for an existing extension
// replaces the earlier one.
func (l *Loader) RegisterLoader(loader FileLoader) {
	for i, existing := range l.fileLoaders {
		if existing.Extension() == loader.Extension() {
			l.fileLoaders[i] = loader
			return
		}
	}
	l.fileLoaders = append(l.fileLoaders, loader)
}

// BasePath is the directory files are read from.
func (l *Loader) BasePath() string {
	return l.basePath
}

// Environment is the environment the loader selects files for.
func (l *Loader) Environment() Environment {
	return l.environment
}

// Load builds and validates a Config.
func (l *Loader) Load() (*Config, error) {
	l.sources = []string{"defaults"}
	cfg := l.defaultConfig()

	if err := l.loadFile("base", cfg); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load base config: %w", err)
	}

	envFile := strings.ToLower(string(l.environment))
	if err := l.loadFile(envFile, cfg); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load %s config: %w", envFile, err)
	}

	if l.environment == Development {
		if err := l.loadFile("local", cfg); err != nil && !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: failed to load local config: %v\n", err)
		}
	}

	l.loadEnvironmentVariables(cfg)
	l.sources = append(l.sources, "environment")

	cfg.LoadedFrom = append([]string(nil), l.sources...)
	cfg.applyEnvironmentDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadFile applies the first existing <name>.<ext>.
func (l *Loader) loadFile(name string, cfg *Config) error {
	for _, loader := range l.fileLoaders {
		path := filepath.Join(l.basePath, name+"."+loader.Extension())

		file, err := os.Open(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return err
		}

		err = loader.Load(file, cfg)
		file.Close()
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}

		l.sources = append(l.sources, path)
		return nil
	}

	return os.ErrNotExist
}

// loadEnvironmentVariables overlays environment variables on the configuration.
func (l *Loader) loadEnvironmentVariables(cfg *Config) {
	if val := os.Getenv("SERVER_PORT"); val != "" {
		if port := parseInt(val); port > 0 {
			cfg.Server.Port = port
		}
	}
	if val := os.Getenv("SERVER_HOST"); val != "" {
		cfg.Server.Host = val
	}

	if val := os.Getenv("LASTFM_API_KEY"); val != "" {
		cfg.Providers.LastFM.APIKey = val
	}
	if val := os.Getenv("ITUNES_COUNTRY"); val != "" {
		cfg.Providers.ITunes.Country = strings.ToUpper(val)
	}
	if d, ok := parseDuration(os.Getenv("PROVIDER_TIMEOUT")); ok {
		cfg.Providers.Timeout = d
	}
	if val := os.Getenv("PROVIDER_USER_AGENT"); val != "" {
		cfg.Providers.UserAgent = val
	}

	if val := os.Getenv("GRAPH_MAX_TAGS"); val != "" {
		if n := parseInt(val); n > 0 {
			cfg.Graph.MaxTags = n
		}
	}
	if d, ok := parseDuration(os.Getenv("CACHE_SEARCH_TTL")); ok {
		cfg.Cache.SearchTTL = d
	}
	if d, ok := parseDuration(os.Getenv("NAVIGATION_TRACK_VIEW_TTL")); ok {
		cfg.Navigation.TrackViewTTL = d
	}

	if val := os.Getenv("LOG_LEVEL"); val != "" {
		cfg.Logging.Level = strings.ToLower(val)
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		cfg.Logging.Format = strings.ToLower(val)
	}

	if val := os.Getenv("ENABLE_METRICS"); val != "" {
		cfg.Metrics.Enabled = parseBool(val)
	}
	if val := os.Getenv("ENABLE_TRACING"); val != "" {
		cfg.Tracing.Enabled = parseBool(val)
	}
	if val := os.Getenv("TRACING_EXPORTER"); val != "" {
		cfg.Tracing.Exporter = val
	}
	if val := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); val != "" {
		cfg.Tracing.Endpoint = val
	}

	if val := os.Getenv("CORS_ALLOWED_ORIGINS"); val != "" {
		cfg.CORS.AllowedOrigins = splitList(val)
	}
}

// defaultConfig returns a configuration that runs without any files.
func (l *Loader) defaultConfig() *Config {
	logFormat, sampleRate := "json", 0.1
	if l.environment == Development {
		logFormat, sampleRate = "console", 1.0
	}

	return &Config{
		Environment: l.environment,
		Server: Server{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     Duration(15 * time.Second),
			WriteTimeout:    Duration(30 * time.Second),
			IdleTimeout:     Duration(60 * time.Second),
			ShutdownTimeout: Duration(10 * time.Second),
			MaxRequestSize:  1 << 20,
		},
		Providers: Providers{
			Timeout:   Duration(8 * time.Second),
			UserAgent: "soundgraph/1.0 (+https://github.com/soundgraph)",
			ITunes: ITunes{
				Endpoint:    Endpoint{BaseURL: "https://itunes.apple.com", RPS: 5, Burst: 5},
				Country:     "US",
				SearchLimit: 25,
			},
			LastFM: LastFM{
				Endpoint: Endpoint{BaseURL: "https://ws.audioscrobbler.com/2.0/", RPS: 5, Burst: 5},
			},
			Wikipedia: Wikipedia{
				Endpoint:    Endpoint{BaseURL: "https://en.wikipedia.org/w/api.php", RPS: 10, Burst: 10},
				RESTURL:     "https://en.wikipedia.org/api/rest_v1",
				MemberLimit: 100,
			},
		},
		CircuitBreaker: CircuitBreaker{
			MaxRequests:      3,
			Interval:         Duration(30 * time.Second),
			Timeout:          Duration(30 * time.Second),
			FailureThreshold: 0.6,
			MinRequests:      5,
		},
		RateLimit: RateLimit{
			Enabled: true,
			RPS:     20,
			Burst:   40,
		},
		Graph: Graph{
			MaxTags:      12,
			MaxSubgenres: 24,
		},
		Filter: Filter{
			TagLimit: 12,
		},
		Cache: Cache{
			SearchTTL:   Duration(5 * time.Minute),
			TaxonomyTTL: Duration(time.Hour),
			MaxItems:    1000,
			MaxMemory:   32 << 20,
		},
		Navigation: Navigation{
			TrackViewTTL:   Duration(10 * time.Minute),
			SessionIdleTTL: Duration(30 * time.Minute),
			MaxSessions:    10000,
		},
		Logging: Logging{
			Level:  "info",
			Format: logFormat,
		},
		Metrics: Metrics{
			Enabled:   true,
			Namespace: "soundgraph",
			Path:      "/metrics",
		},
		Tracing: Tracing{
			Enabled:     false,
			Exporter:    "stdout",
			SampleRate:  sampleRate,
			ServiceName: "soundgraph-backend",
		},
		CORS: CORS{
			Enabled:        true,
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			MaxAge:         300,
		},
	}
}

// applyEnvironmentDefaults switches off background exporters under test.
func (c *Config) applyEnvironmentDefaults() {
	if c.Environment == Test {
		c.Metrics.Enabled = false
		c.Tracing.Enabled = false
		c.RateLimit.Enabled = false
	}
}

// YAMLLoader loads configuration from YAML files.
type YAMLLoader struct {
	ext string
}

func (y *YAMLLoader) Load(reader io.Reader, target interface{}) error {
	err := yaml.NewDecoder(reader).Decode(target)
	if err == io.EOF {
		return nil
	}
	return err
}

func (y *YAMLLoader) Extension() string {
	if y.ext != "" {
		return y.ext
	}
	return "yaml"
}

// JSONLoader loads configuration from JSON files.
type JSONLoader struct{}

func (j *JSONLoader) Load(reader io.Reader, target interface{}) error {
	decoder := json.NewDecoder(reader)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func (j *JSONLoader) Extension() string {
	return "json"
}

// TOMLLoader loads configuration from TOML files.
type TOMLLoader struct{}

func (t *TOMLLoader) Load(reader io.Reader, target interface{}) error {
	_, err := toml.NewDecoder(reader).Decode(target)
	return err
}

func (t *TOMLLoader) Extension() string {
	return "toml"
}

func parseInt(s string) int {
	val, _ := strconv.Atoi(strings.TrimSpace(s))
	return val
}

func parseBool(s string) bool {
	val, _ := strconv.ParseBool(strings.TrimSpace(s))
	return val
}

func parseDuration(s string) (Duration, bool) {
	if s == "" {
		return 0, false
	}
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil || d <= 0 {
		return 0, false
	}
	return Duration(d), true
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// LoadFromEnv loads configuration from CONFIG_DIR (default "config") for the
// environment named by ENVIRONMENT.
func LoadFromEnv() (*Config, error) {
	dir := os.Getenv("CONFIG_DIR")
	if dir == "" {
		dir = "config"
	}
	return NewLoader(dir, GetEnvironment()).Load()
}
