// Package config loads trip-planner configuration from YAML and the
// environment. Precedence: defaults, then file, then environment.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"trip-planner/db/clickhouse"
	"trip-planner/decision/costmodel"
	"trip-planner/decision/distance"
	"trip-planner/decision/geocode"
	"trip-planner/decision/narrative"
	"trip-planner/pkg/platform"
)

// Rate card sources.
const (
	RateCardBuiltin    = "builtin"
	RateCardFile       = "file"
	RateCardClickHouse = "clickhouse"
	RateCardPostgres   = "postgres"
)

// Config represents the complete trip-planner configuration
type Config struct {
	LogLevel  string `yaml:"log_level"`
	LogPretty bool   `yaml:"log_pretty"`

	Server     ServerConfig        `yaml:"server"`
	Geocoder   GeocoderConfig      `yaml:"geocoder"`
	Narrative  NarrativeConfig     `yaml:"narrative"`
	Distance   distance.Thresholds `yaml:"distance"`
	RateCard   RateCardConfig      `yaml:"rate_card"`
	ClickHouse clickhouse.Config   `yaml:"clickhouse"`
	Postgres   PostgresConfig      `yaml:"postgres"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Port           int           `yaml:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	MaxRequestSize int64         `yaml:"max_request_size"`
	CORSOrigins    []string      `yaml:"cors_origins"`
	// APIKey guards /api/v1 when set.
	APIKey string `yaml:"api_key"`
}

// GeocoderConfig selects and tunes geocoding sources
type GeocoderConfig struct {
	// Online enables Nominatim in front of the built-in catalog.
	Online       bool          `yaml:"online"`
	NominatimURL string        `yaml:"nominatim_url"`
	UserAgent    string        `yaml:"user_agent"`
	Language     string        `yaml:"language"`
	Timeout      time.Duration `yaml:"timeout"`
	Retries      int           `yaml:"retries"`
	// RatePerSecond caps Nominatim searches per process.
	RatePerSecond float64 `yaml:"rate_per_second"`
}

// Nominatim returns the client configuration.
func (g GeocoderConfig) Nominatim() geocode.NominatimConfig {
	return geocode.NominatimConfig{
		BaseURL:   g.NominatimURL,
		UserAgent: g.UserAgent,
		Language:  g.Language,
		Timeout:   g.Timeout,
		Retries:   g.Retries,

		RatePerSecond: g.RatePerSecond,
	}
}

// NarrativeConfig configures the text generator
type NarrativeConfig struct {
	// Provider is "gemini" or "none".
	Provider string `yaml:"provider"`
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`

	narrative.Config `yaml:",inline"`
}

// RateCardConfig says where the pricing table comes from
type RateCardConfig struct {
	Source string `yaml:"source"`
	// Path is read when Source is "file".
	Path string `yaml:"path"`
	// Alias names the snapshot series in a store.
	Alias string             `yaml:"alias"`
	Card  costmodel.RateCard `yaml:"card"`
}

// PostgresConfig configures the Postgres rate card store
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Server: ServerConfig{
			Port:           8080,
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   60 * time.Second,
			RequestTimeout: 45 * time.Second,
			MaxRequestSize: 1 << 20,
			CORSOrigins:    []string{"*"},
		},
		Geocoder: GeocoderConfig{
			Online:       true,
			NominatimURL: geocode.DefaultNominatimURL,
			UserAgent:    "trip-planner/1.0",
			Language:     "pt-BR",
			Timeout:      5 * time.Second,
			Retries:      2,

			RatePerSecond: 1,
		},
		Narrative: NarrativeConfig{
			Provider: "gemini",
			Model:    narrative.DefaultGeminiModel,
			Config:   narrative.DefaultConfig(),
		},
		Distance: distance.DefaultThresholds(),
		RateCard: RateCardConfig{
			Source: RateCardBuiltin,
			Alias:  "default",
			Card:   costmodel.DefaultRateCard(),
		},
		ClickHouse: *clickhouse.DefaultConfig(),
	}
}

// Load reads path (when not empty) over the defaults and applies the
// environment.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from environment variables.
func (c *Config) ApplyEnv() {
	c.LogLevel = platform.GetEnv("TRIP_LOG_LEVEL", c.LogLevel)
	c.LogPretty = platform.GetEnvBool("TRIP_LOG_PRETTY", c.LogPretty)

	c.Server.Port = platform.GetEnvInt("TRIP_PORT", c.Server.Port)
	c.Server.CORSOrigins = platform.GetEnvList("TRIP_CORS_ORIGINS", c.Server.CORSOrigins)
	c.Server.APIKey = platform.GetEnv("TRIP_API_KEY", c.Server.APIKey)
	c.Server.RequestTimeout = platform.GetEnvDuration("TRIP_REQUEST_TIMEOUT", c.Server.RequestTimeout)

	c.Geocoder.Online = platform.GetEnvBool("USE_ONLINE_GEOCODING", c.Geocoder.Online)
	c.Geocoder.NominatimURL = platform.GetEnv("TRIP_NOMINATIM_URL", c.Geocoder.NominatimURL)
	c.Geocoder.UserAgent = platform.GetEnv("TRIP_GEOCODER_USER_AGENT", c.Geocoder.UserAgent)
	c.Geocoder.RatePerSecond = platform.GetEnvFloat("TRIP_GEOCODER_RATE", c.Geocoder.RatePerSecond)

	c.Distance.FlightMinKm = platform.GetEnvFloat("TRIP_FLIGHT_MIN_KM", c.Distance.FlightMinKm)
	c.Distance.GroundMaxKm = platform.GetEnvFloat("TRIP_GROUND_MAX_KM", c.Distance.GroundMaxKm)
	c.Distance.FlightSpeedKmh = platform.GetEnvFloat("TRIP_FLIGHT_SPEED_KMH", c.Distance.FlightSpeedKmh)
	c.Distance.GroundSpeedKmh = platform.GetEnvFloat("TRIP_GROUND_SPEED_KMH", c.Distance.GroundSpeedKmh)

	// GEMINI_API_KEY wins over GOOGLE_API_KEY.
	c.Narrative.APIKey = platform.GetEnv("GOOGLE_API_KEY", c.Narrative.APIKey)
	c.Narrative.APIKey = platform.GetEnv("GEMINI_API_KEY", c.Narrative.APIKey)
	c.Narrative.Model = platform.GetEnv("GEMINI_MODEL", c.Narrative.Model)
	c.Narrative.Provider = platform.GetEnv("TRIP_NARRATIVE_PROVIDER", c.Narrative.Provider)
	c.Narrative.Timeout = platform.GetEnvDuration("TRIP_NARRATIVE_TIMEOUT", c.Narrative.Timeout)
	c.Narrative.Concurrency = platform.GetEnvInt("TRIP_NARRATIVE_CONCURRENCY", c.Narrative.Concurrency)

	c.RateCard.Source = platform.GetEnv("TRIP_RATE_CARD_SOURCE", c.RateCard.Source)
	c.RateCard.Path = platform.GetEnv("TRIP_RATE_CARD_PATH", c.RateCard.Path)
	c.RateCard.Alias = platform.GetEnv("TRIP_RATE_CARD_ALIAS", c.RateCard.Alias)

	c.ClickHouse.Host = platform.GetEnv("CLICKHOUSE_HOST", c.ClickHouse.Host)
	c.ClickHouse.Port = platform.GetEnvInt("CLICKHOUSE_PORT", c.ClickHouse.Port)
	c.ClickHouse.Database = platform.GetEnv("CLICKHOUSE_DATABASE", c.ClickHouse.Database)
	c.ClickHouse.Username = platform.GetEnv("CLICKHOUSE_USER", c.ClickHouse.Username)
	c.ClickHouse.Password = platform.GetEnv("CLICKHOUSE_PASSWORD", c.ClickHouse.Password)

	c.Postgres.DSN = platform.GetEnv("DATABASE_URL", c.Postgres.DSN)
}

// NarrativeEnabled reports whether a generator should be built.
func (c *Config) NarrativeEnabled() bool {
	return c.Narrative.Provider == "gemini" && c.Narrative.APIKey != ""
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	switch c.Narrative.Provider {
	case "gemini", "none":
	default:
		return fmt.Errorf("narrative.provider must be gemini or none, got %q", c.Narrative.Provider)
	}
	if c.Narrative.Concurrency < 1 {
		return fmt.Errorf("narrative.concurrency must be at least 1")
	}
	if c.Narrative.Timeout <= 0 {
		return fmt.Errorf("narrative.timeout must be positive")
	}
	if c.Distance.FlightSpeedKmh <= 0 || c.Distance.GroundSpeedKmh <= 0 {
		return fmt.Errorf("distance speeds must be positive")
	}
	if c.Distance.GroundMaxKm < c.Distance.FlightMinKm {
		return fmt.Errorf("distance.ground_max_km must not be below distance.flight_min_km")
	}

	c.RateCard.Source = strings.ToLower(c.RateCard.Source)
	switch c.RateCard.Source {
	case RateCardBuiltin:
	case RateCardFile:
		if c.RateCard.Path == "" {
			return fmt.Errorf("rate_card.path is required when source is file")
		}
	case RateCardClickHouse:
	case RateCardPostgres:
		if c.Postgres.DSN == "" {
			return fmt.Errorf("postgres.dsn is required when rate_card.source is postgres")
		}
	default:
		return fmt.Errorf("unknown rate_card.source %q", c.RateCard.Source)
	}
	if c.RateCard.Source != RateCardBuiltin && c.RateCard.Alias == "" {
		return fmt.Errorf("rate_card.alias is required")
	}
	if err := c.RateCard.Card.Validate(); err != nil {
		return fmt.Errorf("rate_card.card: %w", err)
	}
	return nil
}

// LoadRateCardFile reads a YAML rate card. Missing fields keep their
// built-in values.
func LoadRateCardFile(path string) (costmodel.RateCard, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return costmodel.RateCard{}, fmt.Errorf("failed to read rate card: %w", err)
	}
	card := costmodel.DefaultRateCard()
	if err := yaml.Unmarshal(data, &card); err != nil {
		return costmodel.RateCard{}, fmt.Errorf("failed to parse rate card: %w", err)
	}
	if err := card.Validate(); err != nil {
		return costmodel.RateCard{}, err
	}
	return card, nil
}
