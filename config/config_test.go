package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, RateCardBuiltin, cfg.RateCard.Source)
	assert.Equal(t, 4, cfg.Narrative.Concurrency)
	assert.Equal(t, 500.0, cfg.Distance.FlightMinKm)
	assert.False(t, cfg.NarrativeEnabled())
}

func TestLoadFileThenEnv(t *testing.T) {
	path := writeFile(t, "trip.yaml", `
log_level: debug
server:
  port: 9090
geocoder:
  online: false
narrative:
  timeout: 3s
  concurrency: 2
distance:
  flight_min_km: 400
rate_card:
  card:
    lodging:
      base: 200
`)
	t.Setenv("TRIP_PORT", "9191")
	t.Setenv("GEMINI_API_KEY", "k")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 9191, cfg.Server.Port)
	assert.False(t, cfg.Geocoder.Online)
	assert.Equal(t, 3*time.Second, cfg.Narrative.Timeout)
	assert.Equal(t, 2, cfg.Narrative.Concurrency)
	assert.Equal(t, 400.0, cfg.Distance.FlightMinKm)
	assert.Equal(t, 3500.0, cfg.Distance.GroundMaxKm)
	assert.Equal(t, 200.0, cfg.RateCard.Card.Lodging.Base)
	assert.Equal(t, 0.55, cfg.RateCard.Card.Lodging.Multipliers.Economic)
	assert.True(t, cfg.NarrativeEnabled())
}

func TestGeminiKeyPrecedence(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "google")
	cfg := DefaultConfig()
	cfg.ApplyEnv()
	assert.Equal(t, "google", cfg.Narrative.APIKey)

	t.Setenv("GEMINI_API_KEY", "gemini")
	cfg.ApplyEnv()
	assert.Equal(t, "gemini", cfg.Narrative.APIKey)
}

func TestDistanceThresholdsFromEnv(t *testing.T) {
	t.Setenv("TRIP_FLIGHT_MIN_KM", "600")
	t.Setenv("TRIP_GROUND_MAX_KM", "2500.5")
	t.Setenv("TRIP_GROUND_SPEED_KMH", "not-a-number")
	t.Setenv("TRIP_GEOCODER_RATE", "0.5")

	cfg := DefaultConfig()
	groundSpeed := cfg.Distance.GroundSpeedKmh
	cfg.ApplyEnv()

	assert.Equal(t, 600.0, cfg.Distance.FlightMinKm)
	assert.Equal(t, 2500.5, cfg.Distance.GroundMaxKm)
	assert.Equal(t, groundSpeed, cfg.Distance.GroundSpeedKmh)
	assert.Equal(t, 0.5, cfg.Geocoder.RatePerSecond)
	assert.NoError(t, cfg.Validate())
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]func(*Config){
		"port":        func(c *Config) { c.Server.Port = 0 },
		"provider":    func(c *Config) { c.Narrative.Provider = "openai" },
		"concurrency": func(c *Config) { c.Narrative.Concurrency = 0 },
		"file path":   func(c *Config) { c.RateCard.Source = RateCardFile },
		"postgres":    func(c *Config) { c.RateCard.Source = RateCardPostgres },
		"source":      func(c *Config) { c.RateCard.Source = "redis" },
		"thresholds":  func(c *Config) { c.Distance.GroundMaxKm = 100 },
		"card":        func(c *Config) { c.RateCard.Card.Flight.PerKm = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadRateCardFile(t *testing.T) {
	path := writeFile(t, "card.yaml", `
flight:
  per_km: 0.3
  per_hour: 25
  min_fare: 300
`)
	card, err := LoadRateCardFile(path)
	require.NoError(t, err)
	assert.Equal(t, 0.3, card.Flight.PerKm)
	assert.Equal(t, 160.0, card.Lodging.Base)

	bad := writeFile(t, "bad.yaml", "transport:\n  economic: 2\n")
	_, err = LoadRateCardFile(bad)
	assert.Error(t, err)
}
