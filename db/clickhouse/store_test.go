package clickhouse

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trip-planner/db/storetest"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "tripplanner", cfg.Database)
	assert.False(t, cfg.Debug)
}

func TestBoolToUInt8(t *testing.T) {
	assert.Equal(t, uint8(1), boolToUInt8(true))
	assert.Equal(t, uint8(0), boolToUInt8(false))
}

func TestCreateTableIsVersioned(t *testing.T) {
	assert.Contains(t, createTable, "ReplacingMergeTree(_version)")
	assert.Contains(t, createTable, "ORDER BY (alias, id)")
}

// TestStoreConformance runs against a live server when
// TRIP_TEST_CLICKHOUSE_HOST is set.
func TestStoreConformance(t *testing.T) {
	host := os.Getenv("TRIP_TEST_CLICKHOUSE_HOST")
	if host == "" {
		t.Skip("TRIP_TEST_CLICKHOUSE_HOST not set")
	}
	cfg := DefaultConfig()
	cfg.Host = host
	cfg.Database = "default"
	s, err := NewStore(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	s.now = storetest.Clock()

	storetest.Run(t, s)
}
