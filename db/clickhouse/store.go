// Package clickhouse provides the ClickHouse implementation of the rate card
// snapshot store. Rows are versioned with ReplacingMergeTree; updates insert
// a new row version and reads use FINAL.
package clickhouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/google/uuid"

	"trip-planner/db"
	"trip-planner/decision/costmodel"
)

// Config holds ClickHouse connection configuration
type Config struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Debug    bool   `yaml:"debug"`
}

// DefaultConfig returns default development configuration
func DefaultConfig() *Config {
	return &Config{
		Host:     "localhost",
		Port:     9000,
		Database: "tripplanner",
		Username: "default",
		Password: "",
		Debug:    false,
	}
}

// Store implements db.Store using ClickHouse
type Store struct {
	conn clickhouse.Conn
	cfg  *Config
	now  func() time.Time
}

var _ db.Store = (*Store)(nil)

// NewStore creates a new ClickHouse rate card store
func NewStore(cfg *Config) (*Store, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Debug: cfg.Debug,
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	return &Store{conn: conn, cfg: cfg, now: time.Now}, nil
}

// Ping checks database connectivity
func (s *Store) Ping(ctx context.Context) error {
	return s.conn.Ping(ctx)
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.conn.Close()
}

const createTable = `
	CREATE TABLE IF NOT EXISTS rate_card_snapshots (
		id         UUID,
		alias      String,
		source     String,
		hash       String,
		version    String,
		card       String,
		is_active  UInt8,
		created_at DateTime64(3),
		_version   UInt64,
		_deleted   UInt8 DEFAULT 0
	) ENGINE = ReplacingMergeTree(_version)
	ORDER BY (alias, id)
`

// Migrate creates the snapshot table.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.conn.Exec(ctx, createTable); err != nil {
		return fmt.Errorf("failed to create rate_card_snapshots: %w", err)
	}
	return nil
}

const selectColumns = `id, alias, source, hash, version, card, is_active, created_at`

// =============================================================================
// SNAPSHOT OPERATIONS
// =============================================================================

// SaveSnapshot inserts card unless an identical one already exists for alias.
func (s *Store) SaveSnapshot(ctx context.Context, alias, source string, card costmodel.RateCard) (*db.Snapshot, bool, error) {
	raw, hash, err := db.EncodeCard(card)
	if err != nil {
		return nil, false, err
	}

	existing, err := s.FindSnapshotByHash(ctx, alias, hash)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	now := s.now().UTC()
	snap := &db.Snapshot{
		ID:        uuid.New(),
		Alias:     alias,
		Source:    source,
		Hash:      hash,
		Version:   db.NewVersion(now),
		CreatedAt: now,
		Card:      card,
	}
	query := `
		INSERT INTO rate_card_snapshots (
			id, alias, source, hash, version, card, is_active, created_at, _version
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	if err := s.conn.Exec(ctx, query,
		snap.ID,
		snap.Alias,
		snap.Source,
		snap.Hash,
		snap.Version,
		string(raw),
		boolToUInt8(false),
		snap.CreatedAt,
		uint64(1),
	); err != nil {
		return nil, false, fmt.Errorf("failed to insert snapshot: %w", err)
	}
	return snap, true, nil
}

// GetSnapshot retrieves a snapshot by ID
func (s *Store) GetSnapshot(ctx context.Context, id uuid.UUID) (*db.Snapshot, error) {
	query := `SELECT ` + selectColumns + `
		FROM rate_card_snapshots FINAL
		WHERE id = ? AND _deleted = 0
	`
	return s.scanOne(s.conn.QueryRow(ctx, query, id), "get snapshot")
}

// GetActiveSnapshot retrieves the active snapshot for an alias
func (s *Store) GetActiveSnapshot(ctx context.Context, alias string) (*db.Snapshot, error) {
	query := `SELECT ` + selectColumns + `
		FROM rate_card_snapshots FINAL
		WHERE alias = ? AND is_active = 1 AND _deleted = 0
		ORDER BY created_at DESC
		LIMIT 1
	`
	return s.scanOne(s.conn.QueryRow(ctx, query, alias), "get active snapshot")
}

// FindSnapshotByHash finds a snapshot by its content hash
func (s *Store) FindSnapshotByHash(ctx context.Context, alias, hash string) (*db.Snapshot, error) {
	query := `SELECT ` + selectColumns + `
		FROM rate_card_snapshots FINAL
		WHERE alias = ? AND hash = ? AND _deleted = 0
		LIMIT 1
	`
	return s.scanOne(s.conn.QueryRow(ctx, query, alias, hash), "find snapshot by hash")
}

// ActivateSnapshot marks a snapshot active and deactivates the others of its alias
func (s *Store) ActivateSnapshot(ctx context.Context, id uuid.UUID) error {
	snapshot, err := s.GetSnapshot(ctx, id)
	if err != nil {
		return err
	}

	deactivateQuery := `
		INSERT INTO rate_card_snapshots
		SELECT id, alias, source, hash, version, card, 0 as is_active, created_at,
			   _version + 1 as _version, _deleted
		FROM rate_card_snapshots FINAL
		WHERE alias = ? AND is_active = 1 AND _deleted = 0 AND id != ?
	`
	if err := s.conn.Exec(ctx, deactivateQuery, snapshot.Alias, id); err != nil {
		return fmt.Errorf("failed to deactivate snapshots: %w", err)
	}

	activateQuery := `
		INSERT INTO rate_card_snapshots
		SELECT id, alias, source, hash, version, card, 1 as is_active, created_at,
			   _version + 1 as _version, _deleted
		FROM rate_card_snapshots FINAL
		WHERE id = ?
	`
	if err := s.conn.Exec(ctx, activateQuery, id); err != nil {
		return fmt.Errorf("failed to activate snapshot: %w", err)
	}
	return nil
}

// ListSnapshots lists snapshots for an alias, newest first
func (s *Store) ListSnapshots(ctx context.Context, alias string) ([]*db.Snapshot, error) {
	query := `SELECT ` + selectColumns + `
		FROM rate_card_snapshots FINAL
		WHERE alias = ? AND _deleted = 0
		ORDER BY created_at DESC
	`
	rows, err := s.conn.Query(ctx, query, alias)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []*db.Snapshot
	for rows.Next() {
		snap, err := s.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snapshots = append(snapshots, snap)
	}
	return snapshots, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanOne(row scanner, op string) (*db.Snapshot, error) {
	snap, err := s.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, db.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	return snap, nil
}

func (s *Store) scan(row scanner) (*db.Snapshot, error) {
	var snap db.Snapshot
	var card string
	var isActive uint8
	if err := row.Scan(
		&snap.ID, &snap.Alias, &snap.Source, &snap.Hash, &snap.Version,
		&card, &isActive, &snap.CreatedAt,
	); err != nil {
		return nil, err
	}
	decoded, err := db.DecodeCard([]byte(card))
	if err != nil {
		return nil, err
	}
	snap.Card = decoded
	snap.IsActive = isActive == 1
	return &snap, nil
}

func boolToUInt8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
