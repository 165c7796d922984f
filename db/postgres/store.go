// Package postgres stores rate card snapshots in PostgreSQL via lib/pq.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"trip-planner/db"
	"trip-planner/decision/costmodel"
)

// Store implements db.Store on PostgreSQL.
type Store struct {
	conn *sql.DB
	now  func() time.Time
}

var _ db.Store = (*Store)(nil)

// NewStore opens a connection pool for dsn.
func NewStore(dsn string) (*Store, error) {
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	conn.SetMaxOpenConns(10)
	conn.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{conn: conn, now: time.Now}, nil
}

// Ping checks database connectivity
func (s *Store) Ping(ctx context.Context) error {
	return s.conn.PingContext(ctx)
}

// Close closes the connection pool
func (s *Store) Close() error {
	return s.conn.Close()
}

const createTable = `
	CREATE TABLE IF NOT EXISTS rate_card_snapshots (
		id         UUID PRIMARY KEY,
		alias      TEXT NOT NULL,
		source     TEXT NOT NULL,
		hash       TEXT NOT NULL,
		version    TEXT NOT NULL,
		card       JSONB NOT NULL,
		is_active  BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL,
		UNIQUE (alias, hash)
	)
`

// Migrate creates the snapshot table.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.conn.ExecContext(ctx, createTable); err != nil {
		return fmt.Errorf("failed to create rate_card_snapshots: %w", err)
	}
	return nil
}

const selectColumns = `id, alias, source, hash, version, card, is_active, created_at`

// SaveSnapshot inserts card. A unique violation on (alias, hash) means the
// same content is already stored; that row is returned instead.
func (s *Store) SaveSnapshot(ctx context.Context, alias, source string, card costmodel.RateCard) (*db.Snapshot, bool, error) {
	raw, hash, err := db.EncodeCard(card)
	if err != nil {
		return nil, false, err
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
	_, err = s.conn.ExecContext(ctx, `
		INSERT INTO rate_card_snapshots (id, alias, source, hash, version, card, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE, $7)`,
		snap.ID, snap.Alias, snap.Source, snap.Hash, snap.Version, string(raw), snap.CreatedAt,
	)
	if isUniqueViolation(err) {
		existing, ferr := s.findByHash(ctx, alias, hash)
		if ferr != nil {
			return nil, false, ferr
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to insert snapshot: %w", err)
	}
	return snap, true, nil
}

// GetSnapshot retrieves a snapshot by ID
func (s *Store) GetSnapshot(ctx context.Context, id uuid.UUID) (*db.Snapshot, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM rate_card_snapshots WHERE id = $1`, id)
	return scanOne(row, "get snapshot")
}

// GetActiveSnapshot retrieves the active snapshot for an alias
func (s *Store) GetActiveSnapshot(ctx context.Context, alias string) (*db.Snapshot, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM rate_card_snapshots
		 WHERE alias = $1 AND is_active ORDER BY created_at DESC LIMIT 1`, alias)
	return scanOne(row, "get active snapshot")
}

func (s *Store) findByHash(ctx context.Context, alias, hash string) (*db.Snapshot, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM rate_card_snapshots WHERE alias = $1 AND hash = $2`, alias, hash)
	return scanOne(row, "find snapshot by hash")
}

// ActivateSnapshot marks id active and deactivates the rest of its alias in
// one transaction.
func (s *Store) ActivateSnapshot(ctx context.Context, id uuid.UUID) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var alias string
	err = tx.QueryRowContext(ctx, `SELECT alias FROM rate_card_snapshots WHERE id = $1 FOR UPDATE`, id).Scan(&alias)
	if errors.Is(err, sql.ErrNoRows) {
		return db.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to lock snapshot: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE rate_card_snapshots SET is_active = FALSE WHERE alias = $1 AND id <> $2 AND is_active`, alias, id); err != nil {
		return fmt.Errorf("failed to deactivate snapshots: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE rate_card_snapshots SET is_active = TRUE WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to activate snapshot: %w", err)
	}
	return tx.Commit()
}

// ListSnapshots lists snapshots for an alias, newest first
func (s *Store) ListSnapshots(ctx context.Context, alias string) ([]*db.Snapshot, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM rate_card_snapshots WHERE alias = $1 ORDER BY created_at DESC`, alias)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []*db.Snapshot
	for rows.Next() {
		snap, err := scan(rows)
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

func scanOne(row scanner, op string) (*db.Snapshot, error) {
	snap, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, db.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	return snap, nil
}

func scan(row scanner) (*db.Snapshot, error) {
	var snap db.Snapshot
	var card []byte
	if err := row.Scan(
		&snap.ID, &snap.Alias, &snap.Source, &snap.Hash, &snap.Version,
		&card, &snap.IsActive, &snap.CreatedAt,
	); err != nil {
		return nil, err
	}
	decoded, err := db.DecodeCard(card)
	if err != nil {
		return nil, err
	}
	snap.Card = decoded
	return &snap, nil
}

// isUniqueViolation reports a Postgres unique_violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
