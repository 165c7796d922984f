// Package db defines rate-card snapshot storage shared by the ClickHouse and
// Postgres backends. Only pricing configuration is stored; plans never are.
package db

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"trip-planner/decision/costmodel"
)

// ErrNotFound is returned when no snapshot matches.
var ErrNotFound = errors.New("rate card snapshot not found")

// Snapshot is an immutable, content-addressed rate card version.
type Snapshot struct {
	ID        uuid.UUID          `json:"id"`
	Alias     string             `json:"alias"`
	Source    string             `json:"source"`
	Hash      string             `json:"hash"`
	Version   string             `json:"version"`
	IsActive  bool               `json:"is_active"`
	CreatedAt time.Time          `json:"created_at"`
	Card      costmodel.RateCard `json:"card"`
}

// Store persists rate card snapshots.
type Store interface {
	Ping(ctx context.Context) error
	Close() error
	Migrate(ctx context.Context) error
	// SaveSnapshot stores card under alias. Identical content returns the
	// existing snapshot with created == false.
	SaveSnapshot(ctx context.Context, alias, source string, card costmodel.RateCard) (snap *Snapshot, created bool, err error)
	GetSnapshot(ctx context.Context, id uuid.UUID) (*Snapshot, error)
	GetActiveSnapshot(ctx context.Context, alias string) (*Snapshot, error)
	ActivateSnapshot(ctx context.Context, id uuid.UUID) error
	ListSnapshots(ctx context.Context, alias string) ([]*Snapshot, error)
}

// EncodeCard returns the canonical JSON for card and its sha256 hash.
// encoding/json writes struct fields in declaration order, so equal cards
// always hash equally.
func EncodeCard(card costmodel.RateCard) ([]byte, string, error) {
	raw, err := json.Marshal(card)
	if err != nil {
		return nil, "", fmt.Errorf("encode rate card: %w", err)
	}
	sum := sha256.Sum256(raw)
	return raw, hex.EncodeToString(sum[:]), nil
}

// DecodeCard parses and validates a stored card.
func DecodeCard(raw []byte) (costmodel.RateCard, error) {
	var card costmodel.RateCard
	if err := json.Unmarshal(raw, &card); err != nil {
		return costmodel.RateCard{}, fmt.Errorf("decode rate card: %w", err)
	}
	if err := card.Validate(); err != nil {
		return costmodel.RateCard{}, fmt.Errorf("stored rate card is invalid: %w", err)
	}
	return card, nil
}

// NewVersion labels a snapshot by its creation time.
func NewVersion(now time.Time) string {
	return now.UTC().Format("20060102T150405Z")
}

// LoadActiveRateCard returns the active card for alias.
func LoadActiveRateCard(ctx context.Context, s Store, alias string) (costmodel.RateCard, *Snapshot, error) {
	snap, err := s.GetActiveSnapshot(ctx, alias)
	if err != nil {
		return costmodel.RateCard{}, nil, err
	}
	return snap.Card, snap, nil
}
