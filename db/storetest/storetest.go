// Package storetest holds the behavior every db.Store backend must share.
// Backends call Run from their own tests against a live database.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trip-planner/db"
	"trip-planner/decision/costmodel"
)

// Clock returns a time source that advances by one minute per call, so
// snapshots saved back to back have distinct created_at values.
func Clock() func() time.Time {
	t := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Minute)
		return t
	}
}

// Run exercises save with dedupe, activation and listing on s. Each run uses
// a fresh alias so repeated runs against one database do not interfere.
func Run(t *testing.T, s db.Store) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	require.NoError(t, s.Migrate(ctx))
	require.NoError(t, s.Migrate(ctx), "migrate must be repeatable")

	alias := "test-" + uuid.NewString()[:8]
	base := costmodel.DefaultRateCard()
	raised := costmodel.DefaultRateCard()
	raised.Lodging.Base += 50

	t.Run("save dedupes identical content", func(t *testing.T) {
		first, created, err := s.SaveSnapshot(ctx, alias, "file", base)
		require.NoError(t, err)
		assert.True(t, created)
		assert.False(t, first.IsActive)

		again, created, err := s.SaveSnapshot(ctx, alias, "file", base)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, first.ID, again.ID)
		assert.Equal(t, first.Hash, again.Hash)
	})

	t.Run("same content under another alias is a new snapshot", func(t *testing.T) {
		_, created, err := s.SaveSnapshot(ctx, alias+"-other", "file", base)
		require.NoError(t, err)
		assert.True(t, created)
	})

	t.Run("no active snapshot before activation", func(t *testing.T) {
		_, err := s.GetActiveSnapshot(ctx, alias)
		assert.ErrorIs(t, err, db.ErrNotFound)
	})

	t.Run("activate switches the active card", func(t *testing.T) {
		list, err := s.ListSnapshots(ctx, alias)
		require.NoError(t, err)
		require.Len(t, list, 1)
		older := list[0]

		newer, created, err := s.SaveSnapshot(ctx, alias, "cli", raised)
		require.NoError(t, err)
		require.True(t, created)

		require.NoError(t, s.ActivateSnapshot(ctx, older.ID))
		active, err := s.GetActiveSnapshot(ctx, alias)
		require.NoError(t, err)
		assert.Equal(t, older.ID, active.ID)

		require.NoError(t, s.ActivateSnapshot(ctx, newer.ID))
		card, snap, err := db.LoadActiveRateCard(ctx, s, alias)
		require.NoError(t, err)
		assert.Equal(t, newer.ID, snap.ID)
		assert.Equal(t, raised.Lodging.Base, card.Lodging.Base)

		list, err = s.ListSnapshots(ctx, alias)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, newer.ID, list[0].ID, "newest first")
		assert.True(t, list[0].IsActive)
		assert.False(t, list[1].IsActive)
	})

	t.Run("unknown ids", func(t *testing.T) {
		_, err := s.GetSnapshot(ctx, uuid.New())
		assert.ErrorIs(t, err, db.ErrNotFound)
		assert.ErrorIs(t, s.ActivateSnapshot(ctx, uuid.New()), db.ErrNotFound)
	})

	t.Run("list of unknown alias is empty", func(t *testing.T) {
		list, err := s.ListSnapshots(ctx, alias+"-none")
		require.NoError(t, err)
		assert.Empty(t, list)
	})
}
