package storetest

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"trip-planner/db"
	"trip-planner/decision/costmodel"
)

// memStore keeps snapshots in a map. It checks the suite itself, so a
// backend failure can be told apart from a broken expectation.
type memStore struct {
	mu    sync.Mutex
	snaps map[uuid.UUID]db.Snapshot
	now   func() time.Time
}

func newMemStore() *memStore {
	return &memStore{snaps: map[uuid.UUID]db.Snapshot{}, now: Clock()}
}

func (m *memStore) Ping(context.Context) error    { return nil }
func (m *memStore) Close() error                  { return nil }
func (m *memStore) Migrate(context.Context) error { return nil }

func (m *memStore) SaveSnapshot(_ context.Context, alias, source string, card costmodel.RateCard) (*db.Snapshot, bool, error) {
	_, hash, err := db.EncodeCard(card)
	if err != nil {
		return nil, false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.snaps {
		if s.Alias == alias && s.Hash == hash {
			return &s, false, nil
		}
	}
	now := m.now()
	s := db.Snapshot{ID: uuid.New(), Alias: alias, Source: source, Hash: hash, Version: db.NewVersion(now), CreatedAt: now, Card: card}
	m.snaps[s.ID] = s
	return &s, true, nil
}

func (m *memStore) GetSnapshot(_ context.Context, id uuid.UUID) (*db.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.snaps[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &s, nil
}

func (m *memStore) GetActiveSnapshot(ctx context.Context, alias string) (*db.Snapshot, error) {
	list, _ := m.ListSnapshots(ctx, alias)
	for _, s := range list {
		if s.IsActive {
			return s, nil
		}
	}
	return nil, db.ErrNotFound
}

func (m *memStore) ActivateSnapshot(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	target, ok := m.snaps[id]
	if !ok {
		return db.ErrNotFound
	}
	for k, s := range m.snaps {
		if s.Alias == target.Alias {
			s.IsActive = k == id
			m.snaps[k] = s
		}
	}
	return nil
}

func (m *memStore) ListSnapshots(_ context.Context, alias string) ([]*db.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*db.Snapshot
	for _, s := range m.snaps {
		if s.Alias == alias {
			s := s
			out = append(out, &s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func TestRunAgainstMemoryStore(t *testing.T) {
	Run(t, newMemStore())
}

func TestClockAdvances(t *testing.T) {
	now := Clock()
	a, b := now(), now()
	assert.Equal(t, time.Minute, b.Sub(a))
}
