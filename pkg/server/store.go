package server

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/matzehuels/reconlayout/pkg/errors"
	rio "github.com/matzehuels/reconlayout/pkg/io"
)

// Record is a stored layout run.
type Record struct {
	ID           string            `json:"id" bson:"_id"`
	CreatedAt    time.Time         `json:"created_at" bson:"created_at"`
	ScenarioHash string            `json:"scenario_hash" bson:"scenario_hash"`
	RotateOnTie  bool              `json:"rotate_on_tie" bson:"rotate_on_tie"`
	Formats      []string          `json:"formats" bson:"formats"`
	Summary      rio.ResultFile    `json:"summary" bson:"summary"`
	Stats        Stats             `json:"stats" bson:"stats"`
	Artifacts    map[string][]byte `json:"-" bson:"artifacts"`
}

// Stats is the stored subset of pipeline statistics.
type Stats struct {
	HostNodes  int   `json:"host_nodes" bson:"host_nodes"`
	GuestNodes int   `json:"guest_nodes" bson:"guest_nodes"`
	Levels     int   `json:"levels" bson:"levels"`
	Rotated    int   `json:"rotated" bson:"rotated"`
	LayoutHit  bool  `json:"layout_cached" bson:"layout_cached"`
	RenderHit  bool  `json:"render_cached" bson:"render_cached"`
	LayoutMS   int64 `json:"layout_ms" bson:"layout_ms"`
	RenderMS   int64 `json:"render_ms" bson:"render_ms"`
}

// Store persists layout runs.
type Store interface {
	Put(ctx context.Context, rec *Record) error
	// Get returns a NOT_FOUND error for unknown ids.
	Get(ctx context.Context, id string) (*Record, error)
	// List returns up to limit records, newest first.
	List(ctx context.Context, limit int) ([]*Record, error)
	Close(ctx context.Context) error
}

// MemoryStore keeps records in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Record
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*Record)}
}

func (s *MemoryStore) Put(_ context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ID] = rec
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "layout %s not found", id)
	}
	return rec, nil
}

func (s *MemoryStore) List(_ context.Context, limit int) ([]*Record, error) {
	s.mu.RLock()
	out := make([]*Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b *Record) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) Close(context.Context) error { return nil }

var _ Store = (*MemoryStore)(nil)
