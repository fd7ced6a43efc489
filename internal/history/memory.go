package history

import (
	"context"
	"sort"
	"sync"

	"github.com/samber/lo"
	"github.com/samber/mo"
)

// MemoryStore is a Store that lives for one process. Used when history is
// disabled in config and by tests.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[Key]Entry
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[Key]Entry)}
}

// Get implements Store
func (s *MemoryStore) Get(_ context.Context, animeID, episodeID string) (mo.Option[Entry], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[Key{AnimeID: animeID, EpisodeID: episodeID}]
	if !ok {
		return mo.None[Entry](), nil
	}
	return mo.Some(e), nil
}

// Put implements Store
func (s *MemoryStore) Put(_ context.Context, e Entry) error {
	if err := e.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.entries[e.Key()]; ok && existing.TimestampMs > e.TimestampMs {
		return nil
	}
	s.entries[e.Key()] = e
	return nil
}

// List implements Store
func (s *MemoryStore) List(_ context.Context, opts ListOptions) ([]Entry, error) {
	s.mu.Lock()
	out := lo.Values(s.entries)
	s.mu.Unlock()

	if opts.AnimeID != "" {
		out = lo.Filter(out, func(e Entry, _ int) bool { return e.AnimeID == opts.AnimeID })
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch opts.SortBy {
		case SortOldestFirst:
			return a.TimestampMs < b.TimestampMs
		case SortTitleAsc:
			if a.AnimeTitle != b.AnimeTitle {
				return a.AnimeTitle < b.AnimeTitle
			}
			return a.EpisodeNumber < b.EpisodeNumber
		case SortProgressDesc:
			return a.ProgressPct > b.ProgressPct
		default:
			return a.TimestampMs > b.TimestampMs
		}
	})

	if opts.Offset > 0 {
		out = lo.Drop(out, opts.Offset)
	}
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

// Delete implements Store
func (s *MemoryStore) Delete(_ context.Context, animeID, episodeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, Key{AnimeID: animeID, EpisodeID: episodeID})
	return nil
}

// Clear implements Store
func (s *MemoryStore) Clear(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := int64(len(s.entries))
	s.entries = make(map[Key]Entry)
	return n, nil
}
