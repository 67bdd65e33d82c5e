// Package store memoizes the fetch-plus-pipeline result for a bounded time
// window. Expiry triggers full recomputation, never incremental patching.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/wonny/statusboard/internal/pipeline"
	"github.com/wonny/statusboard/pkg/logger"
)

// Fetcher supplies raw rows from the remote source. URL doubles as the
// cache key so snapshots from different sheets never collide.
type Fetcher interface {
	Fetch(ctx context.Context) ([]pipeline.RawRow, error)
	URL() string
}

// Snapshot is one complete materialization of the dashboard data: canonical
// rows in source order, per-metric tallies over the full set, and the sorted
// unique state list for the filter control. Never mutated after creation;
// the next refresh replaces it wholesale.
type Snapshot struct {
	Rows      []pipeline.CanonicalRow          `json:"rows"`
	Tallies   map[pipeline.Metric]pipeline.Tally `json:"tallies"`
	States    []string                         `json:"states"`
	FetchedAt time.Time                        `json:"fetchedAt"`
}

// FilterRows returns the rows matching the given state, sorted by state
// name. An empty filter (or "All") returns every row. The receiver is not
// modified; tallies always describe the unfiltered set.
func (s *Snapshot) FilterRows(state string) []pipeline.CanonicalRow {
	out := make([]pipeline.CanonicalRow, 0, len(s.Rows))
	for _, row := range s.Rows {
		if state == "" || state == "All" || row.State == state {
			out = append(out, row)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].State < out[j].State
	})

	return out
}

// RowsByAadhaarDesc returns a copy of all rows sorted by Aadhaar count
// descending, the order the bar chart renders in.
func (s *Snapshot) RowsByAadhaarDesc() []pipeline.CanonicalRow {
	out := make([]pipeline.CanonicalRow, len(s.Rows))
	copy(out, s.Rows)

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Aadhaar.Count > out[j].Aadhaar.Count
	})

	return out
}

// Store caches snapshots keyed by source URL with a fixed TTL
// SSOT: snapshot lifecycle is managed only here
type Store struct {
	source Fetcher
	cache  *gocache.Cache
	logger *logger.Logger
	ttl    time.Duration

	// Serializes refreshes so concurrent cache misses fetch once
	mu sync.Mutex
}

// New creates a snapshot store with the given TTL
func New(source Fetcher, log *logger.Logger, ttl time.Duration) *Store {
	return &Store{
		source: source,
		cache:  gocache.New(ttl, 2*ttl),
		logger: log,
		ttl:    ttl,
	}
}

// GetOrFetch returns the cached snapshot, or fetches and computes a fresh
// one when the cache window has expired.
func (s *Store) GetOrFetch(ctx context.Context) (*Snapshot, error) {
	if cached, found := s.cache.Get(s.source.URL()); found {
		return cached.(*Snapshot), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another caller may have refreshed while we waited for the lock
	if cached, found := s.cache.Get(s.source.URL()); found {
		return cached.(*Snapshot), nil
	}

	return s.refreshLocked(ctx)
}

// Refresh discards the cached snapshot and recomputes it immediately.
func (s *Store) Refresh(ctx context.Context) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.refreshLocked(ctx)
}

func (s *Store) refreshLocked(ctx context.Context) (*Snapshot, error) {
	rawRows, err := s.source.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("refresh snapshot: %w", err)
	}

	snapshot := build(rawRows)
	s.cache.Set(s.source.URL(), snapshot, s.ttl)

	s.logger.WithFields(map[string]interface{}{
		"rows":   len(snapshot.Rows),
		"states": len(snapshot.States),
		"ttl":    s.ttl,
	}).Info("Snapshot refreshed")

	return snapshot, nil
}

// build runs the pipeline and aggregation over freshly fetched rows.
func build(rawRows []pipeline.RawRow) *Snapshot {
	rows := pipeline.Run(rawRows)

	seen := make(map[string]bool, len(rows))
	states := make([]string, 0, len(rows))
	for _, row := range rows {
		if row.State != "" && !seen[row.State] {
			seen[row.State] = true
			states = append(states, row.State)
		}
	}
	sort.Strings(states)

	return &Snapshot{
		Rows:      rows,
		Tallies:   pipeline.TallyAll(rows),
		States:    states,
		FetchedAt: time.Now().UTC(),
	}
}
