package store

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/statusboard/internal/pipeline"
	"github.com/wonny/statusboard/pkg/logger"
)

type fakeFetcher struct {
	rows  []pipeline.RawRow
	err   error
	calls int32
}

func (f *fakeFetcher) Fetch(ctx context.Context) ([]pipeline.RawRow, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.err != nil {
		return nil, f.err
	}
	return f.rows, nil
}

func (f *fakeFetcher) URL() string {
	return "https://example.com/sheet.csv"
}

func testLogger() *logger.Logger {
	return logger.NewWriter(discard{})
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func fixtureRows() []pipeline.RawRow {
	return []pipeline.RawRow{
		{StateName: "Kerala", Population: "1000", AdharCount: "500"},
		{StateName: "Goa", Population: "200", AdharStatus: "Pending upload"},
		{StateName: "Assam", Population: "0", AdharStatus: "Data Not Available"},
	}
}

func TestGetOrFetch_CachesWithinTTL(t *testing.T) {
	fetcher := &fakeFetcher{rows: fixtureRows()}
	s := New(fetcher, testLogger(), time.Minute)

	first, err := s.GetOrFetch(context.Background())
	require.NoError(t, err)

	second, err := s.GetOrFetch(context.Background())
	require.NoError(t, err)

	assert.Same(t, first, second, "second call within the TTL must hit the cache")
	assert.Equal(t, int32(1), atomic.LoadInt32(&fetcher.calls))
}

func TestGetOrFetch_RefetchesAfterExpiry(t *testing.T) {
	fetcher := &fakeFetcher{rows: fixtureRows()}
	s := New(fetcher, testLogger(), 20*time.Millisecond)

	_, err := s.GetOrFetch(context.Background())
	require.NoError(t, err)

	time.Sleep(40 * time.Millisecond)

	_, err = s.GetOrFetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(2), atomic.LoadInt32(&fetcher.calls))
}

func TestGetOrFetch_ConcurrentMissFetchesOnce(t *testing.T) {
	fetcher := &fakeFetcher{rows: fixtureRows()}
	s := New(fetcher, testLogger(), time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.GetOrFetch(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&fetcher.calls))
}

func TestGetOrFetch_FetchErrorSurfaces(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("connection refused")}
	s := New(fetcher, testLogger(), time.Minute)

	_, err := s.GetOrFetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refresh snapshot")
}

func TestRefresh_BypassesCache(t *testing.T) {
	fetcher := &fakeFetcher{rows: fixtureRows()}
	s := New(fetcher, testLogger(), time.Minute)

	_, err := s.GetOrFetch(context.Background())
	require.NoError(t, err)

	_, err = s.Refresh(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(2), atomic.LoadInt32(&fetcher.calls))
}

func TestSnapshot_Contents(t *testing.T) {
	fetcher := &fakeFetcher{rows: fixtureRows()}
	s := New(fetcher, testLogger(), time.Minute)

	snap, err := s.GetOrFetch(context.Background())
	require.NoError(t, err)

	require.Len(t, snap.Rows, 3)
	assert.Equal(t, "Kerala", snap.Rows[0].State, "source order preserved")

	// States are deduplicated and sorted for the filter control
	assert.Equal(t, []string{"Assam", "Goa", "Kerala"}, snap.States)

	assert.Equal(t, pipeline.Tally{Uploaded: 1, Pending: 1, NoData: 1}, snap.Tallies[pipeline.MetricAadhaar])
	assert.False(t, snap.FetchedAt.IsZero())
}

func TestSnapshot_FilterRows(t *testing.T) {
	snap := &Snapshot{Rows: pipeline.Run(fixtureRows())}

	all := snap.FilterRows("")
	assert.Len(t, all, 3)
	assert.Equal(t, "Assam", all[0].State, "table rows sorted by state")

	allKeyword := snap.FilterRows("All")
	assert.Len(t, allKeyword, 3)

	goa := snap.FilterRows("Goa")
	require.Len(t, goa, 1)
	assert.Equal(t, "Goa", goa[0].State)

	none := snap.FilterRows("Punjab")
	assert.Empty(t, none)
}

// Filtering must not leak into the snapshot's tallies or row set.
func TestSnapshot_FilterDoesNotMutate(t *testing.T) {
	snap := &Snapshot{
		Rows:    pipeline.Run(fixtureRows()),
		Tallies: pipeline.TallyAll(pipeline.Run(fixtureRows())),
	}

	before := snap.Tallies[pipeline.MetricAadhaar]
	_ = snap.FilterRows("Goa")

	assert.Len(t, snap.Rows, 3)
	assert.Equal(t, before, snap.Tallies[pipeline.MetricAadhaar])
	assert.Equal(t, pipeline.TallyMetric(snap.Rows, pipeline.MetricAadhaar), before)
}

func TestSnapshot_RowsByAadhaarDesc(t *testing.T) {
	snap := &Snapshot{Rows: pipeline.Run(fixtureRows())}

	ordered := snap.RowsByAadhaarDesc()
	require.Len(t, ordered, 3)
	assert.Equal(t, "Kerala", ordered[0].State)

	// Original snapshot order untouched
	assert.Equal(t, "Kerala", snap.Rows[0].State)
	assert.Equal(t, "Goa", snap.Rows[1].State)
}
