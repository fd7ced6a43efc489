package history

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/justchokingaround/animeplay/internal/player"
	"github.com/justchokingaround/animeplay/internal/scheduler"
	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingStore records every Put on top of a MemoryStore
type countingStore struct {
	*MemoryStore
	puts   []Entry
	putErr error
}

func (s *countingStore) Put(ctx context.Context, e Entry) error {
	s.puts = append(s.puts, e)
	if s.putErr != nil {
		return s.putErr
	}
	return s.MemoryStore.Put(ctx, e)
}

var meta = Meta{
	AnimeID:       "42",
	EpisodeID:     "7",
	Title:         "The Rooftop",
	EpisodeNumber: 7,
	AnimeTitle:    "Sample Anime",
}

func newRecorder() (*Recorder, *countingStore, *scheduler.Manual) {
	clock := scheduler.NewManual(time.UnixMilli(1_700_000_000_000))
	store := &countingStore{MemoryStore: NewMemoryStore()}
	r := NewRecorder(store, clock, RecorderOptions{Now: clock.Now})
	return r, store, clock
}

func playbackAt(t, duration float64) player.PlaybackState {
	s := player.NewPlaybackState()
	s.CurrentTime = t
	s.Duration = duration
	s.Playing = true
	return s
}

func TestBeginWithoutHistoryRegistersZero(t *testing.T) {
	r, store, _ := newRecorder()

	resumed := false
	r.Begin(meta, func(float64) { resumed = true })

	assert.False(t, resumed)
	require.Len(t, store.puts, 1)
	assert.Equal(t, 0.0, store.puts[0].ProgressPct)
	assert.Equal(t, "42", store.puts[0].AnimeID)
	assert.Equal(t, int64(1_700_000_000_000), store.puts[0].TimestampMs)
}

func TestBeginWithHistoryResumes(t *testing.T) {
	r, store, _ := newRecorder()
	require.NoError(t, store.MemoryStore.Put(context.Background(), meta.entry(37.5, time.UnixMilli(1))))

	var resumed []float64
	r.Begin(meta, func(pct float64) { resumed = append(resumed, pct) })

	assert.Equal(t, []float64{37.5}, resumed)
	require.Len(t, store.puts, 1)
	assert.Equal(t, 37.5, store.puts[0].ProgressPct, "registering keeps saved progress")

	saved, err := store.Get(context.Background(), "42", "7")
	require.NoError(t, err)
	assert.Equal(t, int64(1_700_000_000_000), saved.MustGet().TimestampMs)
}

func TestBeginStaleResultDropped(t *testing.T) {
	r, store, clock := newRecorder()
	require.NoError(t, store.MemoryStore.Put(context.Background(), meta.entry(50, time.UnixMilli(1))))
	clock.Hold = true

	called := false
	r.Begin(meta, func(float64) { called = true })
	r.End()
	clock.Flush()

	assert.False(t, called)
}

func TestWritesOnceAtFiveSecondBoundary(t *testing.T) {
	r, store, _ := newRecorder()
	r.Begin(meta, nil)
	store.puts = nil

	for _, ts := range []float64{24.2, 24.9, 25.0, 25.3, 25.9, 26.1} {
		r.Observe(playbackAt(ts, 1440))
	}

	require.Len(t, store.puts, 1)
	assert.InDelta(t, 25.0/1440*100, store.puts[0].ProgressPct, 1e-9)
}

func TestWritesEachBoundary(t *testing.T) {
	r, store, _ := newRecorder()
	r.Begin(meta, nil)
	store.puts = nil

	for ts := 0.0; ts < 21; ts += 0.25 {
		r.Observe(playbackAt(ts, 600))
	}

	seconds := make([]float64, len(store.puts))
	for i, e := range store.puts {
		seconds[i] = math.Round(e.ProgressPct / 100 * 600)
	}
	assert.Equal(t, []float64{5, 10, 15, 20}, seconds)
}

func TestSeekBackRewritesBoundary(t *testing.T) {
	r, store, _ := newRecorder()
	r.Begin(meta, nil)
	store.puts = nil

	r.Observe(playbackAt(10.1, 600))
	r.Observe(playbackAt(5.4, 600))
	r.Observe(playbackAt(10.2, 600))

	assert.Len(t, store.puts, 3)
}

func TestNoWriteWithoutDuration(t *testing.T) {
	r, store, _ := newRecorder()
	r.Begin(meta, nil)
	store.puts = nil

	r.Observe(playbackAt(25, math.NaN()))
	r.Observe(playbackAt(30, 0))

	assert.Empty(t, store.puts)
}

func TestNoWriteAfterEnd(t *testing.T) {
	r, store, _ := newRecorder()
	r.Begin(meta, nil)
	r.End()
	store.puts = nil

	r.Observe(playbackAt(25, 100))

	assert.Empty(t, store.puts)
	assert.False(t, r.Active())
}

func TestStoreErrorsAreLogged(t *testing.T) {
	r, store, _ := newRecorder()
	store.putErr = errors.New("disk full")

	assert.NotPanics(t, func() {
		r.Begin(meta, nil)
		r.Observe(playbackAt(5, 100))
	})
	assert.Len(t, store.puts, 2)
}

type failingGetStore struct {
	*MemoryStore
}

func (failingGetStore) Get(context.Context, string, string) (mo.Option[Entry], error) {
	return mo.None[Entry](), errors.New("locked")
}

func TestBeginReadFailure(t *testing.T) {
	clock := scheduler.NewManual(time.Unix(0, 0))
	r := NewRecorder(failingGetStore{NewMemoryStore()}, clock, RecorderOptions{})

	called := false
	r.Begin(meta, func(float64) { called = true })

	assert.False(t, called)
	assert.True(t, r.Active(), "progress is still recorded")
}
