package history

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/justchokingaround/animeplay/internal/player"
	"github.com/justchokingaround/animeplay/internal/scheduler"
	"github.com/samber/lo"
)

// DefaultCadence is the playback-second interval between progress writes
const DefaultCadence = 5

// Meta describes the episode being recorded
type Meta struct {
	AnimeID       string
	EpisodeID     string
	Title         string
	EpisodeNumber int
	ThumbnailURL  string
	AnimeTitle    string
}

func (m Meta) entry(pct float64, at time.Time) Entry {
	return Entry{
		AnimeID:       m.AnimeID,
		EpisodeID:     m.EpisodeID,
		Title:         m.Title,
		EpisodeNumber: m.EpisodeNumber,
		ThumbnailURL:  m.ThumbnailURL,
		AnimeTitle:    m.AnimeTitle,
		ProgressPct:   pct,
		TimestampMs:   at.UnixMilli(),
	}
}

// RecorderOptions tunes a Recorder
type RecorderOptions struct {
	Cadence int
	Now     func() time.Time
	Logger  *slog.Logger
}

// Recorder samples playback and writes progress on a fixed cadence of
// playback seconds. Store I/O runs on the executor; every method must be
// called from the UI goroutine.
type Recorder struct {
	store   Store
	exec    scheduler.Executor
	cadence int
	now     func() time.Time
	logger  *slog.Logger

	meta       Meta
	active     bool
	gen        uint64
	lastSecond int
}

// NewRecorder creates a recorder writing to store
func NewRecorder(store Store, exec scheduler.Executor, opts RecorderOptions) *Recorder {
	if opts.Cadence <= 0 {
		opts.Cadence = DefaultCadence
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Recorder{
		store:   store,
		exec:    exec,
		cadence: opts.Cadence,
		now:     opts.Now,
		logger:  opts.Logger,
	}
}

// Begin starts recording meta. It reads the saved entry, registers the
// episode in the store and calls resume with the saved percentage when
// there is progress to restore. A saved entry keeps its progress; a new
// one is registered at 0.
func (r *Recorder) Begin(meta Meta, resume func(pct float64)) {
	r.gen++
	gen := r.gen
	r.meta = meta
	r.active = true
	r.lastSecond = 0

	registeredAt := r.now()
	var saved float64

	r.exec.Go(func(ctx context.Context) error {
		existing, err := r.store.Get(ctx, meta.AnimeID, meta.EpisodeID)
		if err != nil {
			return err
		}
		if e, ok := existing.Get(); ok {
			saved = e.ProgressPct
		}
		return r.store.Put(ctx, meta.entry(saved, registeredAt))
	}, func(err error) {
		if err != nil {
			r.logger.Warn("failed to register watch history", "anime", meta.AnimeID, "episode", meta.EpisodeID, "error", err)
		}
		if gen != r.gen || !r.active {
			return
		}
		if saved > 0 && resume != nil {
			r.logger.Debug("resuming from history", "anime", meta.AnimeID, "episode", meta.EpisodeID, "progress", saved)
			resume(saved)
		}
	})
}

// Observe handles a native time update
func (r *Recorder) Observe(state player.PlaybackState) {
	if !r.active || !state.DurationKnown() || !player.IsFinite(state.CurrentTime) {
		return
	}

	second := int(math.Floor(state.CurrentTime))
	if second%r.cadence != 0 || second == r.lastSecond {
		return
	}
	r.lastSecond = second

	pct := lo.Clamp(state.CurrentTime/state.Duration*100, 0, 100)
	entry := r.meta.entry(pct, r.now())

	r.exec.Go(func(ctx context.Context) error {
		return r.store.Put(ctx, entry)
	}, func(err error) {
		if err != nil {
			r.logger.Warn("failed to save watch progress", "anime", entry.AnimeID, "episode", entry.EpisodeID, "error", err)
		}
	})
}

// Active reports whether an episode is being recorded
func (r *Recorder) Active() bool {
	return r.active
}

// End stops recording. A pending resume from Begin is dropped.
func (r *Recorder) End() {
	r.active = false
	r.gen++
}
