// Package playback owns the media handle and the single derived
// PlaybackState every other component reads.
package playback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/justchokingaround/animeplay/internal/player"
	"github.com/justchokingaround/animeplay/internal/scheduler"
	"github.com/samber/lo"
	"github.com/samber/mo"
)

var (
	ErrInvalidRate    = errors.New("playback rate must be a positive finite number")
	ErrUnknownQuality = errors.New("unknown quality")
)

const taskBuffering = "playback.buffering"

// DefaultBufferingClear is how long the buffering indicator survives without
// a new waiting signal
const DefaultBufferingClear = time.Second

// Listener observes state after every change
type Listener func(state player.PlaybackState)

// Options tunes a Manager
type Options struct {
	BufferingClear time.Duration
	Logger         *slog.Logger
}

// pendingSwap is the position and play intent captured before a source
// reload, reapplied once the new source has data
type pendingSwap struct {
	time    float64
	playing bool
}

// Manager derives PlaybackState from native events and is the only thing
// allowed to drive the media handle. All methods must be called from the
// UI goroutine.
type Manager struct {
	media  player.MediaHandle
	sched  scheduler.Scheduler
	exec   scheduler.Executor
	logger *slog.Logger

	bufferingClear time.Duration

	state     player.PlaybackState
	source    player.MediaSource
	hasSource bool
	swap      *pendingSwap
	resume    mo.Option[float64]
	listeners []Listener
	closed    bool
}

// NewManager creates a manager with no source loaded
func NewManager(media player.MediaHandle, sched scheduler.Scheduler, exec scheduler.Executor, opts Options) *Manager {
	if opts.BufferingClear <= 0 {
		opts.BufferingClear = DefaultBufferingClear
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Manager{
		media:          media,
		sched:          sched,
		exec:           exec,
		logger:         opts.Logger,
		bufferingClear: opts.BufferingClear,
		state:          player.NewPlaybackState(),
	}
}

// OnChange registers a listener
func (m *Manager) OnChange(l Listener) {
	m.listeners = append(m.listeners, l)
}

func (m *Manager) notify() {
	for _, l := range m.listeners {
		l(m.state)
	}
}

// State returns a snapshot of the playback state
func (m *Manager) State() player.PlaybackState {
	return m.state
}

// Source returns the loaded media source
func (m *Manager) Source() player.MediaSource {
	return m.source
}

// Load resets playback for a new episode. Volume and mute carry over.
func (m *Manager) Load(src player.MediaSource) error {
	volume, muted := m.state.Volume, m.state.Muted

	m.sched.Cancel(taskBuffering)
	m.swap = nil
	m.resume = mo.None[float64]()
	m.closed = false

	m.state = player.NewPlaybackState()
	m.state.Volume = volume
	m.state.Muted = muted
	m.source = src
	m.hasSource = true

	url := src.URLFor(player.QualityAuto)
	if url == "" {
		m.state.Loading = false
		m.state.LastError = player.ErrUnsupported
		m.notify()
		return fmt.Errorf("load %q: %w", src.ID, player.ErrNoSource)
	}

	if err := m.media.SetSource(url); err != nil {
		m.state.Loading = false
		m.state.LastError = player.ErrNetworkFailure
		m.notify()
		return fmt.Errorf("load %q: %w", src.ID, err)
	}

	if err := m.media.SetVolume(volume); err != nil {
		m.logger.Debug("failed to restore volume", "error", err)
	}
	if err := m.media.SetMuted(muted); err != nil {
		m.logger.Debug("failed to restore mute", "error", err)
	}
	if err := m.media.SetPlaybackRate(1); err != nil {
		m.logger.Debug("failed to reset playback rate", "error", err)
	}

	m.logger.Info("loaded source", "id", src.ID, "episode", src.EpisodeNumber)
	m.notify()
	return nil
}

// Handle folds one native event into the state and runs its side effects
func (m *Manager) Handle(ev player.Event) {
	if m.closed {
		return
	}

	// the reloading source reports its own position until the swap is reapplied
	if m.swap != nil && ev.Kind == player.EventTimeUpdate {
		return
	}

	m.state = player.Apply(m.state, ev)

	switch ev.Kind {
	case player.EventDurationChange:
		m.applyResume()
	case player.EventLoadedData:
		m.applySwap()
		m.applyResume()
	case player.EventWaiting:
		m.sched.Schedule(taskBuffering, m.bufferingClear, func() {
			if !m.state.Buffering {
				return
			}
			m.state.Buffering = false
			m.notify()
		})
	case player.EventPlaying:
		m.sched.Cancel(taskBuffering)
	case player.EventError:
		m.sched.Cancel(taskBuffering)
		m.swap = nil
		m.logger.Warn("media error", "code", ev.Code, "kind", m.state.LastError, "message", ev.Message)
		if m.state.LastError.Fatal() {
			if err := m.media.SetSource(""); err != nil {
				m.logger.Debug("failed to clear source", "error", err)
			}
		}
	}

	m.notify()
}

func (m *Manager) applySwap() {
	if m.swap == nil {
		return
	}
	swap := m.swap
	m.swap = nil

	if err := m.media.Seek(swap.time); err != nil {
		m.logger.Debug("failed to restore position after quality switch", "error", err)
	} else {
		m.state.CurrentTime = swap.time
	}

	if swap.playing {
		m.exec.Go(func(ctx context.Context) error {
			return m.media.Play(ctx)
		}, func(err error) {
			if err != nil {
				m.logger.Debug("replay after quality switch interrupted", "error", err)
			}
		})
	}
}

func (m *Manager) applyResume() {
	pct, ok := m.resume.Get()
	if !ok || !m.state.DurationKnown() {
		return
	}
	m.resume = mo.None[float64]()
	m.SeekTo(pct / 100 * m.state.Duration)
}

// Resume seeks to pct of the duration, deferring until the duration is known
func (m *Manager) Resume(pct float64) {
	if !player.IsFinite(pct) || pct <= 0 {
		return
	}
	m.resume = mo.Some(lo.Clamp(pct, 0, 100))
	m.applyResume()
}

// ResumePending reports whether a resume seek is waiting for the duration
func (m *Manager) ResumePending() bool {
	return m.resume.IsPresent()
}

// Play requests playback. The state only changes on the native play event.
func (m *Manager) Play() {
	m.exec.Go(func(ctx context.Context) error {
		return m.media.Play(ctx)
	}, func(err error) {
		if err != nil {
			m.logger.Warn("play request failed", "error", err)
		}
	})
}

// Pause requests a pause
func (m *Manager) Pause() {
	m.exec.Go(func(ctx context.Context) error {
		return m.media.Pause(ctx)
	}, func(err error) {
		if err != nil {
			m.logger.Warn("pause request failed", "error", err)
		}
	})
}

// TogglePlay requests the opposite of the last confirmed state
func (m *Manager) TogglePlay() {
	if m.state.Playing {
		m.Pause()
		return
	}
	m.Play()
}

// SeekTo moves to sec clamped to the duration. It reports false and does
// nothing while the duration is unknown.
func (m *Manager) SeekTo(sec float64) bool {
	if !m.state.DurationKnown() || !player.IsFinite(sec) {
		return false
	}
	t := lo.Clamp(sec, 0, m.state.Duration)
	if err := m.media.Seek(t); err != nil {
		m.logger.Debug("seek failed", "target", t, "error", err)
		return false
	}
	m.state.CurrentTime = t
	m.notify()
	return true
}

// SeekBy moves relative to the current position
func (m *Manager) SeekBy(delta float64) bool {
	return m.SeekTo(m.state.CurrentTime + delta)
}

// SeekToFraction moves to f of the duration
func (m *Manager) SeekToFraction(f float64) bool {
	if !m.state.DurationKnown() {
		return false
	}
	return m.SeekTo(lo.Clamp(f, 0, 1) * m.state.Duration)
}

// SetVolume clamps v to [0,1]. Zero mutes; a positive volume leaves mute
// as it is.
func (m *Manager) SetVolume(v float64) {
	if !player.IsFinite(v) {
		return
	}
	v = lo.Clamp(v, 0, 1)
	if err := m.media.SetVolume(v); err != nil {
		m.logger.Debug("set volume failed", "error", err)
		return
	}
	m.state.Volume = v
	if v == 0 && !m.state.Muted {
		if err := m.media.SetMuted(true); err != nil {
			m.logger.Debug("mute failed", "error", err)
		} else {
			m.state.Muted = true
		}
	}
	m.notify()
}

// ToggleMute flips the mute flag
func (m *Manager) ToggleMute() {
	muted := !m.state.Muted
	if err := m.media.SetMuted(muted); err != nil {
		m.logger.Debug("toggle mute failed", "error", err)
		return
	}
	m.state.Muted = muted
	m.notify()
}

// SetPlaybackRate sets the speed multiplier
func (m *Manager) SetPlaybackRate(r float64) error {
	if !player.IsFinite(r) || r <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidRate, r)
	}
	if err := m.media.SetPlaybackRate(r); err != nil {
		return fmt.Errorf("set playback rate: %w", err)
	}
	m.state.Rate = r
	m.notify()
	return nil
}

// SwitchQuality reloads the source at tag, keeping position and play intent
func (m *Manager) SwitchQuality(tag player.QualityTag) error {
	if !tag.Valid() {
		return fmt.Errorf("%w: %s", ErrUnknownQuality, tag)
	}
	if !m.hasSource {
		return player.ErrNoSource
	}
	if tag == m.state.Quality && !m.state.Errored() {
		return nil
	}

	if !m.source.Has(tag) {
		return fmt.Errorf("%w: %s not available", ErrUnknownQuality, tag)
	}
	url := m.source.URLFor(tag)
	// reloading the same file would restart it, so only the label changes
	if url == m.source.URLFor(m.state.Quality) && !m.state.Errored() {
		m.state.Quality = tag
		m.logger.Debug("quality resolves to the playing rendition", "quality", tag)
		m.notify()
		return nil
	}

	swap := &pendingSwap{time: m.state.CurrentTime, playing: m.state.Playing}
	if err := m.media.SetSource(url); err != nil {
		return fmt.Errorf("switch to %s: %w", tag, err)
	}

	m.swap = swap
	m.sched.Cancel(taskBuffering)
	m.state.Quality = tag
	m.state.Loading = true
	m.state.Buffering = false
	m.state.LastError = player.ErrNone
	m.logger.Info("switching quality", "quality", tag, "position", swap.time, "playing", swap.playing)
	m.notify()
	return nil
}

// SwapPending reports whether a quality switch is waiting for data
func (m *Manager) SwapPending() bool {
	return m.swap != nil
}

// Close cancels pending work. Events arriving afterwards are ignored.
func (m *Manager) Close() {
	m.sched.Cancel(taskBuffering)
	m.swap = nil
	m.resume = mo.None[float64]()
	m.closed = true
}
