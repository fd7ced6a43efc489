// Package controller composes the playback components for one viewing
// session: episode lifecycle, keyboard shortcuts, navigation and retry.
package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/justchokingaround/animeplay/internal/catalog"
	"github.com/justchokingaround/animeplay/internal/config"
	"github.com/justchokingaround/animeplay/internal/controls"
	"github.com/justchokingaround/animeplay/internal/fullscreen"
	"github.com/justchokingaround/animeplay/internal/history"
	"github.com/justchokingaround/animeplay/internal/playback"
	"github.com/justchokingaround/animeplay/internal/player"
	"github.com/justchokingaround/animeplay/internal/scheduler"
	"github.com/justchokingaround/animeplay/internal/seek"
)

// ErrNoEpisode is returned when nothing has been opened yet
var ErrNoEpisode = errors.New("no episode loaded")

const (
	taskNotice     = "controller.notice"
	taskSaveVolume = "controller.volume"
)

const (
	noticeDuration   = 2 * time.Second
	volumeSaveDelay  = 500 * time.Millisecond
	defaultSeekStep  = 5 * time.Second
	defaultVolumeInc = 0.05
)

// Copier puts text on the system clipboard
type Copier interface {
	Copy(ctx context.Context, text string) error
}

// VolumeStore remembers volume and mute across sessions
type VolumeStore interface {
	Load(ctx context.Context) (volume float64, muted bool, ok bool, err error)
	Save(ctx context.Context, volume float64, muted bool) error
}

// Deps are the platform capabilities and collaborators. History, Volume and
// Clipboard are optional.
type Deps struct {
	Media       player.MediaHandle
	Display     fullscreen.Display
	Orientation fullscreen.OrientationAPI
	Legacy      fullscreen.LegacyOrientation
	Chrome      func(fullscreen bool)
	Sched       scheduler.Scheduler
	Exec        scheduler.Executor
	History     history.Store
	Volume      VolumeStore
	Clipboard   Copier
}

// Options tunes the session
type Options struct {
	Mobile          bool
	Speeds          []float64
	SeekStep        time.Duration
	VolumeStep      float64
	DefaultVolume   float64
	BufferingClear  time.Duration
	ControlsHide    time.Duration
	MessageDuration time.Duration
	Seek            seek.Options
	Cadence         int
	Logger          *slog.Logger
}

// OptionsFrom maps the player config section onto Options
func OptionsFrom(cfg *config.PlayerConfig, logger *slog.Logger) Options {
	return Options{
		Mobile:          cfg.Mobile,
		Speeds:          cfg.Speeds,
		SeekStep:        cfg.SeekStep,
		VolumeStep:      cfg.VolumeStep,
		DefaultVolume:   cfg.DefaultVolume,
		BufferingClear:  cfg.BufferingClear,
		ControlsHide:    cfg.ControlsHide,
		MessageDuration: cfg.MessageDuration,
		Seek: seek.Options{
			ClickDebounce: cfg.SeekDebounce,
			FrameInterval: cfg.FrameInterval,
			Momentum: seek.Momentum{
				MaxOffset:     cfg.Momentum.MaxOffset,
				VelocityScale: cfg.Momentum.VelocityScale,
				ReleaseScale:  cfg.Momentum.ReleaseScale,
			},
		},
		Cadence: cfg.ProgressCadence,
		Logger:  logger,
	}
}

// Navigation is what the surrounding page needs to render episode buttons
type Navigation struct {
	OnNext      func()
	OnPrevious  func()
	HasNext     bool
	HasPrevious bool
}

// Controller is the composition root of a viewing session. Every method
// must be called from the UI goroutine.
type Controller struct {
	deps   Deps
	opts   Options
	logger *slog.Logger

	manager    *playback.Manager
	quality    *playback.QualitySelector
	seek       *seek.Controller
	controls   *controls.Timer
	fullscreen *fullscreen.Coordinator
	recorder   *history.Recorder

	playlist *catalog.Playlist
	notice   string

	volumeReady bool
	savedVolume float64
	savedMuted  bool

	closed bool
}

// New wires the playback components around deps
func New(deps Deps, opts Options) *Controller {
	if opts.SeekStep <= 0 {
		opts.SeekStep = defaultSeekStep
	}
	if opts.VolumeStep <= 0 {
		opts.VolumeStep = defaultVolumeInc
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Seek.Logger == nil {
		opts.Seek.Logger = opts.Logger
	}

	c := &Controller{
		deps:   deps,
		opts:   opts,
		logger: opts.Logger,
	}

	c.manager = playback.NewManager(deps.Media, deps.Sched, deps.Exec, playback.Options{
		BufferingClear: opts.BufferingClear,
		Logger:         opts.Logger,
	})
	c.quality = playback.NewQualitySelector(c.manager, opts.Speeds)
	c.seek = seek.New(c.manager, deps.Sched, opts.Seek)
	c.controls = controls.New(deps.Sched, opts.ControlsHide, opts.Mobile)
	c.fullscreen = fullscreen.New(deps.Display, deps.Sched, deps.Exec, fullscreen.Options{
		Mobile:          opts.Mobile,
		Orientation:     deps.Orientation,
		Legacy:          deps.Legacy,
		MessageDuration: opts.MessageDuration,
		Controls:        c.controls,
		Chrome:          deps.Chrome,
		Logger:          opts.Logger,
	})
	if deps.History != nil {
		c.recorder = history.NewRecorder(deps.History, deps.Exec, history.RecorderOptions{
			Cadence: opts.Cadence,
			Now:     deps.Sched.Now,
			Logger:  opts.Logger,
		})
	}

	c.manager.OnChange(func(state player.PlaybackState) {
		c.controls.Sync(state)
		c.volumeChanged(state)
	})
	c.quality.OnMenuChange(c.controls.SetMenuOpen)

	if opts.DefaultVolume > 0 && opts.DefaultVolume < 1 {
		c.manager.SetVolume(opts.DefaultVolume)
	}
	c.restoreVolume()

	return c
}

// Manager returns the playback state manager
func (c *Controller) Manager() *playback.Manager { return c.manager }

// Quality returns the quality and speed selector
func (c *Controller) Quality() *playback.QualitySelector { return c.quality }

// Seek returns the progress-track input controller
func (c *Controller) Seek() *seek.Controller { return c.seek }

// Controls returns the overlay visibility timer
func (c *Controller) Controls() *controls.Timer { return c.controls }

// Fullscreen returns the fullscreen coordinator
func (c *Controller) Fullscreen() *fullscreen.Coordinator { return c.fullscreen }

// Playlist returns the open playlist, or nil
func (c *Controller) Playlist() *catalog.Playlist { return c.playlist }

// Notice is a short transient status line, e.g. after copying a URL
func (c *Controller) Notice() string { return c.notice }

// Open starts the session at the playlist's current episode
func (c *Controller) Open(p *catalog.Playlist) error {
	c.playlist = p
	return c.load(p.Current())
}

// LoadEpisode jumps to ep within the open playlist
func (c *Controller) LoadEpisode(ep catalog.Episode) error {
	if c.playlist == nil {
		return ErrNoEpisode
	}
	p, err := catalog.NewPlaylist(c.playlist.Anime, c.playlist.Episodes(), ep.ID.String())
	if err != nil {
		return err
	}
	c.playlist = p
	return c.load(ep)
}

// load resets every component and starts ep. Volume and mute carry over.
func (c *Controller) load(ep catalog.Episode) error {
	if c.closed {
		return nil
	}
	if c.recorder != nil {
		c.recorder.End()
	}
	c.seek.Close()
	c.quality.Close()
	c.controls.Reset()
	c.fullscreen.Reset()

	logger := c.logger.With("anime", c.playlist.Anime.ID, "episode", ep.ID)
	if err := c.manager.Load(ep.Source()); err != nil {
		logger.Warn("failed to load episode", "error", err)
		return fmt.Errorf("load episode %d: %w", ep.EpisodeNumber, err)
	}

	if c.recorder != nil {
		c.recorder.Begin(c.meta(ep), c.manager.Resume)
	}
	c.manager.Play()
	logger.Info("playing episode", "number", ep.EpisodeNumber, "title", ep.Title)
	return nil
}

func (c *Controller) meta(ep catalog.Episode) history.Meta {
	anime := c.playlist.Anime
	thumbnail := ep.ThumbnailURL
	if thumbnail == "" {
		thumbnail = anime.ThumbnailURL
	}
	return history.Meta{
		AnimeID:       anime.ID.String(),
		EpisodeID:     ep.ID.String(),
		Title:         ep.Title,
		EpisodeNumber: ep.EpisodeNumber,
		ThumbnailURL:  thumbnail,
		AnimeTitle:    anime.Title,
	}
}

// HandleEvent routes one native media event
func (c *Controller) HandleEvent(ev player.Event) {
	if c.closed {
		return
	}
	swapping := c.manager.SwapPending()
	c.manager.Handle(ev)

	if ev.Kind == player.EventTimeUpdate && !swapping && c.recorder != nil {
		c.recorder.Observe(c.manager.State())
	}
}

// Navigation returns next/previous callbacks for the current episode
func (c *Controller) Navigation() Navigation {
	nav := Navigation{
		OnNext:     func() { c.Next() },
		OnPrevious: func() { c.Previous() },
	}
	if c.playlist != nil {
		nav.HasNext = c.playlist.HasNext()
		nav.HasPrevious = c.playlist.HasPrevious()
	}
	return nav
}

// Next loads the following episode. It reports false at the last one.
func (c *Controller) Next() bool {
	if c.playlist == nil {
		return false
	}
	ep, ok := c.playlist.Next()
	if !ok {
		return false
	}
	if err := c.load(ep); err != nil {
		c.logger.Debug("next episode failed to load", "error", err)
	}
	return true
}

// Previous loads the preceding episode. It reports false at the first one.
func (c *Controller) Previous() bool {
	if c.playlist == nil {
		return false
	}
	ep, ok := c.playlist.Previous()
	if !ok {
		return false
	}
	if err := c.load(ep); err != nil {
		c.logger.Debug("previous episode failed to load", "error", err)
	}
	return true
}

// Retry reloads the current episode from scratch, resuming from history
func (c *Controller) Retry() error {
	if c.playlist == nil {
		return ErrNoEpisode
	}
	c.logger.Info("retrying episode", "episode", c.playlist.Current().ID)
	return c.load(c.playlist.Current())
}

// StreamURL is the URL of the rendition currently playing
func (c *Controller) StreamURL() string {
	state := c.manager.State()
	return c.manager.Source().URLFor(state.Quality)
}

// CopyStreamURL puts the current rendition URL on the clipboard
func (c *Controller) CopyStreamURL() {
	url := c.StreamURL()
	if url == "" || c.deps.Clipboard == nil {
		return
	}
	c.deps.Exec.Go(func(ctx context.Context) error {
		return c.deps.Clipboard.Copy(ctx, url)
	}, func(err error) {
		if err != nil {
			c.logger.Warn("failed to copy stream url", "error", err)
			c.setNotice("Copy failed")
			return
		}
		c.setNotice("Copied stream URL")
	})
}

func (c *Controller) setNotice(msg string) {
	c.notice = msg
	c.deps.Sched.Schedule(taskNotice, noticeDuration, func() {
		c.notice = ""
	})
}

// restoreVolume applies the remembered volume once it is read
func (c *Controller) restoreVolume() {
	if c.deps.Volume == nil {
		return
	}
	var (
		volume float64
		muted  bool
		found  bool
	)
	c.deps.Exec.Go(func(ctx context.Context) error {
		var err error
		volume, muted, found, err = c.deps.Volume.Load(ctx)
		return err
	}, func(err error) {
		if err != nil {
			c.logger.Debug("failed to read saved volume", "error", err)
		}
		if c.closed {
			return
		}
		if found {
			c.manager.SetVolume(volume)
			if c.manager.State().Muted != muted {
				c.manager.ToggleMute()
			}
		}
		state := c.manager.State()
		c.savedVolume, c.savedMuted = state.Volume, state.Muted
		c.volumeReady = true
	})
}

// volumeChanged debounces writes of the user's volume
func (c *Controller) volumeChanged(state player.PlaybackState) {
	if !c.volumeReady || c.closed {
		return
	}
	if state.Volume == c.savedVolume && state.Muted == c.savedMuted {
		return
	}
	c.deps.Sched.Schedule(taskSaveVolume, volumeSaveDelay, c.saveVolume)
}

func (c *Controller) saveVolume() {
	state := c.manager.State()
	volume, muted := state.Volume, state.Muted
	c.savedVolume, c.savedMuted = volume, muted

	c.deps.Exec.Go(func(ctx context.Context) error {
		return c.deps.Volume.Save(ctx, volume, muted)
	}, func(err error) {
		if err != nil {
			c.logger.Debug("failed to save volume", "error", err)
		}
	})
}

// Pump forwards media events to the UI goroutine until ctx is done or the
// media closes its event channel
func (c *Controller) Pump(ctx context.Context, p scheduler.Poster) error {
	events := c.deps.Media.Events()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if !p.Post(func() { c.HandleEvent(ev) }) {
				return nil
			}
		}
	}
}

// Close tears the session down. Every timer is cancelled; a pending volume
// change is written.
func (c *Controller) Close() {
	if c.closed {
		return
	}
	if c.deps.Sched.Cancel(taskSaveVolume) {
		c.saveVolume()
	}
	c.closed = true

	if c.recorder != nil {
		c.recorder.End()
	}
	c.seek.Close()
	c.quality.Close()
	c.controls.Close()
	c.fullscreen.Close()
	c.manager.Close()
	c.deps.Sched.CancelAll()
	c.logger.Debug("playback session closed")
}
