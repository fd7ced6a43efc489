package controller

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/justchokingaround/animeplay/internal/catalog"
	"github.com/justchokingaround/animeplay/internal/fullscreen"
	"github.com/justchokingaround/animeplay/internal/history"
	"github.com/justchokingaround/animeplay/internal/playback"
	"github.com/justchokingaround/animeplay/internal/player"
	"github.com/justchokingaround/animeplay/internal/player/playertest"
	"github.com/justchokingaround/animeplay/internal/scheduler"
	"github.com/justchokingaround/animeplay/internal/seek"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDisplay struct {
	requests int
	exits    int
}

func (d *fakeDisplay) RequestFullscreen(context.Context) error {
	d.requests++
	return nil
}

func (d *fakeDisplay) ExitFullscreen(context.Context) error {
	d.exits++
	return nil
}

type fakeClipboard struct {
	text string
	err  error
}

func (c *fakeClipboard) Copy(_ context.Context, text string) error {
	c.text = text
	return c.err
}

type fakeVolume struct {
	volume float64
	muted  bool
	found  bool
	saves  int
}

func (v *fakeVolume) Load(context.Context) (float64, bool, bool, error) {
	return v.volume, v.muted, v.found, nil
}

func (v *fakeVolume) Save(_ context.Context, volume float64, muted bool) error {
	v.volume, v.muted, v.found = volume, muted, true
	v.saves++
	return nil
}

type harness struct {
	c         *Controller
	media     *playertest.Media
	clock     *scheduler.Manual
	display   *fakeDisplay
	store     *history.MemoryStore
	clipboard *fakeClipboard
	volume    *fakeVolume
}

var seekTrack = seek.Track{Left: 0, Width: 100}

var anime = catalog.Anime{ID: "3", Title: "Sample Anime"}

func episodes() []catalog.Episode {
	return []catalog.Episode{
		{ID: "11", AnimeID: "3", Title: "First", EpisodeNumber: 1,
			VideoURLMaxQuality: "https://cdn.example/11/max.mp4", VideoURL720p: "https://cdn.example/11/720.mp4"},
		{ID: "12", AnimeID: "3", Title: "Second", EpisodeNumber: 2,
			VideoURLMaxQuality: "https://cdn.example/12/max.mp4"},
		{ID: "13", AnimeID: "3", Title: "Third", EpisodeNumber: 3},
	}
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		media:     playertest.NewMedia(),
		clock:     scheduler.NewManual(time.UnixMilli(1_700_000_000_000)),
		display:   &fakeDisplay{},
		store:     history.NewMemoryStore(),
		clipboard: &fakeClipboard{},
		volume:    &fakeVolume{},
	}
	h.c = New(Deps{
		Media:     h.media,
		Display:   h.display,
		Sched:     h.clock,
		Exec:      h.clock,
		History:   h.store,
		Volume:    h.volume,
		Clipboard: h.clipboard,
	}, Options{})

	// the fake confirms play/pause requests the way a native element does
	h.media.OnPlay = func() { h.c.HandleEvent(player.Event{Kind: player.EventPlay}) }
	h.media.OnPause = func() { h.c.HandleEvent(player.Event{Kind: player.EventPause}) }
	return h
}

func (h *harness) open(t *testing.T, episodeID string) {
	t.Helper()
	p, err := catalog.NewPlaylist(anime, episodes(), episodeID)
	require.NoError(t, err)
	require.NoError(t, h.c.Open(p))
}

func (h *harness) ready(duration float64) {
	h.c.HandleEvent(player.Event{Kind: player.EventDurationChange, Duration: duration})
	h.c.HandleEvent(player.Event{Kind: player.EventLoadedData})
}

func TestOpenLoadsRegistersAndPlays(t *testing.T) {
	h := newHarness(t)
	h.open(t, "11")

	assert.Equal(t, "https://cdn.example/11/max.mp4", h.media.LastSource())
	assert.NotEmpty(t, h.media.Named("play"))
	assert.True(t, h.c.Manager().State().Playing)

	saved, err := h.store.Get(context.Background(), "3", "11")
	require.NoError(t, err)
	entry, ok := saved.Get()
	require.True(t, ok)
	assert.Equal(t, "Sample Anime", entry.AnimeTitle)
	assert.Equal(t, 0.0, entry.ProgressPct)
}

func TestOpenResumesSavedProgress(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.store.Put(context.Background(), history.Entry{
		AnimeID: "3", EpisodeID: "11", ProgressPct: 40, TimestampMs: 1,
	}))

	h.open(t, "11")
	assert.True(t, h.c.Manager().ResumePending())

	h.ready(200)
	assert.Equal(t, []float64{80}, h.media.Seeks())
	assert.False(t, h.c.Manager().ResumePending())
}

func TestProgressRecordedOnCadence(t *testing.T) {
	h := newHarness(t)
	h.open(t, "11")
	h.ready(100)

	for _, ts := range []float64{4.9, 5.0, 5.2, 9.7, 10.1} {
		h.c.HandleEvent(player.Event{Kind: player.EventTimeUpdate, Time: ts})
	}

	saved, err := h.store.Get(context.Background(), "3", "11")
	require.NoError(t, err)
	assert.InDelta(t, 10.1, saved.MustGet().ProgressPct, 1e-9)
}

func TestNoProgressDuringQualitySwap(t *testing.T) {
	h := newHarness(t)
	h.open(t, "11")
	h.ready(100)
	h.c.HandleEvent(player.Event{Kind: player.EventTimeUpdate, Time: 42})

	require.NoError(t, h.c.Quality().Select(player.Quality720p))
	h.c.HandleEvent(player.Event{Kind: player.EventTimeUpdate, Time: 0})

	saved, err := h.store.Get(context.Background(), "3", "11")
	require.NoError(t, err)
	assert.Equal(t, 0.0, saved.MustGet().ProgressPct, "reloading source's time is not recorded")
	assert.Equal(t, 42.0, h.c.Manager().State().CurrentTime)

	h.c.HandleEvent(player.Event{Kind: player.EventLoadedData})
	h.c.HandleEvent(player.Event{Kind: player.EventTimeUpdate, Time: 45.1})

	saved, err = h.store.Get(context.Background(), "3", "11")
	require.NoError(t, err)
	assert.InDelta(t, 45.1, saved.MustGet().ProgressPct, 1e-9)
}

func TestNavigation(t *testing.T) {
	h := newHarness(t)
	h.open(t, "11")

	nav := h.c.Navigation()
	assert.True(t, nav.HasNext)
	assert.False(t, nav.HasPrevious)
	assert.False(t, h.c.Previous(), "no episode before the first")

	nav.OnNext()
	assert.Equal(t, "https://cdn.example/12/max.mp4", h.media.LastSource())

	nav = h.c.Navigation()
	assert.True(t, nav.HasNext)
	assert.True(t, nav.HasPrevious)

	require.True(t, h.c.Next())
	assert.Equal(t, player.ErrUnsupported, h.c.Manager().State().LastError, "third episode has no renditions")
	assert.False(t, h.c.Next())

	require.True(t, h.c.Previous())
	assert.Equal(t, catalog.ID("12"), h.c.Playlist().Current().ID)
}

func TestEpisodeSwitchResetsComponents(t *testing.T) {
	h := newHarness(t)
	h.open(t, "11")
	h.ready(100)

	h.c.Manager().SetVolume(0.4)
	require.NoError(t, h.c.Manager().SetPlaybackRate(1.5))
	h.c.Fullscreen().Enter()
	require.True(t, h.c.Fullscreen().Fullscreen())
	h.c.Quality().ToggleSettings()

	require.True(t, h.c.Next())

	state := h.c.Manager().State()
	assert.Equal(t, 0.4, state.Volume, "volume carries over")
	assert.Equal(t, 1.0, state.Rate)
	assert.Equal(t, player.QualityAuto, state.Quality)
	assert.Equal(t, fullscreen.Windowed, h.c.Fullscreen().State())
	assert.Equal(t, 1, h.display.exits)
	assert.Equal(t, playback.MenuClosed, h.c.Quality().Menu())
	assert.True(t, h.c.Controls().Visible())
}

func TestLoadEpisodeJumps(t *testing.T) {
	h := newHarness(t)
	assert.ErrorIs(t, h.c.LoadEpisode(episodes()[1]), ErrNoEpisode)

	h.open(t, "11")
	require.NoError(t, h.c.LoadEpisode(episodes()[1]))
	assert.Equal(t, 1, h.c.Playlist().Index())

	assert.ErrorIs(t, h.c.LoadEpisode(catalog.Episode{ID: "99"}), catalog.ErrNotFound)
}

func TestRetryReloadsCurrentEpisode(t *testing.T) {
	h := newHarness(t)
	h.open(t, "11")
	h.ready(100)

	assert.False(t, h.c.HandleKey("r"), "retry is only offered on error")

	h.c.HandleEvent(player.Event{Kind: player.EventError, Code: player.MediaErrNetwork})
	assert.Equal(t, "", h.media.LastSource(), "fatal error clears the source")

	require.True(t, h.c.HandleKey("r"))
	assert.Equal(t, "https://cdn.example/11/max.mp4", h.media.LastSource())
	assert.Equal(t, player.ErrNone, h.c.Manager().State().LastError)
}

func TestHandleKey(t *testing.T) {
	tests := []struct {
		key     string
		handled bool
		check   func(t *testing.T, h *harness)
	}{
		{"space", true, func(t *testing.T, h *harness) {
			assert.False(t, h.c.Manager().State().Playing)
		}},
		{"k", true, func(t *testing.T, h *harness) {
			assert.False(t, h.c.Manager().State().Playing)
		}},
		{"m", true, func(t *testing.T, h *harness) {
			assert.True(t, h.c.Manager().State().Muted)
		}},
		{"left", true, func(t *testing.T, h *harness) {
			assert.Equal(t, 45.0, h.c.Manager().State().CurrentTime)
		}},
		{"right", true, func(t *testing.T, h *harness) {
			assert.Equal(t, 55.0, h.c.Manager().State().CurrentTime)
		}},
		{"down", true, func(t *testing.T, h *harness) {
			assert.InDelta(t, 0.95, h.c.Manager().State().Volume, 1e-9)
		}},
		{"3", true, func(t *testing.T, h *harness) {
			assert.InDelta(t, 60.0, h.c.Manager().State().CurrentTime, 1e-9)
		}},
		{"0", true, func(t *testing.T, h *harness) {
			assert.Equal(t, 0.0, h.c.Manager().State().CurrentTime)
		}},
		{"f", true, func(t *testing.T, h *harness) {
			assert.True(t, h.c.Fullscreen().Fullscreen())
		}},
		{"s", true, func(t *testing.T, h *harness) {
			assert.Equal(t, playback.MenuSettings, h.c.Quality().Menu())
		}},
		{"N", true, func(t *testing.T, h *harness) {
			assert.Equal(t, 1, h.c.Playlist().Index())
		}},
		{"ctrl+k", false, func(t *testing.T, h *harness) {
			assert.True(t, h.c.Manager().State().Playing)
		}},
		{"alt+m", false, func(t *testing.T, h *harness) {
			assert.False(t, h.c.Manager().State().Muted)
		}},
		{"x", false, nil},
		{"esc", false, nil},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			h := newHarness(t)
			h.open(t, "11")
			h.ready(200)
			h.c.HandleEvent(player.Event{Kind: player.EventTimeUpdate, Time: 50})
			require.True(t, h.c.Manager().State().Playing)

			assert.Equal(t, tt.handled, h.c.HandleKey(tt.key))
			if tt.check != nil {
				tt.check(t, h)
			}
		})
	}
}

func TestUpNeverUnmutes(t *testing.T) {
	h := newHarness(t)
	h.open(t, "11")
	h.c.Manager().SetVolume(0.5)
	h.c.HandleKey("m")

	h.c.HandleKey("up")

	state := h.c.Manager().State()
	assert.InDelta(t, 0.55, state.Volume, 1e-9)
	assert.True(t, state.Muted)
}

func TestKeyRevealsControls(t *testing.T) {
	h := newHarness(t)
	h.open(t, "11")
	h.ready(100)

	h.clock.Advance(3 * time.Second)
	require.False(t, h.c.Controls().Visible())

	h.c.HandleKey("right")
	assert.True(t, h.c.Controls().Visible())
}

func TestEscClosesMenuStepwise(t *testing.T) {
	h := newHarness(t)
	h.open(t, "11")
	h.c.Quality().OpenQuality()

	assert.True(t, h.c.HandleKey("esc"))
	assert.Equal(t, playback.MenuSettings, h.c.Quality().Menu())
	assert.True(t, h.c.HandleKey("esc"))
	assert.Equal(t, playback.MenuClosed, h.c.Quality().Menu())
	assert.False(t, h.c.HandleKey("esc"))
}

func TestCopyStreamURL(t *testing.T) {
	h := newHarness(t)
	h.open(t, "11")
	h.ready(100)
	require.NoError(t, h.c.Quality().Select(player.Quality720p))

	h.c.HandleKey("y")
	assert.Equal(t, "https://cdn.example/11/720.mp4", h.clipboard.text)
	assert.Equal(t, "Copied stream URL", h.c.Notice())

	h.clock.Advance(2 * time.Second)
	assert.Empty(t, h.c.Notice())

	h.clipboard.err = errors.New("no display")
	h.c.CopyStreamURL()
	assert.Equal(t, "Copy failed", h.c.Notice())
}

func TestVolumeRestoredAndSaved(t *testing.T) {
	media := playertest.NewMedia()
	clock := scheduler.NewManual(time.Unix(0, 0))
	volume := &fakeVolume{volume: 0.3, muted: true, found: true}

	c := New(Deps{Media: media, Display: &fakeDisplay{}, Sched: clock, Exec: clock, Volume: volume}, Options{})
	state := c.Manager().State()
	assert.Equal(t, 0.3, state.Volume)
	assert.True(t, state.Muted)
	assert.Equal(t, 0, volume.saves, "restoring is not a change")

	c.Manager().SetVolume(0.6)
	c.Manager().SetVolume(0.7)
	assert.Equal(t, 0, volume.saves)

	clock.Advance(volumeSaveDelay)
	assert.Equal(t, 1, volume.saves)
	assert.Equal(t, 0.7, volume.volume)

	c.Manager().ToggleMute()
	c.Close()
	assert.Equal(t, 2, volume.saves, "pending change is written on close")
	assert.False(t, volume.muted)
}

func TestCloseCancelsEverything(t *testing.T) {
	h := newHarness(t)
	h.open(t, "11")
	h.ready(100)
	h.c.HandleEvent(player.Event{Kind: player.EventWaiting})
	h.c.Seek().SetTrack(seekTrack)
	h.c.Seek().Click(10)
	require.NotZero(t, h.clock.Len())

	h.c.Close()
	assert.Zero(t, h.clock.Len())

	h.media.Reset()
	h.c.HandleEvent(player.Event{Kind: player.EventTimeUpdate, Time: 50})
	assert.False(t, h.c.HandleKey("space"))
	assert.Empty(t, h.media.Calls)
	h.c.Close()
}

func TestPumpForwardsEvents(t *testing.T) {
	h := newHarness(t)
	h.open(t, "11")

	h.media.Emit(player.Event{Kind: player.EventDurationChange, Duration: 100})
	h.media.Emit(player.Event{Kind: player.EventTimeUpdate, Time: 12})

	ctx, cancel := context.WithCancel(context.Background())
	posted := 0
	poster := scheduler.PosterFunc(func(fn func()) bool {
		fn()
		posted++
		if posted == 2 {
			cancel()
		}
		return true
	})

	err := h.c.Pump(ctx, poster)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 12.0, h.c.Manager().State().CurrentTime)
}
