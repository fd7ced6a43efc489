package fullscreen

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/justchokingaround/animeplay/internal/player"
	"github.com/justchokingaround/animeplay/internal/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDisplay struct {
	requests int
	exits    int
	denyErr  error
	exitErr  error
}

func (d *fakeDisplay) RequestFullscreen(ctx context.Context) error {
	d.requests++
	return d.denyErr
}

func (d *fakeDisplay) ExitFullscreen(ctx context.Context) error {
	d.exits++
	return d.exitErr
}

type orientation struct{ kind string }

func (o *orientation) Type() string { return o.kind }

type angle struct{ deg int }

func (a *angle) Angle() int { return a.deg }

type controlsSpy struct{ changes []bool }

func (c *controlsSpy) FullscreenChanged(fs bool) { c.changes = append(c.changes, fs) }

type fixture struct {
	c        *Coordinator
	display  *fakeDisplay
	orient   *orientation
	controls *controlsSpy
	chrome   []bool
	clock    *scheduler.Manual
}

func newFixture(mobile bool, kind string) *fixture {
	f := &fixture{
		display:  &fakeDisplay{},
		orient:   &orientation{kind: kind},
		controls: &controlsSpy{},
		clock:    scheduler.NewManual(time.Unix(0, 0)),
	}
	f.c = New(f.display, f.clock, f.clock, Options{
		Mobile:      mobile,
		Orientation: f.orient,
		Controls:    f.controls,
		Chrome:      func(fs bool) { f.chrome = append(f.chrome, fs) },
	})
	return f
}

func TestDesktopEnterAndExit(t *testing.T) {
	f := newFixture(false, "portrait-primary")

	f.c.Toggle()
	assert.Equal(t, FullscreenLandscape, f.c.State())
	assert.Equal(t, 1, f.display.requests)

	f.c.Toggle()
	assert.Equal(t, Windowed, f.c.State())
	assert.Equal(t, 1, f.display.exits)

	assert.Equal(t, []bool{true, false}, f.chrome)
	assert.Equal(t, []bool{true, false}, f.controls.changes)
}

func TestMobilePortraitRequestIsBlocked(t *testing.T) {
	f := newFixture(true, "portrait-primary")

	f.c.Enter()
	assert.Equal(t, FullscreenBlockedPortrait, f.c.State())
	assert.Equal(t, MessageRotate, f.c.Message())
	assert.Zero(t, f.display.requests)
	assert.Empty(t, f.controls.changes)

	f.clock.Advance(2950 * time.Millisecond)
	assert.Equal(t, FullscreenBlockedPortrait, f.c.State())

	f.clock.Advance(100 * time.Millisecond)
	assert.Equal(t, Windowed, f.c.State())
	assert.Empty(t, f.c.Message())
}

func TestMobileLandscapeRequestEnters(t *testing.T) {
	f := newFixture(true, "landscape-primary")

	f.c.Enter()

	assert.Equal(t, FullscreenLandscape, f.c.State())
	assert.Empty(t, f.c.Message())
}

func TestMobileOrientationAutoToggles(t *testing.T) {
	f := newFixture(true, "portrait-primary")

	f.orient.kind = "landscape-secondary"
	f.c.OrientationChanged()
	assert.Equal(t, FullscreenLandscape, f.c.State())

	f.orient.kind = "portrait-primary"
	f.c.OrientationChanged()
	assert.Equal(t, Windowed, f.c.State())

	assert.Equal(t, 1, f.display.requests)
	assert.Equal(t, 1, f.display.exits)
}

func TestRotatingOutOfBlockedEntersFullscreen(t *testing.T) {
	f := newFixture(true, "portrait-primary")
	f.c.Enter()

	f.orient.kind = "landscape-primary"
	f.c.OrientationChanged()

	assert.Equal(t, FullscreenLandscape, f.c.State())
	assert.False(t, f.clock.Pending(taskBlocked))
	assert.Empty(t, f.c.Message())
}

func TestDesktopIgnoresOrientation(t *testing.T) {
	f := newFixture(false, "portrait-primary")

	f.orient.kind = "landscape-primary"
	f.c.OrientationChanged()

	assert.Equal(t, Windowed, f.c.State())
	assert.Zero(t, f.display.requests)
}

func TestNoOrientationSignalDegradesToDesktop(t *testing.T) {
	display := &fakeDisplay{}
	clock := scheduler.NewManual(time.Unix(0, 0))
	c := New(display, clock, clock, Options{Mobile: true})

	assert.True(t, c.Degraded())
	assert.Equal(t, OrientationUnknown, c.Orientation())
	assert.Equal(t, player.ErrOrientationUnsupported, c.LastError())

	c.OrientationChanged()
	assert.Zero(t, display.requests, "never auto-toggles")

	c.Enter()
	assert.Equal(t, FullscreenLandscape, c.State(), "explicit request is never blocked")
}

func TestLegacyAngleSignal(t *testing.T) {
	tests := []struct {
		deg  int
		want Orientation
	}{
		{0, Portrait},
		{180, Portrait},
		{90, Landscape},
		{-90, Landscape},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.deg), func(t *testing.T) {
			clock := scheduler.NewManual(time.Unix(0, 0))
			c := New(&fakeDisplay{}, clock, clock, Options{Mobile: true, Legacy: &angle{deg: tt.deg}})
			assert.Equal(t, tt.want, c.Orientation())
		})
	}
}

func TestStructuredSignalPreferred(t *testing.T) {
	clock := scheduler.NewManual(time.Unix(0, 0))
	c := New(&fakeDisplay{}, clock, clock, Options{
		Mobile:      true,
		Orientation: &orientation{kind: "landscape-primary"},
		Legacy:      &angle{deg: 0},
	})
	assert.Equal(t, Landscape, c.Orientation())
}

func TestDeniedRequestShowsMessage(t *testing.T) {
	f := newFixture(false, "")
	f.display.denyErr = fmt.Errorf("window manager: %w", ErrFullscreenDenied)

	f.c.Enter()

	assert.Equal(t, Windowed, f.c.State())
	assert.Equal(t, MessageDenied, f.c.Message())
	assert.Equal(t, player.ErrFullscreenDenied, f.c.LastError())
	assert.Empty(t, f.chrome)

	f.clock.Advance(DefaultMessageDuration)
	assert.Empty(t, f.c.Message())
	assert.Equal(t, player.ErrNone, f.c.LastError())
}

func TestInFlightRequestNotRepeated(t *testing.T) {
	f := newFixture(false, "")
	f.clock.Hold = true

	f.c.Enter()
	f.c.Enter()
	f.clock.Flush()

	assert.Equal(t, 1, f.display.requests)
	assert.Equal(t, FullscreenLandscape, f.c.State())
}

func TestExitFromBlockedCancelsRevert(t *testing.T) {
	f := newFixture(true, "portrait-primary")
	f.c.Enter()

	f.c.Exit()

	assert.Equal(t, Windowed, f.c.State())
	assert.Zero(t, f.clock.Len())
	assert.Zero(t, f.display.exits)
}

func TestPlatformChangeNotification(t *testing.T) {
	f := newFixture(false, "")

	f.c.Changed(true)
	f.c.Changed(true)
	f.c.Changed(false)

	assert.Equal(t, []bool{true, false}, f.controls.changes)
}

func TestCloseExitsOnMobilePortrait(t *testing.T) {
	f := newFixture(true, "landscape-primary")
	f.c.Enter()
	require.Equal(t, FullscreenLandscape, f.c.State())

	f.orient.kind = "portrait-primary"
	f.display.exitErr = fmt.Errorf("not allowed")
	f.c.Close()

	assert.Equal(t, 1, f.display.exits)
}

func TestCloseLeavesDesktopFullscreen(t *testing.T) {
	f := newFixture(false, "portrait-primary")
	f.c.Enter()

	f.c.Close()

	assert.Zero(t, f.display.exits)
	assert.Zero(t, f.clock.Len())
}

func TestResetLeavesFullscreen(t *testing.T) {
	f := newFixture(false, "")
	f.c.Enter()

	f.c.Reset()

	assert.Equal(t, Windowed, f.c.State())
	assert.Equal(t, 1, f.display.exits)
}

// On mobile the blocked state is entered only by a portrait request and
// always reverts to Windowed on its own within the message window.
func TestBlockedOnlyFromPortraitRequest(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	f := newFixture(true, "portrait-primary")

	for i := 0; i < 3000; i++ {
		before := f.c.State()
		portrait := f.c.Orientation() == Portrait
		entered := false

		switch rng.Intn(5) {
		case 0:
			f.c.Enter()
			entered = true
		case 1:
			f.c.Exit()
		case 2:
			if portrait {
				f.orient.kind = "landscape-primary"
			} else {
				f.orient.kind = "portrait-primary"
			}
			f.c.OrientationChanged()
		case 3:
			f.c.Toggle()
			entered = before != FullscreenLandscape
		case 4:
			f.clock.Advance(time.Duration(rng.Intn(1500)) * time.Millisecond)
		}

		if f.c.State() == FullscreenBlockedPortrait && before != FullscreenBlockedPortrait {
			require.True(t, entered && portrait, "step %d", i)
			deadline, ok := f.clock.Deadline(taskBlocked)
			require.True(t, ok)
			assert.Equal(t, f.clock.Now().Add(DefaultMessageDuration), deadline)
		}
	}
}
