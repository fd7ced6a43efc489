package controls

import (
	"math/rand"
	"testing"
	"time"

	"github.com/justchokingaround/animeplay/internal/player"
	"github.com/justchokingaround/animeplay/internal/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func playing() player.PlaybackState {
	s := player.NewPlaybackState()
	s.Playing = true
	return s
}

func newTimer(mobile bool) (*Timer, *scheduler.Manual) {
	clock := scheduler.NewManual(time.Unix(0, 0))
	return New(clock, 0, mobile), clock
}

func TestHidesAfterInactivity(t *testing.T) {
	timer, clock := newTimer(false)
	timer.Sync(playing())
	assert.True(t, timer.Visible())

	clock.Advance(2999 * time.Millisecond)
	assert.True(t, timer.Visible())

	clock.Advance(time.Millisecond)
	assert.False(t, timer.Visible())
}

func TestPointerMoveResetsDeadline(t *testing.T) {
	timer, clock := newTimer(false)
	timer.Sync(playing())

	clock.Advance(2 * time.Second)
	timer.PointerMove()
	clock.Advance(2 * time.Second)
	assert.True(t, timer.Visible())

	timer.PointerDown()
	clock.Advance(2 * time.Second)
	assert.True(t, timer.Visible())
	assert.Equal(t, 1, clock.Len(), "exactly one deadline is live")

	clock.Advance(time.Second)
	assert.False(t, timer.Visible())

	timer.PointerMove()
	assert.True(t, timer.Visible())
}

func TestSuppression(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*Timer)
	}{
		{"paused", func(tm *Timer) {
			tm.Sync(player.NewPlaybackState())
		}},
		{"errored", func(tm *Timer) {
			s := playing()
			s.LastError = player.ErrNetworkFailure
			tm.Sync(s)
		}},
		{"menu open", func(tm *Timer) {
			tm.SetMenuOpen(true)
		}},
		{"desktop hover", func(tm *Timer) {
			tm.PointerEnter()
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			timer, clock := newTimer(false)
			timer.Sync(playing())
			clock.Advance(5 * time.Second)
			require.False(t, timer.Visible())

			tt.setup(timer)
			assert.True(t, timer.Visible())
			assert.False(t, clock.Pending(taskHide))
			assert.True(t, timer.State().SuppressUntilSettled)

			clock.Advance(10 * time.Second)
			assert.True(t, timer.Visible())
		})
	}
}

func TestHoverIgnoredOnMobile(t *testing.T) {
	timer, clock := newTimer(true)
	timer.Sync(playing())

	timer.PointerEnter()
	clock.Advance(3 * time.Second)

	assert.False(t, timer.Visible())
	assert.False(t, timer.Hovering())
}

func TestPointerLeaveRestartsDeadline(t *testing.T) {
	timer, clock := newTimer(false)
	timer.Sync(playing())
	timer.PointerEnter()
	clock.Advance(10 * time.Second)

	timer.PointerLeave()
	assert.True(t, timer.Visible())
	clock.Advance(3 * time.Second)
	assert.False(t, timer.Visible())
}

func TestResumingPlaybackStartsDeadline(t *testing.T) {
	timer, clock := newTimer(false)
	timer.Sync(player.NewPlaybackState())
	assert.False(t, clock.Pending(taskHide))

	timer.Sync(playing())
	assert.True(t, clock.Pending(taskHide))

	d, ok := clock.Deadline(taskHide)
	require.True(t, ok)
	assert.Equal(t, d, timer.State().Deadline)
}

func TestFullscreenChangeShowsControls(t *testing.T) {
	timer, clock := newTimer(true)
	timer.Sync(playing())
	clock.Advance(3 * time.Second)
	require.False(t, timer.Visible())

	var changes []bool
	timer.OnChange(func(v bool) { changes = append(changes, v) })

	timer.FullscreenChanged(true)
	assert.True(t, timer.Visible())
	clock.Advance(3 * time.Second)

	timer.FullscreenChanged(false)
	clock.Advance(3 * time.Second)

	assert.Equal(t, []bool{true, false, true, false}, changes)
}

func TestClosingMenuRestartsDeadline(t *testing.T) {
	timer, clock := newTimer(false)
	timer.Sync(playing())
	timer.SetMenuOpen(true)
	clock.Advance(time.Minute)

	timer.SetMenuOpen(false)
	clock.Advance(2 * time.Second)
	assert.True(t, timer.Visible())
	clock.Advance(time.Second)
	assert.False(t, timer.Visible())
}

func TestResetAndClose(t *testing.T) {
	timer, clock := newTimer(false)
	timer.Sync(playing())
	timer.SetMenuOpen(true)
	timer.SetMenuOpen(false)

	timer.Reset()
	assert.True(t, timer.Visible())
	assert.Zero(t, clock.Len())

	timer.Sync(playing())
	timer.Close()
	assert.Zero(t, clock.Len())
}

// Controls are visible whenever playback is paused or errored, whatever
// sequence of inputs and timer firings led there.
func TestVisibleWhenPausedOrErrored(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for _, mobile := range []bool{false, true} {
		timer, clock := newTimer(mobile)
		state := player.NewPlaybackState()

		ops := []func(){
			func() { state.Playing = !state.Playing; timer.Sync(state) },
			func() {
				if state.Errored() {
					state.LastError = player.ErrNone
				} else {
					state.LastError = player.ErrUnsupported
				}
				timer.Sync(state)
			},
			func() { timer.PointerMove() },
			func() { timer.PointerDown() },
			func() { timer.PointerEnter() },
			func() { timer.PointerLeave() },
			func() { timer.SetMenuOpen(rng.Intn(2) == 0) },
			func() { timer.FullscreenChanged(rng.Intn(2) == 0) },
			func() { clock.Advance(time.Duration(rng.Intn(5000)) * time.Millisecond) },
		}

		for i := 0; i < 5000; i++ {
			ops[rng.Intn(len(ops))]()
			if !state.Playing || state.Errored() {
				require.True(t, timer.Visible(), "step %d mobile=%v", i, mobile)
			}
			require.LessOrEqual(t, clock.Len(), 1)
		}
	}
}
