// Package controls decides when the transport overlay is shown.
package controls

import (
	"time"

	"github.com/justchokingaround/animeplay/internal/player"
	"github.com/justchokingaround/animeplay/internal/scheduler"
)

const taskHide = "controls.hide"

// DefaultHideAfter is the inactivity window before the overlay hides
const DefaultHideAfter = 3 * time.Second

// Visibility is a snapshot of the overlay state
type Visibility struct {
	Visible              bool
	SuppressUntilSettled bool
	Deadline             time.Time
}

// Timer runs the single inactivity deadline for the control overlay.
// While playback is paused or errored, or a menu is open, or a desktop
// pointer hovers the player, the overlay is pinned visible and no deadline
// runs.
type Timer struct {
	sched     scheduler.Scheduler
	hideAfter time.Duration
	mobile    bool

	visible  bool
	hovering bool
	menuOpen bool
	playing  bool
	errored  bool

	onChange func(visible bool)
}

// New creates a timer. Controls start visible.
func New(sched scheduler.Scheduler, hideAfter time.Duration, mobile bool) *Timer {
	if hideAfter <= 0 {
		hideAfter = DefaultHideAfter
	}
	return &Timer{
		sched:     sched,
		hideAfter: hideAfter,
		mobile:    mobile,
		visible:   true,
	}
}

// OnChange registers a callback fired when Visible flips
func (t *Timer) OnChange(fn func(visible bool)) {
	t.onChange = fn
}

func (t *Timer) suppressed() bool {
	return !t.playing || t.errored || t.menuOpen || (t.hovering && !t.mobile)
}

// Visible reports whether the overlay is shown
func (t *Timer) Visible() bool {
	return t.visible || t.suppressed()
}

// State returns the current visibility snapshot
func (t *Timer) State() Visibility {
	v := Visibility{Visible: t.Visible(), SuppressUntilSettled: t.suppressed()}
	if d, ok := t.sched.Deadline(taskHide); ok {
		v.Deadline = d
	}
	return v
}

func (t *Timer) update(fn func()) {
	before := t.Visible()
	fn()
	if after := t.Visible(); after != before && t.onChange != nil {
		t.onChange(after)
	}
}

// restart shows the overlay and reschedules the hide deadline
func (t *Timer) restart() {
	t.visible = true
	if t.suppressed() {
		t.sched.Cancel(taskHide)
		return
	}
	t.sched.Schedule(taskHide, t.hideAfter, func() {
		if t.suppressed() {
			return
		}
		t.update(func() { t.visible = false })
	})
}

// Sync follows playback state. Leaving a suppressed state starts a fresh
// deadline.
func (t *Timer) Sync(state player.PlaybackState) {
	t.update(func() {
		wasSuppressed := t.suppressed()
		t.playing = state.Playing
		t.errored = state.Errored()

		switch {
		case t.suppressed():
			t.visible = true
			t.sched.Cancel(taskHide)
		case wasSuppressed:
			t.restart()
		}
	})
}

// PointerMove is any pointer or touch movement over the player
func (t *Timer) PointerMove() {
	t.update(t.restart)
}

// PointerDown is a pointer press or touch start
func (t *Timer) PointerDown() {
	t.update(t.restart)
}

// PointerEnter marks the desktop pointer as inside the player
func (t *Timer) PointerEnter() {
	if t.mobile {
		return
	}
	t.update(func() {
		t.hovering = true
		t.restart()
	})
}

// PointerLeave marks the desktop pointer as outside the player
func (t *Timer) PointerLeave() {
	if t.mobile || !t.hovering {
		return
	}
	t.update(func() {
		t.hovering = false
		t.restart()
	})
}

// Hovering reports whether a desktop pointer is inside the player
func (t *Timer) Hovering() bool {
	return t.hovering
}

// SetMenuOpen pins the overlay while a settings menu is open
func (t *Timer) SetMenuOpen(open bool) {
	if t.menuOpen == open {
		return
	}
	t.update(func() {
		t.menuOpen = open
		t.restart()
	})
}

// FullscreenChanged shows the overlay and restarts the deadline on both
// enter and exit
func (t *Timer) FullscreenChanged(bool) {
	t.update(t.restart)
}

// Reset returns to the initial visible state for a new episode
func (t *Timer) Reset() {
	t.update(func() {
		t.sched.Cancel(taskHide)
		t.visible = true
		t.hovering = false
		t.menuOpen = false
		t.playing = false
		t.errored = false
	})
}

// Close cancels the deadline
func (t *Timer) Close() {
	t.sched.Cancel(taskHide)
}
