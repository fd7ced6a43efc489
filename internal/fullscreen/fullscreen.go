// Package fullscreen reconciles fullscreen requests with device orientation.
package fullscreen

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/justchokingaround/animeplay/internal/player"
	"github.com/justchokingaround/animeplay/internal/scheduler"
)

// ErrFullscreenDenied is returned by a Display that refuses fullscreen
var ErrFullscreenDenied = errors.New("fullscreen denied")

const (
	taskBlocked = "fullscreen.blocked"
	taskMessage = "fullscreen.message"
)

// DefaultMessageDuration is how long blocked and denied messages stay up
const DefaultMessageDuration = 3 * time.Second

const (
	MessageRotate = "Please rotate your device to landscape mode for fullscreen view"
	MessageDenied = "Unable to enter fullscreen mode"
)

// State is the fullscreen state machine
type State int

const (
	Windowed State = iota
	FullscreenLandscape
	FullscreenBlockedPortrait
)

func (s State) String() string {
	switch s {
	case Windowed:
		return "windowed"
	case FullscreenLandscape:
		return "fullscreen"
	case FullscreenBlockedPortrait:
		return "blocked_portrait"
	default:
		return "unknown"
	}
}

// Orientation of the device
type Orientation int

const (
	OrientationUnknown Orientation = iota
	Portrait
	Landscape
)

// Display enters and leaves fullscreen. Both calls may block.
type Display interface {
	RequestFullscreen(ctx context.Context) error
	ExitFullscreen(ctx context.Context) error
}

// OrientationAPI is the structured orientation signal. Type returns values
// like "landscape-primary" or "portrait-secondary".
type OrientationAPI interface {
	Type() string
}

// LegacyOrientation is the older angle-based signal, in degrees
type LegacyOrientation interface {
	Angle() int
}

// ControlsNotifier is told about every fullscreen transition
type ControlsNotifier interface {
	FullscreenChanged(fullscreen bool)
}

// Options configures a Coordinator
type Options struct {
	Mobile          bool
	Orientation     OrientationAPI
	Legacy          LegacyOrientation
	MessageDuration time.Duration
	Controls        ControlsNotifier
	// Chrome lets the host hide its own header and footer while fullscreen
	Chrome func(fullscreen bool)
	Logger *slog.Logger
}

// Coordinator owns FullscreenState. Must be used from the UI goroutine.
type Coordinator struct {
	display Display
	sched   scheduler.Scheduler
	exec    scheduler.Executor
	opts    Options
	logger  *slog.Logger

	state     State
	message   string
	lastError player.ErrorKind
	requested bool

	onChange func(State)
}

// New creates a coordinator in the Windowed state
func New(display Display, sched scheduler.Scheduler, exec scheduler.Executor, opts Options) *Coordinator {
	if opts.MessageDuration <= 0 {
		opts.MessageDuration = DefaultMessageDuration
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	c := &Coordinator{
		display: display,
		sched:   sched,
		exec:    exec,
		opts:    opts,
		logger:  opts.Logger,
	}
	if opts.Mobile && c.Degraded() {
		c.logger.Debug("no orientation signal, treating device as desktop")
	}
	return c
}

// OnChange registers a callback for state and message changes
func (c *Coordinator) OnChange(fn func(State)) {
	c.onChange = fn
}

func (c *Coordinator) changed() {
	if c.onChange != nil {
		c.onChange(c.state)
	}
}

// State returns the fullscreen state
func (c *Coordinator) State() State {
	return c.state
}

// Fullscreen reports whether the display is fullscreen
func (c *Coordinator) Fullscreen() bool {
	return c.state == FullscreenLandscape
}

// Message returns the transient user message, if any
func (c *Coordinator) Message() string {
	return c.message
}

// LastError is FullscreenDenied while the denied message is shown, or
// OrientationUnsupported when there is no orientation signal on mobile
func (c *Coordinator) LastError() player.ErrorKind {
	if c.lastError != player.ErrNone {
		return c.lastError
	}
	if c.opts.Mobile && c.Degraded() {
		return player.ErrOrientationUnsupported
	}
	return player.ErrNone
}

// Degraded reports whether no orientation signal is available
func (c *Coordinator) Degraded() bool {
	return c.opts.Orientation == nil && c.opts.Legacy == nil
}

// Orientation reads the current orientation from whichever signal exists
func (c *Coordinator) Orientation() Orientation {
	if c.opts.Orientation != nil {
		t := strings.ToLower(c.opts.Orientation.Type())
		switch {
		case strings.Contains(t, "landscape"):
			return Landscape
		case strings.Contains(t, "portrait"):
			return Portrait
		}
	}
	if c.opts.Legacy != nil {
		switch c.opts.Legacy.Angle() {
		case 90, -90, 270:
			return Landscape
		default:
			return Portrait
		}
	}
	return OrientationUnknown
}

// Toggle enters fullscreen when windowed and exits when fullscreen
func (c *Coordinator) Toggle() {
	if c.state == FullscreenLandscape {
		c.Exit()
		return
	}
	c.Enter()
}

// Enter is an explicit user request. On mobile in portrait it shows the
// rotate message instead, reverting to Windowed after the message expires.
func (c *Coordinator) Enter() {
	if c.state == FullscreenLandscape || c.requested {
		return
	}

	if c.opts.Mobile && c.Orientation() == Portrait {
		c.state = FullscreenBlockedPortrait
		c.message = MessageRotate
		c.sched.Cancel(taskMessage)
		c.sched.Schedule(taskBlocked, c.opts.MessageDuration, func() {
			if c.state != FullscreenBlockedPortrait {
				return
			}
			c.state = Windowed
			c.message = ""
			c.changed()
		})
		c.changed()
		return
	}

	c.request()
}

func (c *Coordinator) request() {
	c.requested = true
	c.exec.Go(func(ctx context.Context) error {
		return c.display.RequestFullscreen(ctx)
	}, func(err error) {
		c.requested = false
		if err != nil {
			c.logger.Warn("fullscreen request failed", "error", err)
			c.deny()
			return
		}
		c.Changed(true)
	})
}

func (c *Coordinator) deny() {
	if c.state == FullscreenBlockedPortrait {
		c.sched.Cancel(taskBlocked)
		c.state = Windowed
	}
	c.message = MessageDenied
	c.lastError = player.ErrFullscreenDenied
	c.sched.Schedule(taskMessage, c.opts.MessageDuration, func() {
		c.message = ""
		c.lastError = player.ErrNone
		c.changed()
	})
	c.changed()
}

// Exit is an explicit request to leave fullscreen
func (c *Coordinator) Exit() {
	switch c.state {
	case FullscreenBlockedPortrait:
		c.sched.Cancel(taskBlocked)
		c.state = Windowed
		c.message = ""
		c.changed()
	case FullscreenLandscape:
		c.exit()
	}
}

func (c *Coordinator) exit() {
	c.exec.Go(func(ctx context.Context) error {
		return c.display.ExitFullscreen(ctx)
	}, func(err error) {
		if err != nil {
			c.logger.Debug("fullscreen exit failed", "error", err)
			return
		}
		c.Changed(false)
	})
}

// Changed is the platform's fullscreen change notification
func (c *Coordinator) Changed(fullscreen bool) {
	switch {
	case fullscreen && c.state != FullscreenLandscape:
		c.sched.Cancel(taskBlocked)
		c.state = FullscreenLandscape
		c.message = ""
	case !fullscreen && c.state == FullscreenLandscape:
		c.state = Windowed
	default:
		return
	}

	c.logger.Debug("fullscreen changed", "state", c.state)
	if c.opts.Chrome != nil {
		c.opts.Chrome(fullscreen)
	}
	if c.opts.Controls != nil {
		c.opts.Controls.FullscreenChanged(fullscreen)
	}
	c.changed()
}

// OrientationChanged is the platform's orientation change notification.
// Only mobile devices with an orientation signal auto-toggle.
func (c *Coordinator) OrientationChanged() {
	if !c.opts.Mobile {
		return
	}
	switch c.Orientation() {
	case Landscape:
		if c.state != FullscreenLandscape && !c.requested {
			c.request()
		}
	case Portrait:
		if c.state == FullscreenLandscape {
			c.exit()
		}
	}
}

// Reset clears transient state for a new episode, leaving fullscreen if
// the display is in it
func (c *Coordinator) Reset() {
	c.sched.Cancel(taskBlocked)
	c.sched.Cancel(taskMessage)
	c.message = ""
	c.lastError = player.ErrNone
	switch c.state {
	case FullscreenLandscape:
		c.exit()
	case FullscreenBlockedPortrait:
		c.state = Windowed
		c.changed()
	}
}

// Close cancels timers and, on mobile in portrait, leaves fullscreen.
// Failures are ignored.
func (c *Coordinator) Close() {
	c.sched.Cancel(taskBlocked)
	c.sched.Cancel(taskMessage)
	c.message = ""

	if c.state == FullscreenLandscape && c.opts.Mobile && c.Orientation() == Portrait {
		c.exec.Go(func(ctx context.Context) error {
			return c.display.ExitFullscreen(ctx)
		}, func(err error) {
			if err != nil {
				c.logger.Debug("fullscreen exit on close failed", "error", err)
			}
		})
	}
}
