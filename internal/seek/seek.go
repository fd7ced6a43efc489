// Package seek turns clicks, drags and touch gestures on a progress track
// into seek commands.
package seek

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/justchokingaround/animeplay/internal/player"
	"github.com/justchokingaround/animeplay/internal/scheduler"
	"github.com/samber/lo"
)

const (
	taskDebounce = "seek.debounce"
	taskFrame    = "seek.frame"
)

const (
	DefaultClickDebounce = 50 * time.Millisecond
	DefaultFrameInterval = 16 * time.Millisecond
)

// Target is the playback surface seeks are applied to
type Target interface {
	State() player.PlaybackState
	SeekTo(sec float64) bool
	Play()
	Pause()
}

// Track is the progress track's horizontal extent in input coordinates
type Track struct {
	Left  float64
	Width float64
}

// Fraction maps x to a position in [0,1]. ok is false for an empty track.
func (t Track) Fraction(x float64) (float64, bool) {
	if t.Width <= 0 || !player.IsFinite(x) {
		return 0, false
	}
	return lo.Clamp(x-t.Left, 0, t.Width) / t.Width, true
}

// Momentum tunes touch seeking. Velocity is in track units per millisecond.
type Momentum struct {
	// MaxOffset caps the per-frame smoothing offset, in seconds
	MaxOffset float64
	// VelocityScale converts velocity into the per-frame offset
	VelocityScale float64
	// ReleaseScale extrapolates the release velocity into the final position
	ReleaseScale float64
}

// DefaultMomentum is the tuning the player shipped with
var DefaultMomentum = Momentum{MaxOffset: 0.2, VelocityScale: 0.1, ReleaseScale: 0.5}

// Options tunes a Controller
type Options struct {
	ClickDebounce time.Duration
	FrameInterval time.Duration
	Momentum      Momentum
	Logger        *slog.Logger
}

type touchGesture struct {
	active     bool
	wasPlaying bool
	x          float64
	lastX      float64
	lastAt     time.Time
	moveAt     time.Time
	velocity   float64
	preview    float64
}

// Controller owns the click debounce and the touch frame loop. Must be used
// from the UI goroutine.
type Controller struct {
	target Target
	sched  scheduler.Scheduler
	opts   Options
	logger *slog.Logger

	track    Track
	dragging bool
	touch    touchGesture
}

// New creates a controller seeking target
func New(target Target, sched scheduler.Scheduler, opts Options) *Controller {
	if opts.ClickDebounce <= 0 {
		opts.ClickDebounce = DefaultClickDebounce
	}
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = DefaultFrameInterval
	}
	if opts.Momentum == (Momentum{}) {
		opts.Momentum = DefaultMomentum
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Controller{
		target: target,
		sched:  sched,
		opts:   opts,
		logger: opts.Logger,
	}
}

// SetTrack updates the track geometry, e.g. after a resize
func (c *Controller) SetTrack(t Track) {
	c.track = t
}

// Track returns the current track geometry
func (c *Controller) Track() Track {
	return c.track
}

func (c *Controller) timeAt(x float64) (float64, bool) {
	f, ok := c.track.Fraction(x)
	if !ok {
		return 0, false
	}
	state := c.target.State()
	if !state.DurationKnown() {
		return 0, false
	}
	return f * state.Duration, true
}

// Click seeks to x after the debounce window. A later click inside the
// window replaces the earlier one.
func (c *Controller) Click(x float64) {
	f, ok := c.track.Fraction(x)
	if !ok {
		return
	}
	c.sched.Schedule(taskDebounce, c.opts.ClickDebounce, func() {
		state := c.target.State()
		if !state.DurationKnown() {
			return
		}
		c.target.SeekTo(f * state.Duration)
	})
}

// DragStart begins a pointer drag and seeks immediately
func (c *Controller) DragStart(x float64) {
	c.sched.Cancel(taskDebounce)
	c.dragging = true
	c.DragMove(x)
}

// DragMove seeks to x while a drag is active
func (c *Controller) DragMove(x float64) {
	if !c.dragging {
		return
	}
	if t, ok := c.timeAt(x); ok {
		c.target.SeekTo(t)
	}
}

// DragEnd finishes a pointer drag
func (c *Controller) DragEnd() {
	c.dragging = false
}

// Dragging reports whether a pointer drag is active
func (c *Controller) Dragging() bool {
	return c.dragging
}

// TouchStart begins a touch gesture, pausing playback until release
func (c *Controller) TouchStart(x float64) {
	c.sched.Cancel(taskDebounce)

	now := c.sched.Now()
	state := c.target.State()
	c.touch = touchGesture{
		active:     true,
		wasPlaying: state.Playing,
		lastX:      x,
		lastAt:     now,
		preview:    state.CurrentTime,
	}
	if state.Playing {
		c.target.Pause()
	}
	c.TouchMove(x)
}

// TouchMove records the pointer and velocity; the seek itself happens on
// the next frame.
func (c *Controller) TouchMove(x float64) {
	if !c.touch.active || !player.IsFinite(x) {
		return
	}

	now := c.sched.Now()
	dt := math.Max(1, float64(now.Sub(c.touch.lastAt))/float64(time.Millisecond))
	if v := (x - c.touch.lastX) / dt; player.IsFinite(v) {
		c.touch.velocity = v
	}
	c.touch.x = x
	c.touch.moveAt = now

	if !c.sched.Pending(taskFrame) {
		c.sched.Schedule(taskFrame, c.opts.FrameInterval, c.frame)
	}
}

func (c *Controller) frame() {
	if !c.touch.active {
		return
	}

	preview, ok := c.timeAt(c.touch.x)
	if !ok {
		return
	}
	duration := c.target.State().Duration
	v := c.touch.velocity
	if !player.IsFinite(preview) || !player.IsFinite(v) {
		c.logger.Debug("discarding non-finite touch frame", "preview", preview, "velocity", v)
		return
	}
	c.touch.preview = preview

	offset := math.Min(c.opts.Momentum.MaxOffset, math.Abs(v)*c.opts.Momentum.VelocityScale)
	if v <= 0 {
		offset = -offset
	}
	c.target.SeekTo(lo.Clamp(preview+offset, 0, duration))

	c.touch.lastX = c.touch.x
	c.touch.lastAt = c.touch.moveAt
}

// TouchEnd applies the velocity-extrapolated final position and resumes
// playback if it was playing when the gesture began.
func (c *Controller) TouchEnd() {
	c.sched.Cancel(taskFrame)
	if !c.touch.active {
		return
	}
	gesture := c.touch
	c.touch = touchGesture{}

	preview := gesture.preview
	if t, ok := c.timeAt(gesture.x); ok {
		preview = t
	}
	state := c.target.State()

	v := gesture.velocity
	if !player.IsFinite(v) {
		v = 0
	}
	v = lo.Clamp(v, -c.opts.Momentum.MaxOffset, c.opts.Momentum.MaxOffset)

	if state.DurationKnown() && player.IsFinite(preview) {
		final := lo.Clamp(preview+v*c.opts.Momentum.ReleaseScale, 0, state.Duration)
		c.target.SeekTo(final)
	}

	if gesture.wasPlaying {
		c.target.Play()
	}
}

// Touching reports whether a touch gesture is active
func (c *Controller) Touching() bool {
	return c.touch.active
}

// Preview is a hover tooltip over the track
type Preview struct {
	Time     float64
	Fraction float64
	Label    string
}

// Preview reports the time under x without seeking
func (c *Controller) Preview(x float64) (Preview, bool) {
	f, ok := c.track.Fraction(x)
	if !ok {
		return Preview{}, false
	}
	state := c.target.State()
	if !state.DurationKnown() {
		return Preview{}, false
	}
	t := f * state.Duration
	return Preview{Time: t, Fraction: f, Label: FormatTime(t)}, true
}

// Close cancels the pending click seek and any touch frame
func (c *Controller) Close() {
	c.sched.Cancel(taskDebounce)
	c.sched.Cancel(taskFrame)
	c.touch = touchGesture{}
	c.dragging = false
}

// FormatTime formats seconds as H:MM:SS or M:SS
func FormatTime(seconds float64) string {
	if !player.IsFinite(seconds) || seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	hours := total / 3600
	minutes := (total % 3600) / 60
	secs := total % 60

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%d:%02d", minutes, secs)
}
