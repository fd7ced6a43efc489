package mpv

import (
	"math"
	"strings"

	"github.com/justchokingaround/animeplay/internal/player"
)

// defaultFailAfter is how many idle polls after a loadfile count as a
// failed load
const defaultFailAfter = 8

// snapshot is one poll of the mpv properties events are derived from.
// Unavailable numeric properties are NaN.
type snapshot struct {
	Path       string
	Idle       bool
	TimePos    float64
	Duration   float64
	Paused     bool
	Buffering  bool
	CacheEnd   float64
	Volume     float64
	Muted      bool
	Speed      float64
	EOF        bool
	Fullscreen bool
}

func emptySnapshot() snapshot {
	return snapshot{
		Idle:     true,
		TimePos:  math.NaN(),
		Duration: math.NaN(),
		CacheEnd: math.NaN(),
		Volume:   math.NaN(),
		Speed:    math.NaN(),
	}
}

// tracker turns successive snapshots into native media events. mpv has no
// loadeddata or error notifications over a polled connection, so both are
// inferred: data is loaded once the requested path reports a position, and
// a requested path that leaves mpv idle has failed.
type tracker struct {
	prev    snapshot
	hasPrev bool

	want      string
	started   bool
	loaded    bool
	failed    bool
	idlePolls int
	failAfter int
	duration  float64
}

func newTracker() *tracker {
	return &tracker{
		prev:      emptySnapshot(),
		failAfter: defaultFailAfter,
		duration:  math.NaN(),
	}
}

// expect starts tracking a freshly requested url. An empty url means the
// source was cleared.
func (t *tracker) expect(url string) {
	t.want = url
	t.started = false
	t.loaded = false
	t.failed = false
	t.idlePolls = 0
	t.duration = math.NaN()
}

// next diffs cur against the previous snapshot. fullscreen reports whether
// the window's fullscreen flag flipped.
func (t *tracker) next(cur snapshot) (events []player.Event, fullscreen bool) {
	prev, hadPrev := t.prev, t.hasPrev
	t.prev, t.hasPrev = cur, true

	emit := func(ev player.Event) { events = append(events, ev) }

	if !sameFloat(cur.Volume, prev.Volume) || cur.Muted != prev.Muted || !hadPrev {
		if player.IsFinite(cur.Volume) {
			emit(player.Event{Kind: player.EventVolumeChange, Volume: cur.Volume / 100, Muted: cur.Muted})
		}
	}
	if !sameFloat(cur.Speed, prev.Speed) && player.IsFinite(cur.Speed) && cur.Speed > 0 {
		emit(player.Event{Kind: player.EventRateChange, Rate: cur.Speed})
	}
	fullscreen = hadPrev && cur.Fullscreen != prev.Fullscreen

	if t.want == "" || t.failed {
		return events, fullscreen
	}

	justStarted := false
	if !t.started {
		switch {
		case cur.Path == t.want && !cur.Idle:
			t.started = true
			justStarted = true
		case cur.Idle:
			t.idlePolls++
			if t.idlePolls >= t.failAfter {
				emit(t.fail())
			}
			return events, fullscreen
		default:
			// still showing the previous file
			return events, fullscreen
		}
	}

	if cur.Idle {
		emit(t.fail())
		return events, fullscreen
	}

	if !sameFloat(cur.Duration, t.duration) && player.IsFinite(cur.Duration) {
		t.duration = cur.Duration
		emit(player.Event{Kind: player.EventDurationChange, Duration: cur.Duration})
	}

	justLoaded := false
	if !t.loaded && player.IsFinite(cur.TimePos) {
		t.loaded = true
		justLoaded = true
		emit(player.Event{Kind: player.EventLoadedData})
	}
	if !t.loaded {
		return events, fullscreen
	}

	if player.IsFinite(cur.TimePos) && (justLoaded || !sameFloat(cur.TimePos, prev.TimePos)) {
		emit(player.Event{Kind: player.EventTimeUpdate, Time: cur.TimePos})
	}
	if player.IsFinite(cur.CacheEnd) && (justLoaded || !sameFloat(cur.CacheEnd, prev.CacheEnd)) {
		emit(player.Event{Kind: player.EventProgress, BufferedEnd: cur.CacheEnd})
	}

	switch {
	case justLoaded || justStarted || cur.Paused != prev.Paused:
		if cur.Paused {
			emit(player.Event{Kind: player.EventPause})
		} else {
			emit(player.Event{Kind: player.EventPlay})
			if !cur.Buffering {
				emit(player.Event{Kind: player.EventPlaying})
			}
		}
	case cur.Buffering && !prev.Buffering:
		emit(player.Event{Kind: player.EventWaiting})
	case !cur.Buffering && prev.Buffering && !cur.Paused:
		emit(player.Event{Kind: player.EventPlaying})
	}

	if cur.EOF && !prev.EOF {
		emit(player.Event{Kind: player.EventEnded})
	}

	return events, fullscreen
}

// fail reports the requested url as unplayable. Remote urls are assumed to
// have failed in transit.
func (t *tracker) fail() player.Event {
	t.failed = true
	code := player.MediaErrSrcNotSupported
	if isRemote(t.want) {
		code = player.MediaErrNetwork
	}
	return player.Event{Kind: player.EventError, Code: code, Message: "mpv could not open " + t.want}
}

func isRemote(url string) bool {
	lower := strings.ToLower(url)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// sameFloat compares with NaN equal to NaN
func sameFloat(a, b float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.IsNaN(a) && math.IsNaN(b)
	}
	return a == b
}
