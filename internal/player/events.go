package player

import (
	"math"

	"github.com/samber/lo"
)

// EventKind enumerates native media events
type EventKind int

const (
	EventTimeUpdate EventKind = iota
	EventDurationChange
	EventPlay
	EventPause
	EventVolumeChange
	EventRateChange
	EventProgress
	EventWaiting
	EventPlaying
	EventLoadedData
	EventEnded
	EventError
)

var eventNames = map[EventKind]string{
	EventTimeUpdate:     "timeupdate",
	EventDurationChange: "durationchange",
	EventPlay:           "play",
	EventPause:          "pause",
	EventVolumeChange:   "volumechange",
	EventRateChange:     "ratechange",
	EventProgress:       "progress",
	EventWaiting:        "waiting",
	EventPlaying:        "playing",
	EventLoadedData:     "loadeddata",
	EventEnded:          "ended",
	EventError:          "error",
}

// String returns the native event name
func (k EventKind) String() string {
	if name, ok := eventNames[k]; ok {
		return name
	}
	return "unknown"
}

// MediaErrorCode mirrors the native media error codes
type MediaErrorCode int

const (
	MediaErrAborted         MediaErrorCode = 1
	MediaErrNetwork         MediaErrorCode = 2
	MediaErrDecode          MediaErrorCode = 3
	MediaErrSrcNotSupported MediaErrorCode = 4
)

// Event is one native media event. Only the fields relevant to Kind are set.
type Event struct {
	Kind        EventKind
	Time        float64
	Duration    float64
	Volume      float64
	Muted       bool
	Rate        float64
	BufferedEnd float64
	Code        MediaErrorCode
	Message     string
}

// Apply folds ev into s. It is the single place where native events change
// playback state; side effects belong to the caller.
func Apply(s PlaybackState, ev Event) PlaybackState {
	switch ev.Kind {
	case EventTimeUpdate:
		if IsFinite(ev.Time) && ev.Time >= 0 {
			s.CurrentTime = ev.Time
		}
	case EventDurationChange:
		if math.IsNaN(ev.Duration) || ev.Duration >= 0 {
			s.Duration = ev.Duration
		}
	case EventPlay:
		s.Playing = true
	case EventPause, EventEnded:
		s.Playing = false
	case EventVolumeChange:
		if IsFinite(ev.Volume) {
			s.Volume = lo.Clamp(ev.Volume, 0, 1)
		}
		s.Muted = ev.Muted
	case EventRateChange:
		if IsFinite(ev.Rate) && ev.Rate > 0 {
			s.Rate = ev.Rate
		}
	case EventProgress:
		if s.DurationKnown() && IsFinite(ev.BufferedEnd) {
			s.BufferedPct = lo.Clamp(ev.BufferedEnd/s.Duration*100, 0, 100)
		}
	case EventWaiting:
		s.Buffering = true
	case EventPlaying:
		s.Buffering = false
	case EventLoadedData:
		s.Loading = false
	case EventError:
		s.LastError = ErrorKindFromCode(ev.Code)
		s.Loading = false
		s.Buffering = false
	}
	return s
}
