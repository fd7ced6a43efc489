package player

import (
	"context"
	"errors"
	"math"

	"github.com/samber/lo"
)

// ErrNoSource is returned when no rendition URL can be resolved
var ErrNoSource = errors.New("no playable source")

// MediaHandle is the native playback primitive. Exactly one owner drives it;
// everything else goes through that owner's operation contract.
type MediaHandle interface {
	// Play and Pause are requests; confirmation arrives as EventPlay/EventPause.
	Play(ctx context.Context) error
	Pause(ctx context.Context) error

	Seek(seconds float64) error
	SetVolume(volume float64) error
	SetMuted(muted bool) error
	SetPlaybackRate(rate float64) error

	// SetSource replaces and reloads the source. An empty URL clears it.
	SetSource(url string) error

	// Events delivers native media events in emission order
	Events() <-chan Event
}

// PlaybackState is the derived view of the media handle.
// Duration is NaN until the source reports it.
type PlaybackState struct {
	CurrentTime float64    `json:"current_time"`
	Duration    float64    `json:"duration"`
	Playing     bool       `json:"playing"`
	Volume      float64    `json:"volume"`
	Muted       bool       `json:"muted"`
	BufferedPct float64    `json:"buffered_pct"`
	Buffering   bool       `json:"buffering"`
	Rate        float64    `json:"rate"`
	Quality     QualityTag `json:"quality"`
	LastError   ErrorKind  `json:"last_error"`
	Loading     bool       `json:"loading"`
}

// NewPlaybackState returns the state of a freshly selected episode
func NewPlaybackState() PlaybackState {
	return PlaybackState{
		Duration: math.NaN(),
		Volume:   1,
		Rate:     1,
		Quality:  QualityAuto,
		Loading:  true,
	}
}

// DurationKnown reports whether Duration is a usable positive number
func (s PlaybackState) DurationKnown() bool {
	return IsFinite(s.Duration) && s.Duration > 0
}

// ProgressPct returns CurrentTime as a percentage of Duration, or 0
func (s PlaybackState) ProgressPct() float64 {
	if !s.DurationKnown() {
		return 0
	}
	return lo.Clamp(s.CurrentTime/s.Duration*100, 0, 100)
}

// Errored reports whether a playback error is being shown
func (s PlaybackState) Errored() bool {
	return s.LastError != ErrNone
}

// IsFinite reports whether f is neither NaN nor infinite
func IsFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
