// Package playertest provides a scriptable MediaHandle for tests.
package playertest

import (
	"context"
	"fmt"

	"github.com/justchokingaround/animeplay/internal/player"
)

// Call is one recorded command
type Call struct {
	Method string
	Arg    any
}

func (c Call) String() string {
	if c.Arg == nil {
		return c.Method
	}
	return fmt.Sprintf("%s(%v)", c.Method, c.Arg)
}

// Media records every command it receives. Errors can be injected per
// method; events are pushed by the test through Emit.
type Media struct {
	Calls []Call

	PlayErr   error
	PauseErr  error
	SeekErr   error
	SourceErr error

	// OnPlay and OnPause run after a successful request, typically to feed
	// the confirming native event back to the owner
	OnPlay  func()
	OnPause func()

	events chan player.Event
}

// NewMedia creates a fake handle with a buffered event channel
func NewMedia() *Media {
	return &Media{events: make(chan player.Event, 64)}
}

func (m *Media) record(method string, arg any) {
	m.Calls = append(m.Calls, Call{Method: method, Arg: arg})
}

func (m *Media) Play(ctx context.Context) error {
	m.record("play", nil)
	if m.PlayErr != nil {
		return m.PlayErr
	}
	if m.OnPlay != nil {
		m.OnPlay()
	}
	return nil
}

func (m *Media) Pause(ctx context.Context) error {
	m.record("pause", nil)
	if m.PauseErr != nil {
		return m.PauseErr
	}
	if m.OnPause != nil {
		m.OnPause()
	}
	return nil
}

func (m *Media) Seek(seconds float64) error {
	m.record("seek", seconds)
	return m.SeekErr
}

func (m *Media) SetVolume(volume float64) error {
	m.record("volume", volume)
	return nil
}

func (m *Media) SetMuted(muted bool) error {
	m.record("muted", muted)
	return nil
}

func (m *Media) SetPlaybackRate(rate float64) error {
	m.record("rate", rate)
	return nil
}

func (m *Media) SetSource(url string) error {
	m.record("source", url)
	return m.SourceErr
}

func (m *Media) Events() <-chan player.Event {
	return m.events
}

// Emit queues an event on the channel returned by Events
func (m *Media) Emit(ev player.Event) {
	m.events <- ev
}

// Named returns the recorded calls for one method
func (m *Media) Named(method string) []Call {
	var out []Call
	for _, c := range m.Calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

// Seeks returns the arguments of every seek call
func (m *Media) Seeks() []float64 {
	var out []float64
	for _, c := range m.Named("seek") {
		out = append(out, c.Arg.(float64))
	}
	return out
}

// LastSource returns the most recent source URL, or "" if none was set
func (m *Media) LastSource() string {
	calls := m.Named("source")
	if len(calls) == 0 {
		return ""
	}
	return calls[len(calls)-1].Arg.(string)
}

// Reset forgets recorded calls
func (m *Media) Reset() {
	m.Calls = nil
}

// Source builds a MediaSource with the given renditions
func Source(id string, renditions map[player.QualityTag]string) player.MediaSource {
	src := player.MediaSource{ID: id, Title: "Episode " + id, EpisodeNumber: 1}
	for _, tag := range player.QualityTags {
		if u, ok := renditions[tag]; ok {
			src.Renditions = append(src.Renditions, player.Rendition{Quality: tag, URL: u})
		}
	}
	return src
}
