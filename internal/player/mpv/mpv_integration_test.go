//go:build integration

package mpv

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/justchokingaround/animeplay/internal/player"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lavfi test pattern, no network needed
const testURL = "av://lavfi:testsrc=duration=10:size=1280x720:rate=30"

func checkMPVAvailable(t *testing.T) {
	if _, err := exec.LookPath("mpv"); err != nil {
		t.Skip("mpv not available, skipping integration tests")
	}
}

func startPlayer(t *testing.T) *Player {
	t.Helper()
	checkMPVAvailable(t)

	p, err := New(Options{PollInterval: 50 * time.Millisecond, ExtraArgs: []string{"--vo=null", "--ao=null"}})
	require.NoError(t, err)
	require.NoError(t, p.Start(context.Background()))
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func waitFor(t *testing.T, p *Player, kind player.EventKind) player.Event {
	t.Helper()
	timeout := time.After(10 * time.Second)
	for {
		select {
		case ev, ok := <-p.Events():
			require.True(t, ok, "events closed before %s", kind)
			if ev.Kind == kind {
				return ev
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s", kind)
		}
	}
}

func TestPlayerLoadsAndPlays(t *testing.T) {
	p := startPlayer(t)

	require.NoError(t, p.SetSource(testURL))
	waitFor(t, p, player.EventLoadedData)
	waitFor(t, p, player.EventPlaying)

	require.NoError(t, p.Pause(context.Background()))
	waitFor(t, p, player.EventPause)

	require.NoError(t, p.Seek(5))
	ev := waitFor(t, p, player.EventTimeUpdate)
	assert.InDelta(t, 5, ev.Time, 1)
}

func TestPlayerVolume(t *testing.T) {
	p := startPlayer(t)

	require.NoError(t, p.SetVolume(0.4))
	ev := waitFor(t, p, player.EventVolumeChange)
	for ev.Volume != 0.4 {
		ev = waitFor(t, p, player.EventVolumeChange)
	}
	assert.False(t, ev.Muted)
}

func TestPlayerCloseEndsEvents(t *testing.T) {
	p := startPlayer(t)
	require.NoError(t, p.Close())

	select {
	case <-p.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("done not closed")
	}
	assert.ErrorIs(t, p.Seek(1), ErrNotRunning)
}
