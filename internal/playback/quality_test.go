package playback

import (
	"testing"

	"github.com/justchokingaround/animeplay/internal/player"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQualitySelectorAvailable(t *testing.T) {
	m, _, _ := loaded(t, 100)
	q := NewQualitySelector(m, nil)

	assert.Equal(t, []player.QualityTag{player.QualityAuto, player.Quality1080p, player.Quality720p}, q.Tags())
	assert.Equal(t, DefaultSpeeds, q.Speeds())
	assert.Equal(t, player.QualityAuto, q.Selected())
}

func TestQualitySelectorSelectClosesMenu(t *testing.T) {
	m, media, _ := loaded(t, 100)
	q := NewQualitySelector(m, nil)

	var transitions []bool
	q.OnMenuChange(func(open bool) { transitions = append(transitions, open) })

	q.ToggleSettings()
	q.OpenQuality()
	assert.Equal(t, MenuQuality, q.Menu())

	require.NoError(t, q.Select(player.Quality1080p))

	assert.False(t, q.MenuOpen())
	assert.Equal(t, player.Quality1080p, q.Selected())
	assert.Equal(t, "https://cdn.example/1080.mp4", media.LastSource())
	assert.Equal(t, []bool{true, false}, transitions)
}

func TestQualitySelectorRejectsMissingRendition(t *testing.T) {
	m, media, _ := loaded(t, 100)
	q := NewQualitySelector(m, nil)
	q.ToggleSettings()

	err := q.Select(player.Quality480p)

	assert.ErrorIs(t, err, ErrUnknownQuality)
	assert.False(t, q.MenuOpen())
	assert.Empty(t, media.Named("source"))
}

func TestQualitySelectorMenuNavigation(t *testing.T) {
	m, _, _ := loaded(t, 100)
	q := NewQualitySelector(m, nil)

	q.ToggleSettings()
	q.OpenSpeed()
	q.Back()
	assert.Equal(t, MenuSettings, q.Menu())
	q.Back()
	assert.Equal(t, MenuClosed, q.Menu())

	q.ToggleSettings()
	q.ToggleSettings()
	assert.False(t, q.MenuOpen())
}

func TestQualitySelectorSetSpeed(t *testing.T) {
	m, _, _ := loaded(t, 100)
	q := NewQualitySelector(m, []float64{0.5, 1, 2, -1})
	assert.Equal(t, []float64{0.5, 1, 2}, q.Speeds())

	q.ToggleSettings()
	q.OpenSpeed()
	require.NoError(t, q.SetSpeed(2))

	assert.Equal(t, 2.0, m.State().Rate)
	assert.False(t, q.MenuOpen())
}

func TestSpeedLabel(t *testing.T) {
	assert.Equal(t, "Normal", SpeedLabel(1))
	assert.Equal(t, "0.25x", SpeedLabel(0.25))
	assert.Equal(t, "2x", SpeedLabel(2))
}
