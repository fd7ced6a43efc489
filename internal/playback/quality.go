package playback

import (
	"fmt"
	"strconv"

	"github.com/justchokingaround/animeplay/internal/player"
	"github.com/samber/lo"
)

// Menu is the open state of the settings overlay
type Menu int

const (
	MenuClosed Menu = iota
	MenuSettings
	MenuQuality
	MenuSpeed
)

// DefaultSpeeds is the playback speed list offered in the settings menu
var DefaultSpeeds = []float64{0.25, 0.5, 0.75, 1, 1.25, 1.5, 1.75, 2}

// QualitySelector exposes the playable renditions and speed list and
// tracks the settings menu.
type QualitySelector struct {
	manager *Manager
	speeds  []float64
	menu    Menu

	onMenu func(open bool)
}

// NewQualitySelector creates a selector over m
func NewQualitySelector(m *Manager, speeds []float64) *QualitySelector {
	speeds = lo.Filter(speeds, func(s float64, _ int) bool {
		return player.IsFinite(s) && s > 0
	})
	if len(speeds) == 0 {
		speeds = DefaultSpeeds
	}
	return &QualitySelector{manager: m, speeds: speeds}
}

// OnMenuChange registers a callback fired when the menu opens or closes
func (q *QualitySelector) OnMenuChange(fn func(open bool)) {
	q.onMenu = fn
}

// Available returns the renditions that can be selected; auto is first
func (q *QualitySelector) Available() []player.Rendition {
	return q.manager.Source().Available()
}

// Tags returns the selectable quality tags
func (q *QualitySelector) Tags() []player.QualityTag {
	return lo.Map(q.Available(), func(r player.Rendition, _ int) player.QualityTag {
		return r.Quality
	})
}

// Selected returns the active quality
func (q *QualitySelector) Selected() player.QualityTag {
	return q.manager.State().Quality
}

// Speeds returns the offered playback rates
func (q *QualitySelector) Speeds() []float64 {
	return q.speeds
}

// Menu returns the open menu
func (q *QualitySelector) Menu() Menu {
	return q.menu
}

// MenuOpen reports whether any part of the settings menu is open
func (q *QualitySelector) MenuOpen() bool {
	return q.menu != MenuClosed
}

func (q *QualitySelector) setMenu(menu Menu) {
	wasOpen := q.MenuOpen()
	q.menu = menu
	if q.onMenu != nil && wasOpen != q.MenuOpen() {
		q.onMenu(q.MenuOpen())
	}
}

// ToggleSettings opens the settings menu or closes whatever is open
func (q *QualitySelector) ToggleSettings() {
	if q.MenuOpen() {
		q.setMenu(MenuClosed)
		return
	}
	q.setMenu(MenuSettings)
}

// OpenQuality shows the quality submenu
func (q *QualitySelector) OpenQuality() {
	q.setMenu(MenuQuality)
}

// OpenSpeed shows the speed submenu
func (q *QualitySelector) OpenSpeed() {
	q.setMenu(MenuSpeed)
}

// Back returns from a submenu to the settings menu, or closes it
func (q *QualitySelector) Back() {
	switch q.menu {
	case MenuQuality, MenuSpeed:
		q.setMenu(MenuSettings)
	default:
		q.setMenu(MenuClosed)
	}
}

// Close closes every menu
func (q *QualitySelector) Close() {
	q.setMenu(MenuClosed)
}

// Select switches to tag and closes the menus
func (q *QualitySelector) Select(tag player.QualityTag) error {
	defer q.Close()

	if !lo.Contains(q.Tags(), tag) {
		return fmt.Errorf("%w: %s not available", ErrUnknownQuality, tag)
	}
	return q.manager.SwitchQuality(tag)
}

// SetSpeed changes the playback rate and closes the menus
func (q *QualitySelector) SetSpeed(rate float64) error {
	defer q.Close()
	return q.manager.SetPlaybackRate(rate)
}

// SpeedLabel formats a rate the way the menu shows it
func SpeedLabel(rate float64) string {
	if rate == 1 {
		return "Normal"
	}
	return strconv.FormatFloat(rate, 'f', -1, 64) + "x"
}
