package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/samber/lo"

	"github.com/justchokingaround/animeplay/internal/playback"
	"github.com/justchokingaround/animeplay/internal/player"
)

type menuItem struct {
	label    string
	value    string
	selected bool
	action   func() error
}

// menuItems lists the entries of the open menu
func (m Model) menuItems() []menuItem {
	q := m.ctrl.Quality()
	state := m.ctrl.Manager().State()

	switch q.Menu() {
	case playback.MenuSettings:
		return []menuItem{
			{label: "Quality", value: q.Selected().String(), action: func() error { q.OpenQuality(); return nil }},
			{label: "Speed", value: playback.SpeedLabel(state.Rate), action: func() error { q.OpenSpeed(); return nil }},
		}
	case playback.MenuQuality:
		return lo.Map(q.Tags(), func(tag player.QualityTag, _ int) menuItem {
			return menuItem{label: tag.String(), selected: tag == q.Selected(), action: func() error { return q.Select(tag) }}
		})
	case playback.MenuSpeed:
		return lo.Map(q.Speeds(), func(rate float64, _ int) menuItem {
			return menuItem{label: playback.SpeedLabel(rate), selected: rate == state.Rate, action: func() error { return q.SetSpeed(rate) }}
		})
	default:
		return nil
	}
}

// menuCursor returns the highlighted row. A freshly opened menu starts on
// its selected entry.
func (m Model) menuCursor(items []menuItem) int {
	if m.menu == m.ctrl.Quality().Menu() {
		return lo.Clamp(m.cursor, 0, max(0, len(items)-1))
	}
	_, idx, ok := lo.FindIndexOf(items, func(it menuItem) bool { return it.selected })
	if !ok {
		return 0
	}
	return idx
}

// handleMenuKey navigates the open menu. It reports whether the key was
// consumed.
func (m *Model) handleMenuKey(msg tea.KeyMsg) bool {
	q := m.ctrl.Quality()
	items := m.menuItems()
	m.cursor = m.menuCursor(items)
	m.menu = q.Menu()

	switch {
	case key.Matches(msg, m.keys.MenuUp):
		m.cursor = max(0, m.cursor-1)
	case key.Matches(msg, m.keys.MenuDown):
		m.cursor = min(len(items)-1, m.cursor+1)
	case key.Matches(msg, m.keys.MenuSelect):
		if len(items) == 0 {
			return true
		}
		if err := items[m.cursor].action(); err != nil {
			m.logger.Warn("menu action failed", "item", items[m.cursor].label, "error", err)
		}
	case key.Matches(msg, m.keys.Back):
		q.Back()
	default:
		return false
	}

	m.ctrl.Controls().PointerMove()
	return true
}
