package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/justchokingaround/animeplay/internal/playback"
	"github.com/justchokingaround/animeplay/internal/player"
	"github.com/justchokingaround/animeplay/internal/seek"
	"github.com/justchokingaround/animeplay/internal/tui/styles"
	"github.com/justchokingaround/animeplay/internal/tui/utils"
)

// View implements tea.Model. Rows above the track must stay in sync with
// trackRow.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	state := m.ctrl.Manager().State()
	var lines []string

	if !m.ctrl.Fullscreen().Fullscreen() {
		lines = append(lines, m.titleLine(), m.episodeLine(), "")
	}
	lines = append(lines, m.statusLine(state))

	if m.ctrl.Controls().Visible() {
		lines = append(lines, m.trackLine(state), m.infoLine(state), m.tooltipLine(state))
	} else {
		lines = append(lines, "", "", "")
	}

	if m.ctrl.Quality().MenuOpen() {
		lines = append(lines, "")
		lines = append(lines, strings.Split(m.menuView(), "\n")...)
	}

	if state.Errored() {
		lines = append(lines, "")
		for _, l := range utils.Wrap(state.LastError.Message(), m.trackWidth()) {
			lines = append(lines, styles.ErrorStyle.Render(l))
		}
		lines = append(lines, styles.MutedStyle.Render("press r to retry"))
	}

	for _, notice := range []string{m.ctrl.Fullscreen().Message(), m.ctrl.Notice()} {
		if notice != "" {
			lines = append(lines, "", styles.NoticeStyle.Render(notice))
		}
	}

	lines = append(lines, "", m.helpView())

	pad := strings.Repeat(" ", padLeft)
	for i, l := range lines {
		for j, sub := range strings.Split(l, "\n") {
			if j == 0 {
				lines[i] = pad + sub
				continue
			}
			lines[i] += "\n" + pad + sub
		}
	}
	return strings.Join(lines, "\n")
}

func (m Model) titleLine() string {
	title := "animeplay"
	if p := m.ctrl.Playlist(); p != nil && p.Anime.Title != "" {
		title = p.Anime.Title
	}
	// TitleStyle adds one cell of padding on each side
	return styles.TitleStyle.Render(utils.Truncate(title, m.trackWidth()-2))
}

func (m Model) episodeLine() string {
	p := m.ctrl.Playlist()
	if p == nil {
		return styles.MutedStyle.Render("no episode loaded")
	}
	ep := p.Current()

	nav := m.ctrl.Navigation()
	var hints []string
	if nav.HasPrevious {
		hints = append(hints, "◀ P")
	}
	if nav.HasNext {
		hints = append(hints, "N ▶")
	}
	hint := strings.Join(hints, "  ")

	label := fmt.Sprintf("Episode %d", ep.EpisodeNumber)
	if ep.Title != "" {
		label += " · " + ep.Title
	}
	room := m.trackWidth() - runewidth.StringWidth(hint) - 2
	label = utils.Truncate(label, max(0, room))

	if hint == "" {
		return styles.SubtitleStyle.Render(label)
	}
	return styles.SubtitleStyle.Render(label) + "  " + styles.MutedStyle.Render(hint)
}

func (m Model) statusLine(state player.PlaybackState) string {
	switch {
	case state.Errored():
		return styles.ErrorStyle.Render("✖ Playback error")
	case state.Loading:
		return m.spinner.View() + styles.MetaStyle.Render(" Loading")
	case state.Buffering:
		return m.spinner.View() + styles.MetaStyle.Render(" Buffering")
	case state.Playing:
		return styles.StatusStyle.Render("▶ Playing")
	default:
		return styles.PausedStyle.Render("❚❚ Paused")
	}
}

// trackLine renders played, buffered and remaining segments across the
// full track width
func (m Model) trackLine(state player.PlaybackState) string {
	w := m.trackWidth()
	if !state.DurationKnown() {
		return styles.RemainStyle.Render(strings.Repeat("─", w))
	}

	knob := min(w-1, int(math.Round(state.ProgressPct()/100*float64(w-1))))
	buffered := min(w, int(math.Round(state.BufferedPct/100*float64(w))))
	ahead := max(0, buffered-knob-1)
	rest := w - knob - 1 - ahead

	return styles.PlayedStyle.Render(strings.Repeat("━", knob)) +
		styles.KnobStyle.Render("●") +
		styles.BufferedStyle.Render(strings.Repeat("─", ahead)) +
		styles.RemainStyle.Render(strings.Repeat("─", rest))
}

func (m Model) infoLine(state player.PlaybackState) string {
	duration := "--:--"
	if state.DurationKnown() {
		duration = seek.FormatTime(state.Duration)
	}
	clock := styles.MetaStyle.Render(seek.FormatTime(state.CurrentTime) + " / " + duration)

	volume := fmt.Sprintf("vol %d%%", int(math.Round(state.Volume*100)))
	if state.Muted {
		volume = "muted"
	}

	badges := []string{
		styles.BadgeStyle.Render(volume),
		styles.BadgeStyle.Render(playback.SpeedLabel(state.Rate)),
		styles.BadgeStyle.Render(state.Quality.String()),
	}
	if m.ctrl.Fullscreen().Fullscreen() {
		badges = append(badges, styles.ActiveBadgeStyle.Render("fullscreen"))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, append([]string{clock, "  "}, badges...)...)
}

// tooltipLine shows the time under the hovered track column, centered on
// the pointer and kept inside the track
func (m Model) tooltipLine(state player.PlaybackState) string {
	if !m.hovering {
		return ""
	}
	preview, ok := m.ctrl.Seek().Preview(float64(m.hoverX))
	if !ok {
		return ""
	}
	label := " " + preview.Label + " "
	width := runewidth.StringWidth(label)
	col := m.hoverX - padLeft - width/2
	col = max(0, min(col, m.trackWidth()-width))
	return strings.Repeat(" ", col) + styles.TooltipStyle.Render(label)
}

func (m Model) menuView() string {
	items := m.menuItems()
	cursor := m.menuCursor(items)

	title := "Settings"
	switch m.ctrl.Quality().Menu() {
	case playback.MenuQuality:
		title = "Quality"
	case playback.MenuSpeed:
		title = "Playback speed"
	}

	rows := []string{styles.SubtitleStyle.Render(title)}
	for i, it := range items {
		text := it.label
		if it.value != "" {
			text = fmt.Sprintf("%-8s %s", it.label, it.value)
		}
		if it.selected {
			text += " ✓"
		}
		if i == cursor {
			rows = append(rows, styles.MenuSelectedStyle.Render("› "+text))
			continue
		}
		rows = append(rows, styles.MenuItemStyle.Render("  "+text))
	}
	return styles.MenuStyle.Render(strings.Join(rows, "\n"))
}

func (m Model) helpView() string {
	if m.ctrl.Quality().MenuOpen() && !m.help.ShowAll {
		return m.help.ShortHelpView(m.keys.menuHelp())
	}
	return m.help.View(m.keys)
}
