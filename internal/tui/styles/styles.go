package styles

import "github.com/charmbracelet/lipgloss"

// Oxocarbon palette
var (
	Base00 = lipgloss.Color("#262626")
	Base01 = lipgloss.Color("#393939")
	Base02 = lipgloss.Color("#525252")
	Base03 = lipgloss.Color("#767676")
	Base04 = lipgloss.Color("#dde1e6")
	Base05 = lipgloss.Color("#f2f4f8")
	White  = lipgloss.Color("#ffffff")

	Teal   = lipgloss.Color("#3ddbd9")
	Blue   = lipgloss.Color("#78a9ff")
	Pink   = lipgloss.Color("#ee5396")
	Red    = lipgloss.Color("#ff5252")
	Cyan   = lipgloss.Color("#33b1ff")
	Green  = lipgloss.Color("#42be65")
	Purple = lipgloss.Color("#be95ff") // main accent
	Mauve  = lipgloss.Color("#d1aaff")
)

var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(White).
			Background(Purple).
			Padding(0, 1).
			Bold(true)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(Mauve).
			Bold(true)

	MetaStyle = lipgloss.NewStyle().
			Foreground(Base04)

	MutedStyle = lipgloss.NewStyle().
			Foreground(Base03)

	StatusStyle = lipgloss.NewStyle().
			Foreground(Green).
			Bold(true)

	PausedStyle = lipgloss.NewStyle().
			Foreground(Pink).
			Bold(true)

	SpinnerStyle = lipgloss.NewStyle().
			Foreground(Purple)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(Red).
			Bold(true)

	// Track segments
	PlayedStyle   = lipgloss.NewStyle().Foreground(Purple)
	KnobStyle     = lipgloss.NewStyle().Foreground(White).Bold(true)
	BufferedStyle = lipgloss.NewStyle().Foreground(Base03)
	RemainStyle   = lipgloss.NewStyle().Foreground(Base01)

	TooltipStyle = lipgloss.NewStyle().
			Foreground(Base05).
			Background(Base01)

	BadgeStyle = lipgloss.NewStyle().
			Foreground(Base05).
			Background(Base01).
			Padding(0, 1).
			MarginRight(1)

	ActiveBadgeStyle = BadgeStyle.
				Foreground(Purple)

	MenuStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Purple).
			Padding(0, 1)

	MenuItemStyle = lipgloss.NewStyle().
			PaddingLeft(2).
			Foreground(Base05)

	MenuSelectedStyle = lipgloss.NewStyle().
				PaddingLeft(2).
				Foreground(Purple).
				Bold(true)

	NoticeStyle = lipgloss.NewStyle().
			Foreground(Base05).
			Background(Base01).
			Padding(0, 1)

	HelpStyle = lipgloss.NewStyle().
			Foreground(Base03).
			Italic(true)
)
