package tui

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap is the player's key bindings. Playback keys are forwarded to the
// controller by name; the bindings here drive matching for TUI-only keys
// and the help view.
type KeyMap struct {
	PlayPause  key.Binding
	Seek       key.Binding
	Jump       key.Binding
	Volume     key.Binding
	Mute       key.Binding
	Fullscreen key.Binding
	Settings   key.Binding
	Next       key.Binding
	Previous   key.Binding
	Copy       key.Binding
	Retry      key.Binding

	MenuUp     key.Binding
	MenuDown   key.Binding
	MenuSelect key.Binding
	Back       key.Binding

	Help key.Binding
	Quit key.Binding
}

// DefaultKeyMap returns default keybindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		PlayPause: key.NewBinding(
			key.WithKeys(" ", "k"),
			key.WithHelp("space/k", "play/pause"),
		),
		Seek: key.NewBinding(
			key.WithKeys("left", "right"),
			key.WithHelp("←/→", "seek"),
		),
		Jump: key.NewBinding(
			key.WithKeys("0", "1", "2", "3", "4", "5", "6", "7", "8", "9"),
			key.WithHelp("0-9", "jump to %"),
		),
		Volume: key.NewBinding(
			key.WithKeys("up", "down"),
			key.WithHelp("↑/↓", "volume"),
		),
		Mute: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "mute"),
		),
		Fullscreen: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "fullscreen"),
		),
		Settings: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "settings"),
		),
		Next: key.NewBinding(
			key.WithKeys("N"),
			key.WithHelp("N", "next episode"),
		),
		Previous: key.NewBinding(
			key.WithKeys("P"),
			key.WithHelp("P", "previous episode"),
		),
		Copy: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "copy stream url"),
		),
		Retry: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "retry"),
		),
		MenuUp: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		MenuDown: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		MenuSelect: key.NewBinding(
			key.WithKeys("enter", "l", "right"),
			key.WithHelp("enter", "select"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "h", "left"),
			key.WithHelp("esc", "back"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.PlayPause, k.Seek, k.Volume, k.Fullscreen, k.Settings, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.PlayPause, k.Seek, k.Jump, k.Volume, k.Mute},
		{k.Fullscreen, k.Settings, k.Next, k.Previous},
		{k.Copy, k.Retry, k.Help, k.Quit},
	}
}

// menuHelp is shown while the settings menu is open
func (k KeyMap) menuHelp() []key.Binding {
	return []key.Binding{k.MenuUp, k.MenuDown, k.MenuSelect, k.Back}
}
