// Package tui renders a playback session in the terminal and turns keys and
// mouse input into controller calls.
package tui

import (
	"log/slog"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/justchokingaround/animeplay/internal/controller"
	"github.com/justchokingaround/animeplay/internal/playback"
	"github.com/justchokingaround/animeplay/internal/seek"
	"github.com/justchokingaround/animeplay/internal/tui/styles"
)

const (
	padLeft      = 2
	defaultWidth = 80
	minTrack     = 10
)

// TaskSource yields work posted for the UI goroutine, e.g. a
// scheduler.Loop. ok is false once the source has stopped.
type TaskSource interface {
	Next() (fn func(), ok bool)
}

// Options configures the model
type Options struct {
	// Tasks is drained on the bubbletea goroutine; timers and async results
	// for the controller are posted here
	Tasks TaskSource
	// MediaDone closes when the media backend exits, e.g. the mpv window
	// was closed
	MediaDone <-chan struct{}
	Logger    *slog.Logger
}

type runMsg struct{ fn func() }

type tasksStoppedMsg struct{}

type mediaExitedMsg struct{}

// Model is the bubbletea model for one playback session. All controller
// calls happen inside Update.
type Model struct {
	ctrl   *controller.Controller
	opts   Options
	logger *slog.Logger

	keys    KeyMap
	help    help.Model
	spinner spinner.Model

	width  int
	height int

	// pointer
	hoverX       int
	hovering     bool
	overControls bool
	pressed      bool
	pressX       int

	// settings menu
	menu   playback.Menu
	cursor int

	quitting bool
}

// New creates the model around an opened controller
func New(ctrl *controller.Controller, opts Options) Model {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.SpinnerStyle

	h := help.New()
	h.Styles.ShortKey = styles.MetaStyle
	h.Styles.ShortDesc = styles.MutedStyle
	h.Styles.FullKey = styles.MetaStyle
	h.Styles.FullDesc = styles.MutedStyle

	return Model{
		ctrl:    ctrl,
		opts:    opts,
		logger:  opts.Logger,
		keys:    DefaultKeyMap(),
		help:    h,
		spinner: s,
		width:   defaultWidth,
	}
}

// Init starts the spinner and the task and media subscriptions
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForTask(m.opts.Tasks), waitForExit(m.opts.MediaDone))
}

func waitForTask(src TaskSource) tea.Cmd {
	if src == nil {
		return nil
	}
	return func() tea.Msg {
		fn, ok := src.Next()
		if !ok {
			return tasksStoppedMsg{}
		}
		return runMsg{fn: fn}
	}
}

func waitForExit(done <-chan struct{}) tea.Cmd {
	if done == nil {
		return nil
	}
	return func() tea.Msg {
		<-done
		return mediaExitedMsg{}
	}
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width - 2*padLeft
		m.ctrl.Seek().SetTrack(m.track())
		return m, nil

	case runMsg:
		m.run(msg.fn)
		return m, waitForTask(m.opts.Tasks)

	case tasksStoppedMsg:
		return m, nil

	case mediaExitedMsg:
		m.logger.Info("media backend exited")
		return m.quit()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		m.handleMouse(msg)
		return m, nil
	}

	return m, nil
}

func (m *Model) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("ui task panicked", "panic", r)
		}
	}()
	fn()
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	if !m.quitting {
		m.quitting = true
		m.ctrl.Close()
	}
	return m, tea.Quit
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	if m.ctrl.Quality().MenuOpen() && m.handleMenuKey(msg) {
		return m, nil
	}

	m.ctrl.HandleKey(msg.String())
	return m, nil
}

// track is the progress bar's column range
func (m Model) track() seek.Track {
	return seek.Track{Left: padLeft, Width: float64(m.trackWidth())}
}

func (m Model) trackWidth() int {
	return max(minTrack, m.width-2*padLeft)
}

// trackRow is the screen row of the progress bar; the header is hidden
// while fullscreen
func (m Model) trackRow() int {
	if m.ctrl.Fullscreen().Fullscreen() {
		return 1
	}
	return 4
}

func (m *Model) handleMouse(msg tea.MouseMsg) {
	controls := m.ctrl.Controls()
	sc := m.ctrl.Seek()

	row := m.trackRow()
	onTrack := msg.Y == row
	inControls := msg.Y >= row-1 && msg.Y <= row+2
	if inControls != m.overControls {
		m.overControls = inControls
		if inControls {
			controls.PointerEnter()
		} else {
			controls.PointerLeave()
		}
	}

	switch msg.Action {
	case tea.MouseActionMotion:
		controls.PointerMove()
		m.hoverX, m.hovering = msg.X, onTrack
		if m.pressed && !sc.Dragging() && msg.X != m.pressX {
			sc.DragStart(float64(m.pressX))
		}
		if sc.Dragging() {
			sc.DragMove(float64(msg.X))
		}

	case tea.MouseActionPress:
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			m.ctrl.HandleKey("up")
		case tea.MouseButtonWheelDown:
			m.ctrl.HandleKey("down")
		case tea.MouseButtonLeft:
			controls.PointerDown()
			if onTrack {
				m.pressed, m.pressX = true, msg.X
			}
		}

	case tea.MouseActionRelease:
		if !m.pressed {
			return
		}
		m.pressed = false
		if sc.Dragging() {
			sc.DragEnd()
			return
		}
		sc.Click(float64(msg.X))
	}
}
