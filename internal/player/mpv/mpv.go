// Package mpv drives an mpv process over JSON IPC as the native media
// primitive.
package mpv

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os/exec"
	"runtime"
	"sync"
	"time"

	"github.com/diniamo/gopv"
	"github.com/justchokingaround/animeplay/internal/config"
	"github.com/justchokingaround/animeplay/internal/player"
)

// ErrNotRunning is returned by commands issued before Start or after Close
var ErrNotRunning = errors.New("mpv is not running")

const (
	defaultPollInterval = 250 * time.Millisecond
	defaultUserAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	// consecutive failed polls before the IPC connection is considered dead
	maxPollFailures = 3
)

// Options configures the mpv process
type Options struct {
	Executable     string
	LoadUserConfig bool
	Debug          bool
	PollInterval   time.Duration
	Title          string
	UserAgent      string
	ExtraArgs      []string
	Logger         *slog.Logger
}

// OptionsFrom maps application config onto Options
func OptionsFrom(cfg *config.Config, logger *slog.Logger) Options {
	return Options{
		Executable:     cfg.Player.MPVPath,
		LoadUserConfig: cfg.Player.LoadUserConfig,
		Debug:          cfg.Advanced.Debug,
		PollInterval:   cfg.Player.PollInterval,
		Logger:         logger,
	}
}

// Player is a player.MediaHandle and fullscreen display backed by one
// long-lived mpv window
type Player struct {
	mu sync.Mutex

	client     *gopv.Client
	cmd        *exec.Cmd
	ipc        endpoint
	executable string
	opts       Options
	logger     *slog.Logger

	tracker *tracker

	events     chan player.Event
	fullscreen chan bool

	ctx       context.Context
	cancel    context.CancelFunc
	polling   chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// New verifies mpv is installed. The process is launched by Start.
func New(opts Options) (*Player, error) {
	executable, err := findExecutable(opts.Executable)
	if err != nil {
		return nil, err
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Player{
		executable: executable,
		opts:       opts,
		logger:     opts.Logger,
		tracker:    newTracker(),
		events:     make(chan player.Event, 256),
		fullscreen: make(chan bool, 8),
		done:       make(chan struct{}),
	}, nil
}

// Start launches an idle mpv window and connects to its IPC server
func (p *Player) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client != nil {
		return nil
	}

	ipc := newEndpoint(runtime.GOOS)
	p.ipc = ipc
	p.cmd = exec.Command(p.executable, p.buildArgs()...)

	// Detach mpv from the terminal so it cannot steal input from the TUI
	p.cmd.Stdin = nil
	p.cmd.Stdout = nil
	p.cmd.Stderr = nil
	setupProcessAttributes(p.cmd)

	if err := p.cmd.Start(); err != nil {
		p.cleanupIPC()
		return fmt.Errorf("failed to start %s: %w", p.executable, err)
	}

	initCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	if err := p.waitForIPC(initCtx); err != nil {
		_ = p.cmd.Process.Kill()
		p.cleanupIPC()
		return fmt.Errorf("timeout waiting for mpv IPC at %s: %w", ipc.address, err)
	}

	client, err := gopv.Connect(ipc.address, func(err error) {
		p.logger.Debug("mpv IPC error", "error", err)
	})
	if err != nil {
		_ = p.cmd.Process.Kill()
		p.cleanupIPC()
		return fmt.Errorf("failed to connect to mpv IPC at %s: %w", ipc.address, err)
	}
	p.client = client

	p.ctx, p.cancel = context.WithCancel(context.Background())
	p.polling = make(chan struct{})
	go p.poll()
	go p.monitorProcess(p.cmd)

	p.logger.Debug("mpv started", "ipc", ipc.address, "pid", p.cmd.Process.Pid)
	return nil
}

// buildArgs builds the command-line arguments for an idle mpv window
func (p *Player) buildArgs() []string {
	args := []string{
		p.ipc.arg(),
		"--idle=yes",
		"--force-window=yes",
		"--keep-open=yes", // stay on the last frame so ended is observable
		"--no-ytdl",       // direct streams only
	}

	if !p.opts.LoadUserConfig {
		args = append(args, "--no-config")
	}
	if !p.opts.Debug {
		args = append(args, "--msg-level=all=warn")
	}

	args = append(args, fmt.Sprintf("--user-agent=%s", p.opts.UserAgent))

	if p.opts.Title != "" {
		args = append(args, fmt.Sprintf("--force-media-title=%s", p.opts.Title))
	}

	return append(args, p.opts.ExtraArgs...)
}

// waitForIPC waits for the socket file or named pipe to accept connections
func (p *Player) waitForIPC(ctx context.Context) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if p.ipc.ready() {
				return nil
			}
		}
	}
}

// withClient runs fn against the live IPC client without holding the lock
// during the round trip
func (p *Player) withClient(fn func(c *gopv.Client) (any, error)) (any, error) {
	p.mu.Lock()
	client := p.client
	p.mu.Unlock()

	if client == nil {
		return nil, ErrNotRunning
	}
	return fn(client)
}

func (p *Player) get(property string) (any, error) {
	return p.withClient(func(c *gopv.Client) (any, error) {
		return c.Request("get_property", property)
	})
}

func (p *Player) set(property string, value any) error {
	_, err := p.withClient(func(c *gopv.Client) (any, error) {
		return c.Request("set_property", property, value)
	})
	if err != nil {
		return fmt.Errorf("set %s: %w", property, err)
	}
	return nil
}

// Play unpauses. Confirmation arrives as a play event.
func (p *Player) Play(ctx context.Context) error {
	return p.set("pause", false)
}

// Pause pauses. Confirmation arrives as a pause event.
func (p *Player) Pause(ctx context.Context) error {
	return p.set("pause", true)
}

// Seek jumps to an absolute position in seconds
func (p *Player) Seek(seconds float64) error {
	return p.set("time-pos", seconds)
}

// SetVolume sets the volume from [0,1]
func (p *Player) SetVolume(volume float64) error {
	return p.set("volume", volume*100)
}

// SetMuted sets the mute flag
func (p *Player) SetMuted(muted bool) error {
	return p.set("mute", muted)
}

// SetPlaybackRate sets the speed multiplier
func (p *Player) SetPlaybackRate(rate float64) error {
	return p.set("speed", rate)
}

// SetSource replaces the loaded file. An empty url stops playback.
func (p *Player) SetSource(url string) error {
	p.mu.Lock()
	p.tracker.expect(url)
	p.mu.Unlock()

	if url == "" {
		_, err := p.withClient(func(c *gopv.Client) (any, error) {
			return c.Request("stop")
		})
		if err != nil {
			return fmt.Errorf("stop: %w", err)
		}
		return nil
	}
	_, err := p.withClient(func(c *gopv.Client) (any, error) {
		return c.Request("loadfile", url, "replace")
	})
	if err != nil {
		return fmt.Errorf("loadfile: %w", err)
	}
	return nil
}

// Events delivers derived native events. The channel closes when mpv exits.
func (p *Player) Events() <-chan player.Event {
	return p.events
}

// RequestFullscreen makes the mpv window fullscreen
func (p *Player) RequestFullscreen(ctx context.Context) error {
	return p.set("fullscreen", true)
}

// ExitFullscreen leaves fullscreen
func (p *Player) ExitFullscreen(ctx context.Context) error {
	return p.set("fullscreen", false)
}

// FullscreenChanges reports fullscreen toggles made in the mpv window itself
func (p *Player) FullscreenChanges() <-chan bool {
	return p.fullscreen
}

// Done is closed once mpv has exited
func (p *Player) Done() <-chan struct{} {
	return p.done
}

// poll samples properties and emits the derived events
func (p *Player) poll() {
	defer close(p.polling)

	ticker := time.NewTicker(p.opts.PollInterval)
	defer ticker.Stop()

	failures := 0
	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
		}

		snap, err := p.snapshot()
		if err != nil {
			failures++
			if failures >= maxPollFailures {
				p.logger.Warn("mpv IPC appears dead", "error", err)
				go p.Close()
				return
			}
			continue
		}
		failures = 0

		p.mu.Lock()
		events, fullscreen := p.tracker.next(snap)
		p.mu.Unlock()

		for _, ev := range events {
			select {
			case p.events <- ev:
			case <-p.ctx.Done():
				return
			}
		}
		if fullscreen {
			select {
			case p.fullscreen <- snap.Fullscreen:
			default:
			}
		}
	}
}

// snapshot reads every tracked property. Only idle-active is required;
// the rest are unavailable while nothing is loaded.
func (p *Player) snapshot() (snapshot, error) {
	s := emptySnapshot()

	idle, err := p.get("idle-active")
	if err != nil {
		return s, err
	}
	s.Idle = asBool(idle)

	get := func(name string) any {
		v, err := p.get(name)
		if err != nil {
			return nil
		}
		return v
	}

	s.Path = asString(get("path"))
	s.TimePos = asFloat(get("time-pos"))
	s.Duration = asFloat(get("duration"))
	s.Paused = asBool(get("pause"))
	s.Buffering = asBool(get("paused-for-cache"))
	s.CacheEnd = asFloat(get("demuxer-cache-time"))
	s.Volume = asFloat(get("volume"))
	s.Muted = asBool(get("mute"))
	s.Speed = asFloat(get("speed"))
	s.EOF = asBool(get("eof-reached"))
	s.Fullscreen = asBool(get("fullscreen"))
	return s, nil
}

func asFloat(v any) float64 {
	switch f := v.(type) {
	case float64:
		return f
	case int:
		return float64(f)
	default:
		return math.NaN()
	}
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

// monitorProcess closes the player when mpv exits, e.g. the window was closed
func (p *Player) monitorProcess(cmd *exec.Cmd) {
	err := cmd.Wait()
	if err != nil {
		p.logger.Debug("mpv exited", "error", err)
	}
	_ = p.Close()
}

// Close quits mpv and closes the event channel. Safe to call more than once.
func (p *Player) Close() error {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		client := p.client
		cmd := p.cmd
		polling := p.polling
		p.client = nil
		if p.cancel != nil {
			p.cancel()
		}
		p.mu.Unlock()

		// the poller must be gone before its channel is closed
		if polling != nil {
			<-polling
		}

		// gopv closes itself on EOF once mpv exits; closing it here too
		// would double-close
		if client != nil {
			done := make(chan struct{})
			go func() {
				_, _ = client.Request("quit")
				close(done)
			}()
			select {
			case <-done:
			case <-time.After(500 * time.Millisecond):
			}
		}
		if cmd != nil && cmd.Process != nil {
			_ = cmd.Process.Kill()
		}

		p.mu.Lock()
		p.cleanupIPC()
		p.mu.Unlock()

		close(p.events)
		close(p.done)
	})
	return nil
}

// cleanupIPC removes the socket file
func (p *Player) cleanupIPC() {
	p.ipc.remove()
	p.ipc = endpoint{}
}
