package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/justchokingaround/animeplay/internal/catalog"
	"github.com/justchokingaround/animeplay/internal/clipboard"
	"github.com/justchokingaround/animeplay/internal/controller"
	"github.com/justchokingaround/animeplay/internal/database"
	"github.com/justchokingaround/animeplay/internal/history"
	"github.com/justchokingaround/animeplay/internal/player/mpv"
	"github.com/justchokingaround/animeplay/internal/scheduler"
	"github.com/justchokingaround/animeplay/internal/tui"
)

const shutdownTimeout = 3 * time.Second

var headless bool

var playCmd = &cobra.Command{
	Use:   "play <anime-id> [episode-id]",
	Short: "Play an episode",
	Long: `Play an episode of an anime. Without an episode id the most recently
watched episode is resumed, or the first episode when there is no history.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		episodeID := ""
		if len(args) > 1 {
			episodeID = args[1]
		}
		return play(ctx, args[0], episodeID)
	},
}

func init() {
	playCmd.Flags().BoolVar(&headless, "headless", false, "control playback from the mpv window only, without the terminal UI")
}

func play(ctx context.Context, animeID, episodeID string) error {
	log := logger.With("session", uuid.NewString())

	client := catalog.NewClient(catalog.ConfigFrom(cfg, log))
	anime, err := client.Anime(ctx, animeID)
	if err != nil {
		return err
	}
	episodes, err := client.Episodes(ctx, animeID)
	if err != nil {
		return err
	}
	if len(episodes) == 0 {
		return fmt.Errorf("anime %s has no episodes", animeID)
	}

	var store history.Store
	if cfg.History.Enabled {
		store = history.NewSQLStore(database.GetDB())
	}
	if episodeID == "" {
		episodeID = resumeEpisode(ctx, store, animeID, episodes, log)
	}

	playlist, err := catalog.NewPlaylist(*anime, episodes, episodeID)
	if err != nil {
		return err
	}

	mpvOpts := mpv.OptionsFrom(cfg, log)
	mpvOpts.Title = anime.Title
	media, err := mpv.New(mpvOpts)
	if err != nil {
		return err
	}
	if err := media.Start(ctx); err != nil {
		return err
	}
	defer media.Close()

	loop := scheduler.NewLoop(256, log)
	defer loop.Stop()

	deps := controller.Deps{
		Media:     media,
		Display:   media,
		Sched:     scheduler.NewTimers(loop),
		Exec:      loop,
		History:   store,
		Clipboard: clipboard.NewService(cfg.Advanced.Clipboard.Command, log),
	}
	if cfg.Player.RememberVolume {
		deps.Volume = database.VolumeStore{DB: database.GetDB()}
	}

	// nothing else touches the controller until the loop starts
	ctrl := controller.New(deps, controller.OptionsFrom(&cfg.Player, log))
	if err := ctrl.Open(playlist); err != nil {
		// the error is on screen with a retry; keep the session
		log.Warn("failed to open episode", "error", err)
	}

	go func() {
		if err := ctrl.Pump(ctx, loop); err != nil && !errors.Is(err, context.Canceled) {
			log.Debug("event pump stopped", "error", err)
		}
	}()
	go forwardFullscreen(ctx, media, loop, ctrl)

	log.Info("playing", "anime", anime.Title, "episode", playlist.Current().EpisodeNumber, "headless", headless)

	if headless {
		return runHeadless(ctx, loop, media, ctrl, log)
	}
	return runTUI(ctx, loop, media, ctrl, log)
}

// resumeEpisode picks the most recently watched episode of the anime, or
// the first one
func resumeEpisode(ctx context.Context, store history.Store, animeID string, episodes []catalog.Episode, log *slog.Logger) string {
	first := episodes[0].ID.String()
	if store == nil {
		return first
	}

	entries, err := store.List(ctx, history.ListOptions{AnimeID: animeID, Limit: 1, SortBy: history.SortRecentFirst})
	if err != nil {
		log.Warn("failed to read watch history", "error", err)
		return first
	}
	if len(entries) == 0 {
		return first
	}
	log.Debug("resuming from history", "episode", entries[0].EpisodeID, "progress", entries[0].ProgressPct)
	return entries[0].EpisodeID
}

// forwardFullscreen reports fullscreen toggles made in the mpv window
func forwardFullscreen(ctx context.Context, media *mpv.Player, loop *scheduler.Loop, ctrl *controller.Controller) {
	changes := media.FullscreenChanges()
	for {
		select {
		case <-ctx.Done():
			return
		case fs := <-changes:
			if !loop.Post(func() { ctrl.Fullscreen().Changed(fs) }) {
				return
			}
		}
	}
}

func runTUI(ctx context.Context, loop *scheduler.Loop, media *mpv.Player, ctrl *controller.Controller, log *slog.Logger) error {
	model := tui.New(ctrl, tui.Options{
		Tasks:     loop,
		MediaDone: media.Done(),
		Logger:    log,
	})

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseAllMotion(), tea.WithContext(ctx))
	_, err := p.Run()

	// the program goroutine is gone, so closing here is still single-threaded
	ctrl.Close()
	shutdown(loop, log)

	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("terminal UI: %w", err)
	}
	return nil
}

// shutdown gives the final progress and volume writes a moment to land
func shutdown(loop *scheduler.Loop, log *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := loop.Shutdown(ctx); err != nil {
		log.Warn("pending writes did not finish", "error", err)
	}
}

func runHeadless(ctx context.Context, loop *scheduler.Loop, media *mpv.Player, ctrl *controller.Controller, log *slog.Logger) error {
	go func() {
		select {
		case <-media.Done():
		case <-ctx.Done():
		}
		loop.Post(func() {
			ctrl.Close()
			// the loop keeps running so write results are still delivered
			go shutdown(loop, log)
		})
	}()

	return loop.Run(context.WithoutCancel(ctx))
}
