package main

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/justchokingaround/animeplay/internal/database"
	"github.com/justchokingaround/animeplay/internal/history"
	"github.com/justchokingaround/animeplay/internal/tui/styles"
	"github.com/justchokingaround/animeplay/internal/tui/utils"
)

var (
	historySearch  string
	historyAnime   string
	historyLimit   int
	historySort    string
	historyPerShow bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show watch history",
	RunE: func(cmd *cobra.Command, args []string) error {
		store := history.NewSQLStore(database.GetDB())

		opts := history.ListOptions{
			AnimeID: historyAnime,
			SortBy:  history.SortOrder(historySort),
		}
		// fuzzy search ranks the whole history, so the limit applies after it
		if historySearch == "" && !historyPerShow {
			opts.Limit = historyLimit
		}

		entries, err := store.List(cmd.Context(), opts)
		if err != nil {
			return fmt.Errorf("failed to read history: %w", err)
		}
		if historyPerShow {
			entries = history.RecentAnime(entries)
		}
		entries = history.Filter(entries, historySearch)
		if historyLimit > 0 && len(entries) > historyLimit {
			entries = entries[:historyLimit]
		}

		if len(entries) == 0 {
			fmt.Println("No watch history.")
			return nil
		}
		fmt.Println(historyTable(entries))
		return nil
	},
}

func historyTable(entries []history.Entry) string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			utils.Truncate(e.AnimeTitle, 32),
			strconv.Itoa(e.EpisodeNumber),
			utils.Truncate(e.Title, 32),
			fmt.Sprintf("%.0f%%", e.ProgressPct),
			humanize.Time(e.WatchedAt()),
			e.AnimeID + "/" + e.EpisodeID,
		})
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(styles.Base03)).
		Headers("ANIME", "EP", "TITLE", "PROGRESS", "WATCHED", "ID").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			style := lipgloss.NewStyle().Padding(0, 1)
			switch {
			case row == table.HeaderRow:
				return style.Bold(true).Foreground(styles.Blue)
			case col == 3:
				return style.Foreground(styles.Green).Align(lipgloss.Right)
			case col == 4 || col == 5:
				return style.Foreground(styles.Base04)
			}
			return style
		}).
		String()
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all watch history",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := history.NewSQLStore(database.GetDB()).Clear(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to clear history: %w", err)
		}
		fmt.Printf("Removed %s.\n", humanize.Comma(n)+" "+plural(n, "entry", "entries"))
		return nil
	},
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <anime-id> <episode-id>",
	Short: "Delete the saved progress of one episode",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := history.NewSQLStore(database.GetDB()).Delete(cmd.Context(), args[0], args[1]); err != nil {
			return fmt.Errorf("failed to delete history entry: %w", err)
		}
		fmt.Printf("Deleted %s/%s.\n", args[0], args[1])
		return nil
	},
}

func plural(n int64, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func init() {
	historyCmd.Flags().StringVarP(&historySearch, "search", "s", "", "fuzzy search anime and episode titles")
	historyCmd.Flags().StringVar(&historyAnime, "anime", "", "only show one anime")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum number of entries (0 for all)")
	historyCmd.Flags().StringVar(&historySort, "sort", string(history.SortRecentFirst), "sort order (recent_first, oldest_first, title_asc, progress_desc)")
	historyCmd.Flags().BoolVar(&historyPerShow, "latest", false, "only the most recent episode of each anime")

	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historyDeleteCmd)
}
