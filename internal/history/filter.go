package history

import (
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"
	"github.com/samber/lo"
)

type entrySource []Entry

func (s entrySource) String(i int) string {
	e := s[i]
	return fmt.Sprintf("%s %d %s", e.AnimeTitle, e.EpisodeNumber, e.Title)
}

func (s entrySource) Len() int {
	return len(s)
}

// Filter fuzzy-matches query against anime and episode titles, best match
// first. An empty query returns entries unchanged.
func Filter(entries []Entry, query string) []Entry {
	query = strings.TrimSpace(query)
	if query == "" {
		return entries
	}

	matches := fuzzy.FindFrom(query, entrySource(entries))
	return lo.Map(matches, func(m fuzzy.Match, _ int) Entry {
		return entries[m.Index]
	})
}
