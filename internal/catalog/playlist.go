package catalog

import (
	"fmt"
	"sort"

	"github.com/samber/lo"
)

// Playlist is an anime's episodes in episode-number order with a cursor
type Playlist struct {
	Anime    Anime
	episodes []Episode
	index    int
}

// NewPlaylist orders episodes and points the cursor at currentID
func NewPlaylist(anime Anime, episodes []Episode, currentID string) (*Playlist, error) {
	sorted := append([]Episode(nil), episodes...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].EpisodeNumber < sorted[j].EpisodeNumber
	})

	_, index, ok := lo.FindIndexOf(sorted, func(e Episode) bool {
		return e.ID.String() == currentID
	})
	if !ok {
		return nil, fmt.Errorf("episode %s of anime %s: %w", currentID, anime.ID, ErrNotFound)
	}

	return &Playlist{Anime: anime, episodes: sorted, index: index}, nil
}

// Episodes returns the ordered episodes
func (p *Playlist) Episodes() []Episode {
	return p.episodes
}

// Current returns the episode under the cursor
func (p *Playlist) Current() Episode {
	return p.episodes[p.index]
}

// Index returns the cursor position
func (p *Playlist) Index() int {
	return p.index
}

// HasNext reports whether a later episode exists
func (p *Playlist) HasNext() bool {
	return p.index < len(p.episodes)-1
}

// HasPrevious reports whether an earlier episode exists
func (p *Playlist) HasPrevious() bool {
	return p.index > 0
}

// Next advances the cursor. It reports false at the last episode.
func (p *Playlist) Next() (Episode, bool) {
	if !p.HasNext() {
		return Episode{}, false
	}
	p.index++
	return p.Current(), true
}

// Previous moves the cursor back. It reports false at the first episode.
func (p *Playlist) Previous() (Episode, bool) {
	if !p.HasPrevious() {
		return Episode{}, false
	}
	p.index--
	return p.Current(), true
}
