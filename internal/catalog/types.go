package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/justchokingaround/animeplay/internal/player"
)

// ID is a backend identifier. The API sends numbers; IDs are kept as strings.
type ID string

// UnmarshalJSON accepts both JSON numbers and strings
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid id %s: %w", data, err)
	}
	if i, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
		*id = ID(strconv.FormatInt(i, 10))
		return nil
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string {
	return string(id)
}

// Anime is a series as returned by GET /anime/{id}
type Anime struct {
	ID           ID     `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	ThumbnailURL string `json:"thumbnail_url"`
	Genre        string `json:"genre"`
}

// Episode is one episode with its pre-encoded renditions
type Episode struct {
	ID                 ID     `json:"id"`
	AnimeID            ID     `json:"anime_id"`
	Title              string `json:"title"`
	EpisodeNumber      int    `json:"episode_number"`
	ThumbnailURL       string `json:"thumbnail_url"`
	VideoURLMaxQuality string `json:"video_url_max_quality"`
	VideoURL1080p      string `json:"video_url_1080p"`
	VideoURL720p       string `json:"video_url_720p"`
	VideoURL480p       string `json:"video_url_480p"`
	VideoURL360p       string `json:"video_url_360p,omitempty"`
	VideoURL240p       string `json:"video_url_240p,omitempty"`
	VideoURL144p       string `json:"video_url_144p,omitempty"`
}

// Source converts the episode into the player's rendition list.
// Empty URLs are skipped.
func (e Episode) Source() player.MediaSource {
	urls := []struct {
		tag player.QualityTag
		url string
	}{
		{player.QualityAuto, e.VideoURLMaxQuality},
		{player.Quality1080p, e.VideoURL1080p},
		{player.Quality720p, e.VideoURL720p},
		{player.Quality480p, e.VideoURL480p},
		{player.Quality360p, e.VideoURL360p},
		{player.Quality240p, e.VideoURL240p},
		{player.Quality144p, e.VideoURL144p},
	}

	src := player.MediaSource{
		ID:            e.ID.String(),
		Title:         e.Title,
		EpisodeNumber: e.EpisodeNumber,
	}
	for _, u := range urls {
		if u.url != "" {
			src.Renditions = append(src.Renditions, player.Rendition{Quality: u.tag, URL: u.url})
		}
	}
	return src
}

// ErrorResponse is the backend's error body
type ErrorResponse struct {
	Error string `json:"error"`
}
