package player

import (
	"github.com/samber/lo"
)

// QualityTag names one pre-encoded rendition
type QualityTag string

const (
	QualityAuto  QualityTag = "auto"
	Quality1080p QualityTag = "1080p"
	Quality720p  QualityTag = "720p"
	Quality480p  QualityTag = "480p"
	Quality360p  QualityTag = "360p"
	Quality240p  QualityTag = "240p"
	Quality144p  QualityTag = "144p"
)

// QualityTags lists every tag in menu order
var QualityTags = []QualityTag{
	QualityAuto, Quality1080p, Quality720p, Quality480p, Quality360p, Quality240p, Quality144p,
}

// autoPriority is the resolution order for QualityAuto. The auto rendition's
// own URL is the max-quality encode.
var autoPriority = []QualityTag{
	QualityAuto, Quality1080p, Quality720p, Quality480p, Quality360p, Quality240p, Quality144p,
}

// String returns the tag label
func (q QualityTag) String() string {
	return string(q)
}

// Valid reports whether q is a known tag
func (q QualityTag) Valid() bool {
	return lo.Contains(QualityTags, q)
}

// Rendition is one (quality, url) pair
type Rendition struct {
	Quality QualityTag `json:"quality"`
	URL     string     `json:"url"`
}

// MediaSource identifies one episode's playable renditions
type MediaSource struct {
	ID            string      `json:"id"`
	Title         string      `json:"title"`
	EpisodeNumber int         `json:"episode_number"`
	Renditions    []Rendition `json:"renditions"`
}

// url returns the raw URL stored for tag
func (s MediaSource) url(tag QualityTag) string {
	r, ok := lo.Find(s.Renditions, func(r Rendition) bool {
		return r.Quality == tag && r.URL != ""
	})
	if !ok {
		return ""
	}
	return r.URL
}

// URLFor resolves tag to a URL. Auto picks the best non-empty rendition;
// an explicit tag without a URL falls back to the auto resolution.
func (s MediaSource) URLFor(tag QualityTag) string {
	if tag != QualityAuto {
		if u := s.url(tag); u != "" {
			return u
		}
	}
	for _, t := range autoPriority {
		if u := s.url(t); u != "" {
			return u
		}
	}
	return ""
}

// Available returns renditions with a defined URL in menu order. Auto is
// always first when anything is playable.
func (s MediaSource) Available() []Rendition {
	if s.URLFor(QualityAuto) == "" {
		return nil
	}

	out := []Rendition{{Quality: QualityAuto, URL: s.URLFor(QualityAuto)}}
	for _, tag := range QualityTags[1:] {
		if u := s.url(tag); u != "" {
			out = append(out, Rendition{Quality: tag, URL: u})
		}
	}
	return out
}

// Has reports whether tag resolves to its own rendition
func (s MediaSource) Has(tag QualityTag) bool {
	if tag == QualityAuto {
		return s.URLFor(QualityAuto) != ""
	}
	return s.url(tag) != ""
}
