package domain

import "time"

// Domain contains the reconciled catalog models shared across packages.

// Category classifies a game record the way the upstream catalog does.
type Category int

const (
	CategoryMainGame Category = iota
	CategoryDLC
	CategoryExpansion
	CategoryBundle
	CategoryStandaloneExpansion
	CategoryMod
	CategoryEpisode
	CategorySeason
)

// String returns the human-readable category label.
func (c Category) String() string {
	switch c {
	case CategoryDLC:
		return "dlc"
	case CategoryExpansion:
		return "expansion"
	case CategoryBundle:
		return "bundle"
	case CategoryStandaloneExpansion:
		return "standalone_expansion"
	case CategoryMod:
		return "mod"
	case CategoryEpisode:
		return "episode"
	case CategorySeason:
		return "season"
	default:
		return "main_game"
	}
}

// Screenshot is an owned media row keyed by its URL.
type Screenshot struct {
	URL string `json:"url"`
}

// Artwork is an owned media row keyed by its URL.
type Artwork struct {
	URL string `json:"url"`
}

// Video is an owned media row keyed by its external video id.
type Video struct {
	VideoID string `json:"video_id"`
	Name    string `json:"name,omitempty"`
}

// Game is the canonical local aggregate produced by merging upstream
// observations. ExternalID is immutable once set; Slug changes only through
// the slug allocator.
type Game struct {
	ExternalID int64  `json:"external_id"`
	Title      string `json:"title"`
	Slug       string `json:"slug"`

	ReleaseDate *time.Time `json:"release_date,omitempty"`
	Developer   string     `json:"developer,omitempty"`
	Publisher   string     `json:"publisher,omitempty"`

	Platforms         []string `json:"platforms,omitempty"`
	Genres            []string `json:"genres,omitempty"`
	GameModes         []string `json:"game_modes,omitempty"`
	Perspectives      []string `json:"perspectives,omitempty"`
	AlternativeTitles []string `json:"alternative_titles,omitempty"`

	TotalRating      *float64 `json:"total_rating,omitempty"`
	TotalRatingCount *int64   `json:"total_rating_count,omitempty"`

	Category  Category `json:"category"`
	CoverURL  string   `json:"cover_url,omitempty"`
	AgeRating string   `json:"age_rating,omitempty"`

	Screenshots []Screenshot `json:"screenshots,omitempty"`
	Artworks    []Artwork    `json:"artworks,omitempty"`
	Videos      []Video      `json:"videos,omitempty"`

	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
	LastPopularityUpdate time.Time `json:"last_popularity_update"`
}

// AddScreenshots appends screenshots not already owned, keyed by URL.
func (g *Game) AddScreenshots(shots []Screenshot) {
	g.Screenshots = appendKeyed(g.Screenshots, shots, func(s Screenshot) string { return s.URL })
}

// AddArtworks appends artworks not already owned, keyed by URL.
func (g *Game) AddArtworks(arts []Artwork) {
	g.Artworks = appendKeyed(g.Artworks, arts, func(a Artwork) string { return a.URL })
}

// AddVideos appends videos not already owned, keyed by video id.
func (g *Game) AddVideos(videos []Video) {
	g.Videos = appendKeyed(g.Videos, videos, func(v Video) string { return v.VideoID })
}

func appendKeyed[T any](existing, incoming []T, key func(T) string) []T {
	seen := make(map[string]struct{}, len(existing))
	for _, e := range existing {
		seen[key(e)] = struct{}{}
	}
	for _, in := range incoming {
		k := key(in)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		existing = append(existing, in)
	}
	return existing
}

// ImportReport summarizes one import run for operator reporting.
type ImportReport struct {
	JobID      string    `json:"job_id,omitempty"`
	Created    int       `json:"created"`
	Updated    int       `json:"updated"`
	Skipped    int       `json:"skipped"`
	Errors     int       `json:"errors"`
	Purged     int       `json:"purged,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Merge folds another report's counters into r.
func (r *ImportReport) Merge(other ImportReport) {
	r.Created += other.Created
	r.Updated += other.Updated
	r.Skipped += other.Skipped
	r.Errors += other.Errors
	r.Purged += other.Purged
	if r.StartedAt.IsZero() || (!other.StartedAt.IsZero() && other.StartedAt.Before(r.StartedAt)) {
		r.StartedAt = other.StartedAt
	}
	if other.FinishedAt.After(r.FinishedAt) {
		r.FinishedAt = other.FinishedAt
	}
}
