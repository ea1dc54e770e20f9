package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gamedex-hq/gamedex-catalog-sync/internal/domain"
)

// The upstream source exposes a single scalar score per game; downstream
// presentation wants a multi-axis view. The weights below are explicit,
// tunable constants keyed on genre/platform/category names. They are not
// derived from any upstream signal.

// Rating axes of the derived view.
const (
	AxisStory    = "story"
	AxisGameplay = "gameplay"
	AxisVisuals  = "visuals"
	AxisReplay   = "replayability"
)

var ratingAxes = []string{AxisStory, AxisGameplay, AxisVisuals, AxisReplay}

// RatingWeights is the additive adjustment table applied on top of the
// upstream aggregate score.
type RatingWeights struct {
	Genres     map[string]map[string]float64 `yaml:"genres"`
	Platforms  map[string]map[string]float64 `yaml:"platforms"`
	Categories map[string]map[string]float64 `yaml:"categories"`
}

// DefaultRatingWeights returns the built-in adjustment table.
func DefaultRatingWeights() RatingWeights {
	return RatingWeights{
		Genres: map[string]map[string]float64{
			"Adventure":          {AxisStory: 8, AxisReplay: -4},
			"Role-playing (RPG)": {AxisStory: 10, AxisReplay: 5},
			"Visual Novel":       {AxisStory: 15, AxisGameplay: -10},
			"Shooter":            {AxisGameplay: 6, AxisStory: -4},
			"Puzzle":             {AxisGameplay: 8, AxisVisuals: -5},
			"Strategy":           {AxisReplay: 12, AxisStory: -3},
			"Sport":              {AxisStory: -12, AxisReplay: 10},
			"Racing":             {AxisStory: -10, AxisGameplay: 5},
			"Fighting":           {AxisStory: -8, AxisReplay: 8},
			"Indie":              {AxisVisuals: -3, AxisGameplay: 3},
		},
		Platforms: map[string]map[string]float64{
			"PC (Microsoft Windows)": {AxisVisuals: 3, AxisReplay: 3},
			"PlayStation 5":          {AxisVisuals: 5},
			"Xbox Series X|S":        {AxisVisuals: 5},
			"Nintendo Switch":        {AxisGameplay: 2, AxisVisuals: -4},
		},
		Categories: map[string]map[string]float64{
			domain.CategoryDLC.String():       {AxisReplay: -5},
			domain.CategoryExpansion.String(): {AxisStory: 3},
			domain.CategoryBundle.String():    {AxisReplay: 5},
			domain.CategorySeason.String():    {AxisStory: 2, AxisReplay: -3},
		},
	}
}

// LoadRatingWeights reads an adjustment table from a YAML file. Sections left
// empty in the file fall back to the built-in defaults.
func LoadRatingWeights(path string) (RatingWeights, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return RatingWeights{}, fmt.Errorf("read rating weights file: %w", err)
	}
	var w RatingWeights
	if err := yaml.Unmarshal(raw, &w); err != nil {
		return RatingWeights{}, fmt.Errorf("decode rating weights: %w", err)
	}
	defaults := DefaultRatingWeights()
	if len(w.Genres) == 0 {
		w.Genres = defaults.Genres
	}
	if len(w.Platforms) == 0 {
		w.Platforms = defaults.Platforms
	}
	if len(w.Categories) == 0 {
		w.Categories = defaults.Categories
	}
	return w, nil
}

// DerivedRatings computes the multi-axis rating view for a record. Every axis
// starts at the upstream aggregate score and is shifted by the matched
// adjustments, then clamped to [0,100].
func DerivedRatings(rec RawRecord, weights RatingWeights) map[string]float64 {
	base := 0.0
	if rec.TotalRating != nil {
		base = *rec.TotalRating
	}

	scores := make(map[string]float64, len(ratingAxes))
	for _, axis := range ratingAxes {
		scores[axis] = base
	}

	for _, genre := range rec.Genres {
		applyAdjust(scores, weights.Genres[genre.Name])
	}
	for _, platform := range rec.Platforms {
		applyAdjust(scores, weights.Platforms[platform.Name])
	}
	applyAdjust(scores, weights.Categories[domain.Category(rec.Category).String()])

	for axis, v := range scores {
		scores[axis] = clamp(v, 0, 100)
	}
	return scores
}

func applyAdjust(scores map[string]float64, adjust map[string]float64) {
	for axis, delta := range adjust {
		if _, ok := scores[axis]; ok {
			scores[axis] += delta
		}
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
