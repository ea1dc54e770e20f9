package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gamedex-hq/gamedex-catalog-sync/internal/domain"
)

func TestDerivedRatingsAppliesAdjustments(t *testing.T) {
	rating := 70.0
	rec := RawRecord{
		TotalRating: &rating,
		Genres:      []NamedRef{{Name: "Role-playing (RPG)"}},
		Platforms:   []NamedRef{{Name: "PlayStation 5"}},
		Category:    int(domain.CategoryMainGame),
	}

	scores := DerivedRatings(rec, DefaultRatingWeights())
	if got := scores[AxisStory]; got != 80 {
		t.Fatalf("story = %v, want 80", got)
	}
	if got := scores[AxisReplay]; got != 75 {
		t.Fatalf("replayability = %v, want 75", got)
	}
	if got := scores[AxisVisuals]; got != 75 {
		t.Fatalf("visuals = %v, want 75", got)
	}
	if got := scores[AxisGameplay]; got != 70 {
		t.Fatalf("gameplay = %v, want 70", got)
	}
}

func TestDerivedRatingsStayWithinBounds(t *testing.T) {
	high := 98.0
	rec := RawRecord{
		TotalRating: &high,
		Genres:      []NamedRef{{Name: "Role-playing (RPG)"}, {Name: "Visual Novel"}, {Name: "Adventure"}},
	}
	scores := DerivedRatings(rec, DefaultRatingWeights())
	for axis, v := range scores {
		if v < 0 || v > 100 {
			t.Fatalf("axis %s out of bounds: %v", axis, v)
		}
	}
	if scores[AxisStory] != 100 {
		t.Fatalf("story should be clamped to 100, got %v", scores[AxisStory])
	}

	// Missing upstream score means a zero base; negative adjustments must not
	// go below zero.
	rec = RawRecord{Genres: []NamedRef{{Name: "Sport"}}}
	scores = DerivedRatings(rec, DefaultRatingWeights())
	if scores[AxisStory] != 0 {
		t.Fatalf("story should be clamped to 0, got %v", scores[AxisStory])
	}
}

func TestDerivedRatingsCoversAllAxes(t *testing.T) {
	scores := DerivedRatings(RawRecord{}, DefaultRatingWeights())
	for _, axis := range []string{AxisStory, AxisGameplay, AxisVisuals, AxisReplay} {
		if _, ok := scores[axis]; !ok {
			t.Fatalf("axis %s missing from derived view", axis)
		}
	}
}

func TestLoadRatingWeights(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weights.yaml")
	content := "genres:\n  Roguelike: { replayability: 20 }\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write weights file: %v", err)
	}

	w, err := LoadRatingWeights(path)
	if err != nil {
		t.Fatalf("LoadRatingWeights: %v", err)
	}
	if w.Genres["Roguelike"][AxisReplay] != 20 {
		t.Fatalf("custom genre weight not loaded: %#v", w.Genres)
	}
	// Sections absent from the file fall back to defaults.
	if len(w.Platforms) == 0 || len(w.Categories) == 0 {
		t.Fatalf("missing sections should fall back to defaults")
	}
}

func TestLoadRatingWeightsMissingFile(t *testing.T) {
	if _, err := LoadRatingWeights(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
