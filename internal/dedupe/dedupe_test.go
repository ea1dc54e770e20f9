package dedupe

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gamedex-hq/gamedex-catalog-sync/internal/domain"
)

func TestCanonicalizeStripsSuffixNoise(t *testing.T) {
	r, err := NewResolver(nil)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}

	base := r.Canonicalize("Clair Obscur")
	variants := []string{
		"Clair Obscur: Expansion Pass",
		"Clair Obscur - Deluxe Edition",
		"Clair Obscur — Game of the Year Edition",
		"clair obscur REMASTERED",
		"Clair Obscur DLC",
	}
	for _, v := range variants {
		if got := r.Canonicalize(v); got != base {
			t.Fatalf("Canonicalize(%q) = %q, want %q", v, got, base)
		}
	}
}

func TestCanonicalizeAppliesPatternsUntilStable(t *testing.T) {
	r, err := NewResolver(nil)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}

	// Stacked suffixes require repeated passes over the pattern table.
	if got := r.Canonicalize("Dark Tide: Deluxe Edition Remastered"); got != "dark tide" {
		t.Fatalf("Canonicalize = %q, want dark tide", got)
	}
}

func TestCanonicalizeLeavesUnknownVariantsAlone(t *testing.T) {
	r, err := NewResolver(nil)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}

	if got := r.Canonicalize("Dark Souls III"); got != "dark souls iii" {
		t.Fatalf("Canonicalize = %q", got)
	}
}

func TestDedupeKeepsFirstRankedVariant(t *testing.T) {
	r, err := NewResolver(nil)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}

	ranked := []*domain.Game{
		{ExternalID: 1, Title: "Clair Obscur", Slug: "clair-obscur"},
		{ExternalID: 2, Title: "Dark Souls III", Slug: "dark-souls-iii"},
		{ExternalID: 3, Title: "Clair Obscur: Expansion Pass", Slug: "clair-obscur-expansion-pass"},
		{ExternalID: 4, Title: "Dark Souls III - Deluxe Edition", Slug: "dark-souls-iii-deluxe-edition"},
	}

	got := r.Dedupe(ranked)
	if len(got) != 2 {
		t.Fatalf("Dedupe kept %d entries, want 2", len(got))
	}
	if got[0].ExternalID != 1 || got[1].ExternalID != 2 {
		t.Fatalf("Dedupe reordered or dropped the wrong variants: %d, %d", got[0].ExternalID, got[1].ExternalID)
	}
}

func TestDedupeFallsBackToSlugForEmptyKeys(t *testing.T) {
	r, err := NewResolver(nil)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}

	ranked := []*domain.Game{
		{ExternalID: 1, Title: "", Slug: "mystery-1"},
		{ExternalID: 2, Title: "", Slug: "mystery-2"},
	}
	if got := r.Dedupe(ranked); len(got) != 2 {
		t.Fatalf("distinct slugs collapsed, kept %d", len(got))
	}
}

func TestLoadRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patterns.yaml")
	content := "patterns:\n  - '\\s+beta$'\n  - '\\s+demo$'\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write patterns file: %v", err)
	}

	rules, err := LoadRules(path)
	if err != nil {
		t.Fatalf("LoadRules: %v", err)
	}
	if len(rules) != 2 || rules[0] != `\s+beta$` {
		t.Fatalf("unexpected rules: %#v", rules)
	}

	r, err := NewResolver(rules)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	if got := r.Canonicalize("Subnautica Beta"); got != "subnautica" {
		t.Fatalf("custom rule not applied: %q", got)
	}
}

func TestLoadRulesRejectsEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patterns.yaml")
	if err := os.WriteFile(path, []byte("patterns: []\n"), 0o600); err != nil {
		t.Fatalf("write patterns file: %v", err)
	}
	if _, err := LoadRules(path); err == nil {
		t.Fatalf("expected error for empty pattern list")
	}
}

func TestNewResolverRejectsBadPattern(t *testing.T) {
	if _, err := NewResolver([]string{"("}); err == nil {
		t.Fatalf("expected compile error")
	}
}
