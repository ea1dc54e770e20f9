package dedupe

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gamedex-hq/gamedex-catalog-sync/internal/domain"
)

// Package dedupe groups near-duplicate titles into canonical buckets for
// ranked-list construction. The pattern list is finite and language-specific:
// unseen suffix variants silently fail to group. Best effort, never a
// correctness guarantee, and never a storage mutation.

// DefaultRules returns the ordered, end-anchored suffix patterns stripped
// during canonicalization. Order matters: composite suffixes are listed
// before their shorter forms.
func DefaultRules() []string {
	return []string{
		`\s*[:\-]?\s*(deluxe|ultimate|collector'?s|definitive|complete|limited|premium|gold|legendary|enhanced|anniversary|game of the year|goty)\s+edition$`,
		`\s*[:\-]?\s*(remastered|remake|redux|hd remaster|enhanced)$`,
		`\s*[:\-]?\s*(season pass|expansion pass|character pass)$`,
		`\s*[:\-]?\s*(dlc|expansion|bundle)$`,
	}
}

// rulesFile is the YAML shape for an external pattern table.
type rulesFile struct {
	Patterns []string `yaml:"patterns"`
}

// LoadRules reads suffix patterns from a YAML file, preserving order.
func LoadRules(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dedupe patterns file: %w", err)
	}
	var file rulesFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("decode dedupe patterns: %w", err)
	}
	if len(file.Patterns) == 0 {
		return nil, fmt.Errorf("dedupe patterns file contains no patterns")
	}
	return file.Patterns, nil
}

// Resolver canonicalizes titles and collapses variants.
type Resolver struct {
	patterns []*regexp.Regexp
}

// NewResolver compiles the given rules; nil selects DefaultRules.
func NewResolver(rules []string) (*Resolver, error) {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	patterns := make([]*regexp.Regexp, 0, len(rules))
	for i, rule := range rules {
		re, err := regexp.Compile("(?i)" + rule)
		if err != nil {
			return nil, fmt.Errorf("dedupe pattern[%d]: %w", i, err)
		}
		patterns = append(patterns, re)
	}
	return &Resolver{patterns: patterns}, nil
}

// separatorReplacer folds localized separators into plain hyphens before
// matching.
var separatorReplacer = strings.NewReplacer("–", "-", "—", "-")

// Canonicalize strips known edition/suffix noise from the end of the title to
// produce a grouping key.
func (r *Resolver) Canonicalize(title string) string {
	key := strings.ToLower(strings.TrimSpace(title))
	key = separatorReplacer.Replace(key)

	for changed := true; changed; {
		changed = false
		for _, re := range r.patterns {
			stripped := re.ReplaceAllString(key, "")
			if stripped != key {
				key = strings.TrimRight(stripped, " :-")
				changed = true
			}
		}
	}
	return strings.TrimSpace(key)
}

// Dedupe collapses the already-ranked slice to the first (best-ranked) member
// per canonical title, preserving caller-supplied order. It never mutates
// storage.
func (r *Resolver) Dedupe(sorted []*domain.Game) []*domain.Game {
	if len(sorted) == 0 {
		return sorted
	}

	seen := make(map[string]struct{}, len(sorted))
	out := make([]*domain.Game, 0, len(sorted))
	for _, game := range sorted {
		key := r.Canonicalize(game.Title)
		if key == "" {
			key = game.Slug
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, game)
	}
	return out
}
