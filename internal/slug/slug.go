package slug

import (
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Package slug allocates unique, URL-safe identifiers derived from titles.

const (
	// DefaultMaxProbes bounds suffix probing before the time-based fallback
	// kicks in.
	DefaultMaxProbes = 100

	fallbackTitle = "game"
)

// numericSuffixRe matches a slug ending in a bare numeric suffix, a heuristic
// signal that an external numeric id was previously embedded.
var numericSuffixRe = regexp.MustCompile(`^(.+)-(\d+)$`)

// InUse reports whether a candidate slug is taken and, if so, which external
// id owns it. Owner 0 means the owner is unknown.
type InUse func(candidate string) (owner int64, taken bool, err error)

// Allocator generates collision-free slugs.
type Allocator struct {
	maxProbes int
	now       func() time.Time
	jitter    func(n int) int
}

// New builds an allocator. maxProbes <= 0 selects DefaultMaxProbes; now may
// be nil for wall-clock time.
func New(maxProbes int, now func() time.Time) *Allocator {
	if maxProbes <= 0 {
		maxProbes = DefaultMaxProbes
	}
	if now == nil {
		now = time.Now
	}
	return &Allocator{
		maxProbes: maxProbes,
		now:       now,
		jitter:    rand.Intn,
	}
}

// Slugify transliterates a title to its lower-kebab-case slug candidate.
func Slugify(title string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	ascii, _, err := transform.String(t, title)
	if err != nil {
		ascii = title
	}

	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(ascii) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

// Generate derives a free slug for the title. A collision with the slug
// already owned by existingID is not a collision, so re-running Generate for
// the same aggregate is a no-op. Colliding candidates get an incrementing
// integer suffix starting at 2; after maxProbes attempts a time-plus-jitter
// suffix guarantees termination.
func (a *Allocator) Generate(title string, existingID int64, inUse InUse) (string, error) {
	base := Slugify(title)
	if base == "" {
		base = fallbackTitle
	}

	candidate := base
	for probe := 0; ; probe++ {
		owner, taken, err := inUse(candidate)
		if err != nil {
			return "", fmt.Errorf("check slug %q: %w", candidate, err)
		}
		if !taken || (existingID != 0 && owner == existingID) {
			return candidate, nil
		}
		if probe >= a.maxProbes {
			return fmt.Sprintf("%s-%d%03d", base, a.now().Unix(), a.jitter(1000)), nil
		}
		candidate = fmt.Sprintf("%s-%d", base, probe+2)
	}
}

// Cleanup strips a bare numeric suffix from the slug and re-derives a clean
// one against the stripped base. It returns the resulting slug and whether it
// differs from the input. Invoking it on an already-clean slug, or re-running
// it with no new collisions, is a no-op.
func (a *Allocator) Cleanup(current string, existingID int64, inUse InUse) (string, bool, error) {
	m := numericSuffixRe.FindStringSubmatch(current)
	if m == nil {
		return current, false, nil
	}

	base := m[1]
	slug, err := a.Generate(base, existingID, inUse)
	if err != nil {
		return current, false, err
	}
	return slug, slug != current, nil
}
