package storage

import (
	"errors"
	"testing"

	"github.com/gamedex-hq/gamedex-catalog-sync/internal/domain"
)

func TestMemoryStoreMatchesBoltSemantics(t *testing.T) {
	store := NewMemoryStore()

	if err := store.Upsert(&domain.Game{ExternalID: 1, Title: "Foo", Slug: "foo", TotalRatingCount: votes(20)}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := store.Upsert(&domain.Game{ExternalID: 2, Title: "Foo!", Slug: "foo"}); !errors.Is(err, ErrSlugConflict) {
		t.Fatalf("expected ErrSlugConflict, got %v", err)
	}

	got, err := store.FindBySlug("foo")
	if err != nil || got == nil || got.ExternalID != 1 {
		t.Fatalf("FindBySlug = (%#v, %v)", got, err)
	}

	// Slug change releases the old index entry.
	if err := store.Upsert(&domain.Game{ExternalID: 1, Title: "Foo", Slug: "foo-renamed", TotalRatingCount: votes(20)}); err != nil {
		t.Fatalf("Upsert rename: %v", err)
	}
	if got, _ := store.FindBySlug("foo"); got != nil {
		t.Fatalf("old slug still resolves: %#v", got)
	}

	if err := store.Upsert(&domain.Game{ExternalID: 3, Title: "Low", Slug: "low", TotalRatingCount: votes(1)}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	removed, err := store.PurgeBelowVotes(10)
	if err != nil || removed != 1 {
		t.Fatalf("PurgeBelowVotes = (%d, %v), want (1, nil)", removed, err)
	}
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	store := NewMemoryStore()

	game := &domain.Game{ExternalID: 1, Title: "Foo", Slug: "foo", Genres: []string{"Adventure"}}
	if err := store.Upsert(game); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, err := store.FindByExternalID(1)
	if err != nil {
		t.Fatalf("FindByExternalID: %v", err)
	}
	got.Title = "Mutated"
	got.Genres[0] = "Mutated"

	again, err := store.FindByExternalID(1)
	if err != nil {
		t.Fatalf("FindByExternalID: %v", err)
	}
	if again.Title != "Foo" || again.Genres[0] != "Adventure" {
		t.Fatalf("stored aggregate leaked via returned pointer: %#v", again)
	}
}
