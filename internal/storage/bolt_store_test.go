package storage

import (
	"errors"
	"testing"

	"github.com/gamedex-hq/gamedex-catalog-sync/internal/domain"
)

func newTestBolt(t *testing.T) GameStore {
	t.Helper()
	store, err := openBolt(t.TempDir() + "/catalog.db")
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func votes(n int64) *int64 { return &n }

func TestBoltStoreUpsertAndFind(t *testing.T) {
	store := newTestBolt(t)

	game := &domain.Game{ExternalID: 42, Title: "Foo Bar", Slug: "foo-bar", TotalRatingCount: votes(100)}
	if err := store.Upsert(game); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, err := store.FindByExternalID(42)
	if err != nil {
		t.Fatalf("FindByExternalID: %v", err)
	}
	if got == nil || got.Title != "Foo Bar" {
		t.Fatalf("unexpected aggregate: %#v", got)
	}

	got, err = store.FindBySlug("foo-bar")
	if err != nil {
		t.Fatalf("FindBySlug: %v", err)
	}
	if got == nil || got.ExternalID != 42 {
		t.Fatalf("slug lookup returned %#v", got)
	}

	// Absent keys are (nil, nil), not errors.
	if got, err := store.FindByExternalID(99); err != nil || got != nil {
		t.Fatalf("absent id should be (nil, nil), got (%#v, %v)", got, err)
	}
	if got, err := store.FindBySlug("nope"); err != nil || got != nil {
		t.Fatalf("absent slug should be (nil, nil), got (%#v, %v)", got, err)
	}
}

func TestBoltStoreRejectsForeignSlug(t *testing.T) {
	store := newTestBolt(t)

	if err := store.Upsert(&domain.Game{ExternalID: 1, Title: "Foo", Slug: "foo"}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	err := store.Upsert(&domain.Game{ExternalID: 2, Title: "Foo!", Slug: "foo"})
	if !errors.Is(err, ErrSlugConflict) {
		t.Fatalf("expected ErrSlugConflict, got %v", err)
	}

	// Re-upserting the owner under its own slug is fine.
	if err := store.Upsert(&domain.Game{ExternalID: 1, Title: "Foo v2", Slug: "foo"}); err != nil {
		t.Fatalf("owner re-upsert: %v", err)
	}
}

func TestBoltStoreReindexesOnSlugChange(t *testing.T) {
	store := newTestBolt(t)

	if err := store.Upsert(&domain.Game{ExternalID: 5, Title: "Persona", Slug: "persona-5"}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := store.Upsert(&domain.Game{ExternalID: 5, Title: "Persona", Slug: "persona"}); err != nil {
		t.Fatalf("Upsert with new slug: %v", err)
	}

	// The old slug is released and may be claimed by someone else.
	if err := store.Upsert(&domain.Game{ExternalID: 6, Title: "Other", Slug: "persona-5"}); err != nil {
		t.Fatalf("claiming released slug: %v", err)
	}
	got, err := store.FindBySlug("persona")
	if err != nil || got == nil || got.ExternalID != 5 {
		t.Fatalf("new slug lookup = (%#v, %v)", got, err)
	}
}

func TestBoltStorePurgeBelowVotes(t *testing.T) {
	store := newTestBolt(t)

	seed := []*domain.Game{
		{ExternalID: 1, Title: "Keep", Slug: "keep", TotalRatingCount: votes(50)},
		{ExternalID: 2, Title: "Drop", Slug: "drop", TotalRatingCount: votes(3)},
		{ExternalID: 3, Title: "Unrated", Slug: "unrated"},
	}
	for _, g := range seed {
		if err := store.Upsert(g); err != nil {
			t.Fatalf("Upsert %s: %v", g.Slug, err)
		}
	}

	removed, err := store.PurgeBelowVotes(10)
	if err != nil {
		t.Fatalf("PurgeBelowVotes: %v", err)
	}
	if removed != 2 {
		t.Fatalf("removed %d, want 2", removed)
	}

	games, err := store.Games()
	if err != nil {
		t.Fatalf("Games: %v", err)
	}
	if len(games) != 1 || games[0].Slug != "keep" {
		t.Fatalf("unexpected survivors: %#v", games)
	}

	// Purged slugs are released.
	if err := store.Upsert(&domain.Game{ExternalID: 4, Title: "New Drop", Slug: "drop"}); err != nil {
		t.Fatalf("reusing purged slug: %v", err)
	}
}

func TestBoltStoreValidatesInput(t *testing.T) {
	store := newTestBolt(t)

	if err := store.Upsert(nil); err == nil {
		t.Fatalf("expected error for nil game")
	}
	if err := store.Upsert(&domain.Game{ExternalID: 0, Slug: "x"}); err == nil {
		t.Fatalf("expected error for zero external id")
	}
	if err := store.Upsert(&domain.Game{ExternalID: 1}); err == nil {
		t.Fatalf("expected error for empty slug")
	}
}

func TestNewStoreSelectsBackend(t *testing.T) {
	store, err := NewStore("memory", "")
	if err != nil {
		t.Fatalf("NewStore memory: %v", err)
	}
	store.Close()

	if _, err := NewStore("bbolt", ""); err == nil {
		t.Fatalf("bbolt without path should fail")
	}
	if _, err := NewStore("cassandra", ""); err == nil {
		t.Fatalf("unsupported type should fail")
	}

	store, err = NewStore("bbolt", t.TempDir()+"/db/catalog.db")
	if err != nil {
		t.Fatalf("NewStore bbolt: %v", err)
	}
	store.Close()
}
