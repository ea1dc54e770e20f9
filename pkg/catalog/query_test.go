package catalog

import "testing"

func TestQueryBuildSearch(t *testing.T) {
	body := NewQuery().
		Fields("id", "name").
		Search("zelda").
		Limit(50).
		Offset(100).
		Build()

	want := `fields id,name; search "zelda"; limit 50; offset 100;`
	if body != want {
		t.Fatalf("Build = %q, want %q", body, want)
	}
}

func TestQueryBuildWhereAndSort(t *testing.T) {
	body := NewQuery().
		Fields("id").
		Where("total_rating_count >= 10").
		Where("total_rating >= 75").
		Sort("total_rating_count", "desc").
		Limit(500).
		Build()

	want := `fields id; where total_rating_count >= 10 & total_rating >= 75; sort total_rating_count desc; limit 500;`
	if body != want {
		t.Fatalf("Build = %q, want %q", body, want)
	}
}

func TestQueryBuildSkipsEmptyClauses(t *testing.T) {
	body := NewQuery().Fields("id").Where("  ").Build()
	if body != "fields id;" {
		t.Fatalf("Build = %q", body)
	}
}

func TestQueryEscapesSearchTerm(t *testing.T) {
	body := NewQuery().Search(`ze"lda\`).Build()
	want := `search "zelda";`
	if body != want {
		t.Fatalf("Build = %q, want %q", body, want)
	}
}
