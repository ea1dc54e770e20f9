package jobs

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeRegistry(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write registry file: %v", err)
	}
	return path
}

func TestLoadRegistryYAML(t *testing.T) {
	path := writeRegistry(t, "jobs.yaml", `
jobs:
  - id: quality-sweep
    name: Quality sweep
    type: Sweep
    sweep:
      min_votes: 80
      min_rating: 70
      since_hours: 24
      limit: 500
  - id: named-titles
    type: search
    enabled: false
    search:
      max_results: 25
      terms:
        - "  Zelda  "
        - ""
  - id: purge
    type: purge
    purge:
      min_votes: 5
`)

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	if len(reg.All()) != 3 {
		t.Fatalf("loaded %d jobs, want 3", len(reg.All()))
	}

	job, ok := reg.ByID("quality-sweep")
	if !ok {
		t.Fatalf("quality-sweep not indexed")
	}
	if job.Type != TypeSweep {
		t.Fatalf("type not normalized: %q", job.Type)
	}
	if got := job.Sweep.SinceWindow(); got != 24*time.Hour {
		t.Fatalf("SinceWindow = %v", got)
	}

	search, _ := reg.ByID("named-titles")
	if len(search.Search.Terms) != 1 || search.Search.Terms[0] != "Zelda" {
		t.Fatalf("terms not sanitized: %#v", search.Search.Terms)
	}

	enabled := reg.Enabled()
	if len(enabled) != 2 {
		t.Fatalf("enabled = %d jobs, want 2", len(enabled))
	}
	for _, j := range enabled {
		if j.ID == "named-titles" {
			t.Fatalf("disabled job reported as enabled")
		}
	}
}

func TestLoadRegistryJSON(t *testing.T) {
	path := writeRegistry(t, "jobs.json", `{"jobs":[{"id":"p","type":"purge","purge":{"min_votes":3}}]}`)
	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	if _, ok := reg.ByID("p"); !ok {
		t.Fatalf("job not loaded from JSON")
	}
}

func TestLoadRegistryRejectsDuplicateIDs(t *testing.T) {
	path := writeRegistry(t, "jobs.yaml", `
jobs:
  - id: dup
    type: purge
    purge: {min_votes: 1}
  - id: dup
    type: purge
    purge: {min_votes: 2}
`)
	if _, err := LoadRegistry(path); err == nil {
		t.Fatalf("expected duplicate id error")
	}
}

func TestLoadRegistryValidation(t *testing.T) {
	cases := map[string]string{
		"missing id":        "jobs:\n  - type: purge\n    purge: {min_votes: 1}\n",
		"missing type":      "jobs:\n  - id: a\n",
		"unknown type":      "jobs:\n  - id: a\n    type: resync\n",
		"sweep sans config": "jobs:\n  - id: a\n    type: sweep\n",
		"rating over 100":   "jobs:\n  - id: a\n    type: sweep\n    sweep: {min_rating: 150}\n",
		"search sans terms": "jobs:\n  - id: a\n    type: search\n    search: {max_results: 5}\n",
		"purge zero votes":  "jobs:\n  - id: a\n    type: purge\n    purge: {min_votes: 0}\n",
		"empty registry":    "jobs: []\n",
	}
	for name, content := range cases {
		path := writeRegistry(t, "jobs.yaml", content)
		if _, err := LoadRegistry(path); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestLoadRegistryMissingFile(t *testing.T) {
	if _, err := LoadRegistry(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
	if _, err := LoadRegistry("  "); err == nil {
		t.Fatalf("expected error for blank path")
	}
}
