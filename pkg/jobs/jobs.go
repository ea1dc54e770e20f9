package jobs

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Package jobs contains the declarative sync job registry (YAML/JSON).
// A job selects the criteria for one import or maintenance pass.

const (
	// Supported job types.
	TypeSweep  = "sweep"
	TypeSearch = "search"
	TypePurge  = "purge"
)

// Job is a single registry entry.
type Job struct {
	ID      string     `json:"id" yaml:"id"`
	Name    string     `json:"name" yaml:"name"`
	Type    string     `json:"type" yaml:"type"`
	Enabled *bool      `json:"enabled" yaml:"enabled"`
	Sweep   *SweepJob  `json:"sweep" yaml:"sweep"`
	Search  *SearchJob `json:"search" yaml:"search"`
	Purge   *PurgeJob  `json:"purge" yaml:"purge"`
}

// SweepJob imports records passing quality thresholds, optionally limited to
// a recency window.
type SweepJob struct {
	MinVotes   int64   `json:"min_votes" yaml:"min_votes"`
	MinRating  float64 `json:"min_rating" yaml:"min_rating"`
	SinceHours int     `json:"since_hours" yaml:"since_hours"`
	Limit      int     `json:"limit" yaml:"limit"`
}

// SinceWindow returns the recency window duration, if configured.
func (s *SweepJob) SinceWindow() time.Duration {
	if s == nil || s.SinceHours <= 0 {
		return 0
	}
	return time.Duration(s.SinceHours) * time.Hour
}

// SearchJob imports the results of one or more named search terms. Acts as a
// safety net for titles a sweep may miss.
type SearchJob struct {
	Terms      []string `json:"terms" yaml:"terms"`
	MaxResults int      `json:"max_results" yaml:"max_results"`
}

// PurgeJob removes aggregates below the vote threshold.
type PurgeJob struct {
	MinVotes int64 `json:"min_votes" yaml:"min_votes"`
}

// Registry materializes job definitions loaded from config files.
type Registry struct {
	mu   sync.RWMutex
	jobs []Job
	idx  map[string]Job
}

// registryFile is the on-disk shape.
type registryFile struct {
	Jobs []Job `json:"jobs" yaml:"jobs"`
}

// LoadRegistry loads the job registry from a YAML/JSON file.
func LoadRegistry(path string) (*Registry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("jobs file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open jobs file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read jobs file: %w", err)
	}

	parsed, err := parseRegistry(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	if len(parsed.Jobs) == 0 {
		return nil, errors.New("jobs file contains no jobs entries")
	}

	reg := &Registry{
		jobs: make([]Job, len(parsed.Jobs)),
		idx:  make(map[string]Job, len(parsed.Jobs)),
	}
	for i := range parsed.Jobs {
		job := sanitizeJob(parsed.Jobs[i])
		if err := validateJob(job); err != nil {
			return nil, fmt.Errorf("jobs[%d]: %w", i, err)
		}
		if _, exists := reg.idx[job.ID]; exists {
			return nil, fmt.Errorf("duplicate job id %q", job.ID)
		}
		reg.jobs[i] = job
		reg.idx[job.ID] = job
	}

	return reg, nil
}

func parseRegistry(data []byte, ext string) (registryFile, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))
	decoders := []struct {
		name string
		ext  string
		fn   func([]byte, any) error
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		var reg registryFile
		if err := d.fn(data, &reg); err == nil {
			return reg, nil
		}
	}

	return registryFile{}, errors.New("jobs file format not recognized (expected YAML or JSON)")
}

func sanitizeJob(job Job) Job {
	job.ID = strings.TrimSpace(job.ID)
	job.Name = strings.TrimSpace(job.Name)
	job.Type = strings.ToLower(strings.TrimSpace(job.Type))

	if job.Enabled == nil {
		def := true
		job.Enabled = &def
	}
	if job.Search != nil {
		c := *job.Search
		terms := make([]string, 0, len(c.Terms))
		for _, term := range c.Terms {
			if t := strings.TrimSpace(term); t != "" {
				terms = append(terms, t)
			}
		}
		c.Terms = terms
		job.Search = &c
	}
	return job
}

func validateJob(job Job) error {
	if job.ID == "" {
		return errors.New("id is required")
	}
	if job.Type == "" {
		return fmt.Errorf("type is required for job %q", job.ID)
	}
	switch job.Type {
	case TypeSweep:
		if job.Sweep == nil {
			return fmt.Errorf("sweep config required for job %q", job.ID)
		}
		if job.Sweep.MinVotes < 0 || job.Sweep.MinRating < 0 || job.Sweep.MinRating > 100 {
			return fmt.Errorf("sweep thresholds out of range for job %q", job.ID)
		}
	case TypeSearch:
		if job.Search == nil || len(job.Search.Terms) == 0 {
			return fmt.Errorf("search terms required for job %q", job.ID)
		}
	case TypePurge:
		if job.Purge == nil || job.Purge.MinVotes <= 0 {
			return fmt.Errorf("purge.min_votes required for job %q", job.ID)
		}
	default:
		return fmt.Errorf("unsupported type %q for job %q", job.Type, job.ID)
	}
	return nil
}

// EnabledValue returns the enabled flag defaulting to true.
func (j Job) EnabledValue() bool {
	if j.Enabled == nil {
		return true
	}
	return *j.Enabled
}

// All returns all configured jobs.
func (r *Registry) All() []Job {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Job, len(r.jobs))
	copy(out, r.jobs)
	return out
}

// Enabled returns jobs that are enabled.
func (r *Registry) Enabled() []Job {
	all := r.All()
	if len(all) == 0 {
		return nil
	}
	out := make([]Job, 0, len(all))
	for _, job := range all {
		if job.EnabledValue() {
			out = append(out, job)
		}
	}
	return out
}

// ByID returns the job with the given id, if loaded.
func (r *Registry) ByID(id string) (Job, bool) {
	if r == nil {
		return Job{}, false
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return Job{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.idx[id]
	return job, ok
}
