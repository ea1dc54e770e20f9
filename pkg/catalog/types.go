package catalog

import "time"

// Wire types for the upstream catalog API. Records come back as JSON arrays
// with nested reference sub-objects for genres, platforms, companies and
// media.

// NamedRef is a nested reference object carrying an id and display name.
type NamedRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Image is a nested media reference with an upstream-hosted URL.
type Image struct {
	ID  int64  `json:"id"`
	URL string `json:"url"`
}

// VideoRef is a nested video reference keyed by the hosting site's video id.
type VideoRef struct {
	ID      int64  `json:"id"`
	VideoID string `json:"video_id"`
	Name    string `json:"name"`
}

// CompanyRef links a company to a record with its role flags.
type CompanyRef struct {
	Company   NamedRef `json:"company"`
	Developer bool     `json:"developer"`
	Publisher bool     `json:"publisher"`
}

// AgeRatingRef is a nested age rating classification (organization + rating enum).
type AgeRatingRef struct {
	Organization int `json:"category"`
	Rating       int `json:"rating"`
}

// RawRecord is one game record as returned by the upstream query endpoint.
type RawRecord struct {
	ID               int64    `json:"id"`
	Name             string   `json:"name"`
	FirstReleaseDate int64    `json:"first_release_date"`
	TotalRating      *float64 `json:"total_rating"`
	TotalRatingCount *int64   `json:"total_rating_count"`
	Category         int      `json:"category"`

	Cover       *Image     `json:"cover"`
	Screenshots []Image    `json:"screenshots"`
	Artworks    []Image    `json:"artworks"`
	Videos      []VideoRef `json:"videos"`

	Genres             []NamedRef     `json:"genres"`
	Platforms          []NamedRef     `json:"platforms"`
	GameModes          []NamedRef     `json:"game_modes"`
	PlayerPerspectives []NamedRef     `json:"player_perspectives"`
	InvolvedCompanies  []CompanyRef   `json:"involved_companies"`
	AlternativeNames   []NamedRef     `json:"alternative_names"`
	AgeRatings         []AgeRatingRef `json:"age_ratings"`

	// Derived holds the locally computed multi-axis rating view. It is not
	// part of the wire format.
	Derived map[string]float64 `json:"-"`
}

// ReleaseDate converts the upstream unix timestamp to a time, if set.
func (r RawRecord) ReleaseDate() *time.Time {
	if r.FirstReleaseDate <= 0 {
		return nil
	}
	t := time.Unix(r.FirstReleaseDate, 0).UTC()
	return &t
}

// DeveloperName returns the first company flagged as developer, if any.
func (r RawRecord) DeveloperName() string {
	for _, c := range r.InvolvedCompanies {
		if c.Developer {
			return c.Company.Name
		}
	}
	return ""
}

// PublisherName returns the first company flagged as publisher, if any.
func (r RawRecord) PublisherName() string {
	for _, c := range r.InvolvedCompanies {
		if c.Publisher {
			return c.Company.Name
		}
	}
	return ""
}

// Age rating organizations used by the upstream catalog.
const (
	ageOrgESRB = 1
	ageOrgPEGI = 2
)

var esrbLabels = map[int]string{
	6:  "E",
	7:  "E10",
	8:  "T",
	9:  "M",
	10: "AO",
	11: "RP",
}

var pegiLabels = map[int]string{
	1: "3",
	2: "7",
	3: "12",
	4: "16",
	5: "18",
}

// AgeRatingLabel resolves a display label, preferring PEGI over ESRB.
func (r RawRecord) AgeRatingLabel() string {
	var esrb string
	for _, ar := range r.AgeRatings {
		switch ar.Organization {
		case ageOrgPEGI:
			if label, ok := pegiLabels[ar.Rating]; ok {
				return "PEGI " + label
			}
		case ageOrgESRB:
			if label, ok := esrbLabels[ar.Rating]; ok && esrb == "" {
				esrb = "ESRB " + label
			}
		}
	}
	return esrb
}

// Names flattens nested references to their display names, dropping blanks.
func Names(refs []NamedRef) []string {
	if len(refs) == 0 {
		return nil
	}
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		if ref.Name == "" {
			continue
		}
		out = append(out, ref.Name)
	}
	return out
}
