package catalog

import (
	"fmt"
	"strings"
)

// Query builds request bodies for the upstream POST query language
// (`fields`, `search`/`where`, `sort`, `limit`, `offset`).
type Query struct {
	fields []string
	search string
	where  []string
	sort   string
	limit  int
	offset int
}

// NewQuery returns an empty query builder.
func NewQuery() *Query {
	return &Query{}
}

// Fields sets the field projection.
func (q *Query) Fields(fields ...string) *Query {
	q.fields = fields
	return q
}

// Search sets the free-text search term. Search and Where are mutually
// exclusive upstream; the last Build wins on whatever was set.
func (q *Query) Search(term string) *Query {
	q.search = term
	return q
}

// Where appends a filter condition. Conditions are joined with `&`.
func (q *Query) Where(cond string) *Query {
	cond = strings.TrimSpace(cond)
	if cond != "" {
		q.where = append(q.where, cond)
	}
	return q
}

// Sort sets the sort clause, e.g. ("total_rating", "desc").
func (q *Query) Sort(field, direction string) *Query {
	q.sort = strings.TrimSpace(field + " " + direction)
	return q
}

// Limit caps the page size.
func (q *Query) Limit(n int) *Query {
	q.limit = n
	return q
}

// Offset sets the page offset.
func (q *Query) Offset(n int) *Query {
	q.offset = n
	return q
}

// Build renders the query body.
func (q *Query) Build() string {
	var b strings.Builder
	if len(q.fields) > 0 {
		fmt.Fprintf(&b, "fields %s; ", strings.Join(q.fields, ","))
	}
	if q.search != "" {
		fmt.Fprintf(&b, "search %q; ", escapeTerm(q.search))
	}
	if len(q.where) > 0 {
		fmt.Fprintf(&b, "where %s; ", strings.Join(q.where, " & "))
	}
	if q.sort != "" {
		fmt.Fprintf(&b, "sort %s; ", q.sort)
	}
	if q.limit > 0 {
		fmt.Fprintf(&b, "limit %d; ", q.limit)
	}
	if q.offset > 0 {
		fmt.Fprintf(&b, "offset %d; ", q.offset)
	}
	return strings.TrimSpace(b.String())
}

// escapeTerm strips quote characters that would break out of the search literal.
func escapeTerm(term string) string {
	term = strings.ReplaceAll(term, `"`, "")
	return strings.ReplaceAll(term, `\`, "")
}

// recordFields is the projection requested for every game query.
var recordFields = []string{
	"id",
	"name",
	"first_release_date",
	"total_rating",
	"total_rating_count",
	"category",
	"cover.url",
	"screenshots.url",
	"artworks.url",
	"videos.video_id",
	"videos.name",
	"genres.name",
	"platforms.name",
	"game_modes.name",
	"player_perspectives.name",
	"involved_companies.company.name",
	"involved_companies.developer",
	"involved_companies.publisher",
	"alternative_names.name",
	"age_ratings.category",
	"age_ratings.rating",
}
