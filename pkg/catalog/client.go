package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker/v2"

	"github.com/gamedex-hq/gamedex-catalog-sync/internal/logger"
	"github.com/gamedex-hq/gamedex-catalog-sync/pkg/httpclient"
)

const (
	gamesEndpoint = "/games"

	defaultPageSize  = 50
	defaultPageDelay = 300 * time.Millisecond
	maxListLimit     = 500
)

// Options configures the catalog client.
type Options struct {
	BaseURL   string
	ClientID  string
	Tokens    TokenProvider
	Timeout   time.Duration
	PageSize  int
	PageDelay time.Duration
	Weights   RatingWeights
}

// Client provides paginated access to the upstream catalog query endpoint.
type Client struct {
	base      string
	clientID  string
	tokens    TokenProvider
	http      *resty.Client
	cb        *gobreaker.CircuitBreaker[*resty.Response]
	log       logger.Logger
	pageSize  int
	pageDelay time.Duration
	weights   RatingWeights
}

// Criteria selects records for a bulk listing pass.
type Criteria struct {
	MinVotes  int64
	MinRating float64
	Since     *time.Time
	Limit     int
}

// New builds a catalog client.
func New(opts Options, log logger.Logger) *Client {
	if log == nil {
		log = &logger.NopLogger{}
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.PageSize <= 0 {
		opts.PageSize = defaultPageSize
	}
	if opts.PageDelay <= 0 {
		opts.PageDelay = defaultPageDelay
	}
	if len(opts.Weights.Genres) == 0 && len(opts.Weights.Platforms) == 0 && len(opts.Weights.Categories) == 0 {
		opts.Weights = DefaultRatingWeights()
	}

	http := httpclient.NewRestyHTTPClient(opts.Timeout)

	cb := gobreaker.NewCircuitBreaker[*resty.Response](gobreaker.Settings{
		Name: "catalog",
	})

	return &Client{
		base:      strings.TrimRight(opts.BaseURL, "/"),
		clientID:  opts.ClientID,
		tokens:    opts.Tokens,
		http:      http,
		cb:        cb,
		log:       log,
		pageSize:  opts.PageSize,
		pageDelay: opts.PageDelay,
		weights:   opts.Weights,
	}
}

// Search fetches a single page of records matching the free-text query.
func (c *Client) Search(ctx context.Context, query string, limit, offset int) ([]RawRecord, error) {
	if limit <= 0 || limit > maxListLimit {
		limit = c.pageSize
	}
	body := NewQuery().
		Fields(recordFields...).
		Search(query).
		Limit(limit).
		Offset(offset).
		Build()

	records, err := c.query(ctx, "search", body)
	if err != nil {
		return nil, err
	}
	c.normalize(records)
	return records, nil
}

// SearchAll pages through search results with a fixed inter-page delay until
// a short page, maxResults, or the first page failure. On a mid-sequence
// failure it returns whatever was accumulated so far; this is a partial-result
// policy, not a retry policy.
func (c *Client) SearchAll(ctx context.Context, query string, maxResults int) ([]RawRecord, error) {
	var out []RawRecord
	offset := 0

	for {
		limit := c.pageSize
		if maxResults > 0 && maxResults-len(out) < limit {
			limit = maxResults - len(out)
		}
		if limit <= 0 {
			return out, nil
		}

		page, err := c.Search(ctx, query, limit, offset)
		if err != nil {
			if len(out) == 0 {
				return nil, err
			}
			c.log.WarnObj("search pagination aborted, returning partial results", "search_partial", map[string]any{
				"query":       query,
				"accumulated": len(out),
				"error":       err.Error(),
			})
			return out, nil
		}

		out = append(out, page...)
		if len(page) < limit {
			return out, nil
		}
		if maxResults > 0 && len(out) >= maxResults {
			return out[:maxResults], nil
		}

		offset += len(page)
		if err := sleepCtx(ctx, c.pageDelay); err != nil {
			return out, nil
		}
	}
}

// ListByCriteria performs a bulk listing with server-side quality/recency
// filters. The upstream numeric filter is not trusted alone: the rating
// threshold is re-validated client-side before a record is accepted.
func (c *Client) ListByCriteria(ctx context.Context, crit Criteria) ([]RawRecord, error) {
	limit := crit.Limit
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}

	q := NewQuery().
		Fields(recordFields...).
		Where(fmt.Sprintf("total_rating_count >= %d", crit.MinVotes)).
		Where(fmt.Sprintf("total_rating >= %g", crit.MinRating)).
		Sort("total_rating_count", "desc").
		Limit(limit)
	if crit.Since != nil {
		q.Where(fmt.Sprintf("updated_at > %d", crit.Since.Unix()))
	}

	records, err := c.query(ctx, "list by criteria", q.Build())
	if err != nil {
		return nil, err
	}

	accepted := make([]RawRecord, 0, len(records))
	for _, rec := range records {
		if rec.TotalRating == nil || *rec.TotalRating < crit.MinRating {
			continue
		}
		accepted = append(accepted, rec)
	}
	c.normalize(accepted)
	return accepted, nil
}

// GetDetails fetches a single record by its external id.
func (c *Client) GetDetails(ctx context.Context, externalID int64) (*RawRecord, error) {
	body := NewQuery().
		Fields(recordFields...).
		Where(fmt.Sprintf("id = %d", externalID)).
		Limit(1).
		Build()

	records, err := c.query(ctx, "get details", body)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNotFound
	}
	rec := records[0]
	normalizeRecord(&rec, c.weights)
	return &rec, nil
}

// query posts a query-language body to the games endpoint and decodes the
// result array. All failures surface as AuthError or TransportError.
func (c *Client) query(ctx context.Context, op, body string) ([]RawRecord, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := c.cb.Execute(func() (*resty.Response, error) {
		return c.http.R().
			SetContext(ctx).
			SetHeader("Client-ID", c.clientID).
			SetHeader("Authorization", "Bearer "+token).
			SetHeader("Accept", "application/json").
			SetBody(body).
			Post(c.base + gamesEndpoint)
	})
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	if resp.IsError() {
		return nil, &TransportError{
			Op:     op,
			Status: resp.StatusCode(),
			Err:    fmt.Errorf("body: %s", responseSnippet(resp.Body())),
		}
	}

	var records []RawRecord
	if err := json.Unmarshal(resp.Body(), &records); err != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return records, nil
}

// normalize upgrades media URLs and attaches the derived rating view in place.
func (c *Client) normalize(records []RawRecord) {
	for i := range records {
		normalizeRecord(&records[i], c.weights)
	}
}

func normalizeRecord(rec *RawRecord, weights RatingWeights) {
	if rec.Cover != nil {
		rec.Cover.URL = ImproveImageQuality(rec.Cover.URL, SizeCoverBig)
	}
	for i := range rec.Screenshots {
		rec.Screenshots[i].URL = ImproveImageQuality(rec.Screenshots[i].URL, SizeScreenshotBig)
	}
	for i := range rec.Artworks {
		rec.Artworks[i].URL = ImproveImageQuality(rec.Artworks[i].URL, Size1080p)
	}
	rec.Derived = DerivedRatings(*rec, weights)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func responseSnippet(body []byte) string {
	const maxLen = 512
	s := strings.TrimSpace(string(body))
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	if s == "" {
		return "<empty>"
	}
	return s
}
