package catalog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/gamedex-hq/gamedex-catalog-sync/pkg/httpclient"
)

// TokenProvider yields a bearer credential for outbound catalog calls.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// defaultTokenTTL bounds how long an acquired token is reused before a fresh
// client-credentials exchange.
const defaultTokenTTL = time.Hour

// TokenOptions configures the client-credentials token source.
type TokenOptions struct {
	AuthURL      string
	ClientID     string
	ClientSecret string
	TTL          time.Duration
	Timeout      time.Duration

	// Now is injectable for deterministic TTL checks in tests.
	Now func() time.Time
}

// tokenSource caches one token per instance. Refresh is guarded by a mutex so
// concurrent callers trigger at most one exchange.
type tokenSource struct {
	opts TokenOptions
	http *resty.Client
	now  func() time.Time

	mu         sync.Mutex
	token      string
	acquiredAt time.Time
}

// NewTokenSource builds a TokenProvider performing client-credentials
// exchanges against the upstream auth endpoint.
func NewTokenSource(opts TokenOptions) TokenProvider {
	if opts.TTL <= 0 {
		opts.TTL = defaultTokenTTL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &tokenSource{
		opts: opts,
		http: httpclient.NewRestyHTTPClient(opts.Timeout),
		now:  now,
	}
}

// tokenResponse is the upstream auth endpoint payload.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// Token returns the cached token while it is younger than the TTL, otherwise
// exchanges credentials for a fresh one. Acquisition failures are returned as
// AuthError and are not retried here.
func (t *tokenSource) Token(ctx context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.token != "" && t.now().Sub(t.acquiredAt) < t.opts.TTL {
		return t.token, nil
	}

	var payload tokenResponse
	resp, err := t.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"client_id":     t.opts.ClientID,
			"client_secret": t.opts.ClientSecret,
			"grant_type":    "client_credentials",
		}).
		SetResult(&payload).
		Post(t.opts.AuthURL)
	if err != nil {
		return "", &AuthError{Op: "exchange credentials", Err: err}
	}
	if resp.IsError() {
		return "", &AuthError{
			Op:  "exchange credentials",
			Err: fmt.Errorf("status %d: %s", resp.StatusCode(), responseSnippet(resp.Body())),
		}
	}
	if payload.AccessToken == "" {
		return "", &AuthError{Op: "exchange credentials", Err: fmt.Errorf("empty access_token in response")}
	}

	t.token = payload.AccessToken
	t.acquiredAt = t.now()
	return t.token, nil
}

// StaticToken returns a TokenProvider that always yields the same credential.
// Intended for tests.
func StaticToken(token string) TokenProvider {
	return staticToken(token)
}

type staticToken string

func (s staticToken) Token(context.Context) (string, error) { return string(s), nil }
