package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestTokenSourceCachesUntilTTL(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if got := r.URL.Query().Get("grant_type"); got != "client_credentials" {
			t.Errorf("grant_type = %q", got)
		}
		if got := r.URL.Query().Get("client_id"); got != "cid" {
			t.Errorf("client_id = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"tok-1","expires_in":3600}`))
	}))
	defer srv.Close()

	now := time.Unix(1700000000, 0)
	src := NewTokenSource(TokenOptions{
		AuthURL:      srv.URL,
		ClientID:     "cid",
		ClientSecret: "secret",
		TTL:          time.Hour,
		Now:          func() time.Time { return now },
	})

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		tok, err := src.Token(ctx)
		if err != nil {
			t.Fatalf("Token: %v", err)
		}
		if tok != "tok-1" {
			t.Fatalf("token = %q", tok)
		}
	}
	if calls != 1 {
		t.Fatalf("auth endpoint called %d times, want 1", calls)
	}

	// Past the TTL the source exchanges credentials again.
	now = now.Add(2 * time.Hour)
	if _, err := src.Token(ctx); err != nil {
		t.Fatalf("Token after expiry: %v", err)
	}
	if calls != 2 {
		t.Fatalf("auth endpoint called %d times after expiry, want 2", calls)
	}
}

func TestTokenSourceReturnsAuthError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"invalid client secret"}`, http.StatusForbidden)
	}))
	defer srv.Close()

	src := NewTokenSource(TokenOptions{
		AuthURL:      srv.URL,
		ClientID:     "cid",
		ClientSecret: "wrong",
	})

	_, err := src.Token(context.Background())
	if err == nil {
		t.Fatalf("expected error")
	}
	if !IsAuthError(err) {
		t.Fatalf("expected AuthError, got %T: %v", err, err)
	}
}

func TestTokenSourceRejectsEmptyToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"expires_in":3600}`))
	}))
	defer srv.Close()

	src := NewTokenSource(TokenOptions{AuthURL: srv.URL, ClientID: "cid", ClientSecret: "s"})
	if _, err := src.Token(context.Background()); !IsAuthError(err) {
		t.Fatalf("expected AuthError, got %v", err)
	}
}

func TestStaticToken(t *testing.T) {
	tok, err := StaticToken("fixed").Token(context.Background())
	if err != nil || tok != "fixed" {
		t.Fatalf("StaticToken = (%q, %v)", tok, err)
	}
}
