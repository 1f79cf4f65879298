package http_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	gohttp "github.com/km-arc/go-inject/framework/http"
)

// ── helpers ──────────────────────────────────────────────────────────────────

func newGetRequest(t *testing.T, rawQuery string) *gohttp.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/?"+rawQuery, nil)
	return gohttp.NewRequest(req)
}

// ── Query ────────────────────────────────────────────────────────────────────

func TestRequest_QueryBool(t *testing.T) {
	tests := []struct {
		query string
		want  bool
	}{
		{"", false},
		{"resolve", true},
		{"resolve=", true},
		{"resolve=1", true},
		{"resolve=true", true},
		{"resolve=false", false},
		{"resolve=nope", false},
	}
	for _, tt := range tests {
		if got := newGetRequest(t, tt.query).QueryBool("resolve"); got != tt.want {
			t.Errorf("QueryBool(%q): got %v want %v", tt.query, got, tt.want)
		}
	}
}

// ── Route params ─────────────────────────────────────────────────────────────

func TestRequest_RouteParam(t *testing.T) {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("name", "mailer")
	raw := httptest.NewRequest(http.MethodGet, "/_container/services/mailer", nil)
	raw = raw.WithContext(context.WithValue(raw.Context(), chi.RouteCtxKey, rctx))

	req := gohttp.NewRequest(raw)
	if got := req.RouteParam("name"); got != "mailer" {
		t.Errorf("RouteParam name: got %q want %q", got, "mailer")
	}
	if got := req.RouteParam("missing"); got != "" {
		t.Errorf("RouteParam missing: got %q want empty", got)
	}
}
