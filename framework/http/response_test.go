package http_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/km-arc/go-inject/framework/container"
	gohttp "github.com/km-arc/go-inject/framework/http"
)

// ── helpers ──────────────────────────────────────────────────────────────────

func newResponse(t *testing.T) (*gohttp.Response, *httptest.ResponseRecorder) {
	t.Helper()
	rr := httptest.NewRecorder()
	return gohttp.NewResponse(rr), rr
}

func decodeJSON(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&m); err != nil {
		t.Fatalf("decodeJSON: %v", err)
	}
	return m
}

// ── JSON ──────────────────────────────────────────────────────────────────────

func TestResponse_JSON(t *testing.T) {
	res, rr := newResponse(t)
	res.JSON(http.StatusOK, map[string]any{"key": "val"})

	if rr.Code != http.StatusOK {
		t.Errorf("status: got %d want 200", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q want application/json", ct)
	}
	m := decodeJSON(t, rr)
	if m["key"] != "val" {
		t.Errorf("body key: got %v want val", m["key"])
	}
}

func TestResponse_Success(t *testing.T) {
	res, rr := newResponse(t)
	res.Success(map[string]any{"id": float64(1)})

	if rr.Code != http.StatusOK {
		t.Errorf("status: got %d want 200", rr.Code)
	}
	m := decodeJSON(t, rr)
	data, ok := m["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected data envelope, got %T", m["data"])
	}
	if data["id"] != float64(1) {
		t.Errorf("data.id: got %v want 1", data["id"])
	}
}

// ── Error helpers ─────────────────────────────────────────────────────────────

func TestResponse_Error(t *testing.T) {
	res, rr := newResponse(t)
	res.Error(http.StatusBadRequest, "bad input")

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d want 400", rr.Code)
	}
	m := decodeJSON(t, rr)
	if m["message"] != "bad input" {
		t.Errorf("message: got %v want 'bad input'", m["message"])
	}
}

// ── Container errors ──────────────────────────────────────────────────────────

func TestResponse_ContainerError(t *testing.T) {
	c := container.New()
	_ = c.Set("a", container.Class("A", func(any) int { return 1 }, "b"))
	_ = c.Set("b", container.Class("B", func(any) int { return 2 }, "a"))
	_ = c.Set("needs", container.Class("Needs", func(any) int { return 3 }, "missing"))
	_ = c.Set("wants", container.Class("Wants", func(any) int { return 4 }, "$nowhere"))

	_, ghost := c.Get("ghost")
	_, param := c.Get("$ghost")
	_, missing := c.Get("needs")
	_, missingParam := c.Get("wants")
	_, cycle := c.Get("a")

	tests := []struct {
		name   string
		err    error
		status int
		trail  any
	}{
		{"not found", ghost, http.StatusNotFound, "ghost"},
		{"parameter not found", param, http.StatusNotFound, nil},
		{"missing dependency", missing, http.StatusInternalServerError, "needs -> missing"},
		{"missing parameter dependency", missingParam, http.StatusInternalServerError, "wants"},
		{"cycle", cycle, http.StatusInternalServerError, nil},
		{"other", errors.New("boom"), http.StatusInternalServerError, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, rr := newResponse(t)
			res.ContainerError(tt.err)

			if rr.Code != tt.status {
				t.Errorf("status: got %d want %d", rr.Code, tt.status)
			}
			m := decodeJSON(t, rr)
			if m["trail"] != tt.trail {
				t.Errorf("trail: got %v want %v", m["trail"], tt.trail)
			}
		})
	}
}
