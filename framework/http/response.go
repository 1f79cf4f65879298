package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/km-arc/go-inject/framework/container"
)

// ── Response ─────────────────────────────────────────────────────────────────

// Response wraps http.ResponseWriter with Laravel-style helpers.
type Response struct {
	w http.ResponseWriter
}

// NewResponse wraps a ResponseWriter.
func NewResponse(w http.ResponseWriter) *Response {
	return &Response{w: w}
}

// ── JSON responses ────────────────────────────────────────────────────────────

// JSON sends a JSON response.
//
//	res.JSON(http.StatusOK, map[string]any{"message": "ok"})
func (res *Response) JSON(status int, data any) {
	res.w.Header().Set("Content-Type", "application/json")
	res.w.WriteHeader(status)
	_ = json.NewEncoder(res.w).Encode(data)
}

// Success sends 200 JSON: {"data": v}
func (res *Response) Success(v any) {
	res.JSON(http.StatusOK, envelope{"data": v})
}

// Error sends a JSON error response.
//
//	res.Error(http.StatusNotFound, "Resource not found")
func (res *Response) Error(status int, message string) {
	res.JSON(status, envelope{"message": message})
}

// ContainerError maps a container error to a response:
//
//	requested service or parameter missing        → 404
//	missing dependency of the requested service   → 500 with the trail
//	CircularDependencyError and everything else   → 500
func (res *Response) ContainerError(err error) {
	body := envelope{"message": err.Error()}
	var resolution *container.ResolutionError
	if errors.As(err, &resolution) {
		body["trail"] = resolution.Trail()
	}

	var circular *container.CircularDependencyError
	switch {
	case errors.As(err, &circular):
		body["cycle"] = circular.Stack
		res.JSON(http.StatusInternalServerError, body)
	case missingRequested(err, resolution):
		res.JSON(http.StatusNotFound, body)
	default:
		res.JSON(http.StatusInternalServerError, body)
	}
}

// missingRequested reports whether err is about the requested name itself
// rather than one of its dependencies.
func missingRequested(err error, resolution *container.ResolutionError) bool {
	var (
		notFound *container.ServiceNotFoundError
		noParam  *container.ParameterNotFoundError
	)
	switch {
	case errors.As(err, &notFound):
		if resolution == nil {
			return true
		}
		return len(resolution.Stack) == 1 && resolution.Stack[0] == notFound.Name
	case errors.As(err, &noParam):
		return resolution == nil
	}
	return false
}

// ── Helpers ──────────────────────────────────────────────────────────────────

type envelope map[string]any
