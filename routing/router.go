package routing

import (
	"fmt"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/km-arc/go-inject/framework/container"
	"github.com/km-arc/go-inject/framework/log"
)

// Router wraps chi.Router with Laravel-style helpers.
//
// Registering the same pattern again does not replace the route: the new
// methods and handlers are appended to it. Handlers run in order until one
// of them writes a response.
type Router struct {
	mux       chi.Router
	container *container.Container
	table     *table
}

// Route is a snapshot of one registered pattern.
type Route struct {
	Pattern  string
	Methods  []string
	Handlers []any
}

// Option configures a Router.
type Option func(*Router)

// WithContainer lets handlers be given as service names, resolved from c on
// every request.
//
//	r.Get("/reports", "reports.handler")
func WithContainer(c *container.Container) Option {
	return func(r *Router) { r.container = c }
}

// New creates a Router with sane defaults (RequestID, RealIP, request
// logging, Recoverer).
func New(opts ...Option) *Router {
	mx := chi.NewRouter()
	mx.Use(middleware.RequestID)
	mx.Use(middleware.RealIP)
	mx.Use(requestLogger)
	mx.Use(middleware.Recoverer)

	r := &Router{mux: mx, table: &table{routes: make(map[string]*route)}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ── HTTP verbs ───────────────────────────────────────────────────────────────

func (r *Router) Get(pattern string, h ...any)    { r.Match([]string{http.MethodGet}, pattern, h...) }
func (r *Router) Post(pattern string, h ...any)   { r.Match([]string{http.MethodPost}, pattern, h...) }
func (r *Router) Put(pattern string, h ...any)    { r.Match([]string{http.MethodPut}, pattern, h...) }
func (r *Router) Patch(pattern string, h ...any)  { r.Match([]string{http.MethodPatch}, pattern, h...) }
func (r *Router) Delete(pattern string, h ...any) { r.Match([]string{http.MethodDelete}, pattern, h...) }

// Match registers handlers for pattern under methods. Each handler is an
// http.Handler, a func(http.ResponseWriter, *http.Request), or a service
// name when the router has a container. Anything else panics.
//
//	r.Match([]string{"GET", "HEAD"}, "/health", healthHandler)
func (r *Router) Match(methods []string, pattern string, handlers ...any) {
	for _, h := range handlers {
		if !r.acceptable(h) {
			panic(fmt.Sprintf("routing: unsupported handler %T for %s", h, pattern))
		}
	}

	rt, added := r.table.merge(r.mux, pattern, methods, handlers)
	for _, m := range added {
		r.mux.Method(m, pattern, r.dispatcher(rt))
	}
	log.Debug(log.CatHTTP, "route registered", "pattern", pattern, "methods", methods, "handlers", len(handlers))
}

func (r *Router) acceptable(h any) bool {
	switch h.(type) {
	case http.Handler, func(http.ResponseWriter, *http.Request):
		return true
	case string:
		return r.container != nil
	}
	return false
}

// ── Prefixes ──────────────────────────────────────────────────────────────────

// Prefix creates a sub-router with a URL prefix. Laravel: Route::prefix('/api')
func (r *Router) Prefix(pattern string, fn func(r *Router)) {
	r.mux.Route(pattern, func(mx chi.Router) {
		fn(&Router{mux: mx, container: r.container, table: r.table})
	})
}

// ── Middleware ───────────────────────────────────────────────────────────────

// Middleware adds one or more middleware to the router.
func (r *Router) Middleware(mw ...func(http.Handler) http.Handler) {
	r.mux.Use(mw...)
}

// ── Params ───────────────────────────────────────────────────────────────────

// Param extracts a URL param, equivalent to $request->route('id')
func Param(r *http.Request, key string) string {
	return chi.URLParam(r, key)
}

// ── Introspection ────────────────────────────────────────────────────────────

// Routes returns every registered pattern in registration order.
func (r *Router) Routes() []Route {
	return r.table.snapshot()
}

// ── Serve ────────────────────────────────────────────────────────────────────

// ServeHTTP implements http.Handler so Router can be passed to http.ListenAndServe.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// ── Route table ──────────────────────────────────────────────────────────────

// table is shared by a router and its groups. Routes are keyed by the mux
// they were registered on and their pattern.
type table struct {
	mu     sync.RWMutex
	routes map[string]*route
	order  []*route
}

type route struct {
	pattern  string
	methods  []string
	handlers []any
}

func (t *table) merge(mx chi.Router, pattern string, methods []string, handlers []any) (*route, []string) {
	key := fmt.Sprintf("%p %s", mx, pattern)

	t.mu.Lock()
	defer t.mu.Unlock()
	rt, ok := t.routes[key]
	if !ok {
		rt = &route{pattern: pattern}
		t.routes[key] = rt
		t.order = append(t.order, rt)
	}

	var added []string
	for _, m := range methods {
		if !slices.Contains(rt.methods, m) && !slices.Contains(added, m) {
			added = append(added, m)
		}
	}
	rt.methods = append(rt.methods, methods...)
	rt.handlers = append(rt.handlers, handlers...)
	return rt, added
}

func (t *table) handlers(rt *route) []any {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(rt.handlers)
}

func (t *table) snapshot() []Route {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Route, 0, len(t.order))
	for _, rt := range t.order {
		out = append(out, Route{
			Pattern:  rt.pattern,
			Methods:  slices.Clone(rt.methods),
			Handlers: slices.Clone(rt.handlers),
		})
	}
	return out
}

// ── Dispatch ─────────────────────────────────────────────────────────────────

func (r *Router) dispatcher(rt *route) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		ww, ok := w.(middleware.WrapResponseWriter)
		if !ok {
			ww = middleware.NewWrapResponseWriter(w, req.ProtoMajor)
		}
		for _, h := range r.table.handlers(rt) {
			handler, err := r.handler(h, req)
			if err != nil {
				log.ErrorErr(log.CatHTTP, "handler resolution failed", err, "pattern", rt.pattern, "handler", h)
				http.Error(ww, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			handler.ServeHTTP(ww, req)
			if ww.Status() != 0 {
				return
			}
		}
	}
}

// handler turns a registered handler into an http.Handler. Service names are
// resolved with the request as invocation context.
func (r *Router) handler(h any, req *http.Request) (http.Handler, error) {
	if name, ok := h.(string); ok {
		v, err := r.container.InvokeContext(req, name)
		if err != nil {
			return nil, err
		}
		h = v
	}
	switch v := h.(type) {
	case http.Handler:
		return v, nil
	case func(http.ResponseWriter, *http.Request):
		return http.HandlerFunc(v), nil
	}
	return nil, fmt.Errorf("routing: %T is not an http handler", h)
}

// requestLogger logs each request through the framework logger.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, req)
		log.Info(log.CatHTTP, "request",
			"method", req.Method,
			"path", req.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(req.Context()),
		)
	})
}
