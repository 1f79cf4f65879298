package http

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/km-arc/go-inject/framework/container"
	"github.com/km-arc/go-inject/routing"
)

// InspectorPrefix is where Inspector mounts its routes.
const InspectorPrefix = "/_container"

// Inspector exposes the container registry over HTTP:
//
//	GET /_container/services               registered services, in order
//	GET /_container/services/{name}        one service; ?resolve builds it
//	GET /_container/tags/{tag}             services carrying a tag
//	GET /_container/parameters             parameter names and values, secrets redacted
type Inspector struct {
	c *container.Container
}

// NewInspector creates an Inspector for c.
func NewInspector(c *container.Container) *Inspector {
	return &Inspector{c: c}
}

// ServiceView describes one registered service.
type ServiceView struct {
	Name       string   `json:"name"`
	Target     string   `json:"target,omitempty"`
	Private    bool     `json:"private"`
	Factory    bool     `json:"factory"`
	Invoke     bool     `json:"invoke"`
	Tags       []string `json:"tags"`
	Properties []string `json:"properties,omitempty"`
	Resolved   bool     `json:"resolved"`

	// Set when the service was resolved on request.
	Type string `json:"type,omitempty"`
}

// Register mounts the inspector routes on r.
func (i *Inspector) Register(r *routing.Router) {
	r.Prefix(InspectorPrefix, func(r *routing.Router) {
		r.Middleware(noStore)
		r.Get("/services", i.services)
		r.Get("/services/{name}", i.service)
		r.Get("/tags/{tag}", i.tagged)
		r.Get("/parameters", i.parameters)
	})
}

func (i *Inspector) services(w http.ResponseWriter, r *http.Request) {
	defs := i.c.Definitions()
	out := make([]ServiceView, 0, len(defs))
	for _, d := range defs {
		out = append(out, i.view(d))
	}
	NewResponse(w).Success(out)
}

func (i *Inspector) service(w http.ResponseWriter, r *http.Request) {
	req, res := NewRequest(r), NewResponse(w)
	name := req.RouteParam("name")

	def, err := i.c.Lookup(name)
	if err != nil {
		res.ContainerError(err)
		return
	}
	view := i.view(*def)

	if req.QueryBool("resolve") {
		v, err := i.c.Get(name)
		if err != nil {
			res.ContainerError(err)
			return
		}
		view.Type = fmt.Sprintf("%T", v)
		view.Resolved = i.c.Resolved(name)
	}
	res.Success(view)
}

func (i *Inspector) tagged(w http.ResponseWriter, r *http.Request) {
	tag := NewRequest(r).RouteParam("tag")
	defs := i.c.FindByTag(tag)
	out := make([]ServiceView, 0, len(defs))
	for _, d := range defs {
		out = append(out, i.view(*d))
	}
	NewResponse(w).Success(out)
}

func (i *Inspector) parameters(w http.ResponseWriter, r *http.Request) {
	params := i.c.Parameters()
	for key := range params {
		if sensitive(key) {
			params[key] = Redacted
		}
	}
	NewResponse(w).Success(params)
}

// Redacted replaces the value of sensitive parameters.
const Redacted = "[redacted]"

var sensitiveWords = []string{"password", "passwd", "secret", "token", "apikey", "api_key", "private_key", "credential", "dsn"}

// sensitive matches on the last segment of a dotted key.
func sensitive(key string) bool {
	last := strings.ToLower(key[strings.LastIndex(key, ".")+1:])
	for _, w := range sensitiveWords {
		if strings.Contains(last, w) {
			return true
		}
	}
	return false
}

func noStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

func (i *Inspector) view(d container.Definition) ServiceView {
	v := ServiceView{
		Name:     d.Name,
		Private:  d.Private,
		Factory:  d.IsFactory,
		Invoke:   d.Invoke,
		Tags:     d.Tags,
		Resolved: i.c.Resolved(d.Name),
	}
	if v.Tags == nil {
		v.Tags = []string{}
	}
	if d.Target != nil {
		v.Target = d.Target.Name()
	}
	for key := range d.Properties {
		v.Properties = append(v.Properties, key)
	}
	sort.Strings(v.Properties)
	return v
}
