package container

import (
	"reflect"
	"slices"
)

// ── Tags ──────────────────────────────────────────────────────────────────────

// FindByTag returns copies of the definitions carrying tag, in registration
// order.
func (c *Container) FindByTag(tag string) []*Definition {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []*Definition
	for _, name := range c.order {
		if d := c.definitions[name]; d.HasTag(tag) {
			out = append(out, d.clone())
		}
	}
	return out
}

// GetByTag resolves every service under tag, in registration order. Services
// resolving to nil are dropped.
//
//	reports, err := c.GetByTag("reports")  // []any
func (c *Container) GetByTag(tag string) ([]any, error) {
	r := c.newResolution(nil)
	values, err := r.resolveTag(tag)
	if err != nil {
		return nil, err
	}
	out := values[:0]
	for _, v := range values {
		if !isNil(v) {
			out = append(out, v)
		}
	}
	return out, nil
}

// Tag adds tag to already registered services. Unknown names are skipped.
//
//	c.Tag([]string{"CpuReport", "MemoryReport"}, "reports")
func (c *Container) Tag(names []string, tag string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, name := range names {
		d, ok := c.definitions[c.canonical(name)]
		if !ok || d.HasTag(tag) {
			continue
		}
		nd := d.clone()
		nd.Tags = append(nd.Tags, tag)
		c.definitions[nd.Name] = nd
	}
}

// ── Auto-tagging ──────────────────────────────────────────────────────────────

// AutoTag registers a classifier. It runs once for every definition
// registered afterwards that declares no tags of its own; definitions already
// registered are not re-classified.
func (c *Container) AutoTag(classifier func(*Definition) []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.autoTaggers = append(c.autoTaggers, classifier)
}

// AutoTagWhen tags every definition matching predicate with tags.
func (c *Container) AutoTagWhen(predicate func(*Definition) bool, tags ...string) {
	tags = slices.Clone(tags)
	c.AutoTag(func(d *Definition) []string {
		if predicate(d) {
			return tags
		}
		return nil
	})
}

// AutoTagImplements tags every definition whose target result (or bare
// value) satisfies interface I.
//
//	container.AutoTagImplements[http.Handler](c, "http.handler")
func AutoTagImplements[I any](c *Container, tags ...string) {
	iface := reflect.TypeFor[I]()
	c.AutoTagWhen(func(d *Definition) bool {
		var t reflect.Type
		switch {
		case d.Target != nil:
			t = d.Target.ResultType()
		case d.Value != nil:
			t = reflect.TypeOf(d.Value)
		}
		if t == nil {
			return false
		}
		if iface.Kind() == reflect.Interface {
			return t.Implements(iface)
		}
		return t.AssignableTo(iface)
	}, tags...)
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
