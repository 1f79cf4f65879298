package container

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/km-arc/go-inject/framework/log"
)

// FactoryFunc builds a service from the container and the resolved
// parameters of the definition it overrides.
type FactoryFunc func(c *Container, args ...any) (any, error)

// factory is a normalised override: exactly one of target and object is set.
type factory struct {
	target *Target
	object any
}

// ── Factory registry ──────────────────────────────────────────────────────────

// SetFactory makes factory the only construction path for token, which is a
// string or a *Target (its Token is used). Cached instances of every
// definition built from that token are evicted.
//
// Accepted factories, in order of precedence:
//   - a constructible *Target: built through the container, then its Create
//     method produces the service;
//   - a FactoryFunc, a non-constructible *Target or any other func: called
//     with the container and the definition's resolved parameters;
//   - an object with a Create method: that method produces the service.
func (c *Container) SetFactory(token any, f any) error {
	key, err := tokenKey(token)
	if err != nil {
		return err
	}
	nf, err := normaliseFactory(key, f)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.factories[key] = nf
	evicted := c.evictToken(key)
	c.mu.Unlock()

	log.Debug(log.CatContainer, "factory set", "token", key, "evicted", evicted)
	return nil
}

// RemoveFactory drops the override for token and evicts instances it built.
func (c *Container) RemoveFactory(token any) error {
	key, err := tokenKey(token)
	if err != nil {
		return err
	}
	c.mu.Lock()
	delete(c.factories, key)
	c.evictToken(key)
	c.mu.Unlock()
	return nil
}

// ClearFactories drops every override.
func (c *Container) ClearFactories() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.factories {
		c.evictToken(key)
	}
	c.factories = make(map[string]*factory)
}

// HasFactory reports whether an override is registered for token.
func (c *Container) HasFactory(token any) bool {
	key, err := tokenKey(token)
	if err != nil {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.factories[key]
	return ok
}

func (c *Container) factoryFor(t *Target) (*factory, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	f, ok := c.factories[t.Token()]
	return f, ok
}

// evictToken drops instances bound to key (must hold mu).
func (c *Container) evictToken(key string) []string {
	var evicted []string
	if _, ok := c.instances[key]; ok {
		delete(c.instances, key)
		evicted = append(evicted, key)
	}
	for name, d := range c.definitions {
		if d.Target == nil || d.Target.Token() != key {
			continue
		}
		if _, ok := c.instances[name]; ok {
			delete(c.instances, name)
			evicted = append(evicted, name)
		}
	}
	return evicted
}

// isSuffixFactory applies the opt-in naming convention.
func (c *Container) isSuffixFactory(t *Target) bool {
	return c.factorySuffix != "" && strings.HasSuffix(t.name, c.factorySuffix)
}

func tokenKey(token any) (string, error) {
	switch t := token.(type) {
	case string:
		if t != "" {
			return t, nil
		}
	case *Target:
		if t != nil {
			return t.Token(), nil
		}
	}
	return "", &InvalidFactoryError{Token: fmt.Sprint(token), Factory: token}
}

func normaliseFactory(key string, f any) (*factory, error) {
	switch v := f.(type) {
	case nil:
	case *Target:
		if v != nil {
			return &factory{target: v}, nil
		}
	case FactoryFunc:
		if v != nil {
			return &factory{target: Func(key+CreateMethod, v)}, nil
		}
	default:
		if reflect.TypeOf(f).Kind() == reflect.Func {
			if reflect.ValueOf(f).IsNil() {
				break
			}
			return &factory{target: Func(key+CreateMethod, f)}, nil
		}
		if hasMethod(f, CreateMethod) {
			return &factory{object: f}, nil
		}
	}
	return nil, &InvalidFactoryError{Token: key, Factory: f}
}

// ── Factory protocol ──────────────────────────────────────────────────────────

// runFactory builds def through the override f.
func (r *resolution) runFactory(def *Definition, f *factory) (any, error) {
	switch {
	case f.target != nil && f.target.constructible:
		obj, err := r.resolveTarget(f.target)
		if err != nil {
			return nil, err
		}
		args, err := r.resolveArgs(def.Name, def.Parameters)
		if err != nil {
			return nil, err
		}
		return r.create(f.target, obj, args)

	case f.target != nil:
		args, err := r.resolveArgs(def.Name, def.Parameters)
		if err != nil {
			return nil, err
		}
		return call(f.target.fn, f.target.name, Invocation{Container: r.c, Context: r.c}, args)

	case f.object != nil:
		args, err := r.resolveArgs(def.Name, def.Parameters)
		if err != nil {
			return nil, err
		}
		return r.create(r.c.descriptorOf(f.object), f.object, args)
	}
	return nil, &InvalidFactoryError{Token: def.Name}
}

// runOwnFactory builds a definition whose own target is a factory. The
// definition's parameters go to the target itself.
func (r *resolution) runOwnFactory(def *Definition) (any, error) {
	args, err := r.resolveArgs(def.Name, def.Parameters)
	if err != nil {
		return nil, err
	}
	t := def.Target
	if !t.constructible {
		return call(t.fn, t.name, Invocation{Container: r.c, Context: r.c}, args)
	}
	obj, err := call(t.fn, t.name, Invocation{Container: r.c, Context: t}, args)
	if err != nil {
		return nil, err
	}
	if !hasMethod(obj, CreateMethod) {
		return nil, &InvalidFactoryError{Token: def.Name, Factory: obj}
	}
	return r.create(t, obj, nil)
}

// create calls the Create method of obj with its declared dependencies
// (from desc) followed by extra.
func (r *resolution) create(desc *Target, obj any, extra []any) (any, error) {
	m := reflect.ValueOf(obj).MethodByName(CreateMethod)
	if !m.IsValid() {
		return nil, &InvalidFactoryError{Token: fmt.Sprintf("%T", obj), Factory: obj}
	}
	var args []any
	if desc != nil {
		if params, ok := desc.MethodParams(CreateMethod); ok {
			deps, err := r.resolveParams(CreateMethod, params)
			if err != nil {
				return nil, err
			}
			args = deps
		}
	}
	args = append(args, extra...)
	return call(m, fmt.Sprintf("%T.%s", obj, CreateMethod), Invocation{Container: r.c, Context: obj}, args)
}
