package container

import (
	"fmt"
	"reflect"
	"slices"
	"sort"
	"sync"

	"go.opentelemetry.io/otel/trace"

	"github.com/km-arc/go-inject/framework/log"
)

// extender wraps an already-resolved instance with decorator logic.
type extender func(instance any, c *Container) any

// ── Container ─────────────────────────────────────────────────────────────────

// Container is the dependency-injection container.
//
// It supports:
//   - Definitions with positional parameters and property injection
//   - Shared (cached) and private (rebuilt) lifetimes
//   - Configuration parameters ("$name") and tag references ("$$tag")
//   - Factory overrides keyed by target token
//   - Tags and auto-tagging
//   - Late-bound properties through Lazy[T]
//   - Aliases, Extend (decoration), contextual substitution
//
// All methods are safe for concurrent use. The lock is never held while
// constructors, factories or callbacks run.
type Container struct {
	mu sync.RWMutex

	// name → definition, plus registration order
	definitions map[string]*Definition
	order       []string

	// name → resolved shared instance
	instances map[string]any

	// configuration values; disjoint from service names
	parameters map[string]any

	// token → factory override
	factories map[string]*factory

	autoTaggers []func(*Definition) []string

	// alias → canonical name
	aliases map[string]string

	// target → derived definition name (ad-hoc Invoke)
	derived map[*Target]string

	// result type → target describing its methods
	descriptors map[reflect.Type]*Target

	extenders map[string][]extender

	// contextual: consumer → reference → replacement
	contextual map[string]map[string]any

	afterResolving []func(string, any)

	tracer        trace.Tracer
	factorySuffix string
	selfBinding   bool
}

// New creates an empty container. Unless WithoutSelfBinding is given, the
// container is registered as an instance under "container".
func New(opts ...Option) *Container {
	c := &Container{
		selfBinding: true,
		tracer:      defaultTracer(),
	}
	c.reset()
	for _, opt := range opts {
		opt(c)
	}
	if c.selfBinding {
		c.Instance("container", c)
	}
	return c
}

func (c *Container) reset() {
	c.definitions = make(map[string]*Definition)
	c.order = nil
	c.instances = make(map[string]any)
	c.parameters = make(map[string]any)
	c.factories = make(map[string]*factory)
	c.autoTaggers = nil
	c.aliases = make(map[string]string)
	c.derived = make(map[*Target]string)
	c.descriptors = make(map[reflect.Type]*Target)
	c.extenders = make(map[string][]extender)
	c.contextual = make(map[string]map[string]any)
	c.afterResolving = nil
}

// ── Registration shortcuts ────────────────────────────────────────────────────

// Set registers value under name. A Definition or *Definition is registered
// as is (its Name is forced to name), a *Target becomes a Definition wrapping
// it, a func becomes a shared function service, and anything else is stored
// as a parameter.
//
//	c.Set("dsn", "postgres://localhost/app")          // parameter
//	c.Set("logger", container.Class("Logger", NewLogger))
//	c.Set("clock", func() time.Time { return time.Now() })
func (c *Container) Set(name string, value any) error {
	switch v := value.(type) {
	case Definition:
		v.Name = name
		return c.Register(v)
	case *Definition:
		if v == nil {
			return &InvalidDefinitionError{Name: name, Reason: "nil definition"}
		}
		d := *v
		d.Name = name
		return c.Register(d)
	case *Target:
		if v == nil {
			return &InvalidDefinitionError{Name: name, Reason: "nil target"}
		}
		return c.Register(Definition{Name: name, Target: v})
	}
	if value != nil && reflect.TypeOf(value).Kind() == reflect.Func {
		return c.Register(Definition{Name: name, Target: Func(name, value), Invoke: true})
	}
	if name == "" {
		return &InvalidDefinitionError{Reason: "parameter name must not be empty"}
	}
	c.SetParameter(name, value)
	return nil
}

// SetAll calls Set for every entry, in key order. It stops at the first error.
func (c *Container) SetAll(values map[string]any) error {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := c.Set(k, values[k]); err != nil {
			return err
		}
	}
	return nil
}

// Instance registers a pre-built value as a shared service.
//
//	c.Instance("config", cfg)
func (c *Container) Instance(name string, instance any) error {
	if err := c.Register(Definition{Name: name, Value: instance}); err != nil {
		return err
	}
	c.mu.Lock()
	c.instances[name] = instance
	c.mu.Unlock()
	return nil
}

// Alias registers an alternative name for a service.
//
//	c.Alias("cache", "cacheManager")
func (c *Container) Alias(name, alias string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if name == alias {
		panic(fmt.Sprintf("container: [%s] is aliased to itself", name))
	}
	c.aliases[alias] = c.canonical(name)
}

// ── Parameters ────────────────────────────────────────────────────────────────

// SetParameter stores a configuration value. Parameters take precedence over
// services of the same name when a bare name is resolved.
func (c *Container) SetParameter(name string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.parameters[name] = value
}

// GetParameter returns a configuration value or ParameterNotFoundError.
func (c *Container) GetParameter(name string) (any, error) {
	if v, ok := c.parameter(name); ok {
		return v, nil
	}
	return nil, &ParameterNotFoundError{Name: name}
}

// HasParameter reports whether a parameter is set.
func (c *Container) HasParameter(name string) bool {
	_, ok := c.parameter(name)
	return ok
}

// Parameters returns a copy of all parameters.
func (c *Container) Parameters() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]any, len(c.parameters))
	for k, v := range c.parameters {
		out[k] = v
	}
	return out
}

func (c *Container) parameter(name string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.parameters[name]
	return v, ok
}

// ── Extend / callbacks ────────────────────────────────────────────────────────

// Extend decorates the resolved instance of a service.
//
//	c.Extend("logger", func(instance any, c *container.Container) any {
//	    return &TimestampLogger{Inner: instance.(*Logger)}
//	})
func (c *Container) Extend(name string, fn func(instance any, c *Container) any) {
	c.mu.Lock()
	key := c.canonical(name)
	c.extenders[key] = append(c.extenders[key], fn)
	inst, cached := c.instances[key]
	c.mu.Unlock()

	if cached {
		extended := fn(inst, c)
		c.mu.Lock()
		c.instances[key] = extended
		c.mu.Unlock()
	}
}

func (c *Container) applyExtenders(name string, instance any) any {
	c.mu.RLock()
	exts := slices.Clone(c.extenders[name])
	c.mu.RUnlock()
	for _, ext := range exts {
		instance = ext(instance, c)
	}
	return instance
}

// AfterResolving registers a callback fired after any service is built.
func (c *Container) AfterResolving(cb func(name string, instance any)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.afterResolving = append(c.afterResolving, cb)
}

func (c *Container) fireAfterResolving(name string, instance any) {
	c.mu.RLock()
	cbs := slices.Clone(c.afterResolving)
	c.mu.RUnlock()
	for _, cb := range cbs {
		cb(name, instance)
	}
}

// ── Instances ─────────────────────────────────────────────────────────────────

func (c *Container) instance(name string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.instances[name]
	return v, ok
}

// storeInstance caches value unless another caller stored one first, and
// returns the cached value.
func (c *Container) storeInstance(name string, value any) any {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.instances[name]; ok {
		return existing
	}
	c.instances[name] = value
	return value
}

// ForgetInstance drops the cached instance of a service; the next resolution
// builds a new one.
func (c *Container) ForgetInstance(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.instances, c.canonical(name))
}

// ── Introspection ─────────────────────────────────────────────────────────────

// Has reports whether a service is registered under name (or an alias).
func (c *Container) Has(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.definitions[c.canonical(name)]
	return ok
}

// Resolved reports whether a shared instance is cached for name.
func (c *Container) Resolved(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.instances[c.canonical(name)]
	return ok
}

// Definitions returns copies of all definitions in registration order.
func (c *Container) Definitions() []Definition {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Definition, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, *c.definitions[name].clone())
	}
	return out
}

// Names returns the registered service names in registration order.
func (c *Container) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.order)
}

// Size returns the number of registered services.
func (c *Container) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}

// Flush resets the entire container. The self binding is restored.
func (c *Container) Flush() {
	c.mu.Lock()
	c.reset()
	c.mu.Unlock()
	if c.selfBinding {
		c.Instance("container", c)
	}
	log.Debug(log.CatContainer, "container flushed")
}

// canonical resolves an alias to its canonical name (must hold mu).
func (c *Container) canonical(name string) string {
	if target, ok := c.aliases[name]; ok {
		return target
	}
	return name
}

// ── Reflect helpers ───────────────────────────────────────────────────────────

// TypeKey returns the package-qualified type name of v, useful as a stable
// service name or factory token when working with interfaces.
//
//	key := container.TypeKey((*UserRepository)(nil))  // "main.UserRepository"
func TypeKey(v any) string {
	t := reflect.TypeOf(v)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.PkgPath() + "." + t.Name()
}
