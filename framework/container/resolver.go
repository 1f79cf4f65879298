package container

import (
	"fmt"
	"reflect"
	"slices"
	"sort"
	"strings"

	"github.com/km-arc/go-inject/framework/log"
)

// resolution is the state of one top-level Get/Invoke call. The stack holds
// the names currently being built, outermost first.
type resolution struct {
	c     *Container
	id    string
	ctx   any
	stack []string
}

// resolve turns any reference into a value.
func (r *resolution) resolve(ref any) (any, error) {
	switch v := ref.(type) {
	case string:
		return r.resolveName(v)
	case literal:
		return v.value, nil
	case *Target:
		if v == nil {
			return nil, nil
		}
		return r.resolveTarget(v)
	case MethodRef:
		return r.invokeMethod(v)
	case []any:
		if fn, deps, ok := arrayForm(v); ok {
			return r.resolveFunc(fn, deps)
		}
		return v, nil
	}
	if ref != nil && reflect.TypeOf(ref).Kind() == reflect.Func {
		return r.resolveFunc(ref, nil)
	}
	return ref, nil
}

// resolveName handles string references: tags, parameters, then services.
func (r *resolution) resolveName(name string) (any, error) {
	switch {
	case name == "":
		return nil, &ServiceNotFoundError{Name: name, Stack: slices.Clone(r.stack)}
	case strings.HasPrefix(name, TagSigil):
		return r.resolveTag(strings.TrimPrefix(name, TagSigil))
	case strings.HasPrefix(name, ParameterSigil):
		p := strings.TrimPrefix(name, ParameterSigil)
		if v, ok := r.c.parameter(p); ok {
			return v, nil
		}
		return nil, &ParameterNotFoundError{Name: p}
	}

	// Parameters win over services of the same name.
	if v, ok := r.c.parameter(name); ok {
		return v, nil
	}
	return r.resolveService(name)
}

// resolveService builds (or returns the cached) service called name.
func (r *resolution) resolveService(name string) (any, error) {
	r.c.mu.RLock()
	name = r.c.canonical(name)
	inst, cached := r.c.instances[name]
	r.c.mu.RUnlock()
	if cached {
		return inst, nil
	}

	if slices.Contains(r.stack, name) {
		return nil, &CircularDependencyError{Stack: append(slices.Clone(r.stack), name)}
	}
	r.stack = append(r.stack, name)
	defer func() { r.stack = r.stack[:len(r.stack)-1] }()

	def, err := r.c.lookup(name, r.stack)
	if err != nil {
		return nil, annotate(err, r.stack)
	}
	v, err := r.build(def)
	if err != nil {
		return nil, annotate(err, r.stack)
	}
	return v, nil
}

// resolveTag resolves every definition under tag, in registration order.
func (r *resolution) resolveTag(tag string) ([]any, error) {
	defs := r.c.FindByTag(tag)
	out := make([]any, 0, len(defs))
	for _, d := range defs {
		v, err := r.resolveService(d.Name)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// build turns a definition into a value and writes shared values back.
func (r *resolution) build(def *Definition) (any, error) {
	value, err := r.construct(def)
	if err != nil {
		return nil, err
	}
	if len(def.Properties) > 0 {
		if err := r.injectProperties(def, value); err != nil {
			return nil, err
		}
	}

	value = r.c.applyExtenders(def.Name, value)
	if !def.Private {
		value = r.c.storeInstance(def.Name, value)
	}
	r.c.fireAfterResolving(def.Name, value)

	log.Debug(log.CatContainer, "service built", "name", def.Name, "private", def.Private, "resolution", r.id)
	return value, nil
}

func (r *resolution) construct(def *Definition) (any, error) {
	t := def.Target
	if t == nil {
		return def.Value, nil
	}
	if f, ok := r.c.factoryFor(t); ok {
		return r.runFactory(def, f)
	}
	if def.IsFactory || r.c.isSuffixFactory(t) {
		return r.runOwnFactory(def)
	}

	args, err := r.resolveArgs(def.Name, def.Parameters)
	if err != nil {
		return nil, err
	}
	if def.Invoke || !t.constructible {
		return call(t.fn, t.name, r.invocation(t), args)
	}
	value, err := call(t.fn, t.name, Invocation{Container: r.c, Context: t}, args)
	if err != nil {
		return nil, err
	}
	r.c.describeValue(t, value)
	return value, nil
}

// invocation is the context passed to function targets: the explicit
// context of the call, or the target itself.
func (r *resolution) invocation(t *Target) Invocation {
	if r.ctx != nil {
		return Invocation{Container: r.c, Context: r.ctx}
	}
	return Invocation{Container: r.c, Context: t}
}

// resolveArgs resolves the parameters of consumer depth-first, left to
// right, applying contextual substitutions registered for consumer.
func (r *resolution) resolveArgs(consumer string, params []any) ([]any, error) {
	if len(params) == 0 {
		return nil, nil
	}
	args := make([]any, 0, len(params))
	for _, p := range params {
		v, err := r.resolve(r.c.substitute(consumer, p))
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	return args, nil
}

// resolveParams resolves the dependency parameters of a method description.
// Runtime parameters are left to the caller.
func (r *resolution) resolveParams(method string, params []Param) ([]any, error) {
	var args []any
	for _, p := range params {
		if !p.IsDependency() {
			continue
		}
		v, err := r.resolve(p.Ref)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	return args, nil
}

// ── Properties ────────────────────────────────────────────────────────────────

func (r *resolution) injectProperties(def *Definition, value any) error {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return &InvalidDefinitionError{Name: def.Name,
			Reason: fmt.Sprintf("properties need a pointer to a struct, got %T", value)}
	}
	sv := rv.Elem()

	keys := make([]string, 0, len(def.Properties))
	for k := range def.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		prop := def.Properties[key]
		field := sv.FieldByName(key)
		if !field.IsValid() || !field.CanSet() {
			return &InvalidDefinitionError{Name: def.Name,
				Reason: fmt.Sprintf("%T has no settable field %s", value, key)}
		}
		source := r.c.substitute(def.Name, prop.Source)

		if prop.LateBinding {
			binder, ok := lateBinderOf(field)
			if !ok {
				return &InvalidDefinitionError{Name: def.Name,
					Reason: fmt.Sprintf("late-bound field %s must be a container.Lazy, got %s", key, field.Type())}
			}
			c := r.c
			binder.bind(func() (any, error) { return c.Invoke(source) })
			continue
		}

		v, err := r.resolve(source)
		if err != nil {
			return err
		}
		fv, err := convert(v, field.Type())
		if err != nil {
			return &InvalidParametersError{Name: def.Name, Reason: fmt.Sprintf("property %s: %v", key, err)}
		}
		field.Set(fv)
	}
	return nil
}

func lateBinderOf(field reflect.Value) (lateBinder, bool) {
	if field.Kind() == reflect.Pointer {
		if field.IsNil() {
			field.Set(reflect.New(field.Type().Elem()))
		}
		b, ok := field.Interface().(lateBinder)
		return b, ok
	}
	b, ok := field.Addr().Interface().(lateBinder)
	return b, ok
}

// ── Ad-hoc invocables ─────────────────────────────────────────────────────────

// resolveTarget resolves a target that was not necessarily registered. The
// derived definition is stored once per target and reused afterwards.
func (r *resolution) resolveTarget(t *Target) (any, error) {
	name, err := r.c.derive(t)
	if err != nil {
		return nil, err
	}
	return r.resolveService(name)
}

// resolveFunc calls a bare Go func. Go funcs have no stable identity
// (closures share code pointers), so nothing is registered for them.
func (r *resolution) resolveFunc(fn any, deps []any) (any, error) {
	var t *Target
	if tt, ok := fn.(*Target); ok {
		t = tt
	} else {
		t = Func("", fn, deps...)
	}
	if len(deps) == 0 {
		if t.constructible {
			return r.resolveTarget(t)
		}
		deps = t.deps
	}
	args, err := r.resolveArgs(t.name, deps)
	if err != nil {
		return nil, err
	}
	return call(t.fn, t.name, r.invocation(t), args)
}

// invokeMethod calls an object/method pair with its declared dependencies.
func (r *resolution) invokeMethod(ref MethodRef) (any, error) {
	if !hasMethod(ref.Receiver, ref.Method) {
		return nil, &InvalidDefinitionError{Name: ref.Method,
			Reason: fmt.Sprintf("%T has no method %s", ref.Receiver, ref.Method)}
	}
	m := reflect.ValueOf(ref.Receiver).MethodByName(ref.Method)
	params := r.c.methodParams(ref.Receiver, ref.Method)
	for _, p := range params {
		if !p.IsDependency() {
			return nil, &InvalidParametersError{Name: ref.Method,
				Reason: "method declares runtime parameters; use InvokeLater"}
		}
	}
	args, err := r.resolveParams(ref.Method, params)
	if err != nil {
		return nil, err
	}
	ctx := r.ctx
	if ctx == nil {
		ctx = ref.Receiver
	}
	return call(m, fmt.Sprintf("%T.%s", ref.Receiver, ref.Method), Invocation{Container: r.c, Context: ctx}, args)
}

// arrayForm splits []any{deps..., fn}.
func arrayForm(v []any) (any, []any, bool) {
	if len(v) == 0 {
		return nil, nil, false
	}
	last := v[len(v)-1]
	if t, ok := last.(*Target); ok && t != nil {
		return t, slices.Clone(v[:len(v)-1]), true
	}
	if last != nil && reflect.TypeOf(last).Kind() == reflect.Func {
		return last, slices.Clone(v[:len(v)-1]), true
	}
	return nil, nil, false
}

// derive returns the name of the definition backing t, registering a default
// one on first use: parameters are the declared deps, Invoke is set unless t
// is constructible, and plain functions are private.
func (c *Container) derive(t *Target) (string, error) {
	c.mu.RLock()
	name, ok := c.derived[t]
	c.mu.RUnlock()
	if ok {
		return name, nil
	}

	c.mu.RLock()
	name = ""
	for _, n := range c.order {
		if c.definitions[n].Target == t {
			name = n
			break
		}
	}
	if name == "" {
		name = t.name
		for n := 2; ; n++ {
			if _, taken := c.definitions[name]; !taken {
				break
			}
			name = fmt.Sprintf("%s#%d", t.name, n)
		}
	}
	_, registered := c.definitions[name]
	c.mu.RUnlock()

	if !registered {
		err := c.Register(Definition{
			Name:       name,
			Target:     t,
			Parameters: t.Deps(),
			Invoke:     !t.constructible,
			Private:    !t.constructible,
		})
		if err != nil {
			return "", err
		}
	}

	c.mu.Lock()
	if existing, ok := c.derived[t]; ok {
		name = existing
	} else {
		c.derived[t] = name
	}
	c.mu.Unlock()
	return name, nil
}

// methodParams looks up the declared parameters of method on obj.
func (c *Container) methodParams(obj any, method string) []Param {
	desc := c.descriptorOf(obj)
	if desc == nil {
		return nil
	}
	params, _ := desc.MethodParams(method)
	return params
}

// describeValue records t as the descriptor of the concrete type of v when t
// declares methods. The latest target to build a type wins.
func (c *Container) describeValue(t *Target, v any) {
	if v == nil || len(t.methods) == 0 {
		return
	}
	rt := reflect.TypeOf(v)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.descriptors[rt] = t
}

func (c *Container) descriptorOf(obj any) *Target {
	if obj == nil {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.descriptors[reflect.TypeOf(obj)]
}
