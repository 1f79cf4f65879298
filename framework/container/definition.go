package container

import (
	"fmt"
	"maps"
	"reflect"
	"runtime"
	"slices"
	"strings"
)

// Sigils recognised in string references.
const (
	TagSigil       = "$$"
	ParameterSigil = "$"
)

// CreateMethod is the creation method looked up on factory objects.
const CreateMethod = "Create"

// ── Definition ────────────────────────────────────────────────────────────────

// Definition describes one service.
//
//	c.Register(container.Definition{
//	    Name:       "mailer",
//	    Target:     container.Class("Mailer", NewMailer),
//	    Parameters: []any{"$mail.from"},
//	    Properties: map[string]container.Property{
//	        "Logger": {Source: "logger", LateBinding: true},
//	    },
//	    Private: true,
//	})
type Definition struct {
	Name string

	// Target builds the service. When nil, Value is the service.
	Target *Target
	Value  any

	// Parameters are the positional dependency references passed to Target.
	// A nil slice defaults to the Target's declared dependencies.
	Parameters []any

	// Properties maps exported struct field names to their source.
	Properties map[string]Property

	Tags []string

	// Private services are rebuilt on every resolution and never cached.
	Private bool

	// IsFactory marks Target as a factory: it is constructed (or called) and
	// its Create method produces the service.
	IsFactory bool

	// Invoke calls Target as a plain function even when it is constructible.
	Invoke bool
}

// Property describes one injected struct field.
type Property struct {
	Source any
	// LateBinding defers resolution to the first Lazy.Get on the field.
	LateBinding bool
}

// HasTag reports whether the definition carries tag.
func (d *Definition) HasTag(tag string) bool {
	return slices.Contains(d.Tags, tag)
}

func (d Definition) clone() *Definition {
	d.Parameters = slices.Clone(d.Parameters)
	d.Tags = slices.Clone(d.Tags)
	d.Properties = maps.Clone(d.Properties)
	return &d
}

// merge folds in into d additively: parameters and tags are appended,
// properties merged key by key, and set scalar fields overwrite.
func (d *Definition) merge(in *Definition) {
	if in.Target != nil {
		d.Target = in.Target
	}
	if in.Value != nil {
		d.Value = in.Value
	}
	d.Parameters = append(slices.Clone(d.Parameters), in.Parameters...)
	d.Tags = append(slices.Clone(d.Tags), in.Tags...)
	if len(in.Properties) > 0 {
		props := maps.Clone(d.Properties)
		if props == nil {
			props = make(map[string]Property, len(in.Properties))
		}
		maps.Copy(props, in.Properties)
		d.Properties = props
	}
	d.Private = d.Private || in.Private
	d.IsFactory = d.IsFactory || in.IsFactory
	d.Invoke = d.Invoke || in.Invoke
}

// ── Target ────────────────────────────────────────────────────────────────────

// Target is the explicit descriptor of a constructor or function: the callable
// itself, its declared dependencies, and the parameters of the methods the
// container may call on the values it produces.
type Target struct {
	name          string
	fn            reflect.Value
	constructible bool
	deps          []any
	methods       map[string][]Param
}

// Class describes a constructor. The container calls it with the resolved
// dependencies and treats the result as a constructed object: properties are
// injected into it and its methods can be described with Method.
//
//	container.Class("Mailer", func(from string, l *Logger) *Mailer {...}, "$mail.from", "logger")
func Class(name string, constructor any, deps ...any) *Target {
	return newTarget(name, constructor, true, deps)
}

// Func describes a plain function whose return value is the service.
// A leading parameter of type Invocation or *Container is filled by the
// container and is not part of deps.
func Func(name string, fn any, deps ...any) *Target {
	return newTarget(name, fn, false, deps)
}

func newTarget(name string, fn any, constructible bool, deps []any) *Target {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		panic(fmt.Sprintf("container: target [%s] must be a non-nil func, got %T", name, fn))
	}
	if name == "" {
		name = funcName(v)
	}
	return &Target{name: name, fn: v, constructible: constructible, deps: slices.Clone(deps)}
}

// Method declares the parameters of a method on the values this target
// produces. Dependencies must precede runtime arguments for InvokeLater.
//
//	container.Class("Mailer", NewMailer).
//	    Method("Send", container.Dep("transport"), container.Arg("to"))
func (t *Target) Method(name string, params ...Param) *Target {
	if t.methods == nil {
		t.methods = make(map[string][]Param)
	}
	t.methods[name] = slices.Clone(params)
	return t
}

// Name returns the target identifier. It is also its factory token.
func (t *Target) Name() string { return t.name }

// Token is the key under which factories for this target are registered.
func (t *Target) Token() string { return t.name }

// Constructible reports whether the target was declared with Class.
func (t *Target) Constructible() bool { return t.constructible }

// Deps returns the declared dependency references.
func (t *Target) Deps() []any { return slices.Clone(t.deps) }

// MethodParams returns the declared parameters of method.
func (t *Target) MethodParams(method string) ([]Param, bool) {
	p, ok := t.methods[method]
	return p, ok
}

// ResultType is the type of the first value the callable returns, or nil.
func (t *Target) ResultType() reflect.Type {
	ft := t.fn.Type()
	if ft.NumOut() == 0 {
		return nil
	}
	return ft.Out(0)
}

func (t *Target) String() string { return t.name }

// ── Params and references ─────────────────────────────────────────────────────

// Param is one declared method parameter: a dependency resolved by the
// container, or a runtime argument supplied by the caller.
type Param struct {
	Name    string
	Ref     any
	runtime bool
}

// Dep declares a parameter resolved from ref.
func Dep(ref any) Param { return Param{Ref: ref} }

// Arg declares a runtime parameter supplied by the caller.
func Arg(name string) Param { return Param{Name: name, runtime: true} }

// IsDependency reports whether the container resolves the parameter.
func (p Param) IsDependency() bool { return !p.runtime }

// MethodRef is an object/method pair accepted by Invoke.
type MethodRef struct {
	Receiver any
	Method   string
}

// Method builds a MethodRef.
func Method(receiver any, method string) MethodRef {
	return MethodRef{Receiver: receiver, Method: method}
}

// Inject builds the array form accepted by Invoke: deps followed by fn.
//
//	c.Invoke(container.Inject(func(l *Logger) error {...}, "logger"))
func Inject(fn any, deps ...any) []any {
	return append(slices.Clone(deps), fn)
}

type literal struct{ value any }

// Literal wraps a value so that it is passed through resolution unchanged,
// even when it is a string that would otherwise be read as a reference.
func Literal(v any) any { return literal{value: v} }

// Invocation is passed to function targets that declare it as their first
// parameter.
type Invocation struct {
	Container *Container
	// Context is the explicit invocation context, or the Target itself.
	Context any
}

func funcName(v reflect.Value) string {
	f := runtime.FuncForPC(v.Pointer())
	if f == nil {
		return "func"
	}
	name := f.Name()
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return name
}
