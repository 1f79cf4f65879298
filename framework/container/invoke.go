package container

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/km-arc/go-inject/framework/log"
)

func (c *Container) newResolution(ctx any) *resolution {
	return &resolution{c: c, id: uuid.NewString(), ctx: ctx}
}

// ── Resolution ────────────────────────────────────────────────────────────────

// Get resolves a service (or a parameter of the same name, which wins).
// An empty name yields (nil, nil).
//
//	mailer, err := c.Get("mailer")
func (c *Container) Get(name string) (any, error) {
	if name == "" {
		return nil, nil
	}
	return c.run(nil, name, func(r *resolution) (any, error) {
		return r.resolveName(name)
	})
}

// Invoke resolves value: a service name, a *Target, a Go func, the array form
// []any{deps..., fn}, a MethodRef, or a literal returned unchanged.
//
//	n, err := c.Invoke(container.Inject(func(l *Logger) int { return l.Lines() }, "logger"))
func (c *Container) Invoke(value any) (any, error) {
	return c.InvokeContext(nil, value)
}

// InvokeContext is Invoke with an explicit invocation context, handed to
// function targets through Invocation.Context.
func (c *Container) InvokeContext(ctx any, value any) (any, error) {
	return c.run(ctx, value, func(r *resolution) (any, error) {
		return r.resolve(value)
	})
}

func (c *Container) run(ctx any, ref any, fn func(*resolution) (any, error)) (any, error) {
	r := c.newResolution(ctx)
	_, span := c.tracer.Start(context.Background(), "container.resolve")
	span.SetAttributes(
		attribute.String("container.ref", describeRef(ref)),
		attribute.String("container.resolution_id", r.id),
	)
	defer span.End()

	v, err := fn(r)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Debug(log.CatContainer, "resolution failed", "ref", describeRef(ref), "resolution", r.id, "error", err)
		return nil, err
	}
	return v, nil
}

func describeRef(ref any) string {
	switch v := ref.(type) {
	case string:
		return v
	case *Target:
		return v.name
	case MethodRef:
		return fmt.Sprintf("%T.%s", v.Receiver, v.Method)
	}
	return fmt.Sprintf("%T", ref)
}

// ── InvokeLater ───────────────────────────────────────────────────────────────

// InvokeLater returns a callable for method on ctx. The method's declared
// dependency parameters (see Target.Method) are resolved on the first call
// and reused afterwards; each call forwards only its runtime arguments.
//
// Dependencies must be declared before runtime arguments; otherwise a
// DependencyOrderError is returned and no callable is produced.
//
//	send, err := c.InvokeLater(mailer, "Send")
//	_, err = send("ops@example.com")
func (c *Container) InvokeLater(ctx any, method string) (func(args ...any) (any, error), error) {
	if !hasMethod(ctx, method) {
		return nil, &InvalidDefinitionError{Name: method, Reason: fmt.Sprintf("%T has no method %s", ctx, method)}
	}
	m := reflect.ValueOf(ctx).MethodByName(method)
	params := c.methodParams(ctx, method)
	if err := checkDependencyOrder(method, params); err != nil {
		return nil, err
	}

	name := fmt.Sprintf("%T.%s", ctx, method)
	var (
		mu       sync.Mutex
		resolved bool
		deps     []any
	)
	return func(args ...any) (any, error) {
		mu.Lock()
		if !resolved {
			values, err := c.run(ctx, name, func(r *resolution) (any, error) {
				return r.resolveParams(method, params)
			})
			if err != nil {
				mu.Unlock()
				return nil, err
			}
			deps, _ = values.([]any)
			resolved = true
		}
		callArgs := append(slices.Clone(deps), args...)
		mu.Unlock()
		return call(m, name, Invocation{Container: c, Context: ctx}, callArgs)
	}, nil
}

func checkDependencyOrder(method string, params []Param) error {
	runtime := false
	for i, p := range params {
		if !p.IsDependency() {
			runtime = true
			continue
		}
		if runtime {
			return &DependencyOrderError{Method: method, Param: i}
		}
	}
	return nil
}

// ── Generics helpers ──────────────────────────────────────────────────────────

// Resolve calls Get and type-asserts the result.
//
//	// Instead of: v, _ := c.Get("db"); db := v.(*sql.DB)
//	// Write:      db, err := container.Resolve[*sql.DB](c, "db")
func Resolve[T any](c *Container, name string) (T, error) {
	var zero T
	v, err := c.Get(name)
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("container: Resolve[%T]: [%s] resolved to %T", zero, name, v)
	}
	return typed, nil
}

// MustResolve is like Resolve but panics on error. Meant for bootstrap code.
func MustResolve[T any](c *Container, name string) T {
	v, err := Resolve[T](c, name)
	if err != nil {
		panic(err)
	}
	return v
}

// ResolveTag resolves every service under tag and keeps those of type T.
func ResolveTag[T any](c *Container, tag string) ([]T, error) {
	values, err := c.GetByTag(tag)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(values))
	for _, v := range values {
		if typed, ok := v.(T); ok {
			out = append(out, typed)
		}
	}
	return out, nil
}
