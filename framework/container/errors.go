package container

import (
	"errors"
	"fmt"
	"strings"
)

// ErrLazyUnbound is returned by Lazy.Get when the cell was never bound to a
// resolver or an initializer.
var ErrLazyUnbound = errors.New("container: lazy value is not bound")

// ServiceNotFoundError reports a name with no Definition behind it.
type ServiceNotFoundError struct {
	Name  string
	Stack []string
}

func (e *ServiceNotFoundError) Error() string {
	return fmt.Sprintf("container: service [%s] not found", e.Name)
}

// ParameterNotFoundError reports a "$name" reference to a missing parameter.
type ParameterNotFoundError struct {
	Name string
}

func (e *ParameterNotFoundError) Error() string {
	return fmt.Sprintf("container: parameter [%s] not found", e.Name)
}

// InvalidDefinitionError reports a malformed registration.
type InvalidDefinitionError struct {
	Name   string
	Reason string
}

func (e *InvalidDefinitionError) Error() string {
	if e.Name == "" {
		return "container: invalid definition: " + e.Reason
	}
	return fmt.Sprintf("container: invalid definition [%s]: %s", e.Name, e.Reason)
}

// InvalidFactoryError reports a factory override of an unsupported shape.
type InvalidFactoryError struct {
	Token   string
	Factory any
}

func (e *InvalidFactoryError) Error() string {
	return fmt.Sprintf("container: invalid factory for [%s]: %T is neither a function nor an object with a %s method",
		e.Token, e.Factory, CreateMethod)
}

// InvalidParametersError reports resolved arguments that do not fit the
// callable they are passed to.
type InvalidParametersError struct {
	Name   string
	Reason string
}

func (e *InvalidParametersError) Error() string {
	return fmt.Sprintf("container: invalid parameters for [%s]: %s", e.Name, e.Reason)
}

// DependencyOrderError reports a method whose dependency parameters are not
// all declared before its runtime parameters.
type DependencyOrderError struct {
	Method string
	Param  int
}

func (e *DependencyOrderError) Error() string {
	return fmt.Sprintf("container: method %s declares dependency parameter %d after a runtime parameter", e.Method, e.Param)
}

// CircularDependencyError reports a name reached twice within one resolution.
type CircularDependencyError struct {
	Stack []string
}

func (e *CircularDependencyError) Error() string {
	return "container: circular dependency: " + strings.Join(e.Stack, " -> ")
}

// ResolutionError annotates an error raised during resolution with the chain
// of names that was being resolved when it happened.
type ResolutionError struct {
	Stack []string
	Err   error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("%v (while resolving %s)", e.Err, strings.Join(e.Stack, " -> "))
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// Trail returns the resolution chain formatted as "a -> b -> c".
func (e *ResolutionError) Trail() string { return strings.Join(e.Stack, " -> ") }

// annotate wraps err with the current stack unless it already carries one.
func annotate(err error, stack []string) error {
	if err == nil || len(stack) == 0 {
		return err
	}
	var re *ResolutionError
	if errors.As(err, &re) {
		return err
	}
	var ce *CircularDependencyError
	if errors.As(err, &ce) {
		return err
	}
	return &ResolutionError{Stack: append([]string(nil), stack...), Err: err}
}
