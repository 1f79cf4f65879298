package container

import (
	"fmt"
	"math"
	"reflect"
)

var (
	errorType      = reflect.TypeFor[error]()
	invocationType = reflect.TypeFor[Invocation]()
	containerType  = reflect.TypeFor[*Container]()
)

// call invokes fn with the resolved args. A leading Invocation or *Container
// parameter is filled from inv. The callable may return nothing, a value, an
// error, or a value and an error.
func call(fn reflect.Value, name string, inv Invocation, args []any) (any, error) {
	ft := fn.Type()
	in := make([]reflect.Value, 0, len(args)+1)

	offset := 0
	if ft.NumIn() > 0 {
		switch ft.In(0) {
		case invocationType:
			in = append(in, reflect.ValueOf(inv))
			offset = 1
		case containerType:
			in = append(in, reflect.ValueOf(inv.Container))
			offset = 1
		}
	}

	declared := ft.NumIn() - offset
	if ft.IsVariadic() {
		if len(args) < declared-1 {
			return nil, &InvalidParametersError{Name: name,
				Reason: fmt.Sprintf("got %d arguments, want at least %d", len(args), declared-1)}
		}
	} else if len(args) != declared {
		return nil, &InvalidParametersError{Name: name,
			Reason: fmt.Sprintf("got %d arguments, want %d", len(args), declared)}
	}

	for i, arg := range args {
		var pt reflect.Type
		if ft.IsVariadic() && offset+i >= ft.NumIn()-1 {
			pt = ft.In(ft.NumIn() - 1).Elem()
		} else {
			pt = ft.In(offset + i)
		}
		v, err := convert(arg, pt)
		if err != nil {
			return nil, &InvalidParametersError{Name: name, Reason: fmt.Sprintf("argument %d: %v", i, err)}
		}
		in = append(in, v)
	}

	return results(fn.Call(in))
}

func results(out []reflect.Value) (any, error) {
	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		if out[0].Type() == errorType {
			return nil, asError(out[0])
		}
		return out[0].Interface(), nil
	default:
		return out[0].Interface(), asError(out[len(out)-1])
	}
}

func asError(v reflect.Value) error {
	if v.Type() != errorType && !v.Type().Implements(errorType) {
		return nil
	}
	if v.IsNil() {
		return nil
	}
	return v.Interface().(error)
}

// convert adapts a resolved value to the parameter type pt. Numeric values
// are converted between numeric kinds so that configuration parameters
// (YAML yields int and float64) fit typed constructor arguments.
func convert(arg any, pt reflect.Type) (reflect.Value, error) {
	if arg == nil {
		switch pt.Kind() {
		case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			return reflect.Zero(pt), nil
		}
		return reflect.Value{}, fmt.Errorf("nil is not assignable to %s", pt)
	}
	v := reflect.ValueOf(arg)
	if v.Type().AssignableTo(pt) {
		return v, nil
	}
	if isNumeric(v.Kind()) && isNumeric(pt.Kind()) {
		if !fits(v, pt) {
			return reflect.Value{}, fmt.Errorf("%v does not fit %s", arg, pt)
		}
		return v.Convert(pt), nil
	}
	return reflect.Value{}, fmt.Errorf("%s is not assignable to %s", v.Type(), pt)
}

// fits reports whether the numeric value v converts to pt without losing
// its value: no truncated fractions, no overflow, no negative unsigned.
func fits(v reflect.Value, pt reflect.Type) bool {
	var (
		f       float64
		integer bool
	)
	switch {
	case v.CanInt():
		i := v.Int()
		switch {
		case pt.Kind() >= reflect.Int && pt.Kind() <= reflect.Int64:
			return !reflect.Zero(pt).OverflowInt(i)
		case pt.Kind() >= reflect.Uint && pt.Kind() <= reflect.Uint64:
			return i >= 0 && !reflect.Zero(pt).OverflowUint(uint64(i))
		}
		f, integer = float64(i), true
	case v.CanUint():
		u := v.Uint()
		switch {
		case pt.Kind() >= reflect.Int && pt.Kind() <= reflect.Int64:
			return u <= math.MaxInt64 && !reflect.Zero(pt).OverflowInt(int64(u))
		case pt.Kind() >= reflect.Uint && pt.Kind() <= reflect.Uint64:
			return !reflect.Zero(pt).OverflowUint(u)
		}
		f, integer = float64(u), true
	default:
		f = v.Float()
	}

	switch {
	case pt.Kind() == reflect.Float32 || pt.Kind() == reflect.Float64:
		return integer || !reflect.Zero(pt).OverflowFloat(f)
	case f != math.Trunc(f):
		return false
	case pt.Kind() >= reflect.Int && pt.Kind() <= reflect.Int64:
		return f >= math.MinInt64 && f < math.MaxInt64 && !reflect.Zero(pt).OverflowInt(int64(f))
	default:
		return f >= 0 && f < math.MaxUint64 && !reflect.Zero(pt).OverflowUint(uint64(f))
	}
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// hasMethod reports whether v exposes an exported method called name.
func hasMethod(v any, name string) bool {
	if v == nil {
		return false
	}
	return reflect.ValueOf(v).MethodByName(name).IsValid()
}
