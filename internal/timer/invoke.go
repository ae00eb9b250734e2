package timer

import (
	"fmt"
	"reflect"
	"runtime"
	"strings"
)

// Kwargs holds keyword arguments. A target receives them when its last
// non-variadic parameter has type Kwargs.
type Kwargs map[string]any

var (
	kwargsType = reflect.TypeOf(Kwargs(nil))
	errorType  = reflect.TypeOf((*error)(nil)).Elem()
)

// callable wraps a func value of arbitrary signature.
type callable struct {
	fn   reflect.Value
	name string
}

func newCallable(target any) (*callable, error) {
	if target == nil {
		return nil, fmt.Errorf("%w: got nil", ErrInvalidCallable)
	}
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Func {
		return nil, fmt.Errorf("%w: got %T", ErrInvalidCallable, target)
	}
	if v.IsNil() {
		return nil, fmt.Errorf("%w: got nil %T", ErrInvalidCallable, target)
	}
	return &callable{fn: v, name: funcName(v)}, nil
}

// funcName returns the declared name of fn without its package path,
// receiver or method-value suffix.
func funcName(fn reflect.Value) string {
	f := runtime.FuncForPC(fn.Pointer())
	if f == nil {
		return "func"
	}
	name := strings.TrimSuffix(f.Name(), "-fm")
	name = strings.TrimSuffix(name, "[...]")
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	if name == "" {
		return "func"
	}
	return name
}

func (c *callable) acceptsKwargs() bool {
	t := c.fn.Type()
	n := t.NumIn()
	if n == 0 {
		return false
	}
	if t.IsVariadic() {
		return false
	}
	return t.In(n - 1) == kwargsType
}

func (c *callable) returnsError() bool {
	t := c.fn.Type()
	n := t.NumOut()
	if n == 0 {
		return false
	}
	last := t.Out(n - 1)
	return last.Implements(errorType) && nilable(last.Kind())
}

// bind checks args and kwargs against the target signature and returns a
// closure performing one invocation.
func (c *callable) bind(args []any, kwargs Kwargs) (func() error, error) {
	if len(args) == 0 && len(kwargs) == 0 {
		switch f := c.fn.Interface().(type) {
		case func():
			return func() error { f(); return nil }, nil
		case func() error:
			return f, nil
		}
	}

	t := c.fn.Type()
	in := make([]reflect.Value, 0, len(args)+1)
	for _, a := range args {
		if a == nil {
			in = append(in, reflect.Value{})
			continue
		}
		in = append(in, reflect.ValueOf(a))
	}

	if c.acceptsKwargs() {
		kw := kwargs
		if kw == nil {
			kw = Kwargs{}
		}
		in = append(in, reflect.ValueOf(kw))
	} else if len(kwargs) > 0 {
		return nil, fmt.Errorf("%w: %s does not accept keyword arguments", ErrInvalidArguments, c.name)
	}

	numIn := t.NumIn()
	if t.IsVariadic() {
		if len(in) < numIn-1 {
			return nil, fmt.Errorf("%w: %s wants at least %d arguments, got %d",
				ErrInvalidArguments, c.name, numIn-1, len(in))
		}
	} else if len(in) != numIn {
		return nil, fmt.Errorf("%w: %s wants %d arguments, got %d",
			ErrInvalidArguments, c.name, numIn, len(in))
	}

	for i := range in {
		pt := paramType(t, i)
		if !in[i].IsValid() {
			if !nilable(pt.Kind()) {
				return nil, fmt.Errorf("%w: argument %d of %s: nil is not a %s",
					ErrInvalidArguments, i, c.name, pt)
			}
			in[i] = reflect.Zero(pt)
			continue
		}
		if !in[i].Type().AssignableTo(pt) {
			return nil, fmt.Errorf("%w: argument %d of %s: %s is not assignable to %s",
				ErrInvalidArguments, i, c.name, in[i].Type(), pt)
		}
	}

	fn := c.fn
	checkErr := c.returnsError()
	return func() error {
		out := fn.Call(in)
		if !checkErr {
			return nil
		}
		if last := out[len(out)-1]; !last.IsNil() {
			return last.Interface().(error)
		}
		return nil
	}, nil
}

func paramType(t reflect.Type, i int) reflect.Type {
	if t.IsVariadic() && i >= t.NumIn()-1 {
		return t.In(t.NumIn() - 1).Elem()
	}
	return t.In(i)
}

func nilable(k reflect.Kind) bool {
	switch k {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice:
		return true
	default:
		return false
	}
}
