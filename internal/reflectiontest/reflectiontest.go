// Package reflectiontest provides a recording call context and assertion
// helpers for testing bound natives without a script interpreter.
package reflectiontest

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/mge-engine/reflection"
)

// CallContext is an in-memory reflection.CallContext. Arguments are plain
// Go values; numeric arguments are converted to the requested width the
// way a script number would be.
type CallContext struct {
	Args     []any
	Receiver any

	// Accessed lists parameter positions in the order they were read.
	Accessed []int
	// Result is the last stored result and Stores counts store calls.
	Result any
	Stores int
	// Exceptions lists every error reported through ExceptionThrown.
	Exceptions []error
}

var _ reflection.CallContext = (*CallContext)(nil)

// NewCallContext creates a call context with the given arguments.
func NewCallContext(args ...any) *CallContext {
	return &CallContext{Args: args}
}

// WithThis sets the receiver and returns the context for chaining.
func (c *CallContext) WithThis(this any) *CallContext {
	c.Receiver = this
	return c
}

func (c *CallContext) arg(position int) (reflect.Value, error) {
	c.Accessed = append(c.Accessed, position)
	if position < 0 || position >= len(c.Args) {
		return reflect.Value{}, reflection.Errorf(reflection.CodeInvalidArgument, "no argument at position %d", position)
	}
	v := reflect.ValueOf(c.Args[position])
	if !v.IsValid() {
		return reflect.Value{}, reflection.Errorf(reflection.CodeInvalidArgument, "nil argument at position %d", position)
	}
	return v, nil
}

func param[T any](c *CallContext, position int) (T, error) {
	var zero T
	v, err := c.arg(position)
	if err != nil {
		return zero, err
	}
	want := reflect.TypeFor[T]()
	if v.Type() == want {
		return v.Interface().(T), nil
	}
	if reflection.KindOf(v.Type()).IsNumber() && reflection.KindOf(want).IsNumber() {
		return v.Convert(want).Interface().(T), nil
	}
	return zero, reflection.Errorf(reflection.CodeInvalidArgument, "argument %d has type %s, want %s", position, v.Type(), want)
}

func (c *CallContext) BoolParameter(p int) (bool, error)       { return param[bool](c, p) }
func (c *CallContext) Int8Parameter(p int) (int8, error)       { return param[int8](c, p) }
func (c *CallContext) Uint8Parameter(p int) (uint8, error)     { return param[uint8](c, p) }
func (c *CallContext) Int16Parameter(p int) (int16, error)     { return param[int16](c, p) }
func (c *CallContext) Uint16Parameter(p int) (uint16, error)   { return param[uint16](c, p) }
func (c *CallContext) Int32Parameter(p int) (int32, error)     { return param[int32](c, p) }
func (c *CallContext) Uint32Parameter(p int) (uint32, error)   { return param[uint32](c, p) }
func (c *CallContext) Int64Parameter(p int) (int64, error)     { return param[int64](c, p) }
func (c *CallContext) Uint64Parameter(p int) (uint64, error)   { return param[uint64](c, p) }
func (c *CallContext) Float32Parameter(p int) (float32, error) { return param[float32](c, p) }
func (c *CallContext) Float64Parameter(p int) (float64, error) { return param[float64](c, p) }
func (c *CallContext) StringParameter(p int) (string, error)   { return param[string](c, p) }

func (c *CallContext) ObjectParameter(p int, _ reflect.Type) (any, error) {
	v, err := c.arg(p)
	if err != nil {
		return nil, err
	}
	return v.Interface(), nil
}

func (c *CallContext) This() (any, error) {
	if c.Receiver == nil {
		return nil, reflection.NewError(reflection.CodeIllegalState, "call has no receiver")
	}
	return c.Receiver, nil
}

func (c *CallContext) store(v any) {
	c.Result = v
	c.Stores++
}

func (c *CallContext) StoreBoolResult(v bool)       { c.store(v) }
func (c *CallContext) StoreInt8Result(v int8)       { c.store(v) }
func (c *CallContext) StoreUint8Result(v uint8)     { c.store(v) }
func (c *CallContext) StoreInt16Result(v int16)     { c.store(v) }
func (c *CallContext) StoreUint16Result(v uint16)   { c.store(v) }
func (c *CallContext) StoreInt32Result(v int32)     { c.store(v) }
func (c *CallContext) StoreUint32Result(v uint32)   { c.store(v) }
func (c *CallContext) StoreInt64Result(v int64)     { c.store(v) }
func (c *CallContext) StoreUint64Result(v uint64)   { c.store(v) }
func (c *CallContext) StoreFloat32Result(v float32) { c.store(v) }
func (c *CallContext) StoreFloat64Result(v float64) { c.store(v) }
func (c *CallContext) StoreStringResult(v string)   { c.store(v) }
func (c *CallContext) StoreObjectResult(v any)      { c.store(v) }

func (c *CallContext) ExceptionThrown(err error) {
	c.Exceptions = append(c.Exceptions, err)
}

// AssertResult checks that exactly one result equal to want was stored and
// no exception was reported.
func AssertResult(t *testing.T, c *CallContext, want any) {
	t.Helper()
	if len(c.Exceptions) > 0 {
		t.Fatalf("unexpected exception: %v", c.Exceptions[0])
	}
	if c.Stores != 1 {
		t.Fatalf("expected 1 stored result, got %d", c.Stores)
	}
	if !reflect.DeepEqual(c.Result, want) {
		t.Errorf("expected result %#v, got %#v", want, c.Result)
	}
}

// AssertNoResult checks that neither a result nor an exception was reported.
func AssertNoResult(t *testing.T, c *CallContext) {
	t.Helper()
	if len(c.Exceptions) > 0 {
		t.Fatalf("unexpected exception: %v", c.Exceptions[0])
	}
	if c.Stores != 0 {
		t.Errorf("expected no result, got %#v", c.Result)
	}
}

// AssertException checks that exactly one exception with the given code
// was reported and returns it.
func AssertException(t *testing.T, c *CallContext, code reflection.ErrorCode) *reflection.Error {
	t.Helper()
	if len(c.Exceptions) != 1 {
		t.Fatalf("expected 1 exception, got %d: %v", len(c.Exceptions), c.Exceptions)
	}
	e := reflection.AsError(c.Exceptions[0])
	if e.Code != code {
		t.Errorf("expected exception code %s, got %s (%s)", code, e.Code, e.Message)
	}
	return e
}

// String summarizes the recorded state for failure messages.
func (c *CallContext) String() string {
	return fmt.Sprintf("args=%v accessed=%v result=%v stores=%d exceptions=%v",
		c.Args, c.Accessed, c.Result, c.Stores, c.Exceptions)
}
