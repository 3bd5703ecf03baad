package luabind

import (
	"math"
	"reflect"

	lua "github.com/yuin/gopher-lua"
	"golang.org/x/exp/constraints"

	"github.com/mge-engine/reflection"
)

// callContext reads parameters from the Lua stack and pushes results back.
// Parameter 0 lives at stack index base.
type callContext struct {
	b       *Binder
	L       *lua.LState
	base    int
	this    any
	hasThis bool
	results int
	err     error
}

var _ reflection.CallContext = (*callContext)(nil)

func (b *Binder) newCallContext(L *lua.LState, base int) *callContext {
	return &callContext{b: b, L: L, base: base}
}

func (c *callContext) withThis(this any) *callContext {
	c.this = this
	c.hasThis = true
	return c
}

// finish raises a Lua error for a failed call, or returns the number of
// results pushed.
func (c *callContext) finish() int {
	if c.err != nil {
		c.L.RaiseError("%s", c.err.Error())
	}
	return c.results
}

func (c *callContext) arg(position int) lua.LValue {
	return c.L.Get(c.base + position)
}

func (c *callContext) mismatch(position int, want string) error {
	return reflection.Errorf(reflection.CodeInvalidArgument,
		"parameter %d: %s expected, got %s", position, want, c.arg(position).Type())
}

func (c *callContext) number(position int) (float64, error) {
	switch v := c.arg(position).(type) {
	case lua.LNumber:
		return float64(v), nil
	case lua.LBool:
		if v {
			return 1, nil
		}
		return 0, nil
	}
	return 0, c.mismatch(position, "number")
}

func integerParameter[T constraints.Integer](c *callContext, position int) (T, error) {
	f, err := c.number(position)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, reflection.Errorf(reflection.CodeInvalidArgument, "parameter %d: integer expected, got %g", position, f)
	}
	n := T(f)
	if float64(n) != f {
		return 0, reflection.Errorf(reflection.CodeInvalidArgument, "parameter %d: %g out of range for %T", position, f, n)
	}
	return n, nil
}

func (c *callContext) BoolParameter(position int) (bool, error) {
	switch v := c.arg(position).(type) {
	case lua.LBool:
		return bool(v), nil
	case lua.LNumber:
		return v != 0, nil
	}
	return false, c.mismatch(position, "boolean")
}

func (c *callContext) Int8Parameter(p int) (int8, error)     { return integerParameter[int8](c, p) }
func (c *callContext) Uint8Parameter(p int) (uint8, error)   { return integerParameter[uint8](c, p) }
func (c *callContext) Int16Parameter(p int) (int16, error)   { return integerParameter[int16](c, p) }
func (c *callContext) Uint16Parameter(p int) (uint16, error) { return integerParameter[uint16](c, p) }
func (c *callContext) Int32Parameter(p int) (int32, error)   { return integerParameter[int32](c, p) }
func (c *callContext) Uint32Parameter(p int) (uint32, error) { return integerParameter[uint32](c, p) }
func (c *callContext) Int64Parameter(p int) (int64, error)   { return integerParameter[int64](c, p) }
func (c *callContext) Uint64Parameter(p int) (uint64, error) { return integerParameter[uint64](c, p) }

func (c *callContext) Float32Parameter(position int) (float32, error) {
	f, err := c.number(position)
	return float32(f), err
}

func (c *callContext) Float64Parameter(position int) (float64, error) {
	return c.number(position)
}

func (c *callContext) StringParameter(position int) (string, error) {
	switch v := c.arg(position).(type) {
	case lua.LString:
		return string(v), nil
	case lua.LNumber:
		return v.String(), nil
	}
	return "", c.mismatch(position, "string")
}

func (c *callContext) ObjectParameter(position int, t reflect.Type) (any, error) {
	v := c.arg(position)
	if v == lua.LNil {
		return nil, nil
	}
	obj, ok := toObject(v)
	if !ok {
		return nil, c.mismatch(position, t.String())
	}
	return obj.ptr.Interface(), nil
}

func (c *callContext) This() (any, error) {
	if !c.hasThis {
		return nil, reflection.NewError(reflection.CodeIllegalState, "call has no receiver")
	}
	return c.this, nil
}

func (c *callContext) push(v lua.LValue) {
	c.L.Push(v)
	c.results++
}

func (c *callContext) StoreBoolResult(v bool)       { c.push(lua.LBool(v)) }
func (c *callContext) StoreInt8Result(v int8)       { c.push(lua.LNumber(v)) }
func (c *callContext) StoreUint8Result(v uint8)     { c.push(lua.LNumber(v)) }
func (c *callContext) StoreInt16Result(v int16)     { c.push(lua.LNumber(v)) }
func (c *callContext) StoreUint16Result(v uint16)   { c.push(lua.LNumber(v)) }
func (c *callContext) StoreInt32Result(v int32)     { c.push(lua.LNumber(v)) }
func (c *callContext) StoreUint32Result(v uint32)   { c.push(lua.LNumber(v)) }
func (c *callContext) StoreInt64Result(v int64)     { c.push(lua.LNumber(v)) }
func (c *callContext) StoreUint64Result(v uint64)   { c.push(lua.LNumber(v)) }
func (c *callContext) StoreFloat32Result(v float32) { c.push(lua.LNumber(v)) }
func (c *callContext) StoreFloat64Result(v float64) { c.push(lua.LNumber(v)) }
func (c *callContext) StoreStringResult(v string)   { c.push(lua.LString(v)) }

func (c *callContext) StoreObjectResult(v any) {
	c.push(c.b.newObject(c.L, reflect.ValueOf(v)))
}

// ExceptionThrown keeps the first failure; finish raises it.
func (c *callContext) ExceptionThrown(err error) {
	if c.err == nil {
		c.err = err
	}
}
