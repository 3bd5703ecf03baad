package luabind

import (
	"math"
	"reflect"

	lua "github.com/yuin/gopher-lua"

	"github.com/mge-engine/reflection"
)

// invokeContext forwards proxy calls to methods of a Lua value.
type invokeContext struct {
	in     *Interpreter
	self   lua.LValue
	args   []lua.LValue
	result lua.LValue
}

// InvokeContext returns a context calling methods of self with self as
// first argument, as the colon syntax does.
func (in *Interpreter) InvokeContext(self lua.LValue) reflection.InvokeContext {
	return &invokeContext{in: in, self: self}
}

func (c *invokeContext) StoreArgument(index int, v reflect.Value) error {
	lv, err := c.toLua(v)
	if err != nil {
		return err
	}
	for len(c.args) <= index {
		c.args = append(c.args, lua.LNil)
	}
	c.args[index] = lv
	return nil
}

func (c *invokeContext) toLua(v reflect.Value) (lua.LValue, error) {
	switch k := reflection.KindOf(v.Type()); {
	case k == reflection.KindBool:
		return lua.LBool(v.Bool()), nil
	case k == reflection.KindString:
		return lua.LString(v.String()), nil
	case k == reflection.KindFloat32 || k == reflection.KindFloat64:
		return lua.LNumber(v.Float()), nil
	case v.CanInt():
		return lua.LNumber(v.Int()), nil
	case v.CanUint():
		return lua.LNumber(v.Uint()), nil
	case k == reflection.KindObject:
		return c.in.binder.newObject(c.in.L, v), nil
	}
	return nil, reflection.Errorf(reflection.CodeNotImplemented, "cannot pass %s to lua", v.Type())
}

func (c *invokeContext) Call(method string) error {
	L := c.in.L
	args := c.args
	c.args = nil
	c.result = nil

	if c.self.Type() != lua.LTTable {
		return reflection.Errorf(reflection.CodeIllegalState, "lua proxy target is a %s, not a table", c.self.Type())
	}
	fn := L.GetField(c.self, method)
	if fn.Type() != lua.LTFunction {
		return reflection.Errorf(reflection.CodeNotFound, "lua object has no method %s", method)
	}
	err := L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, append([]lua.LValue{c.self}, args...)...)
	if err != nil {
		return reflection.Errorf(reflection.CodeNativeException, "lua method %s failed: %v", method, err)
	}
	c.result = L.Get(-1)
	L.Pop(1)
	return nil
}

func (c *invokeContext) Result(t reflect.Type) (reflect.Value, error) {
	v := c.result
	if v == nil {
		return reflect.Value{}, reflection.NewError(reflection.CodeIllegalState, "no lua call made")
	}
	bad := func() (reflect.Value, error) {
		return reflect.Value{}, reflection.Errorf(reflection.CodeInvalidArgument, "lua returned %s where %s expected", v.Type(), t)
	}
	k := reflection.KindOf(t)
	switch {
	case k == reflection.KindBool:
		return reflect.ValueOf(lua.LVAsBool(v)), nil
	case k == reflection.KindString:
		s, ok := v.(lua.LString)
		if !ok {
			return bad()
		}
		return reflect.ValueOf(string(s)), nil
	case k.IsNumber():
		n, ok := v.(lua.LNumber)
		if !ok {
			return bad()
		}
		if k.IsInteger() && float64(n) != math.Trunc(float64(n)) {
			return bad()
		}
		return reflect.ValueOf(float64(n)).Convert(t), nil
	case k == reflection.KindObject:
		obj, ok := toObject(v)
		if !ok {
			return bad()
		}
		switch {
		case obj.ptr.Type() == t:
			return obj.ptr, nil
		case obj.ptr.Type().Elem() == t:
			return obj.ptr.Elem(), nil
		}
	}
	return bad()
}
