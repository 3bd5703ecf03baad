// Package luabind exposes the modules of a reflection registry to Lua
// scripts running on gopher-lua.
//
// Modules become nested tables, top-level modules can also be loaded with
// require. Classes are tables holding a new constructor and static
// methods; their instances are userdata whose metatable resolves methods
// and fields through the registered type details, bases included.
// Variables are exposed as get_name and set_name functions.
package luabind

import (
	"fmt"
	"log/slog"
	"reflect"

	lua "github.com/yuin/gopher-lua"

	"github.com/mge-engine/reflection"
)

// object is the userdata payload of a native object. ptr always holds a
// pointer so that methods and field setters act on the object in place.
type object struct {
	ptr     reflect.Value
	details *reflection.TypeDetails
}

func toObject(v lua.LValue) (*object, bool) {
	ud, ok := v.(*lua.LUserData)
	if !ok {
		return nil, false
	}
	obj, ok := ud.Value.(*object)
	return obj, ok
}

// Binder is a reflection.Visitor that creates the Lua side of each node it
// visits. A Binder belongs to one LState and, like the state, must not be
// used from more than one goroutine.
type Binder struct {
	L        *lua.LState
	registry *reflection.Registry
	logger   *slog.Logger

	modules    []*lua.LTable
	types      []*lua.LTable
	metatables map[*reflection.TypeDetails]*lua.LTable
}

var _ reflection.Visitor = (*Binder)(nil)

// NewBinder creates a binder for L resolving objects against r.
func NewBinder(L *lua.LState, r *reflection.Registry) *Binder {
	return &Binder{
		L:          L,
		registry:   r,
		metatables: make(map[*reflection.TypeDetails]*lua.LTable),
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func (b *Binder) WithLogger(logger *slog.Logger) *Binder {
	b.logger = logger
	return b
}

func (b *Binder) log() *slog.Logger {
	if b.logger != nil {
		return b.logger
	}
	return slog.Default()
}

// Bind binds every module of the registry.
func (b *Binder) Bind() {
	b.registry.Apply(b)
}

func (b *Binder) ModuleBegin(m *reflection.ModuleDetails) {
	if m.IsRoot() {
		b.modules = append(b.modules, b.L.G.Global)
		return
	}
	parent := b.modules[len(b.modules)-1]
	tbl, ok := parent.RawGetString(m.Name()).(*lua.LTable)
	if !ok {
		tbl = b.L.NewTable()
		parent.RawSetString(m.Name(), tbl)
	}
	if parent == b.L.G.Global {
		b.L.PreloadModule(m.Name(), func(L *lua.LState) int {
			L.Push(tbl)
			return 1
		})
	}
	b.modules = append(b.modules, tbl)
	b.log().Debug("bound module", slog.String("module", m.FullName()))
}

func (b *Binder) ModuleEnd(*reflection.ModuleDetails) {
	b.modules = b.modules[:len(b.modules)-1]
}

// TypeBegin creates the table of an enum or class. Other types have no
// table; a nil entry keeps the stack balanced.
func (b *Binder) TypeBegin(t *reflection.TypeDetails) {
	var tbl *lua.LTable
	switch {
	case t.IsEnum():
		tbl = b.L.NewTable()
	case t.IsClass() || t.IsArray():
		tbl = b.classTable(t)
		b.metatable(t)
	}
	if tbl != nil {
		parent := b.modules[len(b.modules)-1]
		if n := len(b.types); n > 0 && b.types[n-1] != nil {
			parent = b.types[n-1]
		}
		parent.RawSetString(t.Name(), tbl)
	}
	b.types = append(b.types, tbl)
}

func (b *Binder) TypeEnd(*reflection.TypeDetails) {
	b.types = b.types[:len(b.types)-1]
}

func (b *Binder) EnumValue(_ *reflection.TypeDetails, name string, value int64) {
	if tbl := b.types[len(b.types)-1]; tbl != nil {
		tbl.RawSetString(name, lua.LNumber(value))
	}
}

func (b *Binder) Function(f *reflection.FunctionDetails) {
	name := f.FullName()
	b.modules[len(b.modules)-1].RawSetString(f.Name(), b.L.NewFunction(func(L *lua.LState) int {
		ctx := b.newCallContext(L, 1)
		if err := b.registry.Call(name, ctx); err != nil {
			ctx.ExceptionThrown(err)
		}
		return ctx.finish()
	}))
}

func (b *Binder) Variable(v *reflection.VariableDetails) {
	tbl := b.modules[len(b.modules)-1]
	tbl.RawSetString("get_"+v.Name(), b.L.NewFunction(func(L *lua.LState) int {
		ctx := b.newCallContext(L, 1)
		v.Get(ctx)
		return ctx.finish()
	}))
	tbl.RawSetString("set_"+v.Name(), b.L.NewFunction(func(L *lua.LState) int {
		ctx := b.newCallContext(L, 1)
		v.Set(ctx)
		return ctx.finish()
	}))
}

// classTable holds the constructor and the static methods of t.
func (b *Binder) classTable(t *reflection.TypeDetails) *lua.LTable {
	tbl := b.L.NewTable()
	if ctors := t.Constructors(); len(ctors) > 0 {
		sigs := make([]reflection.Signature, len(ctors))
		for i, c := range ctors {
			sigs[i] = c.Signature
		}
		tbl.RawSetString("new", b.L.NewFunction(func(L *lua.LState) int {
			i := b.bestMatch(sigs, args(L, 1))
			if i < 0 {
				L.RaiseError("no matching constructor for %s", t.FullName())
			}
			ctx := b.newCallContext(L, 1)
			ctors[i].MakeShared.Invoke(ctx)
			return ctx.finish()
		}))
	}
	statics := make(map[string][]*reflection.MethodInfo)
	for _, m := range t.StaticMethods() {
		statics[m.Name] = append(statics[m.Name], m)
	}
	for name, overloads := range statics {
		tbl.RawSetString(name, b.L.NewFunction(b.overloadDispatcher(t.FullName()+"."+name, overloads, 1, false)))
	}
	return tbl
}

// overloadDispatcher selects the overload matching the arguments from
// stack index base on. For methods the receiver is at index 1.
func (b *Binder) overloadDispatcher(name string, overloads []*reflection.MethodInfo, base int, method bool) lua.LGFunction {
	sigs := make([]reflection.Signature, len(overloads))
	for i, m := range overloads {
		sigs[i] = m.Signature
	}
	return func(L *lua.LState) int {
		ctx := b.newCallContext(L, base)
		if method {
			ctx.withThis(checkObject(L, 1).ptr.Interface())
		}
		i := b.bestMatch(sigs, args(L, base))
		if i < 0 {
			L.RaiseError("no matching overload for %s", name)
		}
		overloads[i].Invoker.Invoke(ctx)
		return ctx.finish()
	}
}

// metatable returns the metatable shared by all instances of t.
func (b *Binder) metatable(t *reflection.TypeDetails) *lua.LTable {
	if mt, ok := b.metatables[t]; ok {
		return mt
	}
	mt := b.L.NewTable()
	b.metatables[t] = mt
	methods := make(map[string]*lua.LFunction)

	mt.RawSetString("__index", b.L.NewFunction(func(L *lua.LState) int {
		obj := checkObject(L, 1)
		key := L.CheckString(2)
		if f, err := t.Field(key); err == nil {
			ctx := b.newCallContext(L, 3).withThis(obj.ptr.Interface())
			f.Getter.Invoke(ctx)
			return ctx.finish()
		}
		if fn, ok := methods[key]; ok {
			L.Push(fn)
			return 1
		}
		if overloads, err := t.MethodOverloads(key); err == nil && len(overloads) > 0 {
			fn := L.NewFunction(b.overloadDispatcher(t.FullName()+":"+key, overloads, 2, true))
			methods[key] = fn
			L.Push(fn)
			return 1
		}
		if key == "delete" && t.Destructor() != nil {
			L.Push(L.NewFunction(b.destroy(t)))
			return 1
		}
		L.Push(lua.LNil)
		return 1
	}))
	mt.RawSetString("__newindex", b.L.NewFunction(func(L *lua.LState) int {
		obj := checkObject(L, 1)
		key := L.CheckString(2)
		f, err := t.Field(key)
		if err != nil {
			L.RaiseError("%s", err.Error())
		}
		if f.ReadOnly() {
			L.RaiseError("field %s of %s is read-only", key, t.FullName())
		}
		ctx := b.newCallContext(L, 3).withThis(obj.ptr.Interface())
		f.Setter.Invoke(ctx)
		return ctx.finish()
	}))
	mt.RawSetString("__tostring", b.L.NewFunction(func(L *lua.LState) int {
		obj := checkObject(L, 1)
		L.Push(lua.LString(fmt.Sprintf("%s: %p", t.FullName(), obj.ptr.Interface())))
		return 1
	}))
	mt.RawSetString("__eq", b.L.NewFunction(func(L *lua.LState) int {
		a, aok := toObject(L.Get(1))
		c, cok := toObject(L.Get(2))
		L.Push(lua.LBool(aok && cok && a.ptr.Pointer() == c.ptr.Pointer()))
		return 1
	}))
	return mt
}

func (b *Binder) destroy(t *reflection.TypeDetails) lua.LGFunction {
	return func(L *lua.LState) int {
		obj := checkObject(L, 1)
		ctx := b.newCallContext(L, 2).withThis(obj.ptr.Interface())
		t.Destructor().Invoker.Invoke(ctx)
		return ctx.finish()
	}
}

// newObject wraps v, boxing values so that the userdata owns a pointer.
func (b *Binder) newObject(L *lua.LState, v reflect.Value) lua.LValue {
	if !v.IsValid() || (v.Kind() == reflect.Ptr && v.IsNil()) {
		return lua.LNil
	}
	if v.Kind() != reflect.Ptr {
		p := reflect.New(v.Type())
		p.Elem().Set(v)
		v = p
	}
	obj := &object{ptr: v}
	ud := L.NewUserData()
	ud.Value = obj
	if details, ok := b.registry.Lookup(v.Type().Elem()); ok {
		obj.details = details
		ud.Metatable = b.metatable(details)
	}
	return ud
}

func checkObject(L *lua.LState, n int) *object {
	obj, ok := toObject(L.Get(n))
	if !ok {
		L.ArgError(n, "native object expected")
	}
	return obj
}

// args returns the stack values from index base to the top.
func args(L *lua.LState, base int) []lua.LValue {
	top := L.GetTop()
	if top < base {
		return nil
	}
	out := make([]lua.LValue, 0, top-base+1)
	for i := base; i <= top; i++ {
		out = append(out, L.Get(i))
	}
	return out
}
