package luabind_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"

	"github.com/mge-engine/reflection"
	"github.com/mge-engine/reflection/luabind"
)

type Vec struct {
	X, Y float32
}

func NewVec(x, y float32) Vec { return Vec{X: x, Y: y} }

func (v Vec) Length() float32 {
	return float32(math.Hypot(float64(v.X), float64(v.Y)))
}

func (v *Vec) Scale(f float32) {
	v.X *= f
	v.Y *= f
}

func (v *Vec) ScaleXY(x, y float32) {
	v.X *= x
	v.Y *= y
}

func (v Vec) Add(o Vec) Vec { return Vec{X: v.X + o.X, Y: v.Y + o.Y} }

type Color int32

const (
	ColorRed Color = iota + 1
	ColorGreen
)

type Shape struct {
	Name string
}

func (s *Shape) Describe() string { return "shape " + s.Name }

type Circle struct {
	Shape
	Radius float64
}

func NewCircle(r float64) (*Circle, error) {
	if r < 0 {
		return nil, errors.New("negative radius")
	}
	return &Circle{Shape: Shape{Name: "circle"}, Radius: r}, nil
}

type Resource struct {
	Closed bool
}

func Divide(a, b float64) (float64, error) {
	if b == 0 {
		return 0, errors.New("division by zero")
	}
	return a / b, nil
}

func newInterpreter(t *testing.T, level *int32) (*reflection.Registry, *luabind.Interpreter) {
	t.Helper()
	r := reflection.NewRegistry()
	mge := r.Root().MustModule("mge")

	reflection.Type[Vec](mge, "vec").
		DefaultConstructor().
		Constructor(NewVec).
		Field("x", "X").
		ReadOnlyField("y", "Y").
		Method("length", Vec.Length).
		Method("scale", (*Vec).Scale).
		Method("scale", (*Vec).ScaleXY).
		Method("add", Vec.Add)
	reflection.Type[Color](mge, "color").
		EnumValue("RED", ColorRed).
		EnumValue("GREEN", ColorGreen)
	reflection.Type[Shape](mge, "shape").
		Field("name", "Name").
		Method("describe", (*Shape).Describe)
	reflection.Extends[Shape](reflection.Type[Circle](mge, "circle").
		Constructor(NewCircle).
		Field("radius", "Radius"))
	reflection.Type[Resource](mge, "resource").
		DefaultConstructor().
		ReadOnlyField("closed", "Closed").
		Destructor(func(r *Resource) { r.Closed = true })

	mge.RegisterFunction("twice", func(n int32) int32 { return 2 * n })
	mge.RegisterVariable("level", level)
	mge.MustModule("math").RegisterFunction("divide", Divide)

	in := luabind.NewInterpreter(r)
	t.Cleanup(in.Close)
	return r, in
}

func run(t *testing.T, in *luabind.Interpreter, src string) {
	t.Helper()
	require.NoError(t, in.DoString(context.Background(), src))
}

func TestFunctions(t *testing.T) {
	var level int32
	_, in := newInterpreter(t, &level)

	run(t, in, `result = mge.math.divide(10, 4)`)
	assert.Equal(t, lua.LNumber(2.5), in.Global("result"))

	run(t, in, `local m = require("mge"); result = m.math.divide(9, 3)`)
	assert.Equal(t, lua.LNumber(3), in.Global("result"))

	err := in.DoString(context.Background(), `mge.math.divide(1, 0)`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "division by zero")

	run(t, in, `n = mge.twice(21)`)
	assert.Equal(t, lua.LNumber(42), in.Global("n"))

	err = in.DoString(context.Background(), `mge.twice(2.5)`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "integer expected")
}

func TestVariables(t *testing.T) {
	level := int32(3)
	_, in := newInterpreter(t, &level)

	run(t, in, `before = mge.get_level(); mge.set_level(7)`)
	assert.Equal(t, lua.LNumber(3), in.Global("before"))
	assert.Equal(t, int32(7), level)
}

func TestEnums(t *testing.T) {
	var level int32
	_, in := newInterpreter(t, &level)

	run(t, in, `red, green = mge.color.RED, mge.color.GREEN`)
	assert.Equal(t, lua.LNumber(1), in.Global("red"))
	assert.Equal(t, lua.LNumber(2), in.Global("green"))
}

func TestConstructorsAndMethods(t *testing.T) {
	var level int32
	_, in := newInterpreter(t, &level)

	run(t, in, `
		local v = mge.vec.new(3, 4)
		len = v:length()
		local z = mge.vec.new()
		zx = z.x
		local s = mge.vec.new(1, 1)
		s:scale(2)
		s:scale(3, 4)
		sx, sy = s.x, s.y
		local sum = mge.vec.new(1, 2):add(mge.vec.new(3, 4))
		bx = sum.x
		v.x = 10
		vx = v.x
	`)
	assert.Equal(t, lua.LNumber(5), in.Global("len"))
	assert.Equal(t, lua.LNumber(0), in.Global("zx"))
	assert.Equal(t, lua.LNumber(6), in.Global("sx"))
	assert.Equal(t, lua.LNumber(8), in.Global("sy"))
	assert.Equal(t, lua.LNumber(4), in.Global("bx"))
	assert.Equal(t, lua.LNumber(10), in.Global("vx"))
}

func TestBindingErrors(t *testing.T) {
	var level int32
	_, in := newInterpreter(t, &level)

	tests := []struct {
		name string
		src  string
		want string
	}{
		{name: "read-only field", src: `mge.vec.new(1, 2).y = 3`, want: "read-only"},
		{name: "unknown field", src: `mge.vec.new(1, 2).z = 3`, want: "has no field z"},
		{name: "no matching constructor", src: `mge.vec.new("a", "b")`, want: "no matching constructor for mge::vec"},
		{name: "no matching overload", src: `mge.vec.new(1, 2):scale("x")`, want: "no matching overload for mge::vec:scale"},
		{name: "constructor error", src: `mge.circle.new(-1)`, want: "negative radius"},
		{name: "method on non object", src: `local v = mge.vec.new(1, 2); v.length({})`, want: "native object expected"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := in.DoString(context.Background(), tt.src)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestInheritance(t *testing.T) {
	var level int32
	_, in := newInterpreter(t, &level)

	run(t, in, `
		local c = mge.circle.new(2)
		d = c:describe()
		n = c.name
		c.name = "disc"
		n2 = c:describe()
		r = c.radius
	`)
	assert.Equal(t, lua.LString("shape circle"), in.Global("d"))
	assert.Equal(t, lua.LString("circle"), in.Global("n"))
	assert.Equal(t, lua.LString("shape disc"), in.Global("n2"))
	assert.Equal(t, lua.LNumber(2), in.Global("r"))
}

func TestDestructor(t *testing.T) {
	var level int32
	_, in := newInterpreter(t, &level)

	run(t, in, `
		local res = mge.resource.new()
		before = res.closed
		res:delete()
		after = res.closed
	`)
	assert.Equal(t, lua.LFalse, in.Global("before"))
	assert.Equal(t, lua.LTrue, in.Global("after"))
}

func TestInterceptorsApply(t *testing.T) {
	var level int32
	r, in := newInterpreter(t, &level)

	var calls []string
	r.WithInterceptor(func(info *reflection.CallInfo, ctx reflection.CallContext, next reflection.Invoker) {
		calls = append(calls, info.Name)
		next.Invoke(ctx)
	})
	run(t, in, `mge.twice(1); mge.math.divide(1, 2)`)
	assert.Equal(t, []string{"mge::twice", "mge::math::divide"}, calls)
}

func TestEval(t *testing.T) {
	var level int32
	_, in := newInterpreter(t, &level)
	ctx := context.Background()

	out, err := in.Eval(ctx, "1 + 2, 'x'")
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "x"}, out)

	out, err = in.Eval(ctx, "answer = mge.twice(21)")
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Equal(t, lua.LNumber(42), in.Global("answer"))

	out, err = in.Eval(ctx, "mge.vec.new(1, 2)")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Contains(t, out[0], "mge::vec: 0x")

	_, err = in.Eval(ctx, "this is not lua")
	assert.Error(t, err)
}

func TestComplete(t *testing.T) {
	var level int32
	_, in := newInterpreter(t, &level)

	tests := []struct {
		src  string
		want bool
	}{
		{"1 + 2", true},
		{"x = 1", true},
		{"for i = 1, 3 do", false},
		{"for i = 1, 3 do\n  print(i)\nend", true},
		{"f(1,", false},
		{"this is not lua", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, in.Complete(tt.src), "Complete(%q)", tt.src)
	}
}

func TestCanceledScript(t *testing.T) {
	var level int32
	_, in := newInterpreter(t, &level)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, in.DoString(ctx, `while true do end`))
}

type scriptListener struct {
	reflection.Proxy
}

func (l *scriptListener) OnEvent(name string, count int32) (bool, error) {
	return reflection.ProxyCall[bool](&l.Proxy, "on_event", name, count)
}

func (l *scriptListener) Position() (Vec, error) {
	return reflection.ProxyCall[Vec](&l.Proxy, "position")
}

func TestProxy(t *testing.T) {
	var level int32
	_, in := newInterpreter(t, &level)

	run(t, in, `
		listener = {
			on_event = function(self, name, count)
				self.last = name
				return count > 2
			end,
			position = function(self)
				return mge.vec.new(5, 6)
			end,
		}
	`)
	l := &scriptListener{}
	in.Bind(&l.Proxy, in.Global("listener"))

	ok, err := l.OnEvent("tick", 3)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, lua.LString("tick"), in.L.GetField(in.Global("listener"), "last"))

	ok, err = l.OnEvent("tock", 1)
	require.NoError(t, err)
	assert.False(t, ok)

	pos, err := l.Position()
	require.NoError(t, err)
	assert.Equal(t, Vec{X: 5, Y: 6}, pos)

	err = l.Call("missing")
	assert.True(t, reflection.IsCode(err, reflection.CodeNotFound), "got %v", err)

	run(t, in, `listener.on_event = function() error("boom") end`)
	_, err = l.OnEvent("x", 1)
	assert.True(t, reflection.IsCode(err, reflection.CodeNativeException), "got %v", err)
	assert.Contains(t, err.Error(), "boom")
}
