package bindings

import (
	"math"

	"golang.org/x/image/math/f32"

	"github.com/mge-engine/reflection"
)

type vector interface {
	f32.Vec2 | f32.Vec3 | f32.Vec4
}

func dot[V vector](a, b V) float32 {
	var s float32
	for i := 0; i < len(a); i++ {
		s += a[i] * b[i]
	}
	return s
}

func length[V vector](v V) float32 {
	return float32(math.Sqrt(float64(dot(v, v))))
}

func add[V vector](a, b V) V {
	for i := 0; i < len(a); i++ {
		a[i] += b[i]
	}
	return a
}

func sub[V vector](a, b V) V {
	for i := 0; i < len(a); i++ {
		a[i] -= b[i]
	}
	return a
}

func scale[V vector](v V, f float32) V {
	for i := 0; i < len(v); i++ {
		v[i] *= f
	}
	return v
}

// normalized returns v scaled to unit length; the zero vector stays zero.
func normalized[V vector](v V) V {
	l := length(v)
	if l == 0 {
		return v
	}
	return scale(v, 1/l)
}

func component[V vector](i int) (get func(V) float32, set func(*V, float32)) {
	return func(v V) float32 { return v[i] },
		func(v *V, x float32) { (*v)[i] = x }
}

// vectorType registers the members shared by all vector sizes.
func vectorType[V vector](m *reflection.ModuleDetails, name string, fields ...string) *reflection.TypeBuilder[V] {
	b := reflection.Type[V](m, name).
		DefaultConstructor().
		Method("dot", dot[V]).
		Method("length", length[V]).
		Method("add", add[V]).
		Method("sub", sub[V]).
		Method("scale", scale[V]).
		Method("normalized", normalized[V])
	for i, f := range fields {
		get, set := component[V](i)
		b.Property(f, get, set)
	}
	return b
}

// Math returns the reflector registering fvec2, fvec3 and fvec4.
func Math() reflection.Reflector {
	return &reflector{name: "math", deps: []string{"core"}, reflect: func(r *reflection.Registry) error {
		mge, err := r.Module(ModuleName)
		if err != nil {
			return err
		}
		vectorType[f32.Vec2](mge, "fvec2", "x", "y").
			Constructor(func(x, y float32) f32.Vec2 { return f32.Vec2{x, y} })
		vectorType[f32.Vec3](mge, "fvec3", "x", "y", "z").
			Constructor(func(x, y, z float32) f32.Vec3 { return f32.Vec3{x, y, z} }).
			Method("cross", func(a, b f32.Vec3) f32.Vec3 {
				return f32.Vec3{
					a[1]*b[2] - a[2]*b[1],
					a[2]*b[0] - a[0]*b[2],
					a[0]*b[1] - a[1]*b[0],
				}
			})
		vectorType[f32.Vec4](mge, "fvec4", "x", "y", "z", "w").
			Constructor(func(x, y, z, w float32) f32.Vec4 { return f32.Vec4{x, y, z, w} })

		mge.MustModule("math").
			RegisterFunction("dot", dot[f32.Vec3])
		return nil
	}}
}
