package reflection_test

import (
	"errors"
	"math"
)

type Severity int32

const (
	SeverityDebug Severity = iota
	SeverityInfo
	SeverityWarning
	SeverityError
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

func (v Vec) Add(o Vec) Vec { return Vec{X: v.X + o.X, Y: v.Y + o.Y} }

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

func (c *Circle) Area() float64 { return math.Pi * c.Radius * c.Radius }

type Counter struct {
	n      int64
	closed bool
}

func (c *Counter) Inc() int64 {
	c.n++
	return c.n
}

func (c *Counter) Count() int64     { return c.n }
func (c *Counter) SetCount(n int64) { c.n = n }
func (c *Counter) Close()           { c.closed = true }
