package luastub_test

import (
	"bytes"
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"golang.org/x/tools/txtar"

	"github.com/mge-engine/reflection"
	"github.com/mge-engine/reflection/describe"
	"github.com/mge-engine/reflection/luastub"
	"github.com/mge-engine/reflection/sink"
)

type Level int32

const (
	LevelLow Level = iota
	LevelHigh
)

type Vec2 struct {
	X, Y float32
}

func NewVec2(x, y float32) Vec2 { return Vec2{X: x, Y: y} }

func (v Vec2) Length() float32 {
	return float32(math.Hypot(float64(v.X), float64(v.Y)))
}

func (v *Vec2) Scale(f float32) {
	v.X *= f
	v.Y *= f
}

func (v *Vec2) ScaleXY(x, y float32) {
	v.X *= x
	v.Y *= y
}

func Zero() Vec2 { return Vec2{} }

type Sprite struct {
	Vec2
	Name string
}

func Dot(a, b Vec2) (float32, error) {
	return a.X*b.X + a.Y*b.Y, nil
}

func newTestRegistry() *reflection.Registry {
	r := reflection.NewRegistry()
	mge := r.Root().MustModule("mge")
	reflection.Type[Level](mge, "level").
		EnumValue("LOW", LevelLow).
		EnumValue("HIGH", LevelHigh)
	reflection.Type[Vec2](mge, "vec2").
		DefaultConstructor().
		Constructor(NewVec2).
		Field("x", "X").
		ReadOnlyField("y", "Y").
		Method("length", Vec2.Length).
		Method("scale", (*Vec2).Scale).
		Method("scale", (*Vec2).ScaleXY).
		StaticMethod("zero", Zero)
	reflection.Extends[Vec2](reflection.Type[Sprite](mge, "sprite").
		Constructor(func(v Vec2, name string) Sprite { return Sprite{Vec2: v, Name: name} }).
		Field("name", "Name"))
	mge.RegisterFunction("end", func() {})

	m := mge.MustModule("math")
	m.RegisterFunction("dot", Dot)
	epsilon := 1e-6
	m.RegisterVariable("epsilon", &epsilon)

	r.Root().RegisterFunction("version", func() string { return "1.0" })
	return r
}

func TestGenerateGolden(t *testing.T) {
	ar, err := txtar.ParseFile("testdata/stubs.txtar")
	if err != nil {
		t.Fatal(err)
	}

	out := sink.NewMemorySink()
	res, err := luastub.GenerateRegistry(context.Background(), newTestRegistry(), out, luastub.Config{})
	if err != nil {
		t.Fatal(err)
	}
	if res.TypesGenerated != 3 {
		t.Errorf("expected 3 types, got %d", res.TypesGenerated)
	}
	if len(res.Files) != len(ar.Files) {
		t.Fatalf("expected %d files, got %d: %v", len(ar.Files), len(res.Files), out.Paths())
	}
	for i, want := range ar.Files {
		if res.Files[i].Path != want.Name {
			t.Errorf("file %d: expected %s, got %s", i, want.Name, res.Files[i].Path)
			continue
		}
		got := out.Get(want.Name)
		if !bytes.Equal(got, want.Data) {
			t.Errorf("%s mismatch:\n--- got ---\n%s\n--- want ---\n%s", want.Name, got, want.Data)
		}
		if res.Files[i].Size != int64(len(got)) {
			t.Errorf("%s: expected size %d, got %d", want.Name, len(got), res.Files[i].Size)
		}
	}
}

func TestGenerateOmitsEmptyGlobals(t *testing.T) {
	r := reflection.NewRegistry()
	r.Root().MustModule("mge").RegisterFunction("tick", func() {})

	out := sink.NewMemorySink()
	res, err := luastub.GenerateRegistry(context.Background(), r, out, luastub.Config{
		Frontmatter: "---@diagnostic disable: lowercase-global",
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Files) != 1 || res.Files[0].Path != "mge.lua" {
		t.Fatalf("unexpected files %v", res.Files)
	}
	got := string(out.Get("mge.lua"))
	if !strings.Contains(got, "DO NOT EDIT.\n\n---@diagnostic disable: lowercase-global\n\n---@class mge\n") {
		t.Errorf("expected frontmatter after header:\n%s", got)
	}
}

func TestGenerateQuotesNames(t *testing.T) {
	r := reflection.NewRegistry()
	weird := r.Root().MustModule("for").MustModule("my-module")
	weird.RegisterFunction("repeat", func(int32) {})

	out := sink.NewMemorySink()
	if _, err := luastub.GenerateRegistry(context.Background(), r, out, luastub.Config{}); err != nil {
		t.Fatal(err)
	}
	got := string(out.Get("for.lua"))
	for _, want := range []string{
		"---@class for\n_G[\"for\"] = {}\n",
		"---@class for.my-module\n_G[\"for\"][\"my-module\"] = {}\n",
		"---@param arg1 integer\n_G[\"for\"][\"my-module\"][\"repeat\"] = function(arg1) end\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("expected output to contain %q:\n%s", want, got)
		}
	}
}

type failingSink struct{}

func (failingSink) WriteFile(context.Context, string, []byte) error {
	return errors.New("disk full")
}

func TestGenerateSinkError(t *testing.T) {
	_, err := luastub.Generate(context.Background(), describe.Build(newTestRegistry()), failingSink{}, luastub.Config{})
	if err == nil || !strings.Contains(err.Error(), "write globals.lua: disk full") {
		t.Errorf("expected wrapped sink error, got %v", err)
	}
}
