package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/mge-engine/reflection/describe"
)

type DescribeCmd struct {
	Module     string `arg:"" optional:"" help:"Qualified module to describe, e.g. mge::math."`
	JSON       bool   `help:"Print the manifest as JSON. Default when stdout is not a terminal." name:"json"`
	Primitives bool   `help:"Include the predeclared primitive types."`
}

func (c *DescribeCmd) Run(e *env) error {
	m := e.registry.Root()
	if c.Module != "" {
		var err error
		if m, err = e.registry.FindModule(c.Module); err != nil {
			return err
		}
	}
	manifest := describe.BuildWith(e.registry, m, describe.Options{Primitives: c.Primitives})
	for _, err := range manifest.Validate() {
		e.logger.Warn("manifest problem", "error", err)
	}
	if c.JSON || !isTerminal(e.stdout) {
		return manifest.Write(e.stdout)
	}
	return printManifest(e.stdout, manifest)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// printManifest renders m as an indented outline.
func printManifest(w io.Writer, m *describe.Manifest) error {
	p := &outline{w: w}
	p.module(m.Root, 0)
	return p.err
}

type outline struct {
	w   io.Writer
	err error
}

func (p *outline) line(depth int, format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, "%s"+format+"\n", append([]any{strings.Repeat("  ", depth)}, args...)...)
}

func (p *outline) module(m *describe.ModuleDescriptor, depth int) {
	name := m.FullName
	if name == "" {
		name = "(root)"
	}
	p.line(depth, "module %s", name)
	for _, t := range m.Types {
		p.typ(t, depth+1)
	}
	for _, f := range m.Functions {
		p.line(depth+1, "func %s", signature(f))
	}
	for _, v := range m.Variables {
		p.line(depth+1, "var %s %s", v.Name, v.Type)
	}
	for _, child := range m.Modules {
		p.module(child, depth+1)
	}
}

func (p *outline) typ(t *describe.TypeDescriptor, depth int) {
	head := fmt.Sprintf("%s %s", t.Kind, t.Name)
	if t.Base != "" {
		head += " : " + t.Base
	}
	p.line(depth, "%s", head)
	for _, c := range t.Constructors {
		p.line(depth+1, "new(%s)", params(c.Params))
	}
	for _, f := range t.Fields {
		ro := ""
		if f.ReadOnly {
			ro = " (read-only)"
		}
		p.line(depth+1, "%s %s%s", f.Name, f.Type, ro)
	}
	for _, f := range t.Methods {
		p.line(depth+1, "%s", signature(f))
	}
	for _, f := range t.StaticMethods {
		p.line(depth+1, "static %s", signature(f))
	}
	for _, v := range t.EnumValues {
		p.line(depth+1, "%s = %d", v.Name, v.Value)
	}
	for _, n := range t.Nested {
		p.typ(n, depth+1)
	}
}

func signature(f *describe.FunctionDescriptor) string {
	s := fmt.Sprintf("%s(%s)", f.Name, params(f.Params))
	if !f.Result.IsVoid() {
		s += " " + f.Result.String()
	}
	return s
}

func params(ps []describe.TypeRef) string {
	parts := make([]string, len(ps))
	for i, p := range ps {
		parts[i] = p.String()
	}
	return strings.Join(parts, ", ")
}
