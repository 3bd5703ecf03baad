// Package luastub generates LuaLS annotation stubs for the modules of a
// reflection registry, so that editors can complete and type check scripts
// written against the bindings.
package luastub

import (
	"bytes"
	"context"
	"fmt"

	"github.com/mge-engine/reflection"
	"github.com/mge-engine/reflection/describe"
	"github.com/mge-engine/reflection/sink"
)

// Config controls stub generation.
type Config struct {
	// Indent is used inside table constructors. Default: four spaces.
	Indent string

	// Frontmatter is added below the header of every generated file.
	Frontmatter string

	// GlobalsFile receives functions, variables and types registered in
	// the root module. Default: "globals.lua".
	GlobalsFile string
}

func (c Config) withDefaults() Config {
	if c.Indent == "" {
		c.Indent = "    "
	}
	if c.GlobalsFile == "" {
		c.GlobalsFile = "globals.lua"
	}
	return c
}

// Result describes a generation run.
type Result struct {
	// Files lists the written files in order.
	Files []OutputFile

	// TypesGenerated is the count of types written.
	TypesGenerated int
}

// OutputFile describes a generated file.
type OutputFile struct {
	Path string
	Size int64
}

const header = "---@meta\n-- Code generated by mgebind. DO NOT EDIT.\n\n"

// Generate writes one stub file per top-level module of m to out, plus the
// globals file when the root module has entries of its own.
func Generate(ctx context.Context, m *describe.Manifest, out sink.OutputSink, cfg Config) (*Result, error) {
	cfg = cfg.withDefaults()
	e := NewEmitter(m, cfg)
	res := &Result{}

	write := func(path string, emit func(*bytes.Buffer)) error {
		var buf bytes.Buffer
		buf.WriteString(header)
		if cfg.Frontmatter != "" {
			buf.WriteString(cfg.Frontmatter)
			buf.WriteString("\n\n")
		}
		emit(&buf)
		content := append(bytes.TrimRight(buf.Bytes(), "\n"), '\n')
		if err := out.WriteFile(ctx, path, content); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		res.Files = append(res.Files, OutputFile{Path: path, Size: int64(len(content))})
		return nil
	}

	if hasOwnEntries(m.Root) {
		if err := write(cfg.GlobalsFile, func(buf *bytes.Buffer) { e.EmitModule(buf, m.Root) }); err != nil {
			return nil, err
		}
	}
	for _, child := range m.Root.Modules {
		if err := write(child.Name+".lua", func(buf *bytes.Buffer) { e.EmitModule(buf, child) }); err != nil {
			return nil, err
		}
	}
	res.TypesGenerated = e.count
	return res, nil
}

// GenerateRegistry describes r and generates stubs for it.
func GenerateRegistry(ctx context.Context, r *reflection.Registry, out sink.OutputSink, cfg Config) (*Result, error) {
	return Generate(ctx, describe.Build(r), out, cfg)
}

func hasOwnEntries(m *describe.ModuleDescriptor) bool {
	if len(m.Functions) > 0 || len(m.Variables) > 0 {
		return true
	}
	for _, t := range m.Types {
		if t.Kind != describe.KindPrimitive {
			return true
		}
	}
	return false
}
