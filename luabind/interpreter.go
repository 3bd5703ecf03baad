package luabind

import (
	"context"
	"log/slog"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/mge-engine/reflection"
)

// Interpreter is a Lua state with a registry bound into it.
// It must not be used from more than one goroutine at a time.
type Interpreter struct {
	L      *lua.LState
	binder *Binder
}

// NewInterpreter creates a Lua state and binds every module of r.
func NewInterpreter(r *reflection.Registry) *Interpreter {
	return NewInterpreterWithLogger(r, nil)
}

// NewInterpreterWithLogger is like NewInterpreter but logs binding through
// logger instead of slog.Default().
func NewInterpreterWithLogger(r *reflection.Registry, logger *slog.Logger) *Interpreter {
	L := lua.NewState()
	b := NewBinder(L, r).WithLogger(logger)
	b.Bind()
	return &Interpreter{L: L, binder: b}
}

// Close releases the Lua state.
func (in *Interpreter) Close() {
	in.L.Close()
}

// DoString runs a chunk of Lua source. ctx cancels long running scripts.
func (in *Interpreter) DoString(ctx context.Context, src string) error {
	in.L.SetContext(ctx)
	defer in.L.RemoveContext()
	return in.L.DoString(src)
}

// DoFile runs a Lua source file.
func (in *Interpreter) DoFile(ctx context.Context, path string) error {
	in.L.SetContext(ctx)
	defer in.L.RemoveContext()
	return in.L.DoFile(path)
}

// Eval runs src and returns its results as strings. src is first tried as
// an expression, then as a statement, which is what an interactive prompt
// wants.
func (in *Interpreter) Eval(ctx context.Context, src string) ([]string, error) {
	L := in.L
	fn, err := L.LoadString("return " + src)
	if err != nil {
		fn, err = L.LoadString(src)
		if err != nil {
			return nil, err
		}
	}
	L.SetContext(ctx)
	defer L.RemoveContext()

	top := L.GetTop()
	defer L.SetTop(top)
	L.Push(fn)
	if err := L.PCall(0, lua.MultRet, nil); err != nil {
		return nil, err
	}
	var out []string
	for i := top + 1; i <= L.GetTop(); i++ {
		out = append(out, L.ToStringMeta(L.Get(i)).String())
	}
	return out, nil
}

// Global returns the value of a global variable.
func (in *Interpreter) Global(name string) lua.LValue {
	return in.L.GetGlobal(name)
}

// Bind binds a proxy to the Lua value self, usually a table implementing
// the proxied methods.
func (in *Interpreter) Bind(p *reflection.Proxy, self lua.LValue) {
	p.SetInvokeContext(in.InvokeContext(self))
}

// Complete reports whether src is a complete chunk, either as an expression
// or as statements. A prompt reads more lines while it is not.
func (in *Interpreter) Complete(src string) bool {
	if _, err := in.L.LoadString("return " + src); err == nil {
		return true
	}
	_, err := in.L.LoadString(src)
	return err == nil || !strings.Contains(err.Error(), "EOF")
}
