// Package bindings holds the engine reflectors: core (logging and
// configuration) and math (float vectors), the latter depending on core.
//
//	r := reflection.NewRegistry()
//	bindings.Register(r, bindings.Options{Logger: logger})
//	if err := r.BindAll(ctx); err != nil { ... }
package bindings

import (
	"log/slog"

	"github.com/mge-engine/reflection"
	"github.com/mge-engine/reflection/config"
)

// ModuleName is the module the engine types are registered in.
const ModuleName = "mge"

// Options configures the engine reflectors.
type Options struct {
	// Logger receives messages logged by scripts. Defaults to slog.Default().
	Logger *slog.Logger
	// Configuration is exposed as the variable mge::configuration.
	// A nil Configuration exposes an empty one.
	Configuration *config.Configuration
}

// reflector adapts a function to reflection.Reflector.
type reflector struct {
	name    string
	deps    []string
	reflect func(r *reflection.Registry) error
}

func (rf *reflector) Name() string                         { return rf.name }
func (rf *reflector) Dependencies() []string               { return rf.deps }
func (rf *reflector) Reflect(r *reflection.Registry) error { return rf.reflect(r) }

// Register schedules every engine reflector on r.
func Register(r *reflection.Registry, opts Options) *reflection.Registry {
	return r.AddReflector(Core(opts)).AddReflector(Math())
}
