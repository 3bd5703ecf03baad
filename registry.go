package reflection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/multi"
	"gonum.org/v1/gonum/graph/topo"
)

// Registry holds the type details and the module tree of one binding
// universe. Registration happens during a single bind pass (see BindAll);
// afterwards the registry is sealed and safe for concurrent reads.
type Registry struct {
	mu           sync.RWMutex
	types        map[reflect.Type]*TypeDetails
	root         *ModuleDetails
	reflectors   []Reflector
	interceptors []Interceptor
	logger       *slog.Logger

	bindOnce sync.Once
	bindErr  error
	sealed   atomic.Bool
}

// NewRegistry creates a registry whose root module already contains the
// primitive types.
func NewRegistry() *Registry {
	r := &Registry{
		types: make(map[reflect.Type]*TypeDetails),
	}
	r.root = newModuleDetails(r, nil, "")
	for _, t := range primitiveTypes {
		r.root.AddType(r.GetOrCreate(t, ""))
	}
	return r
}

var primitiveTypes = []reflect.Type{
	reflect.TypeFor[bool](),
	reflect.TypeFor[int8](),
	reflect.TypeFor[uint8](),
	reflect.TypeFor[int16](),
	reflect.TypeFor[uint16](),
	reflect.TypeFor[int32](),
	reflect.TypeFor[uint32](),
	reflect.TypeFor[int64](),
	reflect.TypeFor[uint64](),
	reflect.TypeFor[int](),
	reflect.TypeFor[uint](),
	reflect.TypeFor[float32](),
	reflect.TypeFor[float64](),
	reflect.TypeFor[string](),
}

var defaultRegistry = sync.OnceValue(NewRegistry)

// Default returns the process-wide registry, creating it on first use.
func Default() *Registry {
	return defaultRegistry()
}

// WithLogger sets a custom logger for the registry.
// If not set, slog.Default() will be used.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

func (r *Registry) log() *slog.Logger {
	if r.logger == nil {
		return slog.Default()
	}
	return r.logger
}

// Sealed reports whether the bind pass has completed.
func (r *Registry) Sealed() bool {
	return r.sealed.Load()
}

func (r *Registry) checkMutable() {
	if r.sealed.Load() {
		panic(NewError(CodeIllegalState, "registry is sealed: registration after bind is not supported"))
	}
}

// Root returns the root module.
func (r *Registry) Root() *ModuleDetails {
	return r.root
}

// Module looks up or creates the module with the given qualified name.
func (r *Registry) Module(name string) (*ModuleDetails, error) {
	return r.root.Module(name)
}

// GetOrCreate returns the details for t, creating them on first use.
// Details are keyed by Go type identity. name is only used when the
// details are created; an empty name selects the Go type name.
func (r *Registry) GetOrCreate(t reflect.Type, name string) *TypeDetails {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.getOrCreateLocked(t, name)
}

func (r *Registry) getOrCreateLocked(t reflect.Type, name string) *TypeDetails {
	if d, ok := r.types[t]; ok {
		return d
	}
	r.checkMutable()
	d := newTypeDetails(r, t, name)
	r.types[t] = d
	if t.Kind() == reflect.Ptr {
		d.pointee = r.getOrCreateLocked(t.Elem(), "")
	}
	return d
}

// Lookup returns the details registered for t.
func (r *Registry) Lookup(t reflect.Type) (*TypeDetails, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.types[t]
	return d, ok
}

// LookupFunction resolves a qualified function name such as "mge::math::dot".
func (r *Registry) LookupFunction(qualified string) (*FunctionDetails, error) {
	modName, name := splitQualified(qualified)
	m, err := r.FindModule(modName)
	if err != nil {
		return nil, err
	}
	return m.Function(name)
}

// LookupType resolves a qualified type name such as "mge::fvec3".
func (r *Registry) LookupType(qualified string) (*TypeDetails, error) {
	modName, name := splitQualified(qualified)
	m, err := r.FindModule(modName)
	if err != nil {
		return nil, err
	}
	return m.Type(name)
}

// FindModule resolves an existing module without creating it.
func (r *Registry) FindModule(qualified string) (*ModuleDetails, error) {
	m := r.root
	for _, part := range strings.Split(strings.TrimPrefix(qualified, ModuleSeparator), ModuleSeparator) {
		if part == "" {
			continue
		}
		child, ok := m.children.get(part)
		if !ok {
			return nil, Errorf(CodeNotFound, "module %q not found", qualified)
		}
		m = child
	}
	return m, nil
}

func splitQualified(qualified string) (module, name string) {
	i := strings.LastIndex(qualified, ModuleSeparator)
	if i < 0 {
		return "", qualified
	}
	return qualified[:i], qualified[i+len(ModuleSeparator):]
}

func validateName(name string) error {
	if name == "" {
		return NewError(CodeInvalidArgument, "name must not be empty")
	}
	if strings.Contains(name, ModuleSeparator) {
		return Errorf(CodeInvalidArgument, "name %q must not contain %q", name, ModuleSeparator)
	}
	return nil
}

// Apply walks the whole module tree with v.
func (r *Registry) Apply(v Visitor) {
	r.root.Apply(v)
}

// Reflector registers one group of bindings. Reflectors name the
// reflectors they depend on; BindAll runs dependencies first.
type Reflector interface {
	Name() string
	Dependencies() []string
	Reflect(r *Registry) error
}

// AddReflector schedules rf for the bind pass. A reflector with the same
// name is replaced.
func (r *Registry) AddReflector(rf Reflector) *Registry {
	r.checkMutable()
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.reflectors {
		if existing.Name() == rf.Name() {
			r.log().Warn("duplicate reflector registration", slog.String("reflector", rf.Name()))
			r.reflectors[i] = rf
			return r
		}
	}
	r.reflectors = append(r.reflectors, rf)
	return r
}

// Reflectors returns the scheduled reflectors in registration order.
func (r *Registry) Reflectors() []Reflector {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.reflectors)
}

// BindAll runs every reflector exactly once, dependencies first, and then
// seals the registry. Concurrent callers block until the first call has
// finished and all observe its result.
//
// Reflectors that take part in a dependency cycle or depend on a reflector
// that is not registered are skipped with a warning, as are the reflectors
// depending on them.
func (r *Registry) BindAll(ctx context.Context) error {
	r.bindOnce.Do(func() {
		defer r.sealed.Store(true)
		defer func() {
			if rec := recover(); rec != nil {
				r.bindErr = Errorf(CodeIllegalState, "binding failed: %v", recoveredError(rec))
			}
		}()
		r.bindErr = r.bind(ctx)
	})
	return r.bindErr
}

type reflectorNode struct {
	id int64
	rf Reflector
}

func (n reflectorNode) ID() int64 { return n.id }

func (r *Registry) bind(ctx context.Context) error {
	reflectors := r.Reflectors()
	logger := r.log()

	g := multi.NewDirectedGraph()
	byName := make(map[string]reflectorNode, len(reflectors))
	for i, rf := range reflectors {
		n := reflectorNode{id: int64(i), rf: rf}
		byName[rf.Name()] = n
		g.AddNode(n)
	}

	skipped := make(map[int64]bool)
	for _, rf := range reflectors {
		n := byName[rf.Name()]
		for _, dep := range rf.Dependencies() {
			d, ok := byName[dep]
			switch {
			case !ok:
				logger.Warn("reflector dependency not registered",
					slog.String("reflector", rf.Name()),
					slog.String("dependency", dep))
				skipped[n.id] = true
			case d.id == n.id:
				logger.Warn("reflector depends on itself", slog.String("reflector", rf.Name()))
				skipped[n.id] = true
			default:
				g.SetLine(g.NewLine(d, n))
			}
		}
	}

	order, err := topo.SortStabilized(g, func(nodes []graph.Node) {
		slices.SortFunc(nodes, func(a, b graph.Node) int { return int(a.ID() - b.ID()) })
	})
	if err != nil {
		var cycles topo.Unorderable
		if !errors.As(err, &cycles) {
			return fmt.Errorf("ordering reflectors: %w", err)
		}
		for _, component := range cycles {
			names := make([]string, 0, len(component))
			for _, n := range component {
				skipped[n.ID()] = true
				names = append(names, n.(reflectorNode).rf.Name())
			}
			slices.Sort(names)
			logger.Warn("reflector dependency cycle, no progress possible",
				slog.Any("reflectors", names))
		}
	}

	var errs []error
	for _, n := range order {
		if n == nil {
			continue
		}
		rn := n.(reflectorNode)
		if skipped[rn.id] {
			continue
		}
		for _, dep := range rn.rf.Dependencies() {
			if skipped[byName[dep].id] {
				logger.Warn("skipping reflector, dependency was not reflected",
					slog.String("reflector", rn.rf.Name()),
					slog.String("dependency", dep))
				skipped[rn.id] = true
				break
			}
		}
		if skipped[rn.id] {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		logger.Debug("reflecting", slog.String("reflector", rn.rf.Name()))
		if err := rn.rf.Reflect(r); err != nil {
			skipped[rn.id] = true
			errs = append(errs, fmt.Errorf("reflector %s: %w", rn.rf.Name(), err))
		}
	}
	return errors.Join(errs...)
}
