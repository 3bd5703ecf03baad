package reflection

import (
	"log/slog"
	"strings"
	"weak"
)

// ModuleSeparator joins module names into qualified names.
const ModuleSeparator = "::"

// ModuleDetails is a namespace node. The root module has an empty name
// and no parent; every other module is owned by its parent and refers back
// to it through a weak pointer.
type ModuleDetails struct {
	registry *Registry
	name     string
	parent   weak.Pointer[ModuleDetails]

	children  namedList[*ModuleDetails]
	types     namedList[*TypeDetails]
	functions namedList[*FunctionDetails]
	variables namedList[*VariableDetails]
}

func newModuleDetails(r *Registry, parent *ModuleDetails, name string) *ModuleDetails {
	m := &ModuleDetails{registry: r, name: name}
	if parent != nil {
		m.parent = weak.Make(parent)
	}
	return m
}

// Name returns the local module name.
func (m *ModuleDetails) Name() string { return m.name }

// IsRoot reports whether m is the root module.
func (m *ModuleDetails) IsRoot() bool {
	return m.name == "" && m.parent.Value() == nil
}

// Parent returns the parent module, or nil for the root.
func (m *ModuleDetails) Parent() *ModuleDetails {
	return m.parent.Value()
}

// FullName returns the qualified module name, e.g. "mge::math".
func (m *ModuleDetails) FullName() string {
	p := m.parent.Value()
	if p == nil || p.IsRoot() {
		return m.name
	}
	return p.FullName() + ModuleSeparator + m.name
}

// Module looks up or creates the submodule with the given name. The name
// may be qualified with "::"; it is resolved relative to m unless it starts
// with "::", which anchors it at the root.
func (m *ModuleDetails) Module(name string) (*ModuleDetails, error) {
	current := m
	if strings.HasPrefix(name, ModuleSeparator) {
		current = m.registry.Root()
		name = strings.TrimPrefix(name, ModuleSeparator)
	}
	if name == "" {
		return current, nil
	}
	if strings.HasSuffix(name, ModuleSeparator) {
		return nil, Errorf(CodeInvalidArgument, "module name %q must not end with %q", name, ModuleSeparator)
	}
	for _, part := range strings.Split(name, ModuleSeparator) {
		if part == "" {
			continue
		}
		if err := validateName(part); err != nil {
			return nil, err
		}
		child, ok := current.children.get(part)
		if !ok {
			current.registry.checkMutable()
			child = newModuleDetails(current.registry, current, part)
			current.children.put(part, child)
		}
		current = child
	}
	return current, nil
}

// MustModule is like Module but panics on error.
func (m *ModuleDetails) MustModule(name string) *ModuleDetails {
	sub, err := m.Module(name)
	if err != nil {
		panic(err)
	}
	return sub
}

// Modules returns the child modules in registration order.
func (m *ModuleDetails) Modules() []*ModuleDetails { return m.children.values() }

// Types returns the types in registration order.
func (m *ModuleDetails) Types() []*TypeDetails { return m.types.values() }

// Functions returns the functions in registration order.
func (m *ModuleDetails) Functions() []*FunctionDetails { return m.functions.values() }

// Variables returns the variables in registration order.
func (m *ModuleDetails) Variables() []*VariableDetails { return m.variables.values() }

// Type returns the type registered under name.
func (m *ModuleDetails) Type(name string) (*TypeDetails, error) {
	if t, ok := m.types.get(name); ok {
		return t, nil
	}
	return nil, Errorf(CodeNotFound, "type %q not found in module %q", name, m.FullName())
}

// Function returns the function registered under name.
func (m *ModuleDetails) Function(name string) (*FunctionDetails, error) {
	if f, ok := m.functions.get(name); ok {
		return f, nil
	}
	return nil, Errorf(CodeNotFound, "function %q not found in module %q", name, m.FullName())
}

// Variable returns the variable registered under name.
func (m *ModuleDetails) Variable(name string) (*VariableDetails, error) {
	if v, ok := m.variables.get(name); ok {
		return v, nil
	}
	return nil, Errorf(CodeNotFound, "variable %q not found in module %q", name, m.FullName())
}

// AddType places details in m under its name, replacing any type with
// the same name. A type lives in one module; it is removed from the module
// it was added to before.
func (m *ModuleDetails) AddType(details *TypeDetails) {
	m.registry.checkMutable()
	if prev := details.module.Value(); prev != nil {
		if cur, ok := prev.types.get(details.name); prev != m || !ok || cur != details {
			prev.types.removeFunc(func(t *TypeDetails) bool { return t == details })
		}
	}
	if m.types.put(details.name, details) {
		m.logReplace("type", details.name)
	}
	details.module = weak.Make(m)
}

// AddFunction places f in m, replacing any function with the same name.
func (m *ModuleDetails) AddFunction(f *FunctionDetails) {
	m.registry.checkMutable()
	if m.functions.put(f.name, f) {
		m.logReplace("function", f.name)
	}
	f.module = weak.Make(m)
}

// AddVariable places v in m, replacing any variable with the same name.
func (m *ModuleDetails) AddVariable(v *VariableDetails) {
	m.registry.checkMutable()
	if m.variables.put(v.name, v) {
		m.logReplace("variable", v.name)
	}
	v.module = weak.Make(m)
}

func (m *ModuleDetails) logReplace(kind, name string) {
	m.registry.log().Warn("replacing registration",
		slog.String("module", m.FullName()),
		slog.String("kind", kind),
		slog.String("name", name))
}

// RegisterFunction registers fn under name in m and returns its details.
// It panics if fn is not a supported function.
func (m *ModuleDetails) RegisterFunction(name string, fn any) *FunctionDetails {
	f, err := NewFunctionDetails(name, fn)
	if err != nil {
		panic(err)
	}
	m.AddFunction(f)
	return f
}

// RegisterVariable registers the variable ptr points to under name.
// It panics if ptr is not a non-nil pointer.
func (m *ModuleDetails) RegisterVariable(name string, ptr any) *VariableDetails {
	v, err := newVariableDetails(m.registry, name, ptr)
	if err != nil {
		panic(err)
	}
	m.AddVariable(v)
	return v
}

// Apply walks m with v depth first: ModuleBegin, types, functions,
// variables, child modules, ModuleEnd.
func (m *ModuleDetails) Apply(v Visitor) {
	v.ModuleBegin(m)
	for _, t := range m.types.values() {
		t.Apply(v)
	}
	for _, f := range m.functions.values() {
		v.Function(f)
	}
	for _, vd := range m.variables.values() {
		v.Variable(vd)
	}
	for _, c := range m.children.values() {
		c.Apply(v)
	}
	v.ModuleEnd(m)
}

// namedList is a map that remembers insertion order. Replacing an entry
// keeps its original position.
type namedList[T any] struct {
	index map[string]int
	items []T
}

func (l *namedList[T]) get(name string) (T, bool) {
	i, ok := l.index[name]
	if !ok {
		var zero T
		return zero, false
	}
	return l.items[i], true
}

// put stores v under name and reports whether an entry was replaced.
func (l *namedList[T]) put(name string, v T) bool {
	if l.index == nil {
		l.index = make(map[string]int)
	}
	if i, ok := l.index[name]; ok {
		l.items[i] = v
		return true
	}
	l.index[name] = len(l.items)
	l.items = append(l.items, v)
	return false
}

// removeFunc drops the entries for which del returns true. The remaining
// entries keep their order.
func (l *namedList[T]) removeFunc(del func(T) bool) {
	pos := make([]int, len(l.items))
	items := l.items[:0]
	for i, v := range l.items {
		if del(v) {
			pos[i] = -1
			continue
		}
		pos[i] = len(items)
		items = append(items, v)
	}
	clear(l.items[len(items):])
	l.items = items
	for name, i := range l.index {
		if pos[i] < 0 {
			delete(l.index, name)
		} else {
			l.index[name] = pos[i]
		}
	}
}

func (l *namedList[T]) values() []T {
	return l.items
}
