package describe

import (
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// ValidationError is a structural problem found by Validate.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Types returns every type in the manifest, nested types included, keyed
// by full name.
func (m *Manifest) Types() map[string]*TypeDescriptor {
	out := make(map[string]*TypeDescriptor)
	m.Walk(func(mod *ModuleDescriptor) {
		var add func(ts []*TypeDescriptor)
		add = func(ts []*TypeDescriptor) {
			for _, t := range ts {
				out[t.FullName] = t
				add(t.Nested)
			}
		}
		add(mod.Types)
	})
	return out
}

// TypeNames returns the full names of all types in sorted order.
func (m *Manifest) TypeNames() []string {
	names := maps.Keys(m.Types())
	slices.Sort(names)
	return names
}

// FindType returns the type with the given full name, or nil.
func (m *Manifest) FindType(fullName string) *TypeDescriptor {
	return m.Types()[fullName]
}

// FindModule returns the module with the given full name, or nil.
func (m *Manifest) FindModule(fullName string) *ModuleDescriptor {
	var found *ModuleDescriptor
	m.Walk(func(mod *ModuleDescriptor) {
		if found == nil && mod.FullName == fullName {
			found = mod
		}
	})
	return found
}

// Walk calls fn for every module, parents before children.
func (m *Manifest) Walk(fn func(*ModuleDescriptor)) {
	var walk func(*ModuleDescriptor)
	walk = func(mod *ModuleDescriptor) {
		fn(mod)
		for _, c := range mod.Modules {
			walk(c)
		}
	}
	if m.Root != nil {
		walk(m.Root)
	}
}

// Validate checks the manifest for dangling references, duplicate names
// and circular inheritance. It returns all problems found.
func (m *Manifest) Validate() []error {
	var errs []*ValidationError

	types := make(map[string]*TypeDescriptor)
	m.Walk(func(mod *ModuleDescriptor) {
		seen := make(map[string]bool)
		var check func(ts []*TypeDescriptor)
		check = func(ts []*TypeDescriptor) {
			for _, t := range ts {
				if _, dup := types[t.FullName]; dup {
					errs = append(errs, &ValidationError{
						Code:    "duplicate_type",
						Message: "duplicate type name: " + t.FullName,
					})
				}
				types[t.FullName] = t
				check(t.Nested)
			}
		}
		check(mod.Types)
		for _, f := range mod.Functions {
			if seen[f.Name] {
				errs = append(errs, &ValidationError{
					Code:    "duplicate_function",
					Message: "duplicate function in module " + displayName(mod) + ": " + f.Name,
				})
			}
			seen[f.Name] = true
		}
	})

	for _, name := range sortedKeys(types) {
		t := types[name]
		if t.Base != "" {
			if _, ok := types[t.Base]; !ok {
				errs = append(errs, &ValidationError{
					Code:    "missing_base_reference",
					Message: "type " + t.FullName + " extends unknown type: " + t.Base,
				})
			}
		}
		if t.Pointee != "" {
			if _, ok := types[t.Pointee]; !ok {
				errs = append(errs, &ValidationError{
					Code:    "missing_pointee_reference",
					Message: "pointer type " + t.FullName + " points to unknown type: " + t.Pointee,
				})
			}
		}
		if t.Kind == KindEnum && len(t.EnumValues) == 0 {
			errs = append(errs, &ValidationError{
				Code:    "empty_enum",
				Message: "enum " + t.FullName + " has no values",
			})
		}
	}

	errs = append(errs, detectCircularInheritance(types)...)

	result := make([]error, 0, len(errs))
	for _, e := range errs {
		result = append(result, e)
	}
	return result
}

func detectCircularInheritance(types map[string]*TypeDescriptor) []*ValidationError {
	var errs []*ValidationError
	visited := make(map[string]bool)
	inStack := make(map[string]bool)

	var visit func(name string, path []string)
	visit = func(name string, path []string) {
		if inStack[name] {
			errs = append(errs, &ValidationError{
				Code:    "circular_inheritance",
				Message: "circular inheritance detected: " + strings.Join(append(path, name), " -> "),
			})
			return
		}
		if visited[name] {
			return
		}
		visited[name] = true
		inStack[name] = true
		if t, ok := types[name]; ok && t.Base != "" {
			visit(t.Base, append(path, name))
		}
		inStack[name] = false
	}

	// Sorted so that a cycle is always reported starting from the same type.
	for _, name := range sortedKeys(types) {
		visit(name, nil)
	}
	return errs
}

func sortedKeys[V any](m map[string]V) []string {
	keys := maps.Keys(m)
	slices.Sort(keys)
	return keys
}

func displayName(m *ModuleDescriptor) string {
	if m.FullName == "" {
		return "<root>"
	}
	return m.FullName
}
