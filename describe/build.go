package describe

import (
	"reflect"

	"github.com/mge-engine/reflection"
)

// Options control what Build includes.
type Options struct {
	// Primitives includes the predeclared types the registry places in the
	// root module.
	Primitives bool
}

// Build describes every module of r.
func Build(r *reflection.Registry) *Manifest {
	return BuildWith(r, r.Root(), Options{})
}

// BuildWith describes m and its children. Type references are resolved
// against r.
func BuildWith(r *reflection.Registry, m *reflection.ModuleDetails, opts Options) *Manifest {
	b := &builder{registry: r, opts: opts}
	m.Apply(b)
	return &Manifest{Root: b.root}
}

// builder is a reflection.Visitor that assembles descriptors. Modules and
// types are kept on stacks since both nest.
type builder struct {
	registry *reflection.Registry
	opts     Options
	root     *ModuleDescriptor
	modules  []*ModuleDescriptor
	types    []*TypeDescriptor
	skip     int
}

var _ reflection.Visitor = (*builder)(nil)

func (b *builder) ModuleBegin(m *reflection.ModuleDetails) {
	d := &ModuleDescriptor{Name: m.Name(), FullName: m.FullName()}
	if n := len(b.modules); n > 0 {
		b.modules[n-1].Modules = append(b.modules[n-1].Modules, d)
	} else {
		b.root = d
	}
	b.modules = append(b.modules, d)
}

func (b *builder) ModuleEnd(*reflection.ModuleDetails) {
	b.modules = b.modules[:len(b.modules)-1]
}

func (b *builder) TypeBegin(t *reflection.TypeDetails) {
	if b.skip > 0 || (!b.opts.Primitives && isPredeclared(t.Type())) {
		b.skip++
		return
	}
	d := b.describeType(t)
	if n := len(b.types); n > 0 {
		b.types[n-1].Nested = append(b.types[n-1].Nested, d)
	} else {
		top := b.modules[len(b.modules)-1]
		top.Types = append(top.Types, d)
	}
	b.types = append(b.types, d)
}

func (b *builder) TypeEnd(*reflection.TypeDetails) {
	if b.skip > 0 {
		b.skip--
		return
	}
	b.types = b.types[:len(b.types)-1]
}

func (b *builder) EnumValue(_ *reflection.TypeDetails, name string, value int64) {
	if b.skip > 0 {
		return
	}
	top := b.types[len(b.types)-1]
	top.EnumValues = append(top.EnumValues, EnumValueDescriptor{Name: name, Value: value})
}

func (b *builder) Function(f *reflection.FunctionDetails) {
	top := b.modules[len(b.modules)-1]
	top.Functions = append(top.Functions, &FunctionDescriptor{
		Name:     f.Name(),
		FullName: f.FullName(),
		Params:   b.params(f.Signature()),
		Result:   b.ref(f.ReturnType()),
		Noexcept: f.IsNoexcept(),
	})
}

func (b *builder) Variable(v *reflection.VariableDetails) {
	top := b.modules[len(b.modules)-1]
	top.Variables = append(top.Variables, &VariableDescriptor{
		Name:     v.Name(),
		FullName: qualify(top.FullName, v.Name()),
		Type:     b.ref(v.Type()),
	})
}

func (b *builder) describeType(t *reflection.TypeDetails) *TypeDescriptor {
	d := &TypeDescriptor{
		Name:         t.Name(),
		FullName:     t.FullName(),
		Kind:         typeKind(t),
		GoType:       t.Type().String(),
		Size:         t.Size(),
		POD:          t.IsPOD(),
		Destructible: t.Destructor() != nil,
	}
	if base := t.Base(); base != nil {
		d.Base = base.FullName()
	}
	if p := t.Pointee(); p != nil {
		d.Pointee = p.FullName()
	}
	for _, c := range t.Constructors() {
		d.Constructors = append(d.Constructors, ConstructorDescriptor{Params: b.params(c.Signature)})
	}
	for _, m := range t.Methods() {
		d.Methods = append(d.Methods, b.method(m))
	}
	for _, m := range t.StaticMethods() {
		d.StaticMethods = append(d.StaticMethods, b.method(m))
	}
	for _, f := range t.Fields() {
		d.Fields = append(d.Fields, FieldDescriptor{Name: f.Name, Type: b.ref(f.Type), ReadOnly: f.ReadOnly()})
	}
	return d
}

func (b *builder) method(m *reflection.MethodInfo) *FunctionDescriptor {
	return &FunctionDescriptor{
		Name:     m.Name,
		Params:   b.params(m.Signature),
		Result:   b.ref(m.ReturnType),
		Noexcept: m.Noexcept,
		Static:   m.Static,
	}
}

func (b *builder) params(sig reflection.Signature) []TypeRef {
	refs := make([]TypeRef, len(sig))
	for i, id := range sig {
		if id == nil {
			refs[i] = TypeRef{Name: "?", Kind: "any"}
			continue
		}
		refs[i] = b.ref(*id)
	}
	return refs
}

// ref names id by its registry entry when there is one. Pointers to
// registered types are named after the pointee since scripts see objects.
func (b *builder) ref(id reflection.TypeIdentifier) TypeRef {
	r := TypeRef{
		Name:      id.Name(),
		Kind:      reflection.KindOf(id.Type).String(),
		Const:     id.Const,
		Reference: id.Reference,
	}
	if id.IsVoid() {
		return r
	}
	t := id.Type
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if td, ok := b.registry.Lookup(t); ok {
		if _, attached := td.Module(); attached {
			r.Name = td.FullName()
		}
	}
	return r
}

func typeKind(t *reflection.TypeDetails) TypeKind {
	switch {
	case t.IsEnum():
		return KindEnum
	case t.IsClass():
		return KindClass
	case t.IsArray():
		return KindArray
	case t.IsPointer():
		return KindPointer
	case isPredeclared(t.Type()):
		return KindPrimitive
	}
	return KindOpaque
}

func isPredeclared(t reflect.Type) bool {
	return t.PkgPath() == "" && t.Name() != ""
}

func qualify(module, name string) string {
	if module == "" {
		return name
	}
	return module + reflection.ModuleSeparator + name
}
