package reflection

import (
	"log/slog"
	"reflect"
	"weak"
)

// TypeFlags classify a registered type.
type TypeFlags uint16

const (
	FlagEnum TypeFlags = 1 << iota
	FlagPOD
	FlagClass
	FlagPointer
	FlagArray
)

// ConstructorInfo describes one constructor overload.
type ConstructorInfo struct {
	Signature Signature
	// Construct builds the object into storage provided by CallContext.This.
	Construct Invoker
	// MakeShared allocates a new object and stores a pointer to it as result.
	MakeShared Invoker
}

// DestructorInfo releases an object passed as CallContext.This.
type DestructorInfo struct {
	Invoker Invoker
}

// MethodInfo describes one method or static method overload.
type MethodInfo struct {
	Name       string
	ReturnType TypeIdentifier
	Signature  Signature
	Invoker    Invoker
	Static     bool
	Noexcept   bool
}

// FieldInfo describes a readable, and optionally writable, member.
type FieldInfo struct {
	Name   string
	Type   TypeIdentifier
	Getter Invoker
	Setter Invoker // nil for read-only fields
}

// ReadOnly reports whether the field has no setter.
func (f *FieldInfo) ReadOnly() bool {
	return f.Setter == nil
}

// EnumValue is a named enumerator.
type EnumValue struct {
	Name  string
	Value int64
}

// TypeDetails is everything the registry knows about one native type.
// Details are created once per type by Registry.GetOrCreate and are shared
// by the owning module and every handle returned to callers.
type TypeDetails struct {
	registry   *Registry
	name       string
	identifier TypeIdentifier
	size       uintptr
	flags      TypeFlags
	module     weak.Pointer[ModuleDetails]
	base       *TypeDetails
	pointee    *TypeDetails

	constructors []*ConstructorInfo
	destructor   *DestructorInfo
	methods      map[string][]*MethodInfo
	methodNames  []string
	statics      map[string][]*MethodInfo
	staticNames  []string
	fields       []*FieldInfo
	enumValues   []EnumValue
	enumIndex    map[string]int
	nested       []*TypeDetails
}

func newTypeDetails(r *Registry, t reflect.Type, name string) *TypeDetails {
	if name == "" {
		name = defaultTypeName(t)
	}
	return &TypeDetails{
		registry:   r,
		name:       name,
		identifier: MakeTypeIdentifier(t),
		size:       t.Size(),
		flags:      classify(t),
		methods:    make(map[string][]*MethodInfo),
		statics:    make(map[string][]*MethodInfo),
		enumIndex:  make(map[string]int),
	}
}

func defaultTypeName(t reflect.Type) string {
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}

func classify(t reflect.Type) TypeFlags {
	var f TypeFlags
	switch t.Kind() {
	case reflect.Ptr:
		return FlagPointer
	case reflect.Struct:
		f = FlagClass
	case reflect.Array:
		f = FlagArray
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if t.PkgPath() != "" && t.Name() != "" {
			f = FlagEnum
		}
	}
	if !hasPointers(t) {
		f |= FlagPOD
	}
	return f
}

func hasPointers(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Array:
		return hasPointers(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if hasPointers(t.Field(i).Type) {
				return true
			}
		}
		return false
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.String, reflect.Interface,
		reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return true
	}
	return false
}

// Name returns the name the type was registered under.
func (t *TypeDetails) Name() string { return t.name }

// Identifier returns the unqualified identifier of the type.
func (t *TypeDetails) Identifier() TypeIdentifier { return t.identifier }

// Type returns the Go type.
func (t *TypeDetails) Type() reflect.Type { return t.identifier.Type }

// Size returns the size of a value of the type in bytes.
func (t *TypeDetails) Size() uintptr { return t.size }

// Flags returns the classification flags.
func (t *TypeDetails) Flags() TypeFlags { return t.flags }

func (t *TypeDetails) IsEnum() bool    { return t.flags&FlagEnum != 0 }
func (t *TypeDetails) IsPOD() bool     { return t.flags&FlagPOD != 0 }
func (t *TypeDetails) IsClass() bool   { return t.flags&FlagClass != 0 }
func (t *TypeDetails) IsPointer() bool { return t.flags&FlagPointer != 0 }
func (t *TypeDetails) IsArray() bool   { return t.flags&FlagArray != 0 }

// Kind returns the marshalling kind of the type.
func (t *TypeDetails) Kind() Kind { return KindOf(t.identifier.Type) }

// Base returns the base type, or nil.
func (t *TypeDetails) Base() *TypeDetails { return t.base }

// Pointee returns the element type of a pointer type, or nil.
func (t *TypeDetails) Pointee() *TypeDetails { return t.pointee }

// Module returns the owning module. ok is false when the type was never
// added to a module or the module no longer exists.
func (t *TypeDetails) Module() (m *ModuleDetails, ok bool) {
	m = t.module.Value()
	return m, m != nil
}

// FullName returns the type name qualified by its module.
func (t *TypeDetails) FullName() string {
	m, ok := t.Module()
	if !ok || m.IsRoot() {
		return t.name
	}
	return m.FullName() + "::" + t.name
}

// Constructors returns the constructor overloads in registration order.
func (t *TypeDetails) Constructors() []*ConstructorInfo { return t.constructors }

// Destructor returns the destructor, or nil.
func (t *TypeDetails) Destructor() *DestructorInfo { return t.destructor }

// Methods returns all methods in registration order of their names.
func (t *TypeDetails) Methods() []*MethodInfo { return flatten(t.methods, t.methodNames) }

// StaticMethods returns all static methods in registration order of their names.
func (t *TypeDetails) StaticMethods() []*MethodInfo { return flatten(t.statics, t.staticNames) }

// MethodNames returns the method names in registration order.
func (t *TypeDetails) MethodNames() []string { return t.methodNames }

// StaticMethodNames returns the static method names in registration order.
func (t *TypeDetails) StaticMethodNames() []string { return t.staticNames }

// Fields returns the fields in registration order.
func (t *TypeDetails) Fields() []*FieldInfo { return t.fields }

// EnumValues returns the enumerators in registration order.
func (t *TypeDetails) EnumValues() []EnumValue { return t.enumValues }

// NestedTypes returns the types nested in this one.
func (t *TypeDetails) NestedTypes() []*TypeDetails { return t.nested }

func flatten(m map[string][]*MethodInfo, names []string) []*MethodInfo {
	var out []*MethodInfo
	for _, n := range names {
		out = append(out, m[n]...)
	}
	return out
}

// AddConstructor registers a constructor overload. A constructor with an
// identical signature is replaced.
func (t *TypeDetails) AddConstructor(sig Signature, construct, makeShared Invoker) {
	t.checkMutable()
	info := &ConstructorInfo{Signature: sig, Construct: construct, MakeShared: makeShared}
	for i, c := range t.constructors {
		if c.Signature.Matches(sig) {
			t.logger().Warn("replacing constructor",
				slog.String("type", t.name),
				slog.String("signature", sig.String()))
			t.constructors[i] = info
			return
		}
	}
	t.constructors = append(t.constructors, info)
}

// SetDestructor registers the destructor.
func (t *TypeDetails) SetDestructor(inv Invoker) {
	t.checkMutable()
	t.destructor = &DestructorInfo{Invoker: inv}
}

// AddMethod registers a method overload. An overload with the same name
// and an identical signature is replaced.
func (t *TypeDetails) AddMethod(info *MethodInfo) {
	t.checkMutable()
	info.Static = false
	t.methodNames = t.addOverload(t.methods, t.methodNames, info)
}

// AddStaticMethod registers a static method overload.
func (t *TypeDetails) AddStaticMethod(info *MethodInfo) {
	t.checkMutable()
	info.Static = true
	t.staticNames = t.addOverload(t.statics, t.staticNames, info)
}

func (t *TypeDetails) addOverload(m map[string][]*MethodInfo, names []string, info *MethodInfo) []string {
	overloads, exists := m[info.Name]
	for i, o := range overloads {
		if o.Signature.Matches(info.Signature) {
			t.logger().Warn("replacing method",
				slog.String("type", t.name),
				slog.String("method", info.Name),
				slog.String("signature", info.Signature.String()))
			overloads[i] = info
			return names
		}
	}
	m[info.Name] = append(overloads, info)
	if !exists {
		names = append(names, info.Name)
	}
	return names
}

// AddField registers a field. A field with the same name is replaced.
func (t *TypeDetails) AddField(info *FieldInfo) {
	t.checkMutable()
	for i, f := range t.fields {
		if f.Name == info.Name {
			t.fields[i] = info
			return
		}
	}
	t.fields = append(t.fields, info)
}

// AddEnumValue registers an enumerator. Re-adding a name overwrites its
// value. It returns a CodeIllegalState error for non-enum types.
func (t *TypeDetails) AddEnumValue(name string, value int64) error {
	t.checkMutable()
	if !t.IsEnum() {
		return Errorf(CodeIllegalState, "type %s is not an enum", t.name)
	}
	if i, ok := t.enumIndex[name]; ok {
		t.enumValues[i].Value = value
		return nil
	}
	t.enumIndex[name] = len(t.enumValues)
	t.enumValues = append(t.enumValues, EnumValue{Name: name, Value: value})
	return nil
}

// EnumValue looks up an enumerator by name.
func (t *TypeDetails) EnumValue(name string) (int64, error) {
	if !t.IsEnum() {
		return 0, Errorf(CodeIllegalState, "type %s is not an enum", t.name)
	}
	i, ok := t.enumIndex[name]
	if !ok {
		return 0, Errorf(CodeNotFound, "enum %s has no value %s", t.name, name)
	}
	return t.enumValues[i].Value, nil
}

// SetBase establishes single inheritance from base.
func (t *TypeDetails) SetBase(base *TypeDetails) error {
	t.checkMutable()
	for b := base; b != nil; b = b.base {
		if b == t {
			return Errorf(CodeInvalidArgument, "type %s cannot derive from %s: circular inheritance", t.name, base.name)
		}
	}
	t.base = base
	return nil
}

// IsA reports whether t is other or derives from it.
func (t *TypeDetails) IsA(other *TypeDetails) bool {
	for b := t; b != nil; b = b.base {
		if b == other {
			return true
		}
	}
	return false
}

// AddNestedType records a type nested in t.
func (t *TypeDetails) AddNestedType(nested *TypeDetails) {
	t.checkMutable()
	for i, n := range t.nested {
		if n.name == nested.name {
			t.nested[i] = nested
			return
		}
	}
	t.nested = append(t.nested, nested)
}

// FindConstructor returns the constructor whose signature matches sig exactly.
func (t *TypeDetails) FindConstructor(sig Signature) (*ConstructorInfo, error) {
	if err := t.complete(); err != nil {
		return nil, err
	}
	for _, c := range t.constructors {
		if c.Signature.Matches(sig) {
			return c, nil
		}
	}
	return nil, Errorf(CodeNoMatchingOverload, "no constructor %s%s", t.name, sig)
}

// FindMethod returns the method overload matching name and sig exactly,
// searching the base chain when t has none.
func (t *TypeDetails) FindMethod(name string, sig Signature) (*MethodInfo, error) {
	if err := t.complete(); err != nil {
		return nil, err
	}
	for c := t; c != nil; c = c.base {
		for _, m := range c.methods[name] {
			if m.Signature.Matches(sig) {
				return m, nil
			}
		}
	}
	return nil, Errorf(CodeNoMatchingOverload, "no method %s.%s%s", t.name, name, sig)
}

// FindStaticMethod returns the static method overload matching name and sig exactly.
func (t *TypeDetails) FindStaticMethod(name string, sig Signature) (*MethodInfo, error) {
	if err := t.complete(); err != nil {
		return nil, err
	}
	for _, m := range t.statics[name] {
		if m.Signature.Matches(sig) {
			return m, nil
		}
	}
	return nil, Errorf(CodeNoMatchingOverload, "no static method %s.%s%s", t.name, name, sig)
}

// MethodOverloads returns every overload of name visible on t, the type's
// own overloads first and then those of its bases.
func (t *TypeDetails) MethodOverloads(name string) ([]*MethodInfo, error) {
	if err := t.complete(); err != nil {
		return nil, err
	}
	var out []*MethodInfo
	for c := t; c != nil; c = c.base {
		out = append(out, c.methods[name]...)
	}
	return out, nil
}

// Field returns the field with the given name, searching the base chain.
func (t *TypeDetails) Field(name string) (*FieldInfo, error) {
	if err := t.complete(); err != nil {
		return nil, err
	}
	for c := t; c != nil; c = c.base {
		for _, f := range c.fields {
			if f.Name == name {
				return f, nil
			}
		}
	}
	return nil, Errorf(CodeNotFound, "type %s has no field %s", t.name, name)
}

// Construct builds a new object with the constructor matching sig and
// stores a pointer to it in ctx.
func (t *TypeDetails) Construct(sig Signature, ctx CallContext) error {
	c, err := t.FindConstructor(sig)
	if err != nil {
		return err
	}
	c.MakeShared.Invoke(ctx)
	return nil
}

// InvokeMethod dispatches a method call by exact signature.
func (t *TypeDetails) InvokeMethod(name string, sig Signature, ctx CallContext) error {
	m, err := t.FindMethod(name, sig)
	if err != nil {
		return err
	}
	m.Invoker.Invoke(ctx)
	return nil
}

// complete fails when the type is not attached to a live module.
func (t *TypeDetails) complete() error {
	if _, ok := t.Module(); !ok {
		return Errorf(CodeIllegalState, "type %s is incomplete: no module", t.name)
	}
	return nil
}

func (t *TypeDetails) checkMutable() {
	if t.registry != nil {
		t.registry.checkMutable()
	}
}

func (t *TypeDetails) logger() *slog.Logger {
	if t.registry != nil {
		return t.registry.log()
	}
	return slog.Default()
}

// Apply walks the type with v: TypeBegin, enumerators, nested types, TypeEnd.
func (t *TypeDetails) Apply(v Visitor) {
	v.TypeBegin(t)
	for _, e := range t.enumValues {
		v.EnumValue(t, e.Name, e.Value)
	}
	for _, n := range t.nested {
		n.Apply(v)
	}
	v.TypeEnd(t)
}
