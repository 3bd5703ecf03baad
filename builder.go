package reflection

import (
	"reflect"
)

// TypeBuilder registers the members of the Go type T. Builder methods
// panic on misuse, since misuse is a programming error in the binding code.
//
//	reflection.Type[Vec](m, "vec").
//	    Constructor(NewVec).
//	    Field("x", "X").
//	    Method("length", Vec.Length)
type TypeBuilder[T any] struct {
	details *TypeDetails
}

// Type registers T in m under name (the Go type name when empty) and
// returns a builder for its members. Registering the same T again returns
// a builder for the existing details and moves them to m.
func Type[T any](m *ModuleDetails, name string) *TypeBuilder[T] {
	t := reflect.TypeFor[T]()
	d := m.registry.GetOrCreate(t, name)
	if name != "" && d.name != name {
		m.registry.checkMutable()
		d.name = name
	}
	m.AddType(d)
	return &TypeBuilder[T]{details: d}
}

// Details returns the details being built.
func (b *TypeBuilder[T]) Details() *TypeDetails {
	return b.details
}

func (b *TypeBuilder[T]) goType() reflect.Type {
	return b.details.identifier.Type
}

// Constructor registers fn as a constructor. fn returns T or *T,
// optionally followed by an error.
func (b *TypeBuilder[T]) Constructor(fn any) *TypeBuilder[T] {
	construct, err := newCallable(fn, false)
	if err != nil {
		panic(AsError(err).WithDetail("type", b.details.name))
	}
	t := b.goType()
	if construct.result != t && construct.result != reflect.PointerTo(t) {
		panic(Errorf(CodeInvalidArgument, "constructor of %s must return %s or *%s, got %s",
			b.details.name, t, t, reflect.TypeOf(fn)))
	}
	makeShared := *construct
	construct.mode = modeConstructInPlace
	makeShared.mode = modeMakeShared
	b.details.AddConstructor(construct.signature(), construct, &makeShared)
	return b
}

// DefaultConstructor registers a constructor without parameters that
// yields the zero value of T.
func (b *TypeBuilder[T]) DefaultConstructor() *TypeBuilder[T] {
	return b.Constructor(func() T {
		var zero T
		return zero
	})
}

// Destructor registers fn, which takes T or *T and nothing else.
func (b *TypeBuilder[T]) Destructor(fn any) *TypeBuilder[T] {
	c := b.receiverCallable("destructor", "", fn)
	if len(c.params) != 0 || c.result != nil {
		panic(Errorf(CodeInvalidArgument, "destructor of %s must take only the receiver", b.details.name))
	}
	b.details.SetDestructor(c)
	return b
}

// Method registers fn as method name. The first parameter of fn is the
// receiver, so method expressions such as (*Vec).Scale can be passed.
func (b *TypeBuilder[T]) Method(name string, fn any) *TypeBuilder[T] {
	mustName(name)
	c := b.receiverCallable("method", name, fn)
	b.details.AddMethod(&MethodInfo{
		Name:       name,
		ReturnType: c.returnType(),
		Signature:  c.signature(),
		Invoker:    c,
		Noexcept:   c.noexcept(),
	})
	return b
}

// StaticMethod registers fn as a static method.
func (b *TypeBuilder[T]) StaticMethod(name string, fn any) *TypeBuilder[T] {
	mustName(name)
	c, err := newCallable(fn, false)
	if err != nil {
		panic(AsError(err).WithDetail("type", b.details.name).WithDetail("method", name))
	}
	b.details.AddStaticMethod(&MethodInfo{
		Name:       name,
		ReturnType: c.returnType(),
		Signature:  c.signature(),
		Invoker:    c,
		Noexcept:   c.noexcept(),
	})
	return b
}

// Field exposes the exported struct field goField under name.
func (b *TypeBuilder[T]) Field(name, goField string) *TypeBuilder[T] {
	return b.field(name, goField, true)
}

// ReadOnlyField is like Field but without a setter.
func (b *TypeBuilder[T]) ReadOnlyField(name, goField string) *TypeBuilder[T] {
	return b.field(name, goField, false)
}

func (b *TypeBuilder[T]) field(name, goField string, writable bool) *TypeBuilder[T] {
	mustName(name)
	t := b.goType()
	if t.Kind() != reflect.Struct {
		panic(Errorf(CodeInvalidArgument, "type %s is not a struct", b.details.name))
	}
	sf, ok := t.FieldByName(goField)
	if !ok || !sf.IsExported() {
		panic(Errorf(CodeInvalidArgument, "type %s has no exported field %s", b.details.name, goField))
	}
	acc := &fieldAccessor{owner: t, index: sf.Index, typ: sf.Type}
	info := &FieldInfo{
		Name:   name,
		Type:   MakeTypeIdentifier(sf.Type),
		Getter: InvokerFunc(acc.get),
	}
	if writable {
		info.Setter = InvokerFunc(acc.set)
	}
	b.details.AddField(info)
	return b
}

// Property exposes a field backed by accessor functions. getter takes the
// receiver and returns the value; setter, which may be nil, takes the
// receiver and the new value.
func (b *TypeBuilder[T]) Property(name string, getter, setter any) *TypeBuilder[T] {
	mustName(name)
	get := b.receiverCallable("property getter", name, getter)
	if len(get.params) != 0 || get.result == nil {
		panic(Errorf(CodeInvalidArgument, "getter of %s.%s must take only the receiver and return a value", b.details.name, name))
	}
	info := &FieldInfo{
		Name:   name,
		Type:   MakeTypeIdentifier(get.result),
		Getter: get,
	}
	if setter != nil {
		set := b.receiverCallable("property setter", name, setter)
		if len(set.params) != 1 || set.params[0] != get.result {
			panic(Errorf(CodeInvalidArgument, "setter of %s.%s must take the receiver and a %s", b.details.name, name, get.result))
		}
		info.Setter = set
	}
	b.details.AddField(info)
	return b
}

// EnumValue registers an enumerator of T, which must be an enum type.
func (b *TypeBuilder[T]) EnumValue(name string, value T) *TypeBuilder[T] {
	mustName(name)
	v := reflect.ValueOf(value)
	var n int64
	switch {
	case v.CanInt():
		n = v.Int()
	case v.CanUint():
		n = int64(v.Uint())
	default:
		panic(Errorf(CodeIllegalState, "type %s is not an enum", b.details.name))
	}
	if err := b.details.AddEnumValue(name, n); err != nil {
		panic(err)
	}
	return b
}

// Nested records the details of another registered type as nested in T.
func (b *TypeBuilder[T]) Nested(details *TypeDetails) *TypeBuilder[T] {
	b.details.AddNestedType(details)
	return b
}

// Extends makes B the base type of T. T should embed B so that methods
// and fields registered on B apply to values of T.
func Extends[B, T any](b *TypeBuilder[T]) *TypeBuilder[T] {
	base := b.details.registry.GetOrCreate(reflect.TypeFor[B](), "")
	if err := b.details.SetBase(base); err != nil {
		panic(err)
	}
	return b
}

func (b *TypeBuilder[T]) receiverCallable(kind, name string, fn any) *callable {
	c, err := newCallable(fn, true)
	if err != nil {
		panic(AsError(err).WithDetail("type", b.details.name).WithDetail(kind, name))
	}
	t := b.goType()
	if c.receiver != t && c.receiver != reflect.PointerTo(t) {
		panic(Errorf(CodeInvalidArgument, "%s %s of %s: receiver has type %s", kind, name, b.details.name, c.receiver))
	}
	return c
}

func mustName(name string) {
	if err := validateName(name); err != nil {
		panic(err)
	}
}
