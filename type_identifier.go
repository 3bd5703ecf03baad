package reflection

import (
	"reflect"
	"strings"
)

// Qualifier marks a type identifier as const, volatile or reference
// qualified. Go has no such qualifiers, so they are stated explicitly when
// an overload needs to be told apart from its unqualified form.
type Qualifier uint8

const (
	Const Qualifier = 1 << iota
	Volatile
	Reference
)

// TypeIdentifier identifies a type together with its qualifiers.
// It is comparable and is used as a map key throughout the registry.
type TypeIdentifier struct {
	// Type is the base type. Pointer types are base types of their own.
	Type      reflect.Type
	Const     bool
	Volatile  bool
	Reference bool
}

// MakeTypeIdentifier builds an identifier for t with the given qualifiers.
func MakeTypeIdentifier(t reflect.Type, qualifiers ...Qualifier) TypeIdentifier {
	var q Qualifier
	for _, x := range qualifiers {
		q |= x
	}
	return TypeIdentifier{
		Type:      t,
		Const:     q&Const != 0,
		Volatile:  q&Volatile != 0,
		Reference: q&Reference != 0,
	}
}

// IdentifierOf returns the identifier of T.
func IdentifierOf[T any](qualifiers ...Qualifier) TypeIdentifier {
	return MakeTypeIdentifier(reflect.TypeFor[T](), qualifiers...)
}

// Void returns the identifier used for functions without a result.
func Void() TypeIdentifier {
	return TypeIdentifier{}
}

// IsVoid reports whether id denotes no type.
func (id TypeIdentifier) IsVoid() bool {
	return id.Type == nil
}

// Unqualified returns id with all qualifiers removed.
func (id TypeIdentifier) Unqualified() TypeIdentifier {
	return TypeIdentifier{Type: id.Type}
}

// Name returns the base type name.
func (id TypeIdentifier) Name() string {
	if id.Type == nil {
		return "void"
	}
	return id.Type.String()
}

func (id TypeIdentifier) String() string {
	var b strings.Builder
	if id.Const {
		b.WriteString("const ")
	}
	if id.Volatile {
		b.WriteString("volatile ")
	}
	b.WriteString(id.Name())
	if id.Reference {
		b.WriteString("&")
	}
	return b.String()
}
