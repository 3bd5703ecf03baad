package reflection

import (
	"reflect"
	"strings"
)

// Signature is the ordered list of parameter types of a callable.
// A nil entry stands for an erased parameter type. Erased entries never
// match anything, not even another erased entry.
type Signature []*TypeIdentifier

// SignatureOf builds a signature of unqualified identifiers.
func SignatureOf(types ...reflect.Type) Signature {
	sig := make(Signature, len(types))
	for i, t := range types {
		id := MakeTypeIdentifier(t)
		sig[i] = &id
	}
	return sig
}

// NewSignature builds a signature from explicit identifiers.
func NewSignature(ids ...TypeIdentifier) Signature {
	sig := make(Signature, len(ids))
	for i := range ids {
		id := ids[i]
		sig[i] = &id
	}
	return sig
}

// Arity returns the number of parameters.
func (s Signature) Arity() int {
	return len(s)
}

// IsErased reports whether any parameter type is erased.
func (s Signature) IsErased() bool {
	for _, p := range s {
		if p == nil {
			return true
		}
	}
	return false
}

// Matches reports whether s and other have the same arity and every
// position holds equal, present identifiers.
func (s Signature) Matches(other Signature) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] == nil || other[i] == nil {
			return false
		}
		if *s[i] != *other[i] {
			return false
		}
	}
	return true
}

// Equal is an alias for Matches.
func (s Signature) Equal(other Signature) bool {
	return s.Matches(other)
}

func (s Signature) String() string {
	parts := make([]string, len(s))
	for i, p := range s {
		if p == nil {
			parts[i] = "?"
			continue
		}
		parts[i] = p.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
