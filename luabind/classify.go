package luabind

import (
	"math"
	"reflect"

	lua "github.com/yuin/gopher-lua"

	"github.com/mge-engine/reflection"
)

// matchKind rates how well a Lua value fits a parameter type.
type matchKind int

const (
	noMatch matchKind = iota
	convertible
	exactMatch
)

// classify rates v against the parameter type id. Erased entries accept
// any value as convertible.
func (b *Binder) classify(v lua.LValue, id *reflection.TypeIdentifier) matchKind {
	if id == nil {
		return convertible
	}
	k := reflection.KindOf(id.Type)
	switch {
	case k == reflection.KindBool:
		switch v.Type() {
		case lua.LTBool:
			return exactMatch
		case lua.LTNumber:
			return convertible
		}
	case k.IsInteger():
		switch n := v.(type) {
		case lua.LNumber:
			if f := float64(n); f == math.Trunc(f) {
				return exactMatch
			}
		case lua.LBool:
			return convertible
		}
	case k == reflection.KindFloat32 || k == reflection.KindFloat64:
		if v.Type() == lua.LTNumber {
			return exactMatch
		}
	case k == reflection.KindString:
		switch v.Type() {
		case lua.LTString:
			return exactMatch
		case lua.LTNumber:
			return convertible
		}
	case k == reflection.KindObject:
		return b.classifyObject(v, id.Type)
	}
	return noMatch
}

func (b *Binder) classifyObject(v lua.LValue, t reflect.Type) matchKind {
	if v == lua.LNil {
		if t.Kind() == reflect.Ptr {
			return convertible
		}
		return noMatch
	}
	obj, ok := toObject(v)
	if !ok {
		return noMatch
	}
	elem := t
	if elem.Kind() == reflect.Ptr {
		elem = elem.Elem()
	}
	if obj.ptr.Type().Elem() == elem {
		return exactMatch
	}
	want, ok := b.registry.Lookup(elem)
	if ok && obj.details != nil && obj.details.IsA(want) {
		return convertible
	}
	return noMatch
}

// bestMatch picks the overload whose signature accepts args with the most
// exact matches. Ties go to the overload registered first. It returns -1
// when no overload accepts args.
func (b *Binder) bestMatch(sigs []reflection.Signature, args []lua.LValue) int {
	best, bestExact := -1, -1
	for i, sig := range sigs {
		if len(sig) != len(args) {
			continue
		}
		exact, ok := 0, true
		for j, id := range sig {
			m := b.classify(args[j], id)
			if m == noMatch {
				ok = false
				break
			}
			if m == exactMatch {
				exact++
			}
		}
		if ok && exact > bestExact {
			best, bestExact = i, exact
		}
	}
	return best
}
