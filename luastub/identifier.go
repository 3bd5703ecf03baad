package luastub

import (
	"strconv"
	"strings"

	"github.com/mge-engine/reflection"
)

// Lua reserved words.
var reservedWords = map[string]bool{
	"and":      true,
	"break":    true,
	"do":       true,
	"else":     true,
	"elseif":   true,
	"end":      true,
	"false":    true,
	"for":      true,
	"function": true,
	"goto":     true,
	"if":       true,
	"in":       true,
	"local":    true,
	"nil":      true,
	"not":      true,
	"or":       true,
	"repeat":   true,
	"return":   true,
	"then":     true,
	"true":     true,
	"until":    true,
	"while":    true,
}

// isIdentifier reports whether name can be used as a Lua name.
func isIdentifier(name string) bool {
	if name == "" || reservedWords[name] {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// className is the annotation name of a registry entry: its qualified name
// with dots instead of module separators.
func className(fullName string) string {
	return strings.ReplaceAll(fullName, reflection.ModuleSeparator, ".")
}

// path renders the Lua expression reaching a registry entry, falling back
// to indexing with string keys for names that are not identifiers.
func path(fullName string) (expr string, plain bool) {
	parts := strings.Split(fullName, reflection.ModuleSeparator)
	var b strings.Builder
	plain = true
	for i, p := range parts {
		switch {
		case isIdentifier(p) && i == 0:
			b.WriteString(p)
		case isIdentifier(p):
			b.WriteString(".")
			b.WriteString(p)
		case i == 0:
			plain = false
			b.WriteString("_G[" + strconv.Quote(p) + "]")
		default:
			plain = false
			b.WriteString("[" + strconv.Quote(p) + "]")
		}
	}
	return b.String(), plain
}
