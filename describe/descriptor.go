// Package describe builds a language-agnostic manifest of a reflection
// registry. Backends that generate script glue or documentation work from
// the manifest instead of walking the registry themselves.
package describe

import (
	"encoding/json"
	"fmt"
	"io"
)

// TypeKind is the category of a described type.
type TypeKind string

const (
	KindPrimitive TypeKind = "primitive"
	KindEnum      TypeKind = "enum"
	KindClass     TypeKind = "class"
	KindArray     TypeKind = "array"
	KindPointer   TypeKind = "pointer"
	KindOpaque    TypeKind = "opaque" // named non-enum scalars such as handles
)

// Manifest is the description of a whole module tree.
type Manifest struct {
	Root *ModuleDescriptor `json:"root"`
}

// ModuleDescriptor describes one module and everything below it.
type ModuleDescriptor struct {
	Name      string                `json:"name"`
	FullName  string                `json:"fullName"`
	Types     []*TypeDescriptor     `json:"types,omitempty"`
	Functions []*FunctionDescriptor `json:"functions,omitempty"`
	Variables []*VariableDescriptor `json:"variables,omitempty"`
	Modules   []*ModuleDescriptor   `json:"modules,omitempty"`
}

// TypeRef refers to a parameter, result, field or variable type.
type TypeRef struct {
	// Name is the qualified registry name for registered types and the Go
	// type string otherwise. Erased signature entries are named "?".
	Name string `json:"name"`
	// Kind is the marshalling kind ("int32", "string", "object", ...).
	Kind      string `json:"kind"`
	Const     bool   `json:"const,omitempty"`
	Reference bool   `json:"reference,omitempty"`
}

// IsVoid reports whether r denotes no value.
func (r TypeRef) IsVoid() bool { return r.Kind == "void" }

func (r TypeRef) String() string {
	s := r.Name
	if r.Const {
		s = "const " + s
	}
	if r.Reference {
		s += "&"
	}
	return s
}

// TypeDescriptor describes a registered type.
type TypeDescriptor struct {
	Name          string                  `json:"name"`
	FullName      string                  `json:"fullName"`
	Kind          TypeKind                `json:"kind"`
	GoType        string                  `json:"goType"`
	Size          uintptr                 `json:"size"`
	POD           bool                    `json:"pod,omitempty"`
	Base          string                  `json:"base,omitempty"`
	Pointee       string                  `json:"pointee,omitempty"`
	Constructors  []ConstructorDescriptor `json:"constructors,omitempty"`
	Destructible  bool                    `json:"destructible,omitempty"`
	Methods       []*FunctionDescriptor   `json:"methods,omitempty"`
	StaticMethods []*FunctionDescriptor   `json:"staticMethods,omitempty"`
	Fields        []FieldDescriptor       `json:"fields,omitempty"`
	EnumValues    []EnumValueDescriptor   `json:"enumValues,omitempty"`
	Nested        []*TypeDescriptor       `json:"nested,omitempty"`
}

// ConstructorDescriptor describes one constructor overload.
type ConstructorDescriptor struct {
	Params []TypeRef `json:"params"`
}

// FunctionDescriptor describes a free function or a method overload.
type FunctionDescriptor struct {
	Name     string    `json:"name"`
	FullName string    `json:"fullName,omitempty"`
	Params   []TypeRef `json:"params"`
	Result   TypeRef   `json:"result"`
	Noexcept bool      `json:"noexcept,omitempty"`
	Static   bool      `json:"static,omitempty"`
}

// FieldDescriptor describes a field or property.
type FieldDescriptor struct {
	Name     string  `json:"name"`
	Type     TypeRef `json:"type"`
	ReadOnly bool    `json:"readOnly,omitempty"`
}

// EnumValueDescriptor is one enumerator.
type EnumValueDescriptor struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
}

// VariableDescriptor describes a module variable.
type VariableDescriptor struct {
	Name     string  `json:"name"`
	FullName string  `json:"fullName"`
	Type     TypeRef `json:"type"`
}

// Write encodes m as indented JSON.
func (m *Manifest) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(m)
}

// Read decodes a manifest written by Write.
func Read(r io.Reader) (*Manifest, error) {
	var m Manifest
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	if m.Root == nil {
		return nil, fmt.Errorf("decode manifest: missing root module")
	}
	return &m, nil
}
