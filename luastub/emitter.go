package luastub

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/mge-engine/reflection/describe"
)

// Emitter writes LuaLS annotations for manifest entries.
type Emitter struct {
	types   map[string]*describe.TypeDescriptor
	config  Config
	emitted map[string]bool
	count   int
}

// NewEmitter creates an emitter resolving type references against m.
func NewEmitter(m *describe.Manifest, cfg Config) *Emitter {
	return &Emitter{
		types:   m.Types(),
		config:  cfg.withDefaults(),
		emitted: make(map[string]bool),
	}
}

// EmitModule writes the table declaration of m followed by its types,
// functions, variables and child modules. For the root module only its
// own entries are written.
func (e *Emitter) EmitModule(buf *bytes.Buffer, m *describe.ModuleDescriptor) {
	if m.FullName != "" {
		expr, _ := path(m.FullName)
		fmt.Fprintf(buf, "---@class %s\n%s = {}\n\n", className(m.FullName), expr)
	}
	for _, t := range m.Types {
		e.EmitType(buf, t)
	}
	for _, f := range m.Functions {
		e.emitFunction(buf, m.FullName, f.Name, f, "", nil)
	}
	for _, v := range m.Variables {
		e.emitVariable(buf, m.FullName, v)
	}
	if m.FullName == "" {
		return
	}
	for _, c := range m.Modules {
		e.EmitModule(buf, c)
	}
}

// EmitType writes one type and its nested types. Types already written by
// this emitter are skipped.
func (e *Emitter) EmitType(buf *bytes.Buffer, t *describe.TypeDescriptor) {
	if e.emitted[t.FullName] || t.Kind == describe.KindPrimitive {
		return
	}
	e.emitted[t.FullName] = true
	e.count++

	switch t.Kind {
	case describe.KindEnum:
		e.emitEnum(buf, t)
	case describe.KindClass, describe.KindArray:
		e.emitClass(buf, t)
	default:
		fmt.Fprintf(buf, "---@alias %s %s\n\n", className(t.FullName), e.alias(t))
	}
	for _, n := range t.Nested {
		e.EmitType(buf, n)
	}
}

func (e *Emitter) alias(t *describe.TypeDescriptor) string {
	if t.Kind == describe.KindPointer && t.Pointee != "" {
		if _, ok := e.types[t.Pointee]; ok {
			return className(t.Pointee)
		}
	}
	return "any"
}

func (e *Emitter) emitEnum(buf *bytes.Buffer, t *describe.TypeDescriptor) {
	expr, _ := path(t.FullName)
	fmt.Fprintf(buf, "---@enum %s\n%s = {\n", className(t.FullName), expr)
	for _, v := range t.EnumValues {
		key := v.Name
		if !isIdentifier(key) {
			key = "[" + strconv.Quote(key) + "]"
		}
		fmt.Fprintf(buf, "%s%s = %d,\n", e.config.Indent, key, v.Value)
	}
	buf.WriteString("}\n\n")
}

func (e *Emitter) emitClass(buf *bytes.Buffer, t *describe.TypeDescriptor) {
	name := className(t.FullName)
	buf.WriteString("---@class " + name)
	if t.Base != "" {
		buf.WriteString(" : " + className(t.Base))
	}
	buf.WriteString("\n")
	for _, f := range t.Fields {
		fmt.Fprintf(buf, "---@field %s %s", f.Name, e.luaType(f.Type))
		if f.ReadOnly {
			buf.WriteString(" # read-only")
		}
		buf.WriteString("\n")
	}
	expr, _ := path(t.FullName)
	fmt.Fprintf(buf, "%s = {}\n\n", expr)

	if len(t.Constructors) > 0 {
		overloads := make([]*describe.FunctionDescriptor, len(t.Constructors))
		for i, c := range t.Constructors {
			overloads[i] = &describe.FunctionDescriptor{
				Name:   "new",
				Params: c.Params,
				Result: describe.TypeRef{Name: t.FullName, Kind: "object"},
			}
		}
		e.emitOverloads(buf, t.FullName, overloads, "")
	}
	for _, group := range groupByName(t.Methods) {
		e.emitOverloads(buf, t.FullName, group, name)
	}
	for _, group := range groupByName(t.StaticMethods) {
		e.emitOverloads(buf, t.FullName, group, "")
	}
}

// emitOverloads declares the first overload and annotates the others.
// self is the class name for methods and empty otherwise.
func (e *Emitter) emitOverloads(buf *bytes.Buffer, owner string, fns []*describe.FunctionDescriptor, self string) {
	first := fns[0]
	var extra []string
	for _, f := range fns[1:] {
		extra = append(extra, e.funType(f, self))
	}
	e.emitFunction(buf, owner, first.Name, first, self, extra)
}

func (e *Emitter) emitFunction(buf *bytes.Buffer, owner, name string, f *describe.FunctionDescriptor, self string, overloads []string) {
	args := argNames(len(f.Params))
	for i, p := range f.Params {
		fmt.Fprintf(buf, "---@param %s %s\n", args[i], e.luaType(p))
	}
	if !f.Result.IsVoid() {
		fmt.Fprintf(buf, "---@return %s\n", e.luaType(f.Result))
	}
	for _, o := range overloads {
		fmt.Fprintf(buf, "---@overload %s\n", o)
	}
	declare(buf, owner, name, args, self != "")
	buf.WriteString("\n")
}

func (e *Emitter) emitVariable(buf *bytes.Buffer, owner string, v *describe.VariableDescriptor) {
	typ := e.luaType(v.Type)
	fmt.Fprintf(buf, "---@return %s\n", typ)
	declare(buf, owner, "get_"+v.Name, nil, false)
	fmt.Fprintf(buf, "\n---@param value %s\n", typ)
	declare(buf, owner, "set_"+v.Name, []string{"value"}, false)
	buf.WriteString("\n")
}

// funType renders f as a LuaLS function type for @overload.
func (e *Emitter) funType(f *describe.FunctionDescriptor, self string) string {
	var params []string
	if self != "" {
		params = append(params, "self: "+self)
	}
	for i, p := range f.Params {
		params = append(params, fmt.Sprintf("arg%d: %s", i+1, e.luaType(p)))
	}
	s := "fun(" + strings.Join(params, ", ") + ")"
	if !f.Result.IsVoid() {
		s += ": " + e.luaType(f.Result)
	}
	return s
}

func (e *Emitter) luaType(r describe.TypeRef) string {
	if t, ok := e.types[r.Name]; ok {
		return className(t.FullName)
	}
	switch r.Kind {
	case "bool":
		return "boolean"
	case "int8", "uint8", "int16", "uint16", "int32", "uint32", "int64", "uint64":
		return "integer"
	case "float32", "float64":
		return "number"
	case "string":
		return "string"
	case "object":
		return "userdata"
	case "void":
		return "nil"
	}
	return "any"
}

// declare writes an empty function definition. Methods use colon syntax.
// Names that cannot appear in a function statement are assigned instead.
func declare(buf *bytes.Buffer, owner, name string, args []string, method bool) {
	ownerExpr, plain := "", true
	if owner != "" {
		ownerExpr, plain = path(owner)
	}
	list := strings.Join(args, ", ")
	if plain && isIdentifier(name) {
		switch {
		case owner == "":
			fmt.Fprintf(buf, "function %s(%s) end\n", name, list)
		case method:
			fmt.Fprintf(buf, "function %s:%s(%s) end\n", ownerExpr, name, list)
		default:
			fmt.Fprintf(buf, "function %s.%s(%s) end\n", ownerExpr, name, list)
		}
		return
	}
	if method {
		list = strings.Join(append([]string{"self"}, args...), ", ")
	}
	if owner == "" {
		ownerExpr = "_G"
	}
	fmt.Fprintf(buf, "%s[%s] = function(%s) end\n", ownerExpr, strconv.Quote(name), list)
}

func argNames(n int) []string {
	names := make([]string, n)
	for i := range n {
		names[i] = "arg" + strconv.Itoa(i+1)
	}
	return names
}

// groupByName splits overloads by name, keeping first appearance order.
func groupByName(fns []*describe.FunctionDescriptor) [][]*describe.FunctionDescriptor {
	var groups [][]*describe.FunctionDescriptor
	index := make(map[string]int)
	for _, f := range fns {
		i, ok := index[f.Name]
		if !ok {
			i = len(groups)
			index[f.Name] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], f)
	}
	return groups
}
