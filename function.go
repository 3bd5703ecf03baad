package reflection

import (
	"reflect"
	"weak"
)

// FunctionDetails describes a free function bound into a module.
type FunctionDetails struct {
	name       string
	noexcept   bool
	signature  Signature
	returnType TypeIdentifier
	invoker    Invoker
	module     weak.Pointer[ModuleDetails]
}

// NewFunctionDetails inspects fn and builds its details. fn must be a
// non-variadic Go function whose results are empty, a value, an error, or
// a value followed by an error.
func NewFunctionDetails(name string, fn any) (*FunctionDetails, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	c, err := newCallable(fn, false)
	if err != nil {
		return nil, AsError(err).WithDetail("function", name)
	}
	return &FunctionDetails{
		name:       name,
		noexcept:   c.noexcept(),
		signature:  c.signature(),
		returnType: c.returnType(),
		invoker:    c,
	}, nil
}

// NewFunctionDetailsFromInvoker builds details for a hand-written invoker.
func NewFunctionDetailsFromInvoker(name string, noexcept bool, returnType TypeIdentifier, sig Signature, inv Invoker) *FunctionDetails {
	return &FunctionDetails{
		name:       name,
		noexcept:   noexcept,
		signature:  sig,
		returnType: returnType,
		invoker:    inv,
	}
}

func (f *FunctionDetails) Name() string               { return f.name }
func (f *FunctionDetails) IsNoexcept() bool           { return f.noexcept }
func (f *FunctionDetails) Signature() Signature       { return f.signature }
func (f *FunctionDetails) ReturnType() TypeIdentifier { return f.returnType }
func (f *FunctionDetails) Invoker() Invoker           { return f.invoker }

// Module returns the owning module, or nil.
func (f *FunctionDetails) Module() *ModuleDetails { return f.module.Value() }

// FullName returns the function name qualified by its module.
func (f *FunctionDetails) FullName() string {
	m := f.module.Value()
	if m == nil || m.IsRoot() {
		return f.name
	}
	return m.FullName() + ModuleSeparator + f.name
}

// Invoke calls the function with parameters read from ctx.
func (f *FunctionDetails) Invoke(ctx CallContext) {
	f.invoker.Invoke(ctx)
}

// VariableDetails describes a module-level variable.
type VariableDetails struct {
	name    string
	address reflect.Value
	typ     TypeIdentifier
	getter  *variableAccessor
	module  weak.Pointer[ModuleDetails]
}

func newVariableDetails(r *Registry, name string, ptr any) (*VariableDetails, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	v := reflect.ValueOf(ptr)
	if !v.IsValid() || v.Kind() != reflect.Ptr || v.IsNil() {
		return nil, Errorf(CodeInvalidArgument, "variable %s: expected a non-nil pointer, got %T", name, ptr)
	}
	elem := v.Type().Elem()
	if KindOf(elem) == KindUnsupported {
		return nil, Errorf(CodeNotImplemented, "variable %s: type %s is not supported", name, elem)
	}
	if r != nil && KindOf(elem) == KindObject {
		r.GetOrCreate(elem, "")
	}
	return &VariableDetails{
		name:    name,
		address: v,
		typ:     MakeTypeIdentifier(elem),
		getter:  &variableAccessor{ptr: v},
	}, nil
}

func (v *VariableDetails) Name() string         { return v.name }
func (v *VariableDetails) Type() TypeIdentifier { return v.typ }

// Address returns the pointer to the variable's storage.
func (v *VariableDetails) Address() any { return v.address.Interface() }

// Module returns the owning module, or nil.
func (v *VariableDetails) Module() *ModuleDetails { return v.module.Value() }

// Get stores the current value as the result of ctx.
func (v *VariableDetails) Get(ctx CallContext) { v.getter.get(ctx) }

// Set assigns parameter 0 of ctx to the variable.
func (v *VariableDetails) Set(ctx CallContext) { v.getter.set(ctx) }
