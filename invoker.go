package reflection

import (
	"reflect"
)

// Invoker is a type-erased native callable. It reads its parameters from
// the call context and stores its result there; failures are reported
// through CallContext.ExceptionThrown, never returned or propagated.
type Invoker interface {
	Invoke(ctx CallContext)
}

// InvokerFunc adapts an ordinary function to the Invoker interface.
type InvokerFunc func(ctx CallContext)

// Invoke calls f(ctx).
func (f InvokerFunc) Invoke(ctx CallContext) { f(ctx) }

var errorType = reflect.TypeFor[error]()

type callMode int

const (
	modeCall callMode = iota
	modeMakeShared
	modeConstructInPlace
)

// callable is the Invoker built from a Go function value.
type callable struct {
	fn           reflect.Value
	receiver     reflect.Type // nil for free functions
	params       []reflect.Type
	result       reflect.Type // nil when void
	returnsError bool
	mode         callMode
}

// newCallable inspects fn. When method is true the first Go parameter is
// the receiver and is taken from CallContext.This.
func newCallable(fn any, method bool) (*callable, error) {
	v := reflect.ValueOf(fn)
	if !v.IsValid() || v.Kind() != reflect.Func || v.IsNil() {
		return nil, Errorf(CodeInvalidArgument, "expected a function, got %T", fn)
	}
	t := v.Type()
	if t.IsVariadic() {
		return nil, Errorf(CodeNotImplemented, "variadic function %s is not supported", t)
	}

	c := &callable{fn: v}
	first := 0
	if method {
		if t.NumIn() == 0 {
			return nil, Errorf(CodeInvalidArgument, "method %s has no receiver parameter", t)
		}
		c.receiver = t.In(0)
		first = 1
	}
	for i := first; i < t.NumIn(); i++ {
		c.params = append(c.params, t.In(i))
	}

	switch t.NumOut() {
	case 0:
	case 1:
		if t.Out(0) == errorType {
			c.returnsError = true
		} else {
			c.result = t.Out(0)
		}
	case 2:
		if t.Out(1) != errorType {
			return nil, Errorf(CodeInvalidArgument, "second result of %s must be error", t)
		}
		c.result = t.Out(0)
		c.returnsError = true
	default:
		return nil, Errorf(CodeNotImplemented, "function %s has too many results", t)
	}
	return c, nil
}

// noexcept reports whether the function declares no failure. Go functions
// signal failure through a trailing error result. Panics are recovered
// either way.
func (c *callable) noexcept() bool {
	return !c.returnsError
}

func (c *callable) signature() Signature {
	return SignatureOf(c.params...)
}

func (c *callable) returnType() TypeIdentifier {
	if c.result == nil {
		return Void()
	}
	return MakeTypeIdentifier(c.result)
}

// Invoke runs the callable against ctx.
func (c *callable) Invoke(ctx CallContext) {
	defer func() {
		if rec := recover(); rec != nil {
			ctx.ExceptionThrown(recoveredError(rec))
		}
	}()

	var target reflect.Value
	if c.mode == modeConstructInPlace {
		var err error
		target, err = constructionTarget(ctx, c.result)
		if err != nil {
			ctx.ExceptionThrown(err)
			return
		}
	}

	args, err := c.arguments(ctx)
	if err != nil {
		ctx.ExceptionThrown(err)
		return
	}
	out := c.fn.Call(args)

	if c.returnsError {
		if errv := out[len(out)-1]; !errv.IsNil() {
			ctx.ExceptionThrown(errv.Interface().(error))
			return
		}
	}
	if c.result == nil {
		return
	}

	res := out[0]
	switch c.mode {
	case modeConstructInPlace:
		if res.Kind() == reflect.Ptr {
			res = res.Elem()
		}
		target.Elem().Set(res)
		return
	case modeMakeShared:
		if res.Kind() != reflect.Ptr {
			p := reflect.New(res.Type())
			p.Elem().Set(res)
			res = p
		}
	}
	if err := StoreResult(ctx, res); err != nil {
		ctx.ExceptionThrown(err)
	}
}

// arguments retrieves the call arguments. Parameters are fetched from the
// highest position down to zero; stack based embeddings depend on it.
func (c *callable) arguments(ctx CallContext) ([]reflect.Value, error) {
	offset := 0
	if c.receiver != nil {
		offset = 1
	}
	args := make([]reflect.Value, len(c.params)+offset)
	if c.receiver != nil {
		recv, err := receiver(ctx, c.receiver)
		if err != nil {
			return nil, err
		}
		args[0] = recv
	}
	for i := len(c.params) - 1; i >= 0; i-- {
		v, err := Parameter(ctx, c.params[i], i)
		if err != nil {
			return nil, err
		}
		args[i+offset] = v
	}
	return args, nil
}

func receiver(ctx CallContext, t reflect.Type) (reflect.Value, error) {
	this, err := ctx.This()
	if err != nil {
		return reflect.Value{}, err
	}
	if this == nil {
		return reflect.Value{}, Errorf(CodeIllegalState, "no object bound for receiver of type %s", t)
	}
	return adaptObject(this, t)
}

// constructionTarget returns the pointer the call context provides as
// storage for in-place construction of a value of type t (or *t).
func constructionTarget(ctx CallContext, t reflect.Type) (reflect.Value, error) {
	elem := t
	if elem.Kind() == reflect.Ptr {
		elem = elem.Elem()
	}
	this, err := ctx.This()
	if err != nil {
		return reflect.Value{}, err
	}
	v := reflect.ValueOf(this)
	if this == nil || v.Kind() != reflect.Ptr || v.IsNil() || v.Type().Elem() != elem {
		return reflect.Value{}, Errorf(CodeIllegalState, "no storage of type *%s bound for construction", elem)
	}
	return v, nil
}

// fieldAccessor reads and writes a struct field of the receiver.
type fieldAccessor struct {
	owner reflect.Type
	index []int
	typ   reflect.Type
}

func (a *fieldAccessor) get(ctx CallContext) {
	v, err := a.field(ctx)
	if err != nil {
		ctx.ExceptionThrown(err)
		return
	}
	if err := StoreResult(ctx, v); err != nil {
		ctx.ExceptionThrown(err)
	}
}

func (a *fieldAccessor) set(ctx CallContext) {
	f, err := a.field(ctx)
	if err != nil {
		ctx.ExceptionThrown(err)
		return
	}
	if !f.CanSet() {
		ctx.ExceptionThrown(Errorf(CodeIllegalState, "field of %s is not settable through a value receiver", a.owner))
		return
	}
	v, err := Parameter(ctx, a.typ, 0)
	if err != nil {
		ctx.ExceptionThrown(err)
		return
	}
	f.Set(v)
}

func (a *fieldAccessor) field(ctx CallContext) (reflect.Value, error) {
	this, err := ctx.This()
	if err != nil {
		return reflect.Value{}, err
	}
	if this == nil {
		return reflect.Value{}, Errorf(CodeIllegalState, "no object bound for field access on %s", a.owner)
	}
	v := reflect.ValueOf(this)
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return reflect.Value{}, Errorf(CodeIllegalState, "nil object for field access on %s", a.owner)
		}
		v = v.Elem()
	}
	if v.Type() != a.owner {
		base, ok := upcast(v, a.owner)
		if ok {
			return base.FieldByIndex(a.index), nil
		}
		return reflect.Value{}, Errorf(CodeInvalidArgument, "object of type %s where %s expected", v.Type(), a.owner)
	}
	return v.FieldByIndex(a.index), nil
}

// variableAccessor reads and writes the value behind a pointer.
type variableAccessor struct {
	ptr reflect.Value
}

func (a *variableAccessor) get(ctx CallContext) {
	if err := StoreResult(ctx, a.ptr.Elem()); err != nil {
		ctx.ExceptionThrown(err)
	}
}

func (a *variableAccessor) set(ctx CallContext) {
	v, err := Parameter(ctx, a.ptr.Type().Elem(), 0)
	if err != nil {
		ctx.ExceptionThrown(err)
		return
	}
	a.ptr.Elem().Set(v)
}
