package reflection

import (
	"reflect"
	"strconv"
)

// Kind is the marshalling category of a type. Every kind except
// KindVoid and KindUnsupported has a getter and a setter on CallContext.
type Kind int

const (
	KindUnsupported Kind = iota
	KindVoid
	KindBool
	KindInt8
	KindUint8
	KindInt16
	KindUint16
	KindInt32
	KindUint32
	KindInt64
	KindUint64
	KindFloat32
	KindFloat64
	KindString
	KindObject // registered struct or array, by value or pointer
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindVoid:
		return "void"
	case KindBool:
		return "bool"
	case KindInt8:
		return "int8"
	case KindUint8:
		return "uint8"
	case KindInt16:
		return "int16"
	case KindUint16:
		return "uint16"
	case KindInt32:
		return "int32"
	case KindUint32:
		return "uint32"
	case KindInt64:
		return "int64"
	case KindUint64:
		return "uint64"
	case KindFloat32:
		return "float32"
	case KindFloat64:
		return "float64"
	case KindString:
		return "string"
	case KindObject:
		return "object"
	default:
		return "unsupported"
	}
}

// IsInteger reports whether k is one of the sized integer kinds.
func (k Kind) IsInteger() bool {
	return k >= KindInt8 && k <= KindUint64
}

// IsNumber reports whether k is an integer or floating point kind.
func (k Kind) IsNumber() bool {
	return k.IsInteger() || k == KindFloat32 || k == KindFloat64
}

// KindOf classifies t. Named types marshal as their underlying kind, so
// enums travel as integers. A nil type is void.
func KindOf(t reflect.Type) Kind {
	if t == nil {
		return KindVoid
	}
	switch t.Kind() {
	case reflect.Bool:
		return KindBool
	case reflect.Int8:
		return KindInt8
	case reflect.Uint8:
		return KindUint8
	case reflect.Int16:
		return KindInt16
	case reflect.Uint16:
		return KindUint16
	case reflect.Int32:
		return KindInt32
	case reflect.Uint32:
		return KindUint32
	case reflect.Int64:
		return KindInt64
	case reflect.Uint64, reflect.Uintptr:
		return KindUint64
	case reflect.Int:
		if strconv.IntSize == 32 {
			return KindInt32
		}
		return KindInt64
	case reflect.Uint:
		if strconv.IntSize == 32 {
			return KindUint32
		}
		return KindUint64
	case reflect.Float32:
		return KindFloat32
	case reflect.Float64:
		return KindFloat64
	case reflect.String:
		return KindString
	case reflect.Struct, reflect.Array:
		return KindObject
	case reflect.Ptr:
		switch t.Elem().Kind() {
		case reflect.Struct, reflect.Array:
			return KindObject
		}
	}
	return KindUnsupported
}

type parameterGetter func(ctx CallContext, position int, t reflect.Type) (reflect.Value, error)

type resultSetter func(ctx CallContext, v reflect.Value)

// parameterGetters and resultSetters are the dispatch tables from a Kind to
// the typed CallContext operation.
var (
	parameterGetters = [...]parameterGetter{
		KindBool: func(ctx CallContext, p int, _ reflect.Type) (reflect.Value, error) {
			v, err := ctx.BoolParameter(p)
			return reflect.ValueOf(v), err
		},
		KindInt8: func(ctx CallContext, p int, _ reflect.Type) (reflect.Value, error) {
			v, err := ctx.Int8Parameter(p)
			return reflect.ValueOf(v), err
		},
		KindUint8: func(ctx CallContext, p int, _ reflect.Type) (reflect.Value, error) {
			v, err := ctx.Uint8Parameter(p)
			return reflect.ValueOf(v), err
		},
		KindInt16: func(ctx CallContext, p int, _ reflect.Type) (reflect.Value, error) {
			v, err := ctx.Int16Parameter(p)
			return reflect.ValueOf(v), err
		},
		KindUint16: func(ctx CallContext, p int, _ reflect.Type) (reflect.Value, error) {
			v, err := ctx.Uint16Parameter(p)
			return reflect.ValueOf(v), err
		},
		KindInt32: func(ctx CallContext, p int, _ reflect.Type) (reflect.Value, error) {
			v, err := ctx.Int32Parameter(p)
			return reflect.ValueOf(v), err
		},
		KindUint32: func(ctx CallContext, p int, _ reflect.Type) (reflect.Value, error) {
			v, err := ctx.Uint32Parameter(p)
			return reflect.ValueOf(v), err
		},
		KindInt64: func(ctx CallContext, p int, _ reflect.Type) (reflect.Value, error) {
			v, err := ctx.Int64Parameter(p)
			return reflect.ValueOf(v), err
		},
		KindUint64: func(ctx CallContext, p int, _ reflect.Type) (reflect.Value, error) {
			v, err := ctx.Uint64Parameter(p)
			return reflect.ValueOf(v), err
		},
		KindFloat32: func(ctx CallContext, p int, _ reflect.Type) (reflect.Value, error) {
			v, err := ctx.Float32Parameter(p)
			return reflect.ValueOf(v), err
		},
		KindFloat64: func(ctx CallContext, p int, _ reflect.Type) (reflect.Value, error) {
			v, err := ctx.Float64Parameter(p)
			return reflect.ValueOf(v), err
		},
		KindString: func(ctx CallContext, p int, _ reflect.Type) (reflect.Value, error) {
			v, err := ctx.StringParameter(p)
			return reflect.ValueOf(v), err
		},
		KindObject: func(ctx CallContext, p int, t reflect.Type) (reflect.Value, error) {
			v, err := ctx.ObjectParameter(p, t)
			if err != nil {
				return reflect.Value{}, err
			}
			return adaptObject(v, t)
		},
	}

	resultSetters = [...]resultSetter{
		KindBool:    func(ctx CallContext, v reflect.Value) { ctx.StoreBoolResult(v.Bool()) },
		KindInt8:    func(ctx CallContext, v reflect.Value) { ctx.StoreInt8Result(int8(v.Int())) },
		KindUint8:   func(ctx CallContext, v reflect.Value) { ctx.StoreUint8Result(uint8(v.Uint())) },
		KindInt16:   func(ctx CallContext, v reflect.Value) { ctx.StoreInt16Result(int16(v.Int())) },
		KindUint16:  func(ctx CallContext, v reflect.Value) { ctx.StoreUint16Result(uint16(v.Uint())) },
		KindInt32:   func(ctx CallContext, v reflect.Value) { ctx.StoreInt32Result(int32(v.Int())) },
		KindUint32:  func(ctx CallContext, v reflect.Value) { ctx.StoreUint32Result(uint32(v.Uint())) },
		KindInt64:   func(ctx CallContext, v reflect.Value) { ctx.StoreInt64Result(v.Int()) },
		KindUint64:  func(ctx CallContext, v reflect.Value) { ctx.StoreUint64Result(v.Uint()) },
		KindFloat32: func(ctx CallContext, v reflect.Value) { ctx.StoreFloat32Result(float32(v.Float())) },
		KindFloat64: func(ctx CallContext, v reflect.Value) { ctx.StoreFloat64Result(v.Float()) },
		KindString:  func(ctx CallContext, v reflect.Value) { ctx.StoreStringResult(v.String()) },
		KindObject:  func(ctx CallContext, v reflect.Value) { ctx.StoreObjectResult(v.Interface()) },
	}
)

// Parameter retrieves the parameter at position from ctx as a value of
// type t, dispatching on KindOf(t).
func Parameter(ctx CallContext, t reflect.Type, position int) (reflect.Value, error) {
	k := KindOf(t)
	if int(k) >= len(parameterGetters) || parameterGetters[k] == nil {
		return reflect.Value{}, Errorf(CodeNotImplemented, "parameter %d: type %s is not supported", position, t)
	}
	v, err := parameterGetters[k](ctx, position, t)
	if err != nil {
		return reflect.Value{}, err
	}
	if v.Type() != t {
		v = v.Convert(t)
	}
	return v, nil
}

// StoreResult stores v into ctx, dispatching on its kind.
func StoreResult(ctx CallContext, v reflect.Value) error {
	k := KindOf(v.Type())
	if int(k) >= len(resultSetters) || resultSetters[k] == nil {
		return Errorf(CodeNotImplemented, "result type %s is not supported", v.Type())
	}
	resultSetters[k](ctx, v)
	return nil
}

// adaptObject converts an object supplied by a call context to t,
// dereferencing or boxing as needed.
func adaptObject(obj any, t reflect.Type) (reflect.Value, error) {
	if obj == nil {
		if t.Kind() == reflect.Ptr {
			return reflect.Zero(t), nil
		}
		return reflect.Value{}, Errorf(CodeInvalidArgument, "nil object where %s expected", t)
	}
	v := reflect.ValueOf(obj)
	switch {
	case v.Type() == t:
		return v, nil
	case v.Kind() == reflect.Ptr && v.Type().Elem() == t:
		if v.IsNil() {
			return reflect.Value{}, Errorf(CodeInvalidArgument, "nil object where %s expected", t)
		}
		return v.Elem(), nil
	case t.Kind() == reflect.Ptr && t.Elem() == v.Type():
		p := reflect.New(v.Type())
		p.Elem().Set(v)
		return p, nil
	}
	if u, ok := upcast(v, t); ok {
		return u, nil
	}
	return reflect.Value{}, Errorf(CodeInvalidArgument, "object of type %s where %s expected", v.Type(), t)
}

// upcast finds the embedded base of v that has type t, whose address has
// type t, or that points to a t.
func upcast(v reflect.Value, t reflect.Type) (reflect.Value, bool) {
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return reflect.Value{}, false
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return reflect.Value{}, false
	}
	for i := 0; i < v.NumField(); i++ {
		if !v.Type().Field(i).Anonymous {
			continue
		}
		f := v.Field(i)
		switch {
		case f.Type() == t:
			return f, true
		case t.Kind() == reflect.Ptr && f.Type() == t.Elem() && f.CanAddr():
			return f.Addr(), true
		case f.Kind() == reflect.Ptr && f.Type().Elem() == t:
			if f.IsNil() {
				continue
			}
			return f.Elem(), true
		}
		if u, ok := upcast(f, t); ok {
			return u, true
		}
	}
	return reflect.Value{}, false
}
