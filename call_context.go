package reflection

import (
	"context"
	"reflect"
)

// CallContext is the channel between a bound native callable and the
// embedding that invokes it, typically a script interpreter's argument
// stack. Parameter positions are zero based and exclude the receiver.
//
// Implementations are used from a single goroutine for the duration of a
// call and need not be safe for concurrent use.
type CallContext interface {
	BoolParameter(position int) (bool, error)
	Int8Parameter(position int) (int8, error)
	Uint8Parameter(position int) (uint8, error)
	Int16Parameter(position int) (int16, error)
	Uint16Parameter(position int) (uint16, error)
	Int32Parameter(position int) (int32, error)
	Uint32Parameter(position int) (uint32, error)
	Int64Parameter(position int) (int64, error)
	Uint64Parameter(position int) (uint64, error)
	Float32Parameter(position int) (float32, error)
	Float64Parameter(position int) (float64, error)
	StringParameter(position int) (string, error)

	// ObjectParameter returns a registered struct or array value (or a
	// pointer to one) for the parameter at position. t is the type the
	// callee expects.
	ObjectParameter(position int, t reflect.Type) (any, error)

	// This returns the receiver of a method call, or an error for calls
	// that have none.
	This() (any, error)

	StoreBoolResult(v bool)
	StoreInt8Result(v int8)
	StoreUint8Result(v uint8)
	StoreInt16Result(v int16)
	StoreUint16Result(v uint16)
	StoreInt32Result(v int32)
	StoreUint32Result(v uint32)
	StoreInt64Result(v int64)
	StoreUint64Result(v uint64)
	StoreFloat32Result(v float32)
	StoreFloat64Result(v float64)
	StoreStringResult(v string)
	StoreObjectResult(v any)

	// ExceptionThrown is notified when the invoked native code fails.
	// err is an *Error raised by the core, a plain error returned by the
	// native code, or a *PanicError for anything else.
	ExceptionThrown(err error)
}

type callContextKey struct{}

// WithCallContext returns a copy of ctx carrying the active call context.
func WithCallContext(ctx context.Context, cc CallContext) context.Context {
	return context.WithValue(ctx, callContextKey{}, cc)
}

// CallContextFrom returns the call context carried by ctx.
func CallContextFrom(ctx context.Context) (CallContext, bool) {
	cc, ok := ctx.Value(callContextKey{}).(CallContext)
	return cc, ok && cc != nil
}
