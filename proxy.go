package reflection

import (
	"reflect"
	"sync/atomic"
)

// InvokeContext carries calls from native code into script-implemented
// methods. Arguments are stored by index before Call; the result of the
// last Call is read back with Result.
type InvokeContext interface {
	StoreArgument(index int, v reflect.Value) error
	Call(method string) error
	Result(t reflect.Type) (reflect.Value, error)
}

// Proxy is the native stand-in for an interface implemented by a script.
// Embed it in a type that implements the interface and forward each
// method with ProxyCall or Proxy.Call:
//
//	type scriptListener struct{ reflection.Proxy }
//
//	func (l *scriptListener) OnEvent(name string) (bool, error) {
//	    return reflection.ProxyCall[bool](&l.Proxy, "on_event", name)
//	}
type Proxy struct {
	ctx atomic.Pointer[invokeContextHolder]
}

type invokeContextHolder struct {
	ic InvokeContext
}

// SetInvokeContext binds the context the proxy forwards to. Passing nil
// unbinds it.
func (p *Proxy) SetInvokeContext(ic InvokeContext) {
	if ic == nil {
		p.ctx.Store(nil)
		return
	}
	p.ctx.Store(&invokeContextHolder{ic: ic})
}

// InvokeContext returns the bound context, or nil.
func (p *Proxy) InvokeContext() InvokeContext {
	if h := p.ctx.Load(); h != nil {
		return h.ic
	}
	return nil
}

// Call forwards a method without result.
func (p *Proxy) Call(method string, args ...any) error {
	_, err := p.call(method, nil, args)
	return err
}

// ProxyCall forwards a method and converts its result to R.
func ProxyCall[R any](p *Proxy, method string, args ...any) (R, error) {
	var zero R
	v, err := p.call(method, reflect.TypeFor[R](), args)
	if err != nil {
		return zero, err
	}
	return v.Interface().(R), nil
}

func (p *Proxy) call(method string, result reflect.Type, args []any) (reflect.Value, error) {
	ic := p.InvokeContext()
	if ic == nil {
		return reflect.Value{}, Errorf(CodeIllegalState, "no context bound for proxy call %s", method)
	}
	if result != nil && KindOf(result) == KindUnsupported {
		return reflect.Value{}, Errorf(CodeNotImplemented, "result type %s of %s is not supported", result, method)
	}
	for i, a := range args {
		v := reflect.ValueOf(a)
		if !v.IsValid() || KindOf(v.Type()) == KindUnsupported {
			return reflect.Value{}, Errorf(CodeNotImplemented, "argument %d of %s: type %T is not supported", i, method, a)
		}
		if err := ic.StoreArgument(i, v); err != nil {
			return reflect.Value{}, err
		}
	}
	if err := ic.Call(method); err != nil {
		return reflect.Value{}, err
	}
	if result == nil {
		return reflect.Value{}, nil
	}
	v, err := ic.Result(result)
	if err != nil {
		return reflect.Value{}, err
	}
	if v.Type() != result {
		if !v.Type().ConvertibleTo(result) {
			return reflect.Value{}, Errorf(CodeInvalidArgument, "result of %s has type %s, want %s", method, v.Type(), result)
		}
		v = v.Convert(result)
	}
	return v, nil
}
