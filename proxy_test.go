package reflection_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/mge-engine/reflection"
)

type Listener interface {
	OnEvent(name string, count int32) (bool, error)
	Reset() error
}

type scriptListener struct {
	reflection.Proxy
}

func (l *scriptListener) OnEvent(name string, count int32) (bool, error) {
	return reflection.ProxyCall[bool](&l.Proxy, "on_event", name, count)
}

func (l *scriptListener) Reset() error {
	return l.Call("reset")
}

var _ Listener = (*scriptListener)(nil)

type recordingInvokeContext struct {
	args   map[int]any
	called []string
	result any
	err    error
}

func (c *recordingInvokeContext) StoreArgument(index int, v reflect.Value) error {
	if c.args == nil {
		c.args = make(map[int]any)
	}
	c.args[index] = v.Interface()
	return nil
}

func (c *recordingInvokeContext) Call(method string) error {
	c.called = append(c.called, method)
	return c.err
}

func (c *recordingInvokeContext) Result(t reflect.Type) (reflect.Value, error) {
	return reflect.ValueOf(c.result), nil
}

func TestProxyWithoutContext(t *testing.T) {
	l := &scriptListener{}
	_, err := l.OnEvent("tick", 1)
	if !reflection.IsCode(err, reflection.CodeIllegalState) {
		t.Errorf("expected illegal state, got %v", err)
	}
	if err := l.Reset(); !reflection.IsCode(err, reflection.CodeIllegalState) {
		t.Errorf("expected illegal state, got %v", err)
	}
}

func TestProxyForwardsCalls(t *testing.T) {
	ic := &recordingInvokeContext{result: true}
	l := &scriptListener{}
	l.SetInvokeContext(ic)

	ok, err := l.OnEvent("tick", 3)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("expected true result")
	}
	if ic.args[0] != "tick" || ic.args[1] != int32(3) {
		t.Errorf("unexpected arguments %v", ic.args)
	}
	if err := l.Reset(); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(ic.called, []string{"on_event", "reset"}) {
		t.Errorf("unexpected calls %v", ic.called)
	}

	ic.err = errors.New("script failed")
	if err := l.Reset(); !errors.Is(err, ic.err) {
		t.Errorf("expected script error, got %v", err)
	}

	l.SetInvokeContext(nil)
	if l.InvokeContext() != nil {
		t.Error("expected context to be unbound")
	}
}

func TestProxyConvertsResult(t *testing.T) {
	ic := &recordingInvokeContext{result: float64(7)}
	p := &reflection.Proxy{}
	p.SetInvokeContext(ic)

	n, err := reflection.ProxyCall[int32](p, "count")
	if err != nil {
		t.Fatal(err)
	}
	if n != 7 {
		t.Errorf("expected 7, got %d", n)
	}

	if _, err := reflection.ProxyCall[int32](p, "bad", []int{1}); !reflection.IsCode(err, reflection.CodeNotImplemented) {
		t.Errorf("expected unsupported argument to fail, got %v", err)
	}
}
