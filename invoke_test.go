package reflection_test

import (
	"errors"
	"testing"

	"github.com/mge-engine/reflection"
	"github.com/mge-engine/reflection/internal/reflectiontest"
)

func subtract(a, b int32) int32 { return a - b }

func divide(a, b int64) (int64, error) {
	if b == 0 {
		return 0, errors.New("division by zero")
	}
	return a / b, nil
}

func mustPanic(s string) (string, error) {
	panic("bad input: " + s)
}

func TestInvokeRetrievesParametersInReverse(t *testing.T) {
	f, err := reflection.NewFunctionDetails("subtract", subtract)
	if err != nil {
		t.Fatal(err)
	}
	ctx := reflectiontest.NewCallContext(int32(10), int32(3))
	f.Invoke(ctx)

	reflectiontest.AssertResult(t, ctx, int32(7))
	if len(ctx.Accessed) != 2 || ctx.Accessed[0] != 1 || ctx.Accessed[1] != 0 {
		t.Errorf("expected positions to be read as [1 0], got %v", ctx.Accessed)
	}
}

func TestInvokeNoexcept(t *testing.T) {
	add, _ := reflection.NewFunctionDetails("subtract", subtract)
	div, _ := reflection.NewFunctionDetails("divide", divide)
	if !add.IsNoexcept() {
		t.Error("expected function without error result to be noexcept")
	}
	if div.IsNoexcept() {
		t.Error("expected function with error result not to be noexcept")
	}
	if got := div.Signature().String(); got != "(int64, int64)" {
		t.Errorf("unexpected signature %s", got)
	}
	if got := div.ReturnType(); got != reflection.IdentifierOf[int64]() {
		t.Errorf("unexpected return type %s", got)
	}
}

func TestInvokeReportsReturnedError(t *testing.T) {
	div, _ := reflection.NewFunctionDetails("divide", divide)

	ctx := reflectiontest.NewCallContext(int64(1), int64(0))
	div.Invoke(ctx)
	e := reflectiontest.AssertException(t, ctx, reflection.CodeNativeException)
	if e.Message != "division by zero" {
		t.Errorf("unexpected message %q", e.Message)
	}
	if ctx.Stores != 0 {
		t.Errorf("expected no result after exception, got %v", ctx.Result)
	}

	ok := reflectiontest.NewCallContext(int64(9), int64(3))
	div.Invoke(ok)
	reflectiontest.AssertResult(t, ok, int64(3))
}

func TestInvokeRecoversPanic(t *testing.T) {
	f, _ := reflection.NewFunctionDetails("must_panic", mustPanic)
	ctx := reflectiontest.NewCallContext("x")
	f.Invoke(ctx)

	reflectiontest.AssertException(t, ctx, reflection.CodeNativeException)
	var pe *reflection.PanicError
	if !errors.As(ctx.Exceptions[0], &pe) {
		t.Fatalf("expected *PanicError, got %T", ctx.Exceptions[0])
	}
	if pe.Value != "bad input: x" {
		t.Errorf("unexpected panic value %v", pe.Value)
	}
}

func TestInvokeRecoversRuntimePanicWithoutErrorResult(t *testing.T) {
	f, err := reflection.NewFunctionDetails("quotient", func(a, b int32) int32 { return a / b })
	if err != nil {
		t.Fatal(err)
	}
	if !f.IsNoexcept() {
		t.Error("expected function without error result to be noexcept")
	}

	ctx := reflectiontest.NewCallContext(int32(1), int32(0))
	f.Invoke(ctx)

	reflectiontest.AssertException(t, ctx, reflection.CodeNativeException)
	if ctx.Stores != 0 {
		t.Errorf("expected no result after panic, got %v", ctx.Result)
	}
}

func TestCallRecoversPanicInMethod(t *testing.T) {
	r := reflection.NewRegistry()
	mge := r.Root().MustModule("mge")
	reflection.Type[Counter](mge, "counter").
		Method("explode", func(c *Counter) int64 { return 1 / c.n })
	d, _ := mge.Type("counter")

	ctx := reflectiontest.NewCallContext().WithThis(&Counter{})
	if err := d.InvokeMethod("explode", reflection.SignatureOf(), ctx); err != nil {
		t.Fatalf("expected panic to be reported through the context, got %v", err)
	}
	reflectiontest.AssertException(t, ctx, reflection.CodeNativeException)
}

func TestInvokeVoidStoresNothing(t *testing.T) {
	var got string
	f, _ := reflection.NewFunctionDetails("set", func(s string) { got = s })
	ctx := reflectiontest.NewCallContext("hello")
	f.Invoke(ctx)

	reflectiontest.AssertNoResult(t, ctx)
	if got != "hello" {
		t.Errorf("expected function to run, got %q", got)
	}
	if !f.ReturnType().IsVoid() {
		t.Errorf("expected void return type, got %s", f.ReturnType())
	}
}

func TestInvokeMissingArgument(t *testing.T) {
	f, _ := reflection.NewFunctionDetails("subtract", subtract)
	ctx := reflectiontest.NewCallContext(int32(1))
	f.Invoke(ctx)
	reflectiontest.AssertException(t, ctx, reflection.CodeInvalidArgument)
}

func TestInvokeUnsupportedParameter(t *testing.T) {
	f, err := reflection.NewFunctionDetails("sum", func(xs []int) int { return len(xs) })
	if err != nil {
		t.Fatal(err)
	}
	ctx := reflectiontest.NewCallContext([]int{1, 2})
	f.Invoke(ctx)
	reflectiontest.AssertException(t, ctx, reflection.CodeNotImplemented)
}

func TestNewFunctionDetailsRejects(t *testing.T) {
	tests := []struct {
		name string
		fn   any
		code reflection.ErrorCode
	}{
		{"not a function", 42, reflection.CodeInvalidArgument},
		{"nil function", (func())(nil), reflection.CodeInvalidArgument},
		{"variadic", func(xs ...int) {}, reflection.CodeNotImplemented},
		{"second result not error", func() (int, int) { return 0, 0 }, reflection.CodeInvalidArgument},
		{"three results", func() (int, int, error) { return 0, 0, nil }, reflection.CodeNotImplemented},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := reflection.NewFunctionDetails("f", tt.fn)
			if !reflection.IsCode(err, tt.code) {
				t.Errorf("expected %s, got %v", tt.code, err)
			}
		})
	}
	if _, err := reflection.NewFunctionDetails("a::b", subtract); !reflection.IsCode(err, reflection.CodeInvalidArgument) {
		t.Errorf("expected qualified name to be rejected, got %v", err)
	}
}

func TestNamedTypesRoundTrip(t *testing.T) {
	f, _ := reflection.NewFunctionDetails("next", func(s Severity) Severity { return s + 1 })
	ctx := reflectiontest.NewCallContext(int32(SeverityInfo))
	f.Invoke(ctx)
	reflectiontest.AssertResult(t, ctx, int32(SeverityWarning))
}
