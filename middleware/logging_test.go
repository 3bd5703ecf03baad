package middleware

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mge-engine/reflection"
	"github.com/mge-engine/reflection/internal/reflectiontest"
)

func newBufferLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}

func TestCallLoggingSuccess(t *testing.T) {
	logger, buf := newBufferLogger()
	r := reflection.NewRegistry().WithInterceptor(CallLogging(logger))
	r.Root().MustModule("mge").RegisterFunction("twice", func(n int32) int32 { return 2 * n })

	ctx := reflectiontest.NewCallContext(int32(4))
	if err := r.Call("mge::twice", ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	reflectiontest.AssertResult(t, ctx, int32(8))

	out := buf.String()
	for _, want := range []string{"call started", "call completed", "mge::twice"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in log output, got %s", want, out)
		}
	}
}

func TestCallLoggingFailure(t *testing.T) {
	logger, buf := newBufferLogger()
	r := reflection.NewRegistry().WithInterceptor(CallLogging(logger))
	r.Root().RegisterFunction("fail", func() error { return errors.New("broken device") })

	ctx := reflectiontest.NewCallContext()
	if err := r.Call("fail", ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	reflectiontest.AssertException(t, ctx, reflection.CodeNativeException)

	out := buf.String()
	if !strings.Contains(out, "call failed") || !strings.Contains(out, "broken device") {
		t.Errorf("expected failure in log output, got %s", out)
	}
	if strings.Contains(out, "call completed") {
		t.Errorf("unexpected completion in log output, got %s", out)
	}
}

func TestRequestLogging(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{status: http.StatusOK, level: `"level":"INFO"`},
		{status: http.StatusNotFound, level: `"level":"INFO"`},
		{status: http.StatusInternalServerError, level: `"level":"ERROR"`},
	}
	for _, tt := range tests {
		logger, buf := newBufferLogger()
		h := RequestLogging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		}))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("POST", "/Registry/Call", nil))

		out := buf.String()
		if !strings.Contains(out, tt.level) {
			t.Errorf("status %d: expected %s in log output, got %s", tt.status, tt.level, out)
		}
		if !strings.Contains(out, `"path":"/Registry/Call"`) {
			t.Errorf("expected path in log output, got %s", out)
		}
	}
}
