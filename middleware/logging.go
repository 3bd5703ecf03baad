package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/mge-engine/reflection"
)

// failureRecorder remembers the first failure a call reports.
type failureRecorder struct {
	reflection.CallContext
	err error
}

func (r *failureRecorder) ExceptionThrown(err error) {
	if r.err == nil {
		r.err = err
	}
	r.CallContext.ExceptionThrown(err)
}

// CallLogging creates an interceptor that logs registry calls using slog.
// It logs the start and end of each call, including duration and the
// failure reported by the callee, if any.
func CallLogging(logger *slog.Logger) reflection.Interceptor {
	if logger == nil {
		logger = slog.Default()
	}

	return func(info *reflection.CallInfo, ctx reflection.CallContext, next reflection.Invoker) {
		start := time.Now()
		logger.Debug("call started", slog.String("function", info.Name))

		rec := &failureRecorder{CallContext: ctx}
		next.Invoke(rec)
		duration := time.Since(start)

		if rec.err != nil {
			logger.Error("call failed",
				slog.String("function", info.Name),
				slog.Duration("duration", duration),
				slog.Any("error", rec.err),
			)
			return
		}
		logger.Info("call completed",
			slog.String("function", info.Name),
			slog.Duration("duration", duration),
		)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// RequestLogging returns an HTTP middleware logging one line per request.
func RequestLogging(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			level := slog.LevelInfo
			if rec.status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			logger.Log(r.Context(), level, "request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rec.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}
