// Package remote serves a reflection registry over HTTP.
//
// Routes have the form /{Service}/{Method}. The Registry service offers
//
//	GET  /Registry/Describe?module=mge::math&primitives=true
//	GET  /Registry/Type?name=mge::fvec3
//	POST /Registry/Call {"function": "mge::math::dot", "args": [...]}
//
// Replies are {"result": ...} on success and {"error": {...}} otherwise,
// with the HTTP status derived from the error code.
package remote

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/mge-engine/reflection"
	"github.com/mge-engine/reflection/describe"
)

type route struct {
	method string
	serve  func(w http.ResponseWriter, r *http.Request) error
}

// Server exposes a registry. Use Handler to obtain the http.Handler.
type Server struct {
	registry           *reflection.Registry
	routes             map[string]route
	middlewares        []func(http.Handler) http.Handler
	logger             *slog.Logger
	maskInternalErrors bool
	maxRequestBodySize int64
}

// NewServer creates a server for r.
func NewServer(r *reflection.Registry) *Server {
	s := &Server{
		registry:           r,
		maxRequestBodySize: 1 << 20,
	}
	s.routes = map[string]route{
		"Registry.Describe": {method: http.MethodGet, serve: s.describe},
		"Registry.Type":     {method: http.MethodGet, serve: s.typeInfo},
		"Registry.Call":     {method: http.MethodPost, serve: s.call},
	}
	return s
}

// WithLogger sets the logger. Defaults to slog.Default().
func (s *Server) WithLogger(logger *slog.Logger) *Server {
	s.logger = logger
	return s
}

// WithMiddleware adds an HTTP middleware. The first one added is the
// outermost.
func (s *Server) WithMiddleware(mw func(http.Handler) http.Handler) *Server {
	s.middlewares = append(s.middlewares, mw)
	return s
}

// WithMaskInternalErrors hides the message of internal errors from
// clients. The full error is still logged.
func (s *Server) WithMaskInternalErrors() *Server {
	s.maskInternalErrors = true
	return s
}

// WithMaxRequestBodySize limits request bodies. 0 disables the limit;
// the default is 1MB.
func (s *Server) WithMaxRequestBodySize(size int64) *Server {
	s.maxRequestBodySize = size
	return s
}

func (s *Server) log() *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return slog.Default()
}

// Handler returns the server with all middleware applied.
func (s *Server) Handler() http.Handler {
	var h http.Handler = http.HandlerFunc(s.serveHTTP)
	for i := len(s.middlewares) - 1; i >= 0; i-- {
		h = s.middlewares[i](h)
	}
	return h
}

func (s *Server) serveHTTP(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			s.log().Error("PANIC recovered",
				slog.Any("panic", rec),
				slog.String("stack", string(debug.Stack())))
			s.fail(w, reflection.Errorf(reflection.CodeInternal, "internal server error (panic): %v", rec))
		}
	}()

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) != 2 {
		s.fail(w, reflection.NewError(reflection.CodeNotFound, "route not found"))
		return
	}
	rt, ok := s.routes[parts[0]+"."+parts[1]]
	if !ok {
		s.fail(w, reflection.NewError(reflection.CodeNotFound, "route not found"))
		return
	}
	if r.Method != rt.method {
		s.fail(w, reflection.Errorf(CodeMethodNotAllowed, "method %s not allowed, expected %s", r.Method, rt.method))
		return
	}
	if s.maxRequestBodySize > 0 && r.Body != nil {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxRequestBodySize)
	}
	if err := rt.serve(w, r); err != nil {
		s.fail(w, toError(err))
	}
}

func (s *Server) fail(w http.ResponseWriter, e *reflection.Error) {
	if e.Code == reflection.CodeInternal {
		s.log().Error("internal error", slog.String("message", e.Message))
		if s.maskInternalErrors {
			e = reflection.NewError(reflection.CodeInternal, "internal server error")
		}
	}
	writeError(w, e, s.log())
}

func (s *Server) describe(w http.ResponseWriter, r *http.Request) error {
	var req DescribeRequest
	if err := decodeQuery(r, &req); err != nil {
		return err
	}
	m := s.registry.Root()
	if req.Module != "" {
		var err error
		if m, err = s.registry.FindModule(req.Module); err != nil {
			return err
		}
	}
	writeResult(w, describe.BuildWith(s.registry, m, describe.Options{Primitives: req.Primitives}), s.log())
	return nil
}

func (s *Server) typeInfo(w http.ResponseWriter, r *http.Request) error {
	var req TypeRequest
	if err := decodeQuery(r, &req); err != nil {
		return err
	}
	t := describe.BuildWith(s.registry, s.registry.Root(), describe.Options{Primitives: true}).FindType(req.Name)
	if t == nil {
		return reflection.Errorf(reflection.CodeNotFound, "type %q not found", req.Name)
	}
	writeResult(w, t, s.log())
	return nil
}

func (s *Server) call(w http.ResponseWriter, r *http.Request) error {
	var req CallRequest
	if err := decodeBody(r, &req); err != nil {
		return err
	}
	f, err := s.registry.LookupFunction(req.Function)
	if err != nil {
		return err
	}
	if n := len(f.Signature()); n != len(req.Args) {
		return reflection.Errorf(reflection.CodeInvalidArgument, "%s takes %d arguments, got %d", req.Function, n, len(req.Args))
	}
	ctx := newJSONCallContext(req.Args)
	if err := s.registry.Call(req.Function, ctx); err != nil {
		return err
	}
	if ctx.err != nil {
		return ctx.err
	}
	writeResult(w, ctx.result, s.log())
	return nil
}
