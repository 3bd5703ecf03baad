package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mge-engine/reflection/middleware"
	"github.com/mge-engine/reflection/remote"
)

type ServeCmd struct {
	Addr string `help:"Listen address. Defaults to server.addr of the configuration."`
}

func (c *ServeCmd) Run(e *env) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := c.Addr
	if addr == "" {
		addr = e.cfg.Server.Addr
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return serve(ctx, e, ln)
}

// newServer builds the handler stack for the configured server.
func newServer(e *env) *remote.Server {
	sc := e.cfg.Server
	s := remote.NewServer(e.registry).
		WithLogger(e.logger).
		WithMaxRequestBodySize(sc.MaxRequestBodySize).
		WithMiddleware(middleware.RequestLogging(e.logger)).
		WithMiddleware(middleware.CORS(sc.CORS))
	if sc.MaskInternalErrors {
		s.WithMaskInternalErrors()
	}
	return s
}

// serve runs the server on ln until ctx is done, then shuts it down.
func serve(ctx context.Context, e *env, ln net.Listener) error {
	srv := &http.Server{
		Handler:           newServer(e).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		e.logger.Info("serving registry", "addr", ln.Addr().String())
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
