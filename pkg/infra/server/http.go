package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"

	"github.com/kart-io/logger"

	httpopts "github.com/kart-io/sentinel-ask/pkg/options/http"
)

// HTTPServer serves an http.Handler with the configured timeouts.
type HTTPServer struct {
	opts    *httpopts.Options
	handler http.Handler

	mu     sync.Mutex
	server *http.Server
	addr   net.Addr
	errCh  chan error
}

// NewHTTPServer creates an HTTP server for the given handler.
func NewHTTPServer(opts *httpopts.Options, handler http.Handler) *HTTPServer {
	if opts == nil {
		opts = httpopts.NewOptions()
	}
	return &HTTPServer{opts: opts, handler: handler, errCh: make(chan error, 1)}
}

// Name returns the server name.
func (s *HTTPServer) Name() string {
	return "http"
}

// Start binds the listen address and serves in the background.
// Bind errors are returned synchronously.
func (s *HTTPServer) Start(_ context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:      s.handler,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		IdleTimeout:  s.opts.IdleTimeout,
	}

	s.mu.Lock()
	s.server = srv
	s.addr = ln.Addr()
	s.mu.Unlock()

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorw("HTTP server stopped unexpectedly", "addr", ln.Addr().String(), "error", err.Error())
			s.errCh <- err
		}
	}()
	return nil
}

// Addr returns the bound address, or nil before Start.
func (s *HTTPServer) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Err reports a serve failure after a successful Start.
func (s *HTTPServer) Err() <-chan error {
	return s.errCh
}

// Stop stops the HTTP server gracefully.
func (s *HTTPServer) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
