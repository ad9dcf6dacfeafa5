// Package server accepts TCP connections and answers one HTTP/1.0 GET
// request per connection from a document root.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/Brownie44l1/fileserver/internal/config"
	"github.com/Brownie44l1/fileserver/internal/listing"
	"github.com/Brownie44l1/fileserver/internal/resolve"
)

// ErrServerClosed is returned by Serve after Shutdown.
var ErrServerClosed = errors.New("server closed")

type Server struct {
	Logger Logger

	cfg      config.Config
	resolver *resolve.Resolver
	renderer *listing.Renderer
	metrics  *Metrics
	buffers  *BufferPool

	middlewares []Middleware

	mu       sync.Mutex
	listener net.Listener
	closed   atomic.Bool
	wg       sync.WaitGroup
	sem      chan struct{}
}

// New validates cfg and builds a server for it. A nil logger discards
// everything.
func New(cfg config.Config, logger Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = &NullLogger{}
	}

	tag, err := cfg.ListingLanguage()
	if err != nil {
		return nil, err
	}

	s := &Server{
		Logger:   logger,
		cfg:      cfg,
		resolver: resolve.NewResolver(cfg.DocumentRoot),
		renderer: listing.NewRenderer(listing.Options{
			Language:   tag,
			DateLayout: cfg.Listing.DateFormat,
		}),
		metrics: NewMetrics(),
		buffers: NewBufferPool(CopyBufferSize),
		sem:     make(chan struct{}, cfg.Workers),
	}

	s.Use(
		LoggingMiddleware(logger),
		MetricsMiddleware(s.metrics),
		RecoveryMiddleware(logger),
	)
	return s, nil
}

// Use appends middlewares. The first one added runs outermost.
func (s *Server) Use(mw ...Middleware) {
	s.middlewares = append(s.middlewares, mw...)
}

// ListenAndServe binds the configured port on all interfaces and serves
// until Shutdown.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.Port))
	if err != nil {
		return fmt.Errorf("listen on port %d: %w", s.cfg.Port, err)
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln. At most Workers connections are in
// flight; with one worker the next Accept waits until the previous
// connection is closed. Serve always returns a non-nil error.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	if s.closed.Load() {
		s.mu.Unlock()
		ln.Close()
		return ErrServerClosed
	}
	s.listener = ln
	s.mu.Unlock()

	s.Logger.Info("server listening",
		Field{"addr", ln.Addr().String()},
		Field{"root", s.resolver.Root()},
		Field{"workers", s.cfg.Workers},
	)

	handler := chain(HandlerFunc(s.serveRequest), s.middlewares...)

	var backoff time.Duration
	for {
		s.sem <- struct{}{}

		conn, err := ln.Accept()
		if err != nil {
			<-s.sem
			if s.closed.Load() {
				return ErrServerClosed
			}
			if isTemporary(err) {
				backoff = nextBackoff(backoff)
				s.Logger.Warn("accept failed, retrying",
					Field{"error", err},
					Field{"retry_in", backoff},
				)
				time.Sleep(backoff)
				continue
			}
			return fmt.Errorf("accept: %w", err)
		}
		backoff = 0

		s.wg.Add(1)
		go func() {
			defer func() {
				<-s.sem
				s.wg.Done()
			}()
			s.serveConn(conn, handler)
		}()
	}
}

func nextBackoff(d time.Duration) time.Duration {
	if d == 0 {
		return 5 * time.Millisecond
	}
	d *= 2
	if d > time.Second {
		d = time.Second
	}
	return d
}

func isTemporary(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return errors.Is(err, syscall.ECONNABORTED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EMFILE) ||
		errors.Is(err, syscall.ENFILE)
}

// Addr returns the listener address, or nil before Serve.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Shutdown stops accepting and waits for in-flight connections to finish
// or ctx to expire.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed.Store(true)
	var err error
	if s.listener != nil {
		err = s.listener.Close()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	if err != nil && !errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("close listener: %w", err)
	}
	return nil
}

// Stats returns a snapshot of the server metrics.
func (s *Server) Stats() MetricsSnapshot {
	return s.metrics.Snapshot()
}
