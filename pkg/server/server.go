// Package server provides the raw TCP listener shared by the static
// engine and the reverse proxy. It owns the accept loop, per-connection
// deadlines, and message framing; what happens to a framed message is
// delegated to a ConnHandler.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ConnHandler consumes one accepted connection. Implementations are
// responsible for closing the connection when they return.
type ConnHandler interface {
	HandleConn(ctx context.Context, conn net.Conn)
}

// ConnHandlerFunc adapts a function to the ConnHandler interface.
type ConnHandlerFunc func(ctx context.Context, conn net.Conn)

// HandleConn calls f(ctx, conn).
func (f ConnHandlerFunc) HandleConn(ctx context.Context, conn net.Conn) {
	f(ctx, conn)
}

// Server accepts TCP connections on a single address and hands each one
// to its handler on a dedicated goroutine.
type Server struct {
	addr         string
	handler      ConnHandler
	readTimeout  time.Duration
	writeTimeout time.Duration
	logger       *slog.Logger

	mu sync.Mutex
	ln net.Listener
	wg sync.WaitGroup
}

// New creates a Server for addr. Zero timeouts disable the corresponding
// deadline.
func New(addr string, handler ConnHandler, readTimeout, writeTimeout time.Duration, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		addr:         addr,
		handler:      handler,
		readTimeout:  readTimeout,
		writeTimeout: writeTimeout,
		logger:       logger,
	}
}

// Listen binds the server's address without starting the accept loop.
// Splitting this from Serve lets callers learn the bound port before any
// connection is handled.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()
	return nil
}

// Addr reports the bound listener address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Serve runs the accept loop until ctx is cancelled, then closes the
// listener and waits for in-flight connections to finish.
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	ln := s.ln
	s.mu.Unlock()
	if ln == nil {
		return errors.New("server is not listening")
	}

	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			ln.Close()
		case <-stop:
		}
	}()

	s.logger.Info("server listening", slog.String("address", ln.Addr().String()))

	var acceptErr error
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				break
			}
			s.logger.Warn("accept failed", slog.String("error", err.Error()))
			continue
		}
		s.wg.Add(1)
		go s.handleConn(ctx, conn)
	}
	close(stop)

	s.wg.Wait()
	s.logger.Info("server stopped", slog.String("address", ln.Addr().String()))
	return acceptErr
}

// Start is Listen followed by Serve.
func (s *Server) Start(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve(ctx)
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer s.wg.Done()

	connID := uuid.NewString()
	logger := s.logger.With(
		slog.String("connection_id", connID),
		slog.String("remote", conn.RemoteAddr().String()),
	)

	// A panic in one handler must never take down the accept loop.
	defer func() {
		if r := recover(); r != nil {
			logger.Error("connection handler panicked", slog.Any("panic", r))
			conn.Close()
		}
	}()

	if s.readTimeout > 0 {
		conn.SetReadDeadline(time.Now().Add(s.readTimeout))
	}
	if s.writeTimeout > 0 {
		conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	}

	logger.Debug("connection accepted")
	s.handler.HandleConn(ctx, conn)
	logger.Debug("connection finished")
}
