package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"
)

// ServerConfig holds configuration for the HTTP server
type ServerConfig struct {
	Host              string
	Port              int
	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
}

// DefaultServerConfig returns the configuration used when nothing is overridden
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:              "",
		Port:              8080,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      0, // Room event streams stay open; keepalive is 30s
		IdleTimeout:       2 * time.Minute,
		ShutdownTimeout:   30 * time.Second,
	}
}

// ServerConfigFromEnv applies HOST and PORT over the defaults
func ServerConfigFromEnv() (ServerConfig, error) {
	config := DefaultServerConfig()
	if host, ok := os.LookupEnv("HOST"); ok {
		config.Host = host
	}
	if port := os.Getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil || p < 0 || p > 65535 {
			return config, fmt.Errorf("PORT must be a port number, got %q", port)
		}
		config.Port = p
	}
	return config, nil
}

// streamGrace is how long shutdown lets ordinary requests finish before
// request contexts are cancelled to end open event streams
const streamGrace = time.Second

// Server serves the API and web interface. Shutting it down ends open room
// event streams so the drain does not wait out the shutdown timeout.
type Server struct {
	server *http.Server
	logger *slog.Logger
	config ServerConfig
	end    context.CancelFunc // Cancels every request context
}

// NewServer creates a new Server
func NewServer(handler http.Handler, config ServerConfig, logger *slog.Logger) *Server {
	streams, end := context.WithCancel(context.Background())

	return &Server{
		server: &http.Server{
			Addr:              net.JoinHostPort(config.Host, strconv.Itoa(config.Port)),
			Handler:           handler,
			ReadTimeout:       config.ReadTimeout,
			ReadHeaderTimeout: config.ReadHeaderTimeout,
			WriteTimeout:      config.WriteTimeout,
			IdleTimeout:       config.IdleTimeout,
			BaseContext:       func(net.Listener) context.Context { return streams },
		},
		logger: logger,
		config: config,
		end:    end,
	}
}

// Start listens on the configured address and serves until shutdown
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.server.Addr, err)
	}
	return s.Serve(ln)
}

// Serve handles requests from an existing listener until shutdown
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("starting HTTP server", slog.String("addr", ln.Addr().String()))

	if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones up to the
// shutdown timeout. Requests still running after streamGrace, which
// includes every event stream, have their context cancelled.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	drained := make(chan struct{})
	defer close(drained)
	go func() {
		select {
		case <-time.After(streamGrace):
			s.end()
		case <-drained:
		}
	}()
	defer s.end()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Addr returns the configured listen address
func (s *Server) Addr() string {
	return s.server.Addr
}
