package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

const shutdownTimeout = 5 * time.Second

// Server wraps http.Server with address validation and graceful shutdown.
type Server struct {
	server *http.Server
	logger *slog.Logger
}

// New creates a server for addr. WriteTimeout leaves room for a cold lookup
// running every strategy to its timeout.
func New(addr string, handler http.Handler, logger *slog.Logger) (*Server, error) {
	if err := validateHostPort(addr); err != nil {
		return nil, err
	}

	return &Server{
		server: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		logger: logger,
	}, nil
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("Server is running", slog.String("addr", s.server.Addr))
		errCh <- s.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("Shutting down gracefully...")
		return s.Shutdown(context.Background())
	}
}

// Start begins listening for HTTP requests.
// Returns an error unless the server is shut down cleanly.
func (s *Server) Start() error {
	err := s.server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// Shutdown drains in-flight requests for at most five seconds.
func (s *Server) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}

func validateHostPort(value interface{}) error {
	addr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return validation.NewError("validation_invalid_hostport", "must be in host:port format")
	}

	if port == "" {
		return validation.NewError("validation_invalid_port", "port cant be empty")
	}

	if err := is.Port.Validate(port); err != nil {
		return validation.NewError("validation_invalid_port", "invalid port")
	}

	if host != "" {
		if err := is.Host.Validate(host); err != nil {
			return validation.NewError("validation_invalid_host", "invalid host")
		}
	}

	return nil
}
