// Package api provides the HTTP REST API for the PeluPrice backend.
//
// It exposes account management, device registration/activation, and
// the device heartbeat endpoint to hardware and client apps.
//
// The server follows the same lifecycle pattern as other infrastructure
// components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/PeluPrice/PeluPrice-MVP/internal/auth"
	"github.com/PeluPrice/PeluPrice-MVP/internal/device"
	"github.com/PeluPrice/PeluPrice-MVP/internal/infrastructure/config"
	"github.com/PeluPrice/PeluPrice-MVP/internal/infrastructure/logging"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight
// requests to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// CommandPublisher is the slice of the MQTT client the API needs for
// device commands. Nil means the message bus is unavailable and
// triggers fail with 503.
type CommandPublisher interface {
	PublishJSON(topic string, payload []byte) error
	IsConnected() bool
}

// MetricsRecorder receives heartbeat gauge fields for history.
// Optional; nil disables recording.
type MetricsRecorder interface {
	WriteHeartbeat(deviceID string, batteryLevel, signalStrength *int)
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.ServerConfig
	Logger   *logging.Logger
	Devices  *device.Manager
	Auth     *auth.Service
	Commands CommandPublisher // optional
	Metrics  MetricsRecorder  // optional
	Version  string
}

// Server is the HTTP API server for the PeluPrice backend.
type Server struct {
	cfg      config.ServerConfig
	logger   *logging.Logger
	devices  *device.Manager
	auth     *auth.Service
	commands CommandPublisher
	metrics  MetricsRecorder
	version  string
	server   *http.Server
}

// New creates a new API server with the given dependencies.
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Devices == nil {
		return nil, fmt.Errorf("device manager is required")
	}
	if deps.Auth == nil {
		return nil, fmt.Errorf("auth service is required")
	}
	// Commands and Metrics are optional — device lifecycle works
	// without the message bus or metric history.

	return &Server{
		cfg:      deps.Config,
		logger:   deps.Logger.With("component", "api"),
		devices:  deps.Devices,
		auth:     deps.Auth,
		commands: deps.Commands,
		metrics:  deps.Metrics,
		version:  deps.Version,
	}, nil
}

// Start begins listening for HTTP connections in a background
// goroutine. The server is stopped with Close().
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.buildRouter(),
		ReadTimeout:  time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout: time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:  time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		s.logger.Info("http server listening", "addr", addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server failed", "error", err)
		}
	}()

	return nil
}

// Close shuts the server down gracefully, waiting for in-flight
// requests up to gracefulShutdownTimeout.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	return nil
}
