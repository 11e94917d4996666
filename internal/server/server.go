package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/bootmaster/internal/discovery"
	"github.com/muurk/bootmaster/internal/logging"
	"github.com/muurk/bootmaster/internal/version"
	"github.com/muurk/bootmaster/internal/workspace"
)

const (
	// DefaultMaxWorkspaces bounds the sessions one console keeps open
	DefaultMaxWorkspaces = 64

	shutdownTimeout = 10 * time.Second
)

// Config holds the server configuration
type Config struct {
	Host     string
	Port     int
	LogLevel string

	// Advertise publishes the console over mDNS while it runs
	Advertise bool

	// Instance is the mDNS instance name (default: "BootMaster on <hostname>")
	Instance string

	// MaxWorkspaces limits concurrent browser sessions (default: 64)
	MaxWorkspaces int

	// Workspace configures every session the console opens
	Workspace workspace.Options
}

// Server serves the BootMaster web console: a JSON API over workspaces and
// a WebSocket event stream per workspace.
type Server struct {
	config     *Config
	manager    *workspace.Manager
	httpServer *http.Server
	listener   net.Listener
	advertiser *discovery.Advertiser

	// done is closed on Shutdown so hijacked event streams end too
	done     chan struct{}
	doneOnce sync.Once
}

// New creates a new Server instance
func New(config *Config) (*Server, error) {
	if config.LogLevel != "" {
		if err := logging.Initialize(config.LogLevel); err != nil {
			return nil, fmt.Errorf("failed to initialize logging: %w", err)
		}
	}
	if config.Port < 0 || config.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d", config.Port)
	}
	if config.MaxWorkspaces <= 0 {
		config.MaxWorkspaces = DefaultMaxWorkspaces
	}

	s := &Server{
		config:  config,
		manager: workspace.NewManager(config.Workspace, config.MaxWorkspaces),
		done:    make(chan struct{}),
	}
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.httpServer.RegisterOnShutdown(s.closeStreams)
	return s, nil
}

// Manager returns the workspaces served by s
func (s *Server) Manager() *workspace.Manager {
	return s.manager
}

// Addr returns the listening address, or "" before Listen.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Listen binds the configured address without serving.
func (s *Server) Listen() error {
	addr := net.JoinHostPort(s.config.Host, fmt.Sprintf("%d", s.config.Port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = listener
	return nil
}

// Start starts the server and blocks until a shutdown signal or a serve error
func (s *Server) Start() error {
	if s.listener == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}

	logging.Info("Starting BootMaster web console",
		zap.String("addr", s.Addr()),
		zap.String("version", version.Version),
		zap.Int("max_workspaces", s.config.MaxWorkspaces),
	)

	if s.config.Advertise {
		s.advertise()
	}

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.httpServer.Serve(s.listener)
	}()

	select {
	case <-sigChan:
		logging.Info("Shutdown signal received, stopping server...")
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.Shutdown(ctx)
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) advertise() {
	instance := s.config.Instance
	if instance == "" {
		host, err := os.Hostname()
		if err != nil || host == "" {
			host = "localhost"
		}
		instance = "BootMaster on " + host
	}

	port := s.listener.Addr().(*net.TCPAddr).Port
	txt := discovery.AdvertiseTXT(version.Version, string(s.config.Workspace.Lang))
	adv, err := discovery.Advertise(instance, port, txt)
	if err != nil {
		// the console still works without mDNS
		logging.Warn("mDNS advertisement failed", zap.Error(err))
		return
	}
	s.advertiser = adv
}

func (s *Server) closeStreams() {
	s.doneOnce.Do(func() { close(s.done) })
}

// Shutdown stops advertising, closes the listener and every workspace.
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down server...")

	s.advertiser.Shutdown()
	s.closeStreams()

	err := s.httpServer.Shutdown(ctx)
	if err != nil {
		logging.Warn("Shutdown timeout, forcing close", zap.Error(err))
		_ = s.httpServer.Close()
	}

	open := s.manager.Len()
	s.manager.CloseAll()
	logging.Info("All workspaces closed", zap.Int("count", open))

	logging.Sync()

	if errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}
