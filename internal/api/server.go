package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/amterp/postdeck/internal/session"
	"github.com/klauspost/compress/gzhttp"
	"github.com/rs/zerolog"
)

// DefaultSweepInterval is how often idle sessions are collected.
const DefaultSweepInterval = time.Minute

// ServerConfig configures a Server.
type ServerConfig struct {
	Port          int
	SeedPath      string // watched when WatchSeed is set
	WatchSeed     bool
	SweepInterval time.Duration
}

// Server wraps the HTTP server, the seed watcher and the session sweeper.
type Server struct {
	httpServer *http.Server
	manager    *session.Manager
	watcher    *FileWatcher
	wsHub      *WebSocketHub
	logger     zerolog.Logger
	sweepEvery time.Duration
	stopSweep  chan struct{}
}

// NewServer creates a server around handler.
func NewServer(handler *Handler, cfg ServerConfig, logger zerolog.Logger) *Server {
	routes := http.NewServeMux()
	handler.RegisterRoutes(routes)

	// The websocket route stays outside gzip, which can't hijack connections.
	root := http.NewServeMux()
	root.Handle("/", gzhttp.GzipHandler(routes))
	handler.RegisterWebSocket(root)

	wrapped := Logging(logger, SecureHeaders(Cors(root)))

	s := &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           wrapped,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
		},
		manager:    handler.manager,
		wsHub:      handler.hub,
		logger:     logger,
		sweepEvery: cfg.SweepInterval,
		stopSweep:  make(chan struct{}),
	}
	if s.sweepEvery <= 0 {
		s.sweepEvery = DefaultSweepInterval
	}

	if cfg.WatchSeed && cfg.SeedPath != "" {
		watcher, err := NewFileWatcher(cfg.SeedPath, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to create seed watcher")
		} else {
			watcher.Subscribe(NewSeedReloader(cfg.SeedPath, handler.manager, logger))
			if handler.hub != nil {
				watcher.Subscribe(handler.hub)
			}
			s.watcher = watcher
		}
	}

	return s
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins listening for HTTP requests. Blocks until shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln. Blocks until shutdown; a clean shutdown
// returns nil.
func (s *Server) Serve(ln net.Listener) error {
	if s.watcher != nil {
		if err := s.watcher.Start(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to start seed watcher")
		} else {
			s.logger.Info().Str("path", s.watcher.Path()).Msg("watching seed file")
		}
	}

	go s.sweepLoop()

	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) sweepLoop() {
	ticker := time.NewTicker(s.sweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.manager.Sweep()
		case <-s.stopSweep:
			return
		}
	}
}

// Shutdown gracefully stops the server and closes every session.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.watcher != nil {
		if err := s.watcher.Stop(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to stop seed watcher")
		}
	}

	select {
	case <-s.stopSweep:
	default:
		close(s.stopSweep)
	}

	err := s.httpServer.Shutdown(ctx)
	if s.wsHub != nil {
		s.wsHub.CloseAll()
	}
	s.manager.Close()
	return err
}

// Addr returns the address the server is listening on.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}
