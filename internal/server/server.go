// Package server wires the controllers, hardware, storage and control
// surfaces of the reeflightd daemon together and runs them.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jmylchreest/reeflightd/internal/config"
	"github.com/jmylchreest/reeflightd/internal/discovery"
	"github.com/jmylchreest/reeflightd/internal/events"
	"github.com/jmylchreest/reeflightd/internal/http/handlers"
	"github.com/jmylchreest/reeflightd/internal/http/mw"
	"github.com/jmylchreest/reeflightd/internal/http/routes"
	"github.com/jmylchreest/reeflightd/internal/hw"
	"github.com/jmylchreest/reeflightd/internal/metrics"
	"github.com/jmylchreest/reeflightd/internal/power"
	"github.com/jmylchreest/reeflightd/internal/storage"
	"github.com/jmylchreest/reeflightd/internal/ticker"
	"github.com/jmylchreest/reeflightd/internal/ws"
	"github.com/jmylchreest/reeflightd/pkg/led"
	"github.com/jmylchreest/reeflightd/pkg/thermal"
)

// Server manages the reeflightd daemon: the control loops, settings
// persistence and the socket/HTTP APIs.
type Server struct {
	logger     *slog.Logger
	cfg        *config.Config
	version    handlers.VersionInfo
	board      *hw.Board
	socketPath string
	listener   net.Listener
	shutdown   chan struct{}
	wg         sync.WaitGroup
	rootCtx    context.Context
	rootCancel context.CancelFunc
	httpServer *http.Server
	httpAddr   net.Addr
	router     http.Handler
	eventBus   *events.Bus

	persister *storage.Persister
	rail      *power.Rail
	led       *led.Controller
	thermal   *thermal.Controller
	tasks     []*ticker.Task
	collector *metrics.Collector
	announcer *discovery.Announcer
	keys      *mw.KeySet
	unsub     []func()
}

// New creates a server. Stored settings are restored from store; anything
// missing or invalid falls back to the defaults.
func New(logger *slog.Logger, cfg *config.Config, board *hw.Board, store storage.Store, version handlers.VersionInfo) (*Server, error) {
	eventBus := events.NewBus()
	persister := storage.NewPersister(logger.With("component", "storage"), store)

	rail := power.NewRail(logger.With("component", "power"), true)
	rail.SetEventBus(eventBus)

	ledSettings := storage.Restore(logger, store, led.Namespace, led.DefaultSettings(cfg.LED.Channels))
	ledCtrl, err := led.NewController(logger.With("component", "led"), led.Config{
		Channels:       cfg.LED.Channels,
		DutyMax:        uint16(cfg.LED.DutyMax),
		Transition:     cfg.LED.Transition,
		PreviewTimeout: cfg.LED.PreviewTimeout,
		Location:       time.Local,
	}, board.Duties, persister, ledSettings)
	if err != nil {
		return nil, fmt.Errorf("failed to create LED controller: %w", err)
	}
	ledCtrl.SetEventBus(eventBus)

	// The LED output follows the power rail.
	rail.OnPowerOff(ledCtrl.Blank)
	rail.OnPowerOn(ledCtrl.Unblank)

	thermalSettings := storage.Restore(logger, store, thermal.Namespace, thermal.DefaultSettings())
	thermalCtrl, err := thermal.NewController(logger.With("component", "thermal"),
		board.Sensor, board.Fan, rail, persister, thermalSettings)
	if err != nil {
		return nil, fmt.Errorf("failed to create thermal controller: %w", err)
	}
	thermalCtrl.SetEventBus(eventBus)

	tasks := []*ticker.Task{
		{Name: "led", Period: cfg.LED.TickInterval, Fn: ledCtrl.Tick},
		{Name: "thermal", Period: cfg.Thermal.Period, Fn: thermalCtrl.Tick},
	}

	collector := metrics.NewCollector(metrics.Sources{
		LED:     ledCtrl.Status,
		Thermal: thermalCtrl.Status,
		Power:   rail.State,
		Tasks:   tasks,
	})

	rootCtx, rootCancel := context.WithCancel(context.Background())

	return &Server{
		logger:     logger,
		cfg:        cfg,
		version:    version,
		board:      board,
		socketPath: cfg.Server.UnixSocket,
		shutdown:   make(chan struct{}),
		rootCtx:    rootCtx,
		rootCancel: rootCancel,
		eventBus:   eventBus,
		persister:  persister,
		rail:       rail,
		led:        ledCtrl,
		thermal:    thermalCtrl,
		tasks:      tasks,
		collector:  collector,
		announcer:  discovery.NewAnnouncer(logger.With("component", "discovery")),
		keys:       mw.NewKeySet(cfg.API.Keys),
	}, nil
}

// LED returns the LED controller.
func (s *Server) LED() *led.Controller { return s.led }

// Thermal returns the thermal controller.
func (s *Server) Thermal() *thermal.Controller { return s.thermal }

// Rail returns the power rail.
func (s *Server) Rail() *power.Rail { return s.rail }

// Events returns the event bus.
func (s *Server) Events() *events.Bus { return s.eventBus }

// HTTPAddr returns the address the HTTP API listens on, or nil when it is
// disabled or not started.
func (s *Server) HTTPAddr() net.Addr { return s.httpAddr }

// Start begins the control loops and the socket and HTTP servers.
func (s *Server) Start() error {
	s.logger.Info("Starting reeflightd server", "version", s.version.Version)

	now := time.Now()
	s.led.Start(now)
	s.thermal.Start(now)

	s.unsub = append(s.unsub, s.collector.Subscribe(s.eventBus))

	s.wg.Go(func() {
		s.persister.Run(s.rootCtx)
	})
	for _, task := range s.tasks {
		s.wg.Go(func() {
			task.Run(s.rootCtx, s.logger)
		})
	}

	// Ensure socket directory exists
	sockDir := filepath.Dir(s.socketPath)
	if err := os.MkdirAll(sockDir, 0755); err != nil {
		return fmt.Errorf("failed to create socket directory %s: %w", sockDir, err)
	}

	// Remove existing socket file if it exists
	if _, err := os.Stat(s.socketPath); err == nil {
		if err := os.Remove(s.socketPath); err != nil {
			return fmt.Errorf("failed to remove existing socket file %s: %w", s.socketPath, err)
		}
	}

	var err error
	s.listener, err = net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to listen on socket %s: %w", s.socketPath, err)
	}
	s.logger.Info("Listening on Unix socket", "path", s.socketPath)

	s.wg.Add(1)
	go s.acceptConnections()

	if s.cfg.API.ListenAddress == "" {
		return nil
	}

	listener, err := net.Listen("tcp", s.cfg.API.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.API.ListenAddress, err)
	}
	s.httpAddr = listener.Addr()
	s.logger.Info("Starting HTTP API server", "address", s.httpAddr.String(), "auth", s.keys.Enabled())

	s.httpServer = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.wg.Go(func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("panic in HTTP server goroutine", "recover", r)
			}
		}()
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP server failed", "error", err)
		}
		s.logger.Info("HTTP server stopped")
	})

	if s.cfg.Discovery.Enabled {
		err := s.announcer.Start(s.cfg.Discovery.Instance, listener.Addr().String(), discovery.Info{
			Version:  s.version.Version,
			Channels: s.led.ChannelCount(),
			Auth:     s.keys.Enabled(),
		})
		if err != nil {
			s.logger.Warn("mDNS announcement failed, continuing without it", "error", err)
		}
	}

	return nil
}

// Handler returns the HTTP handler of the API, building it on first use.
// The WebSocket hub it serves runs until the server stops.
func (s *Server) Handler() http.Handler {
	if s.router != nil {
		return s.router
	}

	// Rate limiting runs at Chi level (before auth) to protect against brute-force.
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(mw.RequestLogging(s.logger))
	router.Use(mw.RateLimitByIP(s.logger, s.cfg.API.RateLimit))

	api := humachi.New(router, routes.NewHumaConfig(s.version.Version, ""))

	// Public routes (health, OpenAPI document, docs) have no Security set and
	// pass through unauthenticated.
	api.UseMiddleware(mw.HumaAuth(api, s.logger, s.keys))

	routes.Register(api, &routes.Handlers{
		HealthCheck:  handlers.HealthCheck,
		VersionCheck: handlers.VersionCheck(s.version),
		LED:          &handlers.LEDHandler{LED: s.led},
		Thermal:      &handlers.ThermalHandler{Thermal: s.thermal},
		Power:        &handlers.PowerHandler{Rail: s.rail},
		Logging:      &handlers.LoggingHandler{Logger: s.logger},
	})

	rawAuth := mw.RawAPIKeyAuth(s.logger, s.keys)

	wsHub := ws.NewHub(s.logger, s.eventBus, ws.WithSnapshot(func() any { return s.snapshot() }))
	s.wg.Go(func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("panic in WebSocket hub", "recover", r)
			}
		}()
		wsHub.Run(s.rootCtx)
	})
	router.With(rawAuth).Get("/api/v1/ws", ws.Handler(wsHub, s.logger))

	registry := metrics.NewRegistry(s.collector)
	router.With(rawAuth).Handle("/metrics", metrics.Handler(registry))

	s.router = router
	return router
}

// Snapshot is the combined state of every controller.
type Snapshot struct {
	LED     handlers.LEDStatusResponse `json:"led"`
	Thermal handlers.ThermalResponse   `json:"thermal"`
	Power   handlers.PowerResponse     `json:"power"`
}

func (s *Server) snapshot() Snapshot {
	return Snapshot{
		LED:     handlers.LEDStatusFromController(s.led.Status(), s.led.NightlightRemaining()),
		Thermal: handlers.ThermalFromController(s.thermal.Settings(), s.thermal.Status()),
		Power:   handlers.PowerFromRail(s.rail.State()),
	}
}

// Stop gracefully shuts down the server and flushes pending settings.
func (s *Server) Stop() {
	s.logger.Info("Shutting down reeflightd server")
	s.rootCancel()
	close(s.shutdown)

	s.announcer.Stop()

	if s.listener != nil {
		s.logger.Info("Closing Unix socket listener")
		s.listener.Close()
	}

	if s.httpServer != nil {
		s.logger.Info("Shutting down HTTP server")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("HTTP server shutdown failed", "error", err)
		}
	}

	s.logger.Info("Waiting for services to stop...")
	s.wg.Wait()

	for _, unsub := range s.unsub {
		unsub()
	}
	if failed := s.persister.Flush(); failed > 0 {
		s.logger.Warn("Some settings could not be saved on shutdown", "failed", failed)
	}
	if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("Failed to remove socket file", "path", s.socketPath, "error", err)
	}
	s.logger.Info("Reeflightd server shut down gracefully")
}
