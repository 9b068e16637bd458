// Package web serves the presence API and the live status feed.
package web

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"golang.org/x/time/rate"

	"github.com/teslashibe/facelight/internal/log"
	"github.com/teslashibe/facelight/pkg/hub"
	"github.com/teslashibe/facelight/pkg/presence"
)

const shutdownTimeout = 5 * time.Second

// Config holds HTTP server settings.
type Config struct {
	Addr string `json:"addr" validate:"required"`

	// StaticDir, when set, is served under /dashboard.
	StaticDir string `json:"static_dir"`

	// CheckRate limits manual checks per client IP, in checks per second.
	// Zero disables the limit.
	CheckRate float64 `json:"check_rate" validate:"gte=0"`

	// CheckBurst is how many manual checks a client may make back to back.
	CheckBurst int `json:"check_burst" validate:"gte=1"`
}

// DefaultConfig returns the default server settings.
func DefaultConfig() Config {
	return Config{
		Addr:       ":8000",
		CheckRate:  0.5,
		CheckBurst: 2,
	}
}

// MonitorControl turns background monitoring on and off.
type MonitorControl interface {
	SetEnabled(enabled bool)
}

// Server is the presence HTTP server
type Server struct {
	app      *fiber.App
	config   Config
	logger   *slog.Logger
	validate *validator.Validate

	state   *presence.State
	checker presence.PresenceChecker
	monitor MonitorControl
	limiter *rateLimiter

	// Hub for websocket status broadcast
	statusHub *hub.Hub

	// feedMu orders a new client's first snapshot with state broadcasts.
	feedMu sync.Mutex
}

// NewServer creates the server and subscribes its status hub to state.
func NewServer(cfg Config, state *presence.State, checker presence.PresenceChecker, monitor MonitorControl) *Server {
	s := &Server{
		config:    cfg,
		logger:    log.With("component", "web"),
		validate:  validator.New(),
		state:     state,
		checker:   checker,
		monitor:   monitor,
		statusHub: hub.New("status"),
	}
	if cfg.CheckRate > 0 {
		s.limiter = newRateLimiter(rate.Limit(cfg.CheckRate), cfg.CheckBurst)
	}

	app := fiber.New(fiber.Config{
		AppName:               "facelight",
		DisableStartupMessage: true,
		JSONEncoder:           jsoniter.Marshal,
		JSONDecoder:           jsoniter.Unmarshal,
	})

	app.Use(cors.New())
	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))

	if cfg.StaticDir != "" {
		app.Static("/dashboard", cfg.StaticDir)
	}

	app.Get("/", s.handleRoot)
	app.Get("/check-faces", s.limitChecks, s.handleCheckFaces)

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Post("/monitoring", s.handleMonitoring)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/status", websocket.New(s.handleStatusWS))

	state.Observe(func(snap presence.Snapshot) {
		s.feedMu.Lock()
		defer s.feedMu.Unlock()
		if err := s.statusHub.BroadcastJSON(snap); err != nil {
			s.logger.Warn("status broadcast failed", "error", err)
		}
	})

	s.app = app
	return s
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Hub returns the status hub.
func (s *Server) Hub() *hub.Hub {
	return s.statusHub
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	go s.statusHub.Run(ctx)

	go func() {
		<-ctx.Done()
		if err := s.app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			s.logger.Warn("shutdown", "error", err)
		}
	}()

	s.logger.Info("🌐 API listening", "addr", s.config.Addr)
	return s.app.Listen(s.config.Addr)
}
