package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"doodleit/internal/config"
	"doodleit/internal/game"
	"doodleit/internal/logging"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var errNotMember = errors.New("connection is not a member of that room")

// PingFunc reports whether the durable store is reachable.
type PingFunc func(ctx context.Context) error

type Server struct {
	engine   *game.Engine
	hub      *wsHub
	cfg      config.Config
	logger   *zap.SugaredLogger
	validate *validator.Validate
	upgrader websocket.Upgrader
	ping     PingFunc
	timersMu sync.Mutex
	timers   map[string]*pendingAdvance
}

// New wires the coordinator. ping may be nil when no durable store is configured.
func New(engine *game.Engine, cfg config.Config, logger *zap.SugaredLogger, ping PingFunc) *Server {
	if logger == nil {
		logger = logging.DefaultLogger()
	}
	s := &Server{
		engine:   engine,
		hub:      newWSHub(),
		cfg:      cfg,
		logger:   logger,
		validate: newValidator(),
		ping:     ping,
		timers:   make(map[string]*pendingAdvance),
	}
	s.upgrader = s.newUpgrader()
	return s
}

func (s *Server) Handler() http.Handler {
	if !s.cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())
	router.Use(cors.New(s.corsConfig()))
	router.GET("/", s.handleHealth)
	router.GET("/db-status", s.handleDBStatus)
	router.GET("/ws", s.handleWebsocket)
	return router
}

// Close drops every live connection and pending timer. Hijacked websocket
// connections are not covered by http.Server.Shutdown.
func (s *Server) Close() {
	s.stopTimers()
	s.hub.CloseAll()
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "DoodleIt Server is running!",
		"timestamp": time.Now().UTC(),
	})
}

func (s *Server) handleDBStatus(c *gin.Context) {
	ctx := c.Request.Context()
	connected := true
	if s.ping != nil {
		if err := s.ping(ctx); err != nil {
			s.logger.Warnw("store ping failed", "error", err)
			connected = false
		}
	}
	total, err := s.engine.Count(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	rooms, err := s.engine.Summaries(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"connected":  connected,
		"backend":    s.cfg.StoreBackend,
		"totalRooms": total,
		"rooms":      rooms,
	})
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debugw("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		)
	}
}

func (s *Server) originPolicy() (bool, map[string]struct{}) {
	origins := make(map[string]struct{}, len(s.cfg.AllowedOrigins))
	for _, origin := range s.cfg.AllowedOrigins {
		origin = strings.TrimSpace(origin)
		if origin == "*" {
			return true, nil
		}
		if origin != "" {
			origins[origin] = struct{}{}
		}
	}
	return len(origins) == 0, origins
}

func (s *Server) corsConfig() cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "OPTIONS"},
		AllowHeaders: []string{
			"Content-Type",
			"Upgrade",
			"Connection",
			"Sec-WebSocket-Key",
			"Sec-WebSocket-Version",
			"Sec-WebSocket-Extensions",
			"Sec-WebSocket-Protocol",
		},
		MaxAge: 12 * time.Hour,
	}
	allowAll, origins := s.originPolicy()
	if allowAll {
		cfg.AllowAllOrigins = true
		return cfg
	}
	for origin := range origins {
		cfg.AllowOrigins = append(cfg.AllowOrigins, origin)
	}
	return cfg
}
