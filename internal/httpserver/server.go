package httpserver

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/streambeat/streambeat/internal/model"
)

// Server provides the read-only HTTP API over the telemetry state.
type Server struct {
	addr      string
	api       model.TelemetryAPI
	server    *http.Server
	ctx       context.Context
	cancel    context.CancelFunc
	startTime time.Time
}

// NewServer creates a new HTTP API server.
func NewServer(addr string, api model.TelemetryAPI) *Server {
	if addr == "" {
		addr = "0.0.0.0:3100"
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		addr:   addr,
		api:    api,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	s.registerRoutes(r)

	s.server = &http.Server{
		Handler:           r,
		BaseContext:       func(_ net.Listener) context.Context { return s.ctx },
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}

	s.startTime = time.Now()

	go s.server.Serve(listener)
	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop() error {
	s.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *Server) registerRoutes(r *gin.Engine) {
	r.GET("/api/health", s.handleHealth)
	r.GET("/api/logs", s.handleConnectionLog)
	r.DELETE("/api/logs", s.handleClearConnectionLog)
	r.GET("/api/performance", s.handlePerformance)
	r.GET("/api/performance/logs", s.handlePerformanceLog)
}

func (s *Server) handleHealth(c *gin.Context) {
	connLog := s.api.ConnectionLog()
	perfLog := s.api.PerformanceLog()

	c.JSON(http.StatusOK, gin.H{
		"status":             "ok",
		"uptime":             time.Since(s.startTime).String(),
		"connection_events":  connLog.Count,
		"performance_events": perfLog.Count,
	})
}

func (s *Server) handleConnectionLog(c *gin.Context) {
	c.JSON(http.StatusOK, s.api.ConnectionLog())
}

func (s *Server) handleClearConnectionLog(c *gin.Context) {
	cleared := s.api.ClearConnectionLog()
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"cleared": cleared,
	})
}

func (s *Server) handlePerformance(c *gin.Context) {
	c.JSON(http.StatusOK, s.api.PerformanceOverview())
}

func (s *Server) handlePerformanceLog(c *gin.Context) {
	c.JSON(http.StatusOK, s.api.PerformanceLog())
}
