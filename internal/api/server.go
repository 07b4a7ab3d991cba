package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"podcaster/internal/analysis"
	"podcaster/internal/config"
	"podcaster/internal/logging"
	"podcaster/internal/queue"
	"podcaster/internal/services"
	"podcaster/internal/workflow"
)

// StatusProvider reports workflow diagnostics for the health endpoint.
type StatusProvider interface {
	Status(ctx context.Context) workflow.StatusSummary
}

// Server is the HTTP control surface of the daemon.
type Server struct {
	cfg    *config.Config
	queue  *QueueService
	status StatusProvider
	logger *slog.Logger
	engine *gin.Engine

	listener net.Listener
	server   *http.Server
}

// NewServer builds the router. status may be nil when no workflow runs in
// this process.
func NewServer(cfg *config.Config, svc *QueueService, status StatusProvider, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "api")
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{cfg: cfg, queue: svc, status: status, logger: logger}
	engine := gin.New()
	engine.Use(gin.Recovery(), s.requestLogger())

	api := engine.Group("/api")
	{
		api.GET("/health", s.handleHealth)
		api.GET("/podcasts", s.handleList)
		api.POST("/podcasts", s.handleCreate)
		api.GET("/podcasts/:id", s.handleGet)
		api.POST("/podcasts/:id/retry", s.handleRetry)
		api.DELETE("/podcasts/:id", s.handleRemove)
	}
	s.engine = engine
	return s
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start listens on api.host:api.port and serves until ctx is cancelled or
// Stop is called.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.cfg.APIAddress())
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener
	s.server = &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("api server listening",
		logging.String("address", listener.Addr().String()),
		logging.String(logging.FieldEventType, "api_started"),
	)
	return nil
}

// Addr returns the bound address once started.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down.
func (s *Server) Stop() {
	if s.server == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()
		s.logger.Debug("api request",
			logging.String("method", c.Request.Method),
			logging.String("path", c.FullPath()),
			logging.Int("status", c.Writer.Status()),
			logging.Duration("elapsed", time.Since(started)),
		)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	resp := HealthResponse{Status: "ok", Database: "ok"}
	code := http.StatusOK
	if err := s.queue.Ping(c.Request.Context()); err != nil {
		resp.Status = "degraded"
		resp.Database = err.Error()
		code = http.StatusServiceUnavailable
	}
	if s.status != nil {
		wf := FromStatusSummary(s.status.Status(c.Request.Context()))
		resp.Workflow = &wf
	}
	c.JSON(code, resp)
}

func (s *Server) handleList(c *gin.Context) {
	var statuses []queue.Status
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			status, ok := queue.ParseStatus(part)
			if !ok {
				s.writeError(c, http.StatusBadRequest, fmt.Sprintf("unknown status %q", strings.TrimSpace(part)))
				return
			}
			statuses = append(statuses, status)
		}
	}
	items, err := s.queue.List(c.Request.Context(), statuses...)
	if err != nil {
		s.writeError(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, QueueListResponse{Items: items})
}

func (s *Server) handleGet(c *gin.Context) {
	id, ok := s.parseID(c)
	if !ok {
		return
	}
	item, err := s.queue.Describe(c.Request.Context(), id)
	if err != nil {
		s.writeQueueError(c, err)
		return
	}
	c.JSON(http.StatusOK, QueueItemResponse{Item: item})
}

func (s *Server) handleCreate(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := analysis.ValidateText(s.cfg.Text, req.Text); err != nil {
		s.writeError(c, http.StatusBadRequest, services.Details(err).Message)
		return
	}
	item, err := s.queue.Create(c.Request.Context(), req.Text)
	switch {
	case errors.Is(err, queue.ErrDuplicate):
		c.JSON(http.StatusConflict, QueueItemResponse{Item: item})
		return
	case err != nil:
		s.writeError(c, http.StatusInternalServerError, err.Error())
		return
	}
	s.logger.Info("podcast queued via api",
		logging.Int64(logging.FieldItemID, item.ID),
		logging.String(logging.FieldEventType, "item_queued"),
	)
	c.JSON(http.StatusCreated, QueueItemResponse{Item: item})
}

func (s *Server) handleRetry(c *gin.Context) {
	id, ok := s.parseID(c)
	if !ok {
		return
	}
	item, err := s.queue.Retry(c.Request.Context(), id)
	if err != nil {
		s.writeQueueError(c, err)
		return
	}
	c.JSON(http.StatusOK, QueueItemResponse{Item: item})
}

func (s *Server) handleRemove(c *gin.Context) {
	id, ok := s.parseID(c)
	if !ok {
		return
	}
	if err := s.queue.Remove(c.Request.Context(), id); err != nil {
		s.writeQueueError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		s.writeError(c, http.StatusBadRequest, "invalid podcast id")
		return 0, false
	}
	return id, true
}

func (s *Server) writeQueueError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		s.writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrNotFailed):
		s.writeError(c, http.StatusConflict, err.Error())
	default:
		s.writeError(c, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) writeError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, ErrorResponse{Error: message})
}
