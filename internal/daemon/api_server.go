package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"reelforge/internal/api"
	"reelforge/internal/jobs"
	"reelforge/internal/logging"
	"reelforge/internal/services"
)

const (
	requestIDHeader  = "X-Request-ID"
	defaultListLimit = 50
	maxListLimit     = 500
)

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon
	engine *gin.Engine

	mu       sync.Mutex
	listener net.Listener
	server   *http.Server
}

func newAPIServer(bind, token string, d *Daemon, logger *slog.Logger) *apiServer {
	gin.SetMode(gin.ReleaseMode)
	srv := &apiServer{
		bind:   strings.TrimSpace(bind),
		logger: logging.NewComponentLogger(logger, "api"),
		daemon: d,
	}

	engine := gin.New()
	engine.Use(gin.CustomRecovery(srv.recover), srv.requestContext())

	routes := engine.Group("/api", authMiddleware(token))
	routes.POST("/jobs", srv.handleSubmit)
	routes.GET("/jobs", srv.handleList)
	routes.GET("/jobs/:id", srv.handleJob)
	routes.GET("/status", srv.handleStatus)
	routes.POST("/script", srv.handleScript)
	routes.GET("/health", srv.handleHealth)
	engine.NoRoute(func(c *gin.Context) {
		srv.writeError(c, http.StatusNotFound, "not found")
	})

	srv.engine = engine
	return srv
}

func (s *apiServer) handler() http.Handler {
	return s.engine
}

func (s *apiServer) start(ctx context.Context) error {
	if s.bind == "" {
		return errors.New("api bind address is empty")
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	server := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	s.mu.Lock()
	s.listener = listener
	s.server = server
	s.mu.Unlock()

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	s.mu.Lock()
	server := s.server
	s.server = nil
	s.listener = nil
	s.mu.Unlock()
	if server == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("api server shutdown incomplete", logging.Error(err))
	}
}

func (s *apiServer) address() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// requestContext tags each request with a request id and logs its outcome.
func (s *apiServer) requestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Header(requestIDHeader, rid)
		c.Request = c.Request.WithContext(services.WithRequestID(c.Request.Context(), rid))
		started := time.Now()

		c.Next()

		status := c.Writer.Status()
		attrs := []logging.Attr{
			logging.String(logging.FieldCorrelationID, rid),
			logging.String("method", c.Request.Method),
			logging.String("path", c.FullPath()),
			logging.Int("status", status),
			logging.Duration("elapsed", time.Since(started)),
		}
		if status >= http.StatusInternalServerError {
			s.logger.Warn("api request failed", logging.Args(attrs...)...)
			return
		}
		s.logger.Debug("api request", logging.Args(attrs...)...)
	}
}

func (s *apiServer) recover(c *gin.Context, recovered any) {
	s.logger.Error("api handler panic", logging.Any("panic", recovered), logging.String("path", c.Request.URL.Path))
	s.writeError(c, http.StatusInternalServerError, "internal error")
}

func (s *apiServer) handleSubmit(c *gin.Context) {
	var req api.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	id, err := s.daemon.submitter.Submit(c.Request.Context(), req.Script())
	if err != nil {
		code := statusForError(err)
		c.AbortWithStatusJSON(code, api.ErrorResponse{Error: publicMessage(err, code), JobID: id})
		return
	}
	c.JSON(http.StatusAccepted, api.SubmitResponse{JobID: id})
}

func (s *apiServer) handleStatus(c *gin.Context) {
	id := strings.TrimSpace(c.Query("id"))
	if id == "" {
		s.writeError(c, http.StatusBadRequest, "missing id")
		return
	}
	job, ok := s.lookup(c, id)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, api.StatusFromJob(job))
}

func (s *apiServer) handleJob(c *gin.Context) {
	job, ok := s.lookup(c, strings.TrimSpace(c.Param("id")))
	if !ok {
		return
	}
	c.JSON(http.StatusOK, api.FromJob(job))
}

func (s *apiServer) handleList(c *gin.Context) {
	var statuses []jobs.Status
	for _, value := range c.QueryArray("status") {
		for _, part := range strings.Split(value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			status, ok := jobs.ParseStatus(part)
			if !ok {
				s.writeError(c, http.StatusBadRequest, fmt.Sprintf("unknown status %q", part))
				return
			}
			statuses = append(statuses, status)
		}
	}
	limit := defaultListLimit
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			s.writeError(c, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(parsed, maxListLimit)
	}
	items, err := s.daemon.store.List(c.Request.Context(), limit, statuses...)
	if err != nil {
		code := statusForError(err)
		s.writeError(c, code, publicMessage(err, code))
		return
	}
	c.JSON(http.StatusOK, api.JobListResponse{Jobs: api.FromJobs(items)})
}

func (s *apiServer) handleScript(c *gin.Context) {
	if s.daemon.scripts == nil {
		s.writeError(c, http.StatusServiceUnavailable, "script generation is not configured (set llm.api_key)")
		return
	}
	var req api.ScriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	script, err := s.daemon.scripts.Generate(c.Request.Context(), req.Concept)
	if err != nil {
		code := statusForError(err)
		s.writeError(c, code, publicMessage(err, code))
		return
	}
	c.JSON(http.StatusOK, api.ScriptResponse{Script: script})
}

func (s *apiServer) handleHealth(c *gin.Context) {
	deep := c.Query("deep") == "1" || strings.EqualFold(c.Query("deep"), "true")
	health := s.daemon.Health(c.Request.Context(), deep)
	code := http.StatusOK
	if !health.Healthy {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, health)
}

func (s *apiServer) lookup(c *gin.Context, id string) (*jobs.Job, bool) {
	if id == "" {
		s.writeError(c, http.StatusNotFound, "job not found")
		return nil, false
	}
	job, err := s.daemon.store.Get(c.Request.Context(), id)
	if err != nil {
		code := statusForError(err)
		msg := publicMessage(err, code)
		if code == http.StatusNotFound {
			msg = "job not found"
		}
		s.writeError(c, code, msg)
		return nil, false
	}
	return job, true
}

func (s *apiServer) writeError(c *gin.Context, code int, msg string) {
	c.AbortWithStatusJSON(code, api.ErrorResponse{Error: msg})
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrBusy):
		return http.StatusServiceUnavailable
	case errors.Is(err, services.ErrConfiguration):
		return http.StatusServiceUnavailable
	case errors.Is(err, services.ErrAssetGeneration), errors.Is(err, services.ErrTimeout):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage keeps validation and capacity detail and hides the rest.
func publicMessage(err error, code int) string {
	switch code {
	case http.StatusBadRequest, http.StatusServiceUnavailable:
		return err.Error()
	case http.StatusBadGateway:
		return "upstream provider failed"
	default:
		return "internal error"
	}
}
