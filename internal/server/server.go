package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"taskboard/internal/auth"
	"taskboard/internal/storage/files"
	"taskboard/internal/storage/sqlite"
)

// errValidation marks malformed or missing request input.
var errValidation = errors.New("invalid request")

const ctxUserKey = "userID"

// Server provides the HTTP handlers for the task board backend.
type Server struct {
	engine    *gin.Engine
	store     *sqlite.Store
	files     *files.Store
	tokens    *auth.Tokens
	logger    *slog.Logger
	staticDir string
}

// New constructs the HTTP server with routes and middleware configured.
func New(store *sqlite.Store, fileStore *files.Store, tokens *auth.Tokens, logger *slog.Logger, staticDir string) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.LoggerWithWriter(gin.DefaultWriter, "/api"))

	srv := &Server{
		engine:    router,
		store:     store,
		files:     fileStore,
		tokens:    tokens,
		logger:    logger,
		staticDir: staticDir,
	}

	srv.registerRoutes()
	return srv
}

// Engine exposes the underlying Gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// registerRoutes wires the API and static handlers together. Everything
// except registration, login and the health probe sits behind the bearer
// middleware.
func (s *Server) registerRoutes() {
	api := s.engine.Group("/api")
	{
		api.GET("/healthz", s.handleHealth)
		api.POST("/auth/register", s.handleRegister)
		api.POST("/auth/login", s.handleLogin)

		authed := api.Group("", s.authRequired)

		projects := authed.Group("/projects")
		{
			projects.GET("", s.handleListProjects)
			projects.POST("", s.handleCreateProject)
			projects.GET("/invitations/pending", s.handlePendingInvitations)
			projects.GET("/:id", s.handleProjectDetail)
			projects.DELETE("/:id", s.handleDeleteProject)
			projects.POST("/:id/invite", s.handleInvite)
			projects.PATCH("/:id/invitation/:action", s.handleRespondInvitation)
		}

		tasks := authed.Group("/tasks")
		{
			tasks.POST("", s.handleCreateTask)
			tasks.PATCH("/:id", s.handleUpdateTask)
			tasks.DELETE("/:id", s.handleDeleteTask)
			tasks.POST("/:id/attachments", s.handleUploadAttachment)
			tasks.GET("/:id/attachments", s.handleListAttachments)
			tasks.GET("/:id/attachments/:fileId/download", s.handleDownloadAttachment)
			tasks.DELETE("/:id/attachments/:fileId", s.handleDeleteAttachment)
		}
	}

	s.mountStatic()
}

// handleHealth provides a basic readiness endpoint.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// authRequired verifies the bearer token and attaches the user id to the
// request context. Missing, malformed and expired tokens are rejected the
// same way.
func (s *Server) authRequired(c *gin.Context) {
	raw, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
	if !ok || raw == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": auth.ErrInvalidToken.Error()})
		return
	}
	userID, err := s.tokens.Verify(raw)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": auth.ErrInvalidToken.Error()})
		return
	}
	c.Set(ctxUserKey, userID)
	c.Next()
}

// currentUser returns the verified user id set by authRequired.
func currentUser(c *gin.Context) int64 {
	return c.GetInt64(ctxUserKey)
}

// parseID converts a path parameter to int64 with error handling.
func parseID(c *gin.Context, name string) (int64, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid identifier"})
		return 0, false
	}
	return id, true
}

// statusOf maps an error to its HTTP status via the sentinel chain.
func statusOf(err error) int {
	switch {
	case errors.Is(err, errValidation),
		errors.Is(err, sqlite.ErrConflict),
		errors.Is(err, files.ErrUnsupportedType),
		errors.Is(err, files.ErrTooLarge):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, sqlite.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, sqlite.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// respondError maps the error to a status and a JSON payload. Unexpected
// errors are logged and returned as opaque 500s.
func (s *Server) respondError(c *gin.Context, err error) {
	status := statusOf(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", slog.String("path", c.FullPath()), slog.String("error", msg))
		msg = "internal server error"
	}
	c.JSON(status, gin.H{"error": msg})
}
