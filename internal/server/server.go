package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agrilink/agrilink/internal/apperr"
	"github.com/agrilink/agrilink/internal/rpc"
	"github.com/agrilink/agrilink/internal/session"
	"github.com/agrilink/agrilink/internal/users"
)

// Config holds the HTTP-layer knobs.
type Config struct {
	CORSOrigins  []string
	RateLimitRPS int
	CookieSecure bool
}

// Server is the HTTP front of the procedure surface.
type Server struct {
	registry *rpc.Registry
	tokens   *session.Issuer
	users    *users.Service
	auth     *AuthHandler
	cfg      Config
	logger   *zap.Logger
}

// New creates a Server. auth may be nil to disable the login routes.
func New(registry *rpc.Registry, tokens *session.Issuer, userSvc *users.Service, auth *AuthHandler, cfg Config, logger *zap.Logger) *Server {
	return &Server{
		registry: registry,
		tokens:   tokens,
		users:    userSvc,
		auth:     auth,
		cfg:      cfg,
		logger:   logger,
	}
}

// Router builds the Gin engine with the full middleware chain and routes.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	corsConfig := cors.Config{
		AllowOrigins:     s.cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: !containsWildcard(s.cfg.CORSOrigins),
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	// Security headers
	router.Use(func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Next()
	})

	// Request body size limit (1 MB)
	router.Use(func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, 1<<20)
		c.Next()
	})

	if s.cfg.RateLimitRPS > 0 {
		router.Use(RateLimiter(s.cfg.RateLimitRPS, s.cfg.RateLimitRPS*2))
	}

	router.Use(requestLogger(s.logger))
	router.Use(PrometheusMiddleware())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", MetricsHandler())

	v1 := router.Group("/api/v1")
	v1.Use(session.ResolveCaller(s.tokens, s.users, s.logger))

	v1.POST("/rpc/:procedure", s.handleRPC)
	v1.GET("/rpc/:procedure", s.handleRPC)

	if s.auth != nil {
		s.auth.Register(v1)
	}
	return router
}

// handleRPC decodes the call input, dispatches through the registry, and maps
// the error taxonomy onto HTTP statuses.
func (s *Server) handleRPC(c *gin.Context) {
	name := c.Param("procedure")

	p := s.registry.Lookup(name)
	if p != nil && c.Request.Method == http.MethodGet && p.Kind != rpc.Query {
		c.JSON(http.StatusMethodNotAllowed, gin.H{
			"error": "mutations must be invoked with POST",
			"code":  "METHOD_NOT_ALLOWED",
		})
		return
	}

	raw, err := decodeInput(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "malformed input: " + err.Error(),
			"code":  string(apperr.CodeValidationFailed),
		})
		return
	}

	ctx := &rpc.Ctx{
		Context:      c.Request.Context(),
		Caller:       session.CallerFromCtx(c),
		ClearSession: func() { s.clearSessionCookie(c) },
	}

	out, err := s.registry.Dispatch(ctx, name, raw)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": out})
}

// decodeInput reads call input: the JSON body for POST, the ?input= query
// parameter for GET. Missing input means an empty object.
func decodeInput(c *gin.Context) (map[string]any, error) {
	var raw map[string]any
	if c.Request.Method == http.MethodGet {
		q := c.Query("input")
		if q == "" {
			return map[string]any{}, nil
		}
		if err := json.Unmarshal([]byte(q), &raw); err != nil {
			return nil, err
		}
		return raw, nil
	}

	if c.Request.ContentLength == 0 {
		return map[string]any{}, nil
	}
	if err := c.ShouldBindJSON(&raw); err != nil {
		return nil, err
	}
	if raw == nil {
		raw = map[string]any{}
	}
	return raw, nil
}

func (s *Server) writeError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("rpc dispatch failed",
			zap.String("procedure", c.Param("procedure")), zap.Error(err))
		c.JSON(status, gin.H{"error": "internal error", "code": "INTERNAL"})
		return
	}
	body := gin.H{"error": err.Error(), "code": string(apperr.CodeOf(err))}
	if field := apperr.FieldOf(err); field != "" {
		body["field"] = field
	}
	c.JSON(status, body)
}

// SessionCookieWriter exposes the cookie setter for the auth handler.
func (s *Server) SessionCookieWriter() func(c *gin.Context, token string) {
	return s.setSessionCookie
}

// setSessionCookie installs the session credential on the response.
func (s *Server) setSessionCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(session.CookieName, token, int(s.tokens.TTL().Seconds()), "/", "", s.cfg.CookieSecure, true)
}

func (s *Server) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(session.CookieName, "", -1, "/", "", s.cfg.CookieSecure, true)
}

// containsWildcard returns true if origins includes "*".
func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if strings.TrimSpace(o) == "*" {
			return true
		}
	}
	return false
}

// requestLogger returns a Gin middleware that logs each request with zap.
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}
