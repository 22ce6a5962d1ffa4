package server

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"momo-vod/internal/config"
	database "momo-vod/internal/db"
	"momo-vod/internal/rpc"

	"momo-vod/internal/api/handlers"
	"momo-vod/internal/api/middleware"
)

type Server struct {
	cfg    *config.Config
	db     *database.Client
	router *gin.Engine
}

func New(cfg *config.Config, db *database.Client) *Server {
	if cfg.Server.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode) // Set to Release for production
	}

	router := gin.New()
	router.Use(gin.Recovery(), middleware.SilentLogger())

	s := &Server{
		cfg:    cfg,
		db:     db,
		router: router,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	// CORS Configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}

	// "Authorization" carries the JWT, X-Request-Id lets the meter dedupe retries
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", rpc.RequestIDHeader}

	s.router.Use(cors.New(corsConfig))
}

func (s *Server) setupRoutes() {
	commentHandler := handlers.NewCommentHandler(s.db.DB)
	meterHandler := handlers.NewMeterHandler(s.db.DB)
	statsHandler := handlers.NewStatsHandler(s.db.DB)

	// Health Check
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "momo-vod"})
	})

	// ==========================================
	// PUBLIC ROUTES (No Token Required)
	// ==========================================
	v1 := s.router.Group("/api/v1")
	v1.GET("/stats", statsHandler.GetStats)

	// ==========================================
	// RPC ROUTES (JWT Token Required)
	// ==========================================
	calls := s.router.Group(rpc.PathPrefix)
	calls.Use(middleware.RequireAuth([]byte(s.cfg.Auth.JWTSecret)))
	{
		// --- ANY SIGNED-IN VIEWER ---
		calls.POST(route(rpc.GetComments.Path()), commentHandler.GetComments)
		calls.POST(route(rpc.SyncMeterReading.Path()), meterHandler.SyncMeterReading)
		calls.POST(route(rpc.PostComment.Path()),
			middleware.RequireRole(middleware.RoleViewer, middleware.RolePublisher),
			commentHandler.PostComment)

		// --- PUBLISHER ONLY ---
		calls.POST(route(rpc.GetSeasonSummary.Path()),
			middleware.RequireRole(middleware.RolePublisher),
			meterHandler.GetSeasonSummary)
	}
}

// route turns a descriptor path into one relative to the RPC group.
func route(path string) string {
	return strings.TrimPrefix(path, rpc.PathPrefix)
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the server on the configured port
func (s *Server) Start(addr string) error {
	return s.router.Run(addr)
}
