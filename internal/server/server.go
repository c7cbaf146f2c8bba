// Package server is the reference REST backend for the Sunday-school admin
// API. It serves the auth contract the client consumes plus the users,
// assets and post feed behind the app's screens.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/glebarez/sqlite"
	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sundayschool-dev/sundayschool/internal/auth"
	"github.com/sundayschool-dev/sundayschool/internal/config"
	"github.com/sundayschool-dev/sundayschool/internal/models"
)

// Server represents the HTTP server
type Server struct {
	router  *gin.Engine
	db      *gorm.DB
	config  *config.Config
	logger  zerolog.Logger
	tokens  *auth.Tokens
	cron    *cron.Cron
	version string
	now     func() time.Time
}

// New creates a new server instance
func New(cfg *config.Config, zlog zerolog.Logger, version string) (*Server, error) {
	// Initialize database with production settings
	db, err := initDatabase(cfg, zlog)
	if err != nil {
		return nil, err
	}

	// Run database migrations
	if err := models.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	secret, err := loadOrCreateSecret(db, zlog)
	if err != nil {
		return nil, err
	}
	tokens, err := auth.NewTokens(secret)
	if err != nil {
		return nil, err
	}

	// Register custom validators on gin's binding engine
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := models.RegisterValidations(v); err != nil {
			return nil, fmt.Errorf("failed to register validators: %w", err)
		}
	}

	server := &Server{
		db:      db,
		config:  cfg,
		logger:  zlog,
		tokens:  tokens,
		version: version,
		now:     time.Now,
	}

	server.setupRouter()

	return server, nil
}

// initDatabase initializes the database connection with production settings
func initDatabase(cfg *config.Config, zlog zerolog.Logger) (*gorm.DB, error) {
	const (
		maxOpenConns      = 8         // Reduced for SQLite efficiency
		maxIdleConns      = 4         // Reduced proportionally
		connMaxLifetime   = 300       // 5 minutes
		busyTimeout       = 5000      // 5 seconds
		cacheSize         = 10000     // 10MB
		walAutocheckpoint = 1000      // WAL auto-checkpoint pages
	)

	gormLog := zlog.With().Str("component", "gorm").Logger()
	db, err := gorm.Open(sqlite.Open(cfg.Database.URL), &gorm.Config{
		Logger: logger.New(
			&gormLog,
			logger.Config{
				LogLevel:                  logger.Error,
				IgnoreRecordNotFoundError: true,
				SlowThreshold:             200 * time.Millisecond,
			},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Get underlying sql.DB to configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(connMaxLifetime) * time.Second)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// WAL mode must be set first for optimal concurrency
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		fmt.Sprintf("PRAGMA wal_autocheckpoint=%d", walAutocheckpoint),
		fmt.Sprintf("PRAGMA busy_timeout=%d", busyTimeout),
		fmt.Sprintf("PRAGMA cache_size=-%d", cacheSize),
		"PRAGMA foreign_keys=1",
		"PRAGMA temp_store=2",
	}

	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			zlog.Warn().Str("pragma", pragma).Err(err).Msg("Failed to apply pragma")
		}
	}

	return db, nil
}

// loadOrCreateSecret returns the persisted JWT secret, generating it on the
// very first start
func loadOrCreateSecret(db *gorm.DB, zlog zerolog.Logger) (string, error) {
	var settings models.Settings
	err := db.First(&settings).Error
	if err == nil {
		zlog.Debug().Msg("Loaded JWT secret from database")
		return settings.JWTSecret, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("failed to load settings: %w", err)
	}

	secret, err := auth.GenerateSecret()
	if err != nil {
		return "", err
	}
	if err := db.Create(&models.Settings{JWTSecret: secret}).Error; err != nil {
		return "", fmt.Errorf("failed to persist settings: %w", err)
	}

	zlog.Info().Msg("Generated JWT secret on first start")
	return secret, nil
}

// setupRouter configures the Gin router with routes and middleware
func (s *Server) setupRouter() {
	gin.SetMode(gin.ReleaseMode)

	s.router = gin.New()

	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())

	// CORS middleware. Credentials are allowed so the SPA can use the cookie.
	s.router.Use(cors.New(cors.Config{
		AllowOrigins:     s.config.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint (no auth required)
	s.router.GET("/health", s.healthCheck)

	api := s.router.Group(s.config.Server.BasePath)

	// Public auth endpoints. Register and logout look at the caller's
	// session when there is one.
	optional := s.authMiddleware(false)
	api.POST("/auth/login", s.login)
	api.POST("/auth/register", optional, s.register)
	api.POST("/auth/logout", optional, s.logout)

	// Authenticated API routes
	authed := api.Group("")
	authed.Use(s.authMiddleware(true))
	{
		authed.GET("/auth/me", s.getCurrentUser)
		authed.PATCH("/auth/update-me", s.updateMe)
		authed.PATCH("/auth/change-password", s.changePassword)

		authed.GET("/assets", s.listAssets)
		authed.GET("/posts", s.listPosts)
		authed.POST("/posts/:id/like", s.likePost)
		authed.POST("/posts/:id/comments", s.commentPost)

		// Admin only
		admin := authed.Group("")
		admin.Use(AdminOnlyMiddleware(s.logger))
		{
			admin.GET("/users", s.listUsers)
			admin.POST("/assets", s.createAsset)
			admin.POST("/posts", s.createPost)
		}
	}
}

// loggingMiddleware creates a custom logging middleware using zerolog
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start)

		s.logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP request")
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "online",
		"timestamp": time.Now().UTC(),
		"service":   "sundayschool-api",
		"version":   s.version,
	})
}

// Handler exposes the router, e.g. for httptest
func (s *Server) Handler() http.Handler {
	return s.router
}

// GetDB returns the database connection
func (s *Server) GetDB() *gorm.DB {
	return s.db
}

// StartSweeper schedules the expired-session sweep
func (s *Server) StartSweeper() error {
	c := cron.New()
	_, err := c.AddFunc(s.config.Auth.SweepSchedule, func() {
		if _, err := s.SweepSessions(context.Background()); err != nil {
			s.logger.Error().Err(err).Msg("Session sweep failed")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid sweep schedule: %w", err)
	}

	c.Start()
	s.cron = c
	s.logger.Info().Str("schedule", s.config.Auth.SweepSchedule).Msg("Session sweeper started")
	return nil
}

// Start starts the HTTP server and blocks until SIGINT/SIGTERM
func (s *Server) Start() error {
	if err := s.StartSweeper(); err != nil {
		return err
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	srv := &http.Server{
		Addr:              s.config.Server.Addr,
		Handler:           s.router,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", srv.Addr).Str("base_path", s.config.Server.BasePath).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-sigChan:
		s.logger.Info().Msg("Received shutdown signal, shutting down gracefully...")
	case err := <-errChan:
		s.logger.Error().Err(err).Msg("HTTP server error")
		s.Close()
		return err
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("Error shutting down HTTP server")
		return err
	}

	s.Close()
	s.logger.Info().Msg("Server shutdown complete")
	return nil
}

// Close stops the sweeper and closes the database to flush WAL writes
func (s *Server) Close() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
	if sqlDB, err := s.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			s.logger.Error().Err(err).Msg("Error closing database")
		}
	}
}
