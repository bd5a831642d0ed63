// Package main is the entry point of the SIG panel server.
package main

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yourusername/sig-gestion/internal/config"
	"github.com/yourusername/sig-gestion/internal/session"
	"github.com/yourusername/sig-gestion/internal/store"
	"github.com/yourusername/sig-gestion/internal/usuario"
	"github.com/yourusername/sig-gestion/internal/view"
	"github.com/yourusername/sig-gestion/internal/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	gin.SetMode(cfg.GinMode)

	logger, err := buildLogger(cfg.GinMode)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	userStore, err := store.NewSQLiteUserStore(cfg.DatabasePath)
	if err != nil {
		logger.Fatal("open user store", zap.String("path", cfg.DatabasePath), zap.Error(err))
	}
	defer func() { _ = userStore.Close() }()

	service := usuario.NewService(userStore, logger, cfg.BcryptCost)

	views, err := view.New(cfg.BasePath)
	if err != nil {
		logger.Fatal("parse templates", zap.Error(err))
	}

	handlers := web.NewHandlers(service, views, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.GinMode != gin.ReleaseMode {
		router.Use(gin.Logger())
	}
	router.Use(requestID())

	// Session cookie: HTTP-only, strict same-site, secure in release mode,
	// scoped to the application base path.
	cookiePath := cfg.BasePath
	if cookiePath == "" {
		cookiePath = "/"
	}
	sessionStore := cookie.NewStore([]byte(cfg.SessionSecret))
	sessionStore.Options(sessions.Options{
		Path:     cookiePath,
		MaxAge:   session.MaxAgeSeconds(),
		HttpOnly: true,
		Secure:   cfg.GinMode == gin.ReleaseMode,
		SameSite: http.SameSiteStrictMode,
	})
	router.Use(sessions.Sessions(cfg.SessionCookieName, sessionStore))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = strings.Split(cfg.CORSAllowedOrigins, ",")
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{
		"Origin",
		"Content-Type",
		"Accept",
		"X-Requested-With",
		"X-CSRF-Token",
	}
	corsConfig.ExposeHeaders = []string{"X-CSRF-Token"}
	router.Use(cors.New(corsConfig))

	router.GET("/health", handleHealth)

	// Everything else goes through the ordered route table.
	router.NoRoute(web.Routes(cfg.BasePath, handlers).HandlerFunc())

	addr := ":" + cfg.Port
	logger.Info("starting server",
		zap.String("addr", addr),
		zap.String("mode", cfg.GinMode),
		zap.String("basePath", cfg.BasePath),
	)
	if err := router.Run(addr); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func buildLogger(mode string) (*zap.Logger, error) {
	if mode == gin.ReleaseMode {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// handleHealth answers the health check probe.
func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "sig-api",
		"version": "0.1.0",
	})
}

// requestID tags each request with an identifier for log correlation.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}
