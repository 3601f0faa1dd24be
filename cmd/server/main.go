package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/NeelODE/drive/internal/config"
	"github.com/NeelODE/drive/internal/handlers"
	customMiddleware "github.com/NeelODE/drive/internal/middleware"
	"github.com/NeelODE/drive/internal/renderer"
	"github.com/NeelODE/drive/internal/services"
)

const (
	pageTitle           = "File Manager"
	shutdownTimeout     = 5 * time.Second
	storageCheckTimeout = 10 * time.Second
)

func main() {
	configPath := flag.String("config", os.Getenv("FM_CONFIG"), "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	checkCtx, cancelCheck := context.WithTimeout(context.Background(), storageCheckTimeout)
	store, err := services.NewStorage(checkCtx, cfg, &services.RealMinioFactory{})
	cancelCheck()
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	log.Printf("Using %s storage backend", store.Name())

	tokens := services.NewTokenService(cfg.Auth.Secret, cfg.Auth.Password, cfg.Auth.TokenTTL)
	if !cfg.AuthEnabled() {
		log.Printf("FM_AUTH_SECRET/FM_AUTH_PASSWORD not set, API is open to anyone who can reach %s", cfg.Server.Addr)
	}

	e := newServer(cfg, store, tokens)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := e.Start(cfg.Server.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}
}

func newServer(cfg *config.Config, store services.Storage, tokens *services.TokenService) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = handlers.ErrorHandler

	// Handlers
	filesHandler := handlers.NewFilesHandler(store, cfg)
	storageHandler := handlers.NewStorageHandler(store)
	authHandler := handlers.NewAuthHandler(tokens, cfg.AuthEnabled())

	// Middleware
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogRequestID: true,
		LogMethod:    true,
		LogStatus:    true,
		LogURI:       true,
		LogLatency:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Printf("REQUEST: id: %v, method: %v, uri: %v, status: %v, latency: %v\n",
				v.RequestID, v.Method, v.URI, v.Status, v.Latency)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(cfg.Server.BodyLimit))
	e.Use(customMiddleware.SecurityHeaders(previewSources(cfg)...))
	e.Use(customMiddleware.CSRF())
	if cfg.AuthEnabled() {
		// Skips the page, health check and login routes internally
		e.Use(customMiddleware.AuthMiddleware(tokens))
	}

	// Template Renderer
	e.Renderer = renderer.New()

	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})
	e.GET("/", func(c echo.Context) error {
		token, _ := c.Get("csrf").(string)
		return c.Render(http.StatusOK, "index", renderer.PageData{
			Title:       pageTitle,
			Backend:     store.Name(),
			AuthEnabled: cfg.AuthEnabled(),
			CSRFToken:   token,
		})
	})

	// Session
	e.POST("/api/login", authHandler.Login)
	e.POST("/api/logout", authHandler.Logout)
	e.GET("/api/session", authHandler.Session)

	// Files
	e.GET("/api/list", filesHandler.List)
	e.POST("/api/upload", filesHandler.Upload)
	e.POST("/api/create-folder", filesHandler.CreateFolder)
	e.GET("/api/view", filesHandler.View)
	e.GET("/api/download", filesHandler.Download)
	e.POST("/api/delete", filesHandler.Delete)
	e.POST("/api/paste", filesHandler.Paste)
	e.GET("/api/usage", storageHandler.Usage)

	return e
}

// previewSources returns the blob endpoint origin so presigned previews pass the CSP
func previewSources(cfg *config.Config) []string {
	if !cfg.BlobEnabled() {
		return nil
	}
	return []string{services.BlobCredentials(cfg).Origin()}
}
