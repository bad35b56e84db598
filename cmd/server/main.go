// Command server runs the PenLoft HTTP API.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"penloft/internal/bootstrap"
	"penloft/internal/config"
	"penloft/internal/middleware"
	"penloft/internal/server"
)

// @title PenLoft API
// @version 1.0
// @description Blogging platform API with posts, search, profiles, engagement and AI writing suggestions

// @contact.name API Support
// @contact.email support@penloft.dev

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8375
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()
	rt, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{SeedBuiltins: cfg.SeedBuiltins})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}

	srv, err := server.NewServer(cfg, rt.Deps())
	if err != nil {
		_ = rt.Close(ctx)
		log.Fatalf("Failed to create server: %v", err)
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		middleware.Logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			middleware.Logger.Error("server shutdown error", "error", err)
		}
	}()

	if err := srv.Start(); err != nil {
		middleware.Logger.Error("server stopped", "error", err)
	}

	closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := rt.Close(closeCtx); err != nil {
		middleware.Logger.Error("runtime close error", "error", err)
	}
}
