package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sujal/maths-tabel-server/internal/api"
	"github.com/sujal/maths-tabel-server/internal/api/middleware"
	"github.com/sujal/maths-tabel-server/internal/config"
	"github.com/sujal/maths-tabel-server/internal/metrics"
	"github.com/sujal/maths-tabel-server/internal/repository/postgres"
	"github.com/sujal/maths-tabel-server/internal/service"
	"github.com/sujal/maths-tabel-server/internal/token"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Initialize database
	db, err := postgres.NewConnection(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	// Initialize repositories
	repos := postgres.NewRepositories(db)

	// The admin account must exist before any traffic is accepted.
	bootstrapCtx, cancelBootstrap := context.WithTimeout(context.Background(), 30*time.Second)
	if err := service.EnsureAdminUser(bootstrapCtx, repos.User, cfg); err != nil {
		log.Fatalf("failed to bootstrap admin user: %v", err)
	}
	cancelBootstrap()

	collector := metrics.NewCollector()
	codec := token.NewCodec(cfg.JWTSecret)
	services := service.NewServices(repos, codec, cfg, collector)

	// Background expired-session sweeper
	sweeperCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	sweeper := service.NewSweeper(repos.Session, cfg.SweepInterval, collector)
	go sweeper.Run(sweeperCtx)

	limiters := middleware.NewLimiters(collector)
	defer limiters.Stop()

	// Initialize router
	router := api.NewRouter(services, limiters, collector, cfg)

	// Create server
	srv := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
