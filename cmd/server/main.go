package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"echoboard/internal/board"
	"echoboard/internal/config"
	"echoboard/internal/db"
	"echoboard/internal/events"
	routes "echoboard/internal/http"
	"echoboard/internal/models"
	"echoboard/internal/purify"
)

func main() {
	// Load .env first; in production the vars are set directly and the
	// file is absent.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	// Initialize Database
	database, err := db.Init(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Run Migrations
	log.Println("Running database migrations...")
	if err := database.AutoMigrate(
		&models.Post{}, &models.PostStats{}, &models.Vote{},
		&models.Report{}, &models.Ban{}, &models.AdminLog{},
	); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Migrations complete.")

	// The hub is built once here and passed by reference everywhere; it
	// lives until the process exits.
	hub := events.NewHub()

	svc := board.NewService(database, hub, purify.Thresholds{
		MinVotes:    cfg.PurifyMinVotes,
		PurifyRatio: cfg.PurifyRatio,
		MeterRatio:  cfg.MeterThreshold,
	})

	// Initialize Gin Router
	router := gin.Default()
	routes.SetupRoutes(router, svc, hub, cfg)

	// Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Server listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
