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

	"ai_site_server/api"
	"ai_site_server/config"
	"ai_site_server/internal/ai"
	internalapi "ai_site_server/internal/api"
	"ai_site_server/internal/deploy"
	"ai_site_server/internal/ratelimit"
	"ai_site_server/internal/shortlink"
)

func main() {
	// --- Load .env file ---
	// Loads environment variables from a .env file before viper reads them.
	err := godotenv.Load()
	if err != nil {
		// .env commonly does not exist in production; only warn on other errors.
		if !os.IsNotExist(err) {
			log.Printf("Warning: Error loading .env file: %v", err)
		} else {
			log.Println("Info: .env file not found, relying on system environment variables.")
		}
	} else {
		log.Println("Info: Loaded environment variables from .env file.")
	}

	// --- Configuration Loading ---
	cfg, err := config.LoadConfig(".") // Load from config.yaml or env vars
	if err != nil {
		log.Fatalf("Cannot load config: %v", err)
	}

	// --- Dependency Initialization ---

	// Short-link store (SQLite)
	links, err := shortlink.NewStore(cfg.ShortlinkDBPath)
	if err != nil {
		log.Fatalf("Could not open short-link store: %v", err)
	}
	defer links.Close()
	log.Printf("Short-link store ready at %s", cfg.ShortlinkDBPath)

	// Fixed-window rate limiter, keyed by client IP.
	limiter := ratelimit.NewLimiter(cfg.RateLimitMax, time.Duration(cfg.RateLimitWindowSeconds)*time.Second)

	// AI content generator.
	generator := ai.NewGenerator(cfg.OpenAIKey, cfg.ModelID)

	// Hosting provider deploy pipeline.
	client := deploy.NewClient(cfg.ProviderAPIURL, cfg.ProviderSiteID, cfg.ProviderToken)
	deployer := deploy.NewDeployer(client, deploy.PollConfig{
		Budget: time.Duration(cfg.DeployTimeoutSeconds) * time.Second,
	})

	// API handlers (pass all dependencies).
	apiHandler := internalapi.NewAPIHandler(generator, deployer, links, limiter, cfg.PublicBaseURL)

	// --- Start API Server ---
	appEnv := os.Getenv("APP_ENV")
	if appEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
		log.Println("Running in Gin Debug Mode")
	}

	router := gin.New()        // Use gin.New() for more control over middleware
	router.Use(gin.Logger())   // Request logging middleware
	router.Use(gin.Recovery()) // Panic recovery middleware

	api.RegisterRoutes(router, apiHandler) // Register API endpoints

	server := &http.Server{
		Addr:    cfg.ServerAddress,
		Handler: router,
		// Set timeouts to prevent slow client attacks. The write timeout has
		// to cover a full generate-and-deploy round trip.
		ReadTimeout:  15 * time.Second,
		WriteTimeout: time.Duration(cfg.DeployTimeoutSeconds)*time.Second + 60*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting API server on %s\n", cfg.ServerAddress)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("API server listen error: %s\n", err)
		}
		log.Println("API server has stopped listening.")
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Printf("Received signal: %s. Shutting down server...", sig)

	shutdownCtx, serverCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer serverCancel()

	log.Println("Shutting down API server...")
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("API server forced shutdown error: %v", err)
	} else {
		log.Println("API server gracefully stopped.")
	}

	log.Println("Application exiting.")
}
