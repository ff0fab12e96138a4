package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"

	"github.com/souqly/backend/internal/config"
	"github.com/souqly/backend/internal/database"
	"github.com/souqly/backend/internal/database/migrations"
	"github.com/souqly/backend/internal/jobs"
	"github.com/souqly/backend/internal/ratelimit"
	"github.com/souqly/backend/internal/routes"
	"github.com/souqly/backend/internal/services/listing"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Initialize configuration
	cfg := config.LoadConfig()

	// Initialize database
	db, err := database.InitDB(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Run migrations
	if err := migrations.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// In development, also sync the schema with the models so local model
	// changes don't require writing a migration first
	if cfg.Environment == "development" {
		if err := database.AutoMigrate(db); err != nil {
			log.Fatalf("Failed to auto-migrate schema: %v", err)
		}
	}

	// Initialize Redis client for the rate-limit counters
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx := context.Background()
	var limiter ratelimit.Limiter
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if _, err := redisClient.Ping(ctx).Result(); err != nil {
		log.Printf("Redis unavailable, falling back to in-process rate limiting: %v", err)
		limiter = ratelimit.NewInMemory(window)
	} else {
		limiter = ratelimit.NewRedis(redisClient, window)
	}

	// Initialize Gin router
	router := gin.Default()

	// Configure CORS
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.FrontendURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	listingService := listing.NewService(db, cfg.Uploads.Dir, cfg.Uploads.BaseURL)

	// Register routes
	routes.RegisterRoutes(router, db, limiter, listingService, cfg)

	// Start the nightly maintenance sweeps
	maintenance := jobs.NewMaintenanceScheduler(listingService)
	maintenance.Start()

	// Start server
	srv := startServer(router, cfg.Server.Port)

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	maintenance.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting")
}

// startServer starts the HTTP server
func startServer(router *gin.Engine, port string) *http.Server {
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	log.Printf("Server started on port %s", port)
	return srv
}
