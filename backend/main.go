package main

import (
	"log"

	"lms/backend/config"
	"lms/backend/middleware"
	"lms/backend/routes"
	"lms/backend/services"
	"lms/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	// Initialize database
	db, err := utils.InitDB(cfg)
	if err != nil {
		log.Fatalf("Error initializing database: %v", err)
	}

	// Initialize logger
	logger := utils.InitLogger()

	// Redis backs the login-attempt limiter
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	// Event publishing is optional; a nil publisher drops events silently
	events, err := services.NewEventPublisher(cfg.AMQPURL, cfg.EventExchange, logger)
	if err != nil {
		logger.Printf("event publisher disabled: %v", err)
	}
	defer events.Close()

	// Service layer
	tasks := services.NewTaskRunner(logger)
	progress := services.NewProgressService(db, logger, events)
	requirements := services.NewRequirementService(db, logger, progress, tasks, events)
	attempts := services.NewAttemptService(db, logger, progress, tasks, events)

	// Create Fiber app
	app := fiber.New()

	// Middleware
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(middleware.LoggingMiddleware(logger))

	// Setup routes
	routes.SetupRoutes(app, db, cfg, rdb, logger, routes.Services{
		Attempts:     attempts,
		Requirements: requirements,
		Progress:     progress,
		Tasks:        tasks,
	})

	// Start server
	log.Fatal(app.Listen(":" + cfg.ServerPort))
}
