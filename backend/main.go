package main

import (
	"log"
	"log/slog"
	"os"

	"quizapp/backend/config"
	"quizapp/backend/middleware"
	"quizapp/backend/routes"
	"quizapp/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	// Initialize logger
	logger := utils.InitLogger(cfg.Log)

	// Initialize database
	db, err := utils.InitDB(cfg)
	if err != nil {
		logger.Error("Error initializing database", "error", err)
		os.Exit(1)
	}

	if err := utils.SeedExperimenter(db, cfg); err != nil {
		logger.Error("Error seeding experimenter", "error", err)
		os.Exit(1)
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit: 16 * 1024 * 1024,
	})

	// Middleware
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSAllowOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, " + middleware.RequestIDHeader,
	}))
	app.Use(middleware.LoggingMiddleware(logger))

	// Uploaded graphs
	app.Static("/"+cfg.GraphDir, cfg.GraphDir)

	// Setup routes
	routes.SetupRoutes(app, db, cfg)

	// Start server
	slog.Info("Server starting", "port", cfg.ServerPort, "db_driver", cfg.DBDriver)
	if err := app.Listen(":" + cfg.ServerPort); err != nil {
		logger.Error("Server stopped", "error", err)
		os.Exit(1)
	}
}
