package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"tripeasy/internal/adapters/http/middleware"
	"tripeasy/internal/adapters/http/routes"
	"tripeasy/internal/adapters/persistence/models"
	"tripeasy/internal/config"

	"github.com/gofiber/fiber/v2"

	_ "tripeasy/docs" // Swagger docs
)

// @title TripEasy API
// @version 1.0
// @description Travel agency booking and agent workflow API
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@tripeasy.in

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host api.tripeasy.in
// @BasePath /api/v1
// @schemes https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	// Connect to database
	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer config.CloseDatabase()

	// Auto migrate (creates tables if not exist)
	if err := models.AutoMigrate(db); err != nil {
		log.Fatalf("❌ Failed to auto migrate: %v", err)
	}
	log.Println("✅ Database migration completed")

	// Seed the admin identity and tour package catalog
	if err := config.SeedMasterData(db, cfg); err != nil {
		log.Printf("⚠️ Warning: Failed to seed master data: %v", err)
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "TripEasy API v1.0",
		ErrorHandler: middleware.CustomErrorHandler,
	})

	// Setup middlewares
	middleware.Setup(app, cfg)

	// Setup routes (pass db and cfg for dependency injection)
	background := routes.Setup(app, db, cfg)

	// Agent login provisioning loop
	background.Provisioning.Start()
	defer background.Provisioning.Stop()

	// Daily pending-bookings digest (08:30)
	background.Reminder.Start()
	defer background.Reminder.Stop()

	// Flush debounced note writes on shutdown
	defer background.Booking.Close()

	// Graceful shutdown
	go gracefulShutdown(app)

	// Start server
	log.Printf("🚀 Server starting on port %s [MODE: %s]", cfg.Port, cfg.AppMode)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(app *fiber.App) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("❌ Error during shutdown: %v", err)
	}
	log.Println("✅ Server stopped gracefully")
}
