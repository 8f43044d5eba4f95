package routes

import (
	"tripeasy/internal/adapters/http/handlers"
	"tripeasy/internal/adapters/http/middleware"
	"tripeasy/internal/adapters/persistence/repositories"
	"tripeasy/internal/config"
	"tripeasy/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"gorm.io/gorm"
)

// Background holds the long-running services main owns the lifecycle of
type Background struct {
	Booking      *services.BookingService
	Provisioning *services.ProvisioningService
	Reminder     *services.ReminderService
}

// Setup configures all routes for the application and wires the service
// graph. The returned background services are started and stopped by main.
func Setup(app *fiber.App, db *gorm.DB, cfg *config.Config) *Background {
	// Initialize repositories
	identityRepo := repositories.NewIdentityRepository(db)
	refreshTokenRepo := repositories.NewRefreshTokenRepository(db)
	agentRepo := repositories.NewAgentRepository(db)
	bookingRepo := repositories.NewBookingRepository(db)
	packageRepo := repositories.NewPackageRepository(db)

	// Initialize services
	hub := services.NewFeedHub()
	notifyService := services.NewNotificationService()
	authService := services.NewAuthService(identityRepo, refreshTokenRepo, agentRepo, cfg)
	bookingService := services.NewBookingService(bookingRepo, agentRepo, packageRepo, notifyService, hub)
	agentService := services.NewAgentService(agentRepo, identityRepo, hub)
	quoteService := services.NewQuoteService(notifyService)
	provisioningService := services.NewProvisioningService(agentRepo, identityRepo, hub, services.DefaultProvisionInterval)
	reminderService := services.NewReminderService(bookingRepo)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(authService, cfg)
	bookingHandler := handlers.NewBookingHandler(bookingService)
	packageHandler := handlers.NewPackageHandler(packageRepo)
	adminHandler := handlers.NewAdminHandler(bookingService, agentService, quoteService)
	agentHandler := handlers.NewAgentHandler(bookingService)
	eventsHandler := handlers.NewEventsHandler(bookingService, agentService, hub)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API v1 group
	apiV1 := app.Group("/api/v1")

	// Auth routes (public, rate limited)
	authRoutes := apiV1.Group("/auth")
	setupAuthRoutes(authRoutes, authHandler, cfg)

	// Public intake routes
	bookingRoutes := apiV1.Group("/bookings")
	setupBookingRoutes(bookingRoutes, bookingHandler)

	// Public catalog routes (cacheable)
	packageRoutes := apiV1.Group("/packages")
	packageRoutes.Use(middleware.CatalogCache())
	setupPackageRoutes(packageRoutes, packageHandler)

	// Admin dashboard routes
	adminRoutes := apiV1.Group("/admin")
	adminRoutes.Use(middleware.AuthMiddleware(cfg))
	adminRoutes.Use(middleware.AdminOnly())
	adminRoutes.Use(middleware.NoCacheHeaders())
	setupAdminRoutes(adminRoutes, adminHandler, eventsHandler)

	// Agent dashboard routes
	agentRoutes := apiV1.Group("/agent")
	agentRoutes.Use(middleware.AuthMiddleware(cfg))
	agentRoutes.Use(middleware.AgentOnly())
	agentRoutes.Use(middleware.NoCacheHeaders())
	setupAgentRoutes(agentRoutes, agentHandler, eventsHandler)

	return &Background{
		Booking:      bookingService,
		Provisioning: provisioningService,
		Reminder:     reminderService,
	}
}

// setupAuthRoutes configures authentication routes
func setupAuthRoutes(router fiber.Router, handler *handlers.AuthHandler, cfg *config.Config) {
	// Public routes (5 req/min/IP against brute force)
	router.Post("/admin/signin", middleware.AuthRateLimiter(), handler.AdminSignIn)
	router.Post("/agent/signin", middleware.AuthRateLimiter(), handler.AgentSignIn)
	router.Post("/refresh", handler.RefreshToken)
	router.Post("/signout", handler.SignOut)

	// Protected routes
	router.Get("/me", middleware.AuthMiddleware(cfg), handler.Me)
	router.Post("/signout-all", middleware.AuthMiddleware(cfg), handler.SignOutAll)
}

// setupBookingRoutes configures public intake routes
func setupBookingRoutes(router fiber.Router, handler *handlers.BookingHandler) {
	router.Post("/travel", handler.CreateTravelBooking)
	router.Post("/contact", handler.CreateContactMessage)
	router.Post("/package", handler.CreatePackageBooking)
}

// setupPackageRoutes configures the public catalog routes
func setupPackageRoutes(router fiber.Router, handler *handlers.PackageHandler) {
	router.Get("/", handler.ListPackages)
	router.Get("/:id", handler.GetPackage)
}

// setupAdminRoutes configures admin dashboard routes
func setupAdminRoutes(router fiber.Router, handler *handlers.AdminHandler, eventsHandler *handlers.EventsHandler) {
	// Live feed
	router.Get("/events", eventsHandler.AdminEvents)

	// Bookings & messages
	router.Get("/bookings", handler.ListBookings)
	router.Get("/bookings/:id", handler.GetBooking)
	router.Put("/bookings/:id/status", handler.SetBookingStatus)
	router.Put("/bookings/:id/note", handler.SetBookingNote)
	router.Put("/bookings/:id/assign", handler.AssignBooking)
	router.Post("/bookings/bulk-delete", middleware.StrictRateLimiter(), handler.BulkDeleteBookings)
	router.Get("/messages", handler.ListMessages)

	// Agents
	router.Get("/agents", handler.ListAgents)
	router.Post("/agents", handler.CreateAgent)
	router.Put("/agents/:id", handler.UpdateAgent)
	router.Delete("/agents/:id", handler.DeleteAgent)

	// Quotes
	router.Post("/quotes", handler.ComposeQuote)
}

// setupAgentRoutes configures agent dashboard routes
func setupAgentRoutes(router fiber.Router, handler *handlers.AgentHandler, eventsHandler *handlers.EventsHandler) {
	router.Get("/events", eventsHandler.AgentEvents)
	router.Get("/bookings", handler.ListMyBookings)
	router.Get("/bookings/:id", handler.GetMyBooking)
	router.Put("/bookings/:id/status", handler.SetMyBookingStatus)
}
