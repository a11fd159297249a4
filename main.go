// main.go
package main

import (
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/apps390/project-tracker-home-task/cache"
	"github.com/apps390/project-tracker-home-task/database"
	"github.com/apps390/project-tracker-home-task/handlers"
	"github.com/apps390/project-tracker-home-task/mailer"
	"github.com/apps390/project-tracker-home-task/middleware"
	"github.com/apps390/project-tracker-home-task/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	// Validate critical environment variables
	validateEnvironment()

	// Initialize database
	database.InitDB()
	defer database.CloseDB()
	db := database.GetDB()

	// List cache and the invalidation worker behind it
	store := cache.NewMemoryStore()
	defer store.Close()

	invalidator := services.NewInvalidator(db, store, getEnvInt("INVALIDATION_QUEUE_SIZE", 256))
	invalidator.Start(getEnvInt("INVALIDATION_WORKERS", 2))
	defer invalidator.Stop()

	// Outgoing mail
	mail := mailer.NewFromEnv()

	// Overdue reconciliation scheduler
	inviteService := services.NewInviteService(db, invalidator, mail, getEnv("APP_BASE_URL", "http://localhost:3000"))
	scheduler := services.NewScheduler(db, mail, inviteService)
	if err := scheduler.Start(getEnv("SWEEP_SCHEDULE", "0 0 * * *"), getEnvInt("SWEEP_WORKERS", 2)); err != nil {
		log.Fatal("Failed to start sweep scheduler:", err)
	}
	defer scheduler.Stop()

	// Wire handlers
	handlers.Init(db, store, invalidator, mail, scheduler, getEnv("APP_BASE_URL", "http://localhost:3000"))

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		BodyLimit:    4 * 1024 * 1024, // 4MB
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path} (${latency})\n",
	}))

	// CORS configuration
	corsOrigins := os.Getenv("CORS_ORIGINS")
	if corsOrigins == "" {
		corsOrigins = "http://localhost:3000"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     corsOrigins,
		AllowMethods:     "GET,POST,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
	}))

	// Apply rate limiting to all routes
	app.Use(middleware.RateLimitMiddleware())

	registerRoutes(app)

	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}

	// Graceful shutdown so in-flight sweeps and invalidations drain
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("🔄 Shutting down...")
		_ = app.Shutdown()
	}()

	log.Printf("🚀 HTTP server starting on port %s", port)
	log.Printf("📊 Environment: %s", getEnv("APP_ENV", "development"))
	log.Printf("🔐 JWT Secret configured: %v", os.Getenv("JWT_SECRET") != "")
	log.Printf("🕛 Sweep schedule: %s", getEnv("SWEEP_SCHEDULE", "0 0 * * *"))

	if err := app.Listen(":" + port); err != nil {
		log.Fatal("Failed to start HTTP server:", err)
	}
}

// registerRoutes wires every endpoint onto the app. Task CRUD is gated by
// member access inside the services, not by role, so contributors can work
// tasks on their projects; only project administration requires the manager
// role up front.
func registerRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Auth routes with stricter rate limiting
	authGroup := api.Group("/auth")
	authGroup.Use(middleware.AuthRateLimitMiddleware())
	authGroup.Post("/send-otp", handlers.SendOTP)
	authGroup.Post("/verify-otp", handlers.VerifyOTP)
	authGroup.Post("/register", handlers.RegisterManager)
	authGroup.Post("/login", handlers.Login)
	authGroup.Post("/refresh", handlers.RefreshToken)
	authGroup.Get("/me", middleware.AuthMiddleware, handlers.Me)

	// Invite acceptance is public; the emailed token is the credential
	api.Post("/invite_register", middleware.AuthRateLimitMiddleware(), handlers.AcceptInvite)

	// Project routes
	projectGroup := api.Group("/projects")
	projectGroup.Use(middleware.AuthMiddleware)
	projectGroup.Post("/create", middleware.ManagerRequired, handlers.CreateProject)
	projectGroup.Get("/", handlers.ListProjects)
	projectGroup.Get("/:slug", middleware.ManagerRequired, handlers.GetProject)
	projectGroup.Patch("/:slug/edit", middleware.ManagerRequired, handlers.UpdateProject)
	projectGroup.Delete("/:slug/delete", middleware.ManagerRequired, handlers.DeleteProject)
	projectGroup.Get("/:slug/members", handlers.ProjectMembers)
	projectGroup.Post("/:slug/invite", middleware.ManagerRequired, handlers.InviteContributors)
	projectGroup.Post("/:slug/tasks/create", handlers.CreateTask)
	projectGroup.Get("/:slug/tasks", handlers.ListTasks)

	// Task routes addressed by task slug
	taskGroup := api.Group("/tasks")
	taskGroup.Use(middleware.AuthMiddleware)
	taskGroup.Get("/:taskSlug", handlers.GetTask)
	taskGroup.Patch("/:taskSlug/edit", handlers.UpdateTask)
	taskGroup.Delete("/:taskSlug/delete", handlers.DeleteTask)

	// Contributor skill routes
	api.Get("/skills", middleware.AuthMiddleware, handlers.GetSkills)
	api.Post("/skills", middleware.AuthMiddleware, handlers.UpdateSkills)

	// Manual sweep trigger for operators
	api.Post("/sweeps/run", middleware.AuthMiddleware, middleware.ManagerRequired, handlers.RunSweeps)

	// Health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "healthy",
			"timestamp": time.Now().Unix(),
			"version":   "1.0.0",
		})
	})
}

// validateEnvironment checks for required environment variables
func validateEnvironment() {
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("FATAL: JWT_SECRET environment variable must be set. Generate one with: openssl rand -base64 64")
	}
	if len(jwtSecret) < 32 {
		log.Fatal("FATAL: JWT_SECRET must be at least 32 characters long")
	}

	appEnv := os.Getenv("APP_ENV")
	if appEnv == "production" {
		corsOrigins := os.Getenv("CORS_ORIGINS")
		if corsOrigins == "" || corsOrigins == "http://localhost:3000" {
			log.Println("WARNING: CORS_ORIGINS not properly configured for production")
		}
		if os.Getenv("SMTP_HOST") == "" {
			log.Println("WARNING: SMTP_HOST not set, invitation emails will only be logged")
		}
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Don't expose internal errors in production
	if os.Getenv("APP_ENV") == "production" && code == 500 {
		message = "An error occurred. Please try again later."
	}

	return c.Status(code).JSON(fiber.Map{
		"success": false,
		"message": message,
	})
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			return n
		}
	}
	return defaultVal
}
