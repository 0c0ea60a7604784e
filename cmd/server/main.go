package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	swagger "github.com/gofiber/swagger"
	"github.com/localnerve/blockrelease/internal/config"
	"github.com/localnerve/blockrelease/internal/database"
	"github.com/localnerve/blockrelease/internal/handlers"
	"github.com/localnerve/blockrelease/internal/middleware"
	"github.com/localnerve/blockrelease/internal/release"
	"github.com/localnerve/blockrelease/internal/services"
	"github.com/localnerve/blockrelease/internal/storage"
	"github.com/localnerve/blockrelease/internal/store"
	"github.com/localnerve/blockrelease/internal/tracing"
	"github.com/localnerve/blockrelease/internal/utils"
	gormlogger "gorm.io/gorm/logger"

	_ "github.com/localnerve/blockrelease/docs/api" // Swagger docs
)

const serviceName = "blockrelease"

// set by -ldflags "-X main.version=..."
var version = "dev"

// @title Block Release API
// @version 1.0.0
// @description Versioned blocks, production approval gating and per-environment publication
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url https://github.com/localnerve/blockrelease
// @contact.email info@localnerve.com

// @license.name AGPL-3.0
// @license.url https://www.gnu.org/licenses/agpl-3.0.html

// @host localhost:3000
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey CookieAuth
// @in cookie
// @name cookie_session

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := tracing.Init(serviceName, version, cfg.TraceOutput); err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}

	db, err := database.Connect(cfg, gormlogger.Info)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(db)

	// Run auto-migrations
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	packages, err := storage.NewPackageStore(context.Background(), cfg.PackageStoreURL, cfg.PackagePublicURL)
	if err != nil {
		log.Fatalf("Failed to open package store: %v", err)
	}

	identity, err := services.NewIdentityProvider(cfg)
	if err != nil {
		log.Fatalf("Failed to configure identity: %v", err)
	}
	log.Printf("Identity provider: %s", identity.Name())

	st := store.NewGormStore(db)
	catalog := services.NewCatalogService(st, packages)
	releases := release.NewService(st)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler,
		// multipart package uploads
		BodyLimit: 64 * 1024 * 1024,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(compress.New())

	// Prometheus metrics
	prometheus := fiberprometheus.New(serviceName)
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	app.Get("/health", func(c *fiber.Ctx) error {
		result := services.HealthCheck(c.UserContext(), cfg, db, packages)
		status := fiber.StatusOK
		if result.Status != "healthy" {
			status = fiber.StatusServiceUnavailable
		}
		return c.Status(status).JSON(result)
	})

	api := app.Group("/api", middleware.Trace())
	handlers.Register(api, catalog, releases, middleware.Actor(identity))

	// 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return utils.NotFoundResponse(c, "[404] Resource Not Found")
	})

	// Graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Println("Gracefully shutting down...")
		_ = app.ShutdownWithTimeout(10 * time.Second)
	}()

	// Start server
	log.Printf("Starting %s %s on port %s", serviceName, version, cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := tracing.Shutdown(ctx); err != nil {
		log.Printf("Failed to flush traces: %v", err)
	}

	log.Println("Server stopped")
}
