package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/spf13/viper"
	"github.com/streadway/amqp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"inventori/internal/handlers"
	"inventori/internal/images"
	"inventori/internal/models"
	"inventori/internal/repositories"
	"inventori/internal/services"
	"inventori/pkg/observability"
	"inventori/pkg/rabbitmq"
)

const (
	serviceName    = "product-service"
	serviceVersion = "1.0.0"
)

func main() {
	// --- Configuration ---
	viper.SetDefault("APP_PORT", ":8080")
	viper.SetDefault("DB_DRIVER", "sqlite")
	viper.SetDefault("DB_DSN", "file:inventori.db")
	viper.SetDefault("RABBITMQ_URL", "") // empty disables the messaging collaborator
	viper.SetDefault("IMAGE_ROOT", "./images")
	viper.SetDefault("REQUEST_TIMEOUT", "5s")
	viper.SetDefault("OTEL_ENDPOINT", "") // empty disables trace export
	viper.SetDefault("OTEL_AUTH_HEADER", "")
	viper.AutomaticEnv()

	appPort := viper.GetString("APP_PORT")

	// --- Logger ---
	zapLogger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize zap logger: %v", err)
	}
	defer func() { _ = zapLogger.Sync() }()

	ctx := context.Background()

	// --- Tracing ---
	traceShutdown, err := observability.SetupTracing(ctx, observability.Config{
		ServiceName:    serviceName,
		ServiceVersion: serviceVersion,
		Endpoint:       viper.GetString("OTEL_ENDPOINT"),
		AuthHeader:     viper.GetString("OTEL_AUTH_HEADER"),
	})
	if err != nil {
		zapLogger.Fatal("Failed to set up tracing", zap.Error(err))
	}
	if traceShutdown != nil {
		defer func() {
			if err := traceShutdown(context.Background()); err != nil {
				zapLogger.Error("Error during tracer shutdown", zap.Error(err))
			}
		}()
	}
	tracer := otel.Tracer(serviceName)

	// --- Storage ---
	// DB_DRIVER=memory runs without a database.
	var productRepo repositories.ProductRepository
	if driver := viper.GetString("DB_DRIVER"); driver == "memory" {
		zapLogger.Info("Using in-memory product repository")
		productRepo = repositories.NewMockProductRepository()
	} else {
		db, err := openDatabase(driver, viper.GetString("DB_DSN"))
		if err != nil {
			zapLogger.Fatal("Failed to connect to database", zap.Error(err))
		}
		if err := db.AutoMigrate(&models.Product{}); err != nil {
			zapLogger.Fatal("Failed to migrate database", zap.Error(err))
		}
		productRepo = repositories.NewGORMProductRepository(db)
	}

	// --- RabbitMQ (optional collaborator) ---
	var mqClient *rabbitmq.Client
	if rabbitMQURL := viper.GetString("RABBITMQ_URL"); rabbitMQURL != "" {
		mqClient, err = rabbitmq.NewClient(rabbitmq.Config{URL: rabbitMQURL}, zapLogger)
		if err != nil {
			zapLogger.Fatal("Failed to initialize RabbitMQ client", zap.Error(err))
		}
		defer mqClient.Close()
	} else {
		zapLogger.Info("RABBITMQ_URL not set, quantity-check flow disabled")
	}

	// --- Services, handlers ---
	var publisher services.AvailabilityPublisher
	if mqClient != nil {
		publisher = mqClient
	}
	productService := services.NewProductService(
		productRepo,
		publisher,
		zapLogger,
		tracer,
		viper.GetDuration("REQUEST_TIMEOUT"),
	)

	imageResolver := images.NewDefaultResolver(viper.GetString("IMAGE_ROOT"))
	productHandler := handlers.NewProductHandler(productService, imageResolver, zapLogger)

	// --- Fiber app ---
	app := fiber.New()
	app.Use(logger.New())

	productHandler.RegisterRoutes(app)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// --- Start the check-quantity consumer ---
	if mqClient != nil {
		messageHandler := func(msg amqp.Delivery) error {
			var event models.CheckQuantityEvent
			if err := json.Unmarshal(msg.Body, &event); err != nil {
				// A malformed message will never become valid; log and ack.
				zapLogger.Error("invalid CheckQuantityEvent payload",
					zap.ByteString("body", msg.Body),
					zap.Error(err),
				)
				return nil
			}
			return productService.HandleCheckQuantity(context.Background(), event)
		}
		if err := mqClient.ConsumeCheckQuantity(messageHandler); err != nil {
			zapLogger.Fatal("Failed to start check-quantity consumer", zap.Error(err))
		}
	}

	// --- Start HTTP server ---
	zapLogger.Info("Starting server", zap.String("port", appPort))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(appPort); err != nil {
			zapLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	<-quit
	zapLogger.Info("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		zapLogger.Error("Error during Fiber shutdown", zap.Error(err))
	}

	zapLogger.Info("Server gracefully stopped")
}

// openDatabase opens the configured database. TranslateError makes GORM
// surface unique-constraint violations as gorm.ErrDuplicatedKey on both
// drivers, which the repository maps to the sku conflict error.
func openDatabase(driver, dsn string) (*gorm.DB, error) {
	cfg := &gorm.Config{TranslateError: true}
	switch driver {
	case "postgres":
		return gorm.Open(postgres.Open(dsn), cfg)
	default:
		return gorm.Open(sqlite.Open(dsn), cfg)
	}
}
