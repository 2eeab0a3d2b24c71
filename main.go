package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/streadway/amqp"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"lojinha/internal/config"
	"lojinha/internal/gateway"
	"lojinha/internal/handlers"
	"lojinha/internal/middleware"
	"lojinha/internal/models"
	"lojinha/internal/repositories"
	"lojinha/internal/services"
	"lojinha/pkg/rabbitmq"
)

func main() {
	cfg := config.Load()

	// --- Database (optional) ---
	// With DATABASE_URL set the catalog and the payment tracking store are
	// persisted; without it everything runs in memory.
	var db *gorm.DB
	if cfg.DatabaseURL != "" {
		var err error
		db, err = gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		if err := db.AutoMigrate(&models.Product{}, &models.AdminUser{}, &repositories.OrderRow{}); err != nil {
			log.Fatalf("Failed to auto-migrate database: %v", err)
		}
	}

	// --- Product catalog ---
	var productRepo repositories.ProductRepository
	switch {
	case cfg.CatalogURL != "":
		log.Printf("Using remote catalog at %s", cfg.CatalogURL)
		productRepo = repositories.NewHTTPCatalogRepository(cfg.CatalogURL, cfg.CatalogAPIKey)
	case db != nil:
		log.Println("Using database-backed catalog")
		productRepo = repositories.NewGORMProductRepository(db)
	default:
		log.Println("No catalog configured, using in-memory catalog with sample data")
		mockRepo := repositories.NewMockProductRepository()
		seedProducts(mockRepo)
		productRepo = mockRepo
	}

	// --- Payment tracking store ---
	var orderStore repositories.OrderStore
	if db != nil {
		orderStore = repositories.NewGORMOrderStore(db)
	} else {
		orderStore = repositories.NewMemoryOrderStore()
	}

	// --- Payment gateway ---
	if cfg.MPAccessToken == "" {
		log.Println("Warning: MP_ACCESS_TOKEN is empty, payment creation will fail")
	}
	gatewayClient := gateway.NewClient(cfg.MPBaseURL, cfg.MPAccessToken)

	// --- RabbitMQ (optional) ---
	var mqClient *rabbitmq.Client
	if cfg.RabbitMQURL != "" {
		var err error
		mqClient, err = rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
		if err != nil {
			log.Fatalf("Failed to initialize RabbitMQ client: %v", err)
		}
		defer mqClient.Close() // Ensure the connection is closed on exit
	} else {
		log.Println("RABBITMQ_URL not set, payment events disabled")
	}

	// --- Initialize Services ---
	productService := services.NewProductService(productRepo)
	var events services.EventPublisher
	if mqClient != nil {
		events = mqClient
	}
	paymentService := services.NewPaymentService(orderStore, productRepo, gatewayClient, events, cfg.BaseURL, cfg.DownloadWindow)

	// --- Initialize Handlers ---
	productHandler := handlers.NewProductHandler(productService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)

	// --- Initialize Fiber App ---
	app := fiber.New()

	// --- Middleware ---
	app.Use(recover.New())
	app.Use(logger.New()) // Request logger
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.FrontendOrigin,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	// --- API Routes ---
	productHandler.RegisterRoutes(app)
	paymentHandler.RegisterRoutes(app)

	// Admin surface only exists with a database to hold accounts and a
	// writable catalog.
	if db != nil {
		userRepo := repositories.NewGORMAdminUserRepository(db)
		authService := services.NewAuthService(userRepo, cfg.JWTSecret)
		seedAdmin(authService, cfg)

		authHandler := handlers.NewAuthHandler(authService)
		authHandler.RegisterRoutes(app)

		adminRoutes := app.Group("/admin", middleware.AdminRequired(authService))
		productHandler.RegisterAdminRoutes(adminRoutes)
	}

	// --- Health Check Endpoint ---
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":      "healthy",
			"time":        time.Now().Format(time.RFC3339),
			"environment": cfg.Environment,
		})
	})

	// Debug endpoint, hidden in production.
	if !cfg.IsProduction() {
		app.Get("/debug/config", func(c *fiber.Ctx) error {
			return c.JSON(fiber.Map{
				"environment":     cfg.Environment,
				"base_url":        cfg.BaseURL,
				"catalog_remote":  cfg.CatalogURL != "",
				"database":        cfg.DatabaseURL != "",
				"rabbitmq":        cfg.RabbitMQURL != "",
				"download_window": cfg.DownloadWindow.String(),
				"order_retention": cfg.OrderRetention.String(),
				"sweep_interval":  cfg.SweepInterval.String(),
			})
		})
	}

	// --- Periodic sweep of stale tracking records ---
	// Runs on its own timer, independent of request traffic.
	sweepDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(cfg.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				paymentService.SweepExpired(cfg.OrderRetention)
			case <-sweepDone:
				return
			}
		}
	}()

	// --- Start RabbitMQ Consumer in a Goroutine ---
	// Listens for payment lifecycle events; in a full deployment this is
	// where confirmation e-mails would be sent.
	if mqClient != nil {
		go func() {
			log.Println("Starting RabbitMQ consumer for payment events...")
			messageHandler := func(msg amqp.Delivery) error {
				log.Printf("Received Payment Event (Tag: %d): %s", msg.DeliveryTag, string(msg.Body))
				return nil // Return nil to acknowledge
			}
			if consumerErr := mqClient.ConsumePaymentEvents(messageHandler); consumerErr != nil {
				log.Printf("Failed to start RabbitMQ consumer: %v", consumerErr)
			}
		}()
	}

	// --- Start HTTP Server ---
	log.Printf("Starting server on port %s", cfg.AppPort)

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(cfg.AppPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	<-quit
	log.Println("Shutting down server...")

	close(sweepDone)

	// Shutdown Fiber app
	if err := app.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}

	// Closing the RabbitMQ connection is handled by defer in main
	log.Println("Server gracefully stopped")
}

// seedProducts populates the in-memory catalog with sample digital products
// for local development.
func seedProducts(repo repositories.ProductRepository) {
	products := []models.Product{
		{ID: "prod-1", Name: "Curso de Go", Description: "Curso completo em vídeo", Price: 149.90, DownloadURL: "https://cdn.example.com/curso-go.zip", Active: true},
		{ID: "prod-2", Name: "E-book Backend", Description: "Guia prático de APIs", Price: 49.90, DownloadURL: "https://cdn.example.com/ebook-backend.pdf", Active: true},
		{ID: "prod-3", Name: "Planilha Financeira", Description: "Modelo de controle financeiro", Price: 19.90, DownloadURL: "https://cdn.example.com/planilha.xlsx", Active: true},
	}

	for i := range products {
		err := repo.Create(&products[i])
		if err != nil {
			log.Printf("Error seeding product %s: %v", products[i].Name, err)
		} else {
			log.Printf("Seeded product: %s (ID: %s)", products[i].Name, products[i].ID)
		}
	}
}

// seedAdmin creates the configured admin account if it does not exist yet.
func seedAdmin(authService *services.AuthService, cfg config.Config) {
	if cfg.AdminUsername == "" || cfg.AdminPassword == "" {
		log.Println("ADMIN_USERNAME/ADMIN_PASSWORD not set, skipping admin account seed")
		return
	}
	err := authService.RegisterAdmin(&models.AdminUser{
		Username: cfg.AdminUsername,
		Email:    cfg.AdminUsername + "@lojinha.local",
		Password: cfg.AdminPassword,
	})
	if err != nil {
		log.Printf("Admin account seed: %v", err)
	}
}
