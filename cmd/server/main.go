// Package main is the API server entry point. It wires the database,
// cache, services and HTTP routes, then starts the fiber app.
package main

import (
	"context"
	"log"
	"time"

	"enpay/internal/config"
	"enpay/internal/handlers"
	"enpay/internal/metrics"
	"enpay/internal/middleware"
	"enpay/internal/repositories"
	"enpay/internal/services/auth"
	"enpay/internal/services/bank"
	"enpay/internal/services/card"
	"enpay/internal/services/exchange"
	"enpay/internal/services/ledger"
	"enpay/internal/services/twofactor"
	"enpay/internal/services/user"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func main() {
	config.LoadEnv()
	if err := repositories.InitDB(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	sqlDB, err := repositories.DB.DB()
	if err != nil {
		log.Fatalf("Failed to get database instance: %v", err)
	}
	if err := sqlDB.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	log.Println("Connected to database")

	if repositories.CacheService != nil {
		if err := repositories.CacheService.FlushAll(context.Background()); err != nil {
			log.Printf("Warning: failed to flush cache on startup: %v", err)
		}
	}

	defer func() {
		if err := sqlDB.Close(); err != nil {
			log.Printf("Warning: failed to close database connection: %v", err)
		}
		if repositories.CacheService != nil {
			if err := repositories.CacheService.Close(); err != nil {
				log.Printf("Warning: failed to close Redis connection: %v", err)
			}
		}
	}()

	// Repositories
	walletRepo := repositories.NewWalletRepository(repositories.DB)
	txRepo := repositories.NewTransactionRepository(repositories.DB)
	userRepo := repositories.NewUserRepository(repositories.DB)
	cardRepo := repositories.NewCardRepository(repositories.DB)
	bankCardRepo := repositories.NewBankCardRepository(repositories.DB)

	// Services
	gateway := bank.NewService(bankCardRepo)
	cardSvc := card.NewService(cardRepo, userRepo, gateway)
	twoFactorSvc := twofactor.NewService(userRepo)
	oracle := exchange.NewService(exchange.Config{
		PrimaryURL:  config.GetEnv("EXCHANGE_PRIMARY_URL", ""),
		FallbackURL: config.GetEnv("EXCHANGE_FALLBACK_URL", ""),
	}, repositories.CacheService)
	collector := metrics.NewCollector()
	ledgerSvc := ledger.NewService(
		walletRepo, txRepo, userRepo,
		cardSvc, gateway, oracle, twoFactorSvc,
		repositories.CacheService,
		ledger.Config{
			DefaultDailyLimit: config.GetDecimalEnv("DEFAULT_DAILY_LIMIT", "500.00"),
			USDToPENRate:      config.GetDecimalEnv("LIMIT_USD_PEN_RATE", "3.75"),
		},
		collector,
	)
	authSvc := auth.NewService(userRepo, ledgerSvc, cardSvc)
	userSvc := user.NewService(userRepo)

	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins: config.GetEnv("CORS_ORIGINS", "http://localhost:5173"),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
	}))
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	for _, path := range []string{"/api/register", "/api/login"} {
		app.Use(path, limiter.New(limiter.Config{
			Max:        5,
			Expiration: 1 * time.Minute,
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP()
			},
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
					"error": "Too many requests. Please try again later.",
				})
			},
		}))
	}

	handlers.SetupRoutes(app, handlers.Handlers{
		Auth:      handlers.NewAuthHandler(authSvc, userSvc),
		Wallet:    handlers.NewWalletHandler(ledgerSvc),
		Card:      handlers.NewCardHandler(cardSvc),
		TwoFactor: handlers.NewTwoFactorHandler(twoFactorSvc),
		Admin:     handlers.NewAdminHandler(walletRepo, txRepo, userRepo),
		AuthMW:    middleware.NewAuthMiddleware(userRepo),
	})

	log.Fatal(app.Listen(":" + config.GetEnv("PORT", "3000")))
}
