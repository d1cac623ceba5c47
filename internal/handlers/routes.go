package handlers

import (
	"enpay/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers bundles everything SetupRoutes needs.
type Handlers struct {
	Auth      *AuthHandler
	Wallet    *WalletHandler
	Card      *CardHandler
	TwoFactor *TwoFactorHandler
	Admin     *AdminHandler
	AuthMW    *middleware.AuthMiddleware
}

func SetupRoutes(app *fiber.App, h Handlers) {
	app.Get("/health", HealthCheck)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")
	api.Post("/register", h.Auth.Register)
	api.Post("/login", h.Auth.Login)
	api.Post("/refresh", h.Auth.Refresh)

	authenticated := api.Group("/", h.AuthMW.Handler)
	authenticated.Post("/logout", h.Auth.Logout)
	authenticated.Delete("/account", h.Auth.DeleteAccount)

	authenticated.Get("/profile", h.Auth.GetProfile)
	authenticated.Put("/profile", h.Auth.UpdateProfile)
	authenticated.Put("/profile/daily-limit", h.Auth.UpdateDailyLimit)

	wallet := authenticated.Group("/wallets")
	wallet.Get("/", h.Wallet.GetWallets)
	wallet.Get("/:currency", h.Wallet.GetWallet)
	wallet.Post("/deposit", h.Wallet.Deposit)
	wallet.Post("/withdraw", h.Wallet.Withdraw)
	wallet.Post("/transfer", h.Wallet.Transfer)
	wallet.Post("/convert", h.Wallet.Convert)

	authenticated.Get("/transactions", h.Wallet.GetTransactions)
	authenticated.Get("/transactions/:uid", h.Wallet.GetTransaction)

	card := authenticated.Group("/cards")
	card.Post("/activate", h.Card.Activate)
	card.Post("/deactivate", h.Card.Deactivate)
	card.Get("/active", h.Card.GetActiveCard)

	twofa := authenticated.Group("/2fa")
	twofa.Post("/setup", h.TwoFactor.Setup)
	twofa.Post("/enable", h.TwoFactor.Enable)
	twofa.Post("/disable", h.TwoFactor.Disable)
	twofa.Get("/status", h.TwoFactor.Status)

	admin := authenticated.Group("/admin", middleware.AdminOnly)
	admin.Get("/dashboard", h.Admin.Dashboard)
}
