package handlers

import (
	"enpay/internal/repositories"
	"enpay/internal/utils"

	"github.com/gofiber/fiber/v2"
)

// AdminHandler serves the operations dashboard aggregates.
type AdminHandler struct {
	walletRepo repositories.WalletRepository
	txRepo     repositories.TransactionRepository
	userRepo   repositories.UserRepository
}

func NewAdminHandler(
	walletRepo repositories.WalletRepository,
	txRepo repositories.TransactionRepository,
	userRepo repositories.UserRepository,
) *AdminHandler {
	return &AdminHandler{walletRepo: walletRepo, txRepo: txRepo, userRepo: userRepo}
}

func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	users, err := h.userRepo.Count()
	if err != nil {
		return utils.InternalError(c, "failed to count users")
	}
	wallets, err := h.walletRepo.CountWallets()
	if err != nil {
		return utils.InternalError(c, "failed to count wallets")
	}
	transactions, err := h.txRepo.Count()
	if err != nil {
		return utils.InternalError(c, "failed to count transactions")
	}

	totals := fiber.Map{}
	for _, currency := range []string{"PEN", "USD", "EUR"} {
		total, err := h.walletRepo.TotalBalanceByCurrency(currency)
		if err != nil {
			return utils.InternalError(c, "failed to total balances")
		}
		totals[currency] = total
	}

	return utils.Success(c, fiber.Map{
		"users":          users,
		"wallets":        wallets,
		"transactions":   transactions,
		"total_balances": totals,
	})
}
