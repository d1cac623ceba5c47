package handlers

import (
	"errors"

	"enpay/internal/middleware"
	"enpay/internal/repositories"
	"enpay/internal/services/ledger"
	"enpay/internal/utils"
	"enpay/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// WalletHandler exposes the ledger engine over HTTP.
type WalletHandler struct {
	ledger ledger.Service
}

func NewWalletHandler(ledgerSvc ledger.Service) *WalletHandler {
	return &WalletHandler{ledger: ledgerSvc}
}

type amountRequest struct {
	Amount      string `json:"amount"`
	Description string `json:"description"`
}

func (h *WalletHandler) GetWallets(c *fiber.Ctx) error {
	claims := middleware.GetClaims(c)
	if claims == nil {
		return utils.Unauthorized(c, "invalid claims")
	}
	wallets, err := h.ledger.GetWallets(c.Context(), claims.UserID)
	if err != nil {
		return utils.InternalError(c, "failed to get wallets")
	}
	return utils.Success(c, fiber.Map{"wallets": wallets})
}

func (h *WalletHandler) GetWallet(c *fiber.Ctx) error {
	claims := middleware.GetClaims(c)
	if claims == nil {
		return utils.Unauthorized(c, "invalid claims")
	}
	currency, err := validation.NormalizeCurrency(c.Params("currency"))
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}
	wallet, err := h.ledger.GetWallet(c.Context(), claims.UserID, currency)
	if err != nil {
		return h.mapLedgerError(c, err)
	}
	return utils.Success(c, fiber.Map{"wallet": wallet})
}

func (h *WalletHandler) Deposit(c *fiber.Ctx) error {
	claims := middleware.GetClaims(c)
	if claims == nil {
		return utils.Unauthorized(c, "invalid claims")
	}
	var input amountRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}
	amount, err := validation.ParseAmount(input.Amount)
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}

	tx, err := h.ledger.Deposit(c.Context(), claims.UserID, amount, validation.TrimDescription(input.Description))
	if err != nil {
		return h.mapLedgerError(c, err)
	}
	return utils.Success(c, fiber.Map{"transaction": tx})
}

func (h *WalletHandler) Withdraw(c *fiber.Ctx) error {
	claims := middleware.GetClaims(c)
	if claims == nil {
		return utils.Unauthorized(c, "invalid claims")
	}
	var input amountRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}
	amount, err := validation.ParseAmount(input.Amount)
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}

	tx, err := h.ledger.Withdraw(c.Context(), claims.UserID, amount, validation.TrimDescription(input.Description))
	if err != nil {
		return h.mapLedgerError(c, err)
	}
	return utils.Success(c, fiber.Map{"transaction": tx})
}

func (h *WalletHandler) Transfer(c *fiber.Ctx) error {
	claims := middleware.GetClaims(c)
	if claims == nil {
		return utils.Unauthorized(c, "invalid claims")
	}
	var input struct {
		ToUserID      uint   `json:"to_user_id"`
		Amount        string `json:"amount"`
		Currency      string `json:"currency"`
		Description   string `json:"description"`
		TwoFactorCode string `json:"two_factor_code"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}
	amount, err := validation.ParseAmount(input.Amount)
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}
	currency, err := validation.NormalizeCurrency(input.Currency)
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}

	tx, err := h.ledger.Transfer(c.Context(), ledger.TransferCommand{
		FromUserID:    claims.UserID,
		ToUserID:      input.ToUserID,
		Amount:        amount,
		Currency:      currency,
		Description:   validation.TrimDescription(input.Description),
		TwoFactorCode: input.TwoFactorCode,
	})
	if err != nil {
		return h.mapLedgerError(c, err)
	}
	return utils.Success(c, fiber.Map{"transaction": tx})
}

func (h *WalletHandler) Convert(c *fiber.Ctx) error {
	claims := middleware.GetClaims(c)
	if claims == nil {
		return utils.Unauthorized(c, "invalid claims")
	}
	var input struct {
		FromCurrency string `json:"from_currency"`
		ToCurrency   string `json:"to_currency"`
		Amount       string `json:"amount"`
		Description  string `json:"description"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}
	amount, err := validation.ParseAmount(input.Amount)
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}
	from, err := validation.NormalizeCurrency(input.FromCurrency)
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}
	to, err := validation.NormalizeCurrency(input.ToCurrency)
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}

	tx, err := h.ledger.Convert(c.Context(), claims.UserID, from, to, amount, validation.TrimDescription(input.Description))
	if err != nil {
		return h.mapLedgerError(c, err)
	}
	return utils.Success(c, fiber.Map{"transaction": tx})
}

func (h *WalletHandler) GetTransactions(c *fiber.Ctx) error {
	claims := middleware.GetClaims(c)
	if claims == nil {
		return utils.Unauthorized(c, "invalid claims")
	}
	limit := c.QueryInt("limit", 0)
	txs, err := h.ledger.GetTransactions(c.Context(), claims.UserID, limit)
	if err != nil {
		return utils.InternalError(c, "failed to get transactions")
	}
	return utils.Success(c, fiber.Map{"transactions": txs})
}

func (h *WalletHandler) GetTransaction(c *fiber.Ctx) error {
	claims := middleware.GetClaims(c)
	if claims == nil {
		return utils.Unauthorized(c, "invalid claims")
	}
	tx, err := h.ledger.GetTransactionByUID(c.Context(), c.Params("uid"))
	if err != nil {
		if errors.Is(err, repositories.ErrTransactionNotFound) {
			return utils.NotFound(c, "transaction not found")
		}
		return utils.InternalError(c, "failed to get transaction")
	}
	return utils.Success(c, fiber.Map{"transaction": tx})
}

// mapLedgerError translates engine errors into HTTP responses, keeping
// the user-facing message intact for limit rejections.
func (h *WalletHandler) mapLedgerError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrInvalidCurrency),
		errors.Is(err, ledger.ErrSelfTransfer),
		errors.Is(err, ledger.ErrSameCurrency):
		return utils.BadRequest(c, err.Error())
	case errors.Is(err, ledger.ErrTwoFactorRequired),
		errors.Is(err, ledger.ErrTwoFactorInvalid):
		return utils.Unauthorized(c, err.Error())
	case errors.Is(err, ledger.ErrAccountDisabled):
		return utils.Forbidden(c, err.Error())
	case errors.Is(err, ledger.ErrWalletNotFound),
		errors.Is(err, ledger.ErrUserNotFound):
		return utils.NotFound(c, err.Error())
	case errors.Is(err, ledger.ErrInsufficientFunds),
		errors.Is(err, ledger.ErrDailyLimitExceeded),
		errors.Is(err, ledger.ErrNoActiveCard),
		errors.Is(err, ledger.ErrGatewayRejected):
		return utils.UnprocessableEntity(c, err.Error())
	default:
		return utils.InternalError(c, "operation failed")
	}
}
