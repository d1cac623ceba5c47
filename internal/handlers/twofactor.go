package handlers

import (
	"errors"

	"enpay/internal/middleware"
	"enpay/internal/services/twofactor"
	"enpay/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type TwoFactorHandler struct {
	twoFactor twofactor.Service
}

func NewTwoFactorHandler(tfSvc twofactor.Service) *TwoFactorHandler {
	return &TwoFactorHandler{twoFactor: tfSvc}
}

// Setup issues a short-lived setup code the user must echo back to
// enable 2FA. In production the code would go out via SMS or an
// authenticator provisioning flow; here it is returned directly.
func (h *TwoFactorHandler) Setup(c *fiber.Ctx) error {
	claims := middleware.GetClaims(c)
	if claims == nil {
		return utils.Unauthorized(c, "invalid claims")
	}
	code, err := h.twoFactor.GenerateSetupCode(claims.UserID)
	if err != nil {
		return utils.InternalError(c, "failed to generate setup code")
	}
	return utils.Success(c, fiber.Map{"setup_code": code})
}

func (h *TwoFactorHandler) Enable(c *fiber.Ctx) error {
	claims := middleware.GetClaims(c)
	if claims == nil {
		return utils.Unauthorized(c, "invalid claims")
	}
	var input struct {
		Code string `json:"code"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}
	ok, err := h.twoFactor.VerifyAndEnable(claims.UserID, input.Code)
	if err != nil {
		switch {
		case errors.Is(err, twofactor.ErrNoSetupCode), errors.Is(err, twofactor.ErrSetupCodeExpired):
			return utils.BadRequest(c, err.Error())
		default:
			return utils.InternalError(c, "failed to enable 2FA")
		}
	}
	if !ok {
		return utils.BadRequest(c, "invalid setup code")
	}
	return utils.Success(c, fiber.Map{"message": "2FA enabled"})
}

func (h *TwoFactorHandler) Disable(c *fiber.Ctx) error {
	claims := middleware.GetClaims(c)
	if claims == nil {
		return utils.Unauthorized(c, "invalid claims")
	}
	var input struct {
		Code string `json:"code"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}
	ok, err := h.twoFactor.Disable(claims.UserID, input.Code)
	if err != nil {
		if errors.Is(err, twofactor.ErrNotEnabled) {
			return utils.BadRequest(c, err.Error())
		}
		return utils.InternalError(c, "failed to disable 2FA")
	}
	if !ok {
		return utils.BadRequest(c, "invalid 2FA code")
	}
	return utils.Success(c, fiber.Map{"message": "2FA disabled"})
}

func (h *TwoFactorHandler) Status(c *fiber.Ctx) error {
	claims := middleware.GetClaims(c)
	if claims == nil {
		return utils.Unauthorized(c, "invalid claims")
	}
	return utils.Success(c, fiber.Map{"enabled": h.twoFactor.IsEnabled(claims.UserID)})
}
