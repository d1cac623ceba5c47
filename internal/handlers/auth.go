package handlers

import (
	"errors"

	"enpay/internal/middleware"
	"enpay/internal/services/auth"
	"enpay/internal/services/user"
	"enpay/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type AuthHandler struct {
	auth  auth.Service
	users user.Service
}

func NewAuthHandler(authSvc auth.Service, userSvc user.Service) *AuthHandler {
	return &AuthHandler{auth: authSvc, users: userSvc}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var input struct {
		Email    string `json:"email"`
		Phone    string `json:"phone"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}

	created, err := h.auth.Register(c.Context(), auth.RegisterRequest{
		Email:    input.Email,
		Phone:    input.Phone,
		Password: input.Password,
		Name:     input.Name,
	})
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrEmailTaken), errors.Is(err, auth.ErrPhoneTaken):
			return utils.Conflict(c, err.Error())
		default:
			return utils.BadRequest(c, err.Error())
		}
	}
	return utils.Created(c, fiber.Map{"user": created})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}

	loggedIn, pair, err := h.auth.Login(c.Context(), input.Email, input.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrAccountDisabled):
			return utils.Forbidden(c, err.Error())
		default:
			return utils.Unauthorized(c, "invalid email or password")
		}
	}
	return utils.Success(c, fiber.Map{"user": loggedIn, "tokens": pair})
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var input struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}
	pair, err := h.auth.Refresh(c.Context(), input.RefreshToken)
	if err != nil {
		return utils.Unauthorized(c, "invalid refresh token")
	}
	return utils.Success(c, fiber.Map{"tokens": pair})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	claims := middleware.GetClaims(c)
	if claims == nil {
		return utils.Unauthorized(c, "invalid claims")
	}
	if err := h.auth.Logout(c.Context(), claims.UserID); err != nil {
		return utils.InternalError(c, "failed to log out")
	}
	return utils.Success(c, fiber.Map{"message": "logged out"})
}

func (h *AuthHandler) DeleteAccount(c *fiber.Ctx) error {
	claims := middleware.GetClaims(c)
	if claims == nil {
		return utils.Unauthorized(c, "invalid claims")
	}
	if err := h.auth.DeleteAccount(c.Context(), claims.UserID); err != nil {
		return utils.InternalError(c, "failed to delete account")
	}
	return utils.Success(c, fiber.Map{"message": "account deleted"})
}

func (h *AuthHandler) GetProfile(c *fiber.Ctx) error {
	claims := middleware.GetClaims(c)
	if claims == nil {
		return utils.Unauthorized(c, "invalid claims")
	}
	profile, err := h.users.GetProfile(c.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return utils.NotFound(c, err.Error())
		}
		return utils.InternalError(c, "failed to get profile")
	}
	return utils.Success(c, fiber.Map{"user": profile})
}

func (h *AuthHandler) UpdateProfile(c *fiber.Ctx) error {
	claims := middleware.GetClaims(c)
	if claims == nil {
		return utils.Unauthorized(c, "invalid claims")
	}
	var input struct {
		Name string `json:"name"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}
	updated, err := h.users.UpdateProfile(c.Context(), claims.UserID, input.Name)
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}
	return utils.Success(c, fiber.Map{"user": updated})
}

func (h *AuthHandler) UpdateDailyLimit(c *fiber.Ctx) error {
	claims := middleware.GetClaims(c)
	if claims == nil {
		return utils.Unauthorized(c, "invalid claims")
	}
	var input struct {
		DailyLimit string `json:"daily_limit"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}
	limit, err := decimal.NewFromString(input.DailyLimit)
	if err != nil {
		return utils.BadRequest(c, "invalid daily limit")
	}
	updated, err := h.users.UpdateDailyLimit(c.Context(), claims.UserID, limit)
	if err != nil {
		if errors.Is(err, user.ErrLimitTooLow) {
			return utils.BadRequest(c, err.Error())
		}
		return utils.BadRequest(c, err.Error())
	}
	return utils.Success(c, fiber.Map{"user": updated})
}
