package handlers

import (
	"errors"

	"enpay/internal/middleware"
	"enpay/internal/services/bank"
	"enpay/internal/services/card"
	"enpay/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type CardHandler struct {
	cards card.Service
}

func NewCardHandler(cardSvc card.Service) *CardHandler {
	return &CardHandler{cards: cardSvc}
}

func (h *CardHandler) Activate(c *fiber.Ctx) error {
	claims := middleware.GetClaims(c)
	if claims == nil {
		return utils.Unauthorized(c, "invalid claims")
	}
	var input struct {
		CardNumber string `json:"card_number"`
		CVV        string `json:"cvv"`
		Expiry     string `json:"expiry"`
		HolderName string `json:"holder_name"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}

	activated, err := h.cards.Activate(c.Context(), claims.UserID, bank.ValidateCardRequest{
		Number:     input.CardNumber,
		CVV:        input.CVV,
		Expiry:     input.Expiry,
		HolderName: input.HolderName,
	})
	if err != nil {
		switch {
		case errors.Is(err, card.ErrValidationFailed):
			return utils.UnprocessableEntity(c, err.Error())
		case errors.Is(err, card.ErrCardInUse):
			return utils.Conflict(c, err.Error())
		default:
			return utils.InternalError(c, "failed to activate card")
		}
	}
	return utils.Success(c, fiber.Map{"card": activated})
}

func (h *CardHandler) Deactivate(c *fiber.Ctx) error {
	claims := middleware.GetClaims(c)
	if claims == nil {
		return utils.Unauthorized(c, "invalid claims")
	}
	if err := h.cards.Deactivate(claims.UserID); err != nil {
		return utils.InternalError(c, "failed to deactivate card")
	}
	return utils.Success(c, fiber.Map{"message": "card deactivated"})
}

func (h *CardHandler) GetActiveCard(c *fiber.Ctx) error {
	claims := middleware.GetClaims(c)
	if claims == nil {
		return utils.Unauthorized(c, "invalid claims")
	}
	active, err := h.cards.GetActiveCard(claims.UserID)
	if err != nil {
		if errors.Is(err, card.ErrNoActiveCard) {
			return utils.NotFound(c, err.Error())
		}
		return utils.InternalError(c, "failed to get card")
	}
	return utils.Success(c, fiber.Map{"card": active})
}
