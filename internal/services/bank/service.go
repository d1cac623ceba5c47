// Package bank simulates the external card network used for settlement.
// It validates cards and moves money on and off them against its own
// card table, standing in for a real acquirer integration.
package bank

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"enpay/internal/models"
	"enpay/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type service struct {
	repo repositories.BankCardRepository
}

// NewService builds the settlement gateway backed by the bank card table.
func NewService(repo repositories.BankCardRepository) Gateway {
	if repo == nil {
		panic("bank card repo is required")
	}
	return &service{repo: repo}
}

func (s *service) ValidateCard(ctx context.Context, req ValidateCardRequest) (ValidateCardResult, error) {
	card, err := s.repo.GetByNumber(req.Number)
	if err != nil {
		if errors.Is(err, repositories.ErrBankCardNotFound) {
			return ValidateCardResult{Reason: "card not found"}, nil
		}
		return ValidateCardResult{}, fmt.Errorf("bank lookup failed: %w", err)
	}

	if card.CVV != req.CVV {
		return ValidateCardResult{Reason: "incorrect CVV"}, nil
	}
	if card.Expiry != req.Expiry {
		return ValidateCardResult{Reason: "incorrect expiry date"}, nil
	}
	if !strings.EqualFold(strings.TrimSpace(card.HolderName), strings.TrimSpace(req.HolderName)) {
		return ValidateCardResult{Reason: "holder name does not match"}, nil
	}
	if !card.Active {
		return ValidateCardResult{Reason: "card is deactivated"}, nil
	}

	masked := MaskNumber(card.Number)
	log.Printf("bank: card validated %s", masked)

	return ValidateCardResult{
		OK:           true,
		MaskedNumber: masked,
		HolderName:   card.HolderName,
	}, nil
}

func (s *service) Charge(ctx context.Context, cardNumber string, amount decimal.Decimal) (SettlementResult, error) {
	card, err := s.repo.GetByNumber(cardNumber)
	if err != nil {
		if errors.Is(err, repositories.ErrBankCardNotFound) {
			return SettlementResult{Reason: "card not found"}, nil
		}
		return SettlementResult{}, fmt.Errorf("bank lookup failed: %w", err)
	}

	if card.Balance.LessThan(amount) {
		return SettlementResult{
			Reason:         "insufficient funds on card",
			NewCardBalance: card.Balance,
		}, nil
	}

	card.Balance = card.Balance.Sub(amount)
	card.UpdatedAt = time.Now()
	if err := s.repo.Update(card); err != nil {
		return SettlementResult{}, fmt.Errorf("bank charge failed: %w", err)
	}

	ref := chargeRef()
	log.Printf("bank: charged %s, ref %s", amount, ref)

	return SettlementResult{
		OK:             true,
		SettlementRef:  ref,
		NewCardBalance: card.Balance,
	}, nil
}

func (s *service) Credit(ctx context.Context, cardNumber string, amount decimal.Decimal) (SettlementResult, error) {
	card, err := s.repo.GetByNumber(cardNumber)
	if err != nil {
		if errors.Is(err, repositories.ErrBankCardNotFound) {
			return SettlementResult{Reason: "destination card not found"}, nil
		}
		return SettlementResult{}, fmt.Errorf("bank lookup failed: %w", err)
	}

	card.Balance = card.Balance.Add(amount)
	card.UpdatedAt = time.Now()
	if err := s.repo.Update(card); err != nil {
		return SettlementResult{}, fmt.Errorf("bank credit failed: %w", err)
	}

	ref := creditRef()
	log.Printf("bank: credited %s, ref %s", amount, ref)

	return SettlementResult{
		OK:             true,
		SettlementRef:  ref,
		NewCardBalance: card.Balance,
	}, nil
}

// MaskNumber hides all but the last four digits of a card number.
func MaskNumber(number string) string {
	if len(number) < 4 {
		return "****"
	}
	return "**** **** **** " + number[len(number)-4:]
}

func chargeRef() string {
	return "BCP-" + strings.ToUpper(uuid.New().String()[:8])
}

func creditRef() string {
	return "BANK-ABN-" + uuid.New().String()[:8]
}

var _ Gateway = (*service)(nil)

// Seed inserts a bank card if it does not exist yet; used by the seeder.
func Seed(repo repositories.BankCardRepository, card *models.BankCard) error {
	if _, err := repo.GetByNumber(card.Number); err == nil {
		return nil
	}
	return repo.Create(card)
}
