package bank

import (
	"context"

	"github.com/shopspring/decimal"
)

// ValidateCardRequest carries the card details a user submits when
// activating a card.
type ValidateCardRequest struct {
	Number     string
	CVV        string
	Expiry     string
	HolderName string
}

// ValidateCardResult is the gateway's answer to a validation request.
// When OK is false, Reason explains the rejection in user-facing terms.
type ValidateCardResult struct {
	OK           bool
	MaskedNumber string
	HolderName   string
	Reason       string
}

// SettlementResult is the outcome of a charge or credit against the card
// network. SettlementRef uniquely identifies the movement on the bank
// side.
type SettlementResult struct {
	OK             bool
	SettlementRef  string
	NewCardBalance decimal.Decimal
	Reason         string
}

// Gateway is the settlement contract the ledger engine depends on.
// Charge moves money from the card into the platform (cash-in); Credit
// moves money from the platform onto the card (cash-out).
type Gateway interface {
	ValidateCard(ctx context.Context, req ValidateCardRequest) (ValidateCardResult, error)
	Charge(ctx context.Context, cardNumber string, amount decimal.Decimal) (SettlementResult, error)
	Credit(ctx context.Context, cardNumber string, amount decimal.Decimal) (SettlementResult, error)
}
