package bank

import (
	"context"
	"testing"

	"enpay/internal/models"
	"enpay/internal/repositories"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBankCardRepo struct {
	cards map[string]*models.BankCard
}

func newFakeBankCardRepo(cards ...*models.BankCard) *fakeBankCardRepo {
	r := &fakeBankCardRepo{cards: make(map[string]*models.BankCard)}
	for _, c := range cards {
		r.cards[c.Number] = c
	}
	return r
}

func (r *fakeBankCardRepo) Create(card *models.BankCard) error {
	r.cards[card.Number] = card
	return nil
}

func (r *fakeBankCardRepo) GetByNumber(number string) (*models.BankCard, error) {
	card, ok := r.cards[number]
	if !ok {
		return nil, repositories.ErrBankCardNotFound
	}
	cp := *card
	return &cp, nil
}

func (r *fakeBankCardRepo) Update(card *models.BankCard) error {
	r.cards[card.Number] = card
	return nil
}

func testCard() *models.BankCard {
	return &models.BankCard{
		Number:     "4111111111111111",
		CVV:        "123",
		Expiry:     "12/27",
		HolderName: "MARIA QUISPE",
		Balance:    decimal.RequireFromString("200.00"),
		Active:     true,
	}
}

func TestValidateCard(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(*models.BankCard)
		req        ValidateCardRequest
		wantOK     bool
		wantReason string
	}{
		{
			name:   "valid card",
			req:    ValidateCardRequest{Number: "4111111111111111", CVV: "123", Expiry: "12/27", HolderName: "maria quispe"},
			wantOK: true,
		},
		{
			name:       "unknown number",
			req:        ValidateCardRequest{Number: "4000000000000000", CVV: "123", Expiry: "12/27", HolderName: "MARIA QUISPE"},
			wantReason: "card not found",
		},
		{
			name:       "wrong cvv",
			req:        ValidateCardRequest{Number: "4111111111111111", CVV: "999", Expiry: "12/27", HolderName: "MARIA QUISPE"},
			wantReason: "incorrect CVV",
		},
		{
			name:       "wrong expiry",
			req:        ValidateCardRequest{Number: "4111111111111111", CVV: "123", Expiry: "01/30", HolderName: "MARIA QUISPE"},
			wantReason: "incorrect expiry date",
		},
		{
			name:       "holder mismatch",
			req:        ValidateCardRequest{Number: "4111111111111111", CVV: "123", Expiry: "12/27", HolderName: "JUAN PEREZ"},
			wantReason: "holder name does not match",
		},
		{
			name:       "inactive card",
			mutate:     func(c *models.BankCard) { c.Active = false },
			req:        ValidateCardRequest{Number: "4111111111111111", CVV: "123", Expiry: "12/27", HolderName: "MARIA QUISPE"},
			wantReason: "card is deactivated",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card := testCard()
			if tt.mutate != nil {
				tt.mutate(card)
			}
			svc := NewService(newFakeBankCardRepo(card))

			res, err := svc.ValidateCard(context.Background(), tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, res.OK)
			if tt.wantOK {
				assert.Equal(t, "**** **** **** 1111", res.MaskedNumber)
				assert.Equal(t, "MARIA QUISPE", res.HolderName)
			} else {
				assert.Equal(t, tt.wantReason, res.Reason)
			}
		})
	}
}

func TestCharge(t *testing.T) {
	repo := newFakeBankCardRepo(testCard())
	svc := NewService(repo)

	res, err := svc.Charge(context.Background(), "4111111111111111", decimal.RequireFromString("50.00"))
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.True(t, res.NewCardBalance.Equal(decimal.RequireFromString("150.00")))
	assert.Contains(t, res.SettlementRef, "BCP-")
}

func TestCharge_InsufficientFunds(t *testing.T) {
	repo := newFakeBankCardRepo(testCard())
	svc := NewService(repo)

	res, err := svc.Charge(context.Background(), "4111111111111111", decimal.RequireFromString("200.01"))
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Equal(t, "insufficient funds on card", res.Reason)

	// Card untouched.
	card, _ := repo.GetByNumber("4111111111111111")
	assert.True(t, card.Balance.Equal(decimal.RequireFromString("200.00")))
}

func TestCredit(t *testing.T) {
	repo := newFakeBankCardRepo(testCard())
	svc := NewService(repo)

	res, err := svc.Credit(context.Background(), "4111111111111111", decimal.RequireFromString("25.50"))
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.True(t, res.NewCardBalance.Equal(decimal.RequireFromString("225.50")))
	assert.Contains(t, res.SettlementRef, "BANK-ABN-")
}

func TestMaskNumber(t *testing.T) {
	assert.Equal(t, "**** **** **** 1111", MaskNumber("4111111111111111"))
	assert.Equal(t, "****", MaskNumber("12"))
}
