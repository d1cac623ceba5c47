package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Transaction types
const (
	TransactionTypeDeposit     = "DEPOSIT"
	TransactionTypeWithdrawal  = "WITHDRAWAL"
	TransactionTypeTransferIn  = "TRANSFER_IN"
	TransactionTypeTransferOut = "TRANSFER_OUT"
	TransactionTypeConvertIn   = "CONVERT_IN"
	TransactionTypeConvertOut  = "CONVERT_OUT"
)

// Transaction statuses
const (
	TransactionStatusPending   = "PENDING"
	TransactionStatusCompleted = "COMPLETED"
	TransactionStatusFailed    = "FAILED"
)

// Transaction is an immutable record of one balance-affecting event.
// Amount is signed: positive for money entering the wallet, negative for
// money leaving it. BalanceAfter snapshots the wallet balance as of this
// transaction, taken in the same unit of work that applied it.
type Transaction struct {
	ID             uint   `gorm:"primarykey"`
	TransactionUID string `gorm:"uniqueIndex;not null;size:36"`
	// SecurityCode is shared by the two legs of a transfer so they can be
	// correlated; empty for every other type.
	SecurityCode  string          `gorm:"size:3"`
	WalletID      uint            `gorm:"not null;index"`
	Type          string          `gorm:"not null;size:20"`
	Amount        decimal.Decimal `gorm:"type:numeric(19,2);not null"`
	Currency      string          `gorm:"not null;size:3"`
	BalanceAfter  decimal.Decimal `gorm:"type:numeric(19,2)"`
	Description   string          `gorm:"size:255"`
	RelatedUserID *uint
	Status        string    `gorm:"not null;size:20;default:'PENDING'"`
	CreatedAt     time.Time `gorm:"not null"`
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.TransactionUID == "" {
		t.TransactionUID = uuid.New().String()
	}
	return nil
}
