package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet statuses
const (
	WalletStatusActive = "ACTIVE"
	WalletStatusFrozen = "FROZEN"
)

// Wallet is a per-user, per-currency balance record. Only the ledger
// engine writes Balance; every change is paired with a Transaction row.
type Wallet struct {
	ID           uint            `gorm:"primarykey"`
	UserID       uint            `gorm:"not null;index;uniqueIndex:idx_wallet_user_currency"`
	Currency     string          `gorm:"not null;size:3;uniqueIndex:idx_wallet_user_currency"`
	WalletNumber string          `gorm:"uniqueIndex;not null;size:20"`
	Balance      decimal.Decimal `gorm:"type:numeric(19,2);not null;default:0"`
	Status       string          `gorm:"not null;default:'ACTIVE'"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
