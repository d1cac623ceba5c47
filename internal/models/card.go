package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// UserCard binds an external card to a user account. The full number is
// kept for settlement calls only and never serialized to callers.
type UserCard struct {
	ID           uint   `gorm:"primarykey"`
	UserID       uint   `gorm:"not null;index"`
	CardNumber   string `gorm:"not null;index;size:19" json:"-"`
	MaskedNumber string `gorm:"not null;size:19"`
	HolderName   string `gorm:"not null"`
	Verified     bool   `gorm:"default:false"`
	Active       bool   `gorm:"default:true"`
	VerifiedAt   *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// BankCard is a row in the simulated card network: the settlement gateway
// validates, charges and credits against these.
type BankCard struct {
	ID         uint            `gorm:"primarykey"`
	Number     string          `gorm:"uniqueIndex;not null;size:19"`
	CVV        string          `gorm:"not null;size:4" json:"-"`
	Expiry     string          `gorm:"not null;size:5"`
	HolderName string          `gorm:"not null"`
	Balance    decimal.Decimal `gorm:"type:numeric(19,2);not null;default:0"`
	Active     bool            `gorm:"default:true"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
