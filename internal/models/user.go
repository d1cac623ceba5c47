package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Email    string `gorm:"uniqueIndex;not null"`
	Phone    string `gorm:"uniqueIndex;not null"`
	Password string `gorm:"not null" json:"-"`
	Name     string `gorm:"not null"`
	Role     string `gorm:"default:'user'"`
	Enabled  bool   `gorm:"default:true"`

	TwoFactorEnabled bool   `gorm:"default:false"`
	TwoFactorSecret  string `gorm:"default:''" json:"-"`

	// Daily transfer limit in PEN-equivalent. Nil means the default applies.
	DailyLimit        *decimal.Decimal `gorm:"type:numeric(19,2)"`
	DailyVolumePEN    decimal.Decimal  `gorm:"type:numeric(19,2);default:0"`
	DailyVolumeUSD    decimal.Decimal  `gorm:"type:numeric(19,2);default:0"`
	LastVolumeResetAt *time.Time

	TokenVersion int `gorm:"default:1"`
}
