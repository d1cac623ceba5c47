package repositories

import "enpay/internal/models"

// CardRepository persists user card bindings.
type CardRepository interface {
	Create(card *models.UserCard) error
	Update(card *models.UserCard) error
	// GetActiveByUserID returns the most recently updated active binding,
	// so stale duplicates from past inconsistencies never surface.
	GetActiveByUserID(userID uint) (*models.UserCard, error)
	GetByNumber(cardNumber string) (*models.UserCard, error)
	DeactivateAllForUser(userID uint) error

	// ExecuteInTransaction runs fn inside a single database transaction;
	// returning an error rolls every binding change back.
	ExecuteInTransaction(fn func(CardRepository) error) error
}

// BankCardRepository backs the simulated card network.
type BankCardRepository interface {
	Create(card *models.BankCard) error
	GetByNumber(number string) (*models.BankCard, error)
	Update(card *models.BankCard) error
}
