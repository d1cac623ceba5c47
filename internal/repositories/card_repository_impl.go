package repositories

import (
	"errors"
	"fmt"

	"enpay/internal/models"

	"gorm.io/gorm"
)

type cardRepository struct {
	db *gorm.DB
}

func NewCardRepository(db *gorm.DB) CardRepository {
	return &cardRepository{db: db}
}

func (r *cardRepository) Create(card *models.UserCard) error {
	if err := r.db.Create(card).Error; err != nil {
		return fmt.Errorf("failed to create card binding: %w", err)
	}
	return nil
}

func (r *cardRepository) Update(card *models.UserCard) error {
	if err := r.db.Save(card).Error; err != nil {
		return fmt.Errorf("failed to update card binding: %w", err)
	}
	return nil
}

func (r *cardRepository) GetActiveByUserID(userID uint) (*models.UserCard, error) {
	var card models.UserCard
	err := r.db.Where("user_id = ? AND active = true", userID).
		Order("updated_at DESC").
		First(&card).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCardNotFound
		}
		return nil, fmt.Errorf("failed to get active card: %w", err)
	}
	return &card, nil
}

func (r *cardRepository) GetByNumber(cardNumber string) (*models.UserCard, error) {
	var card models.UserCard
	err := r.db.Where("card_number = ?", cardNumber).First(&card).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCardNotFound
		}
		return nil, fmt.Errorf("failed to get card by number: %w", err)
	}
	return &card, nil
}

func (r *cardRepository) DeactivateAllForUser(userID uint) error {
	err := r.db.Model(&models.UserCard{}).
		Where("user_id = ? AND active = true", userID).
		Update("active", false).Error
	if err != nil {
		return fmt.Errorf("failed to deactivate cards: %w", err)
	}
	return nil
}

func (r *cardRepository) ExecuteInTransaction(fn func(CardRepository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&cardRepository{db: tx})
	})
}

type bankCardRepository struct {
	db *gorm.DB
}

func NewBankCardRepository(db *gorm.DB) BankCardRepository {
	return &bankCardRepository{db: db}
}

func (r *bankCardRepository) Create(card *models.BankCard) error {
	if err := r.db.Create(card).Error; err != nil {
		return fmt.Errorf("failed to create bank card: %w", err)
	}
	return nil
}

func (r *bankCardRepository) GetByNumber(number string) (*models.BankCard, error) {
	var card models.BankCard
	err := r.db.Where("number = ?", number).First(&card).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBankCardNotFound
		}
		return nil, fmt.Errorf("failed to get bank card: %w", err)
	}
	return &card, nil
}

func (r *bankCardRepository) Update(card *models.BankCard) error {
	if err := r.db.Save(card).Error; err != nil {
		return fmt.Errorf("failed to update bank card: %w", err)
	}
	return nil
}
