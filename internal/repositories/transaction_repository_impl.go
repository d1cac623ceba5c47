package repositories

import (
	"errors"
	"fmt"

	"enpay/internal/models"

	"gorm.io/gorm"
)

type transactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) GetLatestByWallet(walletID uint, limit int) ([]*models.Transaction, error) {
	var txs []*models.Transaction
	err := r.db.Where("wallet_id = ?", walletID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&txs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions: %w", err)
	}
	return txs, nil
}

func (r *transactionRepository) GetLatestByWallets(walletIDs []uint, limit int) ([]*models.Transaction, error) {
	var txs []*models.Transaction
	err := r.db.Where("wallet_id IN ?", walletIDs).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&txs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions: %w", err)
	}
	return txs, nil
}

func (r *transactionRepository) GetByUID(uid string) (*models.Transaction, error) {
	var tx models.Transaction
	err := r.db.Where("transaction_uid = ?", uid).First(&tx).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return &tx, nil
}

func (r *transactionRepository) Count() (int64, error) {
	var count int64
	if err := r.db.Model(&models.Transaction{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}
