package repositories

import "errors"

var (
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrCardNotFound        = errors.New("card not found")
	ErrBankCardNotFound    = errors.New("bank card not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrDuplicateKey        = errors.New("duplicate key")
)
