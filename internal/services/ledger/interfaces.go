package ledger

import (
	"context"

	"enpay/internal/models"

	"github.com/shopspring/decimal"
)

// Service is the transaction engine. Every balance mutation in the
// platform funnels through one of the four money operations here; each
// runs as a single unit of work that updates balances and appends the
// matching transaction records together.
type Service interface {
	// Deposit charges the caller's active card and credits the PEN wallet.
	Deposit(ctx context.Context, userID uint, amount decimal.Decimal, description string) (*models.Transaction, error)
	// Withdraw debits the PEN wallet and credits the caller's active card.
	Withdraw(ctx context.Context, userID uint, amount decimal.Decimal, description string) (*models.Transaction, error)
	// Transfer moves money between two users' same-currency wallets and
	// returns the sender's TRANSFER_OUT leg.
	Transfer(ctx context.Context, cmd TransferCommand) (*models.Transaction, error)
	// Convert exchanges between two of the caller's own wallets at the
	// oracle rate and returns the CONVERT_OUT leg.
	Convert(ctx context.Context, userID uint, fromCurrency, toCurrency string, amount decimal.Decimal, description string) (*models.Transaction, error)

	GetOrCreateWallet(ctx context.Context, userID uint, currency string) (*models.Wallet, error)
	GetWallet(ctx context.Context, userID uint, currency string) (*models.Wallet, error)
	GetWallets(ctx context.Context, userID uint) ([]*models.Wallet, error)
	GetTransactions(ctx context.Context, userID uint, limit int) ([]*models.Transaction, error)
	GetTransactionByUID(ctx context.Context, uid string) (*models.Transaction, error)
}
