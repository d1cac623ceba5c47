package ledger

import "time"

// BaseCurrency is the platform's settlement currency: deposits and
// withdrawals always move through the PEN wallet.
const BaseCurrency = "PEN"

// Currencies wallets can be opened in.
var supportedCurrencies = map[string]bool{
	"PEN": true,
	"USD": true,
	"EUR": true,
}

// Wallet numbers look like EN0A1B2C3D4E5F6A7B8C.
const (
	walletNumberPrefix       = "EN"
	walletNumberLength       = 18
	maxWalletNumberAttempts  = 5
	defaultTransactionsLimit = 20
)

// Cache keys and durations
const (
	walletCachePrefix = "wallet"
	walletCacheTTL    = 5 * time.Minute
)

// Defaults used when the config leaves a value unset.
const (
	defaultDailyLimitStr = "500.00"
	defaultUSDToPENStr   = "3.75"
)
