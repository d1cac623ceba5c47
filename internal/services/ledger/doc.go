// Package ledger is the wallet transaction engine. It owns every
// balance mutation: card-funded deposits, card withdrawals, peer
// transfers and currency conversions. Each operation runs in a single
// database transaction that updates wallet balances and appends the
// matching immutable transaction records, so a wallet's balance always
// equals the sum of its completed transaction amounts.
package ledger
