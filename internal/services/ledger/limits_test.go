package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransfer_ExactLimitPasses(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(1, "Ana")
	env.seedUser(2, "Beto")
	env.seedWallet(1, "PEN", "1000.00")
	env.seedWallet(2, "PEN", "0")

	// Default limit is 500.00 PEN; landing exactly on it is allowed.
	_, err := env.svc.Transfer(context.Background(), TransferCommand{
		FromUserID: 1, ToUserID: 2, Amount: dec("500.00"), Currency: "PEN",
	})
	assert.NoError(t, err)
}

func TestTransfer_OneCentOverLimitFails(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(1, "Ana")
	env.seedUser(2, "Beto")
	env.seedWallet(1, "PEN", "1000.00")
	env.seedWallet(2, "PEN", "0")

	_, err := env.svc.Transfer(context.Background(), TransferCommand{
		FromUserID: 1, ToUserID: 2, Amount: dec("500.01"), Currency: "PEN",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDailyLimitExceeded)

	var limitErr *LimitExceededError
	require.ErrorAs(t, err, &limitErr)
	assert.True(t, limitErr.Limit.Equal(dec("500.00")))
	assert.True(t, limitErr.Spent.IsZero())
	assert.True(t, limitErr.Remaining.Equal(dec("500.00")))
	assert.Contains(t, err.Error(), "limit S/ 500.00")
	assert.Contains(t, err.Error(), "spent today S/ 0.00")
	assert.Contains(t, err.Error(), "available S/ 500.00")
}

func TestTransfer_VolumeAccumulatesWithinDay(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(1, "Ana")
	env.seedUser(2, "Beto")
	env.seedWallet(1, "PEN", "1000.00")
	env.seedWallet(2, "PEN", "0")

	ctx := context.Background()
	_, err := env.svc.Transfer(ctx, TransferCommand{
		FromUserID: 1, ToUserID: 2, Amount: dec("300.00"), Currency: "PEN",
	})
	require.NoError(t, err)

	_, err = env.svc.Transfer(ctx, TransferCommand{
		FromUserID: 1, ToUserID: 2, Amount: dec("200.01"), Currency: "PEN",
	})
	require.Error(t, err)

	var limitErr *LimitExceededError
	require.ErrorAs(t, err, &limitErr)
	assert.True(t, limitErr.Spent.Equal(dec("300.00")))
	assert.True(t, limitErr.Remaining.Equal(dec("200.00")))
}

func TestTransfer_USDVolumeNormalizedAtFixedRate(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(1, "Ana")
	env.seedUser(2, "Beto")
	env.seedWallet(1, "USD", "1000.00")
	env.seedWallet(1, "PEN", "1000.00")
	env.seedWallet(2, "USD", "0")
	env.seedWallet(2, "PEN", "0")

	ctx := context.Background()
	// 100 USD counts as 375.00 PEN against the 500.00 limit.
	_, err := env.svc.Transfer(ctx, TransferCommand{
		FromUserID: 1, ToUserID: 2, Amount: dec("100.00"), Currency: "USD",
	})
	require.NoError(t, err)

	// 125.00 PEN of headroom remains; 125.01 PEN must fail.
	_, err = env.svc.Transfer(ctx, TransferCommand{
		FromUserID: 1, ToUserID: 2, Amount: dec("125.01"), Currency: "PEN",
	})
	require.Error(t, err)
	var limitErr *LimitExceededError
	require.ErrorAs(t, err, &limitErr)
	assert.True(t, limitErr.Spent.Equal(dec("375.00")))
	assert.True(t, limitErr.Remaining.Equal(dec("125.00")))

	_, err = env.svc.Transfer(ctx, TransferCommand{
		FromUserID: 1, ToUserID: 2, Amount: dec("125.00"), Currency: "PEN",
	})
	assert.NoError(t, err)
}

func TestTransfer_StaleVolumeResetsLazily(t *testing.T) {
	env := newTestEnv(t)
	ana := env.seedUser(1, "Ana")
	env.seedUser(2, "Beto")
	env.seedWallet(1, "PEN", "1000.00")
	env.seedWallet(2, "PEN", "0")

	yesterday := time.Now().Add(-25 * time.Hour)
	ana.DailyVolumePEN = dec("499.00")
	ana.LastVolumeResetAt = &yesterday
	env.store.addUser(ana)

	// The stale counter no longer blocks a new day's transfer.
	_, err := env.svc.Transfer(context.Background(), TransferCommand{
		FromUserID: 1, ToUserID: 2, Amount: dec("400.00"), Currency: "PEN",
	})
	require.NoError(t, err)

	updated, err := env.svc.GetTransactions(context.Background(), 1, 1)
	require.NoError(t, err)
	require.Len(t, updated, 1)

	user, err := (&fakeUserRepo{store: env.store}).GetByID(1)
	require.NoError(t, err)
	assert.True(t, user.DailyVolumePEN.Equal(dec("400.00")))
	require.NotNil(t, user.LastVolumeResetAt)
	assert.WithinDuration(t, time.Now(), *user.LastVolumeResetAt, time.Minute)
}

func TestTransfer_CustomLimitOverridesDefault(t *testing.T) {
	env := newTestEnv(t)
	ana := env.seedUser(1, "Ana")
	env.seedUser(2, "Beto")
	env.seedWallet(1, "PEN", "5000.00")
	env.seedWallet(2, "PEN", "0")

	custom := dec("2000.00")
	ana.DailyLimit = &custom
	env.store.addUser(ana)

	_, err := env.svc.Transfer(context.Background(), TransferCommand{
		FromUserID: 1, ToUserID: 2, Amount: dec("1500.00"), Currency: "PEN",
	})
	assert.NoError(t, err)
}

func TestTransfer_LimitFailureLeavesVolumeUntouched(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(1, "Ana")
	env.seedUser(2, "Beto")
	fromWallet := env.seedWallet(1, "PEN", "1000.00")
	env.seedWallet(2, "PEN", "0")

	_, err := env.svc.Transfer(context.Background(), TransferCommand{
		FromUserID: 1, ToUserID: 2, Amount: dec("600.00"), Currency: "PEN",
	})
	require.ErrorIs(t, err, ErrDailyLimitExceeded)

	user, err := (&fakeUserRepo{store: env.store}).GetByID(1)
	require.NoError(t, err)
	assert.True(t, user.DailyVolumePEN.IsZero())
	assert.True(t, env.store.walletBalance(fromWallet.ID).Equal(dec("1000.00")))
}

func TestCheckDailyLimit_RemainingNeverNegative(t *testing.T) {
	env := newTestEnv(t)
	svc := env.svc.(*service)

	user := env.seedUser(1, "Ana")
	user.DailyVolumePEN = dec("600.00")

	err := svc.checkDailyLimit(user, dec("1.00"), "PEN")
	require.Error(t, err)
	var limitErr *LimitExceededError
	require.ErrorAs(t, err, &limitErr)
	assert.True(t, limitErr.Remaining.IsZero())
}

func TestNormalizeToPEN(t *testing.T) {
	env := newTestEnv(t)
	svc := env.svc.(*service)

	assert.True(t, svc.normalizeToPEN(dec("100.00"), "PEN").Equal(dec("100.00")))
	assert.True(t, svc.normalizeToPEN(dec("100.00"), "USD").Equal(dec("375.00")))
	assert.True(t, svc.normalizeToPEN(dec("100.00"), "EUR").Equal(dec("100.00")))
}

func TestResetDailyVolumeIfStale(t *testing.T) {
	recent := time.Now().Add(-1 * time.Hour)
	stale := time.Now().Add(-25 * time.Hour)

	env := newTestEnv(t)
	user := env.seedUser(1, "Ana")
	user.DailyVolumePEN = dec("100.00")
	user.DailyVolumeUSD = dec("50.00")

	user.LastVolumeResetAt = &recent
	resetDailyVolumeIfStale(user)
	assert.True(t, user.DailyVolumePEN.Equal(dec("100.00")), "recent volume kept")

	user.LastVolumeResetAt = &stale
	resetDailyVolumeIfStale(user)
	assert.True(t, user.DailyVolumePEN.IsZero())
	assert.True(t, user.DailyVolumeUSD.IsZero())

	user.DailyVolumePEN = dec("10.00")
	user.LastVolumeResetAt = nil
	resetDailyVolumeIfStale(user)
	assert.True(t, user.DailyVolumePEN.IsZero(), "nil reset time counts as stale")
}

func TestUserDailyLimit_Default(t *testing.T) {
	env := newTestEnv(t)
	svc := env.svc.(*service)

	user := env.seedUser(1, "Ana")
	assert.True(t, svc.userDailyLimit(user).Equal(dec("500.00")))

	custom := decimal.RequireFromString("750.00")
	user.DailyLimit = &custom
	assert.True(t, svc.userDailyLimit(user).Equal(dec("750.00")))
}
