package ledger

import (
	"context"
	"errors"
	"sync"
	"time"

	"enpay/internal/models"
	"enpay/internal/repositories"
	"enpay/internal/services/bank"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// fakeStore is an in-memory stand-in for the database shared by the
// repository fakes. ExecuteInTransaction snapshots it so a failing unit
// of work rolls back exactly like the real thing.
type fakeStore struct {
	mu           sync.Mutex
	wallets      map[uint]*models.Wallet
	users        map[uint]*models.User
	txs          []*models.Transaction
	nextWalletID uint
	nextTxID     uint
	failCreateTx bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		wallets: make(map[uint]*models.Wallet),
		users:   make(map[uint]*models.User),
	}
}

func (st *fakeStore) addUser(u *models.User) *models.User {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.users[u.ID] = copyUser(u)
	return u
}

func (st *fakeStore) addWallet(w *models.Wallet) *models.Wallet {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.nextWalletID++
	w.ID = st.nextWalletID
	if w.WalletNumber == "" {
		w.WalletNumber = generateWalletNumber()
	}
	cp := *w
	st.wallets[w.ID] = &cp
	return w
}

func (st *fakeStore) walletBalance(id uint) decimal.Decimal {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.wallets[id].Balance
}

func (st *fakeStore) transactionCount() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.txs)
}

func copyUser(u *models.User) *models.User {
	cp := *u
	if u.DailyLimit != nil {
		l := *u.DailyLimit
		cp.DailyLimit = &l
	}
	if u.LastVolumeResetAt != nil {
		t := *u.LastVolumeResetAt
		cp.LastVolumeResetAt = &t
	}
	return &cp
}

type fakeWalletRepo struct {
	store *fakeStore
}

var _ repositories.WalletRepository = (*fakeWalletRepo)(nil)

func (f *fakeWalletRepo) Create(wallet *models.Wallet) error {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	for _, w := range f.store.wallets {
		if (w.UserID == wallet.UserID && w.Currency == wallet.Currency) ||
			w.WalletNumber == wallet.WalletNumber {
			return repositories.ErrDuplicateKey
		}
	}
	f.store.nextWalletID++
	wallet.ID = f.store.nextWalletID
	wallet.CreatedAt = time.Now()
	cp := *wallet
	f.store.wallets[wallet.ID] = &cp
	return nil
}

func (f *fakeWalletRepo) GetByUserID(userID uint) ([]*models.Wallet, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	var out []*models.Wallet
	for _, w := range f.store.wallets {
		if w.UserID == userID {
			cp := *w
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeWalletRepo) GetByUserIDAndCurrency(userID uint, currency string) (*models.Wallet, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	for _, w := range f.store.wallets {
		if w.UserID == userID && w.Currency == currency {
			cp := *w
			return &cp, nil
		}
	}
	return nil, repositories.ErrWalletNotFound
}

func (f *fakeWalletRepo) GetByUserIDAndCurrencyForUpdate(userID uint, currency string) (*models.Wallet, error) {
	return f.GetByUserIDAndCurrency(userID, currency)
}

func (f *fakeWalletRepo) Update(wallet *models.Wallet) error {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	if _, ok := f.store.wallets[wallet.ID]; !ok {
		return repositories.ErrWalletNotFound
	}
	cp := *wallet
	cp.UpdatedAt = time.Now()
	f.store.wallets[wallet.ID] = &cp
	return nil
}

func (f *fakeWalletRepo) CreateTransaction(tx *models.Transaction) error {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	if f.store.failCreateTx {
		return errors.New("injected transaction log failure")
	}
	f.store.nextTxID++
	tx.ID = f.store.nextTxID
	if tx.TransactionUID == "" {
		tx.TransactionUID = uuid.New().String()
	}
	tx.CreatedAt = time.Now()
	cp := *tx
	f.store.txs = append(f.store.txs, &cp)
	return nil
}

func (f *fakeWalletRepo) GetUserForUpdate(userID uint) (*models.User, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	u, ok := f.store.users[userID]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	return copyUser(u), nil
}

func (f *fakeWalletRepo) UpdateUser(user *models.User) error {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	if _, ok := f.store.users[user.ID]; !ok {
		return repositories.ErrUserNotFound
	}
	f.store.users[user.ID] = copyUser(user)
	return nil
}

func (f *fakeWalletRepo) TotalBalanceByCurrency(currency string) (decimal.Decimal, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	total := decimal.Zero
	for _, w := range f.store.wallets {
		if w.Currency == currency {
			total = total.Add(w.Balance)
		}
	}
	return total, nil
}

func (f *fakeWalletRepo) CountWallets() (int64, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	return int64(len(f.store.wallets)), nil
}

func (f *fakeWalletRepo) ExecuteInTransaction(fn func(repositories.WalletRepository) error) error {
	f.store.mu.Lock()
	snapWallets := make(map[uint]*models.Wallet, len(f.store.wallets))
	for id, w := range f.store.wallets {
		cp := *w
		snapWallets[id] = &cp
	}
	snapUsers := make(map[uint]*models.User, len(f.store.users))
	for id, u := range f.store.users {
		snapUsers[id] = copyUser(u)
	}
	snapTxs := append([]*models.Transaction(nil), f.store.txs...)
	snapWalletID, snapTxID := f.store.nextWalletID, f.store.nextTxID
	f.store.mu.Unlock()

	if err := fn(f); err != nil {
		f.store.mu.Lock()
		f.store.wallets = snapWallets
		f.store.users = snapUsers
		f.store.txs = snapTxs
		f.store.nextWalletID, f.store.nextTxID = snapWalletID, snapTxID
		f.store.mu.Unlock()
		return err
	}
	return nil
}

type fakeTxRepo struct {
	store *fakeStore
}

var _ repositories.TransactionRepository = (*fakeTxRepo)(nil)

func (f *fakeTxRepo) GetLatestByWallet(walletID uint, limit int) ([]*models.Transaction, error) {
	return f.GetLatestByWallets([]uint{walletID}, limit)
}

func (f *fakeTxRepo) GetLatestByWallets(walletIDs []uint, limit int) ([]*models.Transaction, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	match := make(map[uint]bool, len(walletIDs))
	for _, id := range walletIDs {
		match[id] = true
	}
	var out []*models.Transaction
	for i := len(f.store.txs) - 1; i >= 0 && len(out) < limit; i-- {
		if match[f.store.txs[i].WalletID] {
			cp := *f.store.txs[i]
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeTxRepo) GetByUID(uid string) (*models.Transaction, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	for _, tx := range f.store.txs {
		if tx.TransactionUID == uid {
			cp := *tx
			return &cp, nil
		}
	}
	return nil, repositories.ErrTransactionNotFound
}

func (f *fakeTxRepo) Count() (int64, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	return int64(len(f.store.txs)), nil
}

type fakeUserRepo struct {
	store *fakeStore
}

var _ repositories.UserRepository = (*fakeUserRepo)(nil)

func (f *fakeUserRepo) Create(user *models.User) error {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	f.store.users[user.ID] = copyUser(user)
	return nil
}

func (f *fakeUserRepo) GetByID(id uint) (*models.User, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	u, ok := f.store.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	return copyUser(u), nil
}

func (f *fakeUserRepo) GetByEmail(email string) (*models.User, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	for _, u := range f.store.users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (f *fakeUserRepo) GetByPhone(phone string) (*models.User, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	for _, u := range f.store.users {
		if u.Phone == phone {
			return copyUser(u), nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (f *fakeUserRepo) Update(user *models.User) error {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	if _, ok := f.store.users[user.ID]; !ok {
		return repositories.ErrUserNotFound
	}
	f.store.users[user.ID] = copyUser(user)
	return nil
}

func (f *fakeUserRepo) IncrementTokenVersion(userID uint) error {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	u, ok := f.store.users[userID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.TokenVersion++
	return nil
}

func (f *fakeUserRepo) Count() (int64, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	return int64(len(f.store.users)), nil
}

type fakeCardProvider struct {
	cards map[uint]*models.UserCard
}

func (f *fakeCardProvider) GetActiveCard(userID uint) (*models.UserCard, error) {
	card, ok := f.cards[userID]
	if !ok {
		return nil, errors.New("no active card")
	}
	return card, nil
}

// fakeGateway approves everything unless told otherwise.
type fakeGateway struct {
	rejectCharge bool
	rejectCredit bool
	chargeErr    error
	charges      []decimal.Decimal
	credits      []decimal.Decimal
}

func (f *fakeGateway) ValidateCard(ctx context.Context, req bank.ValidateCardRequest) (bank.ValidateCardResult, error) {
	return bank.ValidateCardResult{OK: true}, nil
}

func (f *fakeGateway) Charge(ctx context.Context, cardNumber string, amount decimal.Decimal) (bank.SettlementResult, error) {
	if f.chargeErr != nil {
		return bank.SettlementResult{}, f.chargeErr
	}
	if f.rejectCharge {
		return bank.SettlementResult{OK: false, Reason: "insufficient card funds"}, nil
	}
	f.charges = append(f.charges, amount)
	return bank.SettlementResult{OK: true, SettlementRef: "BCP-TESTREF1"}, nil
}

func (f *fakeGateway) Credit(ctx context.Context, cardNumber string, amount decimal.Decimal) (bank.SettlementResult, error) {
	if f.rejectCredit {
		return bank.SettlementResult{OK: false, Reason: "card inactive"}, nil
	}
	f.credits = append(f.credits, amount)
	return bank.SettlementResult{OK: true, SettlementRef: "BANK-ABN-testref1"}, nil
}

type fakeOracle struct {
	rates map[string]decimal.Decimal
	err   error
}

func (f *fakeOracle) GetRate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	if f.err != nil {
		return decimal.Zero, f.err
	}
	rate, ok := f.rates[from+":"+to]
	if !ok {
		return decimal.Zero, errors.New("no rate")
	}
	return rate, nil
}

type fakeTwoFactor struct {
	enabled   map[uint]bool
	validCode string
}

func (f *fakeTwoFactor) IsEnabled(userID uint) bool {
	return f.enabled[userID]
}

func (f *fakeTwoFactor) VerifyCode(userID uint, code string) bool {
	return f.enabled[userID] && code == f.validCode
}

// recordingMetrics captures engine events for assertions.
type recordingMetrics struct {
	transactions    []string
	errors          []string
	inconsistencies []string
}

func (m *recordingMetrics) RecordTransaction(txType string, amount decimal.Decimal) {
	m.transactions = append(m.transactions, txType)
}

func (m *recordingMetrics) RecordError(operation, errType string) {
	m.errors = append(m.errors, operation+"/"+errType)
}

func (m *recordingMetrics) RecordInconsistency(operation, settlementRef string) {
	m.inconsistencies = append(m.inconsistencies, operation+"/"+settlementRef)
}
