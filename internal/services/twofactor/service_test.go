package twofactor

import (
	"fmt"
	"strconv"
	"testing"
	"time"

	"enpay/internal/models"
	"enpay/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUserRepo struct {
	users map[uint]*models.User
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[uint]*models.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(u *models.User) error { r.users[u.ID] = u; return nil }
func (r *fakeUserRepo) GetByID(id uint) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}
func (r *fakeUserRepo) GetByEmail(string) (*models.User, error) {
	return nil, repositories.ErrUserNotFound
}
func (r *fakeUserRepo) GetByPhone(string) (*models.User, error) {
	return nil, repositories.ErrUserNotFound
}
func (r *fakeUserRepo) Update(u *models.User) error         { r.users[u.ID] = u; return nil }
func (r *fakeUserRepo) IncrementTokenVersion(id uint) error { return nil }
func (r *fakeUserRepo) Count() (int64, error)               { return int64(len(r.users)), nil }

func TestSetupAndEnable(t *testing.T) {
	user := &models.User{}
	user.ID = 1
	repo := newFakeUserRepo(user)
	svc := NewService(repo)

	code, err := svc.GenerateSetupCode(1)
	require.NoError(t, err)
	assert.Len(t, code, 6)

	ok, err := svc.VerifyAndEnable(1, code)
	require.NoError(t, err)
	assert.True(t, ok)

	stored, _ := repo.GetByID(1)
	assert.True(t, stored.TwoFactorEnabled)
	assert.Len(t, stored.TwoFactorSecret, 64)
}

func TestVerifyAndEnable_WrongCode(t *testing.T) {
	user := &models.User{}
	user.ID = 1
	repo := newFakeUserRepo(user)
	svc := NewService(repo)

	_, err := svc.GenerateSetupCode(1)
	require.NoError(t, err)

	ok, err := svc.VerifyAndEnable(1, "000000")
	require.NoError(t, err)
	assert.False(t, ok)

	stored, _ := repo.GetByID(1)
	assert.False(t, stored.TwoFactorEnabled)
}

func TestVerifyAndEnable_Expired(t *testing.T) {
	user := &models.User{}
	user.ID = 1
	expired := time.Now().Add(-10 * time.Minute).UnixMilli()
	user.TwoFactorSecret = "123456|" + strconv.FormatInt(expired, 10)
	repo := newFakeUserRepo(user)
	svc := NewService(repo)

	_, err := svc.VerifyAndEnable(1, "123456")
	assert.ErrorIs(t, err, ErrSetupCodeExpired)
}

func TestVerifyAndEnable_NoSetup(t *testing.T) {
	user := &models.User{}
	user.ID = 1
	repo := newFakeUserRepo(user)
	svc := NewService(repo)

	_, err := svc.VerifyAndEnable(1, "123456")
	assert.ErrorIs(t, err, ErrNoSetupCode)
}

func TestVerifyCode(t *testing.T) {
	user := &models.User{}
	user.ID = 1
	user.TwoFactorEnabled = true
	user.TwoFactorSecret = "deadbeef"
	repo := newFakeUserRepo(user)
	svc := NewService(repo)

	valid := currentCode("deadbeef")
	assert.True(t, svc.VerifyCode(1, valid))
	assert.True(t, svc.VerifyCode(1, "  "+valid+" "))
	assert.False(t, svc.VerifyCode(1, "000000"))
}

func TestVerifyCode_NotEnabled(t *testing.T) {
	user := &models.User{}
	user.ID = 1
	repo := newFakeUserRepo(user)
	svc := NewService(repo)

	assert.False(t, svc.VerifyCode(1, "123456"))
	assert.False(t, svc.VerifyCode(99, "123456"))
}

func TestDisable(t *testing.T) {
	user := &models.User{}
	user.ID = 1
	user.TwoFactorEnabled = true
	user.TwoFactorSecret = "cafebabe"
	repo := newFakeUserRepo(user)
	svc := NewService(repo)

	ok, err := svc.Disable(1, currentCode("cafebabe"))
	require.NoError(t, err)
	assert.True(t, ok)

	stored, _ := repo.GetByID(1)
	assert.False(t, stored.TwoFactorEnabled)
	assert.Empty(t, stored.TwoFactorSecret)
}

func TestCodeForWindow_Deterministic(t *testing.T) {
	a := codeForWindow("secret", 42)
	b := codeForWindow("secret", 42)
	assert.Equal(t, a, b)
	assert.Len(t, a, 6)
	assert.NotEqual(t, a, codeForWindow("secret", 43))

	// Always zero-padded to six digits.
	for w := int64(0); w < 50; w++ {
		assert.Len(t, codeForWindow("s", w), 6, fmt.Sprintf("window %d", w))
	}
}
