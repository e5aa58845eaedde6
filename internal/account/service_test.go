package account_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"

	"github.com/robalobadob/hangman/internal/account"
	"github.com/robalobadob/hangman/internal/account/mocks"
)

const goodPassword = "Abc12345!"

func newService(t *testing.T) (*account.Service, *mocks.MockCredentialStore) {
	t.Helper()
	ctrl := gomock.NewController(t)
	store := mocks.NewMockCredentialStore(ctrl)
	return account.NewService(store, account.WithBcryptCost(bcrypt.MinCost)), store
}

func hashOf(t *testing.T, pw string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func TestRegisterSuccess(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	var stored string
	gomock.InOrder(
		store.EXPECT().FindByUsername(ctx, "ling").Return(account.Credential{}, account.ErrNotFound),
		store.EXPECT().InsertUser(ctx, "ling", gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, hash string) (int64, error) {
				stored = hash
				return 42, nil
			}),
		store.EXPECT().FindByUsername(ctx, "ling").
			DoAndReturn(func(context.Context, string) (account.Credential, error) {
				return account.Credential{UserID: 42, Username: "ling", PasswordHash: stored}, nil
			}),
	)

	ident, err := svc.Register(ctx, "ling", goodPassword, goodPassword)
	require.NoError(t, err)
	assert.Equal(t, account.Identity{UserID: 42, Username: "ling"}, ident)
	assert.NotEqual(t, goodPassword, stored, "password must be hashed")
}

func TestRegisterValidationNeverInserts(t *testing.T) {
	tests := []struct {
		name         string
		username     string
		password     string
		confirmation string
		wantKind     account.Kind
		lookup       bool
	}{
		{name: "blank username", username: "", password: goodPassword, confirmation: goodPassword, wantKind: account.KindBlankUsername},
		{name: "bad username characters", username: "bad name", password: goodPassword, confirmation: goodPassword, wantKind: account.KindBlankUsername},
		{name: "weak password", username: "ling", password: "abc", confirmation: "abc", wantKind: account.KindPasswordPolicy, lookup: true},
		{name: "mismatch", username: "ling", password: goodPassword, confirmation: "Abc12345?", wantKind: account.KindPasswordMismatch, lookup: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store := newService(t)
			if tt.lookup {
				store.EXPECT().FindByUsername(gomock.Any(), tt.username).Return(account.Credential{}, account.ErrNotFound)
			}
			_, err := svc.Register(context.Background(), tt.username, tt.password, tt.confirmation)
			assert.Equal(t, tt.wantKind, account.KindOf(err))
		})
	}
}

func TestRegisterUsernameTaken(t *testing.T) {
	svc, store := newService(t)
	store.EXPECT().FindByUsername(gomock.Any(), "ling").Return(account.Credential{UserID: 1, Username: "ling"}, nil)

	_, err := svc.Register(context.Background(), "ling", goodPassword, goodPassword)
	assert.ErrorIs(t, err, account.ErrUsernameTaken)
}

func TestRegisterDuplicateOnInsertIsUsernameTaken(t *testing.T) {
	svc, store := newService(t)
	store.EXPECT().FindByUsername(gomock.Any(), "ling").Return(account.Credential{}, account.ErrNotFound)
	store.EXPECT().InsertUser(gomock.Any(), "ling", gomock.Any()).Return(int64(0), account.ErrDuplicateUsername)

	_, err := svc.Register(context.Background(), "ling", goodPassword, goodPassword)
	assert.ErrorIs(t, err, account.ErrUsernameTaken)
	assert.Equal(t, account.CategoryConflict, account.KindOf(err).Category())
}

func TestRegisterPostRegistrationLoginFailed(t *testing.T) {
	svc, store := newService(t)
	store.EXPECT().FindByUsername(gomock.Any(), "ling").Return(account.Credential{}, account.ErrNotFound)
	store.EXPECT().InsertUser(gomock.Any(), "ling", gomock.Any()).Return(int64(5), nil)
	store.EXPECT().FindByUsername(gomock.Any(), "ling").Return(account.Credential{}, errors.New("connection reset"))

	_, err := svc.Register(context.Background(), "ling", goodPassword, goodPassword)
	assert.Equal(t, account.KindPostRegistrationLogin, account.KindOf(err))
}

func TestRegisterStoreUnavailable(t *testing.T) {
	svc, store := newService(t)
	store.EXPECT().FindByUsername(gomock.Any(), "ling").Return(account.Credential{}, errors.New("dial tcp: refused"))

	_, err := svc.Register(context.Background(), "ling", goodPassword, goodPassword)
	assert.Equal(t, account.KindTransport, account.KindOf(err))
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		svc, store := newService(t)
		store.EXPECT().FindByUsername(ctx, "ling").
			Return(account.Credential{UserID: 9, Username: "ling", PasswordHash: hashOf(t, goodPassword)}, nil)
		ident, err := svc.Login(ctx, "ling", goodPassword)
		require.NoError(t, err)
		assert.Equal(t, account.Identity{UserID: 9, Username: "ling"}, ident)
	})

	t.Run("blank fields never hit the store", func(t *testing.T) {
		svc, _ := newService(t)
		_, err := svc.Login(ctx, "", goodPassword)
		assert.ErrorIs(t, err, account.ErrBlankFields)
		_, err = svc.Login(ctx, "ling", "")
		assert.ErrorIs(t, err, account.ErrBlankFields)
	})

	t.Run("unknown user and wrong password are indistinguishable", func(t *testing.T) {
		svc, store := newService(t)
		store.EXPECT().FindByUsername(ctx, "ghost").Return(account.Credential{}, account.ErrNotFound)
		store.EXPECT().FindByUsername(ctx, "ling").
			Return(account.Credential{UserID: 9, Username: "ling", PasswordHash: hashOf(t, goodPassword)}, nil)

		_, errUnknown := svc.Login(ctx, "ghost", goodPassword)
		_, errWrong := svc.Login(ctx, "ling", "Wrong123!")
		assert.Same(t, account.ErrInvalidCredentials, errUnknown)
		assert.Same(t, errUnknown, errWrong)
	})
}

// memStore enforces uniqueness the way a UNIQUE column does.
type memStore struct {
	mu    sync.Mutex
	next  int64
	users map[string]account.Credential
}

func (m *memStore) FindByUsername(_ context.Context, username string) (account.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.users[username]
	if !ok {
		return account.Credential{}, account.ErrNotFound
	}
	return c, nil
}

func (m *memStore) InsertUser(_ context.Context, username, hash string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[username]; ok {
		return 0, account.ErrDuplicateUsername
	}
	m.next++
	m.users[username] = account.Credential{UserID: m.next, Username: username, PasswordHash: hash}
	return m.next, nil
}

func TestRegisterConcurrentDuplicates(t *testing.T) {
	svc := account.NewService(&memStore{users: map[string]account.Credential{}}, account.WithBcryptCost(bcrypt.MinCost))

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Register(context.Background(), "racer", goodPassword, goodPassword)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, account.ErrUsernameTaken)
	}
	assert.Equal(t, 1, succeeded)
}
