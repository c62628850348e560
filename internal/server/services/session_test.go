package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/cryptox"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/memory"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
)

func TestLogin_Success(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	id := e.verifiedUser(t, "a@x.io", "alice")

	pair, err := e.svc.Login(ctx, "a@x.io", testPassword)
	require.NoError(t, err)
	assert.Equal(t, id, pair.UserID)

	gotID, err := e.signer.Validate(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, id, gotID)

	rec, err := e.store.RefreshTokens().FindByUser(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, cryptox.Digest(pair.RefreshToken), rec.TokenHash)
	assert.Equal(t, e.clock.Now().Add(e.cfg.RefreshTokenValidityDuration), rec.ExpiresAt)

	u := e.user(t, id)
	require.NotNil(t, u.LastLoginAt)
	assert.Equal(t, e.clock.Now(), *u.LastLoginAt)
}

func TestLogin_UnknownEmailAndWrongPasswordLookAlike(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.verifiedUser(t, "a@x.io", "alice")

	_, errUnknown := e.svc.Login(ctx, "nobody@x.io", testPassword)
	_, errWrong := e.svc.Login(ctx, "a@x.io", "wrong-password1")

	assert.ErrorIs(t, errUnknown, common.ErrInvalidCredentials)
	assert.ErrorIs(t, errWrong, common.ErrInvalidCredentials)
	assert.Equal(t, errUnknown, errWrong)
}

func TestLogin_LocksAfterMaxFailures(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	id := e.verifiedUser(t, "a@x.io", "alice")

	for i := 1; i <= 5; i++ {
		_, err := e.svc.Login(ctx, "a@x.io", "wrong-password1")
		require.ErrorIs(t, err, common.ErrInvalidCredentials, "attempt %d", i)
	}

	u := e.user(t, id)
	assert.Equal(t, 5, u.FailedLoginAttempts)
	require.NotNil(t, u.LockedUntil)
	assert.Equal(t, e.clock.Now().Add(30*time.Minute), *u.LockedUntil)

	// correct password, still locked; the counter does not move
	_, err := e.svc.Login(ctx, "a@x.io", testPassword)
	var locked *common.AccountLockedError
	require.True(t, errors.As(err, &locked), "got %v", err)
	assert.Equal(t, 30, locked.RemainingMinutes)
	assert.Equal(t, 5, e.user(t, id).FailedLoginAttempts)

	e.clock.Advance(10 * time.Minute)
	_, err = e.svc.Login(ctx, "a@x.io", testPassword)
	require.True(t, errors.As(err, &locked))
	assert.Equal(t, 20, locked.RemainingMinutes)
}

func TestLogin_ExpiredLockAllowsLoginAndResets(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	id := e.verifiedUser(t, "a@x.io", "alice")

	for i := 0; i < 5; i++ {
		_, _ = e.svc.Login(ctx, "a@x.io", "wrong-password1")
	}
	e.clock.Advance(31 * time.Minute)

	_, err := e.svc.Login(ctx, "a@x.io", testPassword)
	require.NoError(t, err)

	u := e.user(t, id)
	assert.Zero(t, u.FailedLoginAttempts)
	assert.Nil(t, u.LockedUntil)
}

func TestLogin_SuccessResetsCounter(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	id := e.verifiedUser(t, "a@x.io", "alice")

	for i := 0; i < 4; i++ {
		_, _ = e.svc.Login(ctx, "a@x.io", "wrong-password1")
	}
	require.Equal(t, 4, e.user(t, id).FailedLoginAttempts)

	_, err := e.svc.Login(ctx, "a@x.io", testPassword)
	require.NoError(t, err)
	assert.Zero(t, e.user(t, id).FailedLoginAttempts)

	// a fresh run of failures starts from zero again
	_, _ = e.svc.Login(ctx, "a@x.io", "wrong-password1")
	assert.Equal(t, 1, e.user(t, id).FailedLoginAttempts)
	assert.Nil(t, e.user(t, id).LockedUntil)
}

func TestLogin_ConcurrentFailuresFromMaxMinusTwo(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	id := e.verifiedUser(t, "a@x.io", "alice")

	for i := 0; i < 3; i++ {
		_, _ = e.svc.Login(ctx, "a@x.io", "wrong-password1")
	}

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = e.svc.Login(ctx, "a@x.io", "wrong-password1")
		}()
	}
	wg.Wait()

	u := e.user(t, id)
	assert.Equal(t, 5, u.FailedLoginAttempts)
	assert.NotNil(t, u.LockedUntil)
}

func TestLogin_Disabled(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	id := e.verifiedUser(t, "a@x.io", "alice")
	require.NoError(t, e.store.Users().SetActive(id, false))

	_, err := e.svc.Login(ctx, "a@x.io", testPassword)
	assert.ErrorIs(t, err, common.ErrAccountDisabled)

	// the password is never evaluated, so nothing is counted
	_, err = e.svc.Login(ctx, "a@x.io", "wrong-password1")
	assert.ErrorIs(t, err, common.ErrAccountDisabled)
	assert.Zero(t, e.user(t, id).FailedLoginAttempts)
}

func TestLogin_EmailNotVerified(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	id := e.signup(t, "a@x.io", "alice")

	_, err := e.svc.Login(ctx, "a@x.io", testPassword)
	assert.ErrorIs(t, err, common.ErrEmailNotVerified)

	_, err = e.svc.Login(ctx, "a@x.io", "wrong-password1")
	assert.ErrorIs(t, err, common.ErrInvalidCredentials)
	assert.Equal(t, 1, e.user(t, id).FailedLoginAttempts)

	_, err = e.store.RefreshTokens().FindByUser(ctx, id)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

type failingUsers struct {
	users.Repository
	findErr error
	incErr  error
}

func (f *failingUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.Repository.FindByEmail(ctx, email)
}

func (f *failingUsers) IncrementFailureAndMaybeLock(ctx context.Context, id string, max int, until time.Time) (int64, error) {
	if f.incErr != nil {
		return 0, f.incErr
	}
	return f.Repository.IncrementFailureAndMaybeLock(ctx, id, max, until)
}

func TestLogin_StoreErrorsAreInfrastructure(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	fu := &failingUsers{Repository: store.Users()}
	e := newEnvWith(t, testConfig(), &fakeRepoManager{u: fu, r: store.RefreshTokens()}, store)
	e.verifiedUser(t, "a@x.io", "alice")

	fu.incErr = errBoom
	_, err := e.svc.Login(ctx, "a@x.io", "wrong-password1")
	assert.ErrorIs(t, err, common.ErrInfrastructure)
	assert.ErrorIs(t, err, errBoom)

	fu.findErr = errBoom
	_, err = e.svc.Login(ctx, "a@x.io", testPassword)
	assert.ErrorIs(t, err, common.ErrInfrastructure)
	assert.NotErrorIs(t, err, common.ErrInvalidCredentials)
}

func TestRefreshAccessToken(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	id := e.verifiedUser(t, "a@x.io", "alice")

	pair, err := e.svc.Login(ctx, "a@x.io", testPassword)
	require.NoError(t, err)

	e.clock.Advance(time.Hour)
	refreshed, err := e.svc.RefreshAccessToken(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, id, refreshed.UserID)
	assert.Equal(t, pair.RefreshToken, refreshed.RefreshToken)
	assert.NotEqual(t, pair.AccessToken, refreshed.AccessToken)

	gotID, err := e.signer.Validate(refreshed.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, id, gotID)
}

func TestRefreshAccessToken_Rotation(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, func(c *config.Config) { c.RotateRefreshTokens = true })
	e.verifiedUser(t, "a@x.io", "alice")

	pair, err := e.svc.Login(ctx, "a@x.io", testPassword)
	require.NoError(t, err)

	refreshed, err := e.svc.RefreshAccessToken(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, refreshed.RefreshToken)

	_, err = e.svc.RefreshAccessToken(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	_, err = e.svc.RefreshAccessToken(ctx, refreshed.RefreshToken)
	assert.NoError(t, err)
}

func TestRefreshAccessToken_NewLoginInvalidatesPrevious(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.verifiedUser(t, "a@x.io", "alice")

	first, err := e.svc.Login(ctx, "a@x.io", testPassword)
	require.NoError(t, err)
	second, err := e.svc.Login(ctx, "a@x.io", testPassword)
	require.NoError(t, err)

	_, err = e.svc.RefreshAccessToken(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
	_, err = e.svc.RefreshAccessToken(ctx, second.RefreshToken)
	assert.NoError(t, err)
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	id := e.verifiedUser(t, "a@x.io", "alice")

	pair, err := e.svc.Login(ctx, "a@x.io", testPassword)
	require.NoError(t, err)

	require.NoError(t, e.svc.Logout(ctx, id))
	_, err = e.svc.RefreshAccessToken(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	// logging out twice is fine
	assert.NoError(t, e.svc.Logout(ctx, id))
	assert.ErrorIs(t, e.svc.Logout(ctx, "ghost"), common.ErrUserNotFound)
}

type brokenHasher struct{ PasswordHasher }

func (brokenHasher) Hash(string) (string, error) { return "", errBoom }

func TestNewSessionService_FailsWithoutTimingHash(t *testing.T) {
	e := newEnv(t)
	cfg := testConfig()

	svc, err := NewSessionService(Deps{
		DB:       e.svc.db,
		Repos:    e.svc.repomanager,
		Signer:   e.signer,
		Hasher:   brokenHasher{testHasher},
		Notifier: e.notifier,
		Lockout:  e.svc.lockout,
		Tokens:   e.svc.tokens,
		Logger:   logging.Nop{},
	}, cfg)

	require.ErrorIs(t, err, errBoom)
	assert.Nil(t, svc)
}
