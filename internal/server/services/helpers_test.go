package services

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/gophauth/internal/cryptox"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/memory"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
)

var errBoom = errors.New("boom")

// cheap argon2id so tests stay fast
var testHasher = cryptox.NewPasswordHasher(cryptox.Argon2Params{
	Memory: 64, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32,
})

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type sentCode struct {
	email, code string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentCode
	err  error
}

func (n *fakeNotifier) SendVerificationCode(_ context.Context, email, code string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, sentCode{email, code})
	return nil
}

func (n *fakeNotifier) last(t *testing.T) sentCode {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	require.NotEmpty(t, n.sent, "no code was sent")
	return n.sent[len(n.sent)-1]
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.TimeZone = "UTC"
	return cfg
}

// fakeRepoManager lets a test swap one repository while keeping the other.
type fakeRepoManager struct {
	u users.Repository
	r refreshtokens.Repository
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error    { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository                 { return m.u }
func (m *fakeRepoManager) RefreshTokens(dbx.DBTX) refreshtokens.Repository { return m.r }

type env struct {
	svc      *SessionService
	store    *memory.Store
	clock    *fakeClock
	notifier *fakeNotifier
	signer   *auth.JWTSigner
	cfg      *config.Config
}

func newEnv(t *testing.T, mutate ...func(*config.Config)) *env {
	t.Helper()
	cfg := testConfig()
	for _, m := range mutate {
		m(cfg)
	}
	rm := repomanager.NewInMemoryRepositoryManager()
	return newEnvWith(t, cfg, rm, rm.Store)
}

func newEnvWith(t *testing.T, cfg *config.Config, rm repomanager.RepositoryManager, store *memory.Store) *env {
	t.Helper()
	clock := &fakeClock{t: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
	notifier := &fakeNotifier{}
	signer := auth.NewJWTSigner([]byte(cfg.SecretKey), cfg.AccessTokenValidityDuration, cfg.RefreshTokenValidityDuration).
		WithClock(clock.Now)
	db := dbx.Detached{}
	log := logging.Nop{}

	svc, err := NewSessionService(Deps{
		DB:       db,
		Repos:    rm,
		Signer:   signer,
		Hasher:   testHasher,
		Notifier: notifier,
		Lockout:  NewLockoutCounter(db, rm, cfg, log),
		Tokens:   NewRefreshTokenStore(db, rm, cfg, log),
		Logger:   log,
	}, cfg)
	require.NoError(t, err)
	svc.WithClock(clock.Now)

	return &env{svc: svc, store: store, clock: clock, notifier: notifier, signer: signer, cfg: cfg}
}

const testPassword = "secret123"

// signup creates a user born on 1990-01-01.
func (e *env) signup(t *testing.T, email, nickname string) string {
	t.Helper()
	id, err := e.svc.Signup(context.Background(), SignupInput{
		Email:     email,
		Password:  testPassword,
		Nickname:  nickname,
		BirthDate: time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return id
}

// verifiedUser signs up and completes email verification.
func (e *env) verifiedUser(t *testing.T, email, nickname string) string {
	t.Helper()
	ctx := context.Background()
	id := e.signup(t, email, nickname)
	require.NoError(t, e.svc.SendVerificationCode(ctx, email))
	_, err := e.svc.VerifyCode(ctx, email, e.notifier.last(t).code)
	require.NoError(t, err)
	return id
}

func (e *env) user(t *testing.T, id string) *models.User {
	t.Helper()
	u, err := e.store.Users().FindByID(context.Background(), id)
	require.NoError(t, err)
	return u
}
