package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/dmitrijs2005/gophauth/internal/api"
	"github.com/dmitrijs2005/gophauth/internal/client/client"
	"github.com/dmitrijs2005/gophauth/internal/client/repositories/session"
	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

// ---- helpers ----

func setupRepo(t *testing.T) *session.SQLiteRepository {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE session (
  key   TEXT PRIMARY KEY,
  value TEXT NOT NULL
);
`)
	require.NoError(t, err)
	return session.NewSQLiteRepository(db)
}

// ---- fake client ----

type fakeClient struct {
	tokens client.Tokens

	loginRet   client.Tokens
	loginErr   error
	verifyRet  client.Tokens
	verifyErr  error
	refreshRet client.Tokens
	refreshErr error
	logoutErr  error
	closed     bool

	lastSignup *api.SignupRequest
}

func (f *fakeClient) Close() error { f.closed = true; return nil }
func (f *fakeClient) Signup(_ context.Context, req *api.SignupRequest) (string, error) {
	f.lastSignup = req
	return "u1", nil
}
func (f *fakeClient) CheckEmailAvailable(context.Context, string) (bool, error) { return true, nil }
func (f *fakeClient) Login(context.Context, string, string) (client.Tokens, error) {
	if f.loginErr == nil {
		f.tokens = f.loginRet
	}
	return f.loginRet, f.loginErr
}
func (f *fakeClient) SendVerificationCode(context.Context, string) error { return nil }
func (f *fakeClient) VerifyCode(context.Context, string, string) (client.Tokens, error) {
	if f.verifyErr == nil {
		f.tokens = f.verifyRet
	}
	return f.verifyRet, f.verifyErr
}
func (f *fakeClient) RefreshAccessToken(context.Context) (client.Tokens, error) {
	if f.refreshErr == nil {
		f.tokens = f.refreshRet
	}
	return f.refreshRet, f.refreshErr
}
func (f *fakeClient) Logout(context.Context) error { return f.logoutErr }
func (f *fakeClient) Tokens() client.Tokens        { return f.tokens }
func (f *fakeClient) SetTokens(t client.Tokens)    { f.tokens = t }

var pair1 = client.Tokens{UserID: "u1", AccessToken: "A1", RefreshToken: "R1"}

// ---- tests ----

func TestLogin_PersistsSessionAndRestores(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	svc := NewAuthService(&fakeClient{loginRet: pair1}, repo)
	s, err := svc.Login(ctx, "a@x.io", "pw")
	require.NoError(t, err)
	assert.Equal(t, Session{UserID: "u1", Email: "a@x.io", AccessToken: "A1", RefreshToken: "R1"}, s)
	assert.True(t, svc.Current().LoggedIn())

	fresh := &fakeClient{}
	restored, err := NewAuthService(fresh, repo).Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, s, restored)
	assert.Equal(t, pair1, fresh.tokens, "tokens handed to the client")
}

func TestLogin_ErrorKeepsNoSession(t *testing.T) {
	svc := NewAuthService(&fakeClient{loginErr: common.ErrInvalidCredentials}, setupRepo(t))

	_, err := svc.Login(context.Background(), "a@x.io", "pw")
	require.ErrorIs(t, err, common.ErrInvalidCredentials)
	assert.False(t, svc.Current().LoggedIn())
}

func TestVerifyCode_LogsIn(t *testing.T) {
	svc := NewAuthService(&fakeClient{verifyRet: pair1}, setupRepo(t))

	s, err := svc.VerifyCode(context.Background(), "a@x.io", "123456")
	require.NoError(t, err)
	assert.Equal(t, "A1", s.AccessToken)
}

func TestRefresh(t *testing.T) {
	ctx := context.Background()
	f := &fakeClient{loginRet: pair1, refreshRet: client.Tokens{UserID: "u1", AccessToken: "A2", RefreshToken: "R1"}}
	svc := NewAuthService(f, setupRepo(t))

	_, err := svc.Refresh(ctx)
	require.ErrorIs(t, err, client.ErrNotLoggedIn)

	_, err = svc.Login(ctx, "a@x.io", "pw")
	require.NoError(t, err)

	s, err := svc.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, "A2", s.AccessToken)
	assert.Equal(t, "a@x.io", s.Email)
}

func TestLogout_ClearsLocalSession(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	f := &fakeClient{loginRet: pair1}
	svc := NewAuthService(f, repo)

	require.ErrorIs(t, svc.Logout(ctx), client.ErrNotLoggedIn)

	_, err := svc.Login(ctx, "a@x.io", "pw")
	require.NoError(t, err)
	require.NoError(t, svc.Logout(ctx))

	assert.False(t, svc.Current().LoggedIn())
	v, err := repo.Get(ctx, session.KeyAccessToken)
	require.NoError(t, err)
	assert.Empty(t, v)
}

func TestLogout_RejectedSessionIsStillForgotten(t *testing.T) {
	ctx := context.Background()
	f := &fakeClient{loginRet: pair1, logoutErr: client.ErrUnauthorized}
	svc := NewAuthService(f, setupRepo(t))

	_, err := svc.Login(ctx, "a@x.io", "pw")
	require.NoError(t, err)

	err = svc.Logout(ctx)
	require.ErrorIs(t, err, client.ErrUnauthorized)
	assert.False(t, svc.Current().LoggedIn())
}

func TestLogout_ServerDownKeepsSession(t *testing.T) {
	ctx := context.Background()
	f := &fakeClient{loginRet: pair1, logoutErr: client.ErrUnavailable}
	svc := NewAuthService(f, setupRepo(t))

	_, err := svc.Login(ctx, "a@x.io", "pw")
	require.NoError(t, err)

	require.True(t, errors.Is(svc.Logout(ctx), client.ErrUnavailable))
	assert.True(t, svc.Current().LoggedIn())
}

func TestClose_SavesTokensRefreshedByClient(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	f := &fakeClient{loginRet: pair1}
	svc := NewAuthService(f, repo)

	_, err := svc.Login(ctx, "a@x.io", "pw")
	require.NoError(t, err)

	f.tokens = client.Tokens{UserID: "u1", AccessToken: "A9", RefreshToken: "R9"}
	require.NoError(t, svc.Close())
	assert.True(t, f.closed)

	v, err := repo.Get(ctx, session.KeyAccessToken)
	require.NoError(t, err)
	assert.Equal(t, "A9", v)
}

func TestSignup_PassesThrough(t *testing.T) {
	f := &fakeClient{}
	svc := NewAuthService(f, setupRepo(t))

	id, err := svc.Signup(context.Background(), &api.SignupRequest{Email: "a@x.io"})
	require.NoError(t, err)
	assert.Equal(t, "u1", id)
	assert.Equal(t, "a@x.io", f.lastSignup.Email)
}
