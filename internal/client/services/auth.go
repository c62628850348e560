// Package services contains application services for authctl. AuthService
// runs the account operations against the server and keeps the resulting
// session in the local database so it survives restarts.
package services

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/gophauth/internal/api"
	"github.com/dmitrijs2005/gophauth/internal/client/client"
	"github.com/dmitrijs2005/gophauth/internal/client/repositories/session"
)

// Session is what authctl remembers between runs.
type Session struct {
	UserID       string
	Email        string
	AccessToken  string
	RefreshToken string
}

// LoggedIn reports whether a token pair is held.
func (s Session) LoggedIn() bool {
	return s.AccessToken != "" && s.RefreshToken != ""
}

type AuthService interface {
	Signup(ctx context.Context, req *api.SignupRequest) (string, error)
	CheckEmailAvailable(ctx context.Context, email string) (bool, error)
	Login(ctx context.Context, email, password string) (Session, error)
	SendVerificationCode(ctx context.Context, email string) error
	VerifyCode(ctx context.Context, email, code string) (Session, error)
	Refresh(ctx context.Context) (Session, error)
	Logout(ctx context.Context) error
	Current() Session
	Restore(ctx context.Context) (Session, error)
	Close() error
}

type authService struct {
	client  client.Client
	repo    session.Repository
	current Session
}

func NewAuthService(c client.Client, repo session.Repository) AuthService {
	return &authService{client: c, repo: repo}
}

func (a *authService) Signup(ctx context.Context, req *api.SignupRequest) (string, error) {
	return a.client.Signup(ctx, req)
}

func (a *authService) CheckEmailAvailable(ctx context.Context, email string) (bool, error) {
	return a.client.CheckEmailAvailable(ctx, email)
}

func (a *authService) Login(ctx context.Context, email, password string) (Session, error) {
	t, err := a.client.Login(ctx, email, password)
	if err != nil {
		return Session{}, err
	}
	return a.save(ctx, email, t)
}

func (a *authService) SendVerificationCode(ctx context.Context, email string) error {
	return a.client.SendVerificationCode(ctx, email)
}

// VerifyCode confirms the email; the server logs the user in on success.
func (a *authService) VerifyCode(ctx context.Context, email, code string) (Session, error) {
	t, err := a.client.VerifyCode(ctx, email, code)
	if err != nil {
		return Session{}, err
	}
	return a.save(ctx, email, t)
}

func (a *authService) Refresh(ctx context.Context) (Session, error) {
	if !a.current.LoggedIn() {
		return Session{}, client.ErrNotLoggedIn
	}
	t, err := a.client.RefreshAccessToken(ctx)
	if err != nil {
		return Session{}, err
	}
	return a.save(ctx, a.current.Email, t)
}

// Logout revokes the session on the server and forgets it locally. A session
// the server no longer accepts is forgotten as well.
func (a *authService) Logout(ctx context.Context) error {
	if !a.current.LoggedIn() {
		return client.ErrNotLoggedIn
	}
	err := a.client.Logout(ctx)
	if err != nil && !errors.Is(err, client.ErrUnauthorized) {
		return err
	}
	a.client.SetTokens(client.Tokens{})
	a.current = Session{}
	if cerr := a.repo.Clear(ctx); cerr != nil {
		return cerr
	}
	return err
}

func (a *authService) Current() Session {
	// the client may have refreshed the pair behind our back
	if t := a.client.Tokens(); a.current.LoggedIn() && t.AccessToken != a.current.AccessToken {
		a.current.AccessToken = t.AccessToken
		a.current.RefreshToken = t.RefreshToken
	}
	return a.current
}

// Restore loads the saved session and hands its tokens to the client.
func (a *authService) Restore(ctx context.Context) (Session, error) {
	var s Session
	fields := map[string]*string{
		session.KeyUserID:       &s.UserID,
		session.KeyEmail:        &s.Email,
		session.KeyAccessToken:  &s.AccessToken,
		session.KeyRefreshToken: &s.RefreshToken,
	}
	for key, dst := range fields {
		v, err := a.repo.Get(ctx, key)
		if err != nil {
			return Session{}, err
		}
		*dst = v
	}

	a.current = s
	a.client.SetTokens(client.Tokens{UserID: s.UserID, AccessToken: s.AccessToken, RefreshToken: s.RefreshToken})
	return s, nil
}

// Close saves tokens the client refreshed on its own, then closes it.
func (a *authService) Close() error {
	if cur := a.Current(); cur.LoggedIn() {
		_, _ = a.save(context.Background(), cur.Email, a.client.Tokens())
	}
	return a.client.Close()
}

func (a *authService) save(ctx context.Context, email string, t client.Tokens) (Session, error) {
	s := Session{UserID: t.UserID, Email: email, AccessToken: t.AccessToken, RefreshToken: t.RefreshToken}
	values := map[string]string{
		session.KeyUserID:       s.UserID,
		session.KeyEmail:        s.Email,
		session.KeyAccessToken:  s.AccessToken,
		session.KeyRefreshToken: s.RefreshToken,
	}
	for k, v := range values {
		if err := a.repo.Set(ctx, k, v); err != nil {
			return Session{}, err
		}
	}
	a.current = s
	return s, nil
}
