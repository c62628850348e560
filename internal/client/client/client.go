package client

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/api"
)

// Tokens is the pair the client presents: the access token on protected
// calls, the refresh token when the access token has expired.
type Tokens struct {
	UserID       string
	AccessToken  string
	RefreshToken string
}

type Client interface {
	Close() error
	Signup(ctx context.Context, req *api.SignupRequest) (string, error)
	CheckEmailAvailable(ctx context.Context, email string) (bool, error)
	Login(ctx context.Context, email, password string) (Tokens, error)
	SendVerificationCode(ctx context.Context, email string) error
	VerifyCode(ctx context.Context, email, code string) (Tokens, error)
	RefreshAccessToken(ctx context.Context) (Tokens, error)
	Logout(ctx context.Context) error

	Tokens() Tokens
	SetTokens(t Tokens)
}
