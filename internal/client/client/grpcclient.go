package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/api"
	"github.com/dmitrijs2005/gophauth/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
)

type GRPCClient struct {
	endpointURL string
	timeout     time.Duration
	conn        grpc.ClientConnInterface
	closer      func() error

	mu     sync.Mutex
	tokens Tokens
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.AccessTokenHeaderName, token)

	return metadata.NewOutgoingContext(ctx, md)
}

// accessTokenInterceptor attaches the access token and, when the server says
// it has expired, refreshes it once and retries the call.
func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {

	t := s.Tokens()
	if t.AccessToken == "" || method == api.MethodRefreshAccessToken {
		return invoker(ctx, method, req, reply, cc, opts...)
	}

	err := invoker(withAccessToken(ctx, t.AccessToken), method, req, reply, cc, opts...)
	if err == nil || t.RefreshToken == "" || !errors.Is(mapError(err), common.ErrTokenExpired) {
		return err
	}

	var resp api.TokenPair
	if rerr := invoker(ctx, api.MethodRefreshAccessToken, &api.RefreshRequest{RefreshToken: t.RefreshToken}, &resp, cc, opts...); rerr != nil {
		return rerr
	}
	s.SetTokens(Tokens{UserID: resp.UserID, AccessToken: resp.AccessToken, RefreshToken: resp.RefreshToken})

	// tokens refreshed, retry with the new access token
	return invoker(withAccessToken(ctx, resp.AccessToken), method, req, reply, cc, opts...)
}

// NewGRPCClient dials the server lazily; the first call connects. Extra
// options are appended to the defaults.
func NewGRPCClient(endpointURL string, timeout time.Duration, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, timeout: timeout}

	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(api.CodecName)),
	}, opts...)

	conn, err := grpc.NewClient(endpointURL, opts...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	c.closer = conn.Close
	return c, nil
}

func (s *GRPCClient) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}

func (s *GRPCClient) Tokens() Tokens {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens
}

func (s *GRPCClient) SetTokens(t Tokens) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = t
}

func (s *GRPCClient) invoke(ctx context.Context, method string, req, resp any) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return mapError(s.conn.Invoke(ctx, method, req, resp))
}

func (s *GRPCClient) Signup(ctx context.Context, req *api.SignupRequest) (string, error) {
	var resp api.SignupResponse
	if err := s.invoke(ctx, api.MethodSignup, req, &resp); err != nil {
		return "", err
	}
	return resp.UserID, nil
}

func (s *GRPCClient) CheckEmailAvailable(ctx context.Context, email string) (bool, error) {
	var resp api.CheckEmailResponse
	if err := s.invoke(ctx, api.MethodCheckEmailAvailable, &api.CheckEmailRequest{Email: email}, &resp); err != nil {
		return false, err
	}
	return resp.Available, nil
}

func (s *GRPCClient) Login(ctx context.Context, email, password string) (Tokens, error) {
	return s.obtainTokens(ctx, api.MethodLogin, &api.LoginRequest{Email: email, Password: password})
}

func (s *GRPCClient) SendVerificationCode(ctx context.Context, email string) error {
	return s.invoke(ctx, api.MethodSendVerificationCode, &api.SendCodeRequest{Email: email}, &api.Empty{})
}

func (s *GRPCClient) VerifyCode(ctx context.Context, email, code string) (Tokens, error) {
	return s.obtainTokens(ctx, api.MethodVerifyCode, &api.VerifyCodeRequest{Email: email, Code: code})
}

func (s *GRPCClient) RefreshAccessToken(ctx context.Context) (Tokens, error) {
	t := s.Tokens()
	if t.RefreshToken == "" {
		return Tokens{}, ErrNotLoggedIn
	}
	return s.obtainTokens(ctx, api.MethodRefreshAccessToken, &api.RefreshRequest{RefreshToken: t.RefreshToken})
}

func (s *GRPCClient) Logout(ctx context.Context) error {
	if s.Tokens().AccessToken == "" {
		return ErrNotLoggedIn
	}
	if err := s.invoke(ctx, api.MethodLogout, &api.LogoutRequest{}, &api.Empty{}); err != nil {
		return err
	}
	s.SetTokens(Tokens{})
	return nil
}

// obtainTokens runs a call that answers with a token pair and keeps the pair.
func (s *GRPCClient) obtainTokens(ctx context.Context, method string, req any) (Tokens, error) {
	var resp api.TokenPair
	if err := s.invoke(ctx, method, req, &resp); err != nil {
		return Tokens{}, err
	}
	t := Tokens{UserID: resp.UserID, AccessToken: resp.AccessToken, RefreshToken: resp.RefreshToken}
	s.SetTokens(t)
	return t, nil
}
