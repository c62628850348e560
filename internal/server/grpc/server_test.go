package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/api"
	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

func TestRun_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	srv := newTestServer(&fakeAuth{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- srv.Run(ctx)
	}()

	select {
	case err := <-done:
		t.Fatalf("server exited too early: %v", err)
	case <-time.After(150 * time.Millisecond):
	}

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error on graceful stop: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop within timeout after context cancel")
	}
}

func TestRun_ReturnsErrorOnBadAddress(t *testing.T) {
	t.Parallel()

	srv := NewGRPCServer("127.0.0.1:99999", nopLogger{}, &fakeAuth{}, auth.NewJWTSigner([]byte(testSecret), time.Hour, time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := srv.Run(ctx); err == nil {
		t.Fatal("expected error from Run on bad address, got nil")
	}
}

// dialBufconn serves s over an in-memory listener and returns a client
// connection that speaks the JSON codec.
func dialBufconn(t *testing.T, s *GRPCServer) *grpc.ClientConn {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(api.CodecName)),
	)
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}

	t.Cleanup(func() {
		_ = conn.Close()
		cancel()
		<-done
	})
	return conn
}

func TestBufconn_RoundTrip(t *testing.T) {
	signer := auth.NewJWTSigner([]byte(testSecret), time.Hour, time.Hour)
	f := &fakeAuth{signupID: "u1", loginResp: pair}
	conn := dialBufconn(t, NewGRPCServer("bufnet", nopLogger{}, f, signer))
	ctx := context.Background()

	var signup api.SignupResponse
	if err := conn.Invoke(ctx, api.MethodSignup, validSignup(), &signup); err != nil {
		t.Fatalf("Signup: %v", err)
	}
	if signup.UserID != "u1" {
		t.Fatalf("unexpected signup response: %+v", signup)
	}

	var tokens api.TokenPair
	if err := conn.Invoke(ctx, api.MethodLogin, &api.LoginRequest{Email: "neo@example.com", Password: "matrix123"}, &tokens); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if tokens.AccessToken != "A" || tokens.RefreshToken != "R" {
		t.Fatalf("unexpected tokens: %+v", tokens)
	}

	// Logout without a token is refused by the interceptor.
	err := conn.Invoke(ctx, api.MethodLogout, &api.LogoutRequest{}, &api.Empty{})
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("want Unauthenticated, got %v", err)
	}

	access, err := signer.IssueAccessToken("u1")
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}
	authCtx := metadata.AppendToOutgoingContext(ctx, common.AccessTokenHeaderName, access)
	if err := conn.Invoke(authCtx, api.MethodLogout, &api.LogoutRequest{}, &api.Empty{}); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if f.logoutUser != "u1" {
		t.Fatalf("logout called for %q", f.logoutUser)
	}
}

func TestBufconn_ErrorDetailsSurviveTheWire(t *testing.T) {
	f := &fakeAuth{loginErr: &common.AccountLockedError{RemainingMinutes: 7}}
	conn := dialBufconn(t, newTestServer(f))

	err := conn.Invoke(context.Background(), api.MethodLogin, &api.LoginRequest{Email: "a@x.io", Password: "pw"}, &api.TokenPair{})
	if status.Code(err) != codes.PermissionDenied {
		t.Fatalf("want PermissionDenied, got %v", err)
	}

	var info *errdetails.ErrorInfo
	for _, d := range status.Convert(err).Details() {
		if i, ok := d.(*errdetails.ErrorInfo); ok {
			info = i
		}
	}
	if info == nil || info.Reason != api.ReasonAccountLocked || info.Metadata[api.MetaRemainingMinutes] != "7" {
		t.Fatalf("unexpected details: %+v", info)
	}
}
