package grpc

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/api"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"google.golang.org/grpc"
)

// authService is the part of services.SessionService the transport calls.
type authService interface {
	Signup(ctx context.Context, in services.SignupInput) (string, error)
	CheckEmailAvailable(ctx context.Context, email string) (bool, error)
	Login(ctx context.Context, email, password string) (*models.TokenPair, error)
	SendVerificationCode(ctx context.Context, email string) error
	VerifyCode(ctx context.Context, email, code string) (*models.TokenPair, error)
	RefreshAccessToken(ctx context.Context, refreshToken string) (*models.TokenPair, error)
	Logout(ctx context.Context, userID string) error
}

// authServer is implemented by GRPCServer; serviceDesc dispatches to it.
type authServer interface {
	Signup(context.Context, *api.SignupRequest) (*api.SignupResponse, error)
	CheckEmailAvailable(context.Context, *api.CheckEmailRequest) (*api.CheckEmailResponse, error)
	Login(context.Context, *api.LoginRequest) (*api.TokenPair, error)
	SendVerificationCode(context.Context, *api.SendCodeRequest) (*api.Empty, error)
	VerifyCode(context.Context, *api.VerifyCodeRequest) (*api.TokenPair, error)
	RefreshAccessToken(context.Context, *api.RefreshRequest) (*api.TokenPair, error)
	Logout(context.Context, *api.LogoutRequest) (*api.Empty, error)
}

// unary adapts a typed authServer method to a grpc.MethodDesc.
func unary[Req, Resp any](name string, call func(authServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	fullMethod := "/" + api.ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(authServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(authServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: api.ServiceName,
	HandlerType: (*authServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(api.NameSignup, authServer.Signup),
		unary(api.NameCheckEmailAvailable, authServer.CheckEmailAvailable),
		unary(api.NameLogin, authServer.Login),
		unary(api.NameSendVerificationCode, authServer.SendVerificationCode),
		unary(api.NameVerifyCode, authServer.VerifyCode),
		unary(api.NameRefreshAccessToken, authServer.RefreshAccessToken),
		unary(api.NameLogout, authServer.Logout),
	},
	Streams: []grpc.StreamDesc{},
}
