package grpc

import (
	"context"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/api"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const birthDateLayout = "2006-01-02"

func (s *GRPCServer) Signup(ctx context.Context, req *api.SignupRequest) (*api.SignupResponse, error) {
	req.Email = normalizeEmail(req.Email)
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	birth, err := time.Parse(birthDateLayout, req.BirthDate)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "birth_date: expected YYYY-MM-DD")
	}

	in := services.SignupInput{
		Email:           req.Email,
		Password:        req.Password,
		Nickname:        req.Nickname,
		BirthDate:       birth,
		ProfileImageURL: req.ProfileImageURL,
		Bio:             req.Bio,
	}
	if req.Gender != nil {
		g, _ := models.ParseGender(*req.Gender)
		in.Gender = &g
	}

	id, err := s.auth.Signup(ctx, in)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	s.logger.Info(ctx, "Registered", "user_id", id)
	return &api.SignupResponse{UserID: id}, nil
}

func (s *GRPCServer) CheckEmailAvailable(ctx context.Context, req *api.CheckEmailRequest) (*api.CheckEmailResponse, error) {
	req.Email = normalizeEmail(req.Email)
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	ok, err := s.auth.CheckEmailAvailable(ctx, req.Email)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &api.CheckEmailResponse{Available: ok}, nil
}

func (s *GRPCServer) Login(ctx context.Context, req *api.LoginRequest) (*api.TokenPair, error) {
	req.Email = normalizeEmail(req.Email)
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	pair, err := s.auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return toTokenPair(pair), nil
}

func (s *GRPCServer) SendVerificationCode(ctx context.Context, req *api.SendCodeRequest) (*api.Empty, error) {
	req.Email = normalizeEmail(req.Email)
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	if err := s.auth.SendVerificationCode(ctx, req.Email); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &api.Empty{}, nil
}

func (s *GRPCServer) VerifyCode(ctx context.Context, req *api.VerifyCodeRequest) (*api.TokenPair, error) {
	req.Email = normalizeEmail(req.Email)
	req.Code = strings.TrimSpace(req.Code)
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	pair, err := s.auth.VerifyCode(ctx, req.Email, req.Code)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return toTokenPair(pair), nil
}

func (s *GRPCServer) RefreshAccessToken(ctx context.Context, req *api.RefreshRequest) (*api.TokenPair, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	pair, err := s.auth.RefreshAccessToken(ctx, req.RefreshToken)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return toTokenPair(pair), nil
}

func (s *GRPCServer) Logout(ctx context.Context, _ *api.LogoutRequest) (*api.Empty, error) {
	userID, ok := UserIDFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Internal, "user id missing from context")
	}

	if err := s.auth.Logout(ctx, userID); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &api.Empty{}, nil
}

func toTokenPair(p *models.TokenPair) *api.TokenPair {
	return &api.TokenPair{UserID: p.UserID, AccessToken: p.AccessToken, RefreshToken: p.RefreshToken}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
