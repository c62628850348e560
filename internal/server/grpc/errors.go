package grpc

import (
	"context"
	"errors"
	"strconv"

	"github.com/dmitrijs2005/gophauth/internal/api"
	"github.com/dmitrijs2005/gophauth/internal/common"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type errorMapping struct {
	target error
	code   codes.Code
	reason string
}

// errorMappings is checked in order; the first errors.Is match wins.
var errorMappings = []errorMapping{
	{common.ErrInvalidCredentials, codes.Unauthenticated, api.ReasonInvalidCredentials},
	{common.ErrAccountLocked, codes.PermissionDenied, api.ReasonAccountLocked},
	{common.ErrAccountDisabled, codes.PermissionDenied, api.ReasonAccountDisabled},
	{common.ErrEmailNotVerified, codes.FailedPrecondition, api.ReasonEmailNotVerified},
	{common.ErrDuplicateIdentity, codes.AlreadyExists, api.ReasonDuplicateIdentity},
	{common.ErrAgeRestricted, codes.InvalidArgument, api.ReasonAgeRestricted},
	{common.ErrUserNotFound, codes.NotFound, api.ReasonUserNotFound},
	{common.ErrAlreadyVerified, codes.FailedPrecondition, api.ReasonAlreadyVerified},
	{common.ErrNoChallengeIssued, codes.FailedPrecondition, api.ReasonNoChallengeIssued},
	{common.ErrTooManyAttempts, codes.ResourceExhausted, api.ReasonTooManyAttempts},
	{common.ErrChallengeExpired, codes.FailedPrecondition, api.ReasonChallengeExpired},
	{common.ErrCodeMismatch, codes.InvalidArgument, api.ReasonCodeMismatch},
	{common.ErrTokenExpired, codes.Unauthenticated, api.ReasonTokenExpired},
	{common.ErrInvalidToken, codes.Unauthenticated, api.ReasonInvalidToken},
}

// toStatus converts a service error into a gRPC status. Domain errors keep
// their message and gain an ErrorInfo detail; anything else is logged and
// reported as Internal without the cause.
func (s *GRPCServer) toStatus(ctx context.Context, err error) error {
	for _, m := range errorMappings {
		if !errors.Is(err, m.target) {
			continue
		}
		st := status.New(m.code, err.Error())
		info := &errdetails.ErrorInfo{Reason: m.reason, Domain: api.ErrorDomain, Metadata: errorMetadata(err)}
		if withInfo, derr := st.WithDetails(info); derr == nil {
			st = withInfo
		}
		return st.Err()
	}

	s.logger.Error(ctx, "request failed", "error", err.Error())
	return status.Error(codes.Internal, "internal error")
}

func errorMetadata(err error) map[string]string {
	var (
		locked   *common.AccountLockedError
		dup      *common.DuplicateIdentityError
		age      *common.AgeRestrictedError
		mismatch *common.CodeMismatchError
	)
	switch {
	case errors.As(err, &locked):
		return map[string]string{api.MetaRemainingMinutes: strconv.Itoa(locked.RemainingMinutes)}
	case errors.As(err, &dup):
		return map[string]string{api.MetaField: dup.Field}
	case errors.As(err, &age):
		return map[string]string{api.MetaMinimumAge: strconv.Itoa(age.MinimumAge)}
	case errors.As(err, &mismatch):
		return map[string]string{api.MetaAttemptsRemaining: strconv.Itoa(mismatch.AttemptsRemaining)}
	}
	return nil
}
