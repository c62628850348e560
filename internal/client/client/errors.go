package client

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/api"
	"github.com/dmitrijs2005/gophauth/internal/common"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotLoggedIn  = errors.New("not logged in")
)

// reasonErrors maps server ErrorInfo reasons back to the shared sentinels.
var reasonErrors = map[string]error{
	api.ReasonInvalidCredentials: common.ErrInvalidCredentials,
	api.ReasonAccountLocked:      common.ErrAccountLocked,
	api.ReasonAccountDisabled:    common.ErrAccountDisabled,
	api.ReasonEmailNotVerified:   common.ErrEmailNotVerified,
	api.ReasonDuplicateIdentity:  common.ErrDuplicateIdentity,
	api.ReasonAgeRestricted:      common.ErrAgeRestricted,
	api.ReasonUserNotFound:       common.ErrUserNotFound,
	api.ReasonAlreadyVerified:    common.ErrAlreadyVerified,
	api.ReasonNoChallengeIssued:  common.ErrNoChallengeIssued,
	api.ReasonTooManyAttempts:    common.ErrTooManyAttempts,
	api.ReasonChallengeExpired:   common.ErrChallengeExpired,
	api.ReasonCodeMismatch:       common.ErrCodeMismatch,
	api.ReasonInvalidToken:       common.ErrInvalidToken,
	api.ReasonTokenExpired:       common.ErrTokenExpired,
}

// ServerError is a failed call the server explained. It matches the shared
// sentinel for its reason, so callers can use errors.Is(err, common.ErrX).
type ServerError struct {
	Code     codes.Code
	Reason   string
	Message  string
	Metadata map[string]string
}

func (e *ServerError) Error() string {
	return e.Message
}

func (e *ServerError) Unwrap() error {
	if err, ok := reasonErrors[e.Reason]; ok {
		return err
	}
	if e.Code == codes.Unauthenticated || e.Code == codes.PermissionDenied {
		return ErrUnauthorized
	}
	return nil
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	switch st.Code() {
	case codes.Unavailable, codes.DeadlineExceeded:
		return fmt.Errorf("%w: %s", ErrUnavailable, st.Message())
	case codes.Internal, codes.Unknown:
		return fmt.Errorf("rpc error: %w", err)
	}

	se := &ServerError{Code: st.Code(), Message: st.Message()}
	for _, d := range st.Details() {
		if info, ok := d.(*errdetails.ErrorInfo); ok {
			se.Reason = info.Reason
			se.Metadata = info.Metadata
		}
	}
	if se.Reason == "" && st.Code() == codes.Unauthenticated {
		// The auth interceptor answers with a bare status.
		switch st.Message() {
		case common.ErrTokenExpired.Error():
			se.Reason = api.ReasonTokenExpired
		case common.ErrInvalidToken.Error():
			se.Reason = api.ReasonInvalidToken
		}
	}
	return se
}
