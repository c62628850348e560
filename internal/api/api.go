// Package api is the wire contract shared by the gRPC server and the authctl
// client: method names and the request/response messages. Messages travel as
// JSON through the codec in codec.go.
package api

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "gophauth.v1.AuthService"

// Method names and full method paths.
const (
	NameSignup               = "Signup"
	NameCheckEmailAvailable  = "CheckEmailAvailable"
	NameLogin                = "Login"
	NameSendVerificationCode = "SendVerificationCode"
	NameVerifyCode           = "VerifyCode"
	NameRefreshAccessToken   = "RefreshAccessToken"
	NameLogout               = "Logout"

	MethodSignup               = "/" + ServiceName + "/" + NameSignup
	MethodCheckEmailAvailable  = "/" + ServiceName + "/" + NameCheckEmailAvailable
	MethodLogin                = "/" + ServiceName + "/" + NameLogin
	MethodSendVerificationCode = "/" + ServiceName + "/" + NameSendVerificationCode
	MethodVerifyCode           = "/" + ServiceName + "/" + NameVerifyCode
	MethodRefreshAccessToken   = "/" + ServiceName + "/" + NameRefreshAccessToken
	MethodLogout               = "/" + ServiceName + "/" + NameLogout
)

// Error reasons carried in google.rpc.ErrorInfo details.
const (
	ErrorDomain = "gophauth"

	ReasonInvalidCredentials = "INVALID_CREDENTIALS"
	ReasonAccountLocked      = "ACCOUNT_LOCKED"
	ReasonAccountDisabled    = "ACCOUNT_DISABLED"
	ReasonEmailNotVerified   = "EMAIL_NOT_VERIFIED"
	ReasonDuplicateIdentity  = "DUPLICATE_IDENTITY"
	ReasonAgeRestricted      = "AGE_RESTRICTED"
	ReasonUserNotFound       = "USER_NOT_FOUND"
	ReasonAlreadyVerified    = "ALREADY_VERIFIED"
	ReasonNoChallengeIssued  = "NO_CHALLENGE_ISSUED"
	ReasonTooManyAttempts    = "TOO_MANY_ATTEMPTS"
	ReasonChallengeExpired   = "CHALLENGE_EXPIRED"
	ReasonCodeMismatch       = "CODE_MISMATCH"
	ReasonInvalidToken       = "INVALID_TOKEN"
	ReasonTokenExpired       = "TOKEN_EXPIRED"

	MetaRemainingMinutes  = "remaining_minutes"
	MetaField             = "field"
	MetaMinimumAge        = "minimum_age"
	MetaAttemptsRemaining = "attempts_remaining"
)

type SignupRequest struct {
	Email           string  `json:"email" validate:"required,email,max=255"`
	Password        string  `json:"password" validate:"required,password"`
	Nickname        string  `json:"nickname" validate:"required,min=2,max=10"`
	BirthDate       string  `json:"birth_date" validate:"required,datetime=2006-01-02"`
	ProfileImageURL *string `json:"profile_image_url,omitempty" validate:"omitempty,url"`
	Gender          *string `json:"gender,omitempty" validate:"omitempty,gender"`
	Bio             *string `json:"bio,omitempty" validate:"omitempty,max=50"`
}

type SignupResponse struct {
	UserID string `json:"user_id"`
}

type CheckEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type CheckEmailResponse struct {
	Available bool `json:"available"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type SendCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type VerifyCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,numeric"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// LogoutRequest is empty; the user comes from the access token.
type LogoutRequest struct{}

type TokenPair struct {
	UserID       string `json:"user_id"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type Empty struct{}
