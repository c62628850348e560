package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/account"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
)

// timingPassword is hashed once at startup; logins for unknown emails verify
// against it so they cost the same as a wrong password.
const timingPassword = "gophauth-timing-equalizer"

// Deps are the collaborators of SessionService.
type Deps struct {
	DB       dbx.Database
	Repos    repomanager.RepositoryManager
	Signer   auth.Signer
	Hasher   PasswordHasher
	Notifier Notifier
	Lockout  *LockoutCounter
	Tokens   *RefreshTokenStore
	Logger   logging.Logger
}

// SessionService is the session orchestrator. It exposes login, signup,
// email availability, email verification, access token refresh and logout.
// All methods are safe for concurrent use.
type SessionService struct {
	db          dbx.Database
	repomanager repomanager.RepositoryManager
	signer      auth.Signer
	hasher      PasswordHasher
	notifier    Notifier
	lockout     *LockoutCounter
	tokens      *RefreshTokenStore
	log         logging.Logger
	now         Clock
	loc         *time.Location

	minimumAge              int
	rotateRefreshTokens     bool
	verificationTTL         time.Duration
	verificationMaxAttempts int
	codeMin, codeMax        int

	dummyHash string
}

// NewSessionService wires a SessionService from its collaborators and config.
// It fails when the timing hash cannot be computed, since unknown-email
// logins would otherwise answer faster than wrong passwords.
func NewSessionService(d Deps, cfg *config.Config) (*SessionService, error) {
	s := &SessionService{
		db:                      d.DB,
		repomanager:             d.Repos,
		signer:                  d.Signer,
		hasher:                  d.Hasher,
		notifier:                d.Notifier,
		lockout:                 d.Lockout,
		tokens:                  d.Tokens,
		log:                     d.Logger.With("module", "session"),
		now:                     time.Now,
		loc:                     cfg.Location(),
		minimumAge:              cfg.MinimumAge,
		rotateRefreshTokens:     cfg.RotateRefreshTokens,
		verificationTTL:         cfg.VerificationCodeTTL,
		verificationMaxAttempts: cfg.VerificationMaxAttempts,
		codeMin:                 cfg.VerificationCodeMin,
		codeMax:                 cfg.VerificationCodeMax,
	}

	h, err := s.hasher.Hash(timingPassword)
	if err != nil {
		return nil, fmt.Errorf("hash timing password: %w", err)
	}
	s.dummyHash = h
	return s, nil
}

// WithClock replaces the time source of the service and of its lockout
// counter and token store, for tests.
func (s *SessionService) WithClock(now Clock) *SessionService {
	s.now = now
	s.lockout.WithClock(now)
	s.tokens.WithClock(now)
	return s
}

// Login checks, in order: account exists, not locked, active, password,
// email verified. Only a wrong password counts towards the lockout.
func (s *SessionService) Login(ctx context.Context, email, password string) (*models.TokenPair, error) {
	user, err := s.repomanager.Users(s.db.Conn()).FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			_, _ = s.hasher.Verify(password, s.dummyHash)
			return nil, common.ErrInvalidCredentials
		}
		return nil, common.Infra("find user", err)
	}

	if err := account.CheckLoginAllowed(user, s.now()); err != nil {
		s.log.Info(ctx, "login refused", "user_id", user.ID, "reason", err.Error())
		return nil, err
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return nil, common.Infra("verify password", err)
	}
	if !ok {
		if err := s.lockout.RecordFailure(ctx, user.ID); err != nil {
			return nil, err
		}
		return nil, common.ErrInvalidCredentials
	}

	if !user.EmailVerified {
		return nil, common.ErrEmailNotVerified
	}

	if err := s.lockout.RecordSuccess(ctx, user.ID); err != nil {
		return nil, err
	}

	pair, err := s.issuePair(ctx, s.db.Conn(), user.ID)
	if err != nil {
		return nil, err
	}
	s.log.Info(ctx, "login succeeded", "user_id", user.ID)
	return pair, nil
}

// RefreshAccessToken redeems a refresh token for a new access token. The
// presented refresh token is handed back unless rotation is enabled, in
// which case a new one replaces it.
func (s *SessionService) RefreshAccessToken(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	userID, err := s.tokens.Redeem(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	access, err := s.signer.IssueAccessToken(userID)
	if err != nil {
		return nil, common.Infra("sign access token", err)
	}

	refresh := refreshToken
	if s.rotateRefreshTokens {
		refresh, err = s.signer.IssueRefreshToken(userID)
		if err != nil {
			return nil, common.Infra("sign refresh token", err)
		}
		if err := s.tokens.Issue(ctx, userID, refresh); err != nil {
			return nil, err
		}
	}

	return &models.TokenPair{UserID: userID, AccessToken: access, RefreshToken: refresh}, nil
}

// Logout revokes the user's refresh token. Access tokens stay valid until
// they expire.
func (s *SessionService) Logout(ctx context.Context, userID string) error {
	if _, err := s.repomanager.Users(s.db.Conn()).FindByID(ctx, userID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrUserNotFound
		}
		return common.Infra("find user", err)
	}

	if err := s.tokens.Revoke(ctx, userID); err != nil {
		return err
	}
	s.log.Info(ctx, "logged out", "user_id", userID)
	return nil
}

// issuePair signs both tokens and stores the refresh digest through tx.
func (s *SessionService) issuePair(ctx context.Context, tx dbx.DBTX, userID string) (*models.TokenPair, error) {
	pair, err := s.signPair(userID)
	if err != nil {
		return nil, err
	}
	if err := s.tokens.issueWith(ctx, tx, userID, pair.RefreshToken); err != nil {
		return nil, err
	}
	return pair, nil
}

// signPair signs both tokens without storing anything.
func (s *SessionService) signPair(userID string) (*models.TokenPair, error) {
	access, err := s.signer.IssueAccessToken(userID)
	if err != nil {
		return nil, common.Infra("sign access token", err)
	}
	refresh, err := s.signer.IssueRefreshToken(userID)
	if err != nil {
		return nil, common.Infra("sign refresh token", err)
	}
	return &models.TokenPair{UserID: userID, AccessToken: access, RefreshToken: refresh}, nil
}
