package services

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/cryptox"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/account"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// SendVerificationCode issues a fresh code and mails it. Unknown and already
// verified emails succeed silently so the call does not reveal accounts.
func (s *SessionService) SendVerificationCode(ctx context.Context, email string) error {
	repo := s.repomanager.Users(s.db.Conn())

	user, err := repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.log.Debug(ctx, "verification code requested for unknown email")
			return nil
		}
		return common.Infra("find user", err)
	}
	if user.EmailVerified {
		s.log.Debug(ctx, "verification code requested for verified user", "user_id", user.ID)
		return nil
	}

	code, err := cryptox.NewNumericCode(s.codeMin, s.codeMax)
	if err != nil {
		return common.Infra("generate code", err)
	}

	expiry := s.now().Add(s.verificationTTL)
	if err := repo.SaveVerificationChallenge(ctx, user.ID, cryptox.Digest(code), expiry); err != nil {
		return common.Infra("save verification challenge", err)
	}

	if err := s.notifier.SendVerificationCode(ctx, user.Email, code); err != nil {
		return common.Infra("send verification code", err)
	}

	s.log.Info(ctx, "verification code sent", "user_id", user.ID)
	return nil
}

// VerifyCode checks code against the user's challenge. Every comparison
// first consumes one attempt with an atomic conditional increment, so
// parallel guesses cannot exceed the attempt limit. A wrong code is reported
// with the attempts left. A right one marks the email verified and stores a
// new refresh token in the same transaction.
//
// Tokens are signed before anything is marked, so a signing failure leaves
// the account untouched even on the in-memory backend, whose WithTx cannot
// roll back.
func (s *SessionService) VerifyCode(ctx context.Context, email, code string) (*models.TokenPair, error) {
	var (
		pair     *models.TokenPair
		mismatch error
	)

	err := s.db.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		user, err := repo.FindByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrUserNotFound
			}
			return common.Infra("find user", err)
		}

		if err := account.CheckChallenge(user, s.now(), s.verificationMaxAttempts); err != nil {
			return err
		}

		attempts, err := repo.ConsumeVerificationAttempt(ctx, user.ID, s.verificationMaxAttempts)
		if err != nil {
			// the user was just read, so no row means a parallel call used up the attempts
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrTooManyAttempts
			}
			return common.Infra("count verification attempt", err)
		}

		if !account.CodeMatches(user, code) {
			// commit the increment, report after
			mismatch = &common.CodeMismatchError{
				AttemptsRemaining: account.AttemptsRemaining(attempts, s.verificationMaxAttempts),
			}
			return nil
		}

		signed, err := s.signPair(user.ID)
		if err != nil {
			return err
		}

		if err := repo.MarkEmailVerified(ctx, user.ID); err != nil {
			return common.Infra("mark email verified", err)
		}

		if err := s.tokens.issueWith(ctx, tx, user.ID, signed.RefreshToken); err != nil {
			return err
		}
		pair = signed
		return nil
	})
	if err != nil {
		return nil, wrapInfra("verify code", err)
	}
	if mismatch != nil {
		return nil, mismatch
	}

	s.log.Info(ctx, "email verified", "user_id", pair.UserID)
	return pair, nil
}
