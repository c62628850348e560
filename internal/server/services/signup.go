package services

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/account"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
)

// SignupInput carries an already format-validated registration request.
// BirthDate is a calendar date; only its year, month and day are used.
type SignupInput struct {
	Email           string
	Password        string
	Nickname        string
	BirthDate       time.Time
	ProfileImageURL *string
	Gender          *models.Gender
	Bio             *string
}

// Signup creates an unverified, active account and returns its ID. It issues
// no tokens and sends no verification code.
func (s *SessionService) Signup(ctx context.Context, in SignupInput) (string, error) {
	repo := s.repomanager.Users(s.db.Conn())

	taken, err := repo.ExistsByEmail(ctx, in.Email)
	if err != nil {
		return "", common.Infra("check email", err)
	}
	if taken {
		return "", &common.DuplicateIdentityError{Field: common.FieldEmail}
	}

	taken, err = repo.ExistsByNickname(ctx, in.Nickname)
	if err != nil {
		return "", common.Infra("check nickname", err)
	}
	if taken {
		return "", &common.DuplicateIdentityError{Field: common.FieldNickname}
	}

	if err := account.CheckAge(in.BirthDate, s.now().In(s.loc), s.minimumAge); err != nil {
		return "", err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return "", common.Infra("hash password", err)
	}

	user, err := repo.Create(ctx, &models.User{
		Email:           in.Email,
		Nickname:        in.Nickname,
		PasswordHash:    hash,
		BirthDate:       in.BirthDate,
		ProfileImageURL: in.ProfileImageURL,
		Gender:          in.Gender,
		Bio:             in.Bio,
		Active:          true,
	})
	if err != nil {
		// lost a race with a concurrent signup
		var conflict *users.ConflictError
		if errors.As(err, &conflict) {
			return "", &common.DuplicateIdentityError{Field: conflict.Field}
		}
		return "", common.Infra("create user", err)
	}

	s.log.Info(ctx, "user signed up", "user_id", user.ID)
	return user.ID, nil
}

// CheckEmailAvailable reports whether no account uses email.
func (s *SessionService) CheckEmailAvailable(ctx context.Context, email string) (bool, error) {
	taken, err := s.repomanager.Users(s.db.Conn()).ExistsByEmail(ctx, email)
	if err != nil {
		return false, common.Infra("check email", err)
	}
	return !taken, nil
}
