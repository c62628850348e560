package memory

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/account"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
)

// Users implements users.Repository.
type Users struct {
	s *Store
}

var _ users.Repository = (*Users)(nil)

// must be called with s.mu held
func (r *Users) byEmail(email string) *models.User {
	for _, u := range r.s.users {
		if u.Email == email {
			return u
		}
	}
	return nil
}

func (r *Users) byNickname(nickname string) *models.User {
	for _, u := range r.s.users {
		if u.Nickname == nickname {
			return u
		}
	}
	return nil
}

func (r *Users) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if u := r.byEmail(email); u != nil {
		return cloneUser(u), nil
	}
	return nil, common.ErrorNotFound
}

func (r *Users) FindByID(_ context.Context, id string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if u, ok := r.s.users[id]; ok {
		return cloneUser(u), nil
	}
	return nil, common.ErrorNotFound
}

func (r *Users) ExistsByEmail(_ context.Context, email string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.byEmail(email) != nil, nil
}

func (r *Users) ExistsByNickname(_ context.Context, nickname string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.byNickname(nickname) != nil, nil
}

func (r *Users) Create(_ context.Context, user *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.byEmail(user.Email) != nil {
		return nil, &users.ConflictError{Field: common.FieldEmail}
	}
	if r.byNickname(user.Nickname) != nil {
		return nil, &users.ConflictError{Field: common.FieldNickname}
	}

	now := r.s.now()
	user.ID = newID()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.s.users[user.ID] = cloneUser(user)

	return user, nil
}

// update applies fn to the stored user and reports whether it existed.
func (r *Users) update(id string, fn func(models.User) models.User) bool {
	u, ok := r.s.users[id]
	if !ok {
		return false
	}
	next := fn(*u)
	next.UpdatedAt = r.s.now()
	*u = next
	return true
}

func (r *Users) SaveVerificationChallenge(_ context.Context, id string, codeHash string, expiry time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	ok := r.update(id, func(u models.User) models.User {
		return account.IssueChallenge(u, codeHash, expiry)
	})
	if !ok {
		return common.ErrorNotFound
	}
	return nil
}

func (r *Users) ConsumeVerificationAttempt(_ context.Context, id string, maxAttempts int) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok || u.VerificationAttempts >= maxAttempts {
		return 0, common.ErrorNotFound
	}
	r.update(id, account.RecordAttempt)
	return u.VerificationAttempts, nil
}

func (r *Users) MarkEmailVerified(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if !r.update(id, account.MarkVerified) {
		return common.ErrorNotFound
	}
	return nil
}

func (r *Users) IncrementFailureAndMaybeLock(_ context.Context, id string, maxAttempts int, lockUntil time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	ok := r.update(id, func(u models.User) models.User {
		return account.ApplyFailure(u, maxAttempts, lockUntil)
	})
	return rows(ok), nil
}

func (r *Users) ResetFailureAndStampLogin(_ context.Context, id string, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	ok := r.update(id, func(u models.User) models.User {
		return account.ApplySuccess(u, now)
	})
	return rows(ok), nil
}

// SetActive flips the administrative kill switch. There is no SQL
// counterpart; operators do this directly in the database.
func (r *Users) SetActive(id string, active bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	ok := r.update(id, func(u models.User) models.User {
		u.Active = active
		return u
	})
	if !ok {
		return common.ErrorNotFound
	}
	return nil
}

func rows(ok bool) int64 {
	if ok {
		return 1
	}
	return 0
}
