package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

const uniqueViolation = "23505"

// constraint name -> identity field
var uniqueConstraints = map[string]string{
	"users_email_key":    common.FieldEmail,
	"users_nickname_key": common.FieldNickname,
}

const userColumns = `id, email, nickname, password_hash, birth_date,
		 profile_image_url, gender, bio, email_verified, active,
		 verification_code_hash, verification_expiry, verification_attempts,
		 failed_login_attempts, locked_until, last_login_at, created_at, updated_at`

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		u                               models.User
		imageURL, gender, bio, codeHash sql.NullString
		expiry, lockedUntil, lastLogin  sql.NullTime
	)

	err := row.Scan(&u.ID, &u.Email, &u.Nickname, &u.PasswordHash, &u.BirthDate,
		&imageURL, &gender, &bio, &u.EmailVerified, &u.Active,
		&codeHash, &expiry, &u.VerificationAttempts,
		&u.FailedLoginAttempts, &lockedUntil, &lastLogin, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}

	u.ProfileImageURL = nullString(imageURL)
	u.Bio = nullString(bio)
	u.VerificationCodeHash = nullString(codeHash)
	if gender.Valid {
		g := models.Gender(gender.String)
		u.Gender = &g
	}
	u.VerificationExpiry = nullTime(expiry)
	u.LockedUntil = nullTime(lockedUntil)
	u.LastLoginAt = nullTime(lastLogin)

	return &u, nil
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}

func nullTime(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	return &v.Time
}

func (r *PostgresRepository) findOne(ctx context.Context, where string, arg any) (*models.User, error) {
	query := `SELECT ` + userColumns + `
		 FROM users
		 WHERE ` + where

	user, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, `email = $1`, email)
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, `id = $1`, id)
}

func (r *PostgresRepository) exists(ctx context.Context, where string, arg any) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE ` + where + `)`

	var found bool
	if err := r.db.QueryRowContext(ctx, query, arg).Scan(&found); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return found, nil
}

func (r *PostgresRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, `email = $1`, email)
}

func (r *PostgresRepository) ExistsByNickname(ctx context.Context, nickname string) (bool, error) {
	return r.exists(ctx, `nickname = $1`, nickname)
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (email, nickname, password_hash, birth_date,
		 profile_image_url, gender, bio, email_verified, active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id, created_at, updated_at
		 `

	var gender any
	if user.Gender != nil {
		gender = string(*user.Gender)
	}

	err := r.db.QueryRowContext(ctx, query,
		user.Email, user.Nickname, user.PasswordHash, user.BirthDate,
		user.ProfileImageURL, gender, user.Bio, user.EmailVerified, user.Active,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			if field, ok := uniqueConstraints[pgErr.ConstraintName]; ok {
				return nil, &ConflictError{Field: field, Err: err}
			}
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) SaveVerificationChallenge(ctx context.Context, id string, codeHash string, expiry time.Time) error {
	query :=
		`UPDATE users
		 SET verification_code_hash = $2, verification_expiry = $3,
		     verification_attempts = 0, updated_at = now()
		 WHERE id = $1
		 `
	return r.execOne(ctx, query, id, codeHash, expiry)
}

func (r *PostgresRepository) ConsumeVerificationAttempt(ctx context.Context, id string, maxAttempts int) (int, error) {
	query :=
		`UPDATE users
		 SET verification_attempts = verification_attempts + 1, updated_at = now()
		 WHERE id = $1 AND verification_attempts < $2
		 RETURNING verification_attempts
		 `

	var attempts int
	if err := r.db.QueryRowContext(ctx, query, id, maxAttempts).Scan(&attempts); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrorNotFound
		}
		return 0, fmt.Errorf("db error: %w", err)
	}
	return attempts, nil
}

func (r *PostgresRepository) MarkEmailVerified(ctx context.Context, id string) error {
	query :=
		`UPDATE users
		 SET email_verified = TRUE, verification_code_hash = NULL,
		     verification_expiry = NULL, verification_attempts = 0, updated_at = now()
		 WHERE id = $1
		 `
	return r.execOne(ctx, query, id)
}

func (r *PostgresRepository) IncrementFailureAndMaybeLock(ctx context.Context, id string, maxAttempts int, lockUntil time.Time) (int64, error) {
	query :=
		`UPDATE users
		 SET failed_login_attempts = failed_login_attempts + 1,
		     locked_until = CASE WHEN failed_login_attempts + 1 >= $2 THEN $3 ELSE locked_until END,
		     updated_at = now()
		 WHERE id = $1
		 `
	return r.execCount(ctx, query, id, maxAttempts, lockUntil)
}

func (r *PostgresRepository) ResetFailureAndStampLogin(ctx context.Context, id string, now time.Time) (int64, error) {
	query :=
		`UPDATE users
		 SET failed_login_attempts = 0, locked_until = NULL,
		     last_login_at = $2, updated_at = now()
		 WHERE id = $1
		 `
	return r.execCount(ctx, query, id, now)
}

func (r *PostgresRepository) execCount(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) execOne(ctx context.Context, query string, args ...any) error {
	n, err := r.execCount(ctx, query, args...)
	if err != nil {
		return err
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
