// Package memory keeps accounts and refresh tokens in process memory. It backs
// the server when no database DSN is configured and serves as the store in
// service tests. Every method holds the store mutex for its whole duration,
// which gives the same atomicity the SQL statements have.
package memory

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// Store is the shared state behind the Users and RefreshTokens views.
type Store struct {
	mu     sync.Mutex
	users  map[string]*models.User
	tokens map[string]*models.RefreshToken // by user ID
	now    func() time.Time
}

func NewStore() *Store {
	return &Store{
		users:  make(map[string]*models.User),
		tokens: make(map[string]*models.RefreshToken),
		now:    time.Now,
	}
}

// Users returns the account store view.
func (s *Store) Users() *Users { return &Users{s: s} }

// RefreshTokens returns the refresh token store view.
func (s *Store) RefreshTokens() *RefreshTokens { return &RefreshTokens{s: s} }

func newID() string { return uuid.NewString() }

func cloneUser(u *models.User) *models.User {
	c := *u
	return &c
}

func cloneToken(t *models.RefreshToken) *models.RefreshToken {
	c := *t
	return &c
}
