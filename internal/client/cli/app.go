package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/gophauth/internal/client/client"
	"github.com/dmitrijs2005/gophauth/internal/client/config"
	"github.com/dmitrijs2005/gophauth/internal/client/repositories/session"
	"github.com/dmitrijs2005/gophauth/internal/client/services"
)

type App struct {
	config      *config.Config
	authService services.AuthService
	db          *sql.DB
	reader      *bufio.Reader
	out         io.Writer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	db, err := client.InitDatabase(ctx, c.SessionDB)
	if err != nil {
		return nil, fmt.Errorf("error initializing session database: %w", err)
	}

	apiClient, err := client.NewGRPCClient(c.ServerEndpointAddr, c.RequestTimeout)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	as := services.NewAuthService(apiClient, session.NewSQLiteRepository(db))

	return &App{config: c, authService: as, db: db, reader: bufio.NewReader(os.Stdin), out: os.Stdout}, nil
}

// Run restores the saved session, then serves the REPL until the user
// exits or input ends.
func (a *App) Run(ctx context.Context) {
	defer func() {
		_ = a.authService.Close()
		if a.db != nil {
			_ = a.db.Close()
		}
	}()

	if s, err := a.authService.Restore(ctx); err != nil {
		a.printf("could not restore session: %v\n", err)
	} else if s.LoggedIn() {
		a.printf("Restored session for %s\n", s.Email)
	}

	a.printf("Welcome to authctl (type 'help' for commands)\n")
	runREPL(ctx, a, a.status, bufio.NewScanner(a.reader))
}

func (a *App) isLoggedIn() bool {
	return a.authService.Current().LoggedIn()
}

func (a *App) status() string {
	if s := a.authService.Current(); s.LoggedIn() {
		return s.Email
	}
	return "anonymous"
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}
