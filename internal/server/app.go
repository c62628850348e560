// Package server wires the gophauth server: storage backend, session
// service, notifier, refresh token sweeper and the gRPC endpoint. It also
// handles graceful shutdown on SIGINT/SIGTERM/SIGQUIT.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/gophauth/internal/cryptox"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/notify"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"github.com/dmitrijs2005/gophauth/internal/server/sweeper"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	gs "github.com/dmitrijs2005/gophauth/internal/server/grpc"
)

const sweepLeaseKey = "gophauth:sweep:refresh_tokens"

type App struct {
	config  *config.Config
	logger  logging.Logger
	session *services.SessionService
	tokens  *services.RefreshTokenStore
	signer  auth.Signer
	sweeper *sweeper.Scheduler

	closers []func() error
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)
	return newApp(ctx, c, logger)
}

func newApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	app := &App{config: c, logger: logger}

	db, repos, err := app.openStorage(ctx)
	if err != nil {
		app.Close()
		return nil, err
	}

	signer := auth.NewJWTSigner([]byte(c.SecretKey), c.AccessTokenValidityDuration, c.RefreshTokenValidityDuration)
	lockout := services.NewLockoutCounter(db, repos, c, logger)
	tokens := services.NewRefreshTokenStore(db, repos, c, logger)

	app.signer = signer
	app.tokens = tokens
	session, err := services.NewSessionService(services.Deps{
		DB:       db,
		Repos:    repos,
		Signer:   signer,
		Hasher:   cryptox.NewPasswordHasher(cryptox.DefaultArgon2Params),
		Notifier: app.newNotifier(),
		Lockout:  lockout,
		Tokens:   tokens,
		Logger:   logger,
	}, c)
	if err != nil {
		return nil, err
	}
	app.session = session
	app.sweeper = sweeper.New(tokens, app.newLease(), c.SweepHour, c.SweepMinute, c.Location(), logger)

	return app, nil
}

// openStorage connects to PostgreSQL and migrates it when a DSN is set, and
// falls back to the in-memory store otherwise.
func (app *App) openStorage(ctx context.Context) (dbx.Database, repomanager.RepositoryManager, error) {
	if app.config.DatabaseDSN == "" {
		app.logger.Warn(ctx, "no database DSN configured, using in-memory store")
		return dbx.Detached{}, repomanager.NewInMemoryRepositoryManager(), nil
	}

	db, err := sql.Open("pgx", app.config.DatabaseDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("db init error: %w", err)
	}
	app.closers = append(app.closers, db.Close)

	if err := db.PingContext(ctx); err != nil {
		return nil, nil, fmt.Errorf("db ping error: %w", err)
	}

	repos := repomanager.NewPostgresRepositoryManager()
	if err := repos.RunMigrations(ctx, db); err != nil {
		return nil, nil, fmt.Errorf("db migration error: %w", err)
	}

	return dbx.NewSQLDatabase(db, nil), repos, nil
}

func (app *App) newNotifier() services.Notifier {
	c := app.config
	if c.SMTPHost == "" {
		return notify.NewLogNotifier(app.logger, c.DevLogCodes)
	}
	return notify.NewSMTPNotifier(c.SMTPHost, c.SMTPPort, c.SMTPUser, c.SMTPPassword, c.SMTPFrom,
		int(c.VerificationCodeTTL.Minutes()), app.logger).
		WithTimeout(c.SMTPTimeout)
}

// newLease returns nil when no Redis is configured, so only the in-process
// guard applies.
func (app *App) newLease() sweeper.Lease {
	if app.config.RedisAddr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: app.config.RedisAddr})
	app.closers = append(app.closers, client.Close)
	return sweeper.NewRedisLease(client, sweepLeaseKey)
}

// Close releases the database pool and Redis client.
func (app *App) Close() {
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i](); err != nil {
			app.logger.Warn(context.Background(), "close failed", "error", err)
		}
	}
	app.closers = nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.session, app.signer)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startSweeper(ctx context.Context) {
	if err := app.sweeper.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		app.logger.Error(ctx, "sweeper stopped", "error", err)
	}
}

// Run serves until ctx is cancelled or a signal arrives, then waits for the
// gRPC server and the sweeper to stop and closes storage.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startSweeper(ctx)
	}()

	wg.Wait()

	app.Close()
	app.logger.Info(context.Background(), "App stopped")
}
