// Package server wires the locker application together: configuration,
// logging, the session store, authentication, metrics and the web server,
// and runs it until a signal or context cancellation stops it.
package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/lockerkeeper/internal/common"
	"github.com/dmitrijs2005/lockerkeeper/internal/logging"
	"github.com/dmitrijs2005/lockerkeeper/internal/server/auth"
	"github.com/dmitrijs2005/lockerkeeper/internal/server/config"
	"github.com/dmitrijs2005/lockerkeeper/internal/server/lockers"
	"github.com/dmitrijs2005/lockerkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/lockerkeeper/internal/server/sessions"
	"github.com/dmitrijs2005/lockerkeeper/internal/server/web"
)

// sweepInterval is how often idle sessions are dropped in the background,
// on top of the sweep done on session creation.
const sweepInterval = time.Minute

type App struct {
	config *config.Config
	logger logging.Logger
	store  *sessions.Store
	server *web.HTTPServer
}

func NewApp(c *config.Config) (*App, error) {
	logger, err := logging.NewJSONLogger(os.Stdout, c.LogLevel)
	if err != nil {
		return nil, err
	}

	return newApp(c, logger)
}

func newApp(c *config.Config, logger logging.Logger) (*App, error) {
	ctx := context.Background()

	seed, err := lockers.SeedByName(c.Seed)
	if err != nil {
		return nil, err
	}

	key := []byte(c.CookieKey)
	if len(key) == 0 {
		// sessions will not survive a restart
		key = common.GenerateRandByteArray(32)
		logger.Warn(ctx, "COOKIE_KEY is not set, using a random key for this process")
	}
	if c.AdminUser == "" || c.AdminHash == "" {
		logger.Warn(ctx, "administrator credentials are not configured, nobody can reach the admin panel")
	}

	store := sessions.NewStore(sessions.Options{
		LockerCount: c.LockerCount,
		Seed:        seed,
		IdleTimeout: c.SessionIdleTimeout,
		LoginEvery:  c.LoginEvery,
		LoginBurst:  c.LoginBurst,
		MaxSessions: c.MaxSessions,
	})
	gate := auth.NewAuthenticator(c.PrincipalTable(), logger)
	m := metrics.New(store.Len)

	h, err := web.NewHandler(store, gate, m, logger, web.Options{
		AdminUser:    c.AdminUser,
		CookieName:   c.CookieName,
		CookieKey:    key,
		CookieExpiry: c.CookieExpiry,
		CookieSecure: c.CookieSecure,
	})
	if err != nil {
		return nil, fmt.Errorf("web handler init error: %w", err)
	}

	return &App{
		config: c,
		logger: logger,
		store:  store,
		server: web.NewHTTPServer(c.EndpointAddrHTTP, h.Routes(), logger),
	}, nil
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case s := <-sigs:
			app.logger.Info(ctx, "signal received", "signal", s.String())
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) error {
	err := app.server.Run(ctx)
	if err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
	return err
}

func (app *App) startSweeper(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := app.store.Sweep(); n > 0 {
				app.logger.Debug(ctx, "idle sessions dropped", "count", n)
			}
		}
	}
}

// Run blocks until ctx is cancelled, a termination signal arrives or the
// web server fails. Only the last case yields an error.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "lockers", app.config.LockerCount, "seed", app.config.Seed)

	app.initSignalHandler(ctx, cancelFunc)

	var (
		wg        sync.WaitGroup
		serverErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		serverErr = app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startSweeper(ctx)
	}()

	wg.Wait()

	app.logger.Info(context.WithoutCancel(ctx), "App stopped")
	if serverErr != nil && !errors.Is(serverErr, context.Canceled) {
		return serverErr
	}
	return nil
}
