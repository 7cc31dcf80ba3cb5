package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/donorlens/donorlens/internal/auth/domain"
	httpapi "github.com/donorlens/donorlens/internal/auth/http"
	"github.com/donorlens/donorlens/internal/auth/service"
	"github.com/donorlens/donorlens/internal/auth/store"
	"github.com/donorlens/donorlens/internal/auth/store/drivers/sqlite"
	"github.com/donorlens/donorlens/pkg/jwtx"
	"github.com/donorlens/donorlens/pkg/slogx"
)

// BuildVersion should be set at build time via ldflags.
const BuildVersion = "v0.1.0"

// Application wires the auth service together: store, token codec,
// services, and the HTTP server.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db    store.Store
	codec *jwtx.Codec

	sessionService *service.SessionService
	userService    *service.UserService

	server *http.Server
	router *httpapi.Router
}

// New builds an Application. It fails fast on missing or shared token
// secrets rather than booting a server that can never issue a session.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "donorlens-auth",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	codec, err := jwtx.NewCodec(jwtx.Config{
		AccessSecret:  []byte(cfg.AccessSecret),
		RenewalSecret: []byte(cfg.RenewalSecret),
		AccessTTL:     cfg.AccessTTL,
		RenewalTTL:    cfg.RenewalTTL,
		Issuer:        cfg.Issuer,
	})
	if err != nil {
		return nil, fmt.Errorf("token codec: %w", err)
	}
	app.codec = codec

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	app.sessionService = &service.SessionService{Codec: codec, Store: app.db}
	app.userService = &service.UserService{Store: app.db}

	if err := app.bootstrapAdmin(context.Background()); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initHTTP()
	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.logger.Info("auth service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}
	return nil
}

// Shutdown drains in-flight requests, then closes the store.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

// bootstrapAdmin seeds the first admin account on an empty store so a
// fresh deployment has someone who can log in. Existing data disables
// it entirely.
func (app *Application) bootstrapAdmin(ctx context.Context) error {
	if app.cfg.BootstrapEmail == "" || app.cfg.BootstrapPassword == "" {
		return nil
	}

	empty, err := app.db.Users().IsEmpty(ctx)
	if err != nil {
		return fmt.Errorf("bootstrap check: %w", err)
	}
	if !empty {
		return nil
	}

	user, err := app.userService.CreateUser(ctx, app.cfg.BootstrapEmail, "Bootstrap Admin", app.cfg.BootstrapPassword, domain.RoleAdmin)
	if err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}
	app.logger.Info("bootstrap admin created", "user_id", user.ID, "email", user.Email)
	return nil
}

func (app *Application) initHTTP() {
	app.router = &httpapi.Router{
		Sessions:      app.sessionService,
		Users:         app.userService,
		Codec:         app.codec,
		Store:         app.db,
		SecureCookies: app.cfg.SecureCookies(),
		RenewalTTL:    app.codec.RenewalTTL(),
		Version:       BuildVersion,
	}

	mux := http.NewServeMux()
	app.router.ApplyRoutes(mux)

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           slogx.HTTPMiddleware(app.logger)(mux),
		ReadHeaderTimeout: 3 * time.Second,
	}
}
