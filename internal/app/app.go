// Package app wires configuration, persistence, the API client, services,
// stores and the router into one object per process.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/strrl/copycat/internal/api"
	"github.com/strrl/copycat/internal/config"
	"github.com/strrl/copycat/internal/db"
	"github.com/strrl/copycat/internal/localstore"
	"github.com/strrl/copycat/internal/providers"
	"github.com/strrl/copycat/internal/router"
	"github.com/strrl/copycat/internal/service"
	"github.com/strrl/copycat/internal/staging"
	"github.com/strrl/copycat/internal/store"
)

// App holds everything a screen or command needs
type App struct {
	Config   *config.Config
	Logger   *zap.Logger
	Client   *api.Client
	Services *service.Set

	Users    *store.UserStore
	Projects *store.ProjectStore
	Settings *store.SettingsStore
	History  *store.HistoryStore

	Router *router.Router
	Stager *staging.Stager

	local     *localstore.Store
	historyDB *sql.DB
}

type options struct {
	httpClient *http.Client
	local      *localstore.Store
}

// Option customizes New
type Option func(*options)

// WithHTTPClient makes the API client use hc
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

// WithLocalStore uses an already opened local store instead of the file in
// the data dir. App.Close closes it.
func WithLocalStore(s *localstore.Store) Option {
	return func(o *options) { o.local = s }
}

// New builds the application. Nothing talks to the backend until Initialize.
func New(cfg *config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	local := o.local
	if local == nil {
		var err error
		local, err = localstore.Open(cfg.TokenDBPath())
		if err != nil {
			return nil, err
		}
	}

	historyDB, err := db.Open()
	if err != nil {
		local.Close()
		return nil, err
	}

	stager, err := staging.New(cfg.Staging, logger.Named("staging"))
	if err != nil {
		local.Close()
		historyDB.Close()
		return nil, fmt.Errorf("failed to configure image staging: %w", err)
	}

	clientOpts := []api.Option{api.WithLogger(logger.Named("api"))}
	if o.httpClient != nil {
		clientOpts = append(clientOpts, api.WithHTTPClient(o.httpClient))
	}
	client := api.NewClient(cfg.BaseURL, local, clientOpts...)
	services := service.NewSet(client)

	a := &App{
		Config:    cfg,
		Logger:    logger,
		Client:    client,
		Services:  services,
		Users:     store.NewUserStore(services.Auth, services.User, local, local, logger.Named("user")),
		Projects:  store.NewProjectStore(services.Projects, logger.Named("projects")),
		Settings:  store.NewSettingsStore(services.Settings, providers.NewProber(logger.Named("providers")), logger.Named("settings")),
		History:   store.NewHistoryStore(historyDB),
		Stager:    stager,
		local:     local,
		historyDB: historyDB,
	}
	a.Router = router.New(session{a})
	client.OnUnauthorized(a.sessionExpired)
	return a, nil
}

// session is logged in when either the user store or the raw token says so
type session struct{ a *App }

func (s session) IsLoggedIn() bool {
	return s.a.Users.IsLoggedIn() || s.a.Client.Tokens().Token() != ""
}

func (a *App) sessionExpired() {
	a.Logger.Info("session rejected by the backend, returning to login")
	a.Users.Logout()
	a.Projects.ClearProjects()
	a.Router.ForceLogin()
}

// Initialize restores the session from the stored token and enters the first
// screen: home when the session is still valid, login otherwise.
func (a *App) Initialize(ctx context.Context) router.Name {
	a.Users.Initialize(ctx)
	dest, _ := a.Router.Navigate(router.Home)
	return dest
}

// LocalStore exposes the persisted key/value store
func (a *App) LocalStore() *localstore.Store {
	return a.local
}

// Close releases the databases
func (a *App) Close() error {
	return errors.Join(a.historyDB.Close(), a.local.Close())
}
