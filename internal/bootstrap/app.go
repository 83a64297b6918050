package bootstrap

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/syntheaweb/synthea-client/config"
	"github.com/syntheaweb/synthea-client/internal/adapters/filestore"
	"github.com/syntheaweb/synthea-client/internal/adapters/memstore"
	"github.com/syntheaweb/synthea-client/internal/adapters/redisstore"
	"github.com/syntheaweb/synthea-client/internal/adapters/terminal"
	"github.com/syntheaweb/synthea-client/internal/api"
	"github.com/syntheaweb/synthea-client/internal/ports"
	"github.com/syntheaweb/synthea-client/internal/session"
	"github.com/syntheaweb/synthea-client/internal/transport"
)

// AppOptions groups dependencies for assembling the application.
type AppOptions struct {
	Config config.AppConfig
	Logger *slog.Logger

	// Err receives notices and navigation hints; command output stays on stdout.
	Err io.Writer

	// StartView is where the user lands before any guard decision.
	StartView ports.View
}

// App wires the token store, transport stack, API client, and session manager
// for one process.
type App struct {
	Config    config.AppConfig
	Logger    *slog.Logger
	Store     ports.TokenStore
	Navigator *terminal.Navigator
	Notifier  *terminal.Notifier
	API       *api.Client
	Sessions  *session.Manager

	redisClient *redis.Client
}

// NewApp assembles the application. The interceptor sits under every HTTP
// client built here, so all responses pass through it.
func NewApp(opts AppOptions) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	startView := opts.StartView
	if startView == "" {
		startView = ports.ViewHome
	}

	app := &App{
		Config:    opts.Config,
		Logger:    logger,
		Navigator: terminal.NewNavigator(opts.Err, startView),
		Notifier:  terminal.NewNotifier(opts.Err),
	}

	store, err := app.buildStore()
	if err != nil {
		return nil, err
	}
	app.Store = store

	interceptor := transport.NewInterceptor(transport.InterceptorOptions{
		Store:     store,
		Navigator: app.Navigator,
		Notifier:  app.Notifier,
		Cooldown:  opts.Config.Session.LogoutCooldown,
		Logger:    logger,
	})

	app.API = api.NewClient(api.ClientOptions{
		BaseURL:        opts.Config.API.BaseURL,
		Store:          store,
		HTTPClient:     &http.Client{Transport: interceptor, Timeout: opts.Config.API.Timeout},
		AuthHTTPClient: transport.NewAuthClient(store, interceptor),
		Logger:         logger,
		UserAgent:      opts.Config.API.UserAgent,
	})

	app.Sessions = session.NewManager(session.ManagerOptions{
		Store:  store,
		API:    app.API,
		Logger: logger,
	})

	return app, nil
}

func (a *App) buildStore() (ports.TokenStore, error) {
	switch a.Config.Storage.Backend {
	case config.StorageBackendFile:
		path := a.Config.Storage.Path
		if path == "" {
			defaultPath, err := filestore.DefaultPath()
			if err != nil {
				return nil, fmt.Errorf("resolve credentials path: %w", err)
			}
			path = defaultPath
		}
		return filestore.New(path), nil
	case config.StorageBackendRedis:
		a.redisClient = redis.NewClient(&redis.Options{
			Addr:     a.Config.Redis.Addr,
			Password: a.Config.Redis.Password,
			DB:       a.Config.Redis.DB,
		})
		return redisstore.NewWithKey(a.redisClient, a.Config.Storage.RedisKey), nil
	case config.StorageBackendMemory:
		return memstore.New(), nil
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", a.Config.Storage.Backend)
	}
}

// TokenPresent reports whether the store currently holds a token. Guards use
// it as the tie-breaker against the in-memory authenticated flag.
func (a *App) TokenPresent() bool {
	_, ok, err := a.Store.Token()
	if err != nil {
		a.Logger.Error("read token store", "error", err)
		return false
	}
	return ok
}

// Close releases infrastructure owned by the app.
func (a *App) Close() error {
	if a.redisClient != nil {
		return a.redisClient.Close()
	}
	return nil
}
