package notebase

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/notebase/notebase/pkg/blocks"
	"github.com/notebase/notebase/pkg/collab"
	"github.com/notebase/notebase/pkg/editor"
	"github.com/notebase/notebase/pkg/logger"
	"github.com/notebase/notebase/pkg/store"
	"github.com/notebase/notebase/pkg/store/memory"
	"github.com/notebase/notebase/pkg/store/postgres"
	"github.com/notebase/notebase/pkg/templates"
)

// Config holds application configuration.
type Config struct {
	PostgresDSN string

	// InMemory swaps PostgreSQL for the in-process store. Useful for
	// local development and tests; nothing survives a restart.
	InMemory bool

	// ReadOnly rejects all write operations at the store layer while
	// reads keep working, for maintenance windows.
	ReadOnly bool

	ServerPort string
	LogPath    string
}

// App wires the store, editor engine, collaboration hub, and template
// expander together behind the HTTP surface.
type App struct {
	store    store.Store
	engine   *editor.Engine
	hub      *collab.Hub
	expander *templates.Expander
	catalog  templates.Catalog
	auth     *StoreAuthorizer
	config   *Config
	log      zerolog.Logger
	readOnly bool
}

func New(config *Config) (*App, error) {
	build := logger.New()
	if config.LogPath != "" {
		build = build.FromPath(config.LogPath)
	} else {
		build = build.FromBuffer(os.Stderr)
	}
	logData, err := build.Make()
	if err != nil {
		return nil, fmt.Errorf("set up logging: %w", err)
	}
	log := logData.Logger

	var rows store.Store
	if config.InMemory {
		rows = memory.New()
		log.Info().Msg("using in-memory store")
	} else {
		rows, err = postgres.New(config.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		log.Info().Msg("connected to postgres")
	}

	app := &App{
		config:   config,
		log:      log,
		readOnly: config.ReadOnly,
	}
	app.store = store.NewReadOnlyStore(rows, app.IsReadOnly)

	hub := collab.NewHub(log)
	auth := NewStoreAuthorizer(app.store)
	engine := editor.New(
		blocks.NewStore(app.store),
		auth,
		collab.NewBridge(hub),
		log,
	)
	catalog := templates.Builtin()

	app.auth = auth
	app.hub = hub
	app.engine = engine
	app.catalog = catalog
	app.expander = templates.NewExpander(catalog, engine, log)
	return app, nil
}

func (a *App) Close() error {
	if a.store != nil {
		return a.store.Close()
	}
	return nil
}

// Store exposes the wrapped store, mainly for tests.
func (a *App) Store() store.Store { return a.store }

// Engine exposes the mutation engine, mainly for tests.
func (a *App) Engine() *editor.Engine { return a.engine }

// Hub exposes the collaboration hub, mainly for tests.
func (a *App) Hub() *collab.Hub { return a.hub }

// SetReadOnly flips the runtime read-only state. Enforced by the store
// wrapper on every write, so it takes effect immediately.
func (a *App) SetReadOnly(readOnly bool) {
	a.readOnly = readOnly
	a.log.Info().Bool("read_only", readOnly).Msg("read-only mode changed")
}

func (a *App) IsReadOnly() bool { return a.readOnly }

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
