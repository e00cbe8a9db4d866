package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"jupiter/internal/adapters/notion"
	"jupiter/internal/adapters/sqlstore"
	"jupiter/internal/config"
	"jupiter/internal/domain"
	"jupiter/internal/logging"
	"jupiter/internal/ports"
	"jupiter/internal/reconcile"
)

// Env carries everything a command needs. It is built once per process.
type Env struct {
	Store   ports.Store
	Remote  ports.RemoteGateway
	Clock   ports.Clock
	Logger  *slog.Logger
	Metrics *reconcile.Metrics
	Config  config.Config

	// dial builds a remote for a token; nil keeps Remote as is
	dial   func(token string) ports.RemoteGateway
	engine *reconcile.Engine
}

// NewEnv wires an Env from parts
func NewEnv(store ports.Store, remote ports.RemoteGateway, clock ports.Clock, logger *slog.Logger, metrics *reconcile.Metrics, cfg config.Config) *Env {
	if logger == nil {
		logger = logging.Discard()
	}
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &Env{Store: store, Remote: remote, Clock: clock, Logger: logger, Metrics: metrics, Config: cfg}
}

// Open connects the local store named by cfg and an HTTP remote. The
// remote token comes from the config, falling back to the one recorded
// on the workspace.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Env, error) {
	store, err := sqlstore.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open local store: %w", err)
	}

	var loc *time.Location
	if cfg.Timezone != "" {
		loc, _ = time.LoadLocation(cfg.Timezone)
	}
	token := cfg.Remote.Token
	var ws domain.Optional[domain.Workspace]
	err = ports.InTx(ctx, store, func(tx ports.Tx) error {
		var err error
		ws, err = tx.Workspaces().LoadOptional(ctx)
		return err
	})
	if err != nil {
		store.Close()
		return nil, err
	}
	if w, ok := ws.Get(); ok {
		if token == "" {
			token = w.RemoteToken
		}
		if loc == nil {
			loc = w.Location()
		}
	}

	env := NewEnv(store, nil, ports.SystemClock{}, logger, reconcile.NewMetrics(), cfg)
	env.dial = func(token string) ports.RemoteGateway {
		return notion.New(notion.Options{
			BaseURL:           cfg.Remote.BaseURL,
			Token:             token,
			APIVersion:        cfg.Remote.APIVersion,
			RetryBudget:       cfg.Remote.RetryBudget,
			RetryQuantum:      cfg.Remote.RetryQuantum,
			RequestsPerSecond: cfg.Remote.RequestsPerSecond,
			Timeout:           cfg.Remote.Timeout,
			Location:          loc,
			Logger:            env.Logger,
		})
	}
	env.Remote = env.dial(token)
	return env, nil
}

// UseToken points the remote at a new credential
func (e *Env) UseToken(token string) {
	if e.dial == nil {
		return
	}
	e.Remote = e.dial(token)
	e.engine = nil
}

// Engine returns the reconciliation engine over the Env's store and remote.
// A configured timezone overrides the workspace one.
func (e *Env) Engine() *reconcile.Engine {
	if e.engine != nil {
		return e.engine
	}
	engine := reconcile.NewEngine(e.Store, e.Remote, e.Clock, e.Logger, e.Metrics)
	if e.Config.Timezone != "" {
		if loc, err := time.LoadLocation(e.Config.Timezone); err == nil {
			engine = engine.WithLocation(loc)
		}
	}
	e.engine = engine
	return engine
}

// Workspace loads the workspace, failing with a hint when init never ran
func (e *Env) Workspace(ctx context.Context) (domain.Workspace, error) {
	ws, err := e.Engine().Workspace(ctx)
	if err != nil {
		return ws, fmt.Errorf("%w (run init first)", err)
	}
	return ws, nil
}

// Close flushes the metrics textfile when configured and closes the store
func (e *Env) Close() error {
	if e.Metrics != nil && e.Config.Metrics.File != "" {
		if err := e.Metrics.WriteTextfile(e.Config.Metrics.File); err != nil {
			e.Logger.Warn("failed to write metrics", "file", e.Config.Metrics.File, "error", err)
		}
	}
	if e.Store == nil {
		return nil
	}
	return e.Store.Close()
}
