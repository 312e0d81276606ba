package cmd

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"nailchat/assistant"
	"nailchat/config"
	"nailchat/engine"
	"nailchat/storage"
)

// app bundles everything a command needs to work with the history and the
// assistant service
type app struct {
	cfg    *config.Config
	log    zerolog.Logger
	store  storage.RosterStore
	client *assistant.Client
	engine *engine.Engine

	closers []io.Closer
}

// openApp loads configuration and wires the engine. fileLog sends logs to
// debug.log instead of stderr, for when the terminal belongs to the TUI.
func openApp(fileLog bool) (*app, error) {
	cfg, err := config.Load(overrides())
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg}

	if fileLog {
		logger, closer, err := config.NewLogger(cfg.DataDir(), cfg.LogLevel, cfg.Debug)
		if err != nil {
			return nil, err
		}
		a.log = logger
		a.closers = append(a.closers, closer)
	} else {
		a.log = config.NewConsoleLogger(cfg.LogLevel, cfg.Debug)
	}

	store, err := storage.Open(cfg.StorageBackend, cfg.DataDir())
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to open chat history: %w", err)
	}
	a.store = store
	a.closers = append(a.closers, store)

	client, err := assistant.NewClient(assistant.Config{
		BaseURL: cfg.ServerURL,
		UserID:  cfg.UserID,
		Timeout: cfg.RequestTimeout,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	a.client = client

	a.engine = engine.New(client, store,
		engine.WithLogger(a.log),
		engine.WithSendTimeout(cfg.RequestTimeout),
	)
	// A corrupt history is logged and replaced by an empty one
	_ = a.engine.Load()

	a.log.Debug().
		Str("server", cfg.ServerURL).
		Str("data_dir", cfg.DataDir()).
		Str("storage", string(cfg.StorageBackend)).
		Msg("nailchat initialized")

	return a, nil
}

// requireUnlocked refuses to modify history while the chat is open on the
// same data directory
func (a *app) requireUnlocked() error {
	locked, pid, err := storage.NewInstanceLock(a.cfg.DataDir()).Check()
	if err != nil {
		return err
	}
	if locked {
		return fmt.Errorf("nailchat is running (PID %d) on %s; close it first", pid, a.cfg.DataDir())
	}
	return nil
}

func (a *app) Close() {
	// Reverse order: the store flushes before the log closes
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.log.Warn().Err(err).Msg("close failed")
		}
	}
}
