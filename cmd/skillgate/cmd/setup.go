package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/skillgate/skillgate/internal/adapter/outbound/memory"
	"github.com/skillgate/skillgate/internal/adapter/outbound/sqlitestate"
	"github.com/skillgate/skillgate/internal/adapter/outbound/state"
	"github.com/skillgate/skillgate/internal/config"
	"github.com/skillgate/skillgate/internal/domain/rule"
	"github.com/skillgate/skillgate/internal/domain/session"
)

// newLogger builds the process logger. Hooks log to stderr only: stdout
// belongs to the hook protocol.
func newLogger(level string) *slog.Logger {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "info":
		l = slog.LevelInfo
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}

// loadConfigAndRules loads tool config (with the --rules flag override) and
// the compiled rule set. Any failure here is a ConfigError: the invocation
// aborts rather than evaluating against a partial rule set.
func loadConfigAndRules() (*config.Config, *rule.Set, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	if rulesFile != "" {
		cfg.RulesFile = rulesFile
	}
	rules, err := rule.Load(cfg.RulesFile)
	if err != nil {
		return nil, nil, err
	}
	return cfg, rules, nil
}

// openSessionStore opens the configured session store backend. When the
// durable store cannot be opened, fail mode decides: "open" degrades to an
// in-memory store (the worst case is one extra remediable block), "closed"
// aborts the invocation.
func openSessionStore(cfg *config.Config, logger *slog.Logger) (session.Store, func(), error) {
	var (
		store   session.Store
		cleanup = func() {}
		err     error
	)
	switch cfg.State.Backend {
	case "sqlite":
		var s *sqlitestate.Store
		s, err = sqlitestate.Open(cfg.State.Path, logger)
		if err == nil {
			store, cleanup = s, func() { _ = s.Close() }
		}
	default:
		store, err = state.NewFileStore(cfg.State.Dir, logger)
	}
	if err != nil {
		if cfg.FailMode == "closed" {
			return nil, nil, fmt.Errorf("open session store: %w", err)
		}
		logger.Warn("session store unavailable, degrading to in-memory state", "error", err)
		return memory.NewSessionStore(), func() {}, nil
	}
	return store, cleanup, nil
}
