package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/eduardojeem/benchline/internal/triage/domain/priority"
)

// ConfigStore holds the single active priority configuration. Reads are
// lock-free via an atomic pointer; replacements are validated, serialized,
// and activated atomically so in-flight evaluations keep seeing a
// consistent config value.
type ConfigStore struct {
	mu      sync.Mutex
	current atomic.Pointer[priority.Config]
	repo    priority.ConfigRepository
	logger  *slog.Logger
	now     func() time.Time
}

// NewConfigStore creates a store backed by the given repository. repo may
// be nil for a purely in-memory store (tests, local mode).
func NewConfigStore(repo priority.ConfigRepository, logger *slog.Logger) *ConfigStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConfigStore{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// LoadPersisted primes the store from the repository. A missing stored
// config is not an error; the built-in default stays active.
func (s *ConfigStore) LoadPersisted(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}
	cfg, err := s.repo.Load(ctx)
	if err != nil {
		if err == priority.ErrConfigNotFound {
			s.logger.Info("no stored priority config, using built-in default")
			return nil
		}
		return fmt.Errorf("failed to load priority config: %w", err)
	}
	s.current.Store(&cfg)
	s.logger.Info("priority config loaded",
		"version", cfg.Version,
		"rules", len(cfg.Rules),
	)
	return nil
}

// Get returns the current active configuration, or the built-in default
// if none has ever been set.
func (s *ConfigStore) Get() priority.Config {
	if cfg := s.current.Load(); cfg != nil {
		return cfg.Clone()
	}
	return priority.DefaultConfig()
}

// Replace validates the candidate and, on success, activates it as the
// new config. Rejected candidates never become active; the returned
// error is a *priority.ValidationError naming the offending fields.
// Concurrent replaces are serialized; a candidate carrying a stale
// version is logged as a conflicting edit but the last writer wins.
func (s *ConfigStore) Replace(ctx context.Context, candidate priority.Config) (priority.Config, error) {
	if verr := priority.Validate(candidate); verr != nil {
		s.logger.Warn("priority config rejected",
			"fields", len(verr.Fields),
			"error", verr,
		)
		return priority.Config{}, verr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	active := s.Get()
	if candidate.Version != 0 && candidate.Version != active.Version {
		s.logger.Warn("conflicting priority config edit detected",
			"candidate_version", candidate.Version,
			"active_version", active.Version,
		)
	}

	accepted := candidate.Clone()
	accepted.Version = active.Version + 1
	accepted.UpdatedAt = s.now().UTC()

	if s.repo != nil {
		if err := s.repo.Save(ctx, accepted); err != nil {
			return priority.Config{}, fmt.Errorf("failed to persist priority config: %w", err)
		}
	}

	s.current.Store(&accepted)
	s.logger.Info("priority config replaced",
		"version", accepted.Version,
		"rules", len(accepted.Rules),
	)
	return accepted.Clone(), nil
}
