package services

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/eduardojeem/benchline/internal/shared/infrastructure/eventbus"
	"github.com/eduardojeem/benchline/internal/triage/domain/workitem"
)

// QueueSnapshot is a fully-formed published ordering. Consumers only ever
// observe complete snapshots, swapped in atomically.
type QueueSnapshot struct {
	Items         []ScoredItem `json:"items"`
	ConfigVersion int          `json:"config_version"`
	ComputedAt    time.Time    `json:"computed_at"`
}

// SnapshotPublisher pushes the latest ordering to external consumers
// (dashboards, storefront displays).
type SnapshotPublisher interface {
	PublishSnapshot(ctx context.Context, snap QueueSnapshot) error
}

// RecomputerConfig tunes the recompute loop.
type RecomputerConfig struct {
	// FetchTimeout bounds the item snapshot fetch.
	FetchTimeout time.Duration

	// BreakerFailureThreshold is the number of consecutive fetch
	// failures before the circuit opens.
	BreakerFailureThreshold uint32

	// BreakerTimeout is how long the circuit stays open before a probe.
	BreakerTimeout time.Duration
}

// DefaultRecomputerConfig returns a production-friendly configuration.
func DefaultRecomputerConfig() RecomputerConfig {
	return RecomputerConfig{
		FetchTimeout:            5 * time.Second,
		BreakerFailureThreshold: 3,
		BreakerTimeout:          30 * time.Second,
	}
}

// Recomputer reacts to change events by re-running the scoring pipeline
// and publishing a new ordering. A single consumer loop serializes
// recomputes; kicks arriving mid-pass are coalesced into one pending
// recompute, so a burst of events costs one extra pass at most.
//
// A failed or timed-out item fetch leaves the previously published
// snapshot untouched; subscribers simply keep seeing the last good
// ordering until data recovers.
type Recomputer struct {
	items     workitem.Repository
	configs   *ConfigStore
	engine    *ScoringEngine
	publisher SnapshotPublisher
	breaker   *gobreaker.CircuitBreaker[[]workitem.WorkItem]
	logger    *slog.Logger
	config    RecomputerConfig

	kick    chan struct{}
	current atomic.Pointer[QueueSnapshot]

	mu          sync.Mutex
	subscribers []chan QueueSnapshot
}

// NewRecomputer creates a recomputer. publisher may be nil when no
// external snapshot surface is configured.
func NewRecomputer(
	items workitem.Repository,
	configs *ConfigStore,
	engine *ScoringEngine,
	publisher SnapshotPublisher,
	config RecomputerConfig,
	logger *slog.Logger,
) *Recomputer {
	if logger == nil {
		logger = slog.Default()
	}
	if engine == nil {
		engine = NewScoringEngine()
	}
	if config.FetchTimeout <= 0 {
		config.FetchTimeout = DefaultRecomputerConfig().FetchTimeout
	}
	if config.BreakerFailureThreshold == 0 {
		config.BreakerFailureThreshold = DefaultRecomputerConfig().BreakerFailureThreshold
	}
	if config.BreakerTimeout <= 0 {
		config.BreakerTimeout = DefaultRecomputerConfig().BreakerTimeout
	}

	r := &Recomputer{
		items:     items,
		configs:   configs,
		engine:    engine,
		publisher: publisher,
		logger:    logger,
		config:    config,
		kick:      make(chan struct{}, 1),
	}

	r.breaker = gobreaker.NewCircuitBreaker[[]workitem.WorkItem](gobreaker.Settings{
		Name:    "workitem-snapshot",
		Timeout: config.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.BreakerFailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})

	return r
}

// Kick requests a recompute. Kicks are coalesced: if one is already
// pending, this is a no-op and the pending pass will pick up the latest
// item set and config when it starts.
func (r *Recomputer) Kick() {
	select {
	case r.kick <- struct{}{}:
	default:
	}
}

// Current returns the most recently published snapshot, if any.
func (r *Recomputer) Current() (QueueSnapshot, bool) {
	snap := r.current.Load()
	if snap == nil {
		return QueueSnapshot{}, false
	}
	return *snap, true
}

// Subscribe returns a channel receiving published snapshots. The channel
// has capacity one and stale snapshots are dropped in favor of newer
// ones, so a slow subscriber always sees the latest ordering next.
func (r *Recomputer) Subscribe() <-chan QueueSnapshot {
	ch := make(chan QueueSnapshot, 1)
	r.mu.Lock()
	r.subscribers = append(r.subscribers, ch)
	r.mu.Unlock()
	return ch
}

// EventTypes returns the routing keys that trigger a recompute.
func (r *Recomputer) EventTypes() []string {
	return []string{
		eventbus.RoutingKeyWorkItemCreated,
		eventbus.RoutingKeyWorkItemUpdated,
		eventbus.RoutingKeyWorkItemDeleted,
		eventbus.RoutingKeyConfigReplaced,
	}
}

// Handle implements eventbus.EventConsumer. Any matching event simply
// requests a recompute; the pass reads the latest state itself.
func (r *Recomputer) Handle(ctx context.Context, event *eventbus.ConsumedEvent) error {
	r.logger.Debug("recompute requested",
		"routing_key", event.RoutingKey,
		"event_id", event.EventID,
	)
	r.Kick()
	return nil
}

// Start runs the recompute loop until the context is cancelled. An
// initial pass primes the published ordering.
func (r *Recomputer) Start(ctx context.Context) error {
	r.recompute(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.kick:
			r.recompute(ctx)
		}
	}
}

func (r *Recomputer) recompute(ctx context.Context) {
	start := time.Now()

	items, err := r.breaker.Execute(func() ([]workitem.WorkItem, error) {
		fetchCtx, cancel := context.WithTimeout(ctx, r.config.FetchTimeout)
		defer cancel()
		return r.items.Snapshot(fetchCtx)
	})
	if err != nil {
		// Keep the last published ordering; the next event retries.
		r.logger.Warn("work item fetch failed, keeping last ordering",
			"error", err,
		)
		return
	}

	cfg := r.configs.Get()
	scored := r.engine.Evaluate(items, cfg)

	snap := &QueueSnapshot{
		Items:         scored,
		ConfigVersion: cfg.Version,
		ComputedAt:    time.Now().UTC(),
	}
	r.current.Store(snap)

	if r.publisher != nil {
		if err := r.publisher.PublishSnapshot(ctx, *snap); err != nil {
			r.logger.Warn("failed to publish queue snapshot",
				"error", err,
			)
		}
	}

	r.notify(*snap)

	r.logger.Debug("queue recomputed",
		"items", len(scored),
		"config_version", cfg.Version,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

func (r *Recomputer) notify(snap QueueSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ch := range r.subscribers {
		select {
		case ch <- snap:
		default:
			// Drop the stale snapshot the subscriber hasn't read yet.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}
