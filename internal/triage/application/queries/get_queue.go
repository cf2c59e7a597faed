package queries

import (
	"context"
	"fmt"

	"github.com/eduardojeem/benchline/internal/triage/application/services"
	"github.com/eduardojeem/benchline/internal/triage/domain/workitem"
)

// GetQueueQuery requests a freshly evaluated ordering.
type GetQueueQuery struct{}

// GetQueueHandler evaluates the current item set against the active
// config on demand. The long-running worker publishes continuously; this
// handler serves one-shot callers like the CLI.
type GetQueueHandler struct {
	items   workitem.Repository
	configs *services.ConfigStore
	engine  *services.ScoringEngine
}

// NewGetQueueHandler creates a new handler.
func NewGetQueueHandler(items workitem.Repository, configs *services.ConfigStore, engine *services.ScoringEngine) *GetQueueHandler {
	if engine == nil {
		engine = services.NewScoringEngine()
	}
	return &GetQueueHandler{
		items:   items,
		configs: configs,
		engine:  engine,
	}
}

// Handle fetches the item snapshot and returns the ordered scored list.
func (h *GetQueueHandler) Handle(ctx context.Context, _ GetQueueQuery) ([]services.ScoredItem, error) {
	items, err := h.items.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch work items: %w", err)
	}
	return h.engine.Evaluate(items, h.configs.Get()), nil
}
