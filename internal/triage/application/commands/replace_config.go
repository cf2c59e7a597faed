package commands

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/eduardojeem/benchline/internal/shared/infrastructure/eventbus"
	"github.com/eduardojeem/benchline/internal/triage/application/services"
	"github.com/eduardojeem/benchline/internal/triage/domain/priority"
)

// ReplaceConfigCommand carries the candidate configuration.
type ReplaceConfigCommand struct {
	Candidate priority.Config
}

// ReplaceConfigHandler validates and activates a new priority config,
// then announces the replacement so running workers recompute.
type ReplaceConfigHandler struct {
	store     *services.ConfigStore
	publisher eventbus.Publisher
}

// NewReplaceConfigHandler creates a new handler. publisher may be nil.
func NewReplaceConfigHandler(store *services.ConfigStore, publisher eventbus.Publisher) *ReplaceConfigHandler {
	return &ReplaceConfigHandler{
		store:     store,
		publisher: publisher,
	}
}

// Handle executes the replacement. On validation failure the returned
// error is a *priority.ValidationError and nothing is activated.
func (h *ReplaceConfigHandler) Handle(ctx context.Context, cmd ReplaceConfigCommand) (priority.Config, error) {
	accepted, err := h.store.Replace(ctx, cmd.Candidate)
	if err != nil {
		return priority.Config{}, err
	}

	if h.publisher != nil {
		event := eventbus.ConsumedEvent{
			EventID:       uuid.New(),
			AggregateType: "priority_config",
			RoutingKey:    eventbus.RoutingKeyConfigReplaced,
			OccurredAt:    time.Now().UTC(),
		}
		if payload, err := json.Marshal(event); err == nil {
			// Announcement failures are non-fatal; the config is
			// already active and persisted.
			_ = h.publisher.Publish(ctx, eventbus.RoutingKeyConfigReplaced, payload)
		}
	}

	return accepted, nil
}
