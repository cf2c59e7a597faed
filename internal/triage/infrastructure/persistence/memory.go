package persistence

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/eduardojeem/benchline/internal/triage/domain/priority"
	"github.com/eduardojeem/benchline/internal/triage/domain/workitem"
)

// MemoryWorkItemRepository is an in-memory work item source for local
// mode and tests.
type MemoryWorkItemRepository struct {
	mu      sync.RWMutex
	items   map[uuid.UUID]workitem.WorkItem
	failErr error
}

// NewMemoryWorkItemRepository creates an empty repository.
func NewMemoryWorkItemRepository() *MemoryWorkItemRepository {
	return &MemoryWorkItemRepository{
		items: make(map[uuid.UUID]workitem.WorkItem),
	}
}

// Put inserts or replaces an item.
func (r *MemoryWorkItemRepository) Put(item workitem.WorkItem) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[item.ID] = item
}

// Delete removes an item.
func (r *MemoryWorkItemRepository) Delete(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
}

// FailWith makes subsequent Snapshot calls return err; nil restores
// normal behavior.
func (r *MemoryWorkItemRepository) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failErr = err
}

// Snapshot returns all non-terminal items.
func (r *MemoryWorkItemRepository) Snapshot(ctx context.Context) ([]workitem.WorkItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.failErr != nil {
		return nil, r.failErr
	}

	items := make([]workitem.WorkItem, 0, len(r.items))
	for _, item := range r.items {
		if item.CurrentStage.IsTerminal() {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// MemoryConfigRepository stores the active config in memory.
type MemoryConfigRepository struct {
	mu      sync.RWMutex
	cfg     *priority.Config
	failErr error
}

// NewMemoryConfigRepository creates an empty repository.
func NewMemoryConfigRepository() *MemoryConfigRepository {
	return &MemoryConfigRepository{}
}

// FailWith makes subsequent Save calls return err; nil restores normal
// behavior.
func (r *MemoryConfigRepository) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failErr = err
}

// Load returns the stored config or priority.ErrConfigNotFound.
func (r *MemoryConfigRepository) Load(ctx context.Context) (priority.Config, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.cfg == nil {
		return priority.Config{}, priority.ErrConfigNotFound
	}
	return r.cfg.Clone(), nil
}

// Save stores cfg as the active configuration.
func (r *MemoryConfigRepository) Save(ctx context.Context, cfg priority.Config) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failErr != nil {
		return r.failErr
	}
	stored := cfg.Clone()
	r.cfg = &stored
	return nil
}
