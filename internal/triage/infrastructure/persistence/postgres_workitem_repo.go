package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eduardojeem/benchline/internal/triage/domain/workitem"
)

// PostgresWorkItemRepository reads work item snapshots from the ticket
// store's PostgreSQL database. The engine only ever reads; the ticket
// store owns all writes.
type PostgresWorkItemRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresWorkItemRepository creates a new repository.
func NewPostgresWorkItemRepository(pool *pgxpool.Pool) *PostgresWorkItemRepository {
	return &PostgresWorkItemRepository{pool: pool}
}

// Snapshot returns every item still competing for bench time.
func (r *PostgresWorkItemRepository) Snapshot(ctx context.Context) ([]workitem.WorkItem, error) {
	query := `
		SELECT id, device_descriptor, issue_description, created_at,
		       urgency_level, technical_complexity, historical_customer_value, current_stage
		FROM work_items
		WHERE current_stage NOT IN ('delivered', 'cancelled')
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query work items: %w", err)
	}
	defer rows.Close()

	var items []workitem.WorkItem
	for rows.Next() {
		var (
			id        uuid.UUID
			device    string
			issue     string
			createdAt time.Time
			urgency   int
			tech      int
			value     float64
			stageStr  string
		)
		if err := rows.Scan(&id, &device, &issue, &createdAt, &urgency, &tech, &value, &stageStr); err != nil {
			return nil, fmt.Errorf("failed to scan work item: %w", err)
		}

		stage, err := workitem.ParseStage(stageStr)
		if err != nil {
			return nil, fmt.Errorf("work item %s: %w", id, err)
		}

		items = append(items, workitem.WorkItem{
			ID:                      id,
			DeviceDescriptor:        device,
			IssueDescription:        issue,
			CreatedAt:               createdAt,
			UrgencyLevel:            urgency,
			TechnicalComplexity:     tech,
			HistoricalCustomerValue: value,
			CurrentStage:            stage,
		})
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return items, nil
}
