package workitem

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Stage represents the workflow stage of a work item.
type Stage int

const (
	StageReceived Stage = iota
	StageDiagnosing
	StageRepairing
	StagePaused
	StageReady
	StageDelivered
	StageCancelled
)

var (
	ErrInvalidStage = errors.New("invalid stage value")
)

var stageNames = map[Stage]string{
	StageReceived:   "received",
	StageDiagnosing: "diagnosing",
	StageRepairing:  "repairing",
	StagePaused:     "paused",
	StageReady:      "ready",
	StageDelivered:  "delivered",
	StageCancelled:  "cancelled",
}

var stageValues = map[string]Stage{
	"received":   StageReceived,
	"diagnosing": StageDiagnosing,
	"repairing":  StageRepairing,
	"paused":     StagePaused,
	"ready":      StageReady,
	"delivered":  StageDelivered,
	"cancelled":  StageCancelled,
}

// ParseStage creates a Stage from a string.
func ParseStage(s string) (Stage, error) {
	st, ok := stageValues[strings.ToLower(s)]
	if !ok {
		return StageReceived, ErrInvalidStage
	}
	return st, nil
}

// String returns the string representation of the stage.
func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return "unknown"
}

// IsValid returns true if the stage is a known value.
func (s Stage) IsValid() bool {
	_, ok := stageNames[s]
	return ok
}

// IsTerminal returns true for stages that no longer compete for bench time.
func (s Stage) IsTerminal() bool {
	return s == StageDelivered || s == StageCancelled
}

// WorkItem is a read-only snapshot of a repair ticket owned by the external
// ticket store. The engine never mutates it.
type WorkItem struct {
	ID                      uuid.UUID
	DeviceDescriptor        string
	IssueDescription        string
	CreatedAt               time.Time
	UrgencyLevel            int // 1..5
	TechnicalComplexity     int // 1..5
	HistoricalCustomerValue float64
	CurrentStage            Stage
}

// Repository provides read access to the external ticket store.
type Repository interface {
	// Snapshot returns the current set of items still competing for bench
	// time (terminal stages are excluded).
	Snapshot(ctx context.Context) ([]WorkItem, error)
}
