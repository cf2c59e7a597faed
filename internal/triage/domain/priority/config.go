package priority

import (
	"context"
	"errors"
	"time"
)

const (
	// DefaultWaitTimeCapHours saturates the wait-time factor so stale
	// tickets stop climbing after three days.
	DefaultWaitTimeCapHours = 72.0

	// DefaultValueReference is the customer-value amount that earns the
	// full historical-value contribution. Operators tune this to their
	// own currency and clientele.
	DefaultValueReference = 1000.0
)

var (
	ErrConfigNotFound = errors.New("priority config not found")
)

// Weights tunes how much each normalized factor contributes to the score.
// Weights need not sum to 1; a negative-leaning shop can flip the sign of
// a factor by editing the weight, except that persisted weights must be
// non-negative (see Validate).
type Weights struct {
	Urgency             float64
	WaitTime            float64
	HistoricalValue     float64
	TechnicalComplexity float64
}

// Effect is what a matching rule contributes to an item's score.
type Effect struct {
	PriorityBonus float64
}

// Rule grants a signed bonus to every item its condition matches.
type Rule struct {
	ID        string
	Name      string
	Condition Condition
	Effect    Effect
}

// Config is the active weight vector plus rule set driving scoring.
// It is treated as an immutable value: every evaluation takes a snapshot
// and never mutates it in place.
type Config struct {
	Weights          Weights
	Rules            []Rule
	WaitTimeCapHours float64
	ValueReference   float64
	Version          int
	UpdatedAt        time.Time
}

// DefaultConfig returns the built-in configuration used until an operator
// replaces it.
func DefaultConfig() Config {
	return Config{
		Weights: Weights{
			Urgency:             0.4,
			WaitTime:            0.3,
			HistoricalValue:     0.2,
			TechnicalComplexity: 0.1,
		},
		WaitTimeCapHours: DefaultWaitTimeCapHours,
		ValueReference:   DefaultValueReference,
		Version:          0,
	}
}

// Clone returns a deep copy so callers can hand out configs without
// sharing the rule slice.
func (c Config) Clone() Config {
	out := c
	if len(c.Rules) > 0 {
		out.Rules = make([]Rule, len(c.Rules))
		copy(out.Rules, c.Rules)
	}
	return out
}

// ConfigRepository persists the single active configuration.
type ConfigRepository interface {
	// Load returns the stored configuration or ErrConfigNotFound.
	Load(ctx context.Context) (Config, error)

	// Save stores cfg as the active configuration.
	Save(ctx context.Context, cfg Config) error
}
