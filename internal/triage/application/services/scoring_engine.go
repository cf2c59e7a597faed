package services

import (
	"sort"
	"time"

	"github.com/eduardojeem/benchline/internal/triage/domain/priority"
	"github.com/eduardojeem/benchline/internal/triage/domain/workitem"
)

// RuleContribution records a single matching rule's bonus for explainability.
type RuleContribution struct {
	RuleID string  `json:"rule_id"`
	Name   string  `json:"name"`
	Bonus  float64 `json:"bonus"`
}

// Breakdown shows each factor's weighted contribution to the total.
type Breakdown struct {
	Urgency             float64            `json:"urgency"`
	WaitTime            float64            `json:"wait_time"`
	HistoricalValue     float64            `json:"historical_value"`
	TechnicalComplexity float64            `json:"technical_complexity"`
	RuleBonus           float64            `json:"rule_bonus"`
	MatchedRules        []RuleContribution `json:"matched_rules,omitempty"`
}

// ScoredItem is a work item annotated with its computed score. It is
// recomputed on every pass and never the source of truth.
type ScoredItem struct {
	Item      workitem.WorkItem `json:"item"`
	Total     float64           `json:"total"`
	Breakdown Breakdown         `json:"breakdown"`
}

// ScoringEngine converts work items and a priority config into scores and
// a deterministic ordering. It is pure: the only ambient input is the
// injected clock, and the same (item, config, now) always yields the same
// score.
type ScoringEngine struct {
	now func() time.Time
}

// NewScoringEngine creates an engine using the wall clock.
func NewScoringEngine() *ScoringEngine {
	return &ScoringEngine{now: time.Now}
}

// NewScoringEngineWithClock creates an engine with an injected clock.
func NewScoringEngineWithClock(now func() time.Time) *ScoringEngine {
	return &ScoringEngine{now: now}
}

// Score computes the total and per-factor breakdown for one item.
// Out-of-range ordinals are clamped rather than rejected, so Score is
// total over any item the ticket store can produce.
func (e *ScoringEngine) Score(item workitem.WorkItem, cfg priority.Config) ScoredItem {
	weights := cfg.Weights

	normUrgency := clampOrdinal(item.UrgencyLevel) / 5.0
	normComplexity := clampOrdinal(item.TechnicalComplexity) / 5.0
	normWait := e.waitFactor(item.CreatedAt, cfg.WaitTimeCapHours)
	normValue := valueFactor(item.HistoricalCustomerValue, cfg.ValueReference)

	breakdown := Breakdown{
		Urgency:             weights.Urgency * normUrgency,
		WaitTime:            weights.WaitTime * normWait,
		HistoricalValue:     weights.HistoricalValue * normValue,
		TechnicalComplexity: weights.TechnicalComplexity * normComplexity,
	}

	for _, rule := range cfg.Rules {
		if !rule.Condition.Matches(item) {
			continue
		}
		breakdown.RuleBonus += rule.Effect.PriorityBonus
		breakdown.MatchedRules = append(breakdown.MatchedRules, RuleContribution{
			RuleID: rule.ID,
			Name:   rule.Name,
			Bonus:  rule.Effect.PriorityBonus,
		})
	}

	total := breakdown.Urgency +
		breakdown.WaitTime +
		breakdown.HistoricalValue +
		breakdown.TechnicalComplexity +
		breakdown.RuleBonus

	return ScoredItem{Item: item, Total: total, Breakdown: breakdown}
}

// Evaluate scores every item and returns the deterministic ordering:
// total descending, then CreatedAt ascending, then input order. The sort
// is stable so re-evaluating unchanged input yields an identical list.
func (e *ScoringEngine) Evaluate(items []workitem.WorkItem, cfg priority.Config) []ScoredItem {
	scored := make([]ScoredItem, 0, len(items))
	for _, item := range items {
		scored = append(scored, e.Score(item, cfg))
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Total != scored[j].Total {
			return scored[i].Total > scored[j].Total
		}
		return scored[i].Item.CreatedAt.Before(scored[j].Item.CreatedAt)
	})

	return scored
}

// waitFactor saturates at the configured cap so very old tickets keep the
// maximum wait contribution without dominating indefinitely.
func (e *ScoringEngine) waitFactor(createdAt time.Time, capHours float64) float64 {
	if capHours <= 0 {
		capHours = priority.DefaultWaitTimeCapHours
	}
	hours := e.now().Sub(createdAt).Hours()
	if hours < 0 {
		hours = 0
	}
	if hours >= capHours {
		return 1
	}
	return hours / capHours
}

func valueFactor(value, reference float64) float64 {
	if value <= 0 {
		return 0
	}
	if reference <= 0 {
		reference = priority.DefaultValueReference
	}
	if value >= reference {
		return 1
	}
	return value / reference
}

func clampOrdinal(v int) float64 {
	if v < 1 {
		return 1
	}
	if v > 5 {
		return 5
	}
	return float64(v)
}
