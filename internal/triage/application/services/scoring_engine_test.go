package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduardojeem/benchline/internal/triage/domain/priority"
	"github.com/eduardojeem/benchline/internal/triage/domain/workitem"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func testConfig() priority.Config {
	return priority.Config{
		Weights: priority.Weights{
			Urgency:             0.4,
			WaitTime:            0.3,
			HistoricalValue:     0.2,
			TechnicalComplexity: 0.1,
		},
		WaitTimeCapHours: 72,
		ValueReference:   1_000_000,
	}
}

func testItem() workitem.WorkItem {
	return workitem.WorkItem{
		ID:                  uuid.New(),
		DeviceDescriptor:    "iPhone 13",
		IssueDescription:    "cracked screen",
		CreatedAt:           testNow,
		UrgencyLevel:        3,
		TechnicalComplexity: 2,
		CurrentStage:        workitem.StageReceived,
	}
}

func TestScoringEngine_Score(t *testing.T) {
	engine := NewScoringEngineWithClock(fixedClock)

	t.Run("matches the reference scenario", func(t *testing.T) {
		cfg := testConfig()

		itemA := testItem()
		itemA.UrgencyLevel = 5
		itemA.TechnicalComplexity = 1
		itemA.CreatedAt = testNow

		itemB := testItem()
		itemB.UrgencyLevel = 1
		itemB.TechnicalComplexity = 1
		itemB.CreatedAt = testNow.Add(-100 * time.Hour) // capped at 72h

		scoreA := engine.Score(itemA, cfg)
		scoreB := engine.Score(itemB, cfg)

		assert.InDelta(t, 0.42, scoreA.Total, 1e-9)
		assert.InDelta(t, 0.40, scoreB.Total, 1e-9)
		assert.Greater(t, scoreA.Total, scoreB.Total)
	})

	t.Run("is deterministic for fixed input", func(t *testing.T) {
		cfg := testConfig()
		item := testItem()

		first := engine.Score(item, cfg)
		second := engine.Score(item, cfg)

		assert.Equal(t, first, second)
	})

	t.Run("never decreases when urgency rises", func(t *testing.T) {
		cfg := testConfig()
		item := testItem()

		previous := -1.0
		for urgency := 1; urgency <= 5; urgency++ {
			item.UrgencyLevel = urgency
			total := engine.Score(item, cfg).Total
			assert.GreaterOrEqual(t, total, previous)
			previous = total
		}
	})

	t.Run("never decreases as wait time grows", func(t *testing.T) {
		cfg := testConfig()
		item := testItem()

		previous := -1.0
		for hours := 0; hours <= 71; hours += 12 {
			item.CreatedAt = testNow.Add(-time.Duration(hours) * time.Hour)
			total := engine.Score(item, cfg).Total
			assert.GreaterOrEqual(t, total, previous)
			previous = total
		}
	})

	t.Run("saturates wait time at the cap", func(t *testing.T) {
		cfg := testConfig()

		atCap := testItem()
		atCap.CreatedAt = testNow.Add(-72 * time.Hour)

		beyondCap := testItem()
		beyondCap.CreatedAt = testNow.Add(-500 * time.Hour)

		assert.Equal(t, engine.Score(atCap, cfg).Total, engine.Score(beyondCap, cfg).Total)
		assert.InDelta(t, 0.3, engine.Score(atCap, cfg).Breakdown.WaitTime, 1e-9)
	})

	t.Run("floors negative wait at zero", func(t *testing.T) {
		cfg := testConfig()
		item := testItem()
		item.CreatedAt = testNow.Add(2 * time.Hour) // clock skew from the ticket store

		assert.Equal(t, 0.0, engine.Score(item, cfg).Breakdown.WaitTime)
	})

	t.Run("clamps out-of-range ordinals instead of failing", func(t *testing.T) {
		cfg := testConfig()

		low := testItem()
		low.UrgencyLevel = 0
		low.TechnicalComplexity = -3

		high := testItem()
		high.UrgencyLevel = 99
		high.TechnicalComplexity = 42

		assert.InDelta(t, 0.4*0.2, engine.Score(low, cfg).Breakdown.Urgency, 1e-9)
		assert.InDelta(t, 0.1*0.2, engine.Score(low, cfg).Breakdown.TechnicalComplexity, 1e-9)
		assert.InDelta(t, 0.4*1.0, engine.Score(high, cfg).Breakdown.Urgency, 1e-9)
		assert.InDelta(t, 0.1*1.0, engine.Score(high, cfg).Breakdown.TechnicalComplexity, 1e-9)
	})

	t.Run("treats unknown customer value as neutral", func(t *testing.T) {
		cfg := testConfig()
		item := testItem()
		item.HistoricalCustomerValue = 0

		assert.Equal(t, 0.0, engine.Score(item, cfg).Breakdown.HistoricalValue)
	})

	t.Run("saturates customer value at the reference amount", func(t *testing.T) {
		cfg := testConfig()

		atRef := testItem()
		atRef.HistoricalCustomerValue = 1_000_000

		beyondRef := testItem()
		beyondRef.HistoricalCustomerValue = 5_000_000

		assert.InDelta(t, 0.2, engine.Score(atRef, cfg).Breakdown.HistoricalValue, 1e-9)
		assert.Equal(t, engine.Score(atRef, cfg).Total, engine.Score(beyondRef, cfg).Total)
	})

	t.Run("adds the bonus of every matching rule", func(t *testing.T) {
		cfg := testConfig()
		received := workitem.StageReceived
		cfg.Rules = []priority.Rule{
			{
				ID:        "r-water",
				Name:      "Water damage first",
				Condition: priority.Condition{IssueIncludes: "water"},
				Effect:    priority.Effect{PriorityBonus: 0.5},
			},
			{
				ID:        "r-received",
				Name:      "Fresh intake boost",
				Condition: priority.Condition{Stage: &received},
				Effect:    priority.Effect{PriorityBonus: 0.25},
			},
		}

		item := testItem()
		item.IssueDescription = "Water Damage, no power"
		item.CurrentStage = workitem.StageReceived

		scored := engine.Score(item, cfg)

		assert.InDelta(t, 0.75, scored.Breakdown.RuleBonus, 1e-9)
		require.Len(t, scored.Breakdown.MatchedRules, 2)
		assert.Equal(t, "r-water", scored.Breakdown.MatchedRules[0].RuleID)
	})

	t.Run("changes by exactly the bonus when a rule is removed", func(t *testing.T) {
		withRule := testConfig()
		withRule.Rules = []priority.Rule{
			{
				ID:        "r-crack",
				Name:      "Cracked screens",
				Condition: priority.Condition{IssueIncludes: "cracked"},
				Effect:    priority.Effect{PriorityBonus: 0.3},
			},
		}
		withoutRule := testConfig()

		matching := testItem() // issue mentions "cracked screen"
		nonMatching := testItem()
		nonMatching.IssueDescription = "battery drain"

		assert.InDelta(t, 0.3,
			engine.Score(matching, withRule).Total-engine.Score(matching, withoutRule).Total, 1e-9)
		assert.InDelta(t, 0.0,
			engine.Score(nonMatching, withRule).Total-engine.Score(nonMatching, withoutRule).Total, 1e-9)
	})

	t.Run("supports negative rule bonuses", func(t *testing.T) {
		cfg := testConfig()
		paused := workitem.StagePaused
		cfg.Rules = []priority.Rule{
			{
				ID:        "r-paused",
				Name:      "Paused jobs wait",
				Condition: priority.Condition{Stage: &paused},
				Effect:    priority.Effect{PriorityBonus: -1.0},
			},
		}

		item := testItem()
		item.CurrentStage = workitem.StagePaused

		assert.Less(t, engine.Score(item, cfg).Total, 0.0)
	})
}

func TestScoringEngine_Evaluate(t *testing.T) {
	engine := NewScoringEngineWithClock(fixedClock)

	t.Run("orders by total descending", func(t *testing.T) {
		cfg := testConfig()

		urgent := testItem()
		urgent.UrgencyLevel = 5
		calm := testItem()
		calm.UrgencyLevel = 1

		ordered := engine.Evaluate([]workitem.WorkItem{calm, urgent}, cfg)

		require.Len(t, ordered, 2)
		assert.Equal(t, urgent.ID, ordered[0].Item.ID)
		assert.Equal(t, calm.ID, ordered[1].Item.ID)
	})

	t.Run("breaks ties by earliest creation", func(t *testing.T) {
		cfg := testConfig()
		cfg.Weights.WaitTime = 0 // equal totals regardless of age

		older := testItem()
		older.CreatedAt = testNow.Add(-48 * time.Hour)
		newer := testItem()
		newer.CreatedAt = testNow.Add(-1 * time.Hour)

		ordered := engine.Evaluate([]workitem.WorkItem{newer, older}, cfg)

		require.Len(t, ordered, 2)
		assert.Equal(t, older.ID, ordered[0].Item.ID)
		assert.Equal(t, newer.ID, ordered[1].Item.ID)
	})

	t.Run("keeps input order for fully tied items", func(t *testing.T) {
		cfg := testConfig()

		first := testItem()
		second := testItem()
		second.CreatedAt = first.CreatedAt

		ordered := engine.Evaluate([]workitem.WorkItem{first, second}, cfg)

		require.Len(t, ordered, 2)
		assert.Equal(t, first.ID, ordered[0].Item.ID)
		assert.Equal(t, second.ID, ordered[1].Item.ID)
	})

	t.Run("is idempotent on unchanged input", func(t *testing.T) {
		cfg := testConfig()
		items := []workitem.WorkItem{testItem(), testItem(), testItem()}
		items[1].UrgencyLevel = 5
		items[2].CreatedAt = testNow.Add(-24 * time.Hour)

		first := engine.Evaluate(items, cfg)
		second := engine.Evaluate(items, cfg)

		assert.Equal(t, first, second)
	})

	t.Run("returns an empty list for no items", func(t *testing.T) {
		ordered := engine.Evaluate(nil, testConfig())
		assert.Empty(t, ordered)
	})
}
