package priority

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduardojeem/benchline/internal/triage/domain/workitem"
)

func validConfig() Config {
	received := workitem.StageReceived
	cfg := DefaultConfig()
	cfg.Rules = []Rule{
		{
			ID:        "r-1",
			Name:      "Fresh intake boost",
			Condition: Condition{Stage: &received},
			Effect:    Effect{PriorityBonus: 0.25},
		},
	}
	return cfg
}

func fieldNames(verr *ValidationError) []string {
	names := make([]string, 0, len(verr.Fields))
	for _, f := range verr.Fields {
		names = append(names, f.Field)
	}
	return names
}

func TestValidate(t *testing.T) {
	t.Run("accepts the default config", func(t *testing.T) {
		assert.Nil(t, Validate(DefaultConfig()))
	})

	t.Run("accepts a config with rules", func(t *testing.T) {
		assert.Nil(t, Validate(validConfig()))
	})

	t.Run("rejects a negative weight with a field-level error", func(t *testing.T) {
		cfg := validConfig()
		cfg.Weights.Urgency = -1

		verr := Validate(cfg)

		require.NotNil(t, verr)
		assert.Contains(t, fieldNames(verr), "weights.urgency")
		assert.Contains(t, verr.Error(), "weights.urgency")
	})

	t.Run("rejects non-finite weights", func(t *testing.T) {
		cfg := validConfig()
		cfg.Weights.WaitTime = math.NaN()
		cfg.Weights.HistoricalValue = math.Inf(1)

		verr := Validate(cfg)

		require.NotNil(t, verr)
		assert.Contains(t, fieldNames(verr), "weights.waitTime")
		assert.Contains(t, fieldNames(verr), "weights.historicalValue")
	})

	t.Run("collects every offending field", func(t *testing.T) {
		cfg := validConfig()
		cfg.Weights.Urgency = -1
		cfg.Weights.TechnicalComplexity = -0.5

		verr := Validate(cfg)

		require.NotNil(t, verr)
		assert.Len(t, verr.Fields, 2)
	})

	t.Run("rejects a rule without an id or name", func(t *testing.T) {
		cfg := validConfig()
		cfg.Rules[0].ID = "  "
		cfg.Rules[0].Name = ""

		verr := Validate(cfg)

		require.NotNil(t, verr)
		assert.Contains(t, fieldNames(verr), "rules[0].id")
		assert.Contains(t, fieldNames(verr), "rules[0].name")
	})

	t.Run("rejects a non-finite rule bonus", func(t *testing.T) {
		cfg := validConfig()
		cfg.Rules[0].Effect.PriorityBonus = math.NaN()

		verr := Validate(cfg)

		require.NotNil(t, verr)
		assert.Contains(t, fieldNames(verr), "rules[0].effect.priorityBonus")
	})

	t.Run("rejects an empty condition as a likely mistake", func(t *testing.T) {
		cfg := validConfig()
		cfg.Rules[0].Condition = Condition{}

		verr := Validate(cfg)

		require.NotNil(t, verr)
		assert.Contains(t, fieldNames(verr), "rules[0].condition")
	})

	t.Run("rejects an unknown stage", func(t *testing.T) {
		bogus := workitem.Stage(99)
		cfg := validConfig()
		cfg.Rules[0].Condition.Stage = &bogus

		verr := Validate(cfg)

		require.NotNil(t, verr)
		assert.Contains(t, fieldNames(verr), "rules[0].condition.stage")
	})

	t.Run("rejects a non-positive wait cap and value reference", func(t *testing.T) {
		cfg := validConfig()
		cfg.WaitTimeCapHours = 0
		cfg.ValueReference = -5

		verr := Validate(cfg)

		require.NotNil(t, verr)
		assert.Contains(t, fieldNames(verr), "waitTimeCapHours")
		assert.Contains(t, fieldNames(verr), "valueReference")
	})
}
