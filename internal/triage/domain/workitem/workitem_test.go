package workitem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStage(t *testing.T) {
	t.Run("parses every known stage", func(t *testing.T) {
		for _, name := range []string{"received", "diagnosing", "repairing", "paused", "ready", "delivered", "cancelled"} {
			stage, err := ParseStage(name)
			require.NoError(t, err)
			assert.Equal(t, name, stage.String())
		}
	})

	t.Run("is case-insensitive", func(t *testing.T) {
		stage, err := ParseStage("Repairing")
		require.NoError(t, err)
		assert.Equal(t, StageRepairing, stage)
	})

	t.Run("rejects unknown stages", func(t *testing.T) {
		_, err := ParseStage("teleporting")
		assert.ErrorIs(t, err, ErrInvalidStage)
	})
}

func TestStage_IsTerminal(t *testing.T) {
	assert.True(t, StageDelivered.IsTerminal())
	assert.True(t, StageCancelled.IsTerminal())
	assert.False(t, StageReceived.IsTerminal())
	assert.False(t, StagePaused.IsTerminal())
	assert.False(t, StageReady.IsTerminal())
}

func TestStage_IsValid(t *testing.T) {
	assert.True(t, StageReceived.IsValid())
	assert.False(t, Stage(99).IsValid())
	assert.Equal(t, "unknown", Stage(99).String())
}
