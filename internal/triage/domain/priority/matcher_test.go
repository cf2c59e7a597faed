package priority

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/eduardojeem/benchline/internal/triage/domain/workitem"
)

func matcherItem() workitem.WorkItem {
	return workitem.WorkItem{
		ID:               uuid.New(),
		DeviceDescriptor: "MacBook Pro",
		IssueDescription: "Liquid damage after coffee spill",
		CreatedAt:        time.Now(),
		CurrentStage:     workitem.StageDiagnosing,
	}
}

func TestCondition_Matches(t *testing.T) {
	t.Run("matches on stage equality", func(t *testing.T) {
		diagnosing := workitem.StageDiagnosing
		cond := Condition{Stage: &diagnosing}

		assert.True(t, cond.Matches(matcherItem()))
	})

	t.Run("rejects a different stage", func(t *testing.T) {
		ready := workitem.StageReady
		cond := Condition{Stage: &ready}

		assert.False(t, cond.Matches(matcherItem()))
	})

	t.Run("matches substring case-insensitively", func(t *testing.T) {
		cond := Condition{IssueIncludes: "LIQUID damage"}

		assert.True(t, cond.Matches(matcherItem()))
	})

	t.Run("rejects a missing substring", func(t *testing.T) {
		cond := Condition{IssueIncludes: "cracked"}

		assert.False(t, cond.Matches(matcherItem()))
	})

	t.Run("requires every specified sub-field to match", func(t *testing.T) {
		diagnosing := workitem.StageDiagnosing
		ready := workitem.StageReady

		both := Condition{Stage: &diagnosing, IssueIncludes: "coffee"}
		assert.True(t, both.Matches(matcherItem()))

		wrongStage := Condition{Stage: &ready, IssueIncludes: "coffee"}
		assert.False(t, wrongStage.Matches(matcherItem()))

		wrongText := Condition{Stage: &diagnosing, IssueIncludes: "cracked"}
		assert.False(t, wrongText.Matches(matcherItem()))
	})

	t.Run("treats an omitted sub-field as a wildcard", func(t *testing.T) {
		cond := Condition{IssueIncludes: "spill"}

		item := matcherItem()
		item.CurrentStage = workitem.StagePaused
		assert.True(t, cond.Matches(item))
	})

	t.Run("empty condition matches everything", func(t *testing.T) {
		// Validation rejects empty conditions before they are stored;
		// the matcher itself stays permissive.
		cond := Condition{}

		assert.True(t, cond.IsEmpty())
		assert.True(t, cond.Matches(matcherItem()))
	})
}
