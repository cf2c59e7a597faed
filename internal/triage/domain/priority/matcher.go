package priority

import (
	"strings"

	"github.com/eduardojeem/benchline/internal/triage/domain/workitem"
)

// Condition is a typed predicate over a work item. An omitted sub-field is
// a wildcard; a specified sub-field must match. Validation rejects
// conditions with no sub-fields at all, so a persisted condition always
// narrows the match.
type Condition struct {
	Stage         *workitem.Stage
	IssueIncludes string
}

// IsEmpty returns true when no sub-field is specified.
func (c Condition) IsEmpty() bool {
	return c.Stage == nil && c.IssueIncludes == ""
}

// Matches reports whether every specified sub-field matches the item.
// IssueIncludes is a case-insensitive substring test against the issue
// description.
func (c Condition) Matches(item workitem.WorkItem) bool {
	if c.Stage != nil && *c.Stage != item.CurrentStage {
		return false
	}
	if c.IssueIncludes != "" {
		if !strings.Contains(strings.ToLower(item.IssueDescription), strings.ToLower(c.IssueIncludes)) {
			return false
		}
	}
	return true
}
