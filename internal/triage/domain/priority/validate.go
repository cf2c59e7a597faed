package priority

import (
	"fmt"
	"math"
	"strings"
)

// FieldError points at a single offending field in a candidate config.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned when a candidate config is rejected at the
// store boundary. It lists every offending field so the operator surface
// can highlight all of them at once.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return "invalid priority config: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// Validate checks a candidate configuration. A nil return means the config
// may become active; otherwise the returned *ValidationError names every
// offending field.
func Validate(cfg Config) *ValidationError {
	verr := &ValidationError{}

	checkWeight(verr, "weights.urgency", cfg.Weights.Urgency)
	checkWeight(verr, "weights.waitTime", cfg.Weights.WaitTime)
	checkWeight(verr, "weights.historicalValue", cfg.Weights.HistoricalValue)
	checkWeight(verr, "weights.technicalComplexity", cfg.Weights.TechnicalComplexity)

	if cfg.WaitTimeCapHours <= 0 || math.IsNaN(cfg.WaitTimeCapHours) || math.IsInf(cfg.WaitTimeCapHours, 0) {
		verr.add("waitTimeCapHours", "must be a positive finite number")
	}
	if cfg.ValueReference <= 0 || math.IsNaN(cfg.ValueReference) || math.IsInf(cfg.ValueReference, 0) {
		verr.add("valueReference", "must be a positive finite number")
	}

	for i, rule := range cfg.Rules {
		prefix := fmt.Sprintf("rules[%d]", i)
		if strings.TrimSpace(rule.ID) == "" {
			verr.add(prefix+".id", "must not be empty")
		}
		if strings.TrimSpace(rule.Name) == "" {
			verr.add(prefix+".name", "must not be empty")
		}
		if math.IsNaN(rule.Effect.PriorityBonus) || math.IsInf(rule.Effect.PriorityBonus, 0) {
			verr.add(prefix+".effect.priorityBonus", "must be a finite number")
		}
		// A condition with no sub-fields matches everything, which is
		// almost always a configuration mistake.
		if rule.Condition.IsEmpty() {
			verr.add(prefix+".condition", "must specify at least one of stage or issueIncludes")
		}
		if rule.Condition.Stage != nil && !rule.Condition.Stage.IsValid() {
			verr.add(prefix+".condition.stage", "unknown stage")
		}
	}

	if len(verr.Fields) == 0 {
		return nil
	}
	return verr
}

func checkWeight(verr *ValidationError, field string, value float64) {
	if value < 0 {
		verr.add(field, "must not be negative")
		return
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		verr.add(field, "must be a finite number")
	}
}
