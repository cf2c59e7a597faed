package priority

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/eduardojeem/benchline/internal/triage/domain/workitem"
)

// Document is the wire and storage shape of a priority configuration, as
// edited by the operator-facing settings surface.
type Document struct {
	Weights          WeightsDocument `json:"weights"`
	Rules            []RuleDocument  `json:"rules,omitempty"`
	WaitTimeCapHours *float64        `json:"waitTimeCapHours,omitempty"`
	ValueReference   *float64        `json:"valueReference,omitempty"`
	Version          int             `json:"version,omitempty"`
	UpdatedAt        *time.Time      `json:"updatedAt,omitempty"`
}

type WeightsDocument struct {
	Urgency             float64 `json:"urgency"`
	WaitTime            float64 `json:"waitTime"`
	HistoricalValue     float64 `json:"historicalValue"`
	TechnicalComplexity float64 `json:"technicalComplexity"`
}

type RuleDocument struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Condition ConditionDocument `json:"condition"`
	Effect    EffectDocument    `json:"effect"`
}

type ConditionDocument struct {
	Stage         string `json:"stage,omitempty"`
	IssueIncludes string `json:"issueIncludes,omitempty"`
}

type EffectDocument struct {
	PriorityBonus float64 `json:"priorityBonus"`
}

// DecodeDocument parses a JSON configuration document and applies the
// documented defaults for omitted optional fields. The result is not yet
// validated; callers pass it through Validate before activation.
func DecodeDocument(data []byte) (Config, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Config{}, fmt.Errorf("failed to parse priority config document: %w", err)
	}
	return doc.ToConfig()
}

// ToConfig converts the document into a Config value.
func (d Document) ToConfig() (Config, error) {
	cfg := Config{
		Weights: Weights{
			Urgency:             d.Weights.Urgency,
			WaitTime:            d.Weights.WaitTime,
			HistoricalValue:     d.Weights.HistoricalValue,
			TechnicalComplexity: d.Weights.TechnicalComplexity,
		},
		WaitTimeCapHours: DefaultWaitTimeCapHours,
		ValueReference:   DefaultValueReference,
		Version:          d.Version,
	}
	if d.WaitTimeCapHours != nil {
		cfg.WaitTimeCapHours = *d.WaitTimeCapHours
	}
	if d.ValueReference != nil {
		cfg.ValueReference = *d.ValueReference
	}
	if d.UpdatedAt != nil {
		cfg.UpdatedAt = *d.UpdatedAt
	}

	for i, rd := range d.Rules {
		rule := Rule{
			ID:   rd.ID,
			Name: rd.Name,
			Condition: Condition{
				IssueIncludes: rd.Condition.IssueIncludes,
			},
			Effect: Effect{PriorityBonus: rd.Effect.PriorityBonus},
		}
		if rd.Condition.Stage != "" {
			stage, err := workitem.ParseStage(rd.Condition.Stage)
			if err != nil {
				return Config{}, fmt.Errorf("rules[%d].condition.stage: %w", i, err)
			}
			rule.Condition.Stage = &stage
		}
		cfg.Rules = append(cfg.Rules, rule)
	}

	return cfg, nil
}

// EncodeDocument renders a Config back into its wire shape.
func EncodeDocument(cfg Config) ([]byte, error) {
	doc := Document{
		Weights: WeightsDocument{
			Urgency:             cfg.Weights.Urgency,
			WaitTime:            cfg.Weights.WaitTime,
			HistoricalValue:     cfg.Weights.HistoricalValue,
			TechnicalComplexity: cfg.Weights.TechnicalComplexity,
		},
		Version: cfg.Version,
	}
	capHours := cfg.WaitTimeCapHours
	ref := cfg.ValueReference
	doc.WaitTimeCapHours = &capHours
	doc.ValueReference = &ref
	if !cfg.UpdatedAt.IsZero() {
		updatedAt := cfg.UpdatedAt
		doc.UpdatedAt = &updatedAt
	}

	for _, rule := range cfg.Rules {
		rd := RuleDocument{
			ID:   rule.ID,
			Name: rule.Name,
			Condition: ConditionDocument{
				IssueIncludes: rule.Condition.IssueIncludes,
			},
			Effect: EffectDocument{PriorityBonus: rule.Effect.PriorityBonus},
		}
		if rule.Condition.Stage != nil {
			rd.Condition.Stage = rule.Condition.Stage.String()
		}
		doc.Rules = append(doc.Rules, rd)
	}

	return json.MarshalIndent(doc, "", "  ")
}
