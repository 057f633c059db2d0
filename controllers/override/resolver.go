package overrideController

import (
	"encoding/json"
	"sort"
	"ventylab/models"
	"ventylab/models/curriculum"

	"gorm.io/datatypes"
)

// OverridePayload is the JSON body of a ContentOverride targeting a lesson
type OverridePayload struct {
	// FieldOverrides maps step ID -> field name -> replacement value.
	// Only fields present in the map are replaced.
	FieldOverrides map[uint]map[string]interface{} `json:"fieldOverrides,omitempty"`
	// HiddenCardIds lists step IDs removed for this student
	HiddenCardIds []uint `json:"hiddenCardIds,omitempty"`
	// ExtraCards are injected steps; each lands right after the shared
	// step holding AfterOrder (0 inserts at the front)
	ExtraCards []ExtraCard `json:"extraCards,omitempty"`
}

// ExtraCard is a per-student injected step
type ExtraCard struct {
	AfterOrder int             `json:"afterOrder"`
	StepType   string          `json:"stepType"`
	Content    json.RawMessage `json:"content"`
}

// ResolvedStep is one entry of the effective step list a student sees
type ResolvedStep struct {
	StepID     uint           `json:"step_id,omitempty"` // zero for injected extra cards
	OrderIndex int            `json:"order_index"`
	StepType   string         `json:"step_type"`
	Content    datatypes.JSON `json:"content"`
	IsExtra    bool           `json:"is_extra,omitempty"`
}

// ResolveSteps applies a student's override on top of the shared lesson
// steps: hidden steps removed, field overrides applied, extra cards
// inserted after their anchor order, and the result re-sequenced to a
// contiguous order starting at 1. The inputs are never mutated, so
// resolving twice with the same inputs yields the same output.
func ResolveSteps(steps []curriculum.Step, override *models.ContentOverride) ([]ResolvedStep, error) {
	ordered := make([]curriculum.Step, len(steps))
	copy(ordered, steps)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].OrderIndex < ordered[j].OrderIndex })

	var payload OverridePayload
	if override != nil && override.IsActive && !override.IsDeleted && len(override.Payload) > 0 {
		if err := json.Unmarshal(override.Payload, &payload); err != nil {
			return nil, err
		}
	}

	hidden := make(map[uint]bool, len(payload.HiddenCardIds))
	for _, id := range payload.HiddenCardIds {
		hidden[id] = true
	}

	var resolved []ResolvedStep
	appendExtras := func(afterOrder int) {
		for _, extra := range payload.ExtraCards {
			if extra.AfterOrder != afterOrder {
				continue
			}
			resolved = append(resolved, ResolvedStep{
				StepType: extra.StepType,
				Content:  datatypes.JSON(extra.Content),
				IsExtra:  true,
			})
		}
	}

	appendExtras(0) // extras anchored before the first shared step

	for _, step := range ordered {
		if !hidden[step.ID] {
			content := step.Content
			if fields, ok := payload.FieldOverrides[step.ID]; ok && len(fields) > 0 {
				merged, err := mergeFields(step.Content, fields)
				if err != nil {
					return nil, err
				}
				content = merged
			}
			resolved = append(resolved, ResolvedStep{
				StepID:   step.ID,
				StepType: step.StepType,
				Content:  content,
			})
		}
		appendExtras(step.OrderIndex)
	}

	// contiguous re-sequencing
	for i := range resolved {
		resolved[i].OrderIndex = i + 1
	}

	return resolved, nil
}

// mergeFields returns a new JSON document with the given fields replaced;
// the original content bytes are left untouched.
func mergeFields(content datatypes.JSON, fields map[string]interface{}) (datatypes.JSON, error) {
	doc := map[string]interface{}{}
	if len(content) > 0 {
		if err := json.Unmarshal(content, &doc); err != nil {
			return nil, err
		}
	}
	for k, v := range fields {
		doc[k] = v
	}
	merged, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(merged), nil
}
