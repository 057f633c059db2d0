package overrideController

import (
	"encoding/json"
	"testing"
	"ventylab/models"
	"ventylab/models/curriculum"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func sharedSteps() []curriculum.Step {
	return []curriculum.Step{
		{Model: gorm.Model{ID: 1}, LessonID: 10, OrderIndex: 1, StepType: curriculum.StepTypeText, Content: datatypes.JSON(`{"title":"Intro","body":"Welcome"}`)},
		{Model: gorm.Model{ID: 2}, LessonID: 10, OrderIndex: 2, StepType: curriculum.StepTypeImage, Content: datatypes.JSON(`{"url":"lungs.png"}`)},
		{Model: gorm.Model{ID: 3}, LessonID: 10, OrderIndex: 3, StepType: curriculum.StepTypeQuiz, Content: datatypes.JSON(`{"question":"What is PEEP?"}`)},
	}
}

func overrideWith(t *testing.T, payload OverridePayload) *models.ContentOverride {
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return &models.ContentOverride{
		StudentID:  7,
		EntityType: models.EntityLesson,
		EntityID:   10,
		Payload:    datatypes.JSON(raw),
		IsActive:   true,
	}
}

func TestResolveStepsNoOverride(t *testing.T) {
	resolved, err := ResolveSteps(sharedSteps(), nil)
	require.NoError(t, err)
	require.Len(t, resolved, 3)
	for i, step := range resolved {
		assert.Equal(t, i+1, step.OrderIndex, "orders are contiguous from 1")
		assert.False(t, step.IsExtra)
	}
}

func TestResolveStepsHidesCards(t *testing.T) {
	resolved, err := ResolveSteps(sharedSteps(), overrideWith(t, OverridePayload{
		HiddenCardIds: []uint{2},
	}))
	require.NoError(t, err)
	require.Len(t, resolved, 2)
	assert.Equal(t, uint(1), resolved[0].StepID)
	assert.Equal(t, uint(3), resolved[1].StepID)
	assert.Equal(t, 1, resolved[0].OrderIndex)
	assert.Equal(t, 2, resolved[1].OrderIndex, "remaining steps are re-sequenced")
}

func TestResolveStepsAppliesFieldOverrides(t *testing.T) {
	resolved, err := ResolveSteps(sharedSteps(), overrideWith(t, OverridePayload{
		FieldOverrides: map[uint]map[string]interface{}{
			1: {"body": "Simplified welcome"},
		},
	}))
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(resolved[0].Content, &doc))
	assert.Equal(t, "Simplified welcome", doc["body"])
	assert.Equal(t, "Intro", doc["title"], "untouched fields survive")
}

func TestResolveStepsInsertsExtraCards(t *testing.T) {
	resolved, err := ResolveSteps(sharedSteps(), overrideWith(t, OverridePayload{
		ExtraCards: []ExtraCard{
			{AfterOrder: 0, StepType: curriculum.StepTypeText, Content: json.RawMessage(`{"body":"Read this first"}`)},
			{AfterOrder: 2, StepType: curriculum.StepTypeSummary, Content: json.RawMessage(`{"body":"Recap"}`)},
		},
	}))
	require.NoError(t, err)
	require.Len(t, resolved, 5)

	assert.True(t, resolved[0].IsExtra, "afterOrder 0 lands at the front")
	assert.Equal(t, uint(1), resolved[1].StepID)
	assert.Equal(t, uint(2), resolved[2].StepID)
	assert.True(t, resolved[3].IsExtra)
	assert.Equal(t, curriculum.StepTypeSummary, resolved[3].StepType)
	assert.Equal(t, uint(3), resolved[4].StepID)

	for i, step := range resolved {
		assert.Equal(t, i+1, step.OrderIndex)
	}
}

func TestResolveStepsExtraAnchoredToHiddenStep(t *testing.T) {
	// the extra still lands at the hidden step's slot
	resolved, err := ResolveSteps(sharedSteps(), overrideWith(t, OverridePayload{
		HiddenCardIds: []uint{2},
		ExtraCards: []ExtraCard{
			{AfterOrder: 2, StepType: curriculum.StepTypeText, Content: json.RawMessage(`{"body":"Replacement"}`)},
		},
	}))
	require.NoError(t, err)
	require.Len(t, resolved, 3)
	assert.Equal(t, uint(1), resolved[0].StepID)
	assert.True(t, resolved[1].IsExtra)
	assert.Equal(t, uint(3), resolved[2].StepID)
}

func TestResolveStepsIdempotent(t *testing.T) {
	steps := sharedSteps()
	ov := overrideWith(t, OverridePayload{
		HiddenCardIds:  []uint{3},
		FieldOverrides: map[uint]map[string]interface{}{1: {"body": "Adjusted"}},
		ExtraCards:     []ExtraCard{{AfterOrder: 1, StepType: curriculum.StepTypeText, Content: json.RawMessage(`{"body":"Extra"}`)}},
	})

	first, err := ResolveSteps(steps, ov)
	require.NoError(t, err)
	second, err := ResolveSteps(steps, ov)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestResolveStepsDoesNotMutateInputs(t *testing.T) {
	steps := sharedSteps()
	original := string(steps[0].Content)

	_, err := ResolveSteps(steps, overrideWith(t, OverridePayload{
		FieldOverrides: map[uint]map[string]interface{}{1: {"body": "Changed"}},
	}))
	require.NoError(t, err)
	assert.Equal(t, original, string(steps[0].Content), "shared step content stays untouched")
}

func TestResolveStepsInactiveOverrideIgnored(t *testing.T) {
	ov := overrideWith(t, OverridePayload{HiddenCardIds: []uint{1, 2, 3}})
	ov.IsActive = false

	resolved, err := ResolveSteps(sharedSteps(), ov)
	require.NoError(t, err)
	assert.Len(t, resolved, 3)
}

func TestResolveStepsUnorderedInput(t *testing.T) {
	steps := sharedSteps()
	steps[0], steps[2] = steps[2], steps[0]

	resolved, err := ResolveSteps(steps, nil)
	require.NoError(t, err)
	require.Len(t, resolved, 3)
	assert.Equal(t, uint(1), resolved[0].StepID, "steps are sorted by their shared order")
	assert.Equal(t, uint(3), resolved[2].StepID)
}
