package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func choice(id uint, correct bool) Choice {
	return Choice{Model: gorm.Model{ID: id}, Choice: "choice", Label: "L", Correct: correct}
}

func intPtr(v int) *int { return &v }

func TestUnknownActivityScoring(t *testing.T) {
	activity := &Activity{}

	assert.Nil(t, activity.GetScore(&Result{}))
	assert.Nil(t, activity.GetScore(nil))
	assert.False(t, activity.IsCorrect(nil))
}

func TestFreeAnswerScoring(t *testing.T) {
	question := NewActivity(TypeFreeAnswer)
	result := &Result{Type: ResultFreeAnswer}

	assert.Equal(t, 0, *question.GetScore(result))
	assert.False(t, question.IsCorrect(result))
	assert.False(t, question.IsCorrect(nil))
	assert.Equal(t, 0, *question.GetScore(nil))

	result.Text = "AAAA"
	assert.Equal(t, 1, *question.GetScore(result))
	assert.True(t, question.IsCorrect(result))
}

func TestIntegerQuestionBounds(t *testing.T) {
	question := NewActivity(TypeInteger)
	question.LowerBound = intPtr(1)

	err := question.SetAnswer(0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Nil(t, question.Answer)

	require.NoError(t, question.SetAnswer(1))
	question.UpperBound = intPtr(2)

	err = question.SetAnswer(3)
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, 1, *question.Answer)

	require.NoError(t, question.SetAnswer(2))

	result := &Result{Type: ResultInteger, Integer: intPtr(2)}
	assert.Equal(t, 1, *question.GetScore(result))

	result.Integer = intPtr(1)
	assert.Equal(t, 0, *question.GetScore(result))
}

func TestIntegerQuestionCorrect(t *testing.T) {
	question := NewActivity(TypeInteger)
	require.NoError(t, question.SetAnswer(5))
	result := &Result{Type: ResultInteger}

	assert.False(t, question.IsCorrect(nil))
	assert.False(t, question.IsCorrect(result))

	result.Integer = intPtr(5)
	assert.True(t, question.IsCorrect(result))

	unanswered := NewActivity(TypeInteger)
	assert.False(t, unanswered.IsCorrect(result))
}

func TestActivityValidate(t *testing.T) {
	question := NewActivity(TypeInteger)
	question.LowerBound = intPtr(3)
	question.UpperBound = intPtr(1)
	assert.True(t, errors.Is(question.Validate(), ErrValidation))

	question.UpperBound = intPtr(10)
	question.Answer = intPtr(11)
	assert.True(t, errors.Is(question.Validate(), ErrValidation))

	question.Answer = intPtr(10)
	assert.NoError(t, question.Validate())

	assert.True(t, errors.Is((&Activity{Type: "bogus"}).Validate(), ErrValidation))
	assert.True(t, errors.Is((&Activity{Type: TypeFreeAnswer, NumMediaItems: -2}).Validate(), ErrValidation))
}

func TestMultipleChoiceCorrect(t *testing.T) {
	for _, typ := range []ActivityType{TypeMultipleChoice, TypeScale} {
		question := NewActivity(typ)
		right, wrong := choice(1, true), choice(2, false)
		question.Choices = []Choice{right, wrong}

		result := &Result{Type: ResultMultipleChoice, Choice: &wrong}
		assert.False(t, question.IsCorrect(nil))
		assert.False(t, question.IsCorrect(result))
		assert.Equal(t, 0, *question.GetScore(result))

		result.Choice = &right
		assert.True(t, question.IsCorrect(result))
		assert.Equal(t, 1, *question.GetScore(result))
	}
}

func TestMultiSelectCorrect(t *testing.T) {
	question := NewActivity(TypeMultiSelect)
	a, b, c := choice(1, true), choice(2, true), choice(3, false)
	question.Choices = []Choice{a, b, c}

	tests := []struct {
		name      string
		submitted []Choice
		expected  bool
	}{
		{name: "exact set", submitted: []Choice{a, b}, expected: true},
		{name: "order irrelevant", submitted: []Choice{b, a}, expected: true},
		{name: "subset", submitted: []Choice{a}, expected: false},
		{name: "superset", submitted: []Choice{a, b, c}, expected: false},
		{name: "empty", submitted: nil, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := &Result{Type: ResultMultiSelect, Choices: tt.submitted}
			assert.Equal(t, tt.expected, question.IsCorrect(result))
		})
	}

	assert.False(t, question.IsCorrect(nil))
}

func TestScorecardAlwaysCorrect(t *testing.T) {
	scorecard := NewActivity(TypeScorecard)

	assert.True(t, scorecard.IsCorrect(nil))
	assert.True(t, scorecard.IsCorrect(&Result{Type: ResultFreeAnswer, Text: "anything"}))
	assert.Nil(t, scorecard.GetScore(nil))
}

func TestActivityString(t *testing.T) {
	question := NewActivity(TypeFreeAnswer)
	question.Question = "How many bars?"
	assert.Contains(t, question.String(), "How many bars?")

	scorecard := NewActivity(TypeScorecard)
	scorecard.Title = "Weekly summary"
	assert.Contains(t, scorecard.String(), "Weekly summary")
}

func TestChoiceString(t *testing.T) {
	c := Choice{Choice: "Blue", Label: "A"}
	assert.Contains(t, c.String(), "Blue")
	assert.Contains(t, c.String(), "A")

	c.Label = ""
	assert.Equal(t, "Blue", c.String())

	c.Label = "A"
	c.Choice = ""
	assert.Equal(t, "A", c.String())
}
