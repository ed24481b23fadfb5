package services

import (
	"encoding/json"
	"testing"

	"lms/backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaperQuestionsFiltersToSnapshot(t *testing.T) {
	questions := []models.Question{
		choiceQuestion(1, 5, 11, 12),
		choiceQuestion(2, 5, 21, 22),
	}
	snap := []QuestionSnapshot{{QuestionID: 2, OptionOrder: []uint{21, 22}}}

	paper := paperQuestions(questions, snap)

	require.Len(t, paper, 1)
	assert.Equal(t, uint(2), paper[0].ID)
}

func TestPaperQuestionsEmptySnapshotKeepsAll(t *testing.T) {
	questions := []models.Question{
		choiceQuestion(1, 5, 11),
		choiceQuestion(2, 5, 21),
	}

	assert.Len(t, paperQuestions(questions, nil), 2)
}

func TestScoreIgnoresQuestionsOutsidePaper(t *testing.T) {
	// Test has two questions but the attempt pinned a one-question paper.
	test := &models.Test{TotalMarks: 10, PassingMarks: 50}
	questions := []models.Question{
		choiceQuestion(1, 5, 11, 12),
		choiceQuestion(2, 5, 21, 22),
	}
	snap := []QuestionSnapshot{{QuestionID: 1, OptionOrder: []uint{11, 12}}}
	paper := paperQuestions(questions, snap)

	// Correct answers to both the shown and the never-shown question.
	result := Score(test, paper, []AnswerInput{
		{QuestionID: 1, SelectedOptionID: optionID(11)},
		{QuestionID: 2, SelectedOptionID: optionID(21)},
	})

	// Only the rendered question counts, for score and for the totals.
	assert.Equal(t, 5.0, result.Score)
	assert.Equal(t, 1, result.CorrectAnswers)
	assert.Equal(t, 1, result.TotalQuestions)
	assert.Len(t, result.Answers, 1)
	assert.Equal(t, uint(1), result.Answers[0].QuestionID)
}

func TestDecodeSnapshotRoundTrip(t *testing.T) {
	selected := []SelectedQuestion{
		{ID: 3, Options: []SelectedOption{{ID: 31}, {ID: 32}}},
	}
	raw, err := json.Marshal(Snapshot(selected))
	require.NoError(t, err)

	snap, err := decodeSnapshot(&models.TestAttempt{QuestionOrder: raw})
	require.NoError(t, err)
	require.Len(t, snap, 1)
	assert.Equal(t, uint(3), snap[0].QuestionID)
	assert.Equal(t, []uint{31, 32}, snap[0].OptionOrder)
}

func TestDecodeSnapshotEmpty(t *testing.T) {
	snap, err := decodeSnapshot(&models.TestAttempt{})
	require.NoError(t, err)
	assert.Empty(t, snap)
}
