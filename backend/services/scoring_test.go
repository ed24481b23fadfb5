package services

import (
	"testing"

	"lms/backend/models"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func option(id uint, correct bool) models.QuestionOption {
	return models.QuestionOption{Model: gorm.Model{ID: id}, IsCorrect: correct}
}

func choiceQuestion(id uint, points int, correctOption uint, wrongOptions ...uint) models.Question {
	q := models.Question{
		Model:  gorm.Model{ID: id},
		Type:   models.QuestionMultipleChoice,
		Points: points,
	}
	q.Options = append(q.Options, option(correctOption, true))
	for _, id := range wrongOptions {
		q.Options = append(q.Options, option(id, false))
	}
	return q
}

func optionID(id uint) *uint { return &id }

func TestScoreSingleCorrectAnswer(t *testing.T) {
	test := &models.Test{TotalMarks: 10, PassingMarks: 50}
	questions := []models.Question{
		choiceQuestion(1, 5, 11, 12),
		choiceQuestion(2, 5, 21, 22),
	}

	result := Score(test, questions, []AnswerInput{
		{QuestionID: 1, SelectedOptionID: optionID(11)},
		{QuestionID: 2, SelectedOptionID: optionID(22)},
	})

	assert.Equal(t, 5.0, result.Score)
	assert.Equal(t, 50.0, result.Percentage)
	assert.True(t, result.Passed)
	assert.Equal(t, 1, result.CorrectAnswers)
	assert.Equal(t, 2, result.TotalQuestions)
}

func TestScorePassingBoundary(t *testing.T) {
	questions := []models.Question{
		choiceQuestion(1, 5, 11, 12),
		choiceQuestion(2, 5, 21, 22),
	}
	answers := []AnswerInput{{QuestionID: 1, SelectedOptionID: optionID(11)}}

	tests := []struct {
		name         string
		passingMarks int
		wantPassed   bool
	}{
		{name: "exactly at threshold", passingMarks: 50, wantPassed: true},
		{name: "below threshold", passingMarks: 60, wantPassed: false},
		{name: "zero threshold", passingMarks: 0, wantPassed: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			test := &models.Test{TotalMarks: 10, PassingMarks: tt.passingMarks}
			result := Score(test, questions, answers)
			assert.Equal(t, tt.wantPassed, result.Passed)
		})
	}
}

func TestScoreLastAnswerWins(t *testing.T) {
	test := &models.Test{TotalMarks: 5, PassingMarks: 50}
	questions := []models.Question{choiceQuestion(1, 5, 11, 12)}

	result := Score(test, questions, []AnswerInput{
		{QuestionID: 1, SelectedOptionID: optionID(11)},
		{QuestionID: 1, SelectedOptionID: optionID(12)},
	})

	assert.Equal(t, 0.0, result.Score)
	assert.Len(t, result.Answers, 1)
	assert.False(t, result.Answers[0].IsCorrect)
}

func TestScoreIgnoresUnknownQuestions(t *testing.T) {
	test := &models.Test{TotalMarks: 5, PassingMarks: 50}
	questions := []models.Question{choiceQuestion(1, 5, 11)}

	result := Score(test, questions, []AnswerInput{
		{QuestionID: 99, SelectedOptionID: optionID(11)},
	})

	assert.Equal(t, 0.0, result.Score)
	assert.Empty(t, result.Answers)
}

func TestScoreEssayEarnsNoPoints(t *testing.T) {
	test := &models.Test{TotalMarks: 10, PassingMarks: 50}
	essay := models.Question{
		Model:  gorm.Model{ID: 3},
		Type:   models.QuestionEssay,
		Points: 10,
	}

	result := Score(test, []models.Question{essay}, []AnswerInput{
		{QuestionID: 3, AnswerText: "a long form answer"},
	})

	assert.Equal(t, 0.0, result.Score)
	assert.Len(t, result.Answers, 1)
	assert.Equal(t, "a long form answer", result.Answers[0].AnswerText)
	assert.False(t, result.Answers[0].IsCorrect)
}

func TestScoreZeroTotalMarks(t *testing.T) {
	test := &models.Test{TotalMarks: 0, PassingMarks: 50}
	questions := []models.Question{choiceQuestion(1, 5, 11)}

	result := Score(test, questions, []AnswerInput{
		{QuestionID: 1, SelectedOptionID: optionID(11)},
	})

	assert.Equal(t, 5.0, result.Score)
	assert.Equal(t, 0.0, result.Percentage)
	assert.False(t, result.Passed)
}

func TestScoreUnansweredQuestions(t *testing.T) {
	test := &models.Test{TotalMarks: 15, PassingMarks: 40}
	questions := []models.Question{
		choiceQuestion(1, 5, 11),
		choiceQuestion(2, 5, 21),
		choiceQuestion(3, 5, 31),
	}

	result := Score(test, questions, []AnswerInput{
		{QuestionID: 2, SelectedOptionID: optionID(21)},
	})

	assert.Equal(t, 5.0, result.Score)
	assert.Equal(t, 3, result.TotalQuestions)
	assert.Equal(t, 1, result.CorrectAnswers)
	assert.Len(t, result.Answers, 1)
}
