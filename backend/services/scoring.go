package services

import "lms/backend/models"

// AnswerInput is one submitted answer as received from the learner.
type AnswerInput struct {
	QuestionID       uint   `json:"question_id" validate:"required"`
	SelectedOptionID *uint  `json:"selected_option_id"`
	AnswerText       string `json:"answer_text"`
}

type GradedAnswer struct {
	QuestionID       uint
	SelectedOptionID *uint
	AnswerText       string
	IsCorrect        bool
	PointsEarned     float64
}

type ScoreResult struct {
	Score          float64
	Percentage     float64
	Passed         bool
	CorrectAnswers int
	TotalQuestions int
	Answers        []GradedAnswer
}

// Score grades a submitted answer set against the test definition. It is a
// pure function: the same answers against the same test always produce the
// same result.
//
// Multiple-choice and true/false answers are correct when the selected option
// carries the correctness flag. Essay and fill-blank answers are stored but
// earn zero points; they are outside auto-grading. If the same question is
// answered more than once, the last answer wins.
func Score(test *models.Test, questions []models.Question, answers []AnswerInput) ScoreResult {
	questionByID := make(map[uint]models.Question, len(questions))
	for _, q := range questions {
		questionByID[q.ID] = q
	}

	// Dedupe while preserving first-seen question order.
	latest := make(map[uint]AnswerInput, len(answers))
	order := make([]uint, 0, len(answers))
	for _, a := range answers {
		if _, seen := latest[a.QuestionID]; !seen {
			order = append(order, a.QuestionID)
		}
		latest[a.QuestionID] = a
	}

	result := ScoreResult{TotalQuestions: len(questions)}
	for _, qid := range order {
		answer := latest[qid]
		question, ok := questionByID[qid]
		if !ok {
			continue
		}

		graded := GradedAnswer{
			QuestionID:       answer.QuestionID,
			SelectedOptionID: answer.SelectedOptionID,
			AnswerText:       answer.AnswerText,
		}

		if question.Type.AutoGradable() && answer.SelectedOptionID != nil {
			for _, option := range question.Options {
				if option.ID == *answer.SelectedOptionID && option.IsCorrect {
					graded.IsCorrect = true
					graded.PointsEarned = float64(question.Points)
					break
				}
			}
		}

		if graded.IsCorrect {
			result.Score += graded.PointsEarned
			result.CorrectAnswers++
		}
		result.Answers = append(result.Answers, graded)
	}

	if test.TotalMarks > 0 {
		result.Percentage = result.Score / float64(test.TotalMarks) * 100
	}
	result.Passed = result.Percentage >= float64(test.PassingMarks)
	return result
}
