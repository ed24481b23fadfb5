package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type TestStatus string

const (
	TestStatusDraft     TestStatus = "Draft"
	TestStatusActive    TestStatus = "Active"
	TestStatusPublished TestStatus = "Published"
	TestStatusInactive  TestStatus = "Inactive"
	TestStatusDeleted   TestStatus = "Deleted"
)

func (s TestStatus) Valid() bool {
	switch s {
	case TestStatusDraft, TestStatusActive, TestStatusPublished, TestStatusInactive, TestStatusDeleted:
		return true
	default:
		return false
	}
}

// AllowsAttempts reports whether learners may start attempts in this status.
func (s TestStatus) AllowsAttempts() bool {
	return s == TestStatusActive || s == TestStatusPublished
}

type Test struct {
	gorm.Model
	CourseID    *uint  `gorm:"index" json:"course_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	AuthorID    uint   `json:"author_id"`

	TimeLimitMinutes int `json:"time_limit_minutes"`
	TotalMarks       int `json:"total_marks"`
	PassingMarks     int `json:"passing_marks"`
	// 0 means unlimited attempts.
	AttemptsAllowed int `gorm:"default:1" json:"attempts_allowed"`

	RandomizeQuestions bool `gorm:"default:false" json:"randomize_questions"`
	RandomizeOptions   bool `gorm:"default:false" json:"randomize_options"`
	// 0 shows every question.
	QuestionsToShow int `json:"questions_to_show"`

	IsRequired        bool `gorm:"default:false" json:"is_required"`
	IsPassingRequired bool `gorm:"default:false" json:"is_passing_required"`

	Status    TestStatus `gorm:"type:varchar(16);default:Draft" json:"status"`
	Questions []Question `json:"questions,omitempty"`
}

type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionTrueFalse      QuestionType = "true_false"
	QuestionEssay          QuestionType = "essay"
	QuestionFillBlank      QuestionType = "fill_blank"
)

func (t QuestionType) Valid() bool {
	switch t {
	case QuestionMultipleChoice, QuestionTrueFalse, QuestionEssay, QuestionFillBlank:
		return true
	default:
		return false
	}
}

// AutoGradable reports whether answers are scored by exact option match.
// Essay and fill-blank answers earn zero here; a manual grading path would
// assign their points.
func (t QuestionType) AutoGradable() bool {
	return t == QuestionMultipleChoice || t == QuestionTrueFalse
}

type Question struct {
	gorm.Model
	TestID        uint         `gorm:"index" json:"test_id"`
	Text          string       `json:"text"`
	Type          QuestionType `gorm:"type:varchar(20)" json:"type"`
	Points        int          `gorm:"default:1" json:"points"`
	SequenceOrder int          `json:"sequence_order"`
	// Canonical answer for non-option types. Kept for manual review, never
	// consulted by the scoring engine.
	CorrectAnswer string           `json:"-"`
	Options       []QuestionOption `json:"options,omitempty"`
}

type QuestionOption struct {
	gorm.Model
	QuestionID    uint   `gorm:"index" json:"question_id"`
	Text          string `json:"text"`
	IsCorrect     bool   `json:"-"`
	SequenceOrder int    `json:"sequence_order"`
}

type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptCompleted  AttemptStatus = "completed"
)

// TestAttempt is one learner's pass through a test. For a (user, test) pair
// at most one row may be in_progress and attempt numbers are contiguous
// starting at 1; the attempt service guards both under an advisory lock.
type TestAttempt struct {
	gorm.Model
	TestID        uint          `gorm:"index:idx_attempt_test_user" json:"test_id"`
	UserID        uint          `gorm:"index:idx_attempt_test_user" json:"user_id"`
	AttemptNumber int           `json:"attempt_number"`
	Status        AttemptStatus `gorm:"type:varchar(16);default:in_progress" json:"status"`
	StartTime     time.Time     `json:"start_time"`
	EndTime       *time.Time    `json:"end_time"`

	Score            float64 `json:"score"`
	Percentage       float64 `json:"percentage"`
	Passed           bool    `json:"passed"`
	CorrectAnswers   int     `json:"correct_answers"`
	TotalQuestions   int     `json:"total_questions"`
	TimeSpentSeconds int     `json:"time_spent_seconds"`

	// Snapshot of the question/option order shown to the learner, pinned at
	// start time so refetching the attempt renders the same paper.
	QuestionOrder datatypes.JSON `json:"-"`

	Answers []Answer `gorm:"foreignKey:AttemptID" json:"answers,omitempty"`
}

// Answer correctness and points are derived at submission time only.
type Answer struct {
	gorm.Model
	AttemptID        uint    `gorm:"uniqueIndex:idx_answer_attempt_question" json:"attempt_id"`
	QuestionID       uint    `gorm:"uniqueIndex:idx_answer_attempt_question" json:"question_id"`
	SelectedOptionID *uint   `json:"selected_option_id"`
	AnswerText       string  `json:"answer_text"`
	IsCorrect        bool    `json:"is_correct"`
	PointsEarned     float64 `json:"points_earned"`
}
