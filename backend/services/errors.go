package services

import "fmt"

// Error is a domain failure with a machine-readable code. Controllers map
// codes onto HTTP statuses; messages are safe to show to callers.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Message }

var (
	ErrTestNotFound            = &Error{Code: "TEST_NOT_FOUND", Message: "Test not found"}
	ErrTestNotActive           = &Error{Code: "TEST_NOT_ACTIVE", Message: "Test is not open for attempts"}
	ErrAttemptsExceeded        = &Error{Code: "ATTEMPTS_EXCEEDED", Message: "No attempts left for this test"}
	ErrAttemptNotFound         = &Error{Code: "ATTEMPT_NOT_FOUND", Message: "Attempt not found"}
	ErrAttemptAlreadyCompleted = &Error{Code: "ATTEMPT_ALREADY_COMPLETED", Message: "Attempt has already been submitted"}
	ErrLessonNotFound          = &Error{Code: "LESSON_NOT_FOUND", Message: "Lesson not found"}
	ErrCourseNotFound          = &Error{Code: "COURSE_NOT_FOUND", Message: "Course not found"}
	ErrNotEnrolled             = &Error{Code: "NOT_ENROLLED", Message: "Not enrolled in this course"}
)

// RequirementError reports the first unmet lesson completion requirement,
// with the threshold and the learner's current counter.
type RequirementError struct {
	Code        string  `json:"code"`
	Requirement string  `json:"requirement"` // time, video, quiz
	Required    float64 `json:"required"`
	Current     float64 `json:"current"`
}

func (e *RequirementError) Error() string {
	return fmt.Sprintf("%s requirement not met: %.0f of %.0f", e.Requirement, e.Current, e.Required)
}

func newTimeRequirementError(required, current int) *RequirementError {
	return &RequirementError{Code: "TIME_REQUIREMENT_NOT_MET", Requirement: "time", Required: float64(required), Current: float64(current)}
}

func newVideoRequirementError(required int, current float64) *RequirementError {
	return &RequirementError{Code: "VIDEO_REQUIREMENT_NOT_MET", Requirement: "video", Required: float64(required), Current: current}
}

func newQuizRequirementError() *RequirementError {
	return &RequirementError{Code: "QUIZ_REQUIREMENT_NOT_MET", Requirement: "quiz", Required: 1, Current: 0}
}
