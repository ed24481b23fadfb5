package services

import (
	"encoding/json"
	"errors"
	"log"
	"math/rand"
	"sync"
	"time"

	"lms/backend/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AttemptService owns the test attempt lifecycle: in_progress → completed,
// no reopening. Correctness under concurrent starts comes from a Postgres
// advisory lock on the (test, user) pair, not from in-process state, so it
// holds across service instances.
type AttemptService struct {
	DB       *gorm.DB
	Logger   *log.Logger
	Progress *ProgressService
	Tasks    *TaskRunner
	Events   *EventPublisher

	mu  sync.Mutex
	rng *rand.Rand
}

func NewAttemptService(db *gorm.DB, logger *log.Logger, progress *ProgressService, tasks *TaskRunner, events *EventPublisher) *AttemptService {
	return &AttemptService{
		DB:       db,
		Logger:   logger,
		Progress: progress,
		Tasks:    tasks,
		Events:   events,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *AttemptService) shuffle(test *models.Test) []SelectedQuestion {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SelectQuestions(test, s.rng)
}

// Start returns the learner's open attempt for the test, creating one when
// none exists. Resume takes precedence over the attempt limit: an open
// attempt is always returned, even when the learner has no starts left.
func (s *AttemptService) Start(userID, testID uint) (*models.TestAttempt, []SelectedQuestion, bool, error) {
	var test models.Test
	if err := s.DB.Preload("Questions.Options").First(&test, testID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, false, ErrTestNotFound
		}
		return nil, nil, false, err
	}
	if test.Status == models.TestStatusDeleted {
		return nil, nil, false, ErrTestNotFound
	}
	if !test.Status.AllowsAttempts() {
		return nil, nil, false, ErrTestNotActive
	}

	var attempt models.TestAttempt
	resumed := false
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		// Serializes concurrent starts for one (test, user) pair for the
		// duration of the transaction.
		if err := tx.Exec("SELECT pg_advisory_xact_lock(?, ?)", int32(testID), int32(userID)).Error; err != nil {
			return err
		}

		var open models.TestAttempt
		err := tx.Where("test_id = ? AND user_id = ? AND status = ?", testID, userID, models.AttemptInProgress).
			First(&open).Error
		if err == nil {
			attempt = open
			resumed = true
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var priorCount int64
		if err := tx.Model(&models.TestAttempt{}).
			Where("test_id = ? AND user_id = ?", testID, userID).
			Count(&priorCount).Error; err != nil {
			return err
		}
		if test.AttemptsAllowed > 0 && priorCount >= int64(test.AttemptsAllowed) {
			return ErrAttemptsExceeded
		}

		selected := s.shuffle(&test)
		snapshot, err := json.Marshal(Snapshot(selected))
		if err != nil {
			return err
		}

		attempt = models.TestAttempt{
			TestID:         testID,
			UserID:         userID,
			AttemptNumber:  int(priorCount) + 1,
			Status:         models.AttemptInProgress,
			StartTime:      time.Now(),
			TotalQuestions: len(selected),
			QuestionOrder:  snapshot,
		}
		return tx.Create(&attempt).Error
	})
	if err != nil {
		return nil, nil, false, err
	}

	questions, err := s.replayQuestions(&test, &attempt)
	if err != nil {
		return nil, nil, false, err
	}

	if !resumed {
		s.Tasks.Go("log-start-test", func() error {
			return s.DB.Create(&models.ActivityLog{
				UserID:      userID,
				Action:      "start_test",
				TargetTable: "test_attempts",
				TargetID:    attempt.ID,
				Description: "Started test: " + test.Title,
			}).Error
		})
	}
	return &attempt, questions, resumed, nil
}

// GetForUser resolves an attempt and verifies ownership. A mismatched owner
// reads the same as a missing attempt.
func (s *AttemptService) GetForUser(userID, testID, attemptID uint) (*models.TestAttempt, error) {
	var attempt models.TestAttempt
	err := s.DB.Preload("Answers").First(&attempt, attemptID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAttemptNotFound
		}
		return nil, err
	}
	if attempt.TestID != testID || attempt.UserID != userID {
		return nil, ErrAttemptNotFound
	}
	return &attempt, nil
}

// Questions re-renders the attempt's pinned question set.
func (s *AttemptService) Questions(attempt *models.TestAttempt) ([]SelectedQuestion, error) {
	var test models.Test
	if err := s.DB.Preload("Questions.Options").First(&test, attempt.TestID).Error; err != nil {
		return nil, err
	}
	return s.replayQuestions(&test, attempt)
}

func (s *AttemptService) replayQuestions(test *models.Test, attempt *models.TestAttempt) ([]SelectedQuestion, error) {
	snap, err := decodeSnapshot(attempt)
	if err != nil {
		return nil, err
	}
	return Replay(snap, test.Questions), nil
}

func decodeSnapshot(attempt *models.TestAttempt) ([]QuestionSnapshot, error) {
	var snap []QuestionSnapshot
	if len(attempt.QuestionOrder) > 0 {
		if err := json.Unmarshal(attempt.QuestionOrder, &snap); err != nil {
			return nil, err
		}
	}
	return snap, nil
}

// paperQuestions filters the test's question set down to the snapshot pinned
// on the attempt. Answers to questions the learner was never shown must not
// score; grading always runs over the rendered paper, not the full test.
func paperQuestions(questions []models.Question, snap []QuestionSnapshot) []models.Question {
	if len(snap) == 0 {
		return questions
	}
	inPaper := make(map[uint]bool, len(snap))
	for _, s := range snap {
		inPaper[s.QuestionID] = true
	}
	paper := make([]models.Question, 0, len(snap))
	for _, q := range questions {
		if inPaper[q.ID] {
			paper = append(paper, q)
		}
	}
	return paper
}

// ListForUser returns the learner's attempt history for a test, newest first.
func (s *AttemptService) ListForUser(userID, testID uint) ([]models.TestAttempt, error) {
	var attempts []models.TestAttempt
	err := s.DB.Where("test_id = ? AND user_id = ?", testID, userID).
		Order("attempt_number DESC").
		Find(&attempts).Error
	return attempts, err
}

// Submit grades and closes an open attempt. The score write is guarded on
// status so a concurrent double submission loses cleanly, and the stored
// result is never mutated afterwards. Progress recompute and quiz-gate
// propagation run after commit, fire-and-forget.
func (s *AttemptService) Submit(userID, testID, attemptID uint, answers []AnswerInput, timeSpentSeconds int) (*ScoreResult, error) {
	attempt, err := s.GetForUser(userID, testID, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.Status != models.AttemptInProgress {
		return nil, ErrAttemptAlreadyCompleted
	}

	var test models.Test
	if err := s.DB.Preload("Questions.Options").First(&test, testID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTestNotFound
		}
		return nil, err
	}

	snap, err := decodeSnapshot(attempt)
	if err != nil {
		return nil, err
	}
	result := Score(&test, paperQuestions(test.Questions, snap), answers)

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		res := tx.Model(&models.TestAttempt{}).
			Where("id = ? AND status = ?", attempt.ID, models.AttemptInProgress).
			Updates(map[string]interface{}{
				"status":             models.AttemptCompleted,
				"end_time":           now,
				"score":              result.Score,
				"percentage":         result.Percentage,
				"passed":             result.Passed,
				"correct_answers":    result.CorrectAnswers,
				"time_spent_seconds": timeSpentSeconds,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAttemptAlreadyCompleted
		}

		for _, graded := range result.Answers {
			answer := models.Answer{
				AttemptID:        attempt.ID,
				QuestionID:       graded.QuestionID,
				SelectedOptionID: graded.SelectedOptionID,
				AnswerText:       graded.AnswerText,
				IsCorrect:        graded.IsCorrect,
				PointsEarned:     graded.PointsEarned,
			}
			err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "attempt_id"}, {Name: "question_id"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"selected_option_id", "answer_text", "is_correct", "points_earned", "updated_at",
				}),
			}).Create(&answer).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Events.Publish("attempt.completed", map[string]interface{}{
		"attempt_id": attempt.ID,
		"test_id":    testID,
		"user_id":    userID,
		"percentage": result.Percentage,
		"passed":     result.Passed,
	})

	s.Tasks.Go("after-submit", func() error {
		return s.afterSubmit(userID, &test, result)
	})

	return &result, nil
}

// afterSubmit propagates a completed attempt into the requirement gate and
// the course progress aggregate. Runs off the request path; failures here
// must never surface to the submitter.
func (s *AttemptService) afterSubmit(userID uint, test *models.Test, result ScoreResult) error {
	if result.Passed {
		var lessons []models.Lesson
		if err := s.DB.Where("quiz_test_id = ?", test.ID).Find(&lessons).Error; err != nil {
			return err
		}
		for _, lesson := range lessons {
			if err := markQuizPassed(s.DB, userID, &lesson, result.Percentage); err != nil {
				s.Logger.Printf("mark quiz passed for lesson %d: %v", lesson.ID, err)
			}
		}
	}

	if test.CourseID != nil {
		if _, err := s.Progress.Recompute(userID, *test.CourseID); err != nil {
			return err
		}
	}

	return s.DB.Create(&models.ActivityLog{
		UserID:      userID,
		Action:      "submit_test",
		TargetTable: "tests",
		TargetID:    test.ID,
		Description: "Submitted test: " + test.Title,
	}).Error
}
