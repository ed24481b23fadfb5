package controllers

import (
	"errors"
	"log"

	"lms/backend/config"
	"lms/backend/models"
	"lms/backend/services"
	"lms/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type TestsController struct {
	DB       *gorm.DB
	Cfg      *config.Config
	Logger   *log.Logger
	Attempts *services.AttemptService
}

func NewTestsController(db *gorm.DB, cfg *config.Config, logger *log.Logger, attempts *services.AttemptService) *TestsController {
	return &TestsController{DB: db, Cfg: cfg, Logger: logger, Attempts: attempts}
}

// GetAvailableTests lists tests open for attempts, optionally filtered by
// course.
func (tc *TestsController) GetAvailableTests(c *fiber.Ctx) error {
	identity, err := callerIdentity(c, tc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	query := tc.DB.Model(&models.Test{}).
		Where("status IN ?", []models.TestStatus{models.TestStatusActive, models.TestStatusPublished})
	if courseID := c.QueryInt("course_id"); courseID > 0 {
		query = query.Where("course_id = ?", courseID)
	}

	var tests []models.Test
	if err := query.Find(&tests).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	// One grouped query for the caller's attempt counts across all tests.
	attemptsUsed := make(map[uint]int64, len(tests))
	if len(tests) > 0 {
		testIDs := make([]uint, 0, len(tests))
		for _, test := range tests {
			testIDs = append(testIDs, test.ID)
		}
		type attemptCount struct {
			TestID uint
			Count  int64
		}
		var counts []attemptCount
		err := tc.DB.Model(&models.TestAttempt{}).
			Select("test_id, COUNT(*) AS count").
			Where("user_id = ? AND test_id IN ?", identity.UserID, testIDs).
			Group("test_id").
			Scan(&counts).Error
		if err != nil {
			return utils.InternalServerError(c, "Could not query database")
		}
		for _, ac := range counts {
			attemptsUsed[ac.TestID] = ac.Count
		}
	}

	result := make([]fiber.Map, 0, len(tests))
	for _, test := range tests {
		result = append(result, fiber.Map{
			"id":               test.ID,
			"title":            test.Title,
			"description":      test.Description,
			"course_id":        test.CourseID,
			"total_marks":      test.TotalMarks,
			"passing_marks":    test.PassingMarks,
			"attempts_allowed": test.AttemptsAllowed,
			"attempts_used":    attemptsUsed[test.ID],
			"is_required":      test.IsRequired,
		})
	}

	return c.JSON(fiber.Map{"tests": result})
}

// StartTest godoc
// @Summary Start a test attempt
// @Description Starts a new attempt or resumes the open one
// @Tags tests
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /tests/{id}/start [post]
func (tc *TestsController) StartTest(c *fiber.Ctx) error {
	identity, err := callerIdentity(c, tc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}
	testID, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "Invalid test ID")
	}

	attempt, questions, resumed, err := tc.Attempts.Start(identity.UserID, testID)
	if err != nil {
		return serviceError(c, tc.Logger, err)
	}

	return c.JSON(fiber.Map{
		"attempt": fiber.Map{
			"id":             attempt.ID,
			"attempt_number": attempt.AttemptNumber,
			"status":         attempt.Status,
			"start_time":     attempt.StartTime,
		},
		"resumed":   resumed,
		"questions": questions,
	})
}

// SubmitAttempt godoc
// @Summary Submit a test attempt
// @Description Grades the submitted answers and closes the attempt
// @Tags tests
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /tests/{id}/attempts/{attemptId}/submit [put]
func (tc *TestsController) SubmitAttempt(c *fiber.Ctx) error {
	identity, err := callerIdentity(c, tc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}
	testID, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "Invalid test ID")
	}
	attemptID, err := paramID(c, "attemptId")
	if err != nil {
		return utils.BadRequest(c, "Invalid attempt ID")
	}

	type SubmitInput struct {
		Answers          []services.AnswerInput `json:"answers" validate:"required,dive"`
		TimeSpentSeconds int                    `json:"time_spent_seconds" validate:"gte=0"`
	}

	var input SubmitInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if err := validate.Struct(input); err != nil {
		return utils.ValidationError(c, validationErrors(err))
	}

	result, err := tc.Attempts.Submit(identity.UserID, testID, attemptID, input.Answers, input.TimeSpentSeconds)
	if err != nil {
		return serviceError(c, tc.Logger, err)
	}

	return c.JSON(fiber.Map{
		"score":           result.Score,
		"percentage":      result.Percentage,
		"passed":          result.Passed,
		"correct_answers": result.CorrectAnswers,
		"total_questions": result.TotalQuestions,
	})
}

// GetAttempts returns the caller's attempt history for a test.
func (tc *TestsController) GetAttempts(c *fiber.Ctx) error {
	identity, err := callerIdentity(c, tc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}
	testID, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "Invalid test ID")
	}

	attempts, err := tc.Attempts.ListForUser(identity.UserID, testID)
	if err != nil {
		return serviceError(c, tc.Logger, err)
	}

	return c.JSON(fiber.Map{"attempts": attempts})
}

// GetAttemptDetail returns one attempt; answers and the rendered questions
// are only included once the attempt is completed, so open papers never leak
// grading data.
func (tc *TestsController) GetAttemptDetail(c *fiber.Ctx) error {
	identity, err := callerIdentity(c, tc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}
	testID, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "Invalid test ID")
	}
	attemptID, err := paramID(c, "attemptId")
	if err != nil {
		return utils.BadRequest(c, "Invalid attempt ID")
	}

	attempt, err := tc.Attempts.GetForUser(identity.UserID, testID, attemptID)
	if err != nil {
		return serviceError(c, tc.Logger, err)
	}

	response := fiber.Map{
		"id":                 attempt.ID,
		"attempt_number":     attempt.AttemptNumber,
		"status":             attempt.Status,
		"start_time":         attempt.StartTime,
		"end_time":           attempt.EndTime,
		"time_spent_seconds": attempt.TimeSpentSeconds,
	}
	if attempt.Status == models.AttemptCompleted {
		response["score"] = attempt.Score
		response["percentage"] = attempt.Percentage
		response["passed"] = attempt.Passed
		response["answers"] = attempt.Answers
	} else {
		questions, err := tc.Attempts.Questions(attempt)
		if err != nil {
			return serviceError(c, tc.Logger, err)
		}
		response["questions"] = questions
	}

	return c.JSON(response)
}

// CreateTest godoc
// @Summary Create a test
// @Tags admin
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security ApiKeyAuth
// @Router /admin/tests [post]
func (tc *TestsController) CreateTest(c *fiber.Ctx) error {
	identity, err := callerIdentity(c, tc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	type TestInput struct {
		CourseID           *uint  `json:"course_id"`
		Title              string `json:"title" validate:"required"`
		Description        string `json:"description"`
		TimeLimitMinutes   int    `json:"time_limit_minutes" validate:"gte=0"`
		TotalMarks         int    `json:"total_marks" validate:"gte=0"`
		PassingMarks       int    `json:"passing_marks" validate:"gte=0"`
		AttemptsAllowed    int    `json:"attempts_allowed" validate:"gte=0"`
		RandomizeQuestions bool   `json:"randomize_questions"`
		RandomizeOptions   bool   `json:"randomize_options"`
		QuestionsToShow    int    `json:"questions_to_show" validate:"gte=0"`
		IsRequired         bool   `json:"is_required"`
		IsPassingRequired  bool   `json:"is_passing_required"`
	}

	var input TestInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if err := validate.Struct(input); err != nil {
		return utils.ValidationError(c, validationErrors(err))
	}

	if input.CourseID != nil {
		var course models.Course
		if err := tc.DB.First(&course, *input.CourseID).Error; err != nil {
			return utils.NotFound(c, "Course not found")
		}
	}

	test := models.Test{
		CourseID:           input.CourseID,
		Title:              input.Title,
		Description:        input.Description,
		AuthorID:           identity.UserID,
		TimeLimitMinutes:   input.TimeLimitMinutes,
		TotalMarks:         input.TotalMarks,
		PassingMarks:       input.PassingMarks,
		AttemptsAllowed:    input.AttemptsAllowed,
		RandomizeQuestions: input.RandomizeQuestions,
		RandomizeOptions:   input.RandomizeOptions,
		QuestionsToShow:    input.QuestionsToShow,
		IsRequired:         input.IsRequired,
		IsPassingRequired:  input.IsPassingRequired,
		Status:             models.TestStatusDraft,
	}
	if err := tc.DB.Create(&test).Error; err != nil {
		return utils.InternalServerError(c, "Could not create test")
	}

	return c.JSON(fiber.Map{
		"message": "Test created",
		"test":    test,
	})
}

// UpdateTest updates test configuration and status transitions.
func (tc *TestsController) UpdateTest(c *fiber.Ctx) error {
	testID, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "Invalid test ID")
	}

	type UpdateInput struct {
		Title              *string `json:"title"`
		Description        *string `json:"description"`
		TimeLimitMinutes   *int    `json:"time_limit_minutes"`
		TotalMarks         *int    `json:"total_marks"`
		PassingMarks       *int    `json:"passing_marks"`
		AttemptsAllowed    *int    `json:"attempts_allowed"`
		RandomizeQuestions *bool   `json:"randomize_questions"`
		RandomizeOptions   *bool   `json:"randomize_options"`
		QuestionsToShow    *int    `json:"questions_to_show"`
		IsRequired         *bool   `json:"is_required"`
		IsPassingRequired  *bool   `json:"is_passing_required"`
		Status             *string `json:"status"`
	}

	var input UpdateInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	var test models.Test
	if err := tc.DB.First(&test, testID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Test not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	if input.Title != nil {
		test.Title = *input.Title
	}
	if input.Description != nil {
		test.Description = *input.Description
	}
	if input.TimeLimitMinutes != nil {
		test.TimeLimitMinutes = *input.TimeLimitMinutes
	}
	if input.TotalMarks != nil {
		test.TotalMarks = *input.TotalMarks
	}
	if input.PassingMarks != nil {
		test.PassingMarks = *input.PassingMarks
	}
	if input.AttemptsAllowed != nil {
		test.AttemptsAllowed = *input.AttemptsAllowed
	}
	if input.RandomizeQuestions != nil {
		test.RandomizeQuestions = *input.RandomizeQuestions
	}
	if input.RandomizeOptions != nil {
		test.RandomizeOptions = *input.RandomizeOptions
	}
	if input.QuestionsToShow != nil {
		test.QuestionsToShow = *input.QuestionsToShow
	}
	if input.IsRequired != nil {
		test.IsRequired = *input.IsRequired
	}
	if input.IsPassingRequired != nil {
		test.IsPassingRequired = *input.IsPassingRequired
	}
	if input.Status != nil {
		status := models.TestStatus(*input.Status)
		if !status.Valid() {
			return utils.BadRequest(c, "Invalid test status")
		}
		test.Status = status
	}

	if err := tc.DB.Save(&test).Error; err != nil {
		return utils.InternalServerError(c, "Could not update test")
	}

	return c.JSON(fiber.Map{
		"message": "Test updated",
		"test":    test,
	})
}

// DeleteTest retires a test. The row is
// kept with status Deleted so finished attempts stay reportable.
func (tc *TestsController) DeleteTest(c *fiber.Ctx) error {
	testID, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "Invalid test ID")
	}

	res := tc.DB.Model(&models.Test{}).
		Where("id = ? AND status <> ?", testID, models.TestStatusDeleted).
		Update("status", models.TestStatusDeleted)
	if res.Error != nil {
		return utils.InternalServerError(c, "Could not update test")
	}
	if res.RowsAffected == 0 {
		return utils.NotFound(c, "Test not found")
	}

	return c.JSON(fiber.Map{"message": "Test deleted"})
}

// AddQuestion appends a question with its options to a test. Auto-gradable
// questions must carry exactly one correct option.
func (tc *TestsController) AddQuestion(c *fiber.Ctx) error {
	testID, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "Invalid test ID")
	}

	type OptionInput struct {
		Text      string `json:"text" validate:"required"`
		IsCorrect bool   `json:"is_correct"`
	}
	type QuestionInput struct {
		Text          string        `json:"text" validate:"required"`
		Type          string        `json:"type" validate:"required"`
		Points        int           `json:"points" validate:"gte=0"`
		CorrectAnswer string        `json:"correct_answer"`
		Options       []OptionInput `json:"options" validate:"dive"`
	}

	var input QuestionInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if err := validate.Struct(input); err != nil {
		return utils.ValidationError(c, validationErrors(err))
	}

	questionType := models.QuestionType(input.Type)
	if !questionType.Valid() {
		return utils.BadRequest(c, "Invalid question type")
	}
	if questionType.AutoGradable() {
		correct := 0
		for _, o := range input.Options {
			if o.IsCorrect {
				correct++
			}
		}
		if correct != 1 {
			return utils.BadRequest(c, "Auto-gradable questions need exactly one correct option")
		}
	}

	var test models.Test
	if err := tc.DB.First(&test, testID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Test not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	var questionCount int64
	tc.DB.Model(&models.Question{}).Where("test_id = ?", testID).Count(&questionCount)

	points := input.Points
	if points == 0 {
		points = 1
	}
	question := models.Question{
		TestID:        test.ID,
		Text:          input.Text,
		Type:          questionType,
		Points:        points,
		CorrectAnswer: input.CorrectAnswer,
		SequenceOrder: int(questionCount) + 1,
	}
	for i, o := range input.Options {
		question.Options = append(question.Options, models.QuestionOption{
			Text:          o.Text,
			IsCorrect:     o.IsCorrect,
			SequenceOrder: i + 1,
		})
	}

	if err := tc.DB.Create(&question).Error; err != nil {
		return utils.InternalServerError(c, "Could not create question")
	}

	return c.JSON(fiber.Map{
		"message":  "Question added",
		"question": question,
	})
}

// UpdateQuestion replaces a question's text, points and option set.
func (tc *TestsController) UpdateQuestion(c *fiber.Ctx) error {
	testID, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "Invalid test ID")
	}
	questionID, err := paramID(c, "questionId")
	if err != nil {
		return utils.BadRequest(c, "Invalid question ID")
	}

	type OptionInput struct {
		Text      string `json:"text" validate:"required"`
		IsCorrect bool   `json:"is_correct"`
	}
	type UpdateInput struct {
		Text          *string       `json:"text"`
		Points        *int          `json:"points"`
		CorrectAnswer *string       `json:"correct_answer"`
		SequenceOrder *int          `json:"sequence_order"`
		Options       []OptionInput `json:"options" validate:"dive"`
	}

	var input UpdateInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if err := validate.Struct(input); err != nil {
		return utils.ValidationError(c, validationErrors(err))
	}

	var question models.Question
	if err := tc.DB.Where("id = ? AND test_id = ?", questionID, testID).First(&question).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Question not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	if input.Text != nil {
		question.Text = *input.Text
	}
	if input.Points != nil && *input.Points > 0 {
		question.Points = *input.Points
	}
	if input.CorrectAnswer != nil {
		question.CorrectAnswer = *input.CorrectAnswer
	}
	if input.SequenceOrder != nil && *input.SequenceOrder > 0 {
		question.SequenceOrder = *input.SequenceOrder
	}

	err = tc.DB.Transaction(func(tx *gorm.DB) error {
		if input.Options != nil {
			if question.Type.AutoGradable() {
				correct := 0
				for _, o := range input.Options {
					if o.IsCorrect {
						correct++
					}
				}
				if correct != 1 {
					return fiber.NewError(fiber.StatusBadRequest, "Auto-gradable questions need exactly one correct option")
				}
			}
			if err := tx.Where("question_id = ?", question.ID).Delete(&models.QuestionOption{}).Error; err != nil {
				return err
			}
			for i, o := range input.Options {
				option := models.QuestionOption{
					QuestionID:    question.ID,
					Text:          o.Text,
					IsCorrect:     o.IsCorrect,
					SequenceOrder: i + 1,
				}
				if err := tx.Create(&option).Error; err != nil {
					return err
				}
			}
		}
		return tx.Save(&question).Error
	})
	if err != nil {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return utils.BadRequest(c, fiberErr.Message)
		}
		return utils.InternalServerError(c, "Could not update question")
	}

	return c.JSON(fiber.Map{
		"message":  "Question updated",
		"question": question,
	})
}
