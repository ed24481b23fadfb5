package services

import (
	"testing"

	"lms/backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinTimeSeconds(t *testing.T) {
	tests := []struct {
		name   string
		lesson models.Lesson
		want   int
	}{
		{name: "explicit threshold wins", lesson: models.Lesson{MinTimeSeconds: 120, DurationMinutes: 10}, want: 120},
		{name: "derived from duration", lesson: models.Lesson{DurationMinutes: 10}, want: 480},
		{name: "default when nothing set", lesson: models.Lesson{}, want: 60},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MinTimeSeconds(&tt.lesson))
		})
	}
}

func TestMinVideoPercent(t *testing.T) {
	assert.Equal(t, 90, MinVideoPercent(&models.Lesson{MinVideoPercent: 90}))
	assert.Equal(t, 80, MinVideoPercent(&models.Lesson{}))
}

func TestEvaluateAccumulatedTime(t *testing.T) {
	lesson := &models.Lesson{RequireTimeTracking: true, MinTimeSeconds: 100}

	// 40s then 70s tracked: the counter holds the sum.
	progress := &models.LessonProgress{TimeSpentSeconds: 110}
	status := Evaluate(lesson, progress)

	assert.True(t, status.TimeRequirementMet)
	assert.True(t, status.CanComplete)
}

func TestEvaluateNilProgress(t *testing.T) {
	lesson := &models.Lesson{RequireTimeTracking: true, MinTimeSeconds: 60}

	status := Evaluate(lesson, nil)

	assert.False(t, status.TimeRequirementMet)
	assert.False(t, status.CanComplete)
	assert.Equal(t, 0, status.TimeSpentSeconds)
}

func TestEvaluateReDerivesFromThresholds(t *testing.T) {
	// Stored flag says met, but the lesson's threshold has since been raised.
	lesson := &models.Lesson{RequireTimeTracking: true, MinTimeSeconds: 300}
	progress := &models.LessonProgress{TimeSpentSeconds: 120, TimeRequirementMet: true}

	status := Evaluate(lesson, progress)

	assert.False(t, status.TimeRequirementMet)
	assert.False(t, status.CanComplete)
}

func TestEvaluateDisabledRequirementsDontBlock(t *testing.T) {
	lesson := &models.Lesson{
		RequireTimeTracking:    false,
		RequireVideoCompletion: false,
		RequireQuizPass:        false,
	}

	status := Evaluate(lesson, nil)

	assert.True(t, status.CanComplete)
	assert.Nil(t, status.FirstUnmet())
}

func TestFirstUnmetOrdering(t *testing.T) {
	lesson := &models.Lesson{
		RequireTimeTracking:    true,
		RequireVideoCompletion: true,
		RequireQuizPass:        true,
		MinTimeSeconds:         60,
		MinVideoPercent:        80,
	}

	// Nothing met: time is reported first.
	status := Evaluate(lesson, nil)
	unmet := status.FirstUnmet()
	require.NotNil(t, unmet)
	assert.Equal(t, "TIME_REQUIREMENT_NOT_MET", unmet.Code)
	assert.Equal(t, 60.0, unmet.Required)
	assert.Equal(t, 0.0, unmet.Current)

	// Time met: video is next.
	status = Evaluate(lesson, &models.LessonProgress{TimeSpentSeconds: 120})
	unmet = status.FirstUnmet()
	require.NotNil(t, unmet)
	assert.Equal(t, "VIDEO_REQUIREMENT_NOT_MET", unmet.Code)

	// Time and video met: quiz remains.
	status = Evaluate(lesson, &models.LessonProgress{TimeSpentSeconds: 120, VideoProgressPercent: 95})
	unmet = status.FirstUnmet()
	require.NotNil(t, unmet)
	assert.Equal(t, "QUIZ_REQUIREMENT_NOT_MET", unmet.Code)

	// Everything met.
	status = Evaluate(lesson, &models.LessonProgress{
		TimeSpentSeconds:     120,
		VideoProgressPercent: 95,
		QuizPassed:           true,
	})
	assert.Nil(t, status.FirstUnmet())
	assert.True(t, status.CanComplete)
}

func TestEvaluateVideoBoundary(t *testing.T) {
	lesson := &models.Lesson{RequireVideoCompletion: true, MinVideoPercent: 80}

	status := Evaluate(lesson, &models.LessonProgress{VideoProgressPercent: 80})
	assert.True(t, status.VideoMet)

	status = Evaluate(lesson, &models.LessonProgress{VideoProgressPercent: 79.9})
	assert.False(t, status.VideoMet)
}
