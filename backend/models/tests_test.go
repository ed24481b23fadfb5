package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusAllowsAttempts(t *testing.T) {
	assert.True(t, TestStatusActive.AllowsAttempts())
	assert.True(t, TestStatusPublished.AllowsAttempts())
	assert.False(t, TestStatusDraft.AllowsAttempts())
	assert.False(t, TestStatusInactive.AllowsAttempts())
	assert.False(t, TestStatusDeleted.AllowsAttempts())
}

func TestQuestionTypeAutoGradable(t *testing.T) {
	assert.True(t, QuestionMultipleChoice.AutoGradable())
	assert.True(t, QuestionTrueFalse.AutoGradable())
	assert.False(t, QuestionEssay.AutoGradable())
	assert.False(t, QuestionFillBlank.AutoGradable())
}
