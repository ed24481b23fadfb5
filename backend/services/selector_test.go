package services

import (
	"math/rand"
	"testing"

	"lms/backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func makeQuestions(n int) []models.Question {
	questions := make([]models.Question, 0, n)
	for i := 1; i <= n; i++ {
		q := models.Question{
			Model:         gorm.Model{ID: uint(i)},
			Type:          models.QuestionMultipleChoice,
			SequenceOrder: i,
			Points:        1,
		}
		for j := 1; j <= 4; j++ {
			q.Options = append(q.Options, models.QuestionOption{
				Model:         gorm.Model{ID: uint(i*100 + j)},
				SequenceOrder: j,
				IsCorrect:     j == 1,
			})
		}
		questions = append(questions, q)
	}
	return questions
}

func questionIDs(selected []SelectedQuestion) []uint {
	ids := make([]uint, 0, len(selected))
	for _, q := range selected {
		ids = append(ids, q.ID)
	}
	return ids
}

func TestSelectQuestionsAuthoredOrder(t *testing.T) {
	test := &models.Test{Questions: makeQuestions(4)}
	rng := rand.New(rand.NewSource(1))

	selected := SelectQuestions(test, rng)

	assert.Equal(t, []uint{1, 2, 3, 4}, questionIDs(selected))
	// Options keep authored order when randomization is off.
	assert.Equal(t, uint(101), selected[0].Options[0].ID)
	assert.Equal(t, uint(104), selected[0].Options[3].ID)
}

func TestSelectQuestionsShuffleIsDeterministicPerSeed(t *testing.T) {
	test := &models.Test{RandomizeQuestions: true, Questions: makeQuestions(10)}

	first := SelectQuestions(test, rand.New(rand.NewSource(42)))
	second := SelectQuestions(test, rand.New(rand.NewSource(42)))

	assert.Equal(t, questionIDs(first), questionIDs(second))
	assert.Len(t, first, 10)
}

func TestSelectQuestionsSubset(t *testing.T) {
	test := &models.Test{QuestionsToShow: 3, Questions: makeQuestions(10)}

	selected := SelectQuestions(test, rand.New(rand.NewSource(7)))

	require.Len(t, selected, 3)
	// Without shuffling, the subset keeps authored order.
	ids := questionIDs(selected)
	assert.True(t, ids[0] < ids[1] && ids[1] < ids[2])
}

func TestSelectQuestionsSubsetLargerThanPool(t *testing.T) {
	test := &models.Test{QuestionsToShow: 10, Questions: makeQuestions(3)}

	selected := SelectQuestions(test, rand.New(rand.NewSource(7)))

	assert.Len(t, selected, 3)
}

func TestSelectQuestionsNeverExposesCorrectness(t *testing.T) {
	test := &models.Test{RandomizeOptions: true, Questions: makeQuestions(2)}

	selected := SelectQuestions(test, rand.New(rand.NewSource(3)))

	for _, q := range selected {
		assert.Len(t, q.Options, 4)
		// Every authored option is present regardless of shuffle order.
		seen := map[uint]bool{}
		for _, o := range q.Options {
			seen[o.ID] = true
		}
		assert.Len(t, seen, 4)
	}
}

func TestSnapshotReplayRoundTrip(t *testing.T) {
	questions := makeQuestions(5)
	test := &models.Test{
		RandomizeQuestions: true,
		RandomizeOptions:   true,
		QuestionsToShow:    3,
		Questions:          questions,
	}

	selected := SelectQuestions(test, rand.New(rand.NewSource(99)))
	snap := Snapshot(selected)
	replayed := Replay(snap, questions)

	require.Len(t, replayed, len(selected))
	for i := range selected {
		assert.Equal(t, selected[i].ID, replayed[i].ID)
		require.Len(t, replayed[i].Options, len(selected[i].Options))
		for j := range selected[i].Options {
			assert.Equal(t, selected[i].Options[j].ID, replayed[i].Options[j].ID)
		}
	}
}

func TestReplaySkipsDeletedQuestions(t *testing.T) {
	questions := makeQuestions(3)
	snap := []QuestionSnapshot{
		{QuestionID: 1, OptionOrder: []uint{101, 102, 103, 104}},
		{QuestionID: 99, OptionOrder: []uint{1, 2}},
		{QuestionID: 3, OptionOrder: []uint{301, 399}},
	}

	replayed := Replay(snap, questions)

	require.Len(t, replayed, 2)
	assert.Equal(t, uint(1), replayed[0].ID)
	assert.Equal(t, uint(3), replayed[1].ID)
	// Option 399 no longer exists, only 301 survives.
	require.Len(t, replayed[1].Options, 1)
	assert.Equal(t, uint(301), replayed[1].Options[0].ID)
}
