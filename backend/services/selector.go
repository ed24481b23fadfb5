package services

import (
	"math/rand"
	"sort"

	"lms/backend/models"
)

// SelectedOption is an answer option as rendered to the learner. Correctness
// flags never leave the server through this type.
type SelectedOption struct {
	ID   uint   `json:"id"`
	Text string `json:"text"`
}

type SelectedQuestion struct {
	ID      uint                `json:"id"`
	Text    string              `json:"text"`
	Type    models.QuestionType `json:"type"`
	Points  int                 `json:"points"`
	Options []SelectedOption    `json:"options"`
}

// QuestionSnapshot pins one question's render order inside an attempt.
type QuestionSnapshot struct {
	QuestionID  uint   `json:"question_id"`
	OptionOrder []uint `json:"option_order"`
}

// SelectQuestions builds the ordered question set for a new attempt. Question
// and option order are uniform random permutations when the test's
// randomization flags are set, and a uniform random subset (without
// replacement) is taken after shuffling when QuestionsToShow caps the count.
// The result is snapshotted into the attempt, so a shuffle happens once per
// attempt, not per fetch.
func SelectQuestions(test *models.Test, rng *rand.Rand) []SelectedQuestion {
	questions := make([]models.Question, len(test.Questions))
	copy(questions, test.Questions)
	sort.SliceStable(questions, func(i, j int) bool {
		if questions[i].SequenceOrder != questions[j].SequenceOrder {
			return questions[i].SequenceOrder < questions[j].SequenceOrder
		}
		return questions[i].ID < questions[j].ID
	})

	if test.RandomizeQuestions {
		rng.Shuffle(len(questions), func(i, j int) {
			questions[i], questions[j] = questions[j], questions[i]
		})
	}

	if test.QuestionsToShow > 0 && test.QuestionsToShow < len(questions) {
		if test.RandomizeQuestions {
			questions = questions[:test.QuestionsToShow]
		} else {
			// Keep the authored order but pick a uniform subset.
			picked := rng.Perm(len(questions))[:test.QuestionsToShow]
			sort.Ints(picked)
			subset := make([]models.Question, 0, test.QuestionsToShow)
			for _, idx := range picked {
				subset = append(subset, questions[idx])
			}
			questions = subset
		}
	}

	selected := make([]SelectedQuestion, 0, len(questions))
	for _, q := range questions {
		options := make([]models.QuestionOption, len(q.Options))
		copy(options, q.Options)
		sort.SliceStable(options, func(i, j int) bool {
			if options[i].SequenceOrder != options[j].SequenceOrder {
				return options[i].SequenceOrder < options[j].SequenceOrder
			}
			return options[i].ID < options[j].ID
		})
		if test.RandomizeOptions {
			rng.Shuffle(len(options), func(i, j int) {
				options[i], options[j] = options[j], options[i]
			})
		}

		sq := SelectedQuestion{
			ID:     q.ID,
			Text:   q.Text,
			Type:   q.Type,
			Points: q.Points,
		}
		for _, o := range options {
			sq.Options = append(sq.Options, SelectedOption{ID: o.ID, Text: o.Text})
		}
		selected = append(selected, sq)
	}
	return selected
}

// Snapshot reduces a selection to the id ordering stored on the attempt.
func Snapshot(selected []SelectedQuestion) []QuestionSnapshot {
	snap := make([]QuestionSnapshot, 0, len(selected))
	for _, q := range selected {
		s := QuestionSnapshot{QuestionID: q.ID}
		for _, o := range q.Options {
			s.OptionOrder = append(s.OptionOrder, o.ID)
		}
		snap = append(snap, s)
	}
	return snap
}

// Replay rebuilds the learner-facing question set from an attempt snapshot.
// Questions or options deleted since the attempt started are skipped.
func Replay(snap []QuestionSnapshot, questions []models.Question) []SelectedQuestion {
	byID := make(map[uint]models.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	selected := make([]SelectedQuestion, 0, len(snap))
	for _, s := range snap {
		q, ok := byID[s.QuestionID]
		if !ok {
			continue
		}
		optByID := make(map[uint]models.QuestionOption, len(q.Options))
		for _, o := range q.Options {
			optByID[o.ID] = o
		}
		sq := SelectedQuestion{
			ID:     q.ID,
			Text:   q.Text,
			Type:   q.Type,
			Points: q.Points,
		}
		for _, optID := range s.OptionOrder {
			if o, ok := optByID[optID]; ok {
				sq.Options = append(sq.Options, SelectedOption{ID: o.ID, Text: o.Text})
			}
		}
		selected = append(selected, sq)
	}
	return selected
}
