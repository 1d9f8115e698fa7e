// Package grading scores answers against questions. Everything here is a pure
// function of its inputs.
package grading

import (
	"strings"

	"github.com/tarik1bosunia/online-exam-management-system/internal/models"
)

// Outcome is the result of auto-grading a single answer.
type Outcome struct {
	Score     float64
	IsCorrect bool
	IsGraded  bool
}

// Score returns the auto-graded score of selected for question q. Text and
// image questions always score 0. Choice questions score MaxScore when the
// normalized selection equals the normalized correct set, otherwise 0.
func Score(q *models.Question, selected []string) float64 {
	if !q.Type.IsObjective() {
		return 0
	}
	if len(selected) == 0 {
		return 0
	}
	if !sameSet(Normalize(q.CorrectAnswers), Normalize(selected)) {
		return 0
	}
	return q.MaxScore
}

// Grade auto-grades answer a for question q. A nil answer grades as unanswered.
func Grade(q *models.Question, a *models.Answer) Outcome {
	var selected []string
	if a != nil {
		selected = a.SelectedOptions
	}

	score := Score(q, selected)
	return Outcome{
		Score:     score,
		IsCorrect: score == q.MaxScore,
		IsGraded:  q.Type.IsObjective(),
	}
}

// Normalize trims and lower-cases every value and collapses duplicates.
func Normalize(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[strings.ToLower(strings.TrimSpace(v))] = struct{}{}
	}
	return set
}

func sameSet(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}

// Total sums the awarded score of every answer.
func Total(answers []models.Answer) float64 {
	var total float64
	for _, a := range answers {
		total += a.ScoreAwarded
	}
	return total
}

// MaxPossible sums the max score of every question.
func MaxPossible(questions []models.Question) float64 {
	var total float64
	for _, q := range questions {
		total += q.MaxScore
	}
	return total
}
