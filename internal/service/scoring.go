package service

import (
	"strconv"

	"github.com/evalhub/evalhub-api/internal/models"
)

// ScoreMCQQuestion grades a single MCQ response: 100 when the selected option
// set exactly equals the correct option set, 0 otherwise. No partial credit
// for subsets or supersets.
func ScoreMCQQuestion(question models.Question, selected []string) float64 {
	if exactSetMatch(question.CorrectOptionTexts(), selected) {
		return 100
	}
	return 0
}

// CategoryScores aggregates per-category percentages from MCQ responses.
// Questions are addressed by their index in the assessment's ordered question
// list. Uncategorised questions are excluded from every bucket; descriptive
// questions contribute nothing.
func CategoryScores(questions []models.Question, responses map[string][]string) map[string]float64 {
	totals := map[string]float64{}
	counts := map[string]int{}

	for index, question := range questions {
		if !question.IsMCQ() || question.CategoryName == "" {
			continue
		}

		selected := responses[strconv.Itoa(index)]
		totals[question.CategoryName] += ScoreMCQQuestion(question, selected)
		counts[question.CategoryName]++
	}

	scores := make(map[string]float64, len(totals))
	for name, total := range totals {
		scores[name] = total / float64(counts[name])
	}

	return scores
}

func exactSetMatch(correct, selected []string) bool {
	if len(correct) == 0 {
		return false
	}

	correctSet := make(map[string]struct{}, len(correct))
	for _, text := range correct {
		correctSet[text] = struct{}{}
	}

	selectedSet := make(map[string]struct{}, len(selected))
	for _, text := range selected {
		selectedSet[text] = struct{}{}
	}

	if len(correctSet) != len(selectedSet) {
		return false
	}

	for text := range correctSet {
		if _, ok := selectedSet[text]; !ok {
			return false
		}
	}

	return true
}
