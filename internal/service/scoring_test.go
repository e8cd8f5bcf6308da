package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/evalhub/evalhub-api/internal/models"
)

func mcqQuestion(category string, correct []string, wrong []string) models.Question {
	options := make([]models.QuestionOption, 0, len(correct)+len(wrong))
	for _, text := range correct {
		options = append(options, models.QuestionOption{Text: text, IsCorrect: true})
	}
	for _, text := range wrong {
		options = append(options, models.QuestionOption{Text: text})
	}

	return models.Question{
		Type:         models.QuestionTypeMCQ,
		CategoryName: category,
		Options:      options,
	}
}

func TestScoreMCQQuestionExactSetOnly(t *testing.T) {
	question := mcqQuestion("algebra", []string{"A", "C"}, []string{"B", "D"})

	tests := []struct {
		name     string
		selected []string
		want     float64
	}{
		{name: "exact match", selected: []string{"A", "C"}, want: 100},
		{name: "exact match different order", selected: []string{"C", "A"}, want: 100},
		{name: "subset", selected: []string{"A"}, want: 0},
		{name: "superset", selected: []string{"A", "B", "C"}, want: 0},
		{name: "empty", selected: nil, want: 0},
		{name: "duplicate selections collapse", selected: []string{"A", "A", "C"}, want: 100},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, ScoreMCQQuestion(question, tc.selected))
		})
	}
}

func TestScoreMCQQuestionNoCorrectOptions(t *testing.T) {
	question := mcqQuestion("algebra", nil, []string{"A", "B"})
	require.Equal(t, float64(0), ScoreMCQQuestion(question, nil))
	require.Equal(t, float64(0), ScoreMCQQuestion(question, []string{"A"}))
}

func TestCategoryScoresAveragesPerCategory(t *testing.T) {
	questions := []models.Question{
		mcqQuestion("algebra", []string{"A"}, []string{"B"}),
		mcqQuestion("algebra", []string{"B"}, []string{"A"}),
		mcqQuestion("geometry", []string{"C"}, []string{"D"}),
	}

	responses := map[string][]string{
		"0": {"A"},
		"1": {"A"},
		"2": {"C"},
	}

	scores := CategoryScores(questions, responses)
	require.Equal(t, float64(50), scores["algebra"])
	require.Equal(t, float64(100), scores["geometry"])
}

func TestCategoryScoresSkipsUncategorisedAndDescriptive(t *testing.T) {
	uncategorised := mcqQuestion("", []string{"A"}, nil)
	descriptive := models.Question{Type: models.QuestionTypeDescriptive, CategoryName: "essay"}
	categorised := mcqQuestion("logic", []string{"A"}, nil)

	scores := CategoryScores([]models.Question{uncategorised, descriptive, categorised}, map[string][]string{
		"0": {"A"},
		"2": {"A"},
	})

	require.NotContains(t, scores, "")
	require.NotContains(t, scores, "essay")
	require.Equal(t, float64(100), scores["logic"])
	require.Len(t, scores, 1)
}

func TestCategoryScoresUnansweredCountsAsZero(t *testing.T) {
	questions := []models.Question{
		mcqQuestion("logic", []string{"A"}, nil),
		mcqQuestion("logic", []string{"B"}, nil),
	}

	scores := CategoryScores(questions, map[string][]string{"0": {"A"}})
	require.Equal(t, float64(50), scores["logic"])
}
