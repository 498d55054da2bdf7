package report

import (
	"strings"
	"testing"
	"time"

	"github.com/triggerlens/triggerlens/internal/allergen"
	"github.com/triggerlens/triggerlens/internal/models"
)

func intp(v int) *int { return &v }

func sampleReaction() *models.ReactionEvent {
	return &models.ReactionEvent{
		ID:           "r1",
		ReactionType: "hives",
		Timestamp:    time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC),
		Severity:     models.Severe,
	}
}

func TestFormatAnalysis(t *testing.T) {
	analysis := &models.TriggerAnalysis{
		WindowStart:   time.Date(2026, 3, 3, 18, 0, 0, 0, time.UTC),
		WindowEnd:     time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC),
		MealCount:     3,
		DistinctFoods: 2,
		TopFoods: []models.WeightedFoodScore{
			{FoodName: "Peanut Butter Toast", Occurrences: 2, OccurrencesWithin24h: 1, CrossReactionFrequency: intp(67)},
			{FoodName: "Salad", Occurrences: 1},
		},
		TopIngredients: []models.WeightedIngredientScore{
			{Name: "peanut butter", Occurrences: 2, OccurrencesWithin24h: 1, Category: allergen.Peanuts},
			{Name: "lettuce", Occurrences: 1},
		},
	}

	message := FormatAnalysis(sampleReaction(), analysis)

	for _, want := range []string{
		"hives",
		"Peanut Butter Toast",
		"67%",
		"Salad",
		"lettuce",
		string(allergen.Peanuts),
		"not medical advice",
	} {
		if !strings.Contains(message, escapeMarkdownV2(want)) {
			t.Errorf("message missing %q:\n%s", want, message)
		}
	}
}

func TestFormatAnalysisNilFrequencyIsNoData(t *testing.T) {
	analysis := &models.TriggerAnalysis{
		WindowStart:   time.Date(2026, 3, 3, 18, 0, 0, 0, time.UTC),
		WindowEnd:     time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC),
		MealCount:     1,
		DistinctFoods: 1,
		TopFoods: []models.WeightedFoodScore{
			{FoodName: "Salad", Occurrences: 1},
		},
	}

	message := FormatAnalysis(sampleReaction(), analysis)

	if !strings.Contains(message, "no data") {
		t.Errorf("nil frequency should render as \"no data\":\n%s", message)
	}
	if strings.Contains(message, "0%") {
		t.Errorf("nil frequency must never render as 0%%:\n%s", message)
	}
}

func TestFormatAnalysisEmptyWindow(t *testing.T) {
	analysis := &models.TriggerAnalysis{
		WindowStart: time.Date(2026, 3, 3, 18, 0, 0, 0, time.UTC),
		WindowEnd:   time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC),
	}

	message := FormatAnalysis(sampleReaction(), analysis)

	if !strings.Contains(message, "No meals were logged") {
		t.Errorf("empty analysis should say no meals were logged:\n%s", message)
	}
	if strings.Contains(message, "*Suspect foods*") {
		t.Errorf("empty analysis should not list suspect foods:\n%s", message)
	}
}

func TestFormatAnalysisTruncatesLongLists(t *testing.T) {
	analysis := &models.TriggerAnalysis{
		WindowStart: time.Date(2026, 3, 3, 18, 0, 0, 0, time.UTC),
		WindowEnd:   time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC),
		MealCount:   8,
	}
	for _, name := range []string{"A", "B", "C", "D", "E", "F", "G"} {
		analysis.TopFoods = append(analysis.TopFoods, models.WeightedFoodScore{FoodName: name, Occurrences: 1})
	}
	analysis.DistinctFoods = len(analysis.TopFoods)

	message := FormatAnalysis(sampleReaction(), analysis)

	if !strings.Contains(message, "and 2 more") {
		t.Errorf("long food list should be truncated with a count:\n%s", message)
	}
	if strings.Contains(message, "6\\. ") {
		t.Errorf("no more than %d foods should be listed:\n%s", maxListedCandidates, message)
	}
}

func TestFormatPattern(t *testing.T) {
	report := &models.PatternReport{
		SampleSize: 5,
		ReactionTypes: []models.ReactionTypeSummary{
			{ReactionType: "hives", Count: 3},
			{ReactionType: "nausea", Count: 2},
		},
		RecognizedAllergens: []models.PatternEntry{
			{Name: "milk", ReactionCount: 3, Occurrences: 4, Category: allergen.Milk},
		},
		OtherIngredients: []models.PatternEntry{
			{Name: "rice", ReactionCount: 2, Occurrences: 2},
		},
	}

	message := FormatPattern(report)

	for _, want := range []string{"hives", "nausea", "milk", "rice", "not medical advice"} {
		if !strings.Contains(message, escapeMarkdownV2(want)) {
			t.Errorf("message missing %q:\n%s", want, message)
		}
	}
	if !strings.Contains(message, escapeMarkdownV2(string(allergen.Milk))) {
		t.Errorf("recognized allergen should name its category:\n%s", message)
	}
	if !strings.Contains(message, "in 3 of 5 reactions") {
		t.Errorf("entries should report reaction counts against the sample size:\n%s", message)
	}
}

func TestFormatPatternNoRecurringIngredients(t *testing.T) {
	report := &models.PatternReport{
		SampleSize: 3,
		ReactionTypes: []models.ReactionTypeSummary{
			{ReactionType: "hives", Count: 3},
		},
	}

	message := FormatPattern(report)

	if !strings.Contains(message, "No ingredient appeared in two or more reactions") {
		t.Errorf("report without recurring ingredients should say so:\n%s", message)
	}
}

func TestFormatFrequency(t *testing.T) {
	tests := []struct {
		name string
		freq *int
		want string
	}{
		{name: "nil is no data", freq: nil, want: "no data"},
		{name: "zero is a real percentage", freq: intp(0), want: "0%"},
		{name: "full match", freq: intp(100), want: "100%"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatFrequency(tt.freq); got != tt.want {
				t.Errorf("formatFrequency() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEscapeMarkdownV2(t *testing.T) {
	got := escapeMarkdownV2("salt (0.5%) - sugar!")
	want := `salt \(0\.5%\) \- sugar\!`
	if got != want {
		t.Errorf("escapeMarkdownV2() = %q, want %q", got, want)
	}
}
