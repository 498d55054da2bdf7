package analysis

import (
	"testing"
	"time"

	"github.com/triggerlens/triggerlens/internal/models"
)

func analyzedReaction(id string, foods []string, ingredients []string) models.ReactionEvent {
	analysis := &models.TriggerAnalysis{
		WindowStart: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		WindowEnd:   time.Date(2026, 1, 8, 0, 0, 0, 0, time.UTC),
	}
	for _, f := range foods {
		analysis.TopFoods = append(analysis.TopFoods, models.WeightedFoodScore{FoodName: f, Occurrences: 1})
	}
	analysis.DistinctFoods = len(analysis.TopFoods)
	for _, ing := range ingredients {
		analysis.TopIngredients = append(analysis.TopIngredients, models.WeightedIngredientScore{Name: ing, Occurrences: 1})
	}
	return models.ReactionEvent{
		ID:           id,
		ReactionType: "hives",
		Severity:     models.Mild,
		Timestamp:    time.Date(2026, 1, 8, 0, 0, 0, 0, time.UTC),
		Analysis:     analysis,
	}
}

func TestCrossReactionUnknownWhenNoAnalyzedOthers(t *testing.T) {
	engine := New(nil, Options{})
	reactionTime := time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)
	meals := []models.MealRecord{meal("m1", "Toast", reactionTime.Add(-time.Hour), "bread")}

	// One other reaction exists but has no completed analysis: it must not
	// count toward the denominator, so every frequency stays nil.
	others := []models.ReactionEvent{
		{
			ID: "reaction-2", ReactionType: "nausea", Severity: models.Mild,
			Timestamp: reactionTime.Add(-48 * time.Hour),
		},
	}

	result, err := engine.Analyze(testReaction(t, reactionTime), meals, others)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	for _, score := range result.TopFoods {
		if score.CrossReactionFrequency != nil {
			t.Errorf("food %q: frequency = %d, want nil (no analyzed others)", score.FoodName, *score.CrossReactionFrequency)
		}
	}
	for _, score := range result.TopIngredients {
		if score.CrossReactionFrequency != nil {
			t.Errorf("ingredient %q: frequency = %d, want nil (no analyzed others)", score.Name, *score.CrossReactionFrequency)
		}
	}
}

func TestCrossReactionFrequency(t *testing.T) {
	engine := New(nil, Options{})
	reactionTime := time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)
	meals := []models.MealRecord{
		meal("m1", "Toast", reactionTime.Add(-time.Hour), "bread"),
		meal("m2", "Salad", reactionTime.Add(-2*time.Hour), "lettuce"),
	}

	others := []models.ReactionEvent{
		analyzedReaction("reaction-2", []string{"Toast"}, []string{"bread"}),
		analyzedReaction("reaction-3", []string{"Toast", "Curry"}, []string{"rice"}),
		analyzedReaction("reaction-4", []string{"Soup"}, []string{"celery"}),
	}

	result, err := engine.Analyze(testReaction(t, reactionTime), meals, others)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	byFood := make(map[string]*int)
	for _, score := range result.TopFoods {
		byFood[score.FoodName] = score.CrossReactionFrequency
	}
	// Toast appears in 2 of 3 analyzed others: round(2/3*100) = 67.
	if freq := byFood["Toast"]; freq == nil || *freq != 67 {
		t.Errorf("Toast frequency = %v, want 67", deref(freq))
	}
	// Salad appears in none: an explicit 0, not nil.
	if freq := byFood["Salad"]; freq == nil || *freq != 0 {
		t.Errorf("Salad frequency = %v, want 0", deref(freq))
	}

	byIngredient := make(map[string]*int)
	for _, score := range result.TopIngredients {
		byIngredient[score.Name] = score.CrossReactionFrequency
	}
	// bread appears in 1 of 3: round(1/3*100) = 33.
	if freq := byIngredient["bread"]; freq == nil || *freq != 33 {
		t.Errorf("bread frequency = %v, want 33", deref(freq))
	}
}

func TestCrossReactionExactNameMatchingOnly(t *testing.T) {
	engine := New(nil, Options{})
	reactionTime := time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)
	meals := []models.MealRecord{meal("m1", "Coca-Cola", reactionTime.Add(-time.Hour))}

	// A near-duplicate brand variant is a different candidate: no fuzzy match.
	others := []models.ReactionEvent{
		analyzedReaction("reaction-2", []string{"Coca Cola Zero"}, nil),
	}

	result, err := engine.Analyze(testReaction(t, reactionTime), meals, others)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if len(result.TopFoods) != 1 {
		t.Fatalf("expected 1 food, got %d", len(result.TopFoods))
	}
	freq := result.TopFoods[0].CrossReactionFrequency
	if freq == nil || *freq != 0 {
		t.Errorf("Coca-Cola frequency = %v, want 0 (exact-name matching)", deref(freq))
	}
}

func TestCrossReactionIgnoresCurrentReaction(t *testing.T) {
	engine := New(nil, Options{})
	reactionTime := time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)
	meals := []models.MealRecord{meal("m1", "Toast", reactionTime.Add(-time.Hour), "bread")}

	// The reaction under analysis appears in the history slice (as it would
	// when callers pass the full reaction list); it must not count as its own
	// cross-reaction evidence.
	self := analyzedReaction("reaction-1", []string{"Toast"}, []string{"bread"})
	result, err := engine.Analyze(testReaction(t, reactionTime), meals, []models.ReactionEvent{self})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if freq := result.TopFoods[0].CrossReactionFrequency; freq != nil {
		t.Errorf("frequency = %d, want nil when the only analyzed reaction is the current one", *freq)
	}
}

func TestCrossReactionMatchIsCaseInsensitive(t *testing.T) {
	engine := New(nil, Options{})
	reactionTime := time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)
	meals := []models.MealRecord{meal("m1", "TOAST", reactionTime.Add(-time.Hour))}

	others := []models.ReactionEvent{
		analyzedReaction("reaction-2", []string{"toast"}, nil),
	}

	result, err := engine.Analyze(testReaction(t, reactionTime), meals, others)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	freq := result.TopFoods[0].CrossReactionFrequency
	if freq == nil || *freq != 100 {
		t.Errorf("frequency = %v, want 100 (names compare post-normalization)", deref(freq))
	}
}

func deref(p *int) interface{} {
	if p == nil {
		return nil
	}
	return *p
}
