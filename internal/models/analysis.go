package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/triggerlens/triggerlens/internal/allergen"
)

// WeightedFoodScore is one ranked food candidate in a trigger analysis.
//
// CrossReactionFrequency is the percentage (0–100) of the user's *other*
// analyzed reactions in which this food also surfaced as a top candidate. It
// is nil when no other analyzed reaction exists; callers must render nil as
// "no data", never as 0%.
type WeightedFoodScore struct {
	FoodName               string `json:"food_name"`
	Occurrences            int    `json:"occurrences"`
	OccurrencesWithin24h   int    `json:"occurrences_within_24h"`
	CrossReactionFrequency *int   `json:"cross_reaction_frequency,omitempty"`
}

// Validate checks that all food score fields are valid.
func (s *WeightedFoodScore) Validate() error {
	if s.FoodName == "" {
		return errors.New("food name must not be empty")
	}
	if s.Occurrences < 1 {
		return errors.New("occurrences must be at least 1")
	}
	if s.OccurrencesWithin24h < 0 {
		return errors.New("occurrences within 24h must not be negative")
	}
	if s.OccurrencesWithin24h > s.Occurrences {
		return errors.New("occurrences within 24h must not exceed occurrences")
	}
	if s.CrossReactionFrequency != nil {
		if f := *s.CrossReactionFrequency; f < 0 || f > 100 {
			return fmt.Errorf("cross-reaction frequency must be between 0 and 100, got %d", f)
		}
	}
	return nil
}

// WeightedIngredientScore is one ranked ingredient candidate. Name is the
// normalized (trimmed, lower-cased) ingredient key; variants that normalize
// identically are merged into a single entry. Category is empty when the
// ingredient matched no recognized allergen group.
type WeightedIngredientScore struct {
	Name                   string            `json:"name"`
	Occurrences            int               `json:"occurrences"`
	OccurrencesWithin24h   int               `json:"occurrences_within_24h"`
	CrossReactionFrequency *int              `json:"cross_reaction_frequency,omitempty"`
	Category               allergen.Category `json:"category,omitempty"`
}

// Validate checks that all ingredient score fields are valid.
func (s *WeightedIngredientScore) Validate() error {
	if s.Name == "" {
		return errors.New("ingredient name must not be empty")
	}
	if s.Occurrences < 1 {
		return errors.New("occurrences must be at least 1")
	}
	if s.OccurrencesWithin24h < 0 {
		return errors.New("occurrences within 24h must not be negative")
	}
	if s.OccurrencesWithin24h > s.Occurrences {
		return errors.New("occurrences within 24h must not exceed occurrences")
	}
	if s.CrossReactionFrequency != nil {
		if f := *s.CrossReactionFrequency; f < 0 || f > 100 {
			return fmt.Errorf("cross-reaction frequency must be between 0 and 100, got %d", f)
		}
	}
	if s.Category != "" && !s.Category.Valid() {
		return fmt.Errorf("unknown allergen category %q", s.Category)
	}
	return nil
}

// TriggerAnalysis is the completed analysis for one reaction: which foods and
// normalized ingredients, eaten in the window preceding the reaction, most
// plausibly caused it. It is immutable once produced; new meal or reaction
// data requires recomputation, never an incremental patch.
//
// TopFoods and TopIngredients are ranked by occurrences descending, then
// occurrences-within-24h descending, then first-seen order, and contain no
// duplicate names after normalization.
type TriggerAnalysis struct {
	WindowStart    time.Time                 `json:"window_start"`
	WindowEnd      time.Time                 `json:"window_end"`
	MealCount      int                       `json:"meal_count"`
	DistinctFoods  int                       `json:"distinct_foods"`
	TopFoods       []WeightedFoodScore       `json:"top_foods"`
	TopIngredients []WeightedIngredientScore `json:"top_ingredients"`
}

// Validate checks that the analysis is internally consistent.
func (a *TriggerAnalysis) Validate() error {
	if a.WindowStart.IsZero() || a.WindowEnd.IsZero() {
		return errors.New("analysis window must not be zero")
	}
	if a.WindowEnd.Before(a.WindowStart) {
		return errors.New("analysis window end must not precede window start")
	}
	if a.MealCount < 0 {
		return errors.New("meal count must not be negative")
	}
	if a.DistinctFoods != len(a.TopFoods) {
		return errors.New("distinct foods must equal the number of food scores")
	}
	seenFoods := make(map[string]bool, len(a.TopFoods))
	for i := range a.TopFoods {
		if err := a.TopFoods[i].Validate(); err != nil {
			return fmt.Errorf("food score %d: %w", i, err)
		}
		if seenFoods[a.TopFoods[i].FoodName] {
			return fmt.Errorf("duplicate food %q in top foods", a.TopFoods[i].FoodName)
		}
		seenFoods[a.TopFoods[i].FoodName] = true
	}
	seenIngredients := make(map[string]bool, len(a.TopIngredients))
	for i := range a.TopIngredients {
		if err := a.TopIngredients[i].Validate(); err != nil {
			return fmt.Errorf("ingredient score %d: %w", i, err)
		}
		if seenIngredients[a.TopIngredients[i].Name] {
			return fmt.Errorf("duplicate ingredient %q in top ingredients", a.TopIngredients[i].Name)
		}
		seenIngredients[a.TopIngredients[i].Name] = true
	}
	return nil
}
