package models

import (
	"errors"
	"fmt"

	"github.com/triggerlens/triggerlens/internal/allergen"
)

// ReactionTypeSummary aggregates the reactions of one type (symptom) within a
// pattern sample, together with the foods and ingredients that were top
// candidates across those reactions.
type ReactionTypeSummary struct {
	ReactionType string   `json:"reaction_type"`
	Count        int      `json:"count"`
	TopFoods     []string `json:"top_foods"`
	Ingredients  []string `json:"ingredients"`
}

// PatternEntry is one ingredient recurring across multiple reactions in a
// pattern sample. ReactionCount is the number of distinct reactions whose
// analysis surfaced the ingredient; Occurrences is the summed occurrence
// count across those analyses.
type PatternEntry struct {
	Name          string            `json:"name"`
	ReactionCount int               `json:"reaction_count"`
	Occurrences   int               `json:"occurrences"`
	Category      allergen.Category `json:"category,omitempty"`
}

// PatternReport aggregates the user's recent analyzed reactions to surface
// ingredients recurring across episodes. Entries below the two-reaction
// significance threshold never appear: a single-reaction occurrence is noise,
// not a pattern. The analyzer returns no report at all when fewer than three
// reactions exist.
type PatternReport struct {
	SampleSize          int                   `json:"sample_size"`
	ReactionTypes       []ReactionTypeSummary `json:"reaction_types"`
	RecognizedAllergens []PatternEntry        `json:"recognized_allergens"`
	OtherIngredients    []PatternEntry        `json:"other_ingredients"`
}

// Validate checks that the report is internally consistent.
func (p *PatternReport) Validate() error {
	if p.SampleSize < 3 {
		return errors.New("pattern report sample size must be at least 3")
	}
	for i := range p.RecognizedAllergens {
		e := &p.RecognizedAllergens[i]
		if err := e.validate(); err != nil {
			return fmt.Errorf("recognized allergen %d: %w", i, err)
		}
		if e.Category == "" {
			return fmt.Errorf("recognized allergen %q is missing a category", e.Name)
		}
	}
	for i := range p.OtherIngredients {
		e := &p.OtherIngredients[i]
		if err := e.validate(); err != nil {
			return fmt.Errorf("other ingredient %d: %w", i, err)
		}
		if e.Category != "" {
			return fmt.Errorf("other ingredient %q carries allergen category %q", e.Name, e.Category)
		}
	}
	return nil
}

func (e *PatternEntry) validate() error {
	if e.Name == "" {
		return errors.New("pattern entry name must not be empty")
	}
	if e.ReactionCount < 2 {
		return errors.New("pattern entry must span at least 2 reactions")
	}
	if e.Occurrences < e.ReactionCount {
		return errors.New("pattern entry occurrences must be at least its reaction count")
	}
	if e.Category != "" && !e.Category.Valid() {
		return fmt.Errorf("unknown allergen category %q", e.Category)
	}
	return nil
}
