package analysis

import (
	"math"

	"github.com/triggerlens/triggerlens/internal/models"
)

// crossReactionContext precomputes, for each of the user's other analyzed
// reactions, the set of normalized food and ingredient names that surfaced
// as top candidates, so per-candidate frequency lookups are O(1).
//
// Matching is exact normalized-name equality: a food appearing under a
// different name in another reaction's top list does not count. Near-duplicate
// brand variants ("Coca-Cola" vs "Coca Cola Zero") are therefore distinct
// candidates; collapsing them would require a fuzzy-matching pass that the
// engine deliberately does not perform.
type crossReactionContext struct {
	foodSets       []map[string]bool
	ingredientSets []map[string]bool
}

// newCrossReactionContext indexes every reaction in others that is not the
// current reaction and already carries a completed analysis. Reactions
// without an analysis contribute nothing, including to the denominator.
func newCrossReactionContext(currentID string, others []models.ReactionEvent) *crossReactionContext {
	ctx := &crossReactionContext{}
	for i := range others {
		other := &others[i]
		if other.ID == currentID || !other.Analyzed() {
			continue
		}
		foodSet := make(map[string]bool, len(other.Analysis.TopFoods))
		for _, score := range other.Analysis.TopFoods {
			foodSet[Normalize(score.FoodName)] = true
		}
		ingredientSet := make(map[string]bool, len(other.Analysis.TopIngredients))
		for _, score := range other.Analysis.TopIngredients {
			ingredientSet[Normalize(score.Name)] = true
		}
		ctx.foodSets = append(ctx.foodSets, foodSet)
		ctx.ingredientSets = append(ctx.ingredientSets, ingredientSet)
	}
	return ctx
}

// foodFrequency returns the percentage of other analyzed reactions whose top
// foods include the candidate, or nil when no other analyzed reaction exists.
func (c *crossReactionContext) foodFrequency(normalizedName string) *int {
	return frequency(normalizedName, c.foodSets)
}

// ingredientFrequency is foodFrequency at ingredient granularity.
func (c *crossReactionContext) ingredientFrequency(normalizedName string) *int {
	return frequency(normalizedName, c.ingredientSets)
}

func frequency(name string, sets []map[string]bool) *int {
	if len(sets) == 0 {
		return nil
	}
	matches := 0
	for _, set := range sets {
		if set[name] {
			matches++
		}
	}
	pct := int(math.Round(float64(matches) / float64(len(sets)) * 100))
	return &pct
}
