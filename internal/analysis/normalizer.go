// Package analysis implements the trigger-analysis engine: given a reaction
// event and the meals eaten in the window preceding it, it produces weighted
// suspicion scores per food and per normalized ingredient, classifies
// ingredients into recognized allergen categories, and measures how often
// each candidate recurs across the user's other analyzed reactions.
//
// Every computation here is a pure function over an immutable snapshot of
// inputs: no shared mutable state, no randomness, no dependence on the wall
// clock beyond the reaction's own timestamp. Running the engine twice on the
// same snapshot yields an identical result, and independent analyses can run
// in parallel without coordination.
package analysis

import "strings"

// Normalize produces the canonical key for a food or ingredient name:
// trimmed and lower-cased. Two names that normalize identically are treated
// as the same substance and merged into a single score entry.
//
// Lower-casing uses Go's locale-independent simple case mapping, so the key
// for a given input never varies by environment.
func Normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
