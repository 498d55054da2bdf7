package analysis

import (
	"fmt"
	"time"

	"github.com/triggerlens/triggerlens/internal/allergen"
	"github.com/triggerlens/triggerlens/internal/models"
)

// DefaultWindow is the meal-history window considered when scoring candidates
// for one reaction.
const DefaultWindow = 7 * 24 * time.Hour

// recencyWindow is the sub-window for the within-24h counters.
const recencyWindow = 24 * time.Hour

// Options configures an Engine.
type Options struct {
	// Window is the meal-history span preceding a reaction that is scored.
	// Zero means DefaultWindow.
	Window time.Duration

	// MaxCandidates caps the length of the ranked food and ingredient lists.
	// Zero means unlimited.
	MaxCandidates int
}

// Engine computes trigger analyses. It holds only immutable configuration
// (the allergen classifier and the window bounds), so a single Engine can
// serve any number of concurrent analyses.
type Engine struct {
	classifier    *allergen.Classifier
	window        time.Duration
	maxCandidates int
}

// New creates an Engine with the given classifier and options. A nil
// classifier uses the built-in taxonomy.
func New(classifier *allergen.Classifier, opts Options) *Engine {
	if classifier == nil {
		classifier = allergen.NewClassifier(nil)
	}
	window := opts.Window
	if window <= 0 {
		window = DefaultWindow
	}
	return &Engine{
		classifier:    classifier,
		window:        window,
		maxCandidates: opts.MaxCandidates,
	}
}

// Window returns the configured meal-history window.
func (e *Engine) Window() time.Duration {
	return e.window
}

// Analyze scores the meals eaten in the window preceding the reaction and
// returns the completed TriggerAnalysis.
//
// Meals timestamped strictly after the reaction are excluded: a reaction
// cannot be caused by food eaten afterward, and upstream data-entry errors of
// that shape are expected, so they are filtered silently rather than raised.
// An empty meal window yields an empty analysis, not an error.
//
// others supplies the user's remaining reaction history for cross-reaction
// frequencies. Only reactions that already carry their own completed analysis
// participate; when no such reaction exists every frequency is left nil
// ("no data"), which callers must keep distinct from a real 0%.
func (e *Engine) Analyze(reaction *models.ReactionEvent, meals []models.MealRecord, others []models.ReactionEvent) (*models.TriggerAnalysis, error) {
	if reaction == nil {
		return nil, fmt.Errorf("analyze: reaction must not be nil")
	}
	if err := reaction.Validate(); err != nil {
		return nil, fmt.Errorf("analyze: invalid reaction: %w", err)
	}

	windowStart := reaction.Timestamp.Add(-e.window)

	foods := newAccumulator()
	ingredients := newAccumulator()
	mealCount := 0

	for i := range meals {
		meal := &meals[i]
		if meal.Timestamp.After(reaction.Timestamp) {
			continue
		}
		if meal.Timestamp.Before(windowStart) {
			continue
		}
		mealCount++

		// An ingredient inherits the timing of its containing meal.
		within24h := reaction.Timestamp.Sub(meal.Timestamp) <= recencyWindow

		foods.record(Normalize(meal.FoodName), meal.FoodName, within24h)
		for _, raw := range meal.Ingredients {
			key := Normalize(raw)
			if key == "" {
				continue
			}
			ingredients.record(key, key, within24h)
		}
	}

	ctx := newCrossReactionContext(reaction.ID, others)

	rankedFoods := foods.ranked()
	rankedIngredients := ingredients.ranked()
	if e.maxCandidates > 0 {
		if len(rankedFoods) > e.maxCandidates {
			rankedFoods = rankedFoods[:e.maxCandidates]
		}
		if len(rankedIngredients) > e.maxCandidates {
			rankedIngredients = rankedIngredients[:e.maxCandidates]
		}
	}

	topFoods := make([]models.WeightedFoodScore, 0, len(rankedFoods))
	for _, entry := range rankedFoods {
		topFoods = append(topFoods, models.WeightedFoodScore{
			FoodName:               entry.display,
			Occurrences:            entry.count,
			OccurrencesWithin24h:   entry.within24h,
			CrossReactionFrequency: ctx.foodFrequency(entry.key),
		})
	}

	topIngredients := make([]models.WeightedIngredientScore, 0, len(rankedIngredients))
	for _, entry := range rankedIngredients {
		topIngredients = append(topIngredients, models.WeightedIngredientScore{
			Name:                   entry.key,
			Occurrences:            entry.count,
			OccurrencesWithin24h:   entry.within24h,
			CrossReactionFrequency: ctx.ingredientFrequency(entry.key),
			Category:               e.classifier.Classify(entry.key),
		})
	}

	return &models.TriggerAnalysis{
		WindowStart:    windowStart,
		WindowEnd:      reaction.Timestamp,
		MealCount:      mealCount,
		DistinctFoods:  len(topFoods),
		TopFoods:       topFoods,
		TopIngredients: topIngredients,
	}, nil
}
