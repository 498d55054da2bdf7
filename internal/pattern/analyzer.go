// Package pattern aggregates a user's recent analyzed reactions to surface
// foods and ingredients that recur across multiple episodes. A recurring
// ingredient across independent reactions is a far stronger signal than a
// high score within any single reaction, so the analyzer applies a hard
// significance threshold: an ingredient seen in only one reaction never
// appears in a report.
package pattern

import (
	"sort"
	"strings"

	"github.com/triggerlens/triggerlens/internal/allergen"
	"github.com/triggerlens/triggerlens/internal/analysis"
	"github.com/triggerlens/triggerlens/internal/models"
)

// DefaultSampleSize is the number of most recent reactions considered.
const DefaultSampleSize = 7

// minReactions is the sample floor: with fewer total reactions a pattern
// report would project false confidence, so none is produced at all.
const minReactions = 3

// significanceThreshold is the minimum number of distinct reactions an
// ingredient must appear in to count as a pattern rather than noise.
const significanceThreshold = 2

// Analyzer computes pattern reports. Like the analysis engine it holds only
// immutable configuration and is safe for concurrent use.
type Analyzer struct {
	classifier *allergen.Classifier
	sampleSize int
}

// New creates an Analyzer. A nil classifier uses the built-in taxonomy; a
// non-positive sampleSize means DefaultSampleSize.
func New(classifier *allergen.Classifier, sampleSize int) *Analyzer {
	if classifier == nil {
		classifier = allergen.NewClassifier(nil)
	}
	if sampleSize <= 0 {
		sampleSize = DefaultSampleSize
	}
	return &Analyzer{classifier: classifier, sampleSize: sampleSize}
}

// Analyze aggregates the last N reactions (by timestamp) and returns a
// report, or nil when fewer than three reactions exist. Reactions without a
// completed analysis still count toward the sample and its floor, but
// contribute no candidates.
func (a *Analyzer) Analyze(reactions []models.ReactionEvent) *models.PatternReport {
	if len(reactions) < minReactions {
		return nil
	}

	sample := make([]models.ReactionEvent, len(reactions))
	copy(sample, reactions)
	sort.Slice(sample, func(i, j int) bool {
		if !sample[i].Timestamp.Equal(sample[j].Timestamp) {
			return sample[i].Timestamp.After(sample[j].Timestamp)
		}
		return sample[i].ID < sample[j].ID
	})
	if len(sample) > a.sampleSize {
		sample = sample[:a.sampleSize]
	}

	report := &models.PatternReport{
		SampleSize:    len(sample),
		ReactionTypes: a.summarizeTypes(sample),
	}

	recognized, other := a.recurringIngredients(sample)
	report.RecognizedAllergens = recognized
	report.OtherIngredients = other
	return report
}

// typeBucket accumulates one reaction type's reactions and candidates.
type typeBucket struct {
	display     string
	count       int
	foods       []string
	ingredients []string
	foodSeen    map[string]bool
	ingSeen     map[string]bool
	firstSeen   int
}

// summarizeTypes groups the sample by reaction type (case-insensitive) and
// collects the union of top candidates for each type, in first-surfaced
// order. Buckets are ordered by reaction count descending, then first-seen.
func (a *Analyzer) summarizeTypes(sample []models.ReactionEvent) []models.ReactionTypeSummary {
	buckets := make(map[string]*typeBucket)
	next := 0

	for i := range sample {
		reaction := &sample[i]
		key := strings.ToLower(strings.TrimSpace(reaction.ReactionType))
		bucket, ok := buckets[key]
		if !ok {
			bucket = &typeBucket{
				display:   reaction.ReactionType,
				foodSeen:  make(map[string]bool),
				ingSeen:   make(map[string]bool),
				firstSeen: next,
			}
			buckets[key] = bucket
			next++
		}
		bucket.count++

		if !reaction.Analyzed() {
			continue
		}
		for _, score := range reaction.Analysis.TopFoods {
			name := analysis.Normalize(score.FoodName)
			if !bucket.foodSeen[name] {
				bucket.foodSeen[name] = true
				bucket.foods = append(bucket.foods, score.FoodName)
			}
		}
		for _, score := range reaction.Analysis.TopIngredients {
			name := analysis.Normalize(score.Name)
			if !bucket.ingSeen[name] {
				bucket.ingSeen[name] = true
				bucket.ingredients = append(bucket.ingredients, name)
			}
		}
	}

	ordered := make([]*typeBucket, 0, len(buckets))
	for _, bucket := range buckets {
		ordered = append(ordered, bucket)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].count != ordered[j].count {
			return ordered[i].count > ordered[j].count
		}
		return ordered[i].firstSeen < ordered[j].firstSeen
	})

	summaries := make([]models.ReactionTypeSummary, 0, len(ordered))
	for _, bucket := range ordered {
		summaries = append(summaries, models.ReactionTypeSummary{
			ReactionType: bucket.display,
			Count:        bucket.count,
			TopFoods:     bucket.foods,
			Ingredients:  bucket.ingredients,
		})
	}
	return summaries
}

// recurringIngredients builds the combined ingredient table across the
// sample, drops entries below the significance threshold, and splits the
// survivors into recognized allergens and other ingredients, each ranked by
// reaction count descending.
func (a *Analyzer) recurringIngredients(sample []models.ReactionEvent) (recognized, other []models.PatternEntry) {
	type tally struct {
		reactions   int
		occurrences int
	}
	counts := make(map[string]*tally)
	var order []string

	for i := range sample {
		reaction := &sample[i]
		if !reaction.Analyzed() {
			continue
		}
		for _, score := range reaction.Analysis.TopIngredients {
			name := analysis.Normalize(score.Name)
			t, ok := counts[name]
			if !ok {
				t = &tally{}
				counts[name] = t
				order = append(order, name)
			}
			t.reactions++
			t.occurrences += score.Occurrences
		}
	}

	for _, name := range order {
		t := counts[name]
		if t.reactions < significanceThreshold {
			continue
		}
		entry := models.PatternEntry{
			Name:          name,
			ReactionCount: t.reactions,
			Occurrences:   t.occurrences,
			Category:      a.classifier.Classify(name),
		}
		if entry.Category != "" {
			recognized = append(recognized, entry)
		} else {
			other = append(other, entry)
		}
	}

	rank := func(entries []models.PatternEntry) {
		sort.Slice(entries, func(i, j int) bool {
			if entries[i].ReactionCount != entries[j].ReactionCount {
				return entries[i].ReactionCount > entries[j].ReactionCount
			}
			if entries[i].Occurrences != entries[j].Occurrences {
				return entries[i].Occurrences > entries[j].Occurrences
			}
			return entries[i].Name < entries[j].Name
		})
	}
	rank(recognized)
	rank(other)
	return recognized, other
}
