package allergen

import "strings"

// Classifier maps normalized ingredient names to allergen categories using a
// taxonomy's keyword lists. It is a plain value constructed once and passed
// to the components that need it; it holds no mutable state and is safe for
// concurrent use.
type Classifier struct {
	taxonomy *Taxonomy
}

// NewClassifier creates a classifier over the given taxonomy. A nil taxonomy
// uses the built-in keyword table.
func NewClassifier(taxonomy *Taxonomy) *Classifier {
	if taxonomy == nil {
		taxonomy = DefaultTaxonomy()
	}
	return &Classifier{taxonomy: taxonomy}
}

// Classify returns the first category (in priority order) whose keyword list
// matches the ingredient, or the empty category when nothing matches.
//
// Matching is substring containment on the lower-cased ingredient name, so
// compound words over-match ("buttermilk-free cracker" contains
// "buttermilk" and classifies as milk).
func (c *Classifier) Classify(ingredient string) Category {
	name := strings.ToLower(strings.TrimSpace(ingredient))
	if name == "" {
		return ""
	}

	for _, cat := range priorityOrder {
		for _, keyword := range c.taxonomy.Keywords(cat) {
			if strings.Contains(name, keyword) {
				return cat
			}
		}
	}
	return ""
}

// TaxonomyVersion returns the version of the keyword table in use.
func (c *Classifier) TaxonomyVersion() string {
	return c.taxonomy.Version
}
