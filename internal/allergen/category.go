// Package allergen classifies free-text ingredient names into a fixed set of
// recognized allergen categories via keyword matching.
//
// Categories are checked in a fixed priority order and the first category
// whose keyword list matches wins, so a given ingredient is never
// multiply-classified and classification is fully deterministic. The keyword
// lists live in a versioned taxonomy table (see taxonomy.go) rather than
// inline literals, because new ingredient synonyms are the main source of
// drift over time.
package allergen

// Category identifies one recognized allergen group. The empty string means
// the ingredient did not match any category.
type Category string

const (
	Milk      Category = "Milk & Dairy"
	Eggs      Category = "Eggs"
	Peanuts   Category = "Peanuts"
	TreeNuts  Category = "Tree Nuts"
	Gluten    Category = "Gluten & Grains"
	Soya      Category = "Soya"
	Fish      Category = "Fish"
	Shellfish Category = "Shellfish"
	Sesame    Category = "Sesame"
	Celery    Category = "Celery"
	Mustard   Category = "Mustard"
	Lupin     Category = "Lupin"
	Sulphites Category = "Sulphites"
)

// priorityOrder is the fixed order in which categories are tested. Earlier
// entries shadow later ones when an ingredient contains keywords from more
// than one category.
var priorityOrder = []Category{
	Milk,
	Eggs,
	Peanuts,
	TreeNuts,
	Gluten,
	Soya,
	Fish,
	Shellfish,
	Sesame,
	Celery,
	Mustard,
	Lupin,
	Sulphites,
}

// Categories returns all recognized categories in priority order.
func Categories() []Category {
	out := make([]Category, len(priorityOrder))
	copy(out, priorityOrder)
	return out
}

// Valid reports whether c is one of the recognized categories.
func (c Category) Valid() bool {
	for _, known := range priorityOrder {
		if c == known {
			return true
		}
	}
	return false
}
