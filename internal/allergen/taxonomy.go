package allergen

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Taxonomy is the keyword table that drives classification. Keywords are
// stored lower-cased; matching is substring containment against a normalized
// ingredient name. The table is versioned so that report output can record
// which synonym set produced a classification.
type Taxonomy struct {
	Version  string
	keywords map[Category][]string
}

// defaultVersion identifies the built-in keyword set.
const defaultVersion = "2025.2"

// builtinKeywords is the built-in synonym set, aligned with the EU FIC
// labelling groups. "butter" is deliberately absent from the milk list:
// milk is the highest-priority category, and a bare "butter" keyword would
// capture nut butters ("peanut butter") before the nut categories are tried.
var builtinKeywords = map[Category][]string{
	Milk: {
		"milk", "cheese", "cheddar", "mozzarella", "parmesan", "brie",
		"cream", "yogurt", "yoghurt", "whey", "casein", "lactose",
		"buttermilk", "ghee", "custard", "dairy", "kefir",
	},
	Eggs: {
		"egg", "albumen", "albumin", "mayonnaise", "meringue", "ovalbumin",
	},
	Peanuts: {
		"peanut", "groundnut", "monkey nut", "arachis",
	},
	TreeNuts: {
		"almond", "hazelnut", "walnut", "cashew", "pecan", "pistachio",
		"macadamia", "brazil nut", "chestnut", "praline", "marzipan",
		"nougat",
	},
	Gluten: {
		"wheat", "gluten", "bread", "flour", "barley", "rye", "oat",
		"pasta", "noodle", "cracker", "couscous", "semolina", "spelt",
		"malt", "cereal", "crouton", "bran",
	},
	Soya: {
		"soy", "soya", "tofu", "edamame", "tempeh", "miso",
	},
	Fish: {
		"fish", "salmon", "tuna", "cod", "haddock", "anchovy", "sardine",
		"mackerel", "trout", "halibut", "pollock", "sea bass",
	},
	Shellfish: {
		"shellfish", "shrimp", "prawn", "crab", "lobster", "crayfish",
		"langoustine", "scallop", "oyster", "mussel", "clam", "squid",
		"octopus", "calamari",
	},
	Sesame: {
		"sesame", "tahini",
	},
	Celery: {
		"celery", "celeriac",
	},
	Mustard: {
		"mustard",
	},
	Lupin: {
		"lupin", "lupine",
	},
	Sulphites: {
		"sulphite", "sulfite", "sulphur dioxide", "sulfur dioxide",
		"metabisulphite", "metabisulfite",
	},
}

// DefaultTaxonomy returns the built-in keyword table.
func DefaultTaxonomy() *Taxonomy {
	return &Taxonomy{
		Version:  defaultVersion,
		keywords: builtinKeywords,
	}
}

// LoadTaxonomy reads a keyword table from a YAML file. The file must carry a
// version string and a keyword list for every recognized category:
//
//	version: "2026.1"
//	categories:
//	  "Milk & Dairy": [milk, cheese, whey]
//	  ...
//
// A category missing from the file is an error rather than an implicit fall
// back to the built-in list, so an override file always states the complete
// synonym set it was reviewed against.
func LoadTaxonomy(path string) (*Taxonomy, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read taxonomy file: %w", err)
	}

	version := v.GetString("version")
	if version == "" {
		return nil, fmt.Errorf("taxonomy file %s is missing a version", path)
	}

	raw := v.GetStringMapStringSlice("categories")
	keywords := make(map[Category][]string, len(priorityOrder))
	for name, words := range raw {
		cat := matchCategoryName(name)
		if cat == "" {
			return nil, fmt.Errorf("taxonomy file %s names unknown category %q", path, name)
		}
		if len(words) == 0 {
			return nil, fmt.Errorf("taxonomy file %s has no keywords for %q", path, name)
		}
		normalized := make([]string, 0, len(words))
		for _, w := range words {
			w = strings.ToLower(strings.TrimSpace(w))
			if w != "" {
				normalized = append(normalized, w)
			}
		}
		if len(normalized) == 0 {
			return nil, fmt.Errorf("taxonomy file %s has no usable keywords for %q", path, name)
		}
		keywords[cat] = normalized
	}

	for _, cat := range priorityOrder {
		if _, ok := keywords[cat]; !ok {
			return nil, fmt.Errorf("taxonomy file %s is missing category %q", path, cat)
		}
	}

	return &Taxonomy{Version: version, keywords: keywords}, nil
}

// matchCategoryName resolves a category name from a taxonomy file. Viper
// lower-cases map keys, so the comparison is case-insensitive.
func matchCategoryName(name string) Category {
	for _, cat := range priorityOrder {
		if strings.EqualFold(string(cat), name) {
			return cat
		}
	}
	return ""
}

// Keywords returns the keyword list for a category.
func (t *Taxonomy) Keywords(c Category) []string {
	return t.keywords[c]
}
