// Package models defines the core domain entities for the triggerlens
// application: logged meals, reaction events, and the derived trigger-analysis
// structures. All models include built-in validation to ensure data integrity
// throughout the application.
//
// MealRecord and ReactionEvent are immutable historical facts once logged; the
// analysis engine only ever reads them. TriggerAnalysis and PatternReport are
// derived values, recomputed from scratch whenever the underlying history
// changes.
package models

import (
	"errors"
	"fmt"
	"time"
)

// MealType tags when a meal was eaten.
type MealType string

const (
	Breakfast MealType = "breakfast"
	Lunch     MealType = "lunch"
	Dinner    MealType = "dinner"
	Snack     MealType = "snack"
)

// MealRecord represents a single logged meal. Ingredients keep their logged
// order; normalization and deduplication happen inside the analysis engine,
// never on the stored record.
type MealRecord struct {
	ID          string    `json:"id"`
	FoodName    string    `json:"food_name"`
	Brand       string    `json:"brand,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
	Ingredients []string  `json:"ingredients"`
	MealType    MealType  `json:"meal_type"`
}

// Validate checks that all meal fields are valid.
func (m *MealRecord) Validate() error {
	if m.ID == "" {
		return errors.New("meal ID must not be empty")
	}
	if m.FoodName == "" {
		return errors.New("meal food name must not be empty")
	}
	if m.Timestamp.IsZero() {
		return errors.New("meal timestamp must not be zero")
	}
	switch m.MealType {
	case Breakfast, Lunch, Dinner, Snack:
	default:
		return fmt.Errorf("meal type must be one of breakfast, lunch, dinner, snack; got %q", m.MealType)
	}
	return nil
}
