package models

import (
	"errors"
	"fmt"
	"time"
)

// Severity grades how serious a reaction was.
type Severity string

const (
	Mild     Severity = "mild"
	Moderate Severity = "moderate"
	Severe   Severity = "severe"
)

// ReactionEvent represents one logged allergy/intolerance reaction.
// ReactionType is free text as entered by the user ("hives", "nausea");
// grouping by type in pattern analysis is case-insensitive but otherwise
// verbatim. Analysis is nil until the engine has processed the reaction.
type ReactionEvent struct {
	ID           string           `json:"id"`
	ReactionType string           `json:"reaction_type"`
	Timestamp    time.Time        `json:"timestamp"`
	Severity     Severity         `json:"severity"`
	Notes        string           `json:"notes,omitempty"`
	Analysis     *TriggerAnalysis `json:"analysis,omitempty"`
}

// Validate checks that all reaction fields are valid.
func (r *ReactionEvent) Validate() error {
	if r.ID == "" {
		return errors.New("reaction ID must not be empty")
	}
	if r.ReactionType == "" {
		return errors.New("reaction type must not be empty")
	}
	if r.Timestamp.IsZero() {
		return errors.New("reaction timestamp must not be zero")
	}
	switch r.Severity {
	case Mild, Moderate, Severe:
	default:
		return fmt.Errorf("severity must be one of mild, moderate, severe; got %q", r.Severity)
	}
	return nil
}

// Analyzed reports whether the reaction already carries a completed analysis.
func (r *ReactionEvent) Analyzed() bool {
	return r.Analysis != nil
}
