// Package storage persists meal records, reaction events, and completed
// trigger analyses in SQLite. It is the boundary between the pure analysis
// engine and durable history: the engine only ever sees in-memory snapshots
// fetched from here.
//
// Timestamps are stored as RFC 3339 strings in UTC so that round-tripping a
// record through the database never shifts it across time zones.
package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/triggerlens/triggerlens/internal/allergen"
	"github.com/triggerlens/triggerlens/internal/models"
)

// Storage provides SQLite-backed persistence for the trigger engine's inputs
// and outputs. Use ":memory:" as the path for an ephemeral database in tests.
type Storage struct {
	db *sql.DB
}

// New opens (or creates) the database at dbPath and ensures the schema exists.
func New(dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Storage{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS meals (
        id TEXT PRIMARY KEY,
        food_name TEXT NOT NULL,
        brand TEXT NOT NULL DEFAULT '',
        meal_type TEXT NOT NULL,
        timestamp TEXT NOT NULL
    );

    CREATE TABLE IF NOT EXISTS meal_ingredients (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        meal_id TEXT NOT NULL,
        position INTEGER NOT NULL,
        name TEXT NOT NULL,
        FOREIGN KEY (meal_id) REFERENCES meals(id) ON DELETE CASCADE
    );

    CREATE TABLE IF NOT EXISTS reactions (
        id TEXT PRIMARY KEY,
        reaction_type TEXT NOT NULL,
        severity TEXT NOT NULL,
        timestamp TEXT NOT NULL,
        notes TEXT NOT NULL DEFAULT ''
    );

    CREATE TABLE IF NOT EXISTS analyses (
        id TEXT PRIMARY KEY,
        reaction_id TEXT NOT NULL UNIQUE,
        window_start TEXT NOT NULL,
        window_end TEXT NOT NULL,
        meal_count INTEGER NOT NULL,
        distinct_foods INTEGER NOT NULL,
        created_at TEXT NOT NULL,
        FOREIGN KEY (reaction_id) REFERENCES reactions(id) ON DELETE CASCADE
    );

    CREATE TABLE IF NOT EXISTS analysis_foods (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        analysis_id TEXT NOT NULL,
        rank INTEGER NOT NULL,
        food_name TEXT NOT NULL,
        occurrences INTEGER NOT NULL,
        occurrences_within_24h INTEGER NOT NULL,
        cross_reaction_frequency INTEGER,
        FOREIGN KEY (analysis_id) REFERENCES analyses(id) ON DELETE CASCADE
    );

    CREATE TABLE IF NOT EXISTS analysis_ingredients (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        analysis_id TEXT NOT NULL,
        rank INTEGER NOT NULL,
        name TEXT NOT NULL,
        occurrences INTEGER NOT NULL,
        occurrences_within_24h INTEGER NOT NULL,
        cross_reaction_frequency INTEGER,
        category TEXT NOT NULL DEFAULT '',
        FOREIGN KEY (analysis_id) REFERENCES analyses(id) ON DELETE CASCADE
    );

    CREATE INDEX IF NOT EXISTS idx_meals_timestamp ON meals(timestamp);
    CREATE INDEX IF NOT EXISTS idx_meal_ingredients_meal_id ON meal_ingredients(meal_id);
    CREATE INDEX IF NOT EXISTS idx_reactions_timestamp ON reactions(timestamp);
    CREATE INDEX IF NOT EXISTS idx_analysis_foods_analysis_id ON analysis_foods(analysis_id);
    CREATE INDEX IF NOT EXISTS idx_analysis_ingredients_analysis_id ON analysis_ingredients(analysis_id);
    `

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// timeLayout pads fractional seconds to nine digits so stored strings sort
// lexicographically in timestamp order. RFC3339Nano drops trailing zeros,
// and "...18:00:00Z" would sort after "...18:00:00.5Z" ('Z' > '.'), breaking
// the string comparisons in MealsInRange.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// SaveMeal persists a meal record and its ingredient list in one transaction.
func (s *Storage) SaveMeal(meal *models.MealRecord) error {
	if err := meal.Validate(); err != nil {
		return fmt.Errorf("invalid meal: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO meals (id, food_name, brand, meal_type, timestamp) VALUES (?, ?, ?, ?, ?)`,
		meal.ID, meal.FoodName, meal.Brand, string(meal.MealType), formatTime(meal.Timestamp),
	)
	if err != nil {
		return fmt.Errorf("failed to insert meal: %w", err)
	}

	for i, ingredient := range meal.Ingredients {
		_, err = tx.Exec(
			`INSERT INTO meal_ingredients (meal_id, position, name) VALUES (?, ?, ?)`,
			meal.ID, i, ingredient,
		)
		if err != nil {
			return fmt.Errorf("failed to insert ingredient: %w", err)
		}
	}

	return tx.Commit()
}

// MealsInRange returns all meals with a timestamp in [from, to], oldest
// first. The engine enforces its own ordering logic, so the sort here is
// only for readable output.
func (s *Storage) MealsInRange(from, to time.Time) ([]models.MealRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, food_name, brand, meal_type, timestamp
         FROM meals
         WHERE timestamp >= ? AND timestamp <= ?
         ORDER BY timestamp ASC`,
		formatTime(from), formatTime(to),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query meals: %w", err)
	}
	defer rows.Close()

	var meals []models.MealRecord
	for rows.Next() {
		var meal models.MealRecord
		var mealType, timestamp string
		if err := rows.Scan(&meal.ID, &meal.FoodName, &meal.Brand, &mealType, &timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan meal: %w", err)
		}
		meal.MealType = models.MealType(mealType)
		if meal.Timestamp, err = parseTime(timestamp); err != nil {
			return nil, fmt.Errorf("failed to parse meal timestamp: %w", err)
		}
		meals = append(meals, meal)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate meals: %w", err)
	}

	for i := range meals {
		if err := s.loadIngredients(&meals[i]); err != nil {
			return nil, fmt.Errorf("failed to load ingredients for meal %s: %w", meals[i].ID, err)
		}
	}
	return meals, nil
}

func (s *Storage) loadIngredients(meal *models.MealRecord) error {
	rows, err := s.db.Query(
		`SELECT name FROM meal_ingredients WHERE meal_id = ? ORDER BY position`,
		meal.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to query ingredients: %w", err)
	}
	defer rows.Close()

	var ingredients []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("failed to scan ingredient: %w", err)
		}
		ingredients = append(ingredients, name)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate ingredients: %w", err)
	}

	meal.Ingredients = ingredients
	return nil
}

// SaveReaction persists a reaction event. Any analysis attached to the event
// is ignored; analyses are stored separately via SaveAnalysis once computed.
func (s *Storage) SaveReaction(reaction *models.ReactionEvent) error {
	if err := reaction.Validate(); err != nil {
		return fmt.Errorf("invalid reaction: %w", err)
	}

	_, err := s.db.Exec(
		`INSERT INTO reactions (id, reaction_type, severity, timestamp, notes) VALUES (?, ?, ?, ?, ?)`,
		reaction.ID, reaction.ReactionType, string(reaction.Severity), formatTime(reaction.Timestamp), reaction.Notes,
	)
	if err != nil {
		return fmt.Errorf("failed to insert reaction: %w", err)
	}
	return nil
}

// Reactions returns every reaction, newest first, each carrying its stored
// analysis when one exists.
func (s *Storage) Reactions() ([]models.ReactionEvent, error) {
	rows, err := s.db.Query(
		`SELECT id, reaction_type, severity, timestamp, notes FROM reactions ORDER BY timestamp DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query reactions: %w", err)
	}
	defer rows.Close()

	var reactions []models.ReactionEvent
	for rows.Next() {
		var reaction models.ReactionEvent
		var severity, timestamp string
		if err := rows.Scan(&reaction.ID, &reaction.ReactionType, &severity, &timestamp, &reaction.Notes); err != nil {
			return nil, fmt.Errorf("failed to scan reaction: %w", err)
		}
		reaction.Severity = models.Severity(severity)
		if reaction.Timestamp, err = parseTime(timestamp); err != nil {
			return nil, fmt.Errorf("failed to parse reaction timestamp: %w", err)
		}
		reactions = append(reactions, reaction)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reactions: %w", err)
	}

	for i := range reactions {
		analysis, err := s.AnalysisForReaction(reactions[i].ID)
		if err != nil {
			return nil, err
		}
		reactions[i].Analysis = analysis
	}
	return reactions, nil
}

// UnanalyzedReactions returns reactions that do not yet carry a stored
// analysis, oldest first so the longest-waiting reaction is processed first.
func (s *Storage) UnanalyzedReactions() ([]models.ReactionEvent, error) {
	rows, err := s.db.Query(
		`SELECT r.id, r.reaction_type, r.severity, r.timestamp, r.notes
         FROM reactions r
         LEFT JOIN analyses a ON a.reaction_id = r.id
         WHERE a.id IS NULL
         ORDER BY r.timestamp ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query unanalyzed reactions: %w", err)
	}
	defer rows.Close()

	var reactions []models.ReactionEvent
	for rows.Next() {
		var reaction models.ReactionEvent
		var severity, timestamp string
		if err := rows.Scan(&reaction.ID, &reaction.ReactionType, &severity, &timestamp, &reaction.Notes); err != nil {
			return nil, fmt.Errorf("failed to scan reaction: %w", err)
		}
		reaction.Severity = models.Severity(severity)
		if reaction.Timestamp, err = parseTime(timestamp); err != nil {
			return nil, fmt.Errorf("failed to parse reaction timestamp: %w", err)
		}
		reactions = append(reactions, reaction)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reactions: %w", err)
	}
	return reactions, nil
}

// SaveAnalysis persists a completed analysis for a reaction, replacing any
// previous one: analyses are recomputed wholesale, never patched.
func (s *Storage) SaveAnalysis(reactionID string, analysis *models.TriggerAnalysis) error {
	if reactionID == "" {
		return fmt.Errorf("reaction ID must not be empty")
	}
	if analysis == nil {
		return fmt.Errorf("analysis must not be nil")
	}
	if err := analysis.Validate(); err != nil {
		return fmt.Errorf("invalid analysis: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	// Clear child rows explicitly: SQLite only honors ON DELETE CASCADE when
	// the foreign_keys pragma is enabled, which is off by default.
	if _, err := tx.Exec(
		`DELETE FROM analysis_foods WHERE analysis_id IN (SELECT id FROM analyses WHERE reaction_id = ?)`,
		reactionID,
	); err != nil {
		return fmt.Errorf("failed to clear previous food scores: %w", err)
	}
	if _, err := tx.Exec(
		`DELETE FROM analysis_ingredients WHERE analysis_id IN (SELECT id FROM analyses WHERE reaction_id = ?)`,
		reactionID,
	); err != nil {
		return fmt.Errorf("failed to clear previous ingredient scores: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM analyses WHERE reaction_id = ?`, reactionID); err != nil {
		return fmt.Errorf("failed to clear previous analysis: %w", err)
	}

	analysisID := uuid.New().String()
	_, err = tx.Exec(
		`INSERT INTO analyses (id, reaction_id, window_start, window_end, meal_count, distinct_foods, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		analysisID, reactionID,
		formatTime(analysis.WindowStart), formatTime(analysis.WindowEnd),
		analysis.MealCount, analysis.DistinctFoods, formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("failed to insert analysis: %w", err)
	}

	for i, score := range analysis.TopFoods {
		_, err = tx.Exec(
			`INSERT INTO analysis_foods (analysis_id, rank, food_name, occurrences, occurrences_within_24h, cross_reaction_frequency)
             VALUES (?, ?, ?, ?, ?, ?)`,
			analysisID, i, score.FoodName, score.Occurrences, score.OccurrencesWithin24h, nullableInt(score.CrossReactionFrequency),
		)
		if err != nil {
			return fmt.Errorf("failed to insert food score: %w", err)
		}
	}

	for i, score := range analysis.TopIngredients {
		_, err = tx.Exec(
			`INSERT INTO analysis_ingredients (analysis_id, rank, name, occurrences, occurrences_within_24h, cross_reaction_frequency, category)
             VALUES (?, ?, ?, ?, ?, ?, ?)`,
			analysisID, i, score.Name, score.Occurrences, score.OccurrencesWithin24h, nullableInt(score.CrossReactionFrequency), string(score.Category),
		)
		if err != nil {
			return fmt.Errorf("failed to insert ingredient score: %w", err)
		}
	}

	return tx.Commit()
}

// AnalysisForReaction returns the stored analysis for a reaction, or nil when
// none exists.
func (s *Storage) AnalysisForReaction(reactionID string) (*models.TriggerAnalysis, error) {
	row := s.db.QueryRow(
		`SELECT id, window_start, window_end, meal_count, distinct_foods
         FROM analyses WHERE reaction_id = ?`,
		reactionID,
	)

	var analysisID, windowStart, windowEnd string
	analysis := &models.TriggerAnalysis{}
	err := row.Scan(&analysisID, &windowStart, &windowEnd, &analysis.MealCount, &analysis.DistinctFoods)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan analysis: %w", err)
	}
	if analysis.WindowStart, err = parseTime(windowStart); err != nil {
		return nil, fmt.Errorf("failed to parse window start: %w", err)
	}
	if analysis.WindowEnd, err = parseTime(windowEnd); err != nil {
		return nil, fmt.Errorf("failed to parse window end: %w", err)
	}

	foodRows, err := s.db.Query(
		`SELECT food_name, occurrences, occurrences_within_24h, cross_reaction_frequency
         FROM analysis_foods WHERE analysis_id = ? ORDER BY rank`,
		analysisID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query food scores: %w", err)
	}
	defer foodRows.Close()

	for foodRows.Next() {
		var score models.WeightedFoodScore
		var freq sql.NullInt64
		if err := foodRows.Scan(&score.FoodName, &score.Occurrences, &score.OccurrencesWithin24h, &freq); err != nil {
			return nil, fmt.Errorf("failed to scan food score: %w", err)
		}
		score.CrossReactionFrequency = intPointer(freq)
		analysis.TopFoods = append(analysis.TopFoods, score)
	}
	if err := foodRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate food scores: %w", err)
	}

	ingredientRows, err := s.db.Query(
		`SELECT name, occurrences, occurrences_within_24h, cross_reaction_frequency, category
         FROM analysis_ingredients WHERE analysis_id = ? ORDER BY rank`,
		analysisID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query ingredient scores: %w", err)
	}
	defer ingredientRows.Close()

	for ingredientRows.Next() {
		var score models.WeightedIngredientScore
		var freq sql.NullInt64
		var category string
		if err := ingredientRows.Scan(&score.Name, &score.Occurrences, &score.OccurrencesWithin24h, &freq, &category); err != nil {
			return nil, fmt.Errorf("failed to scan ingredient score: %w", err)
		}
		score.CrossReactionFrequency = intPointer(freq)
		score.Category = allergen.Category(category)
		analysis.TopIngredients = append(analysis.TopIngredients, score)
	}
	if err := ingredientRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ingredient scores: %w", err)
	}

	return analysis, nil
}

func nullableInt(p *int) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func intPointer(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}
