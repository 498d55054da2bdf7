// triggerctl is the operator CLI for triggerlens: it logs meals and
// reactions into the shared database and prints stored analyses. The daemon
// picks up newly logged reactions on its next cycle.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/triggerlens/triggerlens/internal/config"
	"github.com/triggerlens/triggerlens/internal/models"
	"github.com/triggerlens/triggerlens/internal/openfoodfacts"
	"github.com/triggerlens/triggerlens/internal/storage"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "log-meal":
		err = logMeal(os.Args[2:])
	case "log-reaction":
		err = logReaction(os.Args[2:])
	case "report":
		err = printReport(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: triggerctl <command> [flags]

Commands:
  log-meal      log a meal (optionally pre-filling ingredients by barcode)
  log-reaction  log an allergy/intolerance reaction
  report        print the stored trigger analysis for a reaction`)
}

func openStore(configPath string) (*storage.Storage, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return storage.New(cfg.Storage.DBPath)
}

func logMeal(args []string) error {
	fs := flag.NewFlagSet("log-meal", flag.ExitOnError)
	configPath := fs.String("config", "configs/config.yaml", "Path to configuration file")
	name := fs.String("name", "", "Food name (required unless -barcode resolves one)")
	brand := fs.String("brand", "", "Brand name")
	mealType := fs.String("type", "snack", "Meal type: breakfast, lunch, dinner, snack")
	when := fs.String("when", "", "Meal time, RFC 3339 (default: now)")
	ingredients := fs.String("ingredients", "", "Comma-separated ingredient list")
	barcode := fs.String("barcode", "", "Product barcode to look up on Open Food Facts")
	fs.Parse(args)

	meal := models.MealRecord{
		ID:        uuid.New().String(),
		FoodName:  *name,
		Brand:     *brand,
		MealType:  models.MealType(*mealType),
		Timestamp: time.Now(),
	}

	if *when != "" {
		t, err := time.Parse(time.RFC3339, *when)
		if err != nil {
			return fmt.Errorf("invalid -when value: %w", err)
		}
		meal.Timestamp = t
	}

	for _, part := range strings.Split(*ingredients, ",") {
		if ingredient := strings.TrimSpace(part); ingredient != "" {
			meal.Ingredients = append(meal.Ingredients, ingredient)
		}
	}

	if *barcode != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		client := openfoodfacts.NewClient("", 10*time.Second)
		product, err := client.FetchProduct(ctx, *barcode)
		if err != nil {
			return fmt.Errorf("barcode lookup failed: %w", err)
		}
		if meal.FoodName == "" {
			meal.FoodName = product.Name
		}
		if meal.Brand == "" {
			meal.Brand = product.Brand
		}
		if len(meal.Ingredients) == 0 {
			meal.Ingredients = product.Ingredients
		}
		fmt.Printf("Resolved barcode %s: %s (%d ingredients)\n", *barcode, product.Name, len(product.Ingredients))
	}

	store, err := openStore(*configPath)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.SaveMeal(&meal); err != nil {
		return err
	}
	fmt.Printf("Logged meal %s: %s at %s\n", meal.ID, meal.FoodName, meal.Timestamp.Format(time.RFC3339))
	return nil
}

func logReaction(args []string) error {
	fs := flag.NewFlagSet("log-reaction", flag.ExitOnError)
	configPath := fs.String("config", "configs/config.yaml", "Path to configuration file")
	reactionType := fs.String("type", "", "Reaction type, e.g. hives, nausea (required)")
	severity := fs.String("severity", "mild", "Severity: mild, moderate, severe")
	when := fs.String("when", "", "Reaction time, RFC 3339 (default: now)")
	notes := fs.String("notes", "", "Free-text notes")
	fs.Parse(args)

	reaction := models.ReactionEvent{
		ID:           uuid.New().String(),
		ReactionType: *reactionType,
		Severity:     models.Severity(*severity),
		Timestamp:    time.Now(),
		Notes:        *notes,
	}

	if *when != "" {
		t, err := time.Parse(time.RFC3339, *when)
		if err != nil {
			return fmt.Errorf("invalid -when value: %w", err)
		}
		reaction.Timestamp = t
	}

	store, err := openStore(*configPath)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.SaveReaction(&reaction); err != nil {
		return err
	}
	fmt.Printf("Logged reaction %s: %s (%s) at %s\n",
		reaction.ID, reaction.ReactionType, reaction.Severity, reaction.Timestamp.Format(time.RFC3339))
	fmt.Println("The daemon will analyze it on its next cycle.")
	return nil
}

func printReport(args []string) error {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	configPath := fs.String("config", "configs/config.yaml", "Path to configuration file")
	reactionID := fs.String("reaction", "", "Reaction ID (required)")
	fs.Parse(args)

	if *reactionID == "" {
		return fmt.Errorf("-reaction is required")
	}

	store, err := openStore(*configPath)
	if err != nil {
		return err
	}
	defer store.Close()

	analysis, err := store.AnalysisForReaction(*reactionID)
	if err != nil {
		return err
	}
	if analysis == nil {
		fmt.Printf("Reaction %s has no stored analysis yet.\n", *reactionID)
		return nil
	}

	fmt.Printf("Trigger analysis for reaction %s\n", *reactionID)
	fmt.Printf("Window: %s — %s (%d meals, %d distinct foods)\n\n",
		analysis.WindowStart.Format(time.RFC3339), analysis.WindowEnd.Format(time.RFC3339),
		analysis.MealCount, analysis.DistinctFoods)

	fmt.Println("Suspect foods:")
	for i, score := range analysis.TopFoods {
		fmt.Printf("  %2d. %-30s eaten %d time(s), %d within 24h, cross-reaction: %s\n",
			i+1, score.FoodName, score.Occurrences, score.OccurrencesWithin24h,
			frequencyLabel(score.CrossReactionFrequency))
	}

	fmt.Println("\nSuspect ingredients:")
	for i, score := range analysis.TopIngredients {
		category := ""
		if score.Category != "" {
			category = fmt.Sprintf(" [%s]", score.Category)
		}
		fmt.Printf("  %2d. %-30s eaten %d time(s), cross-reaction: %s%s\n",
			i+1, score.Name, score.Occurrences,
			frequencyLabel(score.CrossReactionFrequency), category)
	}

	fmt.Println("\nFor nutritional review only — not medical advice.")
	return nil
}

// frequencyLabel keeps "no cross-reaction data yet" visually distinct from a
// genuine 0%.
func frequencyLabel(freq *int) string {
	if freq == nil {
		return "no data"
	}
	return fmt.Sprintf("%d%%", *freq)
}
