package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/triggerlens/triggerlens/internal/allergen"
	"github.com/triggerlens/triggerlens/internal/analysis"
	"github.com/triggerlens/triggerlens/internal/config"
	"github.com/triggerlens/triggerlens/internal/logger"
	"github.com/triggerlens/triggerlens/internal/pattern"
	"github.com/triggerlens/triggerlens/internal/report"
	"github.com/triggerlens/triggerlens/internal/storage"
)

var configPath = flag.String("config", "configs/config.yaml", "Path to configuration file")

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Setup logging with level support
	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Configuration loaded from %s", *configPath)

	// Initialize storage
	store, err := storage.New(cfg.Storage.DBPath)
	if err != nil {
		logger.Fatal("Failed to initialize storage: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close storage: %v", err)
		}
	}()

	// Build the allergen classifier from the configured taxonomy
	taxonomy := allergen.DefaultTaxonomy()
	if cfg.Allergen.TaxonomyPath != "" {
		taxonomy, err = allergen.LoadTaxonomy(cfg.Allergen.TaxonomyPath)
		if err != nil {
			logger.Fatal("Failed to load allergen taxonomy: %v", err)
		}
	}
	classifier := allergen.NewClassifier(taxonomy)
	logger.Info("Allergen taxonomy version %s loaded", classifier.TaxonomyVersion())

	// Initialize the analysis engine and pattern analyzer
	engine := analysis.New(classifier, analysis.Options{
		Window:        cfg.Analysis.Window,
		MaxCandidates: cfg.Analysis.TopK,
	})
	patterns := pattern.New(classifier, cfg.Analysis.PatternSample)

	// Initialize Telegram report client
	var reportClient *report.Client
	if cfg.Telegram.Enabled {
		reportClient, err = report.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.MaxRetries, cfg.Telegram.RetryDelayBase)
		if err != nil {
			logger.Fatal("Failed to initialize Telegram client: %v", err)
		}
		logger.Info("Telegram report delivery enabled")
	} else {
		logger.Debug("Telegram report delivery disabled")
	}

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, cleaning up...")
		cancel()
	}()

	logger.Info("Starting analysis service (poll_interval: %v, window: %v, pattern_sample: %d)",
		cfg.Daemon.PollInterval, engine.Window(), cfg.Analysis.PatternSample)

	ticker := time.NewTicker(cfg.Daemon.PollInterval)
	defer ticker.Stop()

	// Run an initial cycle immediately so a backlog of unanalyzed reactions
	// is processed at startup rather than after the first tick.
	if err := runAnalysisCycle(store, engine, patterns, reportClient); err != nil {
		logger.Error("Analysis cycle failed: %v", err)
	}

	for {
		select {
		case <-ctx.Done():
			logger.Info("Service stopped")
			return

		case <-ticker.C:
			logger.Debug("Starting scheduled analysis cycle")
			if err := runAnalysisCycle(store, engine, patterns, reportClient); err != nil {
				logger.Error("Analysis cycle failed: %v", err)
			}
		}
	}
}

// runAnalysisCycle analyzes every reaction that does not yet carry a stored
// analysis, then refreshes the pattern report when anything new was produced.
// Per-reaction failures are logged and skipped so one bad record cannot stall
// the rest of the backlog.
func runAnalysisCycle(
	store *storage.Storage,
	engine *analysis.Engine,
	patterns *pattern.Analyzer,
	reportClient *report.Client,
) error {
	startTime := time.Now()

	pending, err := store.UnanalyzedReactions()
	if err != nil {
		return fmt.Errorf("failed to fetch unanalyzed reactions: %w", err)
	}
	if len(pending) == 0 {
		logger.Debug("No unanalyzed reactions")
		return nil
	}
	logger.Info("Found %d unanalyzed reactions", len(pending))

	analyzed := 0
	for i := range pending {
		reaction := &pending[i]

		meals, err := store.MealsInRange(reaction.Timestamp.Add(-engine.Window()), reaction.Timestamp)
		if err != nil {
			logger.Warn("Failed to fetch meals for reaction %s: %v", reaction.ID, err)
			continue
		}

		// Cross-reaction context: the user's other reactions, with whatever
		// analyses exist at this point. The engine skips the reaction itself
		// and any reaction without a completed analysis.
		others, err := store.Reactions()
		if err != nil {
			logger.Warn("Failed to fetch reaction history for %s: %v", reaction.ID, err)
			continue
		}

		result, err := engine.Analyze(reaction, meals, others)
		if err != nil {
			logger.Warn("Failed to analyze reaction %s: %v", reaction.ID, err)
			continue
		}

		if err := store.SaveAnalysis(reaction.ID, result); err != nil {
			logger.Warn("Failed to save analysis for reaction %s: %v", reaction.ID, err)
			continue
		}
		analyzed++
		logger.Info("Analyzed reaction %s: %d meals, %d foods, %d ingredients",
			reaction.ID, result.MealCount, len(result.TopFoods), len(result.TopIngredients))

		if reportClient != nil {
			if err := reportClient.SendAnalysis(reaction, result); err != nil {
				logger.Error("Failed to send analysis report for reaction %s: %v", reaction.ID, err)
			}
		}
	}

	if analyzed > 0 {
		reactions, err := store.Reactions()
		if err != nil {
			return fmt.Errorf("failed to fetch reactions for pattern analysis: %w", err)
		}
		if patternReport := patterns.Analyze(reactions); patternReport != nil {
			logger.Info("Pattern report: %d reactions sampled, %d recognized allergens, %d other ingredients",
				patternReport.SampleSize, len(patternReport.RecognizedAllergens), len(patternReport.OtherIngredients))
			if reportClient != nil {
				if err := reportClient.SendPattern(patternReport); err != nil {
					logger.Error("Failed to send pattern report: %v", err)
				}
			}
		} else {
			logger.Debug("Pattern analysis skipped: fewer than 3 reactions logged")
		}
	}

	logger.Info("Analysis cycle completed in %v (%d of %d reactions analyzed)",
		time.Since(startTime), analyzed, len(pending))
	return nil
}
