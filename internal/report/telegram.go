// Package report delivers completed trigger analyses and pattern reports via
// the Telegram Bot API. It owns all presentation concerns; the analysis
// engine never formats human-readable strings. A nil cross-reaction frequency
// is rendered as "no data", never as 0%.
//
// Messages use MarkdownV2 and are sent with linear-backoff retry to ride out
// rate limiting and transient network failures. Every report ends with the
// advisory disclaimer: the output is for nutritional review, not diagnosis.
package report

import (
	"fmt"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/triggerlens/triggerlens/internal/models"
)

// maxListedCandidates caps how many ranked candidates appear per message
// section; the full list is always available via triggerctl report.
const maxListedCandidates = 5

const disclaimer = "For nutritional review only — not medical advice."

// Client handles Telegram report delivery
type Client struct {
	bot            *tgbotapi.BotAPI
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration
}

// NewClient creates a new Telegram report client
func NewClient(botToken, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}

	return &Client{
		bot:            bot,
		chatID:         chatIDInt,
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}, nil
}

// SendAnalysis delivers a completed trigger analysis for one reaction.
func (c *Client) SendAnalysis(reaction *models.ReactionEvent, analysis *models.TriggerAnalysis) error {
	return c.send(FormatAnalysis(reaction, analysis))
}

// SendPattern delivers a multi-reaction pattern report.
func (c *Client) SendPattern(report *models.PatternReport) error {
	return c.send(FormatPattern(report))
}

// send delivers a MarkdownV2 message with retry
func (c *Client) send(message string) error {
	msg := tgbotapi.NewMessage(c.chatID, message)
	msg.ParseMode = "MarkdownV2"

	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		_, err := c.bot.Send(msg)
		if err == nil {
			return nil
		}
		lastErr = err
		time.Sleep(c.retryDelayBase * time.Duration(i+1))
	}

	return fmt.Errorf("failed to send message after %d retries: %w", c.maxRetries, lastErr)
}

// FormatAnalysis renders a trigger analysis as a MarkdownV2 message.
func FormatAnalysis(reaction *models.ReactionEvent, analysis *models.TriggerAnalysis) string {
	message := "🔎 *Trigger Analysis*\n\n"
	message += fmt.Sprintf("Reaction: *%s* \\(%s\\)\n",
		escapeMarkdownV2(reaction.ReactionType), escapeMarkdownV2(string(reaction.Severity)))
	message += fmt.Sprintf("When: %s\n", escapeMarkdownV2(reaction.Timestamp.Format("2006-01-02 15:04")))
	message += fmt.Sprintf("Window: %s → %s \\(%d meals, %d foods\\)\n\n",
		escapeMarkdownV2(analysis.WindowStart.Format("Jan 2")),
		escapeMarkdownV2(analysis.WindowEnd.Format("Jan 2")),
		analysis.MealCount, analysis.DistinctFoods)

	if len(analysis.TopFoods) == 0 {
		message += "No meals were logged in the analysis window\\.\n"
	} else {
		message += "*Suspect foods*\n"
		for i, score := range analysis.TopFoods {
			if i == maxListedCandidates {
				message += fmt.Sprintf("…and %d more\n", len(analysis.TopFoods)-maxListedCandidates)
				break
			}
			message += fmt.Sprintf("%d\\. %s — eaten %s, %s within 24h, recurs in %s of past reactions\n",
				i+1,
				escapeMarkdownV2(score.FoodName),
				escapeMarkdownV2(times(score.Occurrences)),
				escapeMarkdownV2(strconv.Itoa(score.OccurrencesWithin24h)),
				escapeMarkdownV2(formatFrequency(score.CrossReactionFrequency)))
		}

		message += "\n*Suspect ingredients*\n"
		for i, score := range analysis.TopIngredients {
			if i == maxListedCandidates {
				message += fmt.Sprintf("…and %d more\n", len(analysis.TopIngredients)-maxListedCandidates)
				break
			}
			label := escapeMarkdownV2(score.Name)
			if score.Category != "" {
				label += fmt.Sprintf(" ⚠️ _%s_", escapeMarkdownV2(string(score.Category)))
			}
			message += fmt.Sprintf("%d\\. %s — eaten %s, recurs in %s of past reactions\n",
				i+1, label,
				escapeMarkdownV2(times(score.Occurrences)),
				escapeMarkdownV2(formatFrequency(score.CrossReactionFrequency)))
		}
	}

	message += "\n_" + escapeMarkdownV2(disclaimer) + "_"
	return message
}

// FormatPattern renders a pattern report as a MarkdownV2 message.
func FormatPattern(report *models.PatternReport) string {
	message := "📊 *Reaction Pattern Report*\n\n"
	message += fmt.Sprintf("Across your last %d reactions:\n\n", report.SampleSize)

	if len(report.ReactionTypes) > 0 {
		message += "*Symptoms*\n"
		for _, summary := range report.ReactionTypes {
			message += fmt.Sprintf("• %s ×%d\n", escapeMarkdownV2(summary.ReactionType), summary.Count)
		}
		message += "\n"
	}

	if len(report.RecognizedAllergens) == 0 && len(report.OtherIngredients) == 0 {
		message += "No ingredient appeared in two or more reactions\\.\n"
	}

	if len(report.RecognizedAllergens) > 0 {
		message += "*Recognized allergens*\n"
		for _, entry := range report.RecognizedAllergens {
			message += fmt.Sprintf("• %s \\(_%s_\\) — in %d of %d reactions\n",
				escapeMarkdownV2(entry.Name),
				escapeMarkdownV2(string(entry.Category)),
				entry.ReactionCount, report.SampleSize)
		}
		message += "\n"
	}

	if len(report.OtherIngredients) > 0 {
		message += "*Other recurring ingredients*\n"
		for _, entry := range report.OtherIngredients {
			message += fmt.Sprintf("• %s — in %d of %d reactions\n",
				escapeMarkdownV2(entry.Name), entry.ReactionCount, report.SampleSize)
		}
		message += "\n"
	}

	message += "_" + escapeMarkdownV2(disclaimer) + "_"
	return message
}

// formatFrequency renders a cross-reaction frequency. A nil frequency means
// no other analyzed reaction exists yet; that is "no data", not 0%.
func formatFrequency(freq *int) string {
	if freq == nil {
		return "no data"
	}
	return fmt.Sprintf("%d%%", *freq)
}

func times(n int) string {
	if n == 1 {
		return "once"
	}
	return fmt.Sprintf("%d times", n)
}

// escapeMarkdownV2 escapes special characters for Telegram MarkdownV2
func escapeMarkdownV2(text string) string {
	result := ""
	for _, char := range text {
		switch char {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!':
			result += "\\" + string(char)
		default:
			result += string(char)
		}
	}
	return result
}
