package telegram

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"ai-mobility-planner/internal/app"
	"ai-mobility-planner/internal/config"
	"ai-mobility-planner/internal/metrics"
	"ai-mobility-planner/internal/trace"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Bot wraps the Telegram API and the mobility planning pipeline.
type Bot struct {
	api          *tgbotapi.BotAPI
	app          *app.App
	metricsStore *metrics.Store
	cfg          *config.Config
}

// NewBot initializes the Telegram Bot and sets the Webhook.
func NewBot(cfg *config.Config, a *app.App, metricsStore *metrics.Store) (*Bot, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}

	log.Printf("Authorized on account %s", bot.Self.UserName)

	wh, _ := tgbotapi.NewWebhook(cfg.TelegramWebhookURL)
	resp, err := bot.Request(wh)
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.TelegramWebhookURL, err)
	}
	log.Printf("Webhook set response: %s", resp.Description)

	return &Bot{
		api:          bot,
		app:          a,
		metricsStore: metricsStore,
		cfg:          cfg,
	}, nil
}

// RegisterHandlers registers the webhook handler with the default HTTP mux.
func (b *Bot) RegisterHandlers() {
	http.HandleFunc("/webhook", b.handleWebhook)
	http.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

func (b *Bot) handleWebhook(w http.ResponseWriter, r *http.Request) {
	update, err := b.api.HandleUpdate(r)
	if err != nil {
		log.Printf("Error parsing update: %v", err)
		return
	}

	if update.Message == nil {
		return
	}

	if b.cfg.TelegramAllowUserID != 0 && update.Message.From.ID != b.cfg.TelegramAllowUserID {
		log.Printf("Unauthorized access attempt from UserID: %d (@%s)", update.Message.From.ID, update.Message.From.UserName)
		return
	}

	go b.processMessage(update.Message)
}

func (b *Bot) processMessage(msg *tgbotapi.Message) {
	switch {
	case msg.Text == "/start" || msg.Text == "/help":
		b.reply(msg.Chat.ID, "Describe a lifestyle (e.g. \"a software engineer who lives in Stratford and works in West Kensington\") and I'll build a seven-day mobility trace for it.")
	case msg.Text == "/metrics":
		b.handleMetricsCommand(msg.Chat.ID)
	case strings.TrimSpace(msg.Text) == "":
		b.reply(msg.Chat.ID, "Please send a lifestyle description.")
	default:
		b.handlePlanRequest(msg)
	}
}

func (b *Bot) handlePlanRequest(msg *tgbotapi.Message) {
	b.reply(msg.Chat.ID, "Planning the week, this can take a minute...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	userID := fmt.Sprintf("tg:%d", msg.From.ID)
	mt, err := b.app.GenerateTrace(ctx, userID, msg.Text)
	if err != nil {
		log.Printf("Trace generation failed for %s: %v", userID, err)
		b.reply(msg.Chat.ID, fmt.Sprintf("Planning failed: %v", err))
		return
	}

	b.reply(msg.Chat.ID, FormatTrace(mt))
}

func (b *Bot) handleMetricsCommand(chatID int64) {
	usage, err := b.metricsStore.GetDailyUsage(7)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Failed to load metrics: %v", err))
		return
	}

	var sb strings.Builder
	sb.WriteString("LLM usage, last 7 days:\n")
	for _, u := range usage {
		fmt.Fprintf(&sb, "%s: %d calls, %d prompt / %d completion tokens\n",
			u.Date, u.TotalExecution, u.TotalPrompt, u.TotalCompletion)
	}

	health := metrics.GetSysHealth(b.cfg.DatabasePath)
	fmt.Fprintf(&sb, "\nHeap: %d MB | Goroutines: %d | DB: %s",
		health.AllocMB, health.Goroutines, health.DatabaseSize)

	b.reply(chatID, sb.String())
}

func (b *Bot) reply(chatID int64, text string) {
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		log.Printf("Failed to send message: %v", err)
	}
}

// FormatTrace renders a trace as a compact weekly overview message.
func FormatTrace(mt *trace.MobilityTrace) string {
	var sb strings.Builder
	sb.WriteString("Your week:\n")
	for _, day := range mt.Days {
		routed := 0
		for _, seg := range day.Segments {
			if seg != nil {
				routed++
			}
		}
		fmt.Fprintf(&sb, "\n%s (%d activities, %d legs routed)\n", day.Day, len(day.Plan.Entries), routed)
		for _, entry := range day.Plan.Entries {
			place := entry.Location
			if entry.POI != nil {
				place = entry.POI.Name
			}
			fmt.Fprintf(&sb, "  %s %s @ %s\n", entry.Time, entry.Action, place)
		}
	}
	return sb.String()
}
