package bot

import (
	"context"
	"fmt"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"glowing-telegram/internal/domain"

	tele "gopkg.in/telebot.v3"
)

// Sender is the slice of the telebot API the notifier needs.
type Sender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// Notifier delivers events to a fixed Telegram chat as HTML messages.
type Notifier struct {
	bot  Sender
	chat tele.ChatID
}

// NewNotifier returns nil without error when the token or chat ID is not
// configured; a nil notifier means Telegram delivery is disabled.
func NewNotifier() (*Notifier, error) {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	chatRaw := os.Getenv("TELEGRAM_CHAT_ID")
	if token == "" || chatRaw == "" {
		log.Println("TELEGRAM_BOT_TOKEN or TELEGRAM_CHAT_ID not set, Telegram delivery disabled")
		return nil, nil
	}
	chatID, err := strconv.ParseInt(chatRaw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse TELEGRAM_CHAT_ID: %w", err)
	}

	b, err := tele.NewBot(tele.Settings{Token: token})
	if err != nil {
		return nil, fmt.Errorf("create Telegram bot: %w", err)
	}
	return &Notifier{bot: b, chat: tele.ChatID(chatID)}, nil
}

// Deliver sends one event. Heartbeats are intentionally not sent to the
// chat; they only matter for logs and the HTTP surface.
func (n *Notifier) Deliver(ctx context.Context, event domain.Event) error {
	if n == nil {
		return nil
	}
	if event.Kind == domain.EventHeartbeat {
		log.Printf("heartbeat: run completed at %s", event.At.UTC().Format(time.RFC3339))
		return nil
	}
	_, err := n.bot.Send(n.chat, FormatEvent(event), tele.ModeHTML, tele.NoPreview)
	if err != nil {
		return fmt.Errorf("send %s message: %w", event.Kind, err)
	}
	return nil
}

// StateLoader reads the persisted alert state for the /status command.
type StateLoader interface {
	Load(ctx context.Context) *domain.StateDocument
}

// ReportBuilder produces daily-report rows on demand for /report.
type ReportBuilder interface {
	BuildReport(ctx context.Context) []domain.ReportRow
}

// StartTelegramBot runs the interactive command bot. Daemon mode only; the
// one-shot binary never long-polls.
func StartTelegramBot(store StateLoader, reports ReportBuilder) {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		log.Println("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return
	}
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	b, err := tele.NewBot(pref)
	if err != nil {
		log.Fatalf("failed to create Telegram bot: %v", err)
	}

	b.Handle("/ping", func(c tele.Context) error {
		return c.Send("pong")
	})

	b.Handle("/status", func(c tele.Context) error {
		doc := store.Load(context.Background())
		return c.Send(formatStatus(doc), tele.ModeHTML)
	})

	b.Handle("/report", func(c tele.Context) error {
		rows := reports.BuildReport(context.Background())
		if len(rows) == 0 {
			return c.Send("No market data available right now.")
		}
		event := domain.Event{
			Kind: domain.EventDailyReport,
			Rows: rows,
			At:   time.Now(),
		}
		return c.Send(FormatEvent(event), tele.ModeHTML)
	})

	log.Println("Telegram bot started")
	go b.Start()
}

func formatStatus(doc *domain.StateDocument) string {
	if doc == nil || len(doc.Coins) == 0 {
		return "No state recorded yet."
	}

	var sb strings.Builder
	sb.WriteString("<b>Trend state</b>\n<pre>")
	sb.WriteString(fmt.Sprintf("%-6s %4s %4s %4s\n", "COIN", "1H", "4H", "1D"))
	for _, symbol := range sortedSymbols(doc) {
		cs := doc.Coins[symbol]
		sb.WriteString(fmt.Sprintf("%-6s %4s %4s %4s\n",
			symbol,
			cs.TrendFor(domain.TimeframeH1).Arrow(),
			cs.TrendFor(domain.TimeframeH4).Arrow(),
			cs.TrendFor(domain.TimeframeD1).Arrow(),
		))
	}
	sb.WriteString("</pre>")
	if doc.LastDailyReportDate != "" {
		sb.WriteString(fmt.Sprintf("\nLast daily report: %s", doc.LastDailyReportDate))
	}
	return sb.String()
}

func sortedSymbols(doc *domain.StateDocument) []string {
	symbols := make([]string, 0, len(doc.Coins))
	for symbol := range doc.Coins {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	return symbols
}
