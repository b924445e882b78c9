package bot

import (
	"fmt"
	"strings"

	"glowing-telegram/internal/domain"
)

// FormatEvent renders an event as a Telegram HTML message.
func FormatEvent(event domain.Event) string {
	switch event.Kind {
	case domain.EventBuySignal:
		return fmt.Sprintf(
			"🟢 <b>BUY SIGNAL — %s</b>\nPrice: $%s\nRSI(1h): %.1f\nMACD(1h): %+.4f\nDaily trend: %s",
			event.Symbol, formatPrice(event.Price), event.RSI, event.MACDLine, event.D1Trend.Arrow(),
		)
	case domain.EventOpportunity:
		return fmt.Sprintf(
			"🟡 <b>Opportunity — %s</b>\nPrice: $%s\nRSI(1h): %.1f\nDaily trend: %s",
			event.Symbol, formatPrice(event.Price), event.RSI, event.D1Trend.Arrow(),
		)
	case domain.EventTrendChange:
		return fmt.Sprintf(
			"🔄 <b>Trend change — %s (%s)</b>\n%s %s → %s %s\nPrice: $%s",
			event.Symbol, strings.ToUpper(string(event.Timeframe)),
			event.From.Arrow(), string(event.From), string(event.To), event.To.Arrow(),
			formatPrice(event.Price),
		)
	case domain.EventDailyReport:
		return formatDailyReport(event)
	case domain.EventNewsAlert:
		return formatNewsAlert(event)
	case domain.EventHeartbeat:
		return fmt.Sprintf("✅ Market check completed at %s", event.At.UTC().Format("15:04 UTC"))
	default:
		return fmt.Sprintf("%s — %s", event.Kind, event.Symbol)
	}
}

func formatDailyReport(event domain.Event) string {
	var sb strings.Builder
	sb.WriteString("📊 <b>Daily report</b>\n<pre>")
	sb.WriteString(fmt.Sprintf("%-6s %8s %10s %s\n", "COIN", "24H%", "MACDΔ", "TREND"))
	for _, row := range event.Rows {
		if !row.HasData {
			sb.WriteString(fmt.Sprintf("%-6s %8s %10s %s\n", row.Symbol, "n/a", "n/a", "?"))
			continue
		}
		sb.WriteString(fmt.Sprintf("%-6s %+7.2f%% %+10.4f %s\n",
			row.Symbol, row.ChangePct, row.MACDDelta, row.Trend.Arrow()))
	}
	sb.WriteString("</pre>")
	return sb.String()
}

func formatNewsAlert(event domain.Event) string {
	var sb strings.Builder
	direction := "📈"
	if event.ChangePct < 0 {
		direction = "📉"
	}
	sb.WriteString(fmt.Sprintf("%s <b>%s moved %+.1f%% in 24h</b> — $%s\n",
		direction, event.Symbol, event.ChangePct, formatPrice(event.Price)))
	for _, h := range event.Headlines {
		marker := "•"
		if h.Important {
			marker = "❗"
		}
		line := fmt.Sprintf("%s %s", marker, escapeHTML(h.Title))
		if h.Sentiment != "" {
			line += fmt.Sprintf(" (%s)", h.Sentiment)
		}
		if h.URL != "" {
			line = fmt.Sprintf("%s <a href=\"%s\">↗</a>", line, h.URL)
		}
		sb.WriteString(line + "\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// formatPrice keeps sub-dollar assets readable without drowning majors
// in decimals.
func formatPrice(price float64) string {
	if price >= 1000 {
		return fmt.Sprintf("%.0f", price)
	}
	if price >= 1 {
		return fmt.Sprintf("%.2f", price)
	}
	return fmt.Sprintf("%.4f", price)
}

func escapeHTML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}
