package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Coins []string

	RSIBuy            float64
	RSIOpportunity    float64
	EnableOpportunity bool

	BuyCooldown         time.Duration
	OpportunityCooldown time.Duration
	Trend1DCooldown     time.Duration
	Trend4HCooldown     time.Duration

	Enable4H        bool
	Allow1HFallback bool

	ReportLocation    *time.Location
	ReportWindowOpen  time.Duration
	ReportWindowClose time.Duration

	StateBackend string
	StateDir     string

	RedisURL    string
	DatabaseURL string

	TelegramBotToken string
	TelegramChatID   string

	CryptoPanicToken string
	NewsMovePct      float64
	NewsCooldown     time.Duration

	OpenAIAPIKey string
	OpenAIModel  string

	APIKey           string
	PollIntervalSecs int

	RSILen     int
	MACDFast   int
	MACDSlow   int
	MACDSignal int
	Lookback1H int
	Lookback1D int
}

func Load() *Config {
	cfg := &Config{
		RedisURL:         os.Getenv("REDIS_URL"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:   os.Getenv("TELEGRAM_CHAT_ID"),
		CryptoPanicToken: os.Getenv("CRYPTOPANIC_TOKEN"),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		APIKey:           os.Getenv("API_KEY"),
	}

	if cfg.TelegramBotToken == "" {
		log.Println("Warning: TELEGRAM_BOT_TOKEN not set, alerts will only be logged")
	}
	if cfg.CryptoPanicToken == "" {
		log.Println("Warning: CRYPTOPANIC_TOKEN not set, news alerts disabled")
	}

	cfg.Coins = splitList(os.Getenv("COINS"))
	if len(cfg.Coins) == 0 {
		cfg.Coins = []string{"BTC", "ETH", "BNB", "SOL", "BGB"}
	}

	cfg.RSIBuy = envFloat("RSI_BUY", 30)
	cfg.RSIOpportunity = envFloat("RSI_OPP", 40)
	cfg.EnableOpportunity = envBool("ENABLE_OPPORTUNITY", true)

	cfg.BuyCooldown = envHours("BUY_COOLDOWN_HOURS", 12)
	cfg.OpportunityCooldown = envHours("OPPORTUNITY_COOLDOWN_HOURS", 6)
	cfg.Trend1DCooldown = envHours("TREND_1D_COOLDOWN_HOURS", 24)
	cfg.Trend4HCooldown = envHours("TREND_4H_COOLDOWN_HOURS", 12)
	cfg.NewsCooldown = envHours("NEWS_COOLDOWN_HOURS", 6)

	cfg.Enable4H = envBool("ENABLE_4H", true)
	cfg.Allow1HFallback = envBool("ALLOW_1H_FALLBACK", true)

	tz := strings.TrimSpace(os.Getenv("REPORT_TZ"))
	if tz == "" {
		tz = "Europe/Rome"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("Warning: invalid REPORT_TZ=%q, using UTC", tz)
		loc = time.UTC
	}
	cfg.ReportLocation = loc

	cfg.ReportWindowOpen = envClock("REPORT_WINDOW_START", 8*time.Hour)
	cfg.ReportWindowClose = envClock("REPORT_WINDOW_END", 8*time.Hour+15*time.Minute)

	cfg.StateBackend = strings.ToLower(strings.TrimSpace(os.Getenv("STATE_BACKEND")))
	if cfg.StateBackend == "" {
		cfg.StateBackend = "file"
	}
	if cfg.StateBackend != "file" && cfg.StateBackend != "redis" {
		log.Printf("Warning: unsupported STATE_BACKEND=%q, defaulting to file", cfg.StateBackend)
		cfg.StateBackend = "file"
	}

	cfg.StateDir = strings.TrimSpace(os.Getenv("STATE_DIR"))
	if cfg.StateDir == "" {
		cfg.StateDir = ".state"
	}

	cfg.NewsMovePct = envFloat("NEWS_MOVE_PCT", 3.0)

	cfg.OpenAIModel = strings.TrimSpace(os.Getenv("OPENAI_MODEL"))
	if cfg.OpenAIModel == "" {
		cfg.OpenAIModel = "gpt-4o-mini"
	}

	cfg.PollIntervalSecs = envInt("POLL_INTERVAL_SECS", 900)

	cfg.RSILen = envInt("RSI_LEN", 14)
	cfg.MACDFast = envInt("MACD_FAST", 12)
	cfg.MACDSlow = envInt("MACD_SLOW", 26)
	cfg.MACDSignal = envInt("MACD_SIGNAL", 9)
	cfg.Lookback1H = envInt("LOOKBACK_1H", 900)
	cfg.Lookback1D = envInt("LOOKBACK_1D", 500)

	return cfg
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		part = strings.ToUpper(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func envInt(name string, def int) int {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
		log.Printf("Warning: invalid %s=%q, using %d", name, v, def)
	}
	return def
}

func envFloat(name string, def float64) float64 {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil && n > 0 {
			return n
		}
		log.Printf("Warning: invalid %s=%q, using %g", name, v, def)
	}
	return def
}

func envBool(name string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	return strings.EqualFold(v, "true") || v == "1"
}

func envHours(name string, defHours int) time.Duration {
	return time.Duration(envInt(name, defHours)) * time.Hour
}

// envClock parses HH:MM as an offset from local midnight.
func envClock(name string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	parts := strings.SplitN(v, ":", 2)
	if len(parts) != 2 {
		log.Printf("Warning: invalid %s=%q, using default", name, v)
		return def
	}
	hours, err1 := strconv.Atoi(parts[0])
	minutes, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || hours < 0 || hours > 23 || minutes < 0 || minutes > 59 {
		log.Printf("Warning: invalid %s=%q, using default", name, v)
		return def
	}
	return time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute
}
