package main

import (
	"context"
	"log"
	"os"
	"time"

	"glowing-telegram/internal/bot"
	"glowing-telegram/internal/cache"
	"glowing-telegram/internal/config"
	"glowing-telegram/internal/db"
	"glowing-telegram/internal/domain"
	"glowing-telegram/internal/engine"
	"glowing-telegram/internal/provider"
	"glowing-telegram/internal/repository"
	"glowing-telegram/internal/service"
	"glowing-telegram/internal/state"
	"glowing-telegram/pkg/tracing"

	"github.com/joho/godotenv"
)

var (
	loadEnvFunc      = godotenv.Load
	loadConfigFunc   = config.Load
	initPostgresFunc = db.InitPostgres
	initRedisFunc    = cache.InitRedis
	initTracerFunc   = tracing.InitTracer
	newNotifierFunc  = bot.NewNotifier
	runFunc          = func(ctx context.Context, runner *service.Runner) error { return runner.RunOnce(ctx) }
	exitFunc         = os.Exit
)

// One-shot invocation: evaluate the market once, deliver alerts, save state,
// exit. Intended for cron or CI schedule triggers; the daemon lives in
// cmd/server.
func main() {
	loadEnvFunc()

	cfg := loadConfigFunc()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	os.Setenv("DATABASE_URL", cfg.DatabaseURL)
	os.Setenv("REDIS_URL", cfg.RedisURL)
	initPostgresFunc(ctx)
	if cfg.StateBackend == "redis" {
		initRedisFunc(ctx)
	}

	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	var candleStore service.CandleStore
	if db.Pool != nil {
		repo := repository.NewCandleRepository(db.Pool, tracer)
		if err := repo.RunMigrations(ctx); err != nil {
			log.Fatalf("failed to run migrations: %v", err)
		}
		candleStore = repo
	}

	var stateStore service.StateStore
	if cfg.StateBackend == "redis" {
		stateStore = state.NewRedisStore(cache.Client)
	} else {
		stateStore = state.NewFileStore(cfg.StateDir)
	}

	klines := provider.NewKlineProvider(tracer)
	snapshots := service.NewSnapshotService(tracer, klines, candleStore, service.SnapshotConfig{
		Symbols:         cfg.Coins,
		RSILen:          cfg.RSILen,
		MACDFast:        cfg.MACDFast,
		MACDSlow:        cfg.MACDSlow,
		MACDSignal:      cfg.MACDSignal,
		Lookback1H:      cfg.Lookback1H,
		Lookback1D:      cfg.Lookback1D,
		Enable4H:        cfg.Enable4H,
		Allow1HFallback: cfg.Allow1HFallback,
	})

	eng := engine.New(engineConfig(cfg))

	var news service.NewsEvaluator
	if cfg.CryptoPanicToken != "" {
		headlines := provider.NewCryptoPanicProvider(cfg.CryptoPanicToken, tracer)
		scorer := service.NewSentimentScorer(cfg.OpenAIAPIKey, cfg.OpenAIModel)
		news = service.NewNewsService(tracer, headlines, scorer, service.NewsConfig{
			MovePct:  cfg.NewsMovePct,
			Cooldown: cfg.NewsCooldown,
		})
	}

	os.Setenv("TELEGRAM_BOT_TOKEN", cfg.TelegramBotToken)
	os.Setenv("TELEGRAM_CHAT_ID", cfg.TelegramChatID)
	notifier, err := newNotifierFunc()
	if err != nil {
		log.Fatalf("failed to create Telegram notifier: %v", err)
	}

	runner := service.NewRunner(tracer, stateStore, snapshots, eng, news, notifier)

	if err := runFunc(ctx, runner); err != nil {
		log.Printf("run failed: %v", err)
		exitFunc(1)
	}
	log.Println("Run complete")
}

func engineConfig(cfg *config.Config) engine.Config {
	return engine.Config{
		RSIBuy:              cfg.RSIBuy,
		RSIOpportunity:      cfg.RSIOpportunity,
		EnableOpportunity:   cfg.EnableOpportunity,
		BuyCooldown:         cfg.BuyCooldown,
		OpportunityCooldown: cfg.OpportunityCooldown,
		TrendCooldown: map[domain.Timeframe]time.Duration{
			domain.TimeframeD1: cfg.Trend1DCooldown,
			domain.TimeframeH4: cfg.Trend4HCooldown,
		},
		ReportLocation:    cfg.ReportLocation,
		ReportWindowOpen:  cfg.ReportWindowOpen,
		ReportWindowClose: cfg.ReportWindowClose,
	}
}
