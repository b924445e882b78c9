package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"glowing-telegram/internal/bot"
	"glowing-telegram/internal/cache"
	"glowing-telegram/internal/config"
	"glowing-telegram/internal/db"
	"glowing-telegram/internal/domain"
	"glowing-telegram/internal/engine"
	"glowing-telegram/internal/handler"
	"glowing-telegram/internal/job"
	"glowing-telegram/internal/provider"
	"glowing-telegram/internal/repository"
	"glowing-telegram/internal/service"
	"glowing-telegram/internal/state"
	"glowing-telegram/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

var (
	loadEnvFunc            = godotenv.Load
	loadConfigFunc         = config.Load
	initPostgresFunc       = db.InitPostgres
	initRedisFunc          = cache.InitRedis
	initTracerFunc         = tracing.InitTracer
	newNotifierFunc        = bot.NewNotifier
	startEngineJobFunc     = func(j *job.EngineJob, ctx context.Context) { go j.Start(ctx) }
	startTelegramBotFunc   = bot.StartTelegramBot
	newRouterFunc          = gin.Default
	setupSignalNotify      = signal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

func main() {
	loadEnvFunc()

	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
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
		if err := tp.Shutdown(ctx); err != nil {
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

	eng := engine.New(engine.Config{
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
	})

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

	recorder := service.NewEventRecorder(0)
	runner := service.NewRunner(tracer, stateStore, snapshots, eng, news, notifier, recorder)

	engineJob := job.NewEngineJob(tracer, runner, time.Duration(cfg.PollIntervalSecs)*time.Second)
	startEngineJobFunc(engineJob, ctx)

	startTelegramBotFunc(stateStore, snapshots)

	h := handler.New(tracer, stateStore, recorder, snapshots)

	r := newRouterFunc()
	r.Use(otelgin.Middleware("glowing-telegram"))
	h.RegisterRoutes(r, cfg.APIKey)

	srv := &http.Server{
		Addr:    ":8080",
		Handler: r,
	}

	go func() {
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
