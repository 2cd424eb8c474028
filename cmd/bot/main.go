package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"DipSentinel/internal/calculator"
	"DipSentinel/internal/calendar"
	"DipSentinel/internal/collector"
	"DipSentinel/internal/config"
	"DipSentinel/internal/indicator"
	"DipSentinel/internal/notifier"
	"DipSentinel/internal/pipeline"
	"DipSentinel/internal/scheduler"
	"DipSentinel/internal/store"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] DipSentinel starting...")

	// Load .env if present, then config
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[WARN] load .env: %v", err)
	}
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	// Init store
	st, err := store.NewSQLiteStore(cfg.Database.SQLitePath)
	if err != nil {
		log.Fatalf("[FATAL] init store: %v", err)
	}
	defer st.Close()

	// Init fetcher
	var fetcher collector.Fetcher
	if cfg.DataSource.PolygonKey != "" {
		fetcher = collector.NewPolygonFetcher(cfg.DataSource.PolygonBaseURL, cfg.DataSource.PolygonKey, cfg.Proxy)
	} else {
		fetcher = collector.NewYahooFetcher(cfg.Proxy)
	}
	log.Printf("[INFO] data source: %s", fetcher.Name())

	// Init pipeline components
	cal := calendar.NYSE()
	pacer := collector.NewPacer(cfg.DataSource.RateCeiling, time.Minute)
	col := collector.NewCollector(fetcher, pacer, cfg.DataSource.MaxAttempts)
	gaps := collector.NewGapDetector(cal, st)
	params := calculator.Params{
		EnvelopeLookback: cfg.Oscillator.EnvelopeLookback,
		StdevMultiplier:  cfg.Oscillator.StdevMultiplier,
	}
	eng := indicator.NewEngine(st, cfg.Windows, params, cfg.HistoryDays)
	pl := pipeline.New(cfg, cal, st, gaps, col, eng)

	// Init Telegram notifier (optional)
	var tn *notifier.TelegramNotifier
	if cfg.Telegram.BotToken != "" && cfg.Telegram.ChatID != "" {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
	} else {
		log.Println("[WARN] telegram not configured, summaries will only be logged")
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, pl, tn)
	if err := sched.Register(cfg.Schedule.DailyCron); err != nil {
		log.Fatalf("[FATAL] register cron task: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// Optional: run immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, executing daily update now")
		go sched.RunNow()
	}

	log.Println("[INFO] DipSentinel is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
	log.Println("[INFO] DipSentinel stopped")
}
