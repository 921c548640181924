package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"homedash/internal/config"
	"homedash/internal/logcapture"
	"homedash/internal/logger"
	"homedash/internal/scheduler"
	"homedash/internal/server"
	"homedash/internal/spot"
	"homedash/internal/telegram"
)

var configPath = flag.String("config", "configs/config.yaml", "Path to configuration file")

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Configuration loaded from %s", *configPath)

	capture := logcapture.New(cfg.Server.LogCapacity)
	captureWriter, err := capture.Install(os.Stderr)
	if err != nil {
		logger.Fatal("Failed to install log capture: %v", err)
	}
	logger.SetOutput(captureWriter)

	displayZone := cfg.DisplayZone()
	priceZone := cfg.PriceZone()

	var fetcher spot.Fetcher
	if cfg.Spot.UseMock {
		logger.Info("Using mock price source")
		fetcher = &spot.MockFetcher{
			Zone:          displayZone,
			PriceZone:     priceZone,
			ReleaseHour:   cfg.Schedule.ReleaseHour,
			ReleaseMinute: cfg.Schedule.ReleaseMinute,
		}
	} else {
		fetcher = spot.NewClient(
			cfg.Spot.BaseURL,
			cfg.Spot.Timeout,
			displayZone,
			spot.ClientConfig{
				MaxRetries:     cfg.Spot.MaxRetries,
				RetryDelayBase: cfg.Spot.RetryDelayBase,
			},
		)
	}

	var notifier scheduler.Notifier
	var telegramClient *telegram.Client
	if cfg.Telegram.Enabled {
		telegramClient, err = telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID, priceZone, cfg.Telegram.MaxRetries, cfg.Telegram.RetryDelayBase)
		if err != nil {
			logger.Fatal("Failed to initialize Telegram client: %v", err)
		}
		notifier = telegramClient
		logger.Info("Telegram client initialized successfully")
	} else {
		logger.Debug("Telegram notifications disabled")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, cleaning up...")
		cancel()
	}()

	if telegramClient != nil {
		telegramClient.ListenForCommands(ctx)
	}

	policy := scheduler.Policy{
		ReleaseHour:   cfg.Schedule.ReleaseHour,
		ReleaseMinute: cfg.Schedule.ReleaseMinute,
		Zone:          displayZone,
		PollInterval:  cfg.Schedule.PollInterval,
	}
	sched := scheduler.New(policy, fetcher, priceZone, notifier)
	sched.Start(ctx)

	window := scheduler.NewWindowAdvancer(displayZone, cfg.Schedule.WindowCadence, func(first time.Time) {
		logger.Debug("display window advanced to %v", first)
	})
	window.Start()
	defer window.Stop()

	logger.Info("Starting price service (release: %02d:%02d %s, poll interval: %v, window cadence: %v)",
		cfg.Schedule.ReleaseHour,
		cfg.Schedule.ReleaseMinute,
		cfg.Schedule.Zone,
		cfg.Schedule.PollInterval,
		cfg.Schedule.WindowCadence,
	)

	api := server.New(sched, window, capture, displayZone, priceZone)
	if err := api.Run(ctx, cfg.Server.Addr, cfg.Server.ShutdownTimeout); err != nil && err != http.ErrServerClosed {
		logger.Fatal("HTTP server error: %v", err)
	}

	logger.Info("Service stopped")
	logger.SetOutput(capture.Uninstall())
}
