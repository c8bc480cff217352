package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/carelinehq/careline/internal/alerts"
	"github.com/carelinehq/careline/internal/api"
	"github.com/carelinehq/careline/internal/config"
	"github.com/carelinehq/careline/internal/events"
	"github.com/carelinehq/careline/internal/gateway"
	"github.com/carelinehq/careline/internal/store"
	"github.com/carelinehq/careline/internal/voice"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	slog.Info("careline starting", "port", cfg.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	if cfg.DatabaseURL == "" {
		slog.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	db, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database connected")

	// Completion gateway
	if cfg.GatewayAPIKey == "" {
		slog.Error("GATEWAY_API_KEY is required")
		os.Exit(1)
	}
	gw := gateway.NewClient(cfg.GatewayAPIKey, cfg.GatewayModel, slog.Default())
	slog.Info("gateway client ready", "model", cfg.GatewayModel)

	// NATS
	bus, err := events.NewClient(cfg.NatsURL, cfg.NatsToken, slog.Default())
	if err != nil {
		slog.Error("failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer bus.Close()
	slog.Info("NATS connected", "url", cfg.NatsURL)

	// Voice (optional — careline works without it, just no phone check-ins)
	var dialer *voice.Client
	if cfg.VapiAPIKey != "" && cfg.VapiPhoneNumberID != "" {
		dialer = voice.NewClient(cfg.VapiAPIKey, cfg.VapiPhoneNumberID, slog.Default())
		slog.Info("voice client ready")
	} else {
		slog.Warn("voice not configured — running without phone check-ins")
	}

	// Urgent assessment escalation rings the on-call nurse.
	if dialer != nil && cfg.OnCallNumber != "" {
		notifier := alerts.NewNotifier(dialer, cfg.OnCallNumber, cfg.VapiAssistantID, slog.Default())
		if err := bus.Subscribe(events.SubjectAssessmentUrgent, notifier.HandleAssessment); err != nil {
			slog.Error("failed to subscribe to urgent assessments", "error", err)
			os.Exit(1)
		}
	}

	// HTTP API
	var apiDialer api.Dialer
	if dialer != nil {
		apiDialer = dialer
	}
	srv := api.NewServer(cfg.Port, cfg.APIToken, db, gw, apiDialer, bus, slog.Default())
	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	slog.Info("careline ready", "port", cfg.Port)

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("shutting down")
	cancel()
	slog.Info("careline stopped")
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
