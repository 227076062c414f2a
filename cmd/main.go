package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/Vovarama1992/go-utils/httputil"
	"github.com/Vovarama1992/go-utils/logger"

	"github.com/abakusuz/paybot/internal/bridge"
	"github.com/abakusuz/paybot/internal/config"
	"github.com/abakusuz/paybot/internal/delivery"
	"github.com/abakusuz/paybot/internal/domain"
	"github.com/abakusuz/paybot/internal/infra"
	"github.com/abakusuz/paybot/internal/metrics"
	"github.com/abakusuz/paybot/internal/ports"
	"github.com/abakusuz/paybot/internal/telegram"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

func main() {

	// =========================================================================
	// ENV / LOGGER
	// =========================================================================

	cfg := config.Load()

	baseLogger, _ := zap.NewProduction()
	defer baseLogger.Sync()
	sugar := baseLogger.Sugar()
	zl := logger.NewZapLogger(sugar)

	// =========================================================================
	// STORE SELECTION
	// =========================================================================
	//
	// Decided once here: postgres when DATABASE_URL is set and reachable,
	// the JSON file otherwise. A broken database degrades to the file
	// backend instead of refusing to start.

	var store ports.Store

	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			sugar.Warnw("postgres open failed, falling back to file store", "err", err)
		} else {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			err := db.PingContext(ctx)
			cancel()
			if err != nil {
				sugar.Warnw("postgres unreachable, falling back to file store", "err", err)
				db.Close()
			} else if pg, err := infra.NewPostgresStore(db); err != nil {
				sugar.Warnw("postgres migrate failed, falling back to file store", "err", err)
				db.Close()
			} else {
				defer db.Close()
				store = pg
				sugar.Info("using postgres store")
			}
		}
	}

	if store == nil {
		store = infra.NewFileStore(cfg.SubscriptionsFile, sugar)
		sugar.Infow("using file store", "path", cfg.SubscriptionsFile)
	}

	// =========================================================================
	// METRICS
	// =========================================================================

	metrics.InitMetrics()

	// =========================================================================
	// SERVICES
	// =========================================================================

	subscriptionService := domain.NewSubscriptionService(store)
	authService := domain.NewAuthService(cfg.AdminPassword, cfg.AuthSecret)

	var archive ports.ReceiptArchive
	if os.Getenv("S3_ENDPOINT") != "" {
		a, err := infra.NewReceiptArchive()
		if err != nil {
			sugar.Warnw("receipt archive disabled", "err", err)
		} else {
			archive = a
		}
	}
	receiptService := domain.NewReceiptService(archive, sugar)

	// =========================================================================
	// BRIDGE
	// =========================================================================

	br := bridge.New(sugar)
	br.Start()

	// =========================================================================
	// TELEGRAM BOT
	// =========================================================================

	var webhookHandler *delivery.WebhookHandler

	if cfg.BotToken != "" {
		botApp, err := telegram.NewBotApp(cfg, subscriptionService, receiptService, br)
		if err != nil {
			log.Fatalf("failed to init telegram bot: %v", err)
		}
		receiptService.SetNotifier(botApp)
		webhookHandler = delivery.NewWebhookHandler(br, botApp, sugar)

		if cfg.BaseURL != "" {
			if err := botApp.SetWebhook(cfg.BaseURL); err != nil {
				sugar.Errorw("webhook setup failed", "err", err)
			}
		} else {
			go botApp.RunPolling()
		}
	} else {
		sugar.Warn("BOT_TOKEN is not set; serving admin API only")
	}

	// =========================================================================
	// HTTP ROUTER
	// =========================================================================

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	subscriptionHandler := delivery.NewSubscriptionHandler(subscriptionService)
	authHandler := delivery.NewAuthHandler(authService)

	delivery.RegisterRoutes(r, subscriptionHandler, webhookHandler, authHandler, authService)

	r.With(httputil.RecoverMiddleware).Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(200)
		w.Write([]byte("pong"))
	})

	// =========================================================================
	// START SERVER
	// =========================================================================

	addr := ":" + cfg.Port
	zl.Log(logger.LogEntry{
		Level:   "info",
		Message: "listening at " + addr,
		Service: "paybot",
	})

	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
