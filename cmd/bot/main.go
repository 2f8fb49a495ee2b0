package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/suspectuso/otc-escrow/internal/admin"
	"github.com/suspectuso/otc-escrow/internal/auth"
	"github.com/suspectuso/otc-escrow/internal/config"
	"github.com/suspectuso/otc-escrow/internal/deal"
	"github.com/suspectuso/otc-escrow/internal/dispatch"
	"github.com/suspectuso/otc-escrow/internal/forms"
	"github.com/suspectuso/otc-escrow/internal/httpserver"
	"github.com/suspectuso/otc-escrow/internal/logging"
	"github.com/suspectuso/otc-escrow/internal/notifier"
	"github.com/suspectuso/otc-escrow/internal/profile"
	"github.com/suspectuso/otc-escrow/internal/referral"
	"github.com/suspectuso/otc-escrow/internal/storage"
	"github.com/suspectuso/otc-escrow/internal/telegram"
)

func main() {
	// Load .env file
	envErr := godotenv.Load()

	// Load config
	cfg := config.Load()

	// Setup logger
	log := slog.New(logging.NewHandler(os.Stdout, &slog.HandlerOptions{
		Level: logging.ParseLevel(cfg.LogLevel),
	}))
	slog.SetDefault(log)
	if envErr != nil {
		log.Debug("no .env file found")
	}

	if cfg.BotToken == "" {
		log.Error("BOT_TOKEN is required")
		os.Exit(1)
	}
	if len(cfg.AdminIDs) == 0 {
		log.Warn("ADMIN_IDS is empty, admin commands are only available to admins stored in the database")
	}

	// Create context cancelled on shutdown signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize storage
	store, err := storage.New(cfg.DBPath, cfg.StoreTimeout)
	if err != nil {
		log.Error("init storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	log.Info("storage initialized", "path", cfg.DBPath)

	authz, err := auth.New(ctx, store, cfg.AdminIDs, cfg.SpecialUserIDs, log)
	if err != nil {
		log.Error("init auth", "error", err)
		os.Exit(1)
	}

	// Form store: redis when configured so drafts survive restarts
	var formStore forms.Store = forms.NewMemoryStore()
	if cfg.RedisAddr != "" {
		client, err := forms.DialRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Error("connect redis", "addr", cfg.RedisAddr, "error", err)
			os.Exit(1)
		}
		defer client.Close()
		formStore = forms.NewRedisStore(client)
		log.Info("redis form store initialized", "addr", cfg.RedisAddr)
	}

	// Initialize telegram bot
	bot, err := telegram.New(cfg.BotToken, log)
	if err != nil {
		log.Error("init telegram bot", "error", err)
		os.Exit(1)
	}
	log.Info("telegram bot initialized", "username", cfg.BotUsername)

	notify := notifier.New(ctx, store, bot, log)
	scheduler := notifier.NewScheduler(ctx, bot, log)

	engine := deal.NewEngine(store, authz, notify, log)
	adm := admin.New(store, authz, engine, notify, cfg.BackupDir, log)

	router := dispatch.New(dispatch.Options{
		BotUsername:    cfg.BotUsername,
		PaymentDetails: cfg.EscrowPaymentDetails,
		SupportContact: cfg.SupportContact,
		TempMessageTTL: cfg.TempMessageTTL,
	}, dispatch.Services{
		Store:     store,
		Auth:      authz,
		Profile:   profile.New(store, log),
		Referrals: referral.NewLedger(store, log),
		Deals:     engine,
		Admin:     adm,
		Forms:     formStore,
		Notifier:  notify,
	}, log)
	bot.Attach(router, scheduler)

	// Start http server: health, ops API and the webhook endpoint
	var webhook http.Handler
	if cfg.WebhookURL != "" {
		webhook = bot.WebhookHandler()
		if cfg.WebhookSecret == "" {
			log.Warn("WEBHOOK_SECRET is empty, webhook updates are accepted without verification")
		}
	}
	server := httpserver.New(httpserver.Options{
		Host:          cfg.HTTPHost,
		Port:          cfg.HTTPPort,
		WebhookPath:   cfg.WebhookPath(),
		WebhookSecret: cfg.WebhookSecret,
		APISecret:     cfg.APISecret,
	}, store, adm, webhook, log)

	serverDone := make(chan struct{})
	go func() {
		defer close(serverDone)
		if err := server.Start(ctx); err != nil {
			log.Error("http server", "error", err)
			stop()
		}
	}()

	if cfg.WebhookURL != "" {
		log.Info("starting bot in webhook mode", "url", cfg.WebhookURL+cfg.WebhookPath())
		if err := bot.StartWebhook(ctx, cfg.WebhookURL+cfg.WebhookPath(), cfg.WebhookSecret); err != nil {
			log.Error("start webhook", "error", err)
			stop()
		}
	} else {
		log.Info("starting bot polling...")
		bot.Start(ctx)
	}

	<-ctx.Done()
	log.Info("shutting down...")

	<-serverDone
	notify.Wait()
	scheduler.Wait()
	log.Info("shutdown complete")
}
