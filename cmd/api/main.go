package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/chatwidget/internal/config"
	"github.com/zhouzirui/chatwidget/internal/handler"
	"github.com/zhouzirui/chatwidget/internal/handler/hook"
	"github.com/zhouzirui/chatwidget/internal/service/ai"
	"github.com/zhouzirui/chatwidget/internal/service/tabs"
	"github.com/zhouzirui/chatwidget/internal/service/webhook"
	"github.com/zhouzirui/chatwidget/pkg/utils"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger := utils.NewLogger(os.Stderr, cfg.Log.Level, cfg.Log.Console)
	log.Logger = logger
	zerolog.DefaultContextLogger = &logger

	if envErr != nil {
		log.Warn().Err(envErr).Msg("failed to load .env file, continuing with system environment variables only")
	}

	// Initialize AI service backing the built-in webhook
	var replier hook.Replier
	if cfg.AI.Enabled() {
		aiService, err := ai.NewService(ctx, cfg.AI)
		if err != nil {
			log.Warn().Err(err).Msg("failed to initialize AI service, built-in webhook disabled - 请检查 Ark 模型相关环境变量")
		} else {
			replier = aiService
			log.Info().Str("path", config.LocalWebhookPath).Msg("AI service initialized, built-in webhook mounted")
		}
	} else {
		log.Info().Msg("Ark 凭证未配置，跳过内置 webhook 初始化")
	}

	if cfg.Widget.WebhookDefaulted && replier == nil {
		log.Warn().Str("endpoint", cfg.Widget.WebhookURL).Msg("WIDGET_WEBHOOK_URL not set and built-in webhook unavailable, every message will get the fallback reply")
	}

	client, err := webhook.NewClient(cfg.Widget.WebhookURL, webhook.WithTimeout(cfg.Widget.RequestTimeout))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create webhook client")
	}

	tabService := tabs.NewService(ctx, client, cfg.Widget.Chrome(), logger.With().Str("component", "widget").Logger(),
		tabs.WithIdleTTL(cfg.Widget.TabTTL),
		tabs.WithMaxTabs(cfg.Widget.MaxTabs),
	)

	router := handler.NewRouter(tabService, replier, cfg.Widget.PageTitle)

	startServer(ctx, cfg.Server, router, client.Endpoint())
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler, endpoint string) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Info().Str("addr", addr).Str("webhook", endpoint).Msg("chat widget host listening")
	if err := runServer(ctx, srv); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
