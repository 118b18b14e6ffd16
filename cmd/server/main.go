package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"condo-whatsapp/internal/api"
	"condo-whatsapp/internal/auth"
	"condo-whatsapp/internal/config"
	"condo-whatsapp/internal/database"
	"condo-whatsapp/internal/middleware"
	"condo-whatsapp/internal/notify"
	"condo-whatsapp/internal/observability"
	"condo-whatsapp/internal/scheduler"
	"condo-whatsapp/internal/webhook"
	"condo-whatsapp/internal/whatsapp"
	"condo-whatsapp/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

var version = "dev"

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	config.SetupLogger(cfg)
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up tracing")
	}

	db, err := database.InitGorm(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	if err := database.SyncConfig(db, cfg); err != nil {
		log.Error().Err(err).Msg("failed to sync whatsapp config from environment")
	}

	interval := cfg.SendInterval
	if interval == 0 {
		interval = notify.NoPacing
	}
	httpClient := &http.Client{Timeout: 30 * time.Second}
	svc := notify.NewService(db, whatsapp.NewFactory(httpClient), notify.Options{
		SendInterval: interval,
		AppURL:       cfg.AppURL,
	})

	hub := ws.NewHub(cfg.CORSAllowedOrigins)
	go hub.Run()

	deps := api.RouterDeps{
		Notifications: api.NewNotificationHandler(svc),
		Webhook:       webhook.NewHandler(db, cfg.VerifyToken, hub),
		Auth:          auth.NewAuthenticator(cfg.JWTSecret, db),
		Hub:           hub,
		CORSOrigins:   cfg.CORSAllowedOrigins,
	}
	if cfg.RateLimitRPS > 0 {
		deps.RateLimiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, middleware.KeyByUserOrIP)
	}
	if cfg.OTEL.Enabled {
		deps.Extra = append(deps.Extra, otelgin.Middleware(cfg.OTEL.ServiceName))
	}

	var sched *scheduler.Scheduler
	if cfg.PartyHallReminderCron != "" {
		sched, err = scheduler.New(cfg.PartyHallReminderCron, cfg.Timezone, svc)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to schedule party hall reminders")
		}
		sched.Start()
		log.Info().Str("spec", cfg.PartyHallReminderCron).Msg("party hall reminders scheduled")
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("addr", server.Addr).Str("version", version).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	if sched != nil {
		sched.Stop(shutdownCtx)
	}
	hub.Close()
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("tracing shutdown")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info().Msg("server stopped")
}
