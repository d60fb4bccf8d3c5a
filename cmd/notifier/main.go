package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/detygon/evolution-notify/internal/api"
	"github.com/detygon/evolution-notify/internal/channel"
	"github.com/detygon/evolution-notify/internal/common"
	"github.com/detygon/evolution-notify/internal/dispatch"
	"github.com/detygon/evolution-notify/internal/evolution"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := common.LoadConfig("whatsapp-notifier")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := common.NewLogger(cfg.ServiceName)
	shutdown, err := common.SetupOTel(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialise telemetry")
	}
	defer common.ShutdownTelemetry(context.Background(), shutdown)

	metricsSrv := common.StartMetricsServer(cfg.MetricsPort)
	defer metricsSrv.Shutdown(context.Background())

	client := evolution.NewClient(cfg.EvolutionBaseURL, cfg.EvolutionAPIKey, cfg.EvolutionTimeout, logger)
	ch := &channel.Channel{
		Instances: &evolution.Manager{Client: client, Default: cfg.DefaultInstance},
		Resolver: &channel.PhoneResolver{Policy: channel.NumberPolicy{
			CountryPrefix: cfg.CountryPrefix,
			LocalDigits:   cfg.LocalDigits,
		}},
		Router: &dispatch.Router{Logger: logger},
		Logger: logger,
	}

	h := api.NewHandler(ch, logger)

	srv := &http.Server{
		Addr:    ":" + strconv.Itoa(cfg.HTTPPort),
		Handler: h.Router(),
	}

	go func() {
		logger.Info().Int("port", cfg.HTTPPort).Msg("whatsapp notifier listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}
