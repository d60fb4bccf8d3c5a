package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/segmentio/kafka-go"

	"github.com/detygon/evolution-notify/internal/channel"
	"github.com/detygon/evolution-notify/internal/common"
	"github.com/detygon/evolution-notify/internal/dispatch"
	"github.com/detygon/evolution-notify/internal/evolution"
	"github.com/detygon/evolution-notify/internal/worker"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := common.LoadConfig("whatsapp-send-worker")
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

	readerFactory := func() *kafka.Reader {
		return kafka.NewReader(kafka.ReaderConfig{
			Brokers: cfg.KafkaBrokers,
			GroupID: cfg.ServiceName,
			Topic:   cfg.SendTopic,
		})
	}

	dlqWriter := &kafka.Writer{
		Addr:     kafka.TCP(cfg.KafkaBrokers...),
		Topic:    cfg.DLQTopic,
		Balancer: &kafka.Hash{},
	}
	defer dlqWriter.Close()

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

	w := worker.Worker{
		ReaderFactory: readerFactory,
		DLQWriter:     dlqWriter,
		Channel:       ch,
		Logger:        logger,
	}

	logger.Info().Str("topic", cfg.SendTopic).Msg("send worker started")
	if err := w.Run(ctx); err != nil {
		logger.Fatal().Err(err).Msg("send worker stopped")
	}
}
