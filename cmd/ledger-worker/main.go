package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/agora-market-poc/internal/ledger"
	"github.com/radieske/agora-market-poc/internal/shared/config"
	"github.com/radieske/agora-market-poc/internal/shared/db"
	skafka "github.com/radieske/agora-market-poc/internal/shared/kafka"
	"github.com/radieske/agora-market-poc/internal/shared/logger"
	"github.com/radieske/agora-market-poc/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	if cfg.ServiceName == "" {
		cfg.ServiceName = "ledger-worker"
	}
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if cfg.KafkaBrokers == "" {
		log.Fatal("KAFKA_BROKERS is required")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()
	if err := db.Migrate(ctx, pg); err != nil {
		log.Fatal("postgres migrate", zap.Error(err))
	}
	repo := ledger.NewPostgresRepo(pg)

	if counts, err := repo.CountByType(ctx); err == nil {
		for typ, n := range counts {
			log.Info("ledger backlog", zap.String("type", typ), zap.Int64("count", n))
		}
	}

	// consumer group ledger-worker
	reader := skafka.NewReader(cfg.KafkaBrokers, cfg.TopicEvents, "ledger-worker")
	defer reader.Close()
	dlq := skafka.NewWriter(cfg.KafkaBrokers, cfg.TopicEventsDLQ)
	defer dlq.Close()

	m := metrics.NewLedger(prometheus.DefaultRegisterer)
	proc := &ledger.Processor{
		Log:        log,
		Reader:     reader,
		Repo:       repo,
		DLQ:        dlq,
		Retries:    3,
		Backoff:    200 * time.Millisecond,
		OnConsumed: func(typ string) { m.Consumed.WithLabelValues(typ).Inc() },
		OnPersist:  func() { m.Persisted.Inc() },
		OnError:    func(phase string) { m.Errors.WithLabelValues(phase).Inc() },
		OnDLQ:      func() { m.DLQ.Inc() },
	}

	msrv := metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		return pg.PingContext(ctx)
	})
	defer msrv.Close()

	log.Info("ledger-worker started", zap.String("topic", cfg.TopicEvents))
	if err := proc.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("processor stopped with error", zap.Error(err))
	}
	log.Info("ledger-worker stopped")
}
