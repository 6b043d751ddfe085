package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	ahttp "github.com/radieske/agora-market-poc/internal/agora-api/http"
	"github.com/radieske/agora-market-poc/internal/agora-api/notify"
	"github.com/radieske/agora-market-poc/internal/agora-api/producer"
	"github.com/radieske/agora-market-poc/internal/agora-api/simulator"
	"github.com/radieske/agora-market-poc/internal/agora-api/ws"
	"github.com/radieske/agora-market-poc/internal/betting"
	"github.com/radieske/agora-market-poc/internal/counter"
	"github.com/radieske/agora-market-poc/internal/game"
	sharedcache "github.com/radieske/agora-market-poc/internal/shared/cache"
	"github.com/radieske/agora-market-poc/internal/shared/config"
	"github.com/radieske/agora-market-poc/internal/shared/db"
	skafka "github.com/radieske/agora-market-poc/internal/shared/kafka"
	"github.com/radieske/agora-market-poc/internal/shared/logger"
	"github.com/radieske/agora-market-poc/internal/shared/metrics"
	"github.com/radieske/agora-market-poc/internal/state"
	"github.com/radieske/agora-market-poc/internal/state/repo"
	"github.com/radieske/agora-market-poc/internal/wallet"
)

type publisher interface {
	Publish(ctx context.Context, typ, key string, payload any) error
	Close() error
}

func main() {
	cfg := config.Load()
	if cfg.ServiceName == "" {
		cfg.ServiceName = "agora-api"
	}
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Sinalização para shutdown gracioso (SIGINT/SIGTERM)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.NewAgora(prometheus.DefaultRegisterer)

	// Redis entra tanto como backend quanto para o fan-out das notificações
	var rdb *redis.Client
	if cfg.StateBackend == config.BackendRedis || cfg.RedisPubSubChannel != "" && cfg.RedisAddr != "" {
		rdb, err = sharedcache.ConnectRedis(ctx, cfg.RedisAddr)
		if err != nil {
			if cfg.StateBackend == config.BackendRedis {
				log.Fatal("redis connect", zap.Error(err))
			}
			log.Warn("redis unavailable, notifications stay local", zap.Error(err))
			rdb = nil
		} else {
			defer rdb.Close()
		}
	}

	var pg *sql.DB
	var persister state.Persister
	switch cfg.StateBackend {
	case config.BackendPostgres:
		pg, err = db.ConnectPostgres(cfg.PostgresDSN)
		if err != nil {
			log.Fatal("postgres connect", zap.Error(err))
		}
		defer pg.Close()
		if err := db.Migrate(ctx, pg); err != nil {
			log.Fatal("postgres migrate", zap.Error(err))
		}
		persister = repo.NewPostgres(pg)
	case config.BackendRedis:
		persister = repo.NewRedis(rdb)
	default:
		persister = repo.NewMemory()
	}

	store := state.New(log, persister, cfg.StateKey)
	store.OnPersistError = m.IncPersistError
	if err := store.Load(ctx); err != nil {
		log.Fatal("state load", zap.Error(err))
	}
	log.Info("state loaded", zap.String("backend", cfg.StateBackend), zap.String("key", cfg.StateKey))

	// Eventos de domínio no Kafka (opcional)
	var pub publisher = producer.Nop{}
	if cfg.KafkaBrokers != "" {
		kp := producer.NewKafkaPublisher(skafka.NewWriter(cfg.KafkaBrokers, cfg.TopicEvents))
		kp.OnError = m.IncPublishError
		pub = kp
		log.Info("kafka publisher enabled", zap.String("topic", cfg.TopicEvents))
	}
	defer pub.Close()

	// WebSocket hub; em produção restrinja a origem
	hub := ws.NewHub(log, func(r *http.Request) bool { return true })
	hub.OnClients = m.AddWSClients

	nopts := []notify.Option{notify.WithMetrics(m)}
	if rdb != nil {
		nopts = append(nopts, notify.WithRedis(rdb, cfg.RedisPubSubChannel))
		ws.StartRedisSubscriber(ctx, log, rdb, cfg.RedisPubSubChannel, hub)
	}
	notifier := notify.New(log, store, hub, nopts...)

	if cfg.FeedSimulator {
		feed := &simulator.Feed{Log: log, Notifier: notifier, Interval: cfg.FeedInterval}
		go feed.Run(ctx)
	}

	api := ahttp.NewServer(log, ahttp.Deps{
		Store: store,
		Bets: betting.NewService(log, store,
			betting.WithPublisher(pub), betting.WithNotifier(notifier), betting.WithMetrics(m)),
		Wallet: wallet.NewService(log, store,
			wallet.WithPublisher(pub), wallet.WithNotifier(notifier), wallet.WithMetrics(m)),
		Counter: counter.NewService(log, store,
			counter.WithPublisher(pub), counter.WithNotifier(notifier)),
		Game: game.NewEngine(log, store, nil,
			game.WithPublisher(pub), game.WithMetrics(m)),
		WS: hub.HandleWS,
	})
	apiSrv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// metrics/health
	msrv := metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if pg != nil {
			if err := pg.PingContext(ctx); err != nil {
				return fmt.Errorf("pg: %w", err)
			}
		}
		if rdb != nil {
			if err := rdb.Ping(ctx).Err(); err != nil {
				return fmt.Errorf("redis: %w", err)
			}
		}
		return nil
	})
	log.Info("metrics/health listening", zap.String("addr", msrv.Addr))

	go func() {
		log.Info("agora-api listening", zap.String("addr", apiSrv.Addr))
		if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("api", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = apiSrv.Shutdown(shCtx)
	_ = msrv.Shutdown(shCtx)

	// entrega as notificações já agendadas antes de fechar o publisher
	notifier.Wait()
	log.Info("agora-api stopped")
}
