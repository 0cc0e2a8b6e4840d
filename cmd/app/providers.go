package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/flat-price/internal/domain/predictionform"
	"github.com/yanqian/flat-price/internal/domain/valuation"
	"github.com/yanqian/flat-price/internal/infra/archive"
	"github.com/yanqian/flat-price/internal/infra/config"
	"github.com/yanqian/flat-price/internal/infra/events"
	"github.com/yanqian/flat-price/internal/infra/formstore"
	"github.com/yanqian/flat-price/internal/infra/historyrepo"
	"github.com/yanqian/flat-price/internal/infra/inference"
	"github.com/yanqian/flat-price/internal/infra/predictapi"
	httpiface "github.com/yanqian/flat-price/internal/interface/http"
)

type pinger interface {
	Ping(ctx context.Context) error
}

func provideFormConfig(cfg *config.Config) predictionform.Config {
	return predictionform.Config{
		SessionTTL:     cfg.Form.SessionTTL,
		ToastDuration:  cfg.Form.ToastDuration,
		SubmitGuardTTL: cfg.Form.SubmitGuardTTL,
	}
}

func providePredictClient(cfg *config.Config) *predictapi.Client {
	return predictapi.NewClient(cfg.Predictor.Endpoint, cfg.Predictor.Timeout)
}

func provideValuationConfig(cfg *config.Config) valuation.Config {
	return valuation.Config{
		RecentLimit:    cfg.History.RecentLimit,
		MaxComparables: cfg.History.MaxComparables,
		ArchivePrefix:  cfg.History.ArchivePrefix,
	}
}

func provideFormStore(cfg *config.Config, logger *slog.Logger) (predictionform.Store, func()) {
	noop := func() {}
	if !cfg.Valkey.Enabled {
		logger.Info("valkey disabled, using memory form store")
		return formstore.NewMemoryStore(), noop
	}
	opt, err := buildValkeyOptions(cfg)
	if err != nil {
		logger.Error("invalid valkey configuration, falling back to memory store", "error", err)
		return formstore.NewMemoryStore(), noop
	}
	client, err := valkey.NewClient(opt)
	if err != nil {
		logger.Error("failed to create valkey client, falling back to memory store", "error", err)
		return formstore.NewMemoryStore(), noop
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		logger.Error("valkey ping failed, falling back to memory store", "error", err)
		client.Close()
		return formstore.NewMemoryStore(), noop
	}
	logger.Info("valkey form store enabled", "addr", cfg.Valkey.Addr)
	store := formstore.NewValkeyStore(client, cfg.Valkey.Prefix)
	return store, store.Close
}

func buildValkeyOptions(cfg *config.Config) (valkey.ClientOption, error) {
	if strings.Contains(cfg.Valkey.Addr, "://") {
		return valkey.ParseURL(cfg.Valkey.Addr)
	}
	return valkey.ClientOption{InitAddress: []string{cfg.Valkey.Addr}}, nil
}

func provideHistoryRepository(cfg *config.Config, logger *slog.Logger) (valuation.HistoryRepository, func()) {
	noop := func() {}
	fallback := historyrepo.NewMemoryRepository(cfg.History.MemoryLimit)
	dsn := strings.TrimSpace(cfg.Postgres.DSN)
	if dsn == "" {
		logger.Info("postgres dsn not set, using memory history repository")
		return fallback, noop
	}
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Error("invalid postgres dsn, using memory history repository", "error", err)
		return fallback, noop
	}
	if cfg.Postgres.MaxConns > 0 {
		poolConfig.MaxConns = cfg.Postgres.MaxConns
	}
	if cfg.Postgres.MinConns > 0 {
		poolConfig.MinConns = cfg.Postgres.MinConns
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		logger.Error("failed to initialize postgres pool, using memory history repository", "error", err)
		return fallback, noop
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("postgres ping failed, using memory history repository", "error", err)
		pool.Close()
		return fallback, noop
	}
	repo := historyrepo.NewPostgresRepository(pool)
	if cfg.Postgres.Migrate {
		if err := repo.Migrate(ctx); err != nil {
			logger.Error("postgres migration failed, using memory history repository", "error", err)
			pool.Close()
			return fallback, noop
		}
	}
	logger.Info("postgres history repository enabled")
	return repo, repo.Close
}

func provideSampleArchive(cfg *config.Config, logger *slog.Logger) valuation.SampleArchive {
	if strings.TrimSpace(cfg.Archive.Endpoint) == "" {
		logger.Info("archive endpoint not set, keeping samples in memory")
		return archive.NewMemoryArchive()
	}
	store, err := archive.NewS3Archive(cfg.Archive.Endpoint, cfg.Archive.AccessKey, cfg.Archive.SecretKey, cfg.Archive.Bucket, cfg.Archive.Region, logger)
	if err != nil {
		logger.Error("archive init failed, keeping samples in memory", "error", err)
		return archive.NewMemoryArchive()
	}
	logger.Info("s3 sample archive enabled", "bucket", cfg.Archive.Bucket)
	return store
}

func provideEventPublisher(cfg *config.Config, logger *slog.Logger) (valuation.EventPublisher, func()) {
	if len(cfg.Kafka.Brokers) == 0 {
		logger.Info("kafka brokers not set, logging prediction events")
		return events.NewLogPublisher(logger), func() {}
	}
	publisher, err := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, events.NewKafkaConfig(cfg.Kafka.ClientID), logger)
	if err != nil {
		logger.Error("kafka producer init failed, logging prediction events", "error", err)
		return events.NewLogPublisher(logger), func() {}
	}
	logger.Info("kafka prediction events enabled", "topic", cfg.Kafka.Topic)
	return publisher, func() {
		if err := publisher.Close(); err != nil {
			logger.Error("kafka producer close failed", "error", err)
		}
	}
}

// provideValuationService returns nil when no inference service is configured; the
// HTTP layer then answers the gateway routes with 503. The cleanup drains pending
// history, archive and event writes before their sinks are closed.
func provideValuationService(cfg *config.Config, valuationCfg valuation.Config, history valuation.HistoryRepository, samples valuation.SampleArchive, publisher valuation.EventPublisher, logger *slog.Logger) (valuation.Service, func()) {
	if strings.TrimSpace(cfg.Inference.BaseURL) == "" {
		logger.Info("inference base url not set, prediction gateway disabled")
		return nil, func() {}
	}
	scorer := inference.NewClient(cfg.Inference.BaseURL, cfg.Inference.Timeout)
	svc := valuation.NewService(valuationCfg, scorer, history, samples, publisher, logger)
	return svc, svc.Wait
}

func provideHealthHandler(store predictionform.Store, history valuation.HistoryRepository) *httpiface.HealthHandler {
	var checks []httpiface.ReadinessCheck
	if p, ok := store.(pinger); ok {
		checks = append(checks, httpiface.ReadinessCheck{Name: "valkey", Check: p.Ping})
	}
	if p, ok := history.(pinger); ok {
		checks = append(checks, httpiface.ReadinessCheck{Name: "postgres", Check: p.Ping})
	}
	return httpiface.NewHealthHandler(checks...)
}
