package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"covault/internal/platform/config"
	platformredis "covault/internal/platform/redis"
	"covault/internal/vault/store"
	audit "covault/pkg/platform/audit"
	"covault/pkg/platform/audit/publishers/kafka"
	auditmemory "covault/pkg/platform/audit/store/memory"
)

// openBlobStore builds the backend named by COVAULT_STORE. The returned func
// releases its connections.
func openBlobStore(ctx context.Context, cfg config.Server, log *slog.Logger) (store.BlobStore, func(), error) {
	noop := func() {}
	switch cfg.Store.Backend {
	case config.StorePostgres:
		db, err := sql.Open("postgres", cfg.Store.DatabaseURL)
		if err != nil {
			return nil, noop, fmt.Errorf("open postgres: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, noop, fmt.Errorf("ping postgres: %w", err)
		}
		pg := store.NewPostgres(db)
		if err := pg.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, noop, err
		}
		log.Info("vault store ready", "backend", config.StorePostgres)
		return pg, func() { _ = db.Close() }, nil

	case config.StoreRedis:
		client, err := platformredis.New(ctx, cfg.Redis)
		if err != nil {
			return nil, noop, err
		}
		log.Info("vault store ready", "backend", config.StoreRedis)
		return store.NewRedis(client.Client), func() { _ = client.Close() }, nil

	case config.StoreMinio:
		m, err := store.NewMinio(store.MinioConfig{
			Endpoint:        cfg.Minio.Endpoint,
			AccessKeyID:     cfg.Minio.AccessKey,
			SecretAccessKey: cfg.Minio.SecretKey,
			UseSSL:          cfg.Minio.UseSSL,
			Bucket:          cfg.Minio.Bucket,
		})
		if err != nil {
			return nil, noop, err
		}
		if err := m.EnsureBucket(ctx); err != nil {
			return nil, noop, err
		}
		log.Info("vault store ready", "backend", config.StoreMinio, "bucket", cfg.Minio.Bucket)
		return m, noop, nil

	default:
		log.Warn("using in-memory vault store, state is lost on restart")
		return store.NewInMemory(), noop, nil
	}
}

// openAuditStore returns the Kafka sink when brokers are configured and an
// in-memory store otherwise.
func openAuditStore(ctx context.Context, cfg config.Server, log *slog.Logger) (audit.Store, func(), error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return auditmemory.NewInMemoryStore(), func() {}, nil
	}
	sink, err := kafka.New(cfg.Kafka.Brokers, cfg.Kafka.Topic, kgo.ClientID("covault"))
	if err != nil {
		return nil, func() {}, err
	}
	if err := sink.EnsureTopic(ctx, 1, 1); err != nil {
		sink.Close()
		return nil, func() {}, err
	}
	log.Info("audit sink ready", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	return sink, sink.Close, nil
}
