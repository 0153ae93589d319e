package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/hamed0406/alertledger/internal/config"
	"github.com/hamed0406/alertledger/internal/httpapi"
	apimw "github.com/hamed0406/alertledger/internal/httpapi/middleware"
	"github.com/hamed0406/alertledger/internal/logging"
	"github.com/hamed0406/alertledger/internal/metrics"
	"github.com/hamed0406/alertledger/internal/repo"
	"github.com/hamed0406/alertledger/internal/repo/memory"
	pg "github.com/hamed0406/alertledger/internal/repo/postgres"
	"github.com/hamed0406/alertledger/internal/repo/rediscache"
	"github.com/hamed0406/alertledger/internal/repo/sqlite"
	"github.com/hamed0406/alertledger/internal/scheduler"
	"github.com/hamed0406/alertledger/internal/tasklog"
)

// backend is what every store driver provides.
type backend interface {
	repo.AlertStore
	repo.TaskLog
	repo.AcknowledgementReader
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.NewLogger(cfg.LogDir, cfg.LogLevel, cfg.LogStdout)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, closeDB, err := openBackend(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("store_open_failed", zap.String("driver", cfg.StoreDriver), zap.Error(err))
	}
	defer closeDB()

	var alertsStore repo.AlertStore = db
	if cfg.RedisURL != "" {
		cached, err := rediscache.New(ctx, db, cfg.RedisURL, cfg.CacheTTL, logger)
		if err != nil {
			logger.Warn("redis_cache_disabled", zap.Error(err))
		} else {
			defer cached.Close()
			alertsStore = cached
			logger.Info("redis_cache_enabled", zap.Duration("ttl", cfg.CacheTTL))
		}
	}

	sinks, closeSinks := taskLogSinks(cfg, db, logger)
	defer closeSinks()

	m := metrics.New()

	snap := scheduler.NewSnapshotter(logger, alertsStore, cfg.CacheDir, cfg.SnapshotInterval, m)
	go snap.Run(ctx)

	api := httpapi.NewServer(logger, alertsStore, sinks, db, m, cfg.DefaultUser)
	keys := apimw.Keys{Public: cfg.PublicAPIKeys, Admin: cfg.AdminAPIKeys}
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Router(keys, nil, cfg.PublicRPM, cfg.PublicBurst, cfg.AdminRPM, cfg.AdminBurst),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("api_listen", zap.String("addr", cfg.Addr), zap.String("store", cfg.StoreDriver))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("api_listen_failed", zap.Error(err))
	}
	logger.Info("api_stopped")
}

func openBackend(ctx context.Context, cfg config.Config, logger *zap.Logger) (backend, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		s, err := pg.New(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return nil, nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			s.Close()
			return nil, nil, err
		}
		return s, s.Close, nil
	case config.DriverSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
			return nil, nil, err
		}
		s, err := sqlite.New(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	default:
		return memory.New(), func() {}, nil
	}
}

// taskLogSinks wraps every configured Task Log destination in a Retry so a
// transient failure of one sink does not fail the acknowledgement.
func taskLogSinks(cfg config.Config, db repo.TaskLog, logger *zap.Logger) (tasklog.Multi, func()) {
	retry := func(next repo.TaskLog) repo.TaskLog {
		return tasklog.NewRetry(next, cfg.TaskLogRetries, cfg.TaskLogBackoff, logger)
	}
	closers := []func(){}

	sinks := tasklog.Multi{retry(db)}
	if len(cfg.KafkaBrokers) > 0 {
		k := tasklog.NewKafka(cfg.KafkaBrokers, cfg.KafkaTopic)
		closers = append(closers, func() { _ = k.Close() })
		sinks = append(sinks, retry(k))
		logger.Info("tasklog_kafka_enabled", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopic))
	}
	if s := tasklog.NewSlack(cfg.SlackWebhook); s != nil {
		sinks = append(sinks, retry(s))
	}
	return sinks, func() {
		for _, c := range closers {
			c()
		}
	}
}
