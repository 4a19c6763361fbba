package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/goudatijdmachine/filiatie/internal/config"
	"github.com/goudatijdmachine/filiatie/internal/explorer"
	"github.com/goudatijdmachine/filiatie/internal/queue"
	"github.com/goudatijdmachine/filiatie/internal/server"
	mid "github.com/goudatijdmachine/filiatie/internal/server/middleware"
	"github.com/goudatijdmachine/filiatie/internal/storage"
	"github.com/goudatijdmachine/filiatie/internal/util"
	"github.com/goudatijdmachine/filiatie/pkg/logger"
	"github.com/goudatijdmachine/filiatie/pkg/logger/console"
	"github.com/goudatijdmachine/filiatie/pkg/sparql"
	"github.com/goudatijdmachine/filiatie/pkg/store"

	_ "github.com/goudatijdmachine/filiatie/pkg/store/memory"
	_ "github.com/goudatijdmachine/filiatie/pkg/store/pgx"
	_ "github.com/goudatijdmachine/filiatie/pkg/store/sqlite"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	util.LoadEnv()

	cfg, err := config.Load()
	if err != nil {
		logger.Init(console.NewConsoleLogger(console.ConsoleLoggerParams{}))
		logger.Fatal("Invalid configuration", "err", err)
	}

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: cfg.Debug,
		JSON:  cfg.LogJSON,
	})
	logger.Init(consoleLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	var exec sparql.Executor = sparql.NewClient(sparql.ClientParams{
		Timeout: cfg.SPARQLTimeout,
		Metrics: sparql.NewMetrics(reg),
	})
	if cfg.CacheDSN != "" {
		cache, err := store.Open(ctx, cfg.CacheDSN)
		if err != nil {
			logger.Fatal("Failed to open response cache", "err", err)
		}
		defer cache.Close()
		exec = store.NewCachingExecutor(exec, cache, cfg.CacheTTL)
		logger.Info("Response cache enabled", "ttl", cfg.CacheTTL)
	}

	app := &mid.App{Explorer: explorer.New(exec, cfg.Endpoints())}

	if cfg.ExportsEnabled() {
		conn, err := queue.Init(cfg.RabbitMQ.URL())
		if err != nil {
			logger.Fatal("Failed to connect to RabbitMQ", "err", err)
		}
		defer conn.Close()

		ch, err := conn.Channel()
		if err != nil {
			logger.Fatal("Failed to open channel", "err", err)
		}
		defer ch.Close()
		if err := queue.SetupQueues(ch, []string{queue.ExportQueue}); err != nil {
			logger.Fatal("Failed to set up queues", "err", err)
		}

		client, err := storage.NewS3Client(ctx, cfg.S3)
		if err != nil {
			logger.Fatal("Failed to create S3 client", "err", err)
		}
		bucket, err := storage.NewBucket(client, cfg.S3)
		if err != nil {
			logger.Fatal("Failed to create S3 bucket", "err", err)
		}

		app.Queue = ch
		app.Bucket = bucket
	} else {
		logger.Info("Exports disabled, RabbitMQ or S3 bucket not configured")
	}

	if err := server.Run(ctx, server.New(app, reg), cfg.Port); err != nil {
		logger.Fatal("Server failed", "err", err)
	}
}
