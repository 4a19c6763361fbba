package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goudatijdmachine/filiatie/internal/config"
	"github.com/goudatijdmachine/filiatie/internal/explorer"
	"github.com/goudatijdmachine/filiatie/internal/queue"
	"github.com/goudatijdmachine/filiatie/internal/storage"
	"github.com/goudatijdmachine/filiatie/internal/util"
	"github.com/goudatijdmachine/filiatie/pkg/logger"
	"github.com/goudatijdmachine/filiatie/pkg/logger/console"
	"github.com/goudatijdmachine/filiatie/pkg/sparql"
	"github.com/goudatijdmachine/filiatie/pkg/store"

	_ "github.com/goudatijdmachine/filiatie/pkg/store/memory"
	_ "github.com/goudatijdmachine/filiatie/pkg/store/pgx"
	_ "github.com/goudatijdmachine/filiatie/pkg/store/sqlite"
)

func main() {
	util.LoadEnv()

	cfg, err := config.Load()
	if err != nil {
		logger.Init(console.NewConsoleLogger(console.ConsoleLoggerParams{}))
		logger.Fatal("Invalid configuration", "err", err)
	}

	// logger
	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: cfg.Debug,
		JSON:  cfg.LogJSON,
	})
	logger.Init(consoleLogger)

	if !cfg.ExportsEnabled() {
		logger.Fatal("Worker needs RABBITMQ_HOST and AWS_BUCKET")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var exec sparql.Executor = sparql.NewClient(sparql.ClientParams{Timeout: cfg.SPARQLTimeout})
	if cfg.CacheDSN != "" {
		cache, err := store.Open(ctx, cfg.CacheDSN)
		if err != nil {
			logger.Fatal("Failed to open response cache", "err", err)
		}
		defer cache.Close()
		exec = store.NewCachingExecutor(exec, cache, cfg.CacheTTL)
	}
	exp := explorer.New(exec, cfg.Endpoints())

	// Init s3 client
	client, err := storage.NewS3Client(ctx, cfg.S3)
	if err != nil {
		logger.Fatal("Failed to create S3 client", "err", err)
	}
	bucket, err := storage.NewBucket(client, cfg.S3)
	if err != nil {
		logger.Fatal("Failed to create S3 bucket", "err", err)
	}

	// Init rabbitmq
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

	// One export at a time.
	if err := ch.Qos(1, 0, false); err != nil {
		logger.Fatal("Failed to set QoS", "err", err)
	}

	msgs, err := ch.Consume(
		queue.ExportQueue,
		queue.ExportQueue+"_consumer",
		false, // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,   // args
	)
	if err != nil {
		logger.Fatal("Failed to start consuming", "queue", queue.ExportQueue, "err", err)
	}

	logger.Info("Listening for messages", "queue", queue.ExportQueue)

	for {
		select {
		case <-ctx.Done():
			logger.Info("Shutdown signal received, exiting...")
			return
		case msg, ok := <-msgs:
			if !ok {
				logger.Info("Message channel closed", "queue", queue.ExportQueue)
				return
			}

			startTime := time.Now()
			logger.Info("Received message", "queue", queue.ExportQueue)

			if err := queue.ProcessExport(ctx, exp, bucket, msg.Body); err != nil {
				logger.Error("Error processing message", "queue", queue.ExportQueue, "retries", queue.Retries(msg), "err", err)
				queue.HandleProcessingError(ch, msg, queue.ExportQueue)
				continue
			}
			if err := msg.Ack(false); err != nil {
				logger.Error("Failed to ack message", "err", err)
			}

			d := time.Since(startTime)
			logger.Info(
				"Message processed successfully",
				"queue", queue.ExportQueue,
				"duration", fmt.Sprintf("%02d:%02d:%02d", int(d.Hours()), int(d.Minutes())%60, int(d.Seconds())%60),
			)
		}
	}
}
