package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/OFFIS-RIT/coursegraph/internal/app"
	"github.com/OFFIS-RIT/coursegraph/internal/queue"
	"github.com/OFFIS-RIT/coursegraph/internal/storage"
	"github.com/OFFIS-RIT/coursegraph/internal/timing"
	"github.com/OFFIS-RIT/coursegraph/internal/util"
	"github.com/OFFIS-RIT/coursegraph/pkg/leaselock"
	"github.com/OFFIS-RIT/coursegraph/pkg/logger"
	"github.com/OFFIS-RIT/coursegraph/pkg/logger/console"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	util.LoadEnv()
	cfg := app.LoadConfig()

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug:  cfg.Debug,
		JSON:   cfg.LogJSON,
		Prefix: "worker",
	})
	logger.Init(consoleLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	services, err := app.Open(ctx, app.OpenParams{Config: cfg, Extraction: true, Shared: true})
	if err != nil {
		logger.Fatal("Failed to open services", "err", err)
	}
	defer services.Close()

	// Init s3 client
	s3Cfg := storage.LoadS3Config()
	s3Client, err := storage.NewS3Client(ctx, s3Cfg)
	if err != nil {
		logger.Fatal("Failed to create S3 client", "err", err)
	}

	params := queue.NewProcessorParams{
		Ingestor: services.Ingestor,
		Objects:  s3Client,
		Bucket:   s3Cfg.Bucket,
	}
	if cfg.GraphBackend == app.GraphBackendPostgres {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("Unable to connect to database", "err", err)
		}
		defer pool.Close()
		params.Lock = leaselock.New(pool, leaselock.Options{
			TTL:    cfg.GraphLockTTL,
			Wait:   true,
			Jitter: 250 * time.Millisecond,
		})
	}
	processor := queue.NewProcessor(params)

	// Init rabbitmq
	conn, err := queue.Init(queue.URLFromEnv())
	if err != nil {
		logger.Fatal("Failed to connect to rabbitmq", "err", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}
	defer ch.Close()

	if err := queue.SetupQueues(ch, queue.GraphQueue); err != nil {
		logger.Fatal("Failed to declare queues", "err", err)
	}

	// Only one job at a time; a rebuild clears the whole graph.
	if err := ch.Qos(1, 0, false); err != nil {
		logger.Fatal("Failed to set QoS", "err", err)
	}

	msgs, err := ch.Consume(
		queue.GraphQueue,
		queue.GraphQueue+"_consumer",
		false, // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,   // args
	)
	if err != nil {
		logger.Fatal("Failed to start consuming", "queue", queue.GraphQueue, "err", err)
	}

	logger.Info("Listening for messages", "queue", queue.GraphQueue)
	for {
		select {
		case <-ctx.Done():
			logger.Info("Shutdown signal received, exiting...")
			return
		case msg, ok := <-msgs:
			if !ok {
				logger.Info("Message channel closed", "queue", queue.GraphQueue)
				return
			}

			startTime := time.Now()
			logger.Info("Received message", "queue", queue.GraphQueue)

			if _, err := processor.ProcessGraphMessage(ctx, msg.Body); err != nil {
				logger.Error("Error processing message", "queue", queue.GraphQueue, "err", err)
				queue.HandleProcessingError(ctx, ch, msg, queue.GraphQueue, err)
			} else {
				if err := msg.Ack(false); err != nil {
					logger.Error("Failed to ack message", "err", err)
				}
				logger.Info("Message processed successfully", "queue", queue.GraphQueue)
			}

			if services.AI != nil {
				timing.LogAIMetrics(services.AI.GetMetrics())
				services.AI.ResetMetrics()
			}
			timing.LogJob(queue.GraphQueue, startTime)
			logger.Info("Waiting for next message")
		}
	}
}
