package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/OFFIS-RIT/coursegraph/internal/app"
	"github.com/OFFIS-RIT/coursegraph/internal/queue"
	"github.com/OFFIS-RIT/coursegraph/internal/server"
	mid "github.com/OFFIS-RIT/coursegraph/internal/server/middleware"
	"github.com/OFFIS-RIT/coursegraph/internal/storage"
	"github.com/OFFIS-RIT/coursegraph/internal/util"
	"github.com/OFFIS-RIT/coursegraph/pkg/logger"
	"github.com/OFFIS-RIT/coursegraph/pkg/logger/console"
)

func main() {
	util.LoadEnv()
	cfg := app.LoadConfig()

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug:  cfg.Debug,
		JSON:   cfg.LogJSON,
		Prefix: "server",
	})
	logger.Init(consoleLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	services, err := app.Open(ctx, app.OpenParams{Config: cfg, Shared: cfg.UploadsEnabled})
	if err != nil {
		logger.Fatal("Failed to open services", "err", err)
	}
	defer services.Close()

	a := &mid.App{
		Graph:    services.Store,
		Answerer: services.Answerer,
		APIKey:   cfg.APIKey,
	}

	if cfg.UploadsEnabled {
		s3Cfg := storage.LoadS3Config()
		s3Client, err := storage.NewS3Client(ctx, s3Cfg)
		if err != nil {
			logger.Fatal("Failed to create S3 client", "err", err)
		}
		a.Uploads = storage.NewUploads(s3Cfg.Bucket, s3Client)

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
		a.Publisher = queue.NewChannelPublisher(ch)
	} else {
		logger.Warn("Uploads disabled, serving questions only")
	}

	e := server.NewEcho(a, cfg.BodyLimit)
	if err := server.Run(ctx, e, cfg.Port); err != nil {
		logger.Error("Server stopped", "err", err)
	}
}
