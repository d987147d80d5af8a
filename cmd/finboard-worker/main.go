package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"finboard/internal/amqp"
	"finboard/internal/cli"
	"finboard/internal/log"
	"finboard/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentWorker)

	logger.Info("Starting finboard-worker", log.FieldOperation, log.OpStartup)

	cfg := cli.LoadAndValidateConfig(logger)
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the alert worker")
		os.Exit(1)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	alertWorker := worker.NewAlertWorker(amqpClient, worker.LogNotifier{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := alertWorker.Run(ctx); err != nil && err != context.Canceled {
			logger.Error("Alert consumption failed", log.FieldError, err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received",
			log.FieldOperation, log.OpShutdown, "signal", sig.String())
	case <-done:
		logger.Info("Consumer stopped")
	}

	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		logger.Warn("Shutdown timeout reached")
	}

	processed, skipped := alertWorker.Stats()
	logger.Info("Worker shutdown complete", "processed", processed, "skipped", skipped)
}
