package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/airticket/config"
	"github.com/Domenick1991/airticket/internal/email"
	"github.com/Domenick1991/airticket/internal/kafka"
	"github.com/Domenick1991/airticket/internal/logger"
	"github.com/sirupsen/logrus"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	if len(cfg.Kafka.Brokers) == 0 {
		log.Fatal("kafka.brokers is required for the notification worker")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic, log)
	emailSender := email.NewSender(log)

	done := make(chan error, 1)
	go func() {
		done <- consumer.Consume(ctx, emailSender.Send)
	}()

	log.WithFields(logrus.Fields{
		"topic": cfg.Kafka.NotificationsTopic,
		"group": cfg.Kafka.GroupID,
	}).Info("Notification worker started")

	select {
	case err := <-done:
		if err != nil {
			log.WithError(err).Error("consumer stopped")
		}
	case <-ctx.Done():
		log.Info("Received shutdown signal")
		select {
		case <-done:
		case <-time.After(time.Duration(cfg.Worker.ShutdownTimeoutSeconds) * time.Second):
			log.Warn("consumer did not stop in time")
		}
	}

	if err := consumer.Close(); err != nil {
		log.WithError(err).Warn("close consumer")
	}
	log.Info("Worker exited")
}
