package notification

import (
	"context"
	"time"

	"github.com/Domenick1991/airticket/internal/kafka"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}

type publisher interface {
	PublishWithRetry(ctx context.Context, topic, key string, payload any, maxRetries int) error
}

// KafkaNotifier hands notifications to the worker through a topic keyed
// by recipient, so messages for one passenger stay ordered.
type KafkaNotifier struct {
	producer publisher
	topic    string
	retries  int
}

func NewKafkaNotifier(producer publisher, topic string) *KafkaNotifier {
	return &KafkaNotifier{producer: producer, topic: topic, retries: 3}
}

func (n *KafkaNotifier) Send(ctx context.Context, to, subject, body string) error {
	msg := kafka.Notification{
		ID:        uuid.NewString(),
		To:        to,
		Subject:   subject,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}
	return n.producer.PublishWithRetry(ctx, n.topic, to, msg, n.retries)
}

// LogNotifier is used when no brokers are configured.
type LogNotifier struct {
	log *logrus.Logger
}

func NewLogNotifier(log *logrus.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Send(_ context.Context, to, subject, _ string) error {
	n.log.WithFields(logrus.Fields{"to": to, "subject": subject}).Info("notification")
	return nil
}

var (
	_ Notifier = (*KafkaNotifier)(nil)
	_ Notifier = (*LogNotifier)(nil)
)
