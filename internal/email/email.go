package email

import (
	"context"

	"github.com/Domenick1991/airticket/internal/kafka"
	"github.com/sirupsen/logrus"
)

// Sender delivers notifications consumed by the worker. Delivery is a
// structured log line until an SMTP relay is configured.
type Sender struct {
	log *logrus.Logger
}

func NewSender(log *logrus.Logger) *Sender {
	return &Sender{log: log}
}

func (s *Sender) Send(ctx context.Context, n kafka.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{
		"notification_id": n.ID,
		"to":              n.To,
		"subject":         n.Subject,
	}).Info("send email")
	return nil
}
