package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/Domenick1991/airticket/internal/logger"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	failures int
	written  []kafka.Message
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.failures > 0 {
		w.failures--
		return errors.New("broker unavailable")
	}
	w.written = append(w.written, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

type fakeReader struct {
	msgs []kafka.Message
}

func (r *fakeReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.msgs) == 0 {
		return kafka.Message{}, context.Canceled
	}
	m := r.msgs[0]
	r.msgs = r.msgs[1:]
	return m, nil
}

func (r *fakeReader) Close() error { return nil }

func TestProducer_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := &Producer{writer: w, log: logger.Discard()}

	n := Notification{ID: "1", To: "a@example.com", Subject: "Booking confirmed", Body: "12A"}
	require.NoError(t, p.Publish(context.Background(), "booking-notifications", n.To, n))
	require.Len(t, w.written, 1)
	assert.Equal(t, "booking-notifications", w.written[0].Topic)
	assert.Equal(t, []byte("a@example.com"), w.written[0].Key)

	var got Notification
	require.NoError(t, json.Unmarshal(w.written[0].Value, &got))
	assert.Equal(t, n.Subject, got.Subject)
}

func TestProducer_PublishWithRetry(t *testing.T) {
	w := &fakeWriter{failures: 1}
	p := &Producer{writer: w, log: logger.Discard()}

	require.NoError(t, p.PublishWithRetry(context.Background(), "t", "k", Notification{ID: "1"}, 2))
	assert.Len(t, w.written, 1)

	w = &fakeWriter{failures: 5}
	p = &Producer{writer: w, log: logger.Discard()}
	err := p.PublishWithRetry(context.Background(), "t", "k", Notification{ID: "1"}, 1)
	assert.Error(t, err)
	assert.Empty(t, w.written)
}

func TestConsumer_SkipsMalformed(t *testing.T) {
	valid, err := json.Marshal(Notification{ID: "2", To: "b@example.com"})
	require.NoError(t, err)

	c := &Consumer{
		reader: &fakeReader{msgs: []kafka.Message{{Value: []byte("{not json")}, {Value: valid}}},
		log:    logger.Discard(),
	}

	var handled []Notification
	err = c.Consume(context.Background(), func(_ context.Context, n Notification) error {
		handled = append(handled, n)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, handled, 1)
	assert.Equal(t, "b@example.com", handled[0].To)
}

func TestConsumer_StopsOnHandlerError(t *testing.T) {
	valid, err := json.Marshal(Notification{ID: "3"})
	require.NoError(t, err)

	c := &Consumer{reader: &fakeReader{msgs: []kafka.Message{{Value: valid}, {Value: valid}}}, log: logger.Discard()}
	boom := errors.New("smtp down")
	calls := 0
	err = c.Consume(context.Background(), func(context.Context, Notification) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}
