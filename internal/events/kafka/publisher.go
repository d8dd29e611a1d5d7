// Package kafka публикует события журнала транзакций в kafka.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/fsdevblog/groph-ledger/internal/domain"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// Publisher пишет события асинхронно, ошибки доставки только логируются.
type Publisher struct {
	writer *kafka.Writer
	l      *logrus.Entry
}

func NewPublisher(brokers []string, topic string, l *logrus.Logger) *Publisher {
	entry := l.WithFields(logrus.Fields{
		"component": "events",
		"module":    "kafka",
		"topic":     topic,
	})
	return &Publisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.LeastBytes{},
			Async:                  true,
			AllowAutoTopicCreation: true,
			Completion: func(messages []kafka.Message, err error) {
				if err != nil {
					entry.WithError(err).WithField("messages", len(messages)).Warn("deliver transaction events")
				}
			},
		},
		l: entry,
	}
}

// Publish ставит событие в очередь на отправку. Ключ сообщения id транзакции.
func (p *Publisher) Publish(ctx context.Context, event domain.TransactionCommitted) error {
	msg, err := newMessage(event)
	if err != nil {
		return err
	}
	if writeErr := p.writer.WriteMessages(ctx, msg); writeErr != nil {
		return fmt.Errorf("write transaction %d event: %w", event.TransactionID, writeErr)
	}
	return nil
}

// Close дожидается отправки буферизованных сообщений.
func (p *Publisher) Close() error {
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("close kafka writer: %w", err)
	}
	return nil
}

func newMessage(event domain.TransactionCommitted) (kafka.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal transaction %d event: %w", event.TransactionID, err)
	}
	return kafka.Message{
		Key:   []byte(strconv.FormatInt(event.TransactionID, 10)),
		Value: data,
		Headers: []kafka.Header{
			{Key: "kind", Value: []byte(event.Kind)},
		},
	}, nil
}
