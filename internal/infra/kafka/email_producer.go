package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	TemplateWelcome        = "welcome"
	TemplateOrderConfirmed = "order_confirmed"
)

type EmailMessage struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject"`
	Template string         `json:"template"`
	Data     map[string]any `json:"data"`
}

type EmailSenderInterface interface {
	SendEmail(ctx context.Context, key string, msg EmailMessage) error
}

var (
	_ EmailSenderInterface = (*EmailProducer)(nil)
	_ EmailSenderInterface = NopEmailSender{}
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// EmailProducer queues email requests for the notification consumer.
type EmailProducer struct {
	writer  messageWriter
	timeout time.Duration
}

func NewEmailProducer(brokers []string, topic string) *EmailProducer {
	return &EmailProducer{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.LeastBytes{},
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
		},
		timeout: 5 * time.Second,
	}
}

func (p *EmailProducer) SendEmail(ctx context.Context, key string, msg EmailMessage) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	value, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: value,
		Time:  time.Now().UTC(),
	})
}

func (p *EmailProducer) Close() error {
	return p.writer.Close()
}

type NopEmailSender struct{}

func (NopEmailSender) SendEmail(context.Context, string, EmailMessage) error { return nil }
