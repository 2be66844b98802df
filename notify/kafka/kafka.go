// Package kafka publishes goCred notifications as JSON events so an external
// delivery service can send them. Publishing is synchronous: a broker error
// is returned to the engine as a delivery failure.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/IBM/sarama"
	"github.com/MrEthical07/goCred/account"
	"github.com/MrEthical07/goCred/notify"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const schemaVersion = "1.0"

const (
	EventOTP               = "gocred.notification.otp"
	EventResetLink         = "gocred.notification.reset_link"
	EventResetConfirmation = "gocred.notification.reset_confirmation"
	EventPasswordChanged   = "gocred.notification.password_changed"
	EventVerification      = "gocred.notification.verification"
	EventWelcome           = "gocred.notification.welcome"
)

// Config selects brokers and the destination topic.
type Config struct {
	Brokers     []string
	Topic       string
	ClientID    string
	Compression bool
}

// NewSyncProducer builds a producer that waits for the partition leader.
func NewSyncProducer(cfg Config) (sarama.SyncProducer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Version = sarama.V3_5_0_0
	if cfg.ClientID != "" {
		saramaConfig.ClientID = cfg.ClientID
	}

	saramaConfig.Producer.RequiredAcks = sarama.WaitForLocal
	if cfg.Compression {
		saramaConfig.Producer.Compression = sarama.CompressionSnappy
	}
	saramaConfig.Producer.Retry.Max = 3
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Return.Errors = true

	saramaConfig.Metadata.Retry.Max = 3
	saramaConfig.Metadata.Retry.Backoff = 250 * time.Millisecond

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return producer, nil
}

// Publisher implements notify.Notifier over a Kafka topic.
type Publisher struct {
	producer sarama.SyncProducer
	topic    string
	logger   *zap.Logger
	now      func() time.Time
}

func NewPublisher(producer sarama.SyncProducer, topic string, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if topic == "" {
		topic = "gocred.notifications"
	}
	return &Publisher{producer: producer, topic: topic, logger: logger.Named("kafka"), now: time.Now}
}

type envelope struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	AccountID string    `json:"account_id"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Payload   payload   `json:"payload"`
}

type payload struct {
	Channel     string     `json:"channel"`
	Recipient   string     `json:"recipient"`
	DisplayName string     `json:"display_name,omitempty"`
	Code        string     `json:"code,omitempty"`
	Token       string     `json:"token,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

func (p *Publisher) publish(ctx context.Context, eventType string, acct *account.Account, pl payload) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	pl.DisplayName = acct.DisplayName()
	accountID := strconv.FormatInt(acct.ID, 10)

	data, err := json.Marshal(envelope{
		EventID:   uuid.NewString(),
		EventType: eventType,
		AccountID: accountID,
		Timestamp: p.now().UTC(),
		Version:   schemaVersion,
		Payload:   pl,
	})
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	partition, offset, err := p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(accountID),
		Value: sarama.ByteEncoder(data),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(eventType)},
		},
	})
	if err != nil {
		p.logger.Error("kafka publish failed",
			zap.Error(err),
			zap.String("event_type", eventType),
			zap.String("account_id", accountID),
		)
		return fmt.Errorf("publish %s: %w", eventType, err)
	}
	p.logger.Debug("kafka event published",
		zap.String("event_type", eventType),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset),
	)
	return nil
}

func (p *Publisher) SendOTP(ctx context.Context, acct *account.Account, channel account.Channel, code string, expiry time.Time) error {
	recipient := acct.Email
	if channel == account.ChannelSMS {
		if strings.TrimSpace(acct.PhoneNumber) == "" {
			return notify.ErrChannelUnavailable
		}
		recipient = acct.PhoneNumber
	}
	exp := expiry.UTC()
	return p.publish(ctx, EventOTP, acct, payload{Channel: string(channel), Recipient: recipient, Code: code, ExpiresAt: &exp})
}

func (p *Publisher) SendResetLink(ctx context.Context, acct *account.Account, token string, expiry time.Time) error {
	exp := expiry.UTC()
	return p.publish(ctx, EventResetLink, acct, payload{Channel: string(account.ChannelEmail), Recipient: acct.Email, Token: token, ExpiresAt: &exp})
}

func (p *Publisher) SendResetConfirmation(ctx context.Context, acct *account.Account) error {
	return p.publish(ctx, EventResetConfirmation, acct, payload{Channel: string(account.ChannelEmail), Recipient: acct.Email})
}

func (p *Publisher) SendPasswordChanged(ctx context.Context, acct *account.Account) error {
	return p.publish(ctx, EventPasswordChanged, acct, payload{Channel: string(account.ChannelEmail), Recipient: acct.Email})
}

func (p *Publisher) SendVerification(ctx context.Context, acct *account.Account, token string, expiry time.Time) error {
	exp := expiry.UTC()
	return p.publish(ctx, EventVerification, acct, payload{Channel: string(account.ChannelEmail), Recipient: acct.Email, Token: token, ExpiresAt: &exp})
}

func (p *Publisher) SendWelcome(ctx context.Context, acct *account.Account) error {
	return p.publish(ctx, EventWelcome, acct, payload{Channel: string(account.ChannelEmail), Recipient: acct.Email})
}

// Close closes the underlying producer.
func (p *Publisher) Close() error {
	if err := p.producer.Close(); err != nil {
		return fmt.Errorf("close kafka producer: %w", err)
	}
	return nil
}

var _ notify.Notifier = (*Publisher)(nil)
