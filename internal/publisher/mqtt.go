package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"remo_dashboard/internal/dashboard"
	"remo_dashboard/internal/logger"

	"github.com/cenkalti/backoff/v4"
	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	defaultPublishTimeout = 5 * time.Second
	connectRetries        = 4
	disconnectQuiesceMs   = 250
)

var errPublishTimeout = errors.New("mqtt publish timed out")

// Client is the part of mqtt.Client the publisher uses.
type Client interface {
	Connect() mqtt.Token
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	IsConnected() bool
	Disconnect(quiesce uint)
}

type Config struct {
	Broker   string // e.g. tcp://localhost:1883
	ClientID string
	Username string
	Password string
	Topic    string
}

// Publisher sends accepted environment samples to an MQTT topic.
type Publisher struct {
	client  Client
	topic   string
	timeout time.Duration
	log     *logger.Logger
}

func NewPublisher(client Client, topic string, log *logger.Logger) *Publisher {
	if log == nil {
		log = logger.Nop()
	}
	return &Publisher{client: client, topic: topic, timeout: defaultPublishTimeout, log: log}
}

// Connect dials the broker, retrying with exponential backoff.
func Connect(ctx context.Context, cfg Config, log *logger.Logger) (*Publisher, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 10 * time.Second

	client, err := dial(ctx, func() Client { return mqtt.NewClient(opts) },
		backoff.WithContext(backoff.WithMaxRetries(bo, connectRetries), ctx), log)
	if err != nil {
		return nil, fmt.Errorf("connect mqtt broker %s: %w", cfg.Broker, err)
	}
	if log != nil {
		log.Infow("mqtt_connected", "broker", cfg.Broker, "topic", cfg.Topic)
	}
	return NewPublisher(client, cfg.Topic, log), nil
}

func dial(ctx context.Context, newClient func() Client, bo backoff.BackOff, log *logger.Logger) (Client, error) {
	var client Client
	err := backoff.Retry(func() error {
		if err := ctx.Err(); err != nil {
			return backoff.Permanent(err)
		}
		c := newClient()
		tok := c.Connect()
		tok.Wait()
		if err := tok.Error(); err != nil {
			if log != nil {
				log.Warnw("mqtt_connect_failed", "err", err)
			}
			return err
		}
		client = c
		return nil
	}, bo)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// PublishSample implements dashboard.SampleSink. QoS 0, not retained.
func (p *Publisher) PublishSample(ctx context.Context, s dashboard.EnvironmentSample) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode sample: %w", err)
	}
	tok := p.client.Publish(p.topic, 0, false, payload)

	timer := time.NewTimer(p.timeout)
	defer timer.Stop()
	select {
	case <-tok.Done():
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return errPublishTimeout
	}
	if err := tok.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", p.topic, err)
	}
	p.log.Debugw("sample_published", "topic", p.topic, "time", s.Time)
	return nil
}

// Close disconnects from the broker.
func (p *Publisher) Close() {
	if p.client.IsConnected() {
		p.client.Disconnect(disconnectQuiesceMs)
		p.log.Infow("mqtt_disconnected")
	}
}
