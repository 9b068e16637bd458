// Package publish mirrors presence state to an MQTT broker so home
// automation can react to it.
package publish

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	jsoniter "github.com/json-iterator/go"

	"github.com/teslashibe/facelight/internal/log"
	"github.com/teslashibe/facelight/pkg/presence"
)

const (
	publishTimeout    = 5 * time.Second
	disconnectQuiesce = 250 // ms

	availabilityOnline  = "online"
	availabilityOffline = "offline"
)

// Config holds MQTT configuration. An empty Broker disables publishing.
type Config struct {
	Broker      string `json:"broker" validate:"omitempty,url"`
	ClientID    string `json:"client_id" validate:"required_with=Broker"`
	Username    string `json:"username"`
	Password    string `json:"-"`
	TopicPrefix string `json:"topic_prefix" validate:"required_with=Broker"`
	QoS         byte   `json:"qos" validate:"lte=2"`
	Retain      bool   `json:"retain"`
}

// DefaultConfig returns publishing settings with no broker.
func DefaultConfig() Config {
	return Config{
		ClientID:    "facelight",
		TopicPrefix: "facelight",
		QoS:         1,
		Retain:      true,
	}
}

// Enabled reports whether a broker is configured.
func (c Config) Enabled() bool {
	return c.Broker != ""
}

// StateTopic is where snapshots are published.
func (c Config) StateTopic() string {
	return c.TopicPrefix + "/state"
}

// AvailabilityTopic carries "online", or "offline" via the last will.
func (c Config) AvailabilityTopic() string {
	return c.TopicPrefix + "/availability"
}

// Connect opens a broker connection with auto-reconnect and a last will
// that marks the service offline.
func Connect(cfg Config) (mqtt.Client, error) {
	logger := log.With("component", "mqtt")

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetAutoReconnect(true)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetWill(cfg.AvailabilityTopic(), availabilityOffline, cfg.QoS, true)
	opts.SetOnConnectHandler(func(c mqtt.Client) {
		logger.Info("connected", "broker", cfg.Broker)
		c.Publish(cfg.AvailabilityTopic(), cfg.QoS, true, availabilityOnline)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warn("connection lost", "error", err)
	})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connect to MQTT broker %s: %w", cfg.Broker, token.Error())
	}
	return client, nil
}

// Publisher sends state snapshots to the broker from a single goroutine.
type Publisher struct {
	client mqtt.Client
	config Config
	logger *slog.Logger

	queue chan presence.Snapshot
}

// New creates a publisher on an already connected client.
func New(client mqtt.Client, cfg Config) *Publisher {
	return &Publisher{
		client: client,
		config: cfg,
		logger: log.With("component", "mqtt"),
		queue:  make(chan presence.Snapshot, 16),
	}
}

// Observe queues snap for publishing. It never blocks; it is meant to be
// registered with presence.State.Observe.
func (p *Publisher) Observe(snap presence.Snapshot) {
	select {
	case p.queue <- snap:
	default:
		p.logger.Warn("publish queue full, dropping snapshot")
	}
}

// Start publishes queued snapshots until ctx is cancelled.
func (p *Publisher) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case snap := <-p.queue:
			if err := p.Publish(snap); err != nil {
				p.logger.Warn("publish failed", "error", err)
			}
		}
	}
}

// Publish sends one snapshot and waits for the broker to accept it.
func (p *Publisher) Publish(snap presence.Snapshot) error {
	payload, err := jsoniter.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	topic := p.config.StateTopic()
	token := p.client.Publish(topic, p.config.QoS, p.config.Retain, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish %s: timed out after %s", topic, publishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}

	p.logger.Debug("published", "topic", topic, "status", snap.Status)
	return nil
}

// Close marks the service offline and disconnects.
func (p *Publisher) Close() {
	token := p.client.Publish(p.config.AvailabilityTopic(), p.config.QoS, true, availabilityOffline)
	token.WaitTimeout(publishTimeout)
	p.client.Disconnect(disconnectQuiesce)
}
