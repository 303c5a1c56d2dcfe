// Package mqtt mirrors live thermostat events onto an MQTT broker so
// smart-home integrations can consume them without speaking the app API.
package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	"heatbeat/internal/hub"
	"heatbeat/internal/logger"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// Config carries the broker settings from configuration.
type Config struct {
	Enabled     bool   `mapstructure:"enabled"`
	BrokerURL   string `mapstructure:"broker_url"`
	ClientID    string `mapstructure:"client_id"`
	TopicPrefix string `mapstructure:"topic_prefix"`
}

// Bridge republishes hub events to <prefix>/<thermostat_id>/<event_type>.
// Delivery is best-effort at QoS 0: a broker outage never affects the write
// that triggered the event.
type Bridge struct {
	client      paho.Client
	topicPrefix string
	log         *logger.Logger
}

// NewBridge connects to the broker. Auto-reconnect is left to the client so a
// flaky broker does not take the service down with it.
func NewBridge(cfg Config, log *logger.Logger) (*Bridge, error) {
	opts := paho.NewClientOptions().
		AddBroker(cfg.BrokerURL).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)

	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("connect to mqtt broker %s: timeout", cfg.BrokerURL)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to mqtt broker %s: %w", cfg.BrokerURL, err)
	}

	return &Bridge{
		client:      client,
		topicPrefix: cfg.TopicPrefix,
		log:         log,
	}, nil
}

// Publish implements service.Notifier. Failures are logged and dropped.
func (b *Bridge) Publish(thermostatID int, ev hub.Event) {
	topic := fmt.Sprintf("%s/%d/%s", b.topicPrefix, thermostatID, ev.Type)

	payload, err := json.Marshal(ev.Data)
	if err != nil {
		if b.log != nil {
			b.log.Warnw("mqtt_marshal_failed", "topic", topic, "err", err)
		}
		return
	}

	token := b.client.Publish(topic, 0, false, payload)
	go func() {
		token.Wait()
		if err := token.Error(); err != nil && b.log != nil {
			b.log.Warnw("mqtt_publish_failed", "topic", topic, "err", err)
		}
	}()
}

// Close disconnects from the broker, flushing in-flight messages briefly.
func (b *Bridge) Close() {
	b.client.Disconnect(250)
}
