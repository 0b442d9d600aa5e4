package sink

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"network-analyser/internal/config"
	"network-analyser/internal/telemetry"
)

const (
	mqttQoS            = 1
	mqttPublishTimeout = 5 * time.Second
	mqttConnectTimeout = 10 * time.Second
)

// newMQTTClient is replaced in tests.
var newMQTTClient = mqtt.NewClient

// mqttPublisher is the subset of mqtt.Client used by the writer.
type mqttPublisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTWriter publishes each snapshot as JSON to a topic.
type MQTTWriter struct {
	client mqttPublisher
	topic  string
	log    *slog.Logger
}

// NewMQTTWriter connects to cfg.Broker. An empty client id is replaced by
// a random one.
func NewMQTTWriter(cfg config.MQTT, log *slog.Logger) (*MQTTWriter, error) {
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "mqtt", "broker", cfg.Broker)
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "network-analyser-" + uuid.NewString()
	}
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(func(_ mqtt.Client) {
			log.Info("connected to MQTT broker")
		}).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.Warn("MQTT connection lost, reconnecting", "err", err)
		})

	client := newMQTTClient(opts)
	if err := connectMQTT(client, mqttConnectTimeout); err != nil {
		return nil, err
	}
	return &MQTTWriter{client: client, topic: cfg.Topic, log: log}, nil
}

// connectMQTT waits for the first connection. On failure the client is
// disconnected so its retry loop stops.
func connectMQTT(client mqtt.Client, timeout time.Duration) error {
	token := client.Connect()
	if ok := token.WaitTimeout(timeout); !ok {
		client.Disconnect(0)
		return fmt.Errorf("MQTT connect timed out")
	}
	if err := token.Error(); err != nil {
		client.Disconnect(0)
		return fmt.Errorf("MQTT connect failed: %w", err)
	}
	return nil
}

// Write publishes s with QoS 1 and waits for the broker acknowledgement.
func (w *MQTTWriter) Write(s telemetry.Snapshot) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return err
	}
	token := w.client.Publish(w.topic, mqttQoS, false, payload)
	if !token.WaitTimeout(mqttPublishTimeout) {
		return fmt.Errorf("MQTT publish to %s timed out", w.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("MQTT publish to %s: %w", w.topic, err)
	}
	return nil
}

// Close disconnects from the broker when the client supports it.
func (w *MQTTWriter) Close() error {
	if c, ok := w.client.(mqtt.Client); ok {
		c.Disconnect(250)
	}
	return nil
}
