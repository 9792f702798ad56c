package petoneer

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

// Publisher publishes fountain status snapshots.
type Publisher interface {
	Publish(status DeviceStatus) error
	Close() error
}

// PublisherConfig configures the MQTT publisher.
type PublisherConfig struct {
	Broker      string
	TopicPrefix string
	ClientID    string
}

// StatusTopic returns <prefix>/<serial>/status.
func StatusTopic(prefix, serial string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = "petoneer"
	}
	return prefix + "/" + serial + "/status"
}

// FormatPayload encodes a status snapshot for publishing.
func FormatPayload(status DeviceStatus) ([]byte, error) {
	return json.Marshal(status)
}

// MQTTPublisher publishes to an MQTT broker. Messages are QoS 1 and retained
// so subscribers see the last known state on connect.
type MQTTPublisher struct {
	client paho.Client
	prefix string
}

func NewMQTTPublisher(cfg PublisherConfig) (*MQTTPublisher, error) {
	if strings.TrimSpace(cfg.Broker) == "" {
		return nil, argumentError("NewMQTTPublisher", "broker", "broker address cannot be blank")
	}
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "petoneer-" + uuid.NewString()
	}

	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(10 * time.Second)

	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("connect to broker %s: timeout", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	return &MQTTPublisher{client: client, prefix: cfg.TopicPrefix}, nil
}

func (p *MQTTPublisher) Publish(status DeviceStatus) error {
	payload, err := FormatPayload(status)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}

	token := p.client.Publish(StatusTopic(p.prefix, status.Serial), 1, true, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

func (p *MQTTPublisher) Close() error {
	p.client.Disconnect(1000)
	return nil
}

// FakePublisher records published snapshots for test assertions.
type FakePublisher struct {
	Prefix   string
	Topics   []string
	Payloads [][]byte

	// PublishError, if set, is returned by Publish.
	PublishError error
	Closed       bool
}

func (f *FakePublisher) Publish(status DeviceStatus) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	payload, err := FormatPayload(status)
	if err != nil {
		return err
	}
	f.Topics = append(f.Topics, StatusTopic(f.Prefix, status.Serial))
	f.Payloads = append(f.Payloads, payload)
	return nil
}

func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}
