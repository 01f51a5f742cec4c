// Package publish sends decoded messages to an MQTT broker as JSON
// envelopes, one topic per message type.
package publish

import (
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"aisdecode/internal/ais"
)

type Config struct {
	Broker   string
	ClientID string
	// Topic is the base topic; messages go to <Topic>/<type code>.
	Topic string
	QoS   byte
	// PublishTimeout bounds the wait for broker acknowledgement.
	PublishTimeout time.Duration
}

type client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

type Publisher struct {
	cfg    Config
	client client
}

// Connect dials the broker. Paho reconnects on its own after the first
// successful connection.
func Connect(cfg Config) (*Publisher, error) {
	if cfg.Broker == "" {
		return nil, fmt.Errorf("mqtt broker is required")
	}
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(10 * time.Second).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.Printf("mqtt: connection lost broker=%s: %v", cfg.Broker, err)
		}).
		SetOnConnectHandler(func(mqtt.Client) {
			log.Printf("mqtt: connected broker=%s client_id=%s", cfg.Broker, cfg.ClientID)
		})

	c := mqtt.NewClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", cfg.Broker, token.Error())
	}
	return newPublisher(cfg, c), nil
}

func newPublisher(cfg Config, c client) *Publisher {
	if cfg.Topic == "" {
		cfg.Topic = "ais/messages"
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = 2 * time.Second
	}
	return &Publisher{cfg: cfg, client: c}
}

// TopicFor returns the topic m is published on.
func (p *Publisher) TopicFor(m ais.Message) string {
	return fmt.Sprintf("%s/%d", p.cfg.Topic, m.Type())
}

func (p *Publisher) Publish(m ais.Message) error {
	payload, err := ais.MarshalEnvelope(m)
	if err != nil {
		return fmt.Errorf("mqtt encode type=%d mmsi=%d: %w", m.Type(), m.SourceMMSI(), err)
	}
	token := p.client.Publish(p.TopicFor(m), p.cfg.QoS, false, payload)
	if !token.WaitTimeout(p.cfg.PublishTimeout) {
		return fmt.Errorf("mqtt publish %s: timed out after %s", p.TopicFor(m), p.cfg.PublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt publish %s: %w", p.TopicFor(m), err)
	}
	return nil
}

func (p *Publisher) Close() {
	if p == nil || p.client == nil {
		return
	}
	p.client.Disconnect(250)
}
