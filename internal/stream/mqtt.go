// internal/stream/mqtt.go
// Package stream publishes the live breath state to rendering and session
// collaborators over MQTT and WebSocket. It consumes only the read-only
// snapshot surface; no processing state is owned here.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/breathlab/respire/internal/session"
)

// SnapshotFunc supplies the current live state to a publisher.
type SnapshotFunc func() session.Status

// MQTTConfig holds MQTT publisher configuration.
type MQTTConfig struct {
	// Broker is the broker URL (from config: mqtt_broker)
	Broker string
	// ClientID identifies this publisher to the broker
	ClientID string
	// Topic is the state topic (from config: mqtt_topic)
	Topic string
	// IntervalMs is the publish cadence (from config: publish_interval_ms)
	IntervalMs int
}

// MQTTPublisher periodically publishes JSON state snapshots to a topic.
type MQTTPublisher struct {
	client   mqtt.Client
	topic    string
	interval time.Duration
	snapshot SnapshotFunc
}

// NewMQTTPublisher connects to the broker and returns a ready publisher.
func NewMQTTPublisher(cfg MQTTConfig, snapshot SnapshotFunc) (*MQTTPublisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", token.Error())
	}
	log.Printf("stream: connected to MQTT broker at %s", cfg.Broker)

	return &MQTTPublisher{
		client:   client,
		topic:    cfg.Topic,
		interval: time.Duration(cfg.IntervalMs) * time.Millisecond,
		snapshot: snapshot,
	}, nil
}

// Run publishes snapshots until the context is cancelled.
func (p *MQTTPublisher) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			payload, err := json.Marshal(p.snapshot())
			if err != nil {
				log.Printf("stream: snapshot marshal error: %v", err)
				continue
			}
			token := p.client.Publish(p.topic, 0, false, payload)
			token.Wait()
			if token.Error() != nil {
				log.Printf("stream: mqtt publish error: %v", token.Error())
			}
		}
	}
}

// Close disconnects from the broker.
func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
}
