/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package eventbus relays DJ events between instances over NATS.
package eventbus

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/friendsincode/airwave/internal/events"
)

// NATSConfig contains NATS connection configuration.
type NATSConfig struct {
	URL           string
	Token         string
	SubjectPrefix string

	MaxReconnects int
	ReconnectWait time.Duration
	Timeout       time.Duration
}

// DefaultNATSConfig returns default NATS configuration.
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:           nats.DefaultURL,
		SubjectPrefix: "airwave.events",
		MaxReconnects: -1, // Unlimited
		ReconnectWait: 2 * time.Second,
		Timeout:       5 * time.Second,
	}
}

// NATSBridge publishes local events to NATS and replays events from other
// nodes onto the local bus. It satisfies events.Publisher.
type NATSBridge struct {
	conn   *nats.Conn
	local  *events.Bus
	prefix string
	nodeID string
	logger zerolog.Logger

	mu  sync.Mutex
	sub *nats.Subscription
}

// NewNATSBridge connects to cfg.URL. Callers fall back to the local bus
// when it fails.
func NewNATSBridge(cfg NATSConfig, local *events.Bus, logger zerolog.Logger) (*NATSBridge, error) {
	if cfg.SubjectPrefix == "" {
		cfg.SubjectPrefix = DefaultNATSConfig().SubjectPrefix
	}
	b := newBridge(cfg.SubjectPrefix, local, logger)

	opts := []nats.Option{
		nats.Name("airwave-" + b.nodeID),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.Timeout),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				b.logger.Warn().Err(err).Msg("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			b.logger.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}
	if cfg.Token != "" {
		opts = append(opts, nats.Token(cfg.Token))
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	b.conn = conn

	b.logger.Info().Str("url", cfg.URL).Str("node_id", b.nodeID).Msg("NATS event bridge connected")
	return b, nil
}

func newBridge(prefix string, local *events.Bus, logger zerolog.Logger) *NATSBridge {
	nodeID := generateNodeID()
	return &NATSBridge{
		local:  local,
		prefix: prefix,
		nodeID: nodeID,
		logger: logger.With().Str("component", "eventbus").Str("node_id", nodeID).Logger(),
	}
}

// Start subscribes to every DJ event subject.
func (b *NATSBridge) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sub != nil {
		return nil
	}
	sub, err := b.conn.Subscribe(b.prefix+".>", b.handle)
	if err != nil {
		return fmt.Errorf("subscribe %s.>: %w", b.prefix, err)
	}
	b.sub = sub
	return nil
}

// Publish delivers locally and forwards to NATS.
func (b *NATSBridge) Publish(eventType events.EventType, payload events.Payload) {
	b.local.Publish(eventType, payload)

	if b.conn == nil {
		return
	}
	data, err := marshalNATSMessage(eventType, payload, b.nodeID)
	if err != nil {
		b.logger.Error().Err(err).Msg("failed to marshal NATS message")
		return
	}
	if err := b.conn.Publish(b.subject(eventType), data); err != nil {
		b.logger.Warn().Err(err).Str("event_type", string(eventType)).Msg("failed to publish to NATS")
	}
}

// handle replays events published by other nodes.
func (b *NATSBridge) handle(msg *nats.Msg) {
	m, err := unmarshalNATSMessage(msg.Data)
	if err != nil {
		b.logger.Error().Err(err).Str("subject", msg.Subject).Msg("failed to unmarshal NATS message")
		return
	}
	if m.NodeID == b.nodeID {
		return
	}
	if want := b.subject(m.EventType); want != msg.Subject {
		b.logger.Debug().Str("subject", msg.Subject).Str("event_type", string(m.EventType)).Msg("subject mismatch, dropping")
		return
	}

	b.local.Publish(m.EventType, m.Payload)
	b.logger.Debug().
		Str("event_type", string(m.EventType)).
		Str("source_node", m.NodeID).
		Msg("relayed remote event")
}

func (b *NATSBridge) subject(t events.EventType) string {
	return b.prefix + "." + strings.ReplaceAll(string(t), ".", "_")
}

// Close drains the subscription and closes the connection.
func (b *NATSBridge) Close() error {
	if b.conn == nil {
		return nil
	}
	b.logger.Info().Msg("closing NATS event bridge")
	return b.conn.Drain()
}

// natsMessage represents a message published to NATS.
type natsMessage struct {
	EventType events.EventType `json:"event_type"`
	Payload   events.Payload   `json:"payload"`
	Timestamp time.Time        `json:"timestamp"`
	NodeID    string           `json:"node_id"`
	MessageID string           `json:"message_id"`
}

func marshalNATSMessage(eventType events.EventType, payload events.Payload, nodeID string) ([]byte, error) {
	msg := natsMessage{
		EventType: eventType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
		NodeID:    nodeID,
		MessageID: uuid.NewString(),
	}
	return json.Marshal(msg)
}

func unmarshalNATSMessage(data []byte) (*natsMessage, error) {
	var msg natsMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("unmarshal nats message: %w", err)
	}
	return &msg, nil
}

func generateNodeID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "node"
	}
	return host + "-" + uuid.NewString()[:8]
}
