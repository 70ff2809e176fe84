// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/nav_recorder/internal/logging"
	"github.com/relabs-tech/nav_recorder/internal/navdata"
)

// Topics names the MQTT topic of each event kind.
type Topics struct {
	Sentence string
	Position string
}

func (t Topics) byKind() map[navdata.Kind]string {
	return map[navdata.Kind]string{
		navdata.KindSentence: t.Sentence,
		navdata.KindPosition: t.Position,
	}
}

// ConnectMQTT connects to broker and blocks until the connection is up.
func ConnectMQTT(broker, clientID string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetOrderMatters(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", broker, token.Error())
	}
	return client, nil
}

// Subscriber feeds MQTT messages to a Handler.
type Subscriber struct {
	client  mqtt.Client
	topics  Topics
	handler Handler
	logger  *slog.Logger
	ctx     context.Context
}

// Subscribe subscribes to both topics. Events are handled with ctx.
func Subscribe(ctx context.Context, client mqtt.Client, topics Topics, h Handler, logger *slog.Logger) (*Subscriber, error) {
	s := &Subscriber{
		client:  client,
		topics:  topics,
		handler: h,
		logger:  logging.Default(logger).With("component", "mqtt-subscriber"),
		ctx:     ctx,
	}
	for kind, topic := range topics.byKind() {
		token := client.Subscribe(topic, 0, s.onMessage(kind))
		token.Wait()
		if token.Error() != nil {
			return nil, fmt.Errorf("subscribe %s: %w", topic, token.Error())
		}
		s.logger.Info("subscribed", "topic", topic, "kind", kind)
	}
	return s, nil
}

func (s *Subscriber) onMessage(kind navdata.Kind) mqtt.MessageHandler {
	return func(_ mqtt.Client, msg mqtt.Message) {
		if err := s.deliver(kind, msg.Payload()); err != nil {
			s.logger.Warn("event dropped", "topic", msg.Topic(), "kind", kind, "error", err)
		}
	}
}

func (s *Subscriber) deliver(kind navdata.Kind, payload []byte) error {
	ev, err := navdata.Decode(kind, payload)
	if err != nil {
		return err
	}
	return s.handler.Handle(s.ctx, ev)
}

// Unsubscribe removes both subscriptions.
func (s *Subscriber) Unsubscribe() error {
	token := s.client.Unsubscribe(s.topics.Sentence, s.topics.Position)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("unsubscribe: timed out")
	}
	return token.Error()
}

// Publisher is a Handler that publishes events as JSON to their MQTT topic.
// Position updates are retained so new subscribers start from the last fix.
type Publisher struct {
	client mqtt.Client
	topics Topics
}

// NewPublisher returns a Publisher on client.
func NewPublisher(client mqtt.Client, topics Topics) *Publisher {
	return &Publisher{client: client, topics: topics}
}

// Handle publishes ev and waits for the broker.
func (p *Publisher) Handle(ctx context.Context, ev navdata.Event) error {
	topic, ok := p.topics.byKind()[ev.Kind]
	if !ok {
		return fmt.Errorf("publish: no topic for %s", ev.Kind)
	}
	payload, err := navdata.Encode(ev)
	if err != nil {
		return err
	}

	token := p.client.Publish(topic, 0, ev.Kind == navdata.KindPosition, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}
