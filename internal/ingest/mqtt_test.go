package ingest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/nav_recorder/internal/navdata"
)

type doneToken struct {
	err error
}

func (t doneToken) Wait() bool                     { return true }
func (t doneToken) WaitTimeout(time.Duration) bool { return true }
func (t doneToken) Error() error                   { return t.err }
func (t doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type published struct {
	topic    string
	retained bool
	payload  []byte
}

// fakeClient implements the parts of mqtt.Client the package uses.
type fakeClient struct {
	mqtt.Client

	mu         sync.Mutex
	handlers   map[string]mqtt.MessageHandler
	published  []published
	publishErr error
	unsubbed   []string
}

func newFakeClient() *fakeClient {
	return &fakeClient{handlers: map[string]mqtt.MessageHandler{}}
}

func (c *fakeClient) Subscribe(topic string, _ byte, cb mqtt.MessageHandler) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[topic] = cb
	return doneToken{}
}

func (c *fakeClient) Unsubscribe(topics ...string) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.unsubbed = append(c.unsubbed, topics...)
	return doneToken{}
}

func (c *fakeClient) Publish(topic string, _ byte, retained bool, payload interface{}) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.published = append(c.published, published{topic: topic, retained: retained, payload: payload.([]byte)})
	return doneToken{err: c.publishErr}
}

// deliver simulates an incoming message.
func (c *fakeClient) deliver(topic, payload string) {
	c.mu.Lock()
	cb := c.handlers[topic]
	c.mu.Unlock()
	cb(c, fakeMessage{topic: topic, payload: []byte(payload)})
}

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 0 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 0 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

var testTopics = Topics{Sentence: "nav/nmea", Position: "nav/position"}

func TestSubscriber_DispatchesByTopic(t *testing.T) {
	client := newFakeClient()
	c := &collector{}
	_, err := Subscribe(context.Background(), client, testTopics, c, nil)
	require.NoError(t, err)

	client.deliver("nav/position", `{"vessel":{"geojson":{"coordinates":[2.0,1.0]}}}`)
	client.deliver("nav/nmea", `{"type":"GPS","timestamp":"2024-05-01T12:00:00Z","value":12.3}`)

	events := c.snapshot()
	require.Len(t, events, 2)
	p, err := events[0].Position.Position()
	require.NoError(t, err)
	assert.Equal(t, navdata.Position{Latitude: 1, Longitude: 2}, p)
	assert.Equal(t, "GPS", events[1].Sentence.Type)
}

func TestSubscriber_BadMessagesAreSkipped(t *testing.T) {
	client := newFakeClient()
	c := &collector{failOn: func(ev navdata.Event) bool {
		return ev.Kind == navdata.KindSentence && ev.Sentence.Value == 1.0
	}}
	_, err := Subscribe(context.Background(), client, testTopics, c, nil)
	require.NoError(t, err)

	client.deliver("nav/nmea", `not json`)
	client.deliver("nav/nmea", `{"type":"GPS","timestamp":"2024-05-01T12:00:00Z","value":1}`)
	client.deliver("nav/nmea", `{"type":"GPS","timestamp":"2024-05-01T12:00:00Z","value":2}`)

	events := c.snapshot()
	require.Len(t, events, 1)
	assert.Equal(t, 2.0, events[0].Sentence.Value)
}

func TestSubscriber_Unsubscribe(t *testing.T) {
	client := newFakeClient()
	s, err := Subscribe(context.Background(), client, testTopics, &collector{}, nil)
	require.NoError(t, err)

	require.NoError(t, s.Unsubscribe())
	assert.ElementsMatch(t, []string{"nav/nmea", "nav/position"}, client.unsubbed)
}

func TestPublisher(t *testing.T) {
	client := newFakeClient()
	p := NewPublisher(client, testTopics)
	ctx := context.Background()

	require.NoError(t, p.Handle(ctx, navdata.NewPosition(navdata.NewPositionUpdate(navdata.Position{Latitude: 1, Longitude: 2}))))
	require.NoError(t, p.Handle(ctx, navdata.NewSentence(navdata.SentenceEvent{
		Type:      "RMC",
		Timestamp: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Value:     rmcValid,
	})))

	require.Len(t, client.published, 2)
	assert.Equal(t, "nav/position", client.published[0].topic)
	assert.True(t, client.published[0].retained)
	assert.JSONEq(t, `{"vessel":{"geojson":{"type":"Point","coordinates":[2,1]}}}`, string(client.published[0].payload))

	assert.Equal(t, "nav/nmea", client.published[1].topic)
	assert.False(t, client.published[1].retained)

	// what the publisher sends, the subscriber reads back
	ev, err := navdata.Decode(navdata.KindSentence, client.published[1].payload)
	require.NoError(t, err)
	assert.Equal(t, "RMC", ev.Sentence.Type)
}

func TestPublisher_Errors(t *testing.T) {
	client := newFakeClient()
	client.publishErr = errors.New("not connected")
	p := NewPublisher(client, testTopics)

	err := p.Handle(context.Background(), navdata.NewSentence(navdata.SentenceEvent{Type: "GPS"}))
	assert.ErrorContains(t, err, "not connected")

	err = p.Handle(context.Background(), navdata.Event{Kind: navdata.Kind(7)})
	assert.Error(t, err)
}
