package ingest

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/nav_recorder/internal/navdata"
)

const (
	rmcValid   = "$GPRMC,220516,A,5133.82,N,00042.24,W,173.8,231.8,130694,004.2,W*70"
	rmcVoid    = "$GPRMC,220516,V,5133.82,N,00042.24,W,173.8,231.8,130694,004.2,W*67"
	ggaFix     = "$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*47"
	ggaInvalid = "$GPGGA,123519,4807.038,N,01131.000,E,0,08,0.9,545.4,M,46.9,M,,*46"
	vtg        = "$GPVTG,054.7,T,034.4,M,005.5,N,010.2,K*48"
)

// collector records handled events and fails the ones failOn matches.
type collector struct {
	mu     sync.Mutex
	events []navdata.Event
	failOn func(navdata.Event) bool
}

func (c *collector) Handle(_ context.Context, ev navdata.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failOn != nil && c.failOn(ev) {
		return errors.New("rejected")
	}
	c.events = append(c.events, ev)
	return nil
}

func (c *collector) snapshot() []navdata.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]navdata.Event(nil), c.events...)
}

func TestParseLine_RMCValid(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	events, err := ParseLine(rmcValid+"\r\n", now)
	require.NoError(t, err)
	require.Len(t, events, 2)

	require.Equal(t, navdata.KindPosition, events[0].Kind)
	p, err := events[0].Position.Position()
	require.NoError(t, err)
	assert.InDelta(t, 51.563667, p.Latitude, 1e-5)
	assert.InDelta(t, -0.704, p.Longitude, 1e-5)

	require.Equal(t, navdata.KindSentence, events[1].Kind)
	assert.Equal(t, navdata.SentenceEvent{Type: "RMC", Timestamp: now, Value: rmcValid}, *events[1].Sentence)
}

func TestParseLine_NoFix(t *testing.T) {
	for _, line := range []string{rmcVoid, ggaInvalid, vtg} {
		events, err := ParseLine(line, time.Now())
		require.NoError(t, err, line)
		require.Len(t, events, 1, line)
		assert.Equal(t, navdata.KindSentence, events[0].Kind)
	}
}

func TestParseLine_GGAFix(t *testing.T) {
	events, err := ParseLine(ggaFix, time.Now())
	require.NoError(t, err)
	require.Len(t, events, 2)

	p, err := events[0].Position.Position()
	require.NoError(t, err)
	assert.InDelta(t, 48.1173, p.Latitude, 1e-4)
	assert.InDelta(t, 11.516667, p.Longitude, 1e-5)
	assert.Equal(t, "GGA", events[1].Sentence.Type)
}

func TestParseLine_Skipped(t *testing.T) {
	for _, line := range []string{"", "   ", "garbage", "GPRMC,no,dollar"} {
		events, err := ParseLine(line, time.Now())
		assert.NoError(t, err, line)
		assert.Empty(t, events, line)
	}
}

func TestParseLine_BadChecksum(t *testing.T) {
	_, err := ParseLine(strings.Replace(rmcValid, "*70", "*00", 1), time.Now())
	assert.Error(t, err)
}

func TestNMEAReader_Run(t *testing.T) {
	input := strings.Join([]string{
		"noise",
		rmcValid,
		"$GPRMC,broken",
		vtg,
	}, "\r\n")

	c := &collector{}
	reader := NewNMEAReader(c, nil)
	fixed := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	reader.now = func() time.Time { return fixed }

	require.NoError(t, reader.Run(context.Background(), strings.NewReader(input)))

	events := c.snapshot()
	require.Len(t, events, 3)
	assert.Equal(t, navdata.KindPosition, events[0].Kind)
	assert.Equal(t, "RMC", events[1].Sentence.Type)
	assert.Equal(t, fixed, events[1].Sentence.Timestamp)
	assert.Equal(t, "VTG", events[2].Sentence.Type)
}

func TestNMEAReader_HandlerErrorsDoNotStop(t *testing.T) {
	c := &collector{failOn: func(ev navdata.Event) bool {
		return ev.Kind == navdata.KindSentence && ev.Sentence.Type == "RMC"
	}}
	reader := NewNMEAReader(c, nil)

	require.NoError(t, reader.Run(context.Background(), strings.NewReader(rmcValid+"\n"+vtg+"\n")))

	events := c.snapshot()
	require.Len(t, events, 2)
	assert.Equal(t, navdata.KindPosition, events[0].Kind)
	assert.Equal(t, "VTG", events[1].Sentence.Type)
}

func TestNMEAReader_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := &collector{}
	err := NewNMEAReader(c, nil).Run(ctx, strings.NewReader(rmcValid+"\n"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, c.snapshot())
}
