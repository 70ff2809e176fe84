package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/nav_recorder/internal/ingest"
	"github.com/relabs-tech/nav_recorder/internal/logging"
	"github.com/relabs-tech/nav_recorder/internal/navdata"
	"github.com/relabs-tech/nav_recorder/internal/recorder"
)

func newTestServer(t *testing.T) (*httptest.Server, *recorder.Recorder) {
	t.Helper()
	reg := prometheus.NewRegistry()
	rec, err := recorder.Bootstrap(context.Background(), recorder.Deps{
		Config:     recorder.StoreConfig{Enabled: false},
		Registerer: reg,
	})
	require.NoError(t, err)

	srv := httptest.NewServer(NewWebHandler(rec, rec, reg, logging.Discard()))
	t.Cleanup(srv.Close)
	return srv, rec
}

func getPosition(t *testing.T, srv *httptest.Server) positionResponse {
	t.Helper()
	resp, err := http.Get(srv.URL + "/api/position")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out positionResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestWeb_PositionDefaultsToOrigin(t *testing.T) {
	srv, _ := newTestServer(t)
	p := getPosition(t, srv)
	assert.False(t, p.Updated)
	assert.Equal(t, navdata.Position{}, p.Position)
}

func TestWeb_WebSocketUpdatesPosition(t *testing.T) {
	srv, _ := newTestServer(t)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/events", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage,
		[]byte(`{"event":"updateposition","data":{"vessel":{"geojson":{"coordinates":[10.5,54.25]}}}}`)))
	var ack ingest.Ack
	require.NoError(t, conn.ReadJSON(&ack))
	require.True(t, ack.OK, ack.Error)

	p := getPosition(t, srv)
	assert.True(t, p.Updated)
	assert.Equal(t, navdata.Position{Latitude: 54.25, Longitude: 10.5}, p.Position)
}

func TestWeb_HealthAndMetrics(t *testing.T) {
	srv, rec := newTestServer(t)
	require.NoError(t, rec.Handle(context.Background(),
		navdata.NewPosition(navdata.NewPositionUpdate(navdata.Position{Latitude: 1, Longitude: 2}))))

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "ok", string(body))

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(body), `navrecorder_events_total{kind="position"} 1`)
	assert.Contains(t, string(body), "navrecorder_position_latitude 1")
}

func TestServeHTTP_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	srv := &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()}

	done := make(chan error, 1)
	go func() { done <- serveHTTP(ctx, srv, logging.Discard()) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestConsolePrinter(t *testing.T) {
	var buf bytes.Buffer
	p := consolePrinter{w: &buf}
	ctx := context.Background()

	require.NoError(t, p.Handle(ctx, navdata.NewPosition(navdata.NewPositionUpdate(navdata.Position{Latitude: 54.3, Longitude: 10.1}))))
	require.NoError(t, p.Handle(ctx, navdata.NewSentence(navdata.SentenceEvent{
		Type:      "RMC",
		Timestamp: time.Date(2024, 5, 1, 12, 30, 15, 0, time.UTC),
		Value:     "$GPRMC",
	})))

	assert.Equal(t,
		"[POS ] lat=54.300000 lon=10.100000\n[RMC ] time=12:30:15.000 value=$GPRMC\n",
		buf.String())

	assert.Error(t, p.Handle(ctx, navdata.NewPosition(navdata.PositionUpdate{})))
}
