package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/finboard/finboard/internal/events"
)

func dialEventStream(t *testing.T, f *serverFixture, query string) (*websocket.Conn, func()) {
	t.Helper()
	srv := httptest.NewServer(f.server.router)

	url := strings.Replace(srv.URL, "http", "ws", 1) + "/api/events/ws" + query
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)

	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)

	return conn, func() {
		cancel()
		conn.Close(websocket.StatusNormalClosure, "")
		srv.Close()
	}
}

func TestEventsWS_ReceivesPublishedEvents(t *testing.T) {
	f := newTestServer(t)
	conn, cleanup := dialEventStream(t, f, "")
	defer cleanup()

	// The subscription is registered inside the handler goroutine
	require.Eventually(t, func() bool {
		return f.bus.SubscriberCount(events.ChartGenerated) == 1
	}, time.Second, 10*time.Millisecond)

	f.bus.Publish(&events.ChartGeneratedData{RequestID: "req-1", ChartType: "line", Metric: "totalSales"})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var event struct {
		Type events.EventType `json:"type"`
	}
	require.NoError(t, wsjson.Read(ctx, conn, &event))
	assert.Equal(t, events.ChartGenerated, event.Type)
}

func TestEventsWS_TypeFilterSubscribesSelectively(t *testing.T) {
	f := newTestServer(t)
	conn, cleanup := dialEventStream(t, f, "?types=feedback_received")
	defer cleanup()

	require.Eventually(t, func() bool {
		return f.bus.SubscriberCount(events.FeedbackReceived) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, f.bus.SubscriberCount(events.ChartGenerated))
	assert.Equal(t, 0, f.bus.SubscriberCount(events.DashboardGenerated))

	f.bus.Publish(&events.FeedbackReceivedData{RequestID: "req-1", Rating: 5})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var event struct {
		Type events.EventType `json:"type"`
	}
	require.NoError(t, wsjson.Read(ctx, conn, &event))
	assert.Equal(t, events.FeedbackReceived, event.Type)
}

func TestEventsWS_UnsubscribesOnDisconnect(t *testing.T) {
	f := newTestServer(t)
	conn, cleanup := dialEventStream(t, f, "")

	require.Eventually(t, func() bool {
		return f.bus.SubscriberCount(events.ChartGenerated) == 1 &&
			f.bus.SubscriberCount(events.DashboardGenerated) == 1 &&
			f.bus.SubscriberCount(events.FeedbackReceived) == 1
	}, time.Second, 10*time.Millisecond)

	conn.Close(websocket.StatusNormalClosure, "")

	// Disconnect must release every handler the connection registered
	require.Eventually(t, func() bool {
		return f.bus.SubscriberCount(events.ChartGenerated) == 0 &&
			f.bus.SubscriberCount(events.DashboardGenerated) == 0 &&
			f.bus.SubscriberCount(events.FeedbackReceived) == 0
	}, time.Second, 10*time.Millisecond)

	cleanup()
}

func TestEventsWS_DisabledWithoutBus(t *testing.T) {
	f := newTestServer(t)
	f.server.bus = nil

	w := f.do(t, http.MethodGet, "/api/events/ws", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
