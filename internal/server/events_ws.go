package server

import (
	"net/http"
	"strings"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/finboard/finboard/internal/events"
)

// handleEventsWS streams bus events to a WebSocket client as JSON frames.
// An optional ?types=a,b query filters which event types are forwarded.
func (s *Server) handleEventsWS(w http.ResponseWriter, r *http.Request) {
	if s.bus == nil {
		s.writeError(w, http.StatusServiceUnavailable, "event stream is disabled")
		return
	}

	var allowedTypes map[events.EventType]bool
	if typesFilter := r.URL.Query().Get("types"); typesFilter != "" {
		allowedTypes = make(map[events.EventType]bool)
		for _, t := range strings.Split(typesFilter, ",") {
			allowedTypes[events.EventType(strings.TrimSpace(t))] = true
		}
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// The JSON API already allows all origins; the socket matches it.
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.log.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	s.log.Info().Str("remote", r.RemoteAddr).Msg("Client connected to event stream")

	// The stream is write-only; CloseRead discards client frames and cancels
	// the context when the peer goes away.
	ctx := conn.CloseRead(r.Context())

	// Buffered so a slow client never blocks publishers; drop when full.
	eventChan := make(chan *events.Event, 100)
	done := ctx.Done()

	handler := func(event *events.Event) {
		if allowedTypes != nil && !allowedTypes[event.Type] {
			return
		}
		select {
		case eventChan <- event:
		case <-done:
		default:
			s.log.Warn().
				Str("event_type", string(event.Type)).
				Msg("Event channel full, dropping event")
		}
	}

	subscribed := []events.EventType{
		events.ChartGenerated,
		events.DashboardGenerated,
		events.FeedbackReceived,
	}
	if allowedTypes != nil {
		subscribed = subscribed[:0]
		for eventType := range allowedTypes {
			subscribed = append(subscribed, eventType)
		}
	}

	// Unsubscribe on disconnect so dead connections do not pile up handlers
	// on the bus for the server's lifetime.
	subIDs := make(map[events.EventType]uint64, len(subscribed))
	for _, eventType := range subscribed {
		subIDs[eventType] = s.bus.Subscribe(eventType, handler)
	}
	defer func() {
		for eventType, id := range subIDs {
			s.bus.Unsubscribe(eventType, id)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Str("remote", r.RemoteAddr).Msg("Client disconnected from event stream")
			return
		case event := <-eventChan:
			if err := wsjson.Write(ctx, conn, event); err != nil {
				s.log.Debug().Err(err).Msg("Event stream write failed, closing")
				return
			}
		}
	}
}
