package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zeusync/dispatch/internal/events/bus"
	"github.com/zeusync/dispatch/internal/observability/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// tracePayload is the frame written to trace stream clients.
type tracePayload struct {
	Type      string    `json:"type"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// handleTrace upgrades the connection and streams registration and
// dispatch events until the client goes away. Events that arrive faster
// than the client reads are dropped rather than blocking publishers.
func (s *Server) handleTrace(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("trace upgrade failed", log.Error(err))
		return
	}
	defer func() { _ = conn.Close() }()

	topic := r.URL.Query().Get("family")

	events := make(chan bus.Event, 64)
	handler := func(e bus.Event) error {
		select {
		case events <- e:
		default:
		}
		return nil
	}

	subs := make([]bus.Subscription, 0, 2)
	for _, etype := range []string{bus.TypeRegistration, bus.TypeDispatch} {
		sub, serr := s.bus.SubscribeTopic(topic, etype, handler)
		if serr != nil {
			s.logger.Error("trace subscribe failed", log.String("type", etype), log.Error(serr))
			return
		}
		subs = append(subs, sub)
	}
	defer func() {
		for _, sub := range subs {
			_ = s.bus.Unsubscribe(sub)
		}
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, rerr := conn.ReadMessage(); rerr != nil {
				return
			}
		}
	}()

	for {
		select {
		case e := <-events:
			payload := tracePayload{
				Type:      e.Type(),
				Source:    e.Source(),
				Timestamp: e.Timestamp(),
				Data:      e.Data(),
			}
			if werr := conn.WriteJSON(payload); werr != nil {
				return
			}
		case <-done:
			return
		}
	}
}
