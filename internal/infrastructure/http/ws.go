package httpserver

import (
	"net/http"
	"time"

	"ratesync-service/internal/infrastructure/logx"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	wsWriteWait = 10 * time.Second
	wsPongWait  = 60 * time.Second
)

// wsPingPeriod also paces how often a streaming session is marked active.
var wsPingPeriod = (wsPongWait * 9) / 10

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Storefront pages are served from other origins.
	CheckOrigin: func(*http.Request) bool { return true },
}

// StreamRate pushes the current state and every later change as JSON text frames.
// The stream keeps its session alive and ends with a close frame once the
// session's synchronizer stops.
func (s *Server) StreamRate(w http.ResponseWriter, r *http.Request) {
	rs, ok := s.resolve(w, r)
	if !ok {
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied.
		logx.WithFields(r.Context()).Debug("ws.upgrade_failed", zap.Error(err))
		return
	}
	defer conn.Close()

	states, cancel := rs.Subscribe()
	defer cancel()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()
	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case st, ok := <-states:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "rate stream closed")
				_ = conn.WriteMessage(websocket.CloseMessage, msg)
				return
			}
			if err := conn.WriteJSON(st); err != nil {
				logx.WithFields(r.Context()).Debug("ws.write_failed", zap.Error(err))
				return
			}
		case <-ping.C:
			if id := r.Header.Get(sessionHeader); id != "" {
				if _, err := s.host.Get(id); err != nil {
					return
				}
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
