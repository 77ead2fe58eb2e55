package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"

	"roadwatch/internal/hub"
	"roadwatch/internal/logger"
	"roadwatch/internal/metrics"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// WebSocketHandler upgrades the connection and keeps the session attached to
// the hub until the peer goes away.
func WebSocketHandler(h *hub.Hub, m *metrics.Metrics, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Error("Websocket upgrade: %v", err)
			return
		}

		session := hub.NewSession(h, conn)
		h.Register(session)

		m.ConnectedSessions.Inc()
		defer m.ConnectedSessions.Dec()

		go session.WritePump()
		session.ReadPump()
	}
}
