package hub

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second    // Time allowed to write a message to the peer.
	pongWait       = 60 * time.Second    // Time allowed to read the next pong message from the peer.
	pingPeriod     = (pongWait * 9) / 10 // Send pings to peer with this period. Must be less than pongWait.
	maxMessageSize = 4096                // Maximum message size allowed from peer.

	sendBufferSize = 64
)

// inboundMessage is what a connected client may submit over the channel.
type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Session is one live real-time connection tracked by the hub. It carries no
// state beyond its identity and send buffer; the transport connection is
// optional so the hub can be exercised without a network.
type Session struct {
	ID   string
	Send chan []byte

	hub  *Hub
	conn *websocket.Conn
}

// NewSession creates a session for a websocket connection. conn may be nil
// for sessions driven directly through the Send channel.
func NewSession(h *Hub, conn *websocket.Conn) *Session {
	return &Session{
		ID:   uuid.NewString(),
		Send: make(chan []byte, sendBufferSize),
		hub:  h,
		conn: conn,
	}
}

// ReadPump pumps messages from the websocket connection to the hub. Client
// "incident" submissions are re-broadcast to every other session. The pump
// unregisters the session when the connection drops.
func (s *Session) ReadPump() {
	defer func() {
		s.hub.Unregister(s)
		s.conn.Close()
	}()
	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.hub.log.Warning("Session %s read error: %v", s.ID, err)
			}
			break
		}

		var msg inboundMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			s.hub.log.Warning("Session %s sent malformed message: %v", s.ID, err)
			continue
		}
		if msg.Type == EventIncident {
			s.hub.ClientEvent(s, msg.Payload)
		}
	}
}

// WritePump pumps messages from the hub to the websocket connection, with
// periodic pings to keep the connection alive.
func (s *Session) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()
	for {
		select {
		case message, ok := <-s.Send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
