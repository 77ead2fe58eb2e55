package hub

import (
	"encoding/json"
	"fmt"

	"roadwatch/internal/logger"
)

// Event types delivered over the real-time channel.
const (
	EventConnected = "connected"
	EventIncident  = "incident"
)

// Event is the envelope for everything the hub fans out. Events are
// transient; they exist only while being delivered.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// connectedPayload is sent once to each newly registered session.
type connectedPayload struct {
	Data string `json:"data"`
}

type outbound struct {
	data   []byte
	origin *Session
}

// Hub maintains the set of live sessions and fans events out to all of them,
// excluding the originator when one is given. The registry is owned by the
// Run goroutine; all mutation and delivery goes through its channels, so no
// further locking is needed.
type Hub struct {
	sessions   map[*Session]bool
	register   chan *Session
	unregister chan *Session
	broadcast  chan outbound
	quit       chan struct{}
	log        *logger.Logger
}

func New(log *logger.Logger) *Hub {
	return &Hub{
		sessions:   make(map[*Session]bool),
		register:   make(chan *Session),
		unregister: make(chan *Session),
		broadcast:  make(chan outbound, 16),
		quit:       make(chan struct{}),
		log:        log,
	}
}

// Run owns the session registry. It loops until Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case s := <-h.register:
			h.sessions[s] = true
			h.log.Info("Session connected: %s (total: %d)", s.ID, len(h.sessions))
			h.greet(s)

		case s := <-h.unregister:
			if _, ok := h.sessions[s]; ok {
				delete(h.sessions, s)
				close(s.Send)
				h.log.Info("Session disconnected: %s (total: %d)", s.ID, len(h.sessions))
			}

		case msg := <-h.broadcast:
			for s := range h.sessions {
				if s == msg.origin {
					continue
				}
				select {
				case s.Send <- msg.data:
				default:
					// Send buffer full; the session is stalled or gone.
					delete(h.sessions, s)
					close(s.Send)
					h.log.Warning("Session %s evicted: send buffer full", s.ID)
				}
			}

		case <-h.quit:
			for s := range h.sessions {
				delete(h.sessions, s)
				close(s.Send)
			}
			return
		}
	}
}

// Stop shuts the hub down and closes every session's send channel.
func (h *Hub) Stop() {
	close(h.quit)
}

// Register adds a session to the registry. The session receives a single
// "connected" acknowledgement, addressed only to it.
func (h *Hub) Register(s *Session) {
	h.register <- s
}

// Unregister removes a session from the registry. Idempotent: unregistering
// a session that is already gone is a no-op.
func (h *Hub) Unregister(s *Session) {
	h.unregister <- s
}

// Broadcast delivers event to every session currently registered except
// origin (which may be nil for server-originated events). Sessions that
// disconnect while the broadcast is in flight simply do not receive it.
func (h *Hub) Broadcast(event Event, origin *Session) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("hub: marshalling %s event: %w", event.Type, err)
	}
	h.broadcast <- outbound{data: data, origin: origin}
	return nil
}

// ClientEvent accepts an incident payload submitted by a connected session
// and re-broadcasts it verbatim to all other sessions, skipping the
// submitter.
func (h *Hub) ClientEvent(s *Session, payload json.RawMessage) {
	if err := h.Broadcast(Event{Type: EventIncident, Payload: payload}, s); err != nil {
		h.log.Error("Re-broadcast from session %s failed: %v", s.ID, err)
	}
}

// greet sends the one-time connected acknowledgement to a session just added
// to the registry.
func (h *Hub) greet(s *Session) {
	data, err := json.Marshal(Event{
		Type:    EventConnected,
		Payload: connectedPayload{Data: "Connected to Roadwatch incident stream"},
	})
	if err != nil {
		h.log.Error("Marshalling connected event: %v", err)
		return
	}
	select {
	case s.Send <- data:
	default:
		h.log.Warning("Session %s missed connected event: send buffer full", s.ID)
	}
}
