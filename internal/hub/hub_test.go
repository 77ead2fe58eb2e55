package hub

import (
	"encoding/json"
	"testing"
	"time"

	"roadwatch/internal/logger"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	h := New(logger.Discard())
	go h.Run()
	t.Cleanup(h.Stop)
	return h
}

// drainConnected consumes the one-time connected acknowledgement a freshly
// registered session receives.
func drainConnected(t *testing.T, s *Session) Event {
	t.Helper()
	select {
	case data := <-s.Send:
		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			t.Fatalf("unmarshalling connected event: %v", err)
		}
		if ev.Type != EventConnected {
			t.Fatalf("first event type = %q, want %q", ev.Type, EventConnected)
		}
		return ev
	case <-time.After(time.Second):
		t.Fatal("no connected event received")
		return Event{}
	}
}

func expectEvent(t *testing.T, s *Session) Event {
	t.Helper()
	select {
	case data := <-s.Send:
		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			t.Fatalf("unmarshalling event: %v", err)
		}
		return ev
	case <-time.After(time.Second):
		t.Fatal("expected an event, got none")
		return Event{}
	}
}

func expectSilence(t *testing.T, s *Session) {
	t.Helper()
	select {
	case data, ok := <-s.Send:
		if ok {
			t.Fatalf("unexpected event: %s", data)
		}
	case <-time.After(100 * time.Millisecond):
	}
}

func TestRegisterSendsConnectedOnce(t *testing.T) {
	h := newTestHub(t)

	s := NewSession(h, nil)
	h.Register(s)

	drainConnected(t, s)
	expectSilence(t, s)
}

func TestBroadcastReachesAllSessions(t *testing.T) {
	h := newTestHub(t)

	a := NewSession(h, nil)
	b := NewSession(h, nil)
	c := NewSession(h, nil)
	for _, s := range []*Session{a, b, c} {
		h.Register(s)
		drainConnected(t, s)
	}

	if err := h.Broadcast(Event{Type: EventIncident, Payload: map[string]string{"id": "inc-1"}}, nil); err != nil {
		t.Fatalf("Broadcast: %v", err)
	}

	for _, s := range []*Session{a, b, c} {
		ev := expectEvent(t, s)
		if ev.Type != EventIncident {
			t.Errorf("session %s got type %q, want %q", s.ID, ev.Type, EventIncident)
		}
	}
}

func TestBroadcastSkipsOrigin(t *testing.T) {
	h := newTestHub(t)

	origin := NewSession(h, nil)
	other := NewSession(h, nil)
	h.Register(origin)
	h.Register(other)
	drainConnected(t, origin)
	drainConnected(t, other)

	if err := h.Broadcast(Event{Type: EventIncident, Payload: map[string]string{"id": "inc-2"}}, origin); err != nil {
		t.Fatalf("Broadcast: %v", err)
	}

	if ev := expectEvent(t, other); ev.Type != EventIncident {
		t.Errorf("other session got type %q, want %q", ev.Type, EventIncident)
	}
	expectSilence(t, origin)
}

func TestClientEventSkipsSubmitter(t *testing.T) {
	h := newTestHub(t)

	submitter := NewSession(h, nil)
	observer := NewSession(h, nil)
	h.Register(submitter)
	h.Register(observer)
	drainConnected(t, submitter)
	drainConnected(t, observer)

	h.ClientEvent(submitter, json.RawMessage(`{"location":"A1"}`))

	ev := expectEvent(t, observer)
	if ev.Type != EventIncident {
		t.Errorf("observer got type %q, want %q", ev.Type, EventIncident)
	}
	expectSilence(t, submitter)
}

func TestUnregisteredSessionMissesBroadcast(t *testing.T) {
	h := newTestHub(t)

	stay := NewSession(h, nil)
	leave := NewSession(h, nil)
	h.Register(stay)
	h.Register(leave)
	drainConnected(t, stay)
	drainConnected(t, leave)

	h.Unregister(leave)
	// Send is closed once the unregister is processed.
	select {
	case _, ok := <-leave.Send:
		if ok {
			t.Fatal("expected closed channel after unregister")
		}
	case <-time.After(time.Second):
		t.Fatal("send channel not closed after unregister")
	}

	if err := h.Broadcast(Event{Type: EventIncident, Payload: map[string]string{"id": "inc-3"}}, nil); err != nil {
		t.Fatalf("Broadcast: %v", err)
	}
	if ev := expectEvent(t, stay); ev.Type != EventIncident {
		t.Errorf("remaining session got type %q, want %q", ev.Type, EventIncident)
	}
}

func TestUnregisterIsIdempotent(t *testing.T) {
	h := newTestHub(t)

	s := NewSession(h, nil)
	h.Register(s)
	drainConnected(t, s)

	h.Unregister(s)
	h.Unregister(s)

	// The hub must still be serving other sessions.
	other := NewSession(h, nil)
	h.Register(other)
	drainConnected(t, other)
}

func TestStopClosesAllSessions(t *testing.T) {
	h := New(logger.Discard())
	go h.Run()

	a := NewSession(h, nil)
	b := NewSession(h, nil)
	h.Register(a)
	h.Register(b)
	drainConnected(t, a)
	drainConnected(t, b)

	h.Stop()

	for _, s := range []*Session{a, b} {
		select {
		case _, ok := <-s.Send:
			if ok {
				t.Errorf("session %s received data after Stop", s.ID)
			}
		case <-time.After(time.Second):
			t.Errorf("session %s send channel not closed after Stop", s.ID)
		}
	}
}

func TestBroadcastPayloadIntact(t *testing.T) {
	h := newTestHub(t)

	s := NewSession(h, nil)
	h.Register(s)
	drainConnected(t, s)

	payload := map[string]interface{}{"id": "inc-4", "severity": "high"}
	if err := h.Broadcast(Event{Type: EventIncident, Payload: payload}, nil); err != nil {
		t.Fatalf("Broadcast: %v", err)
	}

	ev := expectEvent(t, s)
	got, ok := ev.Payload.(map[string]interface{})
	if !ok {
		t.Fatalf("payload type = %T, want map", ev.Payload)
	}
	if got["id"] != "inc-4" || got["severity"] != "high" {
		t.Errorf("payload = %v, want id=inc-4 severity=high", got)
	}
}
