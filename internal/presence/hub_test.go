package presence

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/guardianlink/guardianlink360/internal/domain"
	"github.com/guardianlink/guardianlink360/pkg/auth"
)

const testSecret = "test-secret"

func newTestConn(t *testing.T, phone, role string) *Conn {
	t.Helper()
	token, err := auth.NewToken(phone, "Test User", role, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return &Conn{
		id:     uuid.New(),
		token:  token,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
		joined: make(map[domain.Role]string),
	}
}

func joinMessage(event, phone string) clientMessage {
	data, _ := json.Marshal(phone)
	return clientMessage{Event: event, Data: data}
}

func receivedEvents(c *Conn) []string {
	var out []string
	for {
		select {
		case data := <-c.send:
			var env Envelope
			if err := json.Unmarshal(data, &env); err == nil {
				out = append(out, env.Event)
			}
		default:
			return out
		}
	}
}

func TestJoin_DeliversEmits(t *testing.T) {
	h := NewHub(testSecret, nil)
	c := newTestConn(t, "+922222222222", "guardian")

	h.handleMessage(c, joinMessage("join-guardian-room", "+922222222222"))
	h.EmitToGuardian("+922222222222", "panic-alert", map[string]string{"senior": "+911111111111"})

	events := receivedEvents(c)
	if len(events) != 1 || events[0] != "panic-alert" {
		t.Fatalf("expected one panic-alert, got %v", events)
	}
}

func TestJoin_Idempotent_NoDoubleDelivery(t *testing.T) {
	h := NewHub(testSecret, nil)
	c := newTestConn(t, "+922222222222", "guardian")

	h.handleMessage(c, joinMessage("join-guardian-room", "+922222222222"))
	h.handleMessage(c, joinMessage("join-guardian-room", "+922222222222"))
	h.EmitToGuardian("+922222222222", "transaction-flagged", nil)

	if events := receivedEvents(c); len(events) != 1 {
		t.Fatalf("double join must not double-deliver, got %v", events)
	}
}

func TestJoin_MismatchedToken_Rejected(t *testing.T) {
	h := NewHub(testSecret, nil)

	// Token for one guardian, join request for another.
	c := newTestConn(t, "+922222222222", "guardian")
	h.handleMessage(c, joinMessage("join-guardian-room", "+933333333333"))
	h.EmitToGuardian("+933333333333", "panic-alert", nil)
	if events := receivedEvents(c); len(events) != 0 {
		t.Fatalf("token phone mismatch must not join, got %v", events)
	}

	// Senior token, guardian room.
	c2 := newTestConn(t, "+911111111111", "senior")
	h.handleMessage(c2, joinMessage("join-guardian-room", "+911111111111"))
	h.EmitToGuardian("+911111111111", "panic-alert", nil)
	if events := receivedEvents(c2); len(events) != 0 {
		t.Fatalf("role mismatch must not join, got %v", events)
	}
}

func TestJoin_GarbageToken_Rejected(t *testing.T) {
	h := NewHub(testSecret, nil)
	c := &Conn{
		id:     uuid.New(),
		token:  "not-a-jwt",
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
		joined: make(map[domain.Role]string),
	}

	h.handleMessage(c, joinMessage("join-guardian-room", "+922222222222"))
	h.EmitToGuardian("+922222222222", "panic-alert", nil)
	if events := receivedEvents(c); len(events) != 0 {
		t.Fatalf("invalid token must not join, got %v", events)
	}
}

func TestEmit_SlowConsumer_DroppedNotBlocked(t *testing.T) {
	h := NewHub(testSecret, nil)
	c := newTestConn(t, "+922222222222", "guardian")
	h.handleMessage(c, joinMessage("join-guardian-room", "+922222222222"))

	// Saturate the send buffer; the next emit must return, not block.
	for i := 0; i < sendBuffer; i++ {
		h.EmitToGuardian("+922222222222", "filler", nil)
	}

	finished := make(chan struct{})
	go func() {
		h.EmitToGuardian("+922222222222", "overflow", nil)
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("emit blocked on a slow consumer")
	}

	if events := receivedEvents(c); len(events) != sendBuffer {
		t.Fatalf("overflow event should be dropped, buffer held %d", len(events))
	}
}

func TestEmit_EmptyRoom_NoOp(t *testing.T) {
	h := NewHub(testSecret, nil)
	h.EmitToGuardian("+922222222222", "panic-alert", nil)
	h.EmitToSenior("+911111111111", "panic:acknowledged", nil)
}

func TestResolveAlert_AcknowledgesSenior(t *testing.T) {
	h := NewHub(testSecret, nil)
	senior := newTestConn(t, "+911111111111", "senior")
	guardian := newTestConn(t, "+922222222222", "guardian")

	h.handleMessage(senior, joinMessage("join-senior-room", "+911111111111"))
	h.handleMessage(guardian, joinMessage("join-guardian-room", "+922222222222"))

	data, _ := json.Marshal(map[string]interface{}{"alertId": 4, "seniorPhone": "+911111111111"})
	h.handleMessage(guardian, clientMessage{Event: "resolve-alert", Data: data})

	events := receivedEvents(senior)
	if len(events) != 1 || events[0] != "panic:acknowledged" {
		t.Fatalf("expected panic:acknowledged to senior, got %v", events)
	}
}

func TestGuardianPresence_OnlineAndOffline(t *testing.T) {
	linked := func(_ context.Context, guardianPhone string) ([]string, error) {
		return []string{"+911111111111"}, nil
	}
	h := NewHub(testSecret, linked)

	senior := newTestConn(t, "+911111111111", "senior")
	h.handleMessage(senior, joinMessage("join-senior-room", "+911111111111"))

	guardian := newTestConn(t, "+922222222222", "guardian")
	h.handleMessage(guardian, joinMessage("join-guardian-room", "+922222222222"))

	events := receivedEvents(senior)
	if len(events) != 1 || events[0] != "guardian:online" {
		t.Fatalf("expected guardian:online, got %v", events)
	}

	h.disconnected(guardian)
	events = receivedEvents(senior)
	if len(events) != 1 || events[0] != "guardian:offline" {
		t.Fatalf("expected guardian:offline, got %v", events)
	}
}

func TestGuardianPresence_SecondConnectionKeepsOnline(t *testing.T) {
	linked := func(_ context.Context, guardianPhone string) ([]string, error) {
		return []string{"+911111111111"}, nil
	}
	h := NewHub(testSecret, linked)

	senior := newTestConn(t, "+911111111111", "senior")
	h.handleMessage(senior, joinMessage("join-senior-room", "+911111111111"))

	first := newTestConn(t, "+922222222222", "guardian")
	second := newTestConn(t, "+922222222222", "guardian")
	h.handleMessage(first, joinMessage("join-guardian-room", "+922222222222"))
	h.handleMessage(second, joinMessage("join-guardian-room", "+922222222222"))
	receivedEvents(senior) // drain the online notifications

	h.disconnected(first)
	if events := receivedEvents(senior); len(events) != 0 {
		t.Fatalf("guardian still has a live connection, got %v", events)
	}

	h.disconnected(second)
	events := receivedEvents(senior)
	if len(events) != 1 || events[0] != "guardian:offline" {
		t.Fatalf("expected guardian:offline after last disconnect, got %v", events)
	}
}
