package presence

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/guardianlink/guardianlink360/internal/domain"
	"github.com/guardianlink/guardianlink360/pkg/auth"
	"github.com/guardianlink/guardianlink360/pkg/logger"
)

// Emitter is the realtime fan-out surface used by the services. Delivery is
// fire-and-forget, at most once per currently-connected room member; offline
// parties catch up through the REST history endpoints.
type Emitter interface {
	EmitToGuardian(guardianPhone, event string, payload interface{})
	EmitToSenior(seniorPhone, event string, payload interface{})
}

// Envelope is the single wire shape for every server-to-client event.
type Envelope struct {
	Event     string      `json:"event"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

type clientMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// LinkedSeniorsFunc resolves the senior phones a guardian watches, used to
// push guardian online/offline status into senior rooms.
type LinkedSeniorsFunc func(ctx context.Context, guardianPhone string) ([]string, error)

// Hub maps role-qualified identities ("guardian:+91...", "senior:+91...") to
// rooms of live connections. Membership is not remembered across a
// disconnect; clients re-join after every reconnect.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[uuid.UUID]*Conn

	jwtSecret     string
	linkedSeniors LinkedSeniorsFunc
}

func NewHub(jwtSecret string, linkedSeniors LinkedSeniorsFunc) *Hub {
	return &Hub{
		rooms:         make(map[string]map[uuid.UUID]*Conn),
		jwtSecret:     jwtSecret,
		linkedSeniors: linkedSeniors,
	}
}

func roomKey(role domain.Role, phone string) string {
	return string(role) + ":" + phone
}

// join adds the connection to the identity's room. Idempotent: joining the
// same room twice neither duplicates membership nor double-delivers emits. A
// connection holds at most one room per role namespace; joining another
// identity in the same namespace moves it.
func (h *Hub) join(c *Conn, role domain.Role, phone string) {
	key := roomKey(role, phone)

	h.mu.Lock()
	if prev, ok := c.joined[role]; ok && prev != key {
		h.leaveLocked(c, prev)
	}
	if h.rooms[key] == nil {
		h.rooms[key] = make(map[uuid.UUID]*Conn)
	}
	h.rooms[key][c.id] = c
	c.joined[role] = key
	h.mu.Unlock()

	logger.Info("Joined room", "room", key, "connection_id", c.id.String())
}

func (h *Hub) leaveLocked(c *Conn, key string) {
	if members, ok := h.rooms[key]; ok {
		delete(members, c.id)
		if len(members) == 0 {
			delete(h.rooms, key)
		}
	}
}

func (h *Hub) drop(c *Conn) {
	h.mu.Lock()
	for _, key := range c.joined {
		h.leaveLocked(c, key)
	}
	h.mu.Unlock()
}

func (h *Hub) EmitToGuardian(guardianPhone, event string, payload interface{}) {
	h.emit(roomKey(domain.RoleGuardian, guardianPhone), event, payload)
}

func (h *Hub) EmitToSenior(seniorPhone, event string, payload interface{}) {
	h.emit(roomKey(domain.RoleSenior, seniorPhone), event, payload)
}

func (h *Hub) emit(key, event string, payload interface{}) {
	data, err := json.Marshal(Envelope{
		Event:     event,
		Payload:   payload,
		Timestamp: time.Now(),
	})
	if err != nil {
		logger.Error("Failed to marshal realtime event", "error", err, "event", event)
		return
	}

	h.mu.RLock()
	members := make([]*Conn, 0, len(h.rooms[key]))
	for _, c := range h.rooms[key] {
		members = append(members, c)
	}
	h.mu.RUnlock()

	for _, c := range members {
		select {
		case c.send <- data:
		default:
			// Slow consumer: drop the event rather than block the emitter.
			logger.Warn("Dropping realtime event for slow connection",
				"event", event, "room", key, "connection_id", c.id.String())
		}
	}
}

// authorize checks the room-join credential: the token's phone must match the
// requested identity and its role must match the room namespace. The
// client-supplied phone alone is never trusted.
func (h *Hub) authorize(c *Conn, role domain.Role, phone string) bool {
	claims, err := auth.Parse(c.token, h.jwtSecret)
	if err != nil {
		logger.Warn("Room join rejected: invalid token", "room", roomKey(role, phone))
		return false
	}
	if claims.Phone != phone || domain.Role(claims.Role) != role {
		logger.Warn("Room join rejected: identity mismatch",
			"room", roomKey(role, phone), "token_phone", claims.Phone, "token_role", claims.Role)
		return false
	}
	return true
}

func (h *Hub) guardianPresence(guardianPhone, event string) {
	if h.linkedSeniors == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	seniors, err := h.linkedSeniors(ctx, guardianPhone)
	if err != nil {
		logger.Error("Failed to resolve linked seniors", "error", err, "guardian_phone", guardianPhone)
		return
	}
	for _, s := range seniors {
		h.EmitToSenior(s, event, map[string]interface{}{
			"guardianPhone": guardianPhone,
		})
	}
}

// handleMessage dispatches one client-to-server message.
func (h *Hub) handleMessage(c *Conn, msg clientMessage) {
	switch msg.Event {
	case "join-guardian-room":
		var phone string
		if err := json.Unmarshal(msg.Data, &phone); err != nil {
			return
		}
		if !h.authorize(c, domain.RoleGuardian, phone) {
			return
		}
		h.join(c, domain.RoleGuardian, phone)
		h.guardianPresence(phone, "guardian:online")

	case "join-senior-room":
		var phone string
		if err := json.Unmarshal(msg.Data, &phone); err != nil {
			return
		}
		if !h.authorize(c, domain.RoleSenior, phone) {
			return
		}
		h.join(c, domain.RoleSenior, phone)

	case "resolve-alert":
		var data struct {
			AlertID     int64  `json:"alertId"`
			SeniorPhone string `json:"seniorPhone"`
		}
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return
		}
		h.EmitToSenior(data.SeniorPhone, "panic:acknowledged", map[string]interface{}{
			"alertId": data.AlertID,
			"message": "Your guardian has been notified and is responding.",
		})

	case "emergency-join":
		var data struct {
			GuardianPhone string `json:"guardianPhone"`
			SeniorPhone   string `json:"seniorPhone"`
		}
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return
		}
		h.EmitToSenior(data.SeniorPhone, "guardian-joined", map[string]interface{}{
			"message": "Your guardian has joined. You are safe.",
		})
		logger.Warn("Emergency join",
			"guardian_phone", data.GuardianPhone, "senior_phone", data.SeniorPhone)

	default:
		logger.Debug("Unknown realtime event from client", "event", msg.Event)
	}
}

// disconnected runs after a connection's pumps stop.
func (h *Hub) disconnected(c *Conn) {
	guardianRoom, wasGuardian := c.joined[domain.RoleGuardian]
	h.drop(c)
	if wasGuardian {
		// guardian:offline once the last connection for that guardian is gone
		h.mu.RLock()
		_, stillOnline := h.rooms[guardianRoom]
		h.mu.RUnlock()
		if !stillOnline {
			phone := guardianRoom[len(domain.RoleGuardian)+1:]
			h.guardianPresence(phone, "guardian:offline")
		}
	}
}
