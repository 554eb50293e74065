package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/guardianlink/guardianlink360/pkg/logger"
	"github.com/nats-io/nats.go"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

type Subscriber interface {
	Subscribe(subject string, handler func(msg *Message)) error
	QueueSubscribe(subject, queue string, handler func(msg *Message)) error
	Close() error
}

type EventBus interface {
	Publisher
	Subscriber
}

type Message struct {
	Subject   string
	Data      []byte
	Timestamp time.Time
}

type NATSEventBus struct {
	conn *nats.Conn
}

func NewNATSEventBus(url string) (*NATSEventBus, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSEventBus{conn: conn}, nil
}

func (n *NATSEventBus) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	logger.DebugContext(ctx, "Publishing event", "subject", subject, "data", string(payload))

	return n.conn.Publish(subject, payload)
}

func (n *NATSEventBus) Subscribe(subject string, handler func(msg *Message)) error {
	_, err := n.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(&Message{
			Subject:   msg.Subject,
			Data:      msg.Data,
			Timestamp: time.Now(),
		})
	})
	return err
}

func (n *NATSEventBus) QueueSubscribe(subject, queue string, handler func(msg *Message)) error {
	_, err := n.conn.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
		handler(&Message{
			Subject:   msg.Subject,
			Data:      msg.Data,
			Timestamp: time.Now(),
		})
	})
	return err
}

func (n *NATSEventBus) Close() error {
	n.conn.Close()
	return nil
}

// Subjects
const (
	AlertPanic               = "alert.panic"
	AlertScamDetected        = "alert.scam"
	AlertTransactionFlagged  = "alert.transaction.flagged"
	AlertTransactionApproved = "alert.transaction.approved"
	AlertTransactionExpired  = "alert.transaction.expired"

	NotifySend = "notify.send"
)

// Event payloads
type PanicAlertEvent struct {
	AlertID       int64     `json:"alert_id"`
	SeniorName    string    `json:"senior_name"`
	SeniorPhone   string    `json:"senior_phone"`
	GuardianPhone string    `json:"guardian_phone"`
	RiskScore     int       `json:"risk_score"`
	CreatedAt     time.Time `json:"created_at"`
}

type ScamDetectedEvent struct {
	AlertID          int64     `json:"alert_id"`
	SeniorName       string    `json:"senior_name"`
	SeniorPhone      string    `json:"senior_phone"`
	GuardianPhone    string    `json:"guardian_phone"`
	CallerName       string    `json:"caller_name"`
	CallerDepartment string    `json:"caller_department"`
	RiskScore        int       `json:"risk_score"`
	CreatedAt        time.Time `json:"created_at"`
}

type TransactionFlaggedEvent struct {
	IncidentID    int64     `json:"incident_id"`
	SeniorName    string    `json:"senior_name"`
	SeniorPhone   string    `json:"senior_phone"`
	GuardianPhone string    `json:"guardian_phone"`
	Amount        int64     `json:"amount"`
	BankName      string    `json:"bank_name"`
	CoolingUntil  time.Time `json:"cooling_until"`
}

type TransactionApprovedEvent struct {
	SeniorPhone   string    `json:"senior_phone"`
	GuardianPhone string    `json:"guardian_phone"`
	ApprovedBy    string    `json:"approved_by"`
	ApprovedAt    time.Time `json:"approved_at"`
}

type TransactionExpiredEvent struct {
	IncidentID    int64     `json:"incident_id"`
	SeniorPhone   string    `json:"senior_phone"`
	GuardianPhone string    `json:"guardian_phone"`
	Amount        int64     `json:"amount"`
	Policy        string    `json:"policy"`
	ExpiredAt     time.Time `json:"expired_at"`
}

// NotificationEvent is consumed by the off-band notifier worker. Delivery
// is best-effort and never awaited on a request path.
type NotificationEvent struct {
	Channel    string    `json:"channel"` // sms, whatsapp, email
	Recipient  string    `json:"recipient"`
	SeniorName string    `json:"senior_name"`
	AlertType  string    `json:"alert_type"`
	Body       string    `json:"body"`
	QueuedAt   time.Time `json:"queued_at"`
}
