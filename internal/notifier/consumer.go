package notifier

import (
	"context"
	"encoding/json"

	"github.com/guardianlink/guardianlink360/pkg/events"
	"github.com/guardianlink/guardianlink360/pkg/logger"
)

// Consumer drains notify.send off the event bus and delivers each message.
// Running delivery here keeps gateway latency off the request path; a failed
// delivery is logged and dropped, the alert itself is already persisted.
type Consumer struct {
	service Service
	mailer  *Mailer
}

func NewConsumer(service Service, mailer *Mailer) *Consumer {
	return &Consumer{service: service, mailer: mailer}
}

func (c *Consumer) Start(bus events.Subscriber) error {
	return bus.QueueSubscribe(events.NotifySend, "notifier", func(msg *events.Message) {
		var ev events.NotificationEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			logger.Error("Malformed notification event", "error", err)
			return
		}
		c.deliver(context.Background(), ev)
	})
}

func (c *Consumer) deliver(ctx context.Context, ev events.NotificationEvent) {
	var err error
	switch ev.Channel {
	case "whatsapp":
		err = c.service.SendWhatsApp(ctx, ev.Recipient, ev.Body)
	case "email":
		err = c.mailer.SendAlertEmail(ctx, ev.Recipient, ev.SeniorName, ev.AlertType, ev.Body)
	default:
		err = c.service.SendSMS(ctx, ev.Recipient, ev.Body)
	}
	if err != nil {
		logger.Error("Notification delivery failed",
			"error", err,
			"channel", ev.Channel,
			"recipient", ev.Recipient,
			"alert_type", ev.AlertType,
		)
		return
	}
	logger.Info("Notification delivered",
		"channel", ev.Channel,
		"recipient", ev.Recipient,
		"alert_type", ev.AlertType,
	)
}
