package notifier

import (
	"context"

	"github.com/guardianlink/guardianlink360/pkg/logger"
)

// DevNotifier prints every message to the log instead of sending it.
type DevNotifier struct{}

func NewDevNotifier() *DevNotifier {
	return &DevNotifier{}
}

func (d *DevNotifier) SendSMS(_ context.Context, toPhone, body string) error {
	logger.Info("[DEV SMS]", "to", toPhone, "body", body)
	return nil
}

func (d *DevNotifier) SendWhatsApp(_ context.Context, toPhone, body string) error {
	logger.Info("[DEV WHATSAPP]", "to", toPhone, "body", body)
	return nil
}

func (d *DevNotifier) SendOTP(_ context.Context, toPhone, code string) error {
	logger.Info("[DEV OTP]", "to", toPhone, "code", code)
	return nil
}
