package notifier

import "context"

// Service delivers off-band notifications. Every method is best-effort from
// the caller's point of view: failures are returned for logging but never
// abort the operation that queued the message.
type Service interface {
	SendSMS(ctx context.Context, toPhone, body string) error
	SendWhatsApp(ctx context.Context, toPhone, body string) error
	SendOTP(ctx context.Context, toPhone, code string) error
}
