package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/mailersend/mailersend-go"
)

// Mailer sends guardian email alerts as a secondary off-band channel next to
// SMS/WhatsApp.
type Mailer struct {
	client  *mailersend.Mailersend
	from    mailersend.From
	enabled bool
}

func NewMailer(apiKey string) *Mailer {
	m := &Mailer{
		enabled: apiKey != "",
		from: mailersend.From{
			Name:  "GuardianLink360",
			Email: "alerts@guardianlink360.app",
		},
	}

	if m.enabled {
		m.client = mailersend.NewMailersend(apiKey)
	}

	return m
}

func (m *Mailer) SendAlertEmail(ctx context.Context, toEmail, seniorName, alertType, details string) error {
	if !m.enabled {
		return fmt.Errorf("MailerSend not configured")
	}

	subject := fmt.Sprintf("GuardianLink360 alert: %s for %s", alertType, seniorName)
	html := fmt.Sprintf(`
		<h2>GuardianLink360 Alert</h2>
		<p><strong>%s</strong> triggered a <strong>%s</strong> alert.</p>
		<p>%s</p>
		<p>Log in to your dashboard immediately.</p>
	`, seniorName, alertType, details)
	text := fmt.Sprintf("%s triggered a %s alert.\n\n%s\n\nLog in to your dashboard immediately.", seniorName, alertType, details)

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	msg := m.client.Email.NewMessage()
	msg.SetFrom(m.from)
	msg.SetRecipients([]mailersend.Recipient{{Email: toEmail}})
	msg.SetSubject(subject)
	msg.SetText(text)
	msg.SetHTML(html)

	_, err := m.client.Email.Send(ctx, msg)
	return err
}
