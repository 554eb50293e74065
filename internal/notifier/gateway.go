package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/guardianlink/guardianlink360/pkg/config"
)

// GatewayNotifier talks to the SMS/WhatsApp gateway's REST API.
type GatewayNotifier struct {
	httpClient *resty.Client
	from       string
	whatsApp   string
}

type messageRequest struct {
	To      string `json:"to"`
	From    string `json:"from"`
	Body    string `json:"body"`
	Channel string `json:"channel"`
}

type messageResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func NewGatewayNotifier(cfg config.NotifyConfig) *GatewayNotifier {
	client := resty.New().
		SetBaseURL(cfg.SMSGatewayURL).
		SetTimeout(10 * time.Second).
		SetAuthToken(cfg.SMSGatewayKey).
		SetHeader("Content-Type", "application/json")

	return &GatewayNotifier{
		httpClient: client,
		from:       cfg.SMSFromNumber,
		whatsApp:   cfg.WhatsAppNumber,
	}
}

func (g *GatewayNotifier) send(ctx context.Context, req messageRequest) error {
	var out messageResponse
	resp, err := g.httpClient.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		Post("/v1/messages")
	if err != nil {
		return fmt.Errorf("failed to reach message gateway: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("message gateway rejected %s send: %s", req.Channel, out.Error)
	}
	return nil
}

func (g *GatewayNotifier) SendSMS(ctx context.Context, toPhone, body string) error {
	return g.send(ctx, messageRequest{
		To:      toPhone,
		From:    g.from,
		Body:    body,
		Channel: "sms",
	})
}

func (g *GatewayNotifier) SendWhatsApp(ctx context.Context, toPhone, body string) error {
	return g.send(ctx, messageRequest{
		To:      toPhone,
		From:    g.whatsApp,
		Body:    body,
		Channel: "whatsapp",
	})
}

func (g *GatewayNotifier) SendOTP(ctx context.Context, toPhone, code string) error {
	body := fmt.Sprintf("Your GuardianLink360 login code is: %s\n\nThis code expires in 10 minutes. Do NOT share it with anyone.", code)
	return g.SendSMS(ctx, toPhone, body)
}
