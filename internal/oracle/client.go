package oracle

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/guardianlink/guardianlink360/pkg/config"
	"github.com/guardianlink/guardianlink360/pkg/logger"
)

// Verdict is the canonical risk-scoring result. Callers always get a usable
// verdict: when the oracle is down the default score is substituted and
// Degraded is set, so no alert flow ever fails on oracle availability.
type Verdict struct {
	RiskScore int
	IsScam    bool
	Reason    string
	Degraded  bool
}

type Client interface {
	Analyze(ctx context.Context, text string) Verdict
}

// analyzeResponse tolerates both field-naming conventions the scoring service
// has shipped (risk_score vs riskScore, reason vs verdict).
type analyzeResponse struct {
	RiskScore      *int    `json:"risk_score"`
	RiskScoreCamel *int    `json:"riskScore"`
	IsScam         *bool   `json:"is_scam"`
	IsScamCamel    *bool   `json:"isScam"`
	Reason         *string `json:"reason"`
	Verdict        *string `json:"verdict"`
}

func (r *analyzeResponse) normalize(defaultScore int) Verdict {
	v := Verdict{RiskScore: defaultScore, Reason: "No reason provided"}
	switch {
	case r.RiskScore != nil:
		v.RiskScore = *r.RiskScore
	case r.RiskScoreCamel != nil:
		v.RiskScore = *r.RiskScoreCamel
	}
	switch {
	case r.IsScam != nil:
		v.IsScam = *r.IsScam
	case r.IsScamCamel != nil:
		v.IsScam = *r.IsScamCamel
	}
	switch {
	case r.Reason != nil:
		v.Reason = *r.Reason
	case r.Verdict != nil:
		v.Reason = *r.Verdict
	}
	return v
}

type HTTPClient struct {
	httpClient   *resty.Client
	defaultScore int
}

func NewHTTPClient(cfg config.OracleConfig) *HTTPClient {
	client := resty.New().
		SetBaseURL(cfg.URL).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &HTTPClient{
		httpClient:   client,
		defaultScore: cfg.DefaultScore,
	}
}

func (c *HTTPClient) Analyze(ctx context.Context, text string) Verdict {
	var out analyzeResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(map[string]string{"transcript": text}).
		SetResult(&out).
		Post("/api/analyze")

	if err != nil || resp.IsError() {
		logger.WarnContext(ctx, "Risk oracle unreachable, using default score",
			"error", err,
			"default_score", c.defaultScore,
		)
		return c.unavailable()
	}

	v := out.normalize(c.defaultScore)
	logger.DebugContext(ctx, "Risk oracle verdict",
		"risk_score", v.RiskScore,
		"is_scam", v.IsScam,
	)
	return v
}

func (c *HTTPClient) unavailable() Verdict {
	return Verdict{
		RiskScore: c.defaultScore,
		IsScam:    false,
		Reason:    fmt.Sprintf("risk service unavailable, using default score %d", c.defaultScore),
		Degraded:  true,
	}
}
