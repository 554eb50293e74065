package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/guardianlink/guardianlink360/internal/domain"
	"github.com/guardianlink/guardianlink360/internal/oracle"
	"github.com/guardianlink/guardianlink360/internal/presence"
	"github.com/guardianlink/guardianlink360/internal/repository"
	"github.com/guardianlink/guardianlink360/pkg/events"
	"github.com/guardianlink/guardianlink360/pkg/logger"
)

// Callers matching any of these phrases are flagged without waiting for the
// risk oracle. Deliberately a plain substring test, not a model.
var scamPhrases = []string{
	"cbi", "narcotics", "digital arrest", "cyber crime",
	"money laundering", "ied", "enforcement directorate",
}

const scamFloorScore = 85

type AlertService interface {
	TriggerPanic(ctx context.Context, seniorPhone string) (*domain.Alert, error)
	VerifyCaller(ctx context.Context, req *domain.VerifyCallerRequest) (*domain.VerifyCallerResult, error)
	RunScamCheck(ctx context.Context, req *domain.ScamCheckRequest) (*domain.ScamCheckResult, error)
	AlertHistory(ctx context.Context, seniorPhone string, limit int) ([]domain.Alert, error)
}

type alertService struct {
	userRepo     repository.UserRepository
	alertRepo    repository.AlertRepository
	incidentRepo repository.IncidentRepository
	oracle       oracle.Client
	emitter      presence.Emitter
	eventBus     events.Publisher
}

func NewAlertService(
	userRepo repository.UserRepository,
	alertRepo repository.AlertRepository,
	incidentRepo repository.IncidentRepository,
	oracleClient oracle.Client,
	emitter presence.Emitter,
	eventBus events.Publisher,
) AlertService {
	return &alertService{
		userRepo:     userRepo,
		alertRepo:    alertRepo,
		incidentRepo: incidentRepo,
		oracle:       oracleClient,
		emitter:      emitter,
		eventBus:     eventBus,
	}
}

// TriggerPanic converts a panic press into a scored, persisted, routed alert.
// Persistence completes before the realtime emit so a guardian who fetches
// history right after the push always sees the record. Oracle and notifier
// failures never fail the panic flow.
func (s *alertService) TriggerPanic(ctx context.Context, seniorPhone string) (*domain.Alert, error) {
	if strings.TrimSpace(seniorPhone) == "" {
		return nil, fmt.Errorf("%w: seniorPhone is required", domain.ErrValidation)
	}

	senior, err := s.userRepo.FindByPhoneAndRole(ctx, seniorPhone, domain.RoleSenior)
	if err != nil {
		return nil, fmt.Errorf("failed to look up senior: %w", err)
	}
	if senior == nil {
		return nil, fmt.Errorf("%w: senior not registered", domain.ErrNotFound)
	}

	verdict := s.oracle.Analyze(ctx, "PANIC button manually triggered by senior citizen")

	alert, err := s.alertRepo.Create(ctx, repository.CreateAlertParams{
		SeniorPhone:   senior.Phone,
		GuardianPhone: senior.GuardianPhone,
		Type:          domain.AlertPanic,
		RiskScore:     verdict.RiskScore,
		Details:       "PANIC button manually triggered by senior citizen",
	})
	if err != nil {
		logger.ErrorContext(ctx, "Failed to persist panic alert",
			"error", err, "senior_phone", senior.Phone, "event_type", "PANIC")
		return nil, fmt.Errorf("failed to persist panic alert: %w", err)
	}

	if _, err := s.incidentRepo.Create(ctx, repository.CreateIncidentParams{
		SeniorPhone:   senior.Phone,
		GuardianPhone: senior.GuardianPhone,
		AlertType:     domain.AlertPanic,
		RiskScore:     verdict.RiskScore,
	}); err != nil {
		logger.ErrorContext(ctx, "Failed to persist panic incident",
			"error", err, "senior_phone", senior.Phone, "event_type", "PANIC")
		return nil, fmt.Errorf("failed to persist panic incident: %w", err)
	}

	s.queueNotification(ctx, "sms", senior.GuardianPhone, senior.Name, "PANIC",
		fmt.Sprintf("GUARDIANLINK360 ALERT: %s triggered a PANIC alert. Login to your dashboard immediately.", senior.Name))
	s.queueNotification(ctx, "whatsapp", senior.GuardianPhone, senior.Name, "PANIC",
		fmt.Sprintf("*GUARDIANLINK360 ALERT*\n\n*%s* triggered a *PANIC* alert.\n\nLogin to your dashboard immediately.", senior.Name))
	if guardian, err := s.userRepo.FindByPhoneAndRole(ctx, senior.GuardianPhone, domain.RoleGuardian); err == nil && guardian != nil && guardian.Email != "" {
		s.queueNotification(ctx, "email", guardian.Email, senior.Name, "PANIC",
			fmt.Sprintf("%s pressed the panic button. Risk score %d.", senior.Name, verdict.RiskScore))
	}

	s.emitter.EmitToGuardian(senior.GuardianPhone, "panic-alert", events.PanicAlertEvent{
		AlertID:       alert.ID,
		SeniorName:    senior.Name,
		SeniorPhone:   senior.Phone,
		GuardianPhone: senior.GuardianPhone,
		RiskScore:     verdict.RiskScore,
		CreatedAt:     alert.CreatedAt,
	})

	if err := s.eventBus.Publish(ctx, events.AlertPanic, events.PanicAlertEvent{
		AlertID:       alert.ID,
		SeniorName:    senior.Name,
		SeniorPhone:   senior.Phone,
		GuardianPhone: senior.GuardianPhone,
		RiskScore:     verdict.RiskScore,
		CreatedAt:     alert.CreatedAt,
	}); err != nil {
		logger.ErrorContext(ctx, "Failed to publish panic event", "error", err, "alert_id", alert.ID)
	}

	logger.InfoContext(ctx, "PANIC alert triggered",
		"senior_phone", senior.Phone, "alert_id", alert.ID, "risk_score", verdict.RiskScore)
	return alert, nil
}

func matchesScamLexicon(callerName, callerDepartment string) bool {
	name := strings.ToLower(callerName)
	dept := strings.ToLower(callerDepartment)
	for _, phrase := range scamPhrases {
		if strings.Contains(name, phrase) || (dept != "" && strings.Contains(dept, phrase)) {
			return true
		}
	}
	return false
}

// VerifyCaller scores a caller's details. The low-risk path is not audited:
// no persistence, no emit, just the verdict back to the senior.
func (s *alertService) VerifyCaller(ctx context.Context, req *domain.VerifyCallerRequest) (*domain.VerifyCallerResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	description := fmt.Sprintf("Caller %s from %s, badge %s", req.CallerName, req.CallerDepartment, req.CallerBadge)
	verdict := s.oracle.Analyze(ctx, description)

	isScam := verdict.IsScam || matchesScamLexicon(req.CallerName, req.CallerDepartment)
	riskScore := verdict.RiskScore
	if isScam && riskScore < scamFloorScore {
		riskScore = scamFloorScore
	}

	result := &domain.VerifyCallerResult{
		IsVerified: !isScam,
		RiskScore:  riskScore,
	}
	if isScam {
		result.Message = "WARNING: This caller matches known scam patterns. NO legitimate officer will call like this."
	} else {
		result.Message = "No immediate red flags. But stay cautious: real officers never demand money on calls."
	}

	if !isScam {
		return result, nil
	}

	senior, err := s.userRepo.FindByPhone(ctx, req.SeniorPhone)
	if err != nil {
		return nil, fmt.Errorf("failed to look up senior: %w", err)
	}
	if senior == nil {
		return nil, fmt.Errorf("%w: senior not registered", domain.ErrNotFound)
	}

	alert, err := s.alertRepo.Create(ctx, repository.CreateAlertParams{
		SeniorPhone:   senior.Phone,
		GuardianPhone: senior.GuardianPhone,
		Type:          domain.AlertVerifyCaller,
		RiskScore:     riskScore,
		Details:       fmt.Sprintf("Suspicious caller: %s from %s", req.CallerName, req.CallerDepartment),
	})
	if err != nil {
		logger.ErrorContext(ctx, "Failed to persist caller alert",
			"error", err, "senior_phone", senior.Phone, "event_type", "VERIFY_CALLER")
		return nil, fmt.Errorf("failed to persist caller alert: %w", err)
	}

	s.queueNotification(ctx, "sms", senior.GuardianPhone, senior.Name, "VERIFY_CALLER",
		fmt.Sprintf("GUARDIANLINK360 ALERT: %s reported a suspicious caller (%s). Login to your dashboard immediately.", senior.Name, req.CallerName))

	s.emitter.EmitToGuardian(senior.GuardianPhone, "scam-detected", events.ScamDetectedEvent{
		AlertID:          alert.ID,
		SeniorName:       senior.Name,
		SeniorPhone:      senior.Phone,
		GuardianPhone:    senior.GuardianPhone,
		CallerName:       req.CallerName,
		CallerDepartment: req.CallerDepartment,
		RiskScore:        riskScore,
		CreatedAt:        alert.CreatedAt,
	})

	if err := s.eventBus.Publish(ctx, events.AlertScamDetected, events.ScamDetectedEvent{
		AlertID:       alert.ID,
		SeniorName:    senior.Name,
		SeniorPhone:   senior.Phone,
		GuardianPhone: senior.GuardianPhone,
		CallerName:    req.CallerName,
		RiskScore:     riskScore,
		CreatedAt:     alert.CreatedAt,
	}); err != nil {
		logger.ErrorContext(ctx, "Failed to publish scam event", "error", err, "alert_id", alert.ID)
	}

	return result, nil
}

// RunScamCheck scores the five-question checklist locally: 20 points per
// "yes". Local scoring is the guaranteed path; the oracle is not consulted.
func (s *alertService) RunScamCheck(ctx context.Context, req *domain.ScamCheckRequest) (*domain.ScamCheckResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	count := 0
	for _, yes := range req.Answers {
		if yes {
			count++
		}
	}

	result := &domain.ScamCheckResult{Score: count * 20}
	switch {
	case count == 0:
		result.Status = "safe"
	case count <= 2:
		result.Status = "caution"
	default:
		result.Status = "high-risk"
	}

	// High-risk outcomes leave an audit record when we know who ran the check.
	if result.Status == "high-risk" && req.SeniorPhone != "" {
		senior, err := s.userRepo.FindByPhoneAndRole(ctx, req.SeniorPhone, domain.RoleSenior)
		if err != nil || senior == nil {
			logger.WarnContext(ctx, "Scam check senior lookup failed, skipping audit record",
				"error", err, "senior_phone", req.SeniorPhone)
			return result, nil
		}
		if _, err := s.alertRepo.Create(ctx, repository.CreateAlertParams{
			SeniorPhone:   senior.Phone,
			GuardianPhone: senior.GuardianPhone,
			Type:          domain.AlertSuspiciousCall,
			RiskScore:     result.Score,
			Details:       fmt.Sprintf("Scam checklist scored high-risk (%d/100)", result.Score),
		}); err != nil {
			logger.ErrorContext(ctx, "Failed to persist scam check alert",
				"error", err, "senior_phone", senior.Phone, "event_type", "SUSPICIOUS_CALL")
		}
	}

	return result, nil
}

func (s *alertService) AlertHistory(ctx context.Context, seniorPhone string, limit int) ([]domain.Alert, error) {
	return s.alertRepo.ListBySenior(ctx, seniorPhone, limit)
}

func (s *alertService) queueNotification(ctx context.Context, channel, recipient, seniorName, alertType, body string) {
	ev := events.NotificationEvent{
		Channel:    channel,
		Recipient:  recipient,
		SeniorName: seniorName,
		AlertType:  alertType,
		Body:       body,
		QueuedAt:   time.Now(),
	}
	if err := s.eventBus.Publish(ctx, events.NotifySend, ev); err != nil {
		logger.ErrorContext(ctx, "Failed to queue notification",
			"error", err, "channel", channel, "recipient", recipient, "alert_type", alertType)
	}
}
