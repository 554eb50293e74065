package service

import (
	"context"
	"fmt"
	"time"

	"github.com/guardianlink/guardianlink360/internal/cooling"
	"github.com/guardianlink/guardianlink360/internal/domain"
	"github.com/guardianlink/guardianlink360/internal/presence"
	"github.com/guardianlink/guardianlink360/internal/repository"
	"github.com/guardianlink/guardianlink360/pkg/config"
	"github.com/guardianlink/guardianlink360/pkg/events"
	"github.com/guardianlink/guardianlink360/pkg/logger"
)

type TransactionService interface {
	Flag(ctx context.Context, req *domain.FlagTransactionRequest) (*domain.FlagTransactionResult, error)
	Approve(ctx context.Context, req *domain.ApproveTransactionRequest) (string, error)
	// HandleExpiry is the cooling registry's expiry callback.
	HandleExpiry(ctx context.Context, e cooling.Entry, policy config.ExpiryPolicy)
}

type transactionService struct {
	userRepo     repository.UserRepository
	alertRepo    repository.AlertRepository
	incidentRepo repository.IncidentRepository
	registry     *cooling.Registry
	emitter      presence.Emitter
	eventBus     events.Publisher
}

func NewTransactionService(
	userRepo repository.UserRepository,
	alertRepo repository.AlertRepository,
	incidentRepo repository.IncidentRepository,
	registry *cooling.Registry,
	emitter presence.Emitter,
	eventBus events.Publisher,
) TransactionService {
	return &transactionService{
		userRepo:     userRepo,
		alertRepo:    alertRepo,
		incidentRepo: incidentRepo,
		registry:     registry,
		emitter:      emitter,
		eventBus:     eventBus,
	}
}

const transactionFlagScore = 90

// Flag freezes a high-risk transaction for the cooling window. Amounts under
// the threshold return immediately with no persistence. EventStore writes
// complete before the realtime emit; notification is queued, never awaited.
func (s *transactionService) Flag(ctx context.Context, req *domain.FlagTransactionRequest) (*domain.FlagTransactionResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	senior, err := s.userRepo.FindByPhoneAndRole(ctx, req.SeniorPhone, domain.RoleSenior)
	if err != nil {
		return nil, fmt.Errorf("failed to look up senior: %w", err)
	}
	if senior == nil {
		return nil, fmt.Errorf("%w: senior not registered", domain.ErrNotFound)
	}

	if !s.registry.ShouldFreeze(req.Amount) {
		return &domain.FlagTransactionResult{
			Frozen:           false,
			Message:          "Transaction amount is within safe limits.",
			RequiresApproval: false,
		}, nil
	}

	if _, err := s.alertRepo.Create(ctx, repository.CreateAlertParams{
		SeniorPhone:   senior.Phone,
		GuardianPhone: senior.GuardianPhone,
		Type:          domain.AlertTransactionFlag,
		RiskScore:     transactionFlagScore,
		Details:       fmt.Sprintf("High-risk transaction of %d flagged. Cooling period applies.", req.Amount),
	}); err != nil {
		logger.ErrorContext(ctx, "Failed to persist transaction alert",
			"error", err, "senior_phone", senior.Phone, "event_type", "TRANSACTION_FLAG")
		return nil, fmt.Errorf("failed to persist transaction alert: %w", err)
	}

	incident, err := s.incidentRepo.UpsertTransactionFreeze(ctx, repository.CreateIncidentParams{
		SeniorPhone:       senior.Phone,
		GuardianPhone:     senior.GuardianPhone,
		AlertType:         domain.AlertTransactionFlag,
		RiskScore:         transactionFlagScore,
		TransactionAmount: req.Amount,
		TransactionFrozen: true,
	})
	if err != nil {
		logger.ErrorContext(ctx, "Failed to persist transaction incident",
			"error", err, "senior_phone", senior.Phone, "event_type", "TRANSACTION_FLAG")
		return nil, fmt.Errorf("failed to persist transaction incident: %w", err)
	}

	entry, err := s.registry.Flag(ctx, senior.Phone, senior.GuardianPhone, req.BankName, req.Amount, incident.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to register cooling entry: %w", err)
	}

	s.queueNotification(ctx, senior.GuardianPhone, senior.Name, "TRANSACTION_FLAG",
		fmt.Sprintf("TRANSACTION FREEZE: %d blocked for %s. Guardian approval required.", req.Amount, senior.Name))

	s.emitter.EmitToGuardian(senior.GuardianPhone, "transaction-flagged", events.TransactionFlaggedEvent{
		IncidentID:    incident.ID,
		SeniorName:    senior.Name,
		SeniorPhone:   senior.Phone,
		GuardianPhone: senior.GuardianPhone,
		Amount:        req.Amount,
		BankName:      req.BankName,
		CoolingUntil:  entry.CoolingUntil,
	})

	if err := s.eventBus.Publish(ctx, events.AlertTransactionFlagged, events.TransactionFlaggedEvent{
		IncidentID:    incident.ID,
		SeniorPhone:   senior.Phone,
		GuardianPhone: senior.GuardianPhone,
		Amount:        req.Amount,
		CoolingUntil:  entry.CoolingUntil,
	}); err != nil {
		logger.ErrorContext(ctx, "Failed to publish transaction flagged event", "error", err, "incident_id", incident.ID)
	}

	logger.WarnContext(ctx, "Transaction frozen",
		"senior_phone", senior.Phone, "amount", req.Amount, "cooling_until", entry.CoolingUntil)

	cooledUntil := entry.CoolingUntil
	return &domain.FlagTransactionResult{
		Frozen:           true,
		Message:          fmt.Sprintf("Transaction of %d has been frozen. Guardian approval required.", req.Amount),
		CoolingUntil:     &cooledUntil,
		RequiresApproval: true,
	}, nil
}

// Approve releases the freeze. Only a registered guardian may approve; the
// senior is always told about the release, not only opportunistically.
func (s *transactionService) Approve(ctx context.Context, req *domain.ApproveTransactionRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	guardian, err := s.userRepo.FindByPhoneAndRole(ctx, req.GuardianPhone, domain.RoleGuardian)
	if err != nil {
		return "", fmt.Errorf("failed to look up guardian: %w", err)
	}
	if guardian == nil {
		return "", fmt.Errorf("%w: only a guardian can approve", domain.ErrForbidden)
	}

	entry, err := s.registry.Release(ctx, req.SeniorPhone)
	if err != nil {
		return "", fmt.Errorf("failed to release cooling entry: %w", err)
	}

	if entry != nil {
		if err := s.incidentRepo.Unfreeze(ctx, req.SeniorPhone); err != nil {
			logger.ErrorContext(ctx, "Failed to unfreeze incident after approval",
				"error", err, "senior_phone", req.SeniorPhone)
		}
	}

	now := time.Now()
	s.emitter.EmitToGuardian(req.GuardianPhone, "transaction-approved", events.TransactionApprovedEvent{
		SeniorPhone:   req.SeniorPhone,
		GuardianPhone: req.GuardianPhone,
		ApprovedBy:    guardian.Name,
		ApprovedAt:    now,
	})
	s.emitter.EmitToSenior(req.SeniorPhone, "transaction:freeze:confirm", events.TransactionApprovedEvent{
		SeniorPhone:   req.SeniorPhone,
		GuardianPhone: req.GuardianPhone,
		ApprovedBy:    guardian.Name,
		ApprovedAt:    now,
	})

	if err := s.eventBus.Publish(ctx, events.AlertTransactionApproved, events.TransactionApprovedEvent{
		SeniorPhone:   req.SeniorPhone,
		GuardianPhone: req.GuardianPhone,
		ApprovedBy:    guardian.Name,
		ApprovedAt:    now,
	}); err != nil {
		logger.ErrorContext(ctx, "Failed to publish transaction approved event", "error", err)
	}

	logger.InfoContext(ctx, "Transaction approved by guardian",
		"guardian_phone", req.GuardianPhone, "senior_phone", req.SeniorPhone)
	return "Transaction approved by guardian", nil
}

// HandleExpiry applies the configured disposition to a freeze nobody acted
// on. The registry has already cleared the entry under the senior's lock.
func (s *transactionService) HandleExpiry(ctx context.Context, e cooling.Entry, policy config.ExpiryPolicy) {
	switch policy {
	case config.ExpiryRelease:
		if err := s.incidentRepo.Unfreeze(ctx, e.SeniorPhone); err != nil {
			logger.ErrorContext(ctx, "Failed to unfreeze incident on expiry",
				"error", err, "senior_phone", e.SeniorPhone)
		}
	case config.ExpiryEscalate:
		if _, err := s.incidentRepo.Escalate(ctx, e.IncidentID); err != nil {
			logger.ErrorContext(ctx, "Failed to escalate incident on expiry",
				"error", err, "incident_id", e.IncidentID)
		}
		if err := s.incidentRepo.Unfreeze(ctx, e.SeniorPhone); err != nil {
			logger.ErrorContext(ctx, "Failed to unfreeze incident on expiry",
				"error", err, "senior_phone", e.SeniorPhone)
		}
	default:
		return
	}

	s.emitter.EmitToGuardian(e.GuardianPhone, "transaction-expired", events.TransactionExpiredEvent{
		IncidentID:    e.IncidentID,
		SeniorPhone:   e.SeniorPhone,
		GuardianPhone: e.GuardianPhone,
		Amount:        e.Amount,
		Policy:        string(policy),
		ExpiredAt:     time.Now(),
	})

	if err := s.eventBus.Publish(ctx, events.AlertTransactionExpired, events.TransactionExpiredEvent{
		IncidentID:    e.IncidentID,
		SeniorPhone:   e.SeniorPhone,
		GuardianPhone: e.GuardianPhone,
		Amount:        e.Amount,
		Policy:        string(policy),
		ExpiredAt:     time.Now(),
	}); err != nil {
		logger.ErrorContext(ctx, "Failed to publish transaction expired event", "error", err)
	}
}

func (s *transactionService) queueNotification(ctx context.Context, recipient, seniorName, alertType, body string) {
	ev := events.NotificationEvent{
		Channel:    "sms",
		Recipient:  recipient,
		SeniorName: seniorName,
		AlertType:  alertType,
		Body:       body,
		QueuedAt:   time.Now(),
	}
	if err := s.eventBus.Publish(ctx, events.NotifySend, ev); err != nil {
		logger.ErrorContext(ctx, "Failed to queue notification",
			"error", err, "recipient", recipient, "alert_type", alertType)
	}
}
