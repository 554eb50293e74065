package service

import (
	"context"
	"fmt"

	"github.com/guardianlink/guardianlink360/internal/domain"
	"github.com/guardianlink/guardianlink360/internal/presence"
	"github.com/guardianlink/guardianlink360/internal/repository"
	"github.com/guardianlink/guardianlink360/pkg/logger"
)

type DashboardService interface {
	Alerts(ctx context.Context, guardianPhone string, limit int) ([]domain.Alert, error)
	Incidents(ctx context.Context, guardianPhone string, limit int) ([]domain.Incident, error)
	Stats(ctx context.Context, guardianPhone string) (*domain.DashboardStats, error)
	ResolveIncident(ctx context.Context, incidentID int64) (*domain.Incident, error)
	ResolveAlert(ctx context.Context, alertID int64) (*domain.Alert, error)
}

type dashboardService struct {
	alertRepo    repository.AlertRepository
	incidentRepo repository.IncidentRepository
	emitter      presence.Emitter
}

func NewDashboardService(
	alertRepo repository.AlertRepository,
	incidentRepo repository.IncidentRepository,
	emitter presence.Emitter,
) DashboardService {
	return &dashboardService{
		alertRepo:    alertRepo,
		incidentRepo: incidentRepo,
		emitter:      emitter,
	}
}

func (s *dashboardService) Alerts(ctx context.Context, guardianPhone string, limit int) ([]domain.Alert, error) {
	return s.alertRepo.ListByGuardian(ctx, guardianPhone, limit)
}

func (s *dashboardService) Incidents(ctx context.Context, guardianPhone string, limit int) ([]domain.Incident, error) {
	return s.incidentRepo.ListByGuardian(ctx, guardianPhone, limit)
}

func (s *dashboardService) Stats(ctx context.Context, guardianPhone string) (*domain.DashboardStats, error) {
	total, err := s.alertRepo.CountByGuardian(ctx, guardianPhone, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to count alerts: %w", err)
	}
	active := domain.AlertActive
	activeCount, err := s.alertRepo.CountByGuardian(ctx, guardianPhone, &active)
	if err != nil {
		return nil, fmt.Errorf("failed to count active alerts: %w", err)
	}
	frozen, err := s.incidentRepo.CountByGuardian(ctx, guardianPhone, nil, true)
	if err != nil {
		return nil, fmt.Errorf("failed to count frozen transactions: %w", err)
	}
	resolved := domain.IncidentResolved
	resolvedCount, err := s.incidentRepo.CountByGuardian(ctx, guardianPhone, &resolved, false)
	if err != nil {
		return nil, fmt.Errorf("failed to count resolved incidents: %w", err)
	}

	return &domain.DashboardStats{
		TotalAlerts:        total,
		ActiveAlerts:       activeCount,
		FrozenTransactions: frozen,
		ResolvedIncidents:  resolvedCount,
	}, nil
}

func (s *dashboardService) ResolveIncident(ctx context.Context, incidentID int64) (*domain.Incident, error) {
	incident, err := s.incidentRepo.Resolve(ctx, incidentID, "guardian")
	if err != nil {
		return nil, fmt.Errorf("failed to resolve incident: %w", err)
	}
	if incident == nil {
		return nil, fmt.Errorf("%w: incident not found", domain.ErrNotFound)
	}

	logger.InfoContext(ctx, "Incident resolved", "incident_id", incidentID)
	return incident, nil
}

// ResolveAlert flips the alert to RESOLVED and tells the senior their
// guardian has seen it.
func (s *dashboardService) ResolveAlert(ctx context.Context, alertID int64) (*domain.Alert, error) {
	alert, err := s.alertRepo.Resolve(ctx, alertID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve alert: %w", err)
	}
	if alert == nil {
		return nil, fmt.Errorf("%w: alert not found", domain.ErrNotFound)
	}

	s.emitter.EmitToSenior(alert.SeniorPhone, "panic:acknowledged", map[string]interface{}{
		"alertId": alert.ID,
		"message": "Your guardian has been notified and is responding.",
	})

	logger.InfoContext(ctx, "Alert resolved", "alert_id", alertID)
	return alert, nil
}
