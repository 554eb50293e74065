package repository

import (
	"context"
	"time"

	"github.com/guardianlink/guardianlink360/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CreateAlertParams struct {
	SeniorPhone   string
	GuardianPhone string
	Type          domain.AlertType
	RiskScore     int
	Details       string
}

type AlertRepository interface {
	Create(ctx context.Context, p CreateAlertParams) (*domain.Alert, error)
	GetByID(ctx context.Context, id int64) (*domain.Alert, error)
	ListByGuardian(ctx context.Context, guardianPhone string, limit int) ([]domain.Alert, error)
	ListBySenior(ctx context.Context, seniorPhone string, limit int) ([]domain.Alert, error)
	Resolve(ctx context.Context, id int64) (*domain.Alert, error)
	CountByGuardian(ctx context.Context, guardianPhone string, status *domain.AlertStatus) (int64, error)
}

type alertRepository struct {
	pool *pgxpool.Pool
}

func NewAlertRepository(pool *pgxpool.Pool) AlertRepository {
	return &alertRepository{pool: pool}
}

const alertCols = `id, senior_phone, guardian_phone, type, status, risk_score, details, created_at`

func (r *alertRepository) Create(ctx context.Context, p CreateAlertParams) (*domain.Alert, error) {
	const q = `INSERT INTO alerts (senior_phone, guardian_phone, type, status, risk_score, details)
	VALUES ($1, $2, $3, 'ACTIVE', $4, $5)
	RETURNING ` + alertCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var a domain.Alert
	err := r.pool.QueryRow(ctx, q,
		p.SeniorPhone, p.GuardianPhone, p.Type, p.RiskScore, p.Details,
	).Scan(
		&a.ID, &a.SeniorPhone, &a.GuardianPhone, &a.Type,
		&a.Status, &a.RiskScore, &a.Details, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *alertRepository) GetByID(ctx context.Context, id int64) (*domain.Alert, error) {
	const q = `SELECT ` + alertCols + ` FROM alerts WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var a domain.Alert
	err := r.pool.QueryRow(ctx, q, id).Scan(
		&a.ID, &a.SeniorPhone, &a.GuardianPhone, &a.Type,
		&a.Status, &a.RiskScore, &a.Details, &a.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return &a, err
}

func (r *alertRepository) ListByGuardian(ctx context.Context, guardianPhone string, limit int) ([]domain.Alert, error) {
	const q = `SELECT ` + alertCols + ` FROM alerts WHERE guardian_phone=$1 ORDER BY created_at DESC LIMIT $2`
	return r.list(ctx, q, guardianPhone, limit)
}

func (r *alertRepository) ListBySenior(ctx context.Context, seniorPhone string, limit int) ([]domain.Alert, error) {
	const q = `SELECT ` + alertCols + ` FROM alerts WHERE senior_phone=$1 ORDER BY created_at DESC LIMIT $2`
	return r.list(ctx, q, seniorPhone, limit)
}

func (r *alertRepository) list(ctx context.Context, q, phone string, limit int) ([]domain.Alert, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, phone, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []domain.Alert
	for rows.Next() {
		var a domain.Alert
		if err := rows.Scan(
			&a.ID, &a.SeniorPhone, &a.GuardianPhone, &a.Type,
			&a.Status, &a.RiskScore, &a.Details, &a.CreatedAt,
		); err != nil {
			return nil, err
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

func (r *alertRepository) Resolve(ctx context.Context, id int64) (*domain.Alert, error) {
	const q = `UPDATE alerts SET status='RESOLVED' WHERE id=$1 RETURNING ` + alertCols
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var a domain.Alert
	err := r.pool.QueryRow(ctx, q, id).Scan(
		&a.ID, &a.SeniorPhone, &a.GuardianPhone, &a.Type,
		&a.Status, &a.RiskScore, &a.Details, &a.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return &a, err
}

func (r *alertRepository) CountByGuardian(ctx context.Context, guardianPhone string, status *domain.AlertStatus) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var count int64
	var err error
	if status == nil {
		err = r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM alerts WHERE guardian_phone=$1`, guardianPhone).Scan(&count)
	} else {
		err = r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM alerts WHERE guardian_phone=$1 AND status=$2`, guardianPhone, *status).Scan(&count)
	}
	return count, err
}
