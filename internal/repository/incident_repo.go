package repository

import (
	"context"
	"time"

	"github.com/guardianlink/guardianlink360/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CreateIncidentParams struct {
	SeniorPhone       string
	GuardianPhone     string
	AlertType         domain.AlertType
	RiskScore         int
	CallerDetails     string
	TransactionAmount int64
	TransactionFrozen bool
}

type IncidentRepository interface {
	Create(ctx context.Context, p CreateIncidentParams) (*domain.Incident, error)
	GetByID(ctx context.Context, id int64) (*domain.Incident, error)
	ListByGuardian(ctx context.Context, guardianPhone string, limit int) ([]domain.Incident, error)
	// UpsertTransactionFreeze attaches the flagged amount to the senior's open
	// incident, creating one when none exists. Single UPDATE/INSERT per call so
	// concurrent freeze and resolve cannot interleave a stale read-modify-write.
	UpsertTransactionFreeze(ctx context.Context, p CreateIncidentParams) (*domain.Incident, error)
	Unfreeze(ctx context.Context, seniorPhone string) error
	Resolve(ctx context.Context, id int64, resolvedBy string) (*domain.Incident, error)
	Escalate(ctx context.Context, id int64) (*domain.Incident, error)
	CountByGuardian(ctx context.Context, guardianPhone string, status *domain.IncidentStatus, frozenOnly bool) (int64, error)
}

type incidentRepository struct {
	pool *pgxpool.Pool
}

func NewIncidentRepository(pool *pgxpool.Pool) IncidentRepository {
	return &incidentRepository{pool: pool}
}

const incidentCols = `id, senior_phone, guardian_phone, alert_type, risk_score,
caller_details, transaction_amount, transaction_frozen, resolved_by, status, created_at`

func scanIncident(row pgx.Row) (*domain.Incident, error) {
	var i domain.Incident
	err := row.Scan(
		&i.ID, &i.SeniorPhone, &i.GuardianPhone, &i.AlertType, &i.RiskScore,
		&i.CallerDetails, &i.TransactionAmount, &i.TransactionFrozen,
		&i.ResolvedBy, &i.Status, &i.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &i, nil
}

func (r *incidentRepository) Create(ctx context.Context, p CreateIncidentParams) (*domain.Incident, error) {
	const q = `INSERT INTO incidents (
		senior_phone, guardian_phone, alert_type, risk_score,
		caller_details, transaction_amount, transaction_frozen, resolved_by, status
	) VALUES ($1, $2, $3, $4, $5, $6, $7, 'system', 'OPEN')
	RETURNING ` + incidentCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanIncident(r.pool.QueryRow(ctx, q,
		p.SeniorPhone, p.GuardianPhone, p.AlertType, p.RiskScore,
		p.CallerDetails, p.TransactionAmount, p.TransactionFrozen,
	))
}

func (r *incidentRepository) GetByID(ctx context.Context, id int64) (*domain.Incident, error) {
	const q = `SELECT ` + incidentCols + ` FROM incidents WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	inc, err := scanIncident(r.pool.QueryRow(ctx, q, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return inc, err
}

func (r *incidentRepository) ListByGuardian(ctx context.Context, guardianPhone string, limit int) ([]domain.Incident, error) {
	const q = `SELECT ` + incidentCols + ` FROM incidents WHERE guardian_phone=$1 ORDER BY created_at DESC LIMIT $2`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, guardianPhone, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var incidents []domain.Incident
	for rows.Next() {
		var i domain.Incident
		if err := rows.Scan(
			&i.ID, &i.SeniorPhone, &i.GuardianPhone, &i.AlertType, &i.RiskScore,
			&i.CallerDetails, &i.TransactionAmount, &i.TransactionFrozen,
			&i.ResolvedBy, &i.Status, &i.CreatedAt,
		); err != nil {
			return nil, err
		}
		incidents = append(incidents, i)
	}
	return incidents, rows.Err()
}

func (r *incidentRepository) UpsertTransactionFreeze(ctx context.Context, p CreateIncidentParams) (*domain.Incident, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	const upd = `UPDATE incidents
	SET transaction_amount=$2, transaction_frozen=TRUE, risk_score=GREATEST(risk_score, $3)
	WHERE id = (
		SELECT id FROM incidents WHERE senior_phone=$1 AND status='OPEN'
		ORDER BY created_at DESC LIMIT 1
	)
	RETURNING ` + incidentCols

	inc, err := scanIncident(r.pool.QueryRow(ctx, upd, p.SeniorPhone, p.TransactionAmount, p.RiskScore))
	if err == nil {
		return inc, nil
	}
	if err != pgx.ErrNoRows {
		return nil, err
	}
	return r.Create(ctx, p)
}

func (r *incidentRepository) Unfreeze(ctx context.Context, seniorPhone string) error {
	const q = `UPDATE incidents SET transaction_frozen=FALSE WHERE senior_phone=$1 AND transaction_frozen=TRUE`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ctx, q, seniorPhone)
	return err
}

func (r *incidentRepository) Resolve(ctx context.Context, id int64, resolvedBy string) (*domain.Incident, error) {
	const q = `UPDATE incidents SET status='RESOLVED', resolved_by=$2 WHERE id=$1 RETURNING ` + incidentCols
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	inc, err := scanIncident(r.pool.QueryRow(ctx, q, id, resolvedBy))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return inc, err
}

func (r *incidentRepository) Escalate(ctx context.Context, id int64) (*domain.Incident, error) {
	const q = `UPDATE incidents SET status='ESCALATED' WHERE id=$1 AND status='OPEN' RETURNING ` + incidentCols
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	inc, err := scanIncident(r.pool.QueryRow(ctx, q, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return inc, err
}

func (r *incidentRepository) CountByGuardian(ctx context.Context, guardianPhone string, status *domain.IncidentStatus, frozenOnly bool) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	q := `SELECT COUNT(*) FROM incidents WHERE guardian_phone=$1`
	args := []interface{}{guardianPhone}
	if status != nil {
		q += ` AND status=$2`
		args = append(args, *status)
	}
	if frozenOnly {
		q += ` AND transaction_frozen=TRUE`
	}

	var count int64
	err := r.pool.QueryRow(ctx, q, args...).Scan(&count)
	return count, err
}
