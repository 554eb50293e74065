package repository

import (
	"context"
	"time"

	"github.com/guardianlink/guardianlink360/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository interface {
	Create(ctx context.Context, req *domain.RegisterRequest) (*domain.User, error)
	FindByPhone(ctx context.Context, phone string) (*domain.User, error)
	FindByPhoneAndRole(ctx context.Context, phone string, role domain.Role) (*domain.User, error)
	ListSeniorsByGuardian(ctx context.Context, guardianPhone string) ([]domain.User, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userCols = `id, name, phone, COALESCE(email, ''), role,
COALESCE(guardian_phone, ''), COALESCE(linked_senior_phone, ''), created_at`

func (r *userRepository) Create(ctx context.Context, req *domain.RegisterRequest) (*domain.User, error) {
	const q = `INSERT INTO users (name, phone, email, role, guardian_phone, linked_senior_phone)
	VALUES ($1, $2, NULLIF($3, ''), $4, NULLIF($5, ''), NULLIF($6, ''))
	RETURNING ` + userCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var u domain.User
	err := r.pool.QueryRow(ctx, q,
		req.Name, req.Phone, req.Email, req.Role, req.GuardianPhone, req.LinkedSeniorPhone,
	).Scan(
		&u.ID, &u.Name, &u.Phone, &u.Email, &u.Role,
		&u.GuardianPhone, &u.LinkedSeniorPhone, &u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) FindByPhone(ctx context.Context, phone string) (*domain.User, error) {
	const q = `SELECT ` + userCols + ` FROM users WHERE phone=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var u domain.User
	err := r.pool.QueryRow(ctx, q, phone).Scan(
		&u.ID, &u.Name, &u.Phone, &u.Email, &u.Role,
		&u.GuardianPhone, &u.LinkedSeniorPhone, &u.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return &u, err
}

func (r *userRepository) FindByPhoneAndRole(ctx context.Context, phone string, role domain.Role) (*domain.User, error) {
	const q = `SELECT ` + userCols + ` FROM users WHERE phone=$1 AND role=$2`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var u domain.User
	err := r.pool.QueryRow(ctx, q, phone, role).Scan(
		&u.ID, &u.Name, &u.Phone, &u.Email, &u.Role,
		&u.GuardianPhone, &u.LinkedSeniorPhone, &u.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return &u, err
}

func (r *userRepository) ListSeniorsByGuardian(ctx context.Context, guardianPhone string) ([]domain.User, error) {
	const q = `SELECT ` + userCols + ` FROM users WHERE role='senior' AND guardian_phone=$1 ORDER BY created_at`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, guardianPhone)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(
			&u.ID, &u.Name, &u.Phone, &u.Email, &u.Role,
			&u.GuardianPhone, &u.LinkedSeniorPhone, &u.CreatedAt,
		); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
