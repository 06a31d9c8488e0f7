package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/trafficwatch/problem-service/internal/domain"
)

// ProblemRepository encapsulates problem persistence. Every operation that
// addresses a single record carries the owner predicate; a record that exists
// but belongs to someone else is indistinguishable from a missing one.
type ProblemRepository interface {
	Create(ctx context.Context, problem *domain.Problem) error
	Update(ctx context.Context, problem *domain.Problem) error
	GetForOwner(ctx context.Context, ownerID, id string) (*domain.Problem, error)
	ListByOwner(ctx context.Context, ownerID string, status *domain.ProblemStatus) ([]domain.Problem, error)
	DeleteForOwner(ctx context.Context, ownerID, id string) error
}

type problemRepository struct {
	pool *pgxpool.Pool
}

// NewProblemRepository instantiates repository.
func NewProblemRepository(pool *pgxpool.Pool) ProblemRepository {
	return &problemRepository{pool: pool}
}

func (r *problemRepository) Create(ctx context.Context, problem *domain.Problem) error {
	const query = `
        INSERT INTO problems (user_id, title, description, problem_type, proposed_solution, priority, status, latitude, longitude, image_url)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		problem.UserID,
		problem.Title,
		problem.Description,
		problem.ProblemType,
		problem.ProposedSolution,
		problem.Priority,
		problem.Status,
		problem.Latitude,
		problem.Longitude,
		problem.ImageURL,
	).Scan(&problem.ID, &problem.CreatedAt, &problem.UpdatedAt)
}

func (r *problemRepository) Update(ctx context.Context, problem *domain.Problem) error {
	const query = `
        UPDATE problems SET title=$1, description=$2, problem_type=$3, proposed_solution=$4,
            priority=$5, status=$6, latitude=$7, longitude=$8, image_url=$9, updated_at=NOW()
        WHERE id=$10 AND user_id=$11`
	cmd, err := r.pool.Exec(ctx, query,
		problem.Title,
		problem.Description,
		problem.ProblemType,
		problem.ProposedSolution,
		problem.Priority,
		problem.Status,
		problem.Latitude,
		problem.Longitude,
		problem.ImageURL,
		problem.ID,
		problem.UserID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *problemRepository) GetForOwner(ctx context.Context, ownerID, id string) (*domain.Problem, error) {
	const query = `
        SELECT id, user_id, title, description, problem_type, proposed_solution,
               priority, status, latitude, longitude, image_url, created_at, updated_at
        FROM problems WHERE id=$1 AND user_id=$2`

	var problem domain.Problem
	if err := r.pool.QueryRow(ctx, query, id, ownerID).Scan(
		&problem.ID,
		&problem.UserID,
		&problem.Title,
		&problem.Description,
		&problem.ProblemType,
		&problem.ProposedSolution,
		&problem.Priority,
		&problem.Status,
		&problem.Latitude,
		&problem.Longitude,
		&problem.ImageURL,
		&problem.CreatedAt,
		&problem.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &problem, nil
}

func (r *problemRepository) ListByOwner(ctx context.Context, ownerID string, status *domain.ProblemStatus) ([]domain.Problem, error) {
	const base = `
        SELECT id, user_id, title, description, problem_type, proposed_solution,
               priority, status, latitude, longitude, image_url, created_at, updated_at
        FROM problems WHERE user_id=$1`

	var (
		rows pgx.Rows
		err  error
	)
	if status != nil {
		rows, err = r.pool.Query(ctx, base+` AND status=$2 ORDER BY created_at DESC`, ownerID, *status)
	} else {
		rows, err = r.pool.Query(ctx, base+` ORDER BY created_at DESC`, ownerID)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProblems(rows)
}

func (r *problemRepository) DeleteForOwner(ctx context.Context, ownerID, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM problems WHERE id=$1 AND user_id=$2`, id, ownerID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanProblems(rows pgx.Rows) ([]domain.Problem, error) {
	var result []domain.Problem
	for rows.Next() {
		var problem domain.Problem
		if err := rows.Scan(
			&problem.ID,
			&problem.UserID,
			&problem.Title,
			&problem.Description,
			&problem.ProblemType,
			&problem.ProposedSolution,
			&problem.Priority,
			&problem.Status,
			&problem.Latitude,
			&problem.Longitude,
			&problem.ImageURL,
			&problem.CreatedAt,
			&problem.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, problem)
	}
	return result, rows.Err()
}
