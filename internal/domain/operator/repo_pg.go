package operator

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tomotos141/dental-x-ray-navigatar/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const operatorCols = `id, name, role, active, created_at, updated_at`

func scanOperator(row pgx.Row) (*Operator, error) {
	var o Operator
	var role string
	var active bool
	err := row.Scan(&o.ID, &o.Name, &role, &active, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	o.Role = Role(role)
	o.Active = &active
	return &o, nil
}

func (r *repoPG) Create(ctx context.Context, o *Operator) error {
	o.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO operator (id, name, role, active)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`,
		o.ID, o.Name, string(o.Role), o.IsActive(),
	).Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create operator: %w", err)
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Operator, error) {
	return scanOperator(r.conn(ctx).QueryRow(ctx, `SELECT `+operatorCols+` FROM operator WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, o *Operator) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE operator SET name = $2, role = $3, active = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING created_at, updated_at`,
		o.ID, o.Name, string(o.Role), o.IsActive(),
	).Scan(&o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update operator %s: %w", o.ID, err)
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM operator WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete operator %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, activeOnly bool) ([]*Operator, error) {
	query := `SELECT ` + operatorCols + ` FROM operator`
	if activeOnly {
		query += ` WHERE active`
	}
	query += ` ORDER BY created_at, name`

	rows, err := r.conn(ctx).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list operators: %w", err)
	}
	defer rows.Close()

	var items []*Operator
	for rows.Next() {
		o, err := scanOperator(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, o)
	}
	return items, rows.Err()
}
