package operator

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, o *Operator) error
	GetByID(ctx context.Context, id uuid.UUID) (*Operator, error)
	Update(ctx context.Context, o *Operator) error
	Delete(ctx context.Context, id uuid.UUID) error
	// List returns operators in roster order (oldest first).
	List(ctx context.Context, activeOnly bool) ([]*Operator, error)
}
