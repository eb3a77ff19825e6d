package imagingrequest

import (
	"context"
	"time"

	"github.com/tomotos141/dental-x-ray-navigatar/internal/domain/imaging"
)

// Repository is the Record Store boundary for the requests collection.
type Repository interface {
	Create(ctx context.Context, r *ImagingRequest) error
	GetByID(ctx context.Context, id string) (*ImagingRequest, error)
	// List returns matching requests, newest first.
	List(ctx context.Context, filter ListFilter) ([]*ImagingRequest, error)
	// Complete marks a pending request completed with logs, leaving every
	// other stored field as is. It returns ErrNotPending when the request is
	// no longer pending.
	Complete(ctx context.Context, id string, logs map[imaging.Type]RadiationLog, at time.Time) error
}
