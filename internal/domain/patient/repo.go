package patient

import "context"

// Repository is the Record Store boundary for the patients collection.
type Repository interface {
	// Upsert writes p by id. Identity fields overwrite the stored ones;
	// CreatedAt of an existing record is kept.
	Upsert(ctx context.Context, p *Patient) error
	// Merge applies a partial update and returns the stored result.
	Merge(ctx context.Context, id string, patch Patch) (*Patient, error)
	GetByID(ctx context.Context, id string) (*Patient, error)
	// List returns every patient ordered by name.
	List(ctx context.Context) ([]*Patient, error)
	Delete(ctx context.Context, id string) error
}
