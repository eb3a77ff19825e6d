package operator

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func validate(o *Operator) error {
	o.Name = strings.TrimSpace(o.Name)
	if o.Name == "" {
		return ErrNameRequired
	}
	if !o.Role.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidRole, o.Role)
	}
	return nil
}

func (s *Service) Create(ctx context.Context, o *Operator) error {
	if o.Role == "" {
		o.Role = RoleTechnician
	}
	if err := validate(o); err != nil {
		return err
	}
	if o.Active == nil {
		active := true
		o.Active = &active
	}
	return s.repo.Create(ctx, o)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Operator, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, activeOnly bool) ([]*Operator, error) {
	return s.repo.List(ctx, activeOnly)
}

// Update replaces name, role and active flag. A nil Active keeps the stored
// flag.
func (s *Service) Update(ctx context.Context, o *Operator) error {
	if err := validate(o); err != nil {
		return err
	}
	if o.Active == nil {
		cur, err := s.repo.GetByID(ctx, o.ID)
		if err != nil {
			return err
		}
		o.Active = cur.Active
	}
	return s.repo.Update(ctx, o)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// FirstActive returns the first active operator in roster order, or nil when
// the roster has none.
func (s *Service) FirstActive(ctx context.Context) (*Operator, error) {
	items, err := s.repo.List(ctx, true)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return items[0], nil
}

// FindActiveByName returns the active operator whose name matches exactly
// (surrounding spaces ignored), or nil.
func (s *Service) FindActiveByName(ctx context.Context, name string) (*Operator, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	items, err := s.repo.List(ctx, true)
	if err != nil {
		return nil, err
	}
	for _, o := range items {
		if o.Name == name {
			return o, nil
		}
	}
	return nil, nil
}
