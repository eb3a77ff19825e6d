package patient

import (
	"context"

	"github.com/tomotos141/dental-x-ray-navigatar/internal/platform/changefeed"
	"github.com/tomotos141/dental-x-ray-navigatar/internal/platform/docstore"
)

// Collection is the change-feed name of the patients collection.
const Collection = docstore.PatientsCollection

type Service struct {
	repo Repository
	feed changefeed.Notifier
}

func NewService(repo Repository, feed changefeed.Notifier) *Service {
	if feed == nil {
		feed = changefeed.Discard
	}
	return &Service{repo: repo, feed: feed}
}

// Save validates p and upserts it by id.
func (s *Service) Save(ctx context.Context, p *Patient) error {
	if err := Normalize(p); err != nil {
		return err
	}
	if err := s.repo.Upsert(ctx, p); err != nil {
		return err
	}
	s.feed.Changed(ctx, Collection, p.ID, changefeed.ActionUpsert)
	return nil
}

// Update merges the fields present in patch into the stored patient.
func (s *Service) Update(ctx context.Context, id string, patch Patch) (*Patient, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	if err := patch.validate(); err != nil {
		return nil, err
	}
	p, err := s.repo.Merge(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	s.feed.Changed(ctx, Collection, id, changefeed.ActionUpsert)
	return p, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Patient, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*Patient, error) {
	return s.repo.List(ctx)
}

// Delete irreversibly removes a patient. confirmation must repeat the id.
// Imaging requests keep their own copy of the patient and are not touched.
func (s *Service) Delete(ctx context.Context, id, confirmation string) error {
	if id == "" {
		return ErrIDRequired
	}
	if confirmation != id {
		return ErrConfirmationMismatch
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.feed.Changed(ctx, Collection, id, changefeed.ActionDelete)
	return nil
}
