package stats

import (
	"context"
	"time"

	"github.com/tomotos141/dental-x-ray-navigatar/internal/domain/imagingrequest"
)

// Source supplies the full requests collection.
type Source interface {
	Snapshot(ctx context.Context) ([]*imagingrequest.ImagingRequest, error)
}

type Service struct {
	source Source
	policy Attribution
	now    func() time.Time
}

// NewService reads from source. now must return clinic-local time.
func NewService(source Source, policy Attribution, now func() time.Time) *Service {
	if policy == "" {
		policy = AttributionFirstLog
	}
	if now == nil {
		now = time.Now
	}
	return &Service{source: source, policy: policy, now: now}
}

func (s *Service) History(ctx context.Context, q HistoryQuery) ([]*imagingrequest.ImagingRequest, error) {
	all, err := s.source.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return FilterHistory(all, q), nil
}

func (s *Service) Period(ctx context.Context, preset Preset, from, to string) (PeriodStats, error) {
	rng, err := ResolveRange(preset, s.now(), from, to)
	if err != nil {
		return PeriodStats{}, err
	}
	all, err := s.source.Snapshot(ctx)
	if err != nil {
		return PeriodStats{}, err
	}
	return Compute(all, rng, s.policy), nil
}
