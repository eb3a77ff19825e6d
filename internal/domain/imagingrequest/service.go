package imagingrequest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tomotos141/dental-x-ray-navigatar/internal/domain/imaging"
	"github.com/tomotos141/dental-x-ray-navigatar/internal/domain/operator"
	"github.com/tomotos141/dental-x-ray-navigatar/internal/domain/patient"
	"github.com/tomotos141/dental-x-ray-navigatar/internal/platform/changefeed"
	"github.com/tomotos141/dental-x-ray-navigatar/internal/platform/docstore"
)

// Collection is the change-feed name of the requests collection.
const Collection = docstore.RequestsCollection

// Operators resolves the default operator name and links log entries to
// the roster.
type Operators interface {
	FirstActive(ctx context.Context) (*operator.Operator, error)
	FindActiveByName(ctx context.Context, name string) (*operator.Operator, error)
}

// Transactor groups the patient upsert and the request insert.
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Recorder observes lifecycle events for metrics.
type Recorder interface {
	RequestCreated(r *ImagingRequest)
	RequestCompleted(r *ImagingRequest)
}

type Service struct {
	repo      Repository
	patients  patient.Repository
	operators Operators
	feed      changefeed.Notifier
	tx        Transactor
	metrics   Recorder
	cache     *changefeed.Cache[*ImagingRequest]
	now       func() time.Time
	loc       *time.Location
}

func NewService(repo Repository, patients patient.Repository, operators Operators, feed changefeed.Notifier) *Service {
	if feed == nil {
		feed = changefeed.Discard
	}
	return &Service{
		repo:      repo,
		patients:  patients,
		operators: operators,
		feed:      feed,
		now:       time.Now,
		loc:       time.Local,
	}
}

// SetTransactor makes Create atomic across the patient and request writes.
func (s *Service) SetTransactor(tx Transactor) { s.tx = tx }

func (s *Service) SetRecorder(r Recorder) { s.metrics = r }

// SetCache lets Snapshot serve from the change-feed cache.
func (s *Service) SetCache(c *changefeed.Cache[*ImagingRequest]) { s.cache = c }

// SetClock sets the time source and the clinic's time zone used for default
// dates.
func (s *Service) SetClock(now func() time.Time, loc *time.Location) {
	if now != nil {
		s.now = now
	}
	if loc != nil {
		s.loc = loc
	}
}

// Now returns the current clinic-local time.
func (s *Service) Now() time.Time { return s.now().In(s.loc) }

func (s *Service) inTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.tx == nil {
		return fn(ctx)
	}
	return s.tx.InTx(ctx, fn)
}

// Create validates the form state, upserts the patient and stores a new
// pending request. Nothing is written when validation fails.
func (s *Service) Create(ctx context.Context, in CreateInput) (*ImagingRequest, error) {
	in.normalize()
	now := s.Now()
	if in.ScheduledDate == "" {
		in.ScheduledDate = imaging.FormatDate(now)
	}
	if in.ScheduledTime == "" {
		in.ScheduledTime = now.Format("15:04")
	}
	if in.LocationFrom == "" {
		in.LocationFrom = imaging.LocationExamRoom
	}
	if in.LocationTo == "" {
		in.LocationTo = imaging.LocationWaitingRoom
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	age, err := imaging.AgeOn(in.PatientBirthday, in.ScheduledDate)
	if err != nil {
		return nil, invalid("patient_birthday", err)
	}
	var sides []imaging.Side
	if imaging.Contains(in.Types, imaging.TypeBitewing) {
		sides = uniqueSides(in.BitewingSides)
	}
	teeth := append([]int{}, in.SelectedTeeth...)

	p := &patient.Patient{
		ID:       in.PatientID,
		Name:     in.PatientName,
		Gender:   in.PatientGender,
		Birthday: in.PatientBirthday,
		BodyType: in.PatientBodyType,
	}
	req := &ImagingRequest{
		ID:                  uuid.New().String(),
		PatientID:           p.ID,
		PatientName:         p.Name,
		PatientGender:       p.Gender,
		PatientBirthday:     p.Birthday,
		PatientAgeAtRequest: age,
		PatientBodyType:     p.BodyType,
		Types:               append([]imaging.Type(nil), in.Types...),
		SelectedTeeth:       teeth,
		BitewingSides:       sides,
		Notes:               in.Notes,
		Points:              imaging.Points(in.Types, sides),
		Timestamp:           now,
		ScheduledDate:       in.ScheduledDate,
		ScheduledTime:       in.ScheduledTime,
		Status:              StatusPending,
		LocationFrom:        in.LocationFrom,
		LocationTo:          in.LocationTo,
		RadiationLogs:       map[imaging.Type]RadiationLog{},
	}

	err = s.inTx(ctx, func(ctx context.Context) error {
		if err := patient.Normalize(p); err != nil {
			return invalid("patient", err)
		}
		if err := s.patients.Upsert(ctx, p); err != nil {
			return err
		}
		return s.repo.Create(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	s.feed.Changed(ctx, patient.Collection, p.ID, changefeed.ActionUpsert)
	s.feed.Changed(ctx, Collection, req.ID, changefeed.ActionUpsert)
	if s.metrics != nil {
		s.metrics.RequestCreated(req)
	}
	return req, nil
}

func uniqueSides(in []imaging.Side) []imaging.Side {
	out := make([]imaging.Side, 0, 2)
	for _, s := range in {
		dup := false
		for _, o := range out {
			if o == s {
				dup = true
			}
		}
		if !dup {
			out = append(out, s)
		}
	}
	return out
}

func (s *Service) Get(ctx context.Context, id string) (*ImagingRequest, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*ImagingRequest, error) {
	return s.repo.List(ctx, filter)
}

// Snapshot returns the whole requests collection, from the change-feed cache
// once it holds a good snapshot and from the repository otherwise.
func (s *Service) Snapshot(ctx context.Context) ([]*ImagingRequest, error) {
	if s.cache != nil {
		if items, ready := s.cache.Items(); ready && s.cache.Err() == nil {
			return items, nil
		}
	}
	return s.repo.List(ctx, ListFilter{})
}

// defaultOperator picks the staff name of the session, else the first active
// operator on the roster, else nothing.
func (s *Service) defaultOperator(ctx context.Context, staffName string) (string, error) {
	if name := strings.TrimSpace(staffName); name != "" {
		return name, nil
	}
	if s.operators == nil {
		return "", nil
	}
	o, err := s.operators.FirstActive(ctx)
	if err != nil {
		return "", fmt.Errorf("resolve default operator: %w", err)
	}
	if o == nil {
		return "", nil
	}
	return o.Name, nil
}

// BeginCompletion builds the working log set for a pending request.
func (s *Service) BeginCompletion(ctx context.Context, id, staffName string) (*CompletionDraft, error) {
	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status != StatusPending {
		return nil, ErrNotPending
	}
	name, err := s.defaultOperator(ctx, staffName)
	if err != nil {
		return nil, err
	}
	return NewDraft(req, name)
}

// Complete finalizes a pending request with one log per requested type.
// Every log must carry the same operator name. Completion is all or
// nothing; a completed request cannot be completed again.
func (s *Service) Complete(ctx context.Context, id string, logs map[imaging.Type]RadiationLog) (*ImagingRequest, error) {
	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status != StatusPending {
		return nil, ErrNotPending
	}
	if err := checkLogs(req.Types, logs); err != nil {
		return nil, err
	}

	name, err := operatorOf(logs)
	if err != nil {
		return nil, err
	}
	var operatorID *uuid.UUID
	if s.operators != nil && name != "" {
		o, err := s.operators.FindActiveByName(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("link operator: %w", err)
		}
		if o != nil {
			oid := o.ID
			operatorID = &oid
		}
	}

	final := make(map[imaging.Type]RadiationLog, len(logs))
	for t, l := range logs {
		l.OperatorName = name
		l.OperatorID = operatorID
		final[t] = l
	}

	at := s.Now()
	if err := s.repo.Complete(ctx, id, final, at); err != nil {
		return nil, err
	}
	req.Status = StatusCompleted
	req.RadiationLogs = final
	req.CompletedAt = &at

	s.feed.Changed(ctx, Collection, id, changefeed.ActionComplete)
	if s.metrics != nil {
		s.metrics.RequestCompleted(req)
	}
	return req, nil
}

// CompleteDraft finalizes the request a draft was built for.
func (s *Service) CompleteDraft(ctx context.Context, d *CompletionDraft) (*ImagingRequest, error) {
	return s.Complete(ctx, d.RequestID, d.Logs())
}
