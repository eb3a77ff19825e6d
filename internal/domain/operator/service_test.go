package operator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

// -- Mock Repository --

type mockRepo struct {
	ops   []*Operator
	clock time.Time
}

func newMockRepo() *mockRepo {
	return &mockRepo{clock: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)}
}

func (m *mockRepo) Create(_ context.Context, o *Operator) error {
	o.ID = uuid.New()
	m.clock = m.clock.Add(time.Minute)
	o.CreatedAt, o.UpdatedAt = m.clock, m.clock
	m.ops = append(m.ops, o)
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Operator, error) {
	for _, o := range m.ops {
		if o.ID == id {
			return o, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepo) Update(_ context.Context, o *Operator) error {
	for i, cur := range m.ops {
		if cur.ID == o.ID {
			o.CreatedAt = cur.CreatedAt
			m.ops[i] = o
			return nil
		}
	}
	return ErrNotFound
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) error {
	for i, o := range m.ops {
		if o.ID == id {
			m.ops = append(m.ops[:i], m.ops[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (m *mockRepo) List(_ context.Context, activeOnly bool) ([]*Operator, error) {
	var out []*Operator
	for _, o := range m.ops {
		if activeOnly && !o.IsActive() {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

func boolPtr(b bool) *bool { return &b }

// -- Tests --

func TestService_Create_Defaults(t *testing.T) {
	svc := NewService(newMockRepo())
	o := &Operator{Name: "  佐藤  "}
	if err := svc.Create(context.Background(), o); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.ID == uuid.Nil {
		t.Error("expected id assigned")
	}
	if o.Name != "佐藤" || o.Role != RoleTechnician || !o.IsActive() {
		t.Errorf("unexpected defaults: %+v", o)
	}
}

func TestService_Create_Validation(t *testing.T) {
	svc := NewService(newMockRepo())
	if err := svc.Create(context.Background(), &Operator{Name: " "}); !errors.Is(err, ErrNameRequired) {
		t.Errorf("expected ErrNameRequired, got %v", err)
	}
	if err := svc.Create(context.Background(), &Operator{Name: "A", Role: "janitor"}); !errors.Is(err, ErrInvalidRole) {
		t.Errorf("expected ErrInvalidRole, got %v", err)
	}
}

func TestService_FirstActive(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()

	first, err := svc.FirstActive(ctx)
	if err != nil || first != nil {
		t.Fatalf("expected nil operator on empty roster, got %v (%v)", first, err)
	}

	_ = svc.Create(ctx, &Operator{Name: "Retired", Role: RoleDoctor, Active: boolPtr(false)})
	_ = svc.Create(ctx, &Operator{Name: "Tanaka", Role: RoleHygienist})
	_ = svc.Create(ctx, &Operator{Name: "Suzuki", Role: RoleTechnician})

	first, err = svc.FirstActive(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first == nil || first.Name != "Tanaka" {
		t.Fatalf("expected Tanaka, got %+v", first)
	}
}

func TestService_FindActiveByName(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()
	_ = svc.Create(ctx, &Operator{Name: "Tanaka"})
	_ = svc.Create(ctx, &Operator{Name: "Ex", Active: boolPtr(false)})

	o, _ := svc.FindActiveByName(ctx, " Tanaka ")
	if o == nil || o.Name != "Tanaka" {
		t.Fatalf("expected Tanaka, got %+v", o)
	}
	if o, _ := svc.FindActiveByName(ctx, "Ex"); o != nil {
		t.Error("inactive operators must not match")
	}
	if o, _ := svc.FindActiveByName(ctx, ""); o != nil {
		t.Error("empty name must not match")
	}
}

func TestService_Update_KeepsActiveWhenOmitted(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()
	o := &Operator{Name: "Kimura", Active: boolPtr(false)}
	_ = svc.Create(ctx, o)

	upd := &Operator{ID: o.ID, Name: "Kimura", Role: RoleDoctor}
	if err := svc.Update(ctx, upd); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if upd.IsActive() {
		t.Error("active flag should be preserved as false")
	}
	if upd.Role != RoleDoctor {
		t.Errorf("expected role doctor, got %s", upd.Role)
	}
}

func TestService_Update_NotFound(t *testing.T) {
	svc := NewService(newMockRepo())
	err := svc.Update(context.Background(), &Operator{ID: uuid.New(), Name: "X", Role: RoleDoctor})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
