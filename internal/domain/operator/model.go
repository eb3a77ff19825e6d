package operator

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound     = errors.New("operator not found")
	ErrNameRequired = errors.New("operator name is required")
	ErrInvalidRole  = errors.New("invalid operator role")
)

type Role string

const (
	RoleDoctor     Role = "doctor"
	RoleTechnician Role = "technician"
	RoleHygienist  Role = "hygienist"
)

var validRoles = map[Role]bool{
	RoleDoctor: true, RoleTechnician: true, RoleHygienist: true,
}

func (r Role) Valid() bool { return validRoles[r] }

// Operator is a staff member who may perform exposures.
type Operator struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Role      Role      `db:"role" json:"role"`
	Active    *bool     `db:"active" json:"active,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// IsActive treats a missing flag as inactive.
func (o *Operator) IsActive() bool { return o.Active != nil && *o.Active }
