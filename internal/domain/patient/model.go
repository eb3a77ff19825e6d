package patient

import (
	"errors"
	"strings"
	"time"

	"github.com/tomotos141/dental-x-ray-navigatar/internal/domain/imaging"
)

var (
	ErrNotFound             = errors.New("patient not found")
	ErrIDRequired           = errors.New("patient id is required")
	ErrNameRequired         = errors.New("patient name is required")
	ErrInvalidGender        = errors.New("invalid gender")
	ErrInvalidBirthday      = errors.New("invalid birthday, expected YYYY-MM-DD")
	ErrInvalidBodyType      = errors.New("invalid body type")
	ErrEmptyPatch           = errors.New("no fields to update")
	ErrConfirmationMismatch = errors.New("confirmation does not match patient id")
)

// IsValidation reports whether err was caused by invalid client input.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrIDRequired, ErrNameRequired, ErrInvalidGender,
		ErrInvalidBirthday, ErrInvalidBodyType, ErrEmptyPatch,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// Patient is keyed by the clinic's human-assigned chart id.
type Patient struct {
	ID        string           `db:"id" json:"id"`
	Name      string           `db:"name" json:"name"`
	Gender    imaging.Gender   `db:"gender" json:"gender"`
	Birthday  string           `db:"birthday" json:"birthday"`
	BodyType  imaging.BodyType `db:"body_type" json:"body_type"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt time.Time        `db:"updated_at" json:"updated_at"`
}

// Age returns the patient's age on refDate; 0 when the birthday is unknown.
func (p *Patient) Age(refDate string) (int, error) {
	return imaging.AgeOn(p.Birthday, refDate)
}

// Patch carries the fields of a partial update. Nil fields keep the stored
// value.
type Patch struct {
	Name     *string           `json:"name,omitempty"`
	Gender   *imaging.Gender   `json:"gender,omitempty"`
	Birthday *string           `json:"birthday,omitempty"`
	BodyType *imaging.BodyType `json:"body_type,omitempty"`
}

func (p Patch) Empty() bool {
	return p.Name == nil && p.Gender == nil && p.Birthday == nil && p.BodyType == nil
}

// ApplyTo overwrites the fields present in the patch.
func (p Patch) ApplyTo(dst *Patient) {
	if p.Name != nil {
		dst.Name = *p.Name
	}
	if p.Gender != nil {
		dst.Gender = *p.Gender
	}
	if p.Birthday != nil {
		dst.Birthday = *p.Birthday
	}
	if p.BodyType != nil {
		dst.BodyType = *p.BodyType
	}
}

func (p Patch) validate() error {
	if p.Empty() {
		return ErrEmptyPatch
	}
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return ErrNameRequired
	}
	if p.Gender != nil && !p.Gender.Valid() {
		return ErrInvalidGender
	}
	if p.Birthday != nil && *p.Birthday != "" {
		if _, err := imaging.ParseDate(*p.Birthday); err != nil {
			return ErrInvalidBirthday
		}
	}
	if p.BodyType != nil && !p.BodyType.Valid() {
		return ErrInvalidBodyType
	}
	return nil
}

// Normalize trims input, fills defaults (male, normal body type) and
// validates a full record.
func Normalize(p *Patient) error {
	p.ID = strings.TrimSpace(p.ID)
	p.Name = strings.TrimSpace(p.Name)
	if p.ID == "" {
		return ErrIDRequired
	}
	if p.Name == "" {
		return ErrNameRequired
	}
	if p.Gender == "" {
		p.Gender = imaging.GenderMale
	}
	if !p.Gender.Valid() {
		return ErrInvalidGender
	}
	if p.Birthday != "" {
		if _, err := imaging.ParseDate(p.Birthday); err != nil {
			return ErrInvalidBirthday
		}
	}
	if p.BodyType == "" {
		p.BodyType = imaging.BodyNormal
	}
	if !p.BodyType.Valid() {
		return ErrInvalidBodyType
	}
	return nil
}
