// Package imagingrequest manages imaging requests from creation through
// completion with recorded exposure parameters.
package imagingrequest

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tomotos141/dental-x-ray-navigatar/internal/domain/imaging"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

var (
	ErrNotFound   = errors.New("imaging request not found")
	ErrNotPending = errors.New("imaging request is already completed")

	ErrPatientIDRequired      = errors.New("patient id is required")
	ErrPatientNameRequired    = errors.New("patient name is required")
	ErrBirthdayRequired       = errors.New("patient birthday is required")
	ErrInvalidBirthday        = errors.New("invalid birthday, expected YYYY-MM-DD")
	ErrInvalidScheduledDate   = errors.New("invalid scheduled date, expected YYYY-MM-DD")
	ErrBirthdayAfterScheduled = errors.New("patient birthday is after the scheduled date")
	ErrInvalidScheduledTime   = errors.New("invalid scheduled time, expected HH:MM")
	ErrInvalidGender          = errors.New("invalid gender")
	ErrInvalidBodyType        = errors.New("invalid body type")
	ErrNoTypes                = errors.New("select at least one imaging type")
	ErrUnknownType            = errors.New("unknown imaging type")
	ErrDuplicateType          = errors.New("imaging type selected twice")
	ErrBitewingSideRequired   = errors.New("select the bitewing side (left, right)")
	ErrInvalidSide            = errors.New("invalid bitewing side")
	ErrInvalidTooth           = errors.New("invalid tooth selection")

	ErrMissingLog       = errors.New("radiation log missing for imaging type")
	ErrUnexpectedLog    = errors.New("radiation log for a type that was not requested")
	ErrInvalidExposure  = errors.New("exposure settings must be positive")
	ErrOperatorMismatch = errors.New("every radiation log must carry the same operator name")
)

// ValidationError reports which input field failed which check.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

// IsValidation reports whether err was caused by invalid client input.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// RadiationLog is the as-performed exposure for one imaging type. The
// operator name is a snapshot; OperatorID links it to the roster when the
// name matched an active operator at completion time.
type RadiationLog struct {
	KV           float64    `json:"kv"`
	MA           float64    `json:"ma"`
	Sec          float64    `json:"sec"`
	OperatorName string     `json:"operator_name"`
	OperatorID   *uuid.UUID `json:"operator_id,omitempty"`
}

func (l RadiationLog) Settings() imaging.ExposureSettings {
	return imaging.ExposureSettings{KV: l.KV, MA: l.MA, Sec: l.Sec}
}

// ImagingRequest holds a frozen copy of the patient as of creation. The copy
// and the age are never recomputed from the live patient record.
type ImagingRequest struct {
	ID                  string                        `json:"id"`
	PatientID           string                        `json:"patient_id"`
	PatientName         string                        `json:"patient_name"`
	PatientGender       imaging.Gender                `json:"patient_gender"`
	PatientBirthday     string                        `json:"patient_birthday"`
	PatientAgeAtRequest int                           `json:"patient_age_at_request"`
	PatientBodyType     imaging.BodyType              `json:"patient_body_type"`
	Types               []imaging.Type                `json:"types"`
	SelectedTeeth       []int                         `json:"selected_teeth"`
	BitewingSides       []imaging.Side                `json:"bitewing_sides,omitempty"`
	Notes               string                        `json:"notes"`
	Points              int                           `json:"points"`
	Timestamp           time.Time                     `json:"timestamp"`
	ScheduledDate       string                        `json:"scheduled_date"`
	ScheduledTime       string                        `json:"scheduled_time"`
	Status              Status                        `json:"status"`
	LocationFrom        string                        `json:"location_from"`
	LocationTo          string                        `json:"location_to"`
	RadiationLogs       map[imaging.Type]RadiationLog `json:"radiation_logs"`
	CompletedAt         *time.Time                    `json:"completed_at,omitempty"`
	UpdatedAt           time.Time                     `json:"updated_at"`
}

func (r *ImagingRequest) AgeCategory() imaging.AgeCategory {
	return imaging.Category(r.PatientAgeAtRequest)
}

func (r *ImagingRequest) HasType(t imaging.Type) bool {
	return imaging.Contains(r.Types, t)
}

// FirstLog returns the log of the first requested type that has one.
func (r *ImagingRequest) FirstLog() (RadiationLog, bool) {
	for _, t := range r.Types {
		if l, ok := r.RadiationLogs[t]; ok {
			return l, true
		}
	}
	return RadiationLog{}, false
}

// CreateInput is the form state a request is built from.
type CreateInput struct {
	PatientID       string           `json:"patient_id"`
	PatientName     string           `json:"patient_name"`
	PatientGender   imaging.Gender   `json:"patient_gender"`
	PatientBirthday string           `json:"patient_birthday"`
	PatientBodyType imaging.BodyType `json:"patient_body_type"`
	Types           []imaging.Type   `json:"types"`
	SelectedTeeth   []int            `json:"selected_teeth"`
	BitewingSides   []imaging.Side   `json:"bitewing_sides"`
	Notes           string           `json:"notes"`
	ScheduledDate   string           `json:"scheduled_date"`
	ScheduledTime   string           `json:"scheduled_time"`
	LocationFrom    string           `json:"location_from"`
	LocationTo      string           `json:"location_to"`
}

func (in *CreateInput) normalize() {
	in.PatientID = strings.TrimSpace(in.PatientID)
	in.PatientName = strings.TrimSpace(in.PatientName)
	in.PatientBirthday = strings.TrimSpace(in.PatientBirthday)
	in.ScheduledDate = strings.TrimSpace(in.ScheduledDate)
	in.ScheduledTime = strings.TrimSpace(in.ScheduledTime)
	in.LocationFrom = strings.TrimSpace(in.LocationFrom)
	in.LocationTo = strings.TrimSpace(in.LocationTo)
	if in.PatientGender == "" {
		in.PatientGender = imaging.GenderMale
	}
	if in.PatientBodyType == "" {
		in.PatientBodyType = imaging.BodyNormal
	}
}

// Validate checks the input in a fixed order and returns the first failure.
// ScheduledDate must already be defaulted.
func (in *CreateInput) Validate() error {
	switch {
	case in.PatientID == "":
		return invalid("patient_id", ErrPatientIDRequired)
	case in.PatientName == "":
		return invalid("patient_name", ErrPatientNameRequired)
	case in.PatientBirthday == "":
		return invalid("patient_birthday", ErrBirthdayRequired)
	}
	birthday, err := imaging.ParseDate(in.PatientBirthday)
	if err != nil {
		return invalid("patient_birthday", ErrInvalidBirthday)
	}
	scheduled, err := imaging.ParseDate(in.ScheduledDate)
	if err != nil {
		return invalid("scheduled_date", ErrInvalidScheduledDate)
	}
	if birthday.After(scheduled) {
		return invalid("patient_birthday", ErrBirthdayAfterScheduled)
	}
	if in.ScheduledTime != "" {
		if _, err := time.Parse("15:04", in.ScheduledTime); err != nil {
			return invalid("scheduled_time", ErrInvalidScheduledTime)
		}
	}
	if !in.PatientGender.Valid() {
		return invalid("patient_gender", ErrInvalidGender)
	}
	if !in.PatientBodyType.Valid() {
		return invalid("patient_body_type", ErrInvalidBodyType)
	}

	if len(in.Types) == 0 {
		return invalid("types", ErrNoTypes)
	}
	seen := make(map[imaging.Type]bool, len(in.Types))
	for _, t := range in.Types {
		if !t.Valid() {
			return invalid("types", fmt.Errorf("%w: %s", ErrUnknownType, t))
		}
		if seen[t] {
			return invalid("types", fmt.Errorf("%w: %s", ErrDuplicateType, t))
		}
		seen[t] = true
	}

	if seen[imaging.TypeBitewing] {
		if len(in.BitewingSides) == 0 {
			return invalid("bitewing_sides", ErrBitewingSideRequired)
		}
		for _, s := range in.BitewingSides {
			if !s.Valid() {
				return invalid("bitewing_sides", fmt.Errorf("%w: %s", ErrInvalidSide, s))
			}
		}
	}

	if err := imaging.ValidateTeeth(in.SelectedTeeth); err != nil {
		return invalid("selected_teeth", fmt.Errorf("%w: %v", ErrInvalidTooth, err))
	}
	return nil
}

// ListFilter narrows List. Zero values match everything.
type ListFilter struct {
	Status    Status
	PatientID string
}

func (f ListFilter) Matches(r *ImagingRequest) bool {
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	if f.PatientID != "" && r.PatientID != f.PatientID {
		return false
	}
	return true
}
