package imagingrequest

import (
	"fmt"
	"strings"

	"github.com/tomotos141/dental-x-ray-navigatar/internal/domain/imaging"
)

// CompletionDraft is the working log set between opening the completion step
// and confirming it. It holds exactly one entry per requested type; entries
// can be edited but never removed. Drafts are not persisted.
type CompletionDraft struct {
	RequestID     string                        `json:"request_id"`
	Types         []imaging.Type                `json:"types"`
	AgeCategory   imaging.AgeCategory           `json:"age_category"`
	BodyType      imaging.BodyType              `json:"body_type"`
	OperatorName  string                        `json:"operator_name"`
	RadiationLogs map[imaging.Type]RadiationLog `json:"radiation_logs"`
}

// NewDraft pre-fills one entry per requested type from the exposure template
// row for the request's age category and body type.
func NewDraft(r *ImagingRequest, operatorName string) (*CompletionDraft, error) {
	d := &CompletionDraft{
		RequestID:     r.ID,
		Types:         append([]imaging.Type(nil), r.Types...),
		AgeCategory:   r.AgeCategory(),
		BodyType:      r.PatientBodyType,
		RadiationLogs: make(map[imaging.Type]RadiationLog, len(r.Types)),
	}
	for _, t := range r.Types {
		tmpl, err := imaging.Lookup(t, d.AgeCategory, d.BodyType)
		if err != nil {
			return nil, fmt.Errorf("request %s: %w", r.ID, err)
		}
		d.RadiationLogs[t] = RadiationLog{KV: tmpl.KV, MA: tmpl.MA, Sec: tmpl.Sec}
	}
	d.SetOperatorName(operatorName)
	return d, nil
}

// SetOperatorName signs every entry with the same name: one staff member
// performs the whole session.
func (d *CompletionDraft) SetOperatorName(name string) {
	d.OperatorName = strings.TrimSpace(name)
	signAll(d.RadiationLogs, d.OperatorName)
}

func signAll(logs map[imaging.Type]RadiationLog, name string) {
	for t, l := range logs {
		l.OperatorName = name
		l.OperatorID = nil
		logs[t] = l
	}
}

// operatorOf returns the trimmed operator name shared by every log. Logs
// signed by different names are rejected.
func operatorOf(logs map[imaging.Type]RadiationLog) (string, error) {
	var name string
	first := true
	for _, l := range logs {
		n := strings.TrimSpace(l.OperatorName)
		if first {
			name, first = n, false
			continue
		}
		if n != name {
			return "", invalid("radiation_logs", ErrOperatorMismatch)
		}
	}
	return name, nil
}

// SetExposure edits the numeric settings of one entry.
func (d *CompletionDraft) SetExposure(t imaging.Type, settings imaging.ExposureSettings) error {
	l, ok := d.RadiationLogs[t]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnexpectedLog, t)
	}
	if !settings.Positive() {
		return fmt.Errorf("%w: %s", ErrInvalidExposure, t)
	}
	l.KV, l.MA, l.Sec = settings.KV, settings.MA, settings.Sec
	d.RadiationLogs[t] = l
	return nil
}

// Logs returns a copy of the working set.
func (d *CompletionDraft) Logs() map[imaging.Type]RadiationLog {
	out := make(map[imaging.Type]RadiationLog, len(d.RadiationLogs))
	for t, l := range d.RadiationLogs {
		out[t] = l
	}
	return out
}

// checkLogs requires exactly one entry with positive settings per type.
func checkLogs(types []imaging.Type, logs map[imaging.Type]RadiationLog) error {
	for _, t := range types {
		l, ok := logs[t]
		if !ok {
			return invalid("radiation_logs", fmt.Errorf("%w: %s", ErrMissingLog, t))
		}
		if !l.Settings().Positive() {
			return invalid("radiation_logs", fmt.Errorf("%w: %s", ErrInvalidExposure, t))
		}
	}
	for t := range logs {
		if !imaging.Contains(types, t) {
			return invalid("radiation_logs", fmt.Errorf("%w: %s", ErrUnexpectedLog, t))
		}
	}
	return nil
}
