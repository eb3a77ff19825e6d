// Package stats derives the read-only history and period statistics views
// from the requests collection.
package stats

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/tomotos141/dental-x-ray-navigatar/internal/domain/imaging"
	"github.com/tomotos141/dental-x-ray-navigatar/internal/domain/imagingrequest"
)

// Unspecified is the operator bucket for requests without a signed log.
const Unspecified = "未指定"

var (
	ErrUnknownPreset = errors.New("unknown range preset")
	ErrInvalidRange  = errors.New("invalid date range")
	ErrUnknownPolicy = errors.New("unknown operator attribution policy")
)

// HistoryQuery filters completed requests. Empty fields match everything.
type HistoryQuery struct {
	Text string
	From string
	To   string
	Type imaging.Type
}

// FilterHistory keeps completed requests matching every set condition. The
// text matches a case-insensitive substring of the patient name or id. Dates
// compare as YYYY-MM-DD strings.
func FilterHistory(requests []*imagingrequest.ImagingRequest, q HistoryQuery) []*imagingrequest.ImagingRequest {
	text := strings.ToLower(strings.TrimSpace(q.Text))
	out := make([]*imagingrequest.ImagingRequest, 0, len(requests))
	for _, r := range requests {
		if r.Status != imagingrequest.StatusCompleted {
			continue
		}
		if text != "" &&
			!strings.Contains(strings.ToLower(r.PatientName), text) &&
			!strings.Contains(strings.ToLower(r.PatientID), text) {
			continue
		}
		if q.From != "" && r.ScheduledDate < q.From {
			continue
		}
		if q.To != "" && r.ScheduledDate > q.To {
			continue
		}
		if q.Type != "" && !r.HasType(q.Type) {
			continue
		}
		out = append(out, r)
	}
	return out
}

type Preset string

const (
	PresetToday  Preset = "today"
	PresetWeek   Preset = "week"
	PresetMonth  Preset = "month"
	PresetCustom Preset = "custom"
)

// Range is an inclusive span of scheduled dates.
type Range struct {
	Preset Preset `json:"preset"`
	From   string `json:"from"`
	To     string `json:"to"`
}

func (r Range) Contains(date string) bool {
	return date >= r.From && date <= r.To
}

// ResolveRange turns a preset into dates relative to now, which must already
// be in the clinic's time zone. week is the trailing seven days including
// today; month runs from the first of the month to today. custom takes from
// and to as given.
func ResolveRange(preset Preset, now time.Time, from, to string) (Range, error) {
	today := imaging.FormatDate(now)
	switch preset {
	case PresetToday, "":
		return Range{Preset: PresetToday, From: today, To: today}, nil
	case PresetWeek:
		return Range{Preset: preset, From: imaging.FormatDate(now.AddDate(0, 0, -6)), To: today}, nil
	case PresetMonth:
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return Range{Preset: preset, From: imaging.FormatDate(first), To: today}, nil
	case PresetCustom:
		if _, err := imaging.ParseDate(from); err != nil {
			return Range{}, fmt.Errorf("%w: from: %v", ErrInvalidRange, err)
		}
		if _, err := imaging.ParseDate(to); err != nil {
			return Range{}, fmt.Errorf("%w: to: %v", ErrInvalidRange, err)
		}
		if from > to {
			return Range{}, fmt.Errorf("%w: from %s is after to %s", ErrInvalidRange, from, to)
		}
		return Range{Preset: preset, From: from, To: to}, nil
	default:
		return Range{}, fmt.Errorf("%w: %q", ErrUnknownPreset, preset)
	}
}

// Attribution decides which operator a completed request is credited to.
type Attribution string

const (
	// AttributionFirstLog credits the operator of the first requested type
	// that has a log.
	AttributionFirstLog Attribution = "first-log"
	// AttributionPerType credits every log entry to its own operator, so a
	// request counts once per imaging type.
	AttributionPerType Attribution = "per-type"
)

func ParseAttribution(s string) (Attribution, error) {
	switch a := Attribution(s); a {
	case "":
		return AttributionFirstLog, nil
	case AttributionFirstLog, AttributionPerType:
		return a, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
}

type TypeCount struct {
	Type  imaging.Type `json:"type"`
	Label string       `json:"label"`
	Count int          `json:"count"`
}

type OperatorCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// PeriodStats summarizes one range. TotalCount + PendingCount = TotalPeriod.
type PeriodStats struct {
	Range         Range           `json:"range"`
	Attribution   Attribution     `json:"attribution"`
	TotalCount    int             `json:"total_count"`
	TotalPoints   int             `json:"total_points"`
	AveragePoints int             `json:"average_points"`
	PendingCount  int             `json:"pending_count"`
	TotalPeriod   int             `json:"total_period"`
	ByType        []TypeCount     `json:"by_type"`
	ByOperator    []OperatorCount `json:"by_operator"`
}

// Compute aggregates the requests scheduled within rng. ByType buckets are
// not exclusive: a request with several types counts in each of them.
// Requests in any status other than pending or completed are left out.
func Compute(requests []*imagingrequest.ImagingRequest, rng Range, policy Attribution) PeriodStats {
	if policy == "" {
		policy = AttributionFirstLog
	}
	st := PeriodStats{
		Range:       rng,
		Attribution: policy,
		ByType:      []TypeCount{},
		ByOperator:  []OperatorCount{},
	}
	types := make(map[imaging.Type]int)
	ops := make(map[string]int)

	for _, r := range requests {
		if !rng.Contains(r.ScheduledDate) {
			continue
		}
		switch r.Status {
		case imagingrequest.StatusPending:
			st.TotalPeriod++
			st.PendingCount++
			continue
		case imagingrequest.StatusCompleted:
			st.TotalPeriod++
		default:
			continue
		}
		st.TotalCount++
		st.TotalPoints += r.Points
		for _, t := range r.Types {
			types[t]++
		}
		for _, name := range operatorsOf(r, policy) {
			ops[name]++
		}
	}

	if st.TotalCount > 0 {
		st.AveragePoints = roundDiv(st.TotalPoints, st.TotalCount)
	}
	for _, t := range imaging.AllTypes() {
		if n := types[t]; n > 0 {
			st.ByType = append(st.ByType, TypeCount{Type: t, Label: t.Label(), Count: n})
		}
	}
	for name, n := range ops {
		st.ByOperator = append(st.ByOperator, OperatorCount{Name: name, Count: n})
	}
	sort.Slice(st.ByOperator, func(i, j int) bool {
		a, b := st.ByOperator[i], st.ByOperator[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Name < b.Name
	})
	return st
}

func operatorsOf(r *imagingrequest.ImagingRequest, policy Attribution) []string {
	if policy == AttributionPerType {
		var names []string
		for _, t := range r.Types {
			if l, ok := r.RadiationLogs[t]; ok {
				names = append(names, nameOrUnspecified(l.OperatorName))
			}
		}
		if len(names) == 0 {
			return []string{Unspecified}
		}
		return names
	}
	l, ok := r.FirstLog()
	if !ok {
		return []string{Unspecified}
	}
	return []string{nameOrUnspecified(l.OperatorName)}
}

func nameOrUnspecified(name string) string {
	if name = strings.TrimSpace(name); name == "" {
		return Unspecified
	}
	return name
}

// roundDiv divides non-negative integers rounding half up.
func roundDiv(n, d int) int {
	return (2*n + d) / (2 * d)
}
