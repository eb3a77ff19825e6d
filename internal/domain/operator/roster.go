package operator

import (
	"context"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Roster is the YAML document accepted by "dentx-server operators import":
//
//	operators:
//	  - name: 佐藤
//	    role: technician
//	  - name: 高橋
//	    role: doctor
//	    active: false
type Roster struct {
	Operators []RosterEntry `yaml:"operators"`
}

type RosterEntry struct {
	Name   string `yaml:"name"`
	Role   Role   `yaml:"role"`
	Active *bool  `yaml:"active"`
}

// ParseRoster decodes a roster, rejecting unknown keys.
func ParseRoster(r io.Reader) (*Roster, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var roster Roster
	if err := dec.Decode(&roster); err != nil {
		if err == io.EOF {
			return &roster, nil
		}
		return nil, fmt.Errorf("parse roster: %w", err)
	}
	return &roster, nil
}

// ImportResult counts what an import changed.
type ImportResult struct {
	Created int `json:"created" yaml:"created"`
	Updated int `json:"updated" yaml:"updated"`
}

// Import upserts roster entries by name. Existing operators get the entry's
// role and, when given, its active flag; operators absent from the roster
// are left alone. All entries are validated before anything is written.
func (s *Service) Import(ctx context.Context, roster *Roster) (ImportResult, error) {
	var res ImportResult

	seen := make(map[string]bool, len(roster.Operators))
	entries := make([]*Operator, 0, len(roster.Operators))
	for i, e := range roster.Operators {
		o := &Operator{Name: e.Name, Role: e.Role, Active: e.Active}
		if o.Role == "" {
			o.Role = RoleTechnician
		}
		if err := validate(o); err != nil {
			return res, fmt.Errorf("roster entry %d: %w", i+1, err)
		}
		if seen[o.Name] {
			return res, fmt.Errorf("roster entry %d: duplicate name %q", i+1, o.Name)
		}
		seen[o.Name] = true
		entries = append(entries, o)
	}

	existing, err := s.repo.List(ctx, false)
	if err != nil {
		return res, err
	}
	byName := make(map[string]*Operator, len(existing))
	for _, o := range existing {
		byName[o.Name] = o
	}

	for _, o := range entries {
		if cur, ok := byName[o.Name]; ok {
			o.ID = cur.ID
			if o.Active == nil {
				o.Active = cur.Active
			}
			if err := s.repo.Update(ctx, o); err != nil {
				return res, err
			}
			res.Updated++
			continue
		}
		if err := s.Create(ctx, o); err != nil {
			return res, err
		}
		res.Created++
	}
	return res, nil
}
