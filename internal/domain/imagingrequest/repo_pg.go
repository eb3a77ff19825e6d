package imagingrequest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tomotos141/dental-x-ray-navigatar/internal/domain/imaging"
	"github.com/tomotos141/dental-x-ray-navigatar/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const requestCols = `id, patient_id, patient_name, patient_gender, patient_birthday,
	patient_age_at_request, patient_body_type, types, selected_teeth, bitewing_sides,
	notes, points, requested_at, scheduled_date, scheduled_time, status,
	location_from, location_to, radiation_logs, completed_at, updated_at`

func scanRequest(row pgx.Row) (*ImagingRequest, error) {
	var (
		req                  ImagingRequest
		gender, body, status string
		types, sides         []string
		teeth                []int32
		logs                 []byte
	)
	err := row.Scan(&req.ID, &req.PatientID, &req.PatientName, &gender, &req.PatientBirthday,
		&req.PatientAgeAtRequest, &body, &types, &teeth, &sides,
		&req.Notes, &req.Points, &req.Timestamp, &req.ScheduledDate, &req.ScheduledTime, &status,
		&req.LocationFrom, &req.LocationTo, &logs, &req.CompletedAt, &req.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	req.PatientGender = imaging.Gender(gender)
	req.PatientBodyType = imaging.BodyType(body)
	req.Status = Status(status)
	req.Types = make([]imaging.Type, len(types))
	for i, t := range types {
		req.Types[i] = imaging.Type(t)
	}
	req.SelectedTeeth = make([]int, len(teeth))
	for i, t := range teeth {
		req.SelectedTeeth[i] = int(t)
	}
	if sides != nil {
		req.BitewingSides = make([]imaging.Side, len(sides))
		for i, s := range sides {
			req.BitewingSides[i] = imaging.Side(s)
		}
	}
	req.RadiationLogs = map[imaging.Type]RadiationLog{}
	if len(logs) > 0 {
		if err := json.Unmarshal(logs, &req.RadiationLogs); err != nil {
			return nil, fmt.Errorf("decode radiation logs of %s: %w", req.ID, err)
		}
	}
	return &req, nil
}

func toStrings[T ~string](in []T) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = string(v)
	}
	return out
}

func (r *repoPG) Create(ctx context.Context, req *ImagingRequest) error {
	teeth := make([]int32, len(req.SelectedTeeth))
	for i, t := range req.SelectedTeeth {
		teeth[i] = int32(t)
	}
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO imaging_request (
			id, patient_id, patient_name, patient_gender, patient_birthday,
			patient_age_at_request, patient_body_type, types, selected_teeth, bitewing_sides,
			notes, points, requested_at, scheduled_date, scheduled_time, status,
			location_from, location_to
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING updated_at`,
		req.ID, req.PatientID, req.PatientName, string(req.PatientGender), req.PatientBirthday,
		req.PatientAgeAtRequest, string(req.PatientBodyType), toStrings(req.Types), teeth, toStrings(req.BitewingSides),
		req.Notes, req.Points, req.Timestamp, req.ScheduledDate, req.ScheduledTime, string(req.Status),
		req.LocationFrom, req.LocationTo,
	).Scan(&req.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert imaging request: %w", err)
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id string) (*ImagingRequest, error) {
	return scanRequest(r.conn(ctx).QueryRow(ctx, `SELECT `+requestCols+` FROM imaging_request WHERE id = $1`, id))
}

func (r *repoPG) List(ctx context.Context, filter ListFilter) ([]*ImagingRequest, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.PatientID != "" {
		args = append(args, filter.PatientID)
		where = append(where, fmt.Sprintf("patient_id = $%d", len(args)))
	}
	query := `SELECT ` + requestCols + ` FROM imaging_request`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY requested_at DESC, id`

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list imaging requests: %w", err)
	}
	defer rows.Close()

	var items []*ImagingRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, req)
	}
	return items, rows.Err()
}

func (r *repoPG) Complete(ctx context.Context, id string, logs map[imaging.Type]RadiationLog, at time.Time) error {
	data, err := json.Marshal(logs)
	if err != nil {
		return fmt.Errorf("encode radiation logs: %w", err)
	}
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE imaging_request SET
			status = 'completed', radiation_logs = $2::jsonb, completed_at = $3, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'`,
		id, string(data), at)
	if err != nil {
		return fmt.Errorf("complete imaging request %s: %w", id, err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var status string
	err = r.conn(ctx).QueryRow(ctx, `SELECT status FROM imaging_request WHERE id = $1`, id).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("complete imaging request %s: %w", id, err)
	}
	return ErrNotPending
}
