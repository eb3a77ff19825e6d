package imagingrequest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tomotos141/dental-x-ray-navigatar/internal/domain/imaging"
	"github.com/tomotos141/dental-x-ray-navigatar/internal/platform/docstore"
)

type logDoc struct {
	KV           float64 `bson:"kv"`
	MA           float64 `bson:"ma"`
	Sec          float64 `bson:"sec"`
	OperatorName string  `bson:"operator_name"`
	OperatorID   string  `bson:"operator_id,omitempty"`
}

type requestDoc struct {
	ID                  string            `bson:"_id"`
	PatientID           string            `bson:"patient_id"`
	PatientName         string            `bson:"patient_name"`
	PatientGender       string            `bson:"patient_gender"`
	PatientBirthday     string            `bson:"patient_birthday"`
	PatientAgeAtRequest int               `bson:"patient_age_at_request"`
	PatientBodyType     string            `bson:"patient_body_type"`
	Types               []string          `bson:"types"`
	SelectedTeeth       []int             `bson:"selected_teeth"`
	BitewingSides       []string          `bson:"bitewing_sides,omitempty"`
	Notes               string            `bson:"notes"`
	Points              int               `bson:"points"`
	Timestamp           time.Time         `bson:"timestamp"`
	ScheduledDate       string            `bson:"scheduled_date"`
	ScheduledTime       string            `bson:"scheduled_time"`
	Status              string            `bson:"status"`
	LocationFrom        string            `bson:"location_from"`
	LocationTo          string            `bson:"location_to"`
	RadiationLogs       map[string]logDoc `bson:"radiation_logs"`
	CompletedAt         *time.Time        `bson:"completed_at,omitempty"`
	UpdatedAt           time.Time         `bson:"updated_at"`
}

func toLogDocs(logs map[imaging.Type]RadiationLog) map[string]logDoc {
	out := make(map[string]logDoc, len(logs))
	for t, l := range logs {
		d := logDoc{KV: l.KV, MA: l.MA, Sec: l.Sec, OperatorName: l.OperatorName}
		if l.OperatorID != nil {
			d.OperatorID = l.OperatorID.String()
		}
		out[string(t)] = d
	}
	return out
}

func fromDoc(d *requestDoc) *ImagingRequest {
	req := &ImagingRequest{
		ID:                  d.ID,
		PatientID:           d.PatientID,
		PatientName:         d.PatientName,
		PatientGender:       imaging.Gender(d.PatientGender),
		PatientBirthday:     d.PatientBirthday,
		PatientAgeAtRequest: d.PatientAgeAtRequest,
		PatientBodyType:     imaging.BodyType(d.PatientBodyType),
		Types:               make([]imaging.Type, len(d.Types)),
		SelectedTeeth:       d.SelectedTeeth,
		Notes:               d.Notes,
		Points:              d.Points,
		Timestamp:           d.Timestamp,
		ScheduledDate:       d.ScheduledDate,
		ScheduledTime:       d.ScheduledTime,
		Status:              Status(d.Status),
		LocationFrom:        d.LocationFrom,
		LocationTo:          d.LocationTo,
		RadiationLogs:       make(map[imaging.Type]RadiationLog, len(d.RadiationLogs)),
		CompletedAt:         d.CompletedAt,
		UpdatedAt:           d.UpdatedAt,
	}
	for i, t := range d.Types {
		req.Types[i] = imaging.Type(t)
	}
	if req.SelectedTeeth == nil {
		req.SelectedTeeth = []int{}
	}
	if d.BitewingSides != nil {
		req.BitewingSides = make([]imaging.Side, len(d.BitewingSides))
		for i, s := range d.BitewingSides {
			req.BitewingSides[i] = imaging.Side(s)
		}
	}
	for t, l := range d.RadiationLogs {
		log := RadiationLog{KV: l.KV, MA: l.MA, Sec: l.Sec, OperatorName: l.OperatorName}
		if id, err := uuid.Parse(l.OperatorID); err == nil {
			log.OperatorID = &id
		}
		req.RadiationLogs[imaging.Type(t)] = log
	}
	return req
}

type repoMongo struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewRepoMongo(database *mongo.Database) Repository {
	return &repoMongo{coll: database.Collection(docstore.RequestsCollection), now: time.Now}
}

func (r *repoMongo) Create(ctx context.Context, req *ImagingRequest) error {
	req.UpdatedAt = r.now().UTC()
	doc := requestDoc{
		ID:                  req.ID,
		PatientID:           req.PatientID,
		PatientName:         req.PatientName,
		PatientGender:       string(req.PatientGender),
		PatientBirthday:     req.PatientBirthday,
		PatientAgeAtRequest: req.PatientAgeAtRequest,
		PatientBodyType:     string(req.PatientBodyType),
		Types:               toStrings(req.Types),
		SelectedTeeth:       req.SelectedTeeth,
		BitewingSides:       toStrings(req.BitewingSides),
		Notes:               req.Notes,
		Points:              req.Points,
		Timestamp:           req.Timestamp,
		ScheduledDate:       req.ScheduledDate,
		ScheduledTime:       req.ScheduledTime,
		Status:              string(req.Status),
		LocationFrom:        req.LocationFrom,
		LocationTo:          req.LocationTo,
		RadiationLogs:       toLogDocs(req.RadiationLogs),
		UpdatedAt:           req.UpdatedAt,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert imaging request: %w", err)
	}
	return nil
}

func (r *repoMongo) GetByID(ctx context.Context, id string) (*ImagingRequest, error) {
	var doc requestDoc
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return fromDoc(&doc), nil
}

func (r *repoMongo) List(ctx context.Context, filter ListFilter) ([]*ImagingRequest, error) {
	q := bson.M{}
	if filter.Status != "" {
		q["status"] = string(filter.Status)
	}
	if filter.PatientID != "" {
		q["patient_id"] = filter.PatientID
	}
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: 1}})
	cur, err := r.coll.Find(ctx, q, opts)
	if err != nil {
		return nil, fmt.Errorf("list imaging requests: %w", err)
	}
	defer cur.Close(ctx)

	var items []*ImagingRequest
	for cur.Next(ctx) {
		var doc requestDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		items = append(items, fromDoc(&doc))
	}
	return items, cur.Err()
}

// Complete only sets the completion fields, so concurrent edits to other
// fields of the document survive.
func (r *repoMongo) Complete(ctx context.Context, id string, logs map[imaging.Type]RadiationLog, at time.Time) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id, "status": string(StatusPending)},
		bson.M{"$set": bson.M{
			"status":         string(StatusCompleted),
			"radiation_logs": toLogDocs(logs),
			"completed_at":   at,
			"updated_at":     r.now().UTC(),
		}})
	if err != nil {
		return fmt.Errorf("complete imaging request %s: %w", id, err)
	}
	if res.MatchedCount > 0 {
		return nil
	}
	n, err := r.coll.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("complete imaging request %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return ErrNotPending
}
