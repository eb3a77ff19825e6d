package patient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tomotos141/dental-x-ray-navigatar/internal/domain/imaging"
	"github.com/tomotos141/dental-x-ray-navigatar/internal/platform/docstore"
)

type patientDoc struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name"`
	Gender    string    `bson:"gender"`
	Birthday  string    `bson:"birthday"`
	BodyType  string    `bson:"body_type"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func (d *patientDoc) toPatient() *Patient {
	return &Patient{
		ID:        d.ID,
		Name:      d.Name,
		Gender:    imaging.Gender(d.Gender),
		Birthday:  d.Birthday,
		BodyType:  imaging.BodyType(d.BodyType),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

type repoMongo struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewRepoMongo(database *mongo.Database) Repository {
	return &repoMongo{coll: database.Collection(docstore.PatientsCollection), now: time.Now}
}

// Upsert uses $set so fields written by other clients survive, matching the
// merge semantics of the document store.
func (r *repoMongo) Upsert(ctx context.Context, p *Patient) error {
	now := r.now().UTC()
	update := bson.M{
		"$set": bson.M{
			"name":       p.Name,
			"gender":     string(p.Gender),
			"birthday":   p.Birthday,
			"body_type":  string(p.BodyType),
			"updated_at": now,
		},
		"$setOnInsert": bson.M{"created_at": now},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var doc patientDoc
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": p.ID}, update, opts).Decode(&doc); err != nil {
		return fmt.Errorf("upsert patient %s: %w", p.ID, err)
	}
	p.CreatedAt, p.UpdatedAt = doc.CreatedAt, doc.UpdatedAt
	return nil
}

func (r *repoMongo) Merge(ctx context.Context, id string, patch Patch) (*Patient, error) {
	set := bson.M{"updated_at": r.now().UTC()}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.Gender != nil {
		set["gender"] = string(*patch.Gender)
	}
	if patch.Birthday != nil {
		set["birthday"] = *patch.Birthday
	}
	if patch.BodyType != nil {
		set["body_type"] = string(*patch.BodyType)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc patientDoc
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("merge patient %s: %w", id, err)
	}
	return doc.toPatient(), nil
}

func (r *repoMongo) GetByID(ctx context.Context, id string) (*Patient, error) {
	var doc patientDoc
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.toPatient(), nil
}

func (r *repoMongo) List(ctx context.Context) ([]*Patient, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	defer cur.Close(ctx)

	var items []*Patient
	for cur.Next(ctx) {
		var doc patientDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		items = append(items, doc.toPatient())
	}
	return items, cur.Err()
}

func (r *repoMongo) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete patient %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
