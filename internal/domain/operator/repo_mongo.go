package operator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tomotos141/dental-x-ray-navigatar/internal/platform/docstore"
)

// Operator ids are stored as their string form so documents stay readable.
type operatorDoc struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name"`
	Role      string    `bson:"role"`
	Active    bool      `bson:"active"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func (d *operatorDoc) toOperator() (*Operator, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("operator document %q: %w", d.ID, err)
	}
	active := d.Active
	return &Operator{
		ID:        id,
		Name:      d.Name,
		Role:      Role(d.Role),
		Active:    &active,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}, nil
}

type repoMongo struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewRepoMongo(database *mongo.Database) Repository {
	return &repoMongo{coll: database.Collection(docstore.OperatorsCollection), now: time.Now}
}

func (r *repoMongo) Create(ctx context.Context, o *Operator) error {
	o.ID = uuid.New()
	now := r.now().UTC()
	o.CreatedAt, o.UpdatedAt = now, now
	_, err := r.coll.InsertOne(ctx, operatorDoc{
		ID: o.ID.String(), Name: o.Name, Role: string(o.Role), Active: o.IsActive(),
		CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		return fmt.Errorf("create operator: %w", err)
	}
	return nil
}

func (r *repoMongo) GetByID(ctx context.Context, id uuid.UUID) (*Operator, error) {
	var doc operatorDoc
	err := r.coll.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.toOperator()
}

func (r *repoMongo) Update(ctx context.Context, o *Operator) error {
	o.UpdatedAt = r.now().UTC()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc operatorDoc
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": o.ID.String()}, bson.M{"$set": bson.M{
		"name": o.Name, "role": string(o.Role), "active": o.IsActive(), "updated_at": o.UpdatedAt,
	}}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update operator %s: %w", o.ID, err)
	}
	o.CreatedAt = doc.CreatedAt
	return nil
}

func (r *repoMongo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return fmt.Errorf("delete operator %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoMongo) List(ctx context.Context, activeOnly bool) ([]*Operator, error) {
	filter := bson.M{}
	if activeOnly {
		filter["active"] = true
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "name", Value: 1}})
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list operators: %w", err)
	}
	defer cur.Close(ctx)

	var items []*Operator
	for cur.Next(ctx) {
		var doc operatorDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		o, err := doc.toOperator()
		if err != nil {
			return nil, err
		}
		items = append(items, o)
	}
	return items, cur.Err()
}
