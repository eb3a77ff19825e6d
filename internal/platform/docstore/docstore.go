// Package docstore connects the MongoDB document store used as the
// alternative Record Store backend.
package docstore

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tomotos141/dental-x-ray-navigatar/internal/platform/db"
)

// Collection names shared by the Mongo repositories.
const (
	PatientsCollection  = "patients"
	RequestsCollection  = "requests"
	OperatorsCollection = "operators"
)

// Connect opens a client for uri, verifies it with a ping and returns the
// named database.
func Connect(ctx context.Context, uri, database string) (*mongo.Client, *mongo.Database, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetAppName("dentx-server").
		SetServerSelectionTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, client.Database(database), nil
}

// EnsureIndexes creates the sort and filter indexes the list queries rely on.
func EnsureIndexes(ctx context.Context, database *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		PatientsCollection: {
			{Keys: bson.D{{Key: "name", Value: 1}}},
		},
		RequestsCollection: {
			{Keys: bson.D{{Key: "timestamp", Value: -1}}},
			{Keys: bson.D{{Key: "patient_id", Value: 1}}},
			{Keys: bson.D{{Key: "scheduled_date", Value: 1}, {Key: "status", Value: 1}}},
		},
		OperatorsCollection: {
			{Keys: bson.D{{Key: "active", Value: 1}, {Key: "created_at", Value: 1}}},
		},
	}
	for name, models := range indexes {
		if _, err := database.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	return nil
}

// HealthComponent reports the document store on the health endpoint.
func HealthComponent(client *mongo.Client, database string) db.Component {
	return db.Component{
		Name: "mongo",
		Check: func(ctx context.Context) error {
			return client.Ping(ctx, nil)
		},
		Details: func() interface{} {
			return map[string]string{"database": database}
		},
	}
}
