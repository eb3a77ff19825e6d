package docstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// lazyClient returns a client that never reaches a server; sessions are
// created locally.
func lazyClient(t *testing.T) *mongo.Client {
	t.Helper()
	client, err := mongo.Connect(context.Background(), options.Client().
		ApplyURI("mongodb://127.0.0.1:1").
		SetServerSelectionTimeout(50*time.Millisecond))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })
	return client
}

func TestTransactor_NestedReusesSession(t *testing.T) {
	client := lazyClient(t)
	sess, err := client.StartSession()
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	defer sess.EndSession(context.Background())
	outer := mongo.NewSessionContext(context.Background(), sess)

	want := errors.New("inner")
	called := false
	err = NewTransactor(client).InTx(outer, func(ctx context.Context) error {
		called = true
		if mongo.SessionFromContext(ctx) != sess {
			t.Error("expected the outer session in the context")
		}
		return want
	})
	if !called {
		t.Fatal("fn was not called")
	}
	if !errors.Is(err, want) {
		t.Errorf("expected fn error, got %v", err)
	}
}
