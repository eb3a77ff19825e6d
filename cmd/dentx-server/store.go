package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tomotos141/dental-x-ray-navigatar/internal/config"
	"github.com/tomotos141/dental-x-ray-navigatar/internal/domain/imagingrequest"
	"github.com/tomotos141/dental-x-ray-navigatar/internal/domain/operator"
	"github.com/tomotos141/dental-x-ray-navigatar/internal/domain/patient"
	"github.com/tomotos141/dental-x-ray-navigatar/internal/platform/db"
	"github.com/tomotos141/dental-x-ray-navigatar/internal/platform/docstore"
)

// recordStore bundles the repositories of the configured backend.
type recordStore struct {
	patients  patient.Repository
	requests  imagingrequest.Repository
	operators operator.Repository

	// tx is nil on MongoDB unless MONGO_TRANSACTIONS is set; writes there
	// are then sequential.
	tx     imagingrequest.Transactor
	health db.Component
	pool   *pgxpool.Pool
	close  func(ctx context.Context)
}

func openPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	return db.NewPool(ctx, db.PoolConfig{
		URL:      cfg.DatabaseURL,
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
	})
}

func openStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*recordStore, error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		pool, err := openPool(ctx, cfg)
		if err != nil {
			return nil, err
		}
		logger.Info().Msg("connected to postgres")
		return &recordStore{
			patients:  patient.NewRepoPG(pool),
			requests:  imagingrequest.NewRepoPG(pool),
			operators: operator.NewRepoPG(pool),
			tx:        db.NewTransactor(pool),
			health:    db.PoolComponent(pool),
			pool:      pool,
			close:     func(context.Context) { pool.Close() },
		}, nil

	case config.BackendMongo:
		client, database, err := docstore.Connect(ctx, cfg.MongoURL, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		if err := docstore.EnsureIndexes(ctx, database); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		logger.Info().
			Str("database", cfg.MongoDatabase).
			Bool("transactions", cfg.MongoTransactions).
			Msg("connected to mongodb")
		store := &recordStore{
			patients:  patient.NewRepoMongo(database),
			requests:  imagingrequest.NewRepoMongo(database),
			operators: operator.NewRepoMongo(database),
			health:    docstore.HealthComponent(client, cfg.MongoDatabase),
			close:     disconnect(client, logger),
		}
		if cfg.MongoTransactions {
			store.tx = docstore.NewTransactor(client)
		}
		return store, nil
	}
	return nil, fmt.Errorf("unsupported store backend %q", cfg.StoreBackend)
}

func disconnect(client *mongo.Client, logger zerolog.Logger) func(ctx context.Context) {
	return func(ctx context.Context) {
		if err := client.Disconnect(ctx); err != nil {
			logger.Warn().Err(err).Msg("mongodb disconnect")
		}
	}
}
