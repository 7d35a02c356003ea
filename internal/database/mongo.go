package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/BradenHooton/citypulse/internal/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Collection names
const (
	UsersCollection   = "users"
	ReportsCollection = "reports"
)

// MongoDB wraps a connected client and the selected database
type MongoDB struct {
	Client *mongo.Client
	DB     *mongo.Database
	logger *slog.Logger
}

// NewMongoConnection connects, pings, and ensures the indexes the stores rely on
func NewMongoConnection(ctx context.Context, cfg *config.MongoConfig, logger *slog.Logger) (*MongoDB, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("unable to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("unable to ping mongodb: %w", err)
	}

	m := &MongoDB{Client: client, DB: client.Database(cfg.Database), logger: logger}
	if err := m.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	logger.Info("database connection established",
		slog.String("driver", config.StoreDriverMongo),
		slog.String("database", cfg.Database),
	)
	return m, nil
}

// EnsureIndexes creates the unique username index and the report lookup index
func (m *MongoDB) EnsureIndexes(ctx context.Context) error {
	_, err := m.DB.Collection(UsersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("unable to create username index: %w", err)
	}

	_, err = m.DB.Collection(ReportsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "citizenId", Value: 1}, {Key: "createdAt", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("unable to create report index: %w", err)
	}
	return nil
}

func (m *MongoDB) Close(ctx context.Context) error {
	m.logger.Info("closing mongodb client")
	return m.Client.Disconnect(ctx)
}

func (m *MongoDB) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := m.Client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}
