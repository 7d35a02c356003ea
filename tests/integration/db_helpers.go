package integration

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/BradenHooton/citypulse/internal/config"
	"github.com/BradenHooton/citypulse/internal/database"
	"github.com/BradenHooton/citypulse/internal/repositories"
	"github.com/BradenHooton/citypulse/internal/services"
)

// Store is a running backend plus the repositories built on it
type Store struct {
	Driver  string
	Users   services.UserRepository
	Reports services.ReportRepository
	Health  interface {
		HealthCheck(ctx context.Context) error
	}

	cleanup  func(ctx context.Context) error
	teardown func(ctx context.Context) error
}

// CleanupTables removes every row so each test starts empty
func (s *Store) CleanupTables(ctx context.Context) error {
	return s.cleanup(ctx)
}

// Teardown closes connections and stops the container
func (s *Store) Teardown(ctx context.Context) error {
	return s.teardown(ctx)
}

// SetupPostgres starts a PostgreSQL testcontainer and applies the embedded migrations
func SetupPostgres(ctx context.Context, logger *slog.Logger) (*Store, error) {
	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		postgres.WithDatabase("citypulse"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := database.New(pool, logger)
	if err := db.Migrate(ctx); err != nil {
		pool.Close()
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Store{
		Driver:  config.StoreDriverPostgres,
		Users:   repositories.NewUserRepository(db),
		Reports: repositories.NewReportRepository(db),
		Health:  db,
		cleanup: func(ctx context.Context) error {
			_, err := pool.Exec(ctx, "TRUNCATE TABLE reports, users CASCADE")
			return err
		},
		teardown: func(ctx context.Context) error {
			pool.Close()
			return container.Terminate(ctx)
		},
	}, nil
}

// SetupMongo starts a MongoDB container and connects the document store to it
func SetupMongo(ctx context.Context, logger *slog.Logger) (*Store, error) {
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mongo:7",
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor: wait.ForLog("Waiting for connections").
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start mongo container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get mongo host: %w", err)
	}
	port, err := container.MappedPort(ctx, "27017")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get mongo port: %w", err)
	}

	mdb, err := database.NewMongoConnection(ctx, &config.MongoConfig{
		URI:      fmt.Sprintf("mongodb://%s:%s", host, port.Port()),
		Database: "city_pulse_test",
	}, logger)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}

	return &Store{
		Driver:  config.StoreDriverMongo,
		Users:   repositories.NewMongoUserRepository(mdb),
		Reports: repositories.NewMongoReportRepository(mdb),
		Health:  mdb,
		cleanup: func(ctx context.Context) error {
			for _, name := range []string{database.ReportsCollection, database.UsersCollection} {
				if _, err := mdb.DB.Collection(name).DeleteMany(ctx, bson.M{}); err != nil {
					return fmt.Errorf("failed to clear %s: %w", name, err)
				}
			}
			return nil
		},
		teardown: func(ctx context.Context) error {
			_ = mdb.Close(ctx)
			return container.Terminate(ctx)
		},
	}, nil
}
