//go:build integration

// Package postgrestest starts a disposable Postgres for integration tests.
package postgrestest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/vadimbarashkov/shrimpli/migrations"
	"github.com/vadimbarashkov/shrimpli/pkg/postgres"
)

const (
	user     = "test"
	password = "test"
	dbName   = "shrimpli"
)

// Start runs a postgres:16-alpine container, applies the migrations and
// returns its DSN. The container is terminated on test cleanup.
func Start(t testing.TB) string {
	t.Helper()

	ctx := context.Background()

	pgCont, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image: "postgres:16-alpine",
			Env: map[string]string{
				"POSTGRES_USER":     user,
				"POSTGRES_PASSWORD": password,
				"POSTGRES_DB":       dbName,
			},
			ExposedPorts: []string{"5432/tcp"},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("Failed to start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := pgCont.Terminate(ctx); err != nil {
			t.Errorf("Failed to terminate postgres container: %v", err)
		}
	})

	host, err := pgCont.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}
	port, err := pgCont.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable", user, password, host, port.Int(), dbName)

	if err := postgres.RunMigrations(migrations.FS, dsn); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return dsn
}

// Connect starts a database with Start and opens a pool to it.
func Connect(t testing.TB) *sqlx.DB {
	t.Helper()

	dsn := Start(t)

	db, err := postgres.New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// Truncate empties the urls table and restarts its identity.
func Truncate(t testing.TB, db *sqlx.DB) {
	t.Helper()

	if _, err := db.Exec(`TRUNCATE TABLE urls RESTART IDENTITY`); err != nil {
		t.Fatalf("Failed to clean urls table: %v", err)
	}
}
