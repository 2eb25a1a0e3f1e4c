// Package testhelpers provides shared infrastructure for integration
// tests. The warehouse container is started once per test run and shared.
package testhelpers

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// WarehouseTestImage is the PostgreSQL image used as the test warehouse.
const WarehouseTestImage = "postgres:16-alpine"

// TestWarehouse holds a shared test warehouse container and connection pool.
type TestWarehouse struct {
	Container testcontainers.Container
	Pool      *pgxpool.Pool
	ConnStr   string
}

var (
	sharedWarehouse     *TestWarehouse
	sharedWarehouseOnce sync.Once
	sharedWarehouseErr  error
)

// GetTestWarehouse returns a shared PostgreSQL container for integration
// tests. The container is created once and reused across all tests in
// the run.
func GetTestWarehouse(t *testing.T) *TestWarehouse {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}

	sharedWarehouseOnce.Do(func() {
		sharedWarehouse, sharedWarehouseErr = setupWarehouse()
	})

	if sharedWarehouseErr != nil {
		t.Fatalf("Failed to setup test warehouse: %v", sharedWarehouseErr)
	}

	return sharedWarehouse
}

func setupWarehouse() (*TestWarehouse, error) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        WarehouseTestImage,
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       "warehouse",
			"POSTGRES_USER":     "modelsmith",
			"POSTGRES_PASSWORD": "test_password",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start test container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}

	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}

	connStr := fmt.Sprintf("postgres://modelsmith:test_password@%s:%s/warehouse?sslmode=disable",
		host, port.Port())

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Verify connection with retry
	for i := 0; i < 10; i++ {
		if err := pool.Ping(ctx); err == nil {
			break
		}
		time.Sleep(500 * time.Millisecond)
	}

	return &TestWarehouse{
		Container: container,
		Pool:      pool,
		ConnStr:   connStr,
	}, nil
}

// SeedSchema applies DDL/DML statements to the shared warehouse. Tests
// use it to create the physical tables they discover against.
func (w *TestWarehouse) SeedSchema(ctx context.Context, statements ...string) error {
	for _, stmt := range statements {
		if _, err := w.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply seed statement: %w", err)
		}
	}
	return nil
}
