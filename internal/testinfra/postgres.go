//go:build integration
// +build integration

package testinfra

import (
	"context"
	"fmt"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"BakeryStore/internal/app"
	"BakeryStore/pkg/logger"
	"BakeryStore/pkg/postgres"
)

const (
	pgImage    = "postgres:17-alpine"
	pgDatabase = "bakery_test"
	pgUser     = "bakery"
	pgPassword = "secret"
)

// PostgresContainer is a migrated bakery database.
type PostgresContainer struct {
	Container testcontainers.Container
	Pool      *postgres.Postgres
	DSN       string
}

func pgDSN(host string, port nat.Port) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", pgUser, pgPassword, host, port.Port(), pgDatabase)
}

func NewPostgres(ctx context.Context) (*PostgresContainer, error) {
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image: pgImage,
			Env: map[string]string{
				"POSTGRES_USER":     pgUser,
				"POSTGRES_PASSWORD": pgPassword,
				"POSTGRES_DB":       pgDatabase,
			},
			ExposedPorts: []string{"5432/tcp"},
			WaitingFor:   wait.ForSQL("5432/tcp", "postgres", pgDSN).WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return nil, fmt.Errorf("start postgres container: %w", err)
	}
	c := &PostgresContainer{Container: container}

	host, err := container.Host(ctx)
	if err != nil {
		c.Cleanup(ctx)
		return nil, fmt.Errorf("postgres host: %w", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		c.Cleanup(ctx)
		return nil, fmt.Errorf("postgres port: %w", err)
	}
	c.DSN = pgDSN(host, port)

	if err := app.ApplyMigrations(ctx, c.DSN, app.MIGRATION_FS, logger.NewNop()); err != nil {
		c.Cleanup(ctx)
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	if c.Pool, err = postgres.New(c.DSN, postgres.MaxPoolSize(10)); err != nil {
		c.Cleanup(ctx)
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}
	return c, nil
}

func (c *PostgresContainer) Cleanup(ctx context.Context) {
	if c.Pool != nil {
		c.Pool.Close()
	}
	if c.Container != nil {
		_ = c.Container.Terminate(ctx)
	}
}

// Truncate empties every table between tests.
func (c *PostgresContainer) Truncate(ctx context.Context) error {
	_, err := c.Pool.Pool.Exec(ctx, "TRUNCATE TABLE order_events, orders, products CASCADE")
	return err
}
