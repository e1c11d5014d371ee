package common

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var (
	postgresOnce      sync.Once
	postgresContainer *PostgresContainer
	postgresError     error
)

// PostgresContainer wraps a testcontainers Postgres instance.
type PostgresContainer struct {
	container testcontainers.Container
	host      string
	port      string
}

// StartPostgres starts one Postgres container per test process.
// Skips unless container tests are enabled.
func StartPostgres(t *testing.T) *PostgresContainer {
	t.Helper()
	RequireDocker(t)

	postgresOnce.Do(func() {
		ctx := context.Background()

		req := testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "cryptotrack",
				"POSTGRES_PASSWORD": "cryptotrack",
				"POSTGRES_DB":       "cryptotrack",
			},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort("5432/tcp"),
				wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			).WithDeadline(60 * time.Second),
		}

		container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: req,
			Started:          true,
		})
		if err != nil {
			postgresError = fmt.Errorf("start Postgres container: %w", err)
			return
		}

		host, err := container.Host(ctx)
		if err != nil {
			container.Terminate(ctx)
			postgresError = fmt.Errorf("get Postgres host: %w", err)
			return
		}

		mappedPort, err := container.MappedPort(ctx, "5432/tcp")
		if err != nil {
			container.Terminate(ctx)
			postgresError = fmt.Errorf("get Postgres port: %w", err)
			return
		}

		postgresContainer = &PostgresContainer{
			container: container,
			host:      host,
			port:      mappedPort.Port(),
		}
	})

	if postgresError != nil {
		t.Fatalf("Postgres container failed: %v", postgresError)
	}

	return postgresContainer
}

// URL returns a connection URL for the container's database.
func (c *PostgresContainer) URL() string {
	return fmt.Sprintf("postgres://cryptotrack:cryptotrack@%s:%s/cryptotrack?sslmode=disable", c.host, c.port)
}

// Cleanup terminates the container.
func (c *PostgresContainer) Cleanup() {
	if c != nil && c.container != nil {
		c.container.Terminate(context.Background())
	}
}
