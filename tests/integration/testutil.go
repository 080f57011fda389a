package integration

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	tcpg "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

// startPostgres starts a PostgreSQL testcontainer, returns DSN + cleanup func.
func startPostgres(ctx context.Context) (string, func(), error) {
	container, err := tcpg.Run(ctx, "postgres:16-alpine",
		tcpg.WithDatabase("agentd_test"),
		tcpg.WithUsername("test"),
		tcpg.WithPassword("test"),
		tcpg.BasicWaitStrategies(),
	)
	if err != nil {
		return "", nil, fmt.Errorf("start postgres: %w", err)
	}
	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		container.Terminate(ctx)
		return "", nil, fmt.Errorf("pg connection string: %w", err)
	}
	cleanup := func() { container.Terminate(ctx) }
	return dsn, cleanup, nil
}

// startRedis starts a Redis testcontainer, returns URL + cleanup func.
func startRedis(ctx context.Context) (string, func(), error) {
	container, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		return "", nil, fmt.Errorf("start redis: %w", err)
	}
	endpoint, err := container.Endpoint(ctx, "")
	if err != nil {
		container.Terminate(ctx)
		return "", nil, fmt.Errorf("redis endpoint: %w", err)
	}
	cleanup := func() { container.Terminate(ctx) }
	return "redis://" + endpoint, cleanup, nil
}

// seedProject inserts a project and returns its id.
func seedProject(ctx context.Context, pool *pgxpool.Pool, name string) (string, error) {
	id := uuid.New().String()
	_, err := pool.Exec(ctx,
		`INSERT INTO "Project" ("id", "name") VALUES ($1, $2)`, id, name)
	return id, err
}

// seedTask inserts an ACTIVE task whose lastUpdated lies stuckFor in the past.
func seedTask(ctx context.Context, pool *pgxpool.Pool, projectID, title string, stuckFor time.Duration) (string, error) {
	id := uuid.New().String()
	_, err := pool.Exec(ctx, `
		INSERT INTO "Task" ("id", "title", "projectId", "status", "lastUpdated")
		VALUES ($1, $2, $3, 'ACTIVE', $4)`,
		id, title, projectID, time.Now().UTC().Add(-stuckFor))
	return id, err
}

// seedOverdueApproval inserts an invoice plus a PENDING approval step
// whose deadline lies overdueFor in the past.
func seedOverdueApproval(ctx context.Context, pool *pgxpool.Pool, projectID string, overdueFor time.Duration) (string, error) {
	invoiceID := uuid.New().String()
	if _, err := pool.Exec(ctx, `
		INSERT INTO "Invoice" ("id", "projectId", "amount") VALUES ($1, $2, 50000)`,
		invoiceID, projectID); err != nil {
		return "", err
	}

	approvalID := uuid.New().String()
	_, err := pool.Exec(ctx, `
		INSERT INTO "ApprovalStep" ("id", "invoiceId", "stage", "assigneeEmail", "deadline", "requiredDocs")
		VALUES ($1, $2, 'Finance Review', 'finance@zoark.dev', $3, '{"PO"}')`,
		approvalID, invoiceID, time.Now().UTC().Add(-overdueFor))
	return approvalID, err
}

// seedUser inserts a user with the given timesheet status.
func seedUser(ctx context.Context, pool *pgxpool.Pool, name, email, timesheetStatus string) (string, error) {
	id := uuid.New().String()
	_, err := pool.Exec(ctx, `
		INSERT INTO "User" ("id", "name", "email", "timesheetStatus")
		VALUES ($1, $2, $3, $4)`, id, name, email, timesheetStatus)
	return id, err
}
