//go:build database

package integration

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDevflowWithMySQL tests the devflow CLI with a MySQL cache and history backend.
func TestDevflowWithMySQL(t *testing.T) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "mysql:8",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "secret123",
			"MYSQL_DATABASE":      "devflow",
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(60 * time.Second),
	}
	mysqlC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = mysqlC.Terminate(ctx) }()

	host, err := mysqlC.Host(ctx)
	require.NoError(t, err)
	port, err := mysqlC.MappedPort(ctx, "3306")
	require.NoError(t, err)

	connStr := fmt.Sprintf("root:secret123@tcp(%s:%s)/devflow?parseTime=true", host, port.Port())
	runBackendScenario(t, "mysql", connStr)
}

// TestDevflowWithPostgres tests the devflow CLI with a PostgreSQL cache and history backend.
func TestDevflowWithPostgres(t *testing.T) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_HOST_AUTH_METHOD": "trust",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = pgC.Terminate(ctx) }()

	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connStr := fmt.Sprintf("host=%s port=%s user=postgres dbname=postgres sslmode=disable", host, port.Port())
	runBackendScenario(t, "postgresql", connStr)
}

// runBackendScenario clears both stores, runs two reports and checks that the
// history recorded them and can be exported.
func runBackendScenario(t *testing.T, backend, connStr string) {
	env := map[string]string{
		"DEVFLOW_CACHE_BACKEND":      backend,
		"DEVFLOW_CACHE_DB_CONNECT":   connStr,
		"DEVFLOW_HISTORY_BACKEND":    backend,
		"DEVFLOW_HISTORY_DB_CONNECT": connStr,
	}

	_, err := runDevflowCommand(t, env, "cache", "clear")
	require.NoError(t, err)
	_, err = runDevflowCommand(t, env, "history", "clear")
	require.NoError(t, err)
	_, err = runDevflowCommand(t, env, "history", "migrate")
	require.NoError(t, err)

	for range 2 {
		_, err = runDevflowCommand(t, env,
			"report", "1",
			"--source", "fixture", "--fixture", sampleFixture,
			"--end", "2024-03-31", "--days", "90",
			"--output", "json")
		require.NoError(t, err)
	}

	out, err := runDevflowCommand(t, env, "cache", "status")
	require.NoError(t, err)
	assert.Contains(t, string(out), "Connected: true")

	out, err = runDevflowCommand(t, env, "history", "status")
	require.NoError(t, err)
	assert.Contains(t, string(out), "Total Runs: 2")

	exportBase := filepath.Join(t.TempDir(), "history")
	_, err = runDevflowCommand(t, env, "history", "export", "--output-file", exportBase)
	require.NoError(t, err)
	assert.FileExists(t, exportBase+".report_runs.parquet")
	assert.FileExists(t, exportBase+".family_metrics.parquet")
}
