//go:build database

package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/huangsam/repostudy/internal/iocache"
	"github.com/huangsam/repostudy/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startContainer starts a database container and returns its mapped host and port.
func startContainer(t *testing.T, req testcontainers.ContainerRequest, port string) (string, string) {
	t.Helper()
	ctx := context.Background()
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(ctx) })

	host, err := c.Host(ctx)
	require.NoError(t, err)
	mapped, err := c.MappedPort(ctx, port)
	require.NoError(t, err)
	return host, mapped.Port()
}

// exerciseStore migrates the schema, writes through the results store and clears it again.
func exerciseStore(t *testing.T, backend schema.DatabaseBackend, connStr string) {
	t.Helper()
	env := []string{
		"REPOSTUDY_COLOR=no",
		"REPOSTUDY_STORE_BACKEND=" + string(backend),
		"REPOSTUDY_STORE_DB_CONNECT=" + connStr,
	}
	dir := t.TempDir()

	_, err := runCommand(t, dir, env, "store", "clear")
	require.NoError(t, err)
	_, err = runCommand(t, dir, env, "store", "migrate")
	require.NoError(t, err)

	store, err := iocache.NewResultStore(backend, connStr)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	runID, err := store.BeginRun(time.Now(), map[string]any{"suffix": "_s0"})
	require.NoError(t, err)
	require.NoError(t, store.UpsertSize(schema.SizeRecord{Repo: "acme/alpha", Files: 3, Code: 300}))
	require.NoError(t, store.UpsertSize(schema.SizeRecord{Repo: "acme/alpha", Files: 4, Code: 400}))
	require.NoError(t, store.UpsertQuality(schema.QualityRecord{
		Repo:     "acme/alpha",
		NClasses: 2,
		CBO:      schema.MetricSummary{Mean: 3, Median: 3, Std: 1},
		DIT:      schema.MetricSummary{Mean: 1, Median: 1, Std: 0},
		LCOM:     schema.NaNSummary(),
	}))
	require.NoError(t, store.RecordFailure(runID, schema.FailureEntry{Repo: "acme/beta", Stage: schema.ClocStage, Reason: "timeout"}))
	require.NoError(t, store.EndRun(runID, time.Now(), schema.RunSummary{Selected: 2, Succeeded: 1, Failed: 1}))

	sizes, err := store.GetAllSizes()
	require.NoError(t, err)
	assert.Equal(t, []schema.SizeRecord{{Repo: "acme/alpha", Files: 4, Code: 400}}, sizes)

	runs, err := store.GetAllRuns()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 1, runs[0].Failed)

	out, err := runCommand(t, dir, env, "store", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Connected: true")
	assert.Contains(t, out, "Total Runs: 1")

	_, err = runCommand(t, dir, env, "store", "export", "--output-file", dir+"/results")
	require.NoError(t, err)
	assert.FileExists(t, dir+"/results.size.parquet")

	_, err = runCommand(t, dir, env, "store", "migrate", "--target-version", "0")
	require.NoError(t, err)
	_, err = runCommand(t, dir, env, "store", "clear")
	require.NoError(t, err)
}

// TestStoreWithMySQL exercises the results store against a MySQL backend.
func TestStoreWithMySQL(t *testing.T) {
	host, port := startContainer(t, testcontainers.ContainerRequest{
		Image:        "mysql:8",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "secret123",
			"MYSQL_DATABASE":      "repostudy",
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(60 * time.Second),
	}, "3306")

	connStr := fmt.Sprintf("root:secret123@tcp(%s:%s)/repostudy?parseTime=true", host, port)
	exerciseStore(t, schema.MySQLBackend, connStr)
}

// TestStoreWithPostgres exercises the results store against a PostgreSQL backend.
func TestStoreWithPostgres(t *testing.T) {
	host, port := startContainer(t, testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_HOST_AUTH_METHOD": "trust",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}, "5432")

	connStr := fmt.Sprintf("host=%s port=%s user=postgres dbname=postgres sslmode=disable", host, port)
	exerciseStore(t, schema.PostgreSQLBackend, connStr)
}
