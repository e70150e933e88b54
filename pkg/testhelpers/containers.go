// Package testhelpers provides utilities for testing ekaya-export components.
package testhelpers

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-export/pkg/adapters/datasource/mssql"
	"github.com/ekaya-inc/ekaya-export/pkg/models"
	"github.com/ekaya-inc/ekaya-export/pkg/retry"
)

// SQLServerImage is the SQL Server for Linux image used by integration tests.
const SQLServerImage = "mcr.microsoft.com/mssql/server:2022-latest"

// SAPassword satisfies the SQL Server password policy.
const SAPassword = "Ekaya_Test_Passw0rd!"

// TestServer holds a shared SQL Server container.
type TestServer struct {
	Container testcontainers.Container
	Endpoint  models.Endpoint
}

// Credentials returns the sa login for the container.
func (s *TestServer) Credentials() models.Credentials {
	return models.Explicit("sa", SAPassword)
}

var (
	sharedTestServer     *TestServer
	sharedTestServerOnce sync.Once
	sharedTestServerErr  error
)

// GetTestServer returns a shared SQL Server container for integration tests.
// The container is created once and reused across all tests in the run.
func GetTestServer(t *testing.T) *TestServer {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}

	sharedTestServerOnce.Do(func() {
		sharedTestServer, sharedTestServerErr = setupTestServer()
	})

	if sharedTestServerErr != nil {
		t.Fatalf("Failed to setup SQL Server container: %v", sharedTestServerErr)
	}

	return sharedTestServer
}

func setupTestServer() (*TestServer, error) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        SQLServerImage,
		ExposedPorts: []string{"1433/tcp"},
		Env: map[string]string{
			"ACCEPT_EULA":       "Y",
			"MSSQL_SA_PASSWORD": SAPassword,
			"MSSQL_PID":         "Developer",
		},
		WaitingFor: wait.ForLog("SQL Server is now ready for client connections").
			WithStartupTimeout(120 * time.Second),
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

	port, err := container.MappedPort(ctx, "1433")
	if err != nil {
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}

	server := &TestServer{
		Container: container,
		Endpoint:  models.Endpoint(fmt.Sprintf("%s,%s", host, port.Port())),
	}

	// The ready log line appears slightly before logins are accepted.
	connector := mssql.NewConnector(mssql.Options{Encrypt: "disable", TrustServerCertificate: true}, zap.NewNop())
	loginRetry := &retry.Config{
		MaxRetries:   20,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     2 * time.Second,
		Multiplier:   1.5,
	}
	db, err := retry.DoWithResult(ctx, loginRetry, func() (*sql.DB, error) {
		return connector.Connect(ctx, server.Endpoint, server.Credentials(), 5*time.Second)
	})
	if err != nil {
		return nil, fmt.Errorf("SQL Server at %s never accepted logins: %w", server.Endpoint, err)
	}
	_ = db.Close()
	return server, nil
}

// CreateDatabase creates a fresh database on the shared server and runs the
// given statements inside it. The database is dropped when the test ends.
func CreateDatabase(t *testing.T, server *TestServer, name string, statements ...string) {
	t.Helper()
	ctx := context.Background()

	connector := mssql.NewConnector(mssql.Options{Encrypt: "disable", TrustServerCertificate: true}, zap.NewNop())
	db, err := connector.Connect(ctx, server.Endpoint, server.Credentials(), 10*time.Second)
	if err != nil {
		t.Fatalf("connect to test server: %v", err)
	}
	defer db.Close()

	conn, err := db.Conn(ctx)
	if err != nil {
		t.Fatalf("reserve connection: %v", err)
	}
	defer conn.Close()

	quoted := mssql.QuoteName(name)
	setup := append([]string{
		fmt.Sprintf("IF DB_ID(N'%s') IS NOT NULL DROP DATABASE %s", name, quoted),
		"CREATE DATABASE " + quoted,
		mssql.UseDatabaseStatement(name),
	}, statements...)

	for _, stmt := range setup {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			t.Fatalf("setup statement %q: %v", stmt, err)
		}
	}

	t.Cleanup(func() {
		cleanupDB, err := connector.Connect(context.Background(), server.Endpoint, server.Credentials(), 10*time.Second)
		if err != nil {
			return
		}
		defer cleanupDB.Close()
		_, _ = cleanupDB.ExecContext(context.Background(),
			fmt.Sprintf("ALTER DATABASE %s SET SINGLE_USER WITH ROLLBACK IMMEDIATE; DROP DATABASE %s", quoted, quoted))
	})
}
