// Package testutil contains helpers shared by package tests which need
// real infrastructure (a postgres server, or source files on disk).
package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/wgbh/bawstun/internal/database"
)

const (
	User         = "postgres"
	Password     = "postgres"
	MasterDBName = "BAWSTUN_DB"
)

// databaseManager spawns a single postgres container which is shared by
// every test in the package, and provisions an individual database per
// test inside of it. The container is reaped by testcontainers once the
// test binary exits.
type databaseManager struct {
	*sync.Mutex
	pgContainer *postgres.PostgresContainer
	config      database.DatabaseConfig
	connection  *sql.DB
}

var manager = &databaseManager{Mutex: &sync.Mutex{}}

// ProvisionDatabase creates an empty database named after the test and
// returns the configuration required to connect to it. Tests which call
// this are skipped when running with -short.
func ProvisionDatabase(t *testing.T) database.DatabaseConfig {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres backed test in short mode")
	}

	manager.Lock()
	defer manager.Unlock()

	if manager.connection == nil {
		t.Log("Database provisioning request received but manager not started yet. Spawning postgres...")
		manager.connect(t)
	}

	name := fmt.Sprintf("test_%d", time.Now().UnixNano())
	if _, err := manager.connection.Exec(fmt.Sprintf(`CREATE DATABASE "%s"`, name)); err != nil {
		t.Fatalf("failed to provision database '%s': %s", name, err)
	}

	config := manager.config
	config.Name = name
	return config
}

func (manager *databaseManager) connect(t *testing.T) {
	ctx := context.Background()
	if manager.pgContainer == nil {
		manager.spawnPostgres(t, ctx)
	}

	host, err := manager.pgContainer.Host(ctx)
	if err != nil {
		t.Fatalf("failed to find postgres container host: %s", err)
	}
	port, err := manager.pgContainer.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("failed to find postgres container port: %s", err)
	}

	manager.config = database.DatabaseConfig{
		Enabled:  true,
		User:     User,
		Password: Password,
		Name:     MasterDBName,
		Host:     host,
		Port:     port.Port(),
	}

	db, err := sql.Open(database.SqlDialect, database.DSN(manager.config))
	if err != nil {
		t.Fatalf("failed to open postgres connection: %s", err)
	}

	for attempt := 1; ; attempt++ {
		if err := db.Ping(); err == nil {
			break
		} else if attempt == 3 {
			t.Fatalf("all database connection attempts FAILED: %s", err)
		}

		t.Logf("DB connection attempt (%v/3) failed... Retrying in 3s", attempt)
		time.Sleep(3 * time.Second)
	}

	t.Log("Database connection established!")
	manager.connection = db
}

func (manager *databaseManager) spawnPostgres(t *testing.T, ctx context.Context) {
	postgresC, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("docker.io/postgres:14.1-alpine"),
		postgres.WithDatabase(MasterDBName),
		postgres.WithUsername(User),
		postgres.WithPassword(Password),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start container: %s", err)
		return
	}

	manager.pgContainer = postgresC
}
