// Package dbtest opens throwaway sqlite databases with the full schema applied.
package dbtest

import (
	"context"
	"fmt"
	"testing"

	"github.com/angelmondragon/stockledger-backend/pkg/config"
	"github.com/angelmondragon/stockledger-backend/pkg/db"
	"github.com/google/uuid"
)

// Open returns a migrated in-memory database private to the calling test.
func Open(t testing.TB) *db.Client {
	t.Helper()

	client, err := db.New(context.Background(), Config(), nil)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	if err := client.AutoMigrate(context.Background()); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	return client
}

// Config names a fresh shared-cache memory database.
func Config() config.DBConfig {
	return config.DBConfig{
		Driver: config.DBDriverSQLite,
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
	}
}
