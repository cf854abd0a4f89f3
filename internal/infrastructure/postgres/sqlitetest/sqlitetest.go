// Package sqlitetest opens SQLite databases with the service schema for
// repository and use-case tests.
package sqlitetest

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/LavaJover/agromarket-checkout-service/internal/infrastructure/postgres"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open returns a fresh database. The pool holds a single connection so the
// in-memory database survives and concurrent units of work run one at a time.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	cfg := postgres.GormConfig()
	cfg.Logger = logger.Default.LogMode(logger.Silent)

	db, err := gorm.Open(sqlite.Open(":memory:"), cfg)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(postgres.Models()...))
	return db
}

// OpenShared returns a file database served by up to conns connections, so
// concurrent statements really race for the write lock.
func OpenShared(t testing.TB, conns int) *gorm.DB {
	t.Helper()

	cfg := postgres.GormConfig()
	cfg.Logger = logger.Default.LogMode(logger.Silent)

	path := filepath.Join(t.TempDir(), "checkout.db")
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)", path)
	db, err := gorm.Open(sqlite.Open(dsn), cfg)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(conns)
	sqlDB.SetMaxIdleConns(conns)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(postgres.Models()...))
	return db
}
