// Package testutil provides the shared database harness for repository and
// service tests. Tests run against an in-memory sqlite database by default;
// set TEST_POSTGRES_DSN to run them against a real postgres instance instead.
package testutil

import (
	"os"
	"sync"
	"testing"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/prodmanhq/prodman-backend/internal/logger"
	"github.com/prodmanhq/prodman-backend/internal/types"
)

var (
	dbOnce sync.Once
	dbConn *gorm.DB
	dbErr  error
)

func DB(tb testing.TB) *gorm.DB {
	tb.Helper()

	dbOnce.Do(func() {
		cfg := &gorm.Config{
			Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
			DisableForeignKeyConstraintWhenMigrating: true,
		}
		if dsn := os.Getenv("TEST_POSTGRES_DSN"); dsn != "" {
			dbConn, dbErr = gorm.Open(postgres.Open(dsn), cfg)
		} else {
			dbConn, dbErr = gorm.Open(sqlite.Open("file::memory:?cache=shared"), cfg)
		}
		if dbErr != nil {
			return
		}
		dbErr = dbConn.AutoMigrate(
			&types.User{},
			&types.Category{},
			&types.Product{},
			&types.ProductCategory{},
			&types.ProductComponent{},
			&types.Task{},
			&types.Subtask{},
			&types.SubtaskEvent{},
			&types.StockMovement{},
			&types.AppConfig{},
		)
	})
	if dbErr != nil {
		tb.Fatalf("open test database: %v", dbErr)
	}
	return dbConn
}

// Tx hands the test a transaction that is rolled back on cleanup, so tests
// never see each other's rows. Services built over this handle nest their own
// transactions as savepoints.
func Tx(tb testing.TB, db *gorm.DB) *gorm.DB {
	tb.Helper()

	tx := db.Begin()
	if tx.Error != nil {
		tb.Fatalf("begin test transaction: %v", tx.Error)
	}
	tb.Cleanup(func() {
		_ = tx.Rollback()
	})
	return tx
}

func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()

	log, err := logger.New("development")
	if err != nil {
		tb.Fatalf("init test logger: %v", err)
	}
	return log
}
