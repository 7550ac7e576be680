// Package databasetest builds throwaway sqlite-backed stores for tests.
package databasetest

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"gamequest/backend/internal/database"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewStore returns a migrated, healthy store over a private in-memory database.
// Seed and inspect rows through store.DB.
func NewStore(t *testing.T) *database.Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// One connection keeps the shared in-memory database alive and serializes writers.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	s := database.NewStore(db, zap.NewNop())
	require.NoError(t, s.Migrate())
	require.Equal(t, database.StateHealthy, s.Check(context.Background()))
	return s
}

// DB is a shortcut for store.DB with a background context.
func DB(t *testing.T, s *database.Store) *gorm.DB {
	t.Helper()
	db, err := s.DB(context.Background())
	require.NoError(t, err)
	return db
}
