package database_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"gamequest/backend/internal/database"
	"gamequest/backend/internal/database/databasetest"
	"gamequest/backend/internal/models"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func TestStore_Lifecycle(t *testing.T) {
	s := databasetest.NewStore(t)
	assert.Equal(t, database.StateHealthy, s.State())

	db, err := s.DB(context.Background())
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.Platform{Name: "PC"}).Error)

	require.NoError(t, s.Close())
	assert.Equal(t, database.StateUnavailable, s.Check(context.Background()))

	_, err = s.DB(context.Background())
	assert.ErrorIs(t, err, database.ErrStorageUnavailable)
}

func TestNewStore_StartsInInit(t *testing.T) {
	s := databasetest.NewStore(t)
	db := databasetest.DB(t, s)

	fresh := database.NewStore(db, zap.NewNop())
	assert.Equal(t, database.StateInit, fresh.State())
	_, err := fresh.DB(context.Background())
	assert.ErrorIs(t, err, database.ErrStorageUnavailable)
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := database.Open(context.Background(), database.Options{Driver: "oracle", DSN: "x", Retries: 1}, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported driver")
}

func TestIsUniqueViolation(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "gorm translated", err: gorm.ErrDuplicatedKey, want: true},
		{name: "wrapped gorm translated", err: fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey), want: true},
		{name: "mysql duplicate entry", err: &mysql.MySQLError{Number: 1062}, want: true},
		{name: "mysql other", err: &mysql.MySQLError{Number: 1452}, want: false},
		{name: "postgres unique", err: &pgconn.PgError{Code: "23505"}, want: true},
		{name: "postgres fk", err: &pgconn.PgError{Code: "23503"}, want: false},
		{name: "not found", err: gorm.ErrRecordNotFound, want: false},
		{name: "plain", err: errors.New("boom"), want: false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, database.IsUniqueViolation(tc.err))
		})
	}
}

func TestIsUniqueViolation_SQLite(t *testing.T) {
	s := databasetest.NewStore(t)
	db := databasetest.DB(t, s)

	require.NoError(t, db.Create(&models.Platform{Name: "Switch"}).Error)
	err := db.Create(&models.Platform{Name: "Switch"}).Error
	require.Error(t, err)
	assert.True(t, database.IsUniqueViolation(err))
}
