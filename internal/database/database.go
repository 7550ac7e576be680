package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gamequest/backend/internal/models"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrStorageUnavailable is returned when the backing store is unreachable.
var ErrStorageUnavailable = errors.New("storage unavailable")

const pingTimeout = 2 * time.Second

// Options configures Open.
type Options struct {
	Driver        string // postgres, mysql or sqlite
	DSN           string
	Retries       int
	RetryInterval time.Duration
}

// Store is the storage client shared by the engine and the handlers.
// It is constructed once at startup and passed to its users explicitly.
type Store struct {
	db     *gorm.DB
	status *statusManager
	logger *zap.Logger
}

func dialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "", "postgres":
		return postgres.Open(dsn), nil
	case "mysql":
		return mysql.Open(dsn), nil
	case "sqlite":
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("database: unsupported driver %q", driver)
	}
}

// Open connects to the database, retrying up to opts.Retries times, and runs migrations.
func Open(ctx context.Context, opts Options, lg *zap.Logger) (*Store, error) {
	// Configure GORM logger
	gormLogger := logger.New(
		zap.NewStdLog(lg.Named("gorm")),
		logger.Config{
			SlowThreshold:             200 * time.Millisecond, // Slow SQL threshold
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		},
	)

	retries := max(opts.Retries, 1)
	var db *gorm.DB
	for attempt := 1; ; attempt++ {
		dial, err := dialector(opts.Driver, opts.DSN)
		if err != nil {
			return nil, err
		}
		db, err = gorm.Open(dial, &gorm.Config{
			Logger:         gormLogger,
			TranslateError: true,
		})
		if err == nil {
			break
		}
		if attempt >= retries {
			return nil, fmt.Errorf("database: connect after %d attempts: %w", attempt, err)
		}
		lg.Warn("database connect failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("backoff", opts.RetryInterval),
			zap.Error(err))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(opts.RetryInterval):
		}
	}
	lg.Info("database connection established", zap.String("driver", opts.Driver))

	s := NewStore(db, lg)
	if err := s.Migrate(); err != nil {
		return nil, err
	}
	s.Check(ctx)
	return s, nil
}

// NewStore wraps an already opened connection. The store starts in StateInit
// and becomes usable after the first successful Check.
func NewStore(db *gorm.DB, lg *zap.Logger) *Store {
	return &Store{
		db:     db,
		status: newStatusManager(lg),
		logger: lg,
	}
}

// Migrate creates or updates every table.
func (s *Store) Migrate() error {
	if err := s.db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("database: migrate: %w", err)
	}
	s.logger.Info("database migrated successfully")
	return nil
}

// DB returns a session bound to ctx, or ErrStorageUnavailable when the store is not healthy.
func (s *Store) DB(ctx context.Context) (*gorm.DB, error) {
	if s.status.get() != StateHealthy {
		return nil, ErrStorageUnavailable
	}
	return s.db.WithContext(ctx), nil
}

// State returns the current lifecycle state.
func (s *Store) State() State {
	return s.status.get()
}

// Check pings the database and updates the lifecycle state.
func (s *Store) Check(ctx context.Context) State {
	sqlDB, err := s.db.DB()
	if err == nil {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		err = sqlDB.PingContext(pingCtx)
		cancel()
	}
	return s.status.assess(err == nil, err)
}

// RunHealthCheck pings every interval until ctx is done. database/sql redials
// broken connections on its own, so a successful ping is enough to recover.
func (s *Store) RunHealthCheck(ctx context.Context, interval time.Duration) {
	s.logger.Info("storage health checker started", zap.Duration("interval", interval))
	timer := time.NewTimer(interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("storage health checker stopped")
			return
		case <-timer.C:
			s.Check(ctx)
			timer.Reset(interval)
		}
	}
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
