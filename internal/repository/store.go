package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DefaultDSN is used when no database location is configured.
const DefaultDSN = "tasks.db"

// Store owns the single handle to the embedded SQLite database.
type Store struct {
	dsn    string
	logger *zap.Logger

	mu sync.Mutex
	db *gorm.DB
}

// NewStore prepares a store for dsn. Nothing is opened until Open is called.
func NewStore(dsn string, log *zap.Logger) *Store {
	if dsn == "" {
		dsn = DefaultDSN
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{dsn: dsn, logger: log}
}

// Open opens the database, creating it if absent, and runs pending migrations.
// Calling Open on an already open store returns the existing handle.
func (s *Store) Open(ctx context.Context) (*gorm.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return s.db, nil
	}

	if err := ensureDirForSQLite(s.dsn); err != nil {
		return nil, unavailable("prepare", err)
	}

	dbLogger := logger.New(
		zap.NewStdLog(s.logger.Named("gorm")),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(sqlite.Open(s.dsn), &gorm.Config{
		Logger:  dbLogger,
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, unavailable("open db", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, unavailable("open db", err)
	}
	// One connection keeps writes serialized and :memory: databases coherent.
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, unavailable("ping db", err)
	}

	from, err := migrate(ctx, db)
	if err != nil {
		_ = sqlDB.Close()
		return nil, unavailable("migrate db", err)
	}

	s.logger.Info("store opened",
		zap.String("dsn", s.dsn),
		zap.Int("from_version", from),
		zap.Int("schema_version", SchemaVersion),
	)

	s.db = db
	return s.db, nil
}

// DB returns the open handle.
func (s *Store) DB() (*gorm.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil, ErrNotInitialized
	}
	return s.db, nil
}

// Close releases the handle. Closing a closed store is a no-op.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}

	sqlDB, err := s.db.DB()
	s.db = nil
	if err != nil {
		return fmt.Errorf("close db: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}

	s.logger.Info("store closed", zap.String("dsn", s.dsn))
	return nil
}

// Version reports the schema version recorded in the database file.
func (s *Store) Version(ctx context.Context) (int, error) {
	db, err := s.DB()
	if err != nil {
		return 0, err
	}
	return userVersion(db.WithContext(ctx))
}

// ensureDirForSQLite creates parent dir for SQLite file if needed.
func ensureDirForSQLite(dsn string) error {
	if strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") {
		return nil
	}
	clean := strings.TrimPrefix(dsn, "file:")
	clean = strings.Split(clean, "?")[0]
	dir := filepath.Dir(clean)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create db dir %q: %w", dir, err)
	}
	return nil
}
