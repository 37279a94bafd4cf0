package db

import (
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/skillforge-backend/internal/domain"
	"github.com/yungbote/skillforge-backend/internal/platform/logger"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Driver      string
	SQLitePath  string
	PostgresDSN string
	LogQueries  bool
}

type Service struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewService(log *logger.Logger, cfg Config) (*Service, error) {
	serviceLog := log.With("service", "DBService")

	gcfg := &gorm.Config{Logger: gormLogger.Default.LogMode(gormLogger.Warn)}
	if cfg.LogQueries {
		gcfg.Logger = gormLogger.Default.LogMode(gormLogger.Info)
	}

	var (
		conn *gorm.DB
		err  error
	)
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case DriverPostgres:
		if strings.TrimSpace(cfg.PostgresDSN) == "" {
			return nil, fmt.Errorf("missing POSTGRES_DSN")
		}
		serviceLog.Info("Connecting to Postgres...")
		conn, err = gorm.Open(postgres.Open(cfg.PostgresDSN), gcfg)
	case "", DriverSQLite:
		path := strings.TrimSpace(cfg.SQLitePath)
		if path == "" {
			path = "skillforge.db"
		}
		serviceLog.Info("Opening SQLite database...", "path", path)
		conn, err = gorm.Open(sqlite.Open(SQLiteDSN(path)), gcfg)
		if err == nil {
			// SQLite has a single writer; one connection keeps transactions from
			// failing with SQLITE_BUSY.
			if sqlDB, dbErr := conn.DB(); dbErr == nil {
				sqlDB.SetMaxOpenConns(1)
			}
		}
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Driver)
	}
	if err != nil {
		serviceLog.Error("Failed to open database", "error", err)
		return nil, fmt.Errorf("open database: %w", err)
	}
	return &Service{db: conn, log: serviceLog}, nil
}

// SQLiteDSN appends the pragmas the schema relies on (foreign keys for the
// skill -> assessment restriction).
func SQLiteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_foreign_keys=1&_busy_timeout=5000"
}

func (s *Service) AutoMigrateAll() error {
	s.log.Info("Auto migrating tables...")
	if err := AutoMigrate(s.db); err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	return nil
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(domain.Models()...)
}

func (s *Service) DB() *gorm.DB {
	return s.db
}

func (s *Service) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
