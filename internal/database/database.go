package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Wikid82/sentinel/internal/config"
	"github.com/Wikid82/sentinel/internal/logger"
	"github.com/Wikid82/sentinel/internal/models"
)

// Connect opens the configured store and tunes its connection pool.
func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn, err := BuildDSN(cfg)
	if err != nil {
		return nil, err
	}
	db, err := Open(cfg.Driver, dsn)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql handle: %w", err)
	}
	if cfg.Driver != "sqlite" {
		sqlDB.SetConnMaxLifetime(3 * time.Minute)
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(10)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping %s database: %w", cfg.Driver, err)
	}
	return db, nil
}

// Open bootstraps a gorm handle for the named driver.
func Open(driverName, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driverName {
	case "sqlite", "":
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	case "mysql":
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driverName)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: newGormLogger()})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driverName, err)
	}
	return db, nil
}

// newGormLogger routes gorm's own error and slow-query output through logrus.
// Empty lookups are normal for an idle poll and are not logged.
func newGormLogger() gormlogger.Interface {
	return gormlogger.New(logger.Component("gorm"), gormlogger.Config{
		SlowThreshold:             time.Second,
		LogLevel:                  gormlogger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}

// BuildDSN returns cfg.DSN when set, otherwise assembles one from the parts.
func BuildDSN(cfg config.DatabaseConfig) (string, error) {
	if cfg.DSN != "" {
		return cfg.DSN, nil
	}
	switch cfg.Driver {
	case "sqlite", "":
		if cfg.Path == "" {
			return "", errors.New("sqlite database path is required")
		}
		return cfg.Path + "?_busy_timeout=5000&_journal_mode=WAL", nil
	case "postgres":
		sslmode := "disable"
		if cfg.TLS {
			sslmode = "require"
		}
		port := cfg.Port
		if port == 0 {
			port = 5432
		}
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=UTC",
			cfg.Host, cfg.User, cfg.Password, cfg.Name, port, sslmode), nil
	case "mysql":
		port := cfg.Port
		if port == 0 {
			port = 4000
		}
		params := "parseTime=true&loc=UTC"
		if cfg.TLS {
			params += "&tls=true"
		}
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s", cfg.User, cfg.Password, cfg.Host, port, cfg.Name, params), nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Migrate creates or updates the agent tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.LogEvent{},
		&models.Incident{},
		&models.Action{},
		&models.SecurityDecision{},
		&models.Ticket{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// Ping checks the store with a bounded context.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

var connectionErrorMarkers = []string{
	"connection refused",
	"connection reset",
	"broken pipe",
	"bad connection",
	"server has gone away",
	"invalid connection",
	"database is closed",
	"i/o timeout",
	"no such host",
}

// IsConnectionError reports whether err means the store connection is unusable,
// as opposed to a query or constraint failure.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range connectionErrorMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
