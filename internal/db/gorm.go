package db

import (
	"log/slog"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

type Config struct {
	DSN       string // postgres://... or file:ghonsi.db / *.db for sqlite
	LogSQL    bool
	DisableFK bool // set true if FKs are managed by SQL migrations
}

// OpenGorm opens postgres, or sqlite when the DSN names a local file.
func OpenGorm(cfg Config) (*gorm.DB, error) {
	lvl := logger.Warn
	if cfg.LogSQL {
		lvl = logger.Info
	}
	return gorm.Open(dialector(cfg.DSN), &gorm.Config{
		Logger: logger.New(slog.NewLogLogger(slog.Default().Handler(), slog.LevelInfo), logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  lvl,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		}),
		NamingStrategy: schema.NamingStrategy{
			SingularTable: true,
		},
		DisableForeignKeyConstraintWhenMigrating: cfg.DisableFK,
		TranslateError:                           true,
	})
}

// IsPostgres reports whether dsn selects the postgres driver.
func IsPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") || strings.Contains(dsn, "host=")
}

func dialector(dsn string) gorm.Dialector {
	if IsPostgres(dsn) {
		return postgres.Open(dsn)
	}
	return sqlite.Open(dsn)
}
