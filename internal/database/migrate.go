package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	"github.com/objaverse/platform/migrations"
)

// Migrate applies the embedded schema migrations. Safe to run on every boot:
// goose records applied versions and skips them.
func Migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set migration dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// SetMigrationLogger routes goose output through zap instead of the standard
// library logger goose defaults to.
func SetMigrationLogger(logger *zap.Logger) {
	goose.SetLogger(&migrationLogger{sugar: logger.Sugar()})
}

type migrationLogger struct{ sugar *zap.SugaredLogger }

func (l *migrationLogger) Printf(format string, args ...interface{}) {
	l.sugar.Infof(format, args...)
}

// Fatalf demotes to error level: the caller decides whether a failed
// migration is fatal.
func (l *migrationLogger) Fatalf(format string, args ...interface{}) {
	l.sugar.Errorf(format, args...)
}
