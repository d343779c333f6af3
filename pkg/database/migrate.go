package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"sync"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrations embed.FS

// goose keeps its dialect and filesystem in package state.
var gooseMu sync.Mutex

// Migrate applies every pending migration for the given driver.
func Migrate(ctx context.Context, db *sql.DB, driver string, logger *zap.Logger) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	if logger == nil {
		logger = zap.NewNop()
	}

	goose.SetBaseFS(migrations)
	goose.SetLogger(gooseLogger{logger.Named("migrate").Sugar()})

	if err := goose.SetDialect(driver); err != nil {
		return fmt.Errorf("set migration dialect %q: %w", driver, err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// gooseLogger routes goose output through zap.
type gooseLogger struct {
	s *zap.SugaredLogger
}

func (l gooseLogger) Printf(format string, v ...interface{}) { l.s.Infof(format, v...) }
func (l gooseLogger) Fatalf(format string, v ...interface{}) { l.s.Fatalf(format, v...) }
