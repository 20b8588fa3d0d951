package db

import (
	"context"
	"fmt"
	"strings"

	"hackbot/internal/auth"
	"hackbot/internal/hackathon"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens Postgres for postgres:// DSNs and SQLite for sqlite:// ones.
func Connect(dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch {
	case strings.HasPrefix(dsn, "sqlite://"):
		dialector = sqlite.Open(strings.TrimPrefix(dsn, "sqlite://"))
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"), strings.Contains(dsn, "host="):
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported DATABASE_URL scheme: %q", dsn)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}
	if gdb.Dialector.Name() == "sqlite" {
		// single writer
		sqlDB, err := gdb.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
		if err := gdb.Exec("PRAGMA foreign_keys=ON").Error; err != nil {
			return nil, err
		}
	}
	return gdb, nil
}

func Ping(ctx context.Context, gdb *gorm.DB) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func AutoMigrateAndIndexes(gdb *gorm.DB) error {
	models := append(hackathon.Models(), &auth.Admin{})
	if err := gdb.AutoMigrate(models...); err != nil {
		return err
	}

	stmts := []string{
		`create index if not exists idx_events_hackathon_starts on events(hackathon_id, starts_at);`,
		`create index if not exists idx_subscriptions_hackathon_enabled on reminder_subscriptions(hackathon_id, enabled);`,
		`create index if not exists idx_users_current_hackathon on users(current_hackathon_id);`,
	}
	for _, s := range stmts {
		if err := gdb.Exec(s).Error; err != nil {
			return fmt.Errorf("index exec failed: %w (sql=%s)", err, s)
		}
	}

	return nil
}

func Close(gdb *gorm.DB) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
