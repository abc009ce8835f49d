package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/geocoder89/supplylens/internal/db/migrations"
)

// Migrator applies the embedded goose migrations.
type Migrator struct {
	dsn string
	log *slog.Logger
}

func NewMigrator(dsn string, log *slog.Logger) (Migrator, error) {
	if dsn == "" {
		return Migrator{}, errors.New("empty database dsn")
	}
	if log == nil {
		log = slog.Default()
	}
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return Migrator{}, fmt.Errorf("configure goose: %w", err)
	}
	return Migrator{dsn: dsn, log: log}, nil
}

// Up applies pending migrations.
func (m Migrator) Up(ctx context.Context) error {
	return m.withDB(func(db *sql.DB) error {
		runCtx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()

		m.log.Info("applying migrations")
		if err := goose.UpContext(runCtx, db, "."); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
		m.log.Info("migrations applied")
		return nil
	})
}

func (m Migrator) Status(ctx context.Context) error {
	return m.withDB(func(db *sql.DB) error {
		if err := goose.StatusContext(ctx, db, "."); err != nil {
			return fmt.Errorf("migration status: %w", err)
		}
		return nil
	})
}

// Down rolls back one migration, or down to target when target > 0.
func (m Migrator) Down(ctx context.Context, target int64) error {
	return m.withDB(func(db *sql.DB) error {
		runCtx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()

		if target > 0 {
			m.log.Info("rolling back migrations", "target", target)
			if err := goose.DownToContext(runCtx, db, ".", target); err != nil {
				return fmt.Errorf("rollback to version %d: %w", target, err)
			}
			return nil
		}

		m.log.Info("rolling back latest migration")
		if err := goose.DownContext(runCtx, db, "."); err != nil {
			return fmt.Errorf("rollback latest migration: %w", err)
		}
		return nil
	})
}

func (m Migrator) withDB(fn func(*sql.DB) error) error {
	db, err := sql.Open("pgx", m.dsn)
	if err != nil {
		return fmt.Errorf("open sql connection: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("ping sql connection: %w", err)
	}

	return fn(db)
}
