package app

import (
	"database/sql"
	"fmt"
	"github.com/pressly/goose/v3"
	"rewards/internal/app/migrations"
)

func applyMigrations(db *sql.DB) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}

	return nil
}
