package db

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/charmbracelet/log"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

type DB struct {
	*sql.DB
	Driver string
}

// Connect opens and pings a database. driver is "postgres" or "sqlite3".
func Connect(driver, dsn string) (*DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	switch driver {
	case "sqlite3":
		// one connection keeps :memory: databases shared and serialises writers
		db.SetMaxOpenConns(1)
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	default:
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
	}
	return &DB{DB: db, Driver: driver}, nil
}

// Migrator runs the embedded goose migrations against a [DB].
type Migrator struct {
	db *DB
}

func NewMigrator(db *DB, logger *log.Logger) (*Migrator, error) {
	goose.SetBaseFS(embedMigrations)
	if logger != nil {
		goose.SetLogger(logger)
	} else {
		goose.SetLogger(goose.NopLogger())
	}
	if err := goose.SetDialect(db.Driver); err != nil {
		return nil, fmt.Errorf("failed to set goose dialect: %w", err)
	}
	return &Migrator{db: db}, nil
}

func (m *Migrator) Up() error {
	if err := goose.Up(m.db.DB, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func (m *Migrator) Down() error {
	if err := goose.Down(m.db.DB, "migrations"); err != nil {
		return fmt.Errorf("failed to rollback migration: %w", err)
	}
	return nil
}

func (m *Migrator) Status() error {
	if err := goose.Status(m.db.DB, "migrations"); err != nil {
		return fmt.Errorf("failed to get migration status: %w", err)
	}
	return nil
}

func (m *Migrator) Version() (int64, error) {
	version, err := goose.GetDBVersion(m.db.DB)
	if err != nil {
		return 0, fmt.Errorf("failed to get database version: %w", err)
	}
	return version, nil
}

// Migrate is shorthand for NewMigrator followed by Up.
func Migrate(db *DB, logger *log.Logger) error {
	m, err := NewMigrator(db, logger)
	if err != nil {
		return err
	}
	return m.Up()
}
