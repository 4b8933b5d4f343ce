package postgres

import (
	"embed"
	"errors"
	"fmt"

	"support-chat/internal/config"
	"support-chat/internal/logger"
	"support-chat/internal/repository/db"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Ensure PostgresDB implements db.Database interface
var _ db.Database = (*PostgresDB)(nil)

// PostgresDB implements the db.Database interface.
// A PostgresDB without a connection is the unavailable store: reads return empty
// results, writes are skipped, and UpsertUser fails with db.ErrStoreUnavailable.
type PostgresDB struct {
	conn        *sqlx.DB
	ownerOpenID string
}

// NewPostgresDB connects, runs migrations and returns a live store
func NewPostgresDB(dbConfig config.DatabaseConfig, ownerOpenID string) (*PostgresDB, error) {
	logger.Log.WithField("host", dbConfig.Host).Info("Connecting to PostgreSQL")

	conn, err := sqlx.Open("postgres", dbConfig.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err = conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	logger.Log.Info("Successfully connected to PostgreSQL")

	store := &PostgresDB{conn: conn, ownerOpenID: ownerOpenID}

	if err = store.RunMigrations(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("error running migrations: %w", err)
	}

	return store, nil
}

// Unavailable returns a store with no connection
func Unavailable(ownerOpenID string) *PostgresDB {
	return &PostgresDB{ownerOpenID: ownerOpenID}
}

// Available reports whether the store holds a connection
func (p *PostgresDB) Available() bool {
	return p.conn != nil
}

// Close closes the database connection
func (p *PostgresDB) Close() error {
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// RunMigrations applies the embedded migrations using golang-migrate
func (p *PostgresDB) RunMigrations() error {
	if p.conn == nil {
		return db.ErrStoreUnavailable
	}

	source, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("error loading migration files: %w", err)
	}

	driver, err := migratepg.WithInstance(p.conn.DB, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("error creating migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("error creating migration instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("error running migrations: %w", err)
	}

	logger.Log.Info("Database migrations applied successfully")
	return nil
}

// unavailable logs and reports a missing connection for the named operation
func (p *PostgresDB) unavailable(operation string) bool {
	if p.conn != nil {
		return false
	}
	logger.Log.WithField("operation", operation).Warn("Database not available")
	return true
}
