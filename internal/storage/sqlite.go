package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pmarks/flashdeck/internal/logger"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var sqlBuilder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)

// SQLiteStore is the SQLite-backed Store implementation.
type SQLiteStore struct {
	db  *sql.DB
	log *logger.Logger
}

// Open opens (or creates) the database at path and applies pending migrations.
// Pass ":memory:" for an in-memory database.
func Open(path string) (*SQLiteStore, error) {
	log := logger.Default().WithPrefix("storage")

	dsn := fmt.Sprintf("%s?_busy_timeout=5000&_journal_mode=WAL&_synchronous=NORMAL", path)
	log.Info("opening database: %s", path)

	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		log.Error("failed to open database: %v", err)
		return nil, err
	}
	// Single connection: SQLite has one writer, and :memory: databases
	// vanish when their connection closes.
	sqlDB.SetMaxOpenConns(1)

	s := &SQLiteStore{db: sqlDB, log: log}

	log.Debug("applying migrations")
	if err := s.applyMigrations(context.Background()); err != nil {
		log.Error("failed to apply migrations: %v", err)
		sqlDB.Close()
		return nil, err
	}

	log.Info("database ready")
	return s, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Load returns the blob stored under the namespace, or nil when absent.
func (s *SQLiteStore) Load(ctx context.Context, namespace string) ([]byte, error) {
	log := logger.FromContext(ctx).WithPrefix("storage")

	query, args, err := sqlBuilder.
		Select("payload").
		From("app_state").
		Where(squirrel.Eq{"namespace": namespace}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var payload []byte
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("namespace %s is empty", namespace)
		return nil, nil
	}
	if err != nil {
		log.Error("failed to load namespace %s: %v", namespace, err)
		return nil, err
	}
	log.Debug("loaded namespace %s: %d bytes", namespace, len(payload))
	return payload, nil
}

// Save overwrites the blob stored under the namespace.
func (s *SQLiteStore) Save(ctx context.Context, namespace string, blob []byte) error {
	log := logger.FromContext(ctx).WithPrefix("storage")

	query, args, err := sqlBuilder.
		Insert("app_state").
		Columns("namespace", "payload").
		Values(namespace, blob).
		Suffix("ON CONFLICT(namespace) DO UPDATE SET payload = excluded.payload, updated_at = CURRENT_TIMESTAMP").
		ToSql()
	if err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		log.Error("failed to save namespace %s: %v", namespace, err)
		return err
	}
	log.Debug("saved namespace %s: %d bytes", namespace, len(blob))
	return nil
}

// Clear removes the namespace entirely.
func (s *SQLiteStore) Clear(ctx context.Context, namespace string) error {
	log := logger.FromContext(ctx).WithPrefix("storage")

	query, args, err := sqlBuilder.
		Delete("app_state").
		Where(squirrel.Eq{"namespace": namespace}).
		ToSql()
	if err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		log.Error("failed to clear namespace %s: %v", namespace, err)
		return err
	}
	log.Debug("cleared namespace %s", namespace)
	return nil
}

func (s *SQLiteStore) applyMigrations(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (version TEXT PRIMARY KEY, applied_at DATETIME DEFAULT CURRENT_TIMESTAMP)`); err != nil {
		return err
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return err
	}

	for _, entry := range entries {
		version := entry.Name()
		applied, err := s.isMigrationApplied(ctx, version)
		if err != nil {
			return err
		}
		if applied {
			s.log.Debug("migration %s already applied, skipping", version)
			continue
		}
		sqlBytes, err := migrationsFS.ReadFile("migrations/" + version)
		if err != nil {
			return err
		}
		s.log.Info("applying migration: %s", version)
		if _, err := s.db.ExecContext(ctx, string(sqlBytes)); err != nil {
			s.log.Error("migration %s failed: %v", version, err)
			return fmt.Errorf("apply migration %s: %w", version, err)
		}
		if _, err := s.db.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES (?)`, version); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) isMigrationApplied(ctx context.Context, version string) (bool, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT version FROM schema_migrations WHERE version = ?`, version).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}
