package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/eduardojeem/benchline/internal/triage/domain/priority"
)

// SQLiteConfigRepository persists the single active priority config as a
// JSON document in a local SQLite database.
type SQLiteConfigRepository struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the config database at path and ensures
// the schema exists.
func OpenSQLite(ctx context.Context, path string) (*SQLiteConfigRepository, error) {
	// WAL plus a busy timeout keeps the CLI and worker from tripping
	// over each other on the single-writer database.
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?"
	} else {
		dsn += "&"
	}
	dsn += "_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// SQLite doesn't support multiple writers, so limit connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	repo := &SQLiteConfigRepository{db: db}
	if err := repo.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return repo, nil
}

func (r *SQLiteConfigRepository) ensureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS priority_config (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			document TEXT NOT NULL,
			version INTEGER NOT NULL,
			updated_at TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create priority_config table: %w", err)
	}
	return nil
}

// Load returns the stored configuration or priority.ErrConfigNotFound.
func (r *SQLiteConfigRepository) Load(ctx context.Context) (priority.Config, error) {
	var (
		document  string
		version   int
		updatedAt string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT document, version, updated_at FROM priority_config WHERE id = 1`,
	).Scan(&document, &version, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return priority.Config{}, priority.ErrConfigNotFound
		}
		return priority.Config{}, fmt.Errorf("failed to load priority config: %w", err)
	}

	cfg, err := priority.DecodeDocument([]byte(document))
	if err != nil {
		return priority.Config{}, err
	}
	cfg.Version = version
	if ts, err := time.Parse(time.RFC3339, updatedAt); err == nil {
		cfg.UpdatedAt = ts
	}
	return cfg, nil
}

// Save upserts the active configuration.
func (r *SQLiteConfigRepository) Save(ctx context.Context, cfg priority.Config) error {
	document, err := priority.EncodeDocument(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode priority config: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO priority_config (id, document, version, updated_at)
		VALUES (1, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			document = excluded.document,
			version = excluded.version,
			updated_at = excluded.updated_at
	`, string(document), cfg.Version, cfg.UpdatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save priority config: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (r *SQLiteConfigRepository) Close() error {
	return r.db.Close()
}
