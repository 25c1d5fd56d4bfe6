package classify

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// StoreFile is the database file name inside the store directory.
const StoreFile = "classifiers.db"

// Store persists trained models in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// OpenStore opens or creates the model database in dir.
func OpenStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create model directory: %w", err)
	}
	path := filepath.Join(dir, StoreFile)

	db, err := sql.Open("sqlite", path+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("failed to open model database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	const schema = `
	CREATE TABLE IF NOT EXISTS models (
		signature TEXT PRIMARY KEY,
		fingerprint TEXT NOT NULL,
		bias REAL NOT NULL,
		weights TEXT NOT NULL,
		trained_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save inserts or replaces the model of m.Signature.
func (s *Store) Save(ctx context.Context, m *Model) error {
	weights, err := json.Marshal(m.Weights)
	if err != nil {
		return fmt.Errorf("failed to encode weights: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO models (signature, fingerprint, bias, weights, trained_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(signature) DO UPDATE SET
			fingerprint = excluded.fingerprint,
			bias = excluded.bias,
			weights = excluded.weights,
			trained_at = excluded.trained_at`,
		m.Signature, m.Fingerprint, m.Bias, string(weights))
	if err != nil {
		return fmt.Errorf("failed to save model %q: %w", m.Signature, err)
	}
	return nil
}

// Load returns the stored model for name, or ErrNoModel.
func (s *Store) Load(ctx context.Context, name string) (*Model, error) {
	var (
		m       = &Model{Signature: name}
		weights string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT fingerprint, bias, weights FROM models WHERE signature = ?`, name,
	).Scan(&m.Fingerprint, &m.Bias, &weights)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNoModel, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load model %q: %w", name, err)
	}
	if err := json.Unmarshal([]byte(weights), &m.Weights); err != nil {
		return nil, fmt.Errorf("failed to decode weights of %q: %w", name, err)
	}
	return m, nil
}

// count returns the number of stored models.
func (s *Store) count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM models`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count models: %w", err)
	}
	return n, nil
}
