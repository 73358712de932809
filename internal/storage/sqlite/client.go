package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/fraud-sms/detector/internal/history"
	"github.com/fraud-sms/detector/pkg/logger"
)

// Client is a DurableStore backed by a single-table SQLite database.
type Client struct {
	db *sql.DB
}

var _ history.DurableStore = (*Client)(nil)

func NewClient(dbPath string) (*Client, error) {
	if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1)

	_, err = db.Exec("PRAGMA journal_mode = WAL")
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	_, err = db.Exec("PRAGMA busy_timeout = 2000")
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS kv_records (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`

	_, err := c.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

func (c *Client) Load(ctx context.Context, key string) ([]byte, error) {
	query := `SELECT value FROM kv_records WHERE key = ?`

	var value []byte
	err := c.db.QueryRowContext(ctx, query, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, history.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load record: %w", err)
	}

	return value, nil
}

// Save replaces the whole record in one statement.
func (c *Client) Save(ctx context.Context, key string, data []byte) error {
	query := `
		INSERT INTO kv_records (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`

	_, err := c.db.ExecContext(ctx, query, key, data, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to save record: %w", err)
	}

	logger.Debug("Record saved", zap.String("key", key), zap.Int("bytes", len(data)))
	return nil
}

// UpdatedAt reports when key was last written.
func (c *Client) UpdatedAt(ctx context.Context, key string) (time.Time, error) {
	var updatedAt int64
	err := c.db.QueryRowContext(ctx, `SELECT updated_at FROM kv_records WHERE key = ?`, key).Scan(&updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, history.ErrNotFound
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read record timestamp: %w", err)
	}
	return time.Unix(updatedAt, 0), nil
}
