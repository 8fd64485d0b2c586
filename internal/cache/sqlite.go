package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/coopco/relaybot/internal/relay"
)

// SQLiteCache stores translated embeds in a single local sqlite file.
// Blocks are serialized as JSON so the schema stays a plain key-value
// table.
type SQLiteCache struct {
	db *sql.DB
}

// OpenSQLite opens the cache database at path, creating it if needed.
func OpenSQLite(path string) (*SQLiteCache, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("make cache dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}
	pragmas := []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA synchronous = NORMAL;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("pragma %q: %w", p, err)
		}
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS translations (
        message_id TEXT PRIMARY KEY,
        blocks TEXT NOT NULL,
        created_at TEXT NOT NULL
    )`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create translations table: %w", err)
	}
	return &SQLiteCache{db: db}, nil
}

func (c *SQLiteCache) Get(ctx context.Context, messageID string) ([]relay.EmbedBlock, bool, error) {
	var raw string
	err := c.db.QueryRowContext(ctx, `SELECT blocks FROM translations WHERE message_id = ?`, messageID).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get %s: %w", messageID, err)
	}
	var blocks []relay.EmbedBlock
	if err := json.Unmarshal([]byte(raw), &blocks); err != nil {
		return nil, false, fmt.Errorf("cache decode %s: %w", messageID, err)
	}
	return blocks, true, nil
}

// Put stores blocks under messageID. INSERT OR IGNORE keeps the first
// write and silently drops later ones, so concurrent first-time requests
// for the same message cannot overwrite each other.
func (c *SQLiteCache) Put(ctx context.Context, messageID string, blocks []relay.EmbedBlock) error {
	raw, err := json.Marshal(blocks)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", messageID, err)
	}
	_, err = c.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO translations (message_id, blocks, created_at) VALUES (?, ?, ?)`,
		messageID, string(raw), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("cache put %s: %w", messageID, err)
	}
	return nil
}

func (c *SQLiteCache) Len(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM translations`).Scan(&n); err != nil {
		return 0, fmt.Errorf("cache count: %w", err)
	}
	return n, nil
}

func (c *SQLiteCache) Close() error {
	return c.db.Close()
}
