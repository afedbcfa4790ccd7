// Package journal persists delivery notifications so operators can inspect
// what the adapter actually sent.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"teamsbot/internal/domain"
)

// Journal is a sqlite-backed domain.Notifier recording send/reply completions.
type Journal struct {
	db     *sql.DB
	logger *slog.Logger
}

// Entry is one recorded delivery batch.
type Entry struct {
	ID             int64
	Kind           string
	ConversationID string
	ResultCount    int
	ResultIDs      string
	CreatedAt      time.Time
}

// Open creates or opens the journal database at the given path.
func Open(dbPath string, logger *slog.Logger) (*Journal, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create journal directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("cannot open journal: %w", err)
	}

	// Single connection for SQLite
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if logger == nil {
		logger = slog.Default()
	}
	j := &Journal{db: db, logger: logger}
	if err := j.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal migration failed: %w", err)
	}
	return j, nil
}

func (j *Journal) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS deliveries (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		kind            TEXT NOT NULL,
		conversation_id TEXT,
		result_count    INTEGER NOT NULL DEFAULT 0,
		result_ids      TEXT,
		created_at      DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_deliveries_time ON deliveries(created_at);
	`
	_, err := j.db.Exec(schema)
	return err
}

// Notify records one completed delivery batch. Write failures are logged and
// never propagated; the journal must not affect dispatch.
func (j *Journal) Notify(n domain.Notification) {
	ids := make([]string, 0, len(n.Results))
	for _, r := range n.Results {
		ids = append(ids, r.ID)
	}
	ts := n.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	_, err := j.db.Exec(
		`INSERT INTO deliveries (kind, conversation_id, result_count, result_ids, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		string(n.Kind), n.ConversationID(), len(n.Results), strings.Join(ids, ","), ts,
	)
	if err != nil {
		j.logger.Error("cannot record delivery", "kind", n.Kind, "err", err)
	}
}

// Recent returns the latest delivery entries, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, kind, conversation_id, result_count, result_ids, created_at
		 FROM deliveries ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Kind, &e.ConversationID, &e.ResultCount, &e.ResultIDs, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}
