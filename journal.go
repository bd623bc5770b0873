package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Journal is the local pending/committed log for ledger appends. Each new
// candidate gets a client-generated idempotency key before the append call;
// the key is marked committed only after the batch succeeds. A rerun after
// a partial failure skips committed rows and resends pending ones under the
// same key, so a dedup-capable backend can drop the repeats.
type Journal struct {
	db *sql.DB
}

// JournalEntry is one recorded append.
type JournalEntry struct {
	Key       string
	ArticleID string
	State     string
	CreatedAt time.Time
}

const (
	journalStatePending   = "pending"
	journalStateCommitted = "committed"
)

// OpenJournal opens (and creates if needed) the journal database.
func OpenJournal(path string) (*Journal, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating journal directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening journal database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS appends (
			key        TEXT PRIMARY KEY,
			article_id TEXT NOT NULL UNIQUE,
			state      TEXT NOT NULL DEFAULT 'pending',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing journal schema: %w", err)
	}

	return &Journal{db: db}, nil
}

// Close releases the database handle.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Prepare assigns idempotency keys to the articles that still need
// appending. Committed articles are skipped; pending ones keep their
// existing key. The returned rows are what the ledger append should send.
func (j *Journal) Prepare(articles []Article) ([]AppendRow, error) {
	var rows []AppendRow

	for _, article := range articles {
		id := article.ID()

		var key, state string
		err := j.db.QueryRow(
			`SELECT key, state FROM appends WHERE article_id = ?`, id,
		).Scan(&key, &state)

		switch {
		case err == sql.ErrNoRows:
			key = uuid.NewString()
			_, err = j.db.Exec(
				`INSERT INTO appends (key, article_id, state, created_at) VALUES (?, ?, ?, ?)`,
				key, id, journalStatePending, time.Now().UTC(),
			)
			if err != nil {
				return nil, fmt.Errorf("recording pending append for %q: %w", article.Title, err)
			}
		case err != nil:
			return nil, fmt.Errorf("querying journal for %q: %w", article.Title, err)
		case state == journalStateCommitted:
			// Already on the ledger from a prior run.
			continue
		}

		rows = append(rows, AppendRow{Key: key, Fields: article.SheetRow()})
	}

	return rows, nil
}

// MarkCommitted flips the given keys to committed after a successful append.
func (j *Journal) MarkCommitted(keys []string) error {
	tx, err := j.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning journal transaction: %w", err)
	}
	defer tx.Rollback()

	for _, key := range keys {
		if _, err := tx.Exec(
			`UPDATE appends SET state = ? WHERE key = ?`, journalStateCommitted, key,
		); err != nil {
			return fmt.Errorf("committing key %s: %w", key, err)
		}
	}
	return tx.Commit()
}

// Pending lists appends that were prepared but never confirmed.
func (j *Journal) Pending() ([]JournalEntry, error) {
	return j.list(`SELECT key, article_id, state, created_at FROM appends WHERE state = ? ORDER BY created_at`,
		journalStatePending)
}

// PruneCommitted deletes committed entries older than the cutoff and
// returns how many were removed.
func (j *Journal) PruneCommitted(olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	res, err := j.db.Exec(
		`DELETE FROM appends WHERE state = ? AND created_at < ?`,
		journalStateCommitted, cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("pruning journal: %w", err)
	}
	return res.RowsAffected()
}

func (j *Journal) list(query string, args ...interface{}) ([]JournalEntry, error) {
	rows, err := j.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying journal: %w", err)
	}
	defer rows.Close()

	var entries []JournalEntry
	for rows.Next() {
		var e JournalEntry
		if err := rows.Scan(&e.Key, &e.ArticleID, &e.State, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning journal row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
