// Command ledger-journal inspects and maintains the local append journal
// that post-writer keeps beside the spreadsheet ledger.
package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

func main() {
	if len(os.Args) < 3 {
		log.Fatal("Usage: ledger-journal <pending|commit|prune> <journal-db> [key|days]")
	}

	command := os.Args[1]
	dbPath := os.Args[2]

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		log.Fatalf("Opening journal %s: %v", dbPath, err)
	}
	defer db.Close()

	switch command {
	case "pending":
		if err := listPending(db); err != nil {
			log.Fatal(err)
		}
	case "commit":
		if len(os.Args) < 4 {
			log.Fatal("Usage: ledger-journal commit <journal-db> <key>")
		}
		if err := commitKey(db, os.Args[3]); err != nil {
			log.Fatal(err)
		}
	case "prune":
		days := 30
		if len(os.Args) >= 4 {
			days, err = strconv.Atoi(os.Args[3])
			if err != nil {
				log.Fatalf("Invalid day count %q: %v", os.Args[3], err)
			}
		}
		if err := pruneCommitted(db, days); err != nil {
			log.Fatal(err)
		}
	default:
		log.Fatalf("Unknown command %q", command)
	}
}

// listPending prints appends that were prepared but never confirmed against
// the ledger. These rows will be resent on the next run under the same key.
func listPending(db *sql.DB) error {
	rows, err := db.Query(
		`SELECT key, article_id, created_at FROM appends WHERE state = 'pending' ORDER BY created_at`)
	if err != nil {
		return fmt.Errorf("querying pending appends: %w", err)
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		var key, articleID string
		var createdAt time.Time
		if err := rows.Scan(&key, &articleID, &createdAt); err != nil {
			return fmt.Errorf("scanning row: %w", err)
		}
		fmt.Printf("%s  %s  %s\n", createdAt.Format(time.RFC3339), key, articleID)
		count++
	}
	if err := rows.Err(); err != nil {
		return err
	}

	fmt.Printf("%d pending append(s)\n", count)
	return nil
}

// commitKey marks one append committed, for when a batch is confirmed on
// the sheet by hand.
func commitKey(db *sql.DB, key string) error {
	res, err := db.Exec(`UPDATE appends SET state = 'committed' WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("committing key %s: %w", key, err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("no journal entry with key %s", key)
	}
	fmt.Printf("Committed %s\n", key)
	return nil
}

// pruneCommitted removes committed entries older than the given number of days.
func pruneCommitted(db *sql.DB, days int) error {
	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	res, err := db.Exec(
		`DELETE FROM appends WHERE state = 'committed' AND created_at < ?`, cutoff)
	if err != nil {
		return fmt.Errorf("pruning journal: %w", err)
	}
	affected, _ := res.RowsAffected()
	fmt.Printf("Removed %d committed entr(ies) older than %d days\n", affected, days)
	return nil
}
