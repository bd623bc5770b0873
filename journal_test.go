package main

import (
	"path/filepath"
	"testing"
	"time"
)

func newTestJournal(t *testing.T) *Journal {
	t.Helper()
	journal, err := OpenJournal(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("OpenJournal() error = %v", err)
	}
	t.Cleanup(func() { journal.Close() })
	return journal
}

func TestPrepareAssignsUniqueKeys(t *testing.T) {
	journal := newTestJournal(t)

	rows, err := journal.Prepare([]Article{candidate(1), candidate(2)})
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}

	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0].Key == rows[1].Key {
		t.Error("different articles got the same idempotency key")
	}
	for _, row := range rows {
		if row.Key == "" {
			t.Error("row missing idempotency key")
		}
		if row.Fields["title"] == "" {
			t.Error("row missing sheet fields")
		}
	}
}

func TestPrepareReusesPendingKey(t *testing.T) {
	journal := newTestJournal(t)
	article := candidate(1)

	first, err := journal.Prepare([]Article{article})
	if err != nil {
		t.Fatalf("first Prepare() error = %v", err)
	}

	// Simulated crash before MarkCommitted: the rerun must resend the same key.
	second, err := journal.Prepare([]Article{article})
	if err != nil {
		t.Fatalf("second Prepare() error = %v", err)
	}

	if len(second) != 1 {
		t.Fatalf("got %d rows on rerun, want 1", len(second))
	}
	if second[0].Key != first[0].Key {
		t.Errorf("rerun key = %s, want the original pending key %s", second[0].Key, first[0].Key)
	}
}

func TestPrepareSkipsCommitted(t *testing.T) {
	journal := newTestJournal(t)
	article := candidate(1)

	rows, err := journal.Prepare([]Article{article})
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if err := journal.MarkCommitted([]string{rows[0].Key}); err != nil {
		t.Fatalf("MarkCommitted() error = %v", err)
	}

	rerun, err := journal.Prepare([]Article{article, candidate(2)})
	if err != nil {
		t.Fatalf("rerun Prepare() error = %v", err)
	}
	if len(rerun) != 1 {
		t.Fatalf("got %d rows, want 1: committed article must be skipped", len(rerun))
	}
	if rerun[0].Fields["title"] != "Article 2" {
		t.Errorf("surviving row = %q", rerun[0].Fields["title"])
	}
}

func TestPendingListsOnlyUnconfirmed(t *testing.T) {
	journal := newTestJournal(t)

	rows, err := journal.Prepare([]Article{candidate(1), candidate(2)})
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if err := journal.MarkCommitted([]string{rows[0].Key}); err != nil {
		t.Fatalf("MarkCommitted() error = %v", err)
	}

	pending, err := journal.Pending()
	if err != nil {
		t.Fatalf("Pending() error = %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("got %d pending, want 1", len(pending))
	}
	if pending[0].Key != rows[1].Key {
		t.Errorf("pending key = %s, want %s", pending[0].Key, rows[1].Key)
	}
}

func TestPruneCommitted(t *testing.T) {
	journal := newTestJournal(t)

	rows, err := journal.Prepare([]Article{candidate(1)})
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if err := journal.MarkCommitted([]string{rows[0].Key}); err != nil {
		t.Fatalf("MarkCommitted() error = %v", err)
	}

	// Entries are younger than the cutoff: nothing should go.
	removed, err := journal.PruneCommitted(24 * time.Hour)
	if err != nil {
		t.Fatalf("PruneCommitted() error = %v", err)
	}
	if removed != 0 {
		t.Errorf("removed %d young entries, want 0", removed)
	}

	// Zero cutoff removes all committed entries, but never pending ones.
	if _, err := journal.Prepare([]Article{candidate(2)}); err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	removed, err = journal.PruneCommitted(0)
	if err != nil {
		t.Fatalf("PruneCommitted() error = %v", err)
	}
	if removed != 1 {
		t.Errorf("removed %d, want 1", removed)
	}

	pending, err := journal.Pending()
	if err != nil {
		t.Fatalf("Pending() error = %v", err)
	}
	if len(pending) != 1 {
		t.Errorf("prune touched pending entries: %d left, want 1", len(pending))
	}
}
