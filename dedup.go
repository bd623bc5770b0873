package main

import (
	"context"
	"fmt"
	"log"
)

// LookupPolicy decides what happens to a candidate whose ledger lookup
// fails. Neither policy silently drops the candidate into a bucket without
// an explicit decision.
type LookupPolicy int

const (
	// LookupAbort fails the whole filter call, naming the candidate.
	LookupAbort LookupPolicy = iota
	// LookupAssumeNew treats the candidate as new and logs a warning.
	LookupAssumeNew
)

// DuplicateFilter partitions candidates against the ledger.
type DuplicateFilter struct {
	ledger Ledger
	policy LookupPolicy
}

// NewDuplicateFilter creates a filter with the given lookup-failure policy.
func NewDuplicateFilter(ledger Ledger, policy LookupPolicy) *DuplicateFilter {
	return &DuplicateFilter{ledger: ledger, policy: policy}
}

// LookupError names the candidate whose ledger lookup failed.
type LookupError struct {
	Article Article
	Err     error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("ledger lookup failed for %q: %v", e.Article.Title, e.Err)
}

func (e *LookupError) Unwrap() error { return e.Err }

// Filter partitions candidates into new and duplicate. Every input article
// lands in exactly one bucket. A candidate is duplicate when the ledger has
// a row matching its link (primary key), or its id when the extraction
// returned no direct link. Comparison is exact; the only normalization is
// the one baked into Article.ID.
func (f *DuplicateFilter) Filter(ctx context.Context, candidates []Article) (*Partition, error) {
	p := &Partition{}

	for _, candidate := range candidates {
		column, value := "link", candidate.Link
		if candidate.Link == "" || candidate.Link == candidate.BaseURL {
			// Extraction found no direct link; fall back to the id column.
			column, value = "id", candidate.ID()
		}

		rows, err := f.ledger.LookupRows(ctx, column, value)
		if err != nil {
			if f.policy == LookupAssumeNew {
				log.Printf("⚠ Lookup failed for %q, treating as new: %v", candidate.Title, err)
				p.New = append(p.New, candidate)
				continue
			}
			return nil, &LookupError{Article: candidate, Err: err}
		}

		if len(rows) > 0 {
			log.Printf("⏭ Skipping duplicate: %s", candidate.Title)
			p.Duplicate = append(p.Duplicate, candidate)
		} else {
			p.New = append(p.New, candidate)
		}
	}

	return p, nil
}
