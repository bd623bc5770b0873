package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

// OutputWriter persists generated posts to a dated folder: one
// <platform>.txt per post, overwritten on rerun for the same date, plus a
// timestamped JSON summary of the whole run.
type OutputWriter struct {
	baseDir string
	now     func() time.Time
}

// NewOutputWriter writes under baseDir/<YYYY-MM-DD>/.
func NewOutputWriter(baseDir string) *OutputWriter {
	return &OutputWriter{baseDir: baseDir, now: time.Now}
}

type outputSummary struct {
	Article     *Article     `json:"article"`
	Posts       []SocialPost `json:"social_posts"`
	Criteria    string       `json:"criteria"`
	GeneratedAt time.Time    `json:"generated_at"`
}

// Write saves the posts and summary, returning the run's output directory.
func (w *OutputWriter) Write(article *Article, posts []SocialPost, criteria string) (string, error) {
	now := w.now()
	dir := filepath.Join(w.baseDir, now.Format("2006-01-02"))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	for _, post := range posts {
		filename := filepath.Join(dir, string(post.Platform)+".txt")
		if err := os.WriteFile(filename, []byte(post.Text), 0644); err != nil {
			return "", fmt.Errorf("writing %s post: %w", post.Platform, err)
		}
		log.Printf("✓ Saved %s", filename)
	}

	summary := outputSummary{
		Article:     article,
		Posts:       posts,
		Criteria:    criteria,
		GeneratedAt: now,
	}
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding summary: %w", err)
	}

	summaryFile := filepath.Join(dir, fmt.Sprintf("social_posts_%d.json", now.Unix()))
	if err := os.WriteFile(summaryFile, data, 0644); err != nil {
		return "", fmt.Errorf("writing summary: %w", err)
	}
	log.Printf("✓ Saved %s", summaryFile)

	return dir, nil
}
