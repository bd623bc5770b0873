package main

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Article is one candidate scraped from a source page. Immutable after
// creation; identity for dedup is Link, falling back to ID when the
// extraction returned no direct link.
type Article struct {
	BaseURL     string `json:"base_url"`
	Title       string `json:"title"`
	Link        string `json:"link"`
	Author      string `json:"author,omitempty"`
	Date        string `json:"date,omitempty"`
	Description string `json:"description,omitempty"`
}

var (
	dashRunes  = regexp.MustCompile(`[—–―−]`)
	spaceRunes = regexp.MustCompile(`\s+`)
)

// ID returns the ledger identity for the article: source URL plus the
// normalized title. Titles are NFKD-normalized so typographic dashes and
// composed characters from different scrapes compare equal.
func (a Article) ID() string {
	title := norm.NFKD.String(a.Title)
	title = dashRunes.ReplaceAllString(title, "-")
	title = spaceRunes.ReplaceAllString(title, " ")
	title = strings.ToLower(strings.TrimSpace(title))
	return a.BaseURL + "|" + title
}

// SheetRow converts the article to the ledger's column map. Content never
// goes to the sheet.
func (a Article) SheetRow() map[string]string {
	return map[string]string{
		"id":       a.ID(),
		"base_url": a.BaseURL,
		"title":    a.Title,
		"author":   a.Author,
		"date":     a.Date,
		"link":     a.Link,
		"used":     "0",
	}
}

// Platform identifies a social network target.
type Platform string

const (
	PlatformLinkedIn  Platform = "linkedin"
	PlatformTwitter   Platform = "twitter"
	PlatformInstagram Platform = "instagram"
)

// AllPlatforms lists every supported platform in output order.
var AllPlatforms = []Platform{PlatformLinkedIn, PlatformTwitter, PlatformInstagram}

// ParsePlatforms validates a list of platform names from config or flags.
func ParsePlatforms(names []string) ([]Platform, error) {
	platforms := make([]Platform, 0, len(names))
	for _, name := range names {
		p := Platform(strings.ToLower(strings.TrimSpace(name)))
		switch p {
		case PlatformLinkedIn, PlatformTwitter, PlatformInstagram:
			platforms = append(platforms, p)
		default:
			return nil, &UnknownPlatformError{Name: name}
		}
	}
	return platforms, nil
}

// UnknownPlatformError reports a platform name outside the supported set.
type UnknownPlatformError struct {
	Name string
}

func (e *UnknownPlatformError) Error() string {
	return fmt.Sprintf("unknown platform %q", e.Name)
}

// SocialPost is one generated post, written once and never mutated.
type SocialPost struct {
	Platform Platform `json:"platform"`
	Text     string   `json:"text"`
}

// Selection is the selector's verdict. A nil Article means no suitable
// candidate existed.
type Selection struct {
	Article *Article
	Reason  string
}

// Partition is the duplicate filter's result: New and Duplicate together
// cover the input exactly once each.
type Partition struct {
	New       []Article
	Duplicate []Article
}

// RunStatus summarizes the outcome of processing one run.
type RunStatus string

const (
	StatusCompleted    RunStatus = "completed"
	StatusNoCandidates RunStatus = "no_candidates"
	StatusAllDuplicate RunStatus = "all_duplicate"
)

// RunResult tracks what a pipeline run did, for the final log summary and
// the JSON output file.
type RunResult struct {
	Status      RunStatus     `json:"status"`
	Scraped     int           `json:"scraped"`
	NewArticles int           `json:"new_articles"`
	Selected    *Article      `json:"selected,omitempty"`
	Reason      string        `json:"selection_reason,omitempty"`
	Posts       []SocialPost  `json:"posts,omitempty"`
	PostErrors  []string      `json:"post_errors,omitempty"`
	ScrapeErrs  []string      `json:"scrape_errors,omitempty"`
	OutputDir   string        `json:"output_dir,omitempty"`
	Elapsed     time.Duration `json:"-"`
}
