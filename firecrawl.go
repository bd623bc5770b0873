package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

const defaultFirecrawlURL = "https://api.firecrawl.dev/v1"

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	URL        string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d for %s", e.StatusCode, e.URL)
}

var debugEnabled bool

// SetDebugMode enables or disables debug logging.
func SetDebugMode(enabled bool) {
	debugEnabled = enabled
}

func debugLog(format string, args ...interface{}) {
	if debugEnabled {
		log.Printf("[DEBUG] "+format, args...)
	}
}

// extractionSchema is the structured-extraction schema sent with every
// scrape request. Title and link are required; the rest is best effort.
var extractionSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"title":       map[string]string{"type": "string", "description": "Article title"},
		"author":      map[string]string{"type": "string", "description": "Author name if available"},
		"date":        map[string]string{"type": "string", "description": "Publication date in YYYY-MM-DD format if available"},
		"link":        map[string]string{"type": "string", "description": "Direct link to the article"},
		"description": map[string]string{"type": "string", "description": "Description of what the article is about if available"},
	},
	"required": []string{"title", "link"},
}

const extractionPrompt = "Extract the most recent article information including title, author, " +
	"publication date, and direct link to the article"

// ArticleExtractor scrapes one source page and returns the most recent
// article it advertises.
type ArticleExtractor interface {
	ExtractArticle(ctx context.Context, sourceURL string) (*Article, error)
	ScrapeMarkdown(ctx context.Context, articleURL string) (string, error)
}

// FirecrawlClient talks to the Firecrawl scrape API.
type FirecrawlClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	costs   *CostTracker
}

// NewFirecrawlClient creates a client against the hosted API.
func NewFirecrawlClient(apiKey string, costs *CostTracker) *FirecrawlClient {
	return &FirecrawlClient{
		baseURL: defaultFirecrawlURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
		costs:   costs,
	}
}

type scrapeRequest struct {
	URL     string         `json:"url"`
	Formats []string       `json:"formats"`
	Extract *extractParams `json:"extract,omitempty"`
}

type extractParams struct {
	Prompt string      `json:"prompt"`
	Schema interface{} `json:"schema"`
}

type scrapeResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Markdown string          `json:"markdown"`
		Extract  json.RawMessage `json:"extract"`
	} `json:"data"`
	Error string `json:"error"`
}

// ExtractArticle asks Firecrawl for the most recent article on sourceURL
// using structured extraction.
func (f *FirecrawlClient) ExtractArticle(ctx context.Context, sourceURL string) (*Article, error) {
	resp, err := f.scrape(ctx, scrapeRequest{
		URL:     sourceURL,
		Formats: []string{"extract"},
		Extract: &extractParams{Prompt: extractionPrompt, Schema: extractionSchema},
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Data.Extract) == 0 {
		return nil, fmt.Errorf("no article found for %s", sourceURL)
	}

	var extracted struct {
		Title       string `json:"title"`
		Author      string `json:"author"`
		Date        string `json:"date"`
		Link        string `json:"link"`
		Description string `json:"description"`
	}
	if err := json.Unmarshal(resp.Data.Extract, &extracted); err != nil {
		return nil, fmt.Errorf("parsing extraction for %s: %w", sourceURL, err)
	}
	if extracted.Title == "" {
		return nil, fmt.Errorf("extraction for %s returned no title", sourceURL)
	}

	link := extracted.Link
	if link == "" {
		link = sourceURL
	}

	return &Article{
		BaseURL:     sourceURL,
		Title:       extracted.Title,
		Link:        link,
		Author:      extracted.Author,
		Date:        extracted.Date,
		Description: extracted.Description,
	}, nil
}

// ScrapeMarkdown fetches the full page as markdown. Used to enrich the
// selected article before post generation.
func (f *FirecrawlClient) ScrapeMarkdown(ctx context.Context, articleURL string) (string, error) {
	resp, err := f.scrape(ctx, scrapeRequest{
		URL:     articleURL,
		Formats: []string{"markdown"},
	})
	if err != nil {
		return "", err
	}
	return resp.Data.Markdown, nil
}

func (f *FirecrawlClient) scrape(ctx context.Context, reqBody scrapeRequest) (*scrapeResponse, error) {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("encoding scrape request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.baseURL+"/scrape", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building scrape request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+f.apiKey)
	req.Header.Set("Content-Type", "application/json")

	if f.costs != nil {
		f.costs.TrackScrape(1)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("scraping %s: %w", reqBody.URL, err)
	}
	defer resp.Body.Close()

	debugLog("firecrawl response: url=%s status=%d", reqBody.URL, resp.StatusCode)

	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPError{StatusCode: resp.StatusCode, URL: reqBody.URL}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading scrape response: %w", err)
	}

	var parsed scrapeResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parsing scrape response for %s: %w", reqBody.URL, err)
	}
	if !parsed.Success {
		return nil, fmt.Errorf("scrape of %s failed: %s", reqBody.URL, parsed.Error)
	}

	return &parsed, nil
}
