package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestFirecrawl(t *testing.T, handler http.HandlerFunc) (*FirecrawlClient, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewFirecrawlClient("test-key", nil)
	client.baseURL = server.URL
	client.client = server.Client()
	return client, server
}

func TestExtractArticle(t *testing.T) {
	client, _ := newTestFirecrawl(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/scrape" {
			t.Errorf("request path = %s, want /scrape", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("Authorization = %q", auth)
		}

		var req scrapeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if req.Extract == nil {
			t.Error("extract request missing extraction params")
		}

		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data": map[string]interface{}{
				"extract": map[string]string{
					"title":  "X",
					"link":   "https://example.com/a",
					"author": "Jo",
				},
			},
		})
	})

	article, err := client.ExtractArticle(context.Background(), "https://example.com")
	if err != nil {
		t.Fatalf("ExtractArticle() error = %v", err)
	}

	if article.Title != "X" {
		t.Errorf("Title = %q, want X", article.Title)
	}
	if article.Link != "https://example.com/a" {
		t.Errorf("Link = %q", article.Link)
	}
	if article.BaseURL != "https://example.com" {
		t.Errorf("BaseURL = %q, want the source URL", article.BaseURL)
	}
}

func TestExtractArticleLinkDefaultsToSource(t *testing.T) {
	client, _ := newTestFirecrawl(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data": map[string]interface{}{
				"extract": map[string]string{"title": "No Link"},
			},
		})
	})

	article, err := client.ExtractArticle(context.Background(), "https://example.com")
	if err != nil {
		t.Fatalf("ExtractArticle() error = %v", err)
	}
	if article.Link != "https://example.com" {
		t.Errorf("missing link should default to source URL, got %q", article.Link)
	}
}

func TestExtractArticleHTTPError(t *testing.T) {
	client, _ := newTestFirecrawl(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.ExtractArticle(context.Background(), "https://example.com")
	if err == nil {
		t.Fatal("ExtractArticle() should fail on HTTP 429")
	}

	httpErr, ok := err.(*HTTPError)
	if !ok {
		t.Fatalf("error type = %T, want *HTTPError", err)
	}
	if httpErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("StatusCode = %d, want 429", httpErr.StatusCode)
	}
}

func TestExtractArticleAPIFailure(t *testing.T) {
	client, _ := newTestFirecrawl(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"error":   "page not found",
		})
	})

	_, err := client.ExtractArticle(context.Background(), "https://example.com")
	if err == nil {
		t.Fatal("ExtractArticle() should surface API-level failure")
	}
}

func TestExtractArticleNoTitle(t *testing.T) {
	client, _ := newTestFirecrawl(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data": map[string]interface{}{
				"extract": map[string]string{"link": "https://example.com/a"},
			},
		})
	})

	_, err := client.ExtractArticle(context.Background(), "https://example.com")
	if err == nil {
		t.Fatal("ExtractArticle() should reject extractions without a title")
	}
}

func TestScrapeMarkdown(t *testing.T) {
	client, _ := newTestFirecrawl(t, func(w http.ResponseWriter, r *http.Request) {
		var req scrapeRequest
		json.NewDecoder(r.Body).Decode(&req)
		if len(req.Formats) != 1 || req.Formats[0] != "markdown" {
			t.Errorf("formats = %v, want [markdown]", req.Formats)
		}

		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data":    map[string]interface{}{"markdown": "# Article body"},
		})
	})

	markdown, err := client.ScrapeMarkdown(context.Background(), "https://example.com/a")
	if err != nil {
		t.Fatalf("ScrapeMarkdown() error = %v", err)
	}
	if markdown != "# Article body" {
		t.Errorf("markdown = %q", markdown)
	}
}

func TestScrapeTracksCosts(t *testing.T) {
	costs := NewCostTracker()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data":    map[string]interface{}{"markdown": "x"},
		})
	}))
	defer server.Close()

	client := NewFirecrawlClient("k", costs)
	client.baseURL = server.URL
	client.client = server.Client()

	client.ScrapeMarkdown(context.Background(), "https://example.com/a")
	client.ScrapeMarkdown(context.Background(), "https://example.com/b")

	if costs.scrapeCalls != 2 {
		t.Errorf("scrapeCalls = %d, want 2", costs.scrapeCalls)
	}
}
