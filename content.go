package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

// maxContentChars caps the enriched article body passed to the writer.
const maxContentChars = 5000

// ContentFetcher pulls the full text of the selected article before post
// generation. It prefers the scraping API's markdown rendering and falls
// back to fetching the page directly and reducing it locally.
type ContentFetcher struct {
	extractor ArticleExtractor
	client    *http.Client
	converter *md.Converter
}

// NewContentFetcher creates a fetcher with the default direct-fetch fallback.
func NewContentFetcher(extractor ArticleExtractor) *ContentFetcher {
	return &ContentFetcher{
		extractor: extractor,
		client:    &http.Client{Timeout: 30 * time.Second},
		converter: md.NewConverter("", true, nil),
	}
}

// FetchContent returns the article body as markdown, capped at
// maxContentChars. Both paths failing is an error; the caller degrades to
// the scraped description.
func (f *ContentFetcher) FetchContent(ctx context.Context, articleURL string) (string, error) {
	if f.extractor != nil {
		markdown, err := f.extractor.ScrapeMarkdown(ctx, articleURL)
		if err == nil && strings.TrimSpace(markdown) != "" {
			return limitContent(markdown), nil
		}
		if err != nil {
			debugLog("markdown scrape failed for %s, falling back to direct fetch: %v", articleURL, err)
		}
	}

	markdown, err := f.fetchDirect(ctx, articleURL)
	if err != nil {
		return "", err
	}
	return limitContent(markdown), nil
}

// fetchDirect downloads the page, strips it to its main content node, and
// converts that to markdown.
func (f *ContentFetcher) fetchDirect(ctx context.Context, articleURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, articleURL, nil)
	if err != nil {
		return "", fmt.Errorf("building request for %s: %w", articleURL, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", articleURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &HTTPError{StatusCode: resp.StatusCode, URL: articleURL}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response body: %w", err)
	}

	html := extractMainContent(string(body))

	markdown, err := f.converter.ConvertString(html)
	if err != nil {
		return "", fmt.Errorf("converting HTML to markdown: %w", err)
	}
	return markdown, nil
}

// extractMainContent narrows the document to its article body, dropping
// navigation, scripts, and other chrome. Falls back to the whole body when
// no article-shaped node exists.
func extractMainContent(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}

	doc.Find("script, style, nav, header, footer, aside, form").Remove()

	for _, selector := range []string{"article", "main", "[role=main]", "#content", ".post-content"} {
		if node := doc.Find(selector).First(); node.Length() > 0 {
			if inner, err := node.Html(); err == nil && strings.TrimSpace(inner) != "" {
				return inner
			}
		}
	}

	if inner, err := doc.Find("body").Html(); err == nil && strings.TrimSpace(inner) != "" {
		return inner
	}
	return html
}

// limitContent truncates to maxContentChars on a rune boundary.
func limitContent(content string) string {
	runes := []rune(content)
	if len(runes) <= maxContentChars {
		return content
	}
	return string(runes[:maxContentChars])
}
