package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestFetchContentPrefersAPIMarkdown(t *testing.T) {
	extractor := &fakeExtractor{markdown: "# From the API"}
	fetcher := NewContentFetcher(extractor)

	content, err := fetcher.FetchContent(context.Background(), "https://example.com/a")
	if err != nil {
		t.Fatalf("FetchContent() error = %v", err)
	}
	if content != "# From the API" {
		t.Errorf("content = %q", content)
	}
}

func TestFetchContentFallsBackToDirectFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><body>
			<nav>menu</nav>
			<article><h1>Title</h1><p>Body text</p></article>
			<footer>footer</footer>
		</body></html>`))
	}))
	defer server.Close()

	extractor := &fakeExtractor{mdErr: errors.New("scrape quota exceeded")}
	fetcher := NewContentFetcher(extractor)
	fetcher.client = server.Client()

	content, err := fetcher.FetchContent(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("FetchContent() error = %v", err)
	}
	if !strings.Contains(content, "Body text") {
		t.Errorf("content missing article body: %q", content)
	}
	if strings.Contains(content, "menu") || strings.Contains(content, "footer") {
		t.Errorf("content should not include page chrome: %q", content)
	}
}

func TestFetchContentDirectHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	fetcher := NewContentFetcher(&fakeExtractor{mdErr: errors.New("down")})
	fetcher.client = server.Client()

	_, err := fetcher.FetchContent(context.Background(), server.URL)
	if err == nil {
		t.Fatal("FetchContent() should fail when both paths fail")
	}
	httpErr, ok := err.(*HTTPError)
	if !ok {
		t.Fatalf("error type = %T, want *HTTPError", err)
	}
	if httpErr.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d", httpErr.StatusCode)
	}
}

func TestExtractMainContent(t *testing.T) {
	tests := []struct {
		name    string
		html    string
		want    string
		exclude string
	}{
		{
			"article tag",
			`<body><nav>skip</nav><article><p>keep</p></article></body>`,
			"keep", "skip",
		},
		{
			"main tag",
			`<body><header>skip</header><main><p>keep</p></main></body>`,
			"keep", "skip",
		},
		{
			"no article node falls back to body",
			`<body><div><p>keep</p></div></body>`,
			"keep", "",
		},
		{
			"scripts always stripped",
			`<body><script>skip()</script><article><p>keep</p></article></body>`,
			"keep", "skip()",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractMainContent(tt.html)
			if !strings.Contains(got, tt.want) {
				t.Errorf("extractMainContent() = %q, want it to contain %q", got, tt.want)
			}
			if tt.exclude != "" && strings.Contains(got, tt.exclude) {
				t.Errorf("extractMainContent() should drop %q: %q", tt.exclude, got)
			}
		})
	}
}

func TestLimitContent(t *testing.T) {
	short := "short"
	if limitContent(short) != short {
		t.Error("limitContent() changed short content")
	}

	long := strings.Repeat("é", maxContentChars+100)
	limited := limitContent(long)
	if n := len([]rune(limited)); n != maxContentChars {
		t.Errorf("limited content has %d runes, want %d", n, maxContentChars)
	}
	if strings.ContainsRune(limited, '�') {
		t.Error("limitContent() split a multi-byte rune")
	}
}
