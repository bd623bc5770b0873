package main

import (
	"context"
	"fmt"
	"log"

	"golang.org/x/sync/errgroup"
)

// ScrapeSources extracts one candidate article per source URL. All sources
// are scraped concurrently; each URL owns its own result slot so there is no
// shared mutable state between tasks. A failed URL is reported in the error
// slice and does not abort the remaining scrapes.
func ScrapeSources(ctx context.Context, extractor ArticleExtractor, sources []string) ([]Article, []error) {
	type slot struct {
		article *Article
		err     error
	}
	slots := make([]slot, len(sources))

	g, ctx := errgroup.WithContext(ctx)
	for i, sourceURL := range sources {
		g.Go(func() error {
			log.Printf("→ Scraping %s", sourceURL)
			article, err := extractor.ExtractArticle(ctx, sourceURL)
			if err != nil {
				slots[i] = slot{err: fmt.Errorf("scraping %s: %w", sourceURL, err)}
				return nil
			}
			log.Printf("✓ Found article: %s", article.Title)
			slots[i] = slot{article: article}
			return nil
		})
	}
	// Tasks never return errors; Wait is just the join point.
	g.Wait()

	var articles []Article
	var errs []error
	for _, s := range slots {
		switch {
		case s.err != nil:
			errs = append(errs, s.err)
		case s.article != nil:
			articles = append(articles, *s.article)
		}
	}
	return articles, errs
}
