package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"
)

// Pipeline wires the run together: scrape, dedup, record, select, enrich,
// generate, write. Construction injects every external capability so tests
// can swap in fakes.
type Pipeline struct {
	extractor ArticleExtractor
	ledger    Ledger
	filter    *DuplicateFilter
	journal   *Journal
	selector  ArticleSelector
	generator PostGenerator
	content   *ContentFetcher
	output    *OutputWriter
	costs     *CostTracker

	sources   []string
	criteria  string
	platforms []Platform
	skipPosts bool
	markUsed  bool
}

// PipelineOptions carries the run parameters resolved from config and flags.
type PipelineOptions struct {
	Sources   []string
	Criteria  string
	Platforms []Platform
	SkipPosts bool
	MarkUsed  bool
}

// NewPipeline assembles a pipeline from its parts.
func NewPipeline(extractor ArticleExtractor, ledger Ledger, filter *DuplicateFilter,
	journal *Journal, selector ArticleSelector, generator PostGenerator,
	content *ContentFetcher, output *OutputWriter, costs *CostTracker,
	opts PipelineOptions) *Pipeline {
	return &Pipeline{
		extractor: extractor,
		ledger:    ledger,
		filter:    filter,
		journal:   journal,
		selector:  selector,
		generator: generator,
		content:   content,
		output:    output,
		costs:     costs,
		sources:   opts.Sources,
		criteria:  opts.Criteria,
		platforms: opts.Platforms,
		skipPosts: opts.SkipPosts,
		markUsed:  opts.MarkUsed,
	}
}

// Run executes the complete workflow. A nil error with a non-completed
// status means the run ended early for a benign reason (nothing scraped
// cleanly, or everything was a duplicate).
func (p *Pipeline) Run(ctx context.Context) (*RunResult, error) {
	start := time.Now()
	result := &RunResult{}

	// Step 1: scrape candidates from every source concurrently.
	log.Printf("Step 1: scraping %d sources", len(p.sources))
	articles, scrapeErrs := ScrapeSources(ctx, p.extractor, p.sources)
	result.Scraped = len(articles)
	for _, err := range scrapeErrs {
		log.Printf("✗ %v", err)
		result.ScrapeErrs = append(result.ScrapeErrs, err.Error())
	}
	if len(articles) == 0 {
		if len(scrapeErrs) > 0 {
			return nil, fmt.Errorf("all sources failed: %w", errors.Join(scrapeErrs...))
		}
		result.Status = StatusNoCandidates
		result.Elapsed = time.Since(start)
		return result, nil
	}

	// Step 2: partition against the ledger.
	log.Printf("Step 2: checking %d candidates for duplicates", len(articles))
	partition, err := p.filter.Filter(ctx, articles)
	if err != nil {
		return nil, err
	}
	result.NewArticles = len(partition.New)
	log.Printf("✓ %d new, %d duplicate", len(partition.New), len(partition.Duplicate))

	if len(partition.New) == 0 {
		result.Status = StatusAllDuplicate
		result.Elapsed = time.Since(start)
		return result, nil
	}

	// Step 3: record every new candidate on the ledger, journaled so a
	// rerun after partial failure resends under the same idempotency keys.
	log.Printf("Step 3: recording %d new articles", len(partition.New))
	rows, err := p.journal.Prepare(partition.New)
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 {
		if err := p.ledger.AppendRows(ctx, rows); err != nil {
			return nil, err
		}
		keys := make([]string, len(rows))
		for i, row := range rows {
			keys[i] = row.Key
		}
		if err := p.journal.MarkCommitted(keys); err != nil {
			return nil, err
		}
	} else {
		log.Printf("✓ All new articles already recorded in a prior run")
	}

	// Step 4: select one article.
	log.Printf("Step 4: selecting an article")
	selection, err := p.selector.Select(partition.New, p.criteria)
	if err != nil {
		return nil, err
	}
	if selection.Article == nil {
		log.Printf("No suitable candidate selected")
		result.Status = StatusCompleted
		result.Elapsed = time.Since(start)
		return result, nil
	}
	result.Selected = selection.Article
	result.Reason = selection.Reason

	if p.skipPosts {
		result.Status = StatusCompleted
		result.Elapsed = time.Since(start)
		return result, nil
	}

	// Step 5: enrich the selected article with its full text. Failure
	// degrades to the scraped description.
	log.Printf("Step 5: fetching full content for %q", selection.Article.Title)
	article := *selection.Article
	if content, err := p.content.FetchContent(ctx, article.Link); err != nil {
		log.Printf("⚠ Content fetch failed, using description: %v", err)
	} else {
		article.Description = content
	}

	// Step 6: generate posts, one platform at a time so a failure on one
	// never blocks the others.
	log.Printf("Step 6: generating posts for %d platforms", len(p.platforms))
	var posts []SocialPost
	var postErrs []string
	for _, platform := range p.platforms {
		text, err := p.generator.Generate(article, platform, p.criteria)
		if err != nil {
			log.Printf("✗ %s generation failed: %v", platform, err)
			postErrs = append(postErrs, err.Error())
			continue
		}
		posts = append(posts, SocialPost{Platform: platform, Text: text})
	}
	result.Posts = posts
	result.PostErrors = postErrs
	if len(posts) == 0 && len(postErrs) > 0 {
		return nil, fmt.Errorf("all platforms failed: %s", postErrs[0])
	}

	// Step 7: persist to the dated output folder.
	log.Printf("Step 7: saving outputs")
	dir, err := p.output.Write(selection.Article, posts, p.criteria)
	if err != nil {
		return nil, err
	}
	result.OutputDir = dir

	// Step 8: flag the selected row as used. The posts already exist on
	// disk, so this failing only warns.
	if p.markUsed {
		log.Printf("Step 8: marking article as used")
		err := p.ledger.UpdateRow(ctx, "id", selection.Article.ID(), map[string]string{"used": "1"})
		if err != nil {
			log.Printf("⚠ Could not mark article used: %v", err)
		}
	}

	result.Status = StatusCompleted
	result.Elapsed = time.Since(start)
	return result, nil
}
