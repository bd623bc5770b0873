package main

import (
	"fmt"
	"sync"
	"time"
)

// Per-unit prices, kept in sync with the providers' published rates.
const (
	scrapeCostPerCall  = 0.01 // Firecrawl, per URL
	sheetCostPerAction = 0.01 // automation service, per action
	llmCostPerMTokIn   = 3.00 // USD per 1M input tokens
	llmCostPerMTokOut  = 15.00
)

// CostTracker counts external-service usage for the end-of-run summary.
// Safe for concurrent use: scrape fan-out tracks from multiple goroutines.
type CostTracker struct {
	mu           sync.Mutex
	inputTokens  int
	outputTokens int
	scrapeCalls  int
	sheetActions int
	started      time.Time
}

// NewCostTracker starts the run clock.
func NewCostTracker() *CostTracker {
	return &CostTracker{started: time.Now()}
}

// TrackLLM adds model token usage.
func (c *CostTracker) TrackLLM(inputTokens, outputTokens int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inputTokens += inputTokens
	c.outputTokens += outputTokens
}

// TrackScrape adds scraping API calls.
func (c *CostTracker) TrackScrape(count int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scrapeCalls += count
}

// TrackSheetAction adds spreadsheet automation actions.
func (c *CostTracker) TrackSheetAction(count int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sheetActions += count
}

// Total returns the estimated run cost in USD.
func (c *CostTracker) Total() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	llm := float64(c.inputTokens)/1e6*llmCostPerMTokIn + float64(c.outputTokens)/1e6*llmCostPerMTokOut
	return llm + float64(c.scrapeCalls)*scrapeCostPerCall + float64(c.sheetActions)*sheetCostPerAction
}

// Summary formats the usage line logged at the end of a run.
func (c *CostTracker) Summary() string {
	total := c.Total()
	c.mu.Lock()
	defer c.mu.Unlock()
	return fmt.Sprintf("tokens=%d/%d scrapes=%d sheet_actions=%d est_cost=$%.4f elapsed=%s",
		c.inputTokens, c.outputTokens, c.scrapeCalls, c.sheetActions, total,
		time.Since(c.started).Round(time.Millisecond))
}

// estimateTokens approximates token counts (4 chars ≈ 1 token).
func estimateTokens(text string) int {
	return len(text) / 4
}
