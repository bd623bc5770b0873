package main

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/aktagon/llmkit/anthropic"
	"github.com/aktagon/llmkit/anthropic/types"
)

// ArticleSelector picks at most one article from the new candidates.
// Implementations delegate the judgment; tests supply deterministic fakes.
type ArticleSelector interface {
	Select(candidates []Article, criteria string) (*Selection, error)
}

// promptFunc matches anthropic.PromptWithSettings so tests can intercept
// the outgoing request settings.
type promptFunc func(systemPrompt, userPrompt, jsonSchema, apiKey string, settings types.RequestSettings, files ...types.File) (*types.AnthropicResponse, error)

// AgentSelector delegates selection to an Anthropic model with structured
// output.
type AgentSelector struct {
	apiKey string
	config *Config
	costs  *CostTracker
	prompt promptFunc
}

// NewAgentSelector creates the selector agent.
func NewAgentSelector(apiKey string, config *Config, costs *CostTracker) (*AgentSelector, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("creating selector agent: API key is required")
	}
	return &AgentSelector{
		apiKey: apiKey,
		config: config,
		costs:  costs,
		prompt: anthropic.PromptWithSettings,
	}, nil
}

// Select returns exactly one candidate or a no-selection result when the
// list is empty. A single candidate is returned without a model round trip.
func (s *AgentSelector) Select(candidates []Article, criteria string) (*Selection, error) {
	if len(candidates) == 0 {
		return &Selection{}, nil
	}
	if len(candidates) == 1 {
		return &Selection{Article: &candidates[0], Reason: "only new candidate"}, nil
	}

	log.Printf("→ Selecting best article from %d candidates", len(candidates))

	prompt := buildSelectionPrompt(candidates, criteria)
	settings := types.RequestSettings{
		Model:       s.config.Settings.Agents.Selector.Model,
		MaxTokens:   s.config.Settings.Agents.Selector.MaxTokens,
		Temperature: s.config.Settings.Agents.Selector.Temperature,
	}

	response, err := s.prompt(s.config.GetSelectorSystemPrompt(), prompt, s.config.GetSelectorSchema(), s.apiKey, settings)
	if err != nil {
		return nil, fmt.Errorf("selector agent failed: %w", err)
	}
	if len(response.Content) == 0 {
		return nil, fmt.Errorf("no content in selector response")
	}
	text := response.Content[0].Text

	if s.costs != nil {
		s.costs.TrackLLM(estimateTokens(prompt), estimateTokens(text))
	}

	var verdict struct {
		Selection int    `json:"selection"`
		Reason    string `json:"reason"`
	}
	if err := json.Unmarshal([]byte(text), &verdict); err != nil {
		// Unparseable judgment: fall back to the first candidate rather
		// than failing the run.
		log.Printf("⚠ Could not parse selection %q, using first candidate", text)
		return &Selection{Article: &candidates[0], Reason: "fallback: unparseable selection"}, nil
	}

	idx := verdict.Selection - 1
	if idx < 0 || idx >= len(candidates) {
		log.Printf("⚠ Selection %d out of range, using first candidate", verdict.Selection)
		return &Selection{Article: &candidates[0], Reason: "fallback: selection out of range"}, nil
	}

	log.Printf("✓ Selected: %s", candidates[idx].Title)
	return &Selection{Article: &candidates[idx], Reason: verdict.Reason}, nil
}

// buildSelectionPrompt numbers the candidates with whatever metadata each
// one has.
func buildSelectionPrompt(candidates []Article, criteria string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Focus area: %s\n\nCandidates:\n\n", criteria)
	for i, a := range candidates {
		fmt.Fprintf(&b, "Article %d:\nTitle: %s\n", i+1, a.Title)
		if a.Author != "" {
			fmt.Fprintf(&b, "Author: %s\n", a.Author)
		}
		if a.Date != "" {
			fmt.Fprintf(&b, "Date: %s\n", a.Date)
		}
		if a.Description != "" {
			fmt.Fprintf(&b, "Description: %s\n", a.Description)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Select the best article (1-%d) for the focus area.", len(candidates))
	return b.String()
}
