package main

import (
	"fmt"
	"log"
	"strings"

	"github.com/aktagon/llmkit/anthropic"
	"github.com/aktagon/llmkit/anthropic/types"
)

const twitterMaxChars = 280

// platformBriefs holds the per-platform writing requirements appended to
// the generation prompt.
var platformBriefs = map[Platform]string{
	PlatformLinkedIn: `LinkedIn post (150-200 words):
- Professional, thought-provoking tone
- Start with a compelling hook or question
- Include 2-3 key insights from the article
- End with a call-to-action encouraging discussion
- Use 3-5 relevant hashtags
- Include the article link`,
	PlatformTwitter: `Twitter post (MAXIMUM 250 characters):
- Punchy, attention-grabbing opening
- 1-2 emojis for visual appeal
- Essential insight in under 200 characters
- Include the article link and 2-3 hashtags
- Total character count MUST be under 250`,
	PlatformInstagram: `Instagram post (100-150 words):
- Visual-first storytelling, start with an emoji hook
- Short, scannable paragraphs
- 5-8 hashtags including trending ones
- Say "Link in bio" instead of the direct link`,
}

// PostGenerator drafts post text for one platform. Each platform is an
// independent request so one failure never blocks the others.
type PostGenerator interface {
	Generate(article Article, platform Platform, criteria string) (string, error)
}

// AgentGenerator drafts posts with an Anthropic model.
type AgentGenerator struct {
	apiKey string
	config *Config
	costs  *CostTracker
	prompt promptFunc
}

// NewAgentGenerator creates the writer agent.
func NewAgentGenerator(apiKey string, config *Config, costs *CostTracker) (*AgentGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("creating writer agent: API key is required")
	}
	return &AgentGenerator{
		apiKey: apiKey,
		config: config,
		costs:  costs,
		prompt: anthropic.PromptWithSettings,
	}, nil
}

// Generate drafts one platform's post for the article.
func (g *AgentGenerator) Generate(article Article, platform Platform, criteria string) (string, error) {
	log.Printf("→ Writing %s post", platform)

	prompt := buildGenerationPrompt(article, platform, criteria)
	settings := types.RequestSettings{
		Model:       g.config.Settings.Agents.Writer.Model,
		MaxTokens:   g.config.Settings.Agents.Writer.MaxTokens,
		Temperature: g.config.Settings.Agents.Writer.Temperature,
	}

	response, err := g.prompt(g.config.GetWriterSystemPrompt(), prompt, "", g.apiKey, settings)
	if err != nil {
		return "", fmt.Errorf("writer agent failed for %s: %w", platform, err)
	}
	if len(response.Content) == 0 {
		return "", fmt.Errorf("no content in %s post response", platform)
	}

	if g.costs != nil {
		g.costs.TrackLLM(estimateTokens(prompt), estimateTokens(response.Content[0].Text))
	}

	text := strings.TrimSpace(response.Content[0].Text)
	if text == "" {
		return "", fmt.Errorf("empty %s post in response", platform)
	}
	if platform == PlatformTwitter {
		text = capTwitterPost(text)
	}

	log.Printf("✓ %s post ready (%d chars)", platform, len([]rune(text)))
	return text, nil
}

// buildGenerationPrompt combines article details with the platform brief.
func buildGenerationPrompt(article Article, platform Platform, criteria string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create a social media post about this %s article:\n\n", criteria)
	fmt.Fprintf(&b, "Title: %s\n", article.Title)
	if article.Author != "" {
		fmt.Fprintf(&b, "Author: %s\n", article.Author)
	}
	fmt.Fprintf(&b, "Link: %s\n", article.Link)
	if article.Description != "" {
		fmt.Fprintf(&b, "\nContent:\n%s\n", article.Description)
	}
	fmt.Fprintf(&b, "\nPlatform requirements:\n%s\n", platformBriefs[platform])
	return b.String()
}

// capTwitterPost enforces the hard platform limit. Generation aims for 250
// chars; anything the model returns over 280 gets truncated with a marker.
// Counted in runes so emoji are not split mid-sequence.
func capTwitterPost(text string) string {
	runes := []rune(text)
	if len(runes) <= twitterMaxChars {
		return text
	}
	log.Printf("⚠ Twitter post too long (%d chars), truncating", len(runes))
	return string(runes[:twitterMaxChars-10]) + "... #AI"
}
