package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
)

var (
	settingsPath  string
	apiKey        string
	firecrawlKey  string
	sheetsKey     string
	sheetsURL     string
	spreadsheetID string
	criteria      string
	sourceURLs    []string
	platformNames []string
	skipPosts     bool
	assumeNew     bool
	debugMode     bool
)

var rootCmd = &cobra.Command{
	Use:   "post-writer",
	Short: "Scrape articles and draft social media posts using AI",
	Long: `Scrapes one candidate article per configured source, filters out
articles already recorded on the spreadsheet ledger, selects the best new
one against a free-text criterion, and writes platform-specific social
posts to a dated output folder.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if apiKey == "" {
			apiKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		if apiKey == "" {
			log.Fatal("API key required: use --api-key flag or ANTHROPIC_API_KEY environment variable")
		}
		if firecrawlKey == "" {
			firecrawlKey = os.Getenv("FIRECRAWL_API_KEY")
		}
		if firecrawlKey == "" {
			log.Fatal("Firecrawl key required: use --firecrawl-key flag or FIRECRAWL_API_KEY environment variable")
		}
		if sheetsKey == "" {
			sheetsKey = os.Getenv("SHEETS_API_KEY")
		}
		if sheetsURL == "" {
			sheetsURL = os.Getenv("SHEETS_API_URL")
		}
		if sheetsKey == "" || sheetsURL == "" {
			log.Fatal("Sheets automation credentials required: set --sheets-key/--sheets-url or SHEETS_API_KEY/SHEETS_API_URL")
		}

		if debugMode {
			SetDebugMode(true)
		}

		overrides := &ConfigOverrides{}
		if settingsPath != "" {
			overrides.SettingsPath = &settingsPath
		}

		config, err := NewConfig(overrides)
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
		applyFlagOverrides(config)
		if err := config.Validate(); err != nil {
			log.Fatalf("Invalid configuration: %v", err)
		}

		result, costs, err := run(config)
		if err != nil {
			log.Fatalf("Run failed: %v", err)
		}

		log.Printf("Run %s: scraped=%d new=%d", result.Status, result.Scraped, result.NewArticles)
		if result.Selected != nil {
			log.Printf("Selected: %s (%s)", result.Selected.Title, result.Selected.Link)
		}
		if result.OutputDir != "" {
			log.Printf("Outputs in %s", result.OutputDir)
		}
		log.Printf("Usage: %s", costs.Summary())
	},
}

// applyFlagOverrides lets run parameters on the command line win over the
// settings file.
func applyFlagOverrides(config *Config) {
	if spreadsheetID != "" {
		config.Settings.SpreadsheetID = spreadsheetID
	}
	if criteria != "" {
		config.Settings.Criteria = criteria
	}
	if len(sourceURLs) > 0 {
		config.Settings.Sources = sourceURLs
	}
	if len(platformNames) > 0 {
		config.Settings.Platforms = platformNames
	}
	if assumeNew {
		config.Settings.Ledger.OnLookupError = "assume-new"
	}
}

// run assembles the pipeline from the validated configuration and executes it.
func run(config *Config) (*RunResult, *CostTracker, error) {
	costs := NewCostTracker()

	extractor := NewFirecrawlClient(firecrawlKey, costs)
	ledger := NewSheetsClient(sheetsURL, sheetsKey, config.Settings.SpreadsheetID, costs)
	filter := NewDuplicateFilter(ledger, config.LookupPolicy())

	journal, err := OpenJournal(config.JournalPath())
	if err != nil {
		return nil, nil, err
	}
	defer journal.Close()

	selector, err := NewAgentSelector(apiKey, config, costs)
	if err != nil {
		return nil, nil, err
	}
	generator, err := NewAgentGenerator(apiKey, config, costs)
	if err != nil {
		return nil, nil, err
	}

	platforms, err := ParsePlatforms(config.Settings.Platforms)
	if err != nil {
		return nil, nil, err
	}

	pipeline := NewPipeline(
		extractor,
		ledger,
		filter,
		journal,
		selector,
		generator,
		NewContentFetcher(extractor),
		NewOutputWriter(config.Settings.OutputDirectory),
		costs,
		PipelineOptions{
			Sources:   config.Settings.Sources,
			Criteria:  config.Settings.Criteria,
			Platforms: platforms,
			SkipPosts: skipPosts,
			MarkUsed:  true,
		},
	)

	result, err := pipeline.Run(context.Background())
	if err != nil {
		return nil, nil, err
	}
	return result, costs, nil
}

func init() {
	rootCmd.Flags().StringVar(&settingsPath, "config", "", "Path to settings YAML file")
	rootCmd.Flags().StringVar(&apiKey, "api-key", "", "Anthropic API key")
	rootCmd.Flags().StringVar(&firecrawlKey, "firecrawl-key", "", "Firecrawl API key")
	rootCmd.Flags().StringVar(&sheetsKey, "sheets-key", "", "Sheet automation API key")
	rootCmd.Flags().StringVar(&sheetsURL, "sheets-url", "", "Sheet automation base URL")
	rootCmd.Flags().StringVar(&spreadsheetID, "spreadsheet", "", "Target spreadsheet ID")
	rootCmd.Flags().StringVar(&criteria, "criteria", "", "Selection criteria (overrides settings)")
	rootCmd.Flags().StringSliceVar(&sourceURLs, "source", nil, "Source URL to scrape (repeatable, overrides settings)")
	rootCmd.Flags().StringSliceVar(&platformNames, "platforms", nil, "Platforms to generate posts for")
	rootCmd.Flags().BoolVar(&skipPosts, "skip-posts", false, "Record new articles without generating posts")
	rootCmd.Flags().BoolVar(&assumeNew, "assume-new", false, "Treat candidates with failed ledger lookups as new")
	rootCmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
