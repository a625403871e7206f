package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/filingdash/filingdash/internal/model"
	"github.com/filingdash/filingdash/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	scanCIK     string
	scanForms   []string
	scanKeyword string
	scanMax     int
	scanPreview bool
	outJSON     string
	outMD       string
	userAgent   string
	timeout     time.Duration
	fetchDelay  time.Duration
	noCache     bool
	clearCache  bool
	checkRobots bool
	useAI       bool
	aiModel     string
	aiMaxCalls  int
	aiDelay     time.Duration
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan [ticker]",
	Short: "Fetch a company's filing history and summarize each filing",
	Long: `Scan pulls a company's submission history from SEC EDGAR, filters and
sorts it, downloads each displayed filing's primary document, and produces
a heuristic impact classification with signal bullets. With --ai and an
OPENAI_API_KEY in the environment, the first few filings get an
AI-generated paragraph instead; on any AI failure the heuristic summary
is used silently.

The company is chosen by ticker symbol or by --cik. SEC requires a
descriptive User-Agent: set SEC_USER_AGENT or pass --ua.

Example:
  filingdash scan BMNR
  filingdash scan --cik 1829311 --forms 8-K,10-Q --max 20
  filingdash scan BMNR --ai --ai-max-calls 5 --json report.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	// Company selection
	scanCmd.Flags().StringVar(&scanCIK, "cik", "", "company identifier (takes precedence over ticker)")
	scanCmd.Flags().StringSliceVar(&scanForms, "forms", nil, "form type allow-list (e.g. 8-K,10-Q,10-K)")
	scanCmd.Flags().StringVar(&scanKeyword, "keyword", "", "free-text keyword filter across all fields")
	scanCmd.Flags().IntVar(&scanMax, "max", 30, "max filings to show (5-100)")
	scanCmd.Flags().BoolVar(&scanPreview, "preview", false, "include a document text preview per filing")

	// Output flags
	scanCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path (optional)")
	scanCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")

	// HTTP flags
	scanCmd.Flags().StringVar(&userAgent, "ua", "", "HTTP User-Agent (default from SEC_USER_AGENT)")
	scanCmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "overall scan timeout")
	scanCmd.Flags().DurationVar(&fetchDelay, "fetch-delay", 300*time.Millisecond, "pacing delay before each document fetch (0-3s)")
	scanCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable cache (force fresh fetches)")
	scanCmd.Flags().BoolVar(&clearCache, "clear-cache", false, "clear all cached results before the run")
	scanCmd.Flags().BoolVar(&checkRobots, "robots", false, "consult robots.txt before document fetches")

	// AI flags
	scanCmd.Flags().BoolVar(&useAI, "ai", false, "enable AI summaries (requires OPENAI_API_KEY)")
	scanCmd.Flags().StringVar(&aiModel, "ai-model", "gpt-4o-mini", "AI model name")
	scanCmd.Flags().IntVar(&aiMaxCalls, "ai-max-calls", 5, "max AI calls per run (0-20)")
	scanCmd.Flags().DurationVar(&aiDelay, "ai-delay", time.Second, "pacing delay before each AI call (0-3s)")
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cfg := model.DefaultConfig()

	switch {
	case userAgent != "":
		cfg.HTTP.UserAgent = userAgent
	case os.Getenv("SEC_USER_AGENT") != "":
		cfg.HTTP.UserAgent = os.Getenv("SEC_USER_AGENT")
	}
	cfg.HTTP.CheckRobots = checkRobots
	cfg.Cache.Enabled = !noCache
	cfg.Scan.FetchDelay = clampDelay(fetchDelay)
	cfg.AI.CallDelay = clampDelay(aiDelay)

	if useAI {
		cfg.AI.Enabled = true
		cfg.AI.Model = aiModel
		// Absence of the credential disables the AI path without error;
		// every filing then keeps its rule-based summary.
		cfg.AI.APIKey = os.Getenv("OPENAI_API_KEY")
	}

	opts := pipeline.Options{
		CIK:       scanCIK,
		Forms:     scanForms,
		Keyword:   scanKeyword,
		Max:       clampMax(scanMax),
		AIEnabled: cfg.AI.Enabled,
		AIBudget:  clampBudget(aiMaxCalls),
		Preview:   scanPreview,
	}
	if len(args) == 1 {
		opts.Ticker = args[0]
	}
	if opts.CIK == "" && opts.Ticker == "" {
		opts.CIK = os.Getenv("DEFAULT_CIK")
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "User-Agent: %s\n", cfg.HTTP.UserAgent)
		fmt.Fprintf(os.Stderr, "Cache: %v\n", cfg.Cache.Enabled)
		if opts.AIEnabled {
			fmt.Fprintf(os.Stderr, "AI: %s (budget %d)\n", cfg.AI.Model, opts.AIBudget)
		}
		fmt.Fprintln(os.Stderr)
	}

	p := pipeline.New(cfg)
	if clearCache {
		if err := p.ClearCache(); err != nil {
			return fmt.Errorf("clear cache: %w", err)
		}
	}

	result, err := p.Run(ctx, opts)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "✓ %d filings processed\n", len(result.Rows))
		if stats := p.AIStats(); stats.Calls > 0 {
			fmt.Fprintf(os.Stderr, "✓ AI calls: %d (%d failed)\n", stats.Calls, stats.Failures)
			if stats.LastError != "" {
				fmt.Fprintf(os.Stderr, "  Last AI error: %s\n", stats.LastError)
			}
		}
		fmt.Fprintln(os.Stderr)
	}

	renderer := pipeline.NewRenderer()
	if outJSON != "" {
		if err := renderer.RenderJSON(result, outJSON); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", outJSON)
		}
	}
	if outMD != "" {
		if err := renderer.RenderMarkdown(result, outMD); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote Markdown: %s\n", outMD)
		}
	}

	renderer.RenderSummary(os.Stdout, result)
	return nil
}

func clampDelay(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	if d > 3*time.Second {
		return 3 * time.Second
	}
	return d
}

func clampMax(n int) int {
	if n < 5 {
		return 5
	}
	if n > 100 {
		return 100
	}
	return n
}

func clampBudget(n int) int {
	if n < 0 {
		return 0
	}
	if n > model.MaxAICalls {
		return model.MaxAICalls
	}
	return n
}
