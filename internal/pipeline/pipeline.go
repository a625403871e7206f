package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/filingdash/filingdash/internal/cache"
	"github.com/filingdash/filingdash/internal/classify"
	"github.com/filingdash/filingdash/internal/edgar"
	"github.com/filingdash/filingdash/internal/llm"
	"github.com/filingdash/filingdash/internal/model"
	"github.com/filingdash/filingdash/internal/worker"
)

// Pipeline orchestrates a full render pass: catalog fetch, per-filing
// document fetch, classification, and the optional AI summary. Each
// filing is processed strictly one after another to respect the external
// rate limits.
type Pipeline struct {
	catalog    *edgar.CatalogService
	tickers    *edgar.TickerService
	documents  *edgar.DocumentService
	summarizer *llm.Summarizer
	store      cache.Cache
	docPacer   *worker.Pacer
	aiPacer    *worker.Pacer
	config     *model.Config
}

// New creates a pipeline from the configuration, with a shared in-memory cache.
func New(cfg *model.Config) *Pipeline {
	var store cache.Cache
	if cfg.Cache.Enabled {
		store = cache.NewMemoryCache(cfg.Cache.DocumentTTL, 10*time.Minute)
	}

	client := edgar.NewClient(cfg.HTTP)

	llmConfig := llm.Config{
		APIKey:    cfg.AI.APIKey,
		Model:     cfg.AI.Model,
		Timeout:   cfg.AI.Timeout,
		MaxTokens: cfg.AI.MaxTokens,
	}

	return &Pipeline{
		catalog:    edgar.NewCatalogService(client, store, cfg.Cache.SubmissionsTTL),
		tickers:    edgar.NewTickerService(client, store, cfg.Cache.TickerTTL),
		documents:  edgar.NewDocumentService(client, store, cfg.Cache.DocumentTTL),
		summarizer: llm.NewSummarizer(llmConfig, store, cfg.Cache.AISummaryTTL),
		store:      store,
		docPacer:   worker.NewPacer(cfg.Scan.FetchDelay),
		aiPacer:    worker.NewPacer(cfg.AI.CallDelay),
		config:     cfg,
	}
}

// Options selects what a run fetches and displays.
type Options struct {
	Ticker    string   // Ticker symbol; resolved via the ticker map
	CIK       string   // Company identifier; takes precedence when non-empty
	Forms     []string // Form type allow-list
	Keyword   string   // Free-text keyword filter
	Max       int      // Max filings to process
	AIEnabled bool     // Whether to consult the AI path at all
	AIBudget  int      // Per-run AI invocation budget
	Preview   bool     // Include a document preview on each row
}

// Row is the outcome for one displayed filing. FetchError marks a filing
// whose document could not be retrieved; such a filing is skipped, not fatal.
type Row struct {
	Entry          model.FilingEntry `json:"entry"`
	Classification classify.Result   `json:"classification"`
	Summary        string            `json:"summary"`              // AI paragraph or rule-based fallback
	AIGenerated    bool              `json:"ai_generated"`         // Whether Summary came from the AI path
	Preview        string            `json:"preview,omitempty"`    // Leading document text
	FetchError     string            `json:"fetch_error,omitempty"`
}

// RunResult is the complete outcome of one render pass.
type RunResult struct {
	Company     model.Company `json:"company"`
	Rows        []Row         `json:"rows"`
	AIAttempts  int           `json:"ai_attempts"`
	GeneratedAt time.Time     `json:"generated_at"`
}

// Run executes a full render pass. A catalog failure is fatal to the pass;
// a single document failure only skips that filing.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*RunResult, error) {
	cik10, err := p.resolveIdentifier(ctx, opts)
	if err != nil {
		return nil, err
	}
	if cik10 == "" {
		return nil, fmt.Errorf("no company identifier: enter a ticker or CIK")
	}

	sub, err := p.catalog.Fetch(ctx, cik10)
	if err != nil {
		return nil, fmt.Errorf("fetch submissions: %w", err)
	}

	entries := edgar.BuildEntries(cik10, sub.Filings.Recent)
	entries = edgar.Filter{
		Forms:   opts.Forms,
		Keyword: opts.Keyword,
		Max:     opts.Max,
	}.Apply(entries)

	result := &RunResult{
		Company:     model.Company{Name: sub.Name, CIK: cik10},
		GeneratedAt: time.Now().UTC(),
	}

	budget := opts.AIBudget
	if budget > model.MaxAICalls {
		budget = model.MaxAICalls
	}

	for _, entry := range entries {
		row := Row{Entry: entry}

		if err := p.docPacer.Wait(ctx); err != nil {
			return nil, err
		}

		text, err := p.documents.Text(ctx, cik10, entry.AccessionNumber, entry.PrimaryDocument)
		if err != nil {
			row.FetchError = err.Error()
			result.Rows = append(result.Rows, row)
			continue
		}

		row.Classification = classify.Classify(entry.Form, text)
		row.Summary = row.Classification.Paragraph()

		// The first `budget` filings in display order attempt the AI path;
		// the rest keep the rule-based paragraph unconditionally.
		if opts.AIEnabled && p.summarizer.IsEnabled() && result.AIAttempts < budget {
			result.AIAttempts++
			if err := p.aiPacer.Wait(ctx); err != nil {
				return nil, err
			}
			if summary := p.summarizer.OneParagraph(ctx, entry.AccessionNumber, entry.Form, text); summary != "" {
				row.Summary = summary
				row.AIGenerated = true
			}
		}

		if opts.Preview {
			row.Preview = leading(text, p.config.Scan.PreviewChars)
		}

		result.Rows = append(result.Rows, row)
	}

	return result, nil
}

// resolveIdentifier turns the options into a padded company identifier.
func (p *Pipeline) resolveIdentifier(ctx context.Context, opts Options) (string, error) {
	if opts.CIK != "" {
		return model.PadCIK(opts.CIK), nil
	}
	if opts.Ticker == "" {
		return "", nil
	}
	cik10, err := p.tickers.ResolveTicker(ctx, opts.Ticker)
	if err != nil {
		return "", fmt.Errorf("resolve ticker: %w", err)
	}
	if cik10 == "" {
		return "", fmt.Errorf("ticker %q not found in the SEC ticker map", opts.Ticker)
	}
	return cik10, nil
}

// AIStats exposes the summarizer diagnostics for verbose output.
func (p *Pipeline) AIStats() llm.Stats {
	return p.summarizer.Stats()
}

// ClearCache drops all memoized results, forcing recomputation.
func (p *Pipeline) ClearCache() error {
	if p.store == nil {
		return nil
	}
	return p.store.Clear()
}

func leading(text string, n int) string {
	if n <= 0 || len(text) <= n {
		return text
	}
	r := []rune(text)
	if len(r) <= n {
		return text
	}
	return string(r[:n])
}
