package model

import "time"

// Config holds the complete runtime configuration.
type Config struct {
	HTTP  HTTPConfig  `yaml:"http"`
	Cache CacheConfig `yaml:"cache"`
	AI    AIConfig    `yaml:"ai"`
	Scan  ScanConfig  `yaml:"scan"`
}

// HTTPConfig controls the outbound client behavior.
// SEC EDGAR rejects or rate-limits clients without a descriptive User-Agent,
// so UserAgent should identify the operator and include a contact address.
type HTTPConfig struct {
	UserAgent   string        `yaml:"user_agent"`
	BaseURL     string        `yaml:"base_url"`     // Metadata endpoint root; empty means the SEC default
	ArchivesURL string        `yaml:"archives_url"` // Document endpoint root; empty means the SEC default
	MetaTimeout time.Duration `yaml:"meta_timeout"` // Submissions and ticker map endpoints
	DocTimeout  time.Duration `yaml:"doc_timeout"`  // Filing document endpoint
	MaxRetries  int           `yaml:"max_retries"`
	BackoffBase time.Duration `yaml:"backoff_base"` // Doubles per attempt
	CheckRobots bool          `yaml:"check_robots"` // Consult robots.txt before document fetches
}

// CacheConfig controls the per-call memoization TTLs.
type CacheConfig struct {
	Enabled        bool          `yaml:"enabled"`
	SubmissionsTTL time.Duration `yaml:"submissions_ttl"`
	TickerTTL      time.Duration `yaml:"ticker_ttl"`
	DocumentTTL    time.Duration `yaml:"document_ttl"`
	AISummaryTTL   time.Duration `yaml:"ai_summary_ttl"`
}

// AIConfig controls the optional AI summary path.
// An empty APIKey disables the path entirely without error.
type AIConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Model     string        `yaml:"model"`
	APIKey    string        `yaml:"-"` // Never serialized; sourced from OPENAI_API_KEY
	MaxCalls  int           `yaml:"max_calls"`  // Per-run invocation budget, 0-20
	CallDelay time.Duration `yaml:"call_delay"` // Pacing delay before each call, 0-3s
	Timeout   time.Duration `yaml:"timeout"`
	MaxTokens int           `yaml:"max_tokens"`
}

// ScanConfig controls catalog display and pacing defaults.
type ScanConfig struct {
	DefaultCIK   string        `yaml:"default_cik"`
	MaxFilings   int           `yaml:"max_filings"`
	FetchDelay   time.Duration `yaml:"fetch_delay"` // Pacing delay before each document fetch
	PreviewChars int           `yaml:"preview_chars"`
}

// MaxAICalls is the hard cap on the per-run AI invocation budget.
const MaxAICalls = 20

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			UserAgent:   "FilingsDashboard/1.0 (contact: please-set-email@example.com)",
			MetaTimeout: 30 * time.Second,
			DocTimeout:  60 * time.Second,
			MaxRetries:  4,
			BackoffBase: 600 * time.Millisecond,
			CheckRobots: false,
		},
		Cache: CacheConfig{
			Enabled:        true,
			SubmissionsTTL: 900 * time.Second,
			TickerTTL:      time.Hour,
			DocumentTTL:    time.Hour,
			AISummaryTTL:   7 * 24 * time.Hour,
		},
		AI: AIConfig{
			Enabled:   false,
			Model:     "gpt-4o-mini",
			MaxCalls:  5,
			CallDelay: time.Second,
			Timeout:   30 * time.Second,
			MaxTokens: 600,
		},
		Scan: ScanConfig{
			MaxFilings:   30,
			FetchDelay:   300 * time.Millisecond,
			PreviewChars: 8000,
		},
	}
}
