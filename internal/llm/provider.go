package llm

import (
	"context"
	"fmt"
	"time"
)

// Provider defines the interface for text-generation backends.
type Provider interface {
	// Name returns the provider name
	Name() string

	// Summarize generates a one-paragraph summary for the request
	Summarize(ctx context.Context, req Request) (string, error)
}

// Request carries the input for a single summary generation.
type Request struct {
	// Accession identifies the filing being summarized
	Accession string

	// Form is the filing's form type code (e.g. "8-K")
	Form string

	// Excerpt is the document excerpt, already bounded by the caller
	Excerpt string

	// Model overrides the configured model when non-empty
	Model string
}

// Config holds provider configuration.
type Config struct {
	// APIKey for the external service; empty disables the AI path entirely
	APIKey string

	// Model name (operator-chosen)
	Model string

	// BaseURL for custom endpoints
	BaseURL string

	// Timeout for API requests
	Timeout time.Duration

	// MaxTokens limits the response length
	MaxTokens int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Model:     "gpt-4o-mini",
		Timeout:   30 * time.Second,
		MaxTokens: 600,
	}
}

// BuildPrompt constructs the summarization prompt for a filing excerpt.
func BuildPrompt(form, excerpt string) string {
	return fmt.Sprintf(`You are an equity research assistant. Read the SEC filing excerpt below and write:
- A one-line headline.
- 3-6 bullet points covering material items (financing like ATM/PIPE/warrants, buybacks, guidance, M&A, crypto holdings, and any Item references).
- Keep it factual, concise, and neutral.

Form: %s

Filing excerpt (may be partial):
%s
`, form, excerpt)
}
