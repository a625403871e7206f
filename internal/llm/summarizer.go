package llm

import (
	"context"
	"sync"
	"time"

	"github.com/filingdash/filingdash/internal/cache"
)

// MaxExcerptChars bounds the document excerpt handed to the provider.
const MaxExcerptChars = 6000

// Summarizer wraps a Provider with caching and the no-result contract:
// OneParagraph returns the empty string on any failure (missing credential,
// quota exhaustion, rate limiting, network error) and never an error.
// Callers treat empty as "fall back to the rule-based paragraph".
type Summarizer struct {
	provider Provider
	config   Config
	cache    cache.Cache
	ttl      time.Duration
	mu       sync.Mutex
	lastErr  string
	calls    int
	failures int
}

// NewSummarizer creates a summarizer. An empty APIKey yields a disabled
// summarizer: valid to use, always returning the empty string.
func NewSummarizer(config Config, c cache.Cache, ttl time.Duration) *Summarizer {
	s := &Summarizer{config: config, cache: c, ttl: ttl}
	if config.APIKey != "" {
		provider, err := NewOpenAIProvider(config)
		if err == nil {
			s.provider = provider
		}
	}
	return s
}

// NewSummarizerWithProvider creates a summarizer backed by an explicit
// provider. Useful for custom backends and for tests.
func NewSummarizerWithProvider(provider Provider, config Config, c cache.Cache, ttl time.Duration) *Summarizer {
	return &Summarizer{provider: provider, config: config, cache: c, ttl: ttl}
}

// IsEnabled reports whether a provider is configured.
func (s *Summarizer) IsEnabled() bool {
	return s.provider != nil
}

// OneParagraph returns a cached or freshly generated one-paragraph summary
// of the filing excerpt, or the empty string when the AI path is disabled
// or fails. Failed (empty) results are never cached, so a rotated
// credential is retried on the next lookup.
func (s *Summarizer) OneParagraph(ctx context.Context, accession, form, text string) string {
	if s.provider == nil {
		return ""
	}

	excerpt := truncate(text, MaxExcerptChars)
	model := s.config.Model
	key := cache.AISummaryKey(model, s.config.APIKey, excerpt)

	if s.cache != nil {
		if body, found := s.cache.Get(key); found {
			return string(body)
		}
	}

	summary, err := s.provider.Summarize(ctx, Request{
		Accession: accession,
		Form:      form,
		Excerpt:   excerpt,
		Model:     model,
	})

	s.mu.Lock()
	s.calls++
	if err != nil {
		s.failures++
		s.lastErr = err.Error()
	}
	s.mu.Unlock()

	if err != nil || summary == "" {
		return ""
	}

	if s.cache != nil {
		_ = s.cache.Set(key, []byte(summary), s.ttl)
	}
	return summary
}

// Stats reports invocation diagnostics for the current process.
type Stats struct {
	Calls     int
	Failures  int
	LastError string
}

// Stats returns the summarizer's invocation diagnostics.
func (s *Summarizer) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{Calls: s.calls, Failures: s.failures, LastError: s.lastErr}
}

func truncate(text string, n int) string {
	if len(text) <= n {
		return text
	}
	r := []rune(text)
	if len(r) <= n {
		return text
	}
	return string(r[:n])
}
