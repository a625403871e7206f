package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/filingdash/filingdash/internal/llm"
	"github.com/filingdash/filingdash/internal/model"
)

// fakeSEC serves the three endpoints a run touches: the ticker map, the
// submissions record, and the primary documents.
func fakeSEC(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/files/company_tickers.json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `{"0":{"cik_str":1829311,"ticker":"TEST","title":"Test Co"}}`)
	})

	mux.HandleFunc("/submissions/CIK0001829311.json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `{
			"name": "Test Co",
			"filings": {"recent": {
				"accessionNumber": ["0001829311-25-000030", "0001829311-25-000020", "0001829311-25-000010"],
				"filingDate": ["2025-06-15", "2025-03-01", "2025-01-10"],
				"form": ["8-K", "8-K", "10-Q"],
				"primaryDocument": ["buyback.htm", "missing.htm", "quarterly.htm"]
			}}
		}`)
	})

	mux.HandleFunc("/edgar/data/1829311/000182931125000030/buyback.htm", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `<html><body>The board approved a share repurchase program.</body></html>`)
	})
	mux.HandleFunc("/edgar/data/1829311/000182931125000020/missing.htm", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/edgar/data/1829311/000182931125000010/quarterly.htm", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `<html><body>Quarterly results were filed.</body></html>`)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func testPipeline(t *testing.T, server *httptest.Server) *Pipeline {
	t.Helper()
	cfg := model.DefaultConfig()
	cfg.HTTP.BaseURL = server.URL
	cfg.HTTP.ArchivesURL = server.URL
	cfg.HTTP.MaxRetries = 1
	cfg.Scan.FetchDelay = 0
	cfg.AI.CallDelay = 0
	return New(cfg)
}

// stubProvider counts calls and returns a fixed paragraph.
type stubProvider struct {
	calls  atomic.Int32
	result string
	err    error
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Summarize(ctx context.Context, req llm.Request) (string, error) {
	s.calls.Add(1)
	return s.result, s.err
}

func TestRun_ByTicker(t *testing.T) {
	p := testPipeline(t, fakeSEC(t))

	result, err := p.Run(context.Background(), Options{Ticker: "test"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Company.Name != "Test Co" || result.Company.CIK != "0001829311" {
		t.Errorf("Unexpected company: %+v", result.Company)
	}
	if len(result.Rows) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(result.Rows))
	}
	if result.Rows[0].Entry.FilingDate != "2025-06-15" {
		t.Errorf("Expected newest filing first, got %s", result.Rows[0].Entry.FilingDate)
	}
}

func TestRun_ByCIKTakesPrecedence(t *testing.T) {
	p := testPipeline(t, fakeSEC(t))

	result, err := p.Run(context.Background(), Options{Ticker: "WRONG", CIK: "1829311"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Company.CIK != "0001829311" {
		t.Errorf("Expected CIK to win over ticker, got %s", result.Company.CIK)
	}
}

func TestRun_NoIdentifier(t *testing.T) {
	p := testPipeline(t, fakeSEC(t))

	if _, err := p.Run(context.Background(), Options{}); err == nil {
		t.Error("Expected error without ticker or CIK")
	}
}

func TestRun_UnknownTicker(t *testing.T) {
	p := testPipeline(t, fakeSEC(t))

	_, err := p.Run(context.Background(), Options{Ticker: "NOPE"})
	if err == nil {
		t.Fatal("Expected error for unknown ticker")
	}
	if !strings.Contains(err.Error(), "NOPE") {
		t.Errorf("Expected the ticker named in the error, got: %v", err)
	}
}

func TestRun_DocumentFailureSkipsOnlyThatFiling(t *testing.T) {
	p := testPipeline(t, fakeSEC(t))

	result, err := p.Run(context.Background(), Options{Ticker: "TEST"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	var failed, succeeded int
	for _, row := range result.Rows {
		if row.FetchError != "" {
			failed++
			if row.Summary != "" {
				t.Errorf("Expected no summary on a failed row, got %q", row.Summary)
			}
		} else {
			succeeded++
			if row.Summary == "" {
				t.Error("Expected a rule-based summary on a fetched row")
			}
		}
	}
	if failed != 1 || succeeded != 2 {
		t.Errorf("Expected 1 failed and 2 succeeded rows, got %d/%d", failed, succeeded)
	}
}

func TestRun_ClassifiesFetchedDocuments(t *testing.T) {
	p := testPipeline(t, fakeSEC(t))

	result, err := p.Run(context.Background(), Options{Ticker: "TEST"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	buyback := result.Rows[0]
	if buyback.Classification.Impact != "Positive" {
		t.Errorf("Expected Positive for the buyback filing, got %s", buyback.Classification.Impact)
	}
	if !strings.HasPrefix(buyback.Summary, buyback.Classification.Headline) {
		t.Errorf("Expected fallback paragraph to lead with the headline, got %q", buyback.Summary)
	}
}

func TestRun_FormFilter(t *testing.T) {
	p := testPipeline(t, fakeSEC(t))

	result, err := p.Run(context.Background(), Options{Ticker: "TEST", Forms: []string{"10-Q"}})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(result.Rows) != 1 || result.Rows[0].Entry.Form != "10-Q" {
		t.Errorf("Expected only the 10-Q, got %+v", result.Rows)
	}
}

func TestRun_MaxLimitsRows(t *testing.T) {
	p := testPipeline(t, fakeSEC(t))

	result, err := p.Run(context.Background(), Options{Ticker: "TEST", Max: 1})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(result.Rows) != 1 {
		t.Errorf("Expected 1 row, got %d", len(result.Rows))
	}
}

func TestRun_AIBudgetAppliesToFirstFilingsInOrder(t *testing.T) {
	p := testPipeline(t, fakeSEC(t))
	stub := &stubProvider{result: "AI paragraph."}
	p.summarizer = llm.NewSummarizerWithProvider(stub, llm.Config{APIKey: "sk-test", Model: "gpt-4o-mini"}, nil, time.Hour)

	result, err := p.Run(context.Background(), Options{Ticker: "TEST", AIEnabled: true, AIBudget: 1})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.AIAttempts != 1 {
		t.Errorf("Expected 1 AI attempt, got %d", result.AIAttempts)
	}
	if !result.Rows[0].AIGenerated || result.Rows[0].Summary != "AI paragraph." {
		t.Errorf("Expected the first fetched row to carry the AI summary, got %+v", result.Rows[0])
	}
	for _, row := range result.Rows[1:] {
		if row.AIGenerated {
			t.Errorf("Expected rows beyond the budget to stay rule-based, got %+v", row)
		}
	}
}

func TestRun_AIFailureFallsBackToRuleBased(t *testing.T) {
	p := testPipeline(t, fakeSEC(t))
	stub := &stubProvider{err: fmt.Errorf("quota exhausted")}
	p.summarizer = llm.NewSummarizerWithProvider(stub, llm.Config{APIKey: "sk-test", Model: "gpt-4o-mini"}, nil, time.Hour)

	result, err := p.Run(context.Background(), Options{Ticker: "TEST", AIEnabled: true, AIBudget: 5})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	for _, row := range result.Rows {
		if row.FetchError != "" {
			continue
		}
		if row.AIGenerated {
			t.Errorf("Expected rule-based fallback after AI failure, got %+v", row)
		}
		if !strings.HasPrefix(row.Summary, row.Entry.Form+":") {
			t.Errorf("Expected rule-based headline summary, got %q", row.Summary)
		}
	}
	// The failed document never reaches the AI path: 2 attempts, not 3.
	if result.AIAttempts != 2 {
		t.Errorf("Expected 2 AI attempts, got %d", result.AIAttempts)
	}
}

func TestRun_AIDisabledMakesNoProviderCalls(t *testing.T) {
	p := testPipeline(t, fakeSEC(t))
	stub := &stubProvider{result: "AI paragraph."}
	p.summarizer = llm.NewSummarizerWithProvider(stub, llm.Config{APIKey: "sk-test", Model: "gpt-4o-mini"}, nil, time.Hour)

	result, err := p.Run(context.Background(), Options{Ticker: "TEST", AIEnabled: false, AIBudget: 5})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.AIAttempts != 0 {
		t.Errorf("Expected no AI attempts, got %d", result.AIAttempts)
	}
	if stub.calls.Load() != 0 {
		t.Errorf("Expected no provider calls, got %d", stub.calls.Load())
	}
}

func TestRun_AIBudgetNeverExceedsCap(t *testing.T) {
	p := testPipeline(t, fakeSEC(t))
	stub := &stubProvider{result: "AI paragraph."}
	p.summarizer = llm.NewSummarizerWithProvider(stub, llm.Config{APIKey: "sk-test", Model: "gpt-4o-mini"}, nil, time.Hour)

	result, err := p.Run(context.Background(), Options{Ticker: "TEST", AIEnabled: true, AIBudget: 1000})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.AIAttempts > model.MaxAICalls {
		t.Errorf("Expected attempts capped at %d, got %d", model.MaxAICalls, result.AIAttempts)
	}
}

func TestRun_Preview(t *testing.T) {
	p := testPipeline(t, fakeSEC(t))

	result, err := p.Run(context.Background(), Options{Ticker: "TEST", Preview: true})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	for _, row := range result.Rows {
		if row.FetchError != "" {
			continue
		}
		if row.Preview == "" {
			t.Errorf("Expected a preview for %s", row.Entry.AccessionNumber)
		}
	}

	result, err = p.Run(context.Background(), Options{Ticker: "TEST"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	for _, row := range result.Rows {
		if row.Preview != "" {
			t.Errorf("Expected no preview by default, got %q", row.Preview)
		}
	}
}

func TestRun_CachedSecondRunAvoidsRefetch(t *testing.T) {
	var docHits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/files/company_tickers.json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `{"0":{"cik_str":1829311,"ticker":"TEST","title":"Test Co"}}`)
	})
	mux.HandleFunc("/submissions/CIK0001829311.json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `{"name":"Test Co","filings":{"recent":{
			"accessionNumber":["0001829311-25-000030"],
			"filingDate":["2025-06-15"],
			"form":["8-K"],
			"primaryDocument":["buyback.htm"]}}}`)
	})
	mux.HandleFunc("/edgar/data/1829311/000182931125000030/buyback.htm", func(w http.ResponseWriter, r *http.Request) {
		docHits.Add(1)
		_, _ = fmt.Fprint(w, `<html><body>A share repurchase was approved.</body></html>`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	p := testPipeline(t, server)
	for i := 0; i < 2; i++ {
		if _, err := p.Run(context.Background(), Options{Ticker: "TEST"}); err != nil {
			t.Fatalf("Run %d failed: %v", i, err)
		}
	}
	if docHits.Load() != 1 {
		t.Errorf("Expected the document fetched once across runs, got %d", docHits.Load())
	}
}

func TestClearCache(t *testing.T) {
	p := testPipeline(t, fakeSEC(t))
	if err := p.ClearCache(); err != nil {
		t.Errorf("ClearCache failed: %v", err)
	}

	cfg := model.DefaultConfig()
	cfg.Cache.Enabled = false
	if err := New(cfg).ClearCache(); err != nil {
		t.Errorf("ClearCache without a store failed: %v", err)
	}
}
