package edgar

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/filingdash/filingdash/internal/cache"
	"github.com/filingdash/filingdash/internal/model"
)

// Submissions is the raw company submission record: a set of equal-length
// parallel arrays, one value per filing, keyed by field name.
type Submissions struct {
	Name    string `json:"name"`
	Filings struct {
		Recent RecentFilings `json:"recent"`
	} `json:"filings"`
}

// RecentFilings holds the parallel arrays of the most recent filings.
type RecentFilings struct {
	AccessionNumber       []string      `json:"accessionNumber"`
	FilingDate            []string      `json:"filingDate"`
	ReportDate            []string      `json:"reportDate"`
	AcceptanceDateTime    []string      `json:"acceptanceDateTime"`
	Form                  []string      `json:"form"`
	Items                 []string      `json:"items"`
	Size                  []json.Number `json:"size"`
	PrimaryDocument       []string      `json:"primaryDocument"`
	PrimaryDocDescription []string      `json:"primaryDocDescription"`
}

// CatalogService fetches a company's submission record and turns it into
// a normalized, sortable, filterable list of filing entries.
type CatalogService struct {
	client *Client
	cache  cache.Cache
	ttl    time.Duration
}

// NewCatalogService creates a catalog service. A nil cache disables memoization.
func NewCatalogService(client *Client, c cache.Cache, ttl time.Duration) *CatalogService {
	return &CatalogService{client: client, cache: c, ttl: ttl}
}

// Fetch retrieves the submission record for a 10-digit company identifier.
func (s *CatalogService) Fetch(ctx context.Context, cik10 string) (*Submissions, error) {
	url := fmt.Sprintf("%s/submissions/CIK%s.json", s.client.baseURL, cik10)

	if s.cache != nil {
		if body, found := s.cache.Get(cache.SubmissionsKey(cik10)); found {
			var sub Submissions
			if err := json.Unmarshal(body, &sub); err == nil {
				return &sub, nil
			}
		}
	}

	body, err := s.client.get(ctx, s.client.meta, url)
	if err != nil {
		return nil, err
	}

	var sub Submissions
	if err := json.Unmarshal(body, &sub); err != nil {
		return nil, fmt.Errorf("decode submissions: %w", err)
	}

	if s.cache != nil {
		_ = s.cache.Set(cache.SubmissionsKey(cik10), body, s.ttl)
	}
	return &sub, nil
}

// BuildEntries transforms the parallel arrays into filing entries with
// derived URLs, sorted by filing date descending. Missing or empty arrays
// yield an empty slice: callers treat that as "no filings", not an error.
func BuildEntries(cik10 string, recent RecentFilings) []model.FilingEntry {
	n := len(recent.AccessionNumber)
	if n == 0 {
		return nil
	}

	entries := make([]model.FilingEntry, 0, n)
	for i := 0; i < n; i++ {
		accession := recent.AccessionNumber[i]
		doc := at(recent.PrimaryDocument, i)
		entries = append(entries, model.FilingEntry{
			AccessionNumber: accession,
			FilingDate:      at(recent.FilingDate, i),
			ReportDate:      at(recent.ReportDate, i),
			AcceptanceTime:  at(recent.AcceptanceDateTime, i),
			Form:            at(recent.Form, i),
			Items:           at(recent.Items, i),
			Size:            sizeAt(recent.Size, i),
			PrimaryDocument: doc,
			PrimaryDocDesc:  at(recent.PrimaryDocDescription, i),
			IndexURL:        IndexURL(cik10, accession),
			PrimaryDocURL:   PrimaryDocURL(cik10, accession, doc),
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].FilingDate > entries[j].FilingDate
	})
	return entries
}

// Filter narrows a filing list by form allow-list, free-text keyword, and count.
type Filter struct {
	Forms   []string // Allow-list of form type codes; empty keeps everything
	Keyword string   // Case-insensitive substring over all visible fields
	Max     int      // Keep the N most recent; 0 keeps everything
}

// Apply returns the entries passing the filter, preserving order.
func (f Filter) Apply(entries []model.FilingEntry) []model.FilingEntry {
	allowed := make(map[string]bool, len(f.Forms))
	for _, form := range f.Forms {
		allowed[form] = true
	}
	keyword := strings.ToLower(strings.TrimSpace(f.Keyword))

	var out []model.FilingEntry
	for _, entry := range entries {
		if len(allowed) > 0 && !allowed[entry.Form] {
			continue
		}
		if keyword != "" && !strings.Contains(serializeEntry(entry), keyword) {
			continue
		}
		out = append(out, entry)
		if f.Max > 0 && len(out) >= f.Max {
			break
		}
	}
	return out
}

// serializeEntry flattens every visible field for keyword matching.
func serializeEntry(e model.FilingEntry) string {
	return strings.ToLower(strings.Join([]string{
		e.AccessionNumber, e.FilingDate, e.ReportDate, e.AcceptanceTime,
		e.Form, e.Items, e.PrimaryDocument, e.PrimaryDocDesc,
	}, " "))
}

// IndexURL derives the filing index page URL from the company identifier
// and accession number.
func IndexURL(cik10, accession string) string {
	return fmt.Sprintf("%s/edgar/data/%s/%s-index.html",
		ArchivesURL, numericCIK(cik10), stripDashes(accession))
}

// PrimaryDocURL derives the primary document URL.
func PrimaryDocURL(cik10, accession, document string) string {
	return fmt.Sprintf("%s/edgar/data/%s/%s/%s",
		ArchivesURL, numericCIK(cik10), stripDashes(accession), document)
}

// numericCIK strips the leading zeros from a padded identifier.
func numericCIK(cik10 string) string {
	trimmed := strings.TrimLeft(cik10, "0")
	if trimmed == "" {
		return "0"
	}
	return trimmed
}

func stripDashes(accession string) string {
	return strings.ReplaceAll(accession, "-", "")
}

func at(values []string, i int) string {
	if i < len(values) {
		return values[i]
	}
	return ""
}

func sizeAt(values []json.Number, i int) int64 {
	if i < len(values) {
		n, _ := values[i].Int64()
		return n
	}
	return 0
}
