package edgar

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/filingdash/filingdash/internal/cache"
	"github.com/filingdash/filingdash/internal/model"
)

// tickerRecord is one row of the company ticker file.
type tickerRecord struct {
	CIK    json.Number `json:"cik_str"`
	Ticker string      `json:"ticker"`
	Title  string      `json:"title"`
}

// TickerMap is a read-only snapshot of the ticker lookup table,
// case-insensitive on ticker.
type TickerMap struct {
	byTicker map[string]model.TickerInfo
}

// Resolve looks up a ticker symbol. The second return is false when the
// ticker is unknown; callers treat that as "not resolvable", not an error.
func (m *TickerMap) Resolve(ticker string) (model.TickerInfo, bool) {
	info, ok := m.byTicker[strings.ToUpper(strings.TrimSpace(ticker))]
	return info, ok
}

// Len returns the number of tickers in the snapshot.
func (m *TickerMap) Len() int {
	return len(m.byTicker)
}

// TickerService fetches and caches the ticker lookup snapshot.
type TickerService struct {
	client *Client
	cache  cache.Cache
	ttl    time.Duration
}

// NewTickerService creates a ticker service. A nil cache disables memoization.
func NewTickerService(client *Client, c cache.Cache, ttl time.Duration) *TickerService {
	return &TickerService{client: client, cache: c, ttl: ttl}
}

// Map retrieves the current ticker snapshot.
func (s *TickerService) Map(ctx context.Context) (*TickerMap, error) {
	if s.cache != nil {
		if body, found := s.cache.Get(cache.TickerMapKey()); found {
			if m, err := parseTickerMap(body); err == nil {
				return m, nil
			}
		}
	}

	url := s.client.baseURL + "/files/company_tickers.json"
	body, err := s.client.get(ctx, s.client.meta, url)
	if err != nil {
		return nil, err
	}

	m, err := parseTickerMap(body)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		_ = s.cache.Set(cache.TickerMapKey(), body, s.ttl)
	}
	return m, nil
}

// ResolveTicker resolves a ticker symbol to a 10-digit company identifier.
// An unknown ticker yields the empty string.
func (s *TickerService) ResolveTicker(ctx context.Context, ticker string) (string, error) {
	if strings.TrimSpace(ticker) == "" {
		return "", nil
	}
	m, err := s.Map(ctx)
	if err != nil {
		return "", err
	}
	info, ok := m.Resolve(ticker)
	if !ok {
		return "", nil
	}
	return info.CIK, nil
}

// parseTickerMap decodes the ticker file. SEC has shipped it both as an
// array and as an object keyed by row index, so both shapes are accepted.
func parseTickerMap(body []byte) (*TickerMap, error) {
	var records []tickerRecord
	if err := json.Unmarshal(body, &records); err != nil {
		var indexed map[string]tickerRecord
		if err2 := json.Unmarshal(body, &indexed); err2 != nil {
			return nil, fmt.Errorf("decode ticker map: %w", err)
		}
		for _, rec := range indexed {
			records = append(records, rec)
		}
	}

	byTicker := make(map[string]model.TickerInfo, len(records))
	for _, rec := range records {
		symbol := strings.ToUpper(strings.TrimSpace(rec.Ticker))
		if symbol == "" {
			continue
		}
		byTicker[symbol] = model.TickerInfo{
			CIK:   model.PadCIK(rec.CIK.String()),
			Title: rec.Title,
		}
	}
	return &TickerMap{byTicker: byTicker}, nil
}
