package edgar

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/filingdash/filingdash/internal/cache"
	"golang.org/x/net/html"
)

// MaxDocumentChars bounds the extracted text to keep memory and downstream
// processing cost in check.
const MaxDocumentChars = 500000

// DocumentService downloads a filing's primary document and extracts its
// visible text.
type DocumentService struct {
	client *Client
	cache  cache.Cache
	ttl    time.Duration
}

// NewDocumentService creates a document service. A nil cache disables memoization.
func NewDocumentService(client *Client, c cache.Cache, ttl time.Duration) *DocumentService {
	return &DocumentService{client: client, cache: c, ttl: ttl}
}

// Text fetches the primary document and returns its extracted plain text,
// truncated to MaxDocumentChars. Results are cached per (cik, accession,
// document); failures surface as errors and are never cached.
func (s *DocumentService) Text(ctx context.Context, cik10, accession, document string) (string, error) {
	key := cache.DocumentKey(cik10, accession, document)
	if s.cache != nil {
		if body, found := s.cache.Get(key); found {
			return string(body), nil
		}
	}

	url := fmt.Sprintf("%s/edgar/data/%s/%s/%s",
		s.client.archivesURL, numericCIK(cik10), stripDashes(accession), document)
	body, err := s.client.GetDocument(ctx, url)
	if err != nil {
		return "", err
	}

	text, err := ExtractText(string(body))
	if err != nil {
		return "", fmt.Errorf("parse document: %w", err)
	}
	text = truncateRunes(text, MaxDocumentChars)

	if s.cache != nil {
		_ = s.cache.Set(key, []byte(text), s.ttl)
	}
	return text, nil
}

// ExtractText strips script/style markup and flattens the document to
// newline-joined visible text.
func ExtractText(htmlContent string) (string, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe":
				return
			}
		}
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				if buf.Len() > 0 {
					buf.WriteString("\n")
				}
				buf.WriteString(text)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return buf.String(), nil
}

// truncateRunes cuts s to at most n characters.
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
