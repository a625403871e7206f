package classify

import (
	"regexp"
	"strings"
)

// Impact is the three-way categorical read of a filing.
type Impact string

const (
	ImpactPositive Impact = "Positive"
	ImpactNeutral  Impact = "Neutral"
	ImpactNegative Impact = "Negative"
)

// Category is one of the fixed keyword categories scanned for in a filing.
type Category string

const (
	CategoryFinancing Category = "financing"
	CategoryInsider   Category = "insider"
	CategoryCrypto    Category = "crypto"
	CategoryBuyback   Category = "buyback"
	CategoryGuidance  Category = "guidance"
	CategoryMaterial  Category = "material"
)

// ScanWindow bounds how far into the document the patterns are tested.
// Headline items appear first in structured filings, so the bias toward
// early content is deliberate.
const ScanWindow = 4000

var patterns = map[Category]*regexp.Regexp{
	CategoryFinancing: regexp.MustCompile(`(?i)ATM|at-the-market|equity offering|registered direct|PIPE|warrant|convertible|shelf registration|S-3|ASR|capital raise`),
	CategoryInsider:   regexp.MustCompile(`(?i)Form 4|beneficial owner|officer|director|grant|option|restricted stock|RSU`),
	CategoryCrypto:    regexp.MustCompile(`(?i)Bitcoin|BTC|Ethereum|ETH|hashrate|miners|mining|immersion|wallet|custody`),
	CategoryBuyback:   regexp.MustCompile(`(?i)repurchase|buyback|issuer repurchases|ASC 505-30`),
	CategoryGuidance:  regexp.MustCompile(`(?i)outlook|guidance|reaffirm|update|forward-looking`),
	CategoryMaterial:  regexp.MustCompile(`(?i)Item\s*1\.01|Material Definitive Agreement|Item\s*2\.01|acquisition|disposition|Item\s*3\.02|unregistered|Item\s*5\.02|departure|appointment|Item\s*5\.07|shareholder|vote`),
}

// bulletOrder fixes the emission order of signal bullets.
var bulletOrder = []Category{
	CategoryMaterial,
	CategoryFinancing,
	CategoryBuyback,
	CategoryInsider,
	CategoryCrypto,
	CategoryGuidance,
}

var bulletText = map[Category]string{
	CategoryMaterial:  "Material item(s) indicated (e.g., Item 1.01/2.01/5.02/5.07).",
	CategoryFinancing: "Financing activity detected (ATM/PIPE/warrants/shelf). Potential dilution risk.",
	CategoryBuyback:   "Repurchase/buyback language detected.",
	CategoryInsider:   "Insider/beneficial ownership or equity grants referenced.",
	CategoryCrypto:    "Crypto/mining references present (BTC/ETH/hashrate).",
	CategoryGuidance:  "Guidance/outlook language present.",
}

// Result is the derived classification of a single filing.
// Impact is a deterministic pure function of the hit set and the fixed
// weights; the headline is chosen by priority independent of the score,
// so the two can disagree on overlapping hits.
type Result struct {
	Impact   Impact            `json:"impact"`
	Headline string            `json:"headline"`
	Bullets  []string          `json:"bullets,omitempty"`
	Hits     map[Category]bool `json:"hits"`
}

// Classify scans the document text for the keyword categories and derives
// the impact, headline, and signal bullets. It is a pure function: same
// (form, text) always yields the same result.
func Classify(form, text string) Result {
	window := text
	if r := []rune(text); len(r) > ScanWindow {
		window = string(r[:ScanWindow])
	}

	hits := make(map[Category]bool, len(patterns))
	for category, pattern := range patterns {
		hits[category] = pattern.MatchString(window)
	}

	// Buyback and financing offset each other to Neutral on purpose;
	// the other categories carry no weight but still surface as bullets.
	score := 0
	if hits[CategoryBuyback] {
		score += 2
	}
	if hits[CategoryFinancing] {
		score -= 2
	}
	if hits[CategoryMaterial] {
		score++
	}

	impact := ImpactNeutral
	switch {
	case score >= 2:
		impact = ImpactPositive
	case score <= -2:
		impact = ImpactNegative
	}

	var bullets []string
	for _, category := range bulletOrder {
		if hits[category] {
			bullets = append(bullets, bulletText[category])
		}
	}

	return Result{
		Impact:   impact,
		Headline: form + ": " + string(impact) + " — " + headlineSuffix(hits),
		Bullets:  bullets,
		Hits:     hits,
	}
}

// headlineSuffix picks the headline wording in fixed priority order,
// independent of the numeric score.
func headlineSuffix(hits map[Category]bool) string {
	switch {
	case hits[CategoryBuyback]:
		return "buyback mentioned"
	case hits[CategoryFinancing]:
		return "financing/dilution signals"
	case hits[CategoryMaterial]:
		return "material agreement or event"
	case hits[CategoryInsider]:
		return "insider/ownership update"
	default:
		return "no strong signal"
	}
}

// Paragraph renders the rule-based summary as a short text block, used
// whenever the AI path yields nothing.
func (r Result) Paragraph() string {
	var b strings.Builder
	b.WriteString(r.Headline)
	for _, bullet := range r.Bullets {
		b.WriteString("\n- ")
		b.WriteString(bullet)
	}
	return b.String()
}
