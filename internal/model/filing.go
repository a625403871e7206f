package model

// FilingEntry is one row of a company's submission history.
// Entries are built fresh on every catalog fetch and are immutable afterwards.
type FilingEntry struct {
	AccessionNumber string `json:"accession_number"`           // Dash-separated, unique per filer
	FilingDate      string `json:"filing_date"`                // YYYY-MM-DD
	ReportDate      string `json:"report_date,omitempty"`      // YYYY-MM-DD
	AcceptanceTime  string `json:"acceptance_time,omitempty"`  // RFC3339 acceptance timestamp
	Form            string `json:"form"`                       // Form type code, e.g. "8-K"
	Items           string `json:"items,omitempty"`            // Comma-separated item sub-codes
	Size            int64  `json:"size,omitempty"`             // Filing size in bytes
	PrimaryDocument string `json:"primary_document,omitempty"` // Primary document filename
	PrimaryDocDesc  string `json:"primary_doc_desc,omitempty"` // Primary document description
	IndexURL        string `json:"index_url"`                  // Derived filing index page URL
	PrimaryDocURL   string `json:"primary_doc_url"`            // Derived primary document URL
}

// Company identifies a filer and its submission history metadata.
type Company struct {
	Name string `json:"name"`
	CIK  string `json:"cik"` // 10-digit zero-padded identifier
}

// TickerInfo is one entry of the ticker lookup snapshot.
type TickerInfo struct {
	CIK   string `json:"cik"`   // 10-digit zero-padded identifier
	Title string `json:"title"` // Company display name
}

// PadCIK normalizes a company identifier to the 10-digit zero-padded form.
// Non-digit characters are stripped first. An input with no digits yields
// the empty string, which callers must treat as "no identifier".
func PadCIK(cik string) string {
	var digits []byte
	for i := 0; i < len(cik); i++ {
		if cik[i] >= '0' && cik[i] <= '9' {
			digits = append(digits, cik[i])
		}
	}
	if len(digits) == 0 {
		return ""
	}
	if len(digits) >= 10 {
		return string(digits)
	}
	padded := make([]byte, 10-len(digits), 10)
	for i := range padded {
		padded[i] = '0'
	}
	return string(append(padded, digits...))
}
