package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// Renderer writes run results as terminal text, JSON, or Markdown.
type Renderer struct{}

// NewRenderer creates a renderer.
func NewRenderer() *Renderer {
	return &Renderer{}
}

// RenderSummary writes a human-readable report to w.
func (r *Renderer) RenderSummary(w io.Writer, result *RunResult) {
	fmt.Fprintf(w, "%s — CIK %s\n", result.Company.Name, result.Company.CIK)
	fmt.Fprintf(w, "%d filings\n\n", len(result.Rows))

	for _, row := range result.Rows {
		fmt.Fprintf(w, "%s • %s • %s\n", row.Entry.FilingDate, row.Entry.Form, row.Entry.PrimaryDocDesc)
		fmt.Fprintf(w, "  Accession: %s\n", row.Entry.AccessionNumber)
		fmt.Fprintf(w, "  Index: %s\n", row.Entry.IndexURL)

		if row.FetchError != "" {
			fmt.Fprintf(w, "  ! Failed to fetch primary document: %s\n\n", row.FetchError)
			continue
		}

		fmt.Fprintf(w, "  [%s] %s\n", row.Classification.Impact, row.Classification.Headline)
		if row.AIGenerated {
			fmt.Fprintf(w, "  AI summary:\n%s\n", indent(row.Summary, "    "))
		} else if len(row.Classification.Bullets) > 0 {
			fmt.Fprintln(w, "  Signals detected:")
			for _, bullet := range row.Classification.Bullets {
				fmt.Fprintf(w, "    - %s\n", bullet)
			}
		}
		if row.Preview != "" {
			fmt.Fprintf(w, "  Preview:\n%s\n", indent(row.Preview, "    | "))
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "Data: SEC EDGAR. Summaries are heuristic or AI-generated — not investment advice.")
}

// RenderJSON writes the full result as JSON to the given path.
func (r *Renderer) RenderJSON(result *RunResult, path string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write JSON: %w", err)
	}
	return nil
}

// RenderMarkdown writes the result as a Markdown report to the given path.
func (r *Renderer) RenderMarkdown(result *RunResult, path string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s — CIK %s\n\n", result.Company.Name, result.Company.CIK)
	fmt.Fprintf(&b, "## Latest Filings\n\n")
	fmt.Fprintf(&b, "| Date | Form | Description | Accession | Links |\n")
	fmt.Fprintf(&b, "| --- | --- | --- | --- | --- |\n")
	for _, row := range result.Rows {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | [Index](%s) · [Doc](%s) |\n",
			row.Entry.FilingDate, row.Entry.Form, clip(row.Entry.PrimaryDocDesc, 120),
			row.Entry.AccessionNumber, row.Entry.IndexURL, row.Entry.PrimaryDocURL)
	}
	b.WriteString("\n")

	for _, row := range result.Rows {
		fmt.Fprintf(&b, "### %s • %s\n\n", row.Entry.FilingDate, row.Entry.Form)
		if row.FetchError != "" {
			fmt.Fprintf(&b, "Failed to fetch primary document: %s\n\n", row.FetchError)
			continue
		}
		fmt.Fprintf(&b, "**%s** — %s\n\n", row.Classification.Impact, row.Classification.Headline)
		if row.AIGenerated {
			fmt.Fprintf(&b, "%s\n\n", row.Summary)
		} else {
			for _, bullet := range row.Classification.Bullets {
				fmt.Fprintf(&b, "- %s\n", bullet)
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("Data: SEC EDGAR. Summaries are heuristic or AI-generated — not investment advice.\n")

	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("write markdown: %w", err)
	}
	return nil
}

func indent(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
