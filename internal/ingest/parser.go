package ingest

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"examboard-api/internal/models"
)

// ErrNoTable means the posted markup had no table element. The caller
// treats the request as ignorable noise, not as an update.
var ErrNoTable = errors.New("no table element found")

// ignoredHeaders are columns of the Moodle attempts table that never reach
// the leaderboard: selection checkboxes, identity columns the UI must not
// show, and per-question grade breakdowns.
var ignoredHeaders = map[string]struct{}{
	"Unknown_Col_0": {},
	"Unknown_Col_1": {},
	"ID number":     {},
	"Email address": {},
	"Started on":    {},
	"Grade/100.00":  {},
	"Q. 1/99.01":    {},
	"Q. 2/0.99":     {},
	"Grade/10.00":   {},
	"Q. 1/9.90":     {},
	"Q. 2/0.10":     {},
}

var (
	reviewAttemptRe  = regexp.MustCompile(`(?i)Review attempt`)
	overallAverageRe = regexp.MustCompile(`(?i)Overall average`)
)

// collapse trims s and folds internal whitespace runs to single spaces.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Parse extracts the first table from raw markup and normalizes it into a
// snapshot. It mirrors what the attempts page actually serves: headers come
// from thead th cells (empty ones get a positional fallback name), divider
// rows are skipped, decorative sub-elements are stripped before text
// extraction, and rows without a usable student name are dropped.
func Parse(r io.Reader) (models.Snapshot, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse markup: %w", err)
	}

	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, ErrNoTable
	}

	// Screen-reader text, in-row action controls and "Review attempt"
	// links pollute the extracted cell text.
	table.Find(".accesshide").Remove()
	table.Find(".commands").Remove()
	table.Find(".reviewlink").Remove()

	var headers []string
	table.Find("thead th").Each(func(_ int, th *goquery.Selection) {
		h := collapse(th.Text())
		if h == "" {
			h = fmt.Sprintf("Unknown_Col_%d", len(headers))
		}
		headers = append(headers, h)
	})

	snapshot := models.Snapshot{}
	table.Find("tbody tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td")
		if cells.Length() == 1 && tr.Find(".tabledivider").Length() > 0 {
			return
		}

		row := models.NewRow()
		cells.Each(func(i int, td *goquery.Selection) {
			if i >= len(headers) {
				return
			}
			text := collapse(td.Text())
			if text == "" {
				// Selection checkboxes carry the attempt id in
				// their value attribute, not in visible text.
				if cb := td.Find(`input[type="checkbox"]`); cb.Length() > 0 {
					text, _ = cb.Attr("value")
				}
			}
			if _, skip := ignoredHeaders[headers[i]]; skip {
				return
			}
			row.Set(headers[i], text)
		})

		if key, ok := nameKey(row); ok {
			name := reviewAttemptRe.ReplaceAllString(row.Value(key), "")
			name = overallAverageRe.ReplaceAllString(name, "")
			name = strings.TrimSpace(name)
			if name == "" {
				// Summary and placeholder rows, not students.
				return
			}
			row.Set(key, name)
		}

		snapshot = append(snapshot, row)
	})

	return snapshot, nil
}

// nameKey finds the first column holding the student name.
func nameKey(row *models.Row) (string, bool) {
	for _, k := range row.Keys() {
		if strings.Contains(k, "First name") || strings.Contains(k, "Last name") {
			return k, true
		}
	}
	return "", false
}
