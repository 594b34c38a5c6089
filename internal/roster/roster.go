// Package roster loads the student roster used to seed exam rooms. Course
// ids map to published Google Sheets; each sheet is pulled through its CSV
// export and parsed into the same ordered row shape the leaderboard uses.
package roster

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"
	"time"

	"examboard-api/internal/models"
)

// ErrUnknownSheet means the requested course id is not in the sources file.
var ErrUnknownSheet = errors.New("unknown sheet id")

// Service resolves course ids to sheet URLs via a JSON sources file
// (id -> sheet URL) and fetches roster rows on demand. The file is read on
// every call so edits take effect without a restart.
type Service struct {
	path   string
	client *http.Client
}

func New(path string) *Service {
	return &Service{
		path:   path,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

func (s *Service) sources() (map[string]string, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read sources: %w", err)
	}
	var m map[string]string
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parse sources: %w", err)
	}
	return m, nil
}

// Sources lists the configured course ids, sorted.
func (s *Service) Sources() ([]string, error) {
	m, err := s.sources()
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// exportURL rewrites a sheet's edit URL into its CSV export form.
func exportURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("sheet url: %w", err)
	}
	u.Path = strings.TrimSuffix(u.Path, "/edit") + "/export"
	q := u.Query()
	q.Set("format", "csv")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Fetch downloads and parses the roster for a course id. Sheets that are
// not shared publicly answer the export URL with an HTML sign-in page;
// that is reported as an error rather than parsed as a roster.
func (s *Service) Fetch(ctx context.Context, id string) ([]*models.Row, error) {
	m, err := s.sources()
	if err != nil {
		return nil, err
	}
	sheet, ok := m[id]
	if !ok {
		return nil, ErrUnknownSheet
	}

	target, err := exportURL(sheet)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Cache-Control", "no-store")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch sheet: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch sheet: %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if strings.Contains(strings.ToLower(string(body[:min(len(body), 512)])), "<html") {
		return nil, errors.New("sheet export returned HTML, check sharing settings")
	}

	return parseCSV(strings.NewReader(string(body)))
}

// parseCSV turns a headered CSV document into ordered rows. Short records
// are tolerated; empty lines are skipped by the csv reader.
func parseCSV(r io.Reader) ([]*models.Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	headers, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("roster csv: %w", err)
	}

	var rows []*models.Row
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("roster csv: %w", err)
		}
		row := models.NewRow()
		empty := true
		for i, h := range headers {
			v := ""
			if i < len(rec) {
				v = strings.TrimSpace(rec[i])
			}
			if v != "" {
				empty = false
			}
			row.Set(strings.TrimSpace(h), v)
		}
		if empty {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Class returns the class column of a roster row; sheets use either the
// Indonesian or the English header.
func Class(row *models.Row) string {
	if v := strings.TrimSpace(row.Value("Kelas")); v != "" {
		return v
	}
	return strings.TrimSpace(row.Value("Class"))
}

// Classes lists the distinct class names present in rows, sorted.
func Classes(rows []*models.Row) []string {
	seen := map[string]struct{}{}
	for _, row := range rows {
		if c := Class(row); c != "" {
			seen[c] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
