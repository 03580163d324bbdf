// Package rename matches downloaded client PDFs against a roster, renames
// them after the client, and records upload links back into the roster.
package rename

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

const (
	nameColumn = "Client Name"
	urlColumn  = "url"
)

// Roster is the client list: one row per client, matched case-insensitively
// by name. Shareable links are written into the url column and the whole
// file is rewritten on Save.
type Roster struct {
	path    string
	header  []string
	rows    [][]string
	nameCol int
	urlCol  int
	byName  map[string]int // lower-cased client name -> row index
}

// LoadRoster reads the roster CSV. The "Client Name" column is required;
// a "url" column is added when absent.
func LoadRoster(path string) (*Roster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open roster: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse roster: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("roster %s is empty", path)
	}

	r := &Roster{
		path:    path,
		header:  records[0],
		rows:    records[1:],
		nameCol: -1,
		urlCol:  -1,
		byName:  make(map[string]int),
	}
	for i, col := range r.header {
		switch col {
		case nameColumn:
			r.nameCol = i
		case urlColumn:
			r.urlCol = i
		}
	}
	if r.nameCol == -1 {
		return nil, fmt.Errorf("roster %s has no %q column", path, nameColumn)
	}
	if r.urlCol == -1 {
		r.header = append(r.header, urlColumn)
		r.urlCol = len(r.header) - 1
	}

	for i, row := range r.rows {
		if r.nameCol < len(row) {
			name := strings.ToLower(strings.TrimSpace(row[r.nameCol]))
			if name != "" {
				r.byName[name] = i
			}
		}
	}

	return r, nil
}

// HasClient reports whether name matches a roster entry, ignoring case.
func (r *Roster) HasClient(name string) bool {
	_, ok := r.byName[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// SetLink records a shareable link for the named client. Unknown names are
// ignored; matching happened before upload.
func (r *Roster) SetLink(name, link string) {
	i, ok := r.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return
	}
	for len(r.rows[i]) <= r.urlCol {
		r.rows[i] = append(r.rows[i], "")
	}
	r.rows[i][r.urlCol] = link
}

// Save rewrites the roster file with any recorded links.
func (r *Roster) Save() error {
	f, err := os.Create(r.path)
	if err != nil {
		return fmt.Errorf("failed to write roster: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(r.header); err != nil {
		return fmt.Errorf("failed to write roster header: %w", err)
	}
	for _, row := range r.rows {
		out := row
		if len(out) < len(r.header) {
			out = append(append([]string{}, row...), make([]string, len(r.header)-len(row))...)
		}
		if err := w.Write(out); err != nil {
			return fmt.Errorf("failed to write roster row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}
