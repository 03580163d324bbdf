// Package manifest records accepted filings as a streaming CSV and tracks
// which document URLs a run has already accepted.
package manifest

import (
	"encoding/csv"
	"fmt"
	"os"
)

// Header is the fixed manifest column order.
var Header = []string{"Folder", "PDF Name", "Issue Date", "PDF Link"}

// Entry is one accepted filing: the unit written to the manifest and later
// handed to the downloader.
type Entry struct {
	Folder    string
	Name      string
	IssueDate string
	Link      string
}

// Writer appends entries to a CSV file, flushing after every row so an
// interrupted run leaves a valid, truncated manifest instead of nothing.
type Writer struct {
	f   *os.File
	csv *csv.Writer
}

// NewWriter creates (or truncates) the manifest file and writes the header
// row.
func NewWriter(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create manifest: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(Header); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write manifest header: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to flush manifest header: %w", err)
	}

	return &Writer{f: f, csv: w}, nil
}

// Append writes one entry and flushes it to disk immediately.
func (w *Writer) Append(e Entry) error {
	if err := w.csv.Write([]string{e.Folder, e.Name, e.IssueDate, e.Link}); err != nil {
		return fmt.Errorf("failed to write manifest row: %w", err)
	}
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		return fmt.Errorf("failed to flush manifest row: %w", err)
	}
	return nil
}

// Close flushes any buffered output and closes the file.
func (w *Writer) Close() error {
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		w.f.Close()
		return err
	}
	return w.f.Close()
}
