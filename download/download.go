// Package download fetches resolved documents to disk with bounded
// retries, recording a provenance sidecar next to each file.
package download

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/rkalani/regharvest/fetch"
)

// Downloader writes documents under BaseDir/<folder>/<sanitized name>.
type Downloader struct {
	Client  *fetch.Client
	BaseDir string
	Retry   fetch.RetryPolicy
	// FixURL normalizes a document URL before fetching; an empty result
	// means the URL is unusable. Injected so this package stays decoupled
	// from how URLs are repaired.
	FixURL func(string) string
	// Now is swappable for sidecar timestamp tests. nil means time.Now.
	Now func() time.Time
}

// New creates a downloader with the default exponential-backoff retry
// policy.
func New(client *fetch.Client, baseDir string, maxRetries int, fixURL func(string) string) *Downloader {
	return &Downloader{
		Client:  client,
		BaseDir: baseDir,
		Retry: fetch.RetryPolicy{
			MaxAttempts: maxRetries,
			Backoff:     fetch.ExponentialBackoff,
		},
		FixURL: fixURL,
	}
}

// SanitizeFileName keeps letters, digits, spaces, hyphens, underscores and
// dots; everything else is dropped.
func SanitizeFileName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Download fetches docURL into BaseDir/folder/fileName. A pre-existing
// target file is success without any network traffic: file existence is
// the on-disk dedup key. On success a "<file>.meta" sidecar records the
// download time and source URL; the sidecar is written once and never
// updated.
func (d *Downloader) Download(docURL, folder, fileName string) error {
	dir := filepath.Join(d.BaseDir, folder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create folder %s: %w", dir, err)
	}

	name := SanitizeFileName(fileName)
	path := filepath.Join(dir, name)
	if _, err := os.Stat(path); err == nil {
		log.Printf("INFO: %s already exists in %s, skipping download", name, folder)
		return nil
	}

	fixed := d.FixURL(docURL)
	if fixed == "" {
		return fmt.Errorf("invalid document URL %q", docURL)
	}

	var body []byte
	var contentType string
	err := d.Retry.Do(func() error {
		resp, err := d.Client.Get(fixed)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		body = data
		contentType = resp.Header.Get("Content-Type")
		return nil
	})
	if err != nil {
		return fmt.Errorf("download of %s: %w", fixed, err)
	}

	// Either the server says it's a PDF or the URL does; otherwise this is
	// a content mismatch and nothing is written.
	if !strings.Contains(strings.ToLower(contentType), "application/pdf") && !strings.HasSuffix(fixed, ".pdf") {
		return fmt.Errorf("URL does not point to a PDF (content type %q): %s", contentType, fixed)
	}

	if err := os.WriteFile(path, body, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := d.writeSidecar(path, fixed); err != nil {
		return err
	}

	log.Printf("INFO: downloaded %s into %s", name, folder)
	return nil
}

// writeSidecar records when and from where the file was downloaded.
func (d *Downloader) writeSidecar(path, sourceURL string) error {
	now := time.Now
	if d.Now != nil {
		now = d.Now
	}
	meta := fmt.Sprintf("Downloaded: %s\nSource URL: %s", now().Format(time.RFC3339), sourceURL)
	if err := os.WriteFile(path+".meta", []byte(meta), 0o644); err != nil {
		return fmt.Errorf("failed to write metadata for %s: %w", path, err)
	}
	return nil
}
