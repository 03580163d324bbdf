package scrape

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// BuildPageURL rewrites a listing URL for the given 1-based page number.
// The site paginates with start/length query parameters plus a bm mode
// flag; those three are overwritten and every other parameter on the base
// URL is preserved.
func BuildPageURL(base string, page, perPage int) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid listing URL %q: %w", base, err)
	}

	q := u.Query()
	q.Set("start", strconv.Itoa((page-1)*perPage))
	q.Set("length", strconv.Itoa(perPage))
	q.Set("bm", "normal")
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// URLFixer normalizes document URLs scraped from listing rows and viewer
// pages. Paths under the site's attachment store are joined against the
// site root; anything else relative is joined against the attachment-store
// base itself.
type URLFixer struct {
	siteRoot  string
	storeBase string
	storePath string // attachment-store path with leading slash, no trailing slash
}

// NewURLFixer derives the attachment-store path from the store base URL,
// e.g. "https://host/sebi_data/attachdocs/" yields "/sebi_data/attachdocs".
func NewURLFixer(siteRoot, storeBase string) URLFixer {
	f := URLFixer{siteRoot: siteRoot, storeBase: storeBase}
	if u, err := url.Parse(storeBase); err == nil {
		f.storePath = strings.TrimSuffix(u.Path, "/")
	}
	return f
}

// StorePath returns the attachment-store path, leading slash included.
func (f URLFixer) StorePath() string {
	return f.storePath
}

// Fix normalizes a document URL. Empty input stays empty (an unresolvable
// link); absolute URLs pass through unchanged.
func (f URLFixer) Fix(raw string) string {
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, "http") {
		return raw
	}
	if f.storePath != "" {
		if strings.HasPrefix(raw, f.storePath) {
			return resolveURL(f.siteRoot, raw)
		}
		if strings.HasPrefix(raw, f.storePath[1:]) {
			return resolveURL(f.siteRoot, "/"+raw)
		}
	}
	return resolveURL(f.storeBase, raw)
}

// resolveURL joins ref against base. Unparseable input falls back to the
// ref unchanged rather than dropping the row.
func resolveURL(base, ref string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}
