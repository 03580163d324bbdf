package scrape

import (
	"log"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/rkalani/regharvest/fetch"
)

// Strategy inspects a fetched viewer page and returns a candidate document
// URL, or "" when the page gives it nothing. Strategies are pure over the
// page content, so adding one never touches the orchestration logic.
type Strategy func(doc *goquery.Document, rawHTML string) string

// Resolver turns a listing row's anchor into an absolute PDF URL. Direct
// .pdf anchors resolve immediately; .html anchors point at viewer pages
// that embed the document, which are fetched and searched by an ordered
// list of strategies.
type Resolver struct {
	Client *fetch.Client
	Fixer  URLFixer

	strategies []Strategy
}

// NewResolver builds a resolver with the default strategy order: iframe
// source, then the first .pdf anchor, then an attachment-store path match
// over the raw page text.
func NewResolver(client *fetch.Client, fixer URLFixer) *Resolver {
	r := &Resolver{Client: client, Fixer: fixer}
	r.strategies = []Strategy{
		iframeSource,
		firstPDFAnchor,
		storePathPattern(fixer.StorePath()),
	}
	return r
}

// Resolve returns the absolute document URL for a row's href, or "" when
// the link cannot be resolved (the row is skipped, not fatal).
func (r *Resolver) Resolve(href, pageBaseURL string) string {
	if href == "" {
		return ""
	}
	abs := resolveURL(pageBaseURL, href)

	if strings.HasSuffix(abs, ".pdf") {
		return r.Fixer.Fix(abs)
	}
	if !strings.HasSuffix(abs, ".html") {
		return ""
	}

	rawHTML, err := r.Client.GetHTML(abs)
	if err != nil {
		log.Printf("WARN: failed to fetch viewer page %s: %v", abs, err)
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		log.Printf("WARN: failed to parse viewer page %s: %v", abs, err)
		return ""
	}

	for _, strategy := range r.strategies {
		if candidate := strategy(doc, rawHTML); candidate != "" {
			return r.Fixer.Fix(candidate)
		}
	}
	return ""
}

// iframeSource reads the first iframe's src. Viewer pages usually embed
// the document behind a "file=" query fragment; some older ones point the
// iframe straight at the PDF.
func iframeSource(doc *goquery.Document, _ string) string {
	src, ok := doc.Find("iframe").First().Attr("src")
	if !ok {
		return ""
	}
	if i := strings.LastIndex(src, "file="); i >= 0 {
		return src[i+len("file="):]
	}
	if strings.HasSuffix(src, ".pdf") {
		return src
	}
	return ""
}

// firstPDFAnchor returns the first in-page anchor whose href ends in .pdf.
func firstPDFAnchor(doc *goquery.Document, _ string) string {
	var href string
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		h, _ := s.Attr("href")
		if strings.HasSuffix(h, ".pdf") {
			href = h
			return false
		}
		return true
	})
	return href
}

// storePathPattern matches attachment-store PDF paths anywhere in the raw
// page text, with or without the leading slash. Last-resort fallback for
// viewer pages that build the embed URL in script.
func storePathPattern(storePath string) Strategy {
	if storePath == "" {
		return func(*goquery.Document, string) string { return "" }
	}
	quoted := regexp.QuoteMeta(storePath[1:] + "/")
	pattern := regexp.MustCompile(`(?:` + quoted + `|/` + quoted + `)[^"']+\.pdf`)
	return func(_ *goquery.Document, rawHTML string) string {
		return pattern.FindString(rawHTML)
	}
}
