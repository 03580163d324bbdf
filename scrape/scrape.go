// Package scrape walks a regulatory site's paginated listing folders,
// resolves each row to an absolute document URL, and drives the manifest
// and downloader.
package scrape

import (
	"fmt"
	"log"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"

	"github.com/rkalani/regharvest/config"
	"github.com/rkalani/regharvest/download"
	"github.com/rkalani/regharvest/fetch"
	"github.com/rkalani/regharvest/manifest"
)

// Stats counts what a run did. Failures surface here and in the log; they
// never abort the run.
type Stats struct {
	RunID            uuid.UUID
	PagesScraped     int
	RowsSeen         int
	FilteredOut      int
	Unresolved       int
	Duplicates       int
	Accepted         int
	ManifestFailures int
	Downloaded       int
	DownloadsFailed  int
}

// Orchestrator owns the run-wide state (seen set, manifest handle) and
// processes folders strictly in order: all pages of a folder are scraped
// before its downloads begin, and no folder's failure stops the next.
type Orchestrator struct {
	Client     *fetch.Client
	Resolver   *Resolver
	Filter     DateFilter
	Manifest   *manifest.Writer
	Seen       *manifest.SeenSet
	Downloader *download.Downloader

	Folders      []config.Folder
	ItemsPerPage int

	// PageDelay paces listing fetches, DownloadDelay paces document
	// fetches, ErrorDelay precedes the single retry of a failed page fetch.
	PageDelay     time.Duration
	DownloadDelay time.Duration
	ErrorDelay    time.Duration

	// SleepFunc is swappable for tests. nil means time.Sleep.
	SleepFunc func(time.Duration)
}

// Run processes every configured folder and returns the run's counters.
// It always reaches the end of the folder list, whatever individual pages
// or downloads did.
func (o *Orchestrator) Run() Stats {
	stats := Stats{RunID: uuid.New()}
	log.Printf("INFO: starting run %s (%d folders)", stats.RunID, len(o.Folders))

	for _, folder := range o.Folders {
		log.Printf("INFO: scraping %s", folder.Name)
		entries := o.scrapeFolder(folder, &stats)

		for i, e := range entries {
			fileName := fmt.Sprintf("%s_%s.pdf", e.Name, e.IssueDate)
			if err := o.Downloader.Download(e.Link, e.Folder, fileName); err != nil {
				log.Printf("ERROR: %v", err)
				stats.DownloadsFailed++
			} else {
				stats.Downloaded++
			}
			if i < len(entries)-1 {
				o.pause(o.DownloadDelay)
			}
		}
	}

	log.Printf("INFO: run %s complete: %d pages, %d accepted, %d downloaded, %d failed, %d duplicates, %d unresolved, %d filtered, %d unrecorded",
		stats.RunID, stats.PagesScraped, stats.Accepted, stats.Downloaded,
		stats.DownloadsFailed, stats.Duplicates, stats.Unresolved, stats.FilteredOut,
		stats.ManifestFailures)
	return stats
}

// scrapeFolder walks one folder's pages in ascending order and returns its
// accepted entries, already written to the manifest.
func (o *Orchestrator) scrapeFolder(folder config.Folder, stats *Stats) []manifest.Entry {
	firstURL, err := BuildPageURL(folder.URL, 1, o.ItemsPerPage)
	if err != nil {
		log.Printf("ERROR: %s: %v", folder.Name, err)
		return nil
	}
	firstDoc, err := o.fetchPage(firstURL)
	if err != nil {
		log.Printf("ERROR: %s: failed to fetch first page: %v", folder.Name, err)
		return nil
	}
	totalPages := TotalPages(firstDoc, o.ItemsPerPage)
	log.Printf("INFO: %s: %d page(s)", folder.Name, totalPages)

	var entries []manifest.Entry
	for page := 1; page <= totalPages; page++ {
		doc := firstDoc
		if page > 1 {
			o.pause(o.PageDelay)
			pageURL, err := BuildPageURL(folder.URL, page, o.ItemsPerPage)
			if err != nil {
				log.Printf("ERROR: %s: %v", folder.Name, err)
				continue
			}
			doc, err = o.fetchPage(pageURL)
			if err != nil {
				log.Printf("ERROR: %s: failed to fetch page %d/%d: %v", folder.Name, page, totalPages, err)
				continue
			}
		}

		rows := ParseListingRows(doc)
		if len(rows) == 0 {
			log.Printf("INFO: %s: no rows on page %d, stopping", folder.Name, page)
			break
		}
		stats.PagesScraped++

		for _, row := range rows {
			stats.RowsSeen++

			if !o.Filter.Admit(row.IssueDate) {
				stats.FilteredOut++
				continue
			}

			link := o.Resolver.Resolve(row.Href, folder.URL)
			if link == "" {
				log.Printf("WARN: %s: could not resolve link for %q", folder.Name, row.Name)
				stats.Unresolved++
				continue
			}

			if o.Seen.Seen(link) {
				stats.Duplicates++
				continue
			}

			entry := manifest.Entry{
				Folder:    folder.Name,
				Name:      row.Name,
				IssueDate: row.IssueDate,
				Link:      link,
			}
			// An entry that could not be recorded is not downloaded and not
			// marked seen, so a later folder may record it instead.
			if err := o.Manifest.Append(entry); err != nil {
				log.Printf("ERROR: failed to record %s: %v", link, err)
				stats.ManifestFailures++
				continue
			}
			o.Seen.Mark(link)
			entries = append(entries, entry)
			stats.Accepted++
		}
	}

	return entries
}

// fetchPage fetches a listing page, retrying once after ErrorDelay on
// failure before giving up on that page.
func (o *Orchestrator) fetchPage(url string) (*goquery.Document, error) {
	doc, err := o.Client.GetDocument(url)
	if err == nil {
		return doc, nil
	}
	log.Printf("WARN: fetch failed, retrying once: %v", err)
	o.pause(o.ErrorDelay)
	return o.Client.GetDocument(url)
}

func (o *Orchestrator) pause(d time.Duration) {
	if d <= 0 {
		return
	}
	if o.SleepFunc != nil {
		o.SleepFunc(d)
		return
	}
	time.Sleep(d)
}
