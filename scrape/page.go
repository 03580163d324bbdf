package scrape

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// listingTableID identifies the single listing table on each page.
const listingTableID = "sample_1"

// Row is one listing-table entry as scraped, before link resolution.
type Row struct {
	IssueDate string
	Name      string
	Href      string
}

var entriesPattern = regexp.MustCompile(`of (\d+) entries`)

// ParseListingRows extracts the data rows from a listing page. The header
// row is skipped, and rows with fewer than two cells are ignored. A nil
// result means the table is absent or empty, which signals pagination
// exhaustion to the caller.
func ParseListingRows(doc *goquery.Document) []Row {
	table := doc.Find("table#" + listingTableID)
	if table.Length() == 0 {
		return nil
	}

	var rows []Row
	table.Find("tr").Each(func(i int, tr *goquery.Selection) {
		if i == 0 {
			return // header
		}
		cells := tr.Find("td")
		if cells.Length() < 2 {
			return
		}
		href, _ := cells.Eq(1).Find("a").First().Attr("href")
		rows = append(rows, Row{
			IssueDate: strings.TrimSpace(cells.Eq(0).Text()),
			Name:      strings.TrimSpace(cells.Eq(1).Text()),
			Href:      href,
		})
	})
	return rows
}

// TotalPages computes the folder's page count from the first page. The
// record count in the "Showing X to Y of N entries" summary is preferred;
// the last pagination link's page index is the fallback. One page is
// assumed when neither is present.
func TotalPages(doc *goquery.Document, perPage int) int {
	if info := doc.Find("div.dataTables_info"); info.Length() > 0 {
		if m := entriesPattern.FindStringSubmatch(info.Text()); m != nil {
			total, err := strconv.Atoi(m[1])
			if err == nil && total > 0 {
				return (total + perPage - 1) / perPage
			}
		}
	}

	if links := doc.Find("div.dataTables_paginate a"); links.Length() > 0 {
		if idx, ok := links.Last().Attr("data-dt-idx"); ok {
			if n, err := strconv.Atoi(idx); err == nil && n > 0 {
				return n
			}
		}
	}

	return 1
}
