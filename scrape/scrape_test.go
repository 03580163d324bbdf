package scrape

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rkalani/regharvest/config"
	"github.com/rkalani/regharvest/download"
	"github.com/rkalani/regharvest/fetch"
	"github.com/rkalani/regharvest/manifest"
)

const listingPage = `<html><body>
<div class="dataTables_info">Showing 1 to 2 of 2 entries</div>
<table id="sample_1">
	<tr><th>Date</th><th>Title</th></tr>
	<tr><td>05-03-2023</td><td><a href="/docs/direct.pdf">Margin Circular</a></td></tr>
	<tr><td>01-02-2023</td><td><a href="/pages/view2.html">Settlement Order</a></td></tr>
</table>
</body></html>`

// siteFixture is a small two-document site: one row links the PDF
// directly, the other goes through an embedded viewer page.
type siteFixture struct {
	srv        *httptest.Server
	pdfFetches atomic.Int64
}

func newSiteFixture(t *testing.T) *siteFixture {
	t.Helper()
	f := &siteFixture{}

	mux := http.NewServeMux()
	mux.HandleFunc("/listing", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, listingPage)
	})
	mux.HandleFunc("/pages/view2.html", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><iframe src="/viewer.html?file=/sebi_data/attachdocs/embed.pdf"></iframe></body></html>`)
	})
	servePDF := func(w http.ResponseWriter, r *http.Request) {
		f.pdfFetches.Add(1)
		w.Header().Set("Content-Type", "application/pdf")
		fmt.Fprint(w, "%PDF-1.4 fake body")
	}
	mux.HandleFunc("/docs/direct.pdf", servePDF)
	mux.HandleFunc("/sebi_data/attachdocs/embed.pdf", servePDF)

	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

// newOrchestrator wires a full pipeline against the fixture site with
// delays disabled.
func newOrchestrator(t *testing.T, f *siteFixture, folders []config.Folder, cutoff *time.Time) (*Orchestrator, string, string) {
	t.Helper()
	dir := t.TempDir()
	manifestPath := filepath.Join(dir, "pdf_links.csv")
	outDir := filepath.Join(dir, "downloaded_data")

	writer, err := manifest.NewWriter(manifestPath)
	require.NoError(t, err)
	t.Cleanup(func() { writer.Close() })

	client := fetch.NewClient()
	fixer := NewURLFixer(f.srv.URL, f.srv.URL+"/sebi_data/attachdocs/")

	return &Orchestrator{
		Client:       client,
		Resolver:     NewResolver(client, fixer),
		Filter:       DateFilter{Cutoff: cutoff},
		Manifest:     writer,
		Seen:         manifest.NewSeenSet(),
		Downloader:   download.New(client, outDir, 3, fixer.Fix),
		Folders:      folders,
		ItemsPerPage: 10,
		SleepFunc:    func(time.Duration) {},
	}, manifestPath, outDir
}

func readManifest(t *testing.T, path string) [][]string {
	t.Helper()
	data, err := os.Open(path)
	require.NoError(t, err)
	defer data.Close()
	records, err := csv.NewReader(data).ReadAll()
	require.NoError(t, err)
	return records
}

// TestRun_DownloadsAndManifest verifies a full pass: both rows accepted,
// both documents downloaded with sidecars, manifest recorded in order
func TestRun_DownloadsAndManifest(t *testing.T) {
	f := newSiteFixture(t)
	folders := []config.Folder{{Name: "Circulars", URL: f.srv.URL + "/listing"}}
	orch, manifestPath, outDir := newOrchestrator(t, f, folders, nil)

	stats := orch.Run()

	assert.Equal(t, 1, stats.PagesScraped)
	assert.Equal(t, 2, stats.RowsSeen)
	assert.Equal(t, 2, stats.Accepted)
	assert.Equal(t, 2, stats.Downloaded)
	assert.Equal(t, 0, stats.DownloadsFailed)
	assert.Equal(t, 0, stats.Unresolved)
	assert.Equal(t, int64(2), f.pdfFetches.Load())

	records := readManifest(t, manifestPath)
	require.Len(t, records, 3)
	assert.Equal(t, manifest.Header, records[0])
	assert.Equal(t, []string{"Circulars", "Margin Circular", "05-03-2023", f.srv.URL + "/docs/direct.pdf"}, records[1])
	assert.Equal(t, []string{"Circulars", "Settlement Order", "01-02-2023", f.srv.URL + "/sebi_data/attachdocs/embed.pdf"}, records[2])

	for _, name := range []string{"Margin Circular_05-03-2023.pdf", "Settlement Order_01-02-2023.pdf"} {
		path := filepath.Join(outDir, "Circulars", name)
		body, err := os.ReadFile(path)
		require.NoError(t, err, "expected %s to exist", path)
		assert.Contains(t, string(body), "%PDF")

		meta, err := os.ReadFile(path + ".meta")
		require.NoError(t, err)
		assert.Contains(t, string(meta), "Source URL: "+f.srv.URL)
	}
}

// TestRun_CutoffFiltersEverything verifies filtered rows trigger no link
// resolution and no downloads
func TestRun_CutoffFiltersEverything(t *testing.T) {
	f := newSiteFixture(t)
	folders := []config.Folder{{Name: "Circulars", URL: f.srv.URL + "/listing"}}
	cutoff := time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC)
	orch, manifestPath, _ := newOrchestrator(t, f, folders, &cutoff)

	stats := orch.Run()

	assert.Equal(t, 2, stats.RowsSeen)
	assert.Equal(t, 2, stats.FilteredOut)
	assert.Equal(t, 0, stats.Accepted)
	assert.Equal(t, 0, stats.Downloaded)
	assert.Equal(t, int64(0), f.pdfFetches.Load(), "filtered rows should cost no document fetches")

	records := readManifest(t, manifestPath)
	assert.Len(t, records, 1, "manifest should hold only the header")
}

// TestRun_DeduplicatesAcrossFolders verifies a document reached from two
// folders is recorded and downloaded once
func TestRun_DeduplicatesAcrossFolders(t *testing.T) {
	f := newSiteFixture(t)
	folders := []config.Folder{
		{Name: "Circulars", URL: f.srv.URL + "/listing"},
		{Name: "Master Circulars", URL: f.srv.URL + "/listing"},
	}
	orch, manifestPath, _ := newOrchestrator(t, f, folders, nil)

	stats := orch.Run()

	assert.Equal(t, 4, stats.RowsSeen)
	assert.Equal(t, 2, stats.Accepted)
	assert.Equal(t, 2, stats.Duplicates)
	assert.Equal(t, 2, stats.Downloaded)
	assert.Equal(t, int64(2), f.pdfFetches.Load())

	records := readManifest(t, manifestPath)
	require.Len(t, records, 3)
	assert.Equal(t, "Circulars", records[1][0], "first folder wins the duplicate")
	assert.Equal(t, "Circulars", records[2][0])
}

// TestRun_PaginatesInOrder verifies pages are fetched ascending with the
// inter-page delay, rows land in the manifest in page order, and an empty
// page stops the folder early
func TestRun_PaginatesInOrder(t *testing.T) {
	var starts []string
	mux := http.NewServeMux()
	mux.HandleFunc("/listing", func(w http.ResponseWriter, r *http.Request) {
		start := r.URL.Query().Get("start")
		starts = append(starts, start)
		switch start {
		case "0":
			fmt.Fprint(w, `<html><body>
				<div class="dataTables_info">Showing 1 to 10 of 25 entries</div>
				<table id="sample_1">
					<tr><th>Date</th><th>Title</th></tr>
					<tr><td>05-03-2023</td><td><a href="/docs/a1.pdf">Alpha Circular</a></td></tr>
					<tr><td>04-03-2023</td><td><a href="/docs/a2.pdf">Beta Circular</a></td></tr>
				</table></body></html>`)
		case "10":
			fmt.Fprint(w, `<html><body>
				<table id="sample_1">
					<tr><th>Date</th><th>Title</th></tr>
					<tr><td>03-03-2023</td><td><a href="/docs/b1.pdf">Gamma Circular</a></td></tr>
				</table></body></html>`)
		default:
			// The last page advertised by the entry count carries no rows.
			fmt.Fprint(w, `<html><body><table id="sample_1"><tr><th>Date</th><th>Title</th></tr></table></body></html>`)
		}
	})
	mux.HandleFunc("/docs/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		fmt.Fprint(w, "%PDF-1.4 fake body")
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	manifestPath := filepath.Join(dir, "pdf_links.csv")
	writer, err := manifest.NewWriter(manifestPath)
	require.NoError(t, err)
	t.Cleanup(func() { writer.Close() })

	client := fetch.NewClient()
	fixer := NewURLFixer(srv.URL, srv.URL+"/sebi_data/attachdocs/")

	var sleeps []time.Duration
	orch := &Orchestrator{
		Client:       client,
		Resolver:     NewResolver(client, fixer),
		Manifest:     writer,
		Seen:         manifest.NewSeenSet(),
		Downloader:   download.New(client, filepath.Join(dir, "downloaded_data"), 3, fixer.Fix),
		Folders:      []config.Folder{{Name: "Circulars", URL: srv.URL + "/listing"}},
		ItemsPerPage: 10,
		PageDelay:    2 * time.Second,
		SleepFunc:    func(d time.Duration) { sleeps = append(sleeps, d) },
	}

	stats := orch.Run()

	assert.Equal(t, []string{"0", "10", "20"}, starts, "pages should be fetched ascending")
	assert.Equal(t, 2, stats.PagesScraped, "the empty last page should not count")
	assert.Equal(t, 3, stats.Accepted)
	assert.Equal(t, 3, stats.Downloaded)
	assert.Equal(t, []time.Duration{2 * time.Second, 2 * time.Second}, sleeps,
		"one pause before each page after the first")

	records := readManifest(t, manifestPath)
	require.Len(t, records, 4)
	assert.Equal(t, "Alpha Circular", records[1][1])
	assert.Equal(t, "Beta Circular", records[2][1])
	assert.Equal(t, "Gamma Circular", records[3][1])
}

// TestRun_ManifestFailureSkipsDownload verifies an entry that cannot be
// recorded is neither downloaded nor marked seen
func TestRun_ManifestFailureSkipsDownload(t *testing.T) {
	f := newSiteFixture(t)
	folders := []config.Folder{{Name: "Circulars", URL: f.srv.URL + "/listing"}}
	orch, _, _ := newOrchestrator(t, f, folders, nil)

	// Closing the writer up front makes every append fail.
	require.NoError(t, orch.Manifest.Close())

	stats := orch.Run()

	assert.Equal(t, 2, stats.ManifestFailures)
	assert.Equal(t, 0, stats.Accepted)
	assert.Equal(t, 0, stats.Downloaded)
	assert.Equal(t, int64(0), f.pdfFetches.Load(), "unrecorded entries must not be downloaded")
	assert.Equal(t, 0, orch.Seen.Len(), "unrecorded entries must stay eligible for later folders")
}

// TestRun_FirstPageFetchFailure verifies an unreachable folder is skipped
// without aborting the run
func TestRun_FirstPageFetchFailure(t *testing.T) {
	f := newSiteFixture(t)
	folders := []config.Folder{
		{Name: "Broken", URL: f.srv.URL + "/no-such-listing"},
		{Name: "Circulars", URL: f.srv.URL + "/listing"},
	}
	orch, _, _ := newOrchestrator(t, f, folders, nil)

	stats := orch.Run()

	assert.Equal(t, 2, stats.Accepted, "the healthy folder should still be processed")
	assert.Equal(t, 2, stats.Downloaded)
}
