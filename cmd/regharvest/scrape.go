package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/rkalani/regharvest/config"
	"github.com/rkalani/regharvest/download"
	"github.com/rkalani/regharvest/fetch"
	"github.com/rkalani/regharvest/manifest"
	"github.com/rkalani/regharvest/scrape"
)

func runScrape(args []string) {
	fs := flag.NewFlagSet("scrape", flag.ExitOnError)
	configPath := fs.String("config", getEnv("REGHARVEST_CONFIG", "regharvest.yaml"), "Path to YAML config file (REGHARVEST_CONFIG)")
	cutoff := fs.String("cutoff", "", "Cutoff date override, YYYY-MM-DD (empty keeps the config value)")
	outDir := fs.String("out", "", "Download directory override")
	manifestPath := fs.String("manifest", "", "Manifest CSV path override")
	fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *cutoff != "" {
		cfg.CutoffDate = *cutoff
	}
	if *outDir != "" {
		cfg.OutputDir = *outDir
	}
	if *manifestPath != "" {
		cfg.ManifestPath = *manifestPath
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cutoffTime, _ := cfg.Cutoff()
	pageDelay, downloadDelay, errorDelay, _ := cfg.Delays()

	writer, err := manifest.NewWriter(cfg.ManifestPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer writer.Close()

	client := fetch.NewClient()
	fixer := scrape.NewURLFixer(cfg.SiteRoot, cfg.AttachDocsBase)

	orch := &scrape.Orchestrator{
		Client:        client,
		Resolver:      scrape.NewResolver(client, fixer),
		Filter:        scrape.DateFilter{Cutoff: cutoffTime},
		Manifest:      writer,
		Seen:          manifest.NewSeenSet(),
		Downloader:    download.New(client, cfg.OutputDir, cfg.MaxRetries, fixer.Fix),
		Folders:       cfg.Folders,
		ItemsPerPage:  cfg.ItemsPerPage,
		PageDelay:     pageDelay,
		DownloadDelay: downloadDelay,
		ErrorDelay:    errorDelay,
	}

	stats := orch.Run()
	if stats.DownloadsFailed > 0 || stats.Unresolved > 0 {
		fmt.Fprintf(os.Stderr, "Completed with %d failed downloads and %d unresolved links (see log)\n",
			stats.DownloadsFailed, stats.Unresolved)
	}
}
