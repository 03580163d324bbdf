// Package config loads run configuration for the scraper and renamer.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Folder maps a category label to its listing URL. Folders are scraped in
// the order they appear in the config file.
type Folder struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// Config is the YAML run configuration. Any field left unset in the file
// keeps its default value.
type Config struct {
	SiteRoot       string   `yaml:"site_root"`
	AttachDocsBase string   `yaml:"attachdocs_base"`
	CutoffDate     string   `yaml:"cutoff_date"` // YYYY-MM-DD, empty means no cutoff
	ItemsPerPage   int      `yaml:"items_per_page"`
	MaxRetries     int      `yaml:"max_retries"`
	PageDelay      string   `yaml:"page_delay"`
	DownloadDelay  string   `yaml:"download_delay"`
	ErrorDelay     string   `yaml:"error_delay"`
	OutputDir      string   `yaml:"output_dir"`
	ManifestPath   string   `yaml:"manifest_path"`
	Folders        []Folder `yaml:"folders"`
}

// Default returns the built-in configuration targeting the SEBI listing
// pages.
func Default() *Config {
	return &Config{
		SiteRoot:       "https://www.sebi.gov.in",
		AttachDocsBase: "https://www.sebi.gov.in/sebi_data/attachdocs/",
		ItemsPerPage:   10,
		MaxRetries:     3,
		PageDelay:      "2s",
		DownloadDelay:  "2s",
		ErrorDelay:     "5s",
		OutputDir:      "downloaded_data",
		ManifestPath:   "pdf_links.csv",
		Folders: []Folder{
			{Name: "Legal", URL: "https://www.sebi.gov.in/sebiweb/home/HomeAction.do?doListingLegal=yes&sid=1&ssid=2&smid=0"},
			{Name: "Rules", URL: "https://www.sebi.gov.in/sebiweb/home/HomeAction.do?doListing=yes&sid=1&ssid=2&smid=0"},
			{Name: "Regulations", URL: "https://www.sebi.gov.in/sebiweb/home/HomeAction.do?doListing=yes&sid=1&ssid=3&smid=0"},
			{Name: "Advisory", URL: "https://www.sebi.gov.in/sebiweb/home/HomeAction.do?doListing=yes&sid=1&ssid=96&smid=0"},
			{Name: "Circulars", URL: "https://www.sebi.gov.in/sebiweb/home/HomeAction.do?doListing=yes&sid=1&ssid=7&smid=0"},
			{Name: "Master Circulars", URL: "https://www.sebi.gov.in/sebiweb/home/HomeAction.do?doListing=yes&sid=1&ssid=6&smid=0"},
			{Name: "Guidelines", URL: "https://www.sebi.gov.in/sebiweb/home/HomeAction.do?doListing=yes&sid=1&ssid=85&smid=0"},
			{Name: "Gazette Notification", URL: "https://www.sebi.gov.in/sebiweb/home/HomeAction.do?doListing=yes&sid=1&ssid=82&smid=0"},
		},
	}
}

// Load reads configuration from a YAML file, layered over the defaults.
// An empty path or a missing file yields the defaults (not an error); a
// file that exists but cannot be parsed is an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration is usable. Configuration errors
// are fatal: the run must not start on a bad config.
func (c *Config) Validate() error {
	if c.ItemsPerPage < 1 {
		return fmt.Errorf("config error: items_per_page must be positive")
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("config error: max_retries must be positive")
	}
	if len(c.Folders) == 0 {
		return fmt.Errorf("config error: no folders configured")
	}
	for _, f := range c.Folders {
		if f.Name == "" || f.URL == "" {
			return fmt.Errorf("config error: folder entries need both name and url")
		}
	}
	if _, err := c.Cutoff(); err != nil {
		return err
	}
	if _, _, _, err := c.Delays(); err != nil {
		return err
	}
	return nil
}

// Cutoff parses the configured cutoff date. Returns nil when no cutoff is
// set.
func (c *Config) Cutoff() (*time.Time, error) {
	if c.CutoffDate == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", c.CutoffDate)
	if err != nil {
		return nil, fmt.Errorf("config error: invalid cutoff_date %q (want YYYY-MM-DD): %w", c.CutoffDate, err)
	}
	return &t, nil
}

// Delays parses the three pacing delays: between page fetches, between
// downloads, and before retrying a failed page fetch.
func (c *Config) Delays() (page, download, onError time.Duration, err error) {
	if page, err = time.ParseDuration(c.PageDelay); err != nil {
		return 0, 0, 0, fmt.Errorf("config error: invalid page_delay %q: %w", c.PageDelay, err)
	}
	if download, err = time.ParseDuration(c.DownloadDelay); err != nil {
		return 0, 0, 0, fmt.Errorf("config error: invalid download_delay %q: %w", c.DownloadDelay, err)
	}
	if onError, err = time.ParseDuration(c.ErrorDelay); err != nil {
		return 0, 0, 0, fmt.Errorf("config error: invalid error_delay %q: %w", c.ErrorDelay, err)
	}
	return page, download, onError, nil
}
