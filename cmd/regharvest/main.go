package main

import (
	"fmt"
	"os"
)

// getEnv returns the value of an environment variable or a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "scrape":
		runScrape(os.Args[2:])
	case "rename":
		runRename(os.Args[2:])
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("regharvest - regulatory filings archiver")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  regharvest <command> [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  scrape     Scrape configured listing folders and download filings")
	fmt.Println("  rename     Match client PDFs, rename them, and upload to a drive")
	fmt.Println("  help       Show this help message")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  REGHARVEST_CONFIG     Path to YAML config file (default: regharvest.yaml)")
	fmt.Println("  GRAPH_ACCESS_TOKEN    Bearer token for drive uploads (rename only)")
	fmt.Println("  GRAPH_BASE_URL        Graph API root override (rename only)")
}
