package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/rkalani/regharvest/config"
	"github.com/rkalani/regharvest/rename"
	"github.com/rkalani/regharvest/upload"
)

func runRename(args []string) {
	fs := flag.NewFlagSet("rename", flag.ExitOnError)
	dir := fs.String("dir", "pdfs", "Directory of client PDFs to process")
	rosterPath := fs.String("roster", "clients.csv", "Client roster CSV (must have a \"Client Name\" column)")
	envPath := fs.String("env", "", "Path to .env file with upload credentials (default: ./.env)")
	noUpload := fs.Bool("no-upload", false, "Rename only; skip drive uploads")
	fs.Parse(args)

	roster, err := rename.LoadRoster(*rosterPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var uploader rename.Uploader
	if !*noUpload {
		// Missing credentials abort before any file is touched.
		creds, err := config.LoadCredentials(*envPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		uploader = upload.New(creds.GraphURL, creds.AccessToken)
	}

	renamer := &rename.Renamer{
		Dir:      *dir,
		Roster:   roster,
		Uploader: uploader,
	}

	result, err := renamer.Process()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Processed: %d, Failed: %d\n", result.Processed, result.Failed)
}
