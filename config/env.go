package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// DefaultGraphBaseURL is the Microsoft Graph API root used for uploads.
const DefaultGraphBaseURL = "https://graph.microsoft.com/v1.0"

// Credentials holds what the uploader needs from the environment. The
// access token is acquired out of band; this tool never runs the OAuth
// flow itself.
type Credentials struct {
	AccessToken string
	GraphURL    string
}

// LoadCredentials reads uploader credentials from a .env file (if present)
// and the process environment. A missing GRAPH_ACCESS_TOKEN is a fatal
// configuration error for commands that upload.
func LoadCredentials(envPath string) (*Credentials, error) {
	// A missing .env file is fine; variables may come from the environment.
	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	token := os.Getenv("GRAPH_ACCESS_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("config error: GRAPH_ACCESS_TOKEN is not set (check your .env file)")
	}

	graphURL := os.Getenv("GRAPH_BASE_URL")
	if graphURL == "" {
		graphURL = DefaultGraphBaseURL
	}

	return &Credentials{AccessToken: token, GraphURL: graphURL}, nil
}
