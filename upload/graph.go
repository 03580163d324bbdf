// Package upload pushes files to a OneDrive via the Microsoft Graph API
// and returns anonymous shareable links.
package upload

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/rkalani/regharvest/fetch"
)

// Client uploads against a Graph drive using a pre-acquired bearer token.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
	Retry   fetch.RetryPolicy
}

// New creates a client with the default retry policy: three attempts with
// a fixed two-second delay between them.
func New(baseURL, token string) *Client {
	return &Client{
		BaseURL: baseURL,
		Token:   token,
		HTTP:    &http.Client{Timeout: 60 * time.Second},
		Retry: fetch.RetryPolicy{
			MaxAttempts: 3,
			Backoff:     fetch.FixedBackoff(2 * time.Second),
		},
	}
}

// Upload sends the file to the drive root and returns a shareable link.
// The whole upload-then-share sequence is retried together; exhausting
// retries is a per-file failure for the caller to count.
func (c *Client) Upload(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	name := filepath.Base(path)

	var link string
	err = c.Retry.Do(func() error {
		itemID, err := c.putContent(name, data)
		if err != nil {
			return err
		}
		l, err := c.createLink(itemID)
		if err != nil {
			return err
		}
		link = l
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("upload of %s: %w", name, err)
	}
	return link, nil
}

// putContent uploads the file bytes to the drive root and returns the new
// item's ID.
func (c *Client) putContent(name string, data []byte) (string, error) {
	uploadURL := fmt.Sprintf("%s/me/drive/root:/%s:/content", c.BaseURL, url.PathEscape(name))
	req, err := http.NewRequest(http.MethodPut, uploadURL, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)

	var item struct {
		ID string `json:"id"`
	}
	if err := c.do(req, &item); err != nil {
		return "", err
	}
	if item.ID == "" {
		return "", fmt.Errorf("upload response carried no item id")
	}
	return item.ID, nil
}

// createLink requests an anonymous view link for an uploaded item.
func (c *Client) createLink(itemID string) (string, error) {
	body, err := json.Marshal(map[string]string{
		"type":  "view",
		"scope": "anonymous",
	})
	if err != nil {
		return "", err
	}

	linkURL := fmt.Sprintf("%s/me/drive/items/%s/createLink", c.BaseURL, itemID)
	req, err := http.NewRequest(http.MethodPost, linkURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create link request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("Content-Type", "application/json")

	var resp struct {
		Link struct {
			WebURL string `json:"webUrl"`
		} `json:"link"`
	}
	if err := c.do(req, &resp); err != nil {
		return "", err
	}
	if resp.Link.WebURL == "" {
		return "", fmt.Errorf("link response carried no web URL")
	}
	return resp.Link.WebURL, nil
}

// do executes a request and decodes the JSON response into out.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("HTTP error: %d %s: %s", resp.StatusCode, resp.Status, bytes.TrimSpace(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
