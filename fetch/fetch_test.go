package fetch

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestGet_SendsUserAgent verifies every request carries the browser UA
func TestGet_SendsUserAgent(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
	}))
	defer srv.Close()

	resp, err := NewClient().Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, DefaultUserAgent, gotUA)
}

// TestGet_NonSuccessStatus verifies non-2xx responses become errors
func TestGet_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not here", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewClient().Get(srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

// TestGetHTML verifies the body comes back as a string
func TestGetHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body>hello</body></html>")
	}))
	defer srv.Close()

	body, err := NewClient().GetHTML(srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "<html><body>hello</body></html>", body)
}

// TestGetDocument verifies the body parses into a queryable document
func TestGetDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><h1 id="title">Listing</h1></body></html>`)
	}))
	defer srv.Close()

	doc, err := NewClient().GetDocument(srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "Listing", doc.Find("#title").Text())
}

// TestGet_InvalidURL verifies request construction failures surface
func TestGet_InvalidURL(t *testing.T) {
	_, err := NewClient().Get("://not-a-url")
	assert.Error(t, err)
}
