// Package catalog queries the Google Books volumes API and maps results into
// the application's search result type.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/booknest/apiserver/config"
	"github.com/booknest/apiserver/types"
)

const (
	defaultBaseURL = "https://www.googleapis.com/books/v1"
	requestTimeout = 10 * time.Second
	maxErrorBody   = 4 << 10
)

// ErrUpstream wraps any failure to reach or parse the external catalog.
var ErrUpstream = errors.New("catalog upstream failure")

// Client issues read-only volume searches against the external catalog.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient constructs a catalog client from config.
func NewClient(cfg config.CatalogConfig) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		baseURL:    baseURL,
	}
}

// Search runs one volumes query. A query the catalog has no items for returns
// an empty slice; any transport, status, or decode failure returns ErrUpstream.
func (c *Client) Search(ctx context.Context, query string) ([]types.SearchResult, error) {
	params := url.Values{}
	params.Set("q", query)
	endpoint := fmt.Sprintf("%s/volumes?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrUpstream, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, string(body))
	}

	var volumes volumesResponse
	if err := json.NewDecoder(resp.Body).Decode(&volumes); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrUpstream, err)
	}

	results := make([]types.SearchResult, 0, len(volumes.Items))
	for _, item := range volumes.Items {
		results = append(results, mapVolume(item))
	}
	return results, nil
}

func mapVolume(item volumeItem) types.SearchResult {
	info := item.VolumeInfo

	// The catalog omits imageLinks entirely for some volumes.
	var image string
	if info.ImageLinks != nil {
		image = info.ImageLinks.Thumbnail
	}

	return types.SearchResult{
		Title:       info.Title,
		Authors:     info.Authors,
		Description: info.Description,
		Image:       image,
		Link:        info.InfoLink,
	}
}
