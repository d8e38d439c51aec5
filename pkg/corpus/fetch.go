package corpus

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// MaxPageSize caps a fetched page.
const MaxPageSize = 10 * 1024 * 1024

// IsURL reports whether loc is an http(s) URL rather than a file path.
func IsURL(loc string) bool {
	return strings.HasPrefix(loc, "http://") || strings.HasPrefix(loc, "https://")
}

// DefaultFetchClient is used when a Builder has no Client.
var DefaultFetchClient = &http.Client{Timeout: 30 * time.Second}

// FetchPage downloads an HTML page, presenting as a desktop browser so news
// sites do not answer with a bot wall.
func FetchPage(ctx context.Context, client *http.Client, rawURL string) ([]byte, error) {
	if client == nil {
		client = DefaultFetchClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9,ja;q=0.8")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: got status code %d", rawURL, resp.StatusCode)
	}
	if resp.ContentLength > MaxPageSize {
		return nil, fmt.Errorf("fetch %s: content-length %d exceeds limit of %d bytes", rawURL, resp.ContentLength, MaxPageSize)
	}

	// Read one byte past the limit to tell "exactly at limit" from truncated.
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxPageSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if len(body) > MaxPageSize {
		return nil, fmt.Errorf("fetch %s: body exceeds limit of %d bytes", rawURL, MaxPageSize)
	}
	return body, nil
}
