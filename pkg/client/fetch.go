package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/chainguard-dev/clog"
)

//go:generate mockgen -source=fetch.go -destination=mocks/mock_fetcher.go -package=mocks

// ErrUnexpectedStatus is returned when a server answers with a non-200 status
var ErrUnexpectedStatus = errors.New("unexpected HTTP status")

// DefaultUserAgent identifies the tool to repositories
const DefaultUserAgent = "Mia-CLI/1.0"

// Fetcher retrieves the body behind a URL
type Fetcher interface {
	// Fetch returns the body and its length (-1 when unknown)
	Fetch(ctx context.Context, rawURL string) (io.ReadCloser, int64, error)
}

// HTTPFetcher fetches http(s) and file URLs
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
}

// NewHTTPFetcher creates a fetcher; a zero timeout leaves requests unbounded
func NewHTTPFetcher(timeout time.Duration, userAgent string) *HTTPFetcher {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &HTTPFetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// Fetch implements Fetcher
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (io.ReadCloser, int64, error) {
	// Local mirrors
	if strings.HasPrefix(rawURL, "file://") {
		return f.openLocal(rawURL)
	}

	clog.FromContext(ctx).Debug("fetching", "url", rawURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, err
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, 0, fmt.Errorf("%w: GET %s: %s", ErrUnexpectedStatus, rawURL, resp.Status)
	}

	return resp.Body, resp.ContentLength, nil
}

// openLocal opens a file:// URL
func (f *HTTPFetcher) openLocal(rawURL string) (io.ReadCloser, int64, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, 0, err
	}

	file, err := os.Open(u.Path)
	if err != nil {
		return nil, 0, fmt.Errorf("source file not accessible: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, 0, err
	}
	if info.IsDir() {
		file.Close()
		return nil, 0, fmt.Errorf("source is a directory, not a file: %s", u.Path)
	}

	return file, info.Size(), nil
}
