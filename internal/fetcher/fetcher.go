package fetcher

import (
	"context"
	"io"
)

// Fetcher downloads menu documents that are linked from restaurant pages.
type Fetcher interface {
	// Download fetches the URL and returns the response body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)

	// Fetch downloads the URL into memory, bounded by the configured size limit.
	Fetch(ctx context.Context, url string) ([]byte, error)
}
