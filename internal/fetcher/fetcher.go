package fetcher

import (
	"context"
	"io"
)

// Fetcher defines the interface for downloading remote feed data.
type Fetcher interface {
	// Download fetches the URL with a GET and returns the response body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)

	// Post sends a JSON body to the URL and returns the response body.
	Post(ctx context.Context, url string, body io.Reader) (io.ReadCloser, error)

	// DownloadIfChanged fetches the URL only if the ETag has changed.
	// Returns (body, newETag, changed, error). If not changed, body is nil and changed is false.
	DownloadIfChanged(ctx context.Context, url string, etag string) (io.ReadCloser, string, bool, error)
}
