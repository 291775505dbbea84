package internal

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
)

// maxRedirects bounds redirect chains when fetching media
const maxRedirects = 10

// Fetcher streams remote media to local files
type Fetcher struct {
	client  *http.Client
	verbose bool
}

// NewFetcher creates a fetcher. A nil client gets a default that follows up to
// maxRedirects redirects.
func NewFetcher(client *http.Client, verbose bool) *Fetcher {
	if client == nil {
		client = &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		}
	}
	return &Fetcher{client: client, verbose: verbose}
}

// Fetch downloads url into dst and returns the number of bytes written.
// progress, if non-nil, receives a copy of every chunk; it is created with the
// response content length (-1 when unknown).
func (f *Fetcher) Fetch(ctx context.Context, url, dst string, progress func(total int64) io.Writer) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: building request: %w", ErrDownload, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrDownload, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, fmt.Errorf("%w: unexpected status %s", ErrDownload, resp.Status)
	}
	if resp.Body == nil || resp.Body == http.NoBody {
		return 0, fmt.Errorf("%w: response has no body", ErrDownload)
	}

	out, err := os.Create(dst)
	if err != nil {
		return 0, fmt.Errorf("%w: creating %s: %w", ErrDownload, dst, err)
	}

	var w io.Writer = out
	if progress != nil {
		if pw := progress(resp.ContentLength); pw != nil {
			w = io.MultiWriter(out, pw)
		}
	}

	n, copyErr := io.Copy(w, resp.Body)
	closeErr := out.Close()
	if copyErr != nil {
		return n, fmt.Errorf("%w: streaming body: %w", ErrDownload, copyErr)
	}
	if closeErr != nil {
		return n, fmt.Errorf("%w: closing %s: %w", ErrDownload, dst, closeErr)
	}
	if n == 0 {
		return 0, fmt.Errorf("%w: response body was empty", ErrDownload)
	}

	if f.verbose {
		fmt.Printf("Downloaded %d bytes to %s\n", n, dst)
	}
	return n, nil
}
