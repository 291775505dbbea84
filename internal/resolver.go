package internal

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"
)

// DefaultSignedURLTTL is how long a resolved storage URL stays valid
const DefaultSignedURLTTL = time.Hour

// Resolver turns storage object URLs into signed URLs that can be fetched anonymously.
type Resolver struct {
	signer      Signer
	storageBase string
	ttl         time.Duration
	verbose     bool
}

// NewResolver creates a resolver for objects under storageBase
// (e.g. https://<project>.supabase.co/storage/v1). A nil signer makes every
// URL pass through unchanged.
func NewResolver(signer Signer, storageBase string, ttl time.Duration, verbose bool) *Resolver {
	if ttl <= 0 {
		ttl = DefaultSignedURLTTL
	}
	return &Resolver{
		signer:      signer,
		storageBase: strings.TrimRight(storageBase, "/"),
		ttl:         ttl,
		verbose:     verbose,
	}
}

// Resolve returns a URL usable for a plain GET. Resolution never fails: on any
// problem the original URL is returned.
func (r *Resolver) Resolve(ctx context.Context, rawURL string) string {
	objectPath, ok := r.objectPath(rawURL)
	if !ok {
		return rawURL
	}
	if isSignedObjectURL(rawURL, objectPath) {
		return rawURL
	}

	bucket, path, err := splitObjectPath(objectPath)
	if err != nil {
		r.warn("could not parse storage path %q: %v", objectPath, err)
		return rawURL
	}
	if r.signer == nil {
		return rawURL
	}

	signed, err := r.signer.SignURL(ctx, bucket, path, r.ttl)
	if err != nil || signed == "" {
		r.warn("signing %s/%s failed, using original URL: %v", bucket, path, err)
		return rawURL
	}
	return signed
}

// objectPath returns the part of rawURL after "<storageBase>/object/"
func (r *Resolver) objectPath(rawURL string) (string, bool) {
	if r.storageBase == "" {
		return "", false
	}
	prefix := r.storageBase + "/object/"
	if !strings.HasPrefix(rawURL, prefix) {
		return "", false
	}
	rest := strings.TrimPrefix(rawURL, prefix)
	if i := strings.IndexAny(rest, "?#"); i >= 0 {
		rest = rest[:i]
	}
	return rest, true
}

func isSignedObjectURL(rawURL, objectPath string) bool {
	if strings.HasPrefix(objectPath, "sign/") {
		return true
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return u.Query().Get("token") != ""
}

// splitObjectPath handles public/<bucket>/<path>, authenticated/<bucket>/<path>
// and <bucket>/<path>.
func splitObjectPath(objectPath string) (string, string, error) {
	p := strings.TrimPrefix(objectPath, "public/")
	p = strings.TrimPrefix(p, "authenticated/")

	bucket, path, found := strings.Cut(p, "/")
	if !found || bucket == "" || path == "" {
		return "", "", fmt.Errorf("expected <bucket>/<path>, got %q", objectPath)
	}

	decoded, err := url.PathUnescape(path)
	if err != nil {
		return "", "", fmt.Errorf("decoding object path: %w", err)
	}
	return bucket, decoded, nil
}

func (r *Resolver) warn(format string, args ...any) {
	if r.verbose {
		fmt.Fprintf(os.Stderr, "Warning: "+format+"\n", args...)
	}
}
