// Package fetcher retrieves catalog files from local paths, HTTP(S) and FTP
// locations and decodes tabular CSV and XLSX content into rows.
package fetcher

import (
	"context"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/rotisserie/eris"
)

// Fetcher downloads the content at a location.
type Fetcher interface {
	Download(ctx context.Context, location string) (io.ReadCloser, error)
}

// Router dispatches a location to the fetcher registered for its scheme.
// Locations without a scheme are read from the local filesystem.
type Router struct {
	schemes map[string]Fetcher
}

// NewRouter creates a Router with HTTP(S) and FTP fetchers.
func NewRouter(httpOpts HTTPOptions, ftpOpts FTPOptions) *Router {
	h := NewHTTPFetcher(httpOpts)
	return &Router{schemes: map[string]Fetcher{
		"http":  h,
		"https": h,
		"ftp":   NewFTPFetcher(ftpOpts),
	}}
}

// Register overrides the fetcher for scheme.
func (r *Router) Register(scheme string, f Fetcher) {
	r.schemes[strings.ToLower(scheme)] = f
}

// Download implements Fetcher.
func (r *Router) Download(ctx context.Context, location string) (io.ReadCloser, error) {
	if !IsRemote(location) {
		f, err := os.Open(location)
		if err != nil {
			return nil, eris.Wrapf(err, "fetcher: open %s", location)
		}
		return f, nil
	}
	u, err := url.Parse(location)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: parse %s", location)
	}
	f, ok := r.schemes[strings.ToLower(u.Scheme)]
	if !ok {
		return nil, eris.Errorf("fetcher: unsupported scheme %q", u.Scheme)
	}
	return f.Download(ctx, location)
}

// IsRemote reports whether location carries a URL scheme.
func IsRemote(location string) bool {
	i := strings.Index(location, "://")
	return i > 0 && !strings.ContainsAny(location[:i], `/\`)
}

// Extension returns the lower-cased file extension of location, ignoring
// any URL query or fragment.
func Extension(location string) string {
	path := location
	if IsRemote(location) {
		if u, err := url.Parse(location); err == nil {
			path = u.Path
		}
	}
	i := strings.LastIndex(path, ".")
	if i < 0 || strings.ContainsAny(path[i:], `/\`) {
		return ""
	}
	return strings.ToLower(path[i:])
}
