package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-cleanhttp"
)

// Source fetches the site documents (games.json, covers, icons) by name.
type Source interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	String() string
}

// NewSource picks an HTTP source for http(s) locations and a directory
// source for everything else.
func NewSource(location string) (Source, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, fmt.Errorf("empty source location")
	}
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return NewHTTPSource(location)
	}
	info, err := os.Stat(location)
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", location, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("source %s: not a directory", location)
	}
	return DirSource(location), nil
}

// DirSource serves documents from a local site directory.
type DirSource string

func (d DirSource) Open(_ context.Context, name string) (io.ReadCloser, error) {
	return os.Open(filepath.Join(string(d), filepath.FromSlash(name)))
}

func (d DirSource) String() string { return string(d) }

// HTTPSource fetches documents relative to a base URL, e.g. a GitHub Pages
// deployment of the static site.
type HTTPSource struct {
	base   *url.URL
	client *http.Client
}

func NewHTTPSource(base string) (*HTTPSource, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse source url: %w", err)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return &HTTPSource{base: u, client: cleanhttp.DefaultPooledClient()}, nil
}

func (h *HTTPSource) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	ref := &url.URL{Path: path.Clean(strings.TrimPrefix(name, "/"))}
	target := h.base.ResolveReference(ref)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("failed to load %s: %s", name, resp.Status)
	}
	return resp.Body, nil
}

func (h *HTTPSource) String() string { return h.base.String() }
