package programs

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"
	"time"
)

// FSFetcher reads program sources from a file system.
type FSFetcher struct {
	FS fs.FS
}

// NewFetcher returns a fetcher over the bundled sources, or over dir when it
// is not empty. Files missing from dir are not looked up in the bundle.
func NewFetcher(dir string) FSFetcher {
	if dir != "" {
		return FSFetcher{FS: os.DirFS(dir)}
	}
	return FSFetcher{FS: Files}
}

// Fetch returns the source text stored at p.
func (f FSFetcher) Fetch(ctx context.Context, p string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fsys := f.FS
	if fsys == nil {
		fsys = Files
	}
	data, err := fs.ReadFile(fsys, path.Clean(strings.TrimPrefix(p, "/")))
	if err != nil {
		return "", fmt.Errorf("programs: read %s: %w", p, err)
	}
	return string(data), nil
}

// HTTPFetcher downloads program sources relative to BaseURL.
type HTTPFetcher struct {
	BaseURL string
	Client  *http.Client
}

// Fetch issues a GET for BaseURL/p. Any non-200 status is an error.
func (f HTTPFetcher) Fetch(ctx context.Context, p string) (string, error) {
	url := strings.TrimRight(f.BaseURL, "/") + "/" + strings.TrimLeft(p, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("programs: request %s: %w", url, err)
	}
	client := f.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("programs: get %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("programs: get %s: status %d", url, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("programs: read %s: %w", url, err)
	}
	return string(data), nil
}
