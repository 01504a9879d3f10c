// Package remote fetches package file lists from a web archive when the
// package is not installed and apt-file is unavailable.
package remote

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// DefaultURL is the packages.debian.org file-list page.
const DefaultURL = "https://packages.debian.org/{suite}/{arch}/{package}/filelist"

// maxBody caps the size of a fetched page.
const maxBody = 16 << 20

var preBlock = regexp.MustCompile(`(?s)<pre[^>]*>(.*?)</pre>`)

// Client fetches file lists. Requests are attempted once.
type Client struct {
	URL   string
	Suite string
	Arch  string
	HTTP  *http.Client
}

// NewClient returns a client with the given URL template and request timeout.
func NewClient(urlTemplate, suite, arch string, timeout time.Duration) *Client {
	if urlTemplate == "" {
		urlTemplate = DefaultURL
	}
	return &Client{
		URL:   urlTemplate,
		Suite: suite,
		Arch:  arch,
		HTTP:  &http.Client{Timeout: timeout},
	}
}

// Endpoint expands the URL template for pkg.
func (c *Client) Endpoint(pkg string) string {
	r := strings.NewReplacer(
		"{suite}", url.PathEscape(c.Suite),
		"{arch}", url.PathEscape(c.Arch),
		"{package}", url.PathEscape(pkg),
	)
	return r.Replace(c.URL)
}

// FileList returns the paths shipped by pkg.
func (c *Client) FileList(ctx context.Context, pkg string) ([]string, error) {
	endpoint := c.Endpoint(pkg)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", "aptscope")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch %s: %s", endpoint, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	files, err := ParseFileList(string(body))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", pkg, err)
	}
	return files, nil
}

// ParseFileList extracts the paths from the first <pre> block of page.
func ParseFileList(page string) ([]string, error) {
	m := preBlock.FindStringSubmatch(page)
	if m == nil {
		return nil, fmt.Errorf("no file list found in response")
	}

	var files []string
	for _, line := range strings.Split(html.UnescapeString(m[1]), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			files = append(files, line)
		}
	}
	return files, nil
}
