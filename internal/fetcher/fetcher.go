// Package fetcher retrieves remote pages and images on behalf of ideas.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"
)

const userAgent = "Mozilla/5.0 (compatible; sfl/1.0)"

var (
	// ErrNoArticle means the page was fetched but did not look like an article.
	ErrNoArticle = errors.New("no article text found")
	// ErrNotHTML and ErrNotImage report a content type the caller cannot use.
	ErrNotHTML  = errors.New("response is not html")
	ErrNotImage = errors.New("response is not an image")
)

// Fetcher performs outbound GETs with a size cap. Redirects are followed.
type Fetcher struct {
	client   *http.Client
	maxBytes int64
}

// New returns a Fetcher. Zero values fall back to 30s and 5MB.
func New(timeout time.Duration, maxBytes int64) *Fetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if maxBytes <= 0 {
		maxBytes = 5 * 1024 * 1024
	}
	return &Fetcher{client: &http.Client{Timeout: timeout}, maxBytes: maxBytes}
}

// Image is a downloaded image.
type Image struct {
	Body        []byte
	ContentType string
	Filename    string
}

// Article fetches an HTML page and extracts its article text.
func (f *Fetcher) Article(ctx context.Context, rawURL string) (string, error) {
	body, contentType, err := f.get(ctx, rawURL)
	if err != nil {
		return "", err
	}
	if !strings.Contains(contentType, "text/html") {
		return "", ErrNotHTML
	}
	text := extractArticle(string(body))
	if text == "" {
		return "", ErrNoArticle
	}
	return text, nil
}

// Image downloads an image. The response must declare an image/* type.
func (f *Fetcher) Image(ctx context.Context, rawURL string) (*Image, error) {
	body, contentType, err := f.get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	mediaType, _, _ := mime.ParseMediaType(contentType)
	if !strings.HasPrefix(mediaType, "image/") {
		return nil, fmt.Errorf("%w: %q", ErrNotImage, contentType)
	}
	return &Image{Body: body, ContentType: contentType, Filename: FilenameFromURL(rawURL)}, nil
}

func (f *Fetcher) get(ctx context.Context, rawURL string) ([]byte, string, error) {
	u, err := normalize(rawURL)
	if err != nil {
		return nil, "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, "", fmt.Errorf("read body: %w", err)
	}
	return body, resp.Header.Get("Content-Type"), nil
}

func normalize(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme == "" {
		u, err = url.Parse("https://" + strings.TrimSpace(rawURL))
		if err != nil {
			return "", fmt.Errorf("invalid URL: %w", err)
		}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	return u.String(), nil
}

// FilenameFromURL takes the last path segment, defaulting to "image" and
// adding ".jpg" when it has no extension.
func FilenameFromURL(rawURL string) string {
	name := "image"
	if u, err := url.Parse(rawURL); err == nil {
		if base := path.Base(u.Path); base != "/" && base != "." && base != "" {
			name = base
		}
	}
	if !strings.Contains(name, ".") {
		name += ".jpg"
	}
	return name
}

// IsURL checks if a string looks like a URL
func IsURL(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "http://") ||
		strings.HasPrefix(s, "https://") ||
		strings.HasPrefix(s, "www.")
}
