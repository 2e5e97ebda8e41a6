// Package reader extracts the readable text of a web page so it can be
// translated with `translate --url`.
package reader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	readability "codeberg.org/readeck/go-readability/v2"
	"github.com/go-resty/resty/v2"
)

const (
	DefaultFetchTimeout  = 12 * time.Second
	DefaultBodyByteLimit = 2 * 1024 * 1024

	defaultUserAgent = "translator-reader/1.0"
)

// FetchOptions controls HTTP behavior for page extraction.
type FetchOptions struct {
	Timeout       time.Duration
	BodyByteLimit int64
	UserAgent     string
	Proxy         string
	// AcceptLanguage asks the site for a specific language version.
	AcceptLanguage string
	Client         *resty.Client
}

// FetchText retrieves a page and returns its readable text.
func FetchText(ctx context.Context, pageURL string, opts FetchOptions) (string, error) {
	page := strings.TrimSpace(pageURL)
	if page == "" {
		return "", fmt.Errorf("page URL is required")
	}
	parsedURL, err := url.Parse(page)
	if err != nil || (parsedURL.Scheme != "http" && parsedURL.Scheme != "https") || parsedURL.Host == "" {
		return "", fmt.Errorf("page URL must be an absolute http(s) URL, got %q", page)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	bodyLimit := opts.BodyByteLimit
	if bodyLimit <= 0 {
		bodyLimit = DefaultBodyByteLimit
	}
	userAgent := strings.TrimSpace(opts.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	acceptLanguage := strings.TrimSpace(opts.AcceptLanguage)
	if acceptLanguage == "" {
		acceptLanguage = "en-US,en;q=0.8"
	}

	client := opts.Client
	if client == nil {
		client = resty.New().SetTimeout(timeout)
		if proxy := strings.TrimSpace(opts.Proxy); proxy != "" {
			client.SetProxy(proxy)
		}
	}

	fetchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := client.R().
		SetContext(fetchCtx).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.8").
		SetHeader("Accept-Language", acceptLanguage).
		SetDoNotParseResponse(true).
		Get(page)
	if err != nil {
		return "", fmt.Errorf("fetch url: %w", err)
	}
	raw := resp.RawBody()
	defer raw.Close()

	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return "", fmt.Errorf("fetch status %d", resp.StatusCode())
	}

	var body bytes.Buffer
	if _, err := body.ReadFrom(io.LimitReader(raw, bodyLimit)); err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	contentType := strings.ToLower(strings.TrimSpace(resp.Header().Get("Content-Type")))
	if strings.HasPrefix(contentType, "text/plain") {
		text := CleanText(body.String())
		if text == "" {
			return "", fmt.Errorf("page is empty")
		}
		return text, nil
	}

	article, err := readability.FromReader(bytes.NewReader(body.Bytes()), parsedURL)
	if err != nil {
		return "", fmt.Errorf("readability parse: %w", err)
	}

	var renderedText bytes.Buffer
	if err := article.RenderText(&renderedText); err != nil {
		return "", fmt.Errorf("render readability text: %w", err)
	}

	text := CleanText(renderedText.String())
	if text == "" {
		text = CleanText(article.Excerpt())
	}
	if text == "" {
		return "", fmt.Errorf("reader extracted empty content")
	}
	return text, nil
}

// CleanText normalizes line endings and collapses extra in-line whitespace.
func CleanText(raw string) string {
	normalized := strings.ReplaceAll(raw, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")

	lines := strings.Split(normalized, "\n")
	paragraphs := make([]string, 0, len(lines))
	for _, line := range lines {
		clean := strings.Join(strings.Fields(strings.TrimSpace(line)), " ")
		if clean == "" {
			continue
		}
		paragraphs = append(paragraphs, clean)
	}

	return strings.TrimSpace(strings.Join(paragraphs, "\n\n"))
}

// ClipToLimit cuts text to at most limit runes, preferring a paragraph or
// sentence boundary. It reports whether anything was cut.
func ClipToLimit(raw string, limit int) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if limit <= 0 {
		return trimmed, false
	}
	runes := []rune(trimmed)
	if len(runes) <= limit {
		return trimmed, false
	}

	clipped := string(runes[:limit])
	for _, sep := range []string{"\n\n", ". ", "\n", " "} {
		if idx := strings.LastIndex(clipped, sep); idx > len(clipped)/2 {
			return strings.TrimSpace(clipped[:idx+len(strings.TrimRight(sep, " \n"))]), true
		}
	}
	return strings.TrimSpace(clipped), true
}
