package linkpreview

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

var urlPattern = regexp.MustCompile(`https?://[^\s<>"]+`)

// Preview is the OpenGraph-ish metadata extracted from a linked page.
type Preview struct {
	URL      string
	Title    string
	ImageURL *string
}

// Fetcher downloads linked pages and extracts preview metadata for feed
// items. Response bodies are capped; slow hosts are cut off by the timeout.
type Fetcher struct {
	client   *http.Client
	maxBytes int64
}

func NewFetcher(timeout time.Duration, maxBytes int64) *Fetcher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if maxBytes <= 0 {
		maxBytes = 1 << 20
	}
	return &Fetcher{
		client:   &http.Client{Timeout: timeout},
		maxBytes: maxBytes,
	}
}

// ExtractURL returns the first URL found in the text, or "".
func ExtractURL(text string) string {
	return urlPattern.FindString(text)
}

// Fetch downloads the page and parses its metadata.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Preview, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "orangecat-linkpreview/1.0")
	req.Header.Set("Accept", "text/html")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d for %s", resp.StatusCode, url)
	}
	ct := resp.Header.Get("Content-Type")
	if ct != "" && !strings.Contains(ct, "text/html") {
		return nil, fmt.Errorf("not an HTML page: %s", ct)
	}

	return Parse(io.LimitReader(resp.Body, f.maxBytes), url)
}

// Parse extracts the preview from an HTML document. OpenGraph tags win over
// the <title> element.
func Parse(r io.Reader, url string) (*Preview, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}

	p := &Preview{URL: url}

	if v, ok := metaContent(doc, "og:title"); ok {
		p.Title = v
	} else {
		p.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	if p.Title == "" {
		return nil, fmt.Errorf("page has no title")
	}

	if v, ok := metaContent(doc, "og:image"); ok {
		p.ImageURL = &v
	}

	return p, nil
}

func metaContent(doc *goquery.Document, property string) (string, bool) {
	sel := doc.Find(fmt.Sprintf(`meta[property=%q]`, property))
	if sel.Length() == 0 {
		sel = doc.Find(fmt.Sprintf(`meta[name=%q]`, property))
	}
	v, ok := sel.First().Attr("content")
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}
