package imaging

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const defaultMaxBytes = 32 << 20

var ErrTooLarge = errors.New("remote image exceeds size limit")

// Fetcher downloads images by URL. When the URL points at an HTML page the
// page's og:image (or first <img>) is followed once.
type Fetcher struct {
	httpc    *http.Client
	maxBytes int64
}

func NewFetcher(timeout time.Duration, maxBytes int64) *Fetcher {
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}
	return &Fetcher{
		httpc:    &http.Client{Timeout: timeout},
		maxBytes: maxBytes,
	}
}

func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("bad image url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("bad image url: unsupported scheme %q", u.Scheme)
	}

	body, ctype, err := f.get(ctx, u)
	if err != nil {
		return nil, err
	}
	if !isHTML(ctype) {
		return body, nil
	}

	next, err := imageFromHTML(u, body)
	if err != nil {
		return nil, err
	}
	body, ctype, err = f.get(ctx, next)
	if err != nil {
		return nil, err
	}
	if isHTML(ctype) {
		return nil, fmt.Errorf("fetch %s: got html page instead of image", next)
	}
	return body, nil
}

func (f *Fetcher) get(ctx context.Context, u *url.URL) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Accept", "image/*, text/html;q=0.5")

	resp, err := f.httpc.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch %s: %w", u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", fmt.Errorf("fetch %s: status %d", u, resp.StatusCode)
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("fetch %s: %w", u, err)
	}
	if int64(len(b)) > f.maxBytes {
		return nil, "", ErrTooLarge
	}
	return b, resp.Header.Get("Content-Type"), nil
}

func isHTML(ctype string) bool {
	mt, _, err := mime.ParseMediaType(ctype)
	if err != nil {
		return false
	}
	return mt == "text/html" || mt == "application/xhtml+xml"
}

func imageFromHTML(base *url.URL, page []byte) (*url.URL, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var src string
	if v, ok := doc.Find(`meta[property="og:image"]`).First().Attr("content"); ok {
		src = strings.TrimSpace(v)
	}
	if src == "" {
		if v, ok := doc.Find("img[src]").First().Attr("src"); ok {
			src = strings.TrimSpace(v)
		}
	}
	if src == "" {
		return nil, fmt.Errorf("no image found on page %s", base)
	}

	ref, err := url.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("bad image reference %q: %w", src, err)
	}
	return base.ResolveReference(ref), nil
}
