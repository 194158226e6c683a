package extractor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// maxDetailBodyBytes limits the size of fetched detail pages.
const maxDetailBodyBytes = 10 * 1024 * 1024 // 10 MB

// pageFetcher fetches and parses detail pages.
type pageFetcher struct {
	httpClient *http.Client
	userAgent  string
}

func newPageFetcher(userAgent string, timeout time.Duration) *pageFetcher {
	return &pageFetcher{
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  userAgent,
	}
}

// detailPage caches one candidate's rendered detail document so the
// markup and heuristic strategies share a single fetch.
type detailPage struct {
	url     string
	fetched bool
	doc     *goquery.Document
	err     error
}

func newDetailPage(url string) *detailPage {
	return &detailPage{url: url}
}

// document returns the parsed detail page, fetching it on first use.
func (p *detailPage) document(ctx context.Context, f *pageFetcher) (*goquery.Document, error) {
	if p.fetched {
		return p.doc, p.err
	}
	p.fetched = true
	p.doc, p.err = f.fetchDocument(ctx, p.url)
	return p.doc, p.err
}

// fetchDocument GETs a detail page and parses it with goquery.
func (f *pageFetcher) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("detail page status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDetailBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}
