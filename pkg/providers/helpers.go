package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Adda-Baaj/market-brief/pkg/httpclient"
)

// fetchPage retrieves the raw document for a provider. Any 2xx status is a
// success and the body is returned whole.
func fetchPage(ctx context.Context, client HTTPClient, cfg Provider) ([]byte, error) {
	resp, err := client.Get(ctx, cfg.SourceURL, Headers(cfg))
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", cfg.ID, err)
	}

	if code := resp.StatusCode(); code < 200 || code > 299 {
		return nil, fmt.Errorf("%s returned status %d body: %s", cfg.ID, code, httpclient.Snippet(resp.Body()))
	}
	return resp.Body(), nil
}

// normalizeText collapses runs of whitespace and trims the result.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// cleanHTML strips markup from a feed description.
func cleanHTML(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<body>" + s + "</body>"))
	if err != nil {
		return normalizeText(s)
	}
	return normalizeText(doc.Text())
}
