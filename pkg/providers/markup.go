package providers

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Adda-Baaj/market-brief/internal/domain"
)

// markupFetcher scrapes headlines out of an HTML page.
type markupFetcher struct {
	client HTTPClient
}

// NewMarkupFetcher builds a Fetcher for markup providers.
func NewMarkupFetcher(client HTTPClient) Fetcher {
	if client == nil {
		client = DefaultHTTPClient()
	}
	return &markupFetcher{client: client}
}

// ID returns the provider type handled by the markup fetcher.
func (f *markupFetcher) ID() string {
	return ProviderTypeMarkup
}

// Fetch downloads the provider page and extracts the text of every matching element.
func (f *markupFetcher) Fetch(ctx context.Context, cfg Provider) ([]domain.Headline, error) {
	if !strings.EqualFold(cfg.Type, ProviderTypeMarkup) {
		return nil, fmt.Errorf("markup fetcher received incompatible provider type %q", cfg.Type)
	}
	if strings.TrimSpace(cfg.SourceURL) == "" {
		return nil, fmt.Errorf("provider %q source_url is empty", cfg.ID)
	}

	body, err := fetchPage(ctx, f.client, cfg)
	if err != nil {
		return nil, err
	}

	return extractHeadlines(body, cfg.Selector)
}

// extractHeadlines selects elements by tag, filters them by attributes and
// returns their non-empty text in document order.
func extractHeadlines(body []byte, sel Selector) ([]domain.Headline, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var out []domain.Headline
	doc.Find(sel.Tag).FilterFunction(func(_ int, s *goquery.Selection) bool {
		return matchAttrs(s, sel.Attrs)
	}).Each(func(_ int, s *goquery.Selection) {
		title := normalizeText(s.Text())
		if title == "" {
			return
		}
		h := domain.Headline{Title: title}
		if href, ok := s.Attr("href"); ok {
			h.URL = strings.TrimSpace(href)
		}
		out = append(out, h)
	})

	return out, nil
}

// matchAttrs reports whether the element carries every wanted attribute. The
// class attribute matches a single class token or the whole class string.
func matchAttrs(s *goquery.Selection, want map[string]string) bool {
	for name, value := range want {
		got, ok := s.Attr(name)
		if !ok {
			return false
		}
		if name == "class" {
			if !hasClass(got, value) {
				return false
			}
			continue
		}
		if got != value {
			return false
		}
	}
	return true
}

func hasClass(classAttr, want string) bool {
	if strings.TrimSpace(classAttr) == want {
		return true
	}
	for _, token := range strings.Fields(classAttr) {
		if token == want {
			return true
		}
	}
	return false
}
