package providers

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/Adda-Baaj/market-brief/internal/domain"
)

const untitledHeadline = "제목 없음"

// feedFetcher reads title and summary pairs from an RSS or Atom feed.
type feedFetcher struct {
	client HTTPClient
	parser *gofeed.Parser
}

// NewFeedFetcher builds a Fetcher for feed providers.
func NewFeedFetcher(client HTTPClient) Fetcher {
	if client == nil {
		client = DefaultHTTPClient()
	}
	return &feedFetcher{client: client, parser: gofeed.NewParser()}
}

// ID returns the provider type handled by the feed fetcher.
func (f *feedFetcher) ID() string {
	return ProviderTypeFeed
}

// Fetch downloads and parses the provider feed.
func (f *feedFetcher) Fetch(ctx context.Context, cfg Provider) ([]domain.Headline, error) {
	if !strings.EqualFold(cfg.Type, ProviderTypeFeed) {
		return nil, fmt.Errorf("feed fetcher received incompatible provider type %q", cfg.Type)
	}
	if strings.TrimSpace(cfg.SourceURL) == "" {
		return nil, fmt.Errorf("provider %q source_url is empty", cfg.ID)
	}

	body, err := fetchPage(ctx, f.client, cfg)
	if err != nil {
		return nil, err
	}

	feed, err := f.parser.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse %s feed: %w", cfg.ID, err)
	}

	return buildHeadlinesFromFeed(feed.Items), nil
}

// buildHeadlinesFromFeed maps feed items to headlines, preferring the item
// description as summary and falling back to its content.
func buildHeadlinesFromFeed(items []*gofeed.Item) []domain.Headline {
	out := make([]domain.Headline, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}

		title := normalizeText(item.Title)
		if title == "" {
			title = untitledHeadline
		}

		summary := item.Description
		if strings.TrimSpace(summary) == "" {
			summary = item.Content
		}

		out = append(out, domain.Headline{
			Title:   title,
			Summary: cleanHTML(summary),
			URL:     strings.TrimSpace(item.Link),
		})
	}
	return out
}
