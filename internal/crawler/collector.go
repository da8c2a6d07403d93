package crawler

import (
	"context"
	"fmt"
	"strings"

	"github.com/Adda-Baaj/market-brief/internal/domain"
	"github.com/Adda-Baaj/market-brief/internal/logger"
	"github.com/Adda-Baaj/market-brief/pkg/providers"
)

// Collector visits each provider once and gathers its headlines.
type Collector struct {
	fetchers providers.FetcherRegistry
	log      logger.Logger
}

// NewCollector creates a Collector using the given fetcher registry and logger.
func NewCollector(fetchers providers.FetcherRegistry, log logger.Logger) *Collector {
	if fetchers == nil {
		fetchers = providers.DefaultFetcherRegistry(nil)
	}
	return &Collector{fetchers: fetchers, log: logger.Ensure(log)}
}

// Collect fetches every provider in order, one at a time. A failing provider
// is recorded with its error and never stops the others, so the returned set
// always holds exactly one entry per provider.
func (c *Collector) Collect(ctx context.Context, sources []providers.Provider) domain.HeadlineSet {
	results := make([]domain.SourceResult, 0, len(sources))

	for _, src := range sources {
		res := domain.SourceResult{Source: src.DisplayName()}

		if err := ctx.Err(); err != nil {
			res.Err = fmt.Errorf("collection cancelled: %w", err)
			results = append(results, res)
			continue
		}

		headlines, err := c.collectOne(ctx, src)
		if err != nil {
			c.log.WarnObj("source collection failed", "collect_source_error", map[string]any{
				"provider_id": src.ID,
				"source":      res.Source,
				"url":         src.SourceURL,
				"error":       err.Error(),
			})
			res.Err = err
		} else {
			res.Headlines = headlines
			c.log.InfoObj("source collected", "collect_source_done", map[string]any{
				"provider_id": src.ID,
				"source":      res.Source,
				"headlines":   len(headlines),
			})
		}
		results = append(results, res)
	}

	return domain.NewHeadlineSet(results...)
}

// collectOne fetches a single provider and applies the empty-text filter and cap.
func (c *Collector) collectOne(ctx context.Context, src providers.Provider) (headlines []domain.Headline, err error) {
	defer func() {
		if r := recover(); r != nil {
			headlines, err = nil, fmt.Errorf("fetcher panic: %v", r)
		}
	}()

	fetcher, err := c.fetchers.FetcherFor(src)
	if err != nil {
		return nil, err
	}

	c.log.DebugObj("fetching source", "collect_source_start", map[string]any{
		"provider_id": src.ID,
		"type":        src.Type,
		"url":         src.SourceURL,
	})

	raw, err := fetcher.Fetch(ctx, src)
	if err != nil {
		return nil, err
	}

	return capHeadlines(raw, src.LimitValue()), nil
}

// capHeadlines drops blank titles and keeps at most limit entries in order.
func capHeadlines(in []domain.Headline, limit int) []domain.Headline {
	out := make([]domain.Headline, 0, min(len(in), limit))
	for _, h := range in {
		if len(out) == limit {
			break
		}
		h.Title = strings.TrimSpace(h.Title)
		if h.Title == "" {
			continue
		}
		h.Summary = strings.TrimSpace(h.Summary)
		out = append(out, h)
	}
	return out
}
