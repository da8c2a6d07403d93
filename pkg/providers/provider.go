package providers

import (
	"context"
	"strings"

	"github.com/Adda-Baaj/market-brief/internal/domain"
	"github.com/Adda-Baaj/market-brief/pkg/httpclient"
)

const (
	// Supported provider types; each one is a NewsSource strategy.
	ProviderTypeMarkup = "markup"
	ProviderTypeFeed   = "feed"

	// DefaultUserAgent is sent to every source; some sites reject Go's default agent.
	DefaultUserAgent = "Mozilla/5.0"

	defaultMarkupLimit = 10
	defaultFeedLimit   = 5
)

// HTTPClient is the HTTP surface fetchers depend on.
type HTTPClient = httpclient.Client

// Selector describes which elements of an HTML page hold headlines.
type Selector struct {
	Tag   string            `json:"tag" yaml:"tag"`
	Attrs map[string]string `json:"attrs" yaml:"attrs"`
}

// Provider is a single news source descriptor.
type Provider struct {
	ID        string            `json:"id" yaml:"id"`
	Name      string            `json:"name" yaml:"name"`
	Type      string            `json:"type" yaml:"type"`
	SourceURL string            `json:"source_url" yaml:"source_url"`
	Selector  Selector          `json:"selector" yaml:"selector"`
	Limit     int               `json:"limit" yaml:"limit"`
	Headers   map[string]string `json:"headers" yaml:"headers"`
}

// DisplayName returns the human-readable source name, falling back to the id.
func (p Provider) DisplayName() string {
	if name := strings.TrimSpace(p.Name); name != "" {
		return name
	}
	return p.ID
}

// LimitValue returns the per-source headline cap.
func (p Provider) LimitValue() int {
	if p.Limit > 0 {
		return p.Limit
	}
	if strings.EqualFold(p.Type, ProviderTypeFeed) {
		return defaultFeedLimit
	}
	return defaultMarkupLimit
}

// Fetcher extracts headlines for one provider type.
type Fetcher interface {
	ID() string
	Fetch(ctx context.Context, cfg Provider) ([]domain.Headline, error)
}

// FetcherRegistry resolves the fetcher responsible for a provider.
type FetcherRegistry interface {
	FetcherFor(cfg Provider) (Fetcher, error)
}

// Headers returns the request headers for a provider, defaulting the user agent.
func Headers(cfg Provider) map[string]string {
	headers := make(map[string]string, len(cfg.Headers)+1)
	headers["User-Agent"] = DefaultUserAgent
	for k, v := range cfg.Headers {
		if k = strings.TrimSpace(k); k == "" {
			continue
		}
		headers[k] = v
	}
	return headers
}
