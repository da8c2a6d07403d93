package providers

import (
	"fmt"
	"strings"

	"github.com/Adda-Baaj/market-brief/pkg/httpclient"
)

// fetchersByType dispatches a provider to the fetcher for its strategy.
type fetchersByType map[string]Fetcher

func typeKey(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// NewFetcherRegistry indexes fetchers by the strategy type each one reports
// as its ID. Later fetchers replace earlier ones with the same type.
func NewFetcherRegistry(fetchers ...Fetcher) FetcherRegistry {
	reg := make(fetchersByType, len(fetchers))
	for _, f := range fetchers {
		if f != nil {
			reg[typeKey(f.ID())] = f
		}
	}
	return reg
}

// FetcherFor returns the fetcher matching cfg.Type.
func (r fetchersByType) FetcherFor(cfg Provider) (Fetcher, error) {
	key := typeKey(cfg.Type)
	if key == "" {
		return nil, fmt.Errorf("provider %q: type is empty", cfg.ID)
	}
	f, ok := r[key]
	if !ok {
		return nil, fmt.Errorf("provider %q: no fetcher for type %q", cfg.ID, cfg.Type)
	}
	return f, nil
}

// DefaultHTTPClient is the resty-backed client fetchers use when none is given.
// It keeps resty's default timeout.
func DefaultHTTPClient() HTTPClient { return httpclient.NewRestyClient(0) }

// DefaultFetcherRegistry serves the markup and feed strategies over client.
func DefaultFetcherRegistry(client HTTPClient) FetcherRegistry {
	if client == nil {
		client = DefaultHTTPClient()
	}
	return NewFetcherRegistry(NewMarkupFetcher(client), NewFeedFetcher(client))
}
