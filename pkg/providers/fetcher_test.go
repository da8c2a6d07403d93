package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"

	"github.com/Adda-Baaj/market-brief/pkg/httpclient"
)

const cnbcPage = `<html><body>
<a class="Card-title" href="/a">  Stocks rally
   on rate hopes </a>
<a class="Card-title other">Oil slips</a>
<a class="Card-titleLong">Not a match</a>
<a class="Card-title">   </a>
<div class="Card-title">Wrong tag</div>
<a class="Card-title">Nvidia beats estimates</a>
</body></html>`

const yahooPage = `<html><body>
<h3 class="Mb(5px)">Fed holds rates</h3>
<h3 class="Mb(10px)">Skip me</h3>
</body></html>`

const rssFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>Stock Market News</title>
<item><title>Dow closes higher</title><link>https://example.com/1</link><description>&lt;p&gt;Blue chips &lt;b&gt;gain&lt;/b&gt;&lt;/p&gt;</description></item>
<item><title></title><link>https://example.com/2</link></item>
<item><title>Tesla deliveries</title><description>Beat forecasts</description></item>
</channel></rss>`

func newTestServer(t *testing.T, status int, body string, gotUA *string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if gotUA != nil {
			*gotUA = r.Header.Get("User-Agent")
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testClient() httpclient.Client { return httpclient.NewRestyClient(5 * time.Second) }

func TestMarkupFetcherExtractsMatchingElements(t *testing.T) {
	var ua string
	srv := newTestServer(t, http.StatusOK, cnbcPage, &ua)

	f := NewMarkupFetcher(testClient())
	got, err := f.Fetch(context.Background(), Provider{
		ID:        "cnbc",
		Type:      ProviderTypeMarkup,
		SourceURL: srv.URL,
		Selector:  Selector{Tag: "a", Attrs: map[string]string{"class": "Card-title"}},
	})

	assert.Equal(t, nil, err)
	assert.Equal(t, DefaultUserAgent, ua)
	titles := make([]string, len(got))
	for i, h := range got {
		titles[i] = h.Title
	}
	assert.Equal(t, []string{"Stocks rally on rate hopes", "Oil slips", "Nvidia beats estimates"}, titles)
	assert.Equal(t, "/a", got[0].URL)
}

func TestMarkupFetcherClassWithParentheses(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, yahooPage, nil)

	f := NewMarkupFetcher(testClient())
	got, err := f.Fetch(context.Background(), Provider{
		ID:        "yahoo-finance",
		Type:      ProviderTypeMarkup,
		SourceURL: srv.URL,
		Selector:  Selector{Tag: "h3", Attrs: map[string]string{"class": "Mb(5px)"}},
	})

	assert.Equal(t, nil, err)
	assert.Equal(t, 1, len(got))
	assert.Equal(t, "Fed holds rates", got[0].Title)
}

func TestMarkupFetcherNonOKStatus(t *testing.T) {
	srv := newTestServer(t, http.StatusForbidden, "denied", nil)

	f := NewMarkupFetcher(testClient())
	_, err := f.Fetch(context.Background(), Provider{
		ID:        "investing",
		Type:      ProviderTypeMarkup,
		SourceURL: srv.URL,
		Selector:  Selector{Tag: "a"},
	})

	if err == nil || !strings.Contains(err.Error(), "status 403") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestMarkupFetcherRejectsFeedProvider(t *testing.T) {
	f := NewMarkupFetcher(testClient())
	_, err := f.Fetch(context.Background(), Provider{ID: "x", Type: ProviderTypeFeed, SourceURL: "http://unused"})
	assert.NotEqual(t, nil, err)
}

func TestFeedFetcherParsesItems(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, rssFeed, nil)

	f := NewFeedFetcher(testClient())
	got, err := f.Fetch(context.Background(), Provider{ID: "investing-rss", Type: ProviderTypeFeed, SourceURL: srv.URL})

	assert.Equal(t, nil, err)
	assert.Equal(t, 3, len(got))
	assert.Equal(t, "Dow closes higher", got[0].Title)
	assert.Equal(t, "Blue chips gain", got[0].Summary)
	assert.Equal(t, "https://example.com/1", got[0].URL)
	assert.Equal(t, untitledHeadline, got[1].Title)
	assert.Equal(t, "", got[1].Summary)
	assert.Equal(t, "Beat forecasts", got[2].Summary)
}

func TestFeedFetcherInvalidDocument(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, "definitely not a feed", nil)

	f := NewFeedFetcher(testClient())
	_, err := f.Fetch(context.Background(), Provider{ID: "bad", Type: ProviderTypeFeed, SourceURL: srv.URL})
	assert.NotEqual(t, nil, err)
}

func TestFetcherRegistry(t *testing.T) {
	reg := DefaultFetcherRegistry(testClient())

	f, err := reg.FetcherFor(Provider{ID: "a", Type: "MARKUP"})
	assert.Equal(t, nil, err)
	assert.Equal(t, ProviderTypeMarkup, f.ID())

	f, err = reg.FetcherFor(Provider{ID: "b", Type: ProviderTypeFeed})
	assert.Equal(t, nil, err)
	assert.Equal(t, ProviderTypeFeed, f.ID())

	_, err = reg.FetcherFor(Provider{ID: "c", Type: "sitemap"})
	assert.NotEqual(t, nil, err)

	_, err = reg.FetcherFor(Provider{ID: "d"})
	assert.NotEqual(t, nil, err)
}

func TestFetchPageAcceptsAny2xx(t *testing.T) {
	srv := newTestServer(t, http.StatusNonAuthoritativeInfo, rssFeed, nil)

	f := NewFeedFetcher(testClient())
	got, err := f.Fetch(context.Background(), Provider{ID: "investing-rss", Type: ProviderTypeFeed, SourceURL: srv.URL})
	assert.Equal(t, nil, err)
	assert.Equal(t, 3, len(got))
}

func TestFetchPageRejectsNon2xxWithSnippet(t *testing.T) {
	for _, status := range []int{http.StatusMultipleChoices, http.StatusNotFound, http.StatusInternalServerError} {
		srv := newTestServer(t, status, "", nil)

		_, err := fetchPage(context.Background(), testClient(), Provider{ID: "cnbc", SourceURL: srv.URL})
		if err == nil || !strings.Contains(err.Error(), "body: <empty>") {
			t.Fatalf("status %d: expected status error with empty body marker, got %v", status, err)
		}
	}
}

func TestFetchPageReturnsWholeBody(t *testing.T) {
	page := "<html><body>" + strings.Repeat("x", 5<<20) + `<a class="Card-title">Tail headline</a></body></html>`
	srv := newTestServer(t, http.StatusOK, page, nil)

	body, err := fetchPage(context.Background(), testClient(), Provider{ID: "cnbc", SourceURL: srv.URL})
	assert.Equal(t, nil, err)
	assert.Equal(t, len(page), len(body))

	got, err := NewMarkupFetcher(testClient()).Fetch(context.Background(), Provider{
		ID:        "cnbc",
		Type:      ProviderTypeMarkup,
		SourceURL: srv.URL,
		Selector:  Selector{Tag: "a", Attrs: map[string]string{"class": "Card-title"}},
	})
	assert.Equal(t, nil, err)
	assert.Equal(t, 1, len(got))
	assert.Equal(t, "Tail headline", got[0].Title)
}
