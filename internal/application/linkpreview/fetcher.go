// Package linkpreview extracts titles and descriptions for link previews.
// It is best-effort: upstream failures yield metadata with no title or description.
package linkpreview

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/go-journal/internal/domain"
	"github.com/go-journal/internal/pkg/metrics"
	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"
)

const (
	userAgent      = "Mozilla/5.0 (compatible; LinkPreview/1.0)"
	cacheTTL       = 24 * time.Hour
	maxBodyBytes   = 1 << 20
	maxTweetRunes  = 93
	defaultOEmbed  = "https://publish.twitter.com/oembed"
	defaultTimeout = 10 * time.Second
)

var ErrInvalidURL = domain.NewError(domain.ErrBadRequest, "Invalid URL")

var (
	tagPattern      = regexp.MustCompile(`<[^>]+>`)
	attribution     = regexp.MustCompile(`&mdash;.*$`)
	usernamePattern = regexp.MustCompile(`(?:x\.com|twitter\.com)/([^/?]+)`)
)

// Fetcher resolves LinkMetadata and caches successful lookups for 24 hours.
type Fetcher struct {
	http      *http.Client
	cache     *gocache.Cache
	oembedURL string
}

// NewFetcher builds a Fetcher. A nil httpClient uses a client with a 10s timeout.
func NewFetcher(httpClient *http.Client) *Fetcher {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Fetcher{
		http:      httpClient,
		cache:     gocache.New(cacheTTL, time.Hour),
		oembedURL: defaultOEmbed,
	}
}

// Fetch returns metadata for rawURL. The only error is ErrInvalidURL.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (domain.LinkMetadata, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Hostname() == "" {
		return domain.LinkMetadata{}, ErrInvalidURL
	}
	if cached, ok := f.cache.Get(rawURL); ok {
		metrics.LinkPreviewLookups.WithLabelValues("cache").Inc()
		return cached.(domain.LinkMetadata), nil
	}
	metrics.LinkPreviewLookups.WithLabelValues("fetch").Inc()

	host := strings.TrimPrefix(u.Hostname(), "www.")
	var meta domain.LinkMetadata
	if host == "x.com" || host == "twitter.com" {
		meta = f.fetchTweet(ctx, rawURL)
	} else {
		meta = f.fetchPage(ctx, rawURL, host)
	}
	if meta.Title != nil || meta.Description != nil {
		f.cache.SetDefault(rawURL, meta)
	}
	return meta, nil
}

// FetchAll looks up every URL concurrently. Invalid URLs are left out of the result.
func (f *Fetcher) FetchAll(ctx context.Context, urls []string) map[string]domain.LinkMetadata {
	results := make([]*domain.LinkMetadata, len(urls))
	var g errgroup.Group
	for i, u := range urls {
		g.Go(func() error {
			if meta, err := f.Fetch(ctx, u); err == nil {
				results[i] = &meta
			}
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[string]domain.LinkMetadata, len(urls))
	for i, meta := range results {
		if meta != nil {
			out[urls[i]] = *meta
		}
	}
	return out
}

func (f *Fetcher) fetchPage(ctx context.Context, rawURL, host string) domain.LinkMetadata {
	meta := domain.LinkMetadata{URL: rawURL, Domain: host}
	body, ok := f.get(ctx, rawURL)
	if !ok {
		return meta
	}
	defer body.Close()
	meta.Title, meta.Description = extract(io.LimitReader(body, maxBodyBytes))
	return meta
}

type oembed struct {
	AuthorName string `json:"author_name"`
	HTML       string `json:"html"`
}

func (f *Fetcher) fetchTweet(ctx context.Context, rawURL string) domain.LinkMetadata {
	meta := domain.LinkMetadata{URL: rawURL, Domain: "x.com"}
	body, ok := f.get(ctx, f.oembedURL+"?url="+url.QueryEscape(rawURL))
	if !ok {
		if m := usernamePattern.FindStringSubmatch(rawURL); m != nil {
			meta.Title = ptr("@" + m[1])
		}
		return meta
	}
	defer body.Close()

	var data oembed
	if err := json.NewDecoder(io.LimitReader(body, maxBodyBytes)).Decode(&data); err != nil {
		return meta
	}
	if data.AuthorName != "" {
		meta.Description = ptr("@" + data.AuthorName)
	}
	text := strings.TrimSpace(attribution.ReplaceAllString(tagPattern.ReplaceAllString(data.HTML, ""), ""))
	if text = truncate(html.UnescapeString(text), maxTweetRunes); text != "" {
		meta.Title = ptr(text)
	} else {
		meta.Title = meta.Description
	}
	return meta
}

// get returns the body of a 2xx response, or false on any failure.
func (f *Fetcher) get(ctx context.Context, target string) (io.ReadCloser, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, false
	}
	req.Header.Set("User-Agent", userAgent)
	resp, err := f.http.Do(req)
	if err != nil {
		return nil, false
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, false
	}
	return resp.Body, true
}

// extract walks the document once, preferring og:title over <title> and
// og:description over meta name=description.
func extract(r io.Reader) (title, description *string) {
	var ogTitle, docTitle, ogDesc, metaDesc string
	z := html.NewTokenizer(r)
	inTitle := false
	for {
		switch z.Next() {
		case html.ErrorToken:
			return pick(ogTitle, docTitle), pick(ogDesc, metaDesc)
		case html.StartTagToken, html.SelfClosingTagToken:
			t := z.Token()
			switch t.Data {
			case "title":
				inTitle = true
			case "meta":
				key, content := metaAttrs(t)
				switch key {
				case "og:title":
					ogTitle = first(ogTitle, content)
				case "og:description":
					ogDesc = first(ogDesc, content)
				case "description":
					metaDesc = first(metaDesc, content)
				}
			}
		case html.TextToken:
			if inTitle && docTitle == "" {
				docTitle = strings.TrimSpace(string(z.Text()))
			}
		case html.EndTagToken:
			inTitle = false
		}
	}
}

func metaAttrs(t html.Token) (key, content string) {
	for _, a := range t.Attr {
		switch strings.ToLower(a.Key) {
		case "property", "name":
			if key == "" {
				key = strings.ToLower(a.Val)
			}
		case "content":
			content = strings.TrimSpace(a.Val)
		}
	}
	return key, content
}

func first(current, candidate string) string {
	if current != "" {
		return current
	}
	return candidate
}

func pick(preferred, fallback string) *string {
	if preferred != "" {
		return &preferred
	}
	if fallback != "" {
		return &fallback
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func ptr(s string) *string { return &s }
