package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"scenecode/internal/services"
)

// videoFileExtensions are the anchor-href suffixes discovery treats as a
// direct video link.
var videoFileExtensions = []string{".mp4", ".m4v", ".mov", ".webm"}

// Discover fetches an institution page and extracts candidate video URLs:
// <video> sources, og:video metadata, and anchors pointing at video files.
// Relative URLs resolve against the page and duplicates collapse, keeping
// document order.
func (f *Fetcher) Discover(ctx context.Context, pageURL string) ([]string, error) {
	base, err := url.Parse(strings.TrimSpace(pageURL))
	if err != nil {
		return nil, services.Wrap(services.ErrMalformedInput, "fetch", "discover", "parse url "+pageURL, err)
	}
	if base.Scheme == "" {
		base.Scheme = "https"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base.String(), nil)
	if err != nil {
		return nil, services.Wrap(services.ErrMalformedInput, "fetch", "discover", "build request", err)
	}
	req.Header.Set("User-Agent", f.cfg.Fetch.UserAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrRemoteService, "fetch", "discover", base.String(), err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		detail := fmt.Sprintf("%s returned %s", base.String(), resp.Status)
		return nil, services.Wrap(services.ErrRemoteService, "fetch", "discover", detail, nil)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, services.Wrap(services.ErrMalformedInput, "fetch", "discover", "parse page", err)
	}

	var candidates []string
	seen := make(map[string]struct{})
	add := func(raw string) {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return
		}
		resolved := resolveURL(base, raw)
		if resolved == "" {
			return
		}
		if _, ok := seen[resolved]; ok {
			return
		}
		seen[resolved] = struct{}{}
		candidates = append(candidates, resolved)
	}

	doc.Find("video source[src]").Each(func(_ int, sel *goquery.Selection) {
		add(sel.AttrOr("src", ""))
	})
	doc.Find("video[src]").Each(func(_ int, sel *goquery.Selection) {
		add(sel.AttrOr("src", ""))
	})
	doc.Find(`meta[property="og:video"], meta[property="og:video:url"]`).Each(func(_ int, sel *goquery.Selection) {
		add(sel.AttrOr("content", ""))
	})
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href := sel.AttrOr("href", "")
		if hasVideoExtension(href) {
			add(href)
		}
	})
	return candidates, nil
}

func resolveURL(base *url.URL, raw string) string {
	ref, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	return resolved.String()
}

func hasVideoExtension(href string) bool {
	lowered := strings.ToLower(href)
	if i := strings.IndexAny(lowered, "?#"); i >= 0 {
		lowered = lowered[:i]
	}
	for _, ext := range videoFileExtensions {
		if strings.HasSuffix(lowered, ext) {
			return true
		}
	}
	return false
}
