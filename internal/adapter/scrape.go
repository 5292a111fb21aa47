package adapter

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/NickMickmlnn/GameTracking/internal/config"
	"github.com/NickMickmlnn/GameTracking/internal/constants"
	"github.com/NickMickmlnn/GameTracking/internal/domain"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
	"golang.org/x/net/html"
)

const defaultScrapeBaseURL = "https://appagg.com/search/@gamepass:xbox/"

// productHosts are the destinations a listing anchor must point at to count
// as a product link.
var productHosts = []string{"microsoft.com", "apps.microsoft.com"}

// ScrapeAdapter walks the paginated AppAgg Game Pass listing and extracts
// entries from product anchors and their surrounding card markup. Malformed
// markup skips the entry, never the page.
type ScrapeAdapter struct {
	baseURL  string
	language string
	http     *fasthttp.Client
	logger   zerolog.Logger
}

func NewScrapeAdapter(cfg *config.Config, logger zerolog.Logger) *ScrapeAdapter {
	base := cfg.ScrapeBaseURL
	if base == "" {
		base = defaultScrapeBaseURL
	}
	return &ScrapeAdapter{
		baseURL:  base,
		language: cfg.Language,
		http:     newHTTPClient(cfg.RequestTimeout),
		logger:   logger,
	}
}

func (a *ScrapeAdapter) Service() string {
	return domain.ServiceGamePass
}

// Fetch follows the listing's next links up to a hard page cap. A failed
// page download abandons pagination but keeps entries from earlier pages.
func (a *ScrapeAdapter) Fetch(ctx context.Context, region string) ([]Entry, error) {
	merged := make(map[string]*scrapedEntry)

	for page := 1; page <= constants.ScrapeMaxPages; page++ {
		pageURL := a.pageURL(page)
		body, err := fetchBody(ctx, a.http, pageURL)
		if err != nil {
			a.logger.Warn().Err(err).Int("page", page).Msg("unable to download listing page")
			break
		}

		entries, hasNext := parseListingPage(body, a.baseURL)
		if len(entries) == 0 && page == 1 {
			a.logger.Warn().Msg("no entries detected on the first listing page")
			break
		}
		for id, entry := range entries {
			mergeScraped(merged, id, entry)
		}
		if !hasNext {
			break
		}
	}

	return scrapedToEntries(merged), nil
}

func (a *ScrapeAdapter) pageURL(page int) string {
	params := url.Values{"hl": {a.language}}
	if page > 1 {
		params.Set("page", fmt.Sprint(page))
	}
	sep := "?"
	if strings.Contains(a.baseURL, "?") {
		sep = "&"
	}
	return a.baseURL + sep + params.Encode()
}

type scrapedEntry struct {
	title     string
	platforms map[string]struct{}
	year      int
}

// parseListingPage extracts product entries keyed by product id from one
// page of listing markup, and reports whether a next-page link is present.
func parseListingPage(markup []byte, baseURL string) (map[string]*scrapedEntry, bool) {
	doc, err := html.Parse(bytes.NewReader(markup))
	if err != nil {
		return nil, false
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, false
	}

	entries := make(map[string]*scrapedEntry)
	hasNext := false

	walk(doc, func(node *html.Node) {
		if node.Type != html.ElementNode || node.Data != "a" {
			return
		}
		if isNextLink(node) {
			hasNext = true
		}

		href := attr(node, "href")
		if href == "" {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		full := base.ResolveReference(ref)
		if !isProductLink(full) {
			return
		}

		title := collapseText(node)
		if title == "" {
			return
		}

		card := findCard(node)
		cardText := collapseText(card)

		platforms := make(map[string]struct{})
		for _, text := range platformTextSources(card) {
			for _, token := range TokensFromText(text) {
				platforms[token] = struct{}{}
			}
		}
		for _, token := range TokensFromText(cardText) {
			platforms[token] = struct{}{}
		}

		id := productID(full, title)
		mergeScraped(entries, id, &scrapedEntry{
			title:     title,
			platforms: platforms,
			year:      ExtractYear(cardText),
		})
	})

	return entries, hasNext
}

func mergeScraped(into map[string]*scrapedEntry, id string, entry *scrapedEntry) {
	existing, ok := into[id]
	if !ok {
		if entry.platforms == nil {
			entry.platforms = make(map[string]struct{})
		}
		into[id] = entry
		return
	}
	for token := range entry.platforms {
		existing.platforms[token] = struct{}{}
	}
	if existing.year == 0 {
		existing.year = entry.year
	}
}

func scrapedToEntries(merged map[string]*scrapedEntry) []Entry {
	out := make([]Entry, 0, len(merged))
	for _, e := range merged {
		out = append(out, Entry{
			Title:       e.title,
			Platforms:   SortPlatforms(e.platforms),
			ReleaseYear: e.year,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out
}

func isProductLink(u *url.URL) bool {
	host := strings.ToLower(u.Host)
	for _, allowed := range productHosts {
		if host == allowed || strings.HasSuffix(host, "."+allowed) {
			return true
		}
	}
	return false
}

var nonAlnum = regexp.MustCompile(`[^A-Za-z0-9]+`)

// productID derives a dedup key from the product URL's last path segment,
// falling back to a sanitized title. Never persisted.
func productID(u *url.URL, title string) string {
	path := strings.TrimSuffix(u.Path, "/")
	if idx := strings.LastIndex(path, "/"); idx >= 0 {
		path = path[idx+1:]
	}
	if path != "" {
		return path
	}
	if cleaned := nonAlnum.ReplaceAllString(title, ""); cleaned != "" {
		return cleaned
	}
	return u.String()
}

// findCard walks up from an anchor to the card element that carries the
// entry's metadata: an article/li/div with a product-ish class or a
// data-app-id attribute.
func findCard(anchor *html.Node) *html.Node {
	for parent := anchor.Parent; parent != nil; parent = parent.Parent {
		if parent.Type != html.ElementNode {
			continue
		}
		switch parent.Data {
		case "article", "li", "div":
			classes := strings.ToLower(attr(parent, "class"))
			if attr(parent, "data-app-id") != "" ||
				strings.Contains(classes, "app") ||
				strings.Contains(classes, "card") {
				return parent
			}
		}
	}
	if anchor.Parent != nil {
		return anchor.Parent
	}
	return anchor
}

// platformTextSources collects the text of badge/tag/label-ish descendants
// of a card, where platform hints usually live.
func platformTextSources(card *html.Node) []string {
	if card == nil {
		return nil
	}
	var texts []string
	walk(card, func(node *html.Node) {
		if node.Type != html.ElementNode || node == card {
			return
		}
		classes := strings.ToLower(attr(node, "class"))
		if classes == "" {
			return
		}
		for _, hint := range []string{"platform", "tag", "label", "badge", "note"} {
			if strings.Contains(classes, hint) {
				if text := collapseText(node); text != "" {
					texts = append(texts, text)
				}
				break
			}
		}
	})
	return texts
}

func isNextLink(node *html.Node) bool {
	if strings.EqualFold(attr(node, "rel"), "next") {
		return true
	}
	if strings.EqualFold(attr(node, "aria-label"), "next") {
		return true
	}
	classes := strings.ToLower(attr(node, "class"))
	if strings.Contains(classes, "next") && strings.Contains(classes, "pag") {
		return true
	}
	if parent := node.Parent; parent != nil && parent.Type == html.ElementNode {
		parentClasses := strings.ToLower(attr(parent, "class"))
		if strings.Contains(parentClasses, "next") && strings.Contains(parentClasses, "pag") {
			return true
		}
	}
	return false
}

func walk(node *html.Node, fn func(*html.Node)) {
	fn(node)
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		walk(child, fn)
	}
}

func attr(node *html.Node, name string) string {
	for _, a := range node.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

// collapseText joins a node's text content with single spaces.
func collapseText(node *html.Node) string {
	if node == nil {
		return ""
	}
	var parts []string
	walk(node, func(n *html.Node) {
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				parts = append(parts, text)
			}
		}
	})
	return strings.Join(parts, " ")
}
