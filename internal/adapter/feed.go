package adapter

import (
	"context"
	"encoding/json"
	"net/url"
	"sort"
	"time"

	"github.com/NickMickmlnn/GameTracking/internal/config"
	"github.com/NickMickmlnn/GameTracking/internal/domain"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
)

const defaultFeedBaseURL = "https://catalog.gamepass.com/sigls/v2"

// Game Pass catalog feed ids: console, PC, and cloud clusters.
var defaultFeedIDs = []string{
	"f6f1f99f-9b49-4ccd-b3bf-4d9767a77f5e",
	"fdd9e2a7-0fee-49f6-ad69-4354098401ff",
	"29a81209-df6f-41fd-a528-2ae6b91f719c",
}

// FeedAdapter fetches catalog feed documents by id and merges their
// clustered product lists. The same product id can appear in several feeds
// (one per platform cluster); duplicates are merged by unioning tags and
// availability records before normalizing.
type FeedAdapter struct {
	baseURL  string
	feedIDs  []string
	language string
	http     *fasthttp.Client
	logger   zerolog.Logger
}

func NewFeedAdapter(cfg *config.Config, logger zerolog.Logger) *FeedAdapter {
	base := cfg.FeedBaseURL
	if base == "" {
		base = defaultFeedBaseURL
	}
	ids := cfg.FeedIDs
	if len(ids) == 0 {
		ids = defaultFeedIDs
	}
	return &FeedAdapter{
		baseURL:  base,
		feedIDs:  ids,
		language: cfg.Language,
		http:     newHTTPClient(cfg.RequestTimeout),
		logger:   logger,
	}
}

func (a *FeedAdapter) Service() string {
	return domain.ServiceGamePass
}

type feedDocument struct {
	ID       string        `json:"id"`
	Products []feedProduct `json:"products"`
}

type feedProduct struct {
	ProductID      string             `json:"productId"`
	Title          string             `json:"title"`
	Tags           []string           `json:"tags"`
	ReleaseDate    string             `json:"releaseDate"`
	Availabilities []feedAvailability `json:"availabilities"`
}

type feedAvailability struct {
	SKU        string   `json:"sku"`
	Attributes []string `json:"attributes"`
}

// Fetch downloads every configured feed document. A failed or malformed
// feed is abandoned; products accumulated from the other feeds still flow
// through.
func (a *FeedAdapter) Fetch(ctx context.Context, region string) ([]Entry, error) {
	merged := make(map[string]*feedProduct)

	for _, feedID := range a.feedIDs {
		body, err := fetchBody(ctx, a.http, a.feedURL(feedID, region))
		if err != nil {
			a.logger.Warn().Err(err).Str("feed_id", feedID).Msg("unable to download catalog feed")
			continue
		}
		var doc feedDocument
		if err := json.Unmarshal(body, &doc); err != nil {
			a.logger.Warn().Err(err).Str("feed_id", feedID).Msg("malformed catalog feed document")
			continue
		}

		for i := range doc.Products {
			product := doc.Products[i]
			if product.ProductID == "" || product.Title == "" {
				a.logger.Debug().Str("feed_id", feedID).Msg("skipping feed product without id or title")
				continue
			}
			if existing, ok := merged[product.ProductID]; ok {
				existing.Tags = append(existing.Tags, product.Tags...)
				existing.Availabilities = append(existing.Availabilities, product.Availabilities...)
				if existing.ReleaseDate == "" {
					existing.ReleaseDate = product.ReleaseDate
				}
			} else {
				merged[product.ProductID] = &product
			}
		}
	}

	entries := make([]Entry, 0, len(merged))
	for _, product := range merged {
		entries = append(entries, Entry{
			Title:       product.Title,
			Platforms:   feedPlatforms(product),
			ReleaseYear: feedReleaseYear(product.ReleaseDate),
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Title < entries[j].Title })
	return entries, nil
}

func (a *FeedAdapter) feedURL(feedID, region string) string {
	params := url.Values{
		"id":       {feedID},
		"language": {a.language},
		"market":   {region},
	}
	return a.baseURL + "?" + params.Encode()
}

// feedPlatforms derives the platform set from the product's tag vocabulary
// and its nested availability attribute lists, using the shared taxonomy.
func feedPlatforms(product *feedProduct) []string {
	set := make(map[string]struct{})
	for _, tag := range product.Tags {
		for _, token := range TokensFromText(tag) {
			set[token] = struct{}{}
		}
	}
	for _, availability := range product.Availabilities {
		for _, attribute := range availability.Attributes {
			for _, token := range TokensFromText(attribute) {
				set[token] = struct{}{}
			}
		}
		for _, token := range TokensFromText(availability.SKU) {
			set[token] = struct{}{}
		}
	}
	return SortPlatforms(set)
}

// feedReleaseYear reads a year out of an ISO date field, tolerating parse
// failure by omitting the year.
func feedReleaseYear(raw string) int {
	if raw == "" {
		return 0
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			if year := parsed.UTC().Year(); YearInRange(year) {
				return year
			}
			return 0
		}
	}
	return 0
}
