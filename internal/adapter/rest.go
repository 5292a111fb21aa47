package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/NickMickmlnn/GameTracking/internal/config"
	"github.com/NickMickmlnn/GameTracking/internal/constants"
	"github.com/NickMickmlnn/GameTracking/internal/domain"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
)

const defaultRESTBaseURL = "https://catalog.gamepass.com/v3/products"

// RESTAdapter follows a generic pagination contract: the body is either a
// bare JSON array (no pagination) or an object with an item list and a next
// link, where the link is an absolute URL or an opaque continuation token.
// Field priority when several are present: items > data > results, and
// next > nextPage > nextPageToken.
type RESTAdapter struct {
	baseURL string
	http    *fasthttp.Client
	logger  zerolog.Logger
}

func NewRESTAdapter(cfg *config.Config, logger zerolog.Logger) *RESTAdapter {
	base := cfg.RESTBaseURL
	if base == "" {
		base = defaultRESTBaseURL
	}
	return &RESTAdapter{
		baseURL: base,
		http:    newHTTPClient(cfg.RequestTimeout),
		logger:  logger,
	}
}

func (a *RESTAdapter) Service() string {
	return domain.ServiceGamePass
}

func (a *RESTAdapter) Fetch(ctx context.Context, region string) ([]Entry, error) {
	seen := make(map[string]struct{})
	var entries []Entry

	pageURL := a.pageURL(region, "")
	for page := 1; page <= constants.RESTMaxPages; page++ {
		body, err := fetchBody(ctx, a.http, pageURL)
		if err != nil {
			a.logger.Warn().Err(err).Int("page", page).Msg("unable to download feed page")
			break
		}

		items, next, err := decodePage(body)
		if err != nil {
			a.logger.Warn().Err(err).Int("page", page).Msg("malformed feed page")
			break
		}

		for _, item := range items {
			entry, id, err := item.normalize()
			if err != nil {
				a.logger.Debug().Err(err).Msg("skipping malformed feed item")
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			entries = append(entries, entry)
		}

		if next == "" {
			break
		}
		if strings.HasPrefix(next, "http://") || strings.HasPrefix(next, "https://") {
			pageURL = next
		} else {
			pageURL = a.pageURL(region, next)
		}
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Title < entries[j].Title })
	return entries, nil
}

func (a *RESTAdapter) pageURL(region, token string) string {
	params := url.Values{"market": {region}}
	if token != "" {
		params.Set("page_token", token)
	}
	sep := "?"
	if strings.Contains(a.baseURL, "?") {
		sep = "&"
	}
	return a.baseURL + sep + params.Encode()
}

type restPage struct {
	Items   []restItem `json:"items"`
	Data    []restItem `json:"data"`
	Results []restItem `json:"results"`

	Next          string `json:"next"`
	NextPage      string `json:"nextPage"`
	NextPageToken string `json:"nextPageToken"`
}

// decodePage accepts either pagination body shape and returns the item list
// plus the next-page descriptor ("" when pagination ends).
func decodePage(body []byte) ([]restItem, string, error) {
	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "[") {
		var items []restItem
		if err := json.Unmarshal(body, &items); err != nil {
			return nil, "", fmt.Errorf("failed to decode item array: %w", err)
		}
		return items, "", nil
	}

	var page restPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, "", fmt.Errorf("failed to decode page object: %w", err)
	}

	items := page.Items
	if len(items) == 0 {
		items = page.Data
	}
	if len(items) == 0 {
		items = page.Results
	}

	next := page.Next
	if next == "" {
		next = page.NextPage
	}
	if next == "" {
		next = page.NextPageToken
	}
	return items, next, nil
}

type restItem struct {
	ID        string `json:"id"`
	ProductID string `json:"productId"`
	Slug      string `json:"slug"`

	Title string `json:"title"`
	Name  string `json:"name"`

	// Platforms may be a list of tokens or a single comma/space separated
	// string; anything else is a malformed entry.
	Platforms json.RawMessage `json:"platforms"`
	PC        bool            `json:"pc"`
	Console   bool            `json:"console"`
	Cloud     bool            `json:"cloud"`
	Notes     string          `json:"notes"`

	ReleaseYear json.RawMessage `json:"releaseYear"`
}

// normalize converts a feed item into an Entry plus its dedup id. Field
// priority: id > productId > slug for the dedup key; title > name for the
// display title.
func (item restItem) normalize() (Entry, string, error) {
	title := item.Title
	if title == "" {
		title = item.Name
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return Entry{}, "", errors.New("item has no title")
	}

	id := item.ID
	if id == "" {
		id = item.ProductID
	}
	if id == "" {
		id = item.Slug
	}
	if id == "" {
		id = nonAlnum.ReplaceAllString(strings.ToLower(title), "")
	}

	set := make(map[string]struct{})
	tokens, err := platformTokens(item.Platforms)
	if err != nil {
		return Entry{}, "", err
	}
	for _, token := range tokens {
		if normalized := NormalizeToken(token); normalized != "" {
			set[normalized] = struct{}{}
		}
	}
	if item.PC {
		set[PlatformPC] = struct{}{}
	}
	if item.Console {
		set[PlatformConsole] = struct{}{}
	}
	if item.Cloud {
		set[PlatformCloud] = struct{}{}
	}
	for _, token := range TokensFromText(item.Notes) {
		set[token] = struct{}{}
	}

	return Entry{
		Title:       title,
		Platforms:   SortPlatforms(set),
		ReleaseYear: restReleaseYear(item.ReleaseYear),
	}, id, nil
}

// platformTokens tolerantly decodes the platforms field: a string list, a
// single delimited string, or absent. Any other shape is malformed and
// poisons only this item.
func platformTokens(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}

	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return strings.FieldsFunc(single, func(r rune) bool {
			return r == ',' || r == ' ' || r == ';'
		}), nil
	}

	return nil, fmt.Errorf("platforms field is neither a list nor a string: %s", string(raw))
}

func restReleaseYear(raw json.RawMessage) int {
	if len(raw) == 0 || string(raw) == "null" {
		return 0
	}
	var year int
	if err := json.Unmarshal(raw, &year); err == nil {
		if YearInRange(year) {
			return year
		}
		return 0
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return ExtractYear(text)
	}
	return 0
}
