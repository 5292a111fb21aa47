package igdb

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/NickMickmlnn/GameTracking/internal/config"
	"github.com/NickMickmlnn/GameTracking/internal/domain"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
)

const defaultBaseURL = "https://api.igdb.com/v4"

// Client searches the IGDB identity API with client-credentials auth.
type Client struct {
	clientID string
	baseURL  string
	tokens   *tokenKeeper
	http     *fasthttp.Client
	logger   zerolog.Logger
}

func NewClient(cfg *config.Config, logger zerolog.Logger) *Client {
	httpClient := &fasthttp.Client{
		MaxConnsPerHost:     100,
		ReadTimeout:         cfg.RequestTimeout,
		WriteTimeout:        cfg.RequestTimeout,
		MaxIdleConnDuration: 1 * time.Minute,
	}
	return &Client{
		clientID: cfg.TwitchClientID,
		baseURL:  defaultBaseURL,
		tokens:   newTokenKeeper(cfg.TwitchClientID, cfg.TwitchClientSecret, "", httpClient),
		http:     httpClient,
		logger:   logger,
	}
}

type gameRecord struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	AlternativeNames []struct {
		Name string `json:"name"`
	} `json:"alternative_names"`
	FirstReleaseDate int64 `json:"first_release_date"`
}

// Search issues an Apicalypse query against /games and maps the response
// into identity records. Credential absence surfaces as ErrNoCredentials.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]domain.CachedIdentity, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	body := fmt.Sprintf(
		"search %q; fields name,alternative_names.name,first_release_date; limit %d;",
		strings.ReplaceAll(query, `"`, ""), limit,
	)

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + "/games")
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.Set("Client-ID", c.clientID)
	req.Header.Set("Authorization", "Bearer "+token)
	req.SetBodyString(body)

	if err := doWithContext(ctx, c.http, req, resp); err != nil {
		return nil, fmt.Errorf("igdb search failed: %w", err)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("igdb search returned %d", resp.StatusCode())
	}

	var games []gameRecord
	if err := json.Unmarshal(resp.Body(), &games); err != nil {
		return nil, fmt.Errorf("failed to decode igdb response: %w", err)
	}

	records := make([]domain.CachedIdentity, 0, len(games))
	for _, g := range games {
		record := domain.CachedIdentity{
			IGDBID: g.ID,
			Name:   g.Name,
		}
		for _, alt := range g.AlternativeNames {
			if alt.Name != "" {
				record.AltNames = append(record.AltNames, alt.Name)
			}
		}
		if g.FirstReleaseDate > 0 {
			record.FirstReleaseYear = time.Unix(g.FirstReleaseDate, 0).UTC().Year()
		}
		records = append(records, record)
	}

	c.logger.Debug().Str("query", query).Int("count", len(records)).Msg("igdb search completed")
	return records, nil
}

// SetBaseURL points the client at a different API host. Used by tests.
func (c *Client) SetBaseURL(base string) {
	c.baseURL = strings.TrimSuffix(base, "/")
}

// SetTokenURL points the token keeper at a different exchange host.
func (c *Client) SetTokenURL(tokenURL string) {
	c.tokens.tokenURL = tokenURL
}
