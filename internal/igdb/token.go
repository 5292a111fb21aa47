package igdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/NickMickmlnn/GameTracking/internal/constants"
	"github.com/sethvargo/go-retry"
	"github.com/valyala/fasthttp"
)

const defaultTokenURL = "https://id.twitch.tv/oauth2/token"

// ErrNoCredentials marks the remote identity API as unavailable rather than
// broken: callers fall back to the local store instead of failing.
var ErrNoCredentials = errors.New("igdb: client credentials are not configured")

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// tokenKeeper caches a client-credentials bearer token and refreshes it
// before expiry with a safety margin.
type tokenKeeper struct {
	clientID     string
	clientSecret string
	tokenURL     string
	http         *fasthttp.Client

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

func newTokenKeeper(clientID, clientSecret, tokenURL string, httpClient *fasthttp.Client) *tokenKeeper {
	if tokenURL == "" {
		tokenURL = defaultTokenURL
	}
	return &tokenKeeper{
		clientID:     clientID,
		clientSecret: clientSecret,
		tokenURL:     tokenURL,
		http:         httpClient,
	}
}

func (k *tokenKeeper) Token(ctx context.Context) (string, error) {
	if k.clientID == "" || k.clientSecret == "" {
		return "", ErrNoCredentials
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	if k.token != "" && time.Now().Before(k.expiresAt) {
		return k.token, nil
	}

	var resp tokenResponse
	backoff := retry.WithMaxRetries(constants.RemoteRetryCount, retry.NewExponential(500*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		fetched, err := k.fetch(ctx)
		if err != nil {
			return retry.RetryableError(err)
		}
		resp = fetched
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("token exchange failed: %w", err)
	}

	k.token = resp.AccessToken
	ttl := time.Duration(resp.ExpiresIn)*time.Second - constants.TokenExpiryMargin
	if ttl < 0 {
		ttl = 0
	}
	k.expiresAt = time.Now().Add(ttl)
	return k.token, nil
}

func (k *tokenKeeper) fetch(ctx context.Context) (tokenResponse, error) {
	form := url.Values{
		"client_id":     {k.clientID},
		"client_secret": {k.clientSecret},
		"grant_type":    {"client_credentials"},
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(k.tokenURL)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/x-www-form-urlencoded")
	req.SetBodyString(form.Encode())

	if err := doWithContext(ctx, k.http, req, resp); err != nil {
		return tokenResponse{}, err
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return tokenResponse{}, fmt.Errorf("token endpoint returned %d", resp.StatusCode())
	}

	var parsed tokenResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return tokenResponse{}, fmt.Errorf("failed to decode token response: %w", err)
	}
	if parsed.AccessToken == "" {
		return tokenResponse{}, errors.New("token response missing access_token")
	}
	return parsed, nil
}

func doWithContext(ctx context.Context, client *fasthttp.Client, req *fasthttp.Request, resp *fasthttp.Response) error {
	if deadline, ok := ctx.Deadline(); ok {
		return client.DoDeadline(req, resp, deadline)
	}
	return client.DoTimeout(req, resp, constants.ExternalAPITimeout)
}
