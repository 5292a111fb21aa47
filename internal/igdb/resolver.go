package igdb

import (
	"context"
	"strings"
	"sync"

	"github.com/NickMickmlnn/GameTracking/internal/constants"
	"github.com/NickMickmlnn/GameTracking/internal/domain"
	"github.com/NickMickmlnn/GameTracking/internal/repository"
	"github.com/rs/zerolog"
)

// RemoteSearcher is the remote identity API surface the resolver depends on.
// Implemented by *Client; faked in tests.
type RemoteSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]domain.CachedIdentity, error)
}

// Resolver maps free-text titles to canonical IGDB ids. It owns a
// process-scoped memo (hits and misses both remembered) so a title is looked
// up remotely at most once per run, and degrades to the durable payload
// cache and the local identity store when the remote API is unavailable.
type Resolver struct {
	remote RemoteSearcher
	games  *repository.GameRepository
	cache  *repository.IdentityCacheRepository
	logger zerolog.Logger

	mu   sync.Mutex
	memo map[string]int64 // 0 records a remembered no-match
}

func NewResolver(remote RemoteSearcher, games *repository.GameRepository, cache *repository.IdentityCacheRepository, logger zerolog.Logger) *Resolver {
	return &Resolver{
		remote: remote,
		games:  games,
		cache:  cache,
		logger: logger,
		memo:   make(map[string]int64),
	}
}

// Resolve returns the canonical id for a title, or false when nothing
// matches. A failed lookup is memoized too, so repeated misses within one
// run make no further remote calls.
func (r *Resolver) Resolve(ctx context.Context, title string) (int64, bool) {
	key := strings.ToLower(strings.TrimSpace(title))
	if key == "" {
		return 0, false
	}

	r.mu.Lock()
	id, seen := r.memo[key]
	r.mu.Unlock()
	if seen {
		return id, id != 0
	}

	if cached, ok, err := r.cache.Get(ctx, key); err == nil && ok {
		r.remember(key, cached.IGDBID)
		return cached.IGDBID, true
	} else if err != nil {
		r.logger.Warn().Err(err).Str("title", title).Msg("identity cache lookup failed")
	}

	results, err := r.Search(ctx, title, constants.ResolveLimit)
	if err != nil {
		r.logger.Warn().Err(err).Str("title", title).Msg("identity search failed")
		r.remember(key, 0)
		return 0, false
	}
	if len(results) == 0 {
		r.remember(key, 0)
		return 0, false
	}

	r.remember(key, results[0].IGDBID)
	return results[0].IGDBID, true
}

// Search queries the remote identity API and writes every fresh result back
// into the identity store and the payload cache, so later runs can resolve
// without network access. When the remote call fails (including missing
// credentials) it falls back to a substring search over the identity store;
// fallback results are not fresh and do not re-trigger cache writes.
func (r *Resolver) Search(ctx context.Context, query string, limit int) ([]domain.CachedIdentity, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	records, err := r.remote.Search(ctx, query, limit)
	if err != nil {
		r.logger.Warn().Err(err).Str("query", query).Msg("falling back to cached identity data")
		return r.fallback(ctx, query, limit)
	}

	for _, record := range records {
		game := domain.Game{
			IGDBID:           record.IGDBID,
			Name:             record.Name,
			AltNames:         record.AltNames,
			FirstReleaseYear: record.FirstReleaseYear,
		}
		if err := r.games.Upsert(ctx, &game); err != nil {
			r.logger.Debug().Err(err).Int64("igdb_id", record.IGDBID).Msg("unable to store identity record")
			continue
		}
		rec := record
		if err := r.cache.Put(ctx, record.Name, &rec); err != nil {
			r.logger.Debug().Err(err).Int64("igdb_id", record.IGDBID).Msg("unable to cache identity payload")
		}
	}

	if len(records) == 0 {
		return r.fallback(ctx, query, limit)
	}
	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func (r *Resolver) fallback(ctx context.Context, query string, limit int) ([]domain.CachedIdentity, error) {
	games, err := r.games.Find(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	records := make([]domain.CachedIdentity, 0, len(games))
	for _, g := range games {
		records = append(records, domain.CachedIdentity{
			IGDBID:           g.IGDBID,
			Name:             g.Name,
			AltNames:         g.AltNames,
			FirstReleaseYear: g.FirstReleaseYear,
		})
	}
	return records, nil
}

func (r *Resolver) remember(key string, id int64) {
	r.mu.Lock()
	r.memo[key] = id
	r.mu.Unlock()
}
