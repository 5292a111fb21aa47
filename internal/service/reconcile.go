package service

import (
	"context"
	"time"

	"github.com/NickMickmlnn/GameTracking/internal/adapter"
	"github.com/NickMickmlnn/GameTracking/internal/domain"
	"github.com/NickMickmlnn/GameTracking/internal/repository"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

// TitleResolver is the identity-resolution surface the services depend on.
// Implemented by *igdb.Resolver; faked in tests.
type TitleResolver interface {
	Resolve(ctx context.Context, title string) (int64, bool)
	Search(ctx context.Context, query string, limit int) ([]domain.CachedIdentity, error)
}

// Reconciler merges one adapter's normalized entries into the catalog
// store. Failures are contained per entry: an unmatched title or a failed
// upsert never stops the rest of the batch.
type Reconciler struct {
	resolver TitleResolver
	games    *repository.GameRepository
	catalog  *repository.CatalogRepository
	logger   zerolog.Logger
}

func NewReconciler(resolver TitleResolver, games *repository.GameRepository, catalog *repository.CatalogRepository, logger zerolog.Logger) *Reconciler {
	return &Reconciler{resolver: resolver, games: games, catalog: catalog, logger: logger}
}

// Reconcile processes every entry and returns how many membership upserts
// succeeded.
func (r *Reconciler) Reconcile(ctx context.Context, entries []adapter.Entry, service, region string, observedAt time.Time) int {
	runID, err := gonanoid.New()
	if err != nil {
		runID = "unknown"
	}
	logger := r.logger.With().
		Str("run_id", runID).
		Str("service", service).
		Str("region", region).
		Logger()

	logger.Info().Int("entries", len(entries)).Msg("reconciliation cycle started")

	inserted := 0
	for _, entry := range entries {
		if entry.Title == "" {
			logger.Debug().Msg("skipping entry without a title")
			continue
		}

		igdbID, ok := r.resolver.Resolve(ctx, entry.Title)
		if !ok {
			// Expected for titles the identity source has not indexed
			// yet; they may resolve in a future cycle.
			logger.Debug().Str("title", entry.Title).Msg("skipping entry without identity match")
			continue
		}

		game := domain.Game{
			IGDBID:           igdbID,
			Name:             entry.Title,
			AltNames:         []string{entry.Title},
			FirstReleaseYear: entry.ReleaseYear,
		}
		if err := r.games.Ensure(ctx, &game); err != nil {
			logger.Warn().Err(err).Str("title", entry.Title).Msg("failed to ensure game")
		}

		membership := domain.Membership{
			Service:      service,
			IGDBID:       igdbID,
			Region:       region,
			ServiceTitle: entry.Title,
			Platforms:    entry.Platforms,
		}
		if err := r.catalog.Upsert(ctx, &membership, observedAt); err != nil {
			logger.Warn().Err(err).Str("title", entry.Title).Msg("failed to upsert catalog entry")
			continue
		}
		inserted++
	}

	logger.Info().Int("inserted", inserted).Msg("reconciliation cycle completed")
	return inserted
}
