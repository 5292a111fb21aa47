package service

import (
	"context"
	"fmt"
	"time"

	"github.com/NickMickmlnn/GameTracking/internal/adapter"
	"github.com/NickMickmlnn/GameTracking/internal/config"
	"github.com/NickMickmlnn/GameTracking/internal/domain"
	"github.com/NickMickmlnn/GameTracking/internal/repository"
	"github.com/rs/zerolog"
)

// Seeder loads the embedded fixture dataset at startup. It primes the
// identity store and the payload cache with the fixture's pre-resolved ids
// first, so the fixture entries resolve through the ordinary pipeline
// without network access, then reconciles them like any other source.
type Seeder struct {
	cfg        *config.Config
	games      *repository.GameRepository
	cache      *repository.IdentityCacheRepository
	reconciler *Reconciler
	logger     zerolog.Logger
}

func NewSeeder(cfg *config.Config, games *repository.GameRepository, cache *repository.IdentityCacheRepository, reconciler *Reconciler, logger zerolog.Logger) *Seeder {
	return &Seeder{cfg: cfg, games: games, cache: cache, reconciler: reconciler, logger: logger}
}

// Run seeds identities and memberships from the fixture. Any failure here
// is startup-fatal: the process must not serve traffic over an unseeded
// store it was configured to seed.
func (s *Seeder) Run(ctx context.Context) (int, error) {
	records, err := adapter.FixtureRecords()
	if err != nil {
		return 0, err
	}

	for _, record := range records {
		if record.IGDBID == 0 || record.Name == "" {
			return 0, fmt.Errorf("fixture record missing igdb_id or name: %+v", record)
		}

		game := domain.Game{
			IGDBID:           record.IGDBID,
			Name:             record.Name,
			AltNames:         altNamesFor(record),
			FirstReleaseYear: record.FirstReleaseYear,
		}
		if err := s.games.Upsert(ctx, &game); err != nil {
			return 0, fmt.Errorf("failed to seed game %d: %w", record.IGDBID, err)
		}

		identity := domain.CachedIdentity{
			IGDBID:           record.IGDBID,
			Name:             record.Name,
			AltNames:         game.AltNames,
			FirstReleaseYear: record.FirstReleaseYear,
		}
		for _, title := range cacheTitlesFor(record) {
			if err := s.cache.Put(ctx, title, &identity); err != nil {
				return 0, fmt.Errorf("failed to seed identity cache for %q: %w", title, err)
			}
		}
	}

	fixture := adapter.NewFixtureAdapter(s.logger)
	entries, err := fixture.Fetch(ctx, s.cfg.Market)
	if err != nil {
		return 0, err
	}

	inserted := s.reconciler.Reconcile(ctx, entries, fixture.Service(), s.cfg.Market, time.Now())
	s.logger.Info().Int("inserted", inserted).Msg("fixture dataset seeded")
	return inserted, nil
}

func altNamesFor(record adapter.FixtureRecord) []string {
	names := []string{record.Name}
	if record.ServiceTitle != "" && record.ServiceTitle != record.Name {
		names = append(names, record.ServiceTitle)
	}
	return names
}

// cacheTitlesFor lists every title the reconciler may try to resolve for a
// fixture record; each gets a cache row so resolution stays offline.
func cacheTitlesFor(record adapter.FixtureRecord) []string {
	titles := []string{record.Name}
	if record.ServiceTitle != "" && record.ServiceTitle != record.Name {
		titles = append(titles, record.ServiceTitle)
	}
	return titles
}
