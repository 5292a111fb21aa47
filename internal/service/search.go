package service

import (
	"context"

	"github.com/NickMickmlnn/GameTracking/internal/adapter"
	"github.com/NickMickmlnn/GameTracking/internal/config"
	"github.com/NickMickmlnn/GameTracking/internal/constants"
	"github.com/NickMickmlnn/GameTracking/internal/domain"
	"github.com/NickMickmlnn/GameTracking/internal/repository"
	"github.com/rs/zerolog"
)

// ServiceSummary is the per-service availability block of a search result.
type ServiceSummary struct {
	Available      bool     `json:"available"`
	ServiceTitle   string   `json:"service_title,omitempty"`
	Platforms      []string `json:"platforms,omitempty"`
	PlatformLabels []string `json:"platform_labels,omitempty"`
	Tier           string   `json:"tier,omitempty"`
	FirstSeenAt    string   `json:"first_seen_at,omitempty"`
	LastSeenAt     string   `json:"last_seen_at,omitempty"`
}

// SearchResult is one candidate game with its per-service availability.
type SearchResult struct {
	Name             string                    `json:"name"`
	IGDBID           int64                     `json:"igdb_id"`
	FirstReleaseYear int                       `json:"first_release_year,omitempty"`
	Services         map[string]ServiceSummary `json:"services"`
}

// SearchService answers availability queries by resolving candidates
// through the identity search and summarizing catalog rows per service.
// Its reads are independent of any in-flight reconciliation.
type SearchService struct {
	resolver TitleResolver
	catalog  *repository.CatalogRepository
	region   string
	logger   zerolog.Logger
}

func NewSearchService(cfg *config.Config, resolver TitleResolver, catalog *repository.CatalogRepository, logger zerolog.Logger) *SearchService {
	return &SearchService{
		resolver: resolver,
		catalog:  catalog,
		region:   cfg.Market,
		logger:   logger,
	}
}

func (s *SearchService) Search(ctx context.Context, query string) ([]SearchResult, error) {
	candidates, err := s.resolver.Search(ctx, query, constants.SearchLimit)
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(candidates))
	for _, candidate := range candidates {
		memberships, err := s.catalog.ListByGame(ctx, candidate.IGDBID, s.region)
		if err != nil {
			s.logger.Warn().Err(err).Int64("igdb_id", candidate.IGDBID).Msg("failed to read catalog rows")
			memberships = nil
		}

		services := make(map[string]ServiceSummary, len(domain.KnownServices))
		for _, serviceName := range domain.KnownServices {
			services[serviceName] = summarize(memberships, serviceName)
		}

		results = append(results, SearchResult{
			Name:             candidate.Name,
			IGDBID:           candidate.IGDBID,
			FirstReleaseYear: candidate.FirstReleaseYear,
			Services:         services,
		})
	}

	s.logger.Info().Str("query", query).Int("count", len(results)).Msg("search completed")
	return results, nil
}

// summarize picks the row with the greatest last-seen timestamp as the
// current state of a service; no row means not available.
func summarize(memberships []domain.Membership, serviceName string) ServiceSummary {
	var latest *domain.Membership
	for i := range memberships {
		m := &memberships[i]
		if m.Service != serviceName {
			continue
		}
		if latest == nil || m.LastSeenAt.After(latest.LastSeenAt) {
			latest = m
		}
	}
	if latest == nil {
		return ServiceSummary{Available: false}
	}

	labels := make([]string, 0, len(latest.Platforms))
	for _, platform := range latest.Platforms {
		labels = append(labels, adapter.PlatformLabel(platform))
	}

	return ServiceSummary{
		Available:      true,
		ServiceTitle:   latest.ServiceTitle,
		Platforms:      latest.Platforms,
		PlatformLabels: labels,
		Tier:           latest.Tier,
		FirstSeenAt:    latest.FirstSeenAt.UTC().Format(domain.TimestampLayout),
		LastSeenAt:     latest.LastSeenAt.UTC().Format(domain.TimestampLayout),
	}
}
