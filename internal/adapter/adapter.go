package adapter

import (
	"context"
	"fmt"

	"github.com/NickMickmlnn/GameTracking/internal/config"
	"github.com/rs/zerolog"
)

// Entry is a normalized catalog sighting emitted by a source adapter.
// Platforms are already normalized and in display order; a zero ReleaseYear
// means unknown. Entries with no platform signals are still emitted.
type Entry struct {
	Title       string
	Platforms   []string
	ReleaseYear int
}

// SourceAdapter translates one external catalog's native representation
// into normalized entries. Adapters own their pagination and dedup state
// and never share state with each other.
type SourceAdapter interface {
	Service() string
	Fetch(ctx context.Context, region string) ([]Entry, error)
}

// Registry holds the adapters enabled for this deployment, one per service.
type Registry struct {
	adapters []SourceAdapter
}

func (r *Registry) Adapters() []SourceAdapter {
	return r.adapters
}

// NewRegistry selects the Game Pass adapter variant from configuration.
// The variants are mutually exclusive; exactly one runs per deployment.
func NewRegistry(cfg *config.Config, logger zerolog.Logger) (*Registry, error) {
	var gamepass SourceAdapter
	switch cfg.GamePassSource {
	case config.SourceFixture:
		gamepass = NewFixtureAdapter(logger)
	case config.SourceScrape:
		gamepass = NewScrapeAdapter(cfg, logger)
	case config.SourceFeed:
		gamepass = NewFeedAdapter(cfg, logger)
	case config.SourceREST:
		gamepass = NewRESTAdapter(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown gamepass source %q", cfg.GamePassSource)
	}

	logger.Info().
		Str("service", gamepass.Service()).
		Str("variant", cfg.GamePassSource).
		Msg("source adapter selected")

	return &Registry{adapters: []SourceAdapter{gamepass}}, nil
}
