package service

import (
	"context"
	"sync"
	"time"

	"github.com/NickMickmlnn/GameTracking/internal/adapter"
	"github.com/NickMickmlnn/GameTracking/internal/config"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// RefreshService runs one reconciliation cycle per configured source
// adapter. Cycles are serialized: a cycle finishes before the next starts.
type RefreshService struct {
	registry   *adapter.Registry
	reconciler *Reconciler
	region     string
	logger     zerolog.Logger
}

func NewRefreshService(cfg *config.Config, registry *adapter.Registry, reconciler *Reconciler, logger zerolog.Logger) *RefreshService {
	return &RefreshService{
		registry:   registry,
		reconciler: reconciler,
		region:     cfg.Market,
		logger:     logger,
	}
}

// RefreshAll returns the inserted count per service. Upstream failure for
// one service surfaces as a low or zero count, never as an error: partial
// success is still success.
func (s *RefreshService) RefreshAll(ctx context.Context) map[string]int {
	counts := make(map[string]int)
	var mu sync.Mutex

	g := new(errgroup.Group)
	g.SetLimit(1)

	for _, src := range s.registry.Adapters() {
		src := src
		g.Go(func() error {
			observedAt := time.Now()
			entries, err := src.Fetch(ctx, s.region)
			if err != nil {
				s.logger.Warn().Err(err).Str("service", src.Service()).Msg("source fetch failed")
			}

			inserted := 0
			if len(entries) > 0 {
				inserted = s.reconciler.Reconcile(ctx, entries, src.Service(), s.region, observedAt)
			}

			mu.Lock()
			counts[src.Service()] += inserted
			mu.Unlock()
			return nil
		})
	}

	// Workers never return errors; Wait only orders completion.
	_ = g.Wait()
	return counts
}
