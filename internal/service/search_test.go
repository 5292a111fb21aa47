package service

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/NickMickmlnn/GameTracking/internal/config"
	"github.com/NickMickmlnn/GameTracking/internal/domain"
	"github.com/NickMickmlnn/GameTracking/internal/repository"
	"github.com/rs/zerolog"
)

func TestSearchSummarizesPerService(t *testing.T) {
	db := openServiceTestDB(t)
	catalog := repository.NewCatalogRepository(db, zerolog.Nop())
	resolver := &stubResolver{ids: map[string]int64{"Halo Infinite": 1020}}
	cfg := &config.Config{Market: "US"}
	search := NewSearchService(cfg, resolver, catalog, zerolog.Nop())
	ctx := context.Background()

	at := time.Date(2026, 8, 20, 7, 0, 0, 0, time.UTC)
	membership := &domain.Membership{
		Service:      domain.ServiceGamePass,
		IGDBID:       1020,
		Region:       "US",
		ServiceTitle: "Halo Infinite",
		Platforms:    []string{"console", "pc", "cloud"},
	}
	if err := catalog.Upsert(ctx, membership, at); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	results, err := search.Search(ctx, "Halo Infinite")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}

	result := results[0]
	if result.IGDBID != 1020 {
		t.Fatalf("unexpected candidate: %+v", result)
	}
	if len(result.Services) != len(domain.KnownServices) {
		t.Errorf("every known service gets a block, got %v", result.Services)
	}

	gamepass := result.Services[domain.ServiceGamePass]
	if !gamepass.Available {
		t.Fatal("expected gamepass availability")
	}
	if gamepass.ServiceTitle != "Halo Infinite" {
		t.Errorf("unexpected service title: %q", gamepass.ServiceTitle)
	}
	if !reflect.DeepEqual(gamepass.Platforms, []string{"console", "pc", "cloud"}) {
		t.Errorf("unexpected platforms: %v", gamepass.Platforms)
	}
	if !reflect.DeepEqual(gamepass.PlatformLabels, []string{"Console", "PC", "Cloud"}) {
		t.Errorf("unexpected platform labels: %v", gamepass.PlatformLabels)
	}
	if gamepass.FirstSeenAt != "2026-08-20T07:00:00.000Z" {
		t.Errorf("unexpected first_seen_at: %q", gamepass.FirstSeenAt)
	}

	for _, absent := range []string{domain.ServicePSPlus, domain.ServiceUbisoftPlus} {
		if result.Services[absent].Available {
			t.Errorf("%s should report unavailable", absent)
		}
	}
}

func TestSearchWithoutIdentityMatch(t *testing.T) {
	db := openServiceTestDB(t)
	catalog := repository.NewCatalogRepository(db, zerolog.Nop())
	resolver := &stubResolver{}
	search := NewSearchService(&config.Config{Market: "US"}, resolver, catalog, zerolog.Nop())

	results, err := search.Search(context.Background(), "nothing known")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results, got %+v", results)
	}
}

func TestSummarizePicksLatestRow(t *testing.T) {
	older := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(48 * time.Hour)
	memberships := []domain.Membership{
		{Service: domain.ServiceGamePass, ServiceTitle: "stale title", LastSeenAt: older, FirstSeenAt: older},
		{Service: domain.ServiceGamePass, ServiceTitle: "current title", LastSeenAt: newer, FirstSeenAt: older},
		{Service: domain.ServicePSPlus, ServiceTitle: "other service", LastSeenAt: newer.Add(time.Hour), FirstSeenAt: older},
	}

	summary := summarize(memberships, domain.ServiceGamePass)
	if !summary.Available {
		t.Fatal("expected availability")
	}
	if summary.ServiceTitle != "current title" {
		t.Errorf("expected the row with the greatest last_seen_at, got %q", summary.ServiceTitle)
	}
}
