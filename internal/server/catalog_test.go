package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/NickMickmlnn/GameTracking/internal/adapter"
	"github.com/NickMickmlnn/GameTracking/internal/config"
	"github.com/NickMickmlnn/GameTracking/internal/database"
	"github.com/NickMickmlnn/GameTracking/internal/domain"
	"github.com/NickMickmlnn/GameTracking/internal/igdb"
	"github.com/NickMickmlnn/GameTracking/internal/repository"
	"github.com/NickMickmlnn/GameTracking/internal/service"
	"github.com/rs/zerolog"
)

type unreachableRemote struct{}

func (unreachableRemote) Search(ctx context.Context, query string, limit int) ([]domain.CachedIdentity, error) {
	return nil, errors.New("remote unavailable")
}

// newTestMux wires the whole stack against a temp database with the
// fixture source, seeds it, and returns the routed mux.
func newTestMux(t *testing.T) *http.ServeMux {
	t.Helper()
	nop := zerolog.Nop()

	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"), nop)
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{Market: "US", GamePassSource: config.SourceFixture}

	games := repository.NewGameRepository(db, nop)
	cache := repository.NewIdentityCacheRepository(db, nop)
	catalog := repository.NewCatalogRepository(db, nop)
	resolver := igdb.NewResolver(unreachableRemote{}, games, cache, nop)
	reconciler := service.NewReconciler(resolver, games, catalog, nop)

	seeder := service.NewSeeder(cfg, games, cache, reconciler, nop)
	if _, err := seeder.Run(context.Background()); err != nil {
		t.Fatalf("seed: %v", err)
	}

	registry, err := adapter.NewRegistry(cfg, nop)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	refresh := service.NewRefreshService(cfg, registry, reconciler, nop)
	search := service.NewSearchService(cfg, resolver, catalog, nop)

	mux := http.NewServeMux()
	NewCatalogServer(search, refresh, nop).Register(mux)
	return mux
}

func TestHealthEndpoint(t *testing.T) {
	mux := newTestMux(t)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var body healthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.OK {
		t.Error("expected ok: true")
	}
}

func TestSearchEndpoint(t *testing.T) {
	mux := newTestMux(t)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/search?q=Halo+Infinite", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var body searchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Query != "Halo Infinite" {
		t.Errorf("unexpected query echo: %q", body.Query)
	}
	if len(body.Results) == 0 {
		t.Fatal("expected results for a seeded title")
	}

	result := body.Results[0]
	if result.IGDBID != 1020 {
		t.Errorf("unexpected candidate id: %d", result.IGDBID)
	}
	gamepass, ok := result.Services[domain.ServiceGamePass]
	if !ok || !gamepass.Available {
		t.Fatalf("expected gamepass availability, got %+v", result.Services)
	}
	if gamepass.FirstSeenAt == "" || gamepass.LastSeenAt == "" {
		t.Error("seen timestamps missing from the summary")
	}
}

func TestSearchEndpointRequiresQuery(t *testing.T) {
	mux := newTestMux(t)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/search", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}
}

func TestRefreshEndpoint(t *testing.T) {
	mux := newTestMux(t)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/refresh", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var body refreshResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "ok" {
		t.Errorf("unexpected status %q", body.Status)
	}
	if body.Counts[domain.ServiceGamePass] == 0 {
		t.Errorf("expected fixture inserts, got %v", body.Counts)
	}
}

func TestRefreshEndpointRejectsGet(t *testing.T) {
	mux := newTestMux(t)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/refresh", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status %d, want 405", rec.Code)
	}
}
