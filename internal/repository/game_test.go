package repository

import (
	"context"
	"testing"

	"github.com/NickMickmlnn/GameTracking/internal/domain"
	"github.com/rs/zerolog"
)

func TestGameUpsertRefreshesInPlace(t *testing.T) {
	db := openTestDB(t)
	repo := NewGameRepository(db, zerolog.Nop())
	ctx := context.Background()

	first := &domain.Game{IGDBID: 1020, Name: "halo infinite"}
	if err := repo.Upsert(ctx, first); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	second := &domain.Game{
		IGDBID:           1020,
		Name:             "Halo Infinite",
		AltNames:         []string{"Halo 6"},
		FirstReleaseYear: 2021,
	}
	if err := repo.Upsert(ctx, second); err != nil {
		t.Fatalf("re-upsert: %v", err)
	}

	game, ok, err := repo.Get(ctx, 1020)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok {
		t.Fatal("game not found after upsert")
	}
	if game.Name != "Halo Infinite" {
		t.Errorf("re-resolution should refresh the name, got %q", game.Name)
	}
	if len(game.AltNames) != 1 || game.AltNames[0] != "Halo 6" {
		t.Errorf("unexpected alt names: %v", game.AltNames)
	}
	if game.FirstReleaseYear != 2021 {
		t.Errorf("unexpected release year: %d", game.FirstReleaseYear)
	}
}

func TestGameEnsureNeverDemotes(t *testing.T) {
	db := openTestDB(t)
	repo := NewGameRepository(db, zerolog.Nop())
	ctx := context.Background()

	resolved := &domain.Game{
		IGDBID:           119133,
		Name:             "Sea of Thieves",
		AltNames:         []string{"SoT"},
		FirstReleaseYear: 2018,
	}
	if err := repo.Upsert(ctx, resolved); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	sighting := &domain.Game{IGDBID: 119133, Name: "Sea of Thieves 2024 Edition"}
	if err := repo.Ensure(ctx, sighting); err != nil {
		t.Fatalf("ensure: %v", err)
	}

	game, ok, err := repo.Get(ctx, 119133)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if game.Name != "Sea of Thieves" {
		t.Errorf("a catalog sighting overwrote the resolved record: %q", game.Name)
	}
	if game.FirstReleaseYear != 2018 {
		t.Errorf("release year lost: %d", game.FirstReleaseYear)
	}
}

func TestGameFindMatchesAltNames(t *testing.T) {
	db := openTestDB(t)
	repo := NewGameRepository(db, zerolog.Nop())
	ctx := context.Background()

	games := []*domain.Game{
		{IGDBID: 1020, Name: "Halo Infinite", AltNames: []string{"Halo 6"}},
		{IGDBID: 111469, Name: "Gears 5", AltNames: []string{"Gears of War 5"}},
		{IGDBID: 26192, Name: "Grounded"},
	}
	for _, g := range games {
		if err := repo.Upsert(ctx, g); err != nil {
			t.Fatalf("upsert %d: %v", g.IGDBID, err)
		}
	}

	tests := []struct {
		query string
		want  []int64
	}{
		{"halo", []int64{1020}},
		{"gears of war", []int64{111469}},
		{"o", []int64{111469, 26192, 1020}}, // ordered by name
		{"zzz", nil},
	}
	for _, tt := range tests {
		found, err := repo.Find(ctx, tt.query, 10)
		if err != nil {
			t.Fatalf("find %q: %v", tt.query, err)
		}
		var ids []int64
		for _, g := range found {
			ids = append(ids, g.IGDBID)
		}
		if len(ids) != len(tt.want) {
			t.Errorf("find %q = %v, want %v", tt.query, ids, tt.want)
			continue
		}
		for i := range ids {
			if ids[i] != tt.want[i] {
				t.Errorf("find %q = %v, want %v", tt.query, ids, tt.want)
				break
			}
		}
	}
}

func TestGameGetMiss(t *testing.T) {
	db := openTestDB(t)
	repo := NewGameRepository(db, zerolog.Nop())

	game, ok, err := repo.Get(context.Background(), 999999)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok || game != nil {
		t.Fatalf("expected a miss, got %+v", game)
	}
}
