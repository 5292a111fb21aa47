package adapter

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"

	"github.com/NickMickmlnn/GameTracking/internal/domain"
	"github.com/rs/zerolog"
)

//go:embed data/*.json
var fixtureFS embed.FS

const fixturePath = "data/gamepass.json"

// FixtureRecord is one row of the embedded static dataset. Unlike live
// sources the fixture carries pre-resolved IGDB ids, which the seeder uses
// to prime the identity store for offline resolution.
type FixtureRecord struct {
	IGDBID           int64    `json:"igdb_id"`
	Name             string   `json:"name"`
	ServiceTitle     string   `json:"service_title"`
	Platforms        []string `json:"platforms"`
	FirstReleaseYear int      `json:"first_release_year"`
}

// FixtureAdapter serves the embedded static Game Pass dataset. It backs
// local development and the startup seed.
type FixtureAdapter struct {
	logger zerolog.Logger
}

func NewFixtureAdapter(logger zerolog.Logger) *FixtureAdapter {
	return &FixtureAdapter{logger: logger}
}

func (a *FixtureAdapter) Service() string {
	return domain.ServiceGamePass
}

func (a *FixtureAdapter) Fetch(ctx context.Context, region string) ([]Entry, error) {
	records, err := FixtureRecords()
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(records))
	for _, record := range records {
		title := record.ServiceTitle
		if title == "" {
			title = record.Name
		}
		year := record.FirstReleaseYear
		if !YearInRange(year) {
			year = 0
		}
		entries = append(entries, Entry{
			Title:       title,
			Platforms:   NormalizePlatforms(record.Platforms),
			ReleaseYear: year,
		})
	}
	return entries, nil
}

// FixtureRecords loads the embedded dataset. An unreadable fixture is a
// startup-fatal condition for deployments that seed from it.
func FixtureRecords() ([]FixtureRecord, error) {
	raw, err := fixtureFS.ReadFile(fixturePath)
	if err != nil {
		return nil, fmt.Errorf("fixture dataset not found at %s: %w", fixturePath, err)
	}
	var records []FixtureRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("failed to decode fixture dataset: %w", err)
	}
	return records, nil
}
