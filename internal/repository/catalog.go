package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/NickMickmlnn/GameTracking/internal/domain"
	"github.com/rs/zerolog"
)

// CatalogRepository stores per-service catalog membership rows keyed by
// (service, igdb_id, region).
type CatalogRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewCatalogRepository(sqlDB *sql.DB, logger zerolog.Logger) *CatalogRepository {
	return &CatalogRepository{db: sqlDB, logger: logger}
}

// Upsert records a sighting. The whole write is one statement so concurrent
// refresh cycles hitting the same key cannot interleave a read-then-write:
// first_seen_at is kept at the minimum of the existing and the observed
// timestamp, last_seen_at at the maximum. Timestamps are fixed-width UTC
// strings, so SQL MIN/MAX on them is chronological.
func (r *CatalogRepository) Upsert(ctx context.Context, m *domain.Membership, observedAt time.Time) error {
	platformsJSON, err := json.Marshal(orEmpty(m.Platforms))
	if err != nil {
		return fmt.Errorf("failed to marshal platforms: %w", err)
	}

	seen := formatTime(observedAt)
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO catalog_items (service, igdb_id, region, service_title, platforms_json, tier, first_seen_at, last_seen_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(service, igdb_id, region) DO UPDATE SET
			service_title = excluded.service_title,
			platforms_json = excluded.platforms_json,
			tier = excluded.tier,
			first_seen_at = MIN(catalog_items.first_seen_at, excluded.first_seen_at),
			last_seen_at = MAX(catalog_items.last_seen_at, excluded.last_seen_at)`,
		m.Service, m.IGDBID, m.Region, m.ServiceTitle, string(platformsJSON), nullableString(m.Tier), seen, seen,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert catalog item %s/%d/%s: %w", m.Service, m.IGDBID, m.Region, err)
	}
	return nil
}

// ListByGame returns every service row for a game in a region, unordered.
// The caller picks the current row per service.
func (r *CatalogRepository) ListByGame(ctx context.Context, igdbID int64, region string) ([]domain.Membership, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT service, igdb_id, region, service_title, platforms_json, tier, first_seen_at, last_seen_at
		FROM catalog_items
		WHERE igdb_id = ? AND region = ?`,
		igdbID, region,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list catalog items for %d: %w", igdbID, err)
	}
	defer rows.Close()

	var memberships []domain.Membership
	for rows.Next() {
		var (
			m             domain.Membership
			platformsJSON string
			tier          sql.NullString
			firstSeen     string
			lastSeen      string
		)
		if err := rows.Scan(&m.Service, &m.IGDBID, &m.Region, &m.ServiceTitle, &platformsJSON, &tier, &firstSeen, &lastSeen); err != nil {
			return nil, fmt.Errorf("failed to scan catalog item: %w", err)
		}
		if err := json.Unmarshal([]byte(platformsJSON), &m.Platforms); err != nil {
			m.Platforms = nil
		}
		if tier.Valid {
			m.Tier = tier.String
		}
		m.FirstSeenAt = parseTime(firstSeen)
		m.LastSeenAt = parseTime(lastSeen)
		memberships = append(memberships, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate catalog items: %w", err)
	}
	return memberships, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
