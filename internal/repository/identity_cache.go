package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/NickMickmlnn/GameTracking/internal/domain"
	"github.com/rs/zerolog"
)

// IdentityCacheRepository keeps raw resolved IGDB payloads keyed by
// lower-cased title. It is only read as a fallback when the remote identity
// API cannot be reached; the latest write for a title wins.
type IdentityCacheRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewIdentityCacheRepository(sqlDB *sql.DB, logger zerolog.Logger) *IdentityCacheRepository {
	return &IdentityCacheRepository{db: sqlDB, logger: logger}
}

func (r *IdentityCacheRepository) Put(ctx context.Context, title string, record *domain.CachedIdentity) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal identity payload: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO igdb_cache (name, igdb_id, payload_json, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			igdb_id = excluded.igdb_id,
			payload_json = excluded.payload_json,
			updated_at = excluded.updated_at`,
		strings.ToLower(title), record.IGDBID, string(payload), formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("failed to cache identity payload for %q: %w", title, err)
	}
	return nil
}

// Get returns the cached record for a title, or (nil, false) on a miss.
// A structurally invalid payload is treated as a miss.
func (r *IdentityCacheRepository) Get(ctx context.Context, title string) (*domain.CachedIdentity, bool, error) {
	var payload string
	err := r.db.QueryRowContext(ctx, `
		SELECT payload_json FROM igdb_cache WHERE name = ?`,
		strings.ToLower(title),
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read identity cache for %q: %w", title, err)
	}

	var record domain.CachedIdentity
	if err := json.Unmarshal([]byte(payload), &record); err != nil || record.IGDBID == 0 {
		r.logger.Debug().Str("title", title).Msg("discarding invalid cached identity payload")
		return nil, false, nil
	}
	return &record, true, nil
}
