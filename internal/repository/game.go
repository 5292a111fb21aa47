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

// GameRepository is the identity store: canonical games keyed by IGDB id.
type GameRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewGameRepository(sqlDB *sql.DB, logger zerolog.Logger) *GameRepository {
	return &GameRepository{db: sqlDB, logger: logger}
}

// Upsert inserts or refreshes a game in place. Re-resolution is the intended
// merge path, so conflicts on igdb_id are not errors; name, alt names and
// release year are last-write-wins.
func (r *GameRepository) Upsert(ctx context.Context, game *domain.Game) error {
	altJSON, err := json.Marshal(orEmpty(game.AltNames))
	if err != nil {
		return fmt.Errorf("failed to marshal alt names: %w", err)
	}

	now := formatTime(time.Now())
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO games (igdb_id, name, alt_names_json, first_release_year, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(igdb_id) DO UPDATE SET
			name = excluded.name,
			alt_names_json = excluded.alt_names_json,
			first_release_year = excluded.first_release_year,
			updated_at = excluded.updated_at`,
		game.IGDBID, game.Name, string(altJSON), nullableYear(game.FirstReleaseYear), now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert game %d: %w", game.IGDBID, err)
	}
	return nil
}

// Ensure creates the game if it is absent and leaves an existing row
// untouched, so a catalog sighting never demotes a richer resolved record.
func (r *GameRepository) Ensure(ctx context.Context, game *domain.Game) error {
	altJSON, err := json.Marshal(orEmpty(game.AltNames))
	if err != nil {
		return fmt.Errorf("failed to marshal alt names: %w", err)
	}

	now := formatTime(time.Now())
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO games (igdb_id, name, alt_names_json, first_release_year, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(igdb_id) DO NOTHING`,
		game.IGDBID, game.Name, string(altJSON), nullableYear(game.FirstReleaseYear), now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to ensure game %d: %w", game.IGDBID, err)
	}
	return nil
}

// Find matches query as a case-insensitive substring of the name or any
// serialized alternate name. A miss is an empty slice, never an error.
func (r *GameRepository) Find(ctx context.Context, query string, limit int) ([]domain.Game, error) {
	pattern := "%" + strings.ToLower(query) + "%"
	rows, err := r.db.QueryContext(ctx, `
		SELECT igdb_id, name, alt_names_json, first_release_year, created_at, updated_at
		FROM games
		WHERE lower(name) LIKE ? OR lower(alt_names_json) LIKE ?
		ORDER BY name ASC
		LIMIT ?`,
		pattern, pattern, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search games: %w", err)
	}
	defer rows.Close()

	var games []domain.Game
	for rows.Next() {
		game, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, *game)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate games: %w", err)
	}
	return games, nil
}

// Get is a point lookup; a missing game is (nil, false, nil).
func (r *GameRepository) Get(ctx context.Context, igdbID int64) (*domain.Game, bool, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT igdb_id, name, alt_names_json, first_release_year, created_at, updated_at
		FROM games
		WHERE igdb_id = ?`,
		igdbID,
	)
	game, err := scanGame(row)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return game, true, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGame(row rowScanner) (*domain.Game, error) {
	var (
		game      domain.Game
		altJSON   string
		year      sql.NullInt64
		createdAt string
		updatedAt string
	)
	if err := row.Scan(&game.IGDBID, &game.Name, &altJSON, &year, &createdAt, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan game: %w", err)
	}

	if err := json.Unmarshal([]byte(altJSON), &game.AltNames); err != nil {
		// Tolerate a corrupt alternate-name blob; the canonical name is
		// still usable.
		game.AltNames = nil
	}
	if year.Valid {
		game.FirstReleaseYear = int(year.Int64)
	}
	game.CreatedAt = parseTime(createdAt)
	game.UpdatedAt = parseTime(updatedAt)
	return &game, nil
}

func nullableYear(year int) any {
	if year == 0 {
		return nil
	}
	return year
}

func orEmpty(names []string) []string {
	if names == nil {
		return []string{}
	}
	return names
}
