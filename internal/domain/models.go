package domain

import (
	"time"
)

// The subscription services the catalog tracks. KnownServices drives the
// per-service breakdown in search responses.
const (
	ServiceGamePass    = "gamepass"
	ServicePSPlus      = "psplus"
	ServiceUbisoftPlus = "ubisoftplus"
)

var KnownServices = []string{ServiceGamePass, ServicePSPlus, ServiceUbisoftPlus}

// TimestampLayout is the fixed-width UTC layout used everywhere a timestamp
// is stored or rendered. Fixed width keeps lexicographic order equal to
// chronological order, which the catalog upsert depends on.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Game is a canonical identity row keyed by its IGDB id. A game is created
// once and only name/alt-names/release-year are refreshed on re-resolution.
type Game struct {
	IGDBID           int64
	Name             string
	AltNames         []string
	FirstReleaseYear int // 0 when unknown
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Membership records that a service carries a game in a region.
// FirstSeenAt never regresses once set; LastSeenAt moves forward with every
// sighting. Rows are never deleted by reconciliation.
type Membership struct {
	Service      string
	IGDBID       int64
	Region       string
	ServiceTitle string
	Platforms    []string
	Tier         string // reserved, currently never populated by adapters
	FirstSeenAt  time.Time
	LastSeenAt   time.Time
}

// CachedIdentity is a raw resolved IGDB record cached by lower-cased title,
// used as a resolution source when the remote API is unavailable.
type CachedIdentity struct {
	IGDBID           int64    `json:"igdb_id"`
	Name             string   `json:"name"`
	AltNames         []string `json:"alt_names"`
	FirstReleaseYear int      `json:"first_release_year,omitempty"`
}
