package constants

import "time"

const (
	ExternalAPITimeout = 10 * time.Second
	DatabaseTimeout    = 5 * time.Second
	RequestTimeout     = 30 * time.Second
	FetchPageTimeout   = 30 * time.Second
)

const (
	DBMaxOpenConns    = 100
	DBMaxIdleConns    = 10
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	// IGDB tokens are refreshed this long before their reported expiry.
	TokenExpiryMargin = 60 * time.Second

	ResolveLimit     = 1
	SearchLimit      = 5
	RemoteRetryCount = 2
)

const (
	ScrapeMaxPages = 50
	RESTMaxPages   = 50

	// Release years outside this window are treated as noise.
	MinReleaseYear = 1970
)
