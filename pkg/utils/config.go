package utils

import (
	"os"
	"strconv"
	"time"
)

type AuthConfig struct {
	JWTSecret   string
	JWTIssuer   string
	JWTDuration time.Duration
}

func LoadAuthConfig() AuthConfig {
	secret := os.Getenv("GIGHUB_JWT_SECRET")
	if secret == "" {
		// dev default (change for demo / production)
		secret = "dev-secret-change-me"
	}

	issuer := os.Getenv("GIGHUB_JWT_ISSUER")
	if issuer == "" {
		issuer = "gighub"
	}

	duration := 24 * time.Hour
	if ttl := os.Getenv("GIGHUB_JWT_TTL_HOURS"); ttl != "" {
		if hours, err := strconv.Atoi(ttl); err == nil && hours > 0 {
			duration = time.Duration(hours) * time.Hour
		}
	}

	return AuthConfig{
		JWTSecret:   secret,
		JWTIssuer:   issuer,
		JWTDuration: duration,
	}
}

// ListingsConfig points at the third-party concert listing service.
// The app id is the only credential the service wants.
type ListingsConfig struct {
	BaseURL string
	AppID   string
}

func LoadListingsConfig() ListingsConfig {
	base := os.Getenv("GIGHUB_LISTINGS_BASE_URL")
	if base == "" {
		base = "https://rest.bandsintown.com"
	}

	appID := os.Getenv("GIGHUB_LISTINGS_APP_ID")
	if appID == "" {
		appID = "gighub-dev"
	}

	return ListingsConfig{BaseURL: base, AppID: appID}
}

// SyncConfig carries the batch pipeline knobs.
type SyncConfig struct {
	MaxArtists     int
	GroupSize      int
	LimitPerArtist int
}

func LoadSyncConfig() SyncConfig {
	return SyncConfig{
		MaxArtists:     envInt("GIGHUB_SYNC_MAX_ARTISTS", 10),
		GroupSize:      envInt("GIGHUB_SYNC_GROUP_SIZE", 5),
		LimitPerArtist: envInt("GIGHUB_SYNC_LIMIT_PER_ARTIST", 50),
	}
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
