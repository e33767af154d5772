package feed

import (
	"time"

	"gighub/pkg/models"
)

const (
	TypeEventsSynced = "events.synced"
	TypeWalletUpdate = "wallet.update"
	TypeFollowUpdate = "follow.update"
)

// SyncEvent announces that an ingestion run landed new or refreshed shows.
type SyncEvent struct {
	Type   string         `json:"type"`
	Count  int            `json:"count"`
	Events []models.Event `json:"events,omitempty"`
	At     time.Time      `json:"at"`
}

type WalletEvent struct {
	Type    string    `json:"type"`
	UserID  string    `json:"user_id"`
	EventID string    `json:"event_id"`
	Status  string    `json:"status,omitempty"`
	At      time.Time `json:"at"`
}

type FollowEvent struct {
	Type       string    `json:"type"`
	UserID     string    `json:"user_id"`
	ArtistName string    `json:"artist_name"`
	Status     string    `json:"status,omitempty"`
	At         time.Time `json:"at"`
}
