// ABOUTME: Feed model representing a subscribed RSS/Atom feed source
// ABOUTME: Tracks identity, credentials, sync history, and HTTP caching headers

package models

import (
	"time"

	"github.com/google/uuid"
)

// CredPlacement says how a feed credential is attached to fetch requests.
type CredPlacement string

const (
	CredPlacementNone   CredPlacement = ""
	CredPlacementQuery  CredPlacement = "query"
	CredPlacementHeader CredPlacement = "header"
)

// Valid reports whether the placement is one of the known values.
func (p CredPlacement) Valid() bool {
	switch p {
	case CredPlacementNone, CredPlacementQuery, CredPlacementHeader:
		return true
	}
	return false
}

// Feed represents an RSS/Atom feed subscription
type Feed struct {
	ID            string        `db:"id"`             // Unique identifier for the feed
	URL           string        `db:"url"`            // Feed URL (unique)
	Title         *string       `db:"title"`          // Feed title (from feed metadata or rename)
	Folder        string        `db:"folder"`         // Folder for organization (empty = root)
	Credential    *string       `db:"credential"`     // Opaque auth token (nil = none)
	CredPlacement CredPlacement `db:"cred_place"`     // How the credential is attached
	ETag          *string       `db:"etag"`           // HTTP ETag header for conditional requests
	LastModified  *string       `db:"last_modified"`  // HTTP Last-Modified header for conditional requests
	LastSyncedAt  *time.Time    `db:"last_synced_at"` // Timestamp of last successful sync
	LastError     *string       `db:"last_error"`     // Last sync error message (if any)
	ErrorCount    int           `db:"error_count"`    // Consecutive sync error count
	CreatedAt     time.Time     `db:"created_at"`     // Feed creation timestamp
}

// NewFeed creates a new Feed instance with a generated ID and timestamp
func NewFeed(url string) *Feed {
	return &Feed{
		ID:        uuid.New().String(),
		URL:       url,
		CreatedAt: time.Now(),
	}
}

// SetCredential attaches an auth token with the given placement.
func (f *Feed) SetCredential(token string, placement CredPlacement) {
	if token == "" {
		f.Credential = nil
		f.CredPlacement = CredPlacementNone
		return
	}
	f.Credential = &token
	f.CredPlacement = placement
}

// SetCacheHeaders updates the feed's HTTP caching headers for conditional requests
func (f *Feed) SetCacheHeaders(etag, lastModified string) {
	if etag != "" {
		f.ETag = &etag
	}
	if lastModified != "" {
		f.LastModified = &lastModified
	}
}

// DisplayTitle returns the feed title, falling back to the URL.
func (f *Feed) DisplayTitle() string {
	if f.Title != nil && *f.Title != "" {
		return *f.Title
	}
	return f.URL
}
