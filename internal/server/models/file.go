// Package models defines server-side data models persisted in the database.
package models

import "time"

// File describes an uploaded payload. The bytes live in object storage
// under StorageKey; the row records who owns it and when it arrived.
type File struct {
	ID string
	// UserID is the owner. Set once at creation and never reassigned.
	UserID      string
	StorageKey  string
	FileName    string
	ContentType string
	Size        int64
	CreatedAt   time.Time
}
