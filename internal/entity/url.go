// Package entity defines the shortened URL record and the errors shared
// between the storage and delivery layers.
package entity

import (
	"errors"
	"time"
)

var (
	// ErrShortCodeExists is returned by an insert whose short code is already taken.
	ErrShortCodeExists = errors.New("short code exists")
	// ErrURLNotFound reports that no URL is stored under the requested short code.
	ErrURLNotFound = errors.New("url not found")
)

// URL is a stored mapping from a short code to the original URL.
type URL struct {
	ID          int64     // ID is assigned by the database.
	ShortCode   string    // ShortCode is the unique 6 character code.
	OriginalURL string    // OriginalURL is the target exactly as submitted.
	Clicks      int64     // Clicks counts successful redirects.
	CreatedAt   time.Time // CreatedAt is set once on insert.
}
