// Package storage keeps uploaded file payloads in object storage and hands
// out time-limited download URLs for them.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// PresignExpiry is how long a download URL stays valid.
const PresignExpiry = 15 * time.Minute

var ErrObjectNotFound = errors.New("object not found")

type Store interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	URL(ctx context.Context, key string) (string, error)
}

// NewKey returns a unique object key under the users/<yyyy>/<m>/<d>/ prefix.
func NewKey(now time.Time) string {
	return fmt.Sprintf("users/%d/%d/%d/%v", now.Year(), now.Month(), now.Day(), uuid.New())
}
