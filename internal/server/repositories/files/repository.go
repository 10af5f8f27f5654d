// Package files stores metadata of uploaded files. Every query is scoped
// to one owner; there is no way to read files without naming the owner.
package files

import (
	"context"

	"github.com/dmitrijs2005/agritrust/internal/server/models"
)

type Repository interface {
	// Create inserts file and fills ID and CreatedAt. file.UserID is required.
	Create(ctx context.Context, file *models.File) (*models.File, error)
	// ListByOwner returns the owner's files, newest first. An empty
	// ownerID yields common.ErrOwnerRequired.
	ListByOwner(ctx context.Context, ownerID string) ([]*models.File, error)
}
