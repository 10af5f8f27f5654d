// Package users is the identity store: durable user records keyed by a
// unique email.
package users

import (
	"context"

	"github.com/dmitrijs2005/agritrust/internal/server/models"
)

type Repository interface {
	// Create inserts user and fills ID and CreatedAt. A taken email yields
	// common.ErrDuplicateEmail.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	// CreateIfNotExists inserts user unless the email is taken, in which
	// case the stored record is returned untouched and created is false.
	CreateIfNotExists(ctx context.Context, user *models.User) (stored *models.User, created bool, err error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	SetUnusablePassword(ctx context.Context, id string) error
}
