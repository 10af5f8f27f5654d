package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/agritrust/internal/common"
	"github.com/dmitrijs2005/agritrust/internal/dbx"
	"github.com/dmitrijs2005/agritrust/internal/server/models"
)

// LinkResult is the outcome of LinkOrCreate.
type LinkResult struct {
	User    *models.User
	Created bool
	Tokens  *TokenPair
}

// LinkOrCreate resolves an externally authenticated email to a local
// identity, creating a passwordless one on first sight. An existing
// identity is returned as stored; later calls never overwrite name or
// location. Tokens are issued either way.
func (s *UserService) LinkOrCreate(ctx context.Context, email, fullName, farmLocation string) (*LinkResult, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, common.NewValidationError("email", "Email is required")
	}

	candidate := &models.User{
		Email:        email,
		UserName:     email,
		FullName:     strings.TrimSpace(fullName),
		FarmLocation: strings.TrimSpace(farmLocation),
	}

	var (
		user    *models.User
		created bool
	)
	err := s.db.InTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		user, created, err = s.repomanager.Users(tx).CreateIfNotExists(ctx, candidate)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("error linking user: %w", err)
	}

	pair, err := s.IssueTokens(user)
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "user synced", "user_id", user.ID, "created", created)
	return &LinkResult{User: user, Created: created, Tokens: pair}, nil
}
