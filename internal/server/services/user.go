// Package services contains server-side business logic. This file implements
// UserService: registration, password login, stateless token issuance and
// the farmer/profile operations.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/dmitrijs2005/agritrust/internal/common"
	"github.com/dmitrijs2005/agritrust/internal/dbx"
	"github.com/dmitrijs2005/agritrust/internal/logging"
	"github.com/dmitrijs2005/agritrust/internal/server/auth"
	"github.com/dmitrijs2005/agritrust/internal/server/config"
	"github.com/dmitrijs2005/agritrust/internal/server/models"
	"github.com/dmitrijs2005/agritrust/internal/server/repositories/repomanager"
)

const (
	minPasswordLength = 8
	// bcrypt only looks at the first 72 bytes and rejects longer input
	maxPasswordLength = 72
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
// Neither is stored server side.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type RegisterInput struct {
	Email        string
	Password     string
	UserName     string
	FullName     string
	FarmLocation string
}

// FarmerInput creates an identity on behalf of a farmer. Such identities have
// no password until one is set out of band.
type FarmerInput struct {
	Email        string
	UserName     string
	FullName     string
	FarmLocation string
}

type UserService struct {
	db                           dbx.Database
	repomanager                  repomanager.RepositoryManager
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	log                          logging.Logger
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db dbx.Database, m repomanager.RepositoryManager, cfg *config.Config, log logging.Logger) *UserService {
	return &UserService{
		db:                           db,
		repomanager:                  m,
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		log:                          log.With("module", "users"),
	}
}

// NormalizeEmail is applied to every email before it reaches storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a user with a password credential.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	email := NormalizeEmail(in.Email)

	verr := &common.ValidationError{}
	validateEmail(verr, email)
	switch {
	case in.Password == "":
		verr.Add("password", "This field is required.")
	case len(in.Password) < minPasswordLength:
		verr.Add("password", fmt.Sprintf("Ensure this field has at least %d characters.", minPasswordLength))
	case len(in.Password) > maxPasswordLength:
		verr.Add("password", fmt.Sprintf("Ensure this field has no more than %d bytes.", maxPasswordLength))
	}
	if !verr.Empty() {
		return nil, verr
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		Email:        email,
		UserName:     defaultString(strings.TrimSpace(in.UserName), email),
		FullName:     strings.TrimSpace(in.FullName),
		FarmLocation: strings.TrimSpace(in.FarmLocation),
		PasswordHash: &hash,
	}
	u, err := s.repomanager.Users(s.db.Conn()).Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrDuplicateEmail) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.log.Info(ctx, "user registered", "user_id", u.ID)
	return u, nil
}

// Authenticate checks an email/password pair. Unknown emails, wrong passwords
// and accounts without a usable password all yield ErrInvalidCredentials, and
// all of them pay for one bcrypt comparison.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db.Conn()).GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			auth.VerifyPassword(nil, password)
			return nil, common.ErrInvalidCredentials
		}
		s.log.Error(ctx, "error loading user", "error", err)
		return nil, common.ErrorInternal
	}

	if !auth.VerifyPassword(user.PasswordHash, password) {
		return nil, common.ErrInvalidCredentials
	}
	return user, nil
}

// IssueTokens mints a fresh access/refresh pair for user.
func (s *UserService) IssueTokens(user *models.User) (*TokenPair, error) {
	return s.generateTokenPair(user.ID)
}

// Login authenticates and, on success, returns the user with a new TokenPair.
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, *TokenPair, error) {
	user, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, nil, err
	}

	pair, err := s.IssueTokens(user)
	if err != nil {
		return nil, nil, err
	}

	s.log.Info(ctx, "user logged in", "user_id", user.ID)
	return user, pair, nil
}

// Refresh exchanges a valid refresh token for a new pair. Access tokens are
// not accepted here, and the user must still exist.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	userID, err := auth.GetUserIDFromToken(refreshToken, auth.TokenTypeRefresh, s.jwtSecret)
	if err != nil {
		return nil, err
	}

	if _, err := s.repomanager.Users(s.db.Conn()).GetByID(ctx, userID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidToken
		}
		s.log.Error(ctx, "error loading user", "error", err)
		return nil, common.ErrorInternal
	}

	return s.generateTokenPair(userID)
}

// GetProfile returns the identity with the given id or common.ErrorNotFound.
func (s *UserService) GetProfile(ctx context.Context, id string) (*models.User, error) {
	return s.repomanager.Users(s.db.Conn()).GetByID(ctx, id)
}

// CreateFarmer registers an identity without a usable password.
func (s *UserService) CreateFarmer(ctx context.Context, in FarmerInput) (*models.User, error) {
	email := NormalizeEmail(in.Email)

	verr := &common.ValidationError{}
	validateEmail(verr, email)
	if !verr.Empty() {
		return nil, verr
	}

	user := &models.User{
		Email:        email,
		UserName:     defaultString(strings.TrimSpace(in.UserName), email),
		FullName:     strings.TrimSpace(in.FullName),
		FarmLocation: strings.TrimSpace(in.FarmLocation),
	}
	u, err := s.repomanager.Users(s.db.Conn()).Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrDuplicateEmail) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating farmer: %w", err)
	}

	s.log.Info(ctx, "farmer created", "user_id", u.ID)
	return u, nil
}

// --- helpers below ---

func (s *UserService) generateTokenPair(userID string) (*TokenPair, error) {
	access, err := auth.GenerateToken(userID, auth.TokenTypeAccess, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, common.ErrorInternal
	}
	refresh, err := auth.GenerateToken(userID, auth.TokenTypeRefresh, s.jwtSecret, s.refreshTokenValidityDuration)
	if err != nil {
		return nil, common.ErrorInternal
	}
	return &TokenPair{Access: access, Refresh: refresh}, nil
}

func validateEmail(verr *common.ValidationError, email string) {
	if email == "" {
		verr.Add("email", "This field is required.")
		return
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		verr.Add("email", "Enter a valid email address.")
	}
}

func defaultString(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
