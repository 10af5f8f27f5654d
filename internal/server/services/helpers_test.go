package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/dmitrijs2005/agritrust/internal/dbx"
	"github.com/dmitrijs2005/agritrust/internal/logging"
	"github.com/dmitrijs2005/agritrust/internal/server/config"
	"github.com/dmitrijs2005/agritrust/internal/server/models"
	filesrepo "github.com/dmitrijs2005/agritrust/internal/server/repositories/files"
	"github.com/dmitrijs2005/agritrust/internal/server/repositories/repomanager"
	usersrepo "github.com/dmitrijs2005/agritrust/internal/server/repositories/users"
)

const testSecret = "k"

func testConfig() *config.Config {
	return &config.Config{
		SecretKey:                    testSecret,
		AccessTokenValidityDuration:  time.Hour,
		RefreshTokenValidityDuration: 2 * time.Hour,
	}
}

func newUserService(t *testing.T, db dbx.Database, rm repomanager.RepositoryManager) *UserService {
	t.Helper()
	return NewUserService(db, rm, testConfig(), logging.Nop{})
}

func newMemoryUserService(t *testing.T) *UserService {
	t.Helper()
	return newUserService(t, dbx.NopDatabase{}, repomanager.NewMemoryRepositoryManager())
}

// fakeUsersRepo returns canned errors; any method without one configured
// reports not found.
type fakeUsersRepo struct {
	createErr   error
	upsertOut   *models.User
	upsertErr   error
	getErr      error
	getOut      *models.User
	upsertCalls int
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	u.ID = "u1"
	return u, nil
}

func (f *fakeUsersRepo) CreateIfNotExists(ctx context.Context, u *models.User) (*models.User, bool, error) {
	f.upsertCalls++
	if f.upsertErr != nil {
		return nil, false, f.upsertErr
	}
	return f.upsertOut, true, nil
}

func (f *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getOut, nil
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getOut, nil
}

func (f *fakeUsersRepo) SetUnusablePassword(ctx context.Context, id string) error { return nil }

type fakeFilesRepo struct {
	createErr error
	listErr   error
	listOut   []*models.File
	listOwner string
}

func (f *fakeFilesRepo) Create(ctx context.Context, file *models.File) (*models.File, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	file.ID = "f1"
	return file, nil
}

func (f *fakeFilesRepo) ListByOwner(ctx context.Context, ownerID string) ([]*models.File, error) {
	f.listOwner = ownerID
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.listOut, nil
}

type fakeRepoManager struct {
	u *fakeUsersRepo
	f *fakeFilesRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository     { return m.u }
func (m *fakeRepoManager) Files(db dbx.DBTX) filesrepo.Repository     { return m.f }
