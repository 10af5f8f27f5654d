package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/agritrust/internal/dbx"
	"github.com/dmitrijs2005/agritrust/internal/server/repositories/files"
	"github.com/dmitrijs2005/agritrust/internal/server/repositories/users"
)

// MemoryRepositoryManager hands out the same in-process repositories
// regardless of the DBTX passed in. Used by the memory database mode and
// by service tests.
type MemoryRepositoryManager struct {
	users *users.MemoryRepository
	files *files.MemoryRepository
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{
		users: users.NewMemoryRepository(),
		files: files.NewMemoryRepository(),
	}
}

func (m *MemoryRepositoryManager) Users(dbx.DBTX) users.Repository { return m.users }

func (m *MemoryRepositoryManager) Files(dbx.DBTX) files.Repository { return m.files }

// RunMigrations is a no-op; memory repositories need no schema.
func (m *MemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error { return nil }
