package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/agritrust/internal/dbx"
	"github.com/dmitrijs2005/agritrust/internal/server/repositories/files"
	"github.com/dmitrijs2005/agritrust/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX so a service can use
// the same code for plain calls and inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Files(db dbx.DBTX) files.Repository
}
