package repomanager

import (
	"context"
	"database/sql"

	"github.com/mygardenbook/gardenbook/internal/dbx"
	"github.com/mygardenbook/gardenbook/internal/server/repositories/admins"
	"github.com/mygardenbook/gardenbook/internal/server/repositories/categories"
	"github.com/mygardenbook/gardenbook/internal/server/repositories/specimens"
)

// RepositoryManager vends repositories bound to either the pool or a
// transaction, so services can compose several of them inside dbx.WithTx.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Specimens(db dbx.DBTX) specimens.Repository
	Categories(db dbx.DBTX) categories.Repository
	Admins(db dbx.DBTX) admins.Repository
}
