package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/atlaskeeper/internal/dbx"
	"github.com/dmitrijs2005/atlaskeeper/internal/server/repositories/files"
	"github.com/dmitrijs2005/atlaskeeper/internal/server/repositories/nodes"
	"github.com/dmitrijs2005/atlaskeeper/internal/server/repositories/txs"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Files(db dbx.DBTX) files.Repository
	Nodes(db dbx.DBTX) nodes.Repository
	Txs(db dbx.DBTX) txs.Repository
}
