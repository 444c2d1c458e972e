// Package receipts persists the record of every file that was registered on
// the ledger and delivered to storage, so the CLI can list past uploads
// after the in-memory queue is gone.
//
// Typical Usage
//
//	repo := receipts.NewSQLiteRepository(db)
//	_ = repo.Save(ctx, r)
//	r, _ := repo.GetByFID(ctx, fid)
//	all, _ := repo.List(ctx)
package receipts
