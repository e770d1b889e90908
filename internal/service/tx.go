package service

import (
	"context"

	"gorm.io/gorm"
)

// runTx executes fn inside a GORM transaction when db is available, or calls
// fn(nil) directly when db is nil (unit test mode — the in-memory fakes supply
// their own rollback semantics through TxRunner).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// TxRunner abstracts the atomic-transaction boundary for services that must
// commit several repositories' writes as one unit (sale finalize, shift open
// and close). Production uses GormTxRunner; tests use a snapshotting fake.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// GormTxRunner runs fn inside db.Transaction.
type GormTxRunner struct{ db *gorm.DB }

func NewGormTxRunner(db *gorm.DB) *GormTxRunner { return &GormTxRunner{db: db} }

func (r *GormTxRunner) RunInTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return runTx(ctx, r.db, fn)
}
