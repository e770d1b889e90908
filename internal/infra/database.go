package infra

import (
	"fmt"

	"caribepos/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate to
// create / update all tables, then applies the idempotent SQL patches that GORM
// cannot express (partial unique indexes, CHECK constraints).
// TranslateError is on so unique violations surface as gorm.ErrDuplicatedKey.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}

	return db, nil
}

// RunMigrations applies AutoMigrate plus the SQL schema patches. Also used by
// the integration test harness against its throwaway container.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Store{},
		&model.Register{},
		&model.User{},
		&model.Product{},
		&model.StockMovement{},
		&model.CashDenomination{},
		&model.NcfSequence{},
		&model.CashShift{},
		&model.CashCount{},
		&model.CashCountLine{},
		&model.CashMovement{},
		&model.Sale{},
		&model.SaleLine{},
		&model.SalePayment{},
		&model.JournalEntry{},
		&model.JournalLine{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent DDL that AutoMigrate cannot express.
// Each statement uses IF NOT EXISTS semantics so re-running is safe.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		// At most one open shift per register. This partial unique index is
		// the authoritative guard — the service pre-check only improves the
		// error message for the common case.
		{"one open shift per register", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'ux_cash_shifts_open_register') THEN
    CREATE UNIQUE INDEX ux_cash_shifts_open_register
        ON cash_shifts (register_id)
        WHERE status = 'open';
  END IF;
END $$`},
		// Drawer ledger entries always store a positive amount; the direction
		// column carries the sign.
		{"cash movement amount positive", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_cash_movements_amount_positive') THEN
    ALTER TABLE cash_movements
      ADD CONSTRAINT chk_cash_movements_amount_positive CHECK (amount > 0);
  END IF;
END $$`},
		// NCF sequences may never run past their authorized range.
		{"ncf sequence within range", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_ncf_sequences_in_range') THEN
    ALTER TABLE ncf_sequences
      ADD CONSTRAINT chk_ncf_sequences_in_range CHECK (end_number IS NULL OR next_number <= end_number);
  END IF;
END $$`},
		// Retry cron query: error entries due for another attempt.
		{"journal retry partial index", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_journal_entries_retry') THEN
    CREATE INDEX idx_journal_entries_retry
        ON journal_entries (next_retry_at)
        WHERE status = 'error' AND next_retry_at IS NOT NULL;
  END IF;
END $$`},
	}

	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}
