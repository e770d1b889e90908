package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Journal entry statuses.
const (
	JournalPending = "pending"
	JournalPosted  = "posted"
	JournalError   = "error"
)

// Ledger account codes used by the journal worker.
const (
	AccountCash         = "1101" // Caja general
	AccountBank         = "1102" // Bancos
	AccountReceivables  = "1201" // Cuentas por cobrar clientes
	AccountSalesRevenue = "4101" // Ingresos por ventas
	AccountITBISPayable = "2105" // ITBIS por pagar
)

// JournalEntry is a double-entry accounting record derived from an operational
// event (the polymorphic source, e.g. a finalized sale). Posted asynchronously
// by the journal worker; failures are retried by the background cron.
type JournalEntry struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EntryDate   time.Time `gorm:"not null"`
	Description string    `gorm:"not null"`
	SourceType  string    `gorm:"type:varchar(30);not null;index:idx_journal_source"`
	SourceID    uuid.UUID `gorm:"type:uuid;not null;index:idx_journal_source"`
	Status      string    `gorm:"type:varchar(10);not null;default:'pending'"`
	// Retry fields — used by retry_cron to re-attempt failed postings
	RetryCount  int        `gorm:"not null;default:0"`
	NextRetryAt *time.Time
	LastError   *string
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Lines []JournalLine `gorm:"foreignKey:EntryID"`
}

func (JournalEntry) TableName() string { return "journal_entries" }

// JournalLine is one leg of a journal entry. Exactly one of Debit/Credit is
// non-zero; per entry, Σ debit must equal Σ credit.
type JournalLine struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EntryID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	Account      string          `gorm:"type:varchar(10);not null"`
	CurrencyCode string          `gorm:"type:varchar(3);not null;default:'DOP'"`
	Debit        decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Credit       decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
}

func (JournalLine) TableName() string { return "journal_lines" }
