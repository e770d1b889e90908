package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Shift status values.
const (
	ShiftOpen   = "open"
	ShiftClosed = "closed"
)

// Cash count types.
const (
	CountOpening = "opening"
	CountClosing = "closing"
	CountPartial = "partial"
)

// Movement directions.
const (
	MovementIn  = "in"
	MovementOut = "out"
)

// Well-known movement reasons. Reason is free text otherwise.
const (
	ReasonSalePayment = "sale_payment"
	ReasonSaleVoid    = "sale_void"
	ReasonChange      = "change"
)

// CashShift is one register's open-to-close cash-handling session.
// Once Status flips to closed the shift is immutable except for reporting.
type CashShift struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	RegisterID  uuid.UUID `gorm:"type:uuid;not null;index"`
	OpenedBy    uuid.UUID `gorm:"type:uuid;not null"`
	ClosedBy    *uuid.UUID
	Status      string `gorm:"type:varchar(10);not null;default:'open'"`
	OpeningNote *string
	ClosingNote *string
	Meta        json.RawMessage `gorm:"type:jsonb"`
	OpenedAt    time.Time
	ClosedAt    *time.Time

	Counts    []CashCount    `gorm:"foreignKey:ShiftID"`
	Movements []CashMovement `gorm:"foreignKey:ShiftID"`
}

func (CashShift) TableName() string { return "cash_shifts" }

// CashCount is one denomination count for one currency at a shift boundary.
// Counts are never mutated — a correction is a new row (type "partial").
// Invariant: TotalCounted == Σ lines (quantity × denomination value).
type CashCount struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ShiftID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	Type         string          `gorm:"type:varchar(10);not null"`
	CurrencyCode string          `gorm:"type:varchar(3);not null"`
	TotalCounted decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedBy    uuid.UUID       `gorm:"type:uuid;not null"`
	Note         *string
	CreatedAt    time.Time

	Lines []CashCountLine `gorm:"foreignKey:CountID"`
}

func (CashCount) TableName() string { return "cash_counts" }

type CashCountLine struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CountID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	DenominationID uuid.UUID       `gorm:"type:uuid;not null"`
	Quantity       int             `gorm:"not null"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	Denomination *CashDenomination `gorm:"foreignKey:DenominationID"`
}

func (CashCountLine) TableName() string { return "cash_count_lines" }

// CashMovement is an immutable event in the drawer ledger. Amount is always
// stored positive; Direction encodes the sign. Movements are NEVER updated or
// deleted — corrections and voids create inverse entries.
type CashMovement struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ShiftID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	Direction    string          `gorm:"type:varchar(3);not null"`
	CurrencyCode string          `gorm:"type:varchar(3);not null"`
	Amount       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Reason       string          `gorm:"not null"`
	Reference    *string
	CreatedBy    uuid.UUID `gorm:"type:uuid;not null"`
	// Polymorphic audit source, e.g. ("sale", sale_id)
	SourceType *string    `gorm:"type:varchar(30)"`
	SourceID   *uuid.UUID `gorm:"type:uuid"`
	Meta       json.RawMessage `gorm:"type:jsonb"`
	CreatedAt  time.Time
}

func (CashMovement) TableName() string { return "cash_movements" }
