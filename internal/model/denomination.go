package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CashDenomination is static reference data: one bill or coin face value.
// Kind: "bill" | "coin". Position drives display order in counting forms.
type CashDenomination struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CurrencyCode string          `gorm:"type:varchar(3);not null;index"`
	Value        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Kind         string          `gorm:"type:varchar(10);not null"`
	Active       bool            `gorm:"not null;default:true"`
	Position     int             `gorm:"not null;default:0"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (CashDenomination) TableName() string { return "cash_denominations" }
