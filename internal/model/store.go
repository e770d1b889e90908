package model

import (
	"time"

	"github.com/google/uuid"
)

// Store is a physical branch. CurrencyCode is the reporting currency used when
// aggregating multi-currency shift payments.
type Store struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name         string    `gorm:"not null"`
	RNC          string    `gorm:"type:varchar(11);column:rnc"`
	Address      *string
	CurrencyCode string `gorm:"type:varchar(3);not null;default:'DOP'"`
	Active       bool   `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Register is a physical cash drawer inside a store. At most one CashShift may be
// open per register at any time (enforced by a partial unique index).
type Register struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	StoreID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Name      string    `gorm:"not null"`
	Active    bool      `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Store *Store `gorm:"foreignKey:StoreID"`
}
