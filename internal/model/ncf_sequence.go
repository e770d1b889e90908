package model

import (
	"time"

	"github.com/google/uuid"
)

// NcfSequence holds the numbering state for one fiscal document type at one store.
// TypeCode follows DGII coding: "B01" (crédito fiscal), "B02" (consumo),
// "B04" (nota de crédito), "B14" (régimen especial), "B15" (gubernamental).
//
// NextNumber only moves forward. A reserved number is never reissued, even when
// the sale that consumed it is voided — gaps are tolerated, reuse is not.
type NcfSequence struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	StoreID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:ux_ncf_store_type"`
	TypeCode string    `gorm:"type:varchar(3);not null;uniqueIndex:ux_ncf_store_type"`
	// Prefix defaults to TypeCode when nil/blank
	Prefix     *string `gorm:"type:varchar(10)"`
	NextNumber int64   `gorm:"not null;default:1"`
	// EndNumber is the first number OUTSIDE the authorized range; nil = unbounded
	EndNumber *int64
	PadLength int  `gorm:"not null;default:8"`
	Active    bool `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (NcfSequence) TableName() string { return "ncf_sequences" }
