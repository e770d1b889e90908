package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a sellable catalog item. SalePrice is ITBIS-inclusive.
type Product struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Barcode   string    `gorm:"uniqueIndex;not null"`
	Name      string    `gorm:"index;not null"`
	Category  string    `gorm:"not null;default:'general'"`
	CostPrice decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	SalePrice decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// Taxable products carry 18% ITBIS inside SalePrice; exempt ones do not
	Taxable      bool       `gorm:"not null;default:true"`
	StockCurrent int        `gorm:"not null;default:0"`
	StockMinimum int        `gorm:"not null;default:5"`
	SupplierID   *uuid.UUID `gorm:"type:uuid;index"`
	Active       bool       `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// StockMovement records every stock change on a product. Created automatically
// on sale, void, and manual adjustment. Quantity: positive = in, negative = out.
type StockMovement struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductID  uuid.UUID `gorm:"type:uuid;not null;index"`
	Type       string    `gorm:"not null"` // "sale" | "manual_adjustment" | "void_restore" | "purchase"
	Quantity   int       `gorm:"not null"`
	StockBefore int      `gorm:"not null"`
	StockAfter  int      `gorm:"not null"`
	Note       string
	// Polymorphic audit source, e.g. ("sale", sale_id)
	SourceType *string    `gorm:"type:varchar(30)"`
	SourceID   *uuid.UUID `gorm:"type:uuid"`
	CreatedAt  time.Time

	Product *Product `gorm:"foreignKey:ProductID"`
}

func (StockMovement) TableName() string { return "stock_movements" }
