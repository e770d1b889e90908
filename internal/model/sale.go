package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sale status values.
const (
	SaleCompleted = "completed"
	SaleVoided    = "voided"
)

// Payment methods.
const (
	PaymentCash     = "cash"
	PaymentCard     = "card"
	PaymentTransfer = "transfer"
	PaymentCredit   = "credit"
)

// Sale is a finalized POS transaction. Ncf is stamped at finalize time when the
// bill-to type requires a fiscal document; it stays on the row even if the sale
// is later voided (fiscal numbers are burned, never reused).
type Sale struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	StoreID      uuid.UUID `gorm:"type:uuid;not null;index"`
	ShiftID      uuid.UUID `gorm:"type:uuid;not null;index"`
	UserID       uuid.UUID `gorm:"type:uuid;not null"`
	BillToType   string    `gorm:"type:varchar(20);not null;default:'consumo'"`
	CustomerName *string
	CustomerRNC  *string `gorm:"type:varchar(11);column:customer_rnc"`
	Ncf          *string `gorm:"type:varchar(19);uniqueIndex;column:ncf"`
	NcfTypeCode  *string `gorm:"type:varchar(3);column:ncf_type_code"`
	CurrencyCode string  `gorm:"type:varchar(3);not null;default:'DOP'"`
	Subtotal      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	DiscountTotal decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	// TaxTotal is the ITBIS portion included in Total
	TaxTotal  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Total     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Status    string          `gorm:"type:varchar(20);not null;default:'completed'"`
	VoidReason *string
	CreatedAt time.Time
	UpdatedAt time.Time

	Lines    []SaleLine    `gorm:"foreignKey:SaleID"`
	Payments []SalePayment `gorm:"foreignKey:SaleID"`
	User     *User         `gorm:"foreignKey:UserID"`
}

type SaleLine struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SaleID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null"`
	Quantity  int             `gorm:"not null"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Discount  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Subtotal  decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	Product *Product `gorm:"foreignKey:ProductID"`
}

// SalePayment records one tender against a sale. ChangeAmount is change handed
// back on an over-tendered cash payment — it lives here, not as a cash-out
// movement, so the drawer's expected total nets it out automatically.
// FxRateToSale converts Amount into the sale's currency when they differ.
type SalePayment struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SaleID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	Method         string          `gorm:"type:varchar(20);not null"`
	CurrencyCode   string          `gorm:"type:varchar(3);not null;default:'DOP'"`
	Amount         decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TenderedAmount decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	ChangeAmount   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	FxRateToSale   *decimal.Decimal `gorm:"type:decimal(12,6)"`
	CreatedAt      time.Time
}
