package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type SaleLineRequest struct {
	ProductID string          `json:"product_id" validate:"required,uuid"`
	Quantity  int             `json:"quantity"   validate:"required,min=1"`
	Discount  decimal.Decimal `json:"discount"   validate:"min=0"`
}

type SalePaymentRequest struct {
	Method         string           `json:"method"          validate:"required,oneof=cash card transfer credit"`
	CurrencyCode   string           `json:"currency_code"   validate:"required,len=3"`
	Amount         decimal.Decimal  `json:"amount"          validate:"required"`
	TenderedAmount *decimal.Decimal `json:"tendered_amount"`
	FxRateToSale   *decimal.Decimal `json:"fx_rate_to_sale"`
}

type FinalizeSaleRequest struct {
	ShiftID      string               `json:"shift_id"      validate:"required,uuid"`
	BillToType   string               `json:"bill_to_type"  validate:"required,oneof=consumo credito_fiscal regimen_especial gubernamental none"`
	CustomerName *string              `json:"customer_name"`
	CustomerRNC  *string              `json:"customer_rnc"  validate:"omitempty,numeric,min=9,max=11"`
	Lines        []SaleLineRequest    `json:"lines"         validate:"required,min=1,dive"`
	Payments     []SalePaymentRequest `json:"payments"      validate:"required,min=1,dive"`
}

type VoidSaleRequest struct {
	Reason string `json:"reason" validate:"required,min=3"`
}

type SaleFilter struct {
	ShiftID string
	Status  string
	Date    string
	Page    int
	Limit   int
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type SaleLineResponse struct {
	Product   string          `json:"product"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Discount  decimal.Decimal `json:"discount"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type SalePaymentResponse struct {
	Method       string          `json:"method"`
	CurrencyCode string          `json:"currency_code"`
	Amount       decimal.Decimal `json:"amount"`
	ChangeAmount decimal.Decimal `json:"change_amount"`
}

type SaleResponse struct {
	ID            string                `json:"id"`
	Ncf           *string               `json:"ncf,omitempty"`
	NcfTypeCode   *string               `json:"ncf_type_code,omitempty"`
	BillToType    string                `json:"bill_to_type"`
	CustomerName  *string               `json:"customer_name,omitempty"`
	CustomerRNC   *string               `json:"customer_rnc,omitempty"`
	CurrencyCode  string                `json:"currency_code"`
	Subtotal      decimal.Decimal       `json:"subtotal"`
	DiscountTotal decimal.Decimal       `json:"discount_total"`
	TaxTotal      decimal.Decimal       `json:"tax_total"`
	Total         decimal.Decimal       `json:"total"`
	Status        string                `json:"status"`
	Lines         []SaleLineResponse    `json:"lines"`
	Payments      []SalePaymentResponse `json:"payments"`
	CreatedAt     string                `json:"created_at"`
}

type SaleListResponse struct {
	Data  []SaleResponse `json:"data"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}
