package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

// CountLineInput is one denomination line of a cash count.
type CountLineInput struct {
	DenominationID string `json:"denomination_id" validate:"required,uuid"`
	Quantity       int    `json:"quantity"        validate:"min=0"`
}

// CashCountInput is the denomination count for one currency.
// DeclaredTotal, when present, is cross-checked against Σ(qty × value); a
// mismatch rejects the whole count.
type CashCountInput struct {
	CurrencyCode  string           `json:"currency_code"  validate:"required,len=3"`
	DeclaredTotal *decimal.Decimal `json:"declared_total"`
	Lines         []CountLineInput `json:"lines"          validate:"required,min=1,dive"`
}

type OpenShiftRequest struct {
	RegisterID string           `json:"register_id" validate:"required,uuid"`
	Counts     []CashCountInput `json:"counts"      validate:"required,min=1,dive"`
	Note       *string          `json:"note"`
}

type CloseShiftRequest struct {
	ShiftID string           `json:"shift_id" validate:"required,uuid"`
	Counts  []CashCountInput `json:"counts"   validate:"required,min=1,dive"`
	Note    *string          `json:"note"`
}

type PostMovementRequest struct {
	ShiftID      string          `json:"shift_id"      validate:"required,uuid"`
	Direction    string          `json:"direction"     validate:"required,oneof=in out"`
	CurrencyCode string          `json:"currency_code" validate:"required,len=3"`
	Amount       decimal.Decimal `json:"amount"        validate:"required"`
	Reason       string          `json:"reason"        validate:"required,min=3"`
	Reference    *string         `json:"reference"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type CountLineResponse struct {
	DenominationID string          `json:"denomination_id"`
	Value          decimal.Decimal `json:"value"`
	Quantity       int             `json:"quantity"`
	Subtotal       decimal.Decimal `json:"subtotal"`
}

type CashCountResponse struct {
	ID           string              `json:"id"`
	Type         string              `json:"type"`
	CurrencyCode string              `json:"currency_code"`
	TotalCounted decimal.Decimal     `json:"total_counted"`
	Lines        []CountLineResponse `json:"lines,omitempty"`
}

type MovementResponse struct {
	ID           string          `json:"id"`
	ShiftID      string          `json:"shift_id"`
	Direction    string          `json:"direction"`
	CurrencyCode string          `json:"currency_code"`
	Amount       decimal.Decimal `json:"amount"`
	Reason       string          `json:"reason"`
	Reference    *string         `json:"reference,omitempty"`
	CreatedAt    string          `json:"created_at"`
}

type ShiftResponse struct {
	ID          string              `json:"id"`
	RegisterID  string              `json:"register_id"`
	Status      string              `json:"status"`
	OpenedBy    string              `json:"opened_by"`
	ClosedBy    *string             `json:"closed_by,omitempty"`
	OpeningNote *string             `json:"opening_note,omitempty"`
	ClosingNote *string             `json:"closing_note,omitempty"`
	OpenedAt    string              `json:"opened_at"`
	ClosedAt    *string             `json:"closed_at,omitempty"`
	Counts      []CashCountResponse `json:"counts,omitempty"`
}

type ShiftListResponse struct {
	Data  []ShiftResponse `json:"data"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}
