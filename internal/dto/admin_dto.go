package dto

import "github.com/shopspring/decimal"

// ─── Stores & registers ──────────────────────────────────────────────────────

type CreateStoreRequest struct {
	Name         string  `json:"name"          validate:"required"`
	RNC          string  `json:"rnc"           validate:"omitempty,numeric,min=9,max=11"`
	Address      *string `json:"address"`
	CurrencyCode string  `json:"currency_code" validate:"omitempty,len=3"`
}

type StoreResponse struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	RNC          string  `json:"rnc,omitempty"`
	Address      *string `json:"address,omitempty"`
	CurrencyCode string  `json:"currency_code"`
	Active       bool    `json:"active"`
}

type CreateRegisterRequest struct {
	StoreID string `json:"store_id" validate:"required,uuid"`
	Name    string `json:"name"     validate:"required"`
}

type RegisterResponse struct {
	ID      string `json:"id"`
	StoreID string `json:"store_id"`
	Name    string `json:"name"`
	Active  bool   `json:"active"`
}

// ─── Denominations ───────────────────────────────────────────────────────────

type CreateDenominationRequest struct {
	CurrencyCode string          `json:"currency_code" validate:"required,len=3"`
	Value        decimal.Decimal `json:"value"         validate:"required"`
	Kind         string          `json:"kind"          validate:"required,oneof=bill coin"`
	Position     int             `json:"position"      validate:"min=0"`
}

type DenominationResponse struct {
	ID           string          `json:"id"`
	CurrencyCode string          `json:"currency_code"`
	Value        decimal.Decimal `json:"value"`
	Kind         string          `json:"kind"`
	Position     int             `json:"position"`
	Active       bool            `json:"active"`
}
