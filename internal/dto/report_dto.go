package dto

import "github.com/shopspring/decimal"

// CurrencyVariance is the expected-vs-counted line for one currency at close.
// Classification: "normal" | "advertencia" | "critico".
type CurrencyVariance struct {
	CurrencyCode   string          `json:"currency_code"`
	Opening        decimal.Decimal `json:"opening"`
	Expected       decimal.Decimal `json:"expected"`
	Counted        decimal.Decimal `json:"counted"`
	Variance       decimal.Decimal `json:"variance"`
	VariancePct    decimal.Decimal `json:"variance_pct"`
	Classification string          `json:"classification"`
}

type PaymentSummaryRowResponse struct {
	Method                string          `json:"method"`
	CurrencyCode          string          `json:"currency_code"`
	Count                 int64           `json:"count"`
	Amount                decimal.Decimal `json:"amount"`
	AmountInShiftCurrency decimal.Decimal `json:"amount_in_shift_currency"`
}

type ShiftReportResponse struct {
	ShiftID        string                      `json:"shift_id"`
	RegisterID     string                      `json:"register_id"`
	Status         string                      `json:"status"`
	OpenedAt       string                      `json:"opened_at"`
	ClosedAt       *string                     `json:"closed_at,omitempty"`
	Currencies     []CurrencyVariance          `json:"currencies"`
	PaymentSummary []PaymentSummaryRowResponse `json:"payment_summary"`
}
